// Package fat12 implements the on-disk structures of a FAT12 floppy: the
// sector layout, the packed 12-bit allocation table, boot sectors, and
// directory entries.
package fat12

import (
	"fmt"

	"github.com/dargueta/dirdisk"
	"github.com/dargueta/dirdisk/disks"
)

// ClusterID identifies a cluster in the data area, or is one of the special
// FAT entry values [ClusterFree], [ClusterBad], and [ClusterEOF].
type ClusterID uint

const (
	ClusterFree ClusterID = 0
	// ClusterBad marks a bad cluster. It and every value above it are
	// normalized to [ClusterEOF] when read.
	ClusterBad ClusterID = 0xFF7
	ClusterEOF ClusterID = 0xFFF

	// FirstDataCluster is the number of the cluster at the start of the data
	// area. Clusters 0 and 1 don't exist; their FAT slots hold the media byte.
	FirstDataCluster ClusterID = 2

	// maxFAT12Clusters is the largest cluster count a FAT12 volume can have.
	maxFAT12Clusters = 4084
)

const (
	DirentSize       = 32
	DirentsPerSector = dirdisk.SectorSize / DirentSize
	NumFATs          = 2
	bootSectorCount  = 1
)

// Region identifies which part of the volume a sector belongs to.
type Region int

const (
	RegionBoot Region = iota
	RegionFAT1
	RegionFAT2
	RegionDirectory
	RegionData
	RegionOutOfRange
)

func (r Region) String() string {
	switch r {
	case RegionBoot:
		return "boot"
	case RegionFAT1:
		return "fat1"
	case RegionFAT2:
		return "fat2"
	case RegionDirectory:
		return "directory"
	case RegionData:
		return "data"
	default:
		return "out-of-range"
	}
}

// Layout describes where everything lives on the volume. All sector numbers
// are logical.
type Layout struct {
	TotalSectors      uint
	SectorsPerTrack   uint
	Heads             uint
	SectorsPerCluster uint
	SectorsPerFAT     uint
	RootEntries       uint
	Media             byte
}

// NewLayout derives a volume layout from a catalogue geometry, making sure the
// result is a usable FAT12 volume.
func NewLayout(geometry disks.DiskGeometry) (Layout, error) {
	layout := Layout{
		TotalSectors:      geometry.TotalSectors,
		SectorsPerTrack:   geometry.SectorsPerTrack,
		Heads:             geometry.Heads,
		SectorsPerCluster: geometry.SectorsPerCluster,
		SectorsPerFAT:     geometry.SectorsPerFAT,
		RootEntries:       geometry.RootEntries,
		Media:             byte(geometry.Media),
	}
	return layout, layout.Validate()
}

// Validate checks that the layout is internally consistent.
func (l Layout) Validate() error {
	if l.SectorsPerCluster == 0 || l.SectorsPerFAT == 0 || l.RootEntries == 0 {
		return dirdisk.ErrInvalidArgument.WithMessage(
			"sectors per cluster, sectors per FAT, and root entries must be nonzero")
	}
	if l.RootEntries%DirentsPerSector != 0 {
		return dirdisk.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"root entries must be a multiple of %d, got %d",
				DirentsPerSector,
				l.RootEntries))
	}
	if l.TotalSectors <= l.FirstDataSector() {
		return dirdisk.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"%d sectors can't hold a data area starting at sector %d",
				l.TotalSectors,
				l.FirstDataSector()))
	}

	totalClusters := l.TotalClusters()
	if totalClusters > maxFAT12Clusters {
		return dirdisk.ErrNotSupported.WithMessage(
			fmt.Sprintf("too many clusters for FAT12: %d", totalClusters))
	}

	// The FAT must have room for an entry for every cluster, including the two
	// reserved ones at the start.
	fatBytesNeeded := (uint(l.MaxCluster())*3 + 1) / 2
	if fatBytesNeeded > l.FATSizeBytes() {
		return dirdisk.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"FAT of %d bytes is too small for %d clusters",
				l.FATSizeBytes(),
				totalClusters))
	}
	return nil
}

// BytesPerCluster gives the size of a cluster, in bytes.
func (l Layout) BytesPerCluster() uint {
	return l.SectorsPerCluster * dirdisk.SectorSize
}

// FATSizeBytes gives the size of a single copy of the FAT, in bytes.
func (l Layout) FATSizeBytes() uint {
	return l.SectorsPerFAT * dirdisk.SectorSize
}

// FATStart returns the first sector of FAT copy `index` (0 or 1).
func (l Layout) FATStart(index uint) uint {
	return bootSectorCount + index*l.SectorsPerFAT
}

func (l Layout) DirectoryStart() uint {
	return bootSectorCount + NumFATs*l.SectorsPerFAT
}

func (l Layout) DirectorySectors() uint {
	return l.RootEntries / DirentsPerSector
}

func (l Layout) FirstDataSector() uint {
	return l.DirectoryStart() + l.DirectorySectors()
}

// TotalClusters gives the number of clusters in the data area.
func (l Layout) TotalClusters() uint {
	return (l.TotalSectors - l.FirstDataSector()) / l.SectorsPerCluster
}

// MaxCluster is one past the last valid cluster number. It's also the value
// returned by the free cluster search when the disk is full.
func (l Layout) MaxCluster() ClusterID {
	return ClusterID(l.TotalClusters()) + FirstDataCluster
}

// ClusterToSector returns the first sector of `cluster`. The cluster must be
// valid.
func (l Layout) ClusterToSector(cluster ClusterID) uint {
	return l.FirstDataSector() + uint(cluster-FirstDataCluster)*l.SectorsPerCluster
}

// SectorToCluster returns the cluster containing a data-area sector, and the
// index of the sector within that cluster.
func (l Layout) SectorToCluster(sector uint) (ClusterID, uint) {
	relative := sector - l.FirstDataSector()
	return ClusterID(relative/l.SectorsPerCluster) + FirstDataCluster,
		relative % l.SectorsPerCluster
}

// RegionOf tells which part of the volume `sector` belongs to.
func (l Layout) RegionOf(sector uint) Region {
	switch {
	case sector >= l.TotalSectors:
		return RegionOutOfRange
	case sector < bootSectorCount:
		return RegionBoot
	case sector < l.FATStart(1):
		return RegionFAT1
	case sector < l.DirectoryStart():
		return RegionFAT2
	case sector < l.FirstDataSector():
		return RegionDirectory
	default:
		return RegionData
	}
}
