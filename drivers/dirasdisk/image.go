package dirasdisk

import (
	"fmt"

	"github.com/dargueta/dirdisk"
	"github.com/dargueta/dirdisk/file_systems/fat12"
)

// Image is the in-memory sector array of the whole volume. Every access goes
// through a bounds-checked accessor; directory entries are decoded into values
// and encoded back rather than aliased onto the bytes.
type Image struct {
	layout fat12.Layout
	data   []byte
}

// NewImage allocates a zero-filled image for a volume with the given layout.
func NewImage(layout fat12.Layout) *Image {
	return &Image{
		layout: layout,
		data:   make([]byte, layout.TotalSectors*dirdisk.SectorSize),
	}
}

func (img *Image) checkSector(sector uint) error {
	if sector >= img.layout.TotalSectors {
		return dirdisk.ErrArgumentOutOfRange.WithMessage(
			fmt.Sprintf(
				"sector %d not in range [0, %d)", sector, img.layout.TotalSectors))
	}
	return nil
}

// Sector returns a view of the bytes of `sector`.
func (img *Image) Sector(sector uint) ([]byte, error) {
	err := img.checkSector(sector)
	if err != nil {
		return nil, err
	}
	start := sector * dirdisk.SectorSize
	return img.data[start : start+dirdisk.SectorSize], nil
}

// ReadSector copies the contents of `sector` into `buffer`.
func (img *Image) ReadSector(sector uint, buffer []byte) error {
	data, err := img.Sector(sector)
	if err != nil {
		return err
	}
	copy(buffer, data)
	return nil
}

// WriteSector overwrites `sector` with the contents of `buffer`.
func (img *Image) WriteSector(sector uint, buffer []byte) error {
	data, err := img.Sector(sector)
	if err != nil {
		return err
	}
	copy(data, buffer)
	return nil
}

// sectorRange returns a view of `count` sectors starting at `first`. The range
// must come from the layout.
func (img *Image) sectorRange(first, count uint) []byte {
	start := first * dirdisk.SectorSize
	return img.data[start : start+count*dirdisk.SectorSize]
}

// FAT returns a view of FAT copy `index` (0 or 1).
func (img *Image) FAT(index uint) []byte {
	return img.sectorRange(img.layout.FATStart(index), img.layout.SectorsPerFAT)
}

// Directory returns a view of the whole root directory area.
func (img *Image) Directory() []byte {
	return img.sectorRange(img.layout.DirectoryStart(), img.layout.DirectorySectors())
}

// Cluster returns a view of the bytes of a data cluster. `cluster` must be
// valid for the layout.
func (img *Image) Cluster(cluster fat12.ClusterID) []byte {
	return img.sectorRange(img.layout.ClusterToSector(cluster), img.layout.SectorsPerCluster)
}

// RawDirent returns a view of the 32 bytes of directory slot `slot`.
func (img *Image) RawDirent(slot uint) []byte {
	if slot >= img.layout.RootEntries {
		panic(fmt.Sprintf("directory slot %d not in [0, %d)", slot, img.layout.RootEntries))
	}
	start := slot * fat12.DirentSize
	return img.Directory()[start : start+fat12.DirentSize]
}

// Dirent decodes directory slot `slot`.
func (img *Image) Dirent(slot uint) fat12.Dirent {
	// RawDirent always returns exactly DirentSize bytes, so decoding can't fail.
	dirent, err := fat12.DecodeDirent(img.RawDirent(slot))
	if err != nil {
		panic(err)
	}
	return dirent
}

// SetDirent encodes `dirent` into directory slot `slot`.
func (img *Image) SetDirent(slot uint, dirent fat12.Dirent) {
	err := dirent.Encode(img.RawDirent(slot))
	if err != nil {
		panic(err)
	}
}

// Bytes returns the entire image. The slice aliases the image.
func (img *Image) Bytes() []byte {
	return img.data
}
