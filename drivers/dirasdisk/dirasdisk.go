// Package dirasdisk presents a host directory as a FAT12 floppy.
//
// The virtual disk is built in memory from the files in the directory, and kept
// in step with it in both directions. Changes on the host are picked up by
// polling: whenever the guest reads a sector after a long enough pause, the
// directory is rescanned. Changes made by the guest are detected by comparing
// each written FAT and directory sector against the previous contents, and are
// replayed onto the host files immediately.
//
// Only the root directory is mirrored, and only regular files in it.
package dirasdisk

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dargueta/dirdisk"
	"github.com/dargueta/dirdisk/disks"
	"github.com/dargueta/dirdisk/file_systems/fat12"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// DirAsDisk is a [dirdisk.SectorDevice] backed by a host directory. It isn't
// safe for concurrent use.
type DirAsDisk struct {
	hostDir      string
	fs           afero.Fs
	layout       fat12.Layout
	bootVariant  fat12.BootSectorVariant
	volumeSerial uint32
	syncInterval time.Duration

	warnings dirdisk.WarningSink
	notifier dirdisk.MediaChangeNotifier
	logger   logrus.FieldLogger

	image      *Image
	fat        *fat12.Table
	index      *HostIndex
	lastAccess dirdisk.EmuTime
}

// New creates a virtual disk mirroring `hostDir` and performs the initial
// synchronization. It fails with [dirdisk.ErrNotADirectory] if `hostDir` isn't
// a directory.
func New(hostDir string, options ...Option) (*DirAsDisk, error) {
	defaultLayout, err := fat12.NewLayout(disks.GetDefaultDiskGeometry())
	if err != nil {
		return nil, err
	}

	d := &DirAsDisk{
		hostDir:      filepath.Clean(hostDir),
		fs:           afero.NewOsFs(),
		layout:       defaultLayout,
		bootVariant:  fat12.BootSectorDOS1,
		syncInterval: DefaultSyncInterval,
		notifier:     dirdisk.NopMediaChangeNotifier{},
	}

	for _, option := range options {
		err = option(d)
		if err != nil {
			return nil, err
		}
	}

	if d.logger == nil {
		logger := logrus.New()
		logger.SetOutput(os.Stderr)
		d.logger = logger
	}
	d.logger = d.logger.WithField("host_dir", d.hostDir)
	if d.warnings == nil {
		d.warnings = dirdisk.NewLogrusWarningSink(d.logger)
	}

	isDir, err := afero.IsDir(d.fs, d.hostDir)
	if err != nil {
		return nil, dirdisk.ErrNotADirectory.WithMessage(d.hostDir).Wrap(err)
	}
	if !isDir {
		return nil, dirdisk.ErrNotADirectory.WithMessage(d.hostDir)
	}

	bootSector, err := fat12.NewBootSector(d.bootVariant, d.layout, d.volumeSerial)
	if err != nil {
		return nil, err
	}

	d.image = NewImage(d.layout)
	d.fat = fat12.NewTable(d.image.FAT(0), d.image.FAT(1), d.layout.MaxCluster())
	d.index = NewHostIndex(d.layout.RootEntries)

	err = d.image.WriteSector(0, bootSector)
	if err != nil {
		return nil, err
	}
	d.fat.Format(d.layout.Media)

	d.logger.WithFields(logrus.Fields{
		"total_sectors": d.layout.TotalSectors,
		"max_cluster":   d.layout.MaxCluster(),
		"root_entries":  d.layout.RootEntries,
	}).Debug("created virtual disk")

	d.SyncWithHost()
	return d, nil
}

// HostDir returns the path of the mirrored directory.
func (d *DirAsDisk) HostDir() string {
	return d.hostDir
}

// Layout returns the layout of the virtual volume.
func (d *DirAsDisk) Layout() fat12.Layout {
	return d.layout
}

// FreeClusters returns the number of unallocated clusters on the virtual disk.
func (d *DirAsDisk) FreeClusters() uint {
	return d.fat.FreeClusters()
}

// EntryInfo describes one in-use directory entry as the guest sees it.
type EntryInfo struct {
	Slot         uint
	ShortName    fat12.ShortName
	Attributes   uint8
	Size         uint32
	StartCluster fat12.ClusterID
	// Clusters is the length of the entry's cluster chain, which can differ
	// from what Size calls for if the guest left the two inconsistent.
	Clusters uint
	ModTime  time.Time
	// HostPath is the path of the mirrored host file, or empty if the entry
	// isn't mirrored.
	HostPath string
}

// Entries returns every in-use directory entry, in slot order.
func (d *DirAsDisk) Entries() []EntryInfo {
	entries := []EntryInfo{}
	for slot := uint(0); slot < d.layout.RootEntries; slot++ {
		dirent := d.image.Dirent(slot)
		if dirent.IsFree() {
			continue
		}
		entries = append(entries, EntryInfo{
			Slot:         slot,
			ShortName:    dirent.ShortName(),
			Attributes:   dirent.Attributes,
			Size:         dirent.Size,
			StartCluster: fat12.ClusterID(dirent.StartCluster),
			Clusters:     d.fat.ChainLength(fat12.ClusterID(dirent.StartCluster)),
			ModTime:      dirent.ModTime(),
			HostPath:     d.index.Get(slot).Path,
		})
	}
	return entries
}

// findSlotByStartCluster returns the in-use directory slot whose file begins
// at `cluster`.
func (d *DirAsDisk) findSlotByStartCluster(cluster fat12.ClusterID) (uint, bool) {
	for slot := uint(0); slot < d.layout.RootEntries; slot++ {
		dirent := d.image.Dirent(slot)
		if !dirent.IsFree() && fat12.ClusterID(dirent.StartCluster) == cluster {
			return slot, true
		}
	}
	return 0, false
}

// findSlotByName returns the in-use directory slot with the given 8.3 name,
// ignoring case.
func (d *DirAsDisk) findSlotByName(name fat12.ShortName) (uint, bool) {
	for slot := uint(0); slot < d.layout.RootEntries; slot++ {
		dirent := d.image.Dirent(slot)
		if !dirent.IsFree() && dirent.ShortName().EqualFold(name) {
			return slot, true
		}
	}
	return 0, false
}

// findFreeSlot returns the first directory slot that isn't in use.
func (d *DirAsDisk) findFreeSlot() (uint, bool) {
	for slot := uint(0); slot < d.layout.RootEntries; slot++ {
		dirent := d.image.Dirent(slot)
		if dirent.IsFree() {
			return slot, true
		}
	}
	return 0, false
}

// deleteEntry releases the clusters of the file in `slot`, marks the entry
// deleted, and unmaps it. The host file isn't touched.
func (d *DirAsDisk) deleteEntry(slot uint) {
	dirent := d.image.Dirent(slot)
	d.fat.FreeChain(fat12.ClusterID(dirent.StartCluster))
	dirent.MarkDeleted()
	d.image.SetDirent(slot, dirent)
	d.index.Clear(slot)
}
