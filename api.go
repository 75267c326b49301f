// Package dirdisk presents an ordinary host directory to an emulated floppy
// controller as a FAT12 disk, keeping both sides synchronized as either one
// changes.
package dirdisk

//go:generate mockgen -destination=drivers/dirasdisk/mock_dirdisk_test.go -package=dirasdisk github.com/dargueta/dirdisk WarningSink,MediaChangeNotifier

import "time"

// SectorSize is the size of a single logical sector, in bytes.
const SectorSize = 512

// EmuTime is a point on the emulated machine's clock, measured from the moment
// the machine was powered on. It never comes from the host clock.
type EmuTime time.Duration

// Sub returns the amount of emulated time elapsed between `earlier` and `t`.
func (t EmuTime) Sub(earlier EmuTime) time.Duration {
	return time.Duration(t - earlier)
}

// SectorDevice is the sector-level contract shared by every disk backend.
//
// Sector numbers are logical and begin at 0. Buffers passed to all methods must
// be exactly [SectorSize] bytes long.
type SectorDevice interface {
	// ReadSector copies the contents of `sector` into `buffer`. `now` is the
	// current emulated time; backends that synchronize with the host use it to
	// throttle synchronization passes.
	ReadSector(now EmuTime, sector uint, buffer []byte) error

	// PeekSector is like ReadSector but must never have side effects. It's used
	// for out-of-band operations such as hashing the whole disk.
	PeekSector(sector uint, buffer []byte) error

	WriteSector(sector uint, buffer []byte) error

	TotalSectors() uint
	SectorsPerTrack() uint
	Heads() uint
	IsWriteProtected() bool
}

// WarningSink receives human-readable warnings that must not interrupt the
// emulated machine. It's fire-and-forget; implementations can't fail.
type WarningSink interface {
	Warn(message string)
}

// MediaChangeNotifier is implemented by the disk container holding a
// [SectorDevice]. Backends call ForceDiskChange when the medium must be treated
// as freshly inserted, so that any cached copies of sectors are discarded.
type MediaChangeNotifier interface {
	ForceDiskChange()
}

// NopMediaChangeNotifier ignores all notifications.
type NopMediaChangeNotifier struct{}

func (NopMediaChangeNotifier) ForceDiskChange() {}
