package dirasdisk

import (
	"fmt"

	"github.com/dargueta/dirdisk"
	"github.com/dargueta/dirdisk/file_systems/fat12"
)

func (d *DirAsDisk) checkAccess(sector uint, buffer []byte) error {
	if len(buffer) != dirdisk.SectorSize {
		return dirdisk.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("sector buffer must be %d bytes, got %d", dirdisk.SectorSize, len(buffer)))
	}
	if sector >= d.layout.TotalSectors {
		return dirdisk.ErrArgumentOutOfRange.WithMessage(
			fmt.Sprintf("sector %d not in range [0, %d)", sector, d.layout.TotalSectors))
	}
	return nil
}

// ReadSector implements [dirdisk.SectorDevice].
//
// If more than the sync interval of emulated time has passed since the previous
// read, the host directory is resynchronized first and the media change
// notifier is told to treat the disk as freshly inserted.
func (d *DirAsDisk) ReadSector(now dirdisk.EmuTime, sector uint, buffer []byte) error {
	err := d.checkAccess(sector, buffer)
	if err != nil {
		return err
	}

	if now.Sub(d.lastAccess) > d.syncInterval {
		d.SyncWithHost()
		d.notifier.ForceDiskChange()
	}
	d.lastAccess = now

	return d.image.ReadSector(sector, buffer)
}

// PeekSector implements [dirdisk.SectorDevice]. It never synchronizes.
func (d *DirAsDisk) PeekSector(sector uint, buffer []byte) error {
	err := d.checkAccess(sector, buffer)
	if err != nil {
		return err
	}
	return d.image.ReadSector(sector, buffer)
}

// WriteSector implements [dirdisk.SectorDevice].
//
// Writes to the boot sector are ignored. Writes to the first FAT and to the
// directory are compared against the current contents and the differences are
// replayed onto the host. The second FAT is stored as is. Writes to the data
// area are stored and passed through to the host file owning the sector.
//
// Host I/O failures are reported to the warning sink, never returned.
func (d *DirAsDisk) WriteSector(sector uint, buffer []byte) error {
	err := d.checkAccess(sector, buffer)
	if err != nil {
		return err
	}

	switch d.layout.RegionOf(sector) {
	case fat12.RegionBoot:
		d.logger.Debug("ignoring write to boot sector")
		return nil
	case fat12.RegionFAT1:
		return d.writeFATSector(sector, buffer)
	case fat12.RegionFAT2:
		return d.image.WriteSector(sector, buffer)
	case fat12.RegionDirectory:
		d.writeDirectorySector(sector, buffer)
		return nil
	default:
		return d.writeDataSector(sector, buffer)
	}
}

func (d *DirAsDisk) TotalSectors() uint {
	return d.layout.TotalSectors
}

func (d *DirAsDisk) SectorsPerTrack() uint {
	return d.layout.SectorsPerTrack
}

// Heads returns the number of sides. Every catalogue geometry is double-sided.
func (d *DirAsDisk) Heads() uint {
	return d.layout.Heads
}

func (d *DirAsDisk) IsWriteProtected() bool {
	return false
}

var _ dirdisk.SectorDevice = (*DirAsDisk)(nil)
