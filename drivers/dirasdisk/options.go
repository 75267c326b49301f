package dirasdisk

import (
	"fmt"
	"time"

	"github.com/dargueta/dirdisk"
	"github.com/dargueta/dirdisk/disks"
	"github.com/dargueta/dirdisk/file_systems/fat12"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// DefaultSyncInterval is how much emulated time must pass between two sector
// reads before the host directory is scanned again.
const DefaultSyncInterval = time.Second

// Option configures a [DirAsDisk] during construction.
type Option func(*DirAsDisk) error

// WithFs sets the file system the host directory lives on. The default is the
// operating system's.
func WithFs(fs afero.Fs) Option {
	return func(d *DirAsDisk) error {
		if fs == nil {
			return dirdisk.ErrInvalidArgument.WithMessage("file system can't be nil")
		}
		d.fs = fs
		return nil
	}
}

// WithGeometry sets the geometry of the virtual disk.
func WithGeometry(geometry disks.DiskGeometry) Option {
	return func(d *DirAsDisk) error {
		layout, err := fat12.NewLayout(geometry)
		if err != nil {
			return fmt.Errorf("unusable geometry %q: %w", geometry.Slug, err)
		}
		d.layout = layout
		return nil
	}
}

// WithGeometrySlug sets the geometry of the virtual disk by its slug in the
// geometry catalogue.
func WithGeometrySlug(slug string) Option {
	return func(d *DirAsDisk) error {
		geometry, err := disks.GetPredefinedDiskGeometry(slug)
		if err != nil {
			return dirdisk.ErrInvalidArgument.Wrap(err)
		}
		return WithGeometry(geometry)(d)
	}
}

// WithBootSector selects the boot sector template.
func WithBootSector(variant fat12.BootSectorVariant) Option {
	return func(d *DirAsDisk) error {
		d.bootVariant = variant
		return nil
	}
}

// WithVolumeSerial sets the serial number written into DOS2 boot sectors.
func WithVolumeSerial(serial uint32) Option {
	return func(d *DirAsDisk) error {
		d.volumeSerial = serial
		return nil
	}
}

// WithWarningSink sets where warnings go. The default logs them through the
// logger at Warn level.
func WithWarningSink(sink dirdisk.WarningSink) Option {
	return func(d *DirAsDisk) error {
		d.warnings = sink
		return nil
	}
}

// WithMediaChangeNotifier sets the container to notify whenever the host
// directory is resynchronized.
func WithMediaChangeNotifier(notifier dirdisk.MediaChangeNotifier) Option {
	return func(d *DirAsDisk) error {
		d.notifier = notifier
		return nil
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(d *DirAsDisk) error {
		d.logger = logger
		return nil
	}
}

// WithSyncInterval sets the minimum emulated time between two sector reads
// that triggers a resynchronization.
func WithSyncInterval(interval time.Duration) Option {
	return func(d *DirAsDisk) error {
		if interval < 0 {
			return dirdisk.ErrArgumentOutOfRange.WithMessage(
				fmt.Sprintf("sync interval can't be negative: %s", interval))
		}
		d.syncInterval = interval
		return nil
	}
}
