// Package driver gives every kind of virtual floppy a single interface,
// whatever is behind it: an image file, a compressed image, or a mirrored host
// directory.
package driver

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dargueta/dirdisk"
	"github.com/dargueta/dirdisk/drivers/dirasdisk"
	"github.com/dargueta/dirdisk/drivers/image"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// Kind identifies the backend of a [Drive].
type Kind int

const (
	// KindImage is a raw sector image file.
	KindImage Kind = iota
	// KindCompressedImage is an RLE8+gzip image loaded into memory.
	KindCompressedImage
	// KindDirectory is a host directory presented as a disk.
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindCompressedImage:
		return "compressed image"
	case KindDirectory:
		return "directory"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// CompressedImageExtension is the file name extension of compressed images.
const CompressedImageExtension = ".gz"

// DetectKind tells what kind of backend `path` would be opened as.
func DetectKind(fs afero.Fs, path string) (Kind, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return 0, dirdisk.ErrNotFound.WithMessage(path).Wrap(err)
	}

	switch {
	case info.IsDir():
		return KindDirectory, nil
	case strings.EqualFold(filepath.Ext(path), CompressedImageExtension):
		return KindCompressedImage, nil
	default:
		return KindImage, nil
	}
}

// Options configures [Open].
type Options struct {
	// Fs is the file system `path` is on. Defaults to the OS file system.
	Fs afero.Fs
	// ReadOnly opens raw images read-only. Directories and compressed images
	// are never modified through this flag: a directory is always writable and
	// a compressed image is only changed in memory.
	ReadOnly bool
	// DirectoryOptions are passed to [dirasdisk.New].
	DirectoryOptions []dirasdisk.Option
}

// Drive is a virtual floppy of any [Kind]. Exactly one of the backend fields
// is set, matching `kind`.
type Drive struct {
	kind      Kind
	path      string
	image     *image.Image
	imageFile afero.File
	dirAsDisk *dirasdisk.DirAsDisk
	closed    bool
}

// Open opens `path` as a drive, choosing the backend with [DetectKind].
func Open(path string, options Options) (*Drive, error) {
	if options.Fs == nil {
		options.Fs = afero.NewOsFs()
	}

	kind, err := DetectKind(options.Fs, path)
	if err != nil {
		return nil, err
	}

	drive := &Drive{kind: kind, path: path}
	switch kind {
	case KindDirectory:
		dirOptions := append(
			[]dirasdisk.Option{dirasdisk.WithFs(options.Fs)}, options.DirectoryOptions...)
		drive.dirAsDisk, err = dirasdisk.New(path, dirOptions...)
		if err != nil {
			return nil, err
		}

	case KindCompressedImage:
		file, err := options.Fs.Open(path)
		if err != nil {
			return nil, dirdisk.ErrIOFailed.WithMessage(path).Wrap(err)
		}
		defer file.Close()

		drive.image, err = image.LoadCompressed(file)
		if err != nil {
			return nil, err
		}

	case KindImage:
		flags := os.O_RDWR
		if options.ReadOnly {
			flags = os.O_RDONLY
		}
		file, err := options.Fs.OpenFile(path, flags, 0)
		if err != nil {
			return nil, dirdisk.ErrIOFailed.WithMessage(path).Wrap(err)
		}

		drive.image, err = image.Open(file, options.ReadOnly)
		if err != nil {
			file.Close()
			return nil, err
		}
		drive.imageFile = file
	}
	return drive, nil
}

// NewDirectoryDrive wraps an existing directory-backed disk.
func NewDirectoryDrive(disk *dirasdisk.DirAsDisk) *Drive {
	return &Drive{kind: KindDirectory, path: disk.HostDir(), dirAsDisk: disk}
}

func (d *Drive) Kind() Kind {
	return d.kind
}

func (d *Drive) Path() string {
	return d.path
}

// DirAsDisk returns the directory backend, or nil for other kinds.
func (d *Drive) DirAsDisk() *dirasdisk.DirAsDisk {
	return d.dirAsDisk
}

// device returns the backend as a sector device.
func (d *Drive) device() dirdisk.SectorDevice {
	switch d.kind {
	case KindDirectory:
		return d.dirAsDisk
	default:
		return d.image
	}
}

func (d *Drive) checkOpen() error {
	if d.closed {
		return dirdisk.ErrIOFailed.WithMessage(fmt.Sprintf("drive %s is closed", d.path))
	}
	return nil
}

// ReadSector reads a sector as the emulated controller would, at emulated time
// `now`.
func (d *Drive) ReadSector(now dirdisk.EmuTime, sector uint, buffer []byte) error {
	err := d.checkOpen()
	if err != nil {
		return err
	}
	return d.device().ReadSector(now, sector, buffer)
}

// PeekSector reads a sector without side effects.
func (d *Drive) PeekSector(sector uint, buffer []byte) error {
	err := d.checkOpen()
	if err != nil {
		return err
	}
	return d.device().PeekSector(sector, buffer)
}

func (d *Drive) WriteSector(sector uint, buffer []byte) error {
	err := d.checkOpen()
	if err != nil {
		return err
	}
	return d.device().WriteSector(sector, buffer)
}

func (d *Drive) TotalSectors() uint {
	return d.device().TotalSectors()
}

func (d *Drive) SectorsPerTrack() uint {
	return d.device().SectorsPerTrack()
}

func (d *Drive) Heads() uint {
	return d.device().Heads()
}

func (d *Drive) IsWriteProtected() bool {
	return d.device().IsWriteProtected()
}

// WriteImage writes every sector of the disk to `output` in order, using peek
// reads so a directory backend isn't resynchronized halfway through.
func (d *Drive) WriteImage(output io.Writer) (int64, error) {
	err := d.checkOpen()
	if err != nil {
		return 0, err
	}

	device := d.device()
	buffer := make([]byte, dirdisk.SectorSize)
	written := int64(0)
	for sector := uint(0); sector < device.TotalSectors(); sector++ {
		err = device.PeekSector(sector, buffer)
		if err != nil {
			return written, err
		}

		n, err := output.Write(buffer)
		written += int64(n)
		if err != nil {
			return written, dirdisk.ErrIOFailed.Wrap(err)
		}
	}
	return written, nil
}

// Checksum returns the hex-encoded SHA-1 digest of the whole disk. It never
// changes the disk or triggers a resynchronization.
func (d *Drive) Checksum() (string, error) {
	hash := sha1.New()
	_, err := d.WriteImage(hash)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Close flushes pending writes to an image file and closes it. All failures are
// returned together. Closing a drive twice does nothing.
func (d *Drive) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var result *multierror.Error
	if d.kind == KindImage && !d.image.IsWriteProtected() {
		result = multierror.Append(result, d.image.Flush())
	}
	if d.imageFile != nil {
		result = multierror.Append(result, d.imageFile.Close())
	}
	return result.ErrorOrNil()
}

var _ dirdisk.SectorDevice = (*Drive)(nil)
