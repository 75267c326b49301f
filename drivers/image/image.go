// Package image provides sector devices backed by ordinary FAT12 floppy image
// files, raw or compressed. The geometry is taken from the image's boot sector.
package image

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dargueta/dirdisk"
	c "github.com/dargueta/dirdisk/file_systems/common"
	"github.com/dargueta/dirdisk/file_systems/common/blockcache"
	"github.com/dargueta/dirdisk/file_systems/fat12"
	"github.com/dargueta/dirdisk/utilities/compression"
	"github.com/xaionaro-go/bytesextra"
)

// Image is a [dirdisk.SectorDevice] over a raw image. Writes are cached in
// memory until [Image.Flush] is called.
type Image struct {
	cache    *blockcache.BlockCache
	layout   fat12.Layout
	readOnly bool
}

// Open reads the boot sector of the image in `stream` and wraps it. An image
// file shorter than its boot sector claims reads as if padded with zeros, and is
// extended on flush if it's writable.
func Open(stream io.ReadWriteSeeker, readOnly bool) (*Image, error) {
	header := blockcache.WrapStream(stream, dirdisk.SectorSize, 1)
	bootSector := make([]byte, dirdisk.SectorSize)
	err := header.Read(0, bootSector)
	if err != nil {
		return nil, err
	}

	layout, err := fat12.ParseBootSector(bootSector)
	if err != nil {
		return nil, dirdisk.ErrInvalidFileSystem.WithMessage(
			"image doesn't have a valid FAT12 boot sector").Wrap(err)
	}

	if !readOnly {
		size := int64(layout.TotalSectors) * dirdisk.SectorSize
		_, err = c.FixStreamSize(stream, size)
		if err != nil {
			return nil, dirdisk.ErrIOFailed.WithMessage(
				fmt.Sprintf("can't resize image to %d bytes", size)).Wrap(err)
		}
	}

	return &Image{
		cache:    blockcache.WrapStream(stream, dirdisk.SectorSize, layout.TotalSectors),
		layout:   layout,
		readOnly: readOnly,
	}, nil
}

// LoadCompressed decompresses an RLE8+gzip image into memory. Writes to it are
// kept in memory and never reach `input`.
func LoadCompressed(input io.Reader) (*Image, error) {
	data, err := compression.DecompressImageToBytes(input)
	if err != nil {
		return nil, dirdisk.ErrInvalidFileSystem.WithMessage(
			"can't decompress image").Wrap(err)
	}
	if len(data) < dirdisk.SectorSize {
		return nil, dirdisk.ErrInvalidFileSystem.WithMessage(
			fmt.Sprintf("decompressed image is only %d bytes", len(data)))
	}

	img, err := Open(bytesextra.NewReadWriteSeeker(data), true)
	if err != nil {
		return nil, err
	}
	if uint(len(data)) != img.layout.TotalSectors*dirdisk.SectorSize {
		return nil, dirdisk.ErrInvalidFileSystem.WithMessage(
			fmt.Sprintf(
				"decompressed image is %d bytes, boot sector says %d",
				len(data),
				img.layout.TotalSectors*dirdisk.SectorSize))
	}

	// The backing slice is private to us, so there's nothing to protect.
	img.readOnly = false
	return img, nil
}

// Layout returns the layout read from the boot sector.
func (img *Image) Layout() fat12.Layout {
	return img.layout
}

func (img *Image) checkAccess(sector uint, buffer []byte) error {
	if len(buffer) != dirdisk.SectorSize {
		return dirdisk.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("sector buffer must be %d bytes, got %d", dirdisk.SectorSize, len(buffer)))
	}
	if sector >= img.layout.TotalSectors {
		return dirdisk.ErrArgumentOutOfRange.WithMessage(
			fmt.Sprintf("sector %d not in range [0, %d)", sector, img.layout.TotalSectors))
	}
	return nil
}

// ReadSector implements [dirdisk.SectorDevice]. An image never changes on its
// own, so the time is ignored.
func (img *Image) ReadSector(_ dirdisk.EmuTime, sector uint, buffer []byte) error {
	return img.PeekSector(sector, buffer)
}

func (img *Image) PeekSector(sector uint, buffer []byte) error {
	err := img.checkAccess(sector, buffer)
	if err != nil {
		return err
	}
	return img.cache.Read(c.LogicalBlock(sector), buffer)
}

func (img *Image) WriteSector(sector uint, buffer []byte) error {
	err := img.checkAccess(sector, buffer)
	if err != nil {
		return err
	}
	if img.readOnly {
		return dirdisk.ErrReadOnlyFileSystem.WithMessage(
			fmt.Sprintf("can't write sector %d", sector))
	}
	return img.cache.Write(c.LogicalBlock(sector), buffer)
}

func (img *Image) TotalSectors() uint {
	return img.layout.TotalSectors
}

func (img *Image) SectorsPerTrack() uint {
	return img.layout.SectorsPerTrack
}

func (img *Image) Heads() uint {
	return img.layout.Heads
}

func (img *Image) IsWriteProtected() bool {
	return img.readOnly
}

// Flush writes modified sectors back to the image stream.
func (img *Image) Flush() error {
	return img.cache.Flush()
}

// Bytes returns the whole image.
func (img *Image) Bytes() ([]byte, error) {
	return img.cache.Data()
}

// SaveCompressed writes the whole image to `output` as RLE8+gzip, and returns
// the compressed size.
func (img *Image) SaveCompressed(output io.Writer) (int64, error) {
	data, err := img.cache.Data()
	if err != nil {
		return 0, err
	}
	return compression.CompressImage(bytes.NewReader(data), output)
}

var _ dirdisk.SectorDevice = (*Image)(nil)
