package fat12

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/dargueta/dirdisk"
)

const (
	// AttrReadOnly marks a directory entry as read-only.
	AttrReadOnly = 1 << iota
	// AttrHidden marks a directory entry as hidden from normal listings.
	AttrHidden
	AttrSystem
	// AttrVolumeLabel marks an entry holding the volume label rather than a
	// file. It's never mirrored to the host.
	AttrVolumeLabel
	// AttrDirectory marks a subdirectory. Only the root directory is mirrored,
	// so these are never exported either.
	AttrDirectory
	// AttrArchived is set whenever a file is created or modified.
	AttrArchived
	AttrDevice
	AttrReserved
)

// Dirent is a 32-byte directory entry, field by field in on-disk order. It's
// decoded from and encoded to raw bytes rather than aliased onto the image.
type Dirent struct {
	Name         [stemSize]byte
	Extension    [extensionSize]byte
	Attributes   uint8
	Reserved     [10]byte
	Time         uint16
	Date         uint16
	StartCluster uint16
	Size         uint32
}

// DecodeDirent deserializes the directory entry at the start of `data`.
func DecodeDirent(data []byte) (Dirent, error) {
	var dirent Dirent
	if len(data) < DirentSize {
		return dirent, dirdisk.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("directory entry needs %d bytes, got %d", DirentSize, len(data)))
	}

	err := binary.Read(bytes.NewReader(data[:DirentSize]), binary.LittleEndian, &dirent)
	if err != nil {
		return dirent, dirdisk.ErrIOFailed.Wrap(err)
	}
	return dirent, nil
}

// Encode serializes the directory entry into the first 32 bytes of `data`.
func (d *Dirent) Encode(data []byte) error {
	if len(data) < DirentSize {
		return dirdisk.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("directory entry needs %d bytes, got %d", DirentSize, len(data)))
	}

	buffer := bytes.NewBuffer(make([]byte, 0, DirentSize))
	err := binary.Write(buffer, binary.LittleEndian, d)
	if err != nil {
		return dirdisk.ErrIOFailed.Wrap(err)
	}
	copy(data, buffer.Bytes())
	return nil
}

// ShortName returns the stem and extension as a single 8.3 name.
func (d *Dirent) ShortName() ShortName {
	var name ShortName
	copy(name[:stemSize], d.Name[:])
	copy(name[stemSize:], d.Extension[:])
	return name
}

func (d *Dirent) SetShortName(name ShortName) {
	copy(d.Name[:], name[:stemSize])
	copy(d.Extension[:], name[stemSize:])
}

// IsFree tells whether the slot holding this entry can be reused: it has either
// never been used or has been deleted.
func (d *Dirent) IsFree() bool {
	return d.Name[0] == 0 || d.Name[0] == DeletedMarker
}

// IsDeleted tells whether the entry has been deleted.
func (d *Dirent) IsDeleted() bool {
	return d.Name[0] == DeletedMarker
}

// MarkDeleted marks the entry as deleted. Everything else is left as it was.
func (d *Dirent) MarkDeleted() {
	d.Name[0] = DeletedMarker
}

// IsExportable tells whether this entry describes a regular file that should
// exist on the host. Free and deleted entries, volume labels, subdirectories,
// and names beginning with a dot are all skipped.
func (d *Dirent) IsExportable() bool {
	if d.Attributes&(AttrVolumeLabel|AttrDirectory) != 0 {
		return false
	}
	return !d.IsFree() && d.Name[0] != '.'
}

// ModTime returns the last-modified timestamp in local time.
func (d *Dirent) ModTime() time.Time {
	return DecodeTimestamp(d.Time, d.Date, time.Local)
}

// SetModTime sets the last-modified timestamp. See [EncodeTimestamp].
func (d *Dirent) SetModTime(t time.Time) {
	d.Time, d.Date = EncodeTimestamp(t)
}
