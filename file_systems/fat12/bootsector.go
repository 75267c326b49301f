package fat12

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dargueta/dirdisk"
)

// BootSectorVariant selects which boot sector template to put in sector 0.
type BootSectorVariant int

const (
	// BootSectorDOS1 is the template expected by MSX-DOS 1 and Disk BASIC.
	BootSectorDOS1 BootSectorVariant = iota
	// BootSectorDOS2 adds a volume serial number, as MSX-DOS 2 expects.
	BootSectorDOS2
)

func (v BootSectorVariant) String() string {
	switch v {
	case BootSectorDOS1:
		return "dos1"
	case BootSectorDOS2:
		return "dos2"
	default:
		return fmt.Sprintf("BootSectorVariant(%d)", int(v))
	}
}

// ParseBootSectorVariant is the inverse of [BootSectorVariant.String].
func ParseBootSectorVariant(name string) (BootSectorVariant, error) {
	switch name {
	case "dos1":
		return BootSectorDOS1, nil
	case "dos2":
		return BootSectorDOS2, nil
	default:
		return 0, dirdisk.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("unknown boot sector variant %q", name))
	}
}

// RawBIOSParameterBlock is the on-disk representation of the start of the boot
// sector, up to and including the hidden sector count.
type RawBIOSParameterBlock struct {
	JmpBoot           [3]byte
	OEMName           [8]byte
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntryCount    uint16
	TotalSectors      uint16
	Media             uint8
	SectorsPerFAT     uint16
	SectorsPerTrack   uint16
	NumHeads          uint16
	HiddenSectors     uint16
}

const (
	bootCodeOffset     = 0x1E
	volumeIDOffset     = 0x20
	volumeSerialOffset = 0x27
	dos2BootCodeOffset = 0x30

	opcodeRet = 0xC9
	opcodeJR  = 0x18
)

var defaultOEMName = [8]byte{'D', 'I', 'R', 'D', 'I', 'S', 'K', ' '}

// NewBootSector renders the boot sector for a volume with the given layout.
// `serial` is only used by [BootSectorDOS2].
func NewBootSector(
	variant BootSectorVariant, layout Layout, serial uint32,
) ([]byte, error) {
	bpb := RawBIOSParameterBlock{
		JmpBoot:           [3]byte{0xEB, 0xFE, 0x90},
		OEMName:           defaultOEMName,
		BytesPerSector:    dirdisk.SectorSize,
		SectorsPerCluster: uint8(layout.SectorsPerCluster),
		ReservedSectors:   bootSectorCount,
		NumFATs:           NumFATs,
		RootEntryCount:    uint16(layout.RootEntries),
		TotalSectors:      uint16(layout.TotalSectors),
		Media:             layout.Media,
		SectorsPerFAT:     uint16(layout.SectorsPerFAT),
		SectorsPerTrack:   uint16(layout.SectorsPerTrack),
		NumHeads:          uint16(layout.Heads),
	}

	buffer := bytes.NewBuffer(make([]byte, 0, dirdisk.SectorSize))
	err := binary.Write(buffer, binary.LittleEndian, &bpb)
	if err != nil {
		return nil, dirdisk.ErrIOFailed.Wrap(err)
	}

	sector := make([]byte, dirdisk.SectorSize)
	copy(sector, buffer.Bytes())

	switch variant {
	case BootSectorDOS1:
		sector[bootCodeOffset] = opcodeRet
	case BootSectorDOS2:
		sector[bootCodeOffset] = opcodeJR
		sector[bootCodeOffset+1] = dos2BootCodeOffset - (bootCodeOffset + 2)
		copy(sector[volumeIDOffset:], "VOL_ID")
		sector[volumeIDOffset+6] = 0
		binary.LittleEndian.PutUint32(sector[volumeSerialOffset:], serial)
		sector[dos2BootCodeOffset] = opcodeRet
	default:
		return nil, dirdisk.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("unknown boot sector variant %d", int(variant)))
	}
	return sector, nil
}

// ParseBootSector reads the BIOS parameter block from a boot sector and
// returns the volume layout it describes.
func ParseBootSector(data []byte) (Layout, error) {
	var bpb RawBIOSParameterBlock
	if len(data) < binary.Size(bpb) {
		return Layout{}, dirdisk.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("boot sector too short: %d bytes", len(data)))
	}

	err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &bpb)
	if err != nil {
		return Layout{}, dirdisk.ErrIOFailed.Wrap(err)
	}

	if bpb.BytesPerSector != dirdisk.SectorSize {
		return Layout{}, dirdisk.ErrFileSystemCorrupted.WithMessage(
			fmt.Sprintf(
				"BytesPerSector must be %d, got %d", dirdisk.SectorSize, bpb.BytesPerSector))
	}
	if bpb.ReservedSectors != bootSectorCount || bpb.NumFATs != NumFATs {
		return Layout{}, dirdisk.ErrFileSystemCorrupted.WithMessage(
			fmt.Sprintf(
				"expected %d reserved sector and %d FATs, got %d and %d",
				bootSectorCount,
				NumFATs,
				bpb.ReservedSectors,
				bpb.NumFATs))
	}

	switch bpb.SectorsPerCluster {
	case 1, 2, 4, 8, 16, 32, 64, 128:
	default:
		return Layout{}, dirdisk.ErrFileSystemCorrupted.WithMessage(
			fmt.Sprintf(
				"SectorsPerCluster must be a power of 2 in 1-128, got %d",
				bpb.SectorsPerCluster))
	}

	layout := Layout{
		TotalSectors:      uint(bpb.TotalSectors),
		SectorsPerTrack:   uint(bpb.SectorsPerTrack),
		Heads:             uint(bpb.NumHeads),
		SectorsPerCluster: uint(bpb.SectorsPerCluster),
		SectorsPerFAT:     uint(bpb.SectorsPerFAT),
		RootEntries:       uint(bpb.RootEntryCount),
		Media:             bpb.Media,
	}
	err = layout.Validate()
	if err != nil {
		return Layout{}, dirdisk.ErrFileSystemCorrupted.Wrap(err)
	}
	return layout, nil
}
