package fat12

import (
	"encoding/binary"
	"testing"

	"github.com/dargueta/dirdisk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBootSectorDOS1(t *testing.T) {
	layout := defaultLayout(t)
	sector, err := NewBootSector(BootSectorDOS1, layout, 0)
	require.NoError(t, err)
	require.Len(t, sector, dirdisk.SectorSize)

	assert.Equal(t, []byte{0xEB, 0xFE, 0x90}, sector[:3])
	assert.EqualValues(t, 512, binary.LittleEndian.Uint16(sector[0x0B:]))
	assert.EqualValues(t, 2, sector[0x0D])
	assert.EqualValues(t, 1, binary.LittleEndian.Uint16(sector[0x0E:]))
	assert.EqualValues(t, 2, sector[0x10])
	assert.EqualValues(t, 112, binary.LittleEndian.Uint16(sector[0x11:]))
	assert.EqualValues(t, 1440, binary.LittleEndian.Uint16(sector[0x13:]))
	assert.EqualValues(t, 0xF9, sector[0x15])
	assert.EqualValues(t, 3, binary.LittleEndian.Uint16(sector[0x16:]))
	assert.EqualValues(t, 9, binary.LittleEndian.Uint16(sector[0x18:]))
	assert.EqualValues(t, 2, binary.LittleEndian.Uint16(sector[0x1A:]))
	assert.EqualValues(t, opcodeRet, sector[0x1E])
}

func TestNewBootSectorDOS2(t *testing.T) {
	layout := defaultLayout(t)
	sector, err := NewBootSector(BootSectorDOS2, layout, 0xDEADBEEF)
	require.NoError(t, err)

	assert.EqualValues(t, opcodeJR, sector[0x1E])
	assert.EqualValues(t, 0x10, sector[0x1F])
	assert.Equal(t, "VOL_ID", string(sector[0x20:0x26]))
	assert.EqualValues(t, 0, sector[0x26])
	assert.EqualValues(t, 0xDEADBEEF, binary.LittleEndian.Uint32(sector[0x27:]))
	assert.EqualValues(t, opcodeRet, sector[0x30])
}

func TestNewBootSectorBadVariant(t *testing.T) {
	_, err := NewBootSector(BootSectorVariant(9), defaultLayout(t), 0)
	assert.ErrorIs(t, err, dirdisk.ErrInvalidArgument)
}

func TestParseBootSectorRoundTrip(t *testing.T) {
	layout := defaultLayout(t)
	for _, variant := range []BootSectorVariant{BootSectorDOS1, BootSectorDOS2} {
		sector, err := NewBootSector(variant, layout, 1234)
		require.NoError(t, err)

		parsed, err := ParseBootSector(sector)
		require.NoError(t, err, variant.String())
		assert.Equal(t, layout, parsed, variant.String())
	}
}

func TestParseBootSectorRejectsGarbage(t *testing.T) {
	sector, err := NewBootSector(BootSectorDOS1, defaultLayout(t), 0)
	require.NoError(t, err)

	sector[0x0D] = 3
	_, err = ParseBootSector(sector)
	assert.ErrorIs(t, err, dirdisk.ErrFileSystemCorrupted)

	_, err = ParseBootSector(sector[:10])
	assert.ErrorIs(t, err, dirdisk.ErrInvalidArgument)
}

func TestParseBootSectorVariant(t *testing.T) {
	variant, err := ParseBootSectorVariant("dos2")
	require.NoError(t, err)
	assert.Equal(t, BootSectorDOS2, variant)

	_, err = ParseBootSectorVariant("dos3")
	assert.ErrorIs(t, err, dirdisk.ErrInvalidArgument)
}
