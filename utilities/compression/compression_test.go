package compression_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	c "github.com/dargueta/dirdisk/utilities/compression"
	"github.com/noxer/bytewriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imageTestData(t *testing.T) map[string][]byte {
	random := make([]byte, 119)
	_, err := rand.Read(random)
	require.NoError(t, err)

	// Mostly empty 720K floppy with a little data at the front.
	floppy := make([]byte, 1440*512)
	copy(floppy, random)

	return map[string][]byte{
		"homogenous":   bytes.Repeat([]byte{100}, 9174),
		"empty":        {},
		"heterogenous": random,
		"floppy":       floppy,
	}
}

func TestCompressImage__ToStream(t *testing.T) {
	for name, original := range imageTestData(t) {
		t.Run(
			name,
			func(t *testing.T) {
				compressed := make([]byte, 10240)
				compressedSize, err := c.CompressImage(
					bytes.NewReader(original), bytewriter.New(compressed))
				require.NoError(t, err, "unexpected error while compressing")
				t.Logf("image size after compression: %d -> %d", len(original), compressedSize)

				decompressed := make([]byte, len(original))
				n, err := c.DecompressImage(
					bytes.NewReader(compressed[:compressedSize]),
					bytewriter.New(decompressed))
				require.NoError(t, err, "unexpected error while decompressing")
				assert.EqualValues(t, len(original), n, "decompressed image has wrong size")
				assert.Equal(t, original, decompressed, "decompressed data is wrong")
			},
		)
	}
}

func TestCompressImage__ToBytes(t *testing.T) {
	for name, original := range imageTestData(t) {
		t.Run(
			name,
			func(t *testing.T) {
				compressed, err := c.CompressImageToBytes(original)
				require.NoError(t, err, "error while compressing")

				decompressed, err := c.DecompressImageToBytes(bytes.NewReader(compressed))
				require.NoError(t, err, "error while decompressing")
				assert.Equal(t, len(original), len(decompressed), "decompressed length is wrong")
				assert.True(t, bytes.Equal(original, decompressed), "decompressed data is wrong")
			},
		)
	}
}

func TestDecompressImage__NotGzipped(t *testing.T) {
	_, err := c.DecompressImageToBytes(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}
