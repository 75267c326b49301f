package testing

import (
	"bytes"
	"io"
	"testing"

	"github.com/dargueta/dirdisk/utilities/compression"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// LoadDiskImage decompresses an RLE8+gzip image and returns a stream over the
// raw sectors. The stream is fixed at `sectorSize * totalSectors` bytes; writing
// to it doesn't affect `compressedImageBytes`.
func LoadDiskImage(
	t *testing.T, compressedImageBytes []byte, sectorSize, totalSectors uint,
) io.ReadWriteSeeker {
	require.Greater(t, len(compressedImageBytes), 0, "compressed image is empty")

	imageBytes, err := compression.DecompressImageToBytes(
		bytes.NewReader(compressedImageBytes))
	require.NoError(t, err)
	require.Equal(
		t,
		totalSectors*sectorSize,
		uint(len(imageBytes)),
		"uncompressed image is wrong size")

	return bytesextra.NewReadWriteSeeker(imageBytes)
}

// CompressDiskImage compresses a raw image, failing the test on error.
func CompressDiskImage(t *testing.T, image []byte) []byte {
	compressed, err := compression.CompressImageToBytes(image)
	require.NoError(t, err)
	return compressed
}
