package compression

import (
	"bytes"
	"compress/gzip"
	"io"
)

// countingWriter counts the bytes passed through to the wrapped writer.
type countingWriter struct {
	w     io.Writer
	count int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}

// CompressImage compresses a disk image with RLE8 and then gzip, and returns
// the number of bytes written to `output`.
func CompressImage(input io.Reader, output io.Writer) (int64, error) {
	counter := &countingWriter{w: output}

	// Images are small enough that the slowest level costs nothing noticeable.
	gzWriter, err := gzip.NewWriterLevel(counter, gzip.BestCompression)
	if err != nil {
		return 0, err
	}

	_, err = EncodeRLE8(input, gzWriter)
	if err != nil {
		gzWriter.Close()
		return counter.count, err
	}

	// Close writes the gzip footer, which must be counted too.
	err = gzWriter.Close()
	return counter.count, err
}

// DecompressImage reverses [CompressImage], and returns the size of the
// decompressed image.
func DecompressImage(input io.Reader, output io.Writer) (int64, error) {
	gzReader, err := gzip.NewReader(input)
	if err != nil {
		return 0, err
	}
	defer gzReader.Close()
	return DecodeRLE8(gzReader, output)
}

// CompressImageToBytes is [CompressImage] for an image already in memory.
func CompressImageToBytes(image []byte) ([]byte, error) {
	var buffer bytes.Buffer
	_, err := CompressImage(bytes.NewReader(image), &buffer)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// DecompressImageToBytes is [DecompressImage] returning the image as a new
// byte slice.
func DecompressImageToBytes(input io.Reader) ([]byte, error) {
	var buffer bytes.Buffer
	_, err := DecompressImage(input, &buffer)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
