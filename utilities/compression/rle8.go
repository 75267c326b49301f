package compression

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// EncodeRLE8 run-length encodes everything in `input` into `output`, and returns
// the number of bytes written.
func EncodeRLE8(input io.Reader, output io.Writer) (int64, error) {
	grouper := NewRunGrouper(input)
	writer := bufio.NewWriter(output)
	written := int64(0)

	for {
		run, err := grouper.Next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return written, fmt.Errorf("error reading input: %w", err)
		}

		var group []byte
		if run.Length == 1 {
			group = []byte{run.Byte}
		} else {
			group = []byte{run.Byte, run.Byte, byte(run.Length - 2)}
		}

		n, err := writer.Write(group)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, writer.Flush()
}

// DecodeRLE8 expands RLE8 data from `input` into `output`, and returns the
// number of bytes written. Input that ends between a doubled byte and its
// count fails with an error wrapping [io.ErrUnexpectedEOF].
func DecodeRLE8(input io.Reader, output io.Writer) (int64, error) {
	source := bufio.NewReader(input)
	writer := bufio.NewWriter(output)
	written := int64(0)

	// previous is the last byte read if it could begin a run, or -1.
	previous := -1
	for {
		current, err := source.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return written, fmt.Errorf("error reading input: %w", err)
		}

		var chunk []byte
		if int(current) == previous {
			count, err := source.ReadByte()
			if errors.Is(err, io.EOF) {
				_ = writer.Flush()
				return written, fmt.Errorf(
					"%w: missing repeat count after two %02x bytes",
					io.ErrUnexpectedEOF,
					current)
			} else if err != nil {
				return written, fmt.Errorf("error reading input: %w", err)
			}

			// The first of the pair was already written.
			chunk = bytes.Repeat([]byte{current}, int(count)+1)
			previous = -1
		} else {
			chunk = []byte{current}
			previous = int(current)
		}

		n, err := writer.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("failed to write to output: %w", err)
		}
	}

	err := writer.Flush()
	if err != nil {
		return written, fmt.Errorf("failed to write to output: %w", err)
	}
	return written, nil
}
