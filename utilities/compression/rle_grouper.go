package compression

import (
	"bufio"
	"io"
)

// maxRunLength is the longest run one RLE8 group can describe: the byte twice,
// plus up to 255 repetitions.
const maxRunLength = 257

// ByteRun is a run of one byte value.
type ByteRun struct {
	Byte byte
	// Length is the number of times the byte occurs, between 1 and 257 for a
	// valid run.
	Length int
}

// InvalidRLERun is returned by [RunGrouper.Next] when the input is exhausted or
// fails.
var InvalidRLERun = ByteRun{}

// RunGrouper splits a byte stream into runs of identical bytes.
type RunGrouper struct {
	rd *bufio.Reader
}

func NewRunGrouper(rd io.Reader) *RunGrouper {
	return &RunGrouper{rd: bufio.NewReader(rd)}
}

// Next returns the next run in the stream, never longer than 257 bytes. At the
// end of the input it returns [InvalidRLERun] and [io.EOF].
func (g *RunGrouper) Next() (ByteRun, error) {
	first, err := g.rd.ReadByte()
	if err != nil {
		return InvalidRLERun, err
	}

	run := ByteRun{Byte: first, Length: 1}
	for run.Length < maxRunLength {
		current, err := g.rd.ReadByte()
		if err == io.EOF {
			break
		} else if err != nil {
			return InvalidRLERun, err
		}

		if current != first {
			// UnreadByte can't fail right after a successful ReadByte.
			_ = g.rd.UnreadByte()
			break
		}
		run.Length++
	}
	return run, nil
}
