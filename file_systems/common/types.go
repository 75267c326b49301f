// Package common contains types shared by the block storage code.
package common

import "io"

// LogicalBlock is the index of a block in a backing store, starting from 0.
type LogicalBlock uint

// BlockStore is anything that stores fixed-size blocks by index, such as a
// [blockcache.BlockCache].
type BlockStore interface {
	BytesPerBlock() uint
	TotalBlocks() uint
	Read(start LogicalBlock, buffer []byte) error
	Write(start LogicalBlock, buffer []byte) error
	Flush() error
}

// Truncator is implemented by streams that can be cut to a given size, such as
// [os.File].
type Truncator interface {
	Truncate(size int64) error
}

// FixStreamSize makes sure `stream` is exactly `size` bytes long, growing it
// with zeros or cutting it if it implements [Truncator]. Streams that can't be
// truncated are only checked.
func FixStreamSize(stream io.Seeker, size int64) (int64, error) {
	current, err := stream.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if current == size {
		return current, nil
	}

	truncator, ok := stream.(Truncator)
	if !ok {
		return current, nil
	}
	err = truncator.Truncate(size)
	if err != nil {
		return current, err
	}
	return size, nil
}
