// Package blockcache caches the blocks of a fixed-size backing store in memory.
// Blocks are loaded on first access and written back only when dirty.
//
// All block indices begin at 0.
package blockcache

import (
	"fmt"
	"io"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/dirdisk"
	c "github.com/dargueta/dirdisk/file_systems/common"
)

// FetchBlockCallback copies one block from the backing storage into `buffer`.
// `blockIndex` is always in [0, TotalBlocks) and `buffer` is always exactly one
// block long.
type FetchBlockCallback func(blockIndex c.LogicalBlock, buffer []byte) error

// FlushBlockCallback writes one block from `buffer` to the backing storage. The
// same guarantees as for [FetchBlockCallback] apply.
type FlushBlockCallback func(blockIndex c.LogicalBlock, buffer []byte) error

type BlockCache struct {
	loadedBlocks  bitmap.Bitmap
	dirtyBlocks   bitmap.Bitmap
	fetch         FetchBlockCallback
	flush         FlushBlockCallback
	bytesPerBlock uint
	totalBlocks   uint
	data          []byte
}

func New(
	bytesPerBlock uint,
	totalBlocks uint,
	fetchCb FetchBlockCallback,
	flushCb FlushBlockCallback,
) *BlockCache {
	return &BlockCache{
		loadedBlocks:  bitmap.New(int(totalBlocks)),
		dirtyBlocks:   bitmap.New(int(totalBlocks)),
		data:          make([]byte, bytesPerBlock*totalBlocks),
		fetch:         fetchCb,
		flush:         flushCb,
		bytesPerBlock: bytesPerBlock,
		totalBlocks:   totalBlocks,
	}
}

// WrapStream creates a [BlockCache] over the first `totalBlocks` blocks of
// `stream`. A stream shorter than that reads as if padded with zeros.
func WrapStream(
	stream io.ReadWriteSeeker, bytesPerBlock uint, totalBlocks uint,
) *BlockCache {
	fetchCb := func(block c.LogicalBlock, buffer []byte) error {
		err := seekToBlock(stream, block, bytesPerBlock)
		if err != nil {
			return err
		}

		n, err := io.ReadFull(stream, buffer)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			for i := n; i < len(buffer); i++ {
				buffer[i] = 0
			}
			return nil
		}
		return err
	}

	flushCb := func(block c.LogicalBlock, buffer []byte) error {
		err := seekToBlock(stream, block, bytesPerBlock)
		if err != nil {
			return err
		}
		_, err = stream.Write(buffer)
		return err
	}

	return New(bytesPerBlock, totalBlocks, fetchCb, flushCb)
}

func seekToBlock(stream io.Seeker, block c.LogicalBlock, bytesPerBlock uint) error {
	_, err := stream.Seek(int64(block)*int64(bytesPerBlock), io.SeekStart)
	if err != nil {
		return dirdisk.ErrIOFailed.WithMessage(
			fmt.Sprintf("can't seek to block %d", block)).Wrap(err)
	}
	return nil
}

// BytesPerBlock returns the size of a single block, in bytes.
func (cache *BlockCache) BytesPerBlock() uint {
	return cache.bytesPerBlock
}

// TotalBlocks returns the size of the cache, in blocks.
func (cache *BlockCache) TotalBlocks() uint {
	return cache.totalBlocks
}

// Size gives the size of the cache, in bytes (not blocks!).
func (cache *BlockCache) Size() int64 {
	return int64(cache.bytesPerBlock) * int64(cache.totalBlocks)
}

// LengthToNumBlocks gives the minimum number of blocks required to hold the
// given number of bytes.
func (cache *BlockCache) LengthToNumBlocks(size uint) uint {
	return (size + cache.bytesPerBlock - 1) / cache.bytesPerBlock
}

// checkBounds verifies that `bufferSize` bytes can be accessed starting from
// block `start`. Accessing zero bytes is allowed anywhere a block exists.
func (cache *BlockCache) checkBounds(start c.LogicalBlock, bufferSize uint) error {
	numBlocks := cache.LengthToNumBlocks(bufferSize)
	if uint(start) >= cache.totalBlocks || uint(start)+numBlocks > cache.totalBlocks {
		return dirdisk.ErrArgumentOutOfRange.WithMessage(
			fmt.Sprintf(
				"can't access %d bytes (%d blocks) from block %d; range not in [0, %d)",
				bufferSize,
				numBlocks,
				start,
				cache.totalBlocks))
	}
	return nil
}

func (cache *BlockCache) blockSlice(blockIndex uint) []byte {
	offset := blockIndex * cache.bytesPerBlock
	return cache.data[offset : offset+cache.bytesPerBlock]
}

// loadBlockRange loads every block in [start, start + count) that isn't in the
// cache yet.
func (cache *BlockCache) loadBlockRange(start c.LogicalBlock, count uint) error {
	for blockIndex := uint(start); blockIndex < uint(start)+count; blockIndex++ {
		// Dirty blocks are always loaded.
		if cache.loadedBlocks.Get(int(blockIndex)) {
			continue
		}

		err := cache.fetch(c.LogicalBlock(blockIndex), cache.blockSlice(blockIndex))
		if err != nil {
			return dirdisk.ErrIOFailed.WithMessage(
				fmt.Sprintf("failed to load block %d from storage", blockIndex)).Wrap(err)
		}
		cache.loadedBlocks.Set(int(blockIndex), true)
	}
	return nil
}

// Data returns the whole cache, loading every missing block first.
//
// If the returned slice is modified, the modified blocks MUST be marked as
// dirty with [BlockCache.MarkBlockRangeDirty].
func (cache *BlockCache) Data() ([]byte, error) {
	err := cache.LoadAll()
	if err != nil {
		return nil, err
	}
	return cache.data, nil
}

// LoadAll ensures all missing blocks are loaded from storage into the cache.
func (cache *BlockCache) LoadAll() error {
	return cache.loadBlockRange(0, cache.totalBlocks)
}

// Flush writes every dirty block to storage and marks it clean.
func (cache *BlockCache) Flush() error {
	for blockIndex := uint(0); blockIndex < cache.totalBlocks; blockIndex++ {
		if !cache.dirtyBlocks.Get(int(blockIndex)) {
			continue
		}

		err := cache.flush(c.LogicalBlock(blockIndex), cache.blockSlice(blockIndex))
		if err != nil {
			return dirdisk.ErrIOFailed.WithMessage(
				fmt.Sprintf("failed to flush block %d to storage", blockIndex)).Wrap(err)
		}
		cache.dirtyBlocks.Set(int(blockIndex), false)
	}
	return nil
}

// DirtyBlocks returns the number of blocks modified since the last flush.
func (cache *BlockCache) DirtyBlocks() uint {
	count := uint(0)
	for blockIndex := 0; blockIndex < int(cache.totalBlocks); blockIndex++ {
		if cache.dirtyBlocks.Get(blockIndex) {
			count++
		}
	}
	return count
}

// Read fills `buffer` with data beginning at block `start`, loading any missing
// blocks first. `buffer` doesn't need to be a multiple of the block size.
//
// Reading past the end of the cache fails and leaves `buffer` untouched.
func (cache *BlockCache) Read(start c.LogicalBlock, buffer []byte) error {
	bufLen := uint(len(buffer))
	err := cache.checkBounds(start, bufLen)
	if err != nil {
		return err
	}

	err = cache.loadBlockRange(start, cache.LengthToNumBlocks(bufLen))
	if err != nil {
		return err
	}

	offset := uint(start) * cache.bytesPerBlock
	copy(buffer, cache.data[offset:offset+bufLen])
	return nil
}

// Write copies `buffer` into the cache beginning at block `start`, and marks
// every block it touches dirty. If `buffer` ends partway through a block, the
// rest of that block is loaded from storage first so it isn't lost.
//
// Writing past the end of the cache fails and leaves the cache untouched.
func (cache *BlockCache) Write(start c.LogicalBlock, buffer []byte) error {
	bufLen := uint(len(buffer))
	err := cache.checkBounds(start, bufLen)
	if err != nil {
		return err
	}

	numBlocks := cache.LengthToNumBlocks(bufLen)
	if bufLen%cache.bytesPerBlock != 0 {
		err = cache.loadBlockRange(start+c.LogicalBlock(numBlocks-1), 1)
		if err != nil {
			return err
		}
	}

	offset := uint(start) * cache.bytesPerBlock
	copy(cache.data[offset:offset+bufLen], buffer)
	return cache.MarkBlockRangeDirty(start, numBlocks)
}

// MarkBlockRangeDirty marks a range of blocks as modified. They're written out
// to the backing storage on the next call to [BlockCache.Flush].
func (cache *BlockCache) MarkBlockRangeDirty(start c.LogicalBlock, count uint) error {
	err := cache.checkBounds(start, count*cache.bytesPerBlock)
	if err != nil {
		return err
	}

	for i := uint(0); i < count; i++ {
		blockIndex := int(uint(start) + i)
		cache.dirtyBlocks.Set(blockIndex, true)
		cache.loadedBlocks.Set(blockIndex, true)
	}
	return nil
}

var _ c.BlockStore = (*BlockCache)(nil)
