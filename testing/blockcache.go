package testing

import (
	"fmt"
	"testing"

	"github.com/dargueta/dirdisk"
	c "github.com/dargueta/dirdisk/file_systems/common"
	"github.com/dargueta/dirdisk/file_systems/common/blockcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CreateRandomImage returns `totalBlocks` blocks of random data.
func CreateRandomImage(bytesPerBlock, totalBlocks uint, t *testing.T) []byte {
	return RandomBytes(t, int(bytesPerBlock*totalBlocks))
}

// CountingBackend is backing storage for a block cache that records how often
// each block was fetched and flushed.
type CountingBackend struct {
	Data    []byte
	Fetches map[c.LogicalBlock]int
	Flushes map[c.LogicalBlock]int
}

// CreateDefaultCache creates a block cache over `backingData`, or over random
// data if `backingData` is nil. If `writable` is false, any flush fails the
// test.
//
// The callbacks fail the test on out-of-bounds access, so they can't be used
// to check that the cache itself rejects bad arguments; the cache must never
// call them with bad arguments in the first place.
func CreateDefaultCache(
	bytesPerBlock,
	totalBlocks uint,
	writable bool,
	backingData []byte,
	t *testing.T,
) (*blockcache.BlockCache, *CountingBackend) {
	if backingData == nil {
		backingData = CreateRandomImage(bytesPerBlock, totalBlocks, t)
	}
	require.GreaterOrEqual(t, uint(len(backingData)), bytesPerBlock*totalBlocks)

	backend := &CountingBackend{
		Data:    backingData,
		Fetches: map[c.LogicalBlock]int{},
		Flushes: map[c.LogicalBlock]int{},
	}

	blockRange := func(blockIndex c.LogicalBlock, action string) ([]byte, error) {
		if uint(blockIndex) >= totalBlocks {
			message := fmt.Sprintf(
				"attempted to %s outside bounds: block %d not in [0, %d)",
				action,
				blockIndex,
				totalBlocks)
			t.Error(message)
			return nil, dirdisk.ErrIOFailed.WithMessage(message)
		}
		start := uint(blockIndex) * bytesPerBlock
		return backingData[start : start+bytesPerBlock], nil
	}

	fetchCallback := func(blockIndex c.LogicalBlock, buffer []byte) error {
		block, err := blockRange(blockIndex, "read")
		if err != nil {
			return err
		}
		backend.Fetches[blockIndex]++
		copy(buffer, block)
		return nil
	}

	flushCallback := func(blockIndex c.LogicalBlock, buffer []byte) error {
		if !writable {
			message := fmt.Sprintf(
				"attempted to write %d bytes to block %d of read-only image",
				len(buffer),
				blockIndex)
			t.Error(message)
			return dirdisk.ErrReadOnlyFileSystem.WithMessage(message)
		}

		block, err := blockRange(blockIndex, "write")
		if err != nil {
			return err
		}
		backend.Flushes[blockIndex]++
		copy(block, buffer)
		return nil
	}

	cache := blockcache.New(bytesPerBlock, totalBlocks, fetchCallback, flushCallback)
	assert.EqualValues(t, bytesPerBlock, cache.BytesPerBlock(), "wrong bytes per block")
	assert.EqualValues(t, totalBlocks, cache.TotalBlocks(), "wrong total blocks")
	assert.EqualValues(t, bytesPerBlock*totalBlocks, cache.Size(), "total size is wrong")
	return cache, backend
}
