package bitset_test

import (
	"testing"

	"github.com/boljen/go-bitmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/bmprecover/recovery/bitset"
)

func TestGetSetClear(t *testing.T) {
	bmp := make([]byte, 4096)

	assert.False(t, bitset.Get(bmp, 0))
	assert.False(t, bitset.Get(bmp, 100))

	bitset.Set(bmp, 100)
	assert.True(t, bitset.Get(bmp, 100))
	assert.False(t, bitset.Get(bmp, 99))
	assert.False(t, bitset.Get(bmp, 101))

	bitset.Clear(bmp, 100)
	assert.False(t, bitset.Get(bmp, 100))
}

func TestGetSet_LSBFirst(t *testing.T) {
	bmp := make([]byte, 1)

	bitset.Set(bmp, 0)
	assert.Equal(t, byte(0x01), bmp[0], "bit 0 must be the low-order bit of byte 0")

	bitset.Set(bmp, 1)
	assert.Equal(t, byte(0x03), bmp[0])
}

func TestFindFirstFree(t *testing.T) {
	bmp := make([]byte, 4096)
	for i := uint32(0); i < 10; i++ {
		bitset.Set(bmp, i)
	}

	found, ok := bitset.FindFirstFree(bmp, 32768)
	require.True(t, ok)
	assert.EqualValues(t, 10, found)
}

func TestFindFirstFree_AllUsed(t *testing.T) {
	bmp := make([]byte, 8)
	for i := uint32(0); i < 64; i++ {
		bitset.Set(bmp, i)
	}

	_, ok := bitset.FindFirstFree(bmp, 64)
	assert.False(t, ok)
}

// TestAtMostOneMark exercises the "at-most-one-mark" invariant (spec §8,
// property 4) with a go-bitmap shadow tracking which indices this test has
// already flipped 0->1, independent of bitset's own byte array, the way a
// caller verifying the engine's behavior against a live device would.
func TestAtMostOneMark(t *testing.T) {
	const total = 4096
	bmp := make([]byte, total/8)
	alreadyMarked := bitmap.New(total)

	mark := func(index uint32) {
		require.False(t, alreadyMarked.Get(int(index)), "bit %d marked more than once", index)
		alreadyMarked.Set(int(index), true)
		bitset.Set(bmp, index)
	}

	for _, index := range []uint32{10, 20, 30, 10 + 0} {
		if alreadyMarked.Get(int(index)) {
			continue
		}
		mark(index)
	}

	assert.True(t, bitset.Get(bmp, 10))
	assert.True(t, bitset.Get(bmp, 20))
	assert.True(t, bitset.Get(bmp, 30))
}
