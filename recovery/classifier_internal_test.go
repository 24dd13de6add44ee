package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dargueta/bmprecover/recovery/extlayout"
)

func ascendingEntries(start uint32, count int) [extlayout.PointersPerIndirectBlock]uint32 {
	var entries [extlayout.PointersPerIndirectBlock]uint32
	for i := 0; i < count; i++ {
		entries[i] = start + uint32(i)
	}
	return entries
}

func TestIsLevel1Shape_AscendingThenZero(t *testing.T) {
	entries := ascendingEntries(1000, 40)
	assert.True(t, isLevel1Shape(entries))
}

func TestIsLevel1Shape_RejectsZeroFirstEntry(t *testing.T) {
	var entries [extlayout.PointersPerIndirectBlock]uint32
	assert.False(t, isLevel1Shape(entries))
}

func TestIsLevel1Shape_RejectsMidGroupDiscontinuity(t *testing.T) {
	entries := ascendingEntries(1000, 8)
	entries[2] = 9999 // breaks ascent within the first 4-entry group
	assert.False(t, isLevel1Shape(entries))
}

func TestIsLevel1Shape_AcceptsGroupBoundaryDiscontinuity(t *testing.T) {
	// The reference classifier only checks continuity *within* a 4-entry
	// group, never across a group boundary (index 4, 8, ...). A jump right
	// at the boundary is accepted; this pins that exact behavior.
	entries := ascendingEntries(1000, 8)
	entries[4] = 50000
	entries[5] = 50001
	entries[6] = 50002
	entries[7] = 50003
	assert.True(t, isLevel1Shape(entries))
}

func TestIsLevel1Shape_AllZero(t *testing.T) {
	var entries [extlayout.PointersPerIndirectBlock]uint32
	entries[0] = 1 // avoid the immediate first-entry-zero rejection
	assert.False(t, isLevel1Shape(entries))
}

func TestIsHigherLevelShape_TwoLeadingZerosReject(t *testing.T) {
	dev := &DeviceView{blockCount: 100000}
	var entries [extlayout.PointersPerIndirectBlock]uint32
	assert.False(t, isHigherLevelShape(dev, entries, 1))
}
