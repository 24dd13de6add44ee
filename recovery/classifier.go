package recovery

import (
	"encoding/binary"

	"github.com/dargueta/bmprecover/recovery/bitset"
	"github.com/dargueta/bmprecover/recovery/errors"
	"github.com/dargueta/bmprecover/recovery/extlayout"
	"github.com/dargueta/bmprecover/recovery/status"
)

// Candidates holds the classifier's four ordered, final lists of block
// numbers (spec §3, "Candidate lists"): BMP starts and 1x/2x/3x indirect
// blocks. They are built once by Scan and never mutated afterward; the
// assembler only reads them.
type Candidates struct {
	BMPStarts  []uint32
	Indirects1 []uint32
	Indirects2 []uint32
	Indirects3 []uint32
}

// blockGroup returns the group a block belongs to and its bit index within
// that group's bitmaps.
func blockGroup(block uint32) (group, index uint32) {
	return block / extlayout.BlocksPerGroup, block % extlayout.BlocksPerGroup
}

// isBlockUsed reports whether block is marked used in its group's
// data-block bitmap. A block number past the end of the device is treated
// as used. Callers in this engine only pass block numbers below
// dev.BlockCount(): Scan iterates [0, BlockCount) and Collect walks the BMP
// starts Scan produced.
func isBlockUsed(dev *DeviceView, cache *GroupCache, block uint32) bool {
	if block >= dev.BlockCount() {
		return true
	}
	group, index := blockGroup(block)
	return bitset.Get(cache.BlockBitmap(group), index)
}

// readIndirectEntries decodes a block's bytes as 1024 little-endian 32-bit
// block numbers.
func readIndirectEntries(raw []byte) [extlayout.PointersPerIndirectBlock]uint32 {
	var entries [extlayout.PointersPerIndirectBlock]uint32
	for i := range entries {
		entries[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return entries
}

// isLevel1Shape implements the formal grammar in spec §4.3: S·Z* where S is
// a (possibly empty after a mandatory non-zero first entry) sequence of
// 4-entry groups each internally ascending by one, and Z* is a maximal
// trailing run of zeros. This is a direct port of the reference tool's
// cmp_ind(block, 0) loop (original_source/final/recover.c), preserving its
// exact quirk: entries are only checked against their *in-group*
// predecessor, so a discontinuity that falls exactly on a 4-entry group
// boundary is not caught. That's the reference behavior this spec was
// distilled from, not a bug to be fixed here.
func isLevel1Shape(entries [extlayout.PointersPerIndirectBlock]uint32) bool {
	zero := false
	for cx := 0; cx < len(entries); cx++ {
		if zero {
			if entries[cx] != 0 {
				return false
			}
			continue
		}

		if cx%4 == 0 && entries[cx] == 0 {
			if cx != 0 {
				zero = true
				continue
			}
			return false
		}

		rejected := false
		for cx2 := 1; cx2 < 4; cx2++ {
			if entries[cx+cx2] == 0 {
				zero = true
				cx += cx2
				break
			}
			if entries[cx+cx2] != entries[cx+cx2-1]+1 {
				rejected = true
				break
			}
		}
		if rejected {
			return false
		}
		if !zero {
			cx += 3
		}
	}
	return true
}

// isHigherLevelShape implements the level-2/level-3 classifier: every
// non-zero entry must itself satisfy the next level down, in order, with at
// most one tolerated leading zero entry (spec §4.3: "A leading zero entry
// is tolerated for levels 2 and 3 ... two consecutive leading zeros
// reject").
func isHigherLevelShape(dev *DeviceView, entries [extlayout.PointersPerIndirectBlock]uint32, lowerLevel int) bool {
	zero := false
	for cx := 0; cx < len(entries); cx++ {
		switch {
		case cx == 0 && entries[0] == 0:
			if entries[1] == 0 {
				return false
			}
			continue
		case zero && entries[cx] != 0:
			return false
		case entries[cx] != 0:
			if !isIndirectShape(dev, entries[cx], lowerLevel) {
				return false
			}
		default:
			zero = true
		}
	}
	return true
}

// isIndirectShape tests whether block satisfies the classifier for the
// given level (1, 2, or 3), recursing into lower levels as needed. A block
// number at or past the device's block count, whether block itself or any
// entry it holds, is always a rejection (spec §4.3).
func isIndirectShape(dev *DeviceView, block uint32, level int) bool {
	if block >= dev.BlockCount() {
		return false
	}
	raw, err := dev.Block(block)
	if err != nil {
		return false
	}
	entries := readIndirectEntries(raw)

	if level == 1 {
		for _, entry := range entries {
			if entry >= dev.BlockCount() {
				return false
			}
		}
		return isLevel1Shape(entries)
	}
	return isHigherLevelShape(dev, entries, level-1)
}

// Scan partitions every block not marked used in its group's data bitmap
// into at most one of four buckets: BMP start, or 1x/2x/3x indirect (spec
// §4.3). Iteration is strictly sequential over block numbers so that
// repeated scans of the same device contents produce identical candidate
// lists in identical order (spec §8 property 5).
//
// It returns errors.ErrNoBmpStarts if no BMP start block was found anywhere
// on the device.
func Scan(dev *DeviceView, cache *GroupCache, sink status.Sink) (*Candidates, error) {
	sink.ScanStart()

	candidates := &Candidates{}
	nblocks := dev.BlockCount()
	percentReported := 0

	for b := uint32(0); b < nblocks; b++ {
		currentPercent := int(uint64(b) * 100 / uint64(nblocks))

		if !isBlockUsed(dev, cache, b) {
			matched := false
			for level := 3; level >= 1; level-- {
				if isIndirectShape(dev, b, level) {
					sink.ScanIndirect(level, b)
					switch level {
					case 1:
						candidates.Indirects1 = append(candidates.Indirects1, b)
					case 2:
						candidates.Indirects2 = append(candidates.Indirects2, b)
					case 3:
						candidates.Indirects3 = append(candidates.Indirects3, b)
					}
					matched = true
					break
				}
			}

			if !matched {
				raw, err := dev.Block(b)
				if err == nil && extlayout.LooksLikeBMPHeader(raw) {
					sink.ScanBMP(b)
					candidates.BMPStarts = append(candidates.BMPStarts, b)
				}
			}
		}

		if currentPercent >= percentReported+1 {
			percentReported++
			sink.ScanProgress(percentReported)
		}
	}

	sink.Done()

	if len(candidates.BMPStarts) == 0 {
		return nil, errors.ErrNoBmpStarts
	}
	return candidates, nil
}
