package recovery

import (
	stderrors "errors"
	"fmt"

	"github.com/dargueta/bmprecover/recovery/bitset"
	"github.com/dargueta/bmprecover/recovery/errors"
	"github.com/dargueta/bmprecover/recovery/extlayout"
	"github.com/dargueta/bmprecover/recovery/status"
)

// DefaultPriorityInodes are the inode numbers the assembler tries to reserve
// before falling back to a linear scan (spec §4.4.1). These are the exact
// values the reference tool hard-codes in res_ino(); SPEC_FULL §F.1.4 gates
// them behind a CLI flag rather than baking them in permanently, but this is
// still the default list.
var DefaultPriorityInodes = []uint32{6969, 666, 420}

// Result describes one file the assembler successfully recovered.
type Result struct {
	Inode     uint32
	FirstByte uint32
	Name      string
	SizeBytes uint32
}

// inodeLocation identifies an inode's position in the group cache: the group
// it belongs to, its bit index in that group's inode bitmap, and a view over
// its raw bytes in the inode table.
type inodeLocation struct {
	group uint32
	index uint32
	view  extlayout.InodeView
}

// locateInode returns the inode's group/index/view without checking whether
// it's marked used.
func locateInode(dev *DeviceView, cache *GroupCache, inum uint32) (inodeLocation, error) {
	if inum == 0 || inum > cache.Superblock.InodesCount {
		return inodeLocation{}, fmt.Errorf("inode %d out of range [1, %d]", inum, cache.Superblock.InodesCount)
	}
	perGroup := cache.Superblock.InodesPerGroup
	zeroBased := inum - 1
	group := zeroBased / perGroup
	index := zeroBased % perGroup

	gd := cache.Descriptor(group)
	inodeSize := int64(cache.Superblock.InodeSize)
	tableOffset := extlayout.BlockOffset(gd.InodeTableBlock) + int64(index)*inodeSize
	raw, err := dev.ByteRange(tableOffset, inodeSize)
	if err != nil {
		return inodeLocation{}, fmt.Errorf("locate inode %d: %w", inum, err)
	}
	return inodeLocation{group: group, index: index, view: extlayout.NewInodeView(raw)}, nil
}

// reserveInode claims the first available inode from priorityInodes, falling
// back to a linear scan upward from FirstIno+1 (spec §4.4.1, res_ino/
// res_ino_helper in the reference tool). It marks the winning inode used in
// its group's inode bitmap before returning.
func reserveInode(dev *DeviceView, cache *GroupCache, priorityInodes []uint32) (uint32, error) {
	tryReserve := func(inum uint32) (uint32, bool) {
		loc, err := locateInode(dev, cache, inum)
		if err != nil {
			return 0, false
		}
		if bitset.Get(cache.InodeBitmap(loc.group), loc.index) {
			return 0, false
		}
		bitset.Set(cache.InodeBitmap(loc.group), loc.index)
		return inum, true
	}

	for _, candidate := range priorityInodes {
		if inum, ok := tryReserve(candidate); ok {
			return inum, nil
		}
	}

	for inum := cache.Superblock.FirstIno + 1; inum <= cache.Superblock.InodesCount; inum++ {
		if result, ok := tryReserve(inum); ok {
			return result, nil
		}
	}

	return 0, errors.ErrInodeExhausted
}

// markUsed marks block used in its group's data-block bitmap, then, if level
// is greater than zero, decodes block as an indirect block and recurses into
// every non-zero, in-range entry at level-1. This is the Go counterpart of
// the reference tool's recursive mark_used(block, ind): walking a freshly
// populated indirect chain and claiming every block it touches.
func markUsed(dev *DeviceView, cache *GroupCache, block uint32, level int) {
	if block >= dev.BlockCount() {
		return
	}
	group, index := blockGroup(block)
	bitset.Set(cache.BlockBitmap(group), index)

	if level == 0 {
		return
	}
	raw, err := dev.Block(block)
	if err != nil {
		return
	}
	for _, entry := range readIndirectEntries(raw) {
		if entry == 0 {
			continue
		}
		markUsed(dev, cache, entry, level-1)
	}
}

// neededIndirectLevel returns how many levels of indirection a file of
// sizeBlocks blocks needs beyond the 12 direct pointers: 0 if it fits
// entirely in direct pointers, else 1, 2, or 3.
func neededIndirectLevel(sizeBlocks uint32) int {
	if sizeBlocks <= extlayout.DirectPointerCount {
		return 0
	}
	remaining := sizeBlocks - extlayout.DirectPointerCount
	if remaining <= extlayout.PointersPerIndirectBlock {
		return 1
	}
	if remaining <= extlayout.PointersPerIndirectBlock*extlayout.PointersPerIndirectBlock {
		return 2
	}
	return 3
}

// indirectListForLevel returns the candidate list for the given indirection
// level (1, 2, or 3).
func indirectListForLevel(candidates *Candidates, level int) []uint32 {
	switch level {
	case 1:
		return candidates.Indirects1
	case 2:
		return candidates.Indirects2
	case 3:
		return candidates.Indirects3
	default:
		return nil
	}
}

// findContinuingIndirect searches list for a not-yet-consumed indirect block
// whose data picks up immediately after the direct run, i.e. whose first
// entry (tolerating one leading zero for levels above 1, same as the
// classifier) equals after. This is the assembler's counterpart of the
// reference tool's find_next_ind: the classifier already validated each
// candidate's internal shape, so all that's left is matching it to this
// candidate's continuation point.
func findContinuingIndirect(dev *DeviceView, list []uint32, consumed map[uint32]bool, level int, after uint32) (uint32, bool) {
	for _, block := range list {
		if consumed[block] {
			continue
		}
		raw, err := dev.Block(block)
		if err != nil {
			continue
		}
		entries := readIndirectEntries(raw)
		first := entries[0]
		if first == 0 && level > 1 {
			first = entries[1]
		}
		if first == after {
			return block, true
		}
	}
	return 0, false
}

// populate writes a freshly reserved inode's metadata and block pointers for
// a BMP file starting at startBlock (spec §4.4.3, populate() in the
// reference tool): mode, size, link count, the contiguous run of direct
// blocks, and - if the file is bigger than 12 blocks - one matching indirect
// block found in candidates.
func populate(dev *DeviceView, cache *GroupCache, candidates *Candidates, consumed map[uint32]bool, sink status.Sink, inum uint32, startBlock uint32, fileSize uint32) error {
	sink.Populate(inum)

	loc, err := locateInode(dev, cache, inum)
	if err != nil {
		return err
	}
	inode := loc.view

	sizeBlocks := extlayout.SizeInBlocks(fileSize)
	directCount := sizeBlocks
	if directCount > extlayout.DirectPointerCount {
		directCount = extlayout.DirectPointerCount
	}

	for i := uint32(0); i < directCount; i++ {
		block := startBlock + i
		inode.SetBlockPointer(int(i), block)
		markUsed(dev, cache, block, 0)
	}
	sink.PopulateDirect(startBlock, startBlock+directCount-1)

	level := neededIndirectLevel(sizeBlocks)
	if level > 0 {
		after := startBlock + extlayout.DirectPointerCount
		indirectBlock, ok := findContinuingIndirect(dev, indirectListForLevel(candidates, level), consumed, level, after)
		if !ok {
			return errors.ErrIndirectMissing.WithMessage(
				fmt.Sprintf("no %dx indirect block continues after block %d", level, after))
		}
		consumed[indirectBlock] = true

		slot := extlayout.SingleIndirectSlot + (level - 1)
		inode.SetBlockPointer(slot, indirectBlock)
		markUsed(dev, cache, indirectBlock, level)
		sink.PopulateIndirect(level, indirectBlock)
	}

	inode.SetMode(extlayout.ModeRegularFile0777)
	inode.SetSizeLo(fileSize)
	inode.SetLinksCount(1)
	inode.SetExtraISize(32)
	return nil
}

// link appends a new directory entry for inum into the root directory's
// first data block, splitting the last entry in the chain to make room
// (spec §4.4.4, link() in the reference tool). It fails with
// ErrDirectoryFull if the last entry doesn't have enough slack to hold
// another name.
func link(dev *DeviceView, cache *GroupCache, sink status.Sink, inum uint32, name string) error {
	sink.Link(inum)

	rootLoc, err := locateInode(dev, cache, extlayout.RootInodeNumber)
	if err != nil {
		return errors.ErrLinkFailure.Wrap(err)
	}
	firstBlock := rootLoc.view.FirstDataBlockPointer()

	raw, err := dev.Block(firstBlock)
	if err != nil {
		return errors.ErrLinkFailure.Wrap(err)
	}

	offset := uint16(0)
	entry := extlayout.NewDirentView(raw)
	for offset+entry.RecLen() < extlayout.DirectoryEntrySize {
		offset += entry.RecLen()
		entry = entry.Next()
	}

	neededForExisting := extlayout.RoundedRecLen(int(entry.NameLen()))
	slack := entry.RecLen() - neededForExisting
	neededForNew := extlayout.RoundedRecLen(len(name))
	if slack < neededForNew {
		return errors.ErrDirectoryFull
	}

	originalRecLen := entry.RecLen()
	entry.SetRecLen(neededForExisting)

	newEntry := extlayout.NewDirentView(raw[offset+neededForExisting:])
	newEntry.SetInode(inum)
	newEntry.SetRecLen(originalRecLen - neededForExisting)
	newEntry.SetFileType(extlayout.FileTypeRegular)
	newEntry.SetName(name)

	sink.Recovered(name)
	return nil
}

// Collect walks every BMP-start candidate in order, reserving an inode,
// populating it, and linking it into the root directory for each one that
// survives its sanity check (spec §4.4). Recoverable failures
// (ErrIndirectMissing, ErrSanityFailed) are reported through sink.Warn and
// skip just that candidate; every other failure is fatal and aborts the
// whole collect.
func Collect(dev *DeviceView, cache *GroupCache, candidates *Candidates, sink status.Sink, priorityInodes []uint32) ([]Result, error) {
	sink.CollectStart()

	consumed := make(map[uint32]bool)
	var results []Result
	recovered := 0

	for _, start := range candidates.BMPStarts {
		if isBlockUsed(dev, cache, start) {
			continue
		}

		raw, err := dev.Block(start)
		if err != nil {
			sink.Warn("candidate at block %d: %s", start, err)
			continue
		}
		fileSize := extlayout.BMPFileSize(raw)
		sizeBlocks := extlayout.SizeInBlocks(fileSize)

		if sizeBlocks > extlayout.DirectPointerCount {
			sink.Sanity(start)
			level := neededIndirectLevel(sizeBlocks)
			after := start + extlayout.DirectPointerCount
			if _, ok := findContinuingIndirect(dev, indirectListForLevel(candidates, level), consumed, level, after); !ok {
				sink.Warn("candidate at block %d: %s", start, errors.ErrSanityFailed)
				continue
			}
		}

		inum, err := reserveInode(dev, cache, priorityInodes)
		if err != nil {
			return results, err
		}
		sink.Inode(inum)

		name := fmt.Sprintf("recovered_%03d.bmp", recovered)

		if err := populate(dev, cache, candidates, consumed, sink, inum, start, fileSize); err != nil {
			if isRecoverable(err) {
				sink.Warn("candidate at block %d: %s", start, err)
				continue
			}
			return results, err
		}

		markUsed(dev, cache, start, 0)

		if err := link(dev, cache, sink, inum, name); err != nil {
			if isRecoverable(err) {
				sink.Warn("candidate at block %d: %s", start, err)
				continue
			}
			return results, err
		}

		recovered++
		results = append(results, Result{Inode: inum, FirstByte: start, Name: name, SizeBytes: fileSize})
	}

	sink.Done()
	return results, nil
}

// isRecoverable reports whether err is one of the recoverable error kinds
// (spec §7) that should skip just the current candidate rather than abort
// the whole collect.
func isRecoverable(err error) bool {
	return stderrors.Is(err, errors.ErrIndirectMissing) || stderrors.Is(err, errors.ErrSanityFailed)
}
