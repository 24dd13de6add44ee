package extlayout

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// RawGroupDescriptor mirrors the legacy (32-bit) group descriptor fields in
// their on-disk order.
type RawGroupDescriptor struct {
	BlockBitmapLo     uint32
	InodeBitmapLo     uint32
	InodeTableLo      uint32
	FreeBlocksCountLo uint16
	FreeInodesCountLo uint16
	UsedDirsCountLo   uint16
	Flags             uint16
	ExcludeBitmapLo   uint32
	BlockBitmapCsumLo uint16
	InodeBitmapCsumLo uint16
	ItableUnusedLo    uint16
	Checksum          uint16
}

// GroupDescriptor holds the pointers this tool needs for one block group:
// the block numbers of its data-block bitmap, inode bitmap, and inode table.
type GroupDescriptor struct {
	BlockBitmapBlock uint32
	InodeBitmapBlock uint32
	InodeTableBlock  uint32
}

// ReadGroupDescriptor decodes a single group descriptor from the bytes
// starting at its table entry.
func ReadGroupDescriptor(raw []byte) (GroupDescriptor, error) {
	if len(raw) < GroupDescriptorSize {
		return GroupDescriptor{}, fmt.Errorf(
			"group descriptor region too short: got %d bytes, need %d",
			len(raw), GroupDescriptorSize)
	}

	var rgd RawGroupDescriptor
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &rgd); err != nil {
		return GroupDescriptor{}, fmt.Errorf("decode group descriptor: %w", err)
	}

	return GroupDescriptor{
		BlockBitmapBlock: rgd.BlockBitmapLo,
		InodeBitmapBlock: rgd.InodeBitmapLo,
		InodeTableBlock:  rgd.InodeTableLo,
	}, nil
}
