// Package extlayout describes the on-disk geometry and binary structures of
// the ext-family filesystem this tool repairs: block/group sizing constants,
// the superblock, group descriptors, inodes, directory entries, and the BMP
// file header the classifier looks for. All multi-byte fields are read and
// written with explicit little-endian semantics, regardless of host byte
// order.
package extlayout

// BytesPerBlock is the fixed block size this tool understands. Non-goals
// exclude support for any other block size.
const BytesPerBlock = 4096

// BlocksPerGroup is the number of blocks covered by a single group's
// bitmaps, fixed at one block's worth of bits (4096 * 8 = 32768).
const BlocksPerGroup = BytesPerBlock * 8

// BytesPerGroup is the size in bytes of the span of the device a single
// group covers.
const BytesPerGroup = BlocksPerGroup * BytesPerBlock

// SuperblockOffset is the fixed byte offset of the primary superblock within
// group 0.
const SuperblockOffset = 1024

// GroupDescriptorSize is the size in bytes of one entry in the group
// descriptor table. This covers the legacy (32-bit) fields used by this
// tool; the 64-bit extensions are not needed.
const GroupDescriptorSize = 64

// GroupDescriptorTableOffset is the fixed byte offset of the start of the
// group descriptor table, immediately following block 0.
const GroupDescriptorTableOffset = BytesPerBlock

// RootInodeNumber is the fixed inode number of the filesystem root
// directory.
const RootInodeNumber = 2

// PointersPerInode is the number of block-pointer slots in an inode's
// i_block array: 12 direct, one single/double/triple indirect.
const PointersPerInode = 15

// DirectPointerCount is the number of direct block pointer slots.
const DirectPointerCount = 12

// Indirection level indices into the inode's pointer array.
const (
	SingleIndirectSlot = DirectPointerCount     // index 12
	DoubleIndirectSlot = DirectPointerCount + 1 // index 13
	TripleIndirectSlot = DirectPointerCount + 2 // index 14
)

// PointersPerIndirectBlock is the number of 32-bit block numbers held by one
// indirect block (4096 bytes / 4 bytes per pointer).
const PointersPerIndirectBlock = BytesPerBlock / 4

// GroupOffset returns the byte offset of the start of group g.
func GroupOffset(group uint32) int64 {
	return int64(group) * BytesPerGroup
}

// GroupDescriptorOffset returns the byte offset of the group descriptor for
// group g, relative to the start of the device (group descriptors for every
// group live in group 0's descriptor table).
func GroupDescriptorOffset(group uint32) int64 {
	return GroupDescriptorTableOffset + int64(group)*GroupDescriptorSize
}

// BlockOffset returns the byte offset of the start of block b.
func BlockOffset(block uint32) int64 {
	return int64(block) * BytesPerBlock
}
