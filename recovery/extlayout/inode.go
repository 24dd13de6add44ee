package extlayout

import "encoding/binary"

// Byte offsets of the inode fields this tool reads or writes, relative to
// the start of the inode's on-disk slot. These match the ext4 on-disk inode
// layout exactly; fields this tool never touches (timestamps, ACLs, OS-
// dependent unions, extra timestamp fields) are left alone wherever the
// assembler writes a new inode, since a freshly zeroed inode slot already
// has them zeroed.
const (
	inodeOffMode        = 0
	inodeOffSizeLo       = 4
	inodeOffLinksCount   = 26
	inodeOffBlock        = 40
	inodeOffExtraISize   = 128
)

// ModeRegularFile0777 is the mode value the assembler writes into every
// inode it populates: a regular file (S_IFREG) with world-readable-writable-
// executable permission bits, matching the reference tool's MODE_777 |
// TYPE_REG.
const ModeRegularFile0777 = 0x8000 | 0o777

// InodeView is a thin accessor over the raw bytes of a single inode slot
// inside the memory-mapped device. It never copies the bytes it's given;
// every Set method mutates the underlying mapping directly.
type InodeView struct {
	raw []byte
}

// NewInodeView wraps the bytes of one inode slot. raw must be at least
// InodeSize bytes (the caller is expected to slice it from the inode
// table).
func NewInodeView(raw []byte) InodeView {
	return InodeView{raw: raw}
}

func (v InodeView) Mode() uint16 {
	return binary.LittleEndian.Uint16(v.raw[inodeOffMode:])
}

func (v InodeView) SetMode(mode uint16) {
	binary.LittleEndian.PutUint16(v.raw[inodeOffMode:], mode)
}

func (v InodeView) SizeLo() uint32 {
	return binary.LittleEndian.Uint32(v.raw[inodeOffSizeLo:])
}

func (v InodeView) SetSizeLo(size uint32) {
	binary.LittleEndian.PutUint32(v.raw[inodeOffSizeLo:], size)
}

func (v InodeView) LinksCount() uint16 {
	return binary.LittleEndian.Uint16(v.raw[inodeOffLinksCount:])
}

func (v InodeView) SetLinksCount(count uint16) {
	binary.LittleEndian.PutUint16(v.raw[inodeOffLinksCount:], count)
}

// SetExtraISize writes i_extra_isize. A 128-byte inode slot has no room for
// the field, so nothing is written in that case.
func (v InodeView) SetExtraISize(size uint16) {
	if len(v.raw) < inodeOffExtraISize+2 {
		return
	}
	binary.LittleEndian.PutUint16(v.raw[inodeOffExtraISize:], size)
}

// BlockPointer returns the block pointer stored in slot index (0..14: 0-11
// direct, 12 single-indirect, 13 double-indirect, 14 triple-indirect).
func (v InodeView) BlockPointer(slot int) uint32 {
	off := inodeOffBlock + slot*4
	return binary.LittleEndian.Uint32(v.raw[off:])
}

// SetBlockPointer writes a block number into pointer slot index.
func (v InodeView) SetBlockPointer(slot int, block uint32) {
	off := inodeOffBlock + slot*4
	binary.LittleEndian.PutUint32(v.raw[off:], block)
}

// FirstDataBlockPointer is a convenience accessor for slot 0, used to find
// the root directory's first data block.
func (v InodeView) FirstDataBlockPointer() uint32 {
	return v.BlockPointer(0)
}
