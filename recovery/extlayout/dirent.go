package extlayout

import "encoding/binary"

// DirectoryEntrySize is the size in bytes of a directory data block, the
// fixed unit the root directory's rec_len fields must sum to.
const DirectoryEntrySize = BytesPerBlock

// FileTypeRegular is the file_type value for a regular file in the ext
// directory entry format (the "filetype" feature).
const FileTypeRegular = 1

const (
	direntOffInode    = 0
	direntOffRecLen   = 4
	direntOffNameLen  = 6
	direntOffFileType = 7
	direntOffName     = 8
	direntHeaderSize  = 8
)

// DirentView is an accessor over one packed directory entry's raw bytes
// inside the memory-mapped device.
type DirentView struct {
	raw []byte
}

// NewDirentView wraps the bytes of a directory entry starting at its first
// byte. raw may extend past the entry; callers use RecLen to know how far
// the entry actually runs.
func NewDirentView(raw []byte) DirentView {
	return DirentView{raw: raw}
}

func (v DirentView) Inode() uint32 {
	return binary.LittleEndian.Uint32(v.raw[direntOffInode:])
}

func (v DirentView) SetInode(inode uint32) {
	binary.LittleEndian.PutUint32(v.raw[direntOffInode:], inode)
}

func (v DirentView) RecLen() uint16 {
	return binary.LittleEndian.Uint16(v.raw[direntOffRecLen:])
}

func (v DirentView) SetRecLen(recLen uint16) {
	binary.LittleEndian.PutUint16(v.raw[direntOffRecLen:], recLen)
}

func (v DirentView) NameLen() uint8 {
	return v.raw[direntOffNameLen]
}

func (v DirentView) SetNameLen(n uint8) {
	v.raw[direntOffNameLen] = n
}

func (v DirentView) FileType() uint8 {
	return v.raw[direntOffFileType]
}

func (v DirentView) SetFileType(t uint8) {
	v.raw[direntOffFileType] = t
}

// Name returns the entry's name, exactly NameLen() bytes.
func (v DirentView) Name() string {
	n := v.NameLen()
	return string(v.raw[direntOffName : direntOffName+int(n)])
}

// SetName writes name into the entry's name field. The caller must have
// already ensured the entry's rec_len leaves enough room.
func (v DirentView) SetName(name string) {
	v.SetNameLen(uint8(len(name)))
	copy(v.raw[direntOffName:], name)
}

// Next returns a view of the entry immediately following this one, per its
// rec_len.
func (v DirentView) Next() DirentView {
	return DirentView{raw: v.raw[v.RecLen():]}
}

// RoundedRecLen computes the rec_len an entry with the given name length
// would occupy, rounded up to the next multiple of 4: ceil((8+nameLen)/4)*4.
func RoundedRecLen(nameLen int) uint16 {
	size := direntHeaderSize + nameLen
	return uint16(((size + 3) / 4) * 4)
}
