package extlayout

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// RawSuperblock mirrors the on-disk ext superblock layout, decoded in
// declaration order exactly as the filesystem lays it out starting at
// [SuperblockOffset]. Fields up to s_algorithm_usage_bitmap are named (most
// are not read by this tool); the rest of the block is kept as anonymous
// padding so the struct's size and field offsets match the real superblock
// bit for bit.
type RawSuperblock struct {
	InodesCount        uint32
	BlocksCountLo      uint32
	RBlocksCountLo     uint32
	FreeBlocksCountLo  uint32
	FreeInodesCount    uint32
	FirstDataBlock     uint32
	LogBlockSize       uint32
	LogClusterSize     uint32
	BlocksPerGroup     uint32
	ClustersPerGroup   uint32
	InodesPerGroup     uint32
	Mtime              uint32
	Wtime              uint32
	MntCount           uint16
	MaxMntCount        uint16
	Magic              uint16
	State              uint16
	Errors             uint16
	MinorRevLevel      uint16
	Lastcheck          uint32
	Checkinterval      uint32
	CreatorOS          uint32
	RevLevel           uint32
	DefResuid          uint16
	DefResgid          uint16
	FirstIno           uint32
	InodeSize          uint16
	BlockGroupNr       uint16
	FeatureCompat      uint32
	FeatureIncompat    uint32
	FeatureROCompat    uint32
	UUID               [16]byte
	VolumeName         [16]byte
	LastMounted        [64]byte
	AlgorithmUsageBmap uint32
	_                  [1024 - 204]byte // remainder of the 1024-byte block, unused by this tool
}

// Superblock is the decoded subset of superblock fields the recovery engine
// actually uses.
type Superblock struct {
	InodesCount     uint32
	BlocksCount     uint32
	FirstIno        uint32
	InodeSize       uint16
	InodesPerGroup  uint32
	FreeBlocksCount uint32
	FreeInodesCount uint32
}

// ErrNotExtFilesystem is returned when the superblock magic doesn't match
// the expected ext family value.
var ErrNotExtFilesystem = fmt.Errorf("superblock magic does not match an ext-family filesystem")

const extMagic = 0xEF53

// ReadSuperblock decodes the superblock from raw, which must be the bytes of
// group 0 starting at [SuperblockOffset].
func ReadSuperblock(raw []byte) (Superblock, error) {
	if len(raw) < 1024 {
		return Superblock{}, fmt.Errorf("superblock region too short: got %d bytes, need 1024", len(raw))
	}

	var rsb RawSuperblock
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &rsb); err != nil {
		return Superblock{}, fmt.Errorf("decode superblock: %w", err)
	}

	if rsb.Magic != extMagic {
		return Superblock{}, ErrNotExtFilesystem
	}

	if rsb.InodeSize == 0 {
		// Revision 0 filesystems fix the inode size at 128 bytes and don't
		// store it explicitly.
		rsb.InodeSize = 128
	}

	return Superblock{
		InodesCount:     rsb.InodesCount,
		BlocksCount:     rsb.BlocksCountLo,
		FirstIno:        rsb.FirstIno,
		InodeSize:       rsb.InodeSize,
		InodesPerGroup:  rsb.InodesPerGroup,
		FreeBlocksCount: rsb.FreeBlocksCountLo,
		FreeInodesCount: rsb.FreeInodesCount,
	}, nil
}
