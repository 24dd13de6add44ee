package recovery_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dargueta/bmprecover/recovery"
	"github.com/dargueta/bmprecover/recovery/extlayout"
	"github.com/dargueta/bmprecover/recovery/status"
)

// fixtureLayout pins the block numbers a buildFixture image uses for its
// fixed metadata regions, so the test body and the builder agree without
// magic numbers scattered across both.
const (
	fixtureBlockBitmapBlock = 2
	fixtureInodeBitmapBlock = 3
	fixtureInodeTableBlock  = 4
	fixtureRootDirBlock     = 20
	fixtureBMPStartBlock    = 30
	fixtureInodesPerGroup   = 32
	fixtureInodeSize        = 128
	fixtureFirstIno         = 11
)

// buildFixture writes a single-group ext-style image to a temp file sized
// to one full group, with everything except a handful of touched blocks
// left as sparse zero bytes: a valid superblock and group descriptor, empty
// block/inode bitmaps with the metadata blocks marked used, a root
// directory whose sole entry spans the entire first data block, and one
// free block holding a 3-block BMP file header (small enough to need no
// indirect block, so Collect's simplest path is exercised end to end).
func buildFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "image.bin")
	size := int64(extlayout.BytesPerGroup)

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))

	writeAt := func(offset int64, raw []byte) {
		_, err := f.WriteAt(raw, offset)
		require.NoError(t, err)
	}

	// Superblock.
	sb := make([]byte, 1024)
	binary.LittleEndian.PutUint32(sb[0:], fixtureInodesPerGroup)        // s_inodes_count
	binary.LittleEndian.PutUint32(sb[4:], extlayout.BlocksPerGroup)     // s_blocks_count_lo
	binary.LittleEndian.PutUint32(sb[40:], fixtureInodesPerGroup)       // s_inodes_per_group
	binary.LittleEndian.PutUint16(sb[56:], 0xEF53)                      // s_magic
	binary.LittleEndian.PutUint32(sb[84:], fixtureFirstIno)             // s_first_ino
	binary.LittleEndian.PutUint16(sb[88:], fixtureInodeSize)            // s_inode_size
	writeAt(extlayout.SuperblockOffset, sb)

	// Group descriptor (table starts at block 1).
	gd := make([]byte, extlayout.GroupDescriptorSize)
	binary.LittleEndian.PutUint32(gd[0:], fixtureBlockBitmapBlock)
	binary.LittleEndian.PutUint32(gd[4:], fixtureInodeBitmapBlock)
	binary.LittleEndian.PutUint32(gd[8:], fixtureInodeTableBlock)
	writeAt(extlayout.GroupDescriptorOffset(0), gd)

	// Block bitmap: mark every metadata block and the root dir block used.
	blockBitmap := make([]byte, extlayout.BytesPerBlock)
	for _, b := range []uint32{0, 1, fixtureBlockBitmapBlock, fixtureInodeBitmapBlock, fixtureInodeTableBlock, fixtureRootDirBlock} {
		blockBitmap[b/8] |= 1 << (b % 8)
	}
	writeAt(extlayout.BlockOffset(fixtureBlockBitmapBlock), blockBitmap)

	// Inode bitmap: only the root inode (#2) starts out used.
	inodeBitmap := make([]byte, extlayout.BytesPerBlock)
	inodeBitmap[0] |= 1 << 1 // inode 2 -> zero-based index 1
	writeAt(extlayout.BlockOffset(fixtureInodeBitmapBlock), inodeBitmap)

	// Root inode (#2): a directory whose first block is fixtureRootDirBlock.
	rootInodeOffset := extlayout.BlockOffset(fixtureInodeTableBlock) + int64(extlayout.RootInodeNumber-1)*fixtureInodeSize
	rootInode := make([]byte, fixtureInodeSize)
	binary.LittleEndian.PutUint16(rootInode[0:], 0x4000|0o755) // S_IFDIR
	binary.LittleEndian.PutUint32(rootInode[40:], fixtureRootDirBlock)
	writeAt(rootInodeOffset, rootInode)

	// Root directory data block: one entry, ".", spanning the whole block.
	rootDir := make([]byte, extlayout.BytesPerBlock)
	binary.LittleEndian.PutUint32(rootDir[0:], extlayout.RootInodeNumber)
	binary.LittleEndian.PutUint16(rootDir[4:], uint16(extlayout.BytesPerBlock))
	rootDir[6] = 1 // name_len
	rootDir[7] = 2 // file_type: directory
	rootDir[8] = '.'
	writeAt(extlayout.BlockOffset(fixtureRootDirBlock), rootDir)

	// A free block holding a 3-block BMP file header.
	bmpBlock := make([]byte, extlayout.BytesPerBlock)
	bmpBlock[0], bmpBlock[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(bmpBlock[2:], 3*extlayout.BytesPerBlock)
	writeAt(extlayout.BlockOffset(fixtureBMPStartBlock), bmpBlock)

	require.NoError(t, f.Close())
	return path
}

func TestEngine_EndToEndRecoversDirectOnlyFile(t *testing.T) {
	path := buildFixture(t)
	sink := status.NewRecordingSink()

	r, err := recovery.Init(path, sink)
	require.NoError(t, err)
	defer r.Close()

	candidates, err := r.Scan()
	require.NoError(t, err)
	require.Contains(t, candidates.BMPStarts, uint32(fixtureBMPStartBlock))

	results, err := r.Collect(nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	require.Equal(t, uint32(fixtureBMPStartBlock), got.FirstByte)
	require.Equal(t, uint32(3*extlayout.BytesPerBlock), got.SizeBytes)
	// None of the default priority inodes fit inside this fixture's tiny
	// inode table, so reservation falls back to the linear scan starting
	// at FirstIno+1.
	require.Equal(t, uint32(fixtureFirstIno+1), got.Inode)
	require.Equal(t, "recovered_000.bmp", got.Name)
	require.Contains(t, sink.Recoveries, got.Name)
}

// TestEngine_ScanWithNoBmpStartsRevertsToUninitialized builds a fixture
// identical to buildFixture except its BMP candidate's magic bytes are
// blanked out, so Scan finds zero BMP starts and fails fatally. Spec §4.6
// requires the Ready ->(scan, 0 BMP)-> Uninitialized transition; this
// checks the engine actually lands there rather than staying Ready/Scanned.
func TestEngine_ScanWithNoBmpStartsRevertsToUninitialized(t *testing.T) {
	path := buildFixture(t)

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0, 0}, extlayout.BlockOffset(fixtureBMPStartBlock))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	sink := status.NewRecordingSink()
	r, err := recovery.Init(path, sink)
	require.NoError(t, err)

	_, err = r.Scan()
	require.Error(t, err)

	// The engine tore itself down and reverted to Uninitialized: neither
	// Scan nor Collect is valid anymore, and Close is a safe no-op.
	_, err = r.Scan()
	require.Error(t, err)
	_, err = r.Collect(nil)
	require.Error(t, err)
	require.NoError(t, r.Close())
}

func TestEngine_CloseIsIdempotent(t *testing.T) {
	path := buildFixture(t)
	sink := status.NewRecordingSink()

	r, err := recovery.Init(path, sink)
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}
