package extlayout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/bmprecover/recovery/extlayout"
)

func TestBlockOffset(t *testing.T) {
	assert.Equal(t, int64(0), extlayout.BlockOffset(0))
	assert.Equal(t, int64(4096), extlayout.BlockOffset(1))
	assert.Equal(t, int64(4096*10), extlayout.BlockOffset(10))
}

func TestGroupDescriptorOffset(t *testing.T) {
	assert.Equal(t, int64(extlayout.BytesPerBlock), extlayout.GroupDescriptorOffset(0))
	assert.Equal(t, int64(extlayout.BytesPerBlock+extlayout.GroupDescriptorSize), extlayout.GroupDescriptorOffset(1))
}

func TestInodeView_RoundTrip(t *testing.T) {
	raw := make([]byte, 256)
	view := extlayout.NewInodeView(raw)

	view.SetMode(extlayout.ModeRegularFile0777)
	view.SetSizeLo(12345)
	view.SetLinksCount(1)
	view.SetExtraISize(32)
	view.SetBlockPointer(0, 100)
	view.SetBlockPointer(extlayout.SingleIndirectSlot, 200)

	require.Equal(t, uint16(extlayout.ModeRegularFile0777), view.Mode())
	assert.Equal(t, uint32(12345), view.SizeLo())
	assert.Equal(t, uint16(1), view.LinksCount())
	assert.Equal(t, uint32(100), view.BlockPointer(0))
	assert.Equal(t, uint32(100), view.FirstDataBlockPointer())
	assert.Equal(t, uint32(200), view.BlockPointer(extlayout.SingleIndirectSlot))
}

func TestDirentView_RoundTrip(t *testing.T) {
	raw := make([]byte, extlayout.DirectoryEntrySize)
	entry := extlayout.NewDirentView(raw)
	entry.SetInode(2)
	entry.SetRecLen(uint16(extlayout.DirectoryEntrySize))
	entry.SetFileType(2) // directory
	entry.SetName(".")

	assert.Equal(t, uint32(2), entry.Inode())
	assert.Equal(t, ".", entry.Name())
	assert.Equal(t, uint16(extlayout.DirectoryEntrySize), entry.RecLen())
}

func TestRoundedRecLen(t *testing.T) {
	assert.Equal(t, uint16(12), extlayout.RoundedRecLen(1)) // 8 + 1 -> rounds to 12
	assert.Equal(t, uint16(12), extlayout.RoundedRecLen(4)) // 8 + 4 == 12
	assert.Equal(t, uint16(16), extlayout.RoundedRecLen(5))
}

func TestLooksLikeBMPHeader(t *testing.T) {
	block := make([]byte, extlayout.BytesPerBlock)
	assert.False(t, extlayout.LooksLikeBMPHeader(block))

	block[0] = 'B'
	block[1] = 'M'
	assert.True(t, extlayout.LooksLikeBMPHeader(block))
}

func TestBMPFileSizeAndSizeInBlocks(t *testing.T) {
	block := make([]byte, extlayout.BytesPerBlock)
	block[0], block[1] = 'B', 'M'
	block[2], block[3], block[4], block[5] = 0, 0x30, 0, 0 // 0x3000 = 12288 bytes

	assert.Equal(t, uint32(12288), extlayout.BMPFileSize(block))
	assert.Equal(t, uint32(3), extlayout.SizeInBlocks(12288))
	assert.Equal(t, uint32(4), extlayout.SizeInBlocks(12289))
}

func TestReadSuperblock_RejectsWrongMagic(t *testing.T) {
	raw := make([]byte, 1024)
	_, err := extlayout.ReadSuperblock(raw)
	require.ErrorIs(t, err, extlayout.ErrNotExtFilesystem)
}
