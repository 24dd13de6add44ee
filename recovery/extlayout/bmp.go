package extlayout

import "encoding/binary"

// BMPMagic is the two-byte signature ("BM") a BMP file begins with.
var BMPMagic = [2]byte{0x42, 0x4D}

// BMPHeaderSize is the size in bytes of the fixed BMP file header: the
// 2-byte magic, the little-endian 32-bit file size field, and the
// reserved/offset fields. This tool reads only the magic and the file size.
const BMPHeaderSize = 14

// LooksLikeBMPHeader reports whether the first two bytes of block match the
// BMP magic.
func LooksLikeBMPHeader(block []byte) bool {
	return len(block) >= 2 && block[0] == BMPMagic[0] && block[1] == BMPMagic[1]
}

// BMPFileSize decodes the little-endian 32-bit file_size field that follows
// the magic at offset 2.
func BMPFileSize(block []byte) uint32 {
	return binary.LittleEndian.Uint32(block[2:6])
}

// SizeInBlocks returns ceil(fileSize / BytesPerBlock).
func SizeInBlocks(fileSize uint32) uint32 {
	blocks := fileSize / BytesPerBlock
	if fileSize%BytesPerBlock != 0 {
		blocks++
	}
	return blocks
}
