// Package bitset implements the bit-exact LSB-first bitmap operations the
// recovery engine needs directly over the memory-mapped device's own bitmap
// blocks (spec §6: "bit k of a bitmap byte array is bit (k mod 8) of byte
// (k/8), counted least-significant-bit first"). It mirrors the first-fit
// allocation scan of the teacher's drivers/common/allocatormap.go and
// blockmanager.go (it has no contiguous-run search), but operates in place
// on the raw bytes of a live bitmap block instead of a private
// github.com/boljen/go-bitmap instance, since every bit set here must be
// visible immediately in the mapped device.
package bitset

// Get reports whether bit index is set in bmp.
func Get(bmp []byte, index uint32) bool {
	byteOff := index / 8
	bitOff := index % 8
	return (bmp[byteOff]>>bitOff)&0x01 != 0
}

// Set sets bit index to 1 in bmp.
func Set(bmp []byte, index uint32) {
	byteOff := index / 8
	bitOff := index % 8
	bmp[byteOff] |= 0x01 << bitOff
}

// Clear sets bit index to 0 in bmp.
func Clear(bmp []byte, index uint32) {
	byteOff := index / 8
	bitOff := index % 8
	bmp[byteOff] &^= 0x01 << bitOff
}

// FindFirstFree scans bmp for the first bit in [0, limit) that is clear,
// first-fit, the same linear scan as [Get]-in-a-loop in the teacher's
// Allocator.AllocateBlock. Returns the index and true, or false if every bit
// in range is set.
func FindFirstFree(bmp []byte, limit uint32) (uint32, bool) {
	for i := uint32(0); i < limit; i++ {
		if !Get(bmp, i) {
			return i, true
		}
	}
	return 0, false
}
