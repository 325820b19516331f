package machoedit

import (
	"github.com/blacktop/go-macho/types"

	"github.com/go-macho-tools/machoedit/internal/cpuinfo"
)

// needsSwap reports whether values under magic must be byte-reversed
// to reach host order, relative to the fixed big-endian convention
// readMagic classifies against.
func needsSwap(magic types.Magic) bool {
	return isSwappedMagic(magic)
}

// isFat reports whether magic identifies a fat (universal) container,
// native or byte-swapped.
func isFat(magic types.Magic) bool {
	return isFatMagic(magic)
}

// isMachHeaderMagic reports whether magic identifies a thin Mach-O
// slice header, native or byte-swapped, 32- or 64-bit.
func isMachHeaderMagic(magic types.Magic) bool {
	switch magic {
	case types.Magic32, types.Magic64, mhCigam32, mhCigam64:
		return true
	default:
		return false
	}
}

// is64 reports whether magic identifies a 64-bit Mach-O header.
func is64(magic types.Magic) bool {
	return magic == types.Magic64 || magic == mhCigam64
}

// swap32 byte-reverses v iff values under magic need swapping.
func swap32(v uint32, magic types.Magic) uint32 {
	if !needsSwap(magic) {
		return v
	}
	return v>>24 | (v>>8&0xff00) | (v<<8&0xff0000) | v<<24
}

// swap64 byte-reverses v iff values under magic need swapping.
func swap64(v uint64, magic types.Magic) uint64 {
	if !needsSwap(magic) {
		return v
	}
	var out uint64
	for i := 0; i < 8; i++ {
		out = out<<8 | (v & 0xff)
		v >>= 8
	}
	return out
}

// roundUp returns the smallest multiple of align that is >= x. align
// must be a power of two.
func roundUp(x, align uint64) uint64 {
	return (x + align - 1) &^ (align - 1)
}

// pageSizeFor is the cpu_pagesize layout primitive, delegating to the
// external cputype->page-size collaborator.
func pageSizeFor(cpu types.CPU) uint64 {
	return cpuinfo.PageSize(cpu)
}

// log2 returns the power-of-two exponent of v. v must itself be a
// power of two.
func log2(v uint64) uint32 {
	var n uint32
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}
