package machoedit

import (
	"encoding/binary"

	"github.com/blacktop/go-macho/types"
)

// The six recognized magics: the four Mach-O magics (32/64-bit,
// native/swapped) and the two fat magics (native/swapped). Native
// Mach-O and fat magics are reused from go-macho/types; the swapped
// (CIGAM) forms are declared here since go-macho's vendored snapshot
// only carries the native ones.
const (
	mhCigam32 types.Magic = 0xcefaedfe
	mhCigam64 types.Magic = 0xcffaedfe
	fatCigam  types.Magic = 0xbebafeca
)

// readMagic classifies raw, the 4-byte tag at the start of a file or
// slice.
// The raw bytes are always interpreted through a fixed big-endian
// reading, the same convention Apple's own magic constants are
// written against; whether the classified magic is a "native" or
// "swapped" form is then what needsSwap reports, and that in turn
// drives which encoding/binary.ByteOrder a Mach-O header's own fields
// are stored in. ok is false when the bytes match none of the six
// known magics.
func readMagic(raw [4]byte) (magic types.Magic, ok bool) {
	m := types.Magic(binary.BigEndian.Uint32(raw[:]))
	switch m {
	case types.Magic32, types.Magic64, types.MagicFat, mhCigam32, mhCigam64, fatCigam:
		return m, true
	default:
		return 0, false
	}
}

// putMagic encodes magic back into its 4-byte on-disk form, using the
// same fixed big-endian convention readMagic assumes.
func putMagic(magic types.Magic) [4]byte {
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], uint32(magic))
	return raw
}

// isFatMagic reports whether magic is either recognized fat-container
// tag.
func isFatMagic(magic types.Magic) bool {
	return magic == types.MagicFat || magic == fatCigam
}

// isSwappedMagic reports whether magic is one of the three "CIGAM"
// (byte-reversed) forms, as opposed to the three native forms. This is
// the needs_swap(magic) predicate from the layout primitives.
func isSwappedMagic(magic types.Magic) bool {
	switch magic {
	case mhCigam32, mhCigam64, fatCigam:
		return true
	default:
		return false
	}
}

// machByteOrder returns the encoding/binary.ByteOrder a Mach-O slice
// with the given magic stores its header and load commands in. Fat
// headers and fat entries never consult this: they are always encoded
// big-endian regardless of which fat tag is present.
func machByteOrder(magic types.Magic) binary.ByteOrder {
	if isSwappedMagic(magic) {
		return binary.LittleEndian
	}
	return binary.BigEndian
}
