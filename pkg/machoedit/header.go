package machoedit

import (
	"encoding/binary"

	"github.com/blacktop/go-macho/types"
)

// fatHeaderSize is the on-disk size of a fat_header: magic + nfat_arch,
// both 32-bit.
const fatHeaderSize = 8

// fatEntrySize is the on-disk size of one fat_arch: cputype, cpusubtype,
// offset, size, align.
const fatEntrySize = 20

// FatEntry is one slot of a fat container's index, always stored on
// disk big-endian regardless of which of the two fat magics the
// container carries.
type FatEntry struct {
	CPU    types.CPU
	SubCPU types.CPUSubtype
	Offset uint64
	Size   uint64
	Align  uint32 // power-of-two exponent
}

func readFatEntry(b []byte) FatEntry {
	return FatEntry{
		CPU:    types.CPU(binary.BigEndian.Uint32(b[0:4])),
		SubCPU: types.CPUSubtype(binary.BigEndian.Uint32(b[4:8])),
		Offset: uint64(binary.BigEndian.Uint32(b[8:12])),
		Size:   uint64(binary.BigEndian.Uint32(b[12:16])),
		Align:  binary.BigEndian.Uint32(b[16:20]),
	}
}

func (e FatEntry) put(b []byte) {
	binary.BigEndian.PutUint32(b[0:4], uint32(e.CPU))
	binary.BigEndian.PutUint32(b[4:8], uint32(e.SubCPU))
	binary.BigEndian.PutUint32(b[8:12], uint32(e.Offset))
	binary.BigEndian.PutUint32(b[12:16], uint32(e.Size))
	binary.BigEndian.PutUint32(b[16:20], e.Align)
}

// machHeaderSize32/64 are the on-disk sizes of mach_header and
// mach_header_64 (the latter carries a trailing reserved word).
const (
	machHeaderSize32 = 28
	machHeaderSize64 = 32
)

// MachHeader is the per-slice header at the start of every Mach-O
// slice. Its fields are kept in host order at all times; readMachHeader
// and (*MachHeader).put are the only places that deal with the slice's
// own on-disk byte order, resolved from Magic. Keeping one convention
// everywhere means a read-modify-write round trip never has to track
// which fields are already swapped.
type MachHeader struct {
	Magic        types.Magic
	CPU          types.CPU
	SubCPU       types.CPUSubtype
	Type         types.HeaderFileType
	NCommands    uint32
	SizeCommands uint32
	Flags        types.HeaderFlag
}

func (h MachHeader) size() int64 {
	if is64(h.Magic) {
		return machHeaderSize64
	}
	return machHeaderSize32
}

func readMachHeader(b []byte, magic types.Magic) MachHeader {
	order := machByteOrder(magic)
	return MachHeader{
		Magic:        magic,
		CPU:          types.CPU(order.Uint32(b[4:8])),
		SubCPU:       types.CPUSubtype(order.Uint32(b[8:12])),
		Type:         types.HeaderFileType(order.Uint32(b[12:16])),
		NCommands:    order.Uint32(b[16:20]),
		SizeCommands: order.Uint32(b[20:24]),
		Flags:        types.HeaderFlag(order.Uint32(b[24:28])),
	}
}

func (h MachHeader) put(b []byte) {
	order := machByteOrder(h.Magic)
	// Magic is the value readMagic classified against a fixed
	// big-endian reading, so it re-emits through the same convention,
	// not through the slice's field order.
	raw := putMagic(h.Magic)
	copy(b[0:4], raw[:])
	order.PutUint32(b[4:8], uint32(h.CPU))
	order.PutUint32(b[8:12], uint32(h.SubCPU))
	order.PutUint32(b[12:16], uint32(h.Type))
	order.PutUint32(b[16:20], h.NCommands)
	order.PutUint32(b[20:24], h.SizeCommands)
	order.PutUint32(b[24:28], uint32(h.Flags))
	if is64(h.Magic) {
		order.PutUint32(b[28:32], 0) // reserved
	}
}
