package machoedit

import (
	"github.com/blacktop/go-macho/types"
)

// LoadCommand is one decoded entry from a slice's load-command table.
// Cmd and CmdSize are kept in host order; Payload is the command's
// raw bytes, exactly CmdSize long, still in the slice's own byte
// order (swap per the owning Arch's magic to interpret fields beyond
// the first two words).
type LoadCommand struct {
	Cmd        types.LoadCmd
	CmdSize    uint32
	FileOffset int64
	Payload    []byte
}

// peekCmd reads the (cmd, cmdsize) pair from the first 8 bytes of a
// raw load-command payload, honoring magic's byte order.
func peekCmd(b []byte, magic types.Magic) (types.LoadCmd, uint32) {
	order := machByteOrder(magic)
	return types.LoadCmd(order.Uint32(b[0:4])), order.Uint32(b[4:8])
}

const (
	segNameLen = 16

	segment32Size = 56
	segment64Size = 72
	symtabSize    = 24
	linkEditSize  = 16
)

var linkeditName = [segNameLen]byte{'_', '_', 'L', 'I', 'N', 'K', 'E', 'D', 'I', 'T'}

// segmentView is the subset of LC_SEGMENT/LC_SEGMENT_64 this editor
// reads and rewrites.
type segmentView struct {
	Name    [segNameLen]byte
	FileOff uint64
	FileSz  uint64
	VMSz    uint64
	is64    bool
}

func decodeSegment(payload []byte, magic types.Magic, is64 bool) segmentView {
	order := machByteOrder(magic)
	var v segmentView
	v.is64 = is64
	copy(v.Name[:], payload[8:8+segNameLen])
	if is64 {
		v.VMSz = order.Uint64(payload[32:40])
		v.FileOff = order.Uint64(payload[40:48])
		v.FileSz = order.Uint64(payload[48:56])
	} else {
		v.VMSz = uint64(order.Uint32(payload[28:32]))
		v.FileOff = uint64(order.Uint32(payload[32:36]))
		v.FileSz = uint64(order.Uint32(payload[36:40]))
	}
	return v
}

// encodeSegment writes FileSz and VMSz back into payload in place.
func encodeSegment(payload []byte, magic types.Magic, v segmentView) {
	order := machByteOrder(magic)
	if v.is64 {
		order.PutUint64(payload[32:40], v.VMSz)
		order.PutUint64(payload[48:56], v.FileSz)
	} else {
		order.PutUint32(payload[28:32], uint32(v.VMSz))
		order.PutUint32(payload[36:40], uint32(v.FileSz))
	}
}

func isLinkedit(name [segNameLen]byte) bool {
	return name == linkeditName
}

// symtabView is the subset of LC_SYMTAB this editor reads.
type symtabView struct {
	Stroff  uint32
	Strsize uint32
}

func decodeSymtab(payload []byte, magic types.Magic) symtabView {
	order := machByteOrder(magic)
	return symtabView{
		Stroff:  order.Uint32(payload[16:20]),
		Strsize: order.Uint32(payload[20:24]),
	}
}

// linkEditDataView is the subset of LC_CODE_SIGNATURE (and other
// linkedit_data_command variants) this editor reads.
type linkEditDataView struct {
	DataOff  uint32
	DataSize uint32
}

func decodeLinkEditData(payload []byte, magic types.Magic) linkEditDataView {
	order := machByteOrder(magic)
	return linkEditDataView{
		DataOff:  order.Uint32(payload[8:12]),
		DataSize: order.Uint32(payload[12:16]),
	}
}
