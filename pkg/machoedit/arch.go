package machoedit

import (
	"os"

	"github.com/go-macho-tools/machoedit/internal/rangeio"
)

// Arch is the parsed state of one architecture slice inside a
// container: its fat-table entry, its Mach-O header, and its decoded
// load-command list. Arch stores no reference to the file or the
// owning Container; every function that needs to touch disk takes the
// file explicitly.
type Arch struct {
	Entry        FatEntry
	Header       MachHeader
	LoadCommands []LoadCommand
}

// newArch reads the Mach-O header at entry.Offset and then exactly
// Header.NCommands load commands, failing with MalformedSlice if the
// command table is inconsistent with sizeofcmds or overruns the
// slice.
func newArch(f *os.File, entry FatEntry) (*Arch, error) {
	header, err := readHeaderAt(f, int64(entry.Offset))
	if err != nil {
		return nil, err
	}
	magic := header.Magic
	hdrSize := header.size()

	if uint64(int64(entry.Offset)+hdrSize)+uint64(header.SizeCommands) > entry.Offset+entry.Size {
		return nil, newError(MalformedSlice, "load-command table overruns slice", nil)
	}

	cmds := make([]LoadCommand, 0, header.NCommands)
	cursor := entry.Offset + uint64(hdrSize)
	var consumed uint32
	for i := uint32(0); i < header.NCommands; i++ {
		if consumed+8 > header.SizeCommands {
			return nil, newError(MalformedSlice, "load-command table shorter than ncmds implies", nil)
		}
		var head [8]byte
		if err := rangeio.ReadAt(f, head[:], int64(cursor)); err != nil {
			return nil, newError(IOError, "read load command header", err)
		}
		cmd, cmdsize := peekCmd(head[:], magic)
		if consumed+cmdsize > header.SizeCommands {
			return nil, newError(MalformedSlice, "load command overruns sizeofcmds", nil)
		}
		payload := make([]byte, cmdsize)
		if err := rangeio.ReadAt(f, payload, int64(cursor)); err != nil {
			return nil, newError(IOError, "read load command payload", err)
		}
		cmds = append(cmds, LoadCommand{
			Cmd:        cmd,
			CmdSize:    cmdsize,
			FileOffset: int64(cursor),
			Payload:    payload,
		})
		cursor += uint64(cmdsize)
		consumed += cmdsize
	}
	if consumed != header.SizeCommands {
		return nil, newError(MalformedSlice, "sum of cmdsize does not equal sizeofcmds", nil)
	}

	return &Arch{Entry: entry, Header: header, LoadCommands: cmds}, nil
}

// readHeaderAt reads and decodes the Mach-O header at offset off in f.
func readHeaderAt(f *os.File, off int64) (MachHeader, error) {
	var magicBuf [4]byte
	if err := rangeio.ReadAt(f, magicBuf[:], off); err != nil {
		return MachHeader{}, newError(IOError, "read slice magic", err)
	}
	magic, ok := readMagic(magicBuf)
	if !ok || !isMachHeaderMagic(magic) {
		return MachHeader{}, newError(MalformedSlice, "slice magic is not a Mach-O header magic", nil)
	}
	hdrSize := MachHeader{Magic: magic}.size()
	hdrBuf := make([]byte, hdrSize)
	if err := rangeio.ReadAt(f, hdrBuf, off); err != nil {
		return MachHeader{}, newError(IOError, "read mach header", err)
	}
	return readMachHeader(hdrBuf, magic), nil
}

// newSyntheticFatEntry derives a FatEntry for a thin file's sole
// slice: offset 0, size = whole file, cputype/cpusubtype copied from
// its own header, alignment from the CPU's conventional page size.
func newSyntheticFatEntry(header MachHeader, fileSize uint64) FatEntry {
	return FatEntry{
		CPU:    header.CPU,
		SubCPU: header.SubCPU,
		Offset: 0,
		Size:   fileSize,
		Align:  log2(pageSizeFor(header.CPU)),
	}
}
