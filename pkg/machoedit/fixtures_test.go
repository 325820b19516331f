package machoedit

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"testing"

	"github.com/blacktop/go-macho/types"
)

// Test fixtures are synthesized little-endian 64-bit slices, the
// layout every binary shipped by current Apple toolchains uses. The
// builders fill the region past the load-command table with a
// deterministic byte pattern so content moves are observable.

const testSubCPU types.CPUSubtype = 3

func rawCmd(cmd types.LoadCmd, size uint32, fill func([]byte)) []byte {
	b := make([]byte, size)
	binary.LittleEndian.PutUint32(b[0:4], uint32(cmd))
	binary.LittleEndian.PutUint32(b[4:8], size)
	if fill != nil {
		fill(b)
	}
	return b
}

func segment64Cmd(name string, vmaddr, vmsize, fileoff, filesize uint64) []byte {
	return rawCmd(types.LC_SEGMENT_64, segment64Size, func(b []byte) {
		copy(b[8:24], name)
		binary.LittleEndian.PutUint64(b[24:32], vmaddr)
		binary.LittleEndian.PutUint64(b[32:40], vmsize)
		binary.LittleEndian.PutUint64(b[40:48], fileoff)
		binary.LittleEndian.PutUint64(b[48:56], filesize)
	})
}

func symtab64Cmd(symoff, nsyms, stroff, strsize uint32) []byte {
	return rawCmd(types.LC_SYMTAB, symtabSize, func(b []byte) {
		binary.LittleEndian.PutUint32(b[8:12], symoff)
		binary.LittleEndian.PutUint32(b[12:16], nsyms)
		binary.LittleEndian.PutUint32(b[16:20], stroff)
		binary.LittleEndian.PutUint32(b[20:24], strsize)
	})
}

func codesigCmd(dataoff, datasize uint32) []byte {
	return rawCmd(types.LC_CODE_SIGNATURE, linkEditSize, func(b []byte) {
		binary.LittleEndian.PutUint32(b[8:12], dataoff)
		binary.LittleEndian.PutUint32(b[12:16], datasize)
	})
}

// thin64Bytes renders a complete thin slice: LE 64-bit header, the
// given load commands, then patterned body bytes out to total.
func thin64Bytes(cpu types.CPU, ftype types.HeaderFileType, total uint64, cmds [][]byte) []byte {
	var sizeofcmds uint32
	for _, c := range cmds {
		sizeofcmds += uint32(len(c))
	}
	buf := make([]byte, total)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(types.Magic64))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(cpu))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(testSubCPU))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(ftype))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(cmds)))
	binary.LittleEndian.PutUint32(buf[20:24], sizeofcmds)

	off := machHeaderSize64
	for _, c := range cmds {
		copy(buf[off:], c)
		off += len(c)
	}
	for i := off; i < int(total); i++ {
		buf[i] = byte(i*7 + 13)
	}
	return buf
}

func writeThin64(t *testing.T, path string, cpu types.CPU, ftype types.HeaderFileType, total uint64, cmds [][]byte) []byte {
	t.Helper()
	b := thin64Bytes(cpu, ftype, total, cmds)
	if err := os.WriteFile(path, b, 0644); err != nil {
		t.Fatal(err)
	}
	return b
}

// writeFat renders a fat container with the given entries, placing
// each slice's bytes at its entry offset.
func writeFat(t *testing.T, path string, entries []FatEntry, slices [][]byte) []byte {
	t.Helper()
	last := entries[len(entries)-1]
	buf := make([]byte, last.Offset+last.Size)
	binary.BigEndian.PutUint32(buf[0:4], uint32(types.MagicFat))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(entries)))
	for i, e := range entries {
		e.put(buf[fatHeaderSize+i*fatEntrySize:])
	}
	for i, s := range slices {
		copy(buf[entries[i].Offset:], s)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatal(err)
	}
	return buf
}

func readAll(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// checkModel asserts the container invariants that must hold after
// every operation: slice alignment and ordering, and per-slice
// load-command table consistency.
func checkModel(t *testing.T, c *Container) {
	t.Helper()
	for i, a := range c.Archs {
		if a.Entry.Offset%(1<<a.Entry.Align) != 0 {
			t.Errorf("arch %d: offset %#x not aligned to 2^%d", i, a.Entry.Offset, a.Entry.Align)
		}
		if a.Entry.Offset+a.Entry.Size > c.fileSize {
			t.Errorf("arch %d: slice [%#x,+%#x) overruns file size %#x", i, a.Entry.Offset, a.Entry.Size, c.fileSize)
		}
		if i > 0 {
			prev := c.Archs[i-1]
			if prev.Entry.Offset+prev.Entry.Size > a.Entry.Offset {
				t.Errorf("arch %d overlaps arch %d", i, i-1)
			}
		}

		if got := uint32(len(a.LoadCommands)); got != a.Header.NCommands {
			t.Errorf("arch %d: %d load commands but ncmds=%d", i, got, a.Header.NCommands)
		}
		var sum uint32
		cursor := int64(a.Entry.Offset) + a.Header.size()
		for j, lc := range a.LoadCommands {
			if lc.FileOffset != cursor {
				t.Errorf("arch %d lc %d: file offset %#x, want %#x", i, j, lc.FileOffset, cursor)
			}
			if int(lc.CmdSize) != len(lc.Payload) {
				t.Errorf("arch %d lc %d: cmdsize %d but payload is %d bytes", i, j, lc.CmdSize, len(lc.Payload))
			}
			cursor += int64(lc.CmdSize)
			sum += lc.CmdSize
		}
		if sum != a.Header.SizeCommands {
			t.Errorf("arch %d: cmdsize sum %d != sizeofcmds %d", i, sum, a.Header.SizeCommands)
		}
	}
}

// reopen re-parses the file at path, checking that the on-disk bytes
// still describe a well-formed container.
func reopen(t *testing.T, path string) *Container {
	t.Helper()
	c, err := Open(path)
	if err != nil {
		t.Fatalf("reopen %s: %v", path, err)
	}
	t.Cleanup(func() { c.Close() })
	checkModel(t, c)
	return c
}

func mustOpen(t *testing.T, path string) *Container {
	t.Helper()
	c, err := Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func assertKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	var e *Error
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if !errors.As(err, &e) || e.Kind != kind {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}

func assertBytes(t *testing.T, got, want []byte, what string) {
	t.Helper()
	if !bytes.Equal(got, want) {
		t.Fatalf("%s: bytes differ (got %d bytes, want %d)", what, len(got), len(want))
	}
}
