package machoedit

import (
	"path/filepath"
	"testing"

	"github.com/blacktop/go-macho/types"
)

// signedCmds lays out the canonical signed-slice arrangement for a
// 16384-byte slice: __TEXT mapping the head, a trailing __LINKEDIT,
// a symbol table, and the signature as the final 4096 bytes.
func signedCmds(strsize uint32, withSymtab bool) [][]byte {
	cmds := [][]byte{
		segment64Cmd("__TEXT", 0x100000000, 0x2000, 0, 0x2000),
		segment64Cmd("__LINKEDIT", 0x100002000, 0x2000, 8192, 8192),
	}
	if withSymtab {
		cmds = append(cmds, symtab64Cmd(8192, 4, 8192, strsize))
	}
	return append(cmds, codesigCmd(12288, 4096))
}

func TestRemoveCodeSignature(t *testing.T) {
	tests := []struct {
		name          string
		strsize       uint32
		withSymtab    bool
		wantReduction uint64
	}{
		// string table ends exactly at the new slice end
		{"no tail gap", 4096, true, 4096},
		// 8 padding bytes between the string table and the new end
		// are absorbed into the cut
		{"tail gap absorbed", 4088, true, 4104},
		// a gap beyond the 16-byte tolerance is left in place
		{"tail gap too wide", 4000, true, 4096},
		{"no symtab", 0, false, 4096},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "signed")
			writeThin64(t, path, types.CPUAmd64, types.MH_EXECUTE, 16384, signedCmds(tt.strsize, tt.withSymtab))

			c := mustOpen(t, path)
			a := c.Archs[0]

			ok, err := c.RemoveCodeSignature(a)
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Fatal("RemoveCodeSignature returned false")
			}
			checkModel(t, c)

			wantSize := 16384 - tt.wantReduction
			if a.Entry.Size != wantSize {
				t.Errorf("slice size = %d, want %d", a.Entry.Size, wantSize)
			}
			if got := readAll(t, path); uint64(len(got)) != wantSize {
				t.Errorf("file size = %d, want %d", len(got), wantSize)
			}

			rc := reopen(t, path)
			ra := rc.Archs[0]
			var linkedit *segmentView
			for _, lc := range ra.LoadCommands {
				switch lc.Cmd {
				case types.LC_CODE_SIGNATURE:
					t.Error("signature command survived removal")
				case types.LC_SEGMENT_64:
					seg := decodeSegment(lc.Payload, ra.Header.Magic, true)
					if isLinkedit(seg.Name) {
						linkedit = &seg
					}
				}
			}
			if linkedit == nil {
				t.Fatal("__LINKEDIT lost during removal")
			}
			if linkedit.FileOff+linkedit.FileSz != ra.Entry.Size {
				t.Errorf("__LINKEDIT ends at %d, want slice end %d",
					linkedit.FileOff+linkedit.FileSz, ra.Entry.Size)
			}
			if want := roundUp(linkedit.FileSz, 0x1000); linkedit.VMSz != want {
				t.Errorf("__LINKEDIT vmsize = %d, want %d", linkedit.VMSz, want)
			}
		})
	}
}

func TestRemoveCodeSignatureNotRemovable(t *testing.T) {
	tests := []struct {
		name string
		cmds [][]byte
	}{
		{
			name: "no signature command",
			cmds: [][]byte{
				segment64Cmd("__TEXT", 0x100000000, 0x2000, 0, 0x2000),
				segment64Cmd("__LINKEDIT", 0x100002000, 0x2000, 8192, 8192),
			},
		},
		{
			name: "no __LINKEDIT segment",
			cmds: [][]byte{
				segment64Cmd("__TEXT", 0x100000000, 0x2000, 0, 0x2000),
				codesigCmd(12288, 4096),
			},
		},
		{
			name: "signature not trailing",
			cmds: [][]byte{
				segment64Cmd("__LINKEDIT", 0x100002000, 0x2000, 8192, 8192),
				codesigCmd(8192, 4096),
			},
		},
		{
			name: "__LINKEDIT not trailing",
			cmds: [][]byte{
				segment64Cmd("__LINKEDIT", 0x100002000, 0x2000, 8192, 4096),
				codesigCmd(12288, 4096),
			},
		},
		{
			name: "two signature commands",
			cmds: [][]byte{
				segment64Cmd("__LINKEDIT", 0x100002000, 0x2000, 8192, 8192),
				codesigCmd(12288, 4096),
				codesigCmd(12288, 4096),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "signed")
			orig := writeThin64(t, path, types.CPUAmd64, types.MH_EXECUTE, 16384, tt.cmds)

			c := mustOpen(t, path)
			ok, err := c.RemoveCodeSignature(c.Archs[0])
			if err != nil {
				t.Fatal(err)
			}
			if ok {
				t.Fatal("RemoveCodeSignature accepted a non-removable slice")
			}
			// a refused removal must not mutate the file
			assertBytes(t, readAll(t, path), orig, "file after refused removal")
		})
	}
}

func TestRemoveCodeSignatureFatSlice(t *testing.T) {
	slice := thin64Bytes(types.CPUArm64, types.MH_EXECUTE, 16384, signedCmds(4096, true))
	path := filepath.Join(t.TempDir(), "fat")
	writeFat(t, path,
		[]FatEntry{{CPU: types.CPUArm64, SubCPU: testSubCPU, Offset: 16384, Size: 16384, Align: 14}},
		[][]byte{slice})

	c := mustOpen(t, path)
	a := c.Archs[0]

	ok, err := c.RemoveCodeSignature(a)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("RemoveCodeSignature returned false")
	}
	checkModel(t, c)

	if a.Entry.Size != 12288 {
		t.Errorf("slice size = %d, want 12288", a.Entry.Size)
	}
	// the container truncates to last.offset + last.size
	if got := readAll(t, path); len(got) != 16384+12288 {
		t.Errorf("file size = %d, want %d", len(got), 16384+12288)
	}

	rc := reopen(t, path)
	for _, lc := range rc.Archs[0].LoadCommands {
		if lc.Cmd == types.LC_CODE_SIGNATURE {
			t.Error("signature command survived removal")
		}
	}
}
