package machoedit

import (
	"path/filepath"
	"testing"

	"github.com/blacktop/go-macho/types"
)

func twoSliceFat(t *testing.T, path string) (x86, arm []byte) {
	t.Helper()
	x86 = thin64Bytes(types.CPUAmd64, types.MH_EXECUTE, 16384, [][]byte{
		rawCmd(types.LoadCmd(0x26), 24, nil),
	})
	arm = thin64Bytes(types.CPUArm64, types.MH_EXECUTE, 16384, [][]byte{
		rawCmd(types.LoadCmd(0x29), 16, nil),
	})
	writeFat(t, path,
		[]FatEntry{
			{CPU: types.CPUAmd64, SubCPU: testSubCPU, Offset: 16384, Size: 16384, Align: 14},
			{CPU: types.CPUArm64, SubCPU: testSubCPU, Offset: 32768, Size: 16384, Align: 14},
		},
		[][]byte{x86, arm})
	return x86, arm
}

func TestRemoveArchFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fat")
	_, arm := twoSliceFat(t, path)

	c := mustOpen(t, path)
	if err := c.RemoveArch(0); err != nil {
		t.Fatal(err)
	}
	checkModel(t, c)

	if len(c.Archs) != 1 {
		t.Fatalf("arch count = %d, want 1", len(c.Archs))
	}
	// survivor repacks to round_up(sizeof(fat_header), 2^14) == 16384
	a := c.Archs[0]
	if a.Entry.Offset != 16384 {
		t.Errorf("survivor offset = %d, want 16384", a.Entry.Offset)
	}
	if c.fileSize != 32768 {
		t.Errorf("file size = %d, want 32768", c.fileSize)
	}

	got := readAll(t, path)
	assertBytes(t, got[16384:32768], arm, "survivor content after repack")

	rc := reopen(t, path)
	if rc.Archs[0].Header.CPU != types.CPUArm64 {
		t.Errorf("survivor cpu = %v, want arm64", rc.Archs[0].Header.CPU)
	}
}

func TestRemoveArchLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fat")
	x86, _ := twoSliceFat(t, path)

	c := mustOpen(t, path)
	if err := c.RemoveArch(1); err != nil {
		t.Fatal(err)
	}
	checkModel(t, c)

	a := c.Archs[0]
	if a.Entry.Offset != 16384 {
		t.Errorf("survivor offset = %d, want 16384", a.Entry.Offset)
	}
	if c.fileSize != 32768 {
		t.Errorf("file size = %d, want 32768", c.fileSize)
	}
	assertBytes(t, readAll(t, path)[16384:], x86, "survivor content")

	reopen(t, path)
}

func TestRemoveArchErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fat")
	twoSliceFat(t, path)

	c := mustOpen(t, path)
	assertKind(t, c.RemoveArch(2), InvalidArgument)
	assertKind(t, c.RemoveArch(-1), InvalidArgument)

	if err := c.RemoveArch(0); err != nil {
		t.Fatal(err)
	}
	assertKind(t, c.RemoveArch(0), InvalidArgument) // sole slice
}

func TestInsertArchFrom(t *testing.T) {
	dir := t.TempDir()

	dstPath := filepath.Join(dir, "dst")
	writeThin64(t, dstPath, types.CPUAmd64, types.MH_EXECUTE, 16384, [][]byte{
		rawCmd(types.LoadCmd(0x26), 24, nil),
	})
	donorPath := filepath.Join(dir, "donor")
	donorBytes := writeThin64(t, donorPath, types.CPUArm64, types.MH_EXECUTE, 16384, [][]byte{
		rawCmd(types.LoadCmd(0x29), 16, nil),
	})

	donor := mustOpen(t, donorPath)
	c := mustOpen(t, dstPath)

	assertKind(t, c.InsertArchFrom(donor, 0), InvalidArgument) // must be fat first

	if err := c.MakeFat(); err != nil {
		t.Fatal(err)
	}
	if err := c.InsertArchFrom(donor, 0); err != nil {
		t.Fatal(err)
	}
	checkModel(t, c)

	if len(c.Archs) != 2 {
		t.Fatalf("arch count = %d, want 2", len(c.Archs))
	}
	// after promotion the file is 20480 bytes; the arm64 slice aligns
	// to its 16k page
	inserted := c.Archs[1]
	if inserted.Entry.Offset != 32768 {
		t.Errorf("inserted offset = %d, want 32768", inserted.Entry.Offset)
	}
	if c.fileSize != 32768+16384 {
		t.Errorf("file size = %d, want %d", c.fileSize, 32768+16384)
	}

	got := readAll(t, dstPath)
	assertBytes(t, got[32768:], donorBytes, "inserted slice content")
	for i := 20480; i < 32768; i++ {
		if got[i] != 0 {
			t.Fatalf("padding byte at %#x not zeroed", i)
		}
	}

	// donor must be untouched
	assertBytes(t, readAll(t, donorPath), donorBytes, "donor file")

	rc := reopen(t, dstPath)
	if rc.Archs[1].Header.CPU != types.CPUArm64 {
		t.Errorf("inserted cpu = %v, want arm64", rc.Archs[1].Header.CPU)
	}

	assertKind(t, c.InsertArchFrom(donor, 3), InvalidArgument)
}
