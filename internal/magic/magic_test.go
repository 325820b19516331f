package magic

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blacktop/go-macho/types"
)

func TestIsMachO(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		bytes []byte
		want  bool
	}{
		{"thin 64-bit LE", []byte{0xcf, 0xfa, 0xed, 0xfe, 0, 0, 0, 0}, true},
		{"thin 32-bit LE", []byte{0xce, 0xfa, 0xed, 0xfe, 0, 0, 0, 0}, true},
		{"fat", []byte{0xca, 0xfe, 0xba, 0xbe, 0, 0, 0, 2}, true},
		{"elf", []byte{0x7f, 'E', 'L', 'F', 0, 0, 0, 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, tt.bytes, 0644); err != nil {
				t.Fatal(err)
			}
			got, err := IsMachO(path)
			if got != tt.want {
				t.Errorf("IsMachO = %v (%v), want %v", got, err, tt.want)
			}
		})
	}

	if ok, _ := IsMachO(filepath.Join(dir, "missing")); ok {
		t.Error("IsMachO reported true for a missing file")
	}
}

func TestCPUName(t *testing.T) {
	tests := []struct {
		cpu  types.CPU
		want string
	}{
		{types.CPUAmd64, "x86_64"},
		{types.CPUArm64, "arm64"},
		{types.CPUI386, "i386"},
	}
	for _, tt := range tests {
		if got := CPUName(tt.cpu); got != tt.want {
			t.Errorf("CPUName(%v) = %q, want %q", tt.cpu, got, tt.want)
		}
	}
}

func TestFileTypeName(t *testing.T) {
	tests := []struct {
		ftype types.HeaderFileType
		want  string
	}{
		{types.MH_EXECUTE, "Executable"},
		{types.MH_DYLIB, "Dylib"},
		{types.MH_OBJECT, "Object"},
	}
	for _, tt := range tests {
		if got := FileTypeName(tt.ftype); got != tt.want {
			t.Errorf("FileTypeName(%v) = %q, want %q", tt.ftype, got, tt.want)
		}
	}
}
