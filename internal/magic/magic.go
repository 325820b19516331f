// Package magic is the description-formatter's name-lookup
// collaborator: cputype/filetype values to human-readable strings,
// and a standalone IsMachO sniff usable before opening a container for
// editing. It has no magic-to-name lookup.
package magic

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/blacktop/go-macho/types"
)

// Magic mirrors the four recognized Mach-O/fat magics for callers that
// only want a quick sniff, without pulling in the editor core.
type Magic uint32

const (
	Magic32    Magic = 0xfeedface
	Magic64    Magic = 0xfeedfacf
	MagicFatBE Magic = 0xcafebabe
	MagicFatLE Magic = 0xbebafeca
)

// recognized reports whether m is one of the four magics above.
func recognized(m Magic) bool {
	switch m {
	case Magic32, Magic64, MagicFatBE, MagicFatLE:
		return true
	}
	return false
}

// IsMachO reports whether filePath starts with a recognized Mach-O or
// fat magic.
func IsMachO(filePath string) (bool, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	var raw [4]byte
	if _, err := io.ReadFull(f, raw[:]); err != nil {
		return false, fmt.Errorf("failed to read magic: %w", err)
	}
	if m := Magic(binary.LittleEndian.Uint32(raw[:])); !recognized(m) {
		return false, fmt.Errorf("unrecognized magic %#08x", uint32(m))
	}
	return true, nil
}

// cpuNames gives the conventional lowercase architecture name
// `lipo`/`file` print, as opposed to go-macho/types' Go-style
// CPU.String() (e.g. "Amd64" rather than "x86_64").
var cpuNames = map[types.CPU]string{
	types.CPUI386:  "i386",
	types.CPUAmd64: "x86_64",
	types.CPUArm:   "arm",
	types.CPUArm64: "arm64",
	types.CPUPpc:   "ppc",
	types.CPUPpc64: "ppc64",
}

// CPUName returns the conventional architecture name for cpu, falling
// back to go-macho's own Stringer when cpu isn't in the table.
func CPUName(cpu types.CPU) string {
	if n, ok := cpuNames[cpu]; ok {
		return n
	}
	return cpu.String()
}

// FileTypeName returns the conventional Mach-O file type name.
func FileTypeName(t types.HeaderFileType) string {
	switch t {
	case types.MH_OBJECT:
		return "Object"
	case types.MH_EXECUTE:
		return "Executable"
	case types.MH_FVMLIB:
		return "FVMLib"
	case types.MH_CORE:
		return "Core"
	case types.MH_PRELOAD:
		return "Preload"
	case types.MH_DYLIB:
		return "Dylib"
	case types.MH_DYLINKER:
		return "Dylinker"
	case types.MH_BUNDLE:
		return "Bundle"
	case types.MH_DYLIB_STUB:
		return "DylibStub"
	case types.MH_DSYM:
		return "Dsym"
	case types.MH_KEXT_BUNDLE:
		return "KextBundle"
	default:
		return fmt.Sprintf("Unknown(%#x)", uint32(t))
	}
}
