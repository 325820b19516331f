// Package cpuinfo supplies the one fact the editor core needs about a
// CPU family that isn't in the bytes it's editing: its conventional
// page size, used to pick a default slice alignment when a thin file
// is promoted to fat.
package cpuinfo

import "github.com/blacktop/go-macho/types"

// PageSize returns the conventional page size for cpu: 16384 for
// 64-bit ARM, 4096 for everything else in the pack this editor
// supports.
func PageSize(cpu types.CPU) uint64 {
	switch cpu {
	case types.CPUArm64:
		return 16384
	default:
		return 4096
	}
}
