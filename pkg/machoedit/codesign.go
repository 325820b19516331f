package machoedit

import (
	"github.com/blacktop/go-macho/types"
)

// RemoveCodeSignature strips the code signature from a, repairing the
// __LINKEDIT segment and re-emitting the fat table so the shrunk slice
// stays consistent with the rest of the container. A slice that fails
// the structural preconditions is reported as false, not an error; the
// error return is reserved for I/O failures.
func (c *Container) RemoveCodeSignature(a *Arch) (bool, error) {
	csIdx := -1
	linkeditIdx := -1
	symtabIdx := -1

	for i, lc := range a.LoadCommands {
		switch lc.Cmd {
		case types.LC_CODE_SIGNATURE:
			if csIdx != -1 {
				return false, nil // more than one code-signature command
			}
			csIdx = i
		case types.LC_SEGMENT, types.LC_SEGMENT_64:
			seg := decodeSegment(lc.Payload, a.Header.Magic, lc.Cmd == types.LC_SEGMENT_64)
			if isLinkedit(seg.Name) {
				if linkeditIdx != -1 {
					return false, nil
				}
				linkeditIdx = i
			}
		case types.LC_SYMTAB:
			symtabIdx = i
		}
	}

	if csIdx == -1 || linkeditIdx == -1 {
		return false, nil
	}

	codesig := decodeLinkEditData(a.LoadCommands[csIdx].Payload, a.Header.Magic)
	if uint64(codesig.DataOff)+uint64(codesig.DataSize) != a.Entry.Size {
		return false, nil
	}

	segLC := a.LoadCommands[linkeditIdx]
	is64 := segLC.Cmd == types.LC_SEGMENT_64
	linkedit := decodeSegment(segLC.Payload, a.Header.Magic, is64)
	if linkedit.FileOff+linkedit.FileSz != a.Entry.Size {
		return false, nil
	}

	reduction := uint64(codesig.DataSize)
	if symtabIdx != -1 {
		symtab := decodeSymtab(a.LoadCommands[symtabIdx].Payload, a.Header.Magic)
		newSize := a.Entry.Size - reduction
		tailGap := int64(newSize) - int64(symtab.Stroff) - int64(symtab.Strsize)
		if tailGap >= 0 && tailGap <= 16 {
			reduction += uint64(tailGap)
		}
	}

	a.Entry.Size -= reduction

	linkedit.FileSz -= reduction
	linkedit.VMSz = roundUp(linkedit.FileSz, 0x1000)
	encodeSegment(segLC.Payload, a.Header.Magic, linkedit)
	a.LoadCommands[linkeditIdx] = segLC

	// Re-emit fat metadata first: the slice's Entry.Size already
	// reflects the shrink, and writeFatArchs truncates the file to the
	// new trailing offset, which must happen before the load-command
	// write below lands inside what's still a validly-sized slice.
	if err := c.writeFatArchs(); err != nil {
		return false, err
	}
	if err := c.writeLoadCommand(&a.LoadCommands[linkeditIdx]); err != nil {
		return false, err
	}
	if err := c.RemoveLoadCommand(a, csIdx); err != nil {
		return false, err
	}

	return true, nil
}
