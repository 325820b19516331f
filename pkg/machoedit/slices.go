package machoedit

import "github.com/go-macho-tools/machoedit/internal/rangeio"

// relocate shifts every recorded absolute offset in a by delta,
// keeping the in-memory model consistent with slice content that was
// moved wholesale on disk.
func (a *Arch) relocate(delta int64) {
	a.Entry.Offset = uint64(int64(a.Entry.Offset) + delta)
	for i := range a.LoadCommands {
		a.LoadCommands[i].FileOffset += delta
	}
}

// InsertArchFrom copies the i-th slice of other into c, appending it
// as c's new last Arch. c must already be fat; callers inserting into
// a thin file promote it with MakeFat first.
func (c *Container) InsertArchFrom(other *Container, i int) error {
	if !c.isFat {
		return newError(InvalidArgument, "insert_arch_from: receiving container is not fat", nil)
	}
	if i < 0 || i >= len(other.Archs) {
		return newError(InvalidArgument, "insert_arch_from: index out of range", nil)
	}
	if other.f == c.f {
		return newError(InvalidArgument, "insert_arch_from: source and destination are the same file", nil)
	}
	src := other.Archs[i]

	offset := roundUp(c.fileSize, 1<<src.Entry.Align)
	newSize := offset + src.Entry.Size

	if err := rangeio.Truncate(c.f, int64(newSize)); err != nil {
		return newError(IOError, "grow file", err)
	}
	if gap := int64(offset - c.fileSize); gap > 0 {
		if err := rangeio.ZeroRange(c.f, int64(c.fileSize), gap); err != nil {
			return newError(IOError, "zero padding", err)
		}
	}
	if err := rangeio.CopyRange(c.f, int64(offset), other.f, int64(src.Entry.Offset), int64(src.Entry.Size)); err != nil {
		return newError(IOError, "copy slice content", err)
	}
	c.fileSize = newSize

	cmds := make([]LoadCommand, len(src.LoadCommands))
	for j, lc := range src.LoadCommands {
		lc.Payload = append([]byte(nil), lc.Payload...)
		cmds[j] = lc
	}
	inserted := &Arch{
		Entry:        src.Entry,
		Header:       src.Header,
		LoadCommands: cmds,
	}
	inserted.relocate(int64(offset) - int64(src.Entry.Offset))
	c.Archs = append(c.Archs, inserted)

	if err := c.writeFatHeader(); err != nil {
		return err
	}
	return c.writeFatArchs()
}

// RemoveArch deletes the i-th slice and repacks the survivors to
// close the gap, re-aligning each to its own alignment requirement.
func (c *Container) RemoveArch(i int) error {
	if i < 0 || i >= len(c.Archs) {
		return newError(InvalidArgument, "remove_arch: index out of range", nil)
	}
	if len(c.Archs) == 1 {
		return newError(InvalidArgument, "remove_arch: cannot remove the only slice", nil)
	}
	removed := c.Archs[i]
	if err := rangeio.ZeroRange(c.f, int64(removed.Entry.Offset), int64(removed.Entry.Size)); err != nil {
		return newError(IOError, "zero removed slice", err)
	}

	var newOffset uint64
	if i == 0 {
		newOffset = fatHeaderSize
	} else {
		prev := c.Archs[i-1]
		newOffset = prev.Entry.Offset + prev.Entry.Size
	}

	c.Archs = append(c.Archs[:i], c.Archs[i+1:]...)

	for _, a := range c.Archs[i:] {
		aligned := roundUp(newOffset, 1<<a.Entry.Align)
		oldOffset := a.Entry.Offset

		if err := rangeio.MoveRange(c.f, int64(aligned), int64(oldOffset), int64(a.Entry.Size)); err != nil {
			return newError(IOError, "move slice content", err)
		}
		if tailGap := int64(oldOffset) - int64(aligned+a.Entry.Size); tailGap > 0 {
			if err := rangeio.ZeroRange(c.f, int64(aligned+a.Entry.Size), tailGap); err != nil {
				return newError(IOError, "zero tail gap", err)
			}
		}
		a.relocate(int64(aligned) - int64(oldOffset))
		newOffset = aligned + a.Entry.Size
	}

	if err := c.writeFatHeader(); err != nil {
		return err
	}
	return c.writeFatArchs()
}
