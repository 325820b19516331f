package machoedit

import (
	"github.com/blacktop/go-macho/types"

	"github.com/go-macho-tools/machoedit/internal/rangeio"
)

// MoveLoadCommand relocates the load command currently at index from to
// index to, sliding the intervening block in whichever direction
// closes the gap it leaves. The two directions are mirror images of
// each other, so move(i,j) followed by move(j,i) is a byte-for-byte
// inverse.
func (c *Container) MoveLoadCommand(a *Arch, from, to int) error {
	n := len(a.LoadCommands)
	if from < 0 || from >= n || to < 0 || to >= n {
		return newError(InvalidArgument, "move_load_command: index out of range", nil)
	}
	if from == to {
		return nil
	}

	cmds := a.LoadCommands
	if from < to {
		// Moved command slides to the trailing position; the block
		// [from+1, to] shifts left by one into [from, to-1].
		moved := cmds[from]
		cursor := moved.FileOffset
		for i := from + 1; i <= to; i++ {
			lc := &cmds[i]
			lc.FileOffset = cursor
			if err := c.writeLoadCommand(lc); err != nil {
				return err
			}
			cursor += int64(lc.CmdSize)
		}
		moved.FileOffset = cursor
		if err := c.writeLoadCommand(&moved); err != nil {
			return err
		}
		copy(cmds[from:to], cmds[from+1:to+1])
		cmds[to] = moved
		return nil
	}

	// from > to: moved command slides to the leading position it takes
	// over; the block [to, from-1] shifts right by one into [to+1, from].
	moved := cmds[from]
	moved.FileOffset = cmds[to].FileOffset
	if err := c.writeLoadCommand(&moved); err != nil {
		return err
	}
	cursor := moved.FileOffset + int64(moved.CmdSize)
	for i := to; i <= from-1; i++ {
		lc := &cmds[i]
		lc.FileOffset = cursor
		if err := c.writeLoadCommand(lc); err != nil {
			return err
		}
		cursor += int64(lc.CmdSize)
	}
	copy(cmds[to+1:from+1], cmds[to:from])
	cmds[to] = moved
	return nil
}

// RemoveLoadCommand deletes the load command at index i, zeroing the
// vacated file range. The slice's size is unchanged; the freed bytes
// stay inside it as zeroed padding.
func (c *Container) RemoveLoadCommand(a *Arch, i int) error {
	if i < 0 || i >= len(a.LoadCommands) {
		return newError(InvalidArgument, "remove_load_command: index out of range", nil)
	}
	last := len(a.LoadCommands) - 1
	if last > 0 {
		if err := c.MoveLoadCommand(a, i, last); err != nil {
			return err
		}
	}

	removed := a.LoadCommands[last]
	a.Header.NCommands--
	a.Header.SizeCommands -= removed.CmdSize
	if err := c.writeMachHeader(a); err != nil {
		return err
	}
	if err := rangeio.ZeroRange(c.f, removed.FileOffset, int64(removed.CmdSize)); err != nil {
		return newError(IOError, "zero removed load command", err)
	}

	a.LoadCommands = a.LoadCommands[:last]
	return nil
}

// InsertLoadCommand appends a new load command built from raw payload
// bytes to a's load-command table. The insertion point is just past
// the last existing command, or just past the header when the slice
// carries none yet. Returns NoRoomForCommand if the table would grow
// into the first segment with mapped file content.
func (c *Container) InsertLoadCommand(a *Arch, payload []byte) error {
	cmd, cmdsize := peekCmd(payload, a.Header.Magic)
	if int(cmdsize) != len(payload) {
		return newError(InvalidArgument, "insert_load_command: payload length does not match cmdsize", nil)
	}

	var offset int64
	if n := len(a.LoadCommands); n > 0 {
		last := a.LoadCommands[n-1]
		offset = last.FileOffset + int64(last.CmdSize)
	} else {
		offset = int64(a.Entry.Offset) + a.Header.size()
	}

	if firstOff, ok := a.firstSegmentFileOffset(); ok {
		if offset+int64(cmdsize) > int64(a.Entry.Offset)+int64(firstOff) {
			return newError(NoRoomForCommand, "insert_load_command: would overrun first mapped segment", nil)
		}
	}

	owned := append([]byte(nil), payload...)
	lc := LoadCommand{Cmd: cmd, CmdSize: cmdsize, FileOffset: offset, Payload: owned}
	if err := c.writeLoadCommand(&lc); err != nil {
		return err
	}

	a.Header.NCommands++
	a.Header.SizeCommands += cmdsize
	if err := c.writeMachHeader(a); err != nil {
		return err
	}

	a.LoadCommands = append(a.LoadCommands, lc)
	return nil
}

// firstSegmentFileOffset returns the lowest fileoff among a's segment
// load commands that maps file content (filesize > 0), relative to
// the slice's own start. A segment at fileoff 0 maps the header and
// the command table itself, so it does not bound the table; it is
// skipped. ok is false when no bounding segment exists.
func (a *Arch) firstSegmentFileOffset() (off uint64, ok bool) {
	for _, lc := range a.LoadCommands {
		if lc.Cmd != types.LC_SEGMENT && lc.Cmd != types.LC_SEGMENT_64 {
			continue
		}
		seg := decodeSegment(lc.Payload, a.Header.Magic, lc.Cmd == types.LC_SEGMENT_64)
		if seg.FileSz == 0 || seg.FileOff == 0 {
			continue
		}
		if !ok || seg.FileOff < off {
			off, ok = seg.FileOff, true
		}
	}
	return off, ok
}

// ChangeFileType sets a's Mach-O file type and writes the header back.
func (c *Container) ChangeFileType(a *Arch, t types.HeaderFileType) error {
	a.Header.Type = t
	return c.writeMachHeader(a)
}
