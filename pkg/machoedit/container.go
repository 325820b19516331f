package machoedit

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/go-macho-tools/machoedit/internal/magic"
	"github.com/go-macho-tools/machoedit/internal/rangeio"
)

var cpuColor = color.New(color.Bold).SprintFunc()
var typeColor = color.New(color.FgCyan).SprintFunc()
var offColor = color.New(color.Faint).SprintfFunc()
var sizeColor = color.New(color.FgMagenta).SprintFunc()

const maxFileSize = 1<<32 - 1

// Container is the top-level object: the open file, the fat/thin
// flag, the fat magic the container remembers even while thin, and
// the ordered list of Archs. All editing operations are methods on
// Container.
type Container struct {
	f        *os.File
	path     string
	fileSize uint64
	isFat    bool
	fatMagic uint32 // remembered even while thin, so MakeFat needs no policy choice
	Archs    []*Arch
}

// Open opens path for read-write editing and parses its structure.
func Open(path string) (*Container, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, newError(OpenFailed, path, err)
	}

	c, err := open(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

func open(f *os.File, path string) (*Container, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, newError(OpenFailed, "stat "+path, err)
	}
	size := uint64(info.Size())

	var magicBuf [4]byte
	if err := rangeio.ReadAt(f, magicBuf[:], 0); err != nil {
		return nil, newError(IOError, "read magic", err)
	}
	magic, ok := readMagic(magicBuf)
	if !ok {
		return nil, newError(UnknownMagic, fmt.Sprintf("unrecognized magic %08x", binary.BigEndian.Uint32(magicBuf[:])), nil)
	}
	if size > maxFileSize {
		return nil, newError(FileTooLarge, path, nil)
	}

	c := &Container{f: f, path: path, fileSize: size}

	switch {
	case isFatMagic(magic):
		c.isFat = true
		c.fatMagic = uint32(magic)
		if err := c.readFatArchs(size); err != nil {
			return nil, err
		}
	case isMachHeaderMagic(magic):
		c.isFat = false
		c.fatMagic = uint32(fatCigam)
		header, err := readHeaderAt(f, 0)
		if err != nil {
			return nil, err
		}
		entry := newSyntheticFatEntry(header, size)
		arch, err := newArch(f, entry)
		if err != nil {
			return nil, err
		}
		c.Archs = []*Arch{arch}
	default:
		return nil, newError(UnknownMagic, fmt.Sprintf("unrecognized magic %08x", uint32(magic)), nil)
	}

	return c, nil
}

func (c *Container) readFatArchs(size uint64) error {
	var fh [fatHeaderSize]byte
	if err := rangeio.ReadAt(c.f, fh[:], 0); err != nil {
		return newError(IOError, "read fat header", err)
	}
	nArch := binary.BigEndian.Uint32(fh[4:8])

	entries := make([]byte, int(nArch)*fatEntrySize)
	if err := rangeio.ReadAt(c.f, entries, fatHeaderSize); err != nil {
		return newError(IOError, "read fat entries", err)
	}

	for i := 0; i < int(nArch); i++ {
		entry := readFatEntry(entries[i*fatEntrySize:])
		if entry.Offset+entry.Size > size {
			return newError(MalformedSlice, "fat entry overruns file", nil)
		}
		arch, err := newArch(c.f, entry)
		if err != nil {
			return err
		}
		c.Archs = append(c.Archs, arch)
	}
	return nil
}

// Close releases the underlying file handle.
func (c *Container) Close() error {
	return c.f.Close()
}

// IsFat reports whether the container currently carries a fat
// wrapper.
func (c *Container) IsFat() bool {
	return c.isFat
}

// FileSize returns the container's current on-disk size.
func (c *Container) FileSize() uint64 {
	return c.fileSize
}

// Describe renders a human-readable summary: one line per slice with
// its architecture, file type, and size, plus its offset when the
// container is fat.
func (c *Container) Describe() string {
	if !c.isFat {
		a := c.Archs[0]
		return fmt.Sprintf("Thin mach-o binary:\n\t%s %s (%s)",
			cpuColor(magic.CPUName(a.Header.CPU)),
			typeColor(magic.FileTypeName(a.Header.Type)),
			sizeColor(humanize.Bytes(a.Entry.Size)))
	}
	s := fmt.Sprintf("Fat mach-o binary (%d slices):\n", len(c.Archs))
	for _, a := range c.Archs {
		s += fmt.Sprintf("\t%s %s %s size=%s\n",
			cpuColor(magic.CPUName(a.Header.CPU)),
			typeColor(magic.FileTypeName(a.Header.Type)),
			offColor("offset=%d", a.Entry.Offset),
			sizeColor(humanize.Bytes(a.Entry.Size)))
	}
	return s
}

// writeFatHeader writes the fat_header. Only meaningful when isFat.
func (c *Container) writeFatHeader() error {
	var buf [fatHeaderSize]byte
	binary.BigEndian.PutUint32(buf[0:4], c.fatMagic)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(c.Archs)))
	return rangeio.WriteAt(c.f, buf[:], 0)
}

// writeFatArchs writes every FatEntry (when fat) or enforces the thin
// invariant that the file size equals the sole Arch's size (when
// thin), then truncates to the authoritative end of content.
func (c *Container) writeFatArchs() error {
	if !c.isFat {
		a := c.Archs[0]
		if c.fileSize != a.Entry.Size {
			if err := rangeio.Truncate(c.f, int64(a.Entry.Size)); err != nil {
				return newError(IOError, "truncate thin file", err)
			}
			c.fileSize = a.Entry.Size
		}
		return nil
	}

	buf := make([]byte, len(c.Archs)*fatEntrySize)
	for i, a := range c.Archs {
		a.Entry.put(buf[i*fatEntrySize:])
	}
	if err := rangeio.WriteAt(c.f, buf, fatHeaderSize); err != nil {
		return newError(IOError, "write fat entries", err)
	}

	last := c.Archs[len(c.Archs)-1]
	newSize := last.Entry.Offset + last.Entry.Size
	if err := rangeio.Truncate(c.f, int64(newSize)); err != nil {
		return newError(IOError, "truncate", err)
	}
	c.fileSize = newSize
	return nil
}

// writeMachHeader writes a slice's Mach-O header back to disk.
func (c *Container) writeMachHeader(a *Arch) error {
	buf := make([]byte, a.Header.size())
	a.Header.put(buf)
	if err := rangeio.WriteAt(c.f, buf, int64(a.Entry.Offset)); err != nil {
		return newError(IOError, "write mach header", err)
	}
	return nil
}

// writeLoadCommand writes one load command's payload back to its
// recorded file offset.
func (c *Container) writeLoadCommand(lc *LoadCommand) error {
	if err := rangeio.WriteAt(c.f, lc.Payload, lc.FileOffset); err != nil {
		return newError(IOError, "write load command", err)
	}
	return nil
}

// MakeFat promotes a thin container to a fat one with its single
// slice unchanged save for its new offset.
func (c *Container) MakeFat() error {
	if c.isFat {
		return newError(InvalidArgument, "make_fat: container is already fat", nil)
	}
	a := c.Archs[0]
	headerReserve := roundUp(fatHeaderSize, 1<<a.Entry.Align)
	oldSize := c.fileSize
	newSize := oldSize + headerReserve

	if err := rangeio.Truncate(c.f, int64(newSize)); err != nil {
		return newError(IOError, "grow file", err)
	}
	if err := rangeio.MoveRange(c.f, int64(headerReserve), 0, int64(oldSize)); err != nil {
		return newError(IOError, "move slice content", err)
	}
	if err := rangeio.ZeroRange(c.f, 0, int64(headerReserve)); err != nil {
		return newError(IOError, "zero header gap", err)
	}

	c.fileSize = newSize
	c.isFat = true
	c.fatMagic = uint32(fatCigam)
	a.relocate(int64(headerReserve))

	if err := c.writeFatHeader(); err != nil {
		return err
	}
	return c.writeFatArchs()
}

// MakeThin demotes a fat container to a thin one holding only the
// i-th slice.
func (c *Container) MakeThin(i int) error {
	if !c.isFat {
		return newError(InvalidArgument, "make_thin: container is not fat", nil)
	}
	if i < 0 || i >= len(c.Archs) {
		return newError(InvalidArgument, "make_thin: index out of range", nil)
	}
	kept := c.Archs[i]

	if err := rangeio.MoveRange(c.f, 0, int64(kept.Entry.Offset), int64(kept.Entry.Size)); err != nil {
		return newError(IOError, "move slice content", err)
	}
	if err := rangeio.Truncate(c.f, int64(kept.Entry.Size)); err != nil {
		return newError(IOError, "truncate", err)
	}

	kept.relocate(-int64(kept.Entry.Offset))
	c.fileSize = kept.Entry.Size
	c.isFat = false
	c.Archs = []*Arch{kept}
	return nil
}

// SaveArchTo writes the i-th slice verbatim to a new file with owner
// read/write/execute permissions. It reports false, rather than an
// error, when the destination can't be opened or written.
func (c *Container) SaveArchTo(i int, path string) bool {
	if i < 0 || i >= len(c.Archs) {
		return false
	}
	a := c.Archs[i]
	dst, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0700)
	if err != nil {
		return false
	}
	defer dst.Close()

	if err := rangeio.CopyRange(dst, 0, c.f, int64(a.Entry.Offset), int64(a.Entry.Size)); err != nil {
		return false
	}
	return true
}
