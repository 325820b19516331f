// Package rangeio is the byte-I/O surface the editor core is built
// on: random-access read/write, truncate, zero-fill, and range moves
// and copies with overlap handled correctly. The core never touches
// an *os.File directly; it calls through this package so the move and
// copy primitives stay in one place.
package rangeio

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// ReadAt reads exactly len(p) bytes from f at off.
func ReadAt(f *os.File, p []byte, off int64) error {
	_, err := f.ReadAt(p, off)
	if err != nil {
		return errors.Wrap(err, "rangeio: read")
	}
	return nil
}

// WriteAt writes all of p to f at off.
func WriteAt(f *os.File, p []byte, off int64) error {
	_, err := f.WriteAt(p, off)
	if err != nil {
		return errors.Wrap(err, "rangeio: write")
	}
	return nil
}

// Truncate resizes f to size bytes. Pending writes are flushed first:
// a truncation finalizes the writes before it, never the other way
// around.
func Truncate(f *os.File, size int64) error {
	if err := f.Sync(); err != nil {
		return errors.Wrap(err, "rangeio: sync")
	}
	if err := f.Truncate(size); err != nil {
		return errors.Wrap(err, "rangeio: truncate")
	}
	return nil
}

// ZeroRange overwrites [off, off+length) with zero bytes.
func ZeroRange(f *os.File, off, length int64) error {
	if length <= 0 {
		return nil
	}
	const chunk = 64 * 1024
	buf := make([]byte, min64(chunk, length))
	for length > 0 {
		n := min64(int64(len(buf)), length)
		if _, err := f.WriteAt(buf[:n], off); err != nil {
			return errors.Wrap(err, "rangeio: zero")
		}
		off += n
		length -= n
	}
	return nil
}

// MoveRange moves length bytes from src to dst within f, correctly
// handling overlapping source and destination ranges.
func MoveRange(f *os.File, dst, src, length int64) error {
	if length <= 0 || dst == src {
		return nil
	}
	const chunk = 64 * 1024
	buf := make([]byte, min64(chunk, length))

	if dst < src {
		// Forward copy: ranges overlapping with dst < src never read
		// past what's already been relocated.
		remaining := length
		for remaining > 0 {
			n := min64(int64(len(buf)), remaining)
			if err := ReadAt(f, buf[:n], src); err != nil {
				return err
			}
			if err := WriteAt(f, buf[:n], dst); err != nil {
				return err
			}
			src += n
			dst += n
			remaining -= n
		}
		return nil
	}

	// dst > src: copy back to front so the advancing write never
	// clobbers bytes the next chunk still needs to read.
	remaining := length
	for remaining > 0 {
		n := min64(int64(len(buf)), remaining)
		srcOff := src + remaining - n
		dstOff := dst + remaining - n
		if err := ReadAt(f, buf[:n], srcOff); err != nil {
			return err
		}
		if err := WriteAt(f, buf[:n], dstOff); err != nil {
			return err
		}
		remaining -= n
	}
	return nil
}

// CopyRange copies length bytes from src (at offSrc in srcFile) to dst
// (at offDst in dstFile). srcFile and dstFile must not be the same
// underlying file; use MoveRange for that case.
func CopyRange(dstFile *os.File, offDst int64, srcFile *os.File, offSrc int64, length int64) error {
	sr := io.NewSectionReader(srcFile, offSrc, length)
	_, err := io.Copy(&sectionWriter{f: dstFile, off: offDst}, sr)
	if err != nil {
		return errors.Wrap(err, "rangeio: copy")
	}
	return nil
}

type sectionWriter struct {
	f   *os.File
	off int64
}

func (w *sectionWriter) Write(p []byte) (int, error) {
	n, err := w.f.WriteAt(p, w.off)
	w.off += int64(n)
	return n, err
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
