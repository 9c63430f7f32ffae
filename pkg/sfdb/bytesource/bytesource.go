// Package bytesource abstracts random-access reads of the underlying
// artifact a SuperFetch database is parsed from, so the rest of the parser
// never depends on whether the bytes came from a file, a byte slice fed to
// a fuzzer, or anything else implementing io.ReaderAt.
package bytesource

import (
	"fmt"
	"io"
	"os"

	"github.com/forensicskit/sfdb/pkg/sfdb/sfdberrors"
)

// ByteSource supplies bytes from an underlying artifact. Implementations
// must be safe for use from a single goroutine; the parser never calls a
// ByteSource concurrently from more than one goroutine.
type ByteSource interface {
	// Size returns the total number of bytes available.
	Size() uint64

	// ReadAt fills buf with the bytes starting at offset, returning the
	// number of bytes actually read. A short read (n < len(buf)) is only
	// valid when it reaches the end of the source; callers treat any other
	// short read as a failure.
	ReadAt(offset uint64, buf []byte) (int, error)
}

// Memory is a ByteSource backed by an in-memory byte slice, used by tests
// and fuzz harnesses that want to exercise the parser without touching disk.
type Memory struct {
	data []byte
}

// NewMemory wraps data as a ByteSource. The slice is not copied; callers
// must not mutate it while the ByteSource is in use.
func NewMemory(data []byte) *Memory {
	return &Memory{data: data}
}

func (m *Memory) Size() uint64 {
	return uint64(len(m.data))
}

func (m *Memory) ReadAt(offset uint64, buf []byte) (int, error) {
	if offset > m.Size() {
		return 0, fmt.Errorf("%w: offset %d exceeds size %d", sfdberrors.ErrOutOfBounds, offset, m.Size())
	}
	n := copy(buf, m.data[offset:])
	return n, nil
}

// File is a ByteSource backed by an *os.File opened for reading.
type File struct {
	f    *os.File
	size uint64
}

// OpenFile opens path read-only and wraps it as a ByteSource.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sfdb: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sfdb: stat %s: %w", path, err)
	}
	return &File{f: f, size: uint64(info.Size())}, nil
}

func (f *File) Size() uint64 {
	return f.size
}

func (f *File) ReadAt(offset uint64, buf []byte) (int, error) {
	if offset > f.size {
		return 0, fmt.Errorf("%w: offset %d exceeds size %d", sfdberrors.ErrOutOfBounds, offset, f.size)
	}
	n, err := f.f.ReadAt(buf, int64(offset))
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("sfdb: read at %d: %w", offset, err)
	}
	return n, nil
}

// Close releases the underlying file descriptor.
func (f *File) Close() error {
	return f.f.Close()
}
