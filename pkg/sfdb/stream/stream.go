// Package stream implements the uncompressed-byte-stream abstraction that
// sits between the compressed-container layer (pkg/sfdb/container) and the
// structural parser (pkg/sfdb/database). It lazily decompresses blocks on
// demand, caches them in a bounded LRU, and serves arbitrary-offset reads
// across block boundaries.
package stream

import (
	"fmt"
	"sync/atomic"

	"github.com/forensicskit/sfdb/pkg/sfdb/bytesource"
	"github.com/forensicskit/sfdb/pkg/sfdb/consts"
	"github.com/forensicskit/sfdb/pkg/sfdb/container"
	"github.com/forensicskit/sfdb/pkg/sfdb/decompress"
	"github.com/forensicskit/sfdb/pkg/sfdb/sfdberrors"
	"github.com/forensicskit/sfdb/pkg/logging"
)

// UncompressedStream serves reads against the conceptual uncompressed
// concatenation of every block in a BlockIndex. For an Uncompressed
// container it degenerates to a thin pass-through over the underlying
// ByteSource.
type UncompressedStream struct {
	src     bytesource.ByteSource
	index   *container.BlockIndex
	codec   decompress.Decompressor // nil in pass-through mode
	cache   *blockCache
	offset  uint64
	abort   *atomic.Bool
	logger  *logging.Logger
	maxSize uint64
}

// Option configures a new UncompressedStream.
type Option func(*UncompressedStream)

// WithCacheCapacity overrides the default decompressed-block cache size.
func WithCacheCapacity(n int) Option {
	return func(s *UncompressedStream) { s.cache = newBlockCache(n) }
}

// WithMaxSize overrides the default cap on the uncompressed size a stream
// will accept.
func WithMaxSize(max uint64) Option {
	return func(s *UncompressedStream) { s.maxSize = max }
}

// WithAbortSignal wires in an external cancellation flag, polled before
// each block decompression.
func WithAbortSignal(abort *atomic.Bool) Option {
	return func(s *UncompressedStream) { s.abort = abort }
}

// WithLogger attaches a logger used for debug/trace-level tracing of block
// decompression.
func WithLogger(l *logging.Logger) Option {
	return func(s *UncompressedStream) { s.logger = l }
}

// New builds an UncompressedStream over src using the blocks described by
// index. For a compressed container it resolves the appropriate
// decompressor for index.Header.FileType; for Uncompressed it runs in
// pass-through mode.
func New(src bytesource.ByteSource, index *container.BlockIndex, opts ...Option) (*UncompressedStream, error) {
	s := &UncompressedStream{
		src:     src,
		index:   index,
		cache:   newBlockCache(consts.DefaultBlockCacheCapacity),
		logger:  logging.DefaultLogger(),
		maxSize: consts.MaxStreamSize,
	}

	if index.Header.FileType != container.Uncompressed {
		codec, err := decompress.ForFileType(index.Header.FileType)
		if err != nil {
			return nil, err
		}
		s.codec = codec
	}

	for _, opt := range opts {
		opt(s)
	}

	if index.UncompressedSize() > s.maxSize {
		return nil, fmt.Errorf("sfdb: uncompressed stream size %d exceeds maximum %d", index.UncompressedSize(), s.maxSize)
	}

	return s, nil
}

// Size returns the total number of uncompressed bytes available.
func (s *UncompressedStream) Size() uint64 {
	return s.index.UncompressedSize()
}

// Seek moves the stream's current logical offset.
func (s *UncompressedStream) Seek(offset uint64) {
	s.offset = offset
}

// Offset returns the stream's current logical offset.
func (s *UncompressedStream) Offset() uint64 {
	return s.offset
}

// Read fills buf starting at the current offset, advancing it by the number
// of bytes read, and returns that count. A short read (n < len(buf)) only
// occurs at end-of-stream.
func (s *UncompressedStream) Read(buf []byte) (int, error) {
	n, err := s.ReadAt(s.offset, buf)
	s.offset += uint64(n)
	return n, err
}

// ReadAt fills buf with bytes starting at the given uncompressed offset,
// without moving the stream's current offset.
func (s *UncompressedStream) ReadAt(offset uint64, buf []byte) (int, error) {
	if s.index.Header.FileType == container.Uncompressed {
		return s.src.ReadAt(offset, buf)
	}

	total := 0
	for total < len(buf) {
		if s.isAborted() {
			return total, sfdberrors.ErrAborted
		}

		blockIdx, ok := s.index.BlockContaining(offset)
		if !ok {
			// Past end-of-stream: short read.
			return total, nil
		}

		block, err := s.decompressedBlock(blockIdx)
		if err != nil {
			return total, err
		}

		start := s.index.Starts[blockIdx]
		withinBlock := offset - start
		if withinBlock > uint64(len(block)) {
			return total, nil
		}

		avail := uint64(len(block)) - withinBlock
		want := uint64(len(buf) - total)
		n := avail
		if want < n {
			n = want
		}

		copy(buf[total:total+int(n)], block[withinBlock:withinBlock+n])
		total += int(n)
		offset += n

		if n == 0 {
			break
		}
	}

	return total, nil
}

// ReadExact reads exactly n bytes from the current offset, advancing it, and
// fails with sfdberrors.ErrOutOfBounds on a short read. This is the access
// pattern the structural parser (pkg/sfdb/database, pkg/sfdb/record) uses
// throughout: every field and record width is known up front, so any read
// shorter than requested means the stream ended inside a structure that
// should have kept going.
func (s *UncompressedStream) ReadExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := s.Read(buf)
	if err != nil {
		return nil, err
	}
	if got != n {
		return nil, fmt.Errorf("%w: wanted %d bytes at offset %d, got %d", sfdberrors.ErrOutOfBounds, n, s.offset-uint64(got), got)
	}
	return buf, nil
}

// AlignTo advances the current offset up to the next multiple of alignment,
// skipping any padding bytes without reading them.
func (s *UncompressedStream) AlignTo(alignment uint64) {
	s.offset = consts.AlignUp(s.offset, alignment)
}

func (s *UncompressedStream) isAborted() bool {
	return s.abort != nil && s.abort.Load()
}

// decompressedBlock returns the decompressed bytes for block blockIdx,
// decompressing and caching it on first access. A transient decompression
// failure does not poison the cache; a later request for the same block
// re-attempts decompression.
func (s *UncompressedStream) decompressedBlock(blockIdx int) ([]byte, error) {
	if cached, ok := s.cache.get(blockIdx); ok {
		return cached, nil
	}

	desc := s.index.Blocks[blockIdx]
	compressed := make([]byte, desc.CompressedSize)
	n, err := s.src.ReadAt(desc.CompressedOffset, compressed)
	if err != nil {
		return nil, err
	}
	if uint32(n) != desc.CompressedSize {
		return nil, fmt.Errorf("sfdb: short read of compressed block %d (want %d got %d)", blockIdx, desc.CompressedSize, n)
	}

	out := make([]byte, desc.UncompressedSize)
	produced, err := s.codec.Decompress(compressed, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sfdberrors.ErrDecompressionFailed, err)
	}
	if uint32(produced) != desc.UncompressedSize {
		return nil, fmt.Errorf("%w: block %d produced %d bytes, expected %d", sfdberrors.ErrDecompressionSizeMismatch, blockIdx, produced, desc.UncompressedSize)
	}

	s.logger.Trace("decompressed block", "index", blockIdx, "compressedSize", desc.CompressedSize, "uncompressedSize", desc.UncompressedSize)

	s.cache.put(blockIdx, out)
	return out, nil
}
