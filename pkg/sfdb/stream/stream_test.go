package stream

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forensicskit/sfdb/pkg/sfdb/bytesource"
	"github.com/forensicskit/sfdb/pkg/sfdb/consts"
	"github.com/forensicskit/sfdb/pkg/sfdb/container"
)

func TestUncompressedPassThrough(t *testing.T) {
	payload := []byte("the quick brown fox")
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], 0x0E)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(header)+len(payload)))

	data := append(header, payload...)
	src := bytesource.NewMemory(data)

	h, err := container.DecodeHeader(src, false)
	require.NoError(t, err)
	require.Equal(t, container.Uncompressed, h.FileType)

	idx, err := container.ScanBlocks(src, h)
	require.NoError(t, err)
	require.Equal(t, uint64(len(data)), idx.UncompressedSize())

	s, err := New(src, idx)
	require.NoError(t, err)

	buf := make([]byte, 5)
	n, err := s.ReadAt(uint64(len(header))+4, buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "quick", string(buf))
}

// lznt1UncompressedChunk builds one literal (uncompressed) LZNT1 chunk
// carrying payload, which must be at most 4096 bytes.
func lznt1UncompressedChunk(payload []byte) []byte {
	if len(payload) == 0 || len(payload) > 4096 {
		panic("lznt1UncompressedChunk: payload out of range")
	}
	header := make([]byte, 2)
	binary.LittleEndian.PutUint16(header, uint16(len(payload)-1)) // compressed flag clear
	return append(header, payload...)
}

func TestVistaStreamReadAcrossBlockBoundary(t *testing.T) {
	block1 := bytes.Repeat([]byte("A"), consts.UncompressedBlockSizeVista) // fills one whole block
	block2 := bytes.Repeat([]byte("B"), 10)

	total := uint32(len(block1) + len(block2))
	containerHeader := append([]byte("MEMO"), make([]byte, 4)...)
	binary.LittleEndian.PutUint32(containerHeader[4:8], total)

	data := append(append([]byte{}, containerHeader...), lznt1UncompressedChunk(block1)...)
	data = append(data, lznt1UncompressedChunk(block2)...)

	src := bytesource.NewMemory(data)
	h, err := container.DecodeHeader(src, false)
	require.NoError(t, err)
	require.Equal(t, container.CompressedVista, h.FileType)

	idx, err := container.ScanBlocks(src, h)
	require.NoError(t, err)
	require.Len(t, idx.Blocks, 2)
	require.Equal(t, uint64(total), idx.UncompressedSize())

	s, err := New(src, idx)
	require.NoError(t, err)

	buf := make([]byte, 10)
	offset := uint64(len(block1) - 6)
	n, err := s.ReadAt(offset, buf)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, "AAAAAABBBB", string(buf))
}

func TestStreamReadPastEndIsShortRead(t *testing.T) {
	payload := []byte("short")
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], 0x0E)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(header)+len(payload)))
	data := append(header, payload...)

	src := bytesource.NewMemory(data)
	h, err := container.DecodeHeader(src, false)
	require.NoError(t, err)
	idx, err := container.ScanBlocks(src, h)
	require.NoError(t, err)

	s, err := New(src, idx)
	require.NoError(t, err)

	buf := make([]byte, 20)
	n, err := s.ReadAt(uint64(len(data))-2, buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestStreamSequentialReadAdvancesOffset(t *testing.T) {
	payload := []byte("0123456789")
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], 0x0E)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(header)+len(payload)))
	data := append(header, payload...)

	src := bytesource.NewMemory(data)
	h, err := container.DecodeHeader(src, false)
	require.NoError(t, err)
	idx, err := container.ScanBlocks(src, h)
	require.NoError(t, err)

	s, err := New(src, idx)
	require.NoError(t, err)
	s.Seek(uint64(len(header)))

	buf := make([]byte, 4)
	n, err := s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, "0123", string(buf))

	n, err = s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, "4567", string(buf))
}
