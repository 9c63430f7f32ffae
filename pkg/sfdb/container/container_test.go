package container

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forensicskit/sfdb/pkg/sfdb/bytesource"
	"github.com/forensicskit/sfdb/pkg/sfdb/consts"
	"github.com/forensicskit/sfdb/pkg/sfdb/sfdberrors"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func TestDecodeHeaderUncompressed(t *testing.T) {
	data := append(le32(0x0E), le32(64)...)
	data = append(data, make([]byte, 56)...) // pad to 64 total bytes

	src := bytesource.NewMemory(data)
	h, err := DecodeHeader(src, false)
	require.NoError(t, err)
	require.Equal(t, Uncompressed, h.FileType)
	require.Equal(t, uint32(64), h.UncompressedTotalSize)
}

func TestDecodeHeaderUncompressedSizeMismatch(t *testing.T) {
	data := append(le32(0x0E), le32(999)...)
	data = append(data, make([]byte, 8)...)

	_, err := DecodeHeader(bytesource.NewMemory(data), false)
	require.ErrorIs(t, err, sfdberrors.ErrBadSignature)
}

func TestDecodeHeaderBadMarker(t *testing.T) {
	data := append(le32(0xAB), le32(16)...)
	data = append(data, make([]byte, 8)...)

	_, err := DecodeHeader(bytesource.NewMemory(data), false)
	require.ErrorIs(t, err, sfdberrors.ErrBadSignature)
}

func TestDecodeHeaderRequireKnownSignatureRejectsUncompressed(t *testing.T) {
	data := append(le32(0x0E), le32(16)...)
	data = append(data, make([]byte, 8)...)

	_, err := DecodeHeader(bytesource.NewMemory(data), true)
	require.ErrorIs(t, err, sfdberrors.ErrBadSignature)
}

func TestDecodeHeaderVista(t *testing.T) {
	data := append([]byte("MEMO"), le32(100)...)
	src := bytesource.NewMemory(data)
	h, err := DecodeHeader(src, false)
	require.NoError(t, err)
	require.Equal(t, CompressedVista, h.FileType)
	require.Equal(t, uint32(consts.UncompressedBlockSizeVista), h.UncompressedBlockSize)
}

func TestScanBlocksVistaSingleBlock(t *testing.T) {
	header := append([]byte("MEMO"), le32(10)...)
	blockHeader := le16(3) // (3&0x0FFF)+3 == 6 byte compressed block
	blockData := []byte{0xAA, 0xAA, 0xAA, 0xAA}

	data := append(append([]byte{}, header...), blockHeader...)
	data = append(data, blockData...)

	src := bytesource.NewMemory(data)
	h, err := DecodeHeader(src, false)
	require.NoError(t, err)

	idx, err := ScanBlocks(src, h)
	require.NoError(t, err)
	require.Len(t, idx.Blocks, 1)
	require.Equal(t, uint64(8), idx.Blocks[0].CompressedOffset)
	require.Equal(t, uint32(6), idx.Blocks[0].CompressedSize)
	require.Equal(t, uint32(10), idx.Blocks[0].UncompressedSize)
	require.Equal(t, uint64(10), idx.UncompressedSize())
}

func TestScanBlocksWindows7SingleBlock(t *testing.T) {
	header := append([]byte("MEM0"), le32(5)...)
	length := le32(3)
	payload := []byte{1, 2, 3}

	data := append(append([]byte{}, header...), length...)
	data = append(data, payload...)

	src := bytesource.NewMemory(data)
	h, err := DecodeHeader(src, false)
	require.NoError(t, err)

	idx, err := ScanBlocks(src, h)
	require.NoError(t, err)
	require.Len(t, idx.Blocks, 1)
	require.Equal(t, uint64(12), idx.Blocks[0].CompressedOffset)
	require.Equal(t, uint32(3), idx.Blocks[0].CompressedSize)
	require.Equal(t, uint32(5), idx.Blocks[0].UncompressedSize)
}

func TestScanBlocksWindows7ZeroLengthBlock(t *testing.T) {
	header := append([]byte("MEM0"), le32(5)...)
	length := le32(0)

	data := append(append([]byte{}, header...), length...)

	src := bytesource.NewMemory(data)
	h, err := DecodeHeader(src, false)
	require.NoError(t, err)

	_, err = ScanBlocks(src, h)
	require.ErrorIs(t, err, sfdberrors.ErrZeroBlock)
}

func TestScanBlocksWindows8Unsupported(t *testing.T) {
	data := append([]byte{'M', 'A', 'M', 0x84}, make([]byte, 8)...)

	src := bytesource.NewMemory(data)
	h, err := DecodeHeader(src, false)
	require.NoError(t, err)
	require.Equal(t, CompressedWindows8, h.FileType)

	_, err = ScanBlocks(src, h)
	require.ErrorIs(t, err, sfdberrors.ErrUnsupportedContainer)
}

func TestBlockContainingOutOfRange(t *testing.T) {
	idx := &BlockIndex{Starts: []uint64{0, 5, 10}}
	_, ok := idx.BlockContaining(20)
	require.False(t, ok)

	i, ok := idx.BlockContaining(7)
	require.True(t, ok)
	require.Equal(t, 1, i)
}
