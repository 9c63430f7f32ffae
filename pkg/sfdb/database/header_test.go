package database

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forensicskit/sfdb/pkg/sfdb/bytesource"
	"github.com/forensicskit/sfdb/pkg/sfdb/consts"
	"github.com/forensicskit/sfdb/pkg/sfdb/container"
	"github.com/forensicskit/sfdb/pkg/sfdb/sfdberrors"
	"github.com/forensicskit/sfdb/pkg/sfdb/stream"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// newUncompressedStream builds a pass-through stream directly over data,
// without going through container.DecodeHeader, for tests that only care
// about what comes after the file-header/database-header boundary.
func newUncompressedStream(t *testing.T, data []byte) *stream.UncompressedStream {
	t.Helper()
	idx := &container.BlockIndex{
		Header: container.Header{FileType: container.Uncompressed, UncompressedTotalSize: uint32(len(data))},
		Starts: []uint64{0, uint64(len(data))},
	}
	s, err := stream.New(bytesource.NewMemory(data), idx)
	require.NoError(t, err)
	return s
}

func TestDecodeFileHeaderEmptyDatabase(t *testing.T) {
	data := append(le32(0x0E), le32(72)...)
	data = append(data, le32(72)...) // header_size
	data = append(data, make([]byte, 60)...)

	fh, err := decodeFileHeader(newUncompressedStream(t, data))
	require.NoError(t, err)
	require.Equal(t, uint32(0x0E), fh.Unknown1)
	require.Equal(t, uint32(72), fh.HeaderSize)
}

func TestDecodeFileHeaderSizeMismatch(t *testing.T) {
	data := append(le32(0x0E), le32(999)...)
	data = append(data, le32(72)...)

	_, err := decodeFileHeader(newUncompressedStream(t, data))
	require.ErrorIs(t, err, sfdberrors.ErrInconsistentFileSize)
}

func TestDecodeHeaderRejectsBadPayloadSize(t *testing.T) {
	data := make([]byte, 40)
	s := newUncompressedStream(t, data)
	fh := FileHeader{Unknown1: 0x0E, DataSize: uint32(len(data)), HeaderSize: 40}

	_, err := decodeHeader(s, fh)
	require.ErrorIs(t, err, sfdberrors.ErrUnsupportedDatabaseHeaderSize)
}

func TestDecodeHeaderExtractsRecordSizes(t *testing.T) {
	payload := make([]byte, 60)
	binary.LittleEndian.PutUint32(payload[0:4], 1)    // database_type
	binary.LittleEndian.PutUint32(payload[4:8], 56)   // volume_record_size
	binary.LittleEndian.PutUint32(payload[8:12], 52)  // file_record_size
	binary.LittleEndian.PutUint32(payload[12:16], 60) // source_record_size
	binary.LittleEndian.PutUint32(payload[16:20], 16) // file_subrecord_type1_size
	binary.LittleEndian.PutUint32(payload[20:24], 20) // file_subrecord_type2_size
	binary.LittleEndian.PutUint32(payload[40:44], 2)  // number_of_volumes
	binary.LittleEndian.PutUint32(payload[52:56], 3)  // number_of_sources

	s := newUncompressedStream(t, payload)
	fh := FileHeader{Unknown1: 0x0E, DataSize: uint32(len(payload)), HeaderSize: consts.FileHeaderSize + 60}

	h, err := decodeHeader(s, fh)
	require.NoError(t, err)
	require.Equal(t, uint32(56), h.VolumeRecordSize)
	require.Equal(t, uint32(52), h.FileRecordSize)
	require.Equal(t, uint32(60), h.SourceRecordSize)
	require.Equal(t, uint32(16), h.FileSubrecordType1Size)
	require.Equal(t, uint32(20), h.FileSubrecordType2Size)
	require.Equal(t, uint32(2), h.NumberOfVolumes)
	require.Equal(t, uint32(3), h.NumberOfSources)
}
