// Package database implements the structural reader that sits on top of an
// uncompressed stream: the 12-byte file header, the variable-size database
// header, and the volumes/sources loops that drive the record decoders in
// pkg/sfdb/record.
package database

import (
	"encoding/binary"
	"fmt"

	"github.com/forensicskit/sfdb/pkg/sfdb/consts"
	"github.com/forensicskit/sfdb/pkg/sfdb/sfdberrors"
	"github.com/forensicskit/sfdb/pkg/sfdb/stream"
)

// FileHeader is the 12-byte header at uncompressed offset 0.
type FileHeader struct {
	Unknown1   uint32
	DataSize   uint32
	HeaderSize uint32
}

// Header is the decoded database header that follows the file header,
// carrying the record-size parameters every nested decoder needs.
type Header struct {
	DatabaseType          uint32
	VolumeRecordSize      uint32
	FileRecordSize        uint32
	SourceRecordSize      uint32
	FileSubrecordType1Size uint32
	FileSubrecordType2Size uint32
	NumberOfVolumes       uint32
	NumberOfFiles         uint32
	NumberOfSources       uint32
}

// decodeFileHeader reads and validates the 12-byte file header against the
// stream's total uncompressed size.
func decodeFileHeader(s *stream.UncompressedStream) (FileHeader, error) {
	raw, err := s.ReadExact(consts.FileHeaderSize)
	if err != nil {
		return FileHeader{}, err
	}

	fh := FileHeader{
		Unknown1:   binary.LittleEndian.Uint32(raw[0:4]),
		DataSize:   binary.LittleEndian.Uint32(raw[4:8]),
		HeaderSize: binary.LittleEndian.Uint32(raw[8:12]),
	}

	if uint64(fh.DataSize) != s.Size() {
		return FileHeader{}, fmt.Errorf("%w: data_size %d != uncompressed size %d", sfdberrors.ErrInconsistentFileSize, fh.DataSize, s.Size())
	}

	return fh, nil
}

// decodeHeader reads the database header payload (headerSize-12 bytes) at
// offset 12 and extracts the fields this core interprets. The 116- and
// 228-byte variants carry additional trailing fields (a time-value count
// and, for the 228-byte variant, 120 bytes of time-value data); this core
// skips them without interpretation, as spec'd.
func decodeHeader(s *stream.UncompressedStream, fh FileHeader) (Header, error) {
	if fh.HeaderSize < consts.FileHeaderSize {
		return Header{}, fmt.Errorf("%w: header_size %d shorter than file header", sfdberrors.ErrUnsupportedDatabaseHeaderSize, fh.HeaderSize)
	}
	payloadSize := fh.HeaderSize - consts.FileHeaderSize
	if !consts.IsValidDatabaseHeaderSize(payloadSize) {
		return Header{}, fmt.Errorf("%w: database header payload size %d", sfdberrors.ErrUnsupportedDatabaseHeaderSize, payloadSize)
	}

	raw, err := s.ReadExact(int(payloadSize))
	if err != nil {
		return Header{}, err
	}

	var params [9]uint32
	for i := range params {
		params[i] = binary.LittleEndian.Uint32(raw[4+4*i : 8+4*i])
	}

	h := Header{
		DatabaseType:           binary.LittleEndian.Uint32(raw[0:4]),
		VolumeRecordSize:       params[0],
		FileRecordSize:         params[1],
		SourceRecordSize:       params[2],
		FileSubrecordType1Size: params[3],
		FileSubrecordType2Size: params[4],
		NumberOfVolumes:        binary.LittleEndian.Uint32(raw[40:44]),
		NumberOfFiles:          binary.LittleEndian.Uint32(raw[44:48]),
		NumberOfSources:        binary.LittleEndian.Uint32(raw[52:56]),
	}

	if !consts.IsValidVolumeRecordSize(h.VolumeRecordSize) {
		return Header{}, fmt.Errorf("%w: volume_record_size %d", sfdberrors.ErrUnsupportedRecordSize, h.VolumeRecordSize)
	}
	if !consts.IsValidFileRecordSize(h.FileRecordSize) {
		return Header{}, fmt.Errorf("%w: file_record_size %d", sfdberrors.ErrUnsupportedRecordSize, h.FileRecordSize)
	}
	if !consts.IsValidSourceRecordSize(h.SourceRecordSize) {
		return Header{}, fmt.Errorf("%w: source_record_size %d", sfdberrors.ErrUnsupportedRecordSize, h.SourceRecordSize)
	}
	if !consts.IsValidFileSubrecordType1Size(h.FileSubrecordType1Size) {
		return Header{}, fmt.Errorf("%w: file_subrecord_type1_size %d", sfdberrors.ErrUnsupportedRecordSize, h.FileSubrecordType1Size)
	}
	if !consts.IsValidFileSubrecordType2Size(h.FileSubrecordType2Size) {
		return Header{}, fmt.Errorf("%w: file_subrecord_type2_size %d", sfdberrors.ErrUnsupportedRecordSize, h.FileSubrecordType2Size)
	}

	return h, nil
}
