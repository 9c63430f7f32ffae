package record

import (
	"encoding/binary"
	"fmt"

	"github.com/forensicskit/sfdb/pkg/sfdb/consts"
	"github.com/forensicskit/sfdb/pkg/sfdb/sfdberrors"
	"github.com/forensicskit/sfdb/pkg/sfdb/stream"
)

// fileLayout describes where the four size-dependent fields of a file
// record sit, and the alignment the 32-bit/64-bit mode it belongs to uses.
type fileLayout struct {
	nameHashOffset      int
	numberOfEntriesOffset int
	flagsOffset         int
	pathNumCharsOffset  int
	alignment           uint64
}

var fileLayouts = map[uint32]fileLayout{
	36: {nameHashOffset: 4, numberOfEntriesOffset: 8, flagsOffset: 12, pathNumCharsOffset: 32, alignment: 4},
	52: {nameHashOffset: 4, numberOfEntriesOffset: 8, flagsOffset: 12, pathNumCharsOffset: 32, alignment: 4},
	56: {nameHashOffset: 4, numberOfEntriesOffset: 8, flagsOffset: 12, pathNumCharsOffset: 32, alignment: 4},
	72: {nameHashOffset: 4, numberOfEntriesOffset: 8, flagsOffset: 12, pathNumCharsOffset: 32, alignment: 4},
	64: {nameHashOffset: 8, numberOfEntriesOffset: 16, flagsOffset: 20, pathNumCharsOffset: 40, alignment: 8},
	88: {nameHashOffset: 8, numberOfEntriesOffset: 16, flagsOffset: 20, pathNumCharsOffset: 40, alignment: 8},
	112: {nameHashOffset: 8, numberOfEntriesOffset: 16, flagsOffset: 20, pathNumCharsOffset: 40, alignment: 8},
}

// DecodeFile reads one file record (fileRecordSize bytes), its trailing
// path, and discards its type-1 subrecords.
func DecodeFile(s *stream.UncompressedStream, fileRecordSize, subrecordType1Size, maxRecordSize uint32) (File, error) {
	layout, ok := fileLayouts[fileRecordSize]
	if !ok {
		return File{}, fmt.Errorf("%w: file record size %d", sfdberrors.ErrUnsupportedRecordSize, fileRecordSize)
	}
	if !consts.IsValidFileSubrecordType1Size(subrecordType1Size) {
		return File{}, fmt.Errorf("%w: file subrecord type-1 size %d", sfdberrors.ErrUnsupportedRecordSize, subrecordType1Size)
	}

	raw, err := s.ReadExact(int(fileRecordSize))
	if err != nil {
		return File{}, err
	}

	f := File{
		NameHash:        binary.LittleEndian.Uint32(raw[layout.nameHashOffset : layout.nameHashOffset+4]),
		NumberOfEntries: binary.LittleEndian.Uint32(raw[layout.numberOfEntriesOffset : layout.numberOfEntriesOffset+4]),
		Flags:           binary.LittleEndian.Uint32(raw[layout.flagsOffset : layout.flagsOffset+4]),
	}

	rawPathNumChars := binary.LittleEndian.Uint32(raw[layout.pathNumCharsOffset : layout.pathNumCharsOffset+4])
	pathSize := (rawPathNumChars>>2)*2 + 2

	if pathSize > 0 {
		if pathSize > maxRecordSize {
			return File{}, sfdberrors.ErrPathSizeExceedsMax
		}
		pathBytes, err := s.ReadExact(int(pathSize))
		if err != nil {
			return File{}, err
		}
		f.Path = decodeUTF16LE(pathBytes)
		if pathSize >= 2 {
			f.HashMismatch = PathHash(pathBytes[:pathSize-2]) != f.NameHash
		}
	}

	s.AlignTo(layout.alignment)

	if f.NumberOfEntries > 0 {
		discard := uint64(f.NumberOfEntries) * uint64(subrecordType1Size)
		if discard > uint64(maxRecordSize) {
			return File{}, sfdberrors.ErrPathSizeExceedsMax
		}
		if _, err := s.ReadExact(int(discard)); err != nil {
			return File{}, err
		}
	}

	return f, nil
}
