package record

import (
	"encoding/binary"
	"fmt"

	"github.com/forensicskit/sfdb/pkg/sfdb/consts"
	"github.com/forensicskit/sfdb/pkg/sfdb/sfdberrors"
	"github.com/forensicskit/sfdb/pkg/sfdb/stream"
)

// sourceLayout describes where a source record's interesting fields sit.
// The 60/88-byte variants carry a subrecord count; the 100/144-byte
// variants instead carry a 16-byte ASCII executable filename and are
// treated as having zero subrecords by this core. The filename offsets
// (44 and 72) come from agdb_source_information_100/144's field layout:
// name_hash/unknown fields up to but excluding prefetch_hash and its
// trailing unknown9 all precede executable_filename.
type sourceLayout struct {
	numberOfEntriesOffset int // -1 when this variant has no subrecord count
	filenameOffset        int // -1 when this variant has no executable filename
}

var sourceLayouts = map[uint32]sourceLayout{
	60:  {numberOfEntriesOffset: 8, filenameOffset: -1},
	88:  {numberOfEntriesOffset: 16, filenameOffset: -1},
	100: {numberOfEntriesOffset: -1, filenameOffset: 44},
	144: {numberOfEntriesOffset: -1, filenameOffset: 72},
}

// DecodeSource reads one source record and discards its type-2 subrecords.
func DecodeSource(s *stream.UncompressedStream, sourceRecordSize, subrecordType2Size, maxRecordSize uint32) (Source, error) {
	layout, ok := sourceLayouts[sourceRecordSize]
	if !ok {
		return Source{}, fmt.Errorf("%w: source record size %d", sfdberrors.ErrUnsupportedRecordSize, sourceRecordSize)
	}

	raw, err := s.ReadExact(int(sourceRecordSize))
	if err != nil {
		return Source{}, err
	}

	var src Source
	if layout.filenameOffset >= 0 {
		src.ExecutableFilename = decodeASCIIFixed(raw[layout.filenameOffset : layout.filenameOffset+consts.SourceExecutableFilenameSize])
	} else {
		src.NumberOfEntries = binary.LittleEndian.Uint32(raw[layout.numberOfEntriesOffset : layout.numberOfEntriesOffset+4])
	}

	if src.NumberOfEntries > 0 {
		discard := uint64(src.NumberOfEntries) * uint64(subrecordType2Size)
		if discard > uint64(maxRecordSize) {
			return Source{}, sfdberrors.ErrPathSizeExceedsMax
		}
		if _, err := s.ReadExact(int(discard)); err != nil {
			return Source{}, err
		}
	}

	return src, nil
}
