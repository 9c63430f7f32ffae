package record

import (
	"encoding/binary"
	"fmt"

	"github.com/forensicskit/sfdb/pkg/sfdb/sfdberrors"
	"github.com/forensicskit/sfdb/pkg/sfdb/stream"
)

// volumeLayout describes the size-dependent field offsets of a volume
// record. The 56-byte layout is given directly; the 72-byte layout widens
// unknown1/unknown2/unknown4/unknown6 to 8 bytes and inserts one extra
// 4-byte unknown8 slot before the device path fields, which is enough to
// pin down every offset this core actually reads.
type volumeLayout struct {
	numberOfFilesOffset      int
	creationTimeOffset       int
	serialNumberOffset       int
	devicePathNumCharsOffset int
	alignment                uint64
}

var volumeLayouts = map[uint32]volumeLayout{
	56: {numberOfFilesOffset: 8, creationTimeOffset: 24, serialNumberOffset: 32, devicePathNumCharsOffset: 44, alignment: 4},
	72: {numberOfFilesOffset: 16, creationTimeOffset: 32, serialNumberOffset: 40, devicePathNumCharsOffset: 60, alignment: 8},
}

// DecodeVolume reads one volume record, its device path, and then every
// nested file record the volume declares.
func DecodeVolume(s *stream.UncompressedStream, volumeRecordSize, fileRecordSize, subrecordType1Size, maxRecordSize uint32) (Volume, error) {
	layout, ok := volumeLayouts[volumeRecordSize]
	if !ok {
		return Volume{}, fmt.Errorf("%w: volume record size %d", sfdberrors.ErrUnsupportedRecordSize, volumeRecordSize)
	}

	raw, err := s.ReadExact(int(volumeRecordSize))
	if err != nil {
		return Volume{}, err
	}

	v := Volume{
		NumberOfFiles: binary.LittleEndian.Uint32(raw[layout.numberOfFilesOffset : layout.numberOfFilesOffset+4]),
		CreationTime:  binary.LittleEndian.Uint64(raw[layout.creationTimeOffset : layout.creationTimeOffset+8]),
		SerialNumber:  binary.LittleEndian.Uint32(raw[layout.serialNumberOffset : layout.serialNumberOffset+4]),
	}

	devicePathNumChars := binary.LittleEndian.Uint16(raw[layout.devicePathNumCharsOffset : layout.devicePathNumCharsOffset+2])
	if devicePathNumChars > 0 {
		devicePathByteSize := (uint32(devicePathNumChars) + 1) * 2
		if devicePathByteSize > maxRecordSize {
			return Volume{}, sfdberrors.ErrPathSizeExceedsMax
		}
		pathBytes, err := s.ReadExact(int(devicePathByteSize))
		if err != nil {
			return Volume{}, err
		}
		v.DevicePath = decodeUTF16LE(pathBytes)
		if devicePathByteSize >= 2 {
			v.HashMismatch = PathHash(pathBytes[:devicePathByteSize-2]) != v.SerialNumber
		}
	}

	s.AlignTo(layout.alignment)

	if v.NumberOfFiles > 0 {
		v.Files = make([]File, 0, v.NumberOfFiles)
		for i := uint32(0); i < v.NumberOfFiles; i++ {
			f, err := DecodeFile(s, fileRecordSize, subrecordType1Size, maxRecordSize)
			if err != nil {
				return Volume{}, fmt.Errorf("volume file %d: %w", i, err)
			}
			v.Files = append(v.Files, f)
		}
	}

	return v, nil
}
