package decompress

import (
	"encoding/binary"
	"fmt"

	"github.com/forensicskit/sfdb/pkg/sfdb/sfdberrors"
)

// LZNT1 decompresses a single LZNT1 chunk (MS-XCA §2.1), the codec carried
// by the MEMO (Vista) container. A "block" as produced by
// pkg/sfdb/container's Vista scan is exactly one LZNT1 chunk: a 2-byte
// header followed by (header&0x0FFF)+1 bytes of chunk data.
type LZNT1 struct{}

// chunkHeaderCompressedFlag marks bit 15 of the 2-byte chunk header; when
// clear, the chunk data is stored as literal bytes.
const chunkHeaderCompressedFlag = 0x8000

func (LZNT1) Decompress(input []byte, output []byte) (int, error) {
	if len(input) < 2 {
		return 0, fmt.Errorf("%w: LZNT1 chunk header truncated", sfdberrors.ErrDecompressionFailed)
	}

	header := binary.LittleEndian.Uint16(input[0:2])
	dataSize := int(header&0x0FFF) + 1
	compressed := header&chunkHeaderCompressedFlag != 0

	if 2+dataSize > len(input) {
		return 0, fmt.Errorf("%w: LZNT1 chunk data truncated (want %d have %d)", sfdberrors.ErrDecompressionFailed, dataSize, len(input)-2)
	}
	data := input[2 : 2+dataSize]

	if !compressed {
		return copy(output, data), nil
	}

	outPos := 0
	srcPos := 0
	for srcPos < len(data) && outPos < len(output) {
		flags := data[srcPos]
		srcPos++

		for bit := 0; bit < 8; bit++ {
			if srcPos >= len(data) || outPos >= len(output) {
				break
			}

			if flags&(1<<uint(bit)) == 0 {
				output[outPos] = data[srcPos]
				srcPos++
				outPos++
				continue
			}

			if srcPos+2 > len(data) {
				return outPos, fmt.Errorf("%w: LZNT1 match tag truncated", sfdberrors.ErrDecompressionFailed)
			}
			tag := binary.LittleEndian.Uint16(data[srcPos:])
			srcPos += 2

			// The offset/length split widens the length field (and
			// narrows the offset field) as the current chunk position
			// grows, so that small chunks get a larger addressable window
			// and large chunks get longer match runs.
			split := 12
			temp := outPos - 1
			for temp >= 0x10 {
				temp >>= 1
				split--
			}
			lengthBits := uint(16 - split)
			lengthMask := uint16(1<<lengthBits) - 1
			length := int(tag&lengthMask) + 3
			displacement := int(tag>>lengthBits) + 1

			if displacement > outPos {
				return outPos, fmt.Errorf("%w: LZNT1 back-reference displacement %d exceeds output position %d", sfdberrors.ErrDecompressionFailed, displacement, outPos)
			}
			for i := 0; i < length && outPos < len(output); i++ {
				output[outPos] = output[outPos-displacement]
				outPos++
			}
		}
	}

	return outPos, nil
}
