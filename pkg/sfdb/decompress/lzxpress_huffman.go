package decompress

import (
	"encoding/binary"
	"fmt"

	"github.com/forensicskit/sfdb/pkg/sfdb/sfdberrors"
)

// LZXpressHuffman decompresses a single block using the LZXpress-Huffman
// codec (MS-XCA §2.2), the variant carried by the MEM0 (Windows 7)
// container. The bit-reader shape here (a 32-bit accumulator refilled from
// little-endian 16-bit words) is the same style the go-winio LZX
// decompressor uses for the related Microsoft LZX codec.
type LZXpressHuffman struct{}

const (
	huffmanTableSize   = 256 // bytes on disk: 512 four-bit code lengths
	huffmanSymbolCount = 512
	huffmanMaxCodeLen  = 15
)

func (LZXpressHuffman) Decompress(input []byte, output []byte) (int, error) {
	if len(input) < huffmanTableSize {
		return 0, fmt.Errorf("%w: LZXpress-Huffman table truncated", sfdberrors.ErrDecompressionFailed)
	}

	lengths := make([]uint8, huffmanSymbolCount)
	for i := 0; i < huffmanTableSize; i++ {
		lengths[2*i] = input[i] & 0x0F
		lengths[2*i+1] = input[i] >> 4
	}

	table, err := buildHuffmanTable(lengths)
	if err != nil {
		return 0, err
	}

	br := newHuffmanBitReader(input[huffmanTableSize:])
	outPos := 0

	for outPos < len(output) {
		symbol, ok := table.decode(br)
		if !ok {
			// Out of bits with no further symbols to emit; the caller
			// validates the final outPos against the expected
			// uncompressed size.
			break
		}

		if symbol < 256 {
			output[outPos] = byte(symbol)
			outPos++
			continue
		}

		value := symbol - 256
		lengthNibble := value & 0x0F
		offsetBits := uint(value >> 4)

		length := int(lengthNibble)
		if length == 0x0F {
			extra, ok := br.getBits(8)
			if !ok {
				return outPos, fmt.Errorf("%w: LZXpress-Huffman extended length truncated", sfdberrors.ErrDecompressionFailed)
			}
			length += int(extra)
			if length == 0x0F+0xFF {
				wide, ok := br.getBits(16)
				if !ok {
					return outPos, fmt.Errorf("%w: LZXpress-Huffman 16-bit length truncated", sfdberrors.ErrDecompressionFailed)
				}
				length = int(wide)
			} else {
				length += 3
			}
		} else {
			length += 3
		}

		var offset int
		if offsetBits == 0 {
			offset = 1
		} else {
			extra, ok := br.getBits(offsetBits)
			if !ok {
				return outPos, fmt.Errorf("%w: LZXpress-Huffman offset bits truncated", sfdberrors.ErrDecompressionFailed)
			}
			offset = (1 << offsetBits) | int(extra)
		}

		if offset > outPos {
			return outPos, fmt.Errorf("%w: LZXpress-Huffman back-reference offset %d exceeds output position %d", sfdberrors.ErrDecompressionFailed, offset, outPos)
		}
		for i := 0; i < length && outPos < len(output); i++ {
			output[outPos] = output[outPos-offset]
			outPos++
		}
	}

	return outPos, nil
}

// huffmanBitReader pulls bits MSB-first out of a sequence of little-endian
// 16-bit words, the bit order LZXpress-Huffman streams are packed in.
type huffmanBitReader struct {
	data  []byte
	pos   int
	acc   uint32
	nbits uint
}

func newHuffmanBitReader(data []byte) *huffmanBitReader {
	return &huffmanBitReader{data: data}
}

func (r *huffmanBitReader) refill() {
	for r.nbits <= 16 && r.pos+2 <= len(r.data) {
		word := binary.LittleEndian.Uint16(r.data[r.pos:])
		r.pos += 2
		r.acc |= uint32(word) << (16 - r.nbits)
		r.nbits += 16
	}
}

// peekBits returns the next n bits (n <= 16) without consuming them. ok is
// false if fewer than n bits remain in the stream.
func (r *huffmanBitReader) peekBits(n uint) (uint16, bool) {
	r.refill()
	if r.nbits < n {
		return 0, false
	}
	return uint16(r.acc >> (32 - n)), true
}

func (r *huffmanBitReader) consume(n uint) {
	r.acc <<= n
	r.nbits -= n
}

func (r *huffmanBitReader) getBits(n uint) (uint16, bool) {
	v, ok := r.peekBits(n)
	if !ok {
		return 0, false
	}
	r.consume(n)
	return v, true
}

// huffmanTable is a flat 2^huffmanMaxCodeLen-entry decode table: indexing it
// by the next huffmanMaxCodeLen bits of the stream yields the symbol and the
// true code length in one lookup, the classic fast canonical-Huffman decode
// technique (the same one compress/flate's inflate tables use).
type huffmanTable struct {
	symbol [1 << huffmanMaxCodeLen]uint16
	length [1 << huffmanMaxCodeLen]uint8
}

func buildHuffmanTable(lengths []uint8) (*huffmanTable, error) {
	var countPerLength [huffmanMaxCodeLen + 1]int
	for _, l := range lengths {
		if l > huffmanMaxCodeLen {
			return nil, fmt.Errorf("%w: LZXpress-Huffman code length %d exceeds %d", sfdberrors.ErrDecompressionFailed, l, huffmanMaxCodeLen)
		}
		countPerLength[l]++
	}

	var firstCode [huffmanMaxCodeLen + 2]uint32
	code := uint32(0)
	for l := 1; l <= huffmanMaxCodeLen; l++ {
		code = (code + uint32(countPerLength[l-1])) << 1
		firstCode[l] = code
	}

	t := &huffmanTable{}
	nextCode := firstCode

	for symbol, l := range lengths {
		if l == 0 {
			continue
		}
		c := nextCode[l]
		nextCode[l]++

		// Left-justify the code within huffmanMaxCodeLen bits and fill
		// every table entry whose top l bits match it.
		shift := uint(huffmanMaxCodeLen) - uint(l)
		base := uint16(c) << shift
		count := 1 << shift
		for i := 0; i < count; i++ {
			idx := base | uint16(i)
			t.symbol[idx] = uint16(symbol)
			t.length[idx] = l
		}
	}

	return t, nil
}

func (t *huffmanTable) decode(r *huffmanBitReader) (int, bool) {
	bits, ok := r.peekBits(huffmanMaxCodeLen)
	if !ok {
		// Fewer than huffmanMaxCodeLen bits may remain at the tail of a
		// block; pad with zero bits and try to decode what's left.
		remaining := r.nbits
		if remaining == 0 {
			return 0, false
		}
		padded, _ := r.peekBits(remaining)
		bits = padded << (huffmanMaxCodeLen - remaining)
	}

	l := t.length[bits]
	if l == 0 || uint(l) > r.nbits {
		return 0, false
	}
	r.consume(uint(l))
	return int(t.symbol[bits]), true
}
