// Package container recognises the SuperFetch compressed-container format
// and walks its chain of variable-sized compressed blocks without
// decompressing any of them. It produces a BlockIndex that the stream layer
// (pkg/sfdb/stream) uses to serve arbitrary-offset reads of the conceptual
// uncompressed byte stream.
package container

import (
	"encoding/binary"
	"fmt"

	"github.com/forensicskit/sfdb/pkg/sfdb/bytesource"
	"github.com/forensicskit/sfdb/pkg/sfdb/consts"
	"github.com/forensicskit/sfdb/pkg/sfdb/sfdberrors"
)

// FileType classifies the compression scheme (if any) carried by a
// SuperFetch database file.
type FileType int

const (
	// Uncompressed means the file carries no compressed-block container;
	// the uncompressed stream is a pass-through over the byte source.
	Uncompressed FileType = iota
	// CompressedVista is the MEMO container: LZNT1, 4 KiB uncompressed blocks.
	CompressedVista
	// CompressedWindows7 is the MEM0 container: LZXpress-Huffman, 64 KiB blocks.
	CompressedWindows7
	// CompressedWindows8 is the MAM\x84 container: LZXpress-Huffman variant,
	// 64 KiB blocks. Decoding of Win8 block bodies is not required to
	// succeed; see ScanBlocks.
	CompressedWindows8
)

func (t FileType) String() string {
	switch t {
	case Uncompressed:
		return "uncompressed"
	case CompressedVista:
		return "compressed-vista"
	case CompressedWindows7:
		return "compressed-windows7"
	case CompressedWindows8:
		return "compressed-windows8"
	default:
		return fmt.Sprintf("filetype(%d)", int(t))
	}
}

// Header describes the 8-byte container header plus the derived total file
// and uncompressed sizes.
type Header struct {
	FileType               FileType
	FileSize               uint64
	UncompressedBlockSize   uint32
	UncompressedTotalSize   uint32
}

// BlockDescriptor locates a single compressed block within the underlying
// byte source and records how many uncompressed bytes it expands to.
type BlockDescriptor struct {
	CompressedOffset   uint64
	CompressedSize     uint32
	UncompressedSize   uint32
	IsCompressed       bool
}

// BlockIndex is the ordered sequence of block descriptors produced by
// scanning a compressed container, plus the cumulative uncompressed offset
// at which each block starts (parallel to Blocks, one longer, so that
// Starts[i+1]-Starts[i] == Blocks[i].UncompressedSize).
type BlockIndex struct {
	Header Header
	Blocks []BlockDescriptor
	Starts []uint64

	// TrailingBytes is the number of bytes after the last descriptor that
	// were not consumed by the scan. Debug-only per spec.md §4.2; never
	// invalidates the parse.
	TrailingBytes int64
}

// DecodeHeader reads and classifies the 8-byte container header from src.
// When requireKnownSignature is true, files lacking one of the MEMO/MEM0/MAM
// magic signatures are rejected outright instead of being given the chance
// to classify as the raw, uncompressed variant.
func DecodeHeader(src bytesource.ByteSource, requireKnownSignature bool) (Header, error) {
	var buf [8]byte
	n, err := src.ReadAt(0, buf[:])
	if err != nil {
		return Header{}, err
	}
	if n < 8 {
		return Header{}, fmt.Errorf("sfdb: file too short for container header (%d bytes)", n)
	}

	fileSize := src.Size()

	switch {
	case string(buf[0:4]) == consts.SignatureVista:
		return Header{
			FileType:              CompressedVista,
			FileSize:              fileSize,
			UncompressedBlockSize: consts.UncompressedBlockSizeVista,
			UncompressedTotalSize: binary.LittleEndian.Uint32(buf[4:8]),
		}, nil

	case string(buf[0:4]) == consts.SignatureWindows7:
		return Header{
			FileType:              CompressedWindows7,
			FileSize:              fileSize,
			UncompressedBlockSize: consts.UncompressedBlockSizeWindows7,
			UncompressedTotalSize: binary.LittleEndian.Uint32(buf[4:8]),
		}, nil

	case string(buf[0:3]) == consts.SignatureWindows8Lo && buf[3] == consts.Windows8Marker:
		return Header{
			FileType:              CompressedWindows8,
			FileSize:              fileSize,
			UncompressedBlockSize: consts.UncompressedBlockSizeWindows7,
			// The Win8 header only commits to 4 magic bytes; the
			// uncompressed total size for this variant is not decoded by
			// this core (block-body decompression is unsupported, see
			// ScanBlocks).
		}, nil

	default:
		if requireKnownSignature {
			return Header{}, fmt.Errorf("%w: no recognised MEMO/MEM0/MAM signature", sfdberrors.ErrBadSignature)
		}
		unknown1 := binary.LittleEndian.Uint32(buf[0:4])
		uncompressedTotalSize := binary.LittleEndian.Uint32(buf[4:8])
		if !consts.IsValidUncompressedMarker(unknown1) {
			return Header{}, fmt.Errorf("%w: unrecognised marker 0x%08x", sfdberrors.ErrBadSignature, unknown1)
		}
		if fileSize != uint64(uncompressedTotalSize) {
			return Header{}, fmt.Errorf("%w: file size %d != uncompressed total size %d", sfdberrors.ErrBadSignature, fileSize, uncompressedTotalSize)
		}
		return Header{
			FileType:              Uncompressed,
			FileSize:              fileSize,
			UncompressedBlockSize: 0,
			UncompressedTotalSize: uncompressedTotalSize,
		}, nil
	}
}

// ScanBlocks walks the chain of compressed blocks described by header,
// producing a BlockIndex without decompressing any block body.
func ScanBlocks(src bytesource.ByteSource, header Header) (*BlockIndex, error) {
	if header.FileType == Uncompressed {
		return &BlockIndex{
			Header: header,
			Blocks: nil,
			Starts: []uint64{0, uint64(header.UncompressedTotalSize)},
		}, nil
	}

	var offset uint64
	switch header.FileType {
	case CompressedVista, CompressedWindows7:
		offset = 8
	case CompressedWindows8:
		offset = 4
	}

	remaining := header.UncompressedTotalSize
	var blocks []BlockDescriptor
	var cumulative uint64
	starts := []uint64{0}

	for offset < header.FileSize {
		var compressedSize uint32
		blockOffset := offset

		switch header.FileType {
		case CompressedVista:
			var hbuf [2]byte
			if _, err := src.ReadAt(offset, hbuf[:]); err != nil {
				return nil, err
			}
			h := binary.LittleEndian.Uint16(hbuf[:])
			compressedSize = uint32(h&0x0FFF) + 3
			// The 2-byte header is part of the compressed payload; offset
			// is not advanced past it here.

		case CompressedWindows7:
			var hbuf [4]byte
			if _, err := src.ReadAt(offset, hbuf[:]); err != nil {
				return nil, err
			}
			compressedSize = binary.LittleEndian.Uint32(hbuf[:])
			offset += 4
			blockOffset = offset

		case CompressedWindows8:
			// The block-index walk for Win8 bodies is not implemented by
			// the source this format was ported from either; enumerating
			// blocks for this container requires knowledge this core does
			// not have. Report unsupported rather than guess a layout.
			return nil, fmt.Errorf("%w: MAM (Windows 8) block enumeration", sfdberrors.ErrUnsupportedContainer)
		}

		if compressedSize == 0 {
			return nil, sfdberrors.ErrZeroBlock
		}

		uncompressedSize := header.UncompressedBlockSize
		if remaining < uncompressedSize {
			uncompressedSize = remaining
		}

		blocks = append(blocks, BlockDescriptor{
			CompressedOffset: blockOffset,
			CompressedSize:   compressedSize,
			UncompressedSize: uncompressedSize,
			IsCompressed:     true,
		})

		cumulative += uint64(uncompressedSize)
		starts = append(starts, cumulative)

		offset = blockOffset + uint64(compressedSize)
		remaining -= uncompressedSize

		if remaining == 0 {
			break
		}
	}

	trailing := int64(header.FileSize) - int64(offset)

	return &BlockIndex{
		Header:        header,
		Blocks:        blocks,
		Starts:        starts,
		TrailingBytes: trailing,
	}, nil
}

// UncompressedSize is the total uncompressed byte count the index covers.
func (idx *BlockIndex) UncompressedSize() uint64 {
	if len(idx.Starts) == 0 {
		return 0
	}
	return idx.Starts[len(idx.Starts)-1]
}

// BlockContaining returns the index of the block whose uncompressed range
// contains offset, via binary search over the cumulative start offsets.
// It returns false if offset is at or beyond the end of the stream.
func (idx *BlockIndex) BlockContaining(offset uint64) (int, bool) {
	if offset >= idx.UncompressedSize() {
		return 0, false
	}
	lo, hi := 0, len(idx.Starts)-2
	for lo <= hi {
		mid := (lo + hi) / 2
		start := idx.Starts[mid]
		end := idx.Starts[mid+1]
		switch {
		case offset < start:
			hi = mid - 1
		case offset >= end:
			lo = mid + 1
		default:
			return mid, true
		}
	}
	return 0, false
}
