// Package decompress defines the external decompressor contract used by the
// uncompressed-stream layer (pkg/sfdb/stream) and provides the two codecs
// the SuperFetch container format actually carries: LZNT1 (Vista/MEMO) and
// LZXpress-Huffman (Windows 7/MEM0). Both are complex, independently
// specified algorithms (MS-XCA); this package treats them as self-contained
// collaborators behind one small interface, the way icza/mpq dispatches to
// a decompression routine selected by a compression-method tag.
package decompress

import (
	"fmt"

	"github.com/forensicskit/sfdb/pkg/sfdb/container"
	"github.com/forensicskit/sfdb/pkg/sfdb/sfdberrors"
)

// Decompressor expands a single compressed block. Implementations consume
// all of input or return an error, write at most len(output) bytes, and
// return the number of bytes actually produced.
type Decompressor interface {
	Decompress(input []byte, output []byte) (n int, err error)
}

// ForFileType returns the Decompressor appropriate for ft, or an error
// wrapping sfdberrors.ErrUnsupportedContainer if ft's block bodies are not
// decodable by this core (currently: Windows 8/MAM).
func ForFileType(ft container.FileType) (Decompressor, error) {
	switch ft {
	case container.CompressedVista:
		return LZNT1{}, nil
	case container.CompressedWindows7:
		return LZXpressHuffman{}, nil
	case container.CompressedWindows8:
		return nil, fmt.Errorf("%w: Windows 8 (MAM) block decompression", sfdberrors.ErrUnsupportedContainer)
	default:
		return nil, fmt.Errorf("%w: no decompressor for file type %v", sfdberrors.ErrUnsupportedContainer, ft)
	}
}
