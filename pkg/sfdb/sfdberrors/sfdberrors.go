// Package sfdberrors defines the error taxonomy surfaced by every layer of
// the sfdb parser. Sentinel errors are used for conditions a caller can
// usefully branch on (errors.Is); everything else is wrapped with %w so the
// underlying cause is never discarded.
package sfdberrors

import "errors"

// InvalidData family: structural validation failures.
var (
	ErrBadSignature                  = errors.New("sfdb: bad container signature")
	ErrUnsupportedContainer          = errors.New("sfdb: unsupported container body")
	ErrZeroBlock                     = errors.New("sfdb: zero-length compressed block")
	ErrDecompressionSizeMismatch     = errors.New("sfdb: decompressed size does not match block descriptor")
	ErrUnsupportedRecordSize         = errors.New("sfdb: unsupported record size")
	ErrUnsupportedDatabaseHeaderSize = errors.New("sfdb: unsupported database header size")
	ErrInconsistentFileSize          = errors.New("sfdb: file size does not match header")
	ErrPathSizeExceedsMax            = errors.New("sfdb: path size exceeds maximum")
)

// ErrAborted indicates an external abort signal was observed.
var ErrAborted = errors.New("sfdb: aborted")

// ErrUnsupported indicates a recognised but intentionally unhandled shape.
// The parser itself does not return it: an AgAppLaunch.db header yields an
// unrecognized result with no error, and a Win8 (MAM) container body yields
// ErrUnsupportedContainer.
var ErrUnsupported = errors.New("sfdb: unsupported")

// ErrDecompressionFailed wraps a failure reported by an external decompressor.
var ErrDecompressionFailed = errors.New("sfdb: decompression failed")

// ErrOutOfBounds indicates a read was requested past the end of a ByteSource.
var ErrOutOfBounds = errors.New("sfdb: offset out of bounds")
