package option

import (
	"sync/atomic"

	"github.com/forensicskit/sfdb/pkg/logging"
)

// OpenOptions configures a parse of a SuperFetch database.
type OpenOptions struct {
	// CacheCapacity bounds the number of decompressed blocks held resident
	// by the uncompressed-stream layer at once.
	CacheCapacity int
	// MaxRecordSize bounds any single record or path buffer the parser
	// will allocate.
	MaxRecordSize uint32
	// MaxStreamSize bounds the uncompressed size the parser will accept
	// for a single database stream.
	MaxStreamSize uint64
	// RequireKnownSignature rejects files whose container signature isn't
	// one of MEMO/MEM0/MAM, raw uncompressed files included, instead of
	// treating an unknown leading magic as a bad-signature error only when
	// the uncompressed fallback's own checks also fail.
	RequireKnownSignature bool
	// AbortSignal, when non-nil, is polled at the top of each record-loop
	// iteration and before each block decompression; when set, parsing
	// stops and returns sfdberrors.ErrAborted.
	AbortSignal *atomic.Bool
	// Logger receives structured trace output for each decompressed block
	// and a debug summary of the parse; individual records are not logged.
	Logger *logging.Logger
}

// OpenOption mutates an OpenOptions.
type OpenOption func(*OpenOptions)

// WithCacheCapacity overrides the default decompressed-block cache size.
func WithCacheCapacity(capacity int) OpenOption {
	return func(o *OpenOptions) {
		o.CacheCapacity = capacity
	}
}

// WithMaxRecordSize overrides the default per-record allocation cap.
func WithMaxRecordSize(max uint32) OpenOption {
	return func(o *OpenOptions) {
		o.MaxRecordSize = max
	}
}

// WithMaxStreamSize overrides the default per-stream allocation cap.
func WithMaxStreamSize(max uint64) OpenOption {
	return func(o *OpenOptions) {
		o.MaxStreamSize = max
	}
}

// WithRequireKnownSignature toggles strict container signature checking.
func WithRequireKnownSignature(require bool) OpenOption {
	return func(o *OpenOptions) {
		o.RequireKnownSignature = require
	}
}

// WithAbortSignal wires an external cancellation flag into the parse.
func WithAbortSignal(abort *atomic.Bool) OpenOption {
	return func(o *OpenOptions) {
		o.AbortSignal = abort
	}
}

// WithLogger sets the logger used while parsing.
func WithLogger(logger *logging.Logger) OpenOption {
	return func(o *OpenOptions) {
		o.Logger = logger
	}
}
