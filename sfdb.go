// Package sfdb is a read-only parser for Windows SuperFetch database files
// (AgGlGlobalHistory.db, AgGlFaultHistory.db, and the recognised layout of
// AgAppLaunch.db's file header). It decodes the compressed-container framing
// (MEMO/MEM0/MAM, or a raw uncompressed file), then the structural content:
// volumes, the files each volume tracked, and top-level sources.
package sfdb

import (
	"sync/atomic"

	"github.com/forensicskit/sfdb/pkg/logging"
	"github.com/forensicskit/sfdb/pkg/option"
	"github.com/forensicskit/sfdb/pkg/sfdb/bytesource"
	"github.com/forensicskit/sfdb/pkg/sfdb/consts"
	"github.com/forensicskit/sfdb/pkg/sfdb/container"
	"github.com/forensicskit/sfdb/pkg/sfdb/database"
	"github.com/forensicskit/sfdb/pkg/sfdb/record"
	"github.com/forensicskit/sfdb/pkg/sfdb/stream"
)

// Re-export the option constructors so callers only need this package's
// import path for the common case.
var (
	WithCacheCapacity         = option.WithCacheCapacity
	WithMaxRecordSize         = option.WithMaxRecordSize
	WithMaxStreamSize         = option.WithMaxStreamSize
	WithRequireKnownSignature = option.WithRequireKnownSignature
	WithAbortSignal           = option.WithAbortSignal
	WithLogger                = option.WithLogger
)

// Option configures Open and Parse.
type Option = option.OpenOption

// Volume, File and Source mirror the record package's decoded shapes; they
// are aliased here so callers of this package never need to import
// pkg/sfdb/record directly.
type (
	Volume = record.Volume
	File   = record.File
	Source = record.Source
)

// Database is the fully decoded content of a SuperFetch database file.
type Database struct {
	// Recognized is false for file-header variants this core does not parse
	// further, such as the AgAppLaunch.db layout (file header unknown1 ==
	// 0x05). Volumes and Sources are empty in that case, and no error is
	// returned: the file was read successfully, it simply carries a layout
	// outside this core's scope.
	Recognized bool
	Volumes    []Volume
	Sources    []Source
}

func defaultOptions() option.OpenOptions {
	return option.OpenOptions{
		CacheCapacity: consts.DefaultBlockCacheCapacity,
		MaxRecordSize: consts.MaxRecordSize,
		MaxStreamSize: consts.MaxStreamSize,
		Logger:        logging.DefaultLogger(),
	}
}

// Parse decodes a SuperFetch database already held in memory.
func Parse(data []byte, opts ...Option) (Database, error) {
	return parse(bytesource.NewMemory(data), opts...)
}

// Open decodes a SuperFetch database file at path. The file is read via
// random-access os.File operations, never loaded wholesale into memory.
func Open(path string, opts ...Option) (Database, error) {
	src, err := bytesource.OpenFile(path)
	if err != nil {
		return Database{}, err
	}
	defer src.Close()

	return parse(src, opts...)
}

func parse(src bytesource.ByteSource, opts ...Option) (Database, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	hdr, err := container.DecodeHeader(src, cfg.RequireKnownSignature)
	if err != nil {
		return Database{}, err
	}

	idx, err := container.ScanBlocks(src, hdr)
	if err != nil {
		return Database{}, err
	}

	var abort *atomic.Bool
	if cfg.AbortSignal != nil {
		abort = cfg.AbortSignal
	} else {
		abort = new(atomic.Bool)
	}

	us, err := stream.New(src, idx,
		stream.WithCacheCapacity(cfg.CacheCapacity),
		stream.WithMaxSize(cfg.MaxStreamSize),
		stream.WithAbortSignal(abort),
		stream.WithLogger(cfg.Logger),
	)
	if err != nil {
		return Database{}, err
	}

	db, err := database.Read(us, database.Options{AbortSignal: abort, MaxRecordSize: cfg.MaxRecordSize})
	if err != nil {
		return Database{}, err
	}

	cfg.Logger.Debug("parsed superfetch database",
		"recognized", db.Recognized,
		"volumes", len(db.Volumes),
		"sources", len(db.Sources),
	)

	return Database{
		Recognized: db.Recognized,
		Volumes:    db.Volumes,
		Sources:    db.Sources,
	}, nil
}
