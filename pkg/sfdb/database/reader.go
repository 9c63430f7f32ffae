package database

import (
	"fmt"
	"sync/atomic"

	"github.com/forensicskit/sfdb/pkg/sfdb/consts"
	"github.com/forensicskit/sfdb/pkg/sfdb/record"
	"github.com/forensicskit/sfdb/pkg/sfdb/sfdberrors"
	"github.com/forensicskit/sfdb/pkg/sfdb/stream"
)

// Database is the fully decoded structural content of a SuperFetch database
// file.
type Database struct {
	// Recognized is false for file-header variants this core does not parse
	// further (unknown1 != 0x0E, e.g. the AgAppLaunch.db layout). Volumes
	// and Sources are always empty in that case.
	Recognized bool
	Header     Header
	Volumes    []record.Volume
	Sources    []record.Source
}

// Options configures a Read.
type Options struct {
	AbortSignal   *atomic.Bool
	MaxRecordSize uint32
}

func (o Options) maxRecordSize() uint32 {
	if o.MaxRecordSize == 0 {
		return consts.MaxRecordSize
	}
	return o.MaxRecordSize
}

func isAborted(abort *atomic.Bool) bool {
	return abort != nil && abort.Load()
}

// Read decodes the full structural content of s: the file header, the
// database header, and the volumes and sources loops.
func Read(s *stream.UncompressedStream, opts Options) (Database, error) {
	fh, err := decodeFileHeader(s)
	if err != nil {
		return Database{}, err
	}

	if fh.Unknown1 != consts.FileHeaderKnownValue {
		return Database{Recognized: false}, nil
	}

	header, err := decodeHeader(s, fh)
	if err != nil {
		return Database{}, err
	}

	db := Database{Recognized: true, Header: header}

	if header.NumberOfVolumes > 0 {
		db.Volumes = make([]record.Volume, 0, header.NumberOfVolumes)
		for i := uint32(0); i < header.NumberOfVolumes; i++ {
			if isAborted(opts.AbortSignal) {
				return Database{}, sfdberrors.ErrAborted
			}

			s.AlignTo(8)

			v, err := record.DecodeVolume(s, header.VolumeRecordSize, header.FileRecordSize, header.FileSubrecordType1Size, opts.maxRecordSize())
			if err != nil {
				return Database{}, fmt.Errorf("volume %d: %w", i, err)
			}
			db.Volumes = append(db.Volumes, v)
		}
	}

	if header.NumberOfSources > 0 {
		s.AlignTo(8)
		db.Sources = make([]record.Source, 0, header.NumberOfSources)
		for i := uint32(0); i < header.NumberOfSources; i++ {
			if isAborted(opts.AbortSignal) {
				return Database{}, sfdberrors.ErrAborted
			}

			src, err := record.DecodeSource(s, header.SourceRecordSize, header.FileSubrecordType2Size, opts.maxRecordSize())
			if err != nil {
				return Database{}, fmt.Errorf("source %d: %w", i, err)
			}
			db.Sources = append(db.Sources, src)
		}
	}

	return db, nil
}
