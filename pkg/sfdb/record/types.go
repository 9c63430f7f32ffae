// Package record decodes the three fixed-but-size-parameterised structures
// the database layer (pkg/sfdb/database) drives records through: volumes,
// the files nested under each volume, and top-level sources. Every decoder
// here takes its record width as an explicit parameter rather than
// discovering it, since §3's permitted-size tables are validated once by the
// database header and then threaded down.
package record

// Volume is a single decoded volume record together with the files it owns.
type Volume struct {
	NumberOfFiles  uint32
	CreationTime   uint64
	SerialNumber   uint32
	DevicePath     string
	HashMismatch   bool
	Files          []File
}

// File is a single decoded file record nested under a volume.
type File struct {
	NameHash         uint32
	NumberOfEntries  uint32
	Flags            uint32
	Path             string
	HashMismatch     bool
}

// Source is a single decoded top-level source record.
type Source struct {
	NumberOfEntries     uint32
	ExecutableFilename  string
}
