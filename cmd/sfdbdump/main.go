// Command sfdbdump is a small inspection tool for SuperFetch database
// files, included for parity with the cmd/ layout this module's ambient
// stack follows and to exercise bgrewell/usage's flag parsing end to end.
// It is not part of the parser's supported surface.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bgrewell/usage"

	"github.com/forensicskit/sfdb"
	"github.com/forensicskit/sfdb/pkg/logging"
)

func verboseLogger() *logging.Logger {
	return logging.NewLogger(logging.NewSimpleLogger(os.Stderr, logging.LEVEL_TRACE, true))
}

type dumpVolume struct {
	DevicePath   string     `json:"device_path"`
	CreationTime uint64     `json:"creation_time"`
	SerialNumber uint32     `json:"serial_number"`
	Files        []dumpFile `json:"files"`
}

type dumpFile struct {
	Path string `json:"path"`
}

type dumpSource struct {
	ExecutableFilename string `json:"executable_filename"`
}

type dumpResult struct {
	Recognized bool         `json:"recognized"`
	Volumes    []dumpVolume `json:"volumes"`
	Sources    []dumpSource `json:"sources"`
}

func main() {
	u := usage.NewUsage(
		usage.WithApplicationName("sfdbdump"),
		usage.WithApplicationDescription("sfdbdump inspects a Windows SuperFetch database file (AgGlGlobalHistory.db, AgGlFaultHistory.db) and prints its decoded volumes, files and sources as JSON."),
	)

	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	verbose := u.AddBooleanOption("v", "verbose", false, "Log trace-level detail about block decompression to stderr", "", nil)
	path := u.AddArgument(1, "db-path", "Path to the SuperFetch .db file to read", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}

	if *help {
		u.PrintUsage()
		os.Exit(0)
	}

	if path == nil || *path == "" {
		u.PrintError(fmt.Errorf("path to the .db file must be provided"))
		os.Exit(1)
	}

	var opts []sfdb.Option
	if *verbose {
		opts = append(opts, sfdb.WithLogger(verboseLogger()))
	}

	db, err := sfdb.Open(*path, opts...)
	if err != nil {
		u.PrintError(err)
		os.Exit(1)
	}

	if !db.Recognized {
		fmt.Fprintln(os.Stderr, "file header is not the recognised AgGl* layout; nothing to report")
		os.Exit(0)
	}

	result := dumpResult{Recognized: db.Recognized}
	for _, v := range db.Volumes {
		dv := dumpVolume{
			DevicePath:   v.DevicePath,
			CreationTime: v.CreationTime,
			SerialNumber: v.SerialNumber,
		}
		for _, f := range v.Files {
			dv.Files = append(dv.Files, dumpFile{Path: f.Path})
		}
		result.Volumes = append(result.Volumes, dv)
	}
	for _, s := range db.Sources {
		result.Sources = append(result.Sources, dumpSource{ExecutableFilename: s.ExecutableFilename})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		u.PrintError(err)
		os.Exit(1)
	}
}
