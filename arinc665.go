// Package arinc665 is the top-level entry point for the toolkit: open a
// media-set root directory on disk, decompile it into an in-memory model,
// or compile a model back out to disk. It is a thin facade over
// pkg/compiler, pkg/decompiler, pkg/media, and internal/osbackend, mirroring
// the teacher's own Open/Create facade in iso.go.
package arinc665

import (
	"github.com/bgrewell/arinc665-kit/internal/osbackend"
	"github.com/bgrewell/arinc665-kit/pkg/checkvalue"
	"github.com/bgrewell/arinc665-kit/pkg/compiler"
	"github.com/bgrewell/arinc665-kit/pkg/decompiler"
	"github.com/bgrewell/arinc665-kit/pkg/media"
	"github.com/bgrewell/arinc665-kit/pkg/medium"
	"github.com/bgrewell/arinc665-kit/pkg/options"
)

// MediaSet is the in-memory media-set model (pkg/media.MediaSet), aliased
// here so callers that only need the facade don't also need to import
// pkg/media directly.
type MediaSet = media.MediaSet

// Sources maps a File's stable reference to the external path its content
// should be read from during Compile (pkg/compiler.Sources).
type Sources = compiler.Sources

// Option configures a Compile or Decompile run (pkg/options.Option).
type Option = options.Option

// NewMediaSet creates an empty media set with the given part number and
// default file check-value type, ready to have media, directories, and
// files added before Compile.
func NewMediaSet(partNumber string, defaultCheckValueType checkvalue.Type) (*MediaSet, error) {
	return media.NewMediaSet(partNumber, defaultCheckValueType)
}

// Decompile reads the media-set root directory at path (one MEDIUM_NNN
// subdirectory per medium) and builds an in-memory MediaSet from its
// protocol files (spec §4.11).
func Decompile(path string, opts ...Option) (*decompiler.Result, error) {
	return decompiler.Decompile(osbackend.New(path), opts...)
}

// Compile renders ms to the media-set root directory at path, creating
// MEDIUM_NNN subdirectories as needed. path must not already contain a
// compiled media set (spec §4.12).
func Compile(ms *MediaSet, src Sources, path string, opts ...Option) (*compiler.Result, error) {
	return compiler.Compile(ms, src, osbackend.New(path), opts...)
}

// Probe classifies a candidate medium directory at path/MEDIUM_NNN without
// running a full Decompile (spec §6.4), returning nil if it lacks a valid
// FILES.LUM.
func Probe(path string, n medium.Number) (*decompiler.ProbeResult, error) {
	return decompiler.Probe(osbackend.New(path), n)
}
