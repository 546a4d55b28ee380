// Package options provides the functional-options configuration shared by
// the decompiler and compiler, following the teacher's own
// pkg/options.Options pattern: a plain struct with sane defaults, mutated
// by a slice of Option functions.
package options

import (
	"github.com/go-logr/logr"

	"github.com/bgrewell/arinc665-kit/pkg/backend"
	"github.com/bgrewell/arinc665-kit/pkg/files"
)

// Policy governs whether the compiler synthesizes a Load-Header or Batch
// file rather than copying it from the source mapping (spec §4.12).
type Policy int

const (
	// PolicyNone never synthesizes: a missing source file is a
	// DanglingReference error.
	PolicyNone Policy = iota
	// PolicyNoneExisting synthesizes only files absent from the source
	// mapping.
	PolicyNoneExisting
	// PolicyAll always synthesizes, overriding any provided source.
	PolicyAll
)

func (p Policy) String() string {
	switch p {
	case PolicyNone:
		return "None"
	case PolicyNoneExisting:
		return "NoneExisting"
	case PolicyAll:
		return "All"
	default:
		return "Policy(?)"
	}
}

// Options configures a decompiler or compiler run. Not every field is
// meaningful to both: CheckFileIntegrity applies to decompile;
// TargetVersion/CreateLoadHeaderFiles/CreateBatchFiles apply to compile.
type Options struct {
	// CheckFileIntegrity runs the decompiler's integrity pass (spec §4.11
	// step 7): re-reads every file's bytes and verifies its check value,
	// its file CRC (regular files only), and (for loads) load CRC.
	CheckFileIntegrity bool
	// TargetVersion is the ARINC 665 supplement the compiler encodes
	// protocol files for.
	TargetVersion files.SupportedVersion
	// CreateLoadHeaderFiles governs Load-Header synthesis.
	CreateLoadHeaderFiles Policy
	// CreateBatchFiles governs Batch file synthesis.
	CreateBatchFiles Policy
	// MediaSetName is stored on Options but not read by the compiler: the
	// output location is whatever root the compiler's backend is given, and
	// no directory is named after this value or the part number.
	MediaSetName string
	// Logger receives structured progress and warning messages (e.g. the
	// user-defined-data auto-pad warning). Defaults to logr.Discard().
	Logger logr.Logger
	// Progress is called by the compiler after each medium is written and
	// by the decompiler once, after the last medium is read.
	Progress backend.ProgressFunc
}

// Option mutates an Options value.
type Option func(*Options)

// Defaults returns the baseline Options every decompile/compile starts
// from before Option values are applied.
func Defaults() Options {
	return Options{
		TargetVersion:         files.Supplement345,
		CreateLoadHeaderFiles: PolicyNoneExisting,
		CreateBatchFiles:      PolicyNoneExisting,
		Logger:                logr.Discard(),
	}
}

// Apply folds opts onto Defaults() and returns the result.
func Apply(opts ...Option) Options {
	o := Defaults()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithCheckFileIntegrity enables or disables the decompiler's integrity
// pass.
func WithCheckFileIntegrity(enabled bool) Option {
	return func(o *Options) { o.CheckFileIntegrity = enabled }
}

// WithTargetVersion sets the ARINC 665 supplement the compiler targets.
func WithTargetVersion(v files.SupportedVersion) Option {
	return func(o *Options) { o.TargetVersion = v }
}

// WithCreateLoadHeaderFiles sets the Load-Header synthesis policy.
func WithCreateLoadHeaderFiles(p Policy) Option {
	return func(o *Options) { o.CreateLoadHeaderFiles = p }
}

// WithCreateBatchFiles sets the Batch file synthesis policy.
func WithCreateBatchFiles(p Policy) Option {
	return func(o *Options) { o.CreateBatchFiles = p }
}

// WithMediaSetName sets Options.MediaSetName, which the compiler does not
// read.
func WithMediaSetName(name string) Option {
	return func(o *Options) { o.MediaSetName = name }
}

// WithLogger sets the structured logger.
func WithLogger(logger logr.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithProgress sets the progress callback.
func WithProgress(p backend.ProgressFunc) Option {
	return func(o *Options) { o.Progress = p }
}
