// Package arincerr defines the ARINC 665 error taxonomy (spec §7). Each
// kind that carries data about the offending file, field, or medium is a
// distinct type supporting errors.As; the two kinds with no associated
// data are sentinel errors supporting errors.Is.
package arincerr

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when a caller-supplied handler signals
// cancellation; the core propagates it without further wrapping so callers
// can detect it with errors.Is.
var ErrCancelled = errors.New("arinc665: operation cancelled")

// InvalidFormatError reports malformed bytes: a bad length field, a
// non-zero pad byte, or an unknown type code.
type InvalidFormatError struct {
	Reason string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("arinc665: invalid format: %s", e.Reason)
}

// UnsupportedVersionError reports a format-version field that does not map
// to any supported supplement.
type UnsupportedVersionError struct {
	FormatVersion uint16
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("arinc665: unsupported format version 0x%04X", e.FormatVersion)
}

// UnexpectedFileTypeError reports a file parsed as a class it isn't.
type UnexpectedFileTypeError struct {
	Expected, Actual string
}

func (e *UnexpectedFileTypeError) Error() string {
	return fmt.Sprintf("arinc665: unexpected file type: expected %s, got %s", e.Expected, e.Actual)
}

// ChecksumMismatchError reports that a file's stored and computed 16-bit
// CRC differ.
type ChecksumMismatchError struct {
	File           string
	Stored, Wanted uint16
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("arinc665: checksum mismatch in %q: stored 0x%04X, computed 0x%04X", e.File, e.Stored, e.Wanted)
}

// LoadCrcMismatchError reports that a load's stored and computed 32-bit
// load CRC differ.
type LoadCrcMismatchError struct {
	Load           string
	Stored, Wanted uint32
}

func (e *LoadCrcMismatchError) Error() string {
	return fmt.Sprintf("arinc665: load CRC mismatch in %q: stored 0x%08X, computed 0x%08X", e.Load, e.Stored, e.Wanted)
}

// CheckValueMismatchError reports that a file's stored and computed check
// value differ.
type CheckValueMismatchError struct {
	File string
	Type string
}

func (e *CheckValueMismatchError) Error() string {
	return fmt.Sprintf("arinc665: check value mismatch in %q (type %s)", e.File, e.Type)
}

// IntegrityFailureError is the umbrella raised by the decompiler's
// integrity pass (§4.11 step 7); Cause holds the more specific error.
type IntegrityFailureError struct {
	File  string
	Cause error
}

func (e *IntegrityFailureError) Error() string {
	return fmt.Sprintf("arinc665: integrity failure for %q: %v", e.File, e.Cause)
}

func (e *IntegrityFailureError) Unwrap() error { return e.Cause }

// MediaSetInconsistentError reports a cross-medium disagreement.
type MediaSetInconsistentError struct {
	Medium string
	Field  string
}

func (e *MediaSetInconsistentError) Error() string {
	return fmt.Sprintf("arinc665: media set inconsistent on medium %s: %s", e.Medium, e.Field)
}

// DanglingReferenceError reports a load or batch referencing an absent
// file or load.
type DanglingReferenceError struct {
	From, To string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("arinc665: dangling reference from %q to %q", e.From, e.To)
}

// ErrCrossMediaSetReference is returned when a model mutation would
// introduce a reference to a File belonging to a different MediaSet.
var ErrCrossMediaSetReference = errors.New("arinc665: cross media set reference")

// NameConflictError reports a sibling-name collision.
type NameConflictError struct {
	Path string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("arinc665: name conflict at %q", e.Path)
}

// OutputExistsError reports that the compiler refused to overwrite an
// existing output directory.
type OutputExistsError struct {
	Path string
}

func (e *OutputExistsError) Error() string {
	return fmt.Sprintf("arinc665: output path %q already exists", e.Path)
}

// BackendError wraps an error returned by a caller-supplied handler
// (ReadFile, WriteFile, CreateDirectory, CopyFile, FileSize, Progress).
type BackendError struct {
	Op     string
	Source error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("arinc665: backend error during %s: %v", e.Op, e.Source)
}

func (e *BackendError) Unwrap() error { return e.Source }
