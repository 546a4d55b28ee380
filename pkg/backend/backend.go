// Package backend declares the handler interfaces the decompiler and
// compiler use to reach an actual medium (spec §6.1). Core logic never
// touches a filesystem directly; internal/osbackend supplies the default
// implementation against the local OS filesystem.
package backend

import (
	"errors"

	"github.com/bgrewell/arinc665-kit/pkg/medium"
)

// ErrNotFound is returned by Reader.ReadFile/FileSize when relativePath
// does not exist on the given medium. The decompiler uses it to
// distinguish an optional file's absence (e.g. BATCHES.LUM) from a
// genuine backend failure.
var ErrNotFound = errors.New("backend: file not found")

// Reader reads file content and size from media already present on disk
// (used by the decompiler and by the compiler when re-reading finalized
// output to compute CRCs).
type Reader interface {
	// ReadFile returns the full contents of relativePath on the given
	// medium.
	ReadFile(n medium.Number, relativePath string) ([]byte, error)
	// FileSize returns the size in bytes of relativePath on the given
	// medium, without reading its content.
	FileSize(n medium.Number, relativePath string) (uint64, error)
}

// Writer creates directories and writes or copies file content onto a
// medium being produced (used by the compiler).
type Writer interface {
	// CreateDirectory creates relativePath (and any missing parents) on
	// the given medium.
	CreateDirectory(n medium.Number, relativePath string) error
	// WriteFile writes data to relativePath on the given medium,
	// creating or truncating it.
	WriteFile(n medium.Number, relativePath string, data []byte) error
	// CopyFile copies the file at sourcePath (outside the media set,
	// resolved by the caller's FilePathMapping) to relativePath on the
	// given medium.
	CopyFile(sourcePath string, n medium.Number, relativePath string) error
}

// ReadWriter is the union Reader+Writer a single backend implementation
// typically satisfies.
type ReadWriter interface {
	Reader
	Writer
}

// ProgressFunc reports compiler/decompiler progress (spec §6.1). Returning
// a non-nil error aborts the operation with that error wrapped as
// arincerr.ErrCancelled's cause.
type ProgressFunc func(currentMediaSet, totalMediaSets int, partNumber string, currentMedium, totalMedia int) error
