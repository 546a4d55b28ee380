// Package consts holds the fixed constants used by the ARINC 665 protocol
// file codec and media-set layout.
package consts

// FileClass identifies which of the five ARINC 665 protocol file kinds a
// file belongs to. The class plus the active SupportedVersion determine the
// 16-bit format-version field written right after the 4-byte file-length
// field.
type FileClass uint8

const (
	// ClassLoadHeader identifies a Load-Header file (*.LUH).
	ClassLoadHeader FileClass = iota
	// ClassBatch identifies a Batch file (*.LBP).
	ClassBatch
	// ClassListOfFiles identifies a List-of-Files file (FILES.LUM).
	ClassListOfFiles
	// ClassListOfLoads identifies a List-of-Loads file (LOADS.LUM).
	ClassListOfLoads
	// ClassListOfBatches identifies a List-of-Batches file (BATCHES.LUM).
	ClassListOfBatches
)

func (c FileClass) String() string {
	switch c {
	case ClassLoadHeader:
		return "LoadHeader"
	case ClassBatch:
		return "Batch"
	case ClassListOfFiles:
		return "ListOfFiles"
	case ClassListOfLoads:
		return "ListOfLoads"
	case ClassListOfBatches:
		return "ListOfBatches"
	default:
		return "Unknown"
	}
}

// Canonical protocol file names.
const (
	FileNameListOfFiles   = "FILES.LUM"
	FileNameListOfLoads   = "LOADS.LUM"
	FileNameListOfBatches = "BATCHES.LUM"

	ExtensionLoadHeader = ".LUH"
	ExtensionBatch      = ".LBP"
)

// MediumDirectoryPrefix is the prefix of a medium's on-disk directory name,
// e.g. MEDIUM_001.
const MediumDirectoryPrefix = "MEDIUM_"

// Header framing.
const (
	// BaseHeaderSize is the number of bytes occupied by the file-length,
	// format-version, and spare fields that begin every ARINC 665 protocol
	// file: 4 (length) + 2 (format version) + 2 (spare, always 0x0000).
	BaseHeaderSize = 4 + 2 + 2
	// DefaultChecksumPosition is the offset-from-end, in bytes, where the
	// 16-bit file CRC is written for every file kind except Load-Header.
	DefaultChecksumPosition = 2
	// LoadHeaderChecksumPosition is the offset-from-end, in bytes, where the
	// 16-bit file CRC is written in a Load-Header file; the trailing 4 bytes
	// after it hold the 32-bit load CRC.
	LoadHeaderChecksumPosition = 6
)

// Medium number bounds (ARINC 665 §3.3).
const (
	MinMediumNumber = 1
	MaxMediumNumber = 255
)

// PointerWordSize is the size, in bytes, of a single 16-bit "word" that
// pointer fields within list and load-header files are expressed in.
const PointerWordSize = 2
