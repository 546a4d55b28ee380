// Package files implements the binary codec for the five ARINC 665
// protocol file kinds: List-of-Files, List-of-Loads, List-of-Batches,
// Load-Header, and Batch (spec §4.3–§4.8).
package files

import (
	"fmt"

	"github.com/bgrewell/arinc665-kit/pkg/arincerr"
	bin "github.com/bgrewell/arinc665-kit/pkg/binary"
	"github.com/bgrewell/arinc665-kit/pkg/consts"
	"github.com/bgrewell/arinc665-kit/pkg/crc"
)

// SupportedVersion identifies which ARINC 665 supplement a file is encoded
// for.
type SupportedVersion int

const (
	// Supplement2 is ARINC 665 Supplement 2.
	Supplement2 SupportedVersion = iota
	// Supplement345 covers Supplements 3, 4 and 5, which share a wire
	// format (embedded check values, extended pointer fields).
	Supplement345
)

func (v SupportedVersion) String() string {
	switch v {
	case Supplement2:
		return "Supplement2"
	case Supplement345:
		return "Supplement345"
	default:
		return "SupportedVersion(?)"
	}
}

// formatVersion returns the 16-bit format-version field for the given file
// class and supplement.
//
// The literal hex constants for this table are not present in the
// retrieved original source (the header defining them was filtered out of
// the retrieval pack); the scheme below was reconstructed from the one
// worked example in the spec (a Supplement 3/4/5 Load-Header encodes as
// 0x8003) and kept internally consistent: 0x8000 marks an ARINC 665
// protocol file, the next byte is the file class, and the low byte is the
// supplement number. See DESIGN.md for the derivation.
func formatVersion(class consts.FileClass, version SupportedVersion) uint16 {
	supplement := uint16(3)
	if version == Supplement2 {
		supplement = 2
	}
	return 0x8000 | (uint16(class) << 8) | supplement
}

// classAndVersion inverts formatVersion, returning the file class and
// supplement a format-version field encodes.
func classAndVersion(fv uint16) (consts.FileClass, SupportedVersion, error) {
	if fv&0x8000 == 0 {
		return 0, 0, &arincerr.UnsupportedVersionError{FormatVersion: fv}
	}
	class := consts.FileClass((fv >> 8) & 0x7F)
	supplement := fv & 0xFF
	var version SupportedVersion
	switch supplement {
	case 2:
		version = Supplement2
	case 3:
		version = Supplement345
	default:
		return 0, 0, &arincerr.UnsupportedVersionError{FormatVersion: fv}
	}
	switch class {
	case consts.ClassLoadHeader, consts.ClassBatch, consts.ClassListOfFiles, consts.ClassListOfLoads, consts.ClassListOfBatches:
	default:
		return 0, 0, &arincerr.UnsupportedVersionError{FormatVersion: fv}
	}
	return class, version, nil
}

// checksumPosition returns the offset-from-end, in bytes, where the 16-bit
// file CRC is written for the given file class.
func checksumPosition(class consts.FileClass) int {
	if class == consts.ClassLoadHeader {
		return consts.LoadHeaderChecksumPosition
	}
	return consts.DefaultChecksumPosition
}

// assembleFrame prepends the file-length, format-version, and spare header
// fields to body and reserves csPos trailing bytes (for the checksum and,
// for Load-Header, the load CRC that follows it), all zeroed. The spare
// field is always written as 0x0000; it sits between the format-version
// field and the pointer table that begins body. It does not compute the
// checksum; callers that need to patch bytes within body before the
// checksum is computed (e.g. a list file's own trailing check value, which
// the checksum itself covers) call patchChecksum separately.
func assembleFrame(class consts.FileClass, version SupportedVersion, body []byte) []byte {
	csPos := checksumPosition(class)
	total := consts.BaseHeaderSize + len(body) + csPos

	buf := make([]byte, 0, total)
	buf = bin.PutUint32(buf, uint32(total))
	buf = bin.PutUint16(buf, formatVersion(class, version))
	buf = bin.PutUint16(buf, 0) // spare
	buf = append(buf, body...)
	buf = append(buf, make([]byte, csPos)...)
	return buf
}

// patchChecksum computes the 16-bit file CRC over buf (with the checksum
// field, and a Load-Header's trailing load CRC, treated as zero) and writes
// it at checksumPosition bytes from the end, per class.
func patchChecksum(buf []byte, class consts.FileClass) {
	csPos := checksumPosition(class)
	checksumOffset := len(buf) - csPos
	bin.PutUint16At(buf, checksumOffset, crc.Crc16(zeroChecksumField(buf, checksumOffset)))
}

// encodeFrame assembles a complete protocol file from its body and
// computes the 16-bit file CRC. The caller patches any bytes beyond the
// checksum field itself (e.g. the Load-Header's load CRC) afterward.
func encodeFrame(class consts.FileClass, version SupportedVersion, body []byte) []byte {
	buf := assembleFrame(class, version, body)
	patchChecksum(buf, class)
	return buf
}

// zeroChecksumField returns a copy of buf with every byte from off to the
// end zeroed: the 2-byte checksum field and, for a Load-Header, the load
// CRC that follows it. The file CRC is computed over that copy, so it does
// not depend on a load CRC patched in after encodeFrame.
func zeroChecksumField(buf []byte, off int) []byte {
	tmp := make([]byte, len(buf))
	copy(tmp, buf)
	for i := off; i < len(tmp); i++ {
		tmp[i] = 0
	}
	return tmp
}

// buildPointerTable lays out a pointer-table-prefixed body: len(sections)
// leading u32 fields, each an absolute word-offset (from byte 0 of the
// whole file, i.e. including the BaseHeaderSize header) to the start of
// the corresponding section, followed by the sections themselves in
// order. A nil entry in sections is omitted from the body and its pointer
// left at 0, matching the "0 means absent" convention used throughout the
// format.
func buildPointerTable(sections [][]byte) []byte {
	tableSize := len(sections) * 4
	body := make([]byte, tableSize)
	offset := tableSize
	for i, sec := range sections {
		if len(sec) == 0 {
			continue
		}
		fileOffset := consts.BaseHeaderSize + offset
		bin.PutUint32At(body, i*4, uint32(fileOffset/consts.PointerWordSize))
		body = append(body, sec...)
		offset += len(sec)
	}
	return body
}

// readPointerTable reads n u32 pointers from the front of body and
// resolves each non-zero one to a body-relative byte offset. An absent
// pointer (0) resolves to -1.
func readPointerTable(body []byte, n int) ([]int, error) {
	offsets := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := bin.GetUint32At(body, i*4)
		if err != nil {
			return nil, &arincerr.InvalidFormatError{Reason: "truncated pointer table"}
		}
		if v == 0 {
			offsets[i] = -1
			continue
		}
		fileOffset := int(v) * consts.PointerWordSize
		bodyOffset := fileOffset - consts.BaseHeaderSize
		if bodyOffset < 0 || bodyOffset > len(body) {
			return nil, &arincerr.InvalidFormatError{Reason: "pointer table entry out of range"}
		}
		offsets[i] = bodyOffset
	}
	return offsets, nil
}

// encodeEntryList assembles a u16 count followed by each entry, prefixed
// with a next-entry-pointer: the size, in 16-bit words, of the entry's own
// pointer field plus its payload, or 0 for the last entry. Every entry
// must already be an even number of bytes.
func encodeEntryList(entries [][]byte) []byte {
	out := make([]byte, 0, 2)
	out = bin.PutUint16(out, uint16(len(entries)))
	for i, e := range entries {
		next := uint16(0)
		if i != len(entries)-1 {
			next = uint16((2 + len(e)) / consts.PointerWordSize)
		}
		out = bin.PutUint16(out, next)
		out = append(out, e...)
	}
	return out
}

// decodeFrame validates the common header and checksum of a raw protocol
// file and returns the body span (the bytes between the header and the
// checksum/trailer region) plus the decoded class and version.
func decodeFrame(raw []byte, expectedClass consts.FileClass) (body []byte, version SupportedVersion, err error) {
	if len(raw) < consts.BaseHeaderSize {
		return nil, 0, &arincerr.InvalidFormatError{Reason: "file too small for header"}
	}

	length, err := bin.GetUint32At(raw, 0)
	if err != nil {
		return nil, 0, &arincerr.InvalidFormatError{Reason: err.Error()}
	}
	if int(length) != len(raw) {
		return nil, 0, &arincerr.InvalidFormatError{Reason: fmt.Sprintf("declared length %d does not match actual length %d", length, len(raw))}
	}

	fv, err := bin.GetUint16At(raw, 4)
	if err != nil {
		return nil, 0, &arincerr.InvalidFormatError{Reason: err.Error()}
	}
	class, version, err := classAndVersion(fv)
	if err != nil {
		return nil, 0, err
	}
	if class != expectedClass {
		return nil, 0, &arincerr.UnexpectedFileTypeError{Expected: expectedClass.String(), Actual: class.String()}
	}

	csPos := checksumPosition(class)
	checksumOffset := len(raw) - csPos
	stored, err := bin.GetUint16At(raw, checksumOffset)
	if err != nil {
		return nil, 0, &arincerr.InvalidFormatError{Reason: err.Error()}
	}
	computed := crc.Crc16(zeroChecksumField(raw, checksumOffset))
	if stored != computed {
		return nil, 0, &arincerr.ChecksumMismatchError{File: expectedClass.String(), Stored: stored, Wanted: computed}
	}

	return raw[consts.BaseHeaderSize:checksumOffset], version, nil
}
