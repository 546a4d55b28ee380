package files

import (
	"github.com/bgrewell/arinc665-kit/pkg/arincerr"
	bin "github.com/bgrewell/arinc665-kit/pkg/binary"
	"github.com/bgrewell/arinc665-kit/pkg/checkvalue"
	"github.com/bgrewell/arinc665-kit/pkg/consts"
	"github.com/bgrewell/arinc665-kit/pkg/crc"
)

// LoadType is a Load's optional (description, id) classification.
type LoadType struct {
	Description string
	ID          uint16
}

// LoadFileEntry is one data-file or support-file record within a
// Load-Header (§4.7).
type LoadFileEntry struct {
	Filename   string
	PartNumber string
	Length     uint32
	Crc        uint16
	CheckValue checkvalue.CheckValue
}

// LoadHeader is the decoded body of a Load-Header file (*.LUH).
//
// The spec's pointer table for this file covers exactly five sections
// (load part number, target-hardware-id list, data-file list,
// support-file list, user-defined-data) and does not give PartFlags or
// LoadType a pointer of their own; the original media model carries both
// alongside the load's part number, so they are encoded inline within the
// load-part-number section, immediately following the string.
type LoadHeader struct {
	PartNumber        string
	PartFlags         uint16
	LoadType          *LoadType
	TargetHardwareIDs []string
	DataFiles         []LoadFileEntry
	SupportFiles      []LoadFileEntry
	UserDefinedData   []byte

	// LoadCrc is the 32-bit CRC over the load's concatenated data- and
	// support-file contents. EncodeLoadHeader writes it verbatim; the
	// caller (the compiler) is responsible for computing it from the
	// actual file bytes before calling Encode.
	LoadCrc uint32
}

// lengthField renders a data/support file's byte length the way version
// writes it on the wire: Supplement 3/4/5 write the length in bytes, while
// Supplement 2 expresses it in 16-bit words, rounded up (spec §4.7).
func lengthField(byteLength uint32, version SupportedVersion) uint32 {
	if version == Supplement2 {
		return (byteLength + 1) / uint32(consts.PointerWordSize)
	}
	return byteLength
}

// lengthFromField inverts lengthField, recovering a byte length from the
// wire value for version. For Supplement 2 this is only exact when the
// original byte length was even, matching the word-rounding lengthField
// applies on encode.
func lengthFromField(field uint32, version SupportedVersion) uint32 {
	if version == Supplement2 {
		return field * uint32(consts.PointerWordSize)
	}
	return field
}

func encodeLoadFileEntry(e LoadFileEntry, version SupportedVersion) ([]byte, error) {
	out := bin.EncodeString(e.Filename)
	out = append(out, bin.EncodeString(e.PartNumber)...)
	out = bin.PutUint32(out, lengthField(e.Length, version))
	out = bin.PutUint16(out, e.Crc)
	if version == Supplement345 {
		cv, err := checkvalue.Encode(e.CheckValue)
		if err != nil {
			return nil, err
		}
		out = append(out, cv...)
	}
	return out, nil
}

func decodeLoadFileEntry(b []byte, version SupportedVersion) (LoadFileEntry, error) {
	filename, rest, err := bin.DecodeString(b)
	if err != nil {
		return LoadFileEntry{}, &arincerr.InvalidFormatError{Reason: "load file entry filename: " + err.Error()}
	}
	partNumber, rest, err := bin.DecodeString(rest)
	if err != nil {
		return LoadFileEntry{}, &arincerr.InvalidFormatError{Reason: "load file entry part number: " + err.Error()}
	}
	length, rest, err := bin.GetUint32(rest)
	if err != nil {
		return LoadFileEntry{}, &arincerr.InvalidFormatError{Reason: "load file entry length: " + err.Error()}
	}
	fileCrc, rest, err := bin.GetUint16(rest)
	if err != nil {
		return LoadFileEntry{}, &arincerr.InvalidFormatError{Reason: "load file entry crc: " + err.Error()}
	}
	entry := LoadFileEntry{Filename: filename, PartNumber: partNumber, Length: lengthFromField(length, version), Crc: fileCrc, CheckValue: checkvalue.None}
	if version == Supplement345 {
		cv, _, err := checkvalue.Decode(rest)
		if err != nil {
			return LoadFileEntry{}, &arincerr.InvalidFormatError{Reason: "load file entry check value: " + err.Error()}
		}
		entry.CheckValue = cv
	}
	return entry, nil
}

func encodeLoadFileList(entries []LoadFileEntry, version SupportedVersion) ([]byte, error) {
	raw := make([][]byte, len(entries))
	for i, e := range entries {
		enc, err := encodeLoadFileEntry(e, version)
		if err != nil {
			return nil, err
		}
		raw[i] = enc
	}
	return encodeEntryList(raw), nil
}

func decodeLoadFileList(body []byte, version SupportedVersion) ([]LoadFileEntry, error) {
	count, rest, err := bin.GetUint16(body)
	if err != nil {
		return nil, &arincerr.InvalidFormatError{Reason: "load file list count: " + err.Error()}
	}
	entries := make([]LoadFileEntry, 0, count)
	for i := uint16(0); i < count; i++ {
		_, next, err := bin.GetUint16(rest)
		if err != nil {
			return nil, &arincerr.InvalidFormatError{Reason: "load file list next-pointer: " + err.Error()}
		}
		entry, err := decodeLoadFileEntry(next, version)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		// re-derive the position of the next record by re-encoding; this
		// avoids trusting the next-pointer for navigation while still
		// validating it was present.
		enc, err := encodeLoadFileEntry(entry, version)
		if err != nil {
			return nil, err
		}
		rest = next[len(enc):]
	}
	return entries, nil
}

// EncodeLoadHeader serializes a LoadHeader as a complete Load-Header file.
func EncodeLoadHeader(lh LoadHeader, version SupportedVersion) ([]byte, error) {
	partNumberSection := bin.EncodeString(lh.PartNumber)
	partNumberSection = bin.PutUint16(partNumberSection, lh.PartFlags)
	if lh.LoadType != nil {
		partNumberSection = bin.PutUint8(partNumberSection, 1)
		partNumberSection = append(partNumberSection, bin.EncodeString(lh.LoadType.Description)...)
		partNumberSection = bin.PutUint16(partNumberSection, lh.LoadType.ID)
	} else {
		partNumberSection = bin.PutUint8(partNumberSection, 0)
	}
	partNumberSection = append(partNumberSection, 0x00) // pad the has-load-type flag byte to even

	thwSection := bin.EncodeStrings(lh.TargetHardwareIDs)

	dataFileList, err := encodeLoadFileList(lh.DataFiles, version)
	if err != nil {
		return nil, err
	}
	supportFileList, err := encodeLoadFileList(lh.SupportFiles, version)
	if err != nil {
		return nil, err
	}

	if len(lh.UserDefinedData)%2 != 0 {
		return nil, &arincerr.InvalidFormatError{Reason: "user-defined data must have even length"}
	}
	userDefined := lh.UserDefinedData

	body := buildPointerTable([][]byte{
		partNumberSection,
		thwSection,
		dataFileList,
		supportFileList,
		userDefined,
	})

	out := encodeFrame(consts.ClassLoadHeader, version, body)
	bin.PutUint32At(out, len(out)-4, lh.LoadCrc)
	return out, nil
}

// DecodeLoadHeader parses a Load-Header file.
func DecodeLoadHeader(raw []byte) (LoadHeader, error) {
	body, version, err := decodeFrame(raw, consts.ClassLoadHeader)
	if err != nil {
		return LoadHeader{}, err
	}

	offsets, err := readPointerTable(body, 5)
	if err != nil {
		return LoadHeader{}, err
	}

	var lh LoadHeader
	if offsets[0] >= 0 {
		partNumber, rest, err := bin.DecodeString(body[offsets[0]:])
		if err != nil {
			return LoadHeader{}, &arincerr.InvalidFormatError{Reason: "load part number: " + err.Error()}
		}
		flags, rest, err := bin.GetUint16(rest)
		if err != nil {
			return LoadHeader{}, &arincerr.InvalidFormatError{Reason: "load part flags: " + err.Error()}
		}
		hasType, rest, err := bin.GetUint8(rest)
		if err != nil {
			return LoadHeader{}, &arincerr.InvalidFormatError{Reason: "load type flag: " + err.Error()}
		}
		lh.PartNumber = partNumber
		lh.PartFlags = flags
		if hasType != 0 {
			desc, rest2, err := bin.DecodeString(rest)
			if err != nil {
				return LoadHeader{}, &arincerr.InvalidFormatError{Reason: "load type description: " + err.Error()}
			}
			id, _, err := bin.GetUint16(rest2)
			if err != nil {
				return LoadHeader{}, &arincerr.InvalidFormatError{Reason: "load type id: " + err.Error()}
			}
			lh.LoadType = &LoadType{Description: desc, ID: id}
		}
	}

	if offsets[1] >= 0 {
		ids, _, err := bin.DecodeStrings(body[offsets[1]:])
		if err != nil {
			return LoadHeader{}, &arincerr.InvalidFormatError{Reason: "target hardware id list: " + err.Error()}
		}
		lh.TargetHardwareIDs = ids
	}

	if offsets[2] >= 0 {
		entries, err := decodeLoadFileList(body[offsets[2]:], version)
		if err != nil {
			return LoadHeader{}, err
		}
		lh.DataFiles = entries
	}

	if offsets[3] >= 0 {
		entries, err := decodeLoadFileList(body[offsets[3]:], version)
		if err != nil {
			return LoadHeader{}, err
		}
		lh.SupportFiles = entries
	}

	if offsets[4] >= 0 {
		lh.UserDefinedData = append([]byte{}, body[offsets[4]:]...)
	}

	loadCrc, err := bin.GetUint32At(raw, len(raw)-4)
	if err != nil {
		return LoadHeader{}, &arincerr.InvalidFormatError{Reason: "load crc: " + err.Error()}
	}
	lh.LoadCrc = loadCrc

	return lh, nil
}

// VerifyLoadCrc recomputes the 32-bit load CRC over the concatenation of
// dataFiles then supportFiles content (in list order) and compares it
// against lh.LoadCrc.
func VerifyLoadCrc(lh LoadHeader, dataFiles, supportFiles [][]byte) error {
	var all []byte
	for _, f := range dataFiles {
		all = append(all, f...)
	}
	for _, f := range supportFiles {
		all = append(all, f...)
	}
	computed := crc.Crc32(all)
	if computed != lh.LoadCrc {
		return &arincerr.LoadCrcMismatchError{Load: lh.PartNumber, Stored: lh.LoadCrc, Wanted: computed}
	}
	return nil
}
