package files

import (
	"strings"

	"github.com/bgrewell/arinc665-kit/pkg/arincerr"
	bin "github.com/bgrewell/arinc665-kit/pkg/binary"
	"github.com/bgrewell/arinc665-kit/pkg/checkvalue"
	"github.com/bgrewell/arinc665-kit/pkg/consts"
)

// EncodePathName canonicalizes a media-set path for the wire: components
// separated by backslashes, with a mandatory trailing backslash; forward
// slashes in the input are converted (§4.4).
func EncodePathName(p string) string {
	p = strings.ReplaceAll(p, "/", `\`)
	if p == "" {
		return `\`
	}
	if !strings.HasSuffix(p, `\`) {
		p += `\`
	}
	return p
}

// FileListEntry is one record in a List-of-Files' file list (§4.4).
type FileListEntry struct {
	Filename             string
	Pathname             string
	MemberSequenceNumber uint16
	Crc                  uint16
	CheckValue           checkvalue.CheckValue
}

// FileList is the decoded body of a List-of-Files file (FILES.LUM).
//
// MediaSetCheckValue and ListCheckValue both cover the media-information
// block, the file list, and the user-defined data (the "manifest");
// ListCheckValue additionally covers the encoded MediaSetCheckValue
// section. Their precise scopes are not spelled out beyond pointer-table
// position in the retrieved reference material; this choice is recorded
// in DESIGN.md.
type FileList struct {
	PartNumber              string
	MediaSequenceNumber     uint8
	NumberOfMediaSetMembers uint8
	Files                   []FileListEntry
	UserDefinedData         []byte

	MediaSetCheckValueType checkvalue.Type
	ListCheckValueType     checkvalue.Type

	// Populated by DecodeFileList; ignored by EncodeFileList.
	MediaSetCheckValue checkvalue.CheckValue
	ListCheckValue     checkvalue.CheckValue
}

func encodeFileListEntry(e FileListEntry, version SupportedVersion) ([]byte, error) {
	out := bin.EncodeString(e.Filename)
	out = append(out, bin.EncodeString(EncodePathName(e.Pathname))...)
	out = bin.PutUint16(out, e.MemberSequenceNumber)
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

func decodeFileListEntry(b []byte, version SupportedVersion) (FileListEntry, error) {
	filename, rest, err := bin.DecodeString(b)
	if err != nil {
		return FileListEntry{}, &arincerr.InvalidFormatError{Reason: "file list entry filename: " + err.Error()}
	}
	pathname, rest, err := bin.DecodeString(rest)
	if err != nil {
		return FileListEntry{}, &arincerr.InvalidFormatError{Reason: "file list entry pathname: " + err.Error()}
	}
	seq, rest, err := bin.GetUint16(rest)
	if err != nil {
		return FileListEntry{}, &arincerr.InvalidFormatError{Reason: "file list entry sequence number: " + err.Error()}
	}
	fileCrc, rest, err := bin.GetUint16(rest)
	if err != nil {
		return FileListEntry{}, &arincerr.InvalidFormatError{Reason: "file list entry crc: " + err.Error()}
	}
	entry := FileListEntry{Filename: filename, Pathname: pathname, MemberSequenceNumber: seq, Crc: fileCrc, CheckValue: checkvalue.None}
	if version == Supplement345 {
		cv, _, err := checkvalue.Decode(rest)
		if err != nil {
			return FileListEntry{}, &arincerr.InvalidFormatError{Reason: "file list entry check value: " + err.Error()}
		}
		entry.CheckValue = cv
	}
	if entry.MemberSequenceNumber < consts.MinMediumNumber || entry.MemberSequenceNumber > consts.MaxMediumNumber {
		return FileListEntry{}, &arincerr.InvalidFormatError{Reason: "file list entry sequence number out of range"}
	}
	return entry, nil
}

// fileListManifest re-derives the byte sequence the file's check values
// are computed over (media information, file list, user-defined data) so
// decode can reconstruct the exact bytes EncodeFileList hashed without
// needing to slice them out of the raw buffer.
func fileListManifest(fl FileList, version SupportedVersion) ([]byte, error) {
	out := bin.EncodeString(fl.PartNumber)
	out = bin.PutUint8(out, fl.MediaSequenceNumber)
	out = bin.PutUint8(out, fl.NumberOfMediaSetMembers)

	rawEntries := make([][]byte, len(fl.Files))
	for i, e := range fl.Files {
		enc, err := encodeFileListEntry(e, version)
		if err != nil {
			return nil, err
		}
		rawEntries[i] = enc
	}
	out = append(out, encodeEntryList(rawEntries)...)
	out = append(out, fl.UserDefinedData...)
	return out, nil
}

// EncodeFileList serializes fl as a complete List-of-Files file.
func EncodeFileList(fl FileList, version SupportedVersion) ([]byte, error) {
	if len(fl.UserDefinedData)%2 != 0 {
		return nil, &arincerr.InvalidFormatError{Reason: "user-defined data must have even length"}
	}

	manifest, err := fileListManifest(fl, version)
	if err != nil {
		return nil, err
	}

	var mediaSetCvEncoded, listCvEncoded []byte
	if version == Supplement345 {
		mediaSetCv, err := checkvalue.Compute(fl.MediaSetCheckValueType, manifest)
		if err != nil {
			return nil, err
		}
		mediaSetCvEncoded, err = checkvalue.Encode(mediaSetCv)
		if err != nil {
			return nil, err
		}

		listCv, err := checkvalue.Compute(fl.ListCheckValueType, append(append([]byte{}, manifest...), mediaSetCvEncoded...))
		if err != nil {
			return nil, err
		}
		listCvEncoded, err = checkvalue.Encode(listCv)
		if err != nil {
			return nil, err
		}
	}

	rawEntries := make([][]byte, len(fl.Files))
	for i, e := range fl.Files {
		enc, encErr := encodeFileListEntry(e, version)
		if encErr != nil {
			return nil, encErr
		}
		rawEntries[i] = enc
	}
	mediaInfo := bin.EncodeString(fl.PartNumber)
	mediaInfo = bin.PutUint8(mediaInfo, fl.MediaSequenceNumber)
	mediaInfo = bin.PutUint8(mediaInfo, fl.NumberOfMediaSetMembers)

	body := buildPointerTable([][]byte{
		mediaInfo,
		encodeEntryList(rawEntries),
		fl.UserDefinedData,
		mediaSetCvEncoded,
		listCvEncoded,
	})

	return encodeFrame(consts.ClassListOfFiles, version, body), nil
}

// DecodeFileList parses a List-of-Files file, verifying its (v3+) check
// values in addition to the 16-bit file CRC already verified by
// decodeFrame.
func DecodeFileList(raw []byte) (FileList, error) {
	body, version, err := decodeFrame(raw, consts.ClassListOfFiles)
	if err != nil {
		return FileList{}, err
	}

	offsets, err := readPointerTable(body, 5)
	if err != nil {
		return FileList{}, err
	}

	var fl FileList
	if offsets[0] >= 0 {
		partNumber, rest, perr := bin.DecodeString(body[offsets[0]:])
		if perr != nil {
			return FileList{}, &arincerr.InvalidFormatError{Reason: "media information part number: " + perr.Error()}
		}
		seq, rest, perr := bin.GetUint8(rest)
		if perr != nil {
			return FileList{}, &arincerr.InvalidFormatError{Reason: "media sequence number: " + perr.Error()}
		}
		members, _, perr := bin.GetUint8(rest)
		if perr != nil {
			return FileList{}, &arincerr.InvalidFormatError{Reason: "number of media set members: " + perr.Error()}
		}
		fl.PartNumber = partNumber
		fl.MediaSequenceNumber = seq
		fl.NumberOfMediaSetMembers = members
	}

	if offsets[1] >= 0 {
		count, rest, cerr := bin.GetUint16(body[offsets[1]:])
		if cerr != nil {
			return FileList{}, &arincerr.InvalidFormatError{Reason: "file list count: " + cerr.Error()}
		}
		entries := make([]FileListEntry, 0, count)
		for i := uint16(0); i < count; i++ {
			_, next, perr := bin.GetUint16(rest)
			if perr != nil {
				return FileList{}, &arincerr.InvalidFormatError{Reason: "file list next-pointer: " + perr.Error()}
			}
			entry, eerr := decodeFileListEntry(next, version)
			if eerr != nil {
				return FileList{}, eerr
			}
			entries = append(entries, entry)
			enc, eerr := encodeFileListEntry(entry, version)
			if eerr != nil {
				return FileList{}, eerr
			}
			rest = next[len(enc):]
		}
		fl.Files = entries
	}

	if offsets[2] >= 0 {
		end := len(body)
		for _, o := range offsets[3:] {
			if o >= 0 {
				end = o
				break
			}
		}
		fl.UserDefinedData = append([]byte{}, body[offsets[2]:end]...)
	}

	if version == Supplement345 {
		manifest, merr := fileListManifest(fl, version)
		if merr != nil {
			return FileList{}, merr
		}

		if offsets[3] >= 0 {
			cv, _, cerr := checkvalue.Decode(body[offsets[3]:])
			if cerr != nil {
				return FileList{}, &arincerr.InvalidFormatError{Reason: "media-set check value: " + cerr.Error()}
			}
			fl.MediaSetCheckValue = cv
			fl.MediaSetCheckValueType = cv.Type
			if verr := checkvalue.Verify(cv, manifest); verr != nil {
				return FileList{}, &arincerr.CheckValueMismatchError{File: consts.FileNameListOfFiles, Type: "MediaSet"}
			}
		}
		if offsets[4] >= 0 {
			cv, _, cerr := checkvalue.Decode(body[offsets[4]:])
			if cerr != nil {
				return FileList{}, &arincerr.InvalidFormatError{Reason: "list check value: " + cerr.Error()}
			}
			fl.ListCheckValue = cv
			fl.ListCheckValueType = cv.Type

			mediaSetCvEncoded, eerr := checkvalue.Encode(fl.MediaSetCheckValue)
			if eerr != nil {
				return FileList{}, eerr
			}
			if verr := checkvalue.Verify(cv, append(append([]byte{}, manifest...), mediaSetCvEncoded...)); verr != nil {
				return FileList{}, &arincerr.CheckValueMismatchError{File: consts.FileNameListOfFiles, Type: "ListOfFiles"}
			}
		}
	}

	return fl, nil
}
