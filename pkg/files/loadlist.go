package files

import (
	"github.com/bgrewell/arinc665-kit/pkg/arincerr"
	bin "github.com/bgrewell/arinc665-kit/pkg/binary"
	"github.com/bgrewell/arinc665-kit/pkg/checkvalue"
	"github.com/bgrewell/arinc665-kit/pkg/consts"
)

// LoadListEntry is one record in a List-of-Loads' load list (§4.5).
//
// Positions holds, for v3+ files, the ordered position list for each
// entry in TargetHardwareIDs (same index); it is nil for v2 files, and a
// target hardware id with no positions decodes to an empty list.
type LoadListEntry struct {
	PartNumber           string
	HeaderFilename       string
	MemberSequenceNumber uint16
	TargetHardwareIDs    []string
	Positions            [][]string
	CheckValue           checkvalue.CheckValue
}

// LoadList is the decoded body of a List-of-Loads file (LOADS.LUM).
type LoadList struct {
	PartNumber              string
	MediaSequenceNumber     uint8
	NumberOfMediaSetMembers uint8
	Loads                   []LoadListEntry
	UserDefinedData         []byte

	ListCheckValueType checkvalue.Type
	ListCheckValue     checkvalue.CheckValue
}

func encodeLoadListEntry(e LoadListEntry, version SupportedVersion) ([]byte, error) {
	out := bin.EncodeString(e.PartNumber)
	out = append(out, bin.EncodeString(e.HeaderFilename)...)
	out = bin.PutUint16(out, e.MemberSequenceNumber)
	out = append(out, bin.EncodeStrings(e.TargetHardwareIDs)...)
	if version == Supplement345 {
		cv, err := checkvalue.Encode(e.CheckValue)
		if err != nil {
			return nil, err
		}
		out = append(out, cv...)
		for i := range e.TargetHardwareIDs {
			var positions []string
			if i < len(e.Positions) {
				positions = e.Positions[i]
			}
			out = append(out, bin.EncodeStrings(positions)...)
		}
	}
	return out, nil
}

func decodeLoadListEntry(b []byte, version SupportedVersion) (LoadListEntry, error) {
	partNumber, rest, err := bin.DecodeString(b)
	if err != nil {
		return LoadListEntry{}, &arincerr.InvalidFormatError{Reason: "load list entry part number: " + err.Error()}
	}
	headerFilename, rest, err := bin.DecodeString(rest)
	if err != nil {
		return LoadListEntry{}, &arincerr.InvalidFormatError{Reason: "load list entry header filename: " + err.Error()}
	}
	seq, rest, err := bin.GetUint16(rest)
	if err != nil {
		return LoadListEntry{}, &arincerr.InvalidFormatError{Reason: "load list entry sequence number: " + err.Error()}
	}
	thwIDs, rest, err := bin.DecodeStrings(rest)
	if err != nil {
		return LoadListEntry{}, &arincerr.InvalidFormatError{Reason: "load list entry target hardware ids: " + err.Error()}
	}
	entry := LoadListEntry{
		PartNumber:           partNumber,
		HeaderFilename:       headerFilename,
		MemberSequenceNumber: seq,
		TargetHardwareIDs:    thwIDs,
		CheckValue:           checkvalue.None,
	}
	if seq < consts.MinMediumNumber || seq > consts.MaxMediumNumber {
		return LoadListEntry{}, &arincerr.InvalidFormatError{Reason: "load list entry sequence number out of range"}
	}
	if version == Supplement345 {
		cv, rest2, err := checkvalue.Decode(rest)
		if err != nil {
			return LoadListEntry{}, &arincerr.InvalidFormatError{Reason: "load list entry check value: " + err.Error()}
		}
		entry.CheckValue = cv
		positions := make([][]string, len(thwIDs))
		for i := range thwIDs {
			var pos []string
			pos, rest2, err = bin.DecodeStrings(rest2)
			if err != nil {
				return LoadListEntry{}, &arincerr.InvalidFormatError{Reason: "load list entry positions: " + err.Error()}
			}
			positions[i] = pos
		}
		entry.Positions = positions
	}
	return entry, nil
}

func loadListManifest(ll LoadList, version SupportedVersion) ([]byte, error) {
	out := bin.EncodeString(ll.PartNumber)
	out = bin.PutUint8(out, ll.MediaSequenceNumber)
	out = bin.PutUint8(out, ll.NumberOfMediaSetMembers)

	rawEntries := make([][]byte, len(ll.Loads))
	for i, e := range ll.Loads {
		enc, err := encodeLoadListEntry(e, version)
		if err != nil {
			return nil, err
		}
		rawEntries[i] = enc
	}
	out = append(out, encodeEntryList(rawEntries)...)
	out = append(out, ll.UserDefinedData...)
	return out, nil
}

// EncodeLoadList serializes ll as a complete List-of-Loads file.
func EncodeLoadList(ll LoadList, version SupportedVersion) ([]byte, error) {
	if len(ll.UserDefinedData)%2 != 0 {
		return nil, &arincerr.InvalidFormatError{Reason: "user-defined data must have even length"}
	}

	manifest, err := loadListManifest(ll, version)
	if err != nil {
		return nil, err
	}

	var listCvEncoded []byte
	if version == Supplement345 {
		listCv, err := checkvalue.Compute(ll.ListCheckValueType, manifest)
		if err != nil {
			return nil, err
		}
		listCvEncoded, err = checkvalue.Encode(listCv)
		if err != nil {
			return nil, err
		}
	}

	mediaInfo := bin.EncodeString(ll.PartNumber)
	mediaInfo = bin.PutUint8(mediaInfo, ll.MediaSequenceNumber)
	mediaInfo = bin.PutUint8(mediaInfo, ll.NumberOfMediaSetMembers)

	rawEntries := make([][]byte, len(ll.Loads))
	for i, e := range ll.Loads {
		enc, encErr := encodeLoadListEntry(e, version)
		if encErr != nil {
			return nil, encErr
		}
		rawEntries[i] = enc
	}

	body := buildPointerTable([][]byte{
		mediaInfo,
		encodeEntryList(rawEntries),
		ll.UserDefinedData,
		listCvEncoded,
	})

	return encodeFrame(consts.ClassListOfLoads, version, body), nil
}

// DecodeLoadList parses a List-of-Loads file.
func DecodeLoadList(raw []byte) (LoadList, error) {
	body, version, err := decodeFrame(raw, consts.ClassListOfLoads)
	if err != nil {
		return LoadList{}, err
	}

	offsets, err := readPointerTable(body, 4)
	if err != nil {
		return LoadList{}, err
	}

	var ll LoadList
	if offsets[0] >= 0 {
		partNumber, rest, perr := bin.DecodeString(body[offsets[0]:])
		if perr != nil {
			return LoadList{}, &arincerr.InvalidFormatError{Reason: "media information part number: " + perr.Error()}
		}
		seq, rest, perr := bin.GetUint8(rest)
		if perr != nil {
			return LoadList{}, &arincerr.InvalidFormatError{Reason: "media sequence number: " + perr.Error()}
		}
		members, _, perr := bin.GetUint8(rest)
		if perr != nil {
			return LoadList{}, &arincerr.InvalidFormatError{Reason: "number of media set members: " + perr.Error()}
		}
		ll.PartNumber = partNumber
		ll.MediaSequenceNumber = seq
		ll.NumberOfMediaSetMembers = members
	}

	if offsets[1] >= 0 {
		count, rest, cerr := bin.GetUint16(body[offsets[1]:])
		if cerr != nil {
			return LoadList{}, &arincerr.InvalidFormatError{Reason: "load list count: " + cerr.Error()}
		}
		entries := make([]LoadListEntry, 0, count)
		for i := uint16(0); i < count; i++ {
			_, next, perr := bin.GetUint16(rest)
			if perr != nil {
				return LoadList{}, &arincerr.InvalidFormatError{Reason: "load list next-pointer: " + perr.Error()}
			}
			entry, eerr := decodeLoadListEntry(next, version)
			if eerr != nil {
				return LoadList{}, eerr
			}
			entries = append(entries, entry)
			enc, eerr := encodeLoadListEntry(entry, version)
			if eerr != nil {
				return LoadList{}, eerr
			}
			rest = next[len(enc):]
		}
		ll.Loads = entries
	}

	if offsets[2] >= 0 {
		end := len(body)
		if offsets[3] >= 0 {
			end = offsets[3]
		}
		ll.UserDefinedData = append([]byte{}, body[offsets[2]:end]...)
	}

	if version == Supplement345 && offsets[3] >= 0 {
		manifest, merr := loadListManifest(ll, version)
		if merr != nil {
			return LoadList{}, merr
		}
		cv, _, cerr := checkvalue.Decode(body[offsets[3]:])
		if cerr != nil {
			return LoadList{}, &arincerr.InvalidFormatError{Reason: "list check value: " + cerr.Error()}
		}
		ll.ListCheckValue = cv
		ll.ListCheckValueType = cv.Type
		if verr := checkvalue.Verify(cv, manifest); verr != nil {
			return LoadList{}, &arincerr.CheckValueMismatchError{File: consts.FileNameListOfLoads, Type: "ListOfLoads"}
		}
	}

	return ll, nil
}
