package files

import (
	"github.com/bgrewell/arinc665-kit/pkg/arincerr"
	bin "github.com/bgrewell/arinc665-kit/pkg/binary"
	"github.com/bgrewell/arinc665-kit/pkg/checkvalue"
	"github.com/bgrewell/arinc665-kit/pkg/consts"
)

// BatchListEntry is one record in a List-of-Batches' batch list (§4.6).
type BatchListEntry struct {
	PartNumber           string
	Filename             string
	MemberSequenceNumber uint16
}

// BatchList is the decoded body of a List-of-Batches file (BATCHES.LUM).
// It mirrors LoadList but its entries carry no check value or hardware
// position information (§4.6).
type BatchList struct {
	PartNumber              string
	MediaSequenceNumber     uint8
	NumberOfMediaSetMembers uint8
	Batches                 []BatchListEntry
	UserDefinedData         []byte

	ListCheckValueType checkvalue.Type
	ListCheckValue     checkvalue.CheckValue
}

func encodeBatchListEntry(e BatchListEntry) []byte {
	out := bin.EncodeString(e.PartNumber)
	out = append(out, bin.EncodeString(e.Filename)...)
	out = bin.PutUint16(out, e.MemberSequenceNumber)
	return out
}

func decodeBatchListEntry(b []byte) (BatchListEntry, error) {
	partNumber, rest, err := bin.DecodeString(b)
	if err != nil {
		return BatchListEntry{}, &arincerr.InvalidFormatError{Reason: "batch list entry part number: " + err.Error()}
	}
	filename, rest, err := bin.DecodeString(rest)
	if err != nil {
		return BatchListEntry{}, &arincerr.InvalidFormatError{Reason: "batch list entry filename: " + err.Error()}
	}
	seq, _, err := bin.GetUint16(rest)
	if err != nil {
		return BatchListEntry{}, &arincerr.InvalidFormatError{Reason: "batch list entry sequence number: " + err.Error()}
	}
	if seq < consts.MinMediumNumber || seq > consts.MaxMediumNumber {
		return BatchListEntry{}, &arincerr.InvalidFormatError{Reason: "batch list entry sequence number out of range"}
	}
	return BatchListEntry{PartNumber: partNumber, Filename: filename, MemberSequenceNumber: seq}, nil
}

func batchListManifest(bl BatchList) []byte {
	out := bin.EncodeString(bl.PartNumber)
	out = bin.PutUint8(out, bl.MediaSequenceNumber)
	out = bin.PutUint8(out, bl.NumberOfMediaSetMembers)

	rawEntries := make([][]byte, len(bl.Batches))
	for i, e := range bl.Batches {
		rawEntries[i] = encodeBatchListEntry(e)
	}
	out = append(out, encodeEntryList(rawEntries)...)
	out = append(out, bl.UserDefinedData...)
	return out
}

// EncodeBatchList serializes bl as a complete List-of-Batches file.
func EncodeBatchList(bl BatchList, version SupportedVersion) ([]byte, error) {
	if len(bl.UserDefinedData)%2 != 0 {
		return nil, &arincerr.InvalidFormatError{Reason: "user-defined data must have even length"}
	}

	manifest := batchListManifest(bl)

	var listCvEncoded []byte
	if version == Supplement345 {
		listCv, err := checkvalue.Compute(bl.ListCheckValueType, manifest)
		if err != nil {
			return nil, err
		}
		listCvEncoded, err = checkvalue.Encode(listCv)
		if err != nil {
			return nil, err
		}
	}

	mediaInfo := bin.EncodeString(bl.PartNumber)
	mediaInfo = bin.PutUint8(mediaInfo, bl.MediaSequenceNumber)
	mediaInfo = bin.PutUint8(mediaInfo, bl.NumberOfMediaSetMembers)

	rawEntries := make([][]byte, len(bl.Batches))
	for i, e := range bl.Batches {
		rawEntries[i] = encodeBatchListEntry(e)
	}

	body := buildPointerTable([][]byte{
		mediaInfo,
		encodeEntryList(rawEntries),
		bl.UserDefinedData,
		listCvEncoded,
	})

	return encodeFrame(consts.ClassListOfBatches, version, body), nil
}

// DecodeBatchList parses a List-of-Batches file.
func DecodeBatchList(raw []byte) (BatchList, error) {
	body, version, err := decodeFrame(raw, consts.ClassListOfBatches)
	if err != nil {
		return BatchList{}, err
	}

	offsets, err := readPointerTable(body, 4)
	if err != nil {
		return BatchList{}, err
	}

	var bl BatchList
	if offsets[0] >= 0 {
		partNumber, rest, perr := bin.DecodeString(body[offsets[0]:])
		if perr != nil {
			return BatchList{}, &arincerr.InvalidFormatError{Reason: "media information part number: " + perr.Error()}
		}
		seq, rest, perr := bin.GetUint8(rest)
		if perr != nil {
			return BatchList{}, &arincerr.InvalidFormatError{Reason: "media sequence number: " + perr.Error()}
		}
		members, _, perr := bin.GetUint8(rest)
		if perr != nil {
			return BatchList{}, &arincerr.InvalidFormatError{Reason: "number of media set members: " + perr.Error()}
		}
		bl.PartNumber = partNumber
		bl.MediaSequenceNumber = seq
		bl.NumberOfMediaSetMembers = members
	}

	if offsets[1] >= 0 {
		count, rest, cerr := bin.GetUint16(body[offsets[1]:])
		if cerr != nil {
			return BatchList{}, &arincerr.InvalidFormatError{Reason: "batch list count: " + cerr.Error()}
		}
		entries := make([]BatchListEntry, 0, count)
		for i := uint16(0); i < count; i++ {
			_, next, perr := bin.GetUint16(rest)
			if perr != nil {
				return BatchList{}, &arincerr.InvalidFormatError{Reason: "batch list next-pointer: " + perr.Error()}
			}
			entry, eerr := decodeBatchListEntry(next)
			if eerr != nil {
				return BatchList{}, eerr
			}
			entries = append(entries, entry)
			rest = next[len(encodeBatchListEntry(entry)):]
		}
		bl.Batches = entries
	}

	if offsets[2] >= 0 {
		end := len(body)
		if offsets[3] >= 0 {
			end = offsets[3]
		}
		bl.UserDefinedData = append([]byte{}, body[offsets[2]:end]...)
	}

	if version == Supplement345 && offsets[3] >= 0 {
		manifest := batchListManifest(bl)
		cv, _, cerr := checkvalue.Decode(body[offsets[3]:])
		if cerr != nil {
			return BatchList{}, &arincerr.InvalidFormatError{Reason: "list check value: " + cerr.Error()}
		}
		bl.ListCheckValue = cv
		bl.ListCheckValueType = cv.Type
		if verr := checkvalue.Verify(cv, manifest); verr != nil {
			return BatchList{}, &arincerr.CheckValueMismatchError{File: consts.FileNameListOfBatches, Type: "ListOfBatches"}
		}
	}

	return bl, nil
}
