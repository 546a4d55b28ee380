package files

import (
	"github.com/bgrewell/arinc665-kit/pkg/arincerr"
	bin "github.com/bgrewell/arinc665-kit/pkg/binary"
	"github.com/bgrewell/arinc665-kit/pkg/consts"
)

// BatchLoadRecord identifies one load within a target-hardware-id group of
// a Batch file (§4.8).
type BatchLoadRecord struct {
	HeaderFilename string
	PartNumber     string
}

// BatchThwGroup is one target-hardware-id group within a Batch file.
type BatchThwGroup struct {
	TargetHardwareID string
	Loads            []BatchLoadRecord
}

// Batch is the decoded body of a Batch file (*.LBP). Unlike the other
// protocol files it has no pointer table or trailing load CRC: just a
// flat sequence of sections and a 16-bit file CRC.
type Batch struct {
	PartNumber string
	Comment    string
	Groups     []BatchThwGroup
}

// EncodeBatch serializes b as a complete Batch file.
func EncodeBatch(b Batch, version SupportedVersion) []byte {
	body := bin.EncodeString(b.PartNumber)
	body = append(body, bin.EncodeString(b.Comment)...)
	body = bin.PutUint16(body, uint16(len(b.Groups)))
	for _, g := range b.Groups {
		body = append(body, bin.EncodeString(g.TargetHardwareID)...)
		body = bin.PutUint16(body, uint16(len(g.Loads)))
		for _, l := range g.Loads {
			body = append(body, bin.EncodeString(l.HeaderFilename)...)
			body = append(body, bin.EncodeString(l.PartNumber)...)
		}
	}
	return encodeFrame(consts.ClassBatch, version, body)
}

// DecodeBatch parses a Batch file.
func DecodeBatch(raw []byte) (Batch, error) {
	body, _, err := decodeFrame(raw, consts.ClassBatch)
	if err != nil {
		return Batch{}, err
	}

	partNumber, rest, err := bin.DecodeString(body)
	if err != nil {
		return Batch{}, &arincerr.InvalidFormatError{Reason: "batch part number: " + err.Error()}
	}
	comment, rest, err := bin.DecodeString(rest)
	if err != nil {
		return Batch{}, &arincerr.InvalidFormatError{Reason: "batch comment: " + err.Error()}
	}
	groupCount, rest, err := bin.GetUint16(rest)
	if err != nil {
		return Batch{}, &arincerr.InvalidFormatError{Reason: "batch group count: " + err.Error()}
	}

	groups := make([]BatchThwGroup, 0, groupCount)
	for i := uint16(0); i < groupCount; i++ {
		thwID, r, gerr := bin.DecodeString(rest)
		if gerr != nil {
			return Batch{}, &arincerr.InvalidFormatError{Reason: "batch group target hardware id: " + gerr.Error()}
		}
		loadCount, r2, gerr := bin.GetUint16(r)
		if gerr != nil {
			return Batch{}, &arincerr.InvalidFormatError{Reason: "batch group load count: " + gerr.Error()}
		}
		rest = r2
		loads := make([]BatchLoadRecord, 0, loadCount)
		for j := uint16(0); j < loadCount; j++ {
			headerFilename, r3, lerr := bin.DecodeString(rest)
			if lerr != nil {
				return Batch{}, &arincerr.InvalidFormatError{Reason: "batch load header filename: " + lerr.Error()}
			}
			partNum, r4, lerr := bin.DecodeString(r3)
			if lerr != nil {
				return Batch{}, &arincerr.InvalidFormatError{Reason: "batch load part number: " + lerr.Error()}
			}
			loads = append(loads, BatchLoadRecord{HeaderFilename: headerFilename, PartNumber: partNum})
			rest = r4
		}
		groups = append(groups, BatchThwGroup{TargetHardwareID: thwID, Loads: loads})
	}

	return Batch{PartNumber: partNumber, Comment: comment, Groups: groups}, nil
}
