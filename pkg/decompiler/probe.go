package decompiler

import (
	"errors"

	"github.com/bgrewell/arinc665-kit/pkg/backend"
	"github.com/bgrewell/arinc665-kit/pkg/consts"
	"github.com/bgrewell/arinc665-kit/pkg/files"
	"github.com/bgrewell/arinc665-kit/pkg/medium"
)

// ProbeResult is the cheap classification a UI needs for an arbitrary
// directory, without running a full Decompile (spec §6.4).
type ProbeResult struct {
	PartNumber          string
	MediaSequenceNumber uint8
	TotalMedia          uint8
}

// Probe reads just FILES.LUM from medium n and reports the media set's
// part number, this medium's own sequence number, and the declared total
// member count. It returns (nil, nil), not an error, when n lacks a valid
// FILES.LUM — that is the "not an ARINC 665 medium" answer a folder
// classifier needs to distinguish from a genuine backend failure.
func Probe(r backend.Reader, n medium.Number) (*ProbeResult, error) {
	raw, err := r.ReadFile(n, consts.FileNameListOfFiles)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	fl, err := files.DecodeFileList(raw)
	if err != nil {
		return nil, nil
	}

	return &ProbeResult{
		PartNumber:          fl.PartNumber,
		MediaSequenceNumber: fl.MediaSequenceNumber,
		TotalMedia:          fl.NumberOfMediaSetMembers,
	}, nil
}
