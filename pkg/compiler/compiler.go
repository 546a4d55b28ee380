// Package compiler renders a media.MediaSet onto a set of media through a
// backend.ReadWriter, synthesizing Load-Header and Batch files where the
// configured options.Policy calls for it (spec §4.12).
package compiler

import (
	"errors"

	"github.com/go-logr/logr"

	"github.com/bgrewell/arinc665-kit/pkg/arincerr"
	"github.com/bgrewell/arinc665-kit/pkg/backend"
	"github.com/bgrewell/arinc665-kit/pkg/checkvalue"
	"github.com/bgrewell/arinc665-kit/pkg/consts"
	"github.com/bgrewell/arinc665-kit/pkg/crc"
	"github.com/bgrewell/arinc665-kit/pkg/files"
	"github.com/bgrewell/arinc665-kit/pkg/media"
	"github.com/bgrewell/arinc665-kit/pkg/medium"
	"github.com/bgrewell/arinc665-kit/pkg/options"
)

// Sources maps a RegularFile's (or, under PolicyNoneExisting/PolicyNone, a
// Load's or Batch's) stable reference to the external path Writer.CopyFile
// should read its content from. A File absent from Sources is synthesized
// if its governing Policy allows; a RegularFile is never synthesizable and
// its absence from Sources is always a DanglingReferenceError.
type Sources map[media.FileRef]string

// Result is everything Compile produces: the check value recorded against
// every File once its final bytes were known (spec §3.4).
type Result struct {
	CheckValues media.CheckValues
}

// Compile renders every medium of ms through rw: directories, then
// RegularFile payload, then Load-Header and Batch files (synthesizing per
// options.Policy), then LOADS.LUM/BATCHES.LUM, and finally FILES.LUM once
// every other file's final bytes and CRC are known (spec §4.12). rw is
// assumed to already be rooted at an empty destination; Compile refuses to
// proceed if medium 1 already carries a FILES.LUM.
func Compile(ms *media.MediaSet, src Sources, rw backend.ReadWriter, opts ...options.Option) (*Result, error) {
	o := options.Apply(opts...)

	if err := ms.Validate(); err != nil {
		return nil, err
	}
	if _, err := rw.FileSize(medium.First, consts.FileNameListOfFiles); err == nil {
		return nil, &arincerr.OutputExistsError{Path: consts.FileNameListOfFiles}
	} else if !errors.Is(err, backend.ErrNotFound) {
		return nil, &arincerr.BackendError{Op: "FileSize(FILES.LUM)", Source: err}
	}

	media_ := ms.Media()
	content := map[media.FileRef][]byte{}
	checkValues := media.CheckValues{}

	// Pass 1: directories and RegularFile payload, medium by medium. Loads
	// and Batches may reference RegularFiles living on any medium, so every
	// medium's plain payload must be in place before pass 2 can run.
	for _, med := range media_ {
		if err := createDirectories(rw, med); err != nil {
			return nil, err
		}
		for _, f := range media.RecursiveFiles(med.Root) {
			if f.Kind != media.KindRegularFile {
				continue
			}
			ref, err := ms.RefOf(f)
			if err != nil {
				return nil, err
			}
			sourcePath, ok := src[ref]
			if !ok {
				return nil, &arincerr.DanglingReferenceError{From: f.Name, To: "no source path provided for regular file"}
			}
			data, err := copyAndRead(rw, sourcePath, med.Number, relPathOf(f))
			if err != nil {
				return nil, err
			}
			content[ref] = data
		}
	}

	// Pass 2: Load-Header and Batch files, across the whole media set, so a
	// Batch on medium 1 can reference a Load whose header lives on medium 2.
	for _, med := range media_ {
		for _, f := range media.RecursiveLoads(med.Root) {
			ref, err := ms.RefOf(f)
			if err != nil {
				return nil, err
			}
			data, err := materializeLoad(ms, rw, o, f, ref, med.Number, src, content)
			if err != nil {
				return nil, err
			}
			content[ref] = data
		}
	}
	for _, med := range media_ {
		for _, f := range media.RecursiveBatches(med.Root) {
			ref, err := ms.RefOf(f)
			if err != nil {
				return nil, err
			}
			data, err := materializeBatch(ms, rw, o, f, ref, med.Number, src)
			if err != nil {
				return nil, err
			}
			content[ref] = data
		}
	}

	// Every File's check value is now computable from final bytes.
	for _, med := range media_ {
		for _, f := range media.RecursiveFiles(med.Root) {
			ref, err := ms.RefOf(f)
			if err != nil {
				return nil, err
			}
			cvType := media.EffectiveCheckValueType(ms, f)
			if cvType == checkvalue.NotUsed {
				checkValues[ref] = checkvalue.None
				continue
			}
			cv, err := checkvalue.Compute(cvType, content[ref])
			if err != nil {
				return nil, err
			}
			checkValues[ref] = cv
		}
	}

	masterFiles, masterLoads, masterBatches, hasBatches, err := buildMasterLists(ms, content, checkValues)
	if err != nil {
		return nil, err
	}

	total := uint8(len(media_))

	// Every medium carries its own LOADS.LUM and (if used) BATCHES.LUM, so
	// the master file list that every copy of FILES.LUM shares must
	// enumerate all of those, plus FILES.LUM itself, in addition to the
	// model-tree files already gathered above (spec §4.12 step 7). Encode
	// each medium's LOADS.LUM/BATCHES.LUM here, ahead of FILES.LUM, so
	// their real CRCs can be recorded; FILES.LUM's own entry describes a
	// file that does not exist yet, so its Crc is left at 0. The decompiler
	// never cross-checks a generated list file's own CRC (isGeneratedListFile),
	// so that placeholder is never observed as a mismatch.
	loadListBytes := make(map[medium.Number][]byte, len(media_))
	batchListBytes := make(map[medium.Number][]byte, len(media_))
	for _, med := range media_ {
		ll := files.LoadList{
			PartNumber:              ms.PartNumber,
			MediaSequenceNumber:     med.Number.Uint8(),
			NumberOfMediaSetMembers: total,
			Loads:                   masterLoads,
			UserDefinedData:         padUserDefinedData(o.Logger, "LOADS.LUM", ms.LoadsUserDefinedData),
			ListCheckValueType:      media.EffectiveListOfLoadsCheckValueType(ms),
		}
		llBytes, err := files.EncodeLoadList(ll, o.TargetVersion)
		if err != nil {
			return nil, err
		}
		loadListBytes[med.Number] = llBytes
		masterFiles = append(masterFiles, files.FileListEntry{
			Filename:             consts.FileNameListOfLoads,
			MemberSequenceNumber: uint16(med.Number.Uint8()),
			Crc:                  crc.Crc16(llBytes),
			CheckValue:           checkvalue.None,
		})

		if hasBatches {
			bl := files.BatchList{
				PartNumber:              ms.PartNumber,
				MediaSequenceNumber:     med.Number.Uint8(),
				NumberOfMediaSetMembers: total,
				Batches:                 masterBatches,
				UserDefinedData:         padUserDefinedData(o.Logger, "BATCHES.LUM", ms.BatchesUserDefinedData),
				ListCheckValueType:      media.EffectiveListOfBatchesCheckValueType(ms),
			}
			blBytes, err := files.EncodeBatchList(bl, o.TargetVersion)
			if err != nil {
				return nil, err
			}
			batchListBytes[med.Number] = blBytes
			masterFiles = append(masterFiles, files.FileListEntry{
				Filename:             consts.FileNameListOfBatches,
				MemberSequenceNumber: uint16(med.Number.Uint8()),
				Crc:                  crc.Crc16(blBytes),
				CheckValue:           checkvalue.None,
			})
		}

		masterFiles = append(masterFiles, files.FileListEntry{
			Filename:             consts.FileNameListOfFiles,
			MemberSequenceNumber: uint16(med.Number.Uint8()),
			Crc:                  0,
			CheckValue:           checkvalue.None,
		})
	}

	// Pass 3: the three list files, written last so their own contents
	// cover the final CRCs of everything else on the medium.
	for i, med := range media_ {
		fl := files.FileList{
			PartNumber:              ms.PartNumber,
			MediaSequenceNumber:     med.Number.Uint8(),
			NumberOfMediaSetMembers: total,
			Files:                   masterFiles,
			UserDefinedData:         padUserDefinedData(o.Logger, "FILES.LUM", ms.FilesUserDefinedData),
			MediaSetCheckValueType:  ms.MediaSetCheckValueType,
			ListCheckValueType:      media.EffectiveListOfFilesCheckValueType(ms),
		}
		flBytes, err := files.EncodeFileList(fl, o.TargetVersion)
		if err != nil {
			return nil, err
		}
		if err := rw.WriteFile(med.Number, consts.FileNameListOfLoads, loadListBytes[med.Number]); err != nil {
			return nil, &arincerr.BackendError{Op: "WriteFile(LOADS.LUM)", Source: err}
		}

		if hasBatches {
			if err := rw.WriteFile(med.Number, consts.FileNameListOfBatches, batchListBytes[med.Number]); err != nil {
				return nil, &arincerr.BackendError{Op: "WriteFile(BATCHES.LUM)", Source: err}
			}
		}

		if err := rw.WriteFile(med.Number, consts.FileNameListOfFiles, flBytes); err != nil {
			return nil, &arincerr.BackendError{Op: "WriteFile(FILES.LUM)", Source: err}
		}

		if o.Progress != nil {
			if err := o.Progress(1, 1, ms.PartNumber, i+1, int(total)); err != nil {
				return nil, errors.Join(arincerr.ErrCancelled, err)
			}
		}
	}

	return &Result{CheckValues: checkValues}, nil
}

func createDirectories(rw backend.Writer, med *media.Medium) error {
	for _, d := range collectDirectories(med.Root) {
		if err := rw.CreateDirectory(med.Number, d); err != nil {
			return &arincerr.BackendError{Op: "CreateDirectory(" + d + ")", Source: err}
		}
	}
	return nil
}

// relPathOf renders f's backend-relative path the same way the wire
// Pathname it is filed under will canonicalize to (files.EncodePathName),
// so a later Decompile resolves the identical relativePath from FILES.LUM's
// Pathname+Filename pair.
func relPathOf(f *media.File) string {
	return files.EncodePathName(f.Path()) + f.Name
}

// padUserDefinedData pads data to even length with a single zero byte,
// logging the correction rather than silently fixing it up, matching the
// strict-validation-plus-structured-logging habit the codec's own
// EncodeFileList/EncodeLoadList/EncodeBatchList otherwise leave to the
// caller (those reject odd-length data outright).
func padUserDefinedData(log logr.Logger, field string, data []byte) []byte {
	if len(data)%2 == 0 {
		return data
	}
	log.Info("padding user-defined data to even length", "field", field, "padded", true)
	return append(data, 0)
}

func collectDirectories(dir *media.Directory) []string {
	var out []string
	for _, d := range dir.Dirs {
		out = append(out, d.Path())
		out = append(out, collectDirectories(d)...)
	}
	return out
}

func copyAndRead(rw backend.ReadWriter, sourcePath string, n medium.Number, relativePath string) ([]byte, error) {
	if err := rw.CopyFile(sourcePath, n, relativePath); err != nil {
		return nil, &arincerr.BackendError{Op: "CopyFile(" + relativePath + ")", Source: err}
	}
	data, err := rw.ReadFile(n, relativePath)
	if err != nil {
		return nil, &arincerr.BackendError{Op: "ReadFile(" + relativePath + ")", Source: err}
	}
	return data, nil
}

// resolveSynthesis decides whether a Load-Header/Batch file is synthesized
// from the model or copied from src, per the governing Policy.
func resolveSynthesis(policy options.Policy, hasSource bool, name string) (bool, error) {
	switch policy {
	case options.PolicyAll:
		return true, nil
	case options.PolicyNoneExisting:
		return !hasSource, nil
	default: // PolicyNone
		if !hasSource {
			return false, &arincerr.DanglingReferenceError{From: name, To: "no source path provided and synthesis policy is None"}
		}
		return false, nil
	}
}

func materializeLoad(ms *media.MediaSet, rw backend.ReadWriter, o options.Options, f *media.File, ref media.FileRef, n medium.Number, src Sources, content map[media.FileRef][]byte) ([]byte, error) {
	relPath := relPathOf(f)
	sourcePath, hasSource := src[ref]

	synthesize, err := resolveSynthesis(o.CreateLoadHeaderFiles, hasSource, f.Name)
	if err != nil {
		return nil, err
	}
	if !synthesize {
		return copyAndRead(rw, sourcePath, n, relPath)
	}

	dataEntries, dataBytes, err := loadFileEntries(ms, f.Load.DataFiles, content)
	if err != nil {
		return nil, err
	}
	supportEntries, supportBytes, err := loadFileEntries(ms, f.Load.SupportFiles, content)
	if err != nil {
		return nil, err
	}

	loadCrc := crc.Crc32(append(concatAll(dataBytes), concatAll(supportBytes)...))

	lh := files.LoadHeader{
		PartNumber:        f.Load.PartNumber,
		PartFlags:         f.Load.PartFlags,
		TargetHardwareIDs: thwIDs(f.Load.TargetHardware),
		DataFiles:         dataEntries,
		SupportFiles:      supportEntries,
		UserDefinedData:   padUserDefinedData(o.Logger, f.Name, f.Load.UserDefinedData),
		LoadCrc:           loadCrc,
	}
	if f.Load.LoadType != nil {
		lh.LoadType = &files.LoadType{Description: f.Load.LoadType.Description, ID: f.Load.LoadType.ID}
	}
	f.Load.LoadCrc = lh.LoadCrc

	raw, err := files.EncodeLoadHeader(lh, o.TargetVersion)
	if err != nil {
		return nil, err
	}
	if err := rw.WriteFile(n, relPath, raw); err != nil {
		return nil, &arincerr.BackendError{Op: "WriteFile(" + relPath + ")", Source: err}
	}
	return raw, nil
}

func materializeBatch(ms *media.MediaSet, rw backend.ReadWriter, o options.Options, f *media.File, ref media.FileRef, n medium.Number, src Sources) ([]byte, error) {
	relPath := relPathOf(f)
	sourcePath, hasSource := src[ref]

	synthesize, err := resolveSynthesis(o.CreateBatchFiles, hasSource, f.Name)
	if err != nil {
		return nil, err
	}
	if !synthesize {
		return copyAndRead(rw, sourcePath, n, relPath)
	}

	groups := make([]files.BatchThwGroup, 0, len(f.Batch.Groups))
	for _, g := range f.Batch.Groups {
		loads := make([]files.BatchLoadRecord, 0, len(g.Loads))
		for _, lref := range g.Loads {
			target, err := ms.Resolve(lref)
			if err != nil {
				return nil, err
			}
			loads = append(loads, files.BatchLoadRecord{HeaderFilename: target.Name, PartNumber: target.Load.PartNumber})
		}
		groups = append(groups, files.BatchThwGroup{TargetHardwareID: g.TargetHardwareID, Loads: loads})
	}

	b := files.Batch{PartNumber: f.Batch.PartNumber, Comment: f.Batch.Comment, Groups: groups}
	raw := files.EncodeBatch(b, o.TargetVersion)
	if err := rw.WriteFile(n, relPath, raw); err != nil {
		return nil, &arincerr.BackendError{Op: "WriteFile(" + relPath + ")", Source: err}
	}
	return raw, nil
}

func loadFileEntries(ms *media.MediaSet, refs []media.LoadFileRef, content map[media.FileRef][]byte) ([]files.LoadFileEntry, [][]byte, error) {
	entries := make([]files.LoadFileEntry, 0, len(refs))
	byteSlices := make([][]byte, 0, len(refs))
	for _, r := range refs {
		target, err := ms.Resolve(r.File)
		if err != nil {
			return nil, nil, err
		}
		data, ok := content[r.File]
		if !ok {
			return nil, nil, &arincerr.DanglingReferenceError{From: target.Name, To: "content not yet written"}
		}
		cv := checkvalue.None
		if r.CheckValueType != nil && *r.CheckValueType != checkvalue.NotUsed {
			cv, err = checkvalue.Compute(*r.CheckValueType, data)
			if err != nil {
				return nil, nil, err
			}
		}
		entries = append(entries, files.LoadFileEntry{
			Filename:   target.Name,
			PartNumber: r.LoadPartNumber,
			Length:     uint32(len(data)),
			Crc:        crc.Crc16(data),
			CheckValue: cv,
		})
		byteSlices = append(byteSlices, data)
	}
	return entries, byteSlices, nil
}

func thwIDs(positions []media.ThwPositions) []string {
	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = p.TargetHardwareID
	}
	return out
}

func concatAll(parts [][]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// buildMasterLists assembles the media-set-wide FILES.LUM/LOADS.LUM/
// BATCHES.LUM entries, identical on every medium except the list's own
// MediaSequenceNumber field (spec §4.4–§4.6).
func buildMasterLists(ms *media.MediaSet, content map[media.FileRef][]byte, checkValues media.CheckValues) ([]files.FileListEntry, []files.LoadListEntry, []files.BatchListEntry, bool, error) {
	var fileEntries []files.FileListEntry
	var loadEntries []files.LoadListEntry
	var batchEntries []files.BatchListEntry

	for _, med := range ms.Media() {
		for _, f := range media.RecursiveFiles(med.Root) {
			ref, err := ms.RefOf(f)
			if err != nil {
				return nil, nil, nil, false, err
			}
			data := content[ref]
			fileEntries = append(fileEntries, files.FileListEntry{
				Filename:             f.Name,
				Pathname:             f.Path(),
				MemberSequenceNumber: uint16(media.EffectiveMediumNumber(f).Uint8()),
				Crc:                  crc.Crc16(data),
				CheckValue:           checkValues[ref],
			})

			switch f.Kind {
			case media.KindLoad:
				ids, positions := thwIDsAndPositions(f.Load.TargetHardware)
				cv := checkvalue.None
				if f.Load.LoadCheckValueType != nil && *f.Load.LoadCheckValueType != checkvalue.NotUsed {
					if computed, err := checkvalue.Compute(*f.Load.LoadCheckValueType, data); err == nil {
						cv = computed
					}
				}
				loadEntries = append(loadEntries, files.LoadListEntry{
					PartNumber:           f.Load.PartNumber,
					HeaderFilename:       f.Name,
					MemberSequenceNumber: uint16(media.EffectiveMediumNumber(f).Uint8()),
					TargetHardwareIDs:    ids,
					Positions:            positions,
					CheckValue:           cv,
				})
			case media.KindBatch:
				batchEntries = append(batchEntries, files.BatchListEntry{
					PartNumber:           f.Batch.PartNumber,
					Filename:             f.Name,
					MemberSequenceNumber: uint16(media.EffectiveMediumNumber(f).Uint8()),
				})
			}
		}
	}

	return fileEntries, loadEntries, batchEntries, len(batchEntries) > 0, nil
}

func thwIDsAndPositions(positions []media.ThwPositions) ([]string, [][]string) {
	ids := make([]string, len(positions))
	pos := make([][]string, len(positions))
	for i, p := range positions {
		ids[i] = p.TargetHardwareID
		pos[i] = p.Positions
	}
	return ids, pos
}
