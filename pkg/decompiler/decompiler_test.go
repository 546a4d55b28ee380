package decompiler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bgrewell/arinc665-kit/pkg/arincerr"
	"github.com/bgrewell/arinc665-kit/pkg/backend"
	"github.com/bgrewell/arinc665-kit/pkg/checkvalue"
	"github.com/bgrewell/arinc665-kit/pkg/crc"
	"github.com/bgrewell/arinc665-kit/pkg/files"
	"github.com/bgrewell/arinc665-kit/pkg/media"
	"github.com/bgrewell/arinc665-kit/pkg/medium"
	"github.com/bgrewell/arinc665-kit/pkg/options"
	"github.com/bgrewell/arinc665-kit/pkg/partnumber"
)

type memBackend map[string][]byte

func key(n medium.Number, relativePath string) string {
	return fmt.Sprintf("%d:%s", n.Uint8(), relativePath)
}

func (m memBackend) put(n medium.Number, relativePath string, data []byte) {
	m[key(n, relativePath)] = data
}

func (m memBackend) ReadFile(n medium.Number, relativePath string) ([]byte, error) {
	data, ok := m[key(n, relativePath)]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return data, nil
}

func (m memBackend) FileSize(n medium.Number, relativePath string) (uint64, error) {
	data, err := m.ReadFile(n, relativePath)
	if err != nil {
		return 0, err
	}
	return uint64(len(data)), nil
}

func mustPartNumber(t *testing.T, mfr, product string) string {
	t.Helper()
	pn, err := partnumber.New(mfr, product)
	if err != nil {
		t.Fatalf("partnumber.New: %v", err)
	}
	return pn.String()
}

// buildSingleMediumSet produces a one-medium media set with one regular
// file, one load referencing it, and one batch referencing the load.
func buildSingleMediumSet(t *testing.T) (memBackend, string) {
	t.Helper()
	partNumber := mustPartNumber(t, "ABC", "12345678")

	appData := []byte("HELLOAPP")
	appCrc := crc.Crc16(appData)

	lh := files.LoadHeader{
		PartNumber:        mustPartNumber(t, "ABC", "LD000001"),
		TargetHardwareIDs: []string{"THW1"},
		DataFiles: []files.LoadFileEntry{{
			Filename:   "APP.BIN",
			PartNumber: mustPartNumber(t, "ABC", "12345678"),
			Length:     uint32(len(appData)),
			Crc:        appCrc,
			CheckValue: checkvalue.None,
		}},
		LoadCrc: crc.Crc32(appData),
	}
	headerBytes, err := files.EncodeLoadHeader(lh, files.Supplement345)
	if err != nil {
		t.Fatalf("EncodeLoadHeader: %v", err)
	}
	headerCrc := crc.Crc16(headerBytes)

	batchPartNumber := mustPartNumber(t, "ABC", "BATCH001")
	b := files.Batch{
		PartNumber: batchPartNumber,
		Comment:    "test batch",
		Groups: []files.BatchThwGroup{{
			TargetHardwareID: "THW1",
			Loads: []files.BatchLoadRecord{{
				HeaderFilename: "LOAD1.LUH",
				PartNumber:     lh.PartNumber,
			}},
		}},
	}
	batchBytes := files.EncodeBatch(b, files.Supplement345)
	batchCrc := crc.Crc16(batchBytes)

	fl := files.FileList{
		PartNumber:              partNumber,
		MediaSequenceNumber:     1,
		NumberOfMediaSetMembers: 1,
		Files: []files.FileListEntry{
			{Filename: "APP.BIN", Pathname: `\`, MemberSequenceNumber: 1, Crc: appCrc, CheckValue: checkvalue.None},
			{Filename: "LOAD1.LUH", Pathname: `\`, MemberSequenceNumber: 1, Crc: headerCrc, CheckValue: checkvalue.None},
			{Filename: "BATCH1.LBP", Pathname: `\`, MemberSequenceNumber: 1, Crc: batchCrc, CheckValue: checkvalue.None},
		},
	}
	flBytes, err := files.EncodeFileList(fl, files.Supplement345)
	if err != nil {
		t.Fatalf("EncodeFileList: %v", err)
	}

	ll := files.LoadList{
		PartNumber:              partNumber,
		MediaSequenceNumber:     1,
		NumberOfMediaSetMembers: 1,
		Loads: []files.LoadListEntry{
			{PartNumber: lh.PartNumber, HeaderFilename: "LOAD1.LUH", MemberSequenceNumber: 1, TargetHardwareIDs: []string{"THW1"}},
		},
	}
	llBytes, err := files.EncodeLoadList(ll, files.Supplement345)
	if err != nil {
		t.Fatalf("EncodeLoadList: %v", err)
	}

	bl := files.BatchList{
		PartNumber:              partNumber,
		MediaSequenceNumber:     1,
		NumberOfMediaSetMembers: 1,
		Batches: []files.BatchListEntry{
			{PartNumber: batchPartNumber, Filename: "BATCH1.LBP", MemberSequenceNumber: 1},
		},
	}
	blBytes, err := files.EncodeBatchList(bl, files.Supplement345)
	if err != nil {
		t.Fatalf("EncodeBatchList: %v", err)
	}

	m := memBackend{}
	m.put(medium.First, "FILES.LUM", flBytes)
	m.put(medium.First, "LOADS.LUM", llBytes)
	m.put(medium.First, "BATCHES.LUM", blBytes)
	m.put(medium.First, `\APP.BIN`, appData)
	m.put(medium.First, `\LOAD1.LUH`, headerBytes)
	m.put(medium.First, `\BATCH1.LBP`, batchBytes)

	return m, partNumber
}

func TestDecompileSingleMedium(t *testing.T) {
	m, partNumber := buildSingleMediumSet(t)

	result, err := Decompile(m, options.WithCheckFileIntegrity(true))
	if err != nil {
		t.Fatalf("Decompile: %v", err)
	}

	if result.MediaSet.PartNumber != partNumber {
		t.Fatalf("PartNumber = %q, want %q", result.MediaSet.PartNumber, partNumber)
	}
	if len(result.MediaSet.Media()) != 1 {
		t.Fatalf("Media() length = %d, want 1", len(result.MediaSet.Media()))
	}

	root := result.MediaSet.Medium(medium.First).Root
	fileList := media.RecursiveFiles(root)
	if len(fileList) != 3 {
		t.Fatalf("RecursiveFiles length = %d, want 3", len(fileList))
	}

	loads := media.RecursiveLoads(root)
	if len(loads) != 1 {
		t.Fatalf("RecursiveLoads length = %d, want 1", len(loads))
	}
	if len(loads[0].Load.DataFiles) != 1 {
		t.Fatalf("load data files = %d, want 1", len(loads[0].Load.DataFiles))
	}

	batches := media.RecursiveBatches(root)
	if len(batches) != 1 {
		t.Fatalf("RecursiveBatches length = %d, want 1", len(batches))
	}
	if len(batches[0].Batch.Groups) != 1 || len(batches[0].Batch.Groups[0].Loads) != 1 {
		t.Fatalf("batch groups not resolved as expected: %+v", batches[0].Batch)
	}

	if len(result.PathMapping) != 3 {
		t.Fatalf("PathMapping length = %d, want 3", len(result.PathMapping))
	}
}

func TestDecompileRejectsPartNumberDisagreement(t *testing.T) {
	partNumber1 := mustPartNumber(t, "ABC", "12345678")
	partNumber2 := mustPartNumber(t, "XYZ", "87654321")

	fl1 := files.FileList{PartNumber: partNumber1, MediaSequenceNumber: 1, NumberOfMediaSetMembers: 2}
	fl1Bytes, err := files.EncodeFileList(fl1, files.Supplement345)
	if err != nil {
		t.Fatalf("EncodeFileList medium 1: %v", err)
	}
	fl2 := files.FileList{PartNumber: partNumber2, MediaSequenceNumber: 2, NumberOfMediaSetMembers: 2}
	fl2Bytes, err := files.EncodeFileList(fl2, files.Supplement345)
	if err != nil {
		t.Fatalf("EncodeFileList medium 2: %v", err)
	}

	ll := files.LoadList{PartNumber: partNumber1, MediaSequenceNumber: 1, NumberOfMediaSetMembers: 2}
	llBytes, err := files.EncodeLoadList(ll, files.Supplement345)
	if err != nil {
		t.Fatalf("EncodeLoadList: %v", err)
	}

	m := memBackend{}
	m.put(medium.First, "FILES.LUM", fl1Bytes)
	m.put(medium.First, "LOADS.LUM", llBytes)
	m.put(medium.New(2), "FILES.LUM", fl2Bytes)

	_, err = Decompile(m)
	if err == nil {
		t.Fatal("Decompile: expected an error, got nil")
	}
	var inconsistent *arincerr.MediaSetInconsistentError
	if !errors.As(err, &inconsistent) {
		t.Fatalf("error = %v, want *arincerr.MediaSetInconsistentError", err)
	}
}
