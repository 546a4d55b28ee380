package files

import (
	"testing"

	"github.com/bgrewell/arinc665-kit/pkg/checkvalue"
	"github.com/bgrewell/arinc665-kit/pkg/consts"
)

func TestLoadHeaderRoundTripSupplement2(t *testing.T) {
	lh := LoadHeader{
		PartNumber:        "PN12C12345678",
		PartFlags:         0,
		TargetHardwareIDs: []string{"THW0", "THW1"},
		DataFiles: []LoadFileEntry{
			{Filename: "DATA1.BIN", PartNumber: "PN12D87654321", Length: 1024, Crc: 0xABCD},
		},
		SupportFiles: []LoadFileEntry{
			{Filename: "SUP1.BIN", PartNumber: "PN12D11111111", Length: 16, Crc: 0x1234},
		},
		LoadCrc: 0xDEADBEEF,
	}

	raw, err := EncodeLoadHeader(lh, Supplement2)
	if err != nil {
		t.Fatalf("EncodeLoadHeader: %v", err)
	}

	decoded, err := DecodeLoadHeader(raw)
	if err != nil {
		t.Fatalf("DecodeLoadHeader: %v", err)
	}

	if decoded.PartNumber != lh.PartNumber {
		t.Errorf("PartNumber = %q, want %q", decoded.PartNumber, lh.PartNumber)
	}
	if len(decoded.DataFiles) != 1 || decoded.DataFiles[0].Filename != "DATA1.BIN" {
		t.Errorf("DataFiles mismatch: %+v", decoded.DataFiles)
	}
	if len(decoded.SupportFiles) != 1 || decoded.SupportFiles[0].Crc != 0x1234 {
		t.Errorf("SupportFiles mismatch: %+v", decoded.SupportFiles)
	}
	if decoded.LoadCrc != lh.LoadCrc {
		t.Errorf("LoadCrc = %08X, want %08X", decoded.LoadCrc, lh.LoadCrc)
	}
	if len(decoded.TargetHardwareIDs) != 2 {
		t.Errorf("TargetHardwareIDs = %v", decoded.TargetHardwareIDs)
	}
}

func TestLoadHeaderRoundTripWithLoadTypeAndCheckValue(t *testing.T) {
	lh := LoadHeader{
		PartNumber: "PN12C12345678",
		PartFlags:  0x0001,
		LoadType:   &LoadType{Description: "full", ID: 7},
		DataFiles: []LoadFileEntry{
			{Filename: "DATA1.BIN", PartNumber: "PN12D87654321", Length: 1024, Crc: 0xABCD, CheckValue: mustCompute(t, checkvalue.Sha256, []byte("data"))},
		},
		LoadCrc: 42,
	}

	raw, err := EncodeLoadHeader(lh, Supplement345)
	if err != nil {
		t.Fatalf("EncodeLoadHeader: %v", err)
	}
	decoded, err := DecodeLoadHeader(raw)
	if err != nil {
		t.Fatalf("DecodeLoadHeader: %v", err)
	}
	if decoded.LoadType == nil || decoded.LoadType.Description != "full" || decoded.LoadType.ID != 7 {
		t.Fatalf("LoadType mismatch: %+v", decoded.LoadType)
	}
	if decoded.DataFiles[0].CheckValue.Type != checkvalue.Sha256 {
		t.Fatalf("DataFiles[0].CheckValue.Type = %v, want Sha256", decoded.DataFiles[0].CheckValue.Type)
	}
}

func TestLoadHeaderRejectsWrongClass(t *testing.T) {
	bl := BatchList{PartNumber: "PN12C12345678", MediaSequenceNumber: 1, NumberOfMediaSetMembers: 1}
	raw, err := EncodeBatchList(bl, Supplement2)
	if err != nil {
		t.Fatalf("EncodeBatchList: %v", err)
	}
	if _, err := DecodeLoadHeader(raw); err == nil {
		t.Fatal("expected UnexpectedFileType decoding a batch list as a load header")
	}
}

func TestFileListRoundTripSupplement345(t *testing.T) {
	fl := FileList{
		PartNumber:              "PN12C12345678",
		MediaSequenceNumber:     1,
		NumberOfMediaSetMembers: 1,
		Files: []FileListEntry{
			{Filename: "FILE1.BIN", Pathname: "dir/sub", MemberSequenceNumber: 1, Crc: 0x1111, CheckValue: mustCompute(t, checkvalue.Crc32, []byte("file1"))},
			{Filename: "FILE2.BIN", Pathname: "", MemberSequenceNumber: 1, Crc: 0x2222, CheckValue: mustCompute(t, checkvalue.Sha1, []byte("file2"))},
		},
		MediaSetCheckValueType: checkvalue.Sha256,
		ListCheckValueType:     checkvalue.Crc32,
	}

	raw, err := EncodeFileList(fl, Supplement345)
	if err != nil {
		t.Fatalf("EncodeFileList: %v", err)
	}

	decoded, err := DecodeFileList(raw)
	if err != nil {
		t.Fatalf("DecodeFileList: %v", err)
	}
	if len(decoded.Files) != 2 {
		t.Fatalf("got %d files, want 2", len(decoded.Files))
	}
	if decoded.Files[0].Pathname != `dir\sub\` {
		t.Errorf("Pathname = %q, want %q", decoded.Files[0].Pathname, `dir\sub\`)
	}
	if decoded.MediaSetCheckValue.Type != checkvalue.Sha256 {
		t.Errorf("MediaSetCheckValue.Type = %v, want Sha256", decoded.MediaSetCheckValue.Type)
	}
	if decoded.ListCheckValue.Type != checkvalue.Crc32 {
		t.Errorf("ListCheckValue.Type = %v, want Crc32", decoded.ListCheckValue.Type)
	}
}

func TestFileListDetectsTamperedCheckValue(t *testing.T) {
	fl := FileList{
		PartNumber:              "PN12C12345678",
		MediaSequenceNumber:     1,
		NumberOfMediaSetMembers: 1,
		Files: []FileListEntry{
			{Filename: "FILE1.BIN", MemberSequenceNumber: 1, Crc: 0x1111},
		},
		MediaSetCheckValueType: checkvalue.Crc16,
		ListCheckValueType:     checkvalue.Crc16,
	}
	raw, err := EncodeFileList(fl, Supplement345)
	if err != nil {
		t.Fatalf("EncodeFileList: %v", err)
	}
	// Flip a byte inside the file list entry's filename and recompute the
	// 16-bit file CRC so it still matches; only the media-set check value
	// can then catch the change.
	tampered := append([]byte{}, raw...)
	tampered[55] ^= 0xFF
	patchChecksum(tampered, consts.ClassListOfFiles)
	if _, err := DecodeFileList(tampered); err == nil {
		t.Fatal("expected check value mismatch for tampered file list")
	}
}

func TestLoadListRoundTrip(t *testing.T) {
	ll := LoadList{
		PartNumber:              "PN12C12345678",
		MediaSequenceNumber:     1,
		NumberOfMediaSetMembers: 2,
		Loads: []LoadListEntry{
			{
				PartNumber:           "PN12D11111111",
				HeaderFilename:       "LOAD1.LUH",
				MemberSequenceNumber: 1,
				TargetHardwareIDs:    []string{"THW0", "THW1"},
				Positions:            [][]string{{"POS1"}, {}},
				CheckValue:           mustCompute(t, checkvalue.Crc64, []byte("load1")),
			},
		},
		ListCheckValueType: checkvalue.Sha512,
	}

	raw, err := EncodeLoadList(ll, Supplement345)
	if err != nil {
		t.Fatalf("EncodeLoadList: %v", err)
	}
	decoded, err := DecodeLoadList(raw)
	if err != nil {
		t.Fatalf("DecodeLoadList: %v", err)
	}
	if len(decoded.Loads) != 1 {
		t.Fatalf("got %d loads, want 1", len(decoded.Loads))
	}
	if len(decoded.Loads[0].Positions) != 2 || decoded.Loads[0].Positions[0][0] != "POS1" {
		t.Errorf("Positions mismatch: %+v", decoded.Loads[0].Positions)
	}
	if decoded.ListCheckValue.Type != checkvalue.Sha512 {
		t.Errorf("ListCheckValue.Type = %v, want Sha512", decoded.ListCheckValue.Type)
	}
}

func TestBatchListRoundTrip(t *testing.T) {
	bl := BatchList{
		PartNumber:              "PN12C12345678",
		MediaSequenceNumber:     1,
		NumberOfMediaSetMembers: 1,
		Batches: []BatchListEntry{
			{PartNumber: "PN12B11111111", Filename: "BATCH1.LBP", MemberSequenceNumber: 1},
			{PartNumber: "PN12B22222222", Filename: "BATCH2.LBP", MemberSequenceNumber: 1},
		},
	}

	raw, err := EncodeBatchList(bl, Supplement2)
	if err != nil {
		t.Fatalf("EncodeBatchList: %v", err)
	}
	decoded, err := DecodeBatchList(raw)
	if err != nil {
		t.Fatalf("DecodeBatchList: %v", err)
	}
	if len(decoded.Batches) != 2 || decoded.Batches[1].Filename != "BATCH2.LBP" {
		t.Fatalf("Batches mismatch: %+v", decoded.Batches)
	}
}

func TestBatchRoundTrip(t *testing.T) {
	b := Batch{
		PartNumber: "PN12C12345678",
		Comment:    "acceptance batch",
		Groups: []BatchThwGroup{
			{
				TargetHardwareID: "THW0",
				Loads: []BatchLoadRecord{
					{HeaderFilename: "LOAD1.LUH", PartNumber: "PN12D11111111"},
					{HeaderFilename: "LOAD2.LUH", PartNumber: "PN12D22222222"},
				},
			},
		},
	}

	raw := EncodeBatch(b, Supplement2)
	decoded, err := DecodeBatch(raw)
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	if decoded.Comment != b.Comment {
		t.Errorf("Comment = %q, want %q", decoded.Comment, b.Comment)
	}
	if len(decoded.Groups) != 1 || len(decoded.Groups[0].Loads) != 2 {
		t.Fatalf("Groups mismatch: %+v", decoded.Groups)
	}
}

func TestBatchDetectsChecksumTamper(t *testing.T) {
	b := Batch{PartNumber: "PN12C12345678", Comment: "x"}
	raw := EncodeBatch(b, Supplement2)
	tampered := append([]byte{}, raw...)
	tampered[len(tampered)-1] ^= 0xFF
	if _, err := DecodeBatch(tampered); err == nil {
		t.Fatal("expected checksum mismatch for tampered batch file")
	}
}

func mustCompute(t *testing.T, typ checkvalue.Type, data []byte) checkvalue.CheckValue {
	t.Helper()
	cv, err := checkvalue.Compute(typ, data)
	if err != nil {
		t.Fatalf("checkvalue.Compute: %v", err)
	}
	return cv
}

func TestEncodePathName(t *testing.T) {
	cases := map[string]string{
		"":          `\`,
		"a/b":       `a\b\`,
		`a\b\`:      `a\b\`,
		"a/b/c.bin": `a\b\c.bin\`,
	}
	for in, want := range cases {
		if got := EncodePathName(in); got != want {
			t.Errorf("EncodePathName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatVersionRoundTrip(t *testing.T) {
	fv := formatVersion(consts.ClassLoadHeader, Supplement345)
	if fv != 0x8003 {
		t.Fatalf("formatVersion(LoadHeader, Supplement345) = 0x%04X, want 0x8003", fv)
	}
	class, version, err := classAndVersion(fv)
	if err != nil || class != consts.ClassLoadHeader || version != Supplement345 {
		t.Fatalf("classAndVersion(0x%04X) = %v, %v, %v; want LoadHeader, Supplement345, nil", fv, class, version, err)
	}
}
