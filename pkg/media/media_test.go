package media

import (
	"testing"

	"github.com/bgrewell/arinc665-kit/pkg/checkvalue"
)

func mustMediaSet(t *testing.T) *MediaSet {
	t.Helper()
	ms, err := NewMediaSet("PN12712345678", checkvalue.Crc32)
	if err != nil {
		t.Fatalf("NewMediaSet: %v", err)
	}
	ms.AddMedium()
	return ms
}

func TestCreateRegularFileAndPath(t *testing.T) {
	ms := mustMediaSet(t)
	root := ms.Media()[0].Root
	sub, err := root.CreateDirectory("DATA")
	if err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	ref, err := ms.CreateRegularFile(sub, "FILE1.BIN")
	if err != nil {
		t.Fatalf("CreateRegularFile: %v", err)
	}
	f, err := ms.Resolve(ref)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := `DATA`; f.Path() != want {
		t.Errorf("Path() = %q, want %q", f.Path(), want)
	}
}

func TestSiblingNameConflictAcrossKinds(t *testing.T) {
	ms := mustMediaSet(t)
	root := ms.Media()[0].Root
	if _, err := ms.CreateRegularFile(root, "DUP"); err != nil {
		t.Fatalf("CreateRegularFile: %v", err)
	}
	if _, err := root.CreateDirectory("DUP"); err == nil {
		t.Fatal("expected NameConflictError for a directory colliding with a file's name")
	}
	if _, err := ms.CreateRegularFile(root, "DUP"); err == nil {
		t.Fatal("expected NameConflictError for a duplicate file name")
	}
}

func TestCreateLoadRejectsCrossMediaSetReference(t *testing.T) {
	msA := mustMediaSet(t)
	msB := mustMediaSet(t)

	refInB, err := msB.CreateRegularFile(msB.Media()[0].Root, "DATA1.BIN")
	if err != nil {
		t.Fatalf("CreateRegularFile: %v", err)
	}

	_, err = msA.CreateLoad(msA.Media()[0].Root, "LOAD1.LUH", LoadData{
		PartNumber: "PN12D11111111",
		DataFiles:  []LoadFileRef{{File: refInB, LoadPartNumber: "PN12D11111111"}},
	})
	if err == nil {
		t.Fatal("expected cross-media-set reference to be rejected")
	}
}

func TestCreateBatchValidatesLoadReferences(t *testing.T) {
	ms := mustMediaSet(t)
	root := ms.Media()[0].Root

	dataRef, err := ms.CreateRegularFile(root, "DATA1.BIN")
	if err != nil {
		t.Fatalf("CreateRegularFile: %v", err)
	}
	loadRef, err := ms.CreateLoad(root, "LOAD1.LUH", LoadData{
		PartNumber: "PN12D11111111",
		DataFiles:  []LoadFileRef{{File: dataRef, LoadPartNumber: "PN12D11111111"}},
	})
	if err != nil {
		t.Fatalf("CreateLoad: %v", err)
	}

	if _, err := ms.CreateBatch(root, "BATCH1.LBP", BatchData{
		PartNumber: "PN12F11111111",
		Groups: []BatchGroup{
			{TargetHardwareID: "THW0", Loads: []FileRef{loadRef}},
		},
	}); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	if _, err := ms.CreateBatch(root, "BATCH2.LBP", BatchData{
		PartNumber: "PN12F22222222",
		Groups: []BatchGroup{
			{TargetHardwareID: "THW0", Loads: []FileRef{dataRef}},
		},
	}); err == nil {
		t.Fatal("expected a batch referencing a non-Load file to be rejected")
	}
}

func TestEffectiveMediumNumberAndCheckValueType(t *testing.T) {
	ms := mustMediaSet(t)
	m2 := ms.AddMedium()
	root := ms.Media()[0].Root

	ref, err := ms.CreateRegularFile(root, "FILE1.BIN")
	if err != nil {
		t.Fatalf("CreateRegularFile: %v", err)
	}
	f, _ := ms.Resolve(ref)
	if got := EffectiveMediumNumber(f); got.Uint8() != 1 {
		t.Errorf("EffectiveMediumNumber = %v, want 1", got)
	}
	if got := EffectiveCheckValueType(ms, f); got != checkvalue.Crc32 {
		t.Errorf("EffectiveCheckValueType = %v, want Crc32", got)
	}

	override := m2.Number
	f.MediumOverride = &override
	if got := EffectiveMediumNumber(f); got != m2.Number {
		t.Errorf("EffectiveMediumNumber override = %v, want %v", got, m2.Number)
	}

	cvOverride := checkvalue.Sha256
	f.CheckValueTypeOverride = &cvOverride
	if got := EffectiveCheckValueType(ms, f); got != checkvalue.Sha256 {
		t.Errorf("EffectiveCheckValueType override = %v, want Sha256", got)
	}
}

func TestRecursiveFilesLoadsBatches(t *testing.T) {
	ms := mustMediaSet(t)
	root := ms.Media()[0].Root
	sub, _ := root.CreateDirectory("SUB")

	dataRef, _ := ms.CreateRegularFile(root, "DATA1.BIN")
	_, _ = ms.CreateRegularFile(sub, "DATA2.BIN")
	loadRef, err := ms.CreateLoad(sub, "LOAD1.LUH", LoadData{
		PartNumber: "PN12D11111111",
		DataFiles:  []LoadFileRef{{File: dataRef, LoadPartNumber: "PN12D11111111"}},
	})
	if err != nil {
		t.Fatalf("CreateLoad: %v", err)
	}
	if _, err := ms.CreateBatch(root, "BATCH1.LBP", BatchData{
		PartNumber: "PN12F11111111",
		Groups:     []BatchGroup{{TargetHardwareID: "THW0", Loads: []FileRef{loadRef}}},
	}); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	if got := len(RecursiveFiles(root)); got != 4 {
		t.Errorf("RecursiveFiles count = %d, want 4", got)
	}
	if got := len(RecursiveLoads(root)); got != 1 {
		t.Errorf("RecursiveLoads count = %d, want 1", got)
	}
	if got := len(RecursiveBatches(root)); got != 1 {
		t.Errorf("RecursiveBatches count = %d, want 1", got)
	}
}

func TestRenameAndMove(t *testing.T) {
	ms := mustMediaSet(t)
	root := ms.Media()[0].Root
	sub, _ := root.CreateDirectory("SUB")

	ref, err := ms.CreateRegularFile(root, "FILE1.BIN")
	if err != nil {
		t.Fatalf("CreateRegularFile: %v", err)
	}
	if err := ms.RenameFile(ref, "FILE2.BIN"); err != nil {
		t.Fatalf("RenameFile: %v", err)
	}
	if err := ms.MoveFile(ref, sub); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	f, _ := ms.Resolve(ref)
	if f.Parent != sub {
		t.Errorf("file did not move to new parent")
	}
	if len(root.Files) != 0 {
		t.Errorf("old parent still lists moved file: %+v", root.Files)
	}
}

func TestValidateDetectsContiguousMediaNumbering(t *testing.T) {
	ms := mustMediaSet(t)
	if err := ms.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestEffectiveListCheckValueTypeInheritsFromMediaSet(t *testing.T) {
	ms := mustMediaSet(t)
	ms.MediaSetCheckValueType = checkvalue.Sha512
	if got := EffectiveListOfFilesCheckValueType(ms); got != checkvalue.Sha512 {
		t.Errorf("EffectiveListOfFilesCheckValueType = %v, want Sha512 (inherited)", got)
	}
	ms.ListOfFilesCheckValueType = checkvalue.Crc16
	if got := EffectiveListOfFilesCheckValueType(ms); got != checkvalue.Crc16 {
		t.Errorf("EffectiveListOfFilesCheckValueType = %v, want Crc16 (explicit override)", got)
	}
}
