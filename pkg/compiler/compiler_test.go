package compiler

import (
	"fmt"
	"testing"

	"github.com/bgrewell/arinc665-kit/pkg/backend"
	"github.com/bgrewell/arinc665-kit/pkg/checkvalue"
	"github.com/bgrewell/arinc665-kit/pkg/decompiler"
	"github.com/bgrewell/arinc665-kit/pkg/media"
	"github.com/bgrewell/arinc665-kit/pkg/medium"
	"github.com/bgrewell/arinc665-kit/pkg/options"
	"github.com/bgrewell/arinc665-kit/pkg/partnumber"
)

// memRW is a minimal in-memory backend.ReadWriter: written content keyed by
// (medium, relativePath), plus an external source store CopyFile reads
// from, standing in for files living outside the media set.
type memRW struct {
	data     map[string][]byte
	external map[string][]byte
}

func newMemRW() *memRW {
	return &memRW{data: map[string][]byte{}, external: map[string][]byte{}}
}

func rwKey(n medium.Number, relativePath string) string {
	return fmt.Sprintf("%d:%s", n.Uint8(), relativePath)
}

func (m *memRW) ReadFile(n medium.Number, relativePath string) ([]byte, error) {
	data, ok := m.data[rwKey(n, relativePath)]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return data, nil
}

func (m *memRW) FileSize(n medium.Number, relativePath string) (uint64, error) {
	data, err := m.ReadFile(n, relativePath)
	if err != nil {
		return 0, err
	}
	return uint64(len(data)), nil
}

func (m *memRW) CreateDirectory(n medium.Number, relativePath string) error {
	return nil
}

func (m *memRW) WriteFile(n medium.Number, relativePath string, data []byte) error {
	m.data[rwKey(n, relativePath)] = data
	return nil
}

func (m *memRW) CopyFile(sourcePath string, n medium.Number, relativePath string) error {
	data, ok := m.external[sourcePath]
	if !ok {
		return backend.ErrNotFound
	}
	m.data[rwKey(n, relativePath)] = data
	return nil
}

func mustPartNumber(t *testing.T, mfr, product string) string {
	t.Helper()
	pn, err := partnumber.New(mfr, product)
	if err != nil {
		t.Fatalf("partnumber.New: %v", err)
	}
	return pn.String()
}

// buildSingleMediumSet constructs a one-medium MediaSet in memory: one
// regular file, one load referencing it, and one batch referencing the
// load, along with the Sources mapping and external content Compile needs.
func buildSingleMediumSet(t *testing.T) (*media.MediaSet, Sources, map[string][]byte) {
	t.Helper()

	partNumber := mustPartNumber(t, "ABC", "12345678")
	ms, err := media.NewMediaSet(partNumber, checkvalue.NotUsed)
	if err != nil {
		t.Fatalf("NewMediaSet: %v", err)
	}
	med := ms.AddMedium()

	appRef, err := ms.CreateRegularFile(med.Root, "APP.BIN")
	if err != nil {
		t.Fatalf("CreateRegularFile: %v", err)
	}

	loadPartNumber := mustPartNumber(t, "ABC", "LD000001")
	loadRef, err := ms.CreateLoad(med.Root, "LOAD1.LUH", media.LoadData{
		PartNumber: loadPartNumber,
		TargetHardware: []media.ThwPositions{
			{TargetHardwareID: "THW1"},
		},
		DataFiles: []media.LoadFileRef{
			{File: appRef, LoadPartNumber: partNumber},
		},
	})
	if err != nil {
		t.Fatalf("CreateLoad: %v", err)
	}

	batchPartNumber := mustPartNumber(t, "ABC", "BATCH001")
	_, err = ms.CreateBatch(med.Root, "BATCH1.LBP", media.BatchData{
		PartNumber: batchPartNumber,
		Comment:    "test batch",
		Groups: []media.BatchGroup{
			{TargetHardwareID: "THW1", Loads: []media.FileRef{loadRef}},
		},
	})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	appData := []byte("HELLOAPP")
	external := map[string][]byte{"host:/payload/APP.BIN": appData}
	src := Sources{appRef: "host:/payload/APP.BIN"}

	return ms, src, external
}

func TestCompileThenDecompileRoundTrip(t *testing.T) {
	ms, src, external := buildSingleMediumSet(t)

	rw := newMemRW()
	for k, v := range external {
		rw.external[k] = v
	}

	if _, err := Compile(ms, src, rw,
		options.WithCreateLoadHeaderFiles(options.PolicyAll),
		options.WithCreateBatchFiles(options.PolicyAll),
	); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	result, err := decompiler.Decompile(rw, options.WithCheckFileIntegrity(true))
	if err != nil {
		t.Fatalf("Decompile: %v", err)
	}

	if result.MediaSet.PartNumber != ms.PartNumber {
		t.Fatalf("PartNumber = %q, want %q", result.MediaSet.PartNumber, ms.PartNumber)
	}
	if len(result.MediaSet.Media()) != 1 {
		t.Fatalf("Media() length = %d, want 1", len(result.MediaSet.Media()))
	}

	root := result.MediaSet.Medium(medium.First).Root
	if got := len(media.RecursiveFiles(root)); got != 3 {
		t.Fatalf("RecursiveFiles length = %d, want 3", got)
	}
	loads := media.RecursiveLoads(root)
	if len(loads) != 1 || len(loads[0].Load.DataFiles) != 1 {
		t.Fatalf("loads not reconstructed as expected: %+v", loads)
	}
	batches := media.RecursiveBatches(root)
	if len(batches) != 1 || len(batches[0].Batch.Groups) != 1 || len(batches[0].Batch.Groups[0].Loads) != 1 {
		t.Fatalf("batches not reconstructed as expected: %+v", batches)
	}
}

func TestCompilePadsOddLengthUserDefinedData(t *testing.T) {
	ms, src, external := buildSingleMediumSet(t)
	ms.FilesUserDefinedData = []byte{0x01, 0x02, 0x03}

	rw := newMemRW()
	for k, v := range external {
		rw.external[k] = v
	}

	if _, err := Compile(ms, src, rw,
		options.WithCreateLoadHeaderFiles(options.PolicyAll),
		options.WithCreateBatchFiles(options.PolicyAll),
	); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	result, err := decompiler.Decompile(rw)
	if err != nil {
		t.Fatalf("Decompile: %v", err)
	}
	if len(result.MediaSet.FilesUserDefinedData)%2 != 0 {
		t.Fatalf("FilesUserDefinedData length = %d, want even", len(result.MediaSet.FilesUserDefinedData))
	}
	if len(result.MediaSet.FilesUserDefinedData) != 4 {
		t.Fatalf("FilesUserDefinedData length = %d, want 4 (3 bytes + 1 pad byte)", len(result.MediaSet.FilesUserDefinedData))
	}
}

func TestCompileRefusesExistingOutput(t *testing.T) {
	ms, src, external := buildSingleMediumSet(t)

	rw := newMemRW()
	for k, v := range external {
		rw.external[k] = v
	}
	rw.data[rwKey(medium.First, "FILES.LUM")] = []byte{0}

	_, err := Compile(ms, src, rw)
	if err == nil {
		t.Fatal("Compile: expected an error, got nil")
	}
}

func TestCompileNonePolicyRequiresSource(t *testing.T) {
	ms, src, external := buildSingleMediumSet(t)

	rw := newMemRW()
	for k, v := range external {
		rw.external[k] = v
	}

	_, err := Compile(ms, src, rw,
		options.WithCreateLoadHeaderFiles(options.PolicyNone),
		options.WithCreateBatchFiles(options.PolicyAll),
	)
	if err == nil {
		t.Fatal("Compile: expected an error when PolicyNone has no load header source, got nil")
	}
}
