package arinc665

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bgrewell/arinc665-kit/pkg/checkvalue"
	"github.com/bgrewell/arinc665-kit/pkg/medium"
	"github.com/bgrewell/arinc665-kit/pkg/options"
	"github.com/bgrewell/arinc665-kit/pkg/partnumber"
)

func TestCompileThenDecompileOnDisk(t *testing.T) {
	pn, err := partnumber.New("ABC", "12345678")
	require.NoError(t, err)

	ms, err := NewMediaSet(pn.String(), checkvalue.NotUsed)
	require.NoError(t, err)
	med := ms.AddMedium()

	appRef, err := ms.CreateRegularFile(med.Root, "APP.BIN")
	require.NoError(t, err)

	sourceDir := t.TempDir()
	sourcePath := filepath.Join(sourceDir, "app.bin")
	require.NoError(t, os.WriteFile(sourcePath, []byte("PAYLOAD"), 0o644))

	outDir := filepath.Join(t.TempDir(), pn.String())

	_, err = Compile(ms, Sources{appRef: sourcePath}, outDir,
		options.WithCreateLoadHeaderFiles(options.PolicyNoneExisting),
		options.WithCreateBatchFiles(options.PolicyNoneExisting),
	)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "MEDIUM_001", "FILES.LUM"))
	require.NoError(t, err, "expected FILES.LUM on disk")

	probe, err := Probe(outDir, medium.First)
	require.NoError(t, err)
	require.NotNil(t, probe)
	require.Equal(t, pn.String(), probe.PartNumber)

	result, err := Decompile(outDir, options.WithCheckFileIntegrity(true))
	require.NoError(t, err)
	require.Equal(t, pn.String(), result.MediaSet.PartNumber)
}
