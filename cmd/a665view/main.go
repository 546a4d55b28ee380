package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bgrewell/usage"

	arinc665 "github.com/bgrewell/arinc665-kit"
	"github.com/bgrewell/arinc665-kit/pkg/consts"
	"github.com/bgrewell/arinc665-kit/pkg/files"
	"github.com/bgrewell/arinc665-kit/pkg/media"
)

const appVersion = "0.1.0"

// printMediaSetSummary decompiles root and prints a human-readable
// overview.
func printMediaSetSummary(root string, verbose bool) error {
	result, err := arinc665.Decompile(root)
	if err != nil {
		return fmt.Errorf("decompile %q: %w", root, err)
	}
	ms := result.MediaSet

	fmt.Println("=== Media Set Information ===")
	fmt.Printf("Part Number: %s\n", ms.PartNumber)
	fmt.Printf("Media: %d\n", len(ms.Media()))

	var fileCount, loadCount, batchCount int
	for _, m := range ms.Media() {
		fileCount += len(media.RecursiveFiles(m.Root))
		loadCount += len(media.RecursiveLoads(m.Root))
		batchCount += len(media.RecursiveBatches(m.Root))
	}
	fmt.Printf("Total Files: %d\n", fileCount)
	fmt.Printf("Loads: %d\n", loadCount)
	fmt.Printf("Batches: %d\n", batchCount)

	if verbose {
		fmt.Println("\n=== Media ===")
		for _, m := range ms.Media() {
			fmt.Printf("MEDIUM_%s:\n", m.Number.String())
			for _, f := range media.RecursiveFiles(m.Root) {
				fmt.Printf("  %s%s  [%s]\n", f.Path(), f.Name, f.Kind.String())
			}
		}
	}
	fmt.Println("==============================")
	return nil
}

// dumpProtocolFile reads and decodes a single protocol file, printing its
// fields without running a full decompile. This is the arinc665_print_files
// style dump: useful to inspect one file in isolation.
func dumpProtocolFile(root, name string) error {
	raw, err := os.ReadFile(root)
	if err != nil {
		return fmt.Errorf("read %q: %w", root, err)
	}

	switch {
	case name == consts.FileNameListOfFiles:
		fl, err := files.DecodeFileList(raw)
		if err != nil {
			return err
		}
		fmt.Printf("List-of-Files: part number %s, medium %d/%d, %d entries\n",
			fl.PartNumber, fl.MediaSequenceNumber, fl.NumberOfMediaSetMembers, len(fl.Files))
		for _, e := range fl.Files {
			fmt.Printf("  %s%s (member %d, crc 0x%04X)\n", e.Pathname, e.Filename, e.MemberSequenceNumber, e.Crc)
		}
	case name == consts.FileNameListOfLoads:
		ll, err := files.DecodeLoadList(raw)
		if err != nil {
			return err
		}
		fmt.Printf("List-of-Loads: part number %s, %d loads\n", ll.PartNumber, len(ll.Loads))
		for _, e := range ll.Loads {
			fmt.Printf("  %s -> %s (thw %v)\n", e.HeaderFilename, e.PartNumber, e.TargetHardwareIDs)
		}
	case name == consts.FileNameListOfBatches:
		bl, err := files.DecodeBatchList(raw)
		if err != nil {
			return err
		}
		fmt.Printf("List-of-Batches: part number %s, %d batches\n", bl.PartNumber, len(bl.Batches))
		for _, e := range bl.Batches {
			fmt.Printf("  %s -> %s\n", e.Filename, e.PartNumber)
		}
	case strings.HasSuffix(name, consts.ExtensionLoadHeader):
		lh, err := files.DecodeLoadHeader(raw)
		if err != nil {
			return err
		}
		fmt.Printf("Load-Header: part number %s, %d data files, %d support files, load crc 0x%08X\n",
			lh.PartNumber, len(lh.DataFiles), len(lh.SupportFiles), lh.LoadCrc)
	case strings.HasSuffix(name, consts.ExtensionBatch):
		b, err := files.DecodeBatch(raw)
		if err != nil {
			return err
		}
		fmt.Printf("Batch: part number %s, comment %q, %d target-hardware groups\n", b.PartNumber, b.Comment, len(b.Groups))
	default:
		return fmt.Errorf("%q does not look like an ARINC 665 protocol file", name)
	}
	return nil
}

func main() {
	u := usage.NewUsage(
		usage.WithApplicationVersion(appVersion),
		usage.WithApplicationName("a665view"),
		usage.WithApplicationDescription("a665view inspects an ARINC 665 media set, printing a summary of its "+
			"part number, media, files, loads, and batches, or decodes a single protocol file in isolation."),
	)

	help := u.AddBooleanOption("h", "help", false, "Show this help message", "", nil)
	verbose := u.AddBooleanOption("v", "verbose", false, "List every file on every medium", "", nil)
	singleFile := u.AddBooleanOption("f", "single-file", false, "Treat <path> as one protocol file rather than a media-set root", "", nil)
	path := u.AddArgument(1, "path", "Media-set root directory, or (with -f) a single protocol file", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}
	if *help {
		u.PrintUsage()
		os.Exit(0)
	}
	if path == nil || *path == "" {
		u.PrintError(fmt.Errorf("<path> must be provided"))
		os.Exit(1)
	}

	var err error
	if *singleFile {
		err = dumpProtocolFile(*path, filepath.Base(*path))
	} else {
		err = printMediaSetSummary(*path, *verbose)
	}
	if err != nil {
		u.PrintError(err)
		os.Exit(1)
	}
}
