package main

import (
	"flag"
	"fmt"
	"os"

	arinc665 "github.com/bgrewell/arinc665-kit"
	"github.com/bgrewell/arinc665-kit/internal/cliprogress"
	"github.com/bgrewell/arinc665-kit/pkg/logging"
	"github.com/bgrewell/arinc665-kit/pkg/media"
	"github.com/bgrewell/arinc665-kit/pkg/options"
)

func main() {
	debug := flag.Bool("v", false, "Enable verbose (debug) logging")
	trace := flag.Bool("vv", false, "Enable trace logging")
	checkIntegrity := flag.Bool("check", true, "Run the file/load CRC and check-value integrity pass")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: a665decompile [options] <media-set-root>")
		fmt.Println("  -v            Enable verbose (debug) logging")
		fmt.Println("  -vv           Enable trace logging")
		fmt.Println("  -check        Run the integrity pass (default: true)")
		os.Exit(1)
	}
	root := flag.Arg(0)

	level := logging.LEVEL_INFO
	if *trace {
		level = logging.LEVEL_TRACE
	} else if *debug {
		level = logging.LEVEL_DEBUG
	}
	logger := logging.NewSimpleLogger(os.Stderr, level, true)

	result, err := arinc665.Decompile(root,
		options.WithCheckFileIntegrity(*checkIntegrity),
		options.WithLogger(logger),
		options.WithProgress(cliprogress.New("decompiling")),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decompile media set: %v\n", err)
		os.Exit(1)
	}

	ms := result.MediaSet
	var fileCount, loadCount, batchCount int
	for _, m := range ms.Media() {
		fileCount += len(media.RecursiveFiles(m.Root))
		loadCount += len(media.RecursiveLoads(m.Root))
		batchCount += len(media.RecursiveBatches(m.Root))
	}

	fmt.Printf("Decompiled %q: part number %s, %d media, %d files (%d loads, %d batches).\n",
		root, ms.PartNumber, len(ms.Media()), fileCount, loadCount, batchCount)
}
