// Package cliprogress drives a terminal spinner from the core's
// backend.ProgressFunc callback, for the cmd/ front-ends. It degrades to a
// no-op (nil ProgressFunc) when stdout isn't a terminal, since a spinner
// writing control codes into a log file or CI pipe is just noise.
package cliprogress

import (
	"fmt"
	"os"
	"time"

	"github.com/theckman/yacspin"
	"golang.org/x/term"

	"github.com/bgrewell/arinc665-kit/pkg/backend"
)

// New returns a backend.ProgressFunc that drives a spinner labeled with
// verb (e.g. "compiling", "decompiling"), or nil if stdout is not a
// terminal or the spinner fails to start.
func New(verb string) backend.ProgressFunc {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil
	}

	spinner, err := yacspin.New(yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[9],
		Suffix:          " " + verb,
		SuffixAutoColon: true,
		Message:         "starting",
		StopCharacter:   "✓",
		StopColors:      []string{"fgGreen"},
		StopMessage:     "done",
	})
	if err != nil {
		return nil
	}
	if err := spinner.Start(); err != nil {
		return nil
	}

	return func(currentMediaSet, totalMediaSets int, partNumber string, currentMedium, totalMedia int) error {
		spinner.Message(fmt.Sprintf("%s %s: medium %d/%d", verb, partNumber, currentMedium, totalMedia))
		if currentMediaSet == totalMediaSets && currentMedium == totalMedia {
			_ = spinner.Stop()
		}
		return nil
	}
}
