package progress

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows activity while the stage totals are still unknown (discovery and harvesting).
// It draws nothing when stdout is not a terminal.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a Spinner writing to out
func NewSpinner(out io.Writer) *Spinner {
	return &Spinner{s: spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(out))}
}

// Status sets the message next to the spinner and starts it if needed
func (sp *Spinner) Status(msg string) {
	sp.s.Lock()
	sp.s.Suffix = " " + msg
	sp.s.Unlock()
	sp.s.Start()
}

// Stop halts the spinner and clears its line
func (sp *Spinner) Stop() {
	sp.s.Stop()
}
