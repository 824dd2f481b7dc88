package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
)

// Sink observes stage 3 progress. Implementations must be safe for concurrent use
// and must never influence the pipeline outcome.
type Sink interface {
	Start(total int)
	Increment()
	Stop()
}

// Nop discards all progress
type Nop struct{}

func (Nop) Start(int)  {}
func (Nop) Increment() {}
func (Nop) Stop()      {}

// Bar renders a single-line progress bar, redrawn in place with a carriage return
type Bar struct {
	out   io.Writer
	model progress.Model
	total int
	done  int
	mu    sync.Mutex
}

// NewBar creates a Bar writing to out
func NewBar(out io.Writer) *Bar {
	return &Bar{
		out:   out,
		model: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Start resets the bar for total items and draws it
func (b *Bar) Start(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.total = total
	b.done = 0
	b.render()
}

// Increment records one finished item
func (b *Bar) Increment() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.done++
	b.render()
}

// Stop finishes the line so later output starts on a fresh one
func (b *Bar) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintln(b.out)
}

// Done returns the number of items recorded since Start
func (b *Bar) Done() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

func (b *Bar) render() {
	fraction := 0.0
	if b.total > 0 {
		fraction = float64(b.done) / float64(b.total)
	}
	if fraction > 1 {
		fraction = 1
	}
	fmt.Fprintf(b.out, "\r%s %d/%d exercises", b.model.ViewAs(fraction), b.done, b.total)
}

// Recorder keeps counts of the calls it receives
type Recorder struct {
	mu         sync.Mutex
	total      int
	increments int
	starts     int
	stops      int
}

func (r *Recorder) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	r.total = total
}

func (r *Recorder) Increment() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.increments++
}

func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
}

// Counts returns the last Start total and the number of Increment, Start and Stop calls
func (r *Recorder) Counts() (total, increments, starts, stops int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total, r.increments, r.starts, r.stops
}
