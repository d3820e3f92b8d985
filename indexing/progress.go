package indexing

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports how many concepts of a catalogue have been embedded.
// It is safe for concurrent use.
type ProgressTracker struct {
	mu       sync.Mutex
	w        io.Writer
	catalog  string
	total    int
	done     int
	interval int
	reported int
	start    time.Time
	running  bool
}

// NewProgressTracker reports on w every interval concepts. A nil writer
// discards output.
func NewProgressTracker(w io.Writer, catalog string, total, interval int) *ProgressTracker {
	if w == nil {
		w = io.Discard
	}
	return &ProgressTracker{
		w:        w,
		catalog:  catalog,
		total:    total,
		interval: max(interval, 1),
	}
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.start = time.Now()
	p.running = true
	p.done = 0
	p.reported = 0
}

// Update records that done concepts have been stored.
func (p *ProgressTracker) Update(done int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.done = min(done, p.total)
	if p.done-p.reported >= p.interval {
		p.line()
		p.reported = p.done
	}
}

// Finish prints the final line and a summary.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.done = p.total
	p.line()
	fmt.Fprintf(p.w, "\n%s: %d concepts in %s\n", p.catalog, p.total, time.Since(p.start).Round(time.Millisecond))
	p.running = false
}

// Elapsed returns the time since Start, or zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.start.IsZero() {
		return 0
	}
	return time.Since(p.start)
}

func (p *ProgressTracker) line() {
	var rate, pct float64
	if s := time.Since(p.start).Seconds(); s > 0 {
		rate = float64(p.done) / s
	}
	if p.total > 0 {
		pct = 100 * float64(p.done) / float64(p.total)
	}
	fmt.Fprintf(p.w, "\r%s: %d/%d (%.1f%%) %.1f concepts/s", p.catalog, p.done, p.total, pct, rate)
}
