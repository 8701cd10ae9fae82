package manager

import (
	"fmt"
	"io"
	"sync"
)

// DefaultProgressThreshold is the file count above which progress is shown.
const DefaultProgressThreshold = 50

// progress prints "N [", then "k.. " every threshold files, then "]".
type progress struct {
	mu        sync.Mutex
	w         io.Writer
	threshold int
	count     int
	enabled   bool
}

func newProgress(w io.Writer, total, threshold int) *progress {
	p := &progress{w: w, threshold: threshold}
	if w == nil || threshold <= 0 || total <= threshold {
		return p
	}
	p.enabled = true
	fmt.Fprintf(w, "%d [", total)
	return p
}

func (p *progress) tick() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	if p.count%p.threshold == 0 {
		fmt.Fprintf(p.w, "%d.. ", p.count)
	}
}

func (p *progress) done() {
	if !p.enabled {
		return
	}
	fmt.Fprintln(p.w, "]")
}
