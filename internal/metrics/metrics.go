// Package metrics collects the per-file counters reported alongside scan
// results and mirrors them to OpenTelemetry instruments.
package metrics

import (
	"bufio"
	"bytes"
	"sort"
	"strings"
	"sync"

	"github.com/chris-regnier/bailiff/internal/issue"
)

// TotalsKey is the report key of the bucket summing every file.
const TotalsKey = "_totals"

// FileMetrics are the counters gathered for one scanned file.
type FileMetrics struct {
	// LOC counts lines that are neither blank nor comment-only.
	LOC int
	// Nosec counts lines carrying the suppression marker, whether or not
	// suppressions were honoured.
	Nosec int
	// SkippedTests counts findings dropped by suppressions.
	SkippedTests int
	Scores       issue.Scores
}

// Add sums o into m.
func (m *FileMetrics) Add(o FileMetrics) {
	m.LOC += o.LOC
	m.Nosec += o.Nosec
	m.SkippedTests += o.SkippedTests
	m.Scores.Merge(o.Scores)
}

// AsMap returns the report record: loc, nosec, skipped_tests and the
// SEVERITY.<LEVEL> / CONFIDENCE.<LEVEL> issue counts.
func (m FileMetrics) AsMap() map[string]int {
	out := m.Scores.Counts()
	out["loc"] = m.LOC
	out["nosec"] = m.Nosec
	out["skipped_tests"] = m.SkippedTests
	return out
}

// Collector gathers file metrics from concurrent workers.
type Collector struct {
	mu    sync.RWMutex
	files map[string]FileMetrics
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{files: make(map[string]FileMetrics)}
}

// Record stores the metrics of path, replacing any earlier record.
func (c *Collector) Record(path string, m FileMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[path] = m
}

// Discard drops the record of path, used when a file ends up skipped.
func (c *Collector) Discard(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, path)
}

// File returns the metrics recorded for path.
func (c *Collector) File(path string) (FileMetrics, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.files[path]
	return m, ok
}

// Files lists the recorded paths in sorted order.
func (c *Collector) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.files))
	for p := range c.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Totals sums every recorded file.
func (c *Collector) Totals() FileMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var t FileMetrics
	for _, m := range c.files {
		t.Add(m)
	}
	return t
}

// AsMap returns every file record plus the _totals bucket.
func (c *Collector) AsMap() map[string]map[string]int {
	out := make(map[string]map[string]int)
	for _, p := range c.Files() {
		m, _ := c.File(p)
		out[p] = m.AsMap()
	}
	out[TotalsKey] = c.Totals().AsMap()
	return out
}

// CountLOC counts the lines of src that hold more than whitespace or a
// comment.
func CountLOC(src []byte) int {
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), len(src)+1)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			n++
		}
	}
	return n
}
