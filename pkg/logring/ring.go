// Package logring provides the bounded in-memory log buffer experiment
// output is streamed into. The dashboard polls it wholesale, incremental
// readers follow sequence numbers, and live readers subscribe to a feed.
package logring

import (
	"fmt"
	"sync"
	"time"

	"github.com/benchdeck/benchdeck/pkg/metrics"
	"github.com/benchdeck/benchdeck/pkg/pools"
)

// DefaultSize is the buffer capacity used when none is configured. At one
// entry per output line this covers hours of benchmark chatter.
const DefaultSize = 10000

// Entry represents a single captured output line
type Entry struct {
	Seq   uint64    `json:"seq"`
	RunID string    `json:"run_id,omitempty"`
	Time  time.Time `json:"time"`
	Line  string    `json:"line"`
}

// Tagged renders the entry the way the log view shows it: the line text
// prefixed with a short run-id tag when the entry belongs to a run.
func (e Entry) Tagged() string {
	if e.RunID == "" {
		return e.Line
	}
	return fmt.Sprintf("[%s] %s", ShortID(e.RunID), e.Line)
}

// ShortID shortens a run id to its first 8 characters for display.
func ShortID(runID string) string {
	if len(runID) <= 8 {
		return runID
	}
	return runID[:8]
}

// Ring stores the most recent entries in a fixed circular buffer. When the
// buffer is full the oldest entry is overwritten and counted as dropped.
// All methods are safe for concurrent use.
type Ring struct {
	entries    []Entry
	size       int
	index      int
	count      int
	seq        uint64
	dropped    uint64
	mu         sync.RWMutex
	subs       map[*Subscription]bool
	subsMu     sync.RWMutex
	shutdown   chan struct{}
	shutdownMu sync.Mutex
	isShutdown bool

	metricsRegistry *metrics.Registry
}

// NewRing creates a ring holding up to size entries. Sizes below 1 fall
// back to DefaultSize.
func NewRing(size int) *Ring {
	if size < 1 {
		size = DefaultSize
	}
	return &Ring{
		entries:         make([]Entry, size),
		size:            size,
		subs:            make(map[*Subscription]bool),
		shutdown:        make(chan struct{}),
		metricsRegistry: metrics.DefaultRegistry(),
	}
}

// Append records one output line attributed to runID (empty for lines the
// panel itself writes) and returns the stored entry with its sequence
// number assigned. Subscribers receive the entry on a best-effort basis.
func (r *Ring) Append(runID, line string) Entry {
	r.mu.Lock()
	r.seq++
	entry := Entry{
		Seq:   r.seq,
		RunID: runID,
		Time:  time.Now().UTC(),
		Line:  line,
	}
	if r.count == r.size {
		r.dropped++
	}
	r.entries[r.index] = entry
	r.index = (r.index + 1) % r.size
	if r.count < r.size {
		r.count++
	}
	r.mu.Unlock()

	r.metricsRegistry.RecordLogAppend()
	r.publish(entry)
	return entry
}

// Appendf formats and records a line.
func (r *Ring) Appendf(runID, format string, args ...any) Entry {
	return r.Append(runID, fmt.Sprintf(format, args...))
}

// Entries returns all buffered entries, oldest first.
func (r *Ring) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Entry, 0, r.count)
	for i := 0; i < r.count; i++ {
		idx := (r.index - r.count + i + r.size) % r.size
		result = append(result, r.entries[idx])
	}
	return result
}

// Since returns the buffered entries with a sequence number greater than
// seq, oldest first. Entries evicted before the read are simply absent;
// Dropped reports how many were lost over the ring's lifetime.
func (r *Ring) Since(seq uint64) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Entry, 0)
	for i := 0; i < r.count; i++ {
		idx := (r.index - r.count + i + r.size) % r.size
		if r.entries[idx].Seq > seq {
			result = append(result, r.entries[idx])
		}
	}
	return result
}

// Text renders the whole buffer as the log view's display text, one tagged
// line per entry, newline terminated. An empty ring yields an empty string.
// The dashboard polls this every second, so the build buffer is pooled.
func (r *Ring) Text() string {
	entries := r.Entries()
	if len(entries) == 0 {
		return ""
	}
	b := pools.GetBuffer()
	defer pools.PutBuffer(b)
	for _, e := range entries {
		b.WriteString(e.Tagged())
		b.WriteByte('\n')
	}
	return b.String()
}

// RunText renders the still-buffered lines of a single run, untagged and
// newline terminated.
func (r *Ring) RunText(runID string) string {
	b := pools.GetBuffer()
	defer pools.PutBuffer(b)
	for _, e := range r.Entries() {
		if e.RunID != runID {
			continue
		}
		b.WriteString(e.Line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Len returns the number of buffered entries.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Cap returns the buffer capacity.
func (r *Ring) Cap() int {
	return r.size
}

// LastSeq returns the sequence number of the newest entry, 0 if none.
func (r *Ring) LastSeq() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seq
}

// Dropped returns how many entries have been evicted to make room.
func (r *Ring) Dropped() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dropped
}
