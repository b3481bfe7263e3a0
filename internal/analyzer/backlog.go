package analyzer

import (
	"github.com/justin4957/logflow-monitor/pkg/models"
)

// WindowEntry is a log entry paired with its reconstructed timestamp
type WindowEntry struct {
	Timestamp Timestamp
	Entry     models.LogEntry
}

// Backlog keeps the entries of the trailing window, in arrival order, along
// with running per-method counts.
//
// Entries live in entries[head:]. Evicting advances head; the backing array
// is compacted once the dead prefix outgrows the live part, so each entry is
// moved a bounded number of times over the run.
type Backlog struct {
	window  int64
	clock   DayClock
	entries []WindowEntry
	head    int
	methods map[string]int
	total   int
	alert   *ThresholdAlert
}

// NewBacklog creates a backlog retaining window seconds of entries. The
// handler is notified when the rate crosses threshold requests per second.
func NewBacklog(window int64, threshold float64, handler AlertHandler) *Backlog {
	return &Backlog{
		window:  window,
		entries: make([]WindowEntry, 0, 1024),
		methods: make(map[string]int, 8),
		alert:   NewThresholdAlert(threshold, handler),
	}
}

// Add reconstructs the entry's timestamp, evicts expired entries, appends
// the entry and evaluates the alert threshold. It returns the timestamp
// assigned to the entry.
func (b *Backlog) Add(entry models.LogEntry) Timestamp {
	ts := b.clock.Next(entry)

	b.Trim(ts)
	b.entries = append(b.entries, WindowEntry{Timestamp: ts, Entry: entry})
	b.methods[entry.Method]++
	b.total++

	b.alert.Evaluate(b.Len(), b.window, ts, entry)
	return ts
}

// Trim evicts, oldest first, every entry more than window seconds older than
// ts. An entry exactly window seconds old is kept. It returns the number of
// evicted entries.
func (b *Backlog) Trim(ts Timestamp) int {
	dropped := 0
	for b.head < len(b.entries) && int64(ts-b.entries[b.head].Timestamp) > b.window {
		method := b.entries[b.head].Entry.Method
		if b.methods[method] <= 1 {
			delete(b.methods, method)
		} else {
			b.methods[method]--
		}
		b.total--

		// Release the evicted line for the GC
		b.entries[b.head] = WindowEntry{}
		b.head++
		dropped++
	}

	if dropped > 0 {
		b.compact()
	}
	return dropped
}

// compact reclaims the evicted prefix when it is at least as large as the
// live part.
func (b *Backlog) compact() {
	if b.head == len(b.entries) {
		b.entries = b.entries[:0]
		b.head = 0
		return
	}
	if b.head < len(b.entries)-b.head {
		return
	}
	n := copy(b.entries, b.entries[b.head:])
	clear(b.entries[n:])
	b.entries = b.entries[:n]
	b.head = 0
}

// Stats returns a snapshot of the windowed counts
func (b *Backlog) Stats() models.WindowStats {
	methods := make(map[string]int, len(b.methods))
	for k, v := range b.methods {
		methods[k] = v
	}
	return models.WindowStats{
		Methods: methods,
		Total:   b.total,
	}
}

// Entries returns a copy of the stored entries, oldest first
func (b *Backlog) Entries() []WindowEntry {
	live := make([]WindowEntry, b.Len())
	copy(live, b.entries[b.head:])
	return live
}

// Len returns the number of entries currently in the window
func (b *Backlog) Len() int {
	return len(b.entries) - b.head
}

// Window returns the window length in seconds
func (b *Backlog) Window() int64 {
	return b.window
}

// Threshold returns the alert threshold in requests per second
func (b *Backlog) Threshold() float64 {
	return b.alert.Threshold()
}

// Alerting reports whether the rate alert is currently raised
func (b *Backlog) Alerting() bool {
	return b.alert.Active()
}

// Rate returns the current request rate over the window
func (b *Backlog) Rate() float64 {
	return float64(b.Len()) / float64(b.window)
}
