package analyzer

import (
	"time"

	"github.com/justin4957/logflow-monitor/pkg/models"
)

// HitCounters accumulates request counts over the whole run
type HitCounters struct {
	counts models.HitCounts
}

// Record counts one request
func (h *HitCounters) Record(entry models.LogEntry) {
	h.counts.Requests++
	switch entry.Method {
	case "GET":
		h.counts.GET++
	case "POST":
		h.counts.POST++
	}
}

// Snapshot returns the current cumulative counts
func (h *HitCounters) Snapshot() models.HitCounts {
	return h.counts
}

// TrafficStats pairs the windowed backlog with the cumulative counters and
// builds the periodic report from both.
type TrafficStats struct {
	backlog *Backlog
	hits    HitCounters
}

// NewTrafficStats creates the aggregate for a window of window seconds
func NewTrafficStats(window int64, threshold float64, handler AlertHandler) *TrafficStats {
	return &TrafficStats{
		backlog: NewBacklog(window, threshold, handler),
	}
}

// Record folds a parsed entry into the window and the cumulative counters
func (ts *TrafficStats) Record(entry models.LogEntry) Timestamp {
	stamp := ts.backlog.Add(entry)
	ts.hits.Record(entry)
	return stamp
}

// Backlog exposes the windowed store
func (ts *TrafficStats) Backlog() *Backlog {
	return ts.backlog
}

// Hits returns the cumulative counts
func (ts *TrafficStats) Hits() models.HitCounts {
	return ts.hits.Snapshot()
}

// Report builds the side-by-side windowed and cumulative snapshot
func (ts *TrafficStats) Report(now time.Time) models.StatsReport {
	window := ts.backlog.Stats()
	hits := ts.hits.Snapshot()

	return models.StatsReport{
		GeneratedAt:   now,
		WindowSeconds: ts.backlog.Window(),
		WindowGET:     window.Method("GET"),
		WindowPOST:    window.Method("POST"),
		WindowTotal:   window.Total,
		TotalGET:      hits.GET,
		TotalPOST:     hits.POST,
		TotalRequests: hits.Requests,
		Rate:          ts.backlog.Rate(),
		Threshold:     ts.backlog.Threshold(),
		AlertActive:   ts.backlog.Alerting(),
	}
}
