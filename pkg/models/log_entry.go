package models

import (
	"fmt"
	"time"
)

// LogEntry represents one parsed access log line
type LogEntry struct {
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Second int    `json:"second"`
	Method string `json:"method"`
	Path   string `json:"path"`
	Raw    string `json:"raw"`
}

// SecondsOfDay returns the entry's time of day as seconds since midnight
func (e LogEntry) SecondsOfDay() int64 {
	return int64(e.Hour)*3600 + int64(e.Minute)*60 + int64(e.Second)
}

// TimeOfDay renders the entry's time as HH:MM:SS
func (e LogEntry) TimeOfDay() string {
	return fmt.Sprintf("%02d:%02d:%02d", e.Hour, e.Minute, e.Second)
}

// AlertKind tells a raised alert apart from a cleared one
type AlertKind string

const (
	AlertRaised  AlertKind = "alert"
	AlertCleared AlertKind = "clear"
)

// AlertEvent describes a single threshold crossing
type AlertEvent struct {
	Kind      AlertKind `json:"kind"`
	Threshold float64   `json:"threshold"`
	Rate      float64   `json:"rate"`
	Timestamp int64     `json:"timestamp"`
	TimeOfDay string    `json:"time_of_day"`
	Entry     LogEntry  `json:"entry"`
	At        time.Time `json:"at"`
}

// WindowStats is a snapshot of the counts currently held in the backlog
type WindowStats struct {
	Methods map[string]int `json:"methods"`
	Total   int            `json:"total"`
}

// Method returns the windowed count for a request method
func (s WindowStats) Method(method string) int {
	return s.Methods[method]
}

// HitCounts holds run-lifetime request counts that are never evicted
type HitCounts struct {
	Requests int64 `json:"requests"`
	GET      int64 `json:"get"`
	POST     int64 `json:"post"`
}

// StatsReport is emitted on every reporting tick
type StatsReport struct {
	GeneratedAt   time.Time `json:"generated_at"`
	WindowSeconds int64     `json:"window_seconds"`
	WindowGET     int       `json:"window_get"`
	WindowPOST    int       `json:"window_post"`
	WindowTotal   int       `json:"window_total"`
	TotalGET      int64     `json:"total_get"`
	TotalPOST     int64     `json:"total_post"`
	TotalRequests int64     `json:"total_requests"`
	Rate          float64   `json:"rate"`
	Threshold     float64   `json:"threshold"`
	AlertActive   bool      `json:"alert_active"`
}
