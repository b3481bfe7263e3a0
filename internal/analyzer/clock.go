package analyzer

import "github.com/justin4957/logflow-monitor/pkg/models"

// DaySeconds is the span a time-of-day timestamp can address
const DaySeconds = 86400

// Timestamp is a reconstructed log time in seconds since an arbitrary epoch
type Timestamp int64

// DayClock extends time-of-day values into a non-decreasing scalar clock.
// A value lower than the previous one is taken to mean the log crossed
// midnight. Seconds-of-day past DaySeconds may need more than one rollover.
type DayClock struct {
	offset int64
	last   Timestamp
}

// Next returns the reconstructed timestamp for an entry
func (c *DayClock) Next(entry models.LogEntry) Timestamp {
	raw := entry.SecondsOfDay()
	candidate := Timestamp(raw + c.offset*DaySeconds)
	for candidate < c.last {
		c.offset++
		candidate = Timestamp(raw + c.offset*DaySeconds)
	}
	c.last = candidate
	return candidate
}

// Offset returns the number of day rollovers seen so far
func (c *DayClock) Offset() int64 {
	return c.offset
}

// Last returns the most recently produced timestamp
func (c *DayClock) Last() Timestamp {
	return c.last
}
