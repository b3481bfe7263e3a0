package analyzer

import (
	"time"

	"github.com/justin4957/logflow-monitor/pkg/models"
)

// AlertHandler receives threshold crossings. Each method is called once per
// transition, synchronously, from the goroutine that added the entry.
type AlertHandler interface {
	OnAlert(event models.AlertEvent)
	OnClear(event models.AlertEvent)
}

// AlertFuncs adapts a pair of functions to AlertHandler. Nil fields are
// skipped.
type AlertFuncs struct {
	Alert func(models.AlertEvent)
	Clear func(models.AlertEvent)
}

func (f AlertFuncs) OnAlert(event models.AlertEvent) {
	if f.Alert != nil {
		f.Alert(event)
	}
}

func (f AlertFuncs) OnClear(event models.AlertEvent) {
	if f.Clear != nil {
		f.Clear(event)
	}
}

// ThresholdAlert is a two-state edge-triggered alert on a request rate.
//
// A rate exactly equal to the threshold leaves the state unchanged in both
// directions.
type ThresholdAlert struct {
	threshold float64
	active    bool
	handler   AlertHandler
	now       func() time.Time
}

// NewThresholdAlert creates an alert engine in the Normal state
func NewThresholdAlert(threshold float64, handler AlertHandler) *ThresholdAlert {
	if handler == nil {
		handler = AlertFuncs{}
	}
	return &ThresholdAlert{
		threshold: threshold,
		handler:   handler,
		now:       time.Now,
	}
}

// Evaluate compares size/windowSeconds against the threshold and fires the
// handler on a state change. It reports whether a transition happened.
func (a *ThresholdAlert) Evaluate(size int, windowSeconds int64, ts Timestamp, trigger models.LogEntry) bool {
	rate := float64(size) / float64(windowSeconds)

	switch {
	case rate > a.threshold && !a.active:
		a.active = true
		a.handler.OnAlert(a.event(models.AlertRaised, rate, ts, trigger))
		return true
	case rate < a.threshold && a.active:
		a.active = false
		a.handler.OnClear(a.event(models.AlertCleared, rate, ts, trigger))
		return true
	}
	return false
}

// Active reports whether the engine is in the Alerting state
func (a *ThresholdAlert) Active() bool {
	return a.active
}

// Threshold returns the configured rate threshold in requests per second
func (a *ThresholdAlert) Threshold() float64 {
	return a.threshold
}

func (a *ThresholdAlert) event(kind models.AlertKind, rate float64, ts Timestamp, trigger models.LogEntry) models.AlertEvent {
	return models.AlertEvent{
		Kind:      kind,
		Threshold: a.threshold,
		Rate:      rate,
		Timestamp: int64(ts),
		TimeOfDay: trigger.TimeOfDay(),
		Entry:     trigger,
		At:        a.now(),
	}
}
