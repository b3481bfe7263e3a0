package analyzer

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/justin4957/logflow-monitor/pkg/models"
)

// entryAt creates a test log entry at the given time of day
func entryAt(hour, minute, second int, method string) models.LogEntry {
	e := models.LogEntry{
		Hour:   hour,
		Minute: minute,
		Second: second,
		Method: method,
		Path:   "/test",
	}
	e.Raw = e.TimeOfDay() + " " + method + " /test"
	return e
}

// entryAtSecond creates a test entry from seconds since midnight
func entryAtSecond(secondOfDay int64, method string) models.LogEntry {
	s := int(secondOfDay % DaySeconds)
	return entryAt(s/3600, (s/60)%60, s%60, method)
}

func TestDayClock_IncreasingWithinDay(t *testing.T) {
	var clock DayClock

	times := [][3]int{{0, 0, 1}, {0, 0, 2}, {9, 15, 0}, {13, 45, 12}, {23, 59, 59}}
	for _, tm := range times {
		ts := clock.Next(entryAt(tm[0], tm[1], tm[2], "GET"))
		expected := Timestamp(tm[0]*3600 + tm[1]*60 + tm[2])
		if ts != expected {
			t.Errorf("Expected %d for %02d:%02d:%02d, got %d", expected, tm[0], tm[1], tm[2], ts)
		}
	}

	if clock.Offset() != 0 {
		t.Errorf("Expected no day offset, got %d", clock.Offset())
	}
}

func TestDayClock_FirstEntryAtMidnight(t *testing.T) {
	var clock DayClock

	if ts := clock.Next(entryAt(0, 0, 0, "GET")); ts != 0 {
		t.Errorf("Expected 0, got %d", ts)
	}
	if clock.Offset() != 0 {
		t.Error("First entry must never be treated as a rollover")
	}
}

func TestDayClock_SingleRollover(t *testing.T) {
	var clock DayClock

	first := clock.Next(entryAt(23, 59, 59, "GET"))
	second := clock.Next(entryAt(0, 0, 1, "GET"))
	third := clock.Next(entryAt(0, 0, 5, "GET"))

	if first != 86399 {
		t.Errorf("Expected 86399, got %d", first)
	}
	if second != DaySeconds+1 {
		t.Errorf("Expected %d after rollover, got %d", DaySeconds+1, second)
	}
	if third != DaySeconds+5 {
		t.Errorf("Expected %d, got %d", DaySeconds+5, third)
	}
	if clock.Offset() != 1 {
		t.Errorf("Expected exactly one day offset, got %d", clock.Offset())
	}
}

// TestDayClock_OutOfRangeHourStaysMonotonic covers entries built by hand
// with hours the parser would reject
func TestDayClock_OutOfRangeHourStaysMonotonic(t *testing.T) {
	var clock DayClock

	late := clock.Next(entryAt(29, 0, 0, "GET"))
	next := clock.Next(entryAt(0, 0, 1, "GET"))

	if late != 29*3600 {
		t.Errorf("Expected %d, got %d", 29*3600, late)
	}
	if next < late {
		t.Fatalf("Timestamp went backwards: %d after %d", next, late)
	}
	if next != 2*DaySeconds+1 {
		t.Errorf("Expected %d, got %d", 2*DaySeconds+1, next)
	}
	if clock.Offset() != 2 {
		t.Errorf("Expected two day offsets, got %d", clock.Offset())
	}
}

func TestDayClock_EqualTimesAreEqual(t *testing.T) {
	var clock DayClock

	a := clock.Next(entryAt(12, 0, 0, "GET"))
	b := clock.Next(entryAt(12, 0, 0, "POST"))

	if a != b {
		t.Errorf("Expected equal timestamps, got %d and %d", a, b)
	}
	if clock.Offset() != 0 {
		t.Error("Equal time of day must not advance the day")
	}
}

func TestDayClock_Property_NonDecreasing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var clock DayClock
		seconds := rapid.SliceOfN(rapid.Int64Range(0, DaySeconds-1), 1, 200).Draw(t, "seconds")

		var last Timestamp
		for i, s := range seconds {
			ts := clock.Next(entryAtSecond(s, "GET"))
			if ts < last {
				t.Fatalf("step %d: timestamp went backwards: %d < %d", i, ts, last)
			}
			if int64(ts)%DaySeconds != s {
				t.Fatalf("step %d: time of day not preserved: %d vs %d", i, int64(ts)%DaySeconds, s)
			}
			if clock.Last() != ts {
				t.Fatalf("step %d: Last() = %d, want %d", i, clock.Last(), ts)
			}
			last = ts
		}
	})
}
