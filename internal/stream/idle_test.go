package stream

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleepWaiter_UsesClock(t *testing.T) {
	clock := &fakeClock{now: testEpoch}

	require.NoError(t, SleepWaiter{Clock: clock}.Wait(750*time.Millisecond))

	assert.Equal(t, []time.Duration{750 * time.Millisecond}, clock.sleeps)
	assert.Equal(t, testEpoch.Add(750*time.Millisecond), clock.Now())
}

func TestFileEventWaiter_TimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	w, err := NewFileEventWaiter(path)
	require.NoError(t, err)
	defer w.Close()

	start := time.Now()
	require.NoError(t, w.Wait(50*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestFileEventWaiter_WakesOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	w, err := NewFileEventWaiter(path)
	require.NoError(t, err)
	defer w.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return
		}
		f.WriteString("10:00:00 GET /a\n")
		f.Close()
	}()

	start := time.Now()
	require.NoError(t, w.Wait(5*time.Second))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestNewFileEventWaiter_MissingFile(t *testing.T) {
	_, err := NewFileEventWaiter(filepath.Join(t.TempDir(), "missing.log"))
	assert.Error(t, err)
}
