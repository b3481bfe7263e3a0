package stream

import (
	"fmt"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Clock abstracts wall-clock time for the ingest loop
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

// SystemClock returns the real wall clock
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// IdleWaiter decides how to pass time once the input is at end of stream.
// A readiness wait would return immediately there, so the loop hands the
// bounded wait to an IdleWaiter instead.
type IdleWaiter interface {
	Wait(d time.Duration) error
}

// SleepWaiter sleeps for the whole duration
type SleepWaiter struct {
	Clock Clock
}

func (w SleepWaiter) Wait(d time.Duration) error {
	w.Clock.Sleep(d)
	return nil
}

// FileEventWaiter returns as soon as the tailed file is written to, or once
// the duration elapses. It is an optional replacement for SleepWaiter on
// regular files.
type FileEventWaiter struct {
	watcher *fsnotify.Watcher
	path    string
}

// NewFileEventWaiter watches path for writes
func NewFileEventWaiter(path string) (*FileEventWaiter, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch file: %w", err)
	}

	return &FileEventWaiter{watcher: watcher, path: path}, nil
}

func (w *FileEventWaiter) Wait(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				return nil
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error on %s: %v", w.path, err)

		case <-timer.C:
			return nil
		}
	}
}

// Close stops watching the file
func (w *FileEventWaiter) Close() error {
	return w.watcher.Close()
}
