package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/justin4957/logflow-monitor/internal/analyzer"
	"github.com/justin4957/logflow-monitor/internal/parser"
	"github.com/justin4957/logflow-monitor/pkg/models"
)

const (
	// DefaultStride is the most bytes requested per read
	DefaultStride = 4096

	// maxIdleWait caps the wait at end of stream
	maxIdleWait = time.Second
)

// Options tunes a LogStream. Zero values select defaults.
type Options struct {
	Interval time.Duration
	Stride   int
	Clock    Clock
	Idle     IdleWaiter
	Logger   *log.Logger

	// OnReport is called on every reporting tick
	OnReport func(models.StatsReport)
}

// LogStream is the ingest loop: it reads the source without blocking, turns
// bytes into lines and lines into entries, and emits a stats report on a
// fixed wall-clock cadence regardless of when input arrives.
//
// Everything runs on the goroutine that calls Run.
type LogStream struct {
	source   Source
	parser   parser.LogParser
	stats    *analyzer.TrafficStats
	splitter LineSplitter
	buf      []byte

	interval time.Duration
	clock    Clock
	idle     IdleWaiter
	logger   *log.Logger
	onReport func(models.StatsReport)

	accepted int64
	rejected int64
}

// NewLogStream creates the ingest loop over source
func NewLogStream(source Source, p parser.LogParser, stats *analyzer.TrafficStats, opts Options) *LogStream {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.Stride <= 0 {
		opts.Stride = DefaultStride
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Idle == nil {
		opts.Idle = SleepWaiter{Clock: opts.Clock}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr, "", 0)
	}
	if opts.OnReport == nil {
		opts.OnReport = func(models.StatsReport) {}
	}

	return &LogStream{
		source:   source,
		parser:   p,
		stats:    stats,
		buf:      make([]byte, opts.Stride),
		interval: opts.Interval,
		clock:    opts.Clock,
		idle:     opts.Idle,
		logger:   opts.Logger,
		onReport: opts.OnReport,
	}
}

// Run loops until ctx is cancelled or the source fails. End of stream is
// not terminal: the loop keeps polling for appended data. Sources that
// implement Waker are woken on cancellation.
func (ls *LogStream) Run(ctx context.Context) error {
	// Cancellation must not wait out a readiness wait on an idle source
	if w, ok := ls.source.(Waker); ok {
		stop := context.AfterFunc(ctx, w.Wake)
		defer stop()
	}

	deadline := ls.clock.Now().Add(ls.interval)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// The deadline is independent of input, so remaining is recomputed
		// on every pass
		now := ls.clock.Now()
		remaining := deadline.Sub(now)
		if remaining <= 0 {
			ls.onReport(ls.stats.Report(now))
			deadline = now.Add(ls.interval)
			remaining = ls.interval
		}

		n, err := ls.source.ReadNonblock(ls.buf)
		switch {
		case err == nil:
			ls.Feed(ls.buf[:n])

		case errors.Is(err, ErrWouldBlock):
			if err := ls.source.WaitReadable(remaining); err != nil {
				return fmt.Errorf("failed waiting for input: %w", err)
			}

		case errors.Is(err, io.EOF):
			if err := ls.idle.Wait(min(maxIdleWait, remaining)); err != nil {
				return fmt.Errorf("failed waiting at end of input: %w", err)
			}

		default:
			return fmt.Errorf("failed to read input: %w", err)
		}
	}
}

// Feed pushes raw bytes through line splitting, parsing and the backlog
func (ls *LogStream) Feed(chunk []byte) {
	ls.splitter.Feed(chunk, ls.processLine)
}

func (ls *LogStream) processLine(line string) {
	if line == "" {
		return
	}

	entry, err := ls.parser.Parse(line)
	if err != nil {
		ls.rejected++
		ls.logger.Printf("*** Ignoring line - %v", err)
		return
	}

	ls.accepted++
	ls.stats.Record(*entry)
}

// Stats returns the aggregate fed by this stream
func (ls *LogStream) Stats() *analyzer.TrafficStats {
	return ls.stats
}

// Accepted returns the number of lines folded into the stats
func (ls *LogStream) Accepted() int64 {
	return ls.accepted
}

// Rejected returns the number of lines discarded for bad format
func (ls *LogStream) Rejected() int64 {
	return ls.rejected
}
