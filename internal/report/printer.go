package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/justin4957/logflow-monitor/pkg/models"
)

// WallClockLayout formats the wall-clock time printed with alerts
const WallClockLayout = "2006-01-02 15:04:05 -0700"

// Printer writes stats reports and alert lines as plain text. It satisfies
// analyzer.AlertHandler, so it can be handed to the backlog directly.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a printer writing to out
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// PrintStats writes the cumulative and windowed counts side by side
func (p *Printer) PrintStats(r models.StatsReport) {
	header := fmt.Sprintf("Total traffic stats / Last %d seconds", r.WindowSeconds)

	var b strings.Builder
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("=", len(header)) + "\n")
	fmt.Fprintf(&b, "GET requests: %d / %d\n", r.TotalGET, r.WindowGET)
	fmt.Fprintf(&b, "POST requests: %d / %d\n", r.TotalPOST, r.WindowPOST)
	fmt.Fprintf(&b, "Total requests: %d / %d\n\n", r.TotalRequests, r.WindowTotal)

	io.WriteString(p.out, b.String())
}

func (p *Printer) OnAlert(e models.AlertEvent) {
	fmt.Fprintf(p.out,
		"* WARNING: Traffic limit over %g, alert triggered at %s on log line timestamped at %s\n",
		e.Threshold, wallClock(e.At), e.TimeOfDay)
}

func (p *Printer) OnClear(e models.AlertEvent) {
	fmt.Fprintf(p.out,
		"* WARNING: Traffic back to normal at %s on log line timestamped at %s\n",
		wallClock(e.At), e.TimeOfDay)
}

func wallClock(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format(WallClockLayout)
}
