package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/justin4957/logflow-monitor/pkg/models"
)

// ErrBadFormat is wrapped by every FormatError
var ErrBadFormat = errors.New("bad format")

// FormatError reports a line that does not match the access log grammar
type FormatError struct {
	Line string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: %s", ErrBadFormat, e.Line)
}

func (e *FormatError) Unwrap() error {
	return ErrBadFormat
}

// LogParser turns a raw line into a LogEntry
type LogParser interface {
	Parse(line string) (*models.LogEntry, error)
}

// NewParser creates the parser for the time-of-day access log format
func NewParser() LogParser {
	return &AccessParser{}
}

// accessLineRegex matches "HH:MM:SS METHOD /path". Hours 24-29 match the
// pattern and are rejected in Parse.
var accessLineRegex = regexp.MustCompile(
	`^([0-2]\d):([0-5]\d):([0-5]\d)\s(\S+)\s(/\S*)$`,
)

// AccessParser parses lines of the form "13:45:12 GET /api/x"
type AccessParser struct{}

func (p *AccessParser) Parse(line string) (*models.LogEntry, error) {
	matches := accessLineRegex.FindStringSubmatch(line)
	if len(matches) != 6 {
		return nil, &FormatError{Line: line}
	}

	// The regex guarantees two ASCII digits per field
	hour, _ := strconv.Atoi(matches[1])
	if hour > 23 {
		return nil, &FormatError{Line: line}
	}
	minute, _ := strconv.Atoi(matches[2])
	second, _ := strconv.Atoi(matches[3])

	return &models.LogEntry{
		Hour:   hour,
		Minute: minute,
		Second: second,
		Method: strings.ToUpper(matches[4]),
		Path:   matches[5],
		Raw:    line,
	}, nil
}
