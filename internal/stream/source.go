package stream

import (
	"errors"
	"io"
	"time"
)

// ErrWouldBlock is returned by Source.ReadNonblock when no data is available
// yet but the stream is still open.
var ErrWouldBlock = errors.New("read would block")

// Source is an input stream read without blocking.
//
// ReadNonblock returns ErrWouldBlock when nothing is available right now and
// io.EOF when the writer has nothing more for the moment. WaitReadable
// suspends until data may be available or the timeout elapses.
type Source interface {
	ReadNonblock(p []byte) (int, error)
	WaitReadable(timeout time.Duration) error
}

// Waker is implemented by sources whose WaitReadable can be cut short from
// another goroutine
type Waker interface {
	Wake()
}

// readerSource adapts a plain io.Reader. Reads may block; there is nothing
// to wait on.
type readerSource struct {
	r io.Reader
}

// NewReaderSource wraps r as a Source. Useful for in-memory input.
func NewReaderSource(r io.Reader) Source {
	return &readerSource{r: r}
}

func (s *readerSource) ReadNonblock(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if n > 0 {
		return n, nil
	}
	if err == nil {
		return 0, ErrWouldBlock
	}
	return 0, err
}

func (s *readerSource) WaitReadable(time.Duration) error {
	return nil
}
