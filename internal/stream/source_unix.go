//go:build unix

package stream

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// FileSource reads a file or pipe without blocking and waits for input
// with poll(2). A self-pipe is polled alongside the input so Wake can end a
// wait early.
type FileSource struct {
	file *os.File
	fd   int

	// gated sources keep their blocking mode and poll before every read
	gated bool

	wakeMu sync.Mutex
	wakeR  int
	wakeW  int
}

// NewFileSource switches f to non-blocking mode. Regular files ignore the
// flag and simply report EOF when caught up.
//
// Stdin is left in blocking mode: its file description is shared with the
// parent shell, which would stay non-blocking if the process were killed.
func NewFileSource(f *os.File) (*FileSource, error) {
	return newFileSource(f, f.Fd() == uintptr(unix.Stdin))
}

func newFileSource(f *os.File, gated bool) (*FileSource, error) {
	fd := int(f.Fd())
	if !gated {
		if err := unix.SetNonblock(fd, true); err != nil {
			return nil, fmt.Errorf("failed to set non-blocking mode on %s: %w", f.Name(), err)
		}
	}

	var wake [2]int
	if err := unix.Pipe(wake[:]); err != nil {
		if !gated {
			unix.SetNonblock(fd, false)
		}
		return nil, fmt.Errorf("failed to create wake pipe: %w", err)
	}
	for _, p := range wake {
		unix.CloseOnExec(p)
		unix.SetNonblock(p, true)
	}

	return &FileSource{file: f, fd: fd, gated: gated, wakeR: wake[0], wakeW: wake[1]}, nil
}

func (s *FileSource) ReadNonblock(p []byte) (int, error) {
	if s.gated {
		ready, err := s.poll(0)
		if err != nil {
			return 0, err
		}
		if !ready {
			return 0, ErrWouldBlock
		}
	}

	for {
		n, err := unix.Read(s.fd, p)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, ErrWouldBlock
		case err != nil:
			return 0, fmt.Errorf("failed to read %s: %w", s.file.Name(), err)
		case n == 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

func (s *FileSource) WaitReadable(timeout time.Duration) error {
	fds := []unix.PollFd{
		{Fd: int32(s.fd), Events: unix.POLLIN},
		{Fd: int32(s.wakeR), Events: unix.POLLIN},
	}

	// Round up so a sub-millisecond remainder does not turn into a busy loop
	ms := int((timeout + time.Millisecond - 1) / time.Millisecond)
	if _, err := unix.Poll(fds, ms); err != nil && !errors.Is(err, unix.EINTR) {
		return fmt.Errorf("failed to poll %s: %w", s.file.Name(), err)
	}

	if fds[1].Revents&unix.POLLIN != 0 {
		s.drainWake()
	}
	return nil
}

// Wake ends a pending or the next WaitReadable early. It is safe to call
// from any goroutine, also after Close.
func (s *FileSource) Wake() {
	s.wakeMu.Lock()
	defer s.wakeMu.Unlock()
	if s.wakeW >= 0 {
		unix.Write(s.wakeW, []byte{1})
	}
}

func (s *FileSource) drainWake() {
	var buf [64]byte
	for {
		n, err := unix.Read(s.wakeR, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// poll reports whether the input has data, end of stream or an error
// pending
func (s *FileSource) poll(ms int) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, ms)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return false, fmt.Errorf("failed to poll %s: %w", s.file.Name(), err)
		}
		return n > 0 && fds[0].Revents != 0, nil
	}
}

// Close releases the wake pipe and puts the descriptor back into blocking
// mode. The file itself is left open for its owner.
func (s *FileSource) Close() error {
	s.wakeMu.Lock()
	if s.wakeW >= 0 {
		unix.Close(s.wakeW)
		unix.Close(s.wakeR)
		s.wakeW, s.wakeR = -1, -1
	}
	s.wakeMu.Unlock()

	if s.gated {
		return nil
	}
	return unix.SetNonblock(s.fd, false)
}
