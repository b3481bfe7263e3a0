//go:build !unix

package stream

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// FileSource falls back to blocking reads where non-blocking descriptors
// and poll(2) are unavailable. Pipes then block inside ReadNonblock, which
// delays reports until input arrives.
type FileSource struct {
	file *os.File
}

func NewFileSource(f *os.File) (*FileSource, error) {
	return &FileSource{file: f}, nil
}

func (s *FileSource) ReadNonblock(p []byte) (int, error) {
	n, err := s.file.Read(p)
	if n > 0 {
		return n, nil
	}
	if errors.Is(err, io.EOF) {
		return 0, io.EOF
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", s.file.Name(), err)
	}
	return 0, ErrWouldBlock
}

func (s *FileSource) WaitReadable(time.Duration) error {
	return nil
}

func (s *FileSource) Close() error {
	return nil
}
