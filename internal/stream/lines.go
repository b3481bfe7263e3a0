package stream

import "bytes"

// LineSplitter cuts a byte stream into lines, carrying an unterminated tail
// over to the next chunk.
type LineSplitter struct {
	carry []byte
}

// Feed appends chunk to the pending tail and calls emit for every complete
// line, without its terminator. A trailing '\r' is dropped as well.
func (s *LineSplitter) Feed(chunk []byte, emit func(line string)) {
	data := chunk
	if len(s.carry) > 0 {
		s.carry = append(s.carry, chunk...)
		data = s.carry
	}

	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		emit(string(bytes.TrimSuffix(data[:i], []byte{'\r'})))
		data = data[i+1:]
	}

	// data may alias carry; append copies with overlap handled
	s.carry = append(s.carry[:0], data...)
}

// Pending returns the number of buffered bytes of an unterminated line
func (s *LineSplitter) Pending() int {
	return len(s.carry)
}
