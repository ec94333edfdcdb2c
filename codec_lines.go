package spillsort

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// lineOverhead approximates the slice header and allocation slack of one line.
const lineOverhead = 24

// LinesCodec reads and writes newline separated text. A trailing "\r" before
// the newline is dropped, and a final line without a newline is still
// returned. Lines may be of any length.
type LinesCodec struct{}

// Lines returns the line codec.
func Lines() LinesCodec {
	return LinesCodec{}
}

func (LinesCodec) NewSource(r io.Reader) (Source[[]byte], error) {
	return &lineSource{r: bufio.NewReaderSize(r, 64*1024)}, nil
}

func (LinesCodec) NewSink(w io.Writer) (Sink[[]byte], error) {
	return &lineSink{w: bufio.NewWriterSize(w, 64*1024)}, nil
}

// NewLineSorter returns a Sorter ordering text lines by their bytes.
func NewLineSorter(config Config) *Sorter[[]byte] {
	return New[[]byte](config, Lines(), Lines(), bytes.Compare)
}

// NewLineIteratingSorter returns an IteratingSorter ordering text lines by their bytes.
func NewLineIteratingSorter(config Config) *IteratingSorter[[]byte] {
	return NewIterating[[]byte](config, Lines(), Lines(), bytes.Compare)
}

type lineSource struct {
	r   *bufio.Reader
	eof bool
}

func (s *lineSource) Next() ([]byte, error) {
	if s.eof {
		return nil, io.EOF
	}
	line, err := s.r.ReadBytes('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return nil, NewDiskError(err, "read line", "")
		}
		s.eof = true
		if len(line) == 0 {
			return nil, io.EOF
		}
		return trimCR(line), nil
	}
	return trimCR(line[:len(line)-1]), nil
}

func trimCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}

func (s *lineSource) EstimateSize(line []byte) int {
	return len(line) + lineOverhead
}

func (s *lineSource) Close() error {
	return nil
}

type lineSink struct {
	w *bufio.Writer
}

func (s *lineSink) Write(line []byte) error {
	if _, err := s.w.Write(line); err != nil {
		return NewDiskError(err, "write line", "")
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return NewDiskError(err, "write line", "")
	}
	return nil
}

func (s *lineSink) Close() error {
	if err := s.w.Flush(); err != nil {
		return NewDiskError(err, "flush lines", "")
	}
	return nil
}
