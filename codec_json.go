package spillsort

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
)

// JSONCodec stores records as newline separated JSON values.
type JSONCodec[E any] struct {
	size SizeFunc[E]
}

// JSON returns a JSON codec. Without WithSizeFunc, a record's size estimate is
// the length of its JSON text.
func JSON[E any]() *JSONCodec[E] {
	return &JSONCodec[E]{}
}

// WithSizeFunc returns a copy of the codec whose sources estimate record
// sizes with size.
func (c *JSONCodec[E]) WithSizeFunc(size SizeFunc[E]) *JSONCodec[E] {
	return &JSONCodec[E]{size: size}
}

func (c *JSONCodec[E]) NewSink(w io.Writer) (Sink[E], error) {
	bw := bufio.NewWriterSize(w, 64*1024)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &jsonSink[E]{w: bw, enc: enc}, nil
}

func (c *JSONCodec[E]) NewSource(r io.Reader) (Source[E], error) {
	return &jsonSource[E]{dec: json.NewDecoder(r), size: c.size}, nil
}

type jsonSink[E any] struct {
	w   *bufio.Writer
	enc *json.Encoder
}

func (s *jsonSink[E]) Write(rec E) error {
	if err := s.enc.Encode(rec); err != nil {
		return NewSerializationError(err, "json record")
	}
	return nil
}

func (s *jsonSink[E]) Close() error {
	if err := s.w.Flush(); err != nil {
		return NewDiskError(err, "flush records", "")
	}
	return nil
}

type jsonSource[E any] struct {
	dec      *json.Decoder
	size     SizeFunc[E]
	lastSize int
	eof      bool
}

func (s *jsonSource[E]) Next() (E, error) {
	var rec E
	if s.eof {
		return rec, io.EOF
	}
	start := s.dec.InputOffset()
	if err := s.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			s.eof = true
			return rec, io.EOF
		}
		return rec, NewDeserializationError(err, 0, "json record")
	}
	s.lastSize = int(s.dec.InputOffset() - start)
	return rec, nil
}

func (s *jsonSource[E]) EstimateSize(rec E) int {
	if s.size != nil {
		return s.size(rec)
	}
	return s.lastSize
}

func (s *jsonSource[E]) Close() error {
	return nil
}
