package spillsort

import (
	"bufio"
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// maxFrameSize bounds a single framed record; larger length prefixes are
// treated as corruption.
const maxFrameSize = 1 << 31

// FramedCodec stores each record as a uvarint length followed by the bytes
// produced by a ToBytesFunc.
type FramedCodec[E any] struct {
	toBytes   ToBytesFunc[E]
	fromBytes FromBytesFunc[E]
	size      SizeFunc[E]
}

// Framed returns a codec built from a pair of record (de)serializers.
// Without WithSizeFunc, a record's size estimate is its encoded length.
func Framed[E any](toBytes ToBytesFunc[E], fromBytes FromBytesFunc[E]) *FramedCodec[E] {
	return &FramedCodec[E]{toBytes: toBytes, fromBytes: fromBytes}
}

// WithSizeFunc returns a copy of the codec whose sources estimate record
// sizes with size.
func (c *FramedCodec[E]) WithSizeFunc(size SizeFunc[E]) *FramedCodec[E] {
	cp := *c
	cp.size = size
	return &cp
}

func (c *FramedCodec[E]) NewSink(w io.Writer) (Sink[E], error) {
	if c.toBytes == nil {
		return nil, fmt.Errorf("%w: framed codec needs a ToBytesFunc", ErrNilArgument)
	}
	return &framedSink[E]{w: bufio.NewWriterSize(w, 64*1024), toBytes: c.toBytes}, nil
}

func (c *FramedCodec[E]) NewSource(r io.Reader) (Source[E], error) {
	if c.fromBytes == nil {
		return nil, fmt.Errorf("%w: framed codec needs a FromBytesFunc", ErrNilArgument)
	}
	return &framedSource[E]{r: bufio.NewReaderSize(r, 64*1024), fromBytes: c.fromBytes, size: c.size}, nil
}

type framedSink[E any] struct {
	w       *bufio.Writer
	toBytes ToBytesFunc[E]
	scratch [binary.MaxVarintLen64]byte
}

func (s *framedSink[E]) Write(rec E) error {
	raw, err := s.toBytes(rec)
	if err != nil {
		return NewSerializationError(err, "framed record")
	}
	n := binary.PutUvarint(s.scratch[:], uint64(len(raw)))
	if _, err := s.w.Write(s.scratch[:n]); err != nil {
		return NewDiskError(err, "write record length", "")
	}
	if _, err := s.w.Write(raw); err != nil {
		return NewDiskError(err, "write record", "")
	}
	return nil
}

func (s *framedSink[E]) Close() error {
	if err := s.w.Flush(); err != nil {
		return NewDiskError(err, "flush records", "")
	}
	return nil
}

type framedSource[E any] struct {
	r         *bufio.Reader
	fromBytes FromBytesFunc[E]
	size      SizeFunc[E]
	lastSize  int
	eof       bool
}

func (s *framedSource[E]) Next() (E, error) {
	var zero E
	if s.eof {
		return zero, io.EOF
	}
	length, err := binary.ReadUvarint(s.r)
	if errors.Is(err, io.EOF) {
		s.eof = true
		return zero, io.EOF
	}
	if err != nil {
		return zero, NewDeserializationError(err, 0, "framed record length")
	}
	if length > maxFrameSize {
		return zero, NewDeserializationError(fmt.Errorf("frame length %d exceeds limit", length), 0, "framed record length")
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(s.r, raw); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return zero, NewDeserializationError(err, int(length), "framed record")
	}
	rec, err := s.fromBytes(raw)
	if err != nil {
		return zero, NewDeserializationError(err, int(length), "framed record")
	}
	s.lastSize = int(length)
	return rec, nil
}

func (s *framedSource[E]) EstimateSize(rec E) int {
	if s.size != nil {
		return s.size(rec)
	}
	return s.lastSize
}

func (s *framedSource[E]) Close() error {
	return nil
}

// Strings returns a framed codec for strings.
func Strings() *FramedCodec[string] {
	return Framed(
		func(s string) ([]byte, error) { return []byte(s), nil },
		func(b []byte) (string, error) { return string(b), nil },
	).WithSizeFunc(func(s string) int { return len(s) + 16 })
}

// Bytes returns a framed codec for byte slices.
func Bytes() *FramedCodec[[]byte] {
	return Framed(
		func(b []byte) ([]byte, error) { return b, nil },
		func(b []byte) ([]byte, error) { return b, nil },
	).WithSizeFunc(func(b []byte) int { return len(b) + 24 })
}

// NewStringSorter returns a Sorter ordering strings lexically, stored as framed records.
func NewStringSorter(config Config) *Sorter[string] {
	c := Strings()
	return New[string](config, c, c, cmp.Compare[string])
}
