package spillsort

import (
	"bufio"
	"cmp"
	"encoding/gob"
	"errors"
	"io"
)

// GobCodec stores records with encoding/gob. Type information is sent once
// per run, so it suits any gob-encodable type without writing a serializer.
type GobCodec[E any] struct {
	size SizeFunc[E]
}

// Gob returns a gob codec. Without WithSizeFunc, a record's size estimate is
// the number of bytes its gob message took.
func Gob[E any]() *GobCodec[E] {
	return &GobCodec[E]{}
}

// WithSizeFunc returns a copy of the codec whose sources estimate record
// sizes with size.
func (c *GobCodec[E]) WithSizeFunc(size SizeFunc[E]) *GobCodec[E] {
	return &GobCodec[E]{size: size}
}

func (c *GobCodec[E]) NewSink(w io.Writer) (Sink[E], error) {
	bw := bufio.NewWriterSize(w, 64*1024)
	return &gobSink[E]{w: bw, enc: gob.NewEncoder(bw)}, nil
}

func (c *GobCodec[E]) NewSource(r io.Reader) (Source[E], error) {
	cr := &countingReader{r: bufio.NewReaderSize(r, 64*1024)}
	return &gobSource[E]{cr: cr, dec: gob.NewDecoder(cr), size: c.size}, nil
}

type gobSink[E any] struct {
	w   *bufio.Writer
	enc *gob.Encoder
}

func (s *gobSink[E]) Write(rec E) error {
	if err := s.enc.Encode(&rec); err != nil {
		return NewSerializationError(err, "gob record")
	}
	return nil
}

func (s *gobSink[E]) Close() error {
	if err := s.w.Flush(); err != nil {
		return NewDiskError(err, "flush records", "")
	}
	return nil
}

type gobSource[E any] struct {
	cr       *countingReader
	dec      *gob.Decoder
	size     SizeFunc[E]
	lastSize int
	eof      bool
}

func (s *gobSource[E]) Next() (E, error) {
	var rec E
	if s.eof {
		return rec, io.EOF
	}
	start := s.cr.n
	if err := s.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			s.eof = true
			return rec, io.EOF
		}
		return rec, NewDeserializationError(err, int(s.cr.n-start), "gob record")
	}
	s.lastSize = int(s.cr.n - start)
	return rec, nil
}

func (s *gobSource[E]) EstimateSize(rec E) int {
	if s.size != nil {
		return s.size(rec)
	}
	return s.lastSize
}

func (s *gobSource[E]) Close() error {
	return nil
}

// countingReader counts consumed bytes. It implements io.ByteReader so
// decoders read exactly what they need instead of adding their own buffer.
type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

// NewOrdered returns a Sorter for any cmp.Ordered type, ordered ascending
// with cmp.Compare and stored with gob.
func NewOrdered[T cmp.Ordered](config Config) *Sorter[T] {
	c := Gob[T]()
	return New[T](config, c, c, cmp.Compare[T])
}

// NewOrderedIterating is NewOrdered for the pull style.
func NewOrderedIterating[T cmp.Ordered](config Config) *IteratingSorter[T] {
	c := Gob[T]()
	return NewIterating[T](config, c, c, cmp.Compare[T])
}
