package spillsort

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// CBORCodec stores records as a sequence of CBOR data items. It is usually
// more compact than gob or JSON and handles maps and interface values.
type CBORCodec[E any] struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
	size    SizeFunc[E]
}

// CBOR returns a CBOR codec. Without WithSizeFunc, a record's size estimate
// is the length of its encoding.
func CBOR[E any]() (*CBORCodec[E], error) {
	encMode, err := cbor.EncOptions{
		Sort:          cbor.SortNone,          // keep map order, it is irrelevant to sorting
		ShortestFloat: cbor.ShortestFloatNone, // floats must read back bit for bit
		BigIntConvert: cbor.BigIntConvertNone,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("create CBOR encoder: %w", err)
	}
	decMode, err := cbor.DecOptions{
		IndefLength:     cbor.IndefLengthAllowed,
		MaxNestedLevels: 64,
		IntDec:          cbor.IntDecConvertSigned,
		UTF8:            cbor.UTF8DecodeInvalid,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("create CBOR decoder: %w", err)
	}
	return &CBORCodec[E]{encMode: encMode, decMode: decMode}, nil
}

// WithSizeFunc returns a copy of the codec whose sources estimate record
// sizes with size.
func (c *CBORCodec[E]) WithSizeFunc(size SizeFunc[E]) *CBORCodec[E] {
	cp := *c
	cp.size = size
	return &cp
}

func (c *CBORCodec[E]) NewSink(w io.Writer) (Sink[E], error) {
	bw := bufio.NewWriterSize(w, 64*1024)
	return &cborSink[E]{w: bw, enc: c.encMode.NewEncoder(bw)}, nil
}

func (c *CBORCodec[E]) NewSource(r io.Reader) (Source[E], error) {
	return &cborSource[E]{dec: c.decMode.NewDecoder(r), size: c.size}, nil
}

type cborSink[E any] struct {
	w   *bufio.Writer
	enc *cbor.Encoder
}

func (s *cborSink[E]) Write(rec E) error {
	if err := s.enc.Encode(rec); err != nil {
		return NewSerializationError(err, "cbor record")
	}
	return nil
}

func (s *cborSink[E]) Close() error {
	if err := s.w.Flush(); err != nil {
		return NewDiskError(err, "flush records", "")
	}
	return nil
}

type cborSource[E any] struct {
	dec      *cbor.Decoder
	size     SizeFunc[E]
	lastSize int
	eof      bool
}

func (s *cborSource[E]) Next() (E, error) {
	var rec E
	if s.eof {
		return rec, io.EOF
	}
	start := s.dec.NumBytesRead()
	if err := s.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			s.eof = true
			return rec, io.EOF
		}
		return rec, NewDeserializationError(err, 0, "cbor record")
	}
	s.lastSize = s.dec.NumBytesRead() - start
	return rec, nil
}

func (s *cborSource[E]) EstimateSize(rec E) int {
	if s.size != nil {
		return s.size(rec)
	}
	return s.lastSize
}

func (s *cborSource[E]) Close() error {
	return nil
}
