package spillsort

import (
	"context"
	"io"
)

// DefaultRecordSize is the size estimate used for records of sources built
// without a SizeFunc.
const DefaultRecordSize = 64

// SliceSource reads records from a slice.
type SliceSource[E any] struct {
	items  []E
	pos    int
	size   SizeFunc[E]
	closed bool
}

// NewSliceSource returns a source yielding items in order. size estimates the
// in-memory size of a record; when nil every record counts as DefaultRecordSize.
func NewSliceSource[E any](items []E, size SizeFunc[E]) *SliceSource[E] {
	return &SliceSource[E]{items: items, size: size}
}

func (s *SliceSource[E]) Next() (E, error) {
	if s.closed || s.pos >= len(s.items) {
		var zero E
		return zero, io.EOF
	}
	rec := s.items[s.pos]
	s.pos++
	return rec, nil
}

func (s *SliceSource[E]) EstimateSize(rec E) int {
	if s.size != nil {
		return s.size(rec)
	}
	return DefaultRecordSize
}

// Close drops the reference to the slice.
func (s *SliceSource[E]) Close() error {
	s.closed = true
	s.items = nil
	return nil
}

// ChanSource reads records from a channel until it is closed.
type ChanSource[E any] struct {
	ctx  context.Context
	ch   <-chan E
	size SizeFunc[E]
}

// NewChanSource returns a source receiving from ch. Next fails with
// context.Cause(ctx) once ctx is done.
func NewChanSource[E any](ctx context.Context, ch <-chan E, size SizeFunc[E]) *ChanSource[E] {
	return &ChanSource[E]{ctx: ctx, ch: ch, size: size}
}

func (s *ChanSource[E]) Next() (E, error) {
	var zero E
	select {
	case rec, ok := <-s.ch:
		if !ok {
			return zero, io.EOF
		}
		return rec, nil
	case <-s.ctx.Done():
		return zero, context.Cause(s.ctx)
	}
}

func (s *ChanSource[E]) EstimateSize(rec E) int {
	if s.size != nil {
		return s.size(rec)
	}
	return DefaultRecordSize
}

// Close does nothing; the channel belongs to its sender.
func (s *ChanSource[E]) Close() error {
	return nil
}

// SliceSink collects records in memory.
type SliceSink[E any] struct {
	items  []E
	closed bool
}

// NewSliceSink returns an empty SliceSink.
func NewSliceSink[E any]() *SliceSink[E] {
	return &SliceSink[E]{}
}

func (s *SliceSink[E]) Write(rec E) error {
	if s.closed {
		return ErrClosed
	}
	s.items = append(s.items, rec)
	return nil
}

func (s *SliceSink[E]) Close() error {
	s.closed = true
	return nil
}

// Items returns the records written so far.
func (s *SliceSink[E]) Items() []E {
	return s.items
}

// Closed reports whether Close was called.
func (s *SliceSink[E]) Closed() bool {
	return s.closed
}

// ChanSink sends records to a channel and closes it on Close.
type ChanSink[E any] struct {
	ctx context.Context
	ch  chan<- E
}

// NewChanSink returns a sink sending to ch. Write fails with
// context.Cause(ctx) once ctx is done.
func NewChanSink[E any](ctx context.Context, ch chan<- E) *ChanSink[E] {
	return &ChanSink[E]{ctx: ctx, ch: ch}
}

func (s *ChanSink[E]) Write(rec E) error {
	select {
	case s.ch <- rec:
		return nil
	case <-s.ctx.Done():
		return context.Cause(s.ctx)
	}
}

func (s *ChanSink[E]) Close() error {
	close(s.ch)
	return nil
}

// FuncSink calls a function for every record.
type FuncSink[E any] func(E) error

func (f FuncSink[E]) Write(rec E) error {
	return f(rec)
}

func (f FuncSink[E]) Close() error {
	return nil
}
