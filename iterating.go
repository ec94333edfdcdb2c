package spillsort

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/hashicorp/go-multierror"
)

// IteratingSorter sorts a Source and hands back the result as an Iterator
// instead of writing it to a Sink.
//
// The temporary runs backing an Iterator stay in storage until Close is
// called or the next Sort starts. An IteratingSorter may be reused, one sort
// at a time, and must be closed when no longer needed.
type IteratingSorter[E any] struct {
	State

	config        Config
	sourceFactory SourceFactory[E]
	sinkFactory   SinkFactory[E]
	compare       CompareFunc[E]

	engine *engine[E]
	merged Source[E]
	iter   *Iterator[E]
}

// NewIterating returns an IteratingSorter. The arguments are those of New.
func NewIterating[E any](config Config, sourceFactory SourceFactory[E], sinkFactory SinkFactory[E], compare CompareFunc[E]) *IteratingSorter[E] {
	return &IteratingSorter[E]{
		config:        config,
		sourceFactory: sourceFactory,
		sinkFactory:   sinkFactory,
		compare:       compare,
	}
}

// NewIteratingWithCodec is NewIterating with one codec serving as both factories.
func NewIteratingWithCodec[E any](config Config, codec Codec[E], compare CompareFunc[E]) *IteratingSorter[E] {
	return NewIterating[E](config, codec, codec, compare)
}

// Config returns the sorter configuration.
func (s *IteratingSorter[E]) Config() Config {
	return s.config
}

// SortStream decodes records from r with the source factory and sorts them.
// r is not closed.
func (s *IteratingSorter[E]) SortStream(ctx context.Context, r io.Reader) (*Iterator[E], error) {
	if r == nil {
		return nil, fmt.Errorf("%w: reader is required", ErrNilArgument)
	}
	if s.sourceFactory == nil {
		return nil, fmt.Errorf("%w: source factory is required", ErrNilArgument)
	}
	src, err := s.sourceFactory.NewSource(r)
	if err != nil {
		return nil, err
	}
	return s.Sort(ctx, src)
}

// Sort reads every record from src and returns an Iterator over them in
// sorted order. src is closed exactly once before Sort returns.
//
// Resources held for the previous call, including its Iterator, are released
// first. A sort stopped by Cancel returns a nil Iterator and a nil error; one
// stopped by CancelWithError or ctx returns that failure. On any failure or
// cancellation every temporary run of the call has been deleted.
func (s *IteratingSorter[E]) Sort(ctx context.Context, src Source[E]) (it *Iterator[E], err error) {
	if src == nil {
		return nil, fmt.Errorf("%w: source is required", ErrNilArgument)
	}
	closeSource := closeOnce(src)
	defer func() {
		_ = closeSource()
	}()

	if err := s.Close(); err != nil {
		s.config.Logger().Warn("failed to release previous sort", "error", err)
	}
	s.reset()
	e, err := newEngine(s.config, &s.State, s.sourceFactory, s.sinkFactory, s.compare)
	if err != nil {
		return nil, err
	}
	s.engine = e
	defer func() {
		if it == nil {
			s.release()
		}
	}()

	s.setPhase(PhasePreSorting)
	res, err := e.presort(ctx, src)
	if err != nil {
		_, err = outcome(err)
		return nil, err
	}
	if err := closeSource(); err != nil {
		return nil, fmt.Errorf("close input: %w", err)
	}

	s.setPhase(PhaseSorting)
	var out Source[E]
	if res.inMemory {
		out = NewSliceSource(res.batch, nil)
	} else {
		if out, err = e.merge(ctx, res.runs); err != nil {
			_, err = outcome(err)
			return nil, err
		}
		s.merged = out
	}
	if err := e.checkpoint(ctx); err != nil {
		_, err = outcome(err)
		return nil, err
	}
	s.iter = &Iterator[E]{src: out}
	s.setPhase(PhaseComplete)
	return s.iter, nil
}

// Close invalidates the current Iterator, releases the final merge and
// deletes every temporary run still held. It is safe to call more than once.
func (s *IteratingSorter[E]) Close() error {
	var result *multierror.Error
	if s.iter != nil {
		s.iter.invalidate()
		s.iter = nil
	}
	if s.merged != nil {
		if err := s.merged.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		s.merged = nil
	}
	if s.engine != nil {
		if err := s.engine.cleanup(); err != nil {
			result = multierror.Append(result, err)
		}
		s.engine = nil
	}
	return result.ErrorOrNil()
}

// release is Close for a failed call: errors are logged, never returned.
func (s *IteratingSorter[E]) release() {
	if err := s.Close(); err != nil {
		s.config.Logger().Warn("failed to release temporary runs", "error", err)
	}
}

// Iterator walks the records of a finished sort in order.
//
//	for it.Next() {
//		use(it.Value())
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
//
// An Iterator is only valid until its IteratingSorter is closed or sorts again.
type Iterator[E any] struct {
	src  Source[E]
	cur  E
	err  error
	done bool
}

// Next advances to the next record and reports whether there is one.
func (it *Iterator[E]) Next() bool {
	if it.done {
		return false
	}
	rec, err := it.src.Next()
	if err != nil {
		var zero E
		it.cur = zero
		it.done = true
		if !errors.Is(err, io.EOF) {
			it.err = err
		}
		return false
	}
	it.cur = rec
	return true
}

// Value returns the record Next advanced to.
func (it *Iterator[E]) Value() E {
	return it.cur
}

// Err returns the error that stopped iteration, if any. Reaching the end of
// the records is not an error.
func (it *Iterator[E]) Err() error {
	return it.err
}

// All returns the remaining records as a sequence for use with range.
// Check Err after the loop.
func (it *Iterator[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for it.Next() {
			if !yield(it.Value()) {
				return
			}
		}
	}
}

func (it *Iterator[E]) invalidate() {
	if !it.done {
		var zero E
		it.cur = zero
		it.done = true
		it.err = ErrClosed
	}
}
