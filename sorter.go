// Package spillsort implements an external merge sort: it sorts record streams
// larger than memory by sorting bounded in-memory batches, spilling them to
// temporary storage as sorted runs, and merging the runs back in rounds of at
// most a configured number of runs at a time.
//
// Records are read from a Source and either pushed into a Sink (Sorter) or
// pulled through an Iterator (IteratingSorter). Codecs such as Lines, Framed,
// Gob, JSON and CBOR turn records into the bytes stored in temporary runs.
package spillsort

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Sorter sorts a Source into a Sink.
//
// A Sorter may be reused for any number of sorts, one at a time. Progress and
// cancellation are exposed through the embedded State and may be used from
// other goroutines while Sort runs.
type Sorter[E any] struct {
	State

	config        Config
	sourceFactory SourceFactory[E]
	sinkFactory   SinkFactory[E]
	compare       CompareFunc[E]
}

// New returns a Sorter ordering records with compare and storing temporary
// runs in the formats produced by sinkFactory and read by sourceFactory.
func New[E any](config Config, sourceFactory SourceFactory[E], sinkFactory SinkFactory[E], compare CompareFunc[E]) *Sorter[E] {
	return &Sorter[E]{
		config:        config,
		sourceFactory: sourceFactory,
		sinkFactory:   sinkFactory,
		compare:       compare,
	}
}

// NewWithCodec is New with one codec serving as both factories.
func NewWithCodec[E any](config Config, codec Codec[E], compare CompareFunc[E]) *Sorter[E] {
	return New[E](config, codec, codec, compare)
}

// Config returns the sorter configuration.
func (s *Sorter[E]) Config() Config {
	return s.config
}

// WithConfig returns a new Sorter identical to s except for its configuration.
func (s *Sorter[E]) WithConfig(config Config) *Sorter[E] {
	return New(config, s.sourceFactory, s.sinkFactory, s.compare)
}

// WithSourceFactory returns a new Sorter identical to s except for how runs are read.
func (s *Sorter[E]) WithSourceFactory(sf SourceFactory[E]) *Sorter[E] {
	return New(s.config, sf, s.sinkFactory, s.compare)
}

// WithSinkFactory returns a new Sorter identical to s except for how runs are written.
func (s *Sorter[E]) WithSinkFactory(kf SinkFactory[E]) *Sorter[E] {
	return New(s.config, s.sourceFactory, kf, s.compare)
}

// WithComparator returns a new Sorter identical to s except for the ordering.
func (s *Sorter[E]) WithComparator(compare CompareFunc[E]) *Sorter[E] {
	return New(s.config, s.sourceFactory, s.sinkFactory, compare)
}

// SortStream decodes records from r with the source factory, sorts them and
// encodes them onto w with the sink factory. Neither r nor w is closed.
func (s *Sorter[E]) SortStream(ctx context.Context, r io.Reader, w io.Writer) (bool, error) {
	if r == nil || w == nil {
		return false, fmt.Errorf("%w: reader and writer are required", ErrNilArgument)
	}
	if s.sourceFactory == nil || s.sinkFactory == nil {
		return false, fmt.Errorf("%w: source and sink factories are required", ErrNilArgument)
	}
	src, err := s.sourceFactory.NewSource(r)
	if err != nil {
		return false, err
	}
	sink, err := s.sinkFactory.NewSink(w)
	if err != nil {
		_ = src.Close()
		return false, err
	}
	return s.Sort(ctx, src, sink)
}

// Sort reads every record from src and writes them to sink in sorted order.
//
// It returns true once all records were written and sink was closed. A sort
// stopped by Cancel returns false and a nil error. A sort stopped by
// CancelWithError returns false and that error; a sort stopped by ctx returns
// false and context.Cause(ctx). Both src and sink are closed exactly once
// before Sort returns, and every temporary run created by the call has been
// deleted.
func (s *Sorter[E]) Sort(ctx context.Context, src Source[E], sink Sink[E]) (completed bool, err error) {
	if src == nil || sink == nil {
		return false, fmt.Errorf("%w: source and sink are required", ErrNilArgument)
	}
	closeSource := closeOnce(src)
	closeSink := closeOnce(sink)
	defer func() {
		_ = closeSource()
		_ = closeSink()
	}()

	s.reset()
	e, err := newEngine(s.config, &s.State, s.sourceFactory, s.sinkFactory, s.compare)
	if err != nil {
		return false, err
	}
	defer e.discard()

	s.setPhase(PhasePreSorting)
	res, err := e.presort(ctx, src)
	if err != nil {
		return outcome(err)
	}
	if err := closeSource(); err != nil {
		return false, fmt.Errorf("close input: %w", err)
	}

	s.setPhase(PhaseSorting)
	if res.inMemory {
		err = writeRecords(res.batch, sink)
	} else {
		err = e.mergeInto(ctx, res.runs, sink)
	}
	if err != nil {
		return outcome(err)
	}
	if err := e.checkpoint(ctx); err != nil {
		return outcome(err)
	}
	if err := closeSink(); err != nil {
		return false, fmt.Errorf("close output: %w", err)
	}
	s.setPhase(PhaseComplete)
	return true, nil
}

// mergeInto merges runs into sink and deletes the runs read by the final merge.
func (e *engine[E]) mergeInto(ctx context.Context, runs []*run, sink Sink[E]) (err error) {
	merged, err := e.merge(ctx, runs)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := merged.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if cleanupErr := e.cleanup(); cleanupErr != nil {
			e.log.Warn("failed to delete temporary runs", "error", cleanupErr)
		}
	}()
	if err := copyRecords(merged, sink, nil); err != nil {
		return err
	}
	return nil
}

func writeRecords[E any](records []E, sink Sink[E]) error {
	for _, rec := range records {
		if err := sink.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// closeOnce returns a function closing c on its first call and repeating that
// result afterwards.
func closeOnce(c io.Closer) func() error {
	var once sync.Once
	var err error
	return func() error {
		once.Do(func() {
			err = c.Close()
		})
		return err
	}
}
