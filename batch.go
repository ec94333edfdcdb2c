package spillsort

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const (
	// minRecordCost is the smallest amount of budget that must remain for the
	// batch reader to try one more record.
	minRecordCost = 256
	// slotOverhead is charged per record on top of its estimated size.
	slotOverhead = 16
)

// readBatch reads records from src into one unsorted batch whose estimated
// size stays within budget. When hasFirst is set, first is a record already
// taken from src and becomes the first entry of the batch. The batch stops
// once the remaining budget is smaller than the largest record seen so far
// (never less than minRecordCost); the record that crossed that line is kept.
// exhausted reports whether src returned io.EOF.
func (e *engine[E]) readBatch(src Source[E], budget int64, first E, hasFirst bool) (batch []E, exhausted bool, err error) {
	chunk := e.acc.start()
	used := 0
	remaining := budget
	minNeeded := int64(minRecordCost)

	add := func(rec E) bool {
		if used == len(chunk) {
			chunk = e.acc.appendChunk(chunk)
			used = 0
		}
		chunk[used] = rec
		used++
		size := int64(src.EstimateSize(rec))
		minNeeded = max(minNeeded, size)
		remaining -= size + slotOverhead
		return remaining >= minNeeded
	}

	more := true
	if hasFirst {
		more = add(first)
	}
	for more {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			exhausted = true
			break
		}
		if err != nil {
			e.acc.reset()
			return nil, false, fmt.Errorf("read input: %w", err)
		}
		more = add(rec)
	}
	return e.acc.flatten(chunk, used), exhausted, nil
}

// peek reads one record ahead. ok is false at the end of the input.
func peek[E any](src Source[E]) (rec E, ok bool, err error) {
	rec, err = src.Next()
	if errors.Is(err, io.EOF) {
		var zero E
		return zero, false, nil
	}
	if err != nil {
		var zero E
		return zero, false, fmt.Errorf("read input: %w", err)
	}
	return rec, true, nil
}

// presorted is the outcome of the pre-sort phase. When inMemory is set the
// whole input is in batch, sorted, and nothing was written to temporary
// storage. Otherwise runs lists the sorted runs in creation order.
type presorted[E any] struct {
	batch    []E
	inMemory bool
	runs     []*run
}

// presort reads the whole input as sorted batches. If the first batch holds
// the entire input it is returned as is; otherwise every batch, the first one
// included, is written to a run.
func (e *engine[E]) presort(ctx context.Context, src Source[E]) (*presorted[E], error) {
	budget := e.config.maxMemoryUsage

	var zero E
	batch, exhausted, err := e.readBatch(src, budget, zero, false)
	if err != nil {
		return nil, err
	}
	if err := e.sortBatch(batch); err != nil {
		return nil, err
	}
	if err := e.checkpoint(ctx); err != nil {
		return nil, err
	}

	var next E
	hasNext := false
	if !exhausted {
		if next, hasNext, err = peek(src); err != nil {
			return nil, err
		}
	}
	if !hasNext {
		e.log.Debug("input fits in one batch, skipping temporary storage", "records", len(batch))
		return &presorted[E]{batch: batch, inMemory: true}, nil
	}

	var runs []*run
	for {
		r, err := e.spill(batch)
		if err != nil {
			return nil, err
		}
		batch = nil
		runs = append(runs, r)
		if err := e.checkpoint(ctx); err != nil {
			return nil, err
		}
		if !hasNext {
			break
		}

		batch, exhausted, err = e.readBatch(src, budget, next, true)
		if err != nil {
			return nil, err
		}
		if err := e.sortBatch(batch); err != nil {
			return nil, err
		}
		hasNext = false
		if !exhausted {
			if next, hasNext, err = peek(src); err != nil {
				return nil, err
			}
		}
	}
	e.log.Debug("pre-sort complete", "runs", len(runs))
	return &presorted[E]{runs: runs}, nil
}

// spill writes a sorted batch to a new run.
func (e *engine[E]) spill(batch []E) (*run, error) {
	r, err := e.writeRun(NewSliceSource(batch, nil))
	if err != nil {
		return nil, err
	}
	e.state.preSortRuns.Add(1)
	e.log.Debug("spilled sorted batch", "run", r.file.Name(), "records", r.records, "bytes", r.size)
	return r, nil
}
