package diff

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lanrat/spillsort"
)

// ErrSortNotCompleted is returned by SortAndDiff when one of the sorts was
// cancelled without an error.
var ErrSortNotCompleted = errors.New("diff: sort did not complete")

// sortedBuffer is the channel capacity between each sorter and the differ.
const sortedBuffer = 1024

// SortAndDiff sorts two unsorted sources and diffs the results. Both sorts
// and the diff run concurrently; the differ consumes sorted records while the
// sorters are still producing them. sorterA and sorterB must be distinct
// sorters using compare's order.
//
// The first failure among the three stops the others and is returned.
func SortAndDiff[T any](ctx context.Context, sorterA, sorterB *spillsort.Sorter[T], a, b spillsort.Source[T], compare spillsort.CompareFunc[T], resultFunc ResultFunc[T]) (Result, error) {
	if sorterA == nil || sorterB == nil || a == nil || b == nil {
		return Result{}, fmt.Errorf("%w: sorters and sources are required", spillsort.ErrNilArgument)
	}
	if sorterA == sorterB {
		return Result{}, errors.New("diff: the two inputs need separate sorters")
	}

	g, gctx := errgroup.WithContext(ctx)
	sortedA := make(chan T, sortedBuffer)
	sortedB := make(chan T, sortedBuffer)

	runSort := func(s *spillsort.Sorter[T], src spillsort.Source[T], out chan T) func() error {
		return func() error {
			completed, err := s.Sort(gctx, src, spillsort.NewChanSink(gctx, out))
			if err != nil {
				return err
			}
			if !completed {
				return ErrSortNotCompleted
			}
			return nil
		}
	}
	g.Go(runSort(sorterA, a, sortedA))
	g.Go(runSort(sorterB, b, sortedB))

	var r Result
	g.Go(func() error {
		var err error
		r, err = Generic(gctx,
			spillsort.NewChanSource(gctx, sortedA, nil),
			spillsort.NewChanSource(gctx, sortedB, nil),
			compare, resultFunc)
		return err
	})

	if err := g.Wait(); err != nil {
		return r, err
	}
	return r, nil
}
