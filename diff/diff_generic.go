// Package diff compares two sorted record streams and reports the records
// found in only one of them.
package diff

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/lanrat/spillsort"
)

// differ holds the state of one diff between two sorted sources.
type differ[T any] struct {
	ctx        context.Context
	a, b       spillsort.Source[T]
	resultFunc ResultFunc[T]
	compare    spillsort.CompareFunc[T]
}

// Generic diffs two sources that are both sorted by compare. resultFunc is
// called for every item found in only one of them, in merged order.
//
// Both sources are read to the end but not closed. The sorted order is
// assumed, not validated. Generic stops early when ctx is done, when a
// source fails, or when resultFunc returns an error.
func Generic[T any](ctx context.Context, a, b spillsort.Source[T], compare spillsort.CompareFunc[T], resultFunc ResultFunc[T]) (Result, error) {
	if ctx == nil || a == nil || b == nil || compare == nil || resultFunc == nil {
		return Result{}, fmt.Errorf("%w: diff arguments", spillsort.ErrNilArgument)
	}
	d := differ[T]{
		ctx:        ctx,
		a:          a,
		b:          b,
		resultFunc: resultFunc,
		compare:    compare,
	}
	return d.diff()
}

// next reads one item ahead from src. ok is false at the end of src.
func (d *differ[T]) next(src spillsort.Source[T]) (item T, ok bool, err error) {
	if err := d.ctx.Err(); err != nil {
		return item, false, context.Cause(d.ctx)
	}
	item, err = src.Next()
	if errors.Is(err, io.EOF) {
		return item, false, nil
	}
	if err != nil {
		return item, false, err
	}
	return item, true, nil
}

func (d *differ[T]) diff() (r Result, err error) {
	dataA, okA, err := d.next(d.a)
	if err != nil {
		return r, err
	}
	dataB, okB, err := d.next(d.b)
	if err != nil {
		return r, err
	}
	for okA && okB {
		c := d.compare(dataA, dataB)
		switch {
		case c > 0:
			r.TotalB++
			r.ExtraB++
			if err = d.resultFunc(NEW, dataB); err != nil {
				return r, err
			}
			if dataB, okB, err = d.next(d.b); err != nil {
				return r, err
			}
		case c < 0:
			r.TotalA++
			r.ExtraA++
			if err = d.resultFunc(OLD, dataA); err != nil {
				return r, err
			}
			if dataA, okA, err = d.next(d.a); err != nil {
				return r, err
			}
		default:
			r.Common++
			r.TotalA++
			r.TotalB++
			if dataA, okA, err = d.next(d.a); err != nil {
				return r, err
			}
			if dataB, okB, err = d.next(d.b); err != nil {
				return r, err
			}
		}
	}
	// only A has data left
	for okA {
		r.TotalA++
		r.ExtraA++
		if err = d.resultFunc(OLD, dataA); err != nil {
			return r, err
		}
		if dataA, okA, err = d.next(d.a); err != nil {
			return r, err
		}
	}
	// only B has data left
	for okB {
		r.TotalB++
		r.ExtraB++
		if err = d.resultFunc(NEW, dataB); err != nil {
			return r, err
		}
		if dataB, okB, err = d.next(d.b); err != nil {
			return r, err
		}
	}
	return r, nil
}

// PrintDiff is a utility function that can be used as a ResultFunc to print
// differences to stdout. It formats each difference with the Delta symbol
// (< for OLD, > for NEW) followed by the item value.
func PrintDiff[T any](d Delta, s T) error {
	_, err := fmt.Printf("%s %v\n", d, s)
	return err
}
