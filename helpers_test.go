package spillsort_test

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lanrat/spillsort"
	"github.com/lanrat/spillsort/tempfile"
)

// fixedIntSize is the size estimate given to every int in tests
const fixedIntSize = 200

func intSize(int) int { return fixedIntSize }

func intCodec() *spillsort.FramedCodec[int] {
	return spillsort.Framed(
		func(i int) ([]byte, error) {
			return binary.AppendVarint(nil, int64(i)), nil
		},
		func(b []byte) (int, error) {
			v, n := binary.Varint(b)
			if n <= 0 {
				return 0, errors.New("bad varint")
			}
			return int(v), nil
		},
	).WithSizeFunc(intSize)
}

func compareInts(a, b int) int {
	return a - b
}

func newIntSorter(config spillsort.Config) *spillsort.Sorter[int] {
	c := intCodec()
	return spillsort.New[int](config, c, c, compareInts)
}

func newIntIteratingSorter(config spillsort.Config) *spillsort.IteratingSorter[int] {
	c := intCodec()
	return spillsort.NewIterating[int](config, c, c, compareInts)
}

// memConfig stores runs in memory and batches about two ints per run.
func memConfig(provider *tempfile.MemoryProvider) spillsort.Config {
	return spillsort.DefaultConfig().
		WithMaxMemoryUsage(600).
		WithMergeFactor(2).
		WithTempProvider(provider)
}

func randomInts(n int) []int {
	r := rand.New(rand.NewSource(int64(n)))
	out := make([]int, n)
	for i := range out {
		out[i] = r.Intn(n * 4)
	}
	return out
}

func sortedCopy(in []int) []int {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}

// countingSource wraps a SliceSource, counting Next and Close calls and
// optionally failing or running a hook after a number of records.
type countingSource[E any] struct {
	*spillsort.SliceSource[E]
	nexts   int
	closes  int
	failAt  int
	failErr error
	hookAt  int
	hook    func()
}

func newCountingSource[E any](items []E, size spillsort.SizeFunc[E]) *countingSource[E] {
	return &countingSource[E]{SliceSource: spillsort.NewSliceSource(items, size), failAt: -1, hookAt: -1}
}

func (c *countingSource[E]) Next() (E, error) {
	if c.hookAt == c.nexts && c.hook != nil {
		c.hook()
	}
	if c.failAt == c.nexts {
		var zero E
		return zero, c.failErr
	}
	c.nexts++
	return c.SliceSource.Next()
}

func (c *countingSource[E]) Close() error {
	c.closes++
	return c.SliceSource.Close()
}

// countingSink wraps a SliceSink, counting Close calls and optionally failing
// or running a hook on a given write.
type countingSink[E any] struct {
	*spillsort.SliceSink[E]
	writes  int
	closes  int
	failAt  int
	failErr error
	hookAt  int
	hook    func()
}

func newCountingSink[E any]() *countingSink[E] {
	return &countingSink[E]{SliceSink: spillsort.NewSliceSink[E](), failAt: -1, hookAt: -1}
}

func (c *countingSink[E]) Write(rec E) error {
	if c.hookAt == c.writes && c.hook != nil {
		c.hook()
	}
	if c.failAt == c.writes {
		return c.failErr
	}
	c.writes++
	return c.SliceSink.Write(rec)
}

func (c *countingSink[E]) Close() error {
	c.closes++
	return c.SliceSink.Close()
}

// failingProvider fails every allocation
type failingProvider struct {
	err error
}

func (f failingProvider) Provide() (tempfile.File, error) {
	return nil, f.err
}

func requireSorted(t *testing.T, got []int) {
	t.Helper()
	require.True(t, slices.IsSorted(got), "output not sorted")
}
