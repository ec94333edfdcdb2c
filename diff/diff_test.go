package diff_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanrat/spillsort"
	"github.com/lanrat/spillsort/diff"
)

func strSource(items ...string) spillsort.Source[string] {
	return spillsort.NewSliceSource(items, nil)
}

func ignoreResult[T any](diff.Delta, T) error {
	return nil
}

func TestNil(t *testing.T) {
	r, err := diff.Strings(context.Background(), nil, nil, nil)
	require.ErrorIs(t, err, spillsort.ErrNilArgument)
	assert.Zero(t, r.ExtraA+r.ExtraB+r.TotalA+r.TotalB+r.Common, "results count not 0 %s", r.String())
}

func Test1A(t *testing.T) {
	r, err := diff.Strings(context.Background(), strSource("Hello A"), strSource(), ignoreResult[string])
	require.NoError(t, err)
	assert.Equal(t, diff.Result{ExtraA: 1, TotalA: 1}, r, "results count not a+1 %s", r.String())
}

func Test1B(t *testing.T) {
	r, err := diff.Strings(context.Background(), strSource(), strSource("Hello B"), ignoreResult[string])
	require.NoError(t, err)
	assert.Equal(t, diff.Result{ExtraB: 1, TotalB: 1}, r, "results count not b+1 %s", r.String())
}

func TestCommon(t *testing.T) {
	resultF := func(d diff.Delta, s string) error {
		t.Fatalf("common resultF called for %s %q", d, s)
		return nil
	}
	items := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		items = append(items, fmt.Sprintf("%02d", i))
	}
	r, err := diff.Strings(context.Background(), strSource(items...), strSource(items...), resultF)
	require.NoError(t, err)
	assert.Equal(t, diff.Result{TotalA: 30, TotalB: 30, Common: 30}, r)
}

func TestInterleaved(t *testing.T) {
	var a, b []string
	for i := 0; i < 30; i++ {
		a = append(a, fmt.Sprintf("%02d", i))
		b = append(b, fmt.Sprintf("%02d", i))
	}
	for i := 30; i < 60; i++ {
		if i%2 == 0 {
			a = append(a, fmt.Sprintf("%02d", i))
		} else {
			b = append(b, fmt.Sprintf("%02d", i))
		}
	}
	for i := 60; i < 90; i++ {
		a = append(a, fmt.Sprintf("%02d", i))
		b = append(b, fmt.Sprintf("%02d", i))
	}

	var olds, news int
	resultF := func(d diff.Delta, s string) error {
		switch d {
		case diff.OLD:
			olds++
		case diff.NEW:
			news++
		}
		return nil
	}
	r, err := diff.Strings(context.Background(), strSource(a...), strSource(b...), resultF)
	require.NoError(t, err)
	assert.Equal(t, diff.Result{ExtraA: 15, ExtraB: 15, TotalA: 75, TotalB: 75, Common: 60}, r)
	assert.Equal(t, 15, olds)
	assert.Equal(t, 15, news)
}

// TestGenericInts checks ordering of reported differences for a custom comparator
func TestGenericInts(t *testing.T) {
	var results []string
	resultF := func(d diff.Delta, i int) error {
		results = append(results, fmt.Sprintf("%s %d", d, i))
		return nil
	}
	compareF := func(a, b int) int { return a - b }

	r, err := diff.Generic(context.Background(),
		spillsort.NewSliceSource([]int{1, 3, 5}, nil),
		spillsort.NewSliceSource([]int{2, 3, 4}, nil),
		compareF, resultF)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), r.ExtraA)
	assert.Equal(t, uint64(2), r.ExtraB)
	assert.Equal(t, uint64(1), r.Common)
	assert.Equal(t, []string{"< 1", "> 2", "> 4", "< 5"}, results)
}

func TestOrderedFloats(t *testing.T) {
	r, err := diff.Ordered(context.Background(),
		spillsort.NewSliceSource([]float64{0.5, 1.5}, nil),
		spillsort.NewSliceSource([]float64{0.5, 2.5}, nil),
		ignoreResult[float64])
	require.NoError(t, err)
	assert.Equal(t, diff.Result{ExtraA: 1, ExtraB: 1, TotalA: 2, TotalB: 2, Common: 1}, r)
}

func TestDeltaString(t *testing.T) {
	assert.Equal(t, ">", diff.NEW.String())
	assert.Equal(t, "<", diff.OLD.String())
	assert.Equal(t, "?", diff.Delta(7).String())
}
