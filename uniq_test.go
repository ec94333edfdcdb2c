package spillsort_test

import (
	"cmp"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanrat/spillsort"
	"github.com/lanrat/spillsort/tempfile"
)

func TestUniqSink(t *testing.T) {
	var in []string
	for i := 0; i < 30; i++ {
		in = append(in, fmt.Sprintf("%02d", i))
		if i%2 == 0 {
			in = append(in, fmt.Sprintf("%02d", i))
		}
	}

	sink := spillsort.NewSliceSink[string]()
	completed, err := spillsort.NewStringSorter(spillsort.DefaultConfig().
		WithMaxMemoryUsage(500).
		WithTempProvider(tempfile.Memory())).
		Sort(context.Background(), spillsort.NewSliceSource(in, func(string) int { return 100 }), spillsort.UniqSink(sink, cmp.Compare[string]))
	require.NoError(t, err)
	require.True(t, completed)
	assert.True(t, sink.Closed())

	got := sink.Items()
	require.Len(t, got, 30)
	for i, s := range got {
		assert.Equal(t, fmt.Sprintf("%02d", i), s)
	}
}

// TestUniqSinkKeepsFirst checks that the first of a group of equal records survives
func TestUniqSinkKeepsFirst(t *testing.T) {
	sink := spillsort.NewSliceSink[string]()
	uniq := spillsort.UniqSink[string](sink, func(a, b string) int {
		return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	for _, s := range []string{"Apple", "apple", "APPLE", "pear", "Pear"} {
		require.NoError(t, uniq.Write(s))
	}
	require.NoError(t, uniq.Close())
	assert.Equal(t, []string{"Apple", "pear"}, sink.Items())
}
