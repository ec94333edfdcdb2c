package compress_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanrat/spillsort/compress"
)

var allKinds = []compress.Kind{compress.None, compress.Zstd, compress.S2, compress.LZ4}

func TestRoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog\n", 2000))

	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := compress.NewWriter(&buf, kind)
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			if kind != compress.None {
				assert.Less(t, buf.Len(), len(payload), "repetitive data should shrink")
			}

			r, err := compress.NewReader(&buf, kind)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, payload, got)
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, kind := range allKinds {
		parsed, err := compress.ParseKind(strings.ToUpper(kind.String()))
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	k, err := compress.ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, compress.None, k)

	_, err = compress.ParseKind("brotli")
	assert.Error(t, err)
}

func TestUnknownKind(t *testing.T) {
	bogus := compress.Kind(42)
	assert.False(t, bogus.Valid())
	assert.Equal(t, "Kind(42)", bogus.String())

	_, err := compress.NewWriter(io.Discard, bogus)
	assert.Error(t, err)
	_, err = compress.NewReader(strings.NewReader(""), bogus)
	assert.Error(t, err)
}
