package spillsort_test

import (
	"bytes"
	"cmp"
	"context"
	"encoding/gob"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanrat/spillsort"
	"github.com/lanrat/spillsort/tempfile"
)

func TestLinesCodec(t *testing.T) {
	for _, tc := range []struct {
		name, in, out string
	}{
		{"trailing newline", "b\na\nc\n", "a\nb\nc\n"},
		{"no trailing newline", "b\na\nc", "a\nb\nc\n"},
		{"crlf", "b\r\na\r\nc\r\n", "a\nb\nc\n"},
		{"empty lines", "b\n\na\n", "\na\nb\n"},
		{"empty input", "", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sorter := spillsort.NewLineSorter(spillsort.DefaultConfig().
				WithMaxMemoryUsage(300).
				WithMergeFactor(2).
				WithTempProvider(tempfile.Memory()))
			var out bytes.Buffer
			completed, err := sorter.SortStream(context.Background(), strings.NewReader(tc.in), &out)
			require.NoError(t, err)
			require.True(t, completed)
			assert.Equal(t, tc.out, out.String())
		})
	}
}

// TestLinesLongLine sorts lines far larger than the read buffer and the budget
func TestLinesLongLine(t *testing.T) {
	long := strings.Repeat("z", 200_000)
	in := long + "\nmiddle\n" + strings.Repeat("a", 150_000) + "\n"
	provider := tempfile.Memory()
	sorter := spillsort.NewLineSorter(spillsort.DefaultConfig().
		WithMaxMemoryUsage(1024).
		WithTempProvider(provider))

	var out bytes.Buffer
	completed, err := sorter.SortStream(context.Background(), strings.NewReader(in), &out)
	require.NoError(t, err)
	require.True(t, completed)
	assert.Equal(t, strings.Repeat("a", 150_000)+"\nmiddle\n"+long+"\n", out.String())
	assert.Equal(t, 2, sorter.PreSortRunCount())
	assert.Zero(t, provider.Live())
}

func TestFramedTruncated(t *testing.T) {
	codec := spillsort.Strings()
	var buf bytes.Buffer
	sink, err := codec.NewSink(&buf)
	require.NoError(t, err)
	require.NoError(t, sink.Write("hello"))
	require.NoError(t, sink.Write("world"))
	require.NoError(t, sink.Close())

	data := buf.Bytes()[:buf.Len()-2]
	src, err := codec.NewSource(bytes.NewReader(data))
	require.NoError(t, err)

	rec, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, "hello", rec)

	_, err = src.Next()
	var derr *spillsort.DeserializationError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 5, derr.DataSize)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFramedMissingFuncs(t *testing.T) {
	codec := spillsort.Framed[int](nil, nil)
	_, err := codec.NewSink(io.Discard)
	assert.ErrorIs(t, err, spillsort.ErrNilArgument)
	_, err = codec.NewSource(strings.NewReader(""))
	assert.ErrorIs(t, err, spillsort.ErrNilArgument)
}

func TestFramedSizeEstimate(t *testing.T) {
	codec := spillsort.Framed(
		func(s string) ([]byte, error) { return []byte(s), nil },
		func(b []byte) (string, error) { return string(b), nil },
	)
	var buf bytes.Buffer
	sink, err := codec.NewSink(&buf)
	require.NoError(t, err)
	require.NoError(t, sink.Write("four"))
	require.NoError(t, sink.Close())

	src, err := codec.NewSource(&buf)
	require.NoError(t, err)
	rec, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, 4, src.EstimateSize(rec))

	sized := codec.WithSizeFunc(func(string) int { return 99 })
	src, err = sized.NewSource(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 99, src.EstimateSize("x"))
}

type player struct {
	Name  string
	Score int
	Tags  []string
}

func comparePlayers(a, b player) int {
	if c := cmp.Compare(a.Score, b.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

func players() []player {
	names := []string{"ada", "bob", "cy", "dee", "eve", "fay", "gus", "hal", "ivy", "jo"}
	out := make([]player, 0, len(names)*3)
	for i := 0; i < 3; i++ {
		for j, n := range names {
			out = append(out, player{Name: n, Score: (j*7 + i*3) % 10, Tags: []string{n, "<team>"}})
		}
	}
	return out
}

// TestStructCodecs pushes structs through a spilling sort with every
// reflection based codec.
func TestStructCodecs(t *testing.T) {
	cborCodec, err := spillsort.CBOR[player]()
	require.NoError(t, err)

	for _, tc := range []struct {
		name  string
		codec spillsort.Codec[player]
	}{
		{"gob", spillsort.Gob[player]()},
		{"json", spillsort.JSON[player]()},
		{"cbor", cborCodec},
	} {
		t.Run(tc.name, func(t *testing.T) {
			provider := tempfile.Memory()
			sorter := spillsort.NewWithCodec(memConfig(provider), tc.codec, comparePlayers)
			input := players()
			sink := spillsort.NewSliceSink[player]()

			completed, err := sorter.Sort(context.Background(),
				spillsort.NewSliceSource(input, func(player) int { return 200 }), sink)
			require.NoError(t, err)
			require.True(t, completed)
			assert.Positive(t, sorter.PreSortRunCount())
			assert.Zero(t, provider.Live())

			got := sink.Items()
			require.Len(t, got, len(input))
			for i := 1; i < len(got); i++ {
				require.LessOrEqual(t, comparePlayers(got[i-1], got[i]), 0)
			}
			for _, p := range got {
				assert.Equal(t, []string{p.Name, "<team>"}, p.Tags)
			}
		})
	}
}

func TestCodecDecodeErrors(t *testing.T) {
	cborCodec, err := spillsort.CBOR[player]()
	require.NoError(t, err)
	var gobInt bytes.Buffer
	require.NoError(t, gob.NewEncoder(&gobInt).Encode(42))

	for _, tc := range []struct {
		name  string
		codec spillsort.SourceFactory[player]
		data  string
	}{
		{"gob", spillsort.Gob[player](), gobInt.String()},
		{"json", spillsort.JSON[player](), `{"Name": 12}`},
		{"cbor", cborCodec, "\xa1\x64Name\x0c"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			src, err := tc.codec.NewSource(strings.NewReader(tc.data))
			require.NoError(t, err)
			_, err = src.Next()
			var derr *spillsort.DeserializationError
			assert.ErrorAs(t, err, &derr)
		})
	}
}

func TestCodecEmptyStream(t *testing.T) {
	cborCodec, err := spillsort.CBOR[player]()
	require.NoError(t, err)
	for _, codec := range []spillsort.SourceFactory[player]{spillsort.Gob[player](), spillsort.JSON[player](), cborCodec} {
		src, err := codec.NewSource(strings.NewReader(""))
		require.NoError(t, err)
		_, err = src.Next()
		assert.True(t, errors.Is(err, io.EOF))
		_, err = src.Next()
		assert.True(t, errors.Is(err, io.EOF), "EOF is sticky")
	}
}

func TestJSONKeepsHTML(t *testing.T) {
	var buf bytes.Buffer
	sink, err := spillsort.JSON[string]().NewSink(&buf)
	require.NoError(t, err)
	require.NoError(t, sink.Write("<a&b>"))
	require.NoError(t, sink.Close())
	assert.Equal(t, "\"<a&b>\"\n", buf.String())
}

func TestBytesAndStrings(t *testing.T) {
	provider := tempfile.Memory()
	config := spillsort.DefaultConfig().WithMaxMemoryUsage(400).WithMergeFactor(3).WithTempProvider(provider)

	words := strings.Fields("the quick brown fox jumps over the lazy dog again and again")
	sink := spillsort.NewSliceSink[string]()
	completed, err := spillsort.NewStringSorter(config).Sort(context.Background(),
		spillsort.NewSliceSource(words, func(s string) int { return len(s) + 100 }), sink)
	require.NoError(t, err)
	require.True(t, completed)
	assert.Equal(t, strings.Fields("again again and brown dog fox jumps lazy over quick the the"), sink.Items())

	var raw [][]byte
	for _, w := range words {
		raw = append(raw, []byte(w))
	}
	bsink := spillsort.NewSliceSink[[]byte]()
	completed, err = spillsort.NewWithCodec(config, spillsort.Bytes(), bytes.Compare).Sort(context.Background(),
		spillsort.NewSliceSource(raw, func(b []byte) int { return len(b) + 100 }), bsink)
	require.NoError(t, err)
	require.True(t, completed)
	require.Len(t, bsink.Items(), len(words))
	for i, b := range bsink.Items() {
		assert.Equal(t, sink.Items()[i], string(b))
	}
	assert.Zero(t, provider.Live())
}

func TestOrderedSorters(t *testing.T) {
	config := spillsort.DefaultConfig().WithMaxMemoryUsage(500).WithMergeFactor(2).WithTempProvider(tempfile.Memory())

	floats := []float64{3.5, -1, 2.25, 0, 1e9, -7.75}
	fsink := spillsort.NewSliceSink[float64]()
	completed, err := spillsort.NewOrdered[float64](config).Sort(context.Background(),
		spillsort.NewSliceSource(floats, func(float64) int { return 200 }), fsink)
	require.NoError(t, err)
	require.True(t, completed)
	assert.Equal(t, []float64{-7.75, -1, 0, 2.25, 3.5, 1e9}, fsink.Items())

	sorter := spillsort.NewOrderedIterating[int](config)
	defer sorter.Close()
	it, err := sorter.Sort(context.Background(), spillsort.NewSliceSource(randomInts(25), intSize))
	require.NoError(t, err)
	assert.Equal(t, sortedCopy(randomInts(25)), collect(t, it))
}
