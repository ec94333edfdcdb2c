package spillsort

const (
	initialChunkSize = 1024
	maxChunkSize     = 256 * 1024
)

// accumulator collects an unknown number of records in growing chunks so a
// batch never needs repeated whole-slice reallocation. Chunk sizes double from
// initialChunkSize up to maxChunkSize.
type accumulator[E any] struct {
	chunks [][]E
	total  int
}

// start clears any previous batch and returns the first empty chunk.
func (a *accumulator[E]) start() []E {
	a.reset()
	return make([]E, initialChunkSize)
}

// appendChunk hands a completely filled chunk to the accumulator and returns
// the next, larger, empty chunk.
func (a *accumulator[E]) appendChunk(full []E) []E {
	a.chunks = append(a.chunks, full)
	a.total += len(full)
	next := min(len(full)*2, maxChunkSize)
	return make([]E, next)
}

// flatten returns every record handed over so far followed by last[:used] as
// one contiguous slice and clears the accumulator.
func (a *accumulator[E]) flatten(last []E, used int) []E {
	if len(a.chunks) == 0 {
		return last[:used:used]
	}
	out := make([]E, a.total+used)
	n := 0
	for _, c := range a.chunks {
		n += copy(out[n:], c)
	}
	copy(out[n:], last[:used])
	a.reset()
	return out
}

// reset drops all chunk references.
func (a *accumulator[E]) reset() {
	clear(a.chunks)
	a.chunks = a.chunks[:0]
	a.total = 0
}
