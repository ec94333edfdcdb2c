package diff

// ChanResult holds a single diff result: the difference type and the item.
type ChanResult[T any] struct {
	// D indicates whether the item is NEW (only in stream B) or OLD (only in stream A)
	D Delta
	// Item is the value that differs between streams
	Item T
}

// ResultChan returns a ResultFunc sending every difference to the returned
// channel, so results can be consumed in another goroutine while the diff runs.
// The channel is unbuffered beyond one slot; the caller closes it once the
// diff has returned.
func ResultChan[T any]() (ResultFunc[T], chan *ChanResult[T]) {
	c := make(chan *ChanResult[T], 1)
	f := func(d Delta, item T) error {
		c <- &ChanResult[T]{D: d, Item: item}
		return nil
	}
	return f, c
}
