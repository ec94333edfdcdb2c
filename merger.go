package spillsort

import (
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/lanrat/spillsort/queue"
)

// newMerger returns a source producing the ordered union of inputs, each of
// which must already be sorted by compare. Among equal records, the one from
// the input with the lower index comes first. The first record of every input
// is read before newMerger returns; if that fails, every input is closed.
// Closing the merger closes every input.
func newMerger[E any](compare CompareFunc[E], inputs []Source[E]) (Source[E], error) {
	switch len(inputs) {
	case 0:
		return emptySource[E]{}, nil
	case 1:
		return inputs[0], nil
	case 2:
		return newPairMerger(compare, inputs[0], inputs[1])
	default:
		return newHeapMerger(compare, inputs)
	}
}

func closeAll[E any](inputs []Source[E]) error {
	var result *multierror.Error
	for _, in := range inputs {
		if err := in.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// pairMerger merges exactly two inputs without a heap.
type pairMerger[E any] struct {
	compare      CompareFunc[E]
	a, b         Source[E]
	headA, headB E
	hasA, hasB   bool
}

func newPairMerger[E any](compare CompareFunc[E], a, b Source[E]) (*pairMerger[E], error) {
	m := &pairMerger[E]{compare: compare, a: a, b: b}
	var err error
	if m.headA, m.hasA, err = peek(a); err != nil {
		_ = closeAll([]Source[E]{a, b})
		return nil, err
	}
	if m.headB, m.hasB, err = peek(b); err != nil {
		_ = closeAll([]Source[E]{a, b})
		return nil, err
	}
	return m, nil
}

func (m *pairMerger[E]) Next() (E, error) {
	var out E
	var err error
	switch {
	case m.hasA && (!m.hasB || m.compare(m.headA, m.headB) <= 0):
		out = m.headA
		m.headA, m.hasA, err = peek(m.a)
	case m.hasB:
		out = m.headB
		m.headB, m.hasB, err = peek(m.b)
	default:
		return out, io.EOF
	}
	if err != nil {
		var zero E
		return zero, err
	}
	return out, nil
}

func (m *pairMerger[E]) EstimateSize(rec E) int {
	return m.a.EstimateSize(rec)
}

func (m *pairMerger[E]) Close() error {
	return closeAll([]Source[E]{m.a, m.b})
}

// mergeHead is the current first record of one merger input
type mergeHead[E any] struct {
	value E
	index int
}

// heapMerger merges three or more inputs through a priority queue holding the
// head of each input that is not yet exhausted.
type heapMerger[E any] struct {
	inputs []Source[E]
	pq     *queue.PriorityQueue[*mergeHead[E]]
}

func newHeapMerger[E any](compare CompareFunc[E], inputs []Source[E]) (*heapMerger[E], error) {
	less := func(a, b *mergeHead[E]) bool {
		if c := compare(a.value, b.value); c != 0 {
			return c < 0
		}
		return a.index < b.index
	}
	m := &heapMerger[E]{
		inputs: inputs,
		pq:     queue.NewPriorityQueue(less, len(inputs)),
	}
	for i, in := range inputs {
		rec, ok, err := peek(in)
		if err != nil {
			_ = closeAll(inputs)
			return nil, err
		}
		if ok {
			m.pq.Push(&mergeHead[E]{value: rec, index: i})
		}
	}
	return m, nil
}

func (m *heapMerger[E]) Next() (E, error) {
	if m.pq.Len() == 0 {
		var zero E
		return zero, io.EOF
	}
	head := m.pq.Peek()
	out := head.value
	rec, ok, err := peek(m.inputs[head.index])
	if err != nil {
		var zero E
		return zero, err
	}
	if ok {
		head.value = rec
		m.pq.PeekUpdate()
	} else {
		m.pq.Pop()
	}
	return out, nil
}

func (m *heapMerger[E]) EstimateSize(rec E) int {
	return m.inputs[0].EstimateSize(rec)
}

func (m *heapMerger[E]) Close() error {
	m.pq.Reset()
	return closeAll(m.inputs)
}

// emptySource produces no records
type emptySource[E any] struct{}

func (emptySource[E]) Next() (E, error) {
	var zero E
	return zero, io.EOF
}

func (emptySource[E]) EstimateSize(E) int { return 0 }

func (emptySource[E]) Close() error { return nil }
