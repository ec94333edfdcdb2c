package spillsort

// UniqSink wraps next so that a record comparing equal to the record written
// just before it is dropped. Fed from a sort, it keeps the first of every
// group of equal records.
func UniqSink[E any](next Sink[E], compare CompareFunc[E]) Sink[E] {
	return &uniqSink[E]{next: next, compare: compare}
}

type uniqSink[E any] struct {
	next     Sink[E]
	compare  CompareFunc[E]
	prior    E
	priorSet bool
}

func (u *uniqSink[E]) Write(rec E) error {
	if u.priorSet && u.compare(u.prior, rec) == 0 {
		return nil
	}
	if err := u.next.Write(rec); err != nil {
		return err
	}
	u.prior = rec
	u.priorSet = true
	return nil
}

func (u *uniqSink[E]) Close() error {
	var zero E
	u.prior = zero
	return u.next.Close()
}
