package spillsort

import "io"

// Source is a stream of records to be sorted, or the sorted records read back
// from a temporary run.
type Source[E any] interface {
	// Next returns the next record, or io.EOF once the input is exhausted.
	// Once io.EOF has been returned, later calls keep returning io.EOF.
	Next() (E, error)

	// EstimateSize returns the approximate number of bytes the record occupies
	// in memory. The sorter calls it right after Next returned the record and
	// uses it to decide how many records fit in one in-memory batch.
	EstimateSize(E) int

	// Close releases the source. It is called exactly once by the sorter.
	io.Closer
}

// Sink receives sorted records.
type Sink[E any] interface {
	// Write appends a record.
	Write(E) error

	// Close flushes and releases the sink. It is called exactly once by the sorter.
	io.Closer
}

// SourceFactory creates a Source decoding records from a byte stream.
// Closing the Source must release its own state but must not close r.
type SourceFactory[E any] interface {
	NewSource(r io.Reader) (Source[E], error)
}

// SinkFactory creates a Sink encoding records onto a byte stream.
// Closing the Sink must flush everything written but must not close w.
type SinkFactory[E any] interface {
	NewSink(w io.Writer) (Sink[E], error)
}

// Codec is a matching SourceFactory and SinkFactory for one serialization format.
// Records written by a sink must be read back unchanged, in order, by a source
// created over the same bytes.
type Codec[E any] interface {
	SourceFactory[E]
	SinkFactory[E]
}

// CompareFunc is a function type for comparing two items of type E.
// Returns a negative integer if a should be ordered before b, zero if they are equal,
// and a positive integer if a should be ordered after b in the final sorted output.
// It must be a consistent total order; this is not validated.
// This follows the same semantics as cmp.Compare.
type CompareFunc[E any] func(a, b E) int

// FromBytesFunc deserializes a record previously produced by the matching ToBytesFunc.
// The slice is not reused by the caller and may be retained.
type FromBytesFunc[E any] func([]byte) (E, error)

// ToBytesFunc serializes a record.
type ToBytesFunc[E any] func(E) ([]byte, error)

// SizeFunc estimates the in-memory size of a record in bytes.
type SizeFunc[E any] func(E) int
