package spillsort

import (
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-multierror"

	"github.com/lanrat/spillsort/compress"
	"github.com/lanrat/spillsort/tempfile"
)

// run is a sorted sequence of records persisted in temporary storage.
// The record count, encoded byte count and xxhash64 of the encoded bytes are
// recorded at write time and verified when the run is read to the end.
type run struct {
	file     tempfile.File
	records  int64
	size     int64
	checksum uint64
}

// hashingWriter hashes and counts the encoded bytes of a run before compression
type hashingWriter struct {
	w      io.Writer
	digest *xxhash.Digest
	n      int64
}

func (h *hashingWriter) Write(p []byte) (int, error) {
	n, err := h.w.Write(p)
	_, _ = h.digest.Write(p[:n])
	h.n += int64(n)
	return n, err
}

// hashingReader hashes and counts the decompressed bytes of a run
type hashingReader struct {
	r      io.Reader
	digest *xxhash.Digest
	n      int64
}

func (h *hashingReader) Read(p []byte) (int, error) {
	n, err := h.r.Read(p)
	_, _ = h.digest.Write(p[:n])
	h.n += int64(n)
	return n, err
}

// writeRun creates a new run holding every record produced by src, in order.
// The run is owned by the engine as soon as its storage exists, so a partially
// written run is still deleted by cleanup.
func (e *engine[E]) writeRun(src Source[E]) (*run, error) {
	file, err := e.config.tempProvider.Provide()
	if err != nil {
		return nil, NewResourceError(err, "temporary storage", "allocate run")
	}
	r := &run{file: file}
	e.owned = append(e.owned, r)

	out, err := file.Create()
	if err != nil {
		return nil, NewDiskError(err, "create run", file.Name())
	}
	zw, err := compress.NewWriter(out, e.config.compression)
	if err != nil {
		_ = out.Close()
		return nil, err
	}
	hw := &hashingWriter{w: zw, digest: xxhash.New()}
	sink, err := e.sinkFactory.NewSink(hw)
	if err != nil {
		_ = zw.Close()
		_ = out.Close()
		return nil, err
	}

	if err := copyRecords(src, sink, &r.records); err != nil {
		_ = sink.Close()
		_ = zw.Close()
		_ = out.Close()
		return nil, err
	}

	if err := sink.Close(); err != nil {
		_ = zw.Close()
		_ = out.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return nil, NewDiskError(err, "finish compressed run", file.Name())
	}
	if err := out.Close(); err != nil {
		return nil, NewDiskError(err, "close run", file.Name())
	}
	r.size = hw.n
	r.checksum = hw.digest.Sum64()
	return r, nil
}

// copyRecords writes everything src produces into sink, counting records.
func copyRecords[E any](src Source[E], sink Sink[E], count *int64) error {
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := sink.Write(rec); err != nil {
			return err
		}
		if count != nil {
			*count++
		}
	}
}

// openRun returns a source reading r back from the start.
func (e *engine[E]) openRun(r *run) (Source[E], error) {
	in, err := r.file.Open()
	if err != nil {
		return nil, NewDiskError(err, "open run", r.file.Name())
	}
	zr, err := compress.NewReader(in, e.config.compression)
	if err != nil {
		_ = in.Close()
		return nil, err
	}
	hr := &hashingReader{r: zr, digest: xxhash.New()}
	src, err := e.sourceFactory.NewSource(hr)
	if err != nil {
		_ = zr.Close()
		_ = in.Close()
		return nil, err
	}
	return &runSource[E]{src: src, run: r, hr: hr, zr: zr, in: in}, nil
}

// runSource decodes a run and verifies it once the decoder reports io.EOF.
type runSource[E any] struct {
	src      Source[E]
	run      *run
	hr       *hashingReader
	zr       io.Closer
	in       io.Closer
	records  int64
	verified bool
}

func (s *runSource[E]) Next() (E, error) {
	rec, err := s.src.Next()
	if err == nil {
		s.records++
		return rec, nil
	}
	if errors.Is(err, io.EOF) && !s.verified {
		if verr := s.verify(); verr != nil {
			return rec, verr
		}
		s.verified = true
	}
	return rec, err
}

func (s *runSource[E]) verify() error {
	switch {
	case s.records != s.run.records:
		return fmt.Errorf("%w: %s: read %d records, wrote %d", ErrRunCorrupted, s.run.file.Name(), s.records, s.run.records)
	case s.hr.n != s.run.size:
		return fmt.Errorf("%w: %s: read %d bytes, wrote %d", ErrRunCorrupted, s.run.file.Name(), s.hr.n, s.run.size)
	case s.hr.digest.Sum64() != s.run.checksum:
		return fmt.Errorf("%w: %s: checksum mismatch", ErrRunCorrupted, s.run.file.Name())
	}
	return nil
}

func (s *runSource[E]) EstimateSize(rec E) int {
	return s.src.EstimateSize(rec)
}

func (s *runSource[E]) Close() error {
	var result *multierror.Error
	if err := s.src.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.zr.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.in.Close(); err != nil {
		result = multierror.Append(result, NewDiskError(err, "close run", s.run.file.Name()))
	}
	return result.ErrorOrNil()
}
