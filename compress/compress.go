// Package compress wraps the byte streams of temporary runs with an optional
// streaming compression codec. Runs are written once and read back
// sequentially, so only streaming formats are offered.
package compress

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Kind identifies a compression codec.
type Kind uint8

const (
	// None stores runs uncompressed.
	None Kind = iota
	// Zstd uses zstd at its fastest level; best ratio of the offered codecs.
	Zstd
	// S2 uses the s2 extension of snappy; very fast, moderate ratio.
	S2
	// LZ4 uses the lz4 frame format.
	LZ4
)

var kindNames = map[Kind]string{
	None: "none",
	Zstd: "zstd",
	S2:   "s2",
	LZ4:  "lz4",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is a known codec.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind returns the Kind named s (case insensitive). The empty string is None.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return None, nil
	}
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return None, fmt.Errorf("compress: unknown codec %q", s)
}

// NewWriter returns a writer compressing into w. Closing the returned writer
// flushes all pending data but does not close w.
func NewWriter(w io.Writer, k Kind) (io.WriteCloser, error) {
	switch k {
	case None:
		return nopWriteCloser{w}, nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("compress: zstd writer: %w", err)
		}
		return enc, nil
	case S2:
		return s2.NewWriter(w, s2.WriterConcurrency(1)), nil
	case LZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("compress: unknown codec %v", k)
	}
}

// NewReader returns a reader decompressing r. Closing the returned reader
// releases decoder resources but does not close r.
func NewReader(r io.Reader, k Kind) (io.ReadCloser, error) {
	switch k {
	case None:
		return io.NopCloser(r), nil
	case Zstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("compress: zstd reader: %w", err)
		}
		return zstdReadCloser{dec}, nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("compress: unknown codec %v", k)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// zstdReadCloser adapts zstd.Decoder, whose Close returns nothing
type zstdReadCloser struct {
	dec *zstd.Decoder
}

func (z zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z zstdReadCloser) Close() error {
	z.dec.Close()
	return nil
}
