package tempfile

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"sync"
)

// MemoryProvider provides an in-memory implementation of the Provider interface.
// It keeps all data in byte slices instead of writing to disk files.
// This is useful for testing and benchmarking without filesystem I/O overhead,
// and for small sorts where spilling to disk is not wanted.
// A MemoryProvider is safe for concurrent use.
type MemoryProvider struct {
	mu    sync.Mutex
	seq   uint64
	files map[string]*memFile
}

// Memory creates a new, empty MemoryProvider.
func Memory() *MemoryProvider {
	return &MemoryProvider{files: make(map[string]*memFile)}
}

// Provide allocates a new in-memory location.
func (p *MemoryProvider) Provide() (File, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	f := &memFile{
		provider: p,
		name:     fmt.Sprintf("mem-%06d%s", p.seq, filenameSuffix),
	}
	p.files[f.name] = f
	return f, nil
}

// Live returns the number of locations that were provided but not yet removed.
func (p *MemoryProvider) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.files)
}

// Names returns the sorted names of all live locations.
func (p *MemoryProvider) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.files))
	for name := range p.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Provided returns the total number of locations handed out so far.
func (p *MemoryProvider) Provided() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.seq)
}

// memFile is one in-memory location
type memFile struct {
	provider *MemoryProvider
	name     string
	data     []byte
}

func (f *memFile) Name() string {
	return f.name
}

func (f *memFile) live() bool {
	_, ok := f.provider.files[f.name]
	return ok
}

func (f *memFile) Create() (io.WriteCloser, error) {
	f.provider.mu.Lock()
	defer f.provider.mu.Unlock()
	if !f.live() {
		return nil, &fs.PathError{Op: "create", Path: f.name, Err: fs.ErrNotExist}
	}
	f.data = nil
	return &memWriter{file: f}, nil
}

func (f *memFile) Open() (io.ReadCloser, error) {
	f.provider.mu.Lock()
	defer f.provider.mu.Unlock()
	if !f.live() {
		return nil, &fs.PathError{Op: "open", Path: f.name, Err: fs.ErrNotExist}
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func (f *memFile) Remove() error {
	f.provider.mu.Lock()
	defer f.provider.mu.Unlock()
	delete(f.provider.files, f.name)
	f.data = nil
	return nil
}

// memWriter collects written data and publishes it to its file on Close
type memWriter struct {
	file   *memFile
	buf    bytes.Buffer
	closed bool
}

func (w *memWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fs.ErrClosed
	}
	return w.buf.Write(p)
}

func (w *memWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	p := w.file.provider
	p.mu.Lock()
	defer p.mu.Unlock()
	if !w.file.live() {
		return &fs.PathError{Op: "close", Path: w.file.name, Err: fs.ErrNotExist}
	}
	w.file.data = w.buf.Bytes()
	return nil
}
