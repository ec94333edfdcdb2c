// Package tempfile implements the temporary storage used for sorted runs.
// A Provider allocates uniquely named locations that are written once,
// read back one or more times and then removed by their owner.
// Locations live either on disk (DiskProvider) or in memory (MemoryProvider).
package tempfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var (
	// file IO buffer size for each file
	fileBufferSize = 1 << 16 // 64k
	// filename prefix for files put in temp directory
	filenamePrefix = fmt.Sprintf("spillsort_%d_", os.Getpid())
)

// filenameSuffix is appended to every run file name
const filenameSuffix = ".run"

// DiskProvider allocates temporary files in a directory on disk.
type DiskProvider struct {
	dir string
}

// New returns a DiskProvider creating its files in dir.
// When dir is empty (or unusable) a disk-backed temporary directory is
// selected automatically, see GetTempDir.
func New(dir string) *DiskProvider {
	return &DiskProvider{dir: dir}
}

// Default returns a DiskProvider using the automatically selected directory.
func Default() *DiskProvider {
	return New("")
}

// Dir returns the directory new files are created in.
func (p *DiskProvider) Dir() string {
	return GetTempDir(p.dir, true)
}

// Provide creates a new empty file with a unique name.
func (p *DiskProvider) Provide() (File, error) {
	dir := p.Dir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create temp dir %s: %w", dir, err)
	}
	name := filepath.Join(dir, filenamePrefix+uuid.NewString()+filenameSuffix)
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return nil, err
	}
	return &diskFile{name: name}, nil
}

// diskFile is a single run file on disk
type diskFile struct {
	name string
}

func (f *diskFile) Name() string {
	return f.name
}

func (f *diskFile) Create() (io.WriteCloser, error) {
	file, err := os.OpenFile(f.name, os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	return &fileWriter{
		file:      file,
		bufWriter: bufio.NewWriterSize(file, fileBufferSize),
	}, nil
}

func (f *diskFile) Open() (io.ReadCloser, error) {
	file, err := os.Open(f.name)
	if err != nil {
		return nil, err
	}
	return &fileReader{
		file:      file,
		bufReader: bufio.NewReaderSize(file, fileBufferSize),
	}, nil
}

func (f *diskFile) Remove() error {
	err := os.Remove(f.name)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// fileWriter buffers writes to an open file
type fileWriter struct {
	file      *os.File
	bufWriter *bufio.Writer
}

func (w *fileWriter) Write(p []byte) (int, error) {
	return w.bufWriter.Write(p)
}

// Close flushes buffered data and closes the file.
func (w *fileWriter) Close() error {
	flushErr := w.bufWriter.Flush()
	closeErr := w.file.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// fileReader buffers reads from an open file
type fileReader struct {
	file      *os.File
	bufReader *bufio.Reader
}

func (r *fileReader) Read(p []byte) (int, error) {
	return r.bufReader.Read(p)
}

func (r *fileReader) ReadByte() (byte, error) {
	return r.bufReader.ReadByte()
}

func (r *fileReader) Close() error {
	return r.file.Close()
}
