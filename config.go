package spillsort

import (
	"log/slog"

	"github.com/lanrat/spillsort/compress"
	"github.com/lanrat/spillsort/tempfile"
)

const (
	// DefaultMaxMemoryUsage is the default in-memory batch budget: 40 MiB.
	DefaultMaxMemoryUsage int64 = 40 * 1024 * 1024
	// DefaultMergeFactor is the default number of runs merged in one step.
	DefaultMergeFactor = 16
	// MinMergeFactor is the smallest usable merge factor.
	MinMergeFactor = 2
)

// Config holds configuration settings for a sorter.
// A Config is an immutable value: the With methods return a modified copy.
// The zero Config is usable and equivalent to DefaultConfig().
type Config struct {
	maxMemoryUsage int64
	mergeFactor    int
	tempProvider   tempfile.Provider
	compression    compress.Kind
	logger         *slog.Logger
}

// DefaultConfig returns the default configuration: a 40 MiB batch budget,
// merge factor 16, uncompressed runs in a disk-backed temporary directory
// and no logging.
func DefaultConfig() Config {
	return Config{
		maxMemoryUsage: DefaultMaxMemoryUsage,
		mergeFactor:    DefaultMergeFactor,
		tempProvider:   tempfile.Default(),
		compression:    compress.None,
		logger:         slog.New(slog.DiscardHandler),
	}
}

// WithMaxMemoryUsage sets the approximate number of bytes one in-memory batch
// may use. It bounds a single batch, not the whole process.
func (c Config) WithMaxMemoryUsage(maxMem int64) Config {
	c.maxMemoryUsage = maxMem
	return c
}

// WithMergeFactor sets the maximum number of runs merged in one step.
func (c Config) WithMergeFactor(factor int) Config {
	c.mergeFactor = factor
	return c
}

// WithTempProvider sets where temporary runs are stored.
func (c Config) WithTempProvider(provider tempfile.Provider) Config {
	c.tempProvider = provider
	return c
}

// WithTempDir stores temporary runs as files in dir.
func (c Config) WithTempDir(dir string) Config {
	return c.WithTempProvider(tempfile.New(dir))
}

// WithCompression sets the codec used to compress temporary runs.
func (c Config) WithCompression(kind compress.Kind) Config {
	c.compression = kind
	return c
}

// WithLogger sets the logger receiving debug events about spills and merge rounds.
func (c Config) WithLogger(logger *slog.Logger) Config {
	c.logger = logger
	return c
}

// MaxMemoryUsage returns the in-memory batch budget in bytes.
func (c Config) MaxMemoryUsage() int64 {
	return mergeConfig(c).maxMemoryUsage
}

// MergeFactor returns the maximum number of runs merged in one step.
func (c Config) MergeFactor() int {
	return mergeConfig(c).mergeFactor
}

// TempProvider returns the temporary storage provider.
func (c Config) TempProvider() tempfile.Provider {
	return mergeConfig(c).tempProvider
}

// Compression returns the run compression codec.
func (c Config) Compression() compress.Kind {
	return c.compression
}

// Logger returns the configured logger.
func (c Config) Logger() *slog.Logger {
	return mergeConfig(c).logger
}

// Validate reports the first invalid setting as a *ConfigError.
func (c Config) Validate() error {
	c = mergeConfig(c)
	if c.maxMemoryUsage < 0 {
		return &ConfigError{Field: "MaxMemoryUsage", Value: c.maxMemoryUsage, Reason: "must not be negative"}
	}
	if c.mergeFactor < MinMergeFactor {
		return &ConfigError{Field: "MergeFactor", Value: c.mergeFactor, Reason: "must be at least 2"}
	}
	if !c.compression.Valid() {
		return &ConfigError{Field: "Compression", Value: c.compression, Reason: "unknown codec"}
	}
	return nil
}

// mergeConfig replaces any values not set with the defaults
func mergeConfig(c Config) Config {
	d := DefaultConfig()
	if c.maxMemoryUsage == 0 {
		c.maxMemoryUsage = d.maxMemoryUsage
	}
	if c.mergeFactor == 0 {
		c.mergeFactor = d.mergeFactor
	}
	if c.tempProvider == nil {
		c.tempProvider = d.tempProvider
	}
	if c.logger == nil {
		c.logger = d.logger
	}
	return c
}
