package spillsort

import (
	"errors"
	"fmt"
)

var (
	// ErrRunCorrupted is returned when a temporary run does not read back
	// the records, byte count or checksum it was written with.
	ErrRunCorrupted = errors.New("spillsort: temporary run is corrupted")
	// ErrClosed is reported by an Iterator whose sorter was closed or reused.
	ErrClosed = errors.New("spillsort: sorter closed")
	// ErrNilArgument is returned when a required argument is nil.
	ErrNilArgument = errors.New("spillsort: argument must not be nil")
)

// errCancelled marks a cancellation without an attached failure. It never
// leaves the package: the facades turn it into a "not completed" result.
var errCancelled = errors.New("spillsort: cancelled")

// SerializationError represents an error that occurred while encoding a record
type SerializationError struct {
	// Cause is the original error returned by the encoder
	Cause error
	// Context provides additional information about what was being serialized
	Context string
}

func (e *SerializationError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("serialization failed in %s: %v", e.Context, e.Cause)
	}
	return fmt.Sprintf("serialization failed: %v", e.Cause)
}

func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// NewSerializationError creates a SerializationError
func NewSerializationError(cause error, context string) error {
	return &SerializationError{Cause: cause, Context: context}
}

// DeserializationError represents an error that occurred while decoding a record
type DeserializationError struct {
	// Cause is the original error returned by the decoder
	Cause error
	// DataSize is the size of the data that failed to deserialize, when known
	DataSize int
	// Context provides additional information about what was being deserialized
	Context string
}

func (e *DeserializationError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("deserialization failed in %s (data size: %d bytes): %v", e.Context, e.DataSize, e.Cause)
	}
	return fmt.Sprintf("deserialization failed (data size: %d bytes): %v", e.DataSize, e.Cause)
}

func (e *DeserializationError) Unwrap() error {
	return e.Cause
}

// NewDeserializationError creates a DeserializationError
func NewDeserializationError(cause error, dataSize int, context string) error {
	return &DeserializationError{Cause: cause, DataSize: dataSize, Context: context}
}

// ComparisonError represents a panic raised by the comparison function
type ComparisonError struct {
	// Cause is the recovered panic value
	Cause any
	// Context provides additional information about when the comparison failed
	Context string
}

func (e *ComparisonError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("comparison panic in %s: %v", e.Context, e.Cause)
	}
	return fmt.Sprintf("comparison panic: %v", e.Cause)
}

func (e *ComparisonError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// NewComparisonError creates a ComparisonError
func NewComparisonError(cause any, context string) error {
	return &ComparisonError{Cause: cause, Context: context}
}

// ConfigError represents an error in configuration parameters
type ConfigError struct {
	// Field is the name of the configuration field that's invalid
	Field string
	// Value is the invalid value provided
	Value any
	// Reason explains why the value is invalid
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field %s (value: %v): %s", e.Field, e.Value, e.Reason)
}

// NewDiskError wraps an I/O error on temporary or output storage
func NewDiskError(err error, operation, path string) error {
	if path != "" {
		return fmt.Errorf("disk error during %s on %s: %w", operation, path, err)
	}
	return fmt.Errorf("disk error during %s: %w", operation, err)
}

// NewResourceError wraps a failure to acquire a resource such as temporary storage
func NewResourceError(err error, resource, context string) error {
	if context != "" {
		return fmt.Errorf("resource error (%s) in %s: %w", resource, context, err)
	}
	return fmt.Errorf("resource error (%s): %w", resource, err)
}
