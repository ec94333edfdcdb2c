package tempfile

import (
	"io"
)

// Provider hands out fresh, uniquely named temporary storage locations.
// Every File returned by Provide is owned by the caller, which must Remove it
// when it is no longer needed.
type Provider interface {
	// Provide allocates a new temporary location.
	Provide() (File, error)
}

// File is a handle to one temporary storage location.
// A File is written once through Create and may then be opened for
// reading any number of times until it is removed.
type File interface {
	// Name returns a unique name identifying the location.
	Name() string

	// Create opens the location for writing, discarding any previous content.
	// The data is only guaranteed to be readable after the returned writer is closed.
	Create() (io.WriteCloser, error)

	// Open opens the location for reading from the beginning.
	Open() (io.ReadCloser, error)

	// Remove deletes the location and its content.
	// Removing an already removed location is not an error.
	Remove() error
}
