// Package engine provides the transcoding engine adapter. It is the sole
// point of contact with the codec/filter executor (ffmpeg): callers stage
// named buffers into a private scope, run commands over those names, and
// read named outputs back.
package engine

import (
	"context"
	"errors"
)

// Static errors for engine operations.
var (
	// ErrStorageWrite is returned when a buffer cannot be staged into a scope.
	ErrStorageWrite = errors.New("engine: storage write failed")
	// ErrBufferNotFound is returned when a named buffer does not exist in a scope.
	ErrBufferNotFound = errors.New("engine: buffer not found")
	// ErrInvalidBufferName is returned when a buffer name would escape the scope.
	ErrInvalidBufferName = errors.New("engine: invalid buffer name")
)

// Engine creates isolated scopes for transcoding work. One engine instance
// is shared across exports; each export works inside its own scope.
type Engine interface {
	// NewScope creates a fresh, private scope. The prefix is a hint for
	// naming; callers must Close the scope when the export finishes or fails.
	NewScope(prefix string) (Scope, error)
}

// Scope is a private buffer namespace owned by exactly one export invocation.
// Buffer names are flat identifiers without path separators; commands passed
// to Run reference buffers by those names.
type Scope interface {
	// WriteBuffer stages data into the scope under the given name,
	// overwriting any previous buffer with that name.
	WriteBuffer(name string, data []byte) error

	// ReadBuffer retrieves a named buffer. Returns ErrBufferNotFound if no
	// buffer with that name exists.
	ReadBuffer(name string) ([]byte, error)

	// Run executes one filter-graph/encode/concat command over the scope's
	// buffers. On failure the returned error carries the executor's full
	// diagnostic output.
	Run(ctx context.Context, args ...string) error

	// Close releases every buffer in the scope. The scope must not be used
	// afterwards.
	Close() error
}
