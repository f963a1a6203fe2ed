// Package storage provides persistence for finished export videos.
// It defines the Storage port and implementations for local disk and S3.
package storage

import (
	"context"
	"io"
)

// Storage defines the port for keeping finished videos. Implementations
// must support local retention for download; S3 publication is optional.
type Storage interface {
	// SaveVideo persists a finished video and returns its local path.
	// The name parameter is used as a hint for the filename.
	SaveVideo(ctx context.Context, name string, data io.Reader) (path string, err error)

	// OpenVideo opens a previously saved video for reading.
	// The caller is responsible for closing the returned ReadCloser.
	OpenVideo(ctx context.Context, path string) (io.ReadCloser, error)

	// Remove deletes the specified files. It continues even if some files
	// fail to delete, returning the first error encountered.
	Remove(ctx context.Context, paths []string) error

	// Publish uploads a video to S3 under the given key and returns the
	// public URL. Returns ErrPublishNotConfigured if S3 is not configured.
	Publish(ctx context.Context, key string, data io.Reader) (url string, err error)
}
