// Package storage defines the blob store abstraction harvest artifacts are
// written through, keeping the writer independent of the backing medium
// (local filesystem by default, Google Cloud Storage when configured).
package storage

import "context"

// BlobStore writes one artifact and returns a URI locating it.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}
