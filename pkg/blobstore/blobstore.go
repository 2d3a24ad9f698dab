// Package blobstore persists serialized datasets as named blobs.
//
// A [Store] abstracts the backend so the same dataset can be kept on local
// disk, in Amazon S3, or in MinIO. [Zstd] wraps any Store with transparent
// compression. [SaveDataset] and [LoadDataset] connect a Store to
// dataset.Store serialization.
package blobstore

import (
	"context"
	"fmt"
	"os"
)

// ErrNotFound is returned by Get for a missing blob. It wraps os.ErrNotExist.
var ErrNotFound = fmt.Errorf("blobstore: not found: %w", os.ErrNotExist)

// Store is a flat namespace of immutable blobs.
//
// Names are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put writes data under name, replacing any existing blob.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the blob stored under name. A missing blob yields an
	// error wrapping ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes the named blob. Deleting a missing blob is not an
	// error.
	Delete(ctx context.Context, name string) error

	// Exists reports whether the named blob exists.
	Exists(ctx context.Context, name string) (bool, error)

	// List returns the sorted names of all blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
