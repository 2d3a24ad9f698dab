package blobstore

import (
	"context"
	"log/slog"

	"github.com/haivivi/speechset/pkg/dataset"
)

// SaveDataset serializes ds (restricted to labels, if any) and stores it
// under name.
func SaveDataset(ctx context.Context, s Store, name string, ds *dataset.Store, labels ...string) error {
	blob, err := ds.Serialize(labels...)
	if err != nil {
		return err
	}
	if err := s.Put(ctx, name, blob); err != nil {
		return err
	}
	slog.InfoContext(ctx, "blobstore: dataset saved", "name", name, "examples", ds.Size(), "bytes", len(blob))
	return nil
}

// LoadDataset reads the blob stored under name and decodes it into a new
// dataset.Store.
func LoadDataset(ctx context.Context, s Store, name string, opts ...dataset.Option) (*dataset.Store, error) {
	blob, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.Load(blob, opts...)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "blobstore: dataset loaded", "name", name, "examples", ds.Size(), "bytes", len(blob))
	return ds, nil
}
