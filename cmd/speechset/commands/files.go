package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/haivivi/speechset/pkg/blobstore"
	"github.com/haivivi/speechset/pkg/dataset"
)

// localFile returns a blobstore rooted at the directory of path and the
// name of path inside it.
func localFile(path string) (*blobstore.Local, string, error) {
	local, err := blobstore.NewLocal(filepath.Dir(path))
	if err != nil {
		return nil, "", err
	}
	return local, filepath.Base(path), nil
}

// readDataset loads a .ssds file. With allowMissing, a missing file yields
// an empty store.
func readDataset(ctx context.Context, path string, allowMissing bool) (*dataset.Store, error) {
	local, name, err := localFile(path)
	if err != nil {
		return nil, err
	}
	ds, err := blobstore.LoadDataset(ctx, local, name)
	if allowMissing && errors.Is(err, os.ErrNotExist) {
		return dataset.New(), nil
	}
	return ds, err
}

// writeDataset atomically replaces the .ssds file at path.
func writeDataset(ctx context.Context, path string, ds *dataset.Store, labels ...string) error {
	local, name, err := localFile(path)
	if err != nil {
		return err
	}
	return blobstore.SaveDataset(ctx, local, name, ds, labels...)
}
