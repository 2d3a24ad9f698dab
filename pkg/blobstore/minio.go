package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
)

// MinIO implements Store with the native MinIO client.
type MinIO struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinIO creates a MinIO-backed Store. Prefix is prepended to all object
// keys; pass "" for no prefix.
func NewMinIO(client *minio.Client, bucket, prefix string) *MinIO {
	return &MinIO{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (m *MinIO) key(name string) string {
	return path.Join(m.prefix, name)
}

func isMinIONotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// Put uploads data via PutObject.
func (m *MinIO) Put(ctx context.Context, name string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, m.key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("blobstore: put %s: %w", name, err)
	}
	return nil
}

// Get downloads the named object. GetObject is lazy, so a missing key
// surfaces on the first read.
func (m *MinIO) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, m.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if isMinIONotFound(err) {
			return nil, fmt.Errorf("blobstore: get %s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// Delete removes the named object.
func (m *MinIO) Delete(ctx context.Context, name string) error {
	err := m.client.RemoveObject(ctx, m.bucket, m.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isMinIONotFound(err) {
		return err
	}
	return nil
}

// Exists checks whether the named object exists via StatObject.
func (m *MinIO) Exists(ctx context.Context, name string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, m.key(name), minio.StatObjectOptions{})
	if err != nil {
		if isMinIONotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns the names of all objects below the store prefix that start
// with prefix.
func (m *MinIO) List(ctx context.Context, prefix string) ([]string, error) {
	full := prefix
	if m.prefix != "" {
		full = m.prefix + "/" + prefix
	}
	var names []string
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    full,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		name := obj.Key
		if m.prefix != "" {
			name = strings.TrimPrefix(name, m.prefix+"/")
		}
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

var _ Store = (*MinIO)(nil)
