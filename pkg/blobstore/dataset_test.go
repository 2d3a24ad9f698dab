package blobstore

import (
	"context"
	"errors"
	"testing"

	"github.com/haivivi/speechset/pkg/dataset"
)

func TestSaveAndLoadDataset(t *testing.T) {
	ds := dataset.New()
	for _, label := range []string{"yes", "no", "yes"} {
		if _, err := ds.Add(&dataset.Example{
			Label:       label,
			Spectrogram: dataset.Spectrogram{Data: []float32{1, 2, 3, 4}, FrameSize: 2},
		}); err != nil {
			t.Fatal(err)
		}
	}

	ctx := context.Background()
	for name, s := range map[string]Store{
		"local": newTestLocal(t),
		"s3":    NewS3(newMockS3(), "bucket", "p"),
	} {
		t.Run(name, func(t *testing.T) {
			if err := SaveDataset(ctx, s, "kws.ssds", ds); err != nil {
				t.Fatal(err)
			}
			got, err := LoadDataset(ctx, s, "kws.ssds")
			if err != nil {
				t.Fatal(err)
			}
			if got.Size() != 3 || got.ExampleCounts()["yes"] != 2 {
				t.Fatalf("loaded %d examples: %v", got.Size(), got.ExampleCounts())
			}

			if err := SaveDataset(ctx, s, "no.ssds", ds, "no"); err != nil {
				t.Fatal(err)
			}
			sub, err := LoadDataset(ctx, s, "no.ssds")
			if err != nil {
				t.Fatal(err)
			}
			if sub.Size() != 1 {
				t.Fatalf("subset size = %d", sub.Size())
			}

			if _, err := LoadDataset(ctx, s, "missing.ssds"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestLoadDatasetCorrupt(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	if err := s.Put(ctx, "bad.ssds", []byte("garbage!garbage!")); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDataset(ctx, s, "bad.ssds"); !errors.Is(err, dataset.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestSaveEmptyDataset(t *testing.T) {
	if err := SaveDataset(context.Background(), newTestLocal(t), "e.ssds", dataset.New()); !errors.Is(err, dataset.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
