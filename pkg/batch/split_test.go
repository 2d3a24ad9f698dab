package batch

import (
	"errors"
	"testing"

	"github.com/haivivi/speechset/pkg/dataset"
)

func TestAssembleSplit(t *testing.T) {
	s := dataset.New()
	for i := 0; i < 10; i++ {
		add(t, s, "yes", peaked(3, 2, i%3, 1))
		add(t, s, "no", peaked(3, 2, i%3, 100))
	}
	train, val, err := AssembleSplit(s, Config{Rand: seeded()}, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	if train.Len()+val.Len() != 20 {
		t.Fatalf("split sizes %d + %d, want 20", train.Len(), val.Len())
	}
	count := func(b *Batch) map[int]int {
		m := make(map[int]int)
		for _, c := range b.Classes {
			m[c]++
		}
		return m
	}
	if got := count(val); got[0] != 2 || got[1] != 2 {
		t.Fatalf("validation classes = %v, want 2 per class", got)
	}
	if got := count(train); got[0] != 8 || got[1] != 8 {
		t.Fatalf("training classes = %v, want 8 per class", got)
	}
	if r, _ := val.Y.Dims(); r != 4 {
		t.Fatalf("validation Y rows = %d", r)
	}
}

func TestAssembleSplitInvalid(t *testing.T) {
	s := twoLabelStore(t)
	for _, split := range []float64{0, 1, -0.5, 2} {
		if _, _, err := AssembleSplit(s, Config{}, split); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("split %v: expected ErrInvalidArgument, got %v", split, err)
		}
	}
	if _, _, err := AssembleSplit(s, Config{Label: "yes"}, 0.5); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("label: expected ErrInvalidArgument, got %v", err)
	}
}
