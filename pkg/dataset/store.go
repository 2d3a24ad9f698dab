package dataset

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
)

// Entry pairs an example with its id.
type Entry struct {
	ID      string
	Example *Example
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator makes the store draw ids from g instead of DefaultIDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// WithLogger sets the logger. If unset, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store holds examples keyed by id and indexed by label.
//
// The primary map and the label index are kept in lockstep: every indexed id
// exists in the primary map and vice versa, and a label whose last example is
// removed disappears from the index.
type Store struct {
	examples map[string]*Example
	labels   map[string][]string

	ids    IDGenerator
	logger *slog.Logger
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		examples: make(map[string]*Example),
		labels:   make(map[string][]string),
		ids:      DefaultIDs,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Add takes ownership of ex and returns its newly assigned id.
func (s *Store) Add(ex *Example) (string, error) {
	if err := ex.Validate(); err != nil {
		return "", err
	}
	id := s.ids.NextID()
	if _, dup := s.examples[id]; dup {
		return "", fmt.Errorf("dataset: id generator returned duplicate id %q: %w", id, ErrInvalidArgument)
	}
	s.examples[id] = ex
	s.labels[ex.Label] = append(s.labels[ex.Label], id)
	s.logger.Debug("dataset: example added", "id", id, "label", ex.Label, "frames", ex.Spectrogram.NumFrames())
	return id, nil
}

// Remove deletes the example with the given id.
func (s *Store) Remove(id string) error {
	ex, ok := s.examples[id]
	if !ok {
		return fmt.Errorf("dataset: example %q: %w", id, ErrNotFound)
	}
	delete(s.examples, id)

	bucket := s.labels[ex.Label]
	if i := slices.Index(bucket, id); i >= 0 {
		bucket = slices.Delete(bucket, i, i+1)
	}
	if len(bucket) == 0 {
		delete(s.labels, ex.Label)
	} else {
		s.labels[ex.Label] = bucket
	}
	s.logger.Debug("dataset: example removed", "id", id, "label", ex.Label)
	return nil
}

// Get returns the example with the given id.
func (s *Store) Get(id string) (*Example, error) {
	ex, ok := s.examples[id]
	if !ok {
		return nil, fmt.Errorf("dataset: example %q: %w", id, ErrNotFound)
	}
	return ex, nil
}

// Merge adds deep copies of all examples of other to s, assigning new ids.
// Examples are added in vocabulary order and, within a label, in insertion
// order. other is left unchanged.
func (s *Store) Merge(other *Store) error {
	if other == nil {
		return fmt.Errorf("dataset: merge with nil store: %w", ErrInvalidArgument)
	}
	if other == s {
		return fmt.Errorf("dataset: cannot merge a store into itself: %w", ErrInvalidArgument)
	}
	for _, label := range other.Vocabulary() {
		for _, id := range other.labels[label] {
			if _, err := s.Add(other.examples[id].clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExampleCounts returns the number of examples per label.
func (s *Store) ExampleCounts() map[string]int {
	counts := make(map[string]int, len(s.labels))
	for label, ids := range s.labels {
		counts[label] = len(ids)
	}
	return counts
}

// Examples returns the examples of label in insertion order.
func (s *Store) Examples(label string) ([]Entry, error) {
	ids, ok := s.labels[label]
	if !ok {
		return nil, fmt.Errorf("dataset: label %q: %w", label, ErrNotFound)
	}
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = Entry{ID: id, Example: s.examples[id]}
	}
	return out, nil
}

// Vocabulary returns the distinct labels in ascending order.
func (s *Store) Vocabulary() []string {
	vocab := make([]string, 0, len(s.labels))
	for label := range s.labels {
		vocab = append(vocab, label)
	}
	sort.Strings(vocab)
	return vocab
}

// Size returns the number of examples.
func (s *Store) Size() int {
	return len(s.examples)
}

// IsEmpty reports whether the store holds no examples.
func (s *Store) IsEmpty() bool {
	return len(s.examples) == 0
}

// Clear removes all examples and labels.
func (s *Store) Clear() {
	s.examples = make(map[string]*Example)
	s.labels = make(map[string][]string)
}

// UniqueFrameCounts returns the distinct spectrogram frame counts in
// ascending order.
func (s *Store) UniqueFrameCounts() []int {
	seen := make(map[int]struct{})
	for _, ex := range s.examples {
		seen[ex.Spectrogram.NumFrames()] = struct{}{}
	}
	counts := make([]int, 0, len(seen))
	for n := range seen {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	return counts
}

// DurationMillis returns the summed duration of all spectrograms. A
// non-positive frameDurationMillis selects DefaultFrameDurationMillis.
func (s *Store) DurationMillis(frameDurationMillis float64) float64 {
	if frameDurationMillis <= 0 {
		frameDurationMillis = DefaultFrameDurationMillis
	}
	var total float64
	for _, ex := range s.examples {
		total += float64(ex.Spectrogram.NumFrames()) * frameDurationMillis
	}
	return total
}
