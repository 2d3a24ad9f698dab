package archive

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sort"
	"strings"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
)

// Pair is a key and its value.
type Pair struct {
	Key   string
	Value []byte
}

// Backend is the ordered key-value engine under an Archive.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Get returns the value of key, or an error wrapping ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Scan yields every pair whose key starts with prefix in ascending key
	// order.
	Scan(ctx context.Context, prefix string) iter.Seq2[Pair, error]

	// Apply deletes the given keys and then stores puts, as one batch.
	Apply(ctx context.Context, deletes []string, puts []Pair) error

	Close() error
}

// Badger is a Backend backed by BadgerDB v4.
type Badger struct {
	db *badger.DB
}

// BadgerOptions configures a Badger backend.
type BadgerOptions struct {
	// Dir holds the data files. Required unless InMemory is set.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	// Logger receives badger's warnings and errors. Nil uses slog.Default().
	Logger *slog.Logger
}

// NewBadger opens a BadgerDB-backed Backend.
func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("archive: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{logger})
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("archive: open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("archive: key %q: %w", key, ErrNotFound)
	}
	return val, err
}

func (b *Badger) Scan(_ context.Context, prefix string) iter.Seq2[Pair, error] {
	p := []byte(prefix)
	return func(yield func(Pair, error) bool) {
		err := b.db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: p})
			defer it.Close()
			for it.Seek(p); it.ValidForPrefix(p); it.Next() {
				item := it.Item()
				val, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				if !yield(Pair{Key: string(item.KeyCopy(nil)), Value: val}, nil) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(Pair{}, err)
		}
	}
}

func (b *Badger) Apply(_ context.Context, deletes []string, puts []Pair) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range deletes {
		if err := wb.Delete([]byte(k)); err != nil {
			return err
		}
	}
	for _, p := range puts {
		if err := wb.Set([]byte(p.Key), p.Value); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// badgerLogger forwards badger's warnings and errors to slog and drops its
// info and debug chatter.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(f string, v ...any) {
	b.l.Error("badger: " + strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (b badgerLogger) Warningf(f string, v ...any) {
	b.l.Warn("badger: " + strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (badgerLogger) Infof(string, ...any)  {}
func (badgerLogger) Debugf(string, ...any) {}

// Memory is an in-memory Backend intended for tests and dry runs.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	v, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("archive: key %q: %w", key, ErrNotFound)
	}
	return append([]byte(nil), v...), nil
}

// Scan snapshots the matching pairs when called.
func (m *Memory) Scan(_ context.Context, prefix string) iter.Seq2[Pair, error] {
	m.mu.RLock()
	var pairs []Pair
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			pairs = append(pairs, Pair{Key: k, Value: append([]byte(nil), v...)})
		}
	}
	m.mu.RUnlock()
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })

	return func(yield func(Pair, error) bool) {
		for _, p := range pairs {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (m *Memory) Apply(_ context.Context, deletes []string, puts []Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range deletes {
		delete(m.data, k)
	}
	for _, p := range puts {
		m.data[p.Key] = append([]byte(nil), p.Value...)
	}
	return nil
}

func (m *Memory) Close() error { return nil }

var (
	_ Backend = (*Badger)(nil)
	_ Backend = (*Memory)(nil)
)
