// Package archive stores dataset collections example by example in an
// ordered key-value engine.
//
// Unlike a serialized blob, an archived set can be listed, inspected and
// restored without decoding one large buffer. Keys are laid out as
//
//	{set}:meta                 set summary
//	{set}:ex:{label}:{seq}     one example, seq zero-padded
//
// so a prefix scan of a set returns its examples grouped by label and in
// insertion order within each label.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/speechset/pkg/dataset"
	"github.com/haivivi/speechset/pkg/dscodec"
	"github.com/haivivi/speechset/pkg/dserr"
)

var (
	ErrNotFound        = dserr.ErrNotFound
	ErrInvalidArgument = dserr.ErrInvalidArgument
	ErrFormat          = dserr.ErrFormat
)

const (
	sep       = ":"
	metaKey   = "meta"
	exampleNS = "ex"
)

// Record is the msgpack value stored for one example.
type Record struct {
	Label                string   `msgpack:"label"`
	SpectrogramNumFrames int      `msgpack:"frames"`
	SpectrogramFrameSize int      `msgpack:"frame_size"`
	RawAudioNumSamples   *int     `msgpack:"raw_samples,omitempty"`
	RawAudioSampleRateHz *float64 `msgpack:"raw_rate,omitempty"`
	Payload              []byte   `msgpack:"payload"`
}

func (r *Record) entry() dscodec.Entry {
	return dscodec.Entry{
		Label:                r.Label,
		SpectrogramNumFrames: r.SpectrogramNumFrames,
		SpectrogramFrameSize: r.SpectrogramFrameSize,
		RawAudioNumSamples:   r.RawAudioNumSamples,
		RawAudioSampleRateHz: r.RawAudioSampleRateHz,
	}
}

// SetInfo summarizes an archived set.
type SetInfo struct {
	Name     string         `msgpack:"name" json:"name" yaml:"name"`
	Examples int            `msgpack:"examples" json:"examples" yaml:"examples"`
	Counts   map[string]int `msgpack:"counts" json:"counts" yaml:"counts"`
	SavedAt  time.Time      `msgpack:"saved_at" json:"saved_at" yaml:"saved_at"`
}

// Archive saves and restores named sets of examples.
type Archive struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an Archive over b. A nil logger uses slog.Default().
func New(b Backend, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{backend: b, logger: logger, now: time.Now}
}

// Close closes the backend.
func (a *Archive) Close() error {
	return a.backend.Close()
}

func validSetName(set string) error {
	if set == "" || strings.Contains(set, sep) {
		return fmt.Errorf("archive: invalid set name %q: %w", set, ErrInvalidArgument)
	}
	return nil
}

func exampleKey(set, label string, seq int) string {
	return fmt.Sprintf("%s:%s:%s:%08d", set, exampleNS, label, seq)
}

// Save writes every example of ds under set, replacing whatever the set held
// before.
func (a *Archive) Save(ctx context.Context, set string, ds *dataset.Store) (SetInfo, error) {
	if err := validSetName(set); err != nil {
		return SetInfo{}, err
	}
	if ds == nil || ds.IsEmpty() {
		return SetInfo{}, fmt.Errorf("archive: cannot save an empty store: %w", ErrInvalidArgument)
	}
	stale, err := a.keys(ctx, set+sep)
	if err != nil {
		return SetInfo{}, err
	}

	info := SetInfo{Name: set, Counts: ds.ExampleCounts(), SavedAt: a.now().UTC()}
	var puts []Pair
	for _, label := range ds.Vocabulary() {
		entries, err := ds.Examples(label)
		if err != nil {
			return SetInfo{}, err
		}
		for seq, e := range entries {
			entry, payload, err := dataset.EncodeExample(e.Example)
			if err != nil {
				return SetInfo{}, err
			}
			val, err := msgpack.Marshal(&Record{
				Label:                entry.Label,
				SpectrogramNumFrames: entry.SpectrogramNumFrames,
				SpectrogramFrameSize: entry.SpectrogramFrameSize,
				RawAudioNumSamples:   entry.RawAudioNumSamples,
				RawAudioSampleRateHz: entry.RawAudioSampleRateHz,
				Payload:              payload,
			})
			if err != nil {
				return SetInfo{}, fmt.Errorf("archive: encode example %q: %w", e.ID, err)
			}
			puts = append(puts, Pair{Key: exampleKey(set, label, seq), Value: val})
			info.Examples++
		}
	}
	meta, err := msgpack.Marshal(&info)
	if err != nil {
		return SetInfo{}, err
	}
	puts = append(puts, Pair{Key: set + sep + metaKey, Value: meta})

	if err := a.backend.Apply(ctx, stale, puts); err != nil {
		return SetInfo{}, fmt.Errorf("archive: save %s: %w", set, err)
	}
	a.logger.InfoContext(ctx, "archive: set saved", "set", set, "examples", info.Examples, "replaced", max(len(stale)-1, 0))
	return info, nil
}

// Restore rebuilds the set as a new dataset.Store. Examples get fresh ids.
func (a *Archive) Restore(ctx context.Context, set string, opts ...dataset.Option) (*dataset.Store, error) {
	if _, err := a.Info(ctx, set); err != nil {
		return nil, err
	}
	ds := dataset.New(opts...)
	for p, err := range a.backend.Scan(ctx, set+sep+exampleNS+sep) {
		if err != nil {
			return nil, err
		}
		var rec Record
		if err := msgpack.Unmarshal(p.Value, &rec); err != nil {
			return nil, fmt.Errorf("archive: decode %s: %v: %w", p.Key, err, ErrFormat)
		}
		ex, err := dataset.DecodeExample(rec.entry(), rec.Payload)
		if err != nil {
			return nil, fmt.Errorf("archive: decode %s: %w", p.Key, err)
		}
		if _, err := ds.Add(ex); err != nil {
			return nil, err
		}
	}
	a.logger.DebugContext(ctx, "archive: set restored", "set", set, "examples", ds.Size())
	return ds, nil
}

// Info returns the summary of set.
func (a *Archive) Info(ctx context.Context, set string) (SetInfo, error) {
	if err := validSetName(set); err != nil {
		return SetInfo{}, err
	}
	val, err := a.backend.Get(ctx, set+sep+metaKey)
	if err != nil {
		return SetInfo{}, fmt.Errorf("archive: set %q: %w", set, err)
	}
	var info SetInfo
	if err := msgpack.Unmarshal(val, &info); err != nil {
		return SetInfo{}, fmt.Errorf("archive: set %q meta: %v: %w", set, err, ErrFormat)
	}
	return info, nil
}

// Sets returns the summaries of all archived sets in name order.
// It scans the whole keyspace.
func (a *Archive) Sets(ctx context.Context) ([]SetInfo, error) {
	var sets []SetInfo
	for p, err := range a.backend.Scan(ctx, "") {
		if err != nil {
			return nil, err
		}
		name, ok := strings.CutSuffix(p.Key, sep+metaKey)
		if !ok || strings.Contains(name, sep) {
			continue
		}
		var info SetInfo
		if err := msgpack.Unmarshal(p.Value, &info); err != nil {
			return nil, fmt.Errorf("archive: set %q meta: %v: %w", name, err, ErrFormat)
		}
		sets = append(sets, info)
	}
	return sets, nil
}

// Delete removes set and all its examples. Deleting an unknown set is not an
// error.
func (a *Archive) Delete(ctx context.Context, set string) error {
	if err := validSetName(set); err != nil {
		return err
	}
	keys, err := a.keys(ctx, set+sep)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := a.backend.Apply(ctx, keys, nil); err != nil {
		return fmt.Errorf("archive: delete %s: %w", set, err)
	}
	a.logger.InfoContext(ctx, "archive: set deleted", "set", set, "keys", len(keys))
	return nil
}

func (a *Archive) keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for p, err := range a.backend.Scan(ctx, prefix) {
		if err != nil {
			return nil, err
		}
		keys = append(keys, p.Key)
	}
	return keys, nil
}
