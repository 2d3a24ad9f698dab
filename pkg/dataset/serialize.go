package dataset

import (
	"fmt"
	"slices"
	"sort"

	"github.com/haivivi/speechset/pkg/dscodec"
)

// Serialize encodes the store into a single blob.
//
// Without labels every example is written; otherwise only the examples of
// the given labels, each of which must be in the vocabulary. Examples are
// written label by label in ascending label order and in insertion order
// within a label, so serializing an unchanged store is reproducible byte for
// byte. Ids are not persisted.
func (s *Store) Serialize(labels ...string) ([]byte, error) {
	if s.IsEmpty() {
		return nil, fmt.Errorf("dataset: cannot serialize an empty store: %w", ErrInvalidArgument)
	}
	selected, err := s.selectLabels(labels)
	if err != nil {
		return nil, err
	}

	var (
		manifest []dscodec.Entry
		size     int
	)
	for _, label := range selected {
		for _, id := range s.labels[label] {
			ex := s.examples[id]
			n := ex.Spectrogram.NumFrames() * ex.Spectrogram.FrameSize * 4
			if ex.RawAudio != nil {
				n += len(ex.RawAudio.Data) * 4
			}
			size += n
		}
	}
	payload := make([]byte, 0, size)
	for _, label := range selected {
		for _, id := range s.labels[label] {
			entry, span, err := encodeExample(s.examples[id])
			if err != nil {
				return nil, fmt.Errorf("dataset: serialize example %q: %w", id, err)
			}
			manifest = append(manifest, entry)
			payload = append(payload, span...)
		}
	}

	blob, err := dscodec.Encode(manifest, payload)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("dataset: serialized", "examples", len(manifest), "labels", len(selected), "bytes", len(blob))
	return blob, nil
}

func (s *Store) selectLabels(labels []string) ([]string, error) {
	if len(labels) == 0 {
		return s.Vocabulary(), nil
	}
	selected := slices.Clone(labels)
	sort.Strings(selected)
	selected = slices.Compact(selected)
	for _, label := range selected {
		if _, ok := s.labels[label]; !ok {
			return nil, fmt.Errorf("dataset: label %q is not in the vocabulary: %w", label, ErrInvalidArgument)
		}
	}
	return selected, nil
}

func encodeExample(ex *Example) (dscodec.Entry, []byte, error) {
	var raw *dscodec.RawAudio
	if ex.RawAudio != nil {
		raw = &dscodec.RawAudio{Data: ex.RawAudio.Data, SampleRateHz: ex.RawAudio.SampleRateHz}
	}
	return dscodec.EncodeExample(ex.Label, ex.Spectrogram.Data, ex.Spectrogram.FrameSize, raw)
}

// Load decodes a blob produced by Serialize into a new Store. Examples get
// fresh ids and keep their serialized order.
func Load(blob []byte, opts ...Option) (*Store, error) {
	d, err := dscodec.Decode(blob)
	if err != nil {
		return nil, err
	}
	s := New(opts...)
	if err := s.addDecoded(d); err != nil {
		return nil, err
	}
	s.logger.Debug("dataset: loaded", "examples", s.Size(), "version", d.Version)
	return s, nil
}

func (s *Store) addDecoded(d *dscodec.Decoded) error {
	for entry, span := range d.Examples() {
		ex, err := DecodeExample(entry, span)
		if err != nil {
			return err
		}
		if _, err := s.Add(ex); err != nil {
			return err
		}
	}
	return nil
}

// EncodeExample returns the manifest entry and payload span of ex.
func EncodeExample(ex *Example) (dscodec.Entry, []byte, error) {
	if err := ex.Validate(); err != nil {
		return dscodec.Entry{}, nil, err
	}
	return encodeExample(ex)
}

// DecodeExample rebuilds an example from its manifest entry and payload span.
func DecodeExample(entry dscodec.Entry, span []byte) (*Example, error) {
	data, raw, err := dscodec.DecodeExample(entry, span)
	if err != nil {
		return nil, err
	}
	ex := &Example{
		Label: entry.Label,
		Spectrogram: Spectrogram{
			Data:      data,
			FrameSize: entry.SpectrogramFrameSize,
		},
	}
	if raw != nil {
		ex.RawAudio = &RawAudio{Data: raw.Data, SampleRateHz: raw.SampleRateHz}
	}
	return ex, nil
}
