package commands

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/speechset/pkg/batch"
	"github.com/haivivi/speechset/pkg/blobstore"
	"github.com/haivivi/speechset/pkg/cli"
	"github.com/haivivi/speechset/pkg/dscodec"
)

// batchRequest is the request file accepted by "batch -f". Flags given on
// the command line override it.
type batchRequest struct {
	Label           string  `json:"label" yaml:"label"`
	NumFrames       int     `json:"num_frames" yaml:"num_frames"`
	HopFrames       int     `json:"hop_frames" yaml:"hop_frames"`
	Normalize       *bool   `json:"normalize" yaml:"normalize"`
	Shuffle         *bool   `json:"shuffle" yaml:"shuffle"`
	NoiseRatio      float64 `json:"noise_ratio" yaml:"noise_ratio"`
	Seed            *uint64 `json:"seed" yaml:"seed"`
	ValidationSplit float64 `json:"validation_split" yaml:"validation_split"`
}

type splitSummary struct {
	Windows int            `json:"windows" yaml:"windows"`
	Shape   []int          `json:"shape" yaml:"shape"`
	Classes map[string]int `json:"classes,omitempty" yaml:"classes,omitempty"`
}

type batchSummary struct {
	Label      string        `json:"label,omitempty" yaml:"label,omitempty"`
	Vocabulary []string      `json:"vocabulary" yaml:"vocabulary"`
	NumFrames  int           `json:"num_frames" yaml:"num_frames"`
	FrameSize  int           `json:"frame_size" yaml:"frame_size"`
	Train      splitSummary  `json:"train" yaml:"train"`
	Validation *splitSummary `json:"validation,omitempty" yaml:"validation,omitempty"`
}

func summarize(b *batch.Batch) splitSummary {
	s := splitSummary{Windows: b.Len(), Shape: b.X.Shape}
	if b.Classes != nil {
		s.Classes = make(map[string]int, len(b.Vocabulary))
		for _, c := range b.Classes {
			s.Classes[b.Vocabulary[c]]++
		}
	}
	return s
}

func (s *batchSummary) Table() cli.Table {
	t := cli.Table{
		Title:   fmt.Sprintf("%d x %d windows", s.NumFrames, s.FrameSize),
		Headers: []string{"LABEL", "TRAIN"},
		Footer:  fmt.Sprintf("%d training windows", s.Train.Windows),
	}
	if s.Validation != nil {
		t.Headers = append(t.Headers, "VALIDATION")
		t.Footer += fmt.Sprintf(", %d validation windows", s.Validation.Windows)
	}
	if s.Label != "" {
		t.Rows = append(t.Rows, []string{s.Label, strconv.Itoa(s.Train.Windows)})
		return t
	}
	for _, label := range s.Vocabulary {
		row := []string{label, strconv.Itoa(s.Train.Classes[label])}
		if s.Validation != nil {
			row = append(row, strconv.Itoa(s.Validation.Classes[label]))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

var (
	batchFile        string
	batchLabel       string
	batchFrames      int
	batchHop         int
	batchNoNormalize bool
	batchNoShuffle   bool
	batchNoiseRatio  float64
	batchSeed        uint64
	batchSplit       float64
	batchSaveDir     string
)

var batchCmd = &cobra.Command{
	Use:   "batch <dataset.ssds>",
	Short: "Assemble a training batch",
	Long: `Cut every example of a dataset into fixed-length windows and assemble them
into a normalized, shuffled batch with one-hot labels.

Parameters come from flags or from a YAML/JSON request file (-f):

  label: ""            # restrict to one label (no one-hot matrix)
  num_frames: 40       # window length; defaults from uniform datasets
  hop_frames: 4
  normalize: true
  shuffle: true
  noise_ratio: 0.3     # mix background noise into keyword windows
  seed: 7
  validation_split: 0.2

With --save, the tensors are written as little-endian float32 files
(train_x.f32, train_y.f32 and, with a split, val_x.f32, val_y.f32).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var req batchRequest
		if batchFile != "" {
			if err := cli.LoadRequest(batchFile, &req); err != nil {
				return err
			}
		}
		flags := cmd.Flags()
		if flags.Changed("label") {
			req.Label = batchLabel
		}
		if flags.Changed("frames") {
			req.NumFrames = batchFrames
		}
		if flags.Changed("hop") {
			req.HopFrames = batchHop
		}
		if flags.Changed("no-normalize") {
			v := !batchNoNormalize
			req.Normalize = &v
		}
		if flags.Changed("no-shuffle") {
			v := !batchNoShuffle
			req.Shuffle = &v
		}
		if flags.Changed("noise-ratio") {
			req.NoiseRatio = batchNoiseRatio
		}
		if flags.Changed("seed") {
			req.Seed = &batchSeed
		}
		if flags.Changed("split") {
			req.ValidationSplit = batchSplit
		}

		cfg := batch.Config{
			Label:                     req.Label,
			NumFrames:                 req.NumFrames,
			HopFrames:                 req.HopFrames,
			DisableNormalize:          req.Normalize != nil && !*req.Normalize,
			DisableShuffle:            req.Shuffle != nil && !*req.Shuffle,
			AugmentByMixingNoiseRatio: req.NoiseRatio,
			Logger:                    slog.Default(),
		}
		if req.Seed != nil {
			cfg.Rand = rand.New(rand.NewPCG(*req.Seed, *req.Seed))
		}

		ctx := cmd.Context()
		ds, err := readDataset(ctx, args[0], false)
		if err != nil {
			return err
		}

		var train, val *batch.Batch
		if req.ValidationSplit != 0 {
			train, val, err = batch.AssembleSplit(ds, cfg, req.ValidationSplit)
		} else {
			train, err = batch.Assemble(ds, cfg)
		}
		if err != nil {
			return err
		}

		if batchSaveDir != "" {
			if err := saveBatch(ctx, batchSaveDir, train, val); err != nil {
				return err
			}
		}

		summary := &batchSummary{
			Label:      req.Label,
			Vocabulary: train.Vocabulary,
			NumFrames:  train.NumFrames,
			FrameSize:  train.FrameSize,
			Train:      summarize(train),
		}
		if val != nil {
			v := summarize(val)
			summary.Validation = &v
		}
		return output(summary)
	},
}

func saveBatch(ctx context.Context, dir string, train, val *batch.Batch) error {
	store, err := blobstore.NewLocal(dir)
	if err != nil {
		return err
	}
	put := func(prefix string, b *batch.Batch) error {
		if err := store.Put(ctx, prefix+"_x.f32", dscodec.Float32sToBytes(b.X.Data)); err != nil {
			return err
		}
		if b.Y == nil {
			return nil
		}
		raw := b.Y.RawMatrix().Data
		y := make([]float32, len(raw))
		for i, v := range raw {
			y[i] = float32(v)
		}
		return store.Put(ctx, prefix+"_y.f32", dscodec.Float32sToBytes(y))
	}
	if err := put("train", train); err != nil {
		return err
	}
	if val != nil {
		return put("val", val)
	}
	return nil
}

func init() {
	f := batchCmd.Flags()
	f.StringVarP(&batchFile, "file", "f", "", "request file (YAML or JSON, - for stdin)")
	f.StringVar(&batchLabel, "label", "", "restrict the batch to one label")
	f.IntVar(&batchFrames, "frames", 0, "window length in frames")
	f.IntVar(&batchHop, "hop", 0, "hop between windows in frames")
	f.BoolVar(&batchNoNormalize, "no-normalize", false, "skip z-score normalization")
	f.BoolVar(&batchNoShuffle, "no-shuffle", false, "keep windows in label order")
	f.Float64Var(&batchNoiseRatio, "noise-ratio", 0, "mix this fraction of background noise into keyword windows")
	f.Uint64Var(&batchSeed, "seed", 0, "random seed for shuffling and noise")
	f.Float64Var(&batchSplit, "split", 0, "fraction of examples per label held out for validation")
	f.StringVar(&batchSaveDir, "save", "", "directory to write the tensors to")

	rootCmd.AddCommand(batchCmd)
}
