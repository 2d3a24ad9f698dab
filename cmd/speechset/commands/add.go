package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/speechset/pkg/capture"
)

var (
	addKeepRaw    bool
	addSampleRate int
	addNumMels    int
)

var addCmd = &cobra.Command{
	Use:   "add <dataset.ssds> <label> <file.wav>...",
	Short: "Add WAV recordings to a dataset file",
	Long: `Decode WAV recordings, compute their log-mel spectrograms and append them
to a dataset file under the given label. The file is created if missing.

Use the label _background_noise_ for background recordings; batch assembly
cuts them into evenly spaced windows and can mix them into keyword windows.

Examples:
  speechset add words.ssds yes rec/yes_*.wav
  speechset add words.ssds _background_noise_ rec/noise.wav --keep-raw`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, label, wavs := args[0], args[1], args[2:]

		cfg := capture.DefaultConfig()
		cfg.KeepRawAudio = addKeepRaw
		if addSampleRate > 0 {
			cfg.SampleRate = addSampleRate
		}
		if addNumMels > 0 {
			cfg.NumMels = addNumMels
		}
		ext, err := capture.New(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ds, err := readDataset(ctx, path, true)
		if err != nil {
			return err
		}
		for _, wav := range wavs {
			f, err := os.Open(wav)
			if err != nil {
				return err
			}
			ex, err := ext.FromWAV(f, label)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", wav, err)
			}
			if _, err := ds.Add(ex); err != nil {
				return fmt.Errorf("%s: %w", wav, err)
			}
		}
		if err := writeDataset(ctx, path, ds); err != nil {
			return err
		}
		fmt.Printf("Added %d example(s) to %q in %s (%d total).\n", len(wavs), label, path, ds.ExampleCounts()[label])
		return nil
	},
}

func init() {
	addCmd.Flags().BoolVar(&addKeepRaw, "keep-raw", false, "store the resampled waveform with each example")
	addCmd.Flags().IntVar(&addSampleRate, "sample-rate", 0, "target sample rate in Hz (default 16000)")
	addCmd.Flags().IntVar(&addNumMels, "num-mels", 0, "mel bands per frame (default 40)")

	rootCmd.AddCommand(addCmd)
}
