package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/speechset/pkg/cli"
	"github.com/haivivi/speechset/pkg/dataset"
	"github.com/haivivi/speechset/pkg/window"
)

type exampleWindows struct {
	Example int             `json:"example" yaml:"example"`
	Frames  int             `json:"frames" yaml:"frames"`
	Focus   int             `json:"focus" yaml:"focus"`
	Windows []window.Window `json:"windows" yaml:"windows"`
}

type windowReport []exampleWindows

func (r windowReport) Table() cli.Table {
	t := cli.Table{Headers: []string{"EXAMPLE", "FRAMES", "FOCUS", "BEGIN", "END"}}
	for _, e := range r {
		focus := "-"
		if e.Focus != window.NoFocus {
			focus = strconv.Itoa(e.Focus)
		}
		for _, w := range e.Windows {
			t.Rows = append(t.Rows, []string{
				strconv.Itoa(e.Example), strconv.Itoa(e.Frames), focus,
				strconv.Itoa(w.Begin), strconv.Itoa(w.End),
			})
		}
	}
	return t
}

var (
	windowsFocus   int
	windowsDataset string
	windowsLabel   string
)

var windowsCmd = &cobra.Command{
	Use:   "windows <window-frames> <hop-frames> [snippet-frames]",
	Short: "Show the training windows of a snippet",
	Long: `Print the windows batch assembly would cut from a snippet.

Without --dataset, snippet-frames is required and --focus selects the frame
every window must contain (-1 for evenly spaced windows). With --dataset and
--label, the windows of every example of that label are shown, focused on
its frame of peak intensity (evenly spaced for _background_noise_).

Examples:
  speechset windows 3 2 10 --focus 5
  speechset windows 40 4 --dataset words.ssds --label yes`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ints := make([]int, len(args))
		for i, a := range args {
			n, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("invalid number %q", a)
			}
			ints[i] = n
		}
		windowLen, hop := ints[0], ints[1]

		if windowsDataset == "" {
			if len(ints) != 3 {
				return fmt.Errorf("snippet-frames is required without --dataset")
			}
			ws, err := window.ValidWindows(ints[2], windowsFocus, windowLen, hop)
			if err != nil {
				return err
			}
			return output(windowReport{{Frames: ints[2], Focus: windowsFocus, Windows: ws}})
		}

		if windowsLabel == "" {
			return fmt.Errorf("--label is required with --dataset")
		}
		ds, err := readDataset(cmd.Context(), windowsDataset, false)
		if err != nil {
			return err
		}
		entries, err := ds.Examples(windowsLabel)
		if err != nil {
			return err
		}
		report := make(windowReport, 0, len(entries))
		for i, e := range entries {
			sp := e.Example.Spectrogram
			focus := window.NoFocus
			if windowsLabel != dataset.BackgroundNoiseTag {
				if focus, err = window.MaxIntensityFrameIndex(sp.Data, sp.FrameSize); err != nil {
					return err
				}
			}
			var ws []window.Window
			if focus == window.NoFocus {
				ws, err = window.ValidWindows(sp.NumFrames(), window.NoFocus, windowLen, hop)
			} else {
				ws, err = window.ValidWindowsFocused(sp.NumFrames(), focus, windowLen, hop)
			}
			if err != nil {
				return fmt.Errorf("example %d: %w", i, err)
			}
			report = append(report, exampleWindows{Example: i, Frames: sp.NumFrames(), Focus: focus, Windows: ws})
		}
		return output(report)
	},
}

func init() {
	windowsCmd.Flags().IntVar(&windowsFocus, "focus", window.NoFocus, "frame every window must contain")
	windowsCmd.Flags().StringVar(&windowsDataset, "dataset", "", "dataset file to read snippets from")
	windowsCmd.Flags().StringVar(&windowsLabel, "label", "", "label whose examples are windowed")

	rootCmd.AddCommand(windowsCmd)
}
