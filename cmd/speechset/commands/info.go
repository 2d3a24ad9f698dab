package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/speechset/pkg/cli"
)

type labelInfo struct {
	Label    string `json:"label" yaml:"label"`
	Examples int    `json:"examples" yaml:"examples"`
	RawAudio int    `json:"raw_audio" yaml:"raw_audio"`
}

type datasetInfo struct {
	File        string      `json:"file" yaml:"file"`
	Bytes       int64       `json:"bytes" yaml:"bytes"`
	Examples    int         `json:"examples" yaml:"examples"`
	Labels      []labelInfo `json:"labels" yaml:"labels"`
	FrameCounts []int       `json:"frame_counts" yaml:"frame_counts"`
	DurationMs  float64     `json:"duration_ms" yaml:"duration_ms"`
}

func (d *datasetInfo) Table() cli.Table {
	t := cli.Table{
		Title:   d.File,
		Headers: []string{"LABEL", "EXAMPLES", "RAW AUDIO"},
		Footer: fmt.Sprintf("%d examples, %s of spectrogram, %s on disk",
			d.Examples, cli.FormatDuration(d.DurationMs), cli.FormatBytes(d.Bytes)),
	}
	for _, l := range d.Labels {
		t.Rows = append(t.Rows, []string{l.Label, strconv.Itoa(l.Examples), strconv.Itoa(l.RawAudio)})
	}
	return t
}

var infoFrameMs float64

var infoCmd = &cobra.Command{
	Use:   "info <dataset.ssds>",
	Short: "Summarize a dataset file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		st, err := os.Stat(path)
		if err != nil {
			return err
		}
		ds, err := readDataset(cmd.Context(), path, false)
		if err != nil {
			return err
		}

		info := &datasetInfo{
			File:        path,
			Bytes:       st.Size(),
			Examples:    ds.Size(),
			FrameCounts: ds.UniqueFrameCounts(),
			DurationMs:  ds.DurationMillis(infoFrameMs),
		}
		for _, label := range ds.Vocabulary() {
			entries, err := ds.Examples(label)
			if err != nil {
				return err
			}
			li := labelInfo{Label: label, Examples: len(entries)}
			for _, e := range entries {
				if e.Example.RawAudio != nil {
					li.RawAudio++
				}
			}
			info.Labels = append(info.Labels, li)
		}
		return output(info)
	},
}

func init() {
	infoCmd.Flags().Float64Var(&infoFrameMs, "frame-ms", 0, "duration of one spectrogram frame in milliseconds (default 23.2)")

	rootCmd.AddCommand(infoCmd)
}
