package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/speechset/pkg/dataset"
)

var removeIndex int

var removeCmd = &cobra.Command{
	Use:   "remove <dataset.ssds> <label>",
	Short: "Remove examples from a dataset file",
	Long: `Remove every example of a label, or only the one at --index (counted in
insertion order). A dataset left empty is deleted.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, label := args[0], args[1]
		ctx := cmd.Context()
		ds, err := readDataset(ctx, path, false)
		if err != nil {
			return err
		}
		entries, err := ds.Examples(label)
		if err != nil {
			return err
		}
		if removeIndex >= 0 {
			if removeIndex >= len(entries) {
				return fmt.Errorf("label %q has %d examples, index %d out of range", label, len(entries), removeIndex)
			}
			entries = entries[removeIndex : removeIndex+1]
		}
		for _, e := range entries {
			if err := ds.Remove(e.ID); err != nil {
				return err
			}
		}

		if ds.IsEmpty() {
			if err := os.Remove(path); err != nil {
				return err
			}
			fmt.Printf("Removed %d example(s); %s is empty and was deleted.\n", len(entries), path)
			return nil
		}
		if err := writeDataset(ctx, path, ds); err != nil {
			return err
		}
		fmt.Printf("Removed %d example(s) of %q from %s.\n", len(entries), label, path)
		return nil
	},
}

var mergeLabels []string

var mergeCmd = &cobra.Command{
	Use:   "merge <out.ssds> <in.ssds>...",
	Short: "Merge dataset files",
	Long: `Merge the examples of the input files into out.ssds, replacing it.
With --labels only those labels are written.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, inputs := args[0], args[1:]
		ctx := cmd.Context()
		merged := dataset.New()
		for _, in := range inputs {
			ds, err := readDataset(ctx, in, false)
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			if err := merged.Merge(ds); err != nil {
				return err
			}
		}
		if err := writeDataset(ctx, out, merged, mergeLabels...); err != nil {
			return err
		}
		fmt.Printf("Merged %d file(s) into %s.\n", len(inputs), out)
		return nil
	},
}

func init() {
	removeCmd.Flags().IntVar(&removeIndex, "index", -1, "remove only the example at this position")
	mergeCmd.Flags().StringSliceVar(&mergeLabels, "labels", nil, "labels to keep (default: all)")

	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(mergeCmd)
}
