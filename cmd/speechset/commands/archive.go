package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/speechset/cmd/speechset/internal/config"
	"github.com/haivivi/speechset/pkg/archive"
	"github.com/haivivi/speechset/pkg/cli"
)

var archiveDir string

// openArchive opens the badger archive named by --dir, or by archive.yaml of
// the selected context.
func openArchive() (*archive.Archive, error) {
	opts := archive.BadgerOptions{Dir: archiveDir, Logger: slog.Default()}
	if opts.Dir == "" {
		cfg, err := GetConfig()
		if err != nil {
			return nil, err
		}
		dir, err := cfg.ResolveContext(contextName)
		if err != nil {
			return nil, err
		}
		ac, err := config.LoadService[config.ArchiveConfig](dir, config.ServiceArchive)
		if err != nil {
			return nil, err
		}
		opts.Dir, opts.InMemory = ac.Dir, ac.InMemory
	}
	b, err := archive.NewBadger(opts)
	if err != nil {
		return nil, err
	}
	return archive.New(b, slog.Default()), nil
}

type setList []archive.SetInfo

func (l setList) Table() cli.Table {
	t := cli.Table{Headers: []string{"SET", "EXAMPLES", "LABELS", "SAVED"}}
	for _, s := range l {
		t.Rows = append(t.Rows, []string{
			s.Name, strconv.Itoa(s.Examples), strconv.Itoa(len(s.Counts)),
			s.SavedAt.Local().Format(time.DateTime),
		})
	}
	return t
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Save and restore datasets in the example archive",
	Long: `The archive keeps named sets of examples in a BadgerDB directory, one
record per example, so sets can be listed and restored without rewriting a
single large blob.

The directory comes from --dir or from archive.yaml of the current context:

  dir: /var/lib/speechset/archive

Examples:
  speechset archive save words.ssds words-v3
  speechset archive list
  speechset archive restore words-v3 words.ssds`,
}

var archiveSaveCmd = &cobra.Command{
	Use:   "save <dataset.ssds> <set>",
	Short: "Archive a dataset file as a named set, replacing it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ds, err := readDataset(ctx, args[0], false)
		if err != nil {
			return err
		}
		a, err := openArchive()
		if err != nil {
			return err
		}
		defer a.Close()
		info, err := a.Save(ctx, args[1], ds)
		if err != nil {
			return err
		}
		return output(info)
	},
}

var archiveRestoreCmd = &cobra.Command{
	Use:   "restore <set> <dataset.ssds>",
	Short: "Write an archived set to a dataset file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openArchive()
		if err != nil {
			return err
		}
		defer a.Close()
		ds, err := a.Restore(ctx, args[0])
		if err != nil {
			return err
		}
		if err := writeDataset(ctx, args[1], ds); err != nil {
			return err
		}
		cli.PrintSuccess(os.Stdout, "Restored %q to %s (%d examples)", args[0], args[1], ds.Size())
		return nil
	},
}

var archiveListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List archived sets",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openArchive()
		if err != nil {
			return err
		}
		defer a.Close()
		sets, err := a.Sets(cmd.Context())
		if err != nil {
			return err
		}
		if len(sets) == 0 {
			fmt.Println("No archived sets.")
			return nil
		}
		return output(setList(sets))
	},
}

var archiveDeleteCmd = &cobra.Command{
	Use:   "delete <set>",
	Short: "Delete an archived set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openArchive()
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Set %q deleted.\n", args[0])
		return nil
	},
}

func init() {
	archiveCmd.PersistentFlags().StringVar(&archiveDir, "dir", "", "archive directory (default: archive.yaml of the context)")

	archiveCmd.AddCommand(archiveSaveCmd)
	archiveCmd.AddCommand(archiveRestoreCmd)
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveDeleteCmd)

	rootCmd.AddCommand(archiveCmd)
}
