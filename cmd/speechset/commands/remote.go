package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/haivivi/speechset/cmd/speechset/internal/config"
	"github.com/haivivi/speechset/pkg/blobstore"
	"github.com/haivivi/speechset/pkg/cli"
)

// openStorage opens the blob store configured by storage.yaml of the
// selected context. The returned close func releases compressor state.
func openStorage(ctx context.Context) (blobstore.Store, func(), error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, nil, err
	}
	dir, err := cfg.ResolveContext(contextName)
	if err != nil {
		return nil, nil, err
	}
	sc, err := config.LoadService[config.StorageConfig](dir, config.ServiceStorage)
	if err != nil {
		return nil, nil, err
	}
	s, err := blobstore.Open(ctx, *sc)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {}
	if c, ok := s.(io.Closer); ok {
		closeFn = func() { c.Close() }
	}
	return s, closeFn, nil
}

var pushLabels []string

var pushCmd = &cobra.Command{
	Use:   "push <dataset.ssds> [name]",
	Short: "Upload a dataset to blob storage",
	Long: `Upload a dataset file to the storage configured in the context's
storage.yaml. The remote name defaults to the file name.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := filepath.Base(args[0])
		if len(args) == 2 {
			name = args[1]
		}
		ds, err := readDataset(ctx, args[0], false)
		if err != nil {
			return err
		}
		s, closeFn, err := openStorage(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		if err := blobstore.SaveDataset(ctx, s, name, ds, pushLabels...); err != nil {
			return err
		}
		cli.PrintSuccess(os.Stdout, "Pushed %s as %q", args[0], name)
		return nil
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull <name> [dataset.ssds]",
	Short: "Download a dataset from blob storage",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := args[0]
		path := filepath.Base(name)
		if len(args) == 2 {
			path = args[1]
		}
		s, closeFn, err := openStorage(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		ds, err := blobstore.LoadDataset(ctx, s, name)
		if err != nil {
			return err
		}
		if err := writeDataset(ctx, path, ds); err != nil {
			return err
		}
		cli.PrintSuccess(os.Stdout, "Pulled %q to %s (%d examples)", name, path, ds.Size())
		return nil
	},
}

var lsRemoteCmd = &cobra.Command{
	Use:   "ls-remote [prefix]",
	Short: "List datasets in blob storage",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		s, closeFn, err := openStorage(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		names, err := s.List(ctx, prefix)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No datasets found.")
			return nil
		}
		return output(names)
	},
}

func init() {
	pushCmd.Flags().StringSliceVar(&pushLabels, "labels", nil, "labels to upload (default: all)")

	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(lsRemoteCmd)
}
