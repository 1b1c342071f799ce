// Command rstore is a thin, non-interactive wrapper over the Manager:
// enough subcommands to exercise create/get/search/rank from a shell,
// not a full embedder (that's the library's job).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/contentvault/resourcestore/internal/blobstore"
	"github.com/contentvault/resourcestore/internal/contentindex"
	"github.com/contentvault/resourcestore/internal/manager"
	"github.com/contentvault/resourcestore/internal/metadataindex"
	"github.com/contentvault/resourcestore/internal/storeconfig"
	"github.com/contentvault/resourcestore/internal/storelog"
)

var (
	cfgDir  string
	verbose bool

	mgr *manager.Manager
)

var rootCmd = &cobra.Command{
	Use:   "rstore",
	Short: "rstore - a content-aware resource store",
	Long:  `rstore exposes create/get/search/rank operations over a local resource store (SQLite metadata index + file-backed blobs).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		storelog.SetVerbose(verbose)
		return bootstrap()
	},
}

func bootstrap() error {
	cfg, err := storeconfig.Load(cfgDir)
	if err != nil {
		return err
	}

	ctx := context.Background()
	index, err := metadataindex.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}

	blob, err := blobstore.NewFileDriver(afero.NewOsFs(), cfg.DataDir)
	if err != nil {
		return err
	}

	registry := contentindex.NewRegistry(contentindex.NewPlacesIndexer(), contentindex.NewContactsIndexer())

	mgr, err = manager.New(index, blob, registry, cfg.MetadataCacheCapacity)
	if err != nil {
		return err
	}
	return mgr.EnsureRoot(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config-dir", "", "directory containing rstore.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(topCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rstore:", err)
		os.Exit(1)
	}
}
