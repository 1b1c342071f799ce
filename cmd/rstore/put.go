package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/contentvault/resourcestore/internal/restype"
)

var putMove bool

var putCmd = &cobra.Command{
	Use:   "put <parent-id> <path>",
	Short: "Import a file from disk as a new leaf under parent-id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, err := restype.ParseResourceId(args[0])
		if err != nil {
			return err
		}

		meta, err := mgr.ImportFromPath(cmd.Context(), parent, afero.NewOsFs(), args[1], putMove)
		if err != nil {
			return err
		}
		fmt.Println(meta.ID)
		return nil
	},
}

func init() {
	putCmd.Flags().BoolVar(&putMove, "move", false, "remove the source file after a successful import")
}
