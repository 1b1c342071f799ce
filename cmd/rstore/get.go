package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contentvault/resourcestore/internal/restype"
)

var getVariant string

var getCmd = &cobra.Command{
	Use:   "get <resource-id>",
	Short: "Print a resource's metadata, and its variant's content if present",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := restype.ParseResourceId(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		meta, err := mgr.GetMetadata(ctx, id)
		if err != nil {
			return err
		}

		fmt.Printf("id:       %s\n", meta.ID)
		fmt.Printf("parent:   %s\n", meta.Parent)
		fmt.Printf("kind:     %s\n", meta.Kind)
		fmt.Printf("name:     %s\n", meta.Name)
		fmt.Printf("tags:     %v\n", meta.Tags)
		for _, v := range meta.Variants {
			fmt.Printf("variant:  %s (%s, %d bytes)\n", v.Name, v.MimeType, v.Size)
		}

		if getVariant == "" {
			return nil
		}
		_, stream, err := mgr.GetLeaf(ctx, id, getVariant)
		if err != nil {
			return err
		}
		defer stream.Close()
		_, err = copyAll(os.Stdout, stream)
		return err
	},
}

func init() {
	getCmd.Flags().StringVar(&getVariant, "variant", "", "also print this variant's content to stdout")
}
