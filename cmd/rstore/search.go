package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchTag string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find resources whose name or indexed content matches query, ranked by frecency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := mgr.ByText(cmd.Context(), args[0], searchTag)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchTag, "tag", "", "restrict results to resources carrying this tag")
}
