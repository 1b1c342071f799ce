package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var topCmd = &cobra.Command{
	Use:   "top <n>",
	Short: "List the top n resources by frecency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("top: %q is not an integer: %w", args[0], err)
		}
		ids, err := mgr.TopByFrecency(cmd.Context(), n)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}
