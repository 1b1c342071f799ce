package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the store (idempotent)",
	RunE: func(cmd *cobra.Command, args []string) error {
		// bootstrap() already ran EnsureRoot in PersistentPreRunE.
		fmt.Println("store ready")
		return nil
	},
}
