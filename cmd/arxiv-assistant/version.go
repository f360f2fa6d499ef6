package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of arxiv-assistant",
	// Skip credential loading; version needs none.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("arxiv-assistant %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
