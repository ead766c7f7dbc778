package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version and Commit are injected at build time through main.
var (
	Version = "dev"
	Commit  = "none"
)

// VersionCommand represents the version command
var VersionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print the zigup version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("zigup %s (%s)\n", Version, Commit)
	},
}
