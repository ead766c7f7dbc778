package cmd

import (
	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
	quiet      bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "zigup",
	Short: "Install the latest Zig master build and its language server",
	Long: `zigup downloads the current Zig master build for this machine, installs it
under the system toolchain directory, and keeps a stable "zig" symlink pointing at
the latest copy. After a successful install it builds the Zig Language Server (ZLS)
from source with the new compiler; any ZLS failure is reported as a warning and
never fails the install.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetHandler(cli.Default)
		if verbose {
			log.SetLevel(log.DebugLevel)
			log.Debugf("Verbose logging enabled")
		} else if quiet {
			log.SetLevel(log.ErrorLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}
	},
	// Running zigup bare performs the install.
	RunE: runInstall,
	Args: cobra.NoArgs,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		log.WithError(err).Fatal("command execution failed")
	}
}

func init() {
	// Disable automatic command sorting to maintain semantic order
	cobra.EnableCommandSorting = false

	// Add global flags
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: ~/.config/zigup.yml)")
	RootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Increase log verbosity")
	RootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress progress output")

	// The root command itself installs; install flags live on both so
	// "zigup --bin-dir=..." and "zigup install --bin-dir=..." behave alike.
	addInstallFlags(RootCmd)

	RootCmd.AddCommand(InstallCommand) // Primary: resolve, fetch, install
	RootCmd.AddCommand(ZLSCommand)     // Companion: build ZLS only
	RootCmd.AddCommand(VersionCommand) // Utility: print zigup's own version
}
