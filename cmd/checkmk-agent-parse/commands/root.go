// Package commands implements the checkmk-agent-parse CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "checkmk-agent-parse",
	Short: "Parse checkmk agent output into host sections and a health verdict",
	Long: `checkmk-agent-parse decodes a checkmk monitoring agent's raw output
into per-host sections, resolves piggybacked and persisted sections, and
reports the version/policy verdict checkmk itself would report for the
check_mk section.

Use "checkmk-agent-parse [command] --help" for more information about a
command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/checkmk-agent-parse/config.yaml)")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
