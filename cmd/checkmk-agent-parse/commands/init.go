package commands

import (
	"fmt"
	"os"

	"github.com/morph027/checkmk/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long:  `init writes a configuration file populated with default values to the default location, or to --config if given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}

		if !initForce {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
			}
		}

		cfg := config.DefaultConfig()
		cfg.Parser.Host, _ = os.Hostname()
		cfg.Parser.StorePath = "/var/lib/checkmk-agent-parse/persisted.json"

		if err := config.Save(cfg, path); err != nil {
			return err
		}

		fmt.Printf("Configuration file created at: %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
}
