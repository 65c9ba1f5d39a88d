package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/sismoscrape/internal/config"
)

// NewRootCmd creates the root command for sismoscrape.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sismoscrape",
		Short: "Copy the latest reported earthquakes into a table",
		Long: `sismoscrape reads the table of recently reported earthquakes published by
the Instituto Geofísico del Perú and replaces the contents of a store table
with its first ten rows, each numbered ("#") and given a random "id".

Settings are read from .sismoscrape (current or home directory) or
config.yaml in the XDG config directory, then from SISMOSCRAPE_* environment
variables, then from flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .sismoscrape in current or home directory)")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config path from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// loadConfig builds the configuration from file and environment, then
// applies the global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := getConfigFlag(cmd)

	cfg, err := config.Load(path, os.LookupEnv)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if getVerboseFlag(cmd) {
		cfg.Verbose = true
	}
	return cfg, nil
}
