package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neurondb/NeuronFlow/internal/config"
	"github.com/neurondb/NeuronFlow/internal/logging"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "neuronflow",
	Short: "NeuronFlow workflow engine API",
	Long: `NeuronFlow serves the workflow-engine REST API: node paths and their
actions, participants, file storage and a node path change stream.

Examples:
  # Run the API server
  neuronflow serve

  # Apply the database schema and exit
  neuronflow migrate

  # Issue a JWT for an operator
  neuronflow token jwt --subject operator

  # Print the effective configuration with secrets masked
  neuronflow config`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("CONFIG_FILE"), "YAML configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(configCmd)
}

/* loadConfig resolves the configuration, honouring --config over CONFIG_FILE */
func loadConfig() (*config.Config, *logging.Logger, error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	return cfg, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
