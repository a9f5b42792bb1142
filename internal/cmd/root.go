// Package cmd implements the almuerzo command line: the API server and its
// maintenance commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/almuerzo-cl/almuerzo/backend/config"
	"github.com/almuerzo-cl/almuerzo/backend/internal/logging"
	"github.com/almuerzo-cl/almuerzo/backend/internal/server"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "almuerzo",
	Short:         "almuerzo.cl lunch organizing backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetVersion sets the version reported by the server and --version.
func SetVersion(v string) {
	server.Version = v
	rootCmd.Version = v
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

// setup loads the configuration and builds the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Env, verbose)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
