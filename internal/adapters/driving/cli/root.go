// Package cli is the tender-rag command line: the API server, the ingestion
// worker and one-shot ingest and ask commands.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tender-rag/internal/config"
)

var (
	version    = "dev"
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "tender-rag",
	Short: "Question answering over tender documents",
	Long: `tender-rag indexes PDF, Word and Excel documents into a vector index and
answers questions about them with a local or hosted language model, citing
the passages it used.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file (default $"+config.EnvConfigPath+")")
}

// Execute runs the root command
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

// loadConfig reads the configuration and installs the process logger
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	config.NewLogger(cfg.Log, os.Stderr)
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
