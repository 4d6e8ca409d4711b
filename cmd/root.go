package cmd

import (
	"context"
	"os"

	"vmbroker/internal/config"
	"vmbroker/internal/ledger"
	"vmbroker/internal/logging"
	"vmbroker/internal/orchestrator"
	"vmbroker/internal/provider"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfgFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vmbroker",
	Short: "Stateless multi-cloud VM broker",
	Long: `vmbroker creates, queries and destroys short-lived virtual machines
across multiple cloud providers through one uniform interface. The broker
itself stores nothing about the machines it creates; the CLI tracks them
in a local ledger and owns their cleanup.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default vmbroker.yaml)")
}

// loadConfig loads configuration, honoring the --config flag.
func loadConfig() *config.Config {
	if cfgFile != "" {
		os.Setenv("CONFIG_PATH", cfgFile)
	}
	cfg, err := config.Load()
	if err != nil {
		logging.Logger().Fatal("Failed to load configuration", zap.Error(err))
	}
	return cfg
}

// newBroker builds the provider registry and the orchestrator over it.
func newBroker(ctx context.Context, cfg *config.Config) *orchestrator.Orchestrator {
	providers, err := provider.BuildRegistry(ctx, cfg.Providers)
	if err != nil {
		logging.Logger().Fatal("Failed to build provider registry", zap.Error(err))
	}
	return orchestrator.New(providers, cfg.Images)
}

// openLedger opens the configured instance ledger.
func openLedger(cfg *config.Config) ledger.Store {
	store, err := ledger.Open(cfg.Ledger)
	if err != nil {
		logging.Logger().Fatal("Failed to open ledger", zap.Error(err))
	}
	return store
}
