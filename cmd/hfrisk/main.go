// Package main provides the hfrisk CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hf-risk-server/internal/app"
	"github.com/hf-risk-server/internal/config"
	"github.com/hf-risk-server/internal/domain"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalOpts struct {
	configFile string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	rootCmd := &cobra.Command{
		Use:   "hfrisk",
		Short: "Heart failure risk scoring",
		Long: `hfrisk scores patient profiles with the heart failure risk model, prints
the active model and manages the assessment history.

The model is a configurable placeholder and is not clinically validated.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", os.Getenv("HF_RISK_CONFIG"), "Path to config.yaml (default: search ., ./config, /etc/hf-risk-server)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log progress to stderr")

	rootCmd.AddCommand(
		newAssessCmd(opts),
		newModelCmd(opts),
		newHistoryCmd(opts),
		newMCPInstallCmd(),
	)
	return rootCmd
}

// loadConfig reads the configuration and applies CLI overrides
func (o *globalOpts) loadConfig(modelFile string) (*domain.Config, error) {
	manager, err := config.NewManager(o.configFile)
	if err != nil {
		return nil, err
	}
	if err := manager.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg := *manager.GetConfig()
	if modelFile != "" {
		cfg.Scoring.ModelFile = modelFile
	}
	return &cfg, nil
}

func (o *globalOpts) logger(cfg *domain.Config) *logrus.Logger {
	logging := cfg.Logging
	logging.Format = "text"
	if !o.verbose {
		logging.Level = "warn"
	}
	return config.NewLogger(logging)
}

// build creates the application; withHistory=false skips opening the store
func (o *globalOpts) build(ctx context.Context, modelFile string, withHistory bool) (*app.App, error) {
	cfg, err := o.loadConfig(modelFile)
	if err != nil {
		return nil, err
	}
	if !withHistory {
		cfg.History.Enabled = false
	}
	return app.Build(ctx, cfg, o.logger(cfg))
}

func validateOutput(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown output format %q: expected text or json", format)
	}
}
