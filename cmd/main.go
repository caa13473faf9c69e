// Package main is the applyflow command line: the HTTP service, one-shot
// ingestion and version reporting.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/applyflow/internal/config"
	"github.com/okian/applyflow/pkg/logger"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// cli carries state shared by subcommands after the root pre-run.
type cli struct {
	configPath string
	cfg        *config.Config
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "applyflow",
		Short:         "Job posting ingestion, scoring and application tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.init(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to a YAML config file (overrides APPLYFLOW_CONFIG)")

	root.AddCommand(newServeCmd(c), newIngestCmd(c), newVersionCmd())
	return root
}

// init loads configuration and the global logger.
func (c *cli) init(ctx context.Context) error {
	cfg, err := config.Load(ctx, c.configPath)
	if err != nil {
		return err
	}
	if err := logger.InitWithOptions(logger.Options{JSON: cfg.LogJSON}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	c.cfg = cfg
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "applyflow", version)
		},
	}
}
