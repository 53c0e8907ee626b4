// Package main implements the entry point for the DSH ELG adapter, an HTTP
// service that exposes a self-harm annotator through the European Language
// Grid processing contract.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/dsh-elg/internal/config"
	"github.com/phrazzld/dsh-elg/internal/platform/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:          "dsh-elg",
		Short:        "Serves the self-harm annotator as an ELG text annotation service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfgFile)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml if present)")
	return cmd
}

// run loads configuration, sets up logging and serves until ctx is done.
func run(ctx context.Context, cfgFile string) error {
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return err
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logger: %v\n", err)
		return err
	}

	log.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("engine", cfg.Annotator.Engine),
		slog.String("feature_shape", cfg.Annotator.FeatureShape))

	app, err := newApplication(cfg, log)
	if err != nil {
		log.Error("Failed to initialize application", slog.String("error", err.Error()))
		return err
	}

	return app.Run(ctx)
}
