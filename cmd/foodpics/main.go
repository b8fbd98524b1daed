// Package main provides the foodpics binary: it picks a not-yet-posted hot
// food picture from Reddit and posts it to a webhook, on a schedule or once.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"foodpics/internal/pkg/administrator"
	"foodpics/internal/pkg/config"
	"foodpics/internal/pkg/logger"
)

const (
	Version   = "0.2.0"
	BuildTime = "dev"
	appName   = "foodpics"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Post hot food pictures from Reddit to a webhook",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(serveCmd(), onceCmd())

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run on the configured schedule and serve /run, /health and /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			admin, err := administrator.New(ctx, cfg)
			if err != nil {
				logger.Log.Error("Failed to start", zap.Error(err))
				return err
			}

			admin.Start(ctx)
			err = admin.StartService(ctx, cfg.ServerPort)
			stop()
			admin.Stop()
			return err
		},
	}
}

func onceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single selection cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			admin, err := administrator.New(ctx, cfg)
			if err != nil {
				logger.Log.Error("Failed to start", zap.Error(err))
				return err
			}
			defer admin.Stop()

			result, err := admin.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("run %s: %s\n", result.RunID, result.Outcome)
			return nil
		},
	}
}

// Loads and validates configuration, then initializes logging.
func setup() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := logger.InitLogger(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Log.Error("Invalid configuration", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
