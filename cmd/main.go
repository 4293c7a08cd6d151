// Package main provides the geosite CLI. It loads configuration, initializes
// logging and dispatches to the generate, watch and config subcommands.
package main

import (
	"context"
	"fmt"
	"os"

	"geosite/internal/config"
	"geosite/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	// cfg is filled by the root PersistentPreRunE before any subcommand runs.
	cfg := &config.Config{}
	configPath := "config.yml"

	rootCmd := &cobra.Command{
		Use:           "geosite",
		Short:         "Builds sing-box geosite rule-sets from the dnsmasq china list",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("could not load config %s: %w", configPath, err)
			}
			if err := logger.Setup(loaded.Environment, loaded.LogLevel); err != nil {
				return fmt.Errorf("could not setup logger: %w", err)
			}
			*cfg = *loaded

			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", configPath,
		"Config file path, env variables and defaults are used when it does not exist")

	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			logger.Sync(ctx)

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		generateCommand(cfg),
		watchCommand(cfg),
		configCommand(cfg),
	)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logger.Error(ctx, "command failed", zap.Error(err))
		// the logger is a no-op until config is loaded
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
	}
	logger.Sync(ctx)
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}
