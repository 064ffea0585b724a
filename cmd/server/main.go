package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/textrouter/internal/app"
	"github.com/vovakirdan/textrouter/internal/config"
	applog "github.com/vovakirdan/textrouter/internal/log"
)

type flags struct {
	configPath string
	addr       string
	httpAddr   string
	logLevel   string
	console    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "textrouter",
		Short:         "Line-oriented chat router with named channels",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "path to config file")
	cmd.Flags().StringVar(&f.addr, "addr", "", "TCP listen address (overrides config)")
	cmd.Flags().StringVar(&f.httpAddr, "http-addr", "", "HTTP listen address for WebSocket and admin API (overrides config)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	cmd.Flags().BoolVar(&f.console, "console", false, "read 'exit' from stdin to stop the server")

	return cmd
}

func run(parent context.Context, f flags) error {
	bootLogger := applog.New("info", "console")

	cfg, cfgPath, err := config.Load(bootLogger, f.configPath)
	if err != nil {
		bootLogger.Error().Err(err).Msg("failed to load config")
		return err
	}
	cfg.UpdateFrom(config.Config{
		Addr:     f.addr,
		HTTPAddr: f.httpAddr,
		LogLevel: f.logLevel,
	})

	logger := applog.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info().
		Str("config", cfgPath).
		Str("addr", cfg.Addr).
		Str("http_addr", cfg.HTTPAddr).
		Msg("starting textrouter")

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if f.console {
		go watchConsole(ctx, os.Stdin, stop, logger)
	}

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize application")
		return fmt.Errorf("init app: %w", err)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
