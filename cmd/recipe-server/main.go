package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aarishlakhani/AI-recipe-gen/internal/config"
	"github.com/aarishlakhani/AI-recipe-gen/internal/generate"
	"github.com/aarishlakhani/AI-recipe-gen/internal/logger"
	"github.com/aarishlakhani/AI-recipe-gen/internal/metrics"
	"github.com/aarishlakhani/AI-recipe-gen/internal/server"
)

const version = "0.1.0"

type flags struct {
	configPath string
	port       int
	host       string
	provider   string
	logLevel   string
	logFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "recipe-server",
		Short: "Stream generated recipes over SSE and WebSocket",
		Long: `recipe-server generates recipes from ingredient lists and streams
them to clients fragment by fragment, as Server-Sent Events on /recipeStream
or as WebSocket messages on /recipeStream/ws.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "path to a YAML config file (watched for changes)")
	cmd.Flags().IntVar(&f.port, "port", 0, "override server port")
	cmd.Flags().StringVar(&f.host, "host", "", "override listen host")
	cmd.Flags().StringVar(&f.provider, "provider", "", "override generator provider (mock, openai, anthropic)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "override log level (trace, debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "also write logs to this file")
	return cmd
}

// apply overlays command line overrides on cfg.
func (f flags) apply(cfg *config.Config) error {
	if f.port > 0 {
		cfg.Server.Port = f.port
	}
	if f.host != "" {
		cfg.Server.Host = f.host
	}
	if f.provider != "" {
		cfg.Generator.Provider = f.provider
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFile != "" {
		cfg.Log.File = f.logFile
	}
	return cfg.Validate()
}

func run(ctx context.Context, f flags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if err := f.apply(cfg); err != nil {
		return errors.Wrap(err, "invalid flags")
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: true,
		Pretty:  cfg.Log.Pretty,
	})
	if err != nil {
		return err
	}
	defer log.Close()

	gen, err := generate.New(cfg.Generator)
	if err != nil {
		return errors.Wrap(err, "create generator")
	}

	srv := server.NewServer(cfg, gen, metrics.NewMetrics(), log.Component("server"))
	log.Info().
		Str("generator", gen.Name()).
		Int("port", cfg.Server.Port).
		Msg("starting recipe server")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return srv.ListenAndServe(ctx, cfg.Server.Host, cfg.Server.Port)
	})

	if f.configPath != "" {
		eg.Go(func() error {
			return config.Watch(ctx, f.configPath, log.Logger, func(next *config.Config) {
				if err := f.apply(next); err != nil {
					log.Warn().Err(err).Msg("reloaded config rejected")
					return
				}
				g, err := generate.New(next.Generator)
				if err != nil {
					log.Warn().Err(err).Msg("reloaded generator rejected, keeping previous")
					return
				}
				srv.SetGenerator(g)
				srv.SetOptions(next.Options)
				log.Info().Str("generator", g.Name()).Msg("config reloaded")
			})
		})
	}

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("recipe server stopped")
	return nil
}
