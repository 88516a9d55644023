package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/aarishlakhani/AI-recipe-gen/internal/config"
	"github.com/aarishlakhani/AI-recipe-gen/internal/logger"
)

const version = "0.1.0"

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	server     string
	transport  string
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
	var f rootFlags
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Generate recipes from the ingredients you have",
		Long: `recipe is a terminal client for recipe-server. Fill in the form and
submit to watch the recipe stream in; submitting again replaces the stream
in progress.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(f)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&f.server, "server", "", "override the server base URL")
	pf.StringVar(&f.transport, "transport", "", "override the stream transport (sse, ws)")
	pf.StringVar(&f.logLevel, "log-level", "", "override log level (trace, debug, info, warn, error)")
	pf.StringVar(&f.logFile, "log-file", "", "write logs to this file")

	cmd.AddCommand(newGenerateCmd(&f))
	return cmd
}

// load reads the config file and applies the command line overrides.
func (f *rootFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if f.server != "" {
		cfg.Client.BaseURL = f.server
	}
	if f.transport != "" {
		cfg.Client.Transport = f.transport
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFile != "" {
		cfg.Log.File = f.logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid flags")
	}
	return cfg, nil
}

// newLogger never writes to the terminal: the TUI owns it and generate
// prints the recipe there. Without a configured file, logs go to the user
// cache directory.
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	file := cfg.Log.File
	if file == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		file = filepath.Join(dir, "recipe", "recipe.log")
	}
	return logger.New(logger.Config{Level: cfg.Log.Level, File: file})
}
