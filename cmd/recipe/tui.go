package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/aarishlakhani/AI-recipe-gen/internal/app"
	"github.com/aarishlakhani/AI-recipe-gen/internal/client"
	"github.com/aarishlakhani/AI-recipe-gen/internal/stream"
)

func runTUI(f rootFlags) error {
	cfg, err := f.load()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	transport, err := client.New(cfg.Client.Transport, cfg.Client.BaseURL, log.Component("client"))
	if err != nil {
		return err
	}
	mgr := stream.NewManager(transport, stream.WithLogger(log.Logger))
	m := app.New(mgr, client.NewHTTPClient(cfg.Client.BaseURL), log.Logger)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	// The program has stopped, so this goroutine owns the manager now. This
	// covers exits that did not go through the quit key.
	mgr.Shutdown()
	if err != nil {
		return errors.Wrap(err, "run tui")
	}
	log.Info().Msg("tui exited")
	return nil
}
