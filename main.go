package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"go-chords/config"
	"go-chords/debug"
	"go-chords/instruments"
	"go-chords/instruments/chords"
	"go-chords/midi"
	"go-chords/theme"
	"go-chords/tui"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: ~/.config/go-chords/config.yaml)")
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	verbose := flag.Bool("verbose", false, "debug-level logging")
	flag.Parse()

	if err := run(*configPath, *envFile, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string, verbose bool) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := debug.NewLogger(cfg.Log.Path, verbose || cfg.Log.Verbose)
	if err != nil {
		return err
	}
	debug.Enable(logger)
	defer debug.Disable()

	cfg.Watch(logger, nil)

	th, err := theme.Load(cfg.UI.Palette)
	if err != nil {
		return fmt.Errorf("load palette: %w", err)
	}

	var catalog instruments.Catalog
	if err := catalog.Register(chords.Descriptor); err != nil {
		return err
	}

	provider := midi.Detect(midi.ProvidersFromConfig(cfg, logger)...)
	logger.Infow("Selected MIDI access provider", "provider", provider.Kind())

	session := midi.NewSession()
	defer session.Close()

	alerts := tui.NewAlerts()
	sys := midi.NewSystem(provider, session, alerts, logger)
	updates, unsubscribe := sys.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sys.Init(ctx)

	m := tui.NewModel(sys, &catalog, th, updates, alerts)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
