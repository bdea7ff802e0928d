package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunefeed/internal/feed"
	"github.com/desertthunder/tunefeed/internal/gesture"
	"github.com/desertthunder/tunefeed/internal/player"
	"github.com/desertthunder/tunefeed/internal/shared"
	"github.com/desertthunder/tunefeed/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive feed player.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tunefeed-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	element := player.NewBeepElement(nil, fileLogger)
	engine := player.NewEngine(element, fileLogger)
	defer engine.Close()
	engine.SetVolume(r.config.Player.Volume)

	analyzer := player.AnalyzerFor(element, r.config.Player.VisualizerBars)
	analyzer.SetGate(func() bool { return engine.State().Playing })
	analyzer.Start()
	defer analyzer.Stop()

	controller := feed.NewController(r.catalog, engine, r.config.Feed, fileLogger)
	defer controller.Close()
	navigator := gesture.NewNavigator(r.config.Feed)

	if r.store.LoggedIn() {
		r.scheduler.Start()
	}
	defer r.scheduler.Stop()

	model := ui.NewModel(ctx, r.store, r.scheduler, controller, engine, analyzer, navigator, fileLogger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"play"},
		Usage:   "Launch the interactive feed player",
		Action:  r.TUI,
	}
}
