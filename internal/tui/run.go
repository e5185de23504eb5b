package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/atlcheck/internal/adapter"
	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
)

// Options configures Run.
type Options struct {
	Loader    ports.EngineLoader
	Logger    ports.Logger
	Publisher ports.EventPublisher
	Model     string
	Formula   string
	// Input and Output default to the terminal.
	Input  io.Reader
	Output io.Writer
}

// Run shows the page until the user quits. The engine is loaded in the
// background; if loading fails the failure goes to opts.Logger and the solve
// control stays inert.
func Run(ctx context.Context, opts Options) error {
	bindings := NewBindings()
	a, err := adapter.New(bindings.Handles(),
		adapter.WithLogger(opts.Logger),
		adapter.WithPublisher(opts.Publisher),
		adapter.WithContext(ctx),
	)
	if err != nil {
		return err
	}

	loaded := a.Load(ctx, opts.Loader)
	programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}

	program := tea.NewProgram(NewModel(bindings, loaded, opts.Model, opts.Formula), programOpts...)
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
