package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/atlcheck/internal/checker"
	"github.com/alexisbeaulieu97/atlcheck/internal/infrastructure/events"
	"github.com/alexisbeaulieu97/atlcheck/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
	"github.com/alexisbeaulieu97/atlcheck/internal/tui"
)

var uiCmdRunner = runUI

func newUICmd(root *rootFlags) *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Edit a model and a formula in the terminal and check them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return uiCmdRunner(cmd.Context(), root, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.model, "model", "m", os.Getenv("INPUT_MODEL"), "Model to open in the editor")
	cmd.Flags().StringVarP(&flags.formula, "formula", "f", os.Getenv("FORMULA"), "Formula to open in the input")
	cmd.Flags().StringVar(&flags.formulaText, "formula-text", "", "Formula given inline; takes precedence over --formula")
	bindSolverFlags(cmd, flags)

	return cmd
}

func runUI(ctx context.Context, root *rootFlags, flags *checkFlags) error {
	// The page owns the terminal; log entries are shown once it exits.
	held := logging.NewHeld(0)
	app, err := newAppContext(ctx, root, os.Stderr, nil)
	if err != nil {
		return err
	}
	defer held.Release(app.logger)

	// The page always edits LCGS text.
	flags.modelType = string(checker.ModelLCGS)
	opts, err := flags.options(app.cfg, held.Logger())
	if err != nil {
		return err
	}

	model, formula, err := initialTexts(ctx, app, flags)
	if err != nil {
		return err
	}

	return tui.Run(ctx, tui.Options{
		Loader: func(ctx context.Context) (ports.Engine, error) {
			return checker.New(opts), nil
		},
		Logger:    held.Logger(),
		Publisher: events.NewPublisher(held.Logger()),
		Model:     model,
		Formula:   formula,
	})
}

func initialTexts(ctx context.Context, app *appContext, flags *checkFlags) (string, string, error) {
	var model string
	if flags.model != "" {
		data, err := app.sources.Load(ctx, flags.model)
		if err != nil {
			return "", "", fmt.Errorf("open model: %w", err)
		}
		model = string(data)
	}

	formula := flags.formulaText
	if formula == "" && flags.formula != "" {
		data, err := app.sources.Load(ctx, flags.formula)
		if err != nil {
			return "", "", fmt.Errorf("open formula: %w", err)
		}
		formula = string(data)
	}
	return model, formula, nil
}
