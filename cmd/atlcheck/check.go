package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	satisfiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	refutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

var checkCmdRunner = runCheck

func newCheckCmd(root *rootFlags) *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:     "check",
		Aliases: []string{"solver"},
		Short:   "Check an ATL formula against a model",
		Example: "  atlcheck check -m shooters.lcgs --formula-text '<<p1>> F !p2.alive'",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkCmdRunner(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), root, flags)
		},
	}

	bindModelFlags(cmd, flags)
	bindFormulaFlags(cmd, flags)
	bindSolverFlags(cmd, flags)
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "Neither read nor store cached verdicts")

	return cmd
}

func runCheck(ctx context.Context, out, errOut io.Writer, root *rootFlags, flags *checkFlags) error {
	app, err := newAppContext(ctx, root, errOut, nil)
	if err != nil {
		return err
	}
	opts, err := flags.options(app.cfg, app.logger)
	if err != nil {
		return err
	}

	outcome, err := app.service.Check(ctx, flags.request(opts))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Checking the formula: %s\n", outcome.Verdict.Formula)
	style := refutedStyle
	if outcome.Verdict.Satisfied {
		style = satisfiedStyle
	}
	fmt.Fprintf(out, "Result: %s\n", style.Render(outcome.Text()))
	if root.verbose {
		fmt.Fprintf(errOut, "algorithm=%s vertices=%d edges=%d duration=%s cached=%t\n",
			outcome.Verdict.Algorithm, outcome.Verdict.Vertices, outcome.Verdict.Edges,
			outcome.Verdict.Duration, outcome.Cached)
	}
	return nil
}
