package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newGraphCmd(root *rootFlags) *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Write the dependency graph of a formula in Graphviz format",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), root, flags)
		},
	}

	bindModelFlags(cmd, flags)
	bindFormulaFlags(cmd, flags)
	cmd.Flags().StringVarP(&flags.output, "output", "o", os.Getenv("OUTPUT"), "Write the graph to this file instead of stdout")

	return cmd
}

func runGraph(ctx context.Context, out, errOut io.Writer, root *rootFlags, flags *checkFlags) (err error) {
	app, err := newAppContext(ctx, root, errOut, nil)
	if err != nil {
		return err
	}
	opts, err := flags.options(app.cfg, app.logger)
	if err != nil {
		return err
	}

	w := out
	if flags.output != "" {
		file, createErr := os.Create(flags.output)
		if createErr != nil {
			return fmt.Errorf("create %s: %w", flags.output, createErr)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close %s: %w", flags.output, cerr)
			}
		}()
		w = file
	}

	formula, err := app.service.Graph(ctx, w, flags.request(opts))
	if err != nil {
		return err
	}
	fmt.Fprintf(errOut, "Printing graph for: %s\n", formula)
	return nil
}
