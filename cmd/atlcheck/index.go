package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newIndexCmd(root *rootFlags) *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "index",
		Short: "List the player and label indexes of an LCGS model",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), root, flags)
		},
	}

	bindModelFlags(cmd, flags)
	return cmd
}

func runIndex(ctx context.Context, out, errOut io.Writer, root *rootFlags, flags *checkFlags) error {
	app, err := newAppContext(ctx, root, errOut, nil)
	if err != nil {
		return err
	}
	opts, err := flags.options(app.cfg, app.logger)
	if err != nil {
		return err
	}

	listing, err := app.service.Index(ctx, flags.model, opts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, listing)
	return err
}
