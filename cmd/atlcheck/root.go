package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type rootFlags struct {
	verbose    bool
	configPath string
}

// isTerminal is replaced in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "atlcheck",
		Short:         "atlcheck model checks ATL formulas against concurrent game structures",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Without a subcommand an interactive session gets the page.
			if len(args) == 0 && isTerminal() {
				return uiCmdRunner(cmd.Context(), flags, &checkFlags{})
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to configuration file (default .atlcheck.yaml)")

	cmd.AddCommand(newCheckCmd(flags))
	cmd.AddCommand(newIndexCmd(flags))
	cmd.AddCommand(newGraphCmd(flags))
	cmd.AddCommand(newUICmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
