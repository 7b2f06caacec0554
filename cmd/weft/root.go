package main

import (
	"github.com/spf13/cobra"
)

// rootFlags are persistent across every subcommand.
type rootFlags struct {
	verbose bool
	jsonLog bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "weft",
		Short:         "weft runs declarative DAG-shaped automation flows",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug-level logging")
	cmd.PersistentFlags().BoolVar(&flags.jsonLog, "json-log", false, "emit logs as JSON instead of the console writer")

	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newValidateCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
