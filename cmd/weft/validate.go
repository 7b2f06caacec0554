package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weftrun/weft/internal/config"
	"github.com/weftrun/weft/internal/graph"
)

type validateOptions struct {
	configPaths []string
}

func newValidateCmd(root *rootFlags) *cobra.Command {
	opts := validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load, merge, and dependency-analyze a flow without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.configPaths, "config", "c", nil, "path to a flow document (repeatable; later documents override earlier ones)")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func runValidate(cmd *cobra.Command, opts validateOptions) error {
	cfg, err := config.Load(opts.configPaths...)
	if err != nil {
		return err
	}

	dag, err := graph.Analyze(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "flow is valid: %d steps, %d sources\n", len(dag.Order), len(cfg.Sources))
	return nil
}
