package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/weftrun/weft/internal/config"
	"github.com/weftrun/weft/internal/connector"
	"github.com/weftrun/weft/internal/connector/builtin"
	"github.com/weftrun/weft/internal/graph"
	"github.com/weftrun/weft/internal/runstate"
	"github.com/weftrun/weft/internal/scheduler"
	"github.com/weftrun/weft/internal/statushttp"
	"github.com/weftrun/weft/internal/weftlog"
)

type runOptions struct {
	configPaths []string
	statusAddr  string
}

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a flow to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, root, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.configPaths, "config", "c", nil, "path to a flow document (repeatable; later documents override earlier ones)")
	cmd.Flags().StringVar(&opts.statusAddr, "status-addr", "", "if set, serve the read-only Status HTTP View on this address while the run executes")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func runFlow(cmd *cobra.Command, root *rootFlags, opts runOptions) error {
	level := "info"
	if root.verbose {
		level = "debug"
	}
	log := weftlog.New(weftlog.Options{Level: level, JSON: root.jsonLog, Component: "weft"})

	cfg, err := config.Load(opts.configPaths...)
	if err != nil {
		log.Error(err, "failed to load configuration")
		return err
	}

	dag, err := graph.Analyze(cfg)
	if err != nil {
		log.Error(err, "dependency analysis failed")
		return err
	}

	reg := connector.NewRegistry()
	builtin.Register(reg)

	runner := scheduler.New(cfg, dag, reg, log)
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	store := runner.NewStore(runID)

	if opts.statusAddr != "" {
		statusServer := statushttp.New(store, cfg, log)
		go func() {
			if err := statusServer.Serve(opts.statusAddr); err != nil {
				log.Error(err, "status http view stopped")
			}
		}()
	}

	log.WithFields(map[string]any{"run_id": runID, "steps": len(dag.Order)}).Info("run starting")
	store = runner.RunInto(store)

	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(store))

	if anyStepFailed(store) {
		return fmt.Errorf("run %s completed with at least one failed step", runID)
	}
	return nil
}

// anyStepFailed reports whether any step ended in StateFailed, regardless
// of the run's error policy. A run is considered failed as a whole if any
// step failed (spec.md §7), even under on_error=skip or on_error=continue
// where the scheduler's own error-occurred flag is never set.
func anyStepFailed(store *runstate.Store) bool {
	for _, step := range store.ViewSnapshot().Steps {
		if step.State == runstate.StateFailed {
			return true
		}
	}
	return false
}
