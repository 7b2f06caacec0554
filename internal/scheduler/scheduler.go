// Package scheduler implements the Runner: a Kahn-style dynamic
// topological execution loop over a bounded worker pool, with
// snapshot-based template rendering and an error-policy cascade.
package scheduler

import (
	"fmt"
	"time"

	"github.com/weftrun/weft/internal/config"
	"github.com/weftrun/weft/internal/connector"
	"github.com/weftrun/weft/internal/extract"
	"github.com/weftrun/weft/internal/graph"
	"github.com/weftrun/weft/internal/runstate"
	"github.com/weftrun/weft/internal/template"
	"github.com/weftrun/weft/internal/weftlog"
	streamyerrors "github.com/weftrun/weft/pkg/errors"
)

const (
	completionWait = 100 * time.Millisecond
	idleSleep      = 50 * time.Millisecond
)

// Runner is the central Scheduler component. It owns the worker pool,
// the ready queue, the in-degree counters, and a runstate.Store; none of
// these are package-level state (spec.md §9).
type Runner struct {
	cfg      *config.NormalizedConfig
	dag      *graph.DAG
	registry *connector.Registry
	log      *weftlog.Logger
}

// New constructs a Runner for a validated configuration and its derived
// DAG.
func New(cfg *config.NormalizedConfig, dag *graph.DAG, registry *connector.Registry, log *weftlog.Logger) *Runner {
	if log == nil {
		log = weftlog.Nop()
	}
	return &Runner{cfg: cfg, dag: dag, registry: registry, log: log}
}

type stepOutcome struct {
	name        string
	success     bool
	errMsg      string
	notes       []string
	outputs     map[string]any
	mergeSource string
}

// NewStore builds the Run State a caller can hand to RunInto, useful when
// something else (the Status HTTP View) needs a live reference to the
// store before the run completes.
func (r *Runner) NewStore(runID string) *runstate.Store {
	sourcesInit := make(map[string]map[string]any, len(r.cfg.Sources))
	for name, decl := range r.cfg.Sources {
		sourcesInit[name] = decl.Configuration
	}
	return runstate.New(runID, r.dag.Order, sourcesInit)
}

// Run blocks until every reachable step has terminated and returns the
// final Run State. It is the core's single coarse run entry point
// (spec.md §6.4).
func (r *Runner) Run(runID string) *runstate.Store {
	return r.RunInto(r.NewStore(runID))
}

// RunInto drives the DAG to completion, mutating the supplied store as
// steps transition. Splitting store construction out of Run lets a
// caller share the live store with an observer, such as the Status HTTP
// View, while the run is still in flight.
func (r *Runner) RunInto(store *runstate.Store) *runstate.Store {
	steps := config.StepByName(r.cfg.Flow)

	maxWorkers := r.cfg.Runner.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	inDegree := make(map[string]int, len(r.dag.InDegree))
	for name, d := range r.dag.InDegree {
		inDegree[name] = d
	}

	var ready []string
	for _, name := range r.dag.Order {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	sem := make(chan struct{}, maxWorkers)
	results := make(chan stepOutcome, len(r.dag.Order))
	inFlight := 0
	terminating := false

	skipDescendants := func(start string) {
		visited := make(map[string]bool)
		var walk func(n string)
		walk = func(n string) {
			for child := range r.dag.Dependents[n] {
				if visited[child] {
					continue
				}
				visited[child] = true
				inDegree[child] = -1
				store.MarkSkipped(child)
				walk(child)
			}
		}
		walk(start)
	}

	propagateSuccess := func(name string) {
		for child := range r.dag.Dependents[name] {
			if inDegree[child] < 0 {
				continue // sentinel: already skipped
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	for {
	drain:
		for len(ready) > 0 {
			name := ready[0]
			if store.StateOf(name).State.Terminal() {
				ready = ready[1:]
				continue
			}
			select {
			case sem <- struct{}{}:
				ready = ready[1:]
				inFlight++
				go r.runStep(name, steps[name], store, sem, results)
			default:
				break drain
			}
		}

		if inFlight == 0 {
			break
		}

		select {
		case outcome := <-results:
			inFlight--
			if outcome.success {
				store.MarkSucceeded(outcome.name, outcome.outputs, outcome.mergeSource)
				if !terminating {
					propagateSuccess(outcome.name)
				}
				continue
			}

			store.MarkFailed(outcome.name, outcome.errMsg, outcome.notes)
			policy := effectivePolicy(steps[outcome.name], r.cfg.Runner)
			switch policy {
			case config.OnErrorFail:
				store.SetErrorOccurred()
				terminating = true
				ready = nil
				skipDescendants(outcome.name)
			case config.OnErrorSkip:
				skipDescendants(outcome.name)
			case config.OnErrorContinue:
				if !terminating {
					propagateSuccess(outcome.name)
				}
			}
		case <-time.After(completionWait):
			time.Sleep(idleSleep)
		}
	}

	store.Finish()
	return store
}

func effectivePolicy(step config.StepDecl, runner config.RunnerSettings) config.OnError {
	if step.OnError != "" {
		return step.OnError
	}
	return runner.OnError
}

// runStep is the per-step task pipeline (spec.md §4.6): snapshot, render,
// resolve+construct connector, call, extract, report back over results.
func (r *Runner) runStep(name string, step config.StepDecl, store *runstate.Store, sem chan struct{}, results chan<- stepOutcome) {
	defer func() { <-sem }()

	store.MarkRunning(name)

	flows, sources := store.Snapshot()
	ctx := template.Context{Flows: flows, Sources: sources}

	renderedCfg, err := template.Render(name+".source.configuration", step.Source.Configuration, ctx)
	if err != nil {
		results <- failure(name, err.Error(), nil)
		return
	}
	renderedInput, err := template.Render(name+".input", step.Input, ctx)
	if err != nil {
		results <- failure(name, err.Error(), nil)
		return
	}

	cfgMap, _ := renderedCfg.(map[string]any)

	conn, err := r.registry.Construct(step.Source.Type, cfgMap)
	if err != nil {
		results <- failure(name, err.Error(), nil)
		return
	}

	result, err := conn.Call(renderedInput)
	if err != nil {
		wrapped := streamyerrors.NewConnectorCallError(name, step.Source.Type, err)
		results <- failure(name, wrapped.Error(), nil)
		return
	}

	if !result.Status.Success {
		stepErr := streamyerrors.NewStepFailure(name, fmt.Sprintf("connector reported failure (code %d)", result.Status.Code))
		results <- failure(name, stepErr.Error(), result.Status.Notes)
		return
	}

	outputs, err := extract.Extract(name, result.Data, step.Output)
	if err != nil {
		results <- failure(name, err.Error(), nil)
		return
	}

	mergeSource := ""
	if step.Source.Name != "" {
		mergeSource = step.Source.Name
	}

	results <- stepOutcome{name: name, success: true, outputs: outputs, mergeSource: mergeSource}
}

func failure(name, msg string, notes []string) stepOutcome {
	return stepOutcome{name: name, success: false, errMsg: msg, notes: notes}
}
