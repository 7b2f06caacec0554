package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weftrun/weft/internal/config"
	"github.com/weftrun/weft/internal/connector"
	"github.com/weftrun/weft/internal/graph"
	"github.com/weftrun/weft/internal/runstate"
)

// constConnector always succeeds, returning its configured "data" field
// as the connector result. Useful for seeding deterministic outputs.
type constConnector struct{ data any }

func (c *constConnector) Call(input any) (connector.Result, error) {
	return connector.Result{Status: connector.Status{Success: true}, Data: c.data}, nil
}

// failConnector always reports a structured (non-raising) failure.
type failConnector struct{ notes []string }

func (c *failConnector) Call(input any) (connector.Result, error) {
	return connector.Result{Status: connector.Status{Success: false, Notes: c.notes}}, nil
}

// echoConnector returns the rendered input back as Data, useful for
// asserting what the Template Engine produced.
type echoConnector struct{}

func (echoConnector) Call(input any) (connector.Result, error) {
	return connector.Result{Status: connector.Status{Success: true}, Data: input}, nil
}

func testRegistry() *connector.Registry {
	reg := connector.NewRegistry()
	reg.Register("const", func(cfg map[string]any) (connector.Connector, error) {
		return &constConnector{data: cfg["data"]}, nil
	})
	reg.Register("fail", func(cfg map[string]any) (connector.Connector, error) {
		notes, _ := cfg["notes"].([]any)
		strNotes := make([]string, len(notes))
		for i, n := range notes {
			strNotes[i], _ = n.(string)
		}
		return &failConnector{notes: strNotes}, nil
	})
	reg.Register("echo", func(cfg map[string]any) (connector.Connector, error) {
		return echoConnector{}, nil
	})
	return reg
}

func buildRun(t *testing.T, yaml string) *runstate.Store {
	t.Helper()
	cfg, err := config.LoadBytes([]byte(yaml))
	require.NoError(t, err)
	dag, err := graph.Analyze(cfg)
	require.NoError(t, err)
	runner := New(cfg, dag, testRegistry(), nil)
	return runner.Run("test-run")
}

func TestSchedulerSequentialViaTemplateReference(t *testing.T) {
	t.Parallel()

	store := buildRun(t, `
flow:
  - name: a
    source: {type: const, configuration: {data: {v: 1}}}
    output: [{name: v, kind: path, value: v}]
  - name: b
    source: {type: echo, configuration: {}}
    input: "{{ flows.a.v }}"
`)

	flows := store.FlowsSnapshot()
	require.EqualValues(t, 1, flows["a"]["v"])
	_, ok := flows["b"]
	require.True(t, ok)

	a := store.StateOf("a")
	b := store.StateOf("b")
	require.Equal(t, runstate.StateSucceeded, a.State)
	require.Equal(t, runstate.StateSucceeded, b.State)
	require.False(t, b.StartedAt.Before(*a.EndedAt))
}

func TestSchedulerExplicitDependsOnWithoutTemplateRef(t *testing.T) {
	t.Parallel()

	store := buildRun(t, `
flow:
  - name: a
    source: {type: const, configuration: {data: {v: 1}}}
  - name: b
    source: {type: echo, configuration: {}}
    depends_on: [a]
`)

	a := store.StateOf("a")
	b := store.StateOf("b")
	require.Equal(t, runstate.StateSucceeded, a.State)
	require.Equal(t, runstate.StateSucceeded, b.State)
	require.False(t, b.StartedAt.Before(*a.EndedAt))
}

func TestSchedulerSkipPolicyPropagatesThroughChain(t *testing.T) {
	t.Parallel()

	store := buildRun(t, `
flow:
  - name: a
    source: {type: fail, configuration: {}}
    on_error: skip
  - name: b
    source: {type: echo, configuration: {}}
    depends_on: [a]
  - name: c
    source: {type: echo, configuration: {}}
    depends_on: [b]
`)

	require.Equal(t, runstate.StateFailed, store.StateOf("a").State)
	require.Equal(t, runstate.StateSkipped, store.StateOf("b").State)
	require.Equal(t, runstate.StateSkipped, store.StateOf("c").State)
	require.NotNil(t, store.StateOf("a").EndedAt)
	require.NotNil(t, store.StateOf("b").EndedAt)
	require.NotNil(t, store.StateOf("c").EndedAt)
}

func TestSchedulerContinuePolicyLetsSiblingSucceed(t *testing.T) {
	t.Parallel()

	store := buildRun(t, `
flow:
  - name: a
    source: {type: fail, configuration: {}}
    on_error: continue
  - name: b
    source: {type: echo, configuration: {}}
    input: "ok"
`)

	require.Equal(t, runstate.StateFailed, store.StateOf("a").State)
	require.Equal(t, runstate.StateSucceeded, store.StateOf("b").State)

	flows := store.FlowsSnapshot()
	_, hasA := flows["a"]
	require.False(t, hasA)
	_, hasB := flows["b"]
	require.True(t, hasB)
}

func TestSchedulerStrictTemplatingFailsReferencingStep(t *testing.T) {
	t.Parallel()

	store := buildRun(t, `
flow:
  - name: x
    source: {type: const, configuration: {data: {v: 1}}}
    output: [{name: v, kind: raw}]
  - name: y
    source: {type: echo, configuration: {}}
    input: "{{ flows.x.missing }}"
`)

	require.Equal(t, runstate.StateSucceeded, store.StateOf("x").State)
	y := store.StateOf("y")
	require.Equal(t, runstate.StateFailed, y.State)
	require.Contains(t, y.Error, "flows.x.missing")
}

func TestSchedulerEmptyFlowTerminatesImmediately(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadBytes([]byte(`flow: []`))
	require.NoError(t, err)
	dag, err := graph.Analyze(cfg)
	require.NoError(t, err)

	runner := New(cfg, dag, testRegistry(), nil)
	done := make(chan *runstate.Store, 1)
	go func() { done <- runner.Run("empty-run") }()

	select {
	case store := <-done:
		view := store.ViewSnapshot()
		require.Empty(t, view.Steps)
	case <-time.After(2 * time.Second):
		t.Fatal("empty flow did not terminate promptly")
	}
}

func TestSchedulerManyIndependentLeavesAllSucceed(t *testing.T) {
	t.Parallel()

	doc := "flow:\n"
	for i := 0; i < 20; i++ {
		doc += "  - name: s" + string(rune('a'+i)) + "\n    source: {type: const, configuration: {data: 1}}\n"
	}
	doc += "runner: {max_workers: 4}\n"

	cfg, err := config.LoadBytes([]byte(doc))
	require.NoError(t, err)
	dag, err := graph.Analyze(cfg)
	require.NoError(t, err)

	runner := New(cfg, dag, testRegistry(), nil)
	store := runner.Run("fanout-run")

	view := store.ViewSnapshot()
	for _, s := range view.Steps {
		require.Equal(t, runstate.StateSucceeded, s.State)
	}
}
