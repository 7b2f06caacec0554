// Package runstate implements the thread-safe Run State: the per-step
// state machine, the Flows and Sources stores, and snapshot semantics
// for concurrent, lock-free rendering.
package runstate

import (
	"sort"
	"sync"
	"time"
)

// State is a step's position in the per-step state machine.
// pending -> running -> {succeeded, failed, skipped}; pending -> skipped
// directly is also valid. Terminal states are absorbing.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateSkipped   State = "skipped"
)

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateSkipped
}

// StepState is the runtime record for a single step.
type StepState struct {
	State       State
	StartedAt   *time.Time
	EndedAt     *time.Time
	Error       string
	OutputNames []string
	Notes       []string
}

func (s StepState) clone() StepState {
	out := s
	if len(s.OutputNames) > 0 {
		out.OutputNames = append([]string(nil), s.OutputNames...)
	}
	if len(s.Notes) > 0 {
		out.Notes = append([]string(nil), s.Notes...)
	}
	return out
}

// Store owns the run lock guarding every mutable piece of Run State: the
// per-step state machine, the flows store, the sources store, and the
// error_occurred flag. It is an explicit value constructed by the
// Scheduler and handed to the Status HTTP View by reference — never a
// package-level singleton.
//
// The scheduler's in_degree counters and ready queue are NOT guarded by
// this lock: they are touched only from the single coordinator goroutine
// (worker goroutines report completions back over a channel), so no
// second writer ever races them. Everything a worker goroutine or the
// HTTP view can observe concurrently — steps, flows, sources,
// error_occurred — goes through this lock.
type Store struct {
	mu            sync.Mutex
	runID         string
	startedAt     time.Time
	endedAt       *time.Time
	steps         map[string]*StepState
	flows         map[string]map[string]any
	sources       map[string]map[string]any
	errorOccurred bool
}

// New initializes a Store for the given step names, all starting
// pending, and the initial sources view from the normalized config.
func New(runID string, stepNames []string, sources map[string]map[string]any) *Store {
	steps := make(map[string]*StepState, len(stepNames))
	for _, name := range stepNames {
		steps[name] = &StepState{State: StatePending}
	}
	srcCopy := make(map[string]map[string]any, len(sources))
	for name, cfg := range sources {
		srcCopy[name] = cloneAnyMap(cfg)
	}
	return &Store{
		runID:     runID,
		startedAt: time.Now(),
		steps:     steps,
		flows:     make(map[string]map[string]any),
		sources:   srcCopy,
	}
}

func cloneAnyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Snapshot takes a point-in-time shallow copy of flows and sources under
// the run lock. Values already immutable after a step succeeds, so only
// the top-level maps need copying — this is the core "render outside the
// lock" pattern (§5, §9).
func (st *Store) Snapshot() (flows map[string]any, sources map[string]any) {
	st.mu.Lock()
	defer st.mu.Unlock()
	flows = make(map[string]any, len(st.flows))
	for step, outputs := range st.flows {
		flows[step] = cloneAnyMap(outputs)
	}
	sources = make(map[string]any, len(st.sources))
	for name, cfg := range st.sources {
		sources[name] = cloneAnyMap(cfg)
	}
	return flows, sources
}

// MarkRunning transitions a pending step to running.
func (st *Store) MarkRunning(name string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now()
	s := st.steps[name]
	s.State = StateRunning
	s.StartedAt = &now
}

// MarkSucceeded records outputs into the flows store, optionally merges
// them into a named source's configuration view (each output key
// overwrites the same top-level key there; nested values are not
// deep-merged), and transitions the step to succeeded.
func (st *Store) MarkSucceeded(name string, outputs map[string]any, mergeIntoSource string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now()

	st.flows[name] = cloneAnyMap(outputs)

	if mergeIntoSource != "" {
		dst, ok := st.sources[mergeIntoSource]
		if !ok {
			dst = make(map[string]any)
		}
		for k, v := range outputs {
			dst[k] = v
		}
		st.sources[mergeIntoSource] = dst
	}

	names := make([]string, 0, len(outputs))
	for k := range outputs {
		names = append(names, k)
	}
	sort.Strings(names)

	s := st.steps[name]
	s.State = StateSucceeded
	s.EndedAt = &now
	s.OutputNames = names
}

// MarkFailed transitions a step to failed, recording the error message
// and any connector notes.
func (st *Store) MarkFailed(name, errMsg string, notes []string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now()
	s := st.steps[name]
	s.State = StateFailed
	s.EndedAt = &now
	s.Error = errMsg
	s.Notes = notes
}

// MarkSkipped transitions a step directly to skipped (no running phase).
func (st *Store) MarkSkipped(name string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now()
	s := st.steps[name]
	if s.State.Terminal() {
		return
	}
	s.State = StateSkipped
	s.EndedAt = &now
}

// SetErrorOccurred raises the run-wide error flag (on_error=fail cascade).
func (st *Store) SetErrorOccurred() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.errorOccurred = true
}

// ErrorOccurred reports whether the run-wide error flag is set.
func (st *Store) ErrorOccurred() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.errorOccurred
}

// Finish records the run's end time.
func (st *Store) Finish() {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now()
	st.endedAt = &now
}

// StateOf returns a copy of a single step's state, used by the
// scheduler's ready-queue drain and by tests that assert on StepState
// transitions without reaching into the lock.
func (st *Store) StateOf(name string) StepState {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.steps[name].clone()
}

// View is a fully-detached copy of the Run State, safe to serialize
// outside the lock (§5: "serialization happens outside the lock").
type View struct {
	RunID     string
	StartedAt time.Time
	EndedAt   *time.Time
	Steps     map[string]StepState
}

// ViewSnapshot takes a consistent copy of the whole run for the Status HTTP
// View to serialize at its leisure.
func (st *Store) ViewSnapshot() View {
	st.mu.Lock()
	defer st.mu.Unlock()
	steps := make(map[string]StepState, len(st.steps))
	for name, s := range st.steps {
		steps[name] = s.clone()
	}
	return View{
		RunID:     st.runID,
		StartedAt: st.startedAt,
		EndedAt:   st.endedAt,
		Steps:     steps,
	}
}

// FlowsSnapshot returns a detached copy of the flows store for /outputs.
func (st *Store) FlowsSnapshot() map[string]map[string]any {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make(map[string]map[string]any, len(st.flows))
	for step, outputs := range st.flows {
		out[step] = cloneAnyMap(outputs)
	}
	return out
}
