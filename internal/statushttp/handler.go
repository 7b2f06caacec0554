// Package statushttp implements the read-only Status HTTP View: two JSON
// GET endpoints serving a point-in-time snapshot of a run's progress.
package statushttp

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/weftrun/weft/internal/config"
	"github.com/weftrun/weft/internal/runstate"
	"github.com/weftrun/weft/internal/weftlog"
)

// Handler serves /status and /outputs against an explicit Store
// reference — it never reaches for package-level state.
type Handler struct {
	store       *runstate.Store
	outputNames map[string][]string
	log         *weftlog.Logger
}

// New builds a Handler for a run's Store. The per-step output names that
// /status reports are taken from cfg's declared output specs, regardless
// of whether the step has run yet.
func New(store *runstate.Store, cfg *config.NormalizedConfig, log *weftlog.Logger) *Handler {
	if log == nil {
		log = weftlog.Nop()
	}
	names := make(map[string][]string, len(cfg.Flow))
	for _, step := range cfg.Flow {
		specs := make([]string, len(step.Output))
		for i, spec := range step.Output {
			specs[i] = spec.Name
		}
		names[step.Name] = specs
	}
	return &Handler{store: store, outputNames: names, log: log}
}

// Mux builds the ServeMux exposing the two read-only endpoints.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", h.handleStatus)
	mux.HandleFunc("/outputs", h.handleOutputs)
	return mux
}

// Serve runs an HTTP server over the Mux with conservative timeouts,
// blocking until the listener fails or is closed.
func (h *Handler) Serve(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h.Mux(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv.ListenAndServe()
}

type stepView struct {
	State     runstate.State `json:"state"`
	StartedAt *time.Time     `json:"started_at"`
	EndedAt   *time.Time     `json:"ended_at"`
	Notes     []string       `json:"notes"`
	Outputs   []string       `json:"outputs"`
}

type statusResponse struct {
	RunID          string              `json:"run_id"`
	StartedAt      time.Time           `json:"started_at"`
	EndedAt        *time.Time          `json:"ended_at"`
	TotalSteps     int                 `json:"total_steps"`
	CompletedSteps int                 `json:"completed_steps"`
	CurrentStep    string              `json:"current_step"`
	RunningSteps   []string            `json:"running_steps"`
	RunningCount   int                 `json:"running_count"`
	Steps          map[string]stepView `json:"steps"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	view := h.store.ViewSnapshot()

	resp := statusResponse{
		RunID:      view.RunID,
		StartedAt:  view.StartedAt,
		EndedAt:    view.EndedAt,
		TotalSteps: len(view.Steps),
		Steps:      make(map[string]stepView, len(view.Steps)),
	}

	var running []string
	for name, s := range view.Steps {
		if s.State.Terminal() {
			resp.CompletedSteps++
		}
		if s.State == runstate.StateRunning {
			running = append(running, name)
		}
		resp.Steps[name] = stepView{
			State:     s.State,
			StartedAt: s.StartedAt,
			EndedAt:   s.EndedAt,
			Notes:     s.Notes,
			Outputs:   h.outputNames[name],
		}
	}
	sort.Strings(running)
	resp.RunningSteps = running
	resp.RunningCount = len(running)
	if len(running) > 0 {
		resp.CurrentStep = running[0]
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleOutputs(w http.ResponseWriter, r *http.Request) {
	flows := h.store.FlowsSnapshot()
	out := make(map[string]map[string]any, len(flows))
	for step, outputs := range flows {
		out[step] = outputs
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"` + err.Error() + `"}`))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
