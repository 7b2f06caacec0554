// Package connector defines the uniform contract every external-system
// adapter implements, plus the registry that maps a type tag to a
// constructor and instantiates connectors lazily, one per step.
package connector

import (
	"fmt"
	"sort"
	"sync"

	streamyerrors "github.com/weftrun/weft/pkg/errors"
)

// Status reports whether a connector call succeeded.
type Status struct {
	Success bool
	Code    int
	Notes   []string
}

// Result is the uniform return value every connector call produces.
// status.success == false means the step is considered failed regardless
// of Data.
type Result struct {
	Status Status
	Data   any
	Meta   map[string]any
}

// Connector is the two-method contract (§4.5): construction must not
// perform I/O, Call performs the actual work and should prefer returning
// a failed Result over raising for expected runtime failures.
type Connector interface {
	Call(input any) (Result, error)
}

// Constructor builds a Connector from a step's rendered configuration. It
// may raise ConfigError for missing or invalid fields; it must not
// perform I/O.
type Constructor func(configuration map[string]any) (Connector, error)

// Registry maps a connector type name to its constructor. It is an
// explicit value owned by the Runner, never a package-level singleton —
// plugin discovery is reduced to explicit Register calls made at
// startup.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry returns an empty registry ready for Register calls.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds a constructor under a type name. Re-registering the same
// name replaces the previous constructor.
func (r *Registry) Register(typeName string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[typeName] = ctor
}

// Types returns the registered type names, sorted, mostly useful for
// diagnostics.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Construct instantiates a connector of the given type with the rendered
// configuration. The scheduler calls this once per step, only when the
// step is actually about to run.
func (r *Registry) Construct(typeName string, configuration map[string]any) (Connector, error) {
	r.mu.RLock()
	ctor, ok := r.constructors[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, streamyerrors.NewConfigError(typeName, "unknown connector type", fmt.Errorf("no constructor registered"))
	}
	return ctor(configuration)
}
