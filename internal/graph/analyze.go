// Package graph implements the Dependency Analyzer: it derives the step
// DAG from explicit depends_on links and implicit flows.<name> template
// references, and validates the result — aggregating every issue found
// rather than stopping at the first failure.
package graph

import (
	"regexp"
	"sort"

	"github.com/weftrun/weft/internal/config"
	streamyerrors "github.com/weftrun/weft/pkg/errors"
)

var flowsRefPattern = regexp.MustCompile(`flows\.([a-zA-Z_][a-zA-Z0-9_]*)`)

// DAG is the derived dependency graph: index maps plus the initial
// in-degree count used by the scheduler's Kahn loop.
type DAG struct {
	Deps       map[string]map[string]struct{} // step -> parents
	Dependents map[string]map[string]struct{} // step -> children
	InDegree   map[string]int
	Order      []string // declared step names, in flow order
}

// Analyze derives and validates the DAG for a normalized configuration. On
// success it returns a DAG with no missing references, no duplicate
// names, and no cycles. On failure it returns a single *errors.ValidationError
// aggregating every issue found.
func Analyze(cfg *config.NormalizedConfig) (*DAG, error) {
	var issues []streamyerrors.Issue

	declared := make(map[string]struct{}, len(cfg.Flow))
	order := make([]string, 0, len(cfg.Flow))
	for _, step := range cfg.Flow {
		if _, dup := declared[step.Name]; dup {
			issues = append(issues, streamyerrors.Issue{
				Kind:    "duplicate_step",
				Subject: step.Name,
				Message: "step name declared more than once",
			})
			continue
		}
		declared[step.Name] = struct{}{}
		order = append(order, step.Name)
	}

	dag := &DAG{
		Deps:       make(map[string]map[string]struct{}, len(order)),
		Dependents: make(map[string]map[string]struct{}, len(order)),
		InDegree:   make(map[string]int, len(order)),
		Order:      order,
	}
	for _, name := range order {
		dag.Deps[name] = make(map[string]struct{})
		dag.Dependents[name] = make(map[string]struct{})
	}

	for _, step := range cfg.Flow {
		if _, ok := declared[step.Name]; !ok {
			continue // duplicate, already reported
		}

		deps := make(map[string]struct{})
		for _, dep := range step.DependsOn {
			if _, ok := declared[dep]; !ok {
				issues = append(issues, streamyerrors.Issue{
					Kind:    "missing_dependency",
					Subject: step.Name,
					Message: "depends_on references unknown step " + dep,
				})
				continue
			}
			deps[dep] = struct{}{}
		}

		for _, ref := range implicitRefs(step.Source.Configuration, step.Input) {
			if _, ok := declared[ref]; !ok {
				issues = append(issues, streamyerrors.Issue{
					Kind:    "missing_reference",
					Subject: step.Name,
					Message: "flows." + ref + " references unknown step " + ref,
				})
				continue
			}
			if ref != step.Name {
				deps[ref] = struct{}{}
			}
		}

		dag.Deps[step.Name] = deps
	}

	for name, deps := range dag.Deps {
		for parent := range deps {
			if dag.Dependents[parent] == nil {
				continue
			}
			dag.Dependents[parent][name] = struct{}{}
		}
	}
	for name, deps := range dag.Deps {
		dag.InDegree[name] = len(deps)
	}

	for _, cycle := range findCycles(dag) {
		members := make([]string, len(cycle))
		copy(members, cycle)
		sort.Strings(members)
		issues = append(issues, streamyerrors.Issue{
			Kind:    "cycle",
			Subject: joinNames(members),
			Message: "dependency cycle detected among: " + joinNames(members),
		})
	}

	if len(issues) > 0 {
		return nil, streamyerrors.NewValidationError(issues...)
	}

	return dag, nil
}

// implicitRefs scans any nested value (maps, slices, strings) for the
// literal token "flows." followed by an identifier, anywhere it appears.
func implicitRefs(values ...any) []string {
	seen := make(map[string]struct{})
	var refs []string
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case string:
			for _, m := range flowsRefPattern.FindAllStringSubmatch(val, -1) {
				name := m[1]
				if _, ok := seen[name]; !ok {
					seen[name] = struct{}{}
					refs = append(refs, name)
				}
			}
		case map[string]any:
			keys := make([]string, 0, len(val))
			for k := range val {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(val[k])
			}
		case []any:
			for _, item := range val {
				walk(item)
			}
		}
	}
	for _, v := range values {
		walk(v)
	}
	return refs
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += n
	}
	return out
}
