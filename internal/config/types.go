// Package config parses, deep-merges, and normalizes the layered YAML
// documents that describe a run: sources, flow steps, and runner settings.
package config

import (
	"regexp"

	"gopkg.in/yaml.v3"
)

var stepNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// OnError is the per-step (or runner-wide default) error policy.
type OnError string

const (
	OnErrorFail     OnError = "fail"
	OnErrorSkip     OnError = "skip"
	OnErrorContinue OnError = "continue"
)

// OutputKind distinguishes whole-result assignment from JSON-path
// projection in an OutputSpec.
type OutputKind string

const (
	OutputKindRaw  OutputKind = "raw"
	OutputKindPath OutputKind = "path"
)

// OutputSpec names a value to extract from a connector's result data.
type OutputSpec struct {
	Name  string     `yaml:"name" validate:"required,dag_name"`
	Kind  OutputKind `yaml:"kind" validate:"required,oneof=raw path"`
	Value string     `yaml:"value,omitempty"`
}

// SourceDecl is a named, reusable connector declaration.
type SourceDecl struct {
	Name          string
	Type          string         `yaml:"type"`
	Configuration map[string]any `yaml:"configuration"`
}

// SourceRef is a step's reference to a connector declaration in one of the
// three accepted forms. After normalization Type/Configuration are always
// populated and Name is kept for named references; Base/Override are the
// pre-normalization inputs and are cleared.
type SourceRef struct {
	Name          string // named reference form
	Type          string // inline form, and the normalized/resolved result
	Configuration map[string]any
	Base          string // override form
	Override      map[string]any
}

// UnmarshalYAML accepts a bare string (named reference), or a mapping with
// either {type, configuration} (inline) or {base, override} (override).
func (s *SourceRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var name string
		if err := value.Decode(&name); err != nil {
			return err
		}
		*s = SourceRef{Name: name}
		return nil
	}

	var raw struct {
		Type          string         `yaml:"type"`
		Configuration map[string]any `yaml:"configuration"`
		Base          string         `yaml:"base"`
		Override      map[string]any `yaml:"override"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.Base != "" {
		*s = SourceRef{Base: raw.Base, Override: raw.Override}
		return nil
	}

	*s = SourceRef{Type: raw.Type, Configuration: raw.Configuration}
	return nil
}

// StepDecl is a node in the DAG: one connector invocation.
type StepDecl struct {
	Name      string       `yaml:"name" validate:"required,dag_name"`
	Source    SourceRef    `yaml:"source"`
	Input     any          `yaml:"input,omitempty"`
	Output    []OutputSpec `yaml:"output,omitempty" validate:"omitempty,dive"`
	DependsOn []string     `yaml:"depends_on,omitempty"`
	OnError   OnError      `yaml:"on_error,omitempty" validate:"omitempty,oneof=fail skip continue"`
}

// RunnerSettings holds run-wide execution parameters.
type RunnerSettings struct {
	MaxWorkers int     `yaml:"max_workers,omitempty" validate:"omitempty,min=1,max=256"`
	OnError    OnError `yaml:"on_error,omitempty" validate:"omitempty,oneof=fail skip continue"`
}

// rawDocument mirrors the on-disk document shape before deep-merge.
type rawDocument struct {
	Sources map[string]SourceDecl `yaml:"sources"`
	Flow    []StepDecl            `yaml:"flow"`
	Runner  RunnerSettings        `yaml:"runner"`
}

// NormalizedConfig is the Config Loader's output: every source reference
// in every step has been resolved to a canonical {Type, Configuration}.
type NormalizedConfig struct {
	Sources map[string]SourceDecl
	Flow    []StepDecl
	Runner  RunnerSettings
}

// StepByName builds a lookup table for steps by name.
func StepByName(flow []StepDecl) map[string]StepDecl {
	out := make(map[string]StepDecl, len(flow))
	for _, step := range flow {
		out[step.Name] = step
	}
	return out
}

