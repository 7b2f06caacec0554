// Package errors defines the kind-tagged error types that cross the core's
// package boundaries: ConfigError, ValidationError, TemplateError,
// OutputError, ConnectorCallError, and StepFailure.
package errors

import (
	"fmt"
	"strings"
)

// ConfigError represents a malformed document, a missing required field, an
// unknown connector type, or an unresolvable source base reference.
type ConfigError struct {
	Path    string
	Message string
	Err     error
}

// NewConfigError constructs a ConfigError.
func NewConfigError(path, message string, err error) error {
	return &ConfigError{Path: path, Message: message, Err: err}
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path != "" {
		return fmt.Sprintf("config error: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Issue is one aggregated problem found by the Dependency Analyzer: a
// missing reference, a duplicate name, or a cycle.
type Issue struct {
	Kind    string // "missing_dependency", "missing_reference", "duplicate_step", "cycle"
	Subject string // step or step set involved
	Message string
}

func (i Issue) String() string {
	if i.Subject != "" {
		return fmt.Sprintf("%s: %s: %s", i.Kind, i.Subject, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Kind, i.Message)
}

// ValidationError aggregates every dependency problem found in a single
// analysis pass so callers see all issues at once, not first-failure.
type ValidationError struct {
	Issues []Issue
}

// NewValidationError constructs a ValidationError from one or more issues.
func NewValidationError(issues ...Issue) error {
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "validation error"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("validation error: %s", strings.Join(parts, "; "))
}

// TemplateError reports a template that failed to parse or evaluate at
// Path. When strict-mode evaluation fails to resolve an identifier or
// attribute, the wrapped Err names the offending reference (e.g.
// "flows.x.missing").
type TemplateError struct {
	Path    string // location being rendered, e.g. "fetch.input"
	Message string
	Err     error
}

// NewTemplateError constructs a TemplateError.
func NewTemplateError(path, message string, err error) error {
	return &TemplateError{Path: path, Message: message, Err: err}
}

func (e *TemplateError) Error() string {
	if e == nil {
		return ""
	}
	detail := e.Message
	if e.Err != nil {
		detail = fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	if e.Path != "" {
		return fmt.Sprintf("template error: %s: %s", e.Path, detail)
	}
	return fmt.Sprintf("template error: %s", detail)
}

// Unwrap exposes the underlying error.
func (e *TemplateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// OutputError names the step and output spec whose JSON-path evaluation
// failed against a connector's result data.
type OutputError struct {
	StepName string
	SpecName string
	Message  string
	Err      error
}

// NewOutputError constructs an OutputError.
func NewOutputError(stepName, specName, message string, err error) error {
	return &OutputError{StepName: stepName, SpecName: specName, Message: message, Err: err}
}

func (e *OutputError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("output error: step %s output %s: %s", e.StepName, e.SpecName, e.Message)
}

// Unwrap exposes the underlying error.
func (e *OutputError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConnectorCallError wraps a panic-equivalent raise from a connector's
// Call, as opposed to a structured non-success ConnectorResult.
type ConnectorCallError struct {
	StepName      string
	ConnectorType string
	Err           error
}

// NewConnectorCallError constructs a ConnectorCallError.
func NewConnectorCallError(stepName, connectorType string, err error) error {
	return &ConnectorCallError{StepName: stepName, ConnectorType: connectorType, Err: err}
}

func (e *ConnectorCallError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("connector error: step %s (%s): %v", e.StepName, e.ConnectorType, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ConnectorCallError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StepFailure marks "this step did not succeed" without carrying a more
// specific kind (e.g. a ConnectorResult with status.success == false). It
// is recorded on StepState.Error and never propagated past the scheduler
// boundary as an exception.
type StepFailure struct {
	StepName string
	Message  string
}

// NewStepFailure constructs a StepFailure.
func NewStepFailure(stepName, message string) error {
	return &StepFailure{StepName: stepName, Message: message}
}

func (e *StepFailure) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("step %s failed: %s", e.StepName, e.Message)
}
