// Package builtin ships a handful of illustrative, non-core connectors
// exercising the Connector contract. They are not invoked by the
// scheduler directly; a caller embedding the core registers them the
// same way it would register its own.
package builtin

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/weftrun/weft/internal/connector"
	streamyerrors "github.com/weftrun/weft/pkg/errors"
)

type execConnector struct {
	command string
	args    []string
	dir     string
}

// NewExec constructs a connector that runs a shell command via os/exec.
// configuration: {command: string, args?: [string], dir?: string}.
func NewExec(configuration map[string]any) (connector.Connector, error) {
	command, _ := configuration["command"].(string)
	if command == "" {
		return nil, streamyerrors.NewConfigError("command", "exec connector requires a non-empty command", nil)
	}

	var args []string
	if raw, ok := configuration["args"].([]any); ok {
		for _, a := range raw {
			s, ok := a.(string)
			if !ok {
				return nil, streamyerrors.NewConfigError("args", "exec connector args must all be strings", nil)
			}
			args = append(args, s)
		}
	}

	dir, _ := configuration["dir"].(string)

	return &execConnector{command: command, args: args, dir: dir}, nil
}

func (e *execConnector) Call(input any) (connector.Result, error) {
	cmd := exec.Command(e.command, e.args...)
	cmd.Dir = e.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	data := map[string]any{
		"stdout":    stdout.String(),
		"stderr":    stderr.String(),
		"exit_code": exitCode,
	}

	if runErr != nil {
		return connector.Result{
			Status: connector.Status{
				Success: false,
				Code:    exitCode,
				Notes:   []string{fmt.Sprintf("command failed: %v", runErr)},
			},
			Data: data,
		}, nil
	}

	return connector.Result{
		Status: connector.Status{Success: true, Code: 0},
		Data:   data,
	}, nil
}
