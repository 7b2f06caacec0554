package builtin

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecConnectorRunsCommand(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("echo invocation assumes a posix shell")
	}

	c, err := NewExec(map[string]any{"command": "echo", "args": []any{"hello"}})
	require.NoError(t, err)

	result, err := c.Call(nil)
	require.NoError(t, err)
	require.True(t, result.Status.Success)
	data := result.Data.(map[string]any)
	require.Contains(t, data["stdout"], "hello")
}

func TestExecConnectorMissingCommandIsConfigError(t *testing.T) {
	t.Parallel()
	_, err := NewExec(map[string]any{})
	require.Error(t, err)
}

func TestEnvConnectorReadsSpecificKeys(t *testing.T) {
	t.Parallel()
	t.Setenv("WEFT_TEST_VAR", "present")

	c, err := NewEnv(map[string]any{"keys": []any{"WEFT_TEST_VAR"}})
	require.NoError(t, err)

	result, err := c.Call(nil)
	require.NoError(t, err)
	require.True(t, result.Status.Success)
	data := result.Data.(map[string]any)
	require.Equal(t, "present", data["WEFT_TEST_VAR"])
}

func TestGitRepoConnectorRequiresURLAndDestination(t *testing.T) {
	t.Parallel()
	_, err := NewGitRepo(map[string]any{"url": "https://example.test/repo.git"})
	require.Error(t, err)
}
