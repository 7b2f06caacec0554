package connector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type echoConnector struct{ cfg map[string]any }

func (e *echoConnector) Call(input any) (Result, error) {
	return Result{Status: Status{Success: true}, Data: input, Meta: map[string]any{"cfg": e.cfg}}, nil
}

func TestRegistryConstructsRegisteredType(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("echo", func(cfg map[string]any) (Connector, error) {
		return &echoConnector{cfg: cfg}, nil
	})

	c, err := reg.Construct("echo", map[string]any{"k": "v"})
	require.NoError(t, err)

	result, err := c.Call("hello")
	require.NoError(t, err)
	require.True(t, result.Status.Success)
	require.Equal(t, "hello", result.Data)
}

func TestRegistryUnknownTypeIsConfigError(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	_, err := reg.Construct("missing", nil)
	require.Error(t, err)
}

func TestRegistryTypesSorted(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("zeta", func(map[string]any) (Connector, error) { return nil, nil })
	reg.Register("alpha", func(map[string]any) (Connector, error) { return nil, nil })

	require.Equal(t, []string{"alpha", "zeta"}, reg.Types())
}
