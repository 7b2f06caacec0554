package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateCommandAcceptsWellFormedFlow(t *testing.T) {
	path := writeFlow(t, singleStepFlow)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"validate", "--config", path})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "flow is valid")
}

func TestValidateCommandRejectsCycle(t *testing.T) {
	path := writeFlow(t, `
flow:
  - name: a
    source:
      type: env
    depends_on: [b]
  - name: b
    source:
      type: env
    depends_on: [a]
`)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"validate", "--config", path})

	require.Error(t, root.Execute())
}
