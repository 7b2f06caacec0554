package weftlog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONWithComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(Options{Writer: &buf, JSON: true, Component: "scheduler"})
	log.Info("run started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "run started", entry["message"])
	require.Equal(t, "scheduler", entry["component"])
}

func TestWithFieldsAddsSortedKeys(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(Options{Writer: &buf, JSON: true})
	derived := log.WithFields(map[string]any{"step": "fetch", "attempt": 1})
	derived.Info("running")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "fetch", entry["step"])
	require.EqualValues(t, 1, entry["attempt"])
	require.Less(t, bytes.Index(buf.Bytes(), []byte(`"attempt"`)), bytes.Index(buf.Bytes(), []byte(`"step"`)))
}

func TestNopLoggerDiscardsOutput(t *testing.T) {
	t.Parallel()

	log := Nop()
	log.Info("should not panic")
	log.Error(nil, "still should not panic")
}
