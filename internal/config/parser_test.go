package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const baseDoc = `
sources:
  api:
    type: http
    configuration:
      base_url: https://example.test
      timeout: 5
flow:
  - name: fetch
    source: api
    output:
      - name: body
        kind: raw
  - name: persist
    source:
      type: http
      configuration:
        base_url: "{{ sources.api.base_url }}"
    input: "{{ flows.fetch.body }}"
    depends_on: [fetch]
`

func TestLoadBytesNamedInlineAndOverrideSources(t *testing.T) {
	t.Parallel()

	overrideDoc := `
flow:
  - name: fetch
    source: api
  - name: persist
    source:
      base: api
      override:
        configuration:
          timeout: 30
`

	cfg, err := LoadBytes([]byte(baseDoc), []byte(overrideDoc))
	require.NoError(t, err)
	require.Len(t, cfg.Flow, 2)

	byName := StepByName(cfg.Flow)
	require.Equal(t, "http", byName["fetch"].Source.Type)
	require.Equal(t, "api", byName["fetch"].Source.Name)

	persist := byName["persist"]
	require.Equal(t, "http", persist.Source.Type)
	require.EqualValues(t, 30, persist.Source.Configuration["timeout"])
	require.Equal(t, "https://example.test", persist.Source.Configuration["base_url"])
}

func TestLoadBytesUnknownBaseIsConfigError(t *testing.T) {
	t.Parallel()

	doc := `
flow:
  - name: fetch
    source:
      base: missing
      override: {}
`
	_, err := LoadBytes([]byte(doc))
	require.Error(t, err)
}

func TestDeepMergeIsIdempotent(t *testing.T) {
	t.Parallel()

	cfgOnce, err := LoadBytes([]byte(baseDoc))
	require.NoError(t, err)

	cfgTwice, err := LoadBytes([]byte(baseDoc), []byte(baseDoc))
	require.NoError(t, err)

	require.Equal(t, cfgOnce.Sources, cfgTwice.Sources)
	require.Equal(t, cfgOnce.Flow, cfgTwice.Flow)
}

func TestRunnerDefaultsApplied(t *testing.T) {
	t.Parallel()

	cfg, err := LoadBytes([]byte(baseDoc))
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Runner.MaxWorkers)
	require.Equal(t, OnErrorFail, cfg.Runner.OnError)
}

func TestInvalidOnErrorRejected(t *testing.T) {
	t.Parallel()

	doc := `
flow:
  - name: fetch
    source:
      type: http
      configuration: {}
    on_error: retry
`
	_, err := LoadBytes([]byte(doc))
	require.Error(t, err)
}

func TestInvalidStepNameRejected(t *testing.T) {
	t.Parallel()

	doc := `
flow:
  - name: "bad name!"
    source:
      type: http
      configuration: {}
`
	_, err := LoadBytes([]byte(doc))
	require.Error(t, err)
}
