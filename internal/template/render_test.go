package template

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func baseCtx() Context {
	return Context{
		Flows: map[string]any{
			"fetch": map[string]any{
				"body":  "hello",
				"count": 3,
				"items": []any{"a", "b", "c"},
			},
		},
		Sources: map[string]any{
			"api": map[string]any{
				"base_url": "https://example.test",
				"timeout":  5,
			},
		},
	}
}

func TestRenderMemberAccess(t *testing.T) {
	t.Parallel()
	out, err := Render("step.input", "{{ flows.fetch.body }}", baseCtx())
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

func TestRenderPreservesNonStringType(t *testing.T) {
	t.Parallel()
	out, err := Render("step.input", "{{ flows.fetch.count }}", baseCtx())
	require.NoError(t, err)
	require.EqualValues(t, 3, out)
}

func TestRenderIndexAccess(t *testing.T) {
	t.Parallel()
	out, err := Render("step.input", "{{ flows.fetch.items[1] }}", baseCtx())
	require.NoError(t, err)
	require.Equal(t, "b", out)
}

func TestRenderConcatenation(t *testing.T) {
	t.Parallel()
	out, err := Render("step.input", "{{ sources.api.base_url + \"/v1\" }}", baseCtx())
	require.NoError(t, err)
	require.Equal(t, "https://example.test/v1", out)
}

func TestRenderInlineConditional(t *testing.T) {
	t.Parallel()
	out, err := Render("step.input", "{{ \"many\" if flows.fetch.count > 1 else \"one\" }}", baseCtx())
	require.NoError(t, err)
	require.Equal(t, "many", out)
}

func TestRenderFilterChain(t *testing.T) {
	t.Parallel()
	out, err := Render("step.input", "{{ flows.fetch.body | upper | trim }}", baseCtx())
	require.NoError(t, err)
	require.Equal(t, "HELLO", out)
}

func TestRenderJoinFilter(t *testing.T) {
	t.Parallel()
	out, err := Render("step.input", "{{ flows.fetch.items | join(\",\") }}", baseCtx())
	require.NoError(t, err)
	require.Equal(t, "a,b,c", out)
}

func TestRenderDefaultFilterRescuesUnresolvedReference(t *testing.T) {
	t.Parallel()
	out, err := Render("step.input", "{{ flows.nowhere.v | default(\"x\") }}", baseCtx())
	require.NoError(t, err)
	require.Equal(t, "x", out)
}

func TestRenderDefaultFilterDoesNotRescueNonReferenceErrors(t *testing.T) {
	t.Parallel()
	// default(...) only rescues an unresolved identifier/attribute lookup,
	// not other evaluation failures further down the chain.
	_, err := Render("step.input", "{{ flows.fetch.count | join(\",\") | default(\"x\") }}", baseCtx())
	require.Error(t, err)
}

func TestRenderMixedTextSubstitution(t *testing.T) {
	t.Parallel()
	out, err := Render("step.input", "count={{ flows.fetch.count }} items", baseCtx())
	require.NoError(t, err)
	require.Equal(t, "count=3 items", out)
}

func TestRenderUnresolvedReferenceIsStrict(t *testing.T) {
	t.Parallel()
	_, err := Render("step.input", "{{ flows.missing.x }}", baseCtx())
	require.Error(t, err)
}

func TestRenderNoTemplatePreservesIdentity(t *testing.T) {
	t.Parallel()
	nested := []any{"a", "b"}
	original := map[string]any{"nested": nested}

	out, err := Render("step.input", original, baseCtx())
	require.NoError(t, err)

	// No "{{" appears anywhere, so Render must hand back the exact same
	// container rather than rebuilding one: mutating through the
	// original slice must be visible through the returned value.
	nested[0] = "mutated"
	require.Equal(t, "mutated", out.(map[string]any)["nested"].([]any)[0])
}

func TestRenderNestedStructureWithPartialTemplates(t *testing.T) {
	t.Parallel()
	input := map[string]any{
		"literal": "unchanged",
		"dynamic": "{{ flows.fetch.body }}",
		"list":    []any{"static", "{{ flows.fetch.count }}"},
	}
	out, err := Render("step.input", input, baseCtx())
	require.NoError(t, err)
	rendered := out.(map[string]any)
	require.Equal(t, "unchanged", rendered["literal"])
	require.Equal(t, "hello", rendered["dynamic"])
	list := rendered["list"].([]any)
	require.Equal(t, "static", list[0])
	require.EqualValues(t, 3, list[1])
}

func TestRenderComparisonOperators(t *testing.T) {
	t.Parallel()
	out, err := Render("step.input", "{{ true if flows.fetch.count >= 3 else false }}", baseCtx())
	require.NoError(t, err)
	require.Equal(t, true, out)
}

func TestRenderToJSONFilter(t *testing.T) {
	t.Parallel()
	out, err := Render("step.input", "{{ flows.fetch.items | tojson }}", baseCtx())
	require.NoError(t, err)
	require.Equal(t, `["a","b","c"]`, out)
}
