package template

import (
	"strings"

	streamyerrors "github.com/weftrun/weft/pkg/errors"
)

// Context is the root of an evaluation: the flows and sources maps the
// scheduler builds from a RunState snapshot.
type Context struct {
	Flows   map[string]any
	Sources map[string]any
}

func (c Context) toValue() Value {
	return Map(map[string]Value{
		"flows":   FromInterface(c.Flows),
		"sources": FromInterface(c.Sources),
	})
}

// Render walks an arbitrary nested value (as decoded from YAML: maps,
// slices, strings, scalars) and evaluates every {{ expr }} found in
// string leaves against ctx. A value not containing "{{" anywhere is
// returned unchanged, by reference, preserving structural identity for
// values with nothing to render.
func Render(path string, v any, ctx Context) (any, error) {
	if !containsTemplate(v) {
		return v, nil
	}
	root := ctx.toValue()
	return renderValue(path, v, root)
}

func containsTemplate(v any) bool {
	switch val := v.(type) {
	case string:
		return strings.Contains(val, "{{")
	case map[string]any:
		for _, item := range val {
			if containsTemplate(item) {
				return true
			}
		}
		return false
	case []any:
		for _, item := range val {
			if containsTemplate(item) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func renderValue(path string, v any, root Value) (any, error) {
	switch val := v.(type) {
	case string:
		return renderString(path, val, root)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			rendered, err := renderValue(path+"."+k, item, root)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			rendered, err := renderValue(path, item, root)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return v, nil
	}
}

// renderString evaluates every {{ expr }} block found in s. When s,
// trimmed, is exactly one block, the block's evaluated Value is returned
// directly (preserving non-string types); otherwise every block is
// stringified and substituted into the surrounding text.
func renderString(path, s string, root Value) (any, error) {
	blocks, err := findBlocks(s)
	if err != nil {
		return nil, streamyerrors.NewTemplateError(path, "malformed template block", err)
	}
	if len(blocks) == 0 {
		return s, nil
	}

	if len(blocks) == 1 && strings.TrimSpace(s) == s[blocks[0].start:blocks[0].end] {
		val, err := evalBlock(path, blocks[0].body, root)
		if err != nil {
			return nil, err
		}
		return val.Interface(), nil
	}

	var b strings.Builder
	last := 0
	for _, blk := range blocks {
		b.WriteString(s[last:blk.start])
		val, err := evalBlock(path, blk.body, root)
		if err != nil {
			return nil, err
		}
		b.WriteString(val.AsString())
		last = blk.end
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

func evalBlock(path, body string, root Value) (Value, error) {
	e, err := parseExpr(body)
	if err != nil {
		return Value{}, streamyerrors.NewTemplateError(path, "invalid expression", err)
	}
	val, err := e.eval(root)
	if err != nil {
		return Value{}, streamyerrors.NewTemplateError(path, "unresolved reference", err)
	}
	return val, nil
}

type block struct {
	start, end int // [start,end) span including the {{ }} delimiters
	body       string
}

// findBlocks scans s for {{ ... }} spans, respecting quoted string
// literals inside the expression so a literal containing "}}" does not
// terminate the block early.
func findBlocks(s string) ([]block, error) {
	var blocks []block
	runes := []rune(s)
	i := 0
	for i < len(runes)-1 {
		if runes[i] == '{' && runes[i+1] == '{' {
			start := i
			j := i + 2
			var quote rune
			for j < len(runes) {
				c := runes[j]
				if quote != 0 {
					if c == '\\' {
						j += 2
						continue
					}
					if c == quote {
						quote = 0
					}
					j++
					continue
				}
				if c == '\'' || c == '"' {
					quote = c
					j++
					continue
				}
				if c == '}' && j+1 < len(runes) && runes[j+1] == '}' {
					break
				}
				j++
			}
			if j >= len(runes) {
				return nil, errUnterminated
			}
			body := strings.TrimSpace(string(runes[i+2 : j]))
			end := j + 2
			blocks = append(blocks, block{start: start, end: end, body: body})
			i = end
			continue
		}
		i++
	}
	return blocks, nil
}

var errUnterminated = unterminatedErr{}

type unterminatedErr struct{}

func (unterminatedErr) Error() string { return "unterminated {{ }} block" }
