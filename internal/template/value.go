// Package template implements Weft's strict-mode expression language: the
// small {{ expr }} syntax used inside step input and source configuration
// to reference prior flow outputs and source configuration values.
package template

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

// Value is the tagged-variant runtime type the expression evaluator
// operates on. Expressions never see Go's `any` directly — every
// intermediate result, member access, and literal is a Value.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
}

func Null() Value                 { return Value{kind: KindNull} }
func Bool(b bool) Value           { return Value{kind: KindBool, b: b} }
func Int(i int64) Value           { return Value{kind: KindInt, i: i} }
func Float(f float64) Value       { return Value{kind: KindFloat, f: f} }
func String(s string) Value       { return Value{kind: KindString, s: s} }
func List(items []Value) Value    { return Value{kind: KindList, list: items} }
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

func (v Value) Kind() Kind { return v.kind }

// FromInterface converts a Go value decoded from YAML/JSON (nil, bool,
// int/int64/float64, string, []any, map[string]any, map[any]any) into a
// Value tree.
func FromInterface(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(val)
	case int:
		return Int(int64(val))
	case int64:
		return Int(val)
	case float64:
		if val == float64(int64(val)) {
			// YAML decodes whole numbers as int already; this branch
			// only matters for JSON round-trips, so keep it a float.
		}
		return Float(val)
	case float32:
		return Float(float64(val))
	case string:
		return String(val)
	case []any:
		items := make([]Value, len(val))
		for i, item := range val {
			items[i] = FromInterface(item)
		}
		return List(items)
	case []Value:
		return List(val)
	case map[string]any:
		m := make(map[string]Value, len(val))
		for k, item := range val {
			m[k] = FromInterface(item)
		}
		return Map(m)
	case map[any]any:
		m := make(map[string]Value, len(val))
		for k, item := range val {
			m[fmt.Sprintf("%v", k)] = FromInterface(item)
		}
		return Map(m)
	default:
		return String(fmt.Sprintf("%v", val))
	}
}

// Interface converts a Value back into a plain Go value suitable for
// re-marshaling or assignment into a step's rendered input.
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// Truthy implements the language's truthiness rule for conditionals:
// null, false, zero, empty string, and empty list/map are false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindList:
		return len(v.list) > 0
	case KindMap:
		return len(v.m) > 0
	default:
		return false
	}
}

// AsString stringifies a Value for concatenation and text substitution.
func (v Value) AsString() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindList, KindMap:
		return v.toJSON()
	default:
		return ""
	}
}

func (v Value) toJSON() string {
	var b strings.Builder
	v.writeJSON(&b)
	return b.String()
}

func (v Value) writeJSON(b *strings.Builder) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		b.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		b.WriteString(strconv.Quote(v.s))
	case KindList:
		b.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				b.WriteByte(',')
			}
			item.writeJSON(b)
		}
		b.WriteByte(']')
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			v.m[k].writeJSON(b)
		}
		b.WriteByte('}')
	}
}

// Equal implements structural equality across kinds for == and !=.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		// allow numeric cross-kind comparison (1 == 1.0)
		if (a.kind == KindInt || a.kind == KindFloat) && (b.kind == KindInt || b.kind == KindFloat) {
			return a.asFloat() == b.asFloat()
		}
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.m) != len(b.m) {
			return false
		}
		for k, av := range a.m {
			bv, ok := b.m[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v Value) asFloat() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

func (v Value) isNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat
}
