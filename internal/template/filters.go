package template

import (
	"fmt"
	"strings"
)

type filterFunc func(base Value, args []Value) (Value, error)

var filters = map[string]filterFunc{
	"tojson": func(base Value, args []Value) (Value, error) {
		return String(base.toJSON()), nil
	},
	"upper": func(base Value, args []Value) (Value, error) {
		return String(strings.ToUpper(base.AsString())), nil
	},
	"lower": func(base Value, args []Value) (Value, error) {
		return String(strings.ToLower(base.AsString())), nil
	},
	"trim": func(base Value, args []Value) (Value, error) {
		return String(strings.TrimSpace(base.AsString())), nil
	},
	"length": func(base Value, args []Value) (Value, error) {
		switch base.Kind() {
		case KindString:
			return Int(int64(len([]rune(base.s)))), nil
		case KindList:
			return Int(int64(len(base.list))), nil
		case KindMap:
			return Int(int64(len(base.m))), nil
		default:
			return Value{}, fmt.Errorf("length: unsupported kind %v", base.Kind())
		}
	},
	"default": func(base Value, args []Value) (Value, error) {
		if len(args) != 1 {
			return Value{}, fmt.Errorf("default: expected 1 argument, got %d", len(args))
		}
		if base.Kind() == KindNull {
			return args[0], nil
		}
		return base, nil
	},
	"join": func(base Value, args []Value) (Value, error) {
		if len(args) != 1 {
			return Value{}, fmt.Errorf("join: expected 1 argument, got %d", len(args))
		}
		if base.Kind() != KindList {
			return Value{}, fmt.Errorf("join: base must be a list")
		}
		sep := args[0].AsString()
		parts := make([]string, len(base.list))
		for i, item := range base.list {
			parts[i] = item.AsString()
		}
		return String(strings.Join(parts, sep)), nil
	},
	"replace": func(base Value, args []Value) (Value, error) {
		if len(args) != 2 {
			return Value{}, fmt.Errorf("replace: expected 2 arguments, got %d", len(args))
		}
		return String(strings.ReplaceAll(base.AsString(), args[0].AsString(), args[1].AsString())), nil
	},
}
