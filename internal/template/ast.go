package template

import (
	"errors"
	"fmt"
)

// unresolvedRefError marks a failed identifier/attribute lookup as
// recoverable: the only caller allowed to rescue it is a `default(...)`
// filter further along the same chain (spec.md §4.3). Every other error
// kind returned by eval is fatal and propagates as-is.
type unresolvedRefError struct {
	ref string
}

func (e *unresolvedRefError) Error() string {
	return fmt.Sprintf("unresolved reference %s", e.ref)
}

// expr is any node in the parsed expression tree.
type expr interface {
	eval(ctx Value) (Value, error)
}

type literalExpr struct{ v Value }

func (e literalExpr) eval(ctx Value) (Value, error) { return e.v, nil }

// describe renders the dotted-path text of a member/index access chain,
// used to name the offending reference in strict-mode errors (e.g.
// "flows.x.missing").
func describe(e expr) string {
	switch v := e.(type) {
	case identExpr:
		return v.name
	case memberExpr:
		return describe(v.base) + "." + v.name
	case indexExpr:
		return describe(v.base) + "[...]"
	default:
		return "<expr>"
	}
}

// identExpr resolves a bare identifier against the root context map.
type identExpr struct{ name string }

func (e identExpr) eval(ctx Value) (Value, error) {
	if ctx.Kind() != KindMap {
		return Value{}, fmt.Errorf("cannot resolve %s: context is not a map", e.name)
	}
	v, ok := ctx.m[e.name]
	if !ok {
		return Value{}, &unresolvedRefError{ref: e.name}
	}
	return v, nil
}

// memberExpr accesses base.field.
type memberExpr struct {
	base expr
	name string
}

func (e memberExpr) eval(ctx Value) (Value, error) {
	base, err := e.base.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	if base.Kind() != KindMap {
		return Value{}, fmt.Errorf("cannot access field %q: value is not a map", e.name)
	}
	v, ok := base.m[e.name]
	if !ok {
		return Value{}, &unresolvedRefError{ref: describe(e)}
	}
	return v, nil
}

// indexExpr accesses base[index], index may be an int or string Value.
type indexExpr struct {
	base  expr
	index expr
}

func (e indexExpr) eval(ctx Value) (Value, error) {
	base, err := e.base.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	idx, err := e.index.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	switch base.Kind() {
	case KindList:
		if idx.Kind() != KindInt {
			return Value{}, fmt.Errorf("list index must be an integer")
		}
		i := int(idx.i)
		if i < 0 || i >= len(base.list) {
			return Value{}, fmt.Errorf("list index %d out of range", i)
		}
		return base.list[i], nil
	case KindMap:
		if idx.Kind() != KindString {
			return Value{}, fmt.Errorf("map index must be a string")
		}
		v, ok := base.m[idx.s]
		if !ok {
			return Value{}, &unresolvedRefError{ref: describe(e.base) + "[" + idx.s + "]"}
		}
		return v, nil
	default:
		return Value{}, fmt.Errorf("cannot index a %v", base.Kind())
	}
}

type concatExpr struct{ parts []expr }

func (e concatExpr) eval(ctx Value) (Value, error) {
	acc, err := e.parts[0].eval(ctx)
	if err != nil {
		return Value{}, err
	}
	for _, part := range e.parts[1:] {
		next, err := part.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		if acc.isNumeric() && next.isNumeric() {
			if acc.Kind() == KindInt && next.Kind() == KindInt {
				acc = Int(acc.i + next.i)
			} else {
				acc = Float(acc.asFloat() + next.asFloat())
			}
			continue
		}
		acc = String(acc.AsString() + next.AsString())
	}
	return acc, nil
}

type compareOp int

const (
	opEq compareOp = iota
	opNeq
	opLt
	opLte
	opGt
	opGte
)

type compareExpr struct {
	left, right expr
	op          compareOp
}

func (e compareExpr) eval(ctx Value) (Value, error) {
	l, err := e.left.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	r, err := e.right.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	switch e.op {
	case opEq:
		return Bool(Equal(l, r)), nil
	case opNeq:
		return Bool(!Equal(l, r)), nil
	}
	// ordering comparisons require compatible, orderable kinds.
	if l.isNumeric() && r.isNumeric() {
		lf, rf := l.asFloat(), r.asFloat()
		return Bool(orderFloat(lf, rf, e.op)), nil
	}
	if l.Kind() == KindString && r.Kind() == KindString {
		return Bool(orderString(l.s, r.s, e.op)), nil
	}
	return Value{}, fmt.Errorf("cannot order-compare %v and %v", l.Kind(), r.Kind())
}

func orderFloat(l, r float64, op compareOp) bool {
	switch op {
	case opLt:
		return l < r
	case opLte:
		return l <= r
	case opGt:
		return l > r
	case opGte:
		return l >= r
	}
	return false
}

func orderString(l, r string, op compareOp) bool {
	switch op {
	case opLt:
		return l < r
	case opLte:
		return l <= r
	case opGt:
		return l > r
	case opGte:
		return l >= r
	}
	return false
}

type ternaryExpr struct {
	then, cond, els expr
}

func (e ternaryExpr) eval(ctx Value) (Value, error) {
	cond, err := e.cond.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	if cond.Truthy() {
		return e.then.eval(ctx)
	}
	return e.els.eval(ctx)
}

type filterExpr struct {
	base expr
	name string
	args []expr
}

func (e filterExpr) eval(ctx Value) (Value, error) {
	base, err := e.base.eval(ctx)
	if err != nil {
		var unresolved *unresolvedRefError
		if e.name != "default" || !errors.As(err, &unresolved) {
			return Value{}, err
		}
		base = Null()
	}
	fn, ok := filters[e.name]
	if !ok {
		return Value{}, fmt.Errorf("unknown filter %q", e.name)
	}
	args := make([]Value, len(e.args))
	for i, a := range e.args {
		v, err := a.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	return fn(base, args)
}
