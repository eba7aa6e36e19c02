// Nnc
// Copyright (C) 2013-2026+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package ir

import (
	"fmt"
)

// Children returns the direct sub-expressions of a node in a stable order. For
// functions, the parameters come first and the body is last.
func Children(expr Expr) []Expr {
	switch x := expr.(type) {
	case *Call:
		return append([]Expr{x.Target}, x.Args...)
	case *Tuple:
		return x.Fields
	case *Function:
		return append(append([]Expr{}, x.Params...), x.Body)
	case *PrimFunction:
		return append(append([]Expr{}, x.Params...), x.Body)
	}
	return nil
}

// WithChildren builds a new node of the same variant as expr with the children
// replaced. The new node has no checked type. The original is not modified.
func WithChildren(expr Expr, children []Expr) (Expr, error) {
	switch x := expr.(type) {
	case *Call:
		if len(children) < 1 {
			return nil, fmt.Errorf("call needs a target")
		}
		return NewCall(children[0], children[1:]...), nil
	case *Tuple:
		return NewTuple(children...), nil
	case *Function:
		if len(children) != len(x.Params)+1 {
			return nil, fmt.Errorf("function expects %d children, got %d", len(x.Params)+1, len(children))
		}
		n := len(children) - 1
		return NewFunction(x.Name, children[:n], children[n]), nil
	case *PrimFunction:
		if len(children) != len(x.Params)+1 {
			return nil, fmt.Errorf("function expects %d children, got %d", len(x.Params)+1, len(children))
		}
		n := len(children) - 1
		return NewPrimFunction(x.Name, children[:n], children[n]), nil
	}
	if len(children) != 0 {
		return nil, fmt.Errorf("%T has no children", expr)
	}
	return expr, nil
}

// Rewriter walks an expression in post order and lets Fn propose a replacement
// for every node once its children have been rewritten. A parent whose children
// changed is rebuilt, so shared nodes are never modified. Each unique node is
// visited once per Rewrite, which keeps sharing intact in the output. Functions
// nested inside the root (eg: the target of a call) are offered to Fn as a
// whole, but their bodies are not entered.
type Rewriter struct {
	// Fn returns a replacement for the node, or nil to keep it.
	Fn func(Expr) (Expr, error)

	memo    map[Expr]Expr
	mutated bool
}

// Rewrite runs the rewriter over the expression and returns the result.
func (obj *Rewriter) Rewrite(expr Expr) (Expr, error) {
	obj.memo = make(map[Expr]Expr)
	obj.mutated = false
	return obj.visit(expr, true)
}

// IsMutated returns true if the last Rewrite changed anything.
func (obj *Rewriter) IsMutated() bool {
	return obj.mutated
}

func (obj *Rewriter) visit(expr Expr, root bool) (Expr, error) {
	if out, exists := obj.memo[expr]; exists {
		return out, nil
	}

	cur := expr
	if _, isFunc := expr.(Callable); root || !isFunc {
		children := Children(expr)
		changed := false
		next := make([]Expr, len(children))
		for i, child := range children {
			c, err := obj.visit(child, false)
			if err != nil {
				return nil, err
			}
			if c != child {
				changed = true
			}
			next[i] = c
		}
		if changed {
			x, err := WithChildren(expr, next)
			if err != nil {
				return nil, err
			}
			cur = x
		}
	}

	if obj.Fn != nil {
		x, err := obj.Fn(cur)
		if err != nil {
			return nil, err
		}
		if x != nil {
			cur = x
		}
	}

	if cur != expr {
		obj.mutated = true
	}
	obj.memo[expr] = cur
	return cur, nil
}

// Substitute replaces every occurrence of the keys of the mapping with their
// values. If expr is a function, its parameters are substituted as well.
func Substitute(expr Expr, mapping map[Expr]Expr) (Expr, error) {
	rewriter := &Rewriter{
		Fn: func(x Expr) (Expr, error) {
			if r, exists := mapping[x]; exists {
				return r, nil
			}
			return nil, nil
		},
	}
	return rewriter.Rewrite(expr)
}

// Specialize returns the function called by call, with its parameters replaced
// by the arguments of the call everywhere. It returns false if the target isn't
// a function or if any argument isn't a literal.
func Specialize(call *Call) (Callable, bool, error) {
	fn, ok := call.Target.(Callable)
	if !ok || len(fn.FuncParams()) != len(call.Args) {
		return nil, false, nil
	}
	mapping := make(map[Expr]Expr)
	for i, p := range fn.FuncParams() {
		switch call.Args[i].(type) {
		case *Const, *ConstTuple:
		default:
			return nil, false, nil
		}
		mapping[p] = call.Args[i]
	}
	out, err := Substitute(fn, mapping)
	if err != nil {
		return nil, false, err
	}
	return out.(Callable), true, nil
}

// Walk calls fn once on every unique node reachable from expr, children first.
// Unlike Rewriter, it enters the bodies of nested functions.
func Walk(expr Expr, fn func(Expr) error) error {
	seen := make(map[Expr]struct{})
	var visit func(Expr) error
	visit = func(x Expr) error {
		if _, exists := seen[x]; exists {
			return nil
		}
		seen[x] = struct{}{}
		for _, child := range Children(x) {
			if err := visit(child); err != nil {
				return err
			}
		}
		return fn(x)
	}
	return visit(expr)
}
