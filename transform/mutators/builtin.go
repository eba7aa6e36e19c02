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

package mutators

import (
	"fmt"

	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/transform"
	"github.com/purpleidea/nnc/transform/rules"
)

// FoldConstCall folds the calls with literal arguments and the shape queries
// with a known shape.
type FoldConstCall struct {
	ruleMutator
}

// NewFoldConstCall is the factory of FoldConstCall.
func NewFoldConstCall(sess *interfaces.Session, args ...interface{}) (transform.Mutator, error) {
	if err := noArgs(rules.NameOf(&FoldConstCall{}), args); err != nil {
		return nil, err
	}
	return &FoldConstCall{
		ruleMutator: ruleMutator{
			sess:  sess,
			rules: []transform.Rule{rules.NewFoldConstCall(), rules.NewFoldShapeOp()},
		},
	}, nil
}

// SimplifyArith removes arithmetic identities.
type SimplifyArith struct {
	ruleMutator
}

// NewSimplifyArith is the factory of SimplifyArith.
func NewSimplifyArith(sess *interfaces.Session, args ...interface{}) (transform.Mutator, error) {
	if err := noArgs(rules.NameOf(&SimplifyArith{}), args); err != nil {
		return nil, err
	}
	return &SimplifyArith{
		ruleMutator: ruleMutator{
			sess:  sess,
			rules: []transform.Rule{rules.NewSimplifyArith()},
		},
	}, nil
}

// FoldConstTuple turns tuples of literals into literal tuples.
type FoldConstTuple struct {
	ruleMutator
}

// NewFoldConstTuple is the factory of FoldConstTuple.
func NewFoldConstTuple(sess *interfaces.Session, args ...interface{}) (transform.Mutator, error) {
	if err := noArgs(rules.NameOf(&FoldConstTuple{}), args); err != nil {
		return nil, err
	}
	return &FoldConstTuple{
		ruleMutator: ruleMutator{
			sess:  sess,
			rules: []transform.Rule{rules.NewFoldConstTuple()},
		},
	}, nil
}

// InlineCall replaces a call of a function by the body of that function, with
// the parameters replaced by the arguments. The inlined body is a fresh copy.
type InlineCall struct {
	sess *interfaces.Session

	// MaxNodes skips callees with a larger body. Zero means no limit.
	MaxNodes int

	isMutated bool
}

// NewInlineCall is the factory of InlineCall. It takes an optional int, which
// is the maximum body size of an inlined callee.
func NewInlineCall(sess *interfaces.Session, args ...interface{}) (transform.Mutator, error) {
	obj := &InlineCall{
		sess: sess,
	}
	switch len(args) {
	case 0:
	case 1:
		n, ok := args[0].(int)
		if !ok || n < 0 {
			return nil, fmt.Errorf("inline limit must be a positive int, got %v", args[0])
		}
		obj.MaxNodes = n
	default:
		return nil, fmt.Errorf("too many args for inline_call")
	}
	return obj, nil
}

// Visit inlines the calls of functions.
func (obj *InlineCall) Visit(expr ir.Expr) (ir.Expr, bool, error) {
	out, mutated, err := rewriteFunction(expr, func(x ir.Expr) (ir.Expr, error) {
		call, ok := x.(*ir.Call)
		if !ok {
			return nil, nil
		}
		callee, ok := call.Target.(*ir.Function)
		if !ok || len(callee.Params) != len(call.Args) {
			return nil, nil
		}
		if obj.MaxNodes > 0 && countNodes(callee.Body) > obj.MaxNodes {
			return nil, nil
		}
		if obj.sess.Debug {
			obj.sess.Logf("inline_call: inlining @%s", callee.Name)
		}
		return inline(callee, call.Args)
	})
	if err != nil {
		return nil, false, err
	}
	obj.isMutated = obj.isMutated || mutated
	return out, mutated, nil
}

// IsMutated returns true if a visit changed anything.
func (obj *InlineCall) IsMutated() bool { return obj.isMutated }

// inline returns a copy of the body of the callee with the params bound.
func inline(callee *ir.Function, args []ir.Expr) (ir.Expr, error) {
	mapping := make(map[ir.Expr]ir.Expr)
	for i, p := range callee.Params {
		mapping[p] = args[i]
	}
	rewriter := &ir.Rewriter{
		Fn: func(x ir.Expr) (ir.Expr, error) {
			if r, exists := mapping[x]; exists {
				return r, nil
			}
			switch x.(type) {
			case *ir.Call, *ir.Tuple:
				return ir.WithChildren(x, ir.Children(x)) // fresh node
			}
			return nil, nil
		},
	}
	return rewriter.Rewrite(callee.Body)
}

func countNodes(expr ir.Expr) int {
	n := 0
	ir.Walk(expr, func(ir.Expr) error {
		n++
		return nil
	})
	return n
}
