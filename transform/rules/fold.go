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

package rules

import (
	"errors"

	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/ops"
	"github.com/purpleidea/nnc/ir/types"
	"github.com/purpleidea/nnc/pattern"
	"github.com/purpleidea/nnc/transform"
)

func init() {
	Register(func() transform.Rule { return NewFoldConstCall() })
	Register(func() transform.Rule { return NewFoldConstFunction() })
	Register(func() transform.Rule { return NewFoldShapeOp() })
	Register(func() transform.Rule { return NewFoldNopReshape() })
	Register(func() transform.Rule { return NewFoldConstTuple() })
}

// FoldConstCall replaces a call whose arguments are all literals by the value
// of the call. The folded slice keeps the type inferred for the call, since its
// shape can't always be recovered from the value alone.
type FoldConstCall struct {
	pattern pattern.Pattern
}

// NewFoldConstCall builds the rule.
func NewFoldConstCall() *FoldConstCall {
	return &FoldConstCall{
		pattern: pattern.IsCall(pattern.IsWildcard(), pattern.IsVArgsRepeat(allConst)),
	}
}

// Name returns the name of the rule.
func (obj *FoldConstCall) Name() string { return NameOf(obj) }

// Pattern returns the pattern of the rule.
func (obj *FoldConstCall) Pattern() pattern.Pattern { return obj.pattern }

// GetReplace evaluates the call.
func (obj *FoldConstCall) GetReplace(sess *interfaces.Session, res *pattern.MatchResult) (ir.Expr, error) {
	call := res.Root().(*ir.Call)
	switch call.Target.(type) {
	case ir.Op, ir.Callable:
	default:
		return nil, nil
	}

	if call.Target == ir.Expr(ops.SliceOp) {
		typ := call.CheckedType()
		if typ == nil || !typ.IsFixed() {
			return nil, nil // not typed yet
		}
		value, err := sess.Evaluator.Evaluate(call)
		if err != nil {
			return nil, err
		}
		return literal(value, typ)
	}

	value, err := sess.Evaluator.Evaluate(call)
	if err != nil {
		return nil, err
	}
	return literal(value, nil)
}

// literal turns a value into a literal expression. A value without a literal
// form, such as a nested tuple, is left unfolded.
func literal(value ir.Value, typ *types.Type) (ir.Expr, error) {
	c, err := ir.ToConst(value, typ)
	if errors.Is(err, ir.ErrNotLiteral) {
		return nil, nil
	}
	return c, err
}

// FoldConstFunction replaces a function whose parameters are all literals by
// the value of its body.
type FoldConstFunction struct {
	pattern pattern.Pattern
}

// NewFoldConstFunction builds the rule.
func NewFoldConstFunction() *FoldConstFunction {
	return &FoldConstFunction{
		pattern: pattern.IsFunction(pattern.IsWildcard(), pattern.IsVArgsRepeat(allConst)),
	}
}

// Name returns the name of the rule.
func (obj *FoldConstFunction) Name() string { return NameOf(obj) }

// Pattern returns the pattern of the rule.
func (obj *FoldConstFunction) Pattern() pattern.Pattern { return obj.pattern }

// GetReplace evaluates the body.
func (obj *FoldConstFunction) GetReplace(sess *interfaces.Session, res *pattern.MatchResult) (ir.Expr, error) {
	value, err := sess.Evaluator.Evaluate(res.Root())
	if err != nil {
		return nil, err
	}
	return literal(value, nil)
}

// FoldShapeOp replaces a shape query by the shape when it is known.
type FoldShapeOp struct {
	pattern pattern.Pattern
}

// NewFoldShapeOp builds the rule.
func NewFoldShapeOp() *FoldShapeOp {
	return &FoldShapeOp{
		pattern: pattern.IsOpCall("", ops.ShapeOfOp.OpName(), pattern.IsNamedWildcard("input")),
	}
}

// Name returns the name of the rule.
func (obj *FoldShapeOp) Name() string { return NameOf(obj) }

// Pattern returns the pattern of the rule.
func (obj *FoldShapeOp) Pattern() pattern.Pattern { return obj.pattern }

// GetReplace returns the shape of the input as a literal.
func (obj *FoldShapeOp) GetReplace(sess *interfaces.Session, res *pattern.MatchResult) (ir.Expr, error) {
	input, _ := res.Named("input")
	typ := input.CheckedType()
	if typ == nil || !typ.IsFixed() || typ.Rank() < 0 {
		return nil, nil
	}
	return ir.NewConstFromShape(typ.Shape), nil
}

// FoldNopReshape removes a reshape which doesn't change the type.
type FoldNopReshape struct {
	pattern pattern.Pattern
}

// NewFoldNopReshape builds the rule.
func NewFoldNopReshape() *FoldNopReshape {
	return &FoldNopReshape{
		pattern: pattern.IsOpCall("", ops.ReshapeOp.OpName(), pattern.IsNamedWildcard("input"), pattern.IsConst()),
	}
}

// Name returns the name of the rule.
func (obj *FoldNopReshape) Name() string { return NameOf(obj) }

// Pattern returns the pattern of the rule.
func (obj *FoldNopReshape) Pattern() pattern.Pattern { return obj.pattern }

// GetReplace returns the input if the reshape keeps its type.
func (obj *FoldNopReshape) GetReplace(sess *interfaces.Session, res *pattern.MatchResult) (ir.Expr, error) {
	input, _ := res.Named("input")
	in, out := input.CheckedType(), res.Root().CheckedType()
	if in == nil || out == nil || !in.IsFixed() {
		return nil, nil
	}
	if in.Cmp(out) != nil {
		return nil, nil
	}
	return input, nil
}

// FoldConstTuple replaces a tuple of literals by a literal tuple.
type FoldConstTuple struct {
	pattern pattern.Pattern
}

// NewFoldConstTuple builds the rule.
func NewFoldConstTuple() *FoldConstTuple {
	return &FoldConstTuple{
		pattern: pattern.IsTuple(pattern.IsVArgsRepeat(func() pattern.Pattern { return pattern.IsConst() })),
	}
}

// Name returns the name of the rule.
func (obj *FoldConstTuple) Name() string { return NameOf(obj) }

// Pattern returns the pattern of the rule.
func (obj *FoldConstTuple) Pattern() pattern.Pattern { return obj.pattern }

// GetReplace builds the literal tuple.
func (obj *FoldConstTuple) GetReplace(sess *interfaces.Session, res *pattern.MatchResult) (ir.Expr, error) {
	tuple := res.Root().(*ir.Tuple)
	fields := []*ir.Const{}
	for _, f := range tuple.Fields {
		fields = append(fields, f.(*ir.Const))
	}
	return ir.NewConstTuple(fields...), nil
}
