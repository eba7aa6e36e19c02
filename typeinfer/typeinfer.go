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

// Package typeinfer computes the checked type of every node of an expression.
package typeinfer

import (
	"fmt"

	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/ops"
	"github.com/purpleidea/nnc/ir/types"
	"github.com/purpleidea/nnc/util/errwrap"
)

// Infer fills in the checked type of every node reachable from expr. Nodes are
// always recomputed, since a rewrite may have changed their children. The
// bodies of nested functions which already carry a type are not entered. The
// callers of a function are only typed once the function itself is.
func Infer(expr ir.Expr) error {
	inf := &inferrer{
		done: make(map[ir.Expr]struct{}),
	}
	return inf.infer(expr, true)
}

// Inferencer implements the interfaces.TypeInferencer interface.
type Inferencer struct {
	Debug bool
	Logf  func(format string, v ...interface{})
}

// Infer fills in the checked type of every node reachable from expr.
func (obj *Inferencer) Infer(expr ir.Expr) error {
	if err := Infer(expr); err != nil {
		if obj.Debug && obj.Logf != nil {
			obj.Logf("type inference failed on: %s", expr)
		}
		return err
	}
	return nil
}

type inferrer struct {
	done map[ir.Expr]struct{}
}

func (obj *inferrer) infer(expr ir.Expr, root bool) error {
	if _, exists := obj.done[expr]; exists {
		return nil
	}
	obj.done[expr] = struct{}{}

	if fn, ok := expr.(ir.Callable); ok && !root && fn.CheckedType() != nil {
		return nil
	}
	for _, child := range ir.Children(expr) {
		if err := obj.infer(child, false); err != nil {
			return err
		}
	}
	typ, err := typeOf(expr)
	if err != nil {
		return err
	}
	expr.SetCheckedType(typ)
	return nil
}

// typeOf computes the type of a node whose children are typed.
func typeOf(expr ir.Expr) (*types.Type, error) {
	switch x := expr.(type) {
	case *ir.Var:
		if x.TypeAnnotation == nil {
			return nil, fmt.Errorf("variable `%s` has no type annotation", x.Name)
		}
		return x.TypeAnnotation, nil

	case *ir.Const, *ir.ConstTuple, ir.Op:
		return expr.CheckedType(), nil

	case *ir.Tuple:
		fields := []*types.Type{}
		for i, f := range x.Fields {
			typ := f.CheckedType()
			if typ == nil {
				return nil, fmt.Errorf("tuple field %d has no type", i)
			}
			fields = append(fields, typ)
		}
		return types.NewTupleType(fields...), nil

	case *ir.Call:
		typ, err := callType(x)
		if err != nil {
			return nil, errwrap.Wrapf(err, "can't type %s", x)
		}
		return typ, nil

	case ir.Callable:
		params := []*types.Type{}
		for i, p := range x.FuncParams() {
			typ := p.CheckedType()
			if typ == nil {
				return nil, fmt.Errorf("param %d of `%s` has no type", i, x.FuncName())
			}
			params = append(params, typ)
		}
		ret := x.FuncBody().CheckedType()
		if ret == nil {
			return nil, fmt.Errorf("body of `%s` has no type", x.FuncName())
		}
		return types.NewCallableType(params, ret), nil
	}
	return nil, fmt.Errorf("unknown expression %T", expr)
}

func callType(call *ir.Call) (*types.Type, error) {
	if op, ok := call.Target.(ir.Op); ok {
		kernel, ok := op.(ops.Kernel)
		if !ok {
			return nil, fmt.Errorf("op `%s` has no kernel", op.OpName())
		}
		return kernel.InferType(call.Args)
	}

	typ := call.Target.CheckedType()
	if typ == nil || typ.Kind != types.KindCallable || typ.Ret == nil {
		return nil, fmt.Errorf("target %s is not callable", call.Target)
	}
	if len(typ.Params) != len(call.Args) {
		return nil, fmt.Errorf("expected %d args, got %d", len(typ.Params), len(call.Args))
	}
	for i, p := range typ.Params {
		arg := call.Args[i].CheckedType()
		if arg == nil {
			return nil, fmt.Errorf("arg %d has no type", i)
		}
		if err := p.Compatible(arg); err != nil {
			return nil, errwrap.Wrapf(err, "arg %d", i)
		}
	}
	return typ.Ret, nil
}
