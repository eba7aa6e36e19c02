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

// Package evaluator computes the value of constant expressions with the
// reference kernels of the operators.
package evaluator

import (
	"fmt"

	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/ops"
	"github.com/purpleidea/nnc/util"
	"github.com/purpleidea/nnc/util/errwrap"
)

// ErrUnbound is returned when a variable has no value.
const ErrUnbound = util.Error("unbound variable")

// Evaluate computes the value of an expression. Every variable it contains must
// be bound, so it's meant for sub-trees which are fully constant. A function
// evaluates to the value of its body.
func Evaluate(expr ir.Expr) (ir.Value, error) {
	e := &env{
		vars: make(map[*ir.Var]ir.Value),
		memo: make(map[ir.Expr]ir.Value),
	}
	if fn, ok := expr.(ir.Callable); ok {
		return e.eval(fn.FuncBody())
	}
	return e.eval(expr)
}

// Evaluator implements the interfaces.Evaluator interface.
type Evaluator struct {
	Debug bool
	Logf  func(format string, v ...interface{})
}

// Evaluate computes the value of a constant expression.
func (obj *Evaluator) Evaluate(expr ir.Expr) (ir.Value, error) {
	value, err := Evaluate(expr)
	if err != nil {
		return nil, err
	}
	if obj.Debug && obj.Logf != nil {
		obj.Logf("evaluated %s to %s", expr, value)
	}
	return value, nil
}

type env struct {
	vars map[*ir.Var]ir.Value
	memo map[ir.Expr]ir.Value
}

func (obj *env) eval(expr ir.Expr) (ir.Value, error) {
	if v, exists := obj.memo[expr]; exists {
		return v, nil
	}
	v, err := obj.compute(expr)
	if err != nil {
		return nil, err
	}
	obj.memo[expr] = v
	return v, nil
}

func (obj *env) compute(expr ir.Expr) (ir.Value, error) {
	switch x := expr.(type) {
	case *ir.Const:
		return x.Value, nil

	case *ir.ConstTuple:
		return x.Value(), nil

	case *ir.Var:
		v, exists := obj.vars[x]
		if !exists {
			return nil, errwrap.Wrapf(ErrUnbound, "variable `%s`", x.Name)
		}
		return v, nil

	case *ir.Tuple:
		fields := []ir.Value{}
		for _, f := range x.Fields {
			v, err := obj.eval(f)
			if err != nil {
				return nil, err
			}
			fields = append(fields, v)
		}
		return &ir.TupleValue{Fields: fields}, nil

	case *ir.Call:
		args := []ir.Value{}
		for _, a := range x.Args {
			v, err := obj.eval(a)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		return obj.call(x.Target, args)
	}
	return nil, fmt.Errorf("can't evaluate %T", expr)
}

func (obj *env) call(target ir.Expr, args []ir.Value) (ir.Value, error) {
	switch t := target.(type) {
	case ops.Kernel:
		v, err := t.Eval(args)
		if err != nil {
			return nil, errwrap.Wrapf(err, "op `%s` failed", t.OpName())
		}
		return v, nil

	case ir.Callable:
		params := t.FuncParams()
		if len(params) != len(args) {
			return nil, fmt.Errorf("function `%s` expects %d args, got %d", t.FuncName(), len(params), len(args))
		}
		inner := &env{
			vars: make(map[*ir.Var]ir.Value),
			memo: make(map[ir.Expr]ir.Value),
		}
		for i, p := range params {
			if v, ok := p.(*ir.Var); ok {
				inner.vars[v] = args[i]
			}
		}
		return inner.eval(t.FuncBody())
	}
	return nil, fmt.Errorf("can't call %s", target)
}
