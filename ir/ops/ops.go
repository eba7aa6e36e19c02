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

// Package ops contains the operator markers of the IR. Each operator knows how
// to infer its output type from its argument types, and has a reference kernel
// which the evaluator uses for constant folding.
package ops

import (
	"fmt"
	"sort"

	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/types"
)

// Kernel is the interface every operator in this package implements.
type Kernel interface {
	ir.Op

	// Arity returns the number of arguments the operator takes.
	Arity() int

	// InferType returns the output type given the arguments. The checked
	// type of every argument is already set. Arguments which are literals
	// may be inspected to compute a more precise type.
	InferType(args []ir.Expr) (*types.Type, error)

	// Eval runs the reference kernel on fully known argument values.
	Eval(args []ir.Value) (ir.Value, error)
}

// registeredOps is a global map of all the operators which can be looked up by
// name. You should never touch this map directly. Use methods like Register.
var registeredOps = make(map[string]Kernel) // must initialize

// Register makes an operator available by name. It is called in the init()
// method of this package. There is no matching Unregister function.
func Register(op Kernel) {
	name := op.OpName()
	if _, exists := registeredOps[name]; exists {
		panic(fmt.Sprintf("an op named %s is already registered", name))
	}
	registeredOps[name] = op
}

// Lookup returns the operator with that name.
func Lookup(name string) (Kernel, error) {
	op, exists := registeredOps[name]
	if !exists {
		return nil, fmt.Errorf("op `%s` not found", name)
	}
	return op, nil
}

// Names returns the sorted list of registered operator names.
func Names() []string {
	names := []string{}
	for name := range registeredOps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	for _, op := range []Kernel{Add, Sub, Mul, Div, Min, Max, Neg, Abs, Exp, Sqrt, Relu, ShapeOfOp, SliceOp, ReshapeOp} {
		Register(op)
	}
}

// checkArity returns an error if the argument count is wrong.
func checkArity(op Kernel, n int) error {
	if n != op.Arity() {
		return fmt.Errorf("op `%s` expects %d args, got %d", op.OpName(), op.Arity(), n)
	}
	return nil
}

// tensorArgs asserts that every value is a tensor.
func tensorArgs(op Kernel, args []ir.Value) ([]*ir.Tensor, error) {
	if err := checkArity(op, len(args)); err != nil {
		return nil, err
	}
	out := make([]*ir.Tensor, len(args))
	for i, a := range args {
		t, ok := a.(*ir.Tensor)
		if !ok {
			return nil, fmt.Errorf("op `%s` arg %d is not a tensor", op.OpName(), i)
		}
		out[i] = t
	}
	return out, nil
}

// tensorTypes asserts that every argument has a tensor type.
func tensorTypes(op Kernel, args []ir.Expr) ([]*types.Type, error) {
	if err := checkArity(op, len(args)); err != nil {
		return nil, err
	}
	out := make([]*types.Type, len(args))
	for i, a := range args {
		typ := a.CheckedType()
		if typ == nil {
			return nil, fmt.Errorf("op `%s` arg %d has no type", op.OpName(), i)
		}
		if typ.Kind != types.KindTensor {
			return nil, fmt.Errorf("op `%s` arg %d is not a tensor: %s", op.OpName(), i, typ)
		}
		out[i] = typ
	}
	return out, nil
}

// constInts returns the data of an argument if it is an integer literal.
func constInts(arg ir.Expr) ([]int, bool) {
	c, ok := arg.(*ir.Const)
	if !ok || !c.Value.DType.IsInteger() {
		return nil, false
	}
	return c.Value.Ints(), true
}

// strides returns the row major strides of a shape.
func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

// unravel converts a flat offset into an index for the shape.
func unravel(offset int, shape []int) []int {
	idx := make([]int, len(shape))
	for i := len(shape) - 1; i >= 0; i-- {
		if shape[i] == 0 {
			continue
		}
		idx[i] = offset % shape[i]
		offset /= shape[i]
	}
	return idx
}
