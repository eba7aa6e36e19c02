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

package ops

import (
	"fmt"

	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/types"
)

// ReshapeOp is the reshape singleton.
var ReshapeOp = &Reshape{}

// Reshape takes (input, shape). The new shape is an integer vector which may
// contain a single -1 dim that is computed from the element count.
type Reshape struct {
	ir.OpBase
}

// OpName returns the registered name of this operator.
func (obj *Reshape) OpName() string { return "reshape" }

// String returns the name of this operator.
func (obj *Reshape) String() string { return obj.OpName() }

// Arity returns the number of arguments.
func (obj *Reshape) Arity() int { return 2 }

// InferType returns the new shape if it is a literal.
func (obj *Reshape) InferType(args []ir.Expr) (*types.Type, error) {
	t, err := tensorTypes(obj, args)
	if err != nil {
		return nil, err
	}
	in, s := t[0], t[1]
	if !s.DType.IsInteger() || s.Rank() != 1 {
		return nil, fmt.Errorf("op `reshape` shape must be an integer vector, got %s", s)
	}
	dims, ok := constInts(args[1])
	if !ok {
		if s.Unranked || s.Shape[0] == types.UnknownDim {
			return types.NewUnrankedType(in.DType), nil
		}
		shape := make([]int, s.Shape[0])
		for i := range shape {
			shape[i] = types.UnknownDim
		}
		return types.NewTensorType(in.DType, shape...), nil
	}
	n := types.UnknownDim
	if in.IsFixed() {
		n = in.NumElements()
	}
	shape, err := ResolveShape(dims, n)
	if err != nil {
		return nil, err
	}
	return types.NewTensorType(in.DType, shape...), nil
}

// Eval runs the reference kernel.
func (obj *Reshape) Eval(args []ir.Value) (ir.Value, error) {
	t, err := tensorArgs(obj, args)
	if err != nil {
		return nil, err
	}
	shape, err := ResolveShape(t[1].Ints(), len(t[0].Data))
	if err != nil {
		return nil, err
	}
	return t[0].Reshape(shape)
}

// ResolveShape replaces the -1 dim of a reshape target by the dim that keeps
// the element count at n. If n is unknown, the -1 dim stays unknown.
func ResolveShape(dims []int, n int) ([]int, error) {
	shape := append([]int{}, dims...)
	infer := -1
	known := 1
	for i, d := range shape {
		switch {
		case d == -1:
			if infer >= 0 {
				return nil, fmt.Errorf("reshape has more than one -1 dim")
			}
			infer = i
		case d < 0:
			return nil, fmt.Errorf("reshape dim %d is negative", d)
		default:
			known *= d
		}
	}
	if n == types.UnknownDim {
		return shape, nil // -1 is already UnknownDim
	}
	if infer >= 0 {
		if known == 0 || n%known != 0 {
			return nil, fmt.Errorf("can't reshape %d elements into %s", n, types.ShapeString(dims))
		}
		shape[infer] = n / known
		return shape, nil
	}
	if known != n {
		return nil, fmt.Errorf("can't reshape %d elements into %s", n, types.ShapeString(dims))
	}
	return shape, nil
}
