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
	"math"

	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/types"
)

// BinaryKind selects the arithmetic of a Binary operator.
type BinaryKind int

// The supported binary operators.
const (
	BinaryAdd BinaryKind = iota
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryMin
	BinaryMax
)

var binaryNames = map[BinaryKind]string{
	BinaryAdd: "add",
	BinarySub: "sub",
	BinaryMul: "mul",
	BinaryDiv: "div",
	BinaryMin: "min",
	BinaryMax: "max",
}

// The binary operator singletons.
var (
	Add = &Binary{Kind: BinaryAdd}
	Sub = &Binary{Kind: BinarySub}
	Mul = &Binary{Kind: BinaryMul}
	Div = &Binary{Kind: BinaryDiv}
	Min = &Binary{Kind: BinaryMin}
	Max = &Binary{Kind: BinaryMax}
)

// Binary is an elementwise operator on two tensors of the same dtype. The
// shapes are broadcast against each other.
type Binary struct {
	ir.OpBase

	Kind BinaryKind
}

// OpName returns the registered name of this operator.
func (obj *Binary) OpName() string { return binaryNames[obj.Kind] }

// String returns the name of this operator.
func (obj *Binary) String() string { return obj.OpName() }

// Arity returns the number of arguments.
func (obj *Binary) Arity() int { return 2 }

// InferType returns the broadcast type of both operands.
func (obj *Binary) InferType(args []ir.Expr) (*types.Type, error) {
	t, err := tensorTypes(obj, args)
	if err != nil {
		return nil, err
	}
	lhs, rhs := t[0], t[1]
	if lhs.DType != rhs.DType {
		return nil, fmt.Errorf("op `%s` dtype mismatch: %s != %s", obj.OpName(), lhs.DType, rhs.DType)
	}
	if lhs.Unranked || rhs.Unranked {
		return types.NewUnrankedType(lhs.DType), nil
	}
	shape, err := BroadcastShapes(lhs.Shape, rhs.Shape)
	if err != nil {
		return nil, err
	}
	return types.NewTensorType(lhs.DType, shape...), nil
}

// Eval runs the reference kernel.
func (obj *Binary) Eval(args []ir.Value) (ir.Value, error) {
	t, err := tensorArgs(obj, args)
	if err != nil {
		return nil, err
	}
	lhs, rhs := t[0], t[1]
	if lhs.DType != rhs.DType {
		return nil, fmt.Errorf("op `%s` dtype mismatch: %s != %s", obj.OpName(), lhs.DType, rhs.DType)
	}
	shape, err := BroadcastShapes(lhs.Shape, rhs.Shape)
	if err != nil {
		return nil, err
	}
	n := types.NumElements(shape)
	data := make([]float64, n)
	for i := 0; i < n; i++ {
		idx := unravel(i, shape)
		a := lhs.Data[broadcastOffset(idx, lhs.Shape)]
		b := rhs.Data[broadcastOffset(idx, rhs.Shape)]
		v, err := obj.apply(lhs.DType, a, b)
		if err != nil {
			return nil, err
		}
		data[i] = v
	}
	return ir.NewTensor(lhs.DType, shape, data)
}

func (obj *Binary) apply(dtype types.DType, a, b float64) (float64, error) {
	switch obj.Kind {
	case BinaryAdd:
		return a + b, nil
	case BinarySub:
		return a - b, nil
	case BinaryMul:
		return a * b, nil
	case BinaryDiv:
		if dtype.IsFloat() {
			return a / b, nil
		}
		if b == 0 {
			return 0, fmt.Errorf("integer division by zero")
		}
		return math.Trunc(a / b), nil
	case BinaryMin:
		return math.Min(a, b), nil
	case BinaryMax:
		return math.Max(a, b), nil
	}
	return 0, fmt.Errorf("unknown binary kind %d", obj.Kind)
}

// BroadcastShapes returns the shape both inputs broadcast to. Unknown dims are
// resolved against a known dim other than one.
func BroadcastShapes(a, b []int) ([]int, error) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		da, db := 1, 1
		if j := len(a) - n + i; j >= 0 {
			da = a[j]
		}
		if j := len(b) - n + i; j >= 0 {
			db = b[j]
		}
		switch {
		case da == db:
			out[i] = da
		case da == 1:
			out[i] = db
		case db == 1:
			out[i] = da
		case da == types.UnknownDim:
			out[i] = db
		case db == types.UnknownDim:
			out[i] = da
		default:
			return nil, fmt.Errorf("shapes %s and %s can't be broadcast", types.ShapeString(a), types.ShapeString(b))
		}
	}
	return out, nil
}

// broadcastOffset maps an index of the broadcast output to an offset into an
// input of the given shape.
func broadcastOffset(idx []int, shape []int) int {
	st := strides(shape)
	offset := 0
	skip := len(idx) - len(shape)
	for i, d := range shape {
		if d == 1 {
			continue
		}
		offset += idx[skip+i] * st[i]
	}
	return offset
}
