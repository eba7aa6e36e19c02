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

// UnaryKind selects the function of a Unary operator.
type UnaryKind int

// The supported unary operators.
const (
	UnaryNeg UnaryKind = iota
	UnaryAbs
	UnaryExp
	UnarySqrt
	UnaryRelu
)

var unaryNames = map[UnaryKind]string{
	UnaryNeg:  "neg",
	UnaryAbs:  "abs",
	UnaryExp:  "exp",
	UnarySqrt: "sqrt",
	UnaryRelu: "relu",
}

// The unary operator singletons.
var (
	Neg  = &Unary{Kind: UnaryNeg}
	Abs  = &Unary{Kind: UnaryAbs}
	Exp  = &Unary{Kind: UnaryExp}
	Sqrt = &Unary{Kind: UnarySqrt}
	Relu = &Unary{Kind: UnaryRelu}
)

// Unary is an elementwise operator on one tensor.
type Unary struct {
	ir.OpBase

	Kind UnaryKind
}

// OpName returns the registered name of this operator.
func (obj *Unary) OpName() string { return unaryNames[obj.Kind] }

// String returns the name of this operator.
func (obj *Unary) String() string { return obj.OpName() }

// Arity returns the number of arguments.
func (obj *Unary) Arity() int { return 1 }

// floatOnly is true for the functions which aren't defined on integers.
func (obj *Unary) floatOnly() bool {
	return obj.Kind == UnaryExp || obj.Kind == UnarySqrt
}

// InferType returns the input type unchanged.
func (obj *Unary) InferType(args []ir.Expr) (*types.Type, error) {
	t, err := tensorTypes(obj, args)
	if err != nil {
		return nil, err
	}
	if t[0].DType == types.DTypeBool || (obj.floatOnly() && !t[0].DType.IsFloat()) {
		return nil, fmt.Errorf("op `%s` does not support dtype %s", obj.OpName(), t[0].DType)
	}
	return t[0].Copy(), nil
}

// Eval runs the reference kernel.
func (obj *Unary) Eval(args []ir.Value) (ir.Value, error) {
	t, err := tensorArgs(obj, args)
	if err != nil {
		return nil, err
	}
	in := t[0]
	data := make([]float64, len(in.Data))
	for i, v := range in.Data {
		switch obj.Kind {
		case UnaryNeg:
			data[i] = -v
		case UnaryAbs:
			data[i] = math.Abs(v)
		case UnaryExp:
			data[i] = math.Exp(v)
		case UnarySqrt:
			data[i] = math.Sqrt(v)
		case UnaryRelu:
			data[i] = math.Max(v, 0)
		default:
			return nil, fmt.Errorf("unknown unary kind %d", obj.Kind)
		}
	}
	return ir.NewTensor(in.DType, in.Shape, data)
}
