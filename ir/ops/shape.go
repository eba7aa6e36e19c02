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
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/types"
)

// ShapeOfOp is the shape query singleton.
var ShapeOfOp = &ShapeOf{}

// ShapeOf returns the shape of its input as an i64 vector.
type ShapeOf struct {
	ir.OpBase
}

// OpName returns the registered name of this operator.
func (obj *ShapeOf) OpName() string { return "shape_of" }

// String returns the name of this operator.
func (obj *ShapeOf) String() string { return obj.OpName() }

// Arity returns the number of arguments.
func (obj *ShapeOf) Arity() int { return 1 }

// InferType returns i64[rank], or i64[?] if the input is unranked.
func (obj *ShapeOf) InferType(args []ir.Expr) (*types.Type, error) {
	t, err := tensorTypes(obj, args)
	if err != nil {
		return nil, err
	}
	return types.NewTensorType(types.DTypeInt64, t[0].Rank()), nil
}

// Eval runs the reference kernel.
func (obj *ShapeOf) Eval(args []ir.Value) (ir.Value, error) {
	t, err := tensorArgs(obj, args)
	if err != nil {
		return nil, err
	}
	return ir.NewConstFromShape(t[0].Shape).Value, nil
}
