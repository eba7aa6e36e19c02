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
	"testing"

	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/types"
)

func i64(data ...float64) *ir.Const {
	return ir.NewConst(ir.MustTensor(types.DTypeInt64, []int{len(data)}, data...))
}

func TestRegistry0(t *testing.T) {
	for _, name := range Names() {
		op, err := Lookup(name)
		if err != nil {
			t.Errorf("lookup of `%s` failed: %+v", name, err)
			continue
		}
		if op.OpName() != name {
			t.Errorf("op `%s` has name `%s`", name, op.OpName())
		}
	}
	if _, err := Lookup("conv2d"); err == nil {
		t.Errorf("expected lookup of unknown op to fail")
	}
}

func TestEval0(t *testing.T) {
	type test struct { // an individual test
		name string
		op   Kernel
		args []ir.Value
		exp  *ir.Tensor // nil means error
	}
	testCases := []test{}

	testCases = append(testCases, test{
		name: "add scalar",
		op:   Add,
		args: []ir.Value{ir.NewScalar(types.DTypeInt64, 2), ir.NewScalar(types.DTypeInt64, 3)},
		exp:  ir.NewScalar(types.DTypeInt64, 5),
	})
	testCases = append(testCases, test{
		name: "add broadcast",
		op:   Add,
		args: []ir.Value{
			ir.MustTensor(types.DTypeFloat32, []int{2, 2}, 1, 2, 3, 4),
			ir.MustTensor(types.DTypeFloat32, []int{2}, 10, 20),
		},
		exp: ir.MustTensor(types.DTypeFloat32, []int{2, 2}, 11, 22, 13, 24),
	})
	testCases = append(testCases, test{
		name: "integer div truncates",
		op:   Div,
		args: []ir.Value{ir.NewScalar(types.DTypeInt32, -7), ir.NewScalar(types.DTypeInt32, 2)},
		exp:  ir.NewScalar(types.DTypeInt32, -3),
	})
	testCases = append(testCases, test{
		name: "integer div by zero",
		op:   Div,
		args: []ir.Value{ir.NewScalar(types.DTypeInt32, 1), ir.NewScalar(types.DTypeInt32, 0)},
		exp:  nil,
	})
	testCases = append(testCases, test{
		name: "dtype mismatch",
		op:   Mul,
		args: []ir.Value{ir.NewScalar(types.DTypeInt32, 1), ir.NewScalar(types.DTypeInt64, 1)},
		exp:  nil,
	})
	testCases = append(testCases, test{
		name: "relu",
		op:   Relu,
		args: []ir.Value{ir.MustTensor(types.DTypeFloat32, []int{3}, -1, 0, 2)},
		exp:  ir.MustTensor(types.DTypeFloat32, []int{3}, 0, 0, 2),
	})
	testCases = append(testCases, test{
		name: "sqrt of int",
		op:   Sqrt,
		args: []ir.Value{ir.NewScalar(types.DTypeInt64, 4)},
		exp:  nil,
	})
	testCases = append(testCases, test{
		name: "shape_of",
		op:   ShapeOfOp,
		args: []ir.Value{ir.MustTensor(types.DTypeFloat32, []int{1, 3}, 0, 0, 0)},
		exp:  ir.MustTensor(types.DTypeInt64, []int{2}, 1, 3),
	})
	testCases = append(testCases, test{
		name: "slice",
		op:   SliceOp,
		args: []ir.Value{
			ir.MustTensor(types.DTypeInt64, []int{2, 3}, 1, 2, 3, 4, 5, 6),
			i64(0).Value, i64(2).Value, i64(1).Value, i64(1).Value,
		},
		exp: ir.MustTensor(types.DTypeInt64, []int{2, 2}, 1, 2, 4, 5),
	})
	testCases = append(testCases, test{
		name: "slice reversed",
		op:   SliceOp,
		args: []ir.Value{
			ir.MustTensor(types.DTypeInt64, []int{4}, 1, 2, 3, 4),
			i64(-1).Value, i64(-100).Value, i64(0).Value, i64(-2).Value,
		},
		exp: ir.MustTensor(types.DTypeInt64, []int{2}, 4, 2),
	})
	testCases = append(testCases, test{
		name: "slice clamped",
		op:   SliceOp,
		args: []ir.Value{
			ir.MustTensor(types.DTypeInt64, []int{3}, 1, 2, 3),
			i64(1).Value, i64(1000).Value, i64(0).Value, i64(1).Value,
		},
		exp: ir.MustTensor(types.DTypeInt64, []int{2}, 2, 3),
	})
	testCases = append(testCases, test{
		name: "slice zero step",
		op:   SliceOp,
		args: []ir.Value{
			ir.MustTensor(types.DTypeInt64, []int{3}, 1, 2, 3),
			i64(0).Value, i64(3).Value, i64(0).Value, i64(0).Value,
		},
		exp: nil,
	})
	testCases = append(testCases, test{
		name: "reshape infer",
		op:   ReshapeOp,
		args: []ir.Value{
			ir.MustTensor(types.DTypeFloat32, []int{2, 3}, 1, 2, 3, 4, 5, 6),
			i64(3, -1).Value,
		},
		exp: ir.MustTensor(types.DTypeFloat32, []int{3, 2}, 1, 2, 3, 4, 5, 6),
	})
	testCases = append(testCases, test{
		name: "reshape bad size",
		op:   ReshapeOp,
		args: []ir.Value{
			ir.MustTensor(types.DTypeFloat32, []int{2, 3}, 1, 2, 3, 4, 5, 6),
			i64(4, -1).Value,
		},
		exp: nil,
	})

	for index, tc := range testCases { // run all the tests
		name, op, args, exp := tc.name, tc.op, tc.args, tc.exp
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			out, err := op.Eval(args)
			if exp == nil {
				if err == nil {
					t.Errorf("test #%d: expected error, got: %s", index, out)
				}
				return
			}
			if err != nil {
				t.Errorf("test #%d: eval failed: %+v", index, err)
				return
			}
			tensor, ok := out.(*ir.Tensor)
			if !ok || !tensor.Equal(exp) {
				t.Errorf("test #%d: expected: %s, got: %s", index, exp, out)
			}
		})
	}
}

func TestInferType0(t *testing.T) {
	x := ir.NewVar("x", types.NewType("f32[2,?]"))
	x.SetCheckedType(x.TypeAnnotation)
	shape := ir.NewVar("s", types.NewType("i64[3]"))
	shape.SetCheckedType(shape.TypeAnnotation)
	u := ir.NewVar("u", types.NewType("f32[*]"))
	u.SetCheckedType(u.TypeAnnotation)

	type test struct { // an individual test
		name string
		op   Kernel
		args []ir.Expr
		exp  string // empty means error
	}
	testCases := []test{
		{"add broadcast unknown", Add, []ir.Expr{x, ir.NewConst(ir.MustTensor(types.DTypeFloat32, []int{3}, 1, 2, 3))}, "f32[2,3]"},
		{"add unranked", Add, []ir.Expr{x, u}, "f32[*]"},
		{"add dtype mismatch", Add, []ir.Expr{x, i64(1)}, ""},
		{"add arity", Add, []ir.Expr{x}, ""},
		{"neg", Neg, []ir.Expr{x}, "f32[2,?]"},
		{"shape_of", ShapeOfOp, []ir.Expr{x}, "i64[2]"},
		{"shape_of unranked", ShapeOfOp, []ir.Expr{u}, "i64[?]"},
		{"slice const", SliceOp, []ir.Expr{x, i64(1), i64(2), i64(0), i64(1)}, "f32[1,?]"},
		{"slice unknown params", SliceOp, []ir.Expr{x, shape, shape, shape, shape}, "f32[?,?]"},
		{"slice bad axis", SliceOp, []ir.Expr{x, i64(0), i64(1), i64(5), i64(1)}, ""},
		{"reshape const", ReshapeOp, []ir.Expr{x, i64(-1)}, "f32[?]"},
		{"reshape var", ReshapeOp, []ir.Expr{x, shape}, "f32[?,?,?]"},
		{"reshape fixed", ReshapeOp, []ir.Expr{ir.NewConst(ir.MustTensor(types.DTypeInt32, []int{2, 2}, 1, 2, 3, 4)), i64(4, -1)}, "i32[4,1]"},
	}

	for index, tc := range testCases { // run all the tests
		name, op, args, exp := tc.name, tc.op, tc.args, tc.exp
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			typ, err := op.InferType(args)
			if exp == "" {
				if err == nil {
					t.Errorf("test #%d: expected error, got: %s", index, typ)
				}
				return
			}
			if err != nil {
				t.Errorf("test #%d: infer failed: %+v", index, err)
				return
			}
			if err := typ.Cmp(types.NewType(exp)); err != nil {
				t.Errorf("test #%d: expected: %s, got: %s", index, exp, typ)
			}
		})
	}
}

func TestResolveShape0(t *testing.T) {
	if _, err := ResolveShape([]int{-1, -1}, 4); err == nil {
		t.Errorf("expected error with two inferred dims")
	}
	shape, err := ResolveShape([]int{2, -1}, 8)
	if err != nil || shape[1] != 4 {
		t.Errorf("unexpected result: %v, %+v", shape, err)
	}
	shape, err = ResolveShape([]int{2, -1}, types.UnknownDim)
	if err != nil || shape[1] != types.UnknownDim {
		t.Errorf("unexpected result: %v, %+v", shape, err)
	}
}
