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

package typeinfer

import (
	"fmt"
	"testing"

	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/ops"
	"github.com/purpleidea/nnc/ir/types"
)

func TestInfer0(t *testing.T) {
	x := ir.NewVar("x", types.NewType("f32[2,3]"))
	one := ir.NewConst(ir.NewScalar(types.DTypeFloat32, 1))
	body := ir.NewTuple(ir.NewCall(ops.Add, x, one), ir.NewCall(ops.ShapeOfOp, x))
	fn := ir.NewFunction("main", []ir.Expr{x}, body)

	if err := Infer(fn); err != nil {
		t.Errorf("infer failed: %+v", err)
		return
	}
	exp := types.NewType("fn(f32[2,3]) -> (f32[2,3], i64[2])")
	if err := fn.CheckedType().Cmp(exp); err != nil {
		t.Errorf("expected %s, got %s: %+v", exp, fn.CheckedType(), err)
	}
}

func TestInfer1(t *testing.T) {
	type test struct { // an individual test
		name string
		expr func() ir.Expr
		fail bool
	}
	testCases := []test{}

	testCases = append(testCases, test{
		name: "dtype mismatch",
		expr: func() ir.Expr {
			a := ir.NewConst(ir.NewScalar(types.DTypeFloat32, 1))
			b := ir.NewConst(ir.NewScalar(types.DTypeInt64, 1))
			return ir.NewCall(ops.Add, a, b)
		},
		fail: true,
	})
	testCases = append(testCases, test{
		name: "missing annotation",
		expr: func() ir.Expr {
			return ir.NewCall(ops.Neg, ir.NewVar("x", nil))
		},
		fail: true,
	})
	testCases = append(testCases, test{
		name: "call a function",
		expr: func() ir.Expr {
			y := ir.NewVar("y", types.NewType("f32[?]"))
			callee := ir.NewFunction("f", []ir.Expr{y}, ir.NewCall(ops.Neg, y))
			arg := ir.NewConst(ir.MustTensor(types.DTypeFloat32, []int{3}, 1, 2, 3))
			return ir.NewCall(callee, arg)
		},
		fail: false,
	})
	testCases = append(testCases, test{
		name: "bad function arg",
		expr: func() ir.Expr {
			y := ir.NewVar("y", types.NewType("f32[2]"))
			callee := ir.NewFunction("f", []ir.Expr{y}, y)
			arg := ir.NewConst(ir.MustTensor(types.DTypeFloat32, []int{3}, 1, 2, 3))
			return ir.NewCall(callee, arg)
		},
		fail: true,
	})
	testCases = append(testCases, test{
		name: "call a literal",
		expr: func() ir.Expr {
			c := ir.NewConst(ir.NewScalar(types.DTypeFloat32, 1))
			return ir.NewCall(c, c)
		},
		fail: true,
	})

	for index, tc := range testCases { // run all the tests
		name, expr, fail := tc.name, tc.expr, tc.fail
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			err := Infer(expr())
			if fail && err == nil {
				t.Errorf("test #%d: expected error", index)
			}
			if !fail && err != nil {
				t.Errorf("test #%d: infer failed: %+v", index, err)
			}
		})
	}
}

func TestInferSkipsTypedCallee0(t *testing.T) {
	y := ir.NewVar("y", types.NewType("f32[]"))
	callee := ir.NewFunction("f", []ir.Expr{y}, y)
	sentinel := types.NewType("fn(f32[]) -> f32[]")
	callee.SetCheckedType(sentinel)
	x := ir.NewVar("x", types.NewType("f32[]"))
	caller := ir.NewFunction("g", []ir.Expr{x}, ir.NewCall(callee, x))

	if err := Infer(caller); err != nil {
		t.Errorf("infer failed: %+v", err)
		return
	}
	if callee.CheckedType() != sentinel {
		t.Errorf("typed callee was recomputed")
	}
	if y.CheckedType() != nil {
		t.Errorf("body of typed callee was entered")
	}
}
