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

package mutators

import (
	"testing"

	"github.com/purpleidea/nnc/evaluator"
	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/ops"
	"github.com/purpleidea/nnc/ir/types"
	"github.com/purpleidea/nnc/typeinfer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(t *testing.T) *interfaces.Session {
	return &interfaces.Session{
		Options:        interfaces.DefaultOptions(),
		Evaluator:      &evaluator.Evaluator{},
		TypeInferencer: &typeinfer.Inferencer{},
		Logf:           t.Logf,
	}
}

func TestNames0(t *testing.T) {
	exp := []string{"fold_const_call", "fold_const_tuple", "inline_call", "simplify_arith"}
	assert.Equal(t, exp, Names())
	for _, name := range interfaces.DefaultOptions().Mutators {
		_, err := Lookup(name)
		assert.NoError(t, err, "default mutator %s is missing", name)
	}
}

func TestInlineCall0(t *testing.T) {
	sess := testSession(t)
	y := ir.NewVar("y", types.NewType("f32[]"))
	inner := ir.NewCall(ops.Neg, y)
	callee := ir.NewFunction("callee", []ir.Expr{y}, ir.NewTuple(inner, inner))
	x := ir.NewVar("x", types.NewType("f32[]"))
	fn := ir.NewPrimFunction("f", []ir.Expr{x}, ir.NewCall(callee, x))

	m, err := NewInlineCall(sess)
	require.NoError(t, err)
	out, mutated, err := m.Visit(fn)
	require.NoError(t, err)
	require.True(t, mutated)
	assert.True(t, m.(*InlineCall).IsMutated())

	body := out.(*ir.PrimFunction).FuncBody().(*ir.Tuple)
	exp := ir.NewTuple(ir.NewCall(ops.Neg, x), ir.NewCall(ops.Neg, x))
	assert.True(t, ir.Equal(exp, body), "got: %s", body)
	assert.Same(t, body.Fields[0], body.Fields[1], "sharing inside the callee was lost")
	assert.NotSame(t, inner, body.Fields[0], "the callee body was not copied")
	assert.Same(t, y, inner.Args[0], "the callee was modified")
}

func TestVisitFunction0(t *testing.T) {
	sess := testSession(t)
	x := ir.NewVar("x", types.NewType("i64[]"))
	two := ir.NewConst(ir.NewScalar(types.DTypeInt64, 2))
	fn := ir.NewFunction("f", []ir.Expr{x}, ir.NewCall(ops.Add, x, ir.NewCall(ops.Mul, two, two)))

	m, err := NewFoldConstCall(sess)
	require.NoError(t, err)
	out, mutated, err := m.Visit(fn)
	require.NoError(t, err)
	require.True(t, mutated)
	_, ok := out.(*ir.Function)
	assert.True(t, ok, "the kind of function changed")

	again, mutated, err := m.Visit(out)
	require.NoError(t, err)
	assert.False(t, mutated)
	assert.Same(t, out, again)

	_, _, err = m.Visit(x)
	assert.Error(t, err)

	_, err = NewSimplifyArith(sess, 1)
	assert.Error(t, err)
}
