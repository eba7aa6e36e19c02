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

package pattern

import (
	"testing"

	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/ops"
	"github.com/purpleidea/nnc/ir/types"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

// buildArgs turns a list of flags into call arguments: true is a literal and
// false is a variable.
func buildArgs(flags []bool) []ir.Expr {
	args := []ir.Expr{}
	for i, isConst := range flags {
		if isConst {
			args = append(args, scalar(float64(i)))
			continue
		}
		args = append(args, ir.NewVar("v", types.NewType("i64[]")))
	}
	return args
}

// TestRepeatAllOrNothingProperty checks that a repeated argument pattern
// matches a call exactly when every argument matches.
func TestRepeatAllOrNothingProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("repeat matches iff every arg is const", prop.ForAll(
		func(flags []bool) bool {
			call := ir.NewCall(ops.Add, buildArgs(flags)...)
			_, ok := Match(IsCall(IsWildcard(), IsVArgsRepeat(allConst)), call)
			all := true
			for _, f := range flags {
				all = all && f
			}
			return ok == all
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}

// TestMatchSoundnessProperty checks that the bindings of a successful match
// point at the matched sub-expressions.
func TestMatchSoundnessProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("bindings reconstruct the call", prop.ForAll(
		func(n int) bool {
			flags := make([]bool, n)
			for i := range flags {
				flags[i] = i%2 == 0
			}
			args := buildArgs(flags)
			call := ir.NewCall(ops.Mul, args...)

			fields := []Pattern{}
			for range args {
				fields = append(fields, IsWildcard())
			}
			target := IsAnyOp()
			pat := IsCall(target, IsVArgs(fields...))
			res, ok := Match(pat, call)
			if !ok {
				return false
			}
			op, _ := res.Get(target)
			rebuilt := []ir.Expr{}
			for _, f := range fields {
				x, exists := res.Get(f)
				if !exists {
					return false
				}
				rebuilt = append(rebuilt, x)
			}
			return ir.Equal(ir.NewCall(op, rebuilt...), call)
		},
		gen.IntRange(0, 8),
	))

	properties.TestingRun(t)
}

// TestAltOrderProperty checks that the first matching alternative always wins.
func TestAltOrderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("leftmost alternative is bound", prop.ForAll(
		func(v int64, isConst bool) bool {
			var expr ir.Expr = ir.NewVar("x", types.NewType("i64[]"))
			if isConst {
				expr = scalar(float64(v))
			}
			first := IsNamedWildcard("first")
			second := IsNamedWildcard("second")
			res, ok := Match(IsAlt(first, second), expr)
			if !ok {
				return false
			}
			_, hasFirst := res.Get(first)
			_, hasSecond := res.Get(second)
			return hasFirst && !hasSecond
		},
		gen.Int64(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestAltOrder0(t *testing.T) {
	c := scalar(4)
	constFirst := IsConst()
	res, ok := Match(IsAlt(constFirst, IsWildcard()), c)
	require.True(t, ok)
	got, exists := res.Get(constFirst)
	require.True(t, exists)
	require.Same(t, c, got)

	_, ok = Match(IsAlt(IsConstTuple(), IsVar()), c)
	require.False(t, ok)
}
