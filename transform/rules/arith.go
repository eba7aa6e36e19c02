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

package rules

import (
	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/ops"
	"github.com/purpleidea/nnc/pattern"
	"github.com/purpleidea/nnc/transform"
)

func init() {
	Register(func() transform.Rule { return NewSimplifyArith() })
}

// SimplifyArith removes the arithmetic identities `x+0`, `0+x`, `x-0`, `x*1`,
// `1*x` and `x/1`. The call is only replaced if x already has the exact type of
// the call, so that broadcasting can't change the result.
type SimplifyArith struct {
	pattern pattern.Pattern
}

// NewSimplifyArith builds the rule.
func NewSimplifyArith() *SimplifyArith {
	x := func() pattern.Pattern { return pattern.IsNamedWildcard("x") }
	zero := func() pattern.Pattern { return pattern.IsConstWhere("", allEqual(0)) }
	one := func() pattern.Pattern { return pattern.IsConstWhere("", allEqual(1)) }
	return &SimplifyArith{
		pattern: pattern.IsAlt(
			pattern.IsOpCall("", ops.Add.OpName(), x(), zero()),
			pattern.IsOpCall("", ops.Add.OpName(), zero(), x()),
			pattern.IsOpCall("", ops.Sub.OpName(), x(), zero()),
			pattern.IsOpCall("", ops.Mul.OpName(), x(), one()),
			pattern.IsOpCall("", ops.Mul.OpName(), one(), x()),
			pattern.IsOpCall("", ops.Div.OpName(), x(), one()),
		),
	}
}

// allEqual returns a predicate which is true if every element is v.
func allEqual(v float64) func(*ir.Tensor) bool {
	return func(t *ir.Tensor) bool {
		for _, d := range t.Data {
			if d != v {
				return false
			}
		}
		return true
	}
}

// Name returns the name of the rule.
func (obj *SimplifyArith) Name() string { return NameOf(obj) }

// Pattern returns the pattern of the rule.
func (obj *SimplifyArith) Pattern() pattern.Pattern { return obj.pattern }

// GetReplace returns x when the types allow it.
func (obj *SimplifyArith) GetReplace(sess *interfaces.Session, res *pattern.MatchResult) (ir.Expr, error) {
	x, _ := res.Named("x")
	in, out := x.CheckedType(), res.Root().CheckedType()
	if in == nil || out == nil || in.Cmp(out) != nil {
		return nil, nil
	}
	return x, nil
}
