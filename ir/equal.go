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

package ir

// Equal compares two expressions structurally. Checked types are ignored.
// Variables are equal when their names and annotations match, and operators
// when their names match. Shared sub-trees are only compared once.
func Equal(a, b Expr) bool {
	type pair struct{ a, b Expr }
	seen := make(map[pair]struct{})

	var eq func(a, b Expr) bool
	eq = func(a, b Expr) bool {
		if a == b {
			return true
		}
		if a == nil || b == nil {
			return false
		}
		p := pair{a, b}
		if _, exists := seen[p]; exists {
			return true
		}
		seen[p] = struct{}{}

		switch x := a.(type) {
		case *Var:
			y, ok := b.(*Var)
			if !ok || x.Name != y.Name {
				return false
			}
			if (x.TypeAnnotation == nil) != (y.TypeAnnotation == nil) {
				return false
			}
			return x.TypeAnnotation == nil || x.TypeAnnotation.Cmp(y.TypeAnnotation) == nil

		case *Const:
			y, ok := b.(*Const)
			return ok && x.Value.Equal(y.Value)

		case *ConstTuple:
			y, ok := b.(*ConstTuple)
			if !ok || len(x.Fields) != len(y.Fields) {
				return false
			}
			for i, f := range x.Fields {
				if !f.Value.Equal(y.Fields[i].Value) {
					return false
				}
			}
			return true

		case Op:
			y, ok := b.(Op)
			return ok && x.OpName() == y.OpName()

		case *Function:
			y, ok := b.(*Function)
			if !ok || x.Name != y.Name {
				return false
			}
		case *PrimFunction:
			y, ok := b.(*PrimFunction)
			if !ok || x.Name != y.Name {
				return false
			}
		case *Call:
			if _, ok := b.(*Call); !ok {
				return false
			}
		case *Tuple:
			if _, ok := b.(*Tuple); !ok {
				return false
			}
		default:
			return false
		}

		ca, cb := Children(a), Children(b)
		if len(ca) != len(cb) {
			return false
		}
		for i := range ca {
			if !eq(ca[i], cb[i]) {
				return false
			}
		}
		return true
	}
	return eq(a, b)
}
