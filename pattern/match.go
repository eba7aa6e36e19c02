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
	"github.com/purpleidea/nnc/ir"

	"github.com/google/uuid"
)

// MatchResult is the binding table of a successful match. It maps the identity
// of every pattern that took part in the match to the expression it matched,
// and the name of every named pattern to the first expression bound under it.
// It must not be modified once Match returns it.
type MatchResult struct {
	root     ir.Expr
	bindings map[uuid.UUID]ir.Expr
	lists    map[uuid.UUID][]ir.Expr
	names    map[string]ir.Expr
}

// Match checks expr against the pattern. It returns false if the expression
// does not have the structure of the pattern. The whole expression is bound to
// the top level pattern.
func Match(p Pattern, expr ir.Expr) (*MatchResult, bool) {
	if p == nil || expr == nil {
		return nil, false
	}
	res := &MatchResult{
		root:     expr,
		bindings: make(map[uuid.UUID]ir.Expr),
		lists:    make(map[uuid.UUID][]ir.Expr),
		names:    make(map[string]ir.Expr),
	}
	if !p.match(expr, res) {
		return nil, false
	}
	return res, true
}

// Root returns the expression that was matched.
func (obj *MatchResult) Root() ir.Expr { return obj.root }

// Get returns the expression bound to the pattern.
func (obj *MatchResult) Get(p Pattern) (ir.Expr, bool) {
	expr, exists := obj.bindings[p.ID()]
	return expr, exists
}

// GetArgs returns the list of expressions bound to the argument pattern.
func (obj *MatchResult) GetArgs(p *VArgsPattern) ([]ir.Expr, bool) {
	exprs, exists := obj.lists[p.ID()]
	return exprs, exists
}

// Named returns the expression bound to the first pattern with that name.
func (obj *MatchResult) Named(name string) (ir.Expr, bool) {
	expr, exists := obj.names[name]
	return expr, exists
}

// Len returns the number of pattern instances that were bound.
func (obj *MatchResult) Len() int { return len(obj.bindings) }

// fork returns a scratch copy of this scope. Bindings made on it are only kept
// if it is committed.
func (obj *MatchResult) fork() *MatchResult {
	res := &MatchResult{
		root:     obj.root,
		bindings: make(map[uuid.UUID]ir.Expr, len(obj.bindings)),
		lists:    make(map[uuid.UUID][]ir.Expr, len(obj.lists)),
		names:    make(map[string]ir.Expr, len(obj.names)),
	}
	for k, v := range obj.bindings {
		res.bindings[k] = v
	}
	for k, v := range obj.lists {
		res.lists[k] = v
	}
	for k, v := range obj.names {
		res.names[k] = v
	}
	return res
}

// commit adopts the bindings of a scratch scope.
func (obj *MatchResult) commit(scratch *MatchResult) {
	obj.bindings = scratch.bindings
	obj.lists = scratch.lists
	obj.names = scratch.names
}

// bind records that the pattern matched expr. It fails if the same pattern
// instance was already bound to a different expression.
func (obj *MatchResult) bind(p Pattern, expr ir.Expr) bool {
	if prev, exists := obj.bindings[p.ID()]; exists {
		if prev != expr && !ir.Equal(prev, expr) {
			return false
		}
		return true
	}
	obj.bindings[p.ID()] = expr
	if name := p.Name(); name != "" {
		if _, exists := obj.names[name]; !exists {
			obj.names[name] = expr
		}
	}
	return true
}

func (obj *WildcardPattern) match(expr ir.Expr, scope *MatchResult) bool {
	return scope.bind(obj, expr)
}

func (obj *ConstPattern) match(expr ir.Expr, scope *MatchResult) bool {
	c, ok := expr.(*ir.Const)
	if !ok {
		return false
	}
	if obj.Predicate != nil && !obj.Predicate(c.Value) {
		return false
	}
	return scope.bind(obj, expr)
}

func (obj *ConstTuplePattern) match(expr ir.Expr, scope *MatchResult) bool {
	if _, ok := expr.(*ir.ConstTuple); !ok {
		return false
	}
	return scope.bind(obj, expr)
}

func (obj *VarPattern) match(expr ir.Expr, scope *MatchResult) bool {
	if _, ok := expr.(*ir.Var); !ok {
		return false
	}
	return scope.bind(obj, expr)
}

func (obj *OpPattern) match(expr ir.Expr, scope *MatchResult) bool {
	op, ok := expr.(ir.Op)
	if !ok {
		return false
	}
	if obj.OpName != "" && op.OpName() != obj.OpName {
		return false
	}
	return scope.bind(obj, expr)
}

func (obj *AltPattern) match(expr ir.Expr, scope *MatchResult) bool {
	for _, p := range obj.Alternatives {
		scratch := scope.fork()
		if !p.match(expr, scratch) || !scratch.bind(obj, expr) {
			continue
		}
		scope.commit(scratch)
		return true
	}
	return false
}

// matchList matches every element positionally. Nothing is kept on failure.
func (obj *VArgsPattern) matchList(exprs []ir.Expr, scope *MatchResult) bool {
	if obj.Generator == nil && len(exprs) != len(obj.Fields) {
		return false
	}
	scratch := scope.fork()
	for i, expr := range exprs {
		var p Pattern
		if obj.Generator != nil {
			p = obj.Generator() // fresh instance per position
		} else {
			p = obj.Fields[i]
		}
		if p == nil || !p.match(expr, scratch) {
			return false
		}
	}
	if prev, exists := scratch.lists[obj.ID()]; exists {
		if len(prev) != len(exprs) {
			return false
		}
		for i := range prev {
			if prev[i] != exprs[i] && !ir.Equal(prev[i], exprs[i]) {
				return false
			}
		}
	}
	l := make([]ir.Expr, len(exprs))
	copy(l, exprs)
	scratch.lists[obj.ID()] = l
	scope.commit(scratch)
	return true
}

func (obj *CallPattern) match(expr ir.Expr, scope *MatchResult) bool {
	call, ok := expr.(*ir.Call)
	if !ok {
		return false
	}
	scratch := scope.fork()
	if !obj.Target.match(call.Target, scratch) {
		return false
	}
	if !obj.Args.matchList(call.Args, scratch) {
		return false
	}
	if !scratch.bind(obj, expr) {
		return false
	}
	scope.commit(scratch)
	return true
}

func (obj *FunctionPattern) match(expr ir.Expr, scope *MatchResult) bool {
	fn, ok := expr.(*ir.Function)
	if !ok {
		return false
	}
	scratch := scope.fork()
	if !obj.Params.matchList(fn.Params, scratch) {
		return false
	}
	if !obj.Body.match(fn.Body, scratch) {
		return false
	}
	if !scratch.bind(obj, expr) {
		return false
	}
	scope.commit(scratch)
	return true
}

func (obj *TuplePattern) match(expr ir.Expr, scope *MatchResult) bool {
	tuple, ok := expr.(*ir.Tuple)
	if !ok {
		return false
	}
	scratch := scope.fork()
	if !obj.Fields.matchList(tuple.Fields, scratch) {
		return false
	}
	if !scratch.bind(obj, expr) {
		return false
	}
	scope.commit(scratch)
	return true
}
