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

// Package pattern describes the structure of IR expressions. A pattern is a
// pure descriptor: building one performs no matching, and matching never
// changes it. All the state of a match lives in the MatchResult.
package pattern

import (
	"fmt"
	"strings"

	"github.com/purpleidea/nnc/ir"

	"github.com/google/uuid"
)

// Pattern is a structural test on a single expression. The set of patterns is
// closed and every variant lives in this package.
type Pattern interface {
	fmt.Stringer

	// ID returns the identity of this pattern instance. It is unique in
	// the process, so a match result can tell two equal looking patterns
	// apart.
	ID() uuid.UUID

	// Name returns the lookup name of this pattern, or empty if it has
	// none.
	Name() string

	// match checks expr against this pattern and records the bindings in
	// the scope. It must leave the scope untouched when it fails.
	match(expr ir.Expr, scope *MatchResult) bool
}

// base holds the identity of a pattern instance.
type base struct {
	id   uuid.UUID
	name string
}

func newBase(name string) base {
	return base{
		id:   uuid.New(),
		name: name,
	}
}

// ID returns the identity of this pattern instance.
func (obj *base) ID() uuid.UUID { return obj.id }

// Name returns the lookup name of this pattern.
func (obj *base) Name() string { return obj.name }

// label prefixes a pattern string with its name when it has one.
func (obj *base) label(s string) string {
	if obj.name == "" {
		return s
	}
	return obj.name + "=" + s
}

// WildcardPattern matches any expression.
type WildcardPattern struct {
	base
}

// IsWildcard returns a pattern which matches anything.
func IsWildcard() *WildcardPattern {
	return &WildcardPattern{base: newBase("")}
}

// IsNamedWildcard returns a pattern which matches anything and can be looked up
// by name in the result.
func IsNamedWildcard(name string) *WildcardPattern {
	return &WildcardPattern{base: newBase(name)}
}

// String returns a short representation of this pattern.
func (obj *WildcardPattern) String() string { return obj.label("*") }

// ConstPattern matches a tensor literal.
type ConstPattern struct {
	base

	// Predicate optionally restricts the literals that match.
	Predicate func(*ir.Tensor) bool
}

// IsConst returns a pattern which matches any tensor literal.
func IsConst() *ConstPattern {
	return &ConstPattern{base: newBase("")}
}

// IsConstWhere returns a named pattern which matches the tensor literals for
// which the predicate is true.
func IsConstWhere(name string, predicate func(*ir.Tensor) bool) *ConstPattern {
	return &ConstPattern{
		base:      newBase(name),
		Predicate: predicate,
	}
}

// String returns a short representation of this pattern.
func (obj *ConstPattern) String() string { return obj.label("const") }

// ConstTuplePattern matches a literal tuple.
type ConstTuplePattern struct {
	base
}

// IsConstTuple returns a pattern which matches any literal tuple.
func IsConstTuple() *ConstTuplePattern {
	return &ConstTuplePattern{base: newBase("")}
}

// String returns a short representation of this pattern.
func (obj *ConstTuplePattern) String() string { return obj.label("const_tuple") }

// VarPattern matches a variable.
type VarPattern struct {
	base
}

// IsVar returns a pattern which matches any variable.
func IsVar() *VarPattern {
	return &VarPattern{base: newBase("")}
}

// String returns a short representation of this pattern.
func (obj *VarPattern) String() string { return obj.label("var") }

// OpPattern matches an operator marker.
type OpPattern struct {
	base

	// OpName is the operator to match. Empty matches any operator.
	OpName string
}

// IsOp returns a pattern which matches the operator with that name.
func IsOp(name string) *OpPattern {
	return &OpPattern{
		base:   newBase(""),
		OpName: name,
	}
}

// IsAnyOp returns a pattern which matches any operator.
func IsAnyOp() *OpPattern {
	return &OpPattern{base: newBase("")}
}

// String returns a short representation of this pattern.
func (obj *OpPattern) String() string {
	if obj.OpName == "" {
		return obj.label("op")
	}
	return obj.label("op:" + obj.OpName)
}

// AltPattern matches if any of its alternatives match. Alternatives are tried
// in order and the first one that matches wins.
type AltPattern struct {
	base

	Alternatives []Pattern
}

// IsAlt returns an ordered alternation of patterns.
func IsAlt(alternatives ...Pattern) *AltPattern {
	a := make([]Pattern, len(alternatives))
	copy(a, alternatives)
	return &AltPattern{
		base:         newBase(""),
		Alternatives: a,
	}
}

// String returns a short representation of this pattern.
func (obj *AltPattern) String() string {
	s := make([]string, len(obj.Alternatives))
	for i, p := range obj.Alternatives {
		s[i] = p.String()
	}
	return obj.label("(" + strings.Join(s, " | ") + ")")
}

// VArgsPattern matches an ordered list of expressions, such as the arguments of
// a call. It is either a fixed list of patterns, or a generator which is called
// once for every position to get a fresh pattern.
type VArgsPattern struct {
	base

	// Fields is the fixed list of patterns. It's unused with a generator.
	Fields []Pattern

	// Generator builds the pattern for each position when it is not nil.
	Generator func() Pattern
}

// IsVArgs returns a pattern which matches a list of exactly that length.
func IsVArgs(fields ...Pattern) *VArgsPattern {
	f := make([]Pattern, len(fields))
	copy(f, fields)
	return &VArgsPattern{
		base:   newBase(""),
		Fields: f,
	}
}

// IsVArgsRepeat returns a pattern which matches a list of any length, if every
// element matches a fresh pattern from the generator.
func IsVArgsRepeat(generator func() Pattern) *VArgsPattern {
	return &VArgsPattern{
		base:      newBase(""),
		Generator: generator,
	}
}

// String returns a short representation of this pattern.
func (obj *VArgsPattern) String() string {
	if obj.Generator != nil {
		return obj.label("[" + obj.Generator().String() + "...]")
	}
	s := make([]string, len(obj.Fields))
	for i, p := range obj.Fields {
		s[i] = p.String()
	}
	return obj.label("[" + strings.Join(s, ", ") + "]")
}

// CallPattern matches a call.
type CallPattern struct {
	base

	Target Pattern
	Args   *VArgsPattern
}

// IsCall returns a pattern which matches a call with that target and args.
func IsCall(target Pattern, args *VArgsPattern) *CallPattern {
	return &CallPattern{
		base:   newBase(""),
		Target: target,
		Args:   args,
	}
}

// IsOpCall returns a named pattern which matches a call of the operator with
// these exact arguments.
func IsOpCall(name, op string, args ...Pattern) *CallPattern {
	return &CallPattern{
		base:   newBase(name),
		Target: IsOp(op),
		Args:   IsVArgs(args...),
	}
}

// String returns a short representation of this pattern.
func (obj *CallPattern) String() string {
	return obj.label(fmt.Sprintf("call:%s%s", obj.Target, obj.Args))
}

// FunctionPattern matches a function.
type FunctionPattern struct {
	base

	Body   Pattern
	Params *VArgsPattern
}

// IsFunction returns a pattern which matches a function with that body and
// parameter list.
func IsFunction(body Pattern, params *VArgsPattern) *FunctionPattern {
	return &FunctionPattern{
		base:   newBase(""),
		Body:   body,
		Params: params,
	}
}

// String returns a short representation of this pattern.
func (obj *FunctionPattern) String() string {
	return obj.label(fmt.Sprintf("func%s{%s}", obj.Params, obj.Body))
}

// TuplePattern matches a tuple expression.
type TuplePattern struct {
	base

	Fields *VArgsPattern
}

// IsTuple returns a pattern which matches a tuple with those fields.
func IsTuple(fields *VArgsPattern) *TuplePattern {
	return &TuplePattern{
		base:   newBase(""),
		Fields: fields,
	}
}

// String returns a short representation of this pattern.
func (obj *TuplePattern) String() string {
	return obj.label("tuple" + obj.Fields.String())
}
