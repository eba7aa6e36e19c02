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

// Package ir contains the expression tree that the compiler optimizes before
// handing it to code generation. Expression nodes are immutable once built,
// except for the checked type slot which type inference fills in. Trees are
// DAGs: a node may be shared, so anything that changes a tree must build new
// parent nodes instead of editing a shared node in place.
package ir

import (
	"fmt"
	"strings"

	"github.com/purpleidea/nnc/ir/types"
)

// Expr represents an expression in the IR. Expr implementations must have their
// method receivers implemented as pointer receivers, since node identity is
// pointer identity.
type Expr interface {
	fmt.Stringer

	// CheckedType returns the type computed by the last type inference run,
	// or nil if this node hasn't been checked yet.
	CheckedType() *types.Type

	// SetCheckedType stores the type computed by type inference.
	SetCheckedType(*types.Type)
}

// Op is an operator marker. It is used as the target of a Call.
type Op interface {
	Expr

	// OpName returns the registered name of this operator, eg: add.
	OpName() string
}

// Callable is implemented by Function and PrimFunction.
type Callable interface {
	Expr

	// FuncName returns the name of the function within its module.
	FuncName() string

	// FuncParams returns the parameter list.
	FuncParams() []Expr

	// FuncBody returns the body expression.
	FuncBody() Expr
}

// typed holds the checked type slot shared by most nodes.
type typed struct {
	typ *types.Type
}

// CheckedType returns the type computed by the last type inference run.
func (obj *typed) CheckedType() *types.Type { return obj.typ }

// SetCheckedType stores the type computed by type inference.
func (obj *typed) SetCheckedType(typ *types.Type) { obj.typ = typ }

// OpBase is embedded by every operator. Operators are shared singletons, so
// their type is constant and the slot is never written.
type OpBase struct{}

// CheckedType returns the opaque operator type.
func (OpBase) CheckedType() *types.Type { return types.TypeOperator }

// SetCheckedType does nothing since an operator type never changes.
func (OpBase) SetCheckedType(*types.Type) {}

// Var is a named variable, usually a function parameter.
type Var struct {
	typed

	Name string

	// TypeAnnotation is the declared type of the variable. Type inference
	// copies it into the checked type.
	TypeAnnotation *types.Type
}

// NewVar builds a new variable with the type annotation.
func NewVar(name string, typ *types.Type) *Var {
	return &Var{
		Name:           name,
		TypeAnnotation: typ,
	}
}

// String returns a short representation of this node.
func (obj *Var) String() string {
	return fmt.Sprintf("var(%s)", obj.Name)
}

// Const is a literal tensor value. Its type is a property of the value, so the
// checked type slot is always populated.
type Const struct {
	Value *Tensor
}

// NewConst wraps a tensor into a literal expression.
func NewConst(value *Tensor) *Const {
	return &Const{
		Value: value,
	}
}

// NewConstFromShape builds an i64 vector literal which holds the dims.
func NewConstFromShape(shape []int) *Const {
	data := make([]float64, len(shape))
	for i, d := range shape {
		data[i] = float64(d)
	}
	return NewConst(MustTensor(types.DTypeInt64, []int{len(shape)}, data...))
}

// String returns a short representation of this node.
func (obj *Const) String() string {
	return fmt.Sprintf("const(%s)", obj.Value.String())
}

// CheckedType returns the type of the literal value.
func (obj *Const) CheckedType() *types.Type { return obj.Value.Type() }

// SetCheckedType does nothing since the type of a literal is fixed.
func (obj *Const) SetCheckedType(*types.Type) {}

// ConstTuple is a literal tuple of tensors.
type ConstTuple struct {
	Fields []*Const
}

// NewConstTuple builds a literal tuple out of the fields.
func NewConstTuple(fields ...*Const) *ConstTuple {
	f := make([]*Const, len(fields))
	copy(f, fields)
	return &ConstTuple{
		Fields: f,
	}
}

// String returns a short representation of this node.
func (obj *ConstTuple) String() string {
	s := make([]string, len(obj.Fields))
	for i, f := range obj.Fields {
		s[i] = f.Value.String()
	}
	return fmt.Sprintf("const((%s))", strings.Join(s, ", "))
}

// CheckedType returns the tuple type of the literal fields.
func (obj *ConstTuple) CheckedType() *types.Type {
	fields := make([]*types.Type, len(obj.Fields))
	for i, f := range obj.Fields {
		fields[i] = f.CheckedType()
	}
	return types.NewTupleType(fields...)
}

// SetCheckedType does nothing since the type of a literal is fixed.
func (obj *ConstTuple) SetCheckedType(*types.Type) {}

// Value returns the tuple value held by this literal.
func (obj *ConstTuple) Value() *TupleValue {
	fields := make([]Value, len(obj.Fields))
	for i, f := range obj.Fields {
		fields[i] = f.Value
	}
	return &TupleValue{
		Fields: fields,
	}
}

// Tuple groups several expressions into one value.
type Tuple struct {
	typed

	Fields []Expr
}

// NewTuple builds a tuple expression.
func NewTuple(fields ...Expr) *Tuple {
	f := make([]Expr, len(fields))
	copy(f, fields)
	return &Tuple{
		Fields: f,
	}
}

// String returns a short representation of this node.
func (obj *Tuple) String() string {
	return fmt.Sprintf("tuple(%s)", exprList(obj.Fields))
}

// Call applies a target (an operator or a function) to the arguments.
type Call struct {
	typed

	Target Expr
	Args   []Expr
}

// NewCall builds a call expression.
func NewCall(target Expr, args ...Expr) *Call {
	a := make([]Expr, len(args))
	copy(a, args)
	return &Call{
		Target: target,
		Args:   a,
	}
}

// String returns a short representation of this node.
func (obj *Call) String() string {
	return fmt.Sprintf("call:%s(%s)", targetName(obj.Target), exprList(obj.Args))
}

// Function is a high level function of the module.
type Function struct {
	typed

	Name string

	// Params are usually of type *Var. A specialized function may have
	// some of them replaced by *Const literals.
	Params []Expr
	Body   Expr
}

// NewFunction builds a function.
func NewFunction(name string, params []Expr, body Expr) *Function {
	p := make([]Expr, len(params))
	copy(p, params)
	return &Function{
		Name:   name,
		Params: p,
		Body:   body,
	}
}

// String returns a short representation of this node.
func (obj *Function) String() string {
	return fmt.Sprintf("func @%s(%s) { %s }", obj.Name, exprList(obj.Params), obj.Body)
}

// FuncName returns the name of the function.
func (obj *Function) FuncName() string { return obj.Name }

// FuncParams returns the parameter list.
func (obj *Function) FuncParams() []Expr { return obj.Params }

// FuncBody returns the body expression.
func (obj *Function) FuncBody() Expr { return obj.Body }

// PrimFunction is a low level function that is optimized by running a list of
// mutators over it until nothing changes anymore.
type PrimFunction struct {
	typed

	Name   string
	Params []Expr
	Body   Expr
}

// NewPrimFunction builds a primitive function.
func NewPrimFunction(name string, params []Expr, body Expr) *PrimFunction {
	p := make([]Expr, len(params))
	copy(p, params)
	return &PrimFunction{
		Name:   name,
		Params: p,
		Body:   body,
	}
}

// String returns a short representation of this node.
func (obj *PrimFunction) String() string {
	return fmt.Sprintf("primfunc @%s(%s) { %s }", obj.Name, exprList(obj.Params), obj.Body)
}

// FuncName returns the name of the function.
func (obj *PrimFunction) FuncName() string { return obj.Name }

// FuncParams returns the parameter list.
func (obj *PrimFunction) FuncParams() []Expr { return obj.Params }

// FuncBody returns the body expression.
func (obj *PrimFunction) FuncBody() Expr { return obj.Body }

func exprList(exprs []Expr) string {
	s := make([]string, len(exprs))
	for i, x := range exprs {
		s[i] = x.String()
	}
	return strings.Join(s, ", ")
}

// targetName is how a call prints its target.
func targetName(target Expr) string {
	switch x := target.(type) {
	case Op:
		return x.OpName()
	case Callable:
		return "@" + x.FuncName()
	}
	return "(" + target.String() + ")"
}
