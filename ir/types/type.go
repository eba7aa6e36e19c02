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

// Package types provides the tensor type system of the IR.
package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/purpleidea/nnc/util/errwrap"
)

// UnknownDim is the value of a dimension whose size isn't statically known.
const UnknownDim = -1

// Kind represents the base kind of each type.
type Kind int

// Each Kind represents a family of types in the IR type system.
const (
	KindInvalid Kind = iota
	KindTensor
	KindTuple
	KindCallable
)

// Type is the datastructure representing any type. It can be recursive for
// tuple and callable types.
type Type struct {
	Kind Kind

	DType    DType // if Kind == Tensor, use DType, Shape and Unranked
	Shape    []int
	Unranked bool

	Fields []*Type // if Kind == Tuple, use Fields

	// If Kind == Callable, use Params and Ret. An operator has a callable
	// type with neither, since its signature is checked by the op itself.
	Params []*Type
	Ret    *Type
}

// TypeOperator is the opaque callable type given to every operator marker.
var TypeOperator = &Type{
	Kind: KindCallable,
}

// NewTensorType builds a ranked tensor type. With no dims, it's a scalar.
func NewTensorType(dtype DType, shape ...int) *Type {
	s := make([]int, len(shape))
	copy(s, shape)
	return &Type{
		Kind:  KindTensor,
		DType: dtype,
		Shape: s,
	}
}

// NewUnrankedType builds a tensor type whose rank is unknown.
func NewUnrankedType(dtype DType) *Type {
	return &Type{
		Kind:     KindTensor,
		DType:    dtype,
		Unranked: true,
	}
}

// NewTupleType builds a tuple type out of the field types.
func NewTupleType(fields ...*Type) *Type {
	f := make([]*Type, len(fields))
	copy(f, fields)
	return &Type{
		Kind:   KindTuple,
		Fields: f,
	}
}

// NewCallableType builds the type of a function.
func NewCallableType(params []*Type, ret *Type) *Type {
	p := make([]*Type, len(params))
	copy(p, params)
	return &Type{
		Kind:   KindCallable,
		Params: p,
		Ret:    ret,
	}
}

// NewType creates the Type from the string representation. It returns nil if
// the string can't be parsed. Use ParseType if you want to know why.
func NewType(s string) *Type {
	typ, err := ParseType(s)
	if err != nil {
		return nil
	}
	return typ
}

// ParseType parses the string representation of a type as produced by String.
func ParseType(s string) (*Type, error) {
	p := &parser{s: s}
	typ, err := p.parse()
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't parse type `%s`", s)
	}
	if p.skip(); p.pos != len(p.s) {
		return nil, fmt.Errorf("trailing characters in type `%s`", s)
	}
	return typ, nil
}

// String returns the textual representation for this type.
func (obj *Type) String() string {
	switch obj.Kind {
	case KindTensor:
		if obj.Unranked {
			return obj.DType.String() + "[*]"
		}
		return obj.DType.String() + ShapeString(obj.Shape)

	case KindTuple:
		s := make([]string, len(obj.Fields))
		for i, t := range obj.Fields {
			if t == nil {
				panic("malformed tuple field")
			}
			s[i] = t.String()
		}
		return fmt.Sprintf("(%s)", strings.Join(s, ", "))

	case KindCallable:
		if obj.Params == nil && obj.Ret == nil {
			return "fn"
		}
		if obj.Ret == nil {
			panic("malformed callable type")
		}
		s := make([]string, len(obj.Params))
		for i, t := range obj.Params {
			s[i] = t.String()
		}
		return fmt.Sprintf("fn(%s) -> %s", strings.Join(s, ", "), obj.Ret.String())

	case KindInvalid:
		return "invalid"
	}

	panic("malformed type")
}

// ShapeString formats a shape as `[1,3,?]`.
func ShapeString(shape []int) string {
	s := make([]string, len(shape))
	for i, d := range shape {
		if d == UnknownDim {
			s[i] = "?"
			continue
		}
		s[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(s, ",") + "]"
}

// Cmp compares this type to another. It returns nil if they're identical.
func (obj *Type) Cmp(typ *Type) error {
	if obj == nil || typ == nil {
		return fmt.Errorf("cannot compare to nil")
	}
	if obj.Kind != typ.Kind {
		return fmt.Errorf("base kind does not match (%s != %s)", obj, typ)
	}

	switch obj.Kind {
	case KindTensor:
		if obj.DType != typ.DType {
			return fmt.Errorf("dtype does not match (%s != %s)", obj.DType, typ.DType)
		}
		if obj.Unranked != typ.Unranked {
			return fmt.Errorf("rank does not match (%s != %s)", obj, typ)
		}
		if len(obj.Shape) != len(typ.Shape) {
			return fmt.Errorf("rank does not match (%s != %s)", obj, typ)
		}
		for i, d := range obj.Shape {
			if d != typ.Shape[i] {
				return fmt.Errorf("dim %d does not match (%s != %s)", i, obj, typ)
			}
		}
		return nil

	case KindTuple:
		if len(obj.Fields) != len(typ.Fields) {
			return fmt.Errorf("tuple length does not match (%s != %s)", obj, typ)
		}
		for i, t := range obj.Fields {
			if err := t.Cmp(typ.Fields[i]); err != nil {
				return errwrap.Wrapf(err, "field %d", i)
			}
		}
		return nil

	case KindCallable:
		if (obj.Ret == nil) != (typ.Ret == nil) {
			return fmt.Errorf("callable does not match (%s != %s)", obj, typ)
		}
		if obj.Ret == nil {
			return nil // both opaque
		}
		if len(obj.Params) != len(typ.Params) {
			return fmt.Errorf("arity does not match (%s != %s)", obj, typ)
		}
		for i, t := range obj.Params {
			if err := t.Cmp(typ.Params[i]); err != nil {
				return errwrap.Wrapf(err, "param %d", i)
			}
		}
		return errwrap.Wrapf(obj.Ret.Cmp(typ.Ret), "return")

	case KindInvalid:
		return nil
	}

	return fmt.Errorf("unknown kind")
}

// Compatible checks if a value of type typ can be used where this type is
// expected. Unknown dims and unranked shapes in this type accept anything.
func (obj *Type) Compatible(typ *Type) error {
	if obj == nil || typ == nil {
		return fmt.Errorf("cannot compare to nil")
	}
	if obj.Kind != typ.Kind {
		return fmt.Errorf("base kind does not match (%s != %s)", obj, typ)
	}
	switch obj.Kind {
	case KindTensor:
		if obj.DType != typ.DType {
			return fmt.Errorf("dtype does not match (%s != %s)", obj.DType, typ.DType)
		}
		if obj.Unranked {
			return nil
		}
		if typ.Unranked || len(obj.Shape) != len(typ.Shape) {
			return fmt.Errorf("rank does not match (%s != %s)", obj, typ)
		}
		for i, d := range obj.Shape {
			if d != UnknownDim && d != typ.Shape[i] {
				return fmt.Errorf("dim %d does not match (%s != %s)", i, obj, typ)
			}
		}
		return nil

	case KindTuple:
		if len(obj.Fields) != len(typ.Fields) {
			return fmt.Errorf("tuple length does not match (%s != %s)", obj, typ)
		}
		for i, t := range obj.Fields {
			if err := t.Compatible(typ.Fields[i]); err != nil {
				return errwrap.Wrapf(err, "field %d", i)
			}
		}
		return nil
	}
	return obj.Cmp(typ)
}

// Copy copies this type so that it can be modified safely.
func (obj *Type) Copy() *Type {
	if obj == nil {
		return nil
	}
	typ := &Type{
		Kind:     obj.Kind,
		DType:    obj.DType,
		Unranked: obj.Unranked,
		Ret:      obj.Ret.Copy(),
	}
	if obj.Shape != nil {
		typ.Shape = make([]int, len(obj.Shape))
		copy(typ.Shape, obj.Shape)
	}
	for _, t := range obj.Fields {
		typ.Fields = append(typ.Fields, t.Copy())
	}
	if obj.Params != nil {
		typ.Params = []*Type{}
		for _, t := range obj.Params {
			typ.Params = append(typ.Params, t.Copy())
		}
	}
	return typ
}

// Rank returns the number of dims, or -1 if the tensor is unranked.
func (obj *Type) Rank() int {
	if obj.Unranked {
		return -1
	}
	return len(obj.Shape)
}

// IsFixed returns true if every dim of this type is statically known. A tuple
// is fixed when all of its fields are.
func (obj *Type) IsFixed() bool {
	switch obj.Kind {
	case KindTensor:
		if obj.Unranked {
			return false
		}
		for _, d := range obj.Shape {
			if d == UnknownDim {
				return false
			}
		}
		return true
	case KindTuple:
		for _, t := range obj.Fields {
			if !t.IsFixed() {
				return false
			}
		}
		return true
	}
	return false
}

// NumElements returns the number of elements of a fixed tensor type.
func (obj *Type) NumElements() int {
	return NumElements(obj.Shape)
}

// NumElements returns the product of the dims of a known shape.
func NumElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
