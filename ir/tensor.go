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

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/purpleidea/nnc/ir/types"
	"github.com/purpleidea/nnc/util"
)

// ErrNotLiteral is returned by ToConst for values which have no literal form.
const ErrNotLiteral = util.Error("value has no literal form")

// maxPrintElements limits how much tensor data String prints.
const maxPrintElements = 32

// Value is the result of evaluating an expression.
type Value interface {
	fmt.Stringer

	// Type returns the type of this value.
	Type() *types.Type
}

// Tensor is a dense tensor value. All element types are stored as float64 and
// normalized to the dtype on construction.
type Tensor struct {
	DType types.DType
	Shape []int
	Data  []float64
}

// NewTensor builds a tensor and checks that the data fits the shape.
func NewTensor(dtype types.DType, shape []int, data []float64) (*Tensor, error) {
	if dtype == types.DTypeInvalid {
		return nil, fmt.Errorf("invalid dtype")
	}
	for i, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("dim %d of shape %s is not fixed", i, types.ShapeString(shape))
		}
	}
	if n := types.NumElements(shape); n != len(data) {
		return nil, fmt.Errorf("shape %s needs %d elements, got %d", types.ShapeString(shape), n, len(data))
	}
	s := make([]int, len(shape))
	copy(s, shape)
	d := make([]float64, len(data))
	for i, v := range data {
		d[i] = Normalize(dtype, v)
	}
	return &Tensor{
		DType: dtype,
		Shape: s,
		Data:  d,
	}, nil
}

// MustTensor is like NewTensor, but it panics on error. It's meant for literal
// values which are known to be well formed.
func MustTensor(dtype types.DType, shape []int, data ...float64) *Tensor {
	t, err := NewTensor(dtype, shape, data)
	if err != nil {
		panic(fmt.Sprintf("malformed tensor: %+v", err))
	}
	return t
}

// NewScalar builds a rank zero tensor.
func NewScalar(dtype types.DType, v float64) *Tensor {
	return MustTensor(dtype, []int{}, v)
}

// Normalize rounds a value so that it is representable in the dtype. Integers
// are truncated towards zero and saturate at the limits of the dtype, and NaN
// becomes zero. Elements are held as float64, so an int64 is only exact within
// plus or minus 2^53.
func Normalize(dtype types.DType, v float64) float64 {
	switch dtype {
	case types.DTypeBool:
		if v != 0 {
			return 1
		}
		return 0
	case types.DTypeInt32:
		return saturate(v, math.MinInt32, math.MaxInt32)
	case types.DTypeInt64:
		return saturate(v, math.MinInt64, math.Nextafter(math.MaxInt64, 0))
	case types.DTypeFloat32:
		return float64(float32(v))
	}
	return v
}

// saturate truncates v and clamps it into [lo, hi].
func saturate(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, math.Trunc(v)))
}

// Type returns the type of this tensor.
func (obj *Tensor) Type() *types.Type {
	return types.NewTensorType(obj.DType, obj.Shape...)
}

// Ints returns the data converted to ints. It's mostly used for shapes.
func (obj *Tensor) Ints() []int {
	out := make([]int, len(obj.Data))
	for i, v := range obj.Data {
		out[i] = int(v)
	}
	return out
}

// Reshape returns a copy of this tensor with a new shape of equal size.
func (obj *Tensor) Reshape(shape []int) (*Tensor, error) {
	return NewTensor(obj.DType, shape, obj.Data)
}

// Equal returns true if both tensors have the same dtype, shape and data.
func (obj *Tensor) Equal(t *Tensor) bool {
	if obj.DType != t.DType || len(obj.Shape) != len(t.Shape) || len(obj.Data) != len(t.Data) {
		return false
	}
	for i, d := range obj.Shape {
		if d != t.Shape[i] {
			return false
		}
	}
	for i, v := range obj.Data {
		if v != t.Data[i] && !(math.IsNaN(v) && math.IsNaN(t.Data[i])) {
			return false
		}
	}
	return true
}

// String returns a representation like `f32[2]{1, 2}`.
func (obj *Tensor) String() string {
	s := []string{}
	for i, v := range obj.Data {
		if i == maxPrintElements {
			s = append(s, "...")
			break
		}
		s = append(s, formatElement(obj.DType, v))
	}
	return fmt.Sprintf("%s%s{%s}", obj.DType, types.ShapeString(obj.Shape), strings.Join(s, ", "))
}

func formatElement(dtype types.DType, v float64) string {
	if dtype == types.DTypeBool {
		return strconv.FormatBool(v != 0)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// TupleValue is the value of a tuple.
type TupleValue struct {
	Fields []Value
}

// Type returns the tuple type of the fields.
func (obj *TupleValue) Type() *types.Type {
	fields := make([]*types.Type, len(obj.Fields))
	for i, f := range obj.Fields {
		fields[i] = f.Type()
	}
	return types.NewTupleType(fields...)
}

// String returns a representation like `(i64[]{1}, f32[]{2})`.
func (obj *TupleValue) String() string {
	s := make([]string, len(obj.Fields))
	for i, f := range obj.Fields {
		s[i] = f.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(s, ", "))
}

// ToConst turns a value into a literal expression. If typ is not nil, the
// literal gets that type instead of the one of the value. This is used when the
// statically inferred shape of an expression must be kept. The override must
// have the same dtype and number of elements.
func ToConst(value Value, typ *types.Type) (Expr, error) {
	switch v := value.(type) {
	case *Tensor:
		if typ == nil {
			return NewConst(v), nil
		}
		if typ.Kind != types.KindTensor || typ.DType != v.DType {
			return nil, fmt.Errorf("can't give type %s to value of type %s", typ, v.Type())
		}
		if !typ.IsFixed() {
			return nil, fmt.Errorf("can't give non-fixed type %s to a literal", typ)
		}
		t, err := v.Reshape(typ.Shape)
		if err != nil {
			return nil, err
		}
		return NewConst(t), nil

	case *TupleValue:
		if typ != nil && (typ.Kind != types.KindTuple || len(typ.Fields) != len(v.Fields)) {
			return nil, fmt.Errorf("can't give type %s to value of type %s", typ, v.Type())
		}
		fields := []*Const{}
		for i, f := range v.Fields {
			var ft *types.Type
			if typ != nil {
				ft = typ.Fields[i]
			}
			if _, ok := f.(*Tensor); !ok {
				return nil, ErrNotLiteral // nested tuples
			}
			x, err := ToConst(f, ft)
			if err != nil {
				return nil, err
			}
			fields = append(fields, x.(*Const))
		}
		return NewConstTuple(fields...), nil
	}
	return nil, fmt.Errorf("unknown value %T", value)
}
