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

package ops

import (
	"fmt"

	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/types"
)

// SliceOp is the slice singleton.
var SliceOp = &Slice{}

// Slice takes (input, begins, ends, axes, strides). The last four arguments are
// i64 vectors of the same length. Negative begins and ends count from the end
// of the axis, and out of range values are clamped.
type Slice struct {
	ir.OpBase
}

// OpName returns the registered name of this operator.
func (obj *Slice) OpName() string { return "slice" }

// String returns the name of this operator.
func (obj *Slice) String() string { return obj.OpName() }

// Arity returns the number of arguments.
func (obj *Slice) Arity() int { return 5 }

// InferType computes the exact output shape when the slice parameters are
// literals, and marks the sliced axes as unknown otherwise.
func (obj *Slice) InferType(args []ir.Expr) (*types.Type, error) {
	t, err := tensorTypes(obj, args)
	if err != nil {
		return nil, err
	}
	in := t[0]
	for i, p := range t[1:] {
		if !p.DType.IsInteger() || p.Rank() != 1 {
			return nil, fmt.Errorf("op `slice` arg %d must be an integer vector, got %s", i+1, p)
		}
	}
	if in.Unranked {
		return types.NewUnrankedType(in.DType), nil
	}

	axes, ok := constInts(args[3])
	if !ok {
		shape := make([]int, len(in.Shape))
		for i := range shape {
			shape[i] = types.UnknownDim
		}
		return types.NewTensorType(in.DType, shape...), nil
	}
	begins, bok := constInts(args[1])
	ends, eok := constInts(args[2])
	steps, sok := constInts(args[4])
	if bok && eok && sok {
		if err := checkSliceParams(begins, ends, axes, steps, len(in.Shape)); err != nil {
			return nil, err
		}
	}

	shape := append([]int{}, in.Shape...)
	for i, axis := range axes {
		axis, err := normalizeAxis(axis, len(shape))
		if err != nil {
			return nil, err
		}
		if !bok || !eok || !sok || shape[axis] == types.UnknownDim {
			shape[axis] = types.UnknownDim
			continue
		}
		_, _, count := sliceRange(begins[i], ends[i], steps[i], shape[axis])
		shape[axis] = count
	}
	return types.NewTensorType(in.DType, shape...), nil
}

// Eval runs the reference kernel.
func (obj *Slice) Eval(args []ir.Value) (ir.Value, error) {
	t, err := tensorArgs(obj, args)
	if err != nil {
		return nil, err
	}
	in := t[0]
	begins, ends, axes, steps := t[1].Ints(), t[2].Ints(), t[3].Ints(), t[4].Ints()
	if err := checkSliceParams(begins, ends, axes, steps, len(in.Shape)); err != nil {
		return nil, err
	}

	rank := len(in.Shape)
	start := make([]int, rank)
	step := make([]int, rank)
	shape := append([]int{}, in.Shape...)
	for i := range step {
		step[i] = 1
	}
	for i, axis := range axes {
		axis, _ = normalizeAxis(axis, rank) // checked above
		b, s, count := sliceRange(begins[i], ends[i], steps[i], in.Shape[axis])
		start[axis], step[axis], shape[axis] = b, s, count
	}

	inStrides := strides(in.Shape)
	n := types.NumElements(shape)
	data := make([]float64, n)
	for i := 0; i < n; i++ {
		idx := unravel(i, shape)
		offset := 0
		for d := range idx {
			offset += (start[d] + idx[d]*step[d]) * inStrides[d]
		}
		data[i] = in.Data[offset]
	}
	return ir.NewTensor(in.DType, shape, data)
}

func checkSliceParams(begins, ends, axes, steps []int, rank int) error {
	if len(begins) != len(axes) || len(ends) != len(axes) || len(steps) != len(axes) {
		return fmt.Errorf("op `slice` params must have the same length")
	}
	seen := make(map[int]struct{})
	for i, axis := range axes {
		a, err := normalizeAxis(axis, rank)
		if err != nil {
			return err
		}
		if _, exists := seen[a]; exists {
			return fmt.Errorf("op `slice` axis %d is repeated", a)
		}
		seen[a] = struct{}{}
		if steps[i] == 0 {
			return fmt.Errorf("op `slice` step can't be zero")
		}
	}
	return nil
}

func normalizeAxis(axis, rank int) (int, error) {
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return 0, fmt.Errorf("axis %d is out of range for rank %d", axis, rank)
	}
	return axis, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sliceRange returns the first index, the step and the element count of a slice
// of an axis of size dim.
func sliceRange(begin, end, step, dim int) (int, int, int) {
	if begin < 0 {
		begin += dim
	}
	if end < 0 {
		end += dim
	}
	if step > 0 {
		begin = clamp(begin, 0, dim)
		end = clamp(end, 0, dim)
		if end <= begin {
			return begin, step, 0
		}
		return begin, step, (end - begin + step - 1) / step
	}
	begin = clamp(begin, -1, dim-1)
	end = clamp(end, -1, dim-1)
	if begin <= end {
		return begin, step, 0
	}
	return begin, step, (begin - end - step - 1) / -step
}
