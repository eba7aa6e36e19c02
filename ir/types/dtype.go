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

package types

import (
	"fmt"
)

// DType is the element type of a tensor.
type DType int

// The element types that the IR knows about.
const (
	DTypeInvalid DType = iota
	DTypeBool
	DTypeInt32
	DTypeInt64
	DTypeFloat32
	DTypeFloat64
)

var dtypeNames = map[DType]string{
	DTypeBool:    "bool",
	DTypeInt32:   "i32",
	DTypeInt64:   "i64",
	DTypeFloat32: "f32",
	DTypeFloat64: "f64",
}

// String returns the short name of the dtype, eg: f32.
func (obj DType) String() string {
	if s, exists := dtypeNames[obj]; exists {
		return s
	}
	return "invalid"
}

// Size returns the number of bytes one element occupies when serialized.
func (obj DType) Size() int {
	switch obj {
	case DTypeBool:
		return 1
	case DTypeInt32, DTypeFloat32:
		return 4
	case DTypeInt64, DTypeFloat64:
		return 8
	}
	return 0
}

// IsFloat returns true for the floating point dtypes.
func (obj DType) IsFloat() bool {
	return obj == DTypeFloat32 || obj == DTypeFloat64
}

// IsInteger returns true for the integer dtypes.
func (obj DType) IsInteger() bool {
	return obj == DTypeInt32 || obj == DTypeInt64
}

// ParseDType returns the dtype with that short name.
func ParseDType(s string) (DType, error) {
	for k, v := range dtypeNames {
		if v == s {
			return k, nil
		}
	}
	return DTypeInvalid, fmt.Errorf("unknown dtype `%s`", s)
}
