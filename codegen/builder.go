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


package codegen

import (
	"fmt"
	"math"

	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/types"
	"github.com/purpleidea/nnc/util/errwrap"
)

const (
	// SectionText holds the code of the functions.
	SectionText = ".text"

	// SectionRData holds the constant tensor payloads.
	SectionRData = ".rdata"

	// textAlignment is the alignment of the text section.
	textAlignment = 8
)

// ModelBuilder links a module for a target.
type ModelBuilder struct {
	Target interfaces.Target

	Debug bool
	Logf  func(format string, v ...interface{})
}

// Build links the module. Every function needs to be fully typed. The result
// has one module for the target, in which the functions keep their order.
func (obj *ModelBuilder) Build(module *ir.Module) (*LinkedModel, error) {
	if obj.Target == nil {
		return nil, fmt.Errorf("no target")
	}
	if err := module.Validate(); err != nil {
		return nil, err
	}

	text := []byte{}
	functions := []*LinkedFunction{}
	for _, fn := range module.Functions {
		lf, err := linkFunction(fn)
		if err != nil {
			return nil, errwrap.Wrapf(err, "can't link function `%s`", fn.FuncName())
		}
		code := []byte(ir.Dump(fn))
		lf.TextBegin = uint64(len(text))
		lf.TextLength = uint64(len(code))
		text = append(text, code...)
		functions = append(functions, lf)
	}

	rdata, err := obj.constants(module)
	if err != nil {
		return nil, err
	}

	linked := &LinkedModule{
		Kind:      obj.Target.ModuleKind(),
		Version:   obj.Target.ModuleVersion(),
		Functions: functions,
		Sections: []*LinkedSection{
			{
				Name:         SectionText,
				Alignment:    textAlignment,
				SizeInMemory: uint32(len(text)),
				Body:         text,
			},
			{
				Name:         SectionRData,
				Alignment:    obj.Target.Alignment(),
				SizeInMemory: uint32(len(rdata)),
				Body:         rdata,
			},
		},
	}

	model := &LinkedModel{
		Modules: []*LinkedModule{linked},
	}
	if module.EntryName != "" {
		model.Entry = &FunctionID{
			ModuleID: 0,
			ID:       uint32(module.Index(module.EntryName)),
		}
	}
	if obj.Debug {
		obj.Logf("linked %d function(s) for %s: text: %d bytes, rdata: %d bytes", len(functions), obj.Target.Name(), len(text), len(rdata))
	}
	return model, nil
}

func linkFunction(fn ir.Callable) (*LinkedFunction, error) {
	lf := &LinkedFunction{}
	for i, p := range fn.FuncParams() {
		typ := p.CheckedType()
		if typ == nil {
			return nil, fmt.Errorf("param %d has no type", i)
		}
		lf.ParameterTypes = append(lf.ParameterTypes, typ)
	}
	lf.ReturnType = fn.FuncBody().CheckedType()
	if lf.ReturnType == nil {
		return nil, fmt.Errorf("the body has no type")
	}
	return lf, nil
}

// constants lays out every distinct constant of the module, each one starting
// on the alignment of the target.
func (obj *ModelBuilder) constants(module *ir.Module) ([]byte, error) {
	alignment := int(obj.Target.Alignment())
	if alignment <= 0 {
		return nil, fmt.Errorf("target %s has no alignment", obj.Target.Name())
	}
	out := []byte{}
	seen := make(map[*ir.Const]struct{})
	add := func(c *ir.Const) error {
		if _, exists := seen[c]; exists {
			return nil
		}
		seen[c] = struct{}{}
		if rem := len(out) % alignment; rem != 0 {
			out = append(out, make([]byte, alignment-rem)...)
		}
		b, err := EncodeTensor(c.Value)
		if err != nil {
			return err
		}
		out = append(out, b...)
		return nil
	}

	for _, fn := range module.Functions {
		err := ir.Walk(fn, func(expr ir.Expr) error {
			switch x := expr.(type) {
			case *ir.Const:
				return add(x)
			case *ir.ConstTuple:
				for _, f := range x.Fields {
					if err := add(f); err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			return nil, errwrap.Wrapf(err, "can't lay out the constants of `%s`", fn.FuncName())
		}
	}
	return out, nil
}

// EncodeTensor returns the little endian payload of the tensor.
func EncodeTensor(t *ir.Tensor) ([]byte, error) {
	size := t.DType.Size()
	if size == 0 {
		return nil, fmt.Errorf("can't encode dtype %s", t.DType)
	}
	out := make([]byte, size*len(t.Data))
	for i, v := range t.Data {
		b := out[i*size : (i+1)*size]
		switch t.DType {
		case types.DTypeBool:
			if v != 0 {
				b[0] = 1
			}
		case types.DTypeInt32:
			order.PutUint32(b, uint32(int32(v)))
		case types.DTypeInt64:
			order.PutUint64(b, uint64(int64(v)))
		case types.DTypeFloat32:
			order.PutUint32(b, math.Float32bits(float32(v)))
		case types.DTypeFloat64:
			order.PutUint64(b, math.Float64bits(v))
		}
	}
	return out, nil
}
