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


package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/ops"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleModule = `
entry: main
functions:
- name: main
  params:
  - {name: x, type: "f32[2]"}
  body:
    call: add
    args:
    - var: x
    - call: "@one"
      args: []
- name: one
  body:
    const: {dtype: f32, data: [1]}
`

func TestLookup0(t *testing.T) {
	imp, err := Lookup(FormatIR)
	require.NoError(t, err)
	assert.Equal(t, FormatIR, imp.Format())
	assert.Equal(t, []string{FormatIR}, Formats())

	for _, format := range []string{"tflite", "onnx", "caffe", ""} {
		_, err := Lookup(format)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat), "format %q: %v", format, err)
	}
}

func TestImport0(t *testing.T) {
	imp := &IR{}
	module, err := imp.Import(context.Background(), []byte(simpleModule))
	require.NoError(t, err)

	require.Len(t, module.Functions, 2)
	assert.Equal(t, "main", module.EntryName)

	main, ok := module.Functions[0].(*ir.Function)
	require.True(t, ok, "main should be a function")
	one := module.Functions[1]

	call, ok := main.Body.(*ir.Call)
	require.True(t, ok, "the body should be a call")
	assert.Same(t, ops.Add, call.Target)
	require.Len(t, call.Args, 2)
	assert.Same(t, main.Params[0], call.Args[0], "the param node must be shared")

	inner, ok := call.Args[1].(*ir.Call)
	require.True(t, ok)
	assert.Same(t, one, inner.Target, "the callee must be the module's function")
}

func TestImportPrimFunction0(t *testing.T) {
	data := `
functions:
- name: prim
  kind: prim_function
  params:
  - {name: a, type: "i64[*]"}
  - {name: b, type: "(f32[], i64[2])"}
  body:
    tuple:
    - var: a
    - var: b
    - tuple: []
`
	module, err := (&IR{}).Import(context.Background(), []byte(data))
	require.NoError(t, err)
	assert.Equal(t, "", module.EntryName)
	prim, ok := module.Functions[0].(*ir.PrimFunction)
	require.True(t, ok, "expected a prim function")
	tuple, ok := prim.Body.(*ir.Tuple)
	require.True(t, ok)
	require.Len(t, tuple.Fields, 3)
	assert.Empty(t, tuple.Fields[2].(*ir.Tuple).Fields)
}

func TestImportErrors0(t *testing.T) {
	type test struct { // an individual test
		name string
		data string
	}
	testCases := []test{}
	testCases = append(testCases, test{"empty", ``})
	testCases = append(testCases, test{"bad yaml", `functions: [`})
	testCases = append(testCases, test{"unknown field", `
functions:
- name: f
  body: {var: x}
  extra: 1
`})
	testCases = append(testCases, test{"unknown op", `
functions:
- name: f
  body: {call: conv9d, args: []}
`})
	testCases = append(testCases, test{"op arity", `
functions:
- name: f
  params: [{name: x, type: "f32[]"}]
  body: {call: add, args: [{var: x}]}
`})
	testCases = append(testCases, test{"unknown variable", `
functions:
- name: f
  body: {var: nope}
`})
	testCases = append(testCases, test{"duplicate function", `
functions:
- {name: f, body: {const: {dtype: f32, data: [1]}}}
- {name: f, body: {const: {dtype: f32, data: [2]}}}
`})
	testCases = append(testCases, test{"unknown function", `
functions:
- {name: f, body: {call: "@g", args: []}}
`})
	testCases = append(testCases, test{"recursion", `
functions:
- {name: f, body: {call: "@g", args: []}}
- {name: g, body: {call: "@f", args: []}}
`})
	testCases = append(testCases, test{"two kinds in a node", `
functions:
- name: f
  params: [{name: x, type: "f32[]"}]
  body: {var: x, const: {dtype: f32, data: [1]}}
`})
	testCases = append(testCases, test{"bad const", `
functions:
- {name: f, body: {const: {dtype: f32, shape: [2], data: [1]}}}
`})
	testCases = append(testCases, test{"bad dtype", `
functions:
- {name: f, body: {const: {dtype: f16, data: [1]}}}
`})
	testCases = append(testCases, test{"bad type", `
functions:
- name: f
  params: [{name: x, type: "f32[2"}]
  body: {var: x}
`})
	testCases = append(testCases, test{"bad kind", `
functions:
- {name: f, kind: lambda, body: {const: {dtype: f32, data: [1]}}}
`})
	testCases = append(testCases, test{"missing entry", `
entry: main
functions:
- {name: f, body: {const: {dtype: f32, data: [1]}}}
`})

	for index, tc := range testCases { // run all the tests
		name, data := tc.name, tc.data
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			module, err := (&IR{}).Import(context.Background(), []byte(data))
			assert.Error(t, err)
			assert.Nil(t, module)
		})
	}
}

func TestImportCancel0(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&IR{}).Import(ctx, []byte(simpleModule))
	assert.True(t, errors.Is(err, context.Canceled), "got: %v", err)
}
