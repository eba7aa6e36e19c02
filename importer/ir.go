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
	"fmt"
	"strings"

	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/ops"
	"github.com/purpleidea/nnc/ir/types"
	"github.com/purpleidea/nnc/util/errwrap"

	"gopkg.in/yaml.v2"
)

// FormatIR is the name of the text IR format.
const FormatIR = "ir"

func init() {
	Register(FormatIR, func() interfaces.Importer { return &IR{} })
}

const (
	kindFunction     = "function"
	kindPrimFunction = "prim_function"
)

// document is the top level of the yaml text IR.
type document struct {
	Entry     string         `yaml:"entry"`
	Functions []*functionDef `yaml:"functions"`
}

type functionDef struct {
	Name   string      `yaml:"name"`
	Kind   string      `yaml:"kind"`
	Params []*paramDef `yaml:"params"`
	Body   *node       `yaml:"body"`
}

type paramDef struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// node is a single expression. Exactly one of var, const, tuple and call must
// be set. Args only go with call.
type node struct {
	Var   *string   `yaml:"var"`
	Const *constDef `yaml:"const"`
	Tuple *[]*node  `yaml:"tuple"`
	Call  *string   `yaml:"call"`
	Args  []*node   `yaml:"args"`
}

type constDef struct {
	DType string    `yaml:"dtype"`
	Shape []int     `yaml:"shape"`
	Data  []float64 `yaml:"data"`
}

// IR imports the yaml text form of a module. A call target is either the name
// of an operator, or the name of a function of the module prefixed with @.
type IR struct{}

// Format returns the name of the format.
func (obj *IR) Format() string { return FormatIR }

// Import parses the data into a module.
func (obj *IR) Import(ctx context.Context, data []byte) (*ir.Module, error) {
	doc := &document{}
	if err := yaml.UnmarshalStrict(data, doc); err != nil {
		return nil, errwrap.Wrapf(err, "can't parse the module")
	}
	if len(doc.Functions) == 0 {
		return nil, fmt.Errorf("the module has no functions")
	}

	b := &builder{
		ctx:      ctx,
		defs:     make(map[string]*functionDef),
		built:    make(map[string]ir.Callable),
		building: make(map[string]struct{}),
	}
	for _, def := range doc.Functions {
		if def == nil || def.Name == "" {
			return nil, fmt.Errorf("a function has no name")
		}
		if _, exists := b.defs[def.Name]; exists {
			return nil, fmt.Errorf("duplicate function `%s`", def.Name)
		}
		b.defs[def.Name] = def
	}

	fns := []ir.Callable{}
	for _, def := range doc.Functions {
		fn, err := b.function(def.Name)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}

	module := ir.NewModule(doc.Entry, fns...)
	if err := module.Validate(); err != nil {
		return nil, err
	}
	return module, nil
}

// builder turns the definitions into functions. A function is built before the
// first function that calls it, so that both share the same node.
type builder struct {
	ctx      context.Context
	defs     map[string]*functionDef
	built    map[string]ir.Callable
	building map[string]struct{}
}

func (obj *builder) function(name string) (ir.Callable, error) {
	if fn, exists := obj.built[name]; exists {
		return fn, nil
	}
	def, exists := obj.defs[name]
	if !exists {
		return nil, fmt.Errorf("function `%s` not found", name)
	}
	if _, exists := obj.building[name]; exists {
		return nil, fmt.Errorf("function `%s` is recursive", name)
	}
	if err := obj.ctx.Err(); err != nil {
		return nil, err
	}
	obj.building[name] = struct{}{}
	defer delete(obj.building, name)

	scope := make(map[string]*ir.Var)
	params := []ir.Expr{}
	for i, p := range def.Params {
		if p == nil || p.Name == "" {
			return nil, fmt.Errorf("function `%s`: param %d has no name", name, i)
		}
		if _, exists := scope[p.Name]; exists {
			return nil, fmt.Errorf("function `%s`: duplicate param `%s`", name, p.Name)
		}
		typ, err := types.ParseType(p.Type)
		if err != nil {
			return nil, errwrap.Wrapf(err, "function `%s`: param `%s`", name, p.Name)
		}
		v := ir.NewVar(p.Name, typ)
		scope[p.Name] = v
		params = append(params, v)
	}

	if def.Body == nil {
		return nil, fmt.Errorf("function `%s` has no body", name)
	}
	body, err := obj.node(def.Body, scope)
	if err != nil {
		return nil, errwrap.Wrapf(err, "function `%s`", name)
	}

	var fn ir.Callable
	switch def.Kind {
	case "", kindFunction:
		fn = ir.NewFunction(name, params, body)
	case kindPrimFunction:
		fn = ir.NewPrimFunction(name, params, body)
	default:
		return nil, fmt.Errorf("function `%s` has unknown kind `%s`", name, def.Kind)
	}
	obj.built[name] = fn
	return fn, nil
}

func (obj *builder) node(n *node, scope map[string]*ir.Var) (ir.Expr, error) {
	if n == nil {
		return nil, fmt.Errorf("empty node")
	}
	set := 0
	for _, b := range []bool{n.Var != nil, n.Const != nil, n.Tuple != nil, n.Call != nil} {
		if b {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("a node needs exactly one of var, const, tuple or call")
	}
	if n.Args != nil && n.Call == nil {
		return nil, fmt.Errorf("args without a call")
	}

	switch {
	case n.Var != nil:
		v, exists := scope[*n.Var]
		if !exists {
			return nil, fmt.Errorf("unknown variable `%s`", *n.Var)
		}
		return v, nil

	case n.Const != nil:
		dtype, err := types.ParseDType(n.Const.DType)
		if err != nil {
			return nil, err
		}
		shape := n.Const.Shape
		if shape == nil {
			shape = []int{}
		}
		t, err := ir.NewTensor(dtype, shape, n.Const.Data)
		if err != nil {
			return nil, errwrap.Wrapf(err, "bad const")
		}
		return ir.NewConst(t), nil

	case n.Tuple != nil:
		fields, err := obj.nodes(*n.Tuple, scope)
		if err != nil {
			return nil, err
		}
		return ir.NewTuple(fields...), nil
	}

	target, err := obj.target(*n.Call, len(n.Args))
	if err != nil {
		return nil, err
	}
	args, err := obj.nodes(n.Args, scope)
	if err != nil {
		return nil, errwrap.Wrapf(err, "call `%s`", *n.Call)
	}
	return ir.NewCall(target, args...), nil
}

func (obj *builder) nodes(list []*node, scope map[string]*ir.Var) ([]ir.Expr, error) {
	out := []ir.Expr{}
	for _, n := range list {
		e, err := obj.node(n, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (obj *builder) target(name string, n int) (ir.Expr, error) {
	if strings.HasPrefix(name, "@") {
		fn, err := obj.function(strings.TrimPrefix(name, "@"))
		if err != nil {
			return nil, err
		}
		if len(fn.FuncParams()) != n {
			return nil, fmt.Errorf("function `%s` expects %d args, got %d", fn.FuncName(), len(fn.FuncParams()), n)
		}
		return fn, nil
	}
	op, err := ops.Lookup(name)
	if err != nil {
		return nil, err
	}
	if op.Arity() != n {
		return nil, fmt.Errorf("op `%s` expects %d args, got %d", name, op.Arity(), n)
	}
	return op, nil
}
