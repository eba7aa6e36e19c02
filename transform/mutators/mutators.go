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

// Package mutators contains the mutators of the primitive function pass. Each
// one is a closed variant behind the transform.Mutator interface, and they are
// looked up by name in a registry that is filled in at startup.
package mutators

import (
	"fmt"

	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/transform"
	"github.com/purpleidea/nnc/transform/rules"
	"github.com/purpleidea/nnc/util"
)

// registeredMutators is a global map of all the mutator factories. You should
// never touch this map directly. Use methods like Register.
var registeredMutators = make(map[string]transform.MutatorFactory) // must initialize

// Register makes a mutator available by name. There is no Unregister.
func Register(name string, factory transform.MutatorFactory) {
	if _, exists := registeredMutators[name]; exists {
		panic(fmt.Sprintf("a mutator named %s is already registered", name))
	}
	registeredMutators[name] = factory
}

// Lookup returns the factory of the mutator with that name.
func Lookup(name string) (transform.MutatorFactory, error) {
	factory, exists := registeredMutators[name]
	if !exists {
		return nil, fmt.Errorf("mutator `%s` not found", name)
	}
	return factory, nil
}

// Names returns the sorted names of the registered mutators.
func Names() []string {
	return util.SortedStrMapKeys(registeredMutators)
}

// AddAll appends the named mutators to the pass, in order.
func AddAll(pass *transform.PrimFuncPass, names []string) error {
	for _, name := range names {
		factory, err := Lookup(name)
		if err != nil {
			return err
		}
		pass.Add(name, factory)
	}
	return nil
}

func init() {
	Register(rules.NameOf(&FoldConstCall{}), NewFoldConstCall)
	Register(rules.NameOf(&SimplifyArith{}), NewSimplifyArith)
	Register(rules.NameOf(&FoldConstTuple{}), NewFoldConstTuple)
	Register(rules.NameOf(&InlineCall{}), NewInlineCall)
}

// noArgs is used by the factories which take no arguments.
func noArgs(name string, args []interface{}) error {
	if len(args) != 0 {
		return fmt.Errorf("mutator `%s` takes no args, got %d", name, len(args))
	}
	return nil
}

// rewriteFunction runs fn over every node of the body of a function, and
// rebuilds the function if anything changed. Nested functions are left alone.
func rewriteFunction(expr ir.Expr, fn func(ir.Expr) (ir.Expr, error)) (ir.Expr, bool, error) {
	callable, ok := expr.(ir.Callable)
	if !ok {
		return nil, false, fmt.Errorf("can't mutate %T", expr)
	}
	rewriter := &ir.Rewriter{
		Fn: func(x ir.Expr) (ir.Expr, error) {
			if _, ok := x.(ir.Callable); ok {
				return nil, nil
			}
			return fn(x)
		},
	}
	body, err := rewriter.Rewrite(callable.FuncBody())
	if err != nil {
		return nil, false, err
	}
	if !rewriter.IsMutated() {
		return expr, false, nil
	}
	switch x := expr.(type) {
	case *ir.PrimFunction:
		return ir.NewPrimFunction(x.Name, x.Params, body), true, nil
	case *ir.Function:
		return ir.NewFunction(x.Name, x.Params, body), true, nil
	}
	return nil, false, fmt.Errorf("unknown function kind %T", expr)
}

// ruleMutator applies a list of rules at every node.
type ruleMutator struct {
	sess  *interfaces.Session
	rules []transform.Rule

	isMutated bool
}

// Visit applies the rules over the function.
func (obj *ruleMutator) Visit(expr ir.Expr) (ir.Expr, bool, error) {
	out, mutated, err := rewriteFunction(expr, func(x ir.Expr) (ir.Expr, error) {
		return transform.ApplyFirst(obj.sess, obj.rules, x)
	})
	if err != nil {
		return nil, false, err
	}
	obj.isMutated = obj.isMutated || mutated
	return out, mutated, nil
}

// IsMutated returns true if a visit changed anything.
func (obj *ruleMutator) IsMutated() bool { return obj.isMutated }
