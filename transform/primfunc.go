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

package transform

import (
	"context"
	"fmt"

	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/util/errwrap"
)

// Mutator rewrites a primitive function. A mutator instance is used for one
// visit only, since it tracks whether it changed anything.
type Mutator interface {
	// Visit rewrites the expression and returns the result, and true if
	// it differs from the input. The input is never modified.
	Visit(expr ir.Expr) (ir.Expr, bool, error)
}

// MutatorFactory builds a fresh mutator for one activation.
type MutatorFactory func(sess *interfaces.Session, args ...interface{}) (Mutator, error)

// MutatorDescriptor says how to build a mutator: the factory, the arguments for
// it, and the actions which configure the new instance.
type MutatorDescriptor struct {
	Name    string
	Factory MutatorFactory
	Args    []interface{}

	configure []func(Mutator) error
}

// Configure adds an action which runs on every new instance. It returns the
// descriptor so that calls can be chained.
func (obj *MutatorDescriptor) Configure(fn func(Mutator) error) *MutatorDescriptor {
	obj.configure = append(obj.configure, fn)
	return obj
}

// Activate builds and configures a new mutator.
func (obj *MutatorDescriptor) Activate(sess *interfaces.Session) (Mutator, error) {
	m, err := obj.Factory(sess, obj.Args...)
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't build mutator `%s`", obj.Name)
	}
	for _, fn := range obj.configure {
		if err := fn(m); err != nil {
			return nil, errwrap.Wrapf(err, "can't configure mutator `%s`", obj.Name)
		}
	}
	return m, nil
}

// PrimFuncPass runs an ordered list of mutators over a primitive function.
// Whenever a mutator changes the function, the result is type checked and the
// list starts over from the first mutator. The pass is done when a whole round
// changes nothing.
type PrimFuncPass struct {
	Base[*ir.PrimFunction]

	Descriptors []*MutatorDescriptor
}

// NewPrimFuncPass builds an empty pass. Use Add to fill it.
func NewPrimFuncPass(name string) *PrimFuncPass {
	if name == "" {
		name = "primfunc"
	}
	return &PrimFuncPass{
		Base: Base[*ir.PrimFunction]{PassName: name},
	}
}

// Add appends a mutator to the pass.
func (obj *PrimFuncPass) Add(name string, factory MutatorFactory, args ...interface{}) *MutatorDescriptor {
	d := &MutatorDescriptor{
		Name:    name,
		Factory: factory,
		Args:    args,
	}
	obj.Descriptors = append(obj.Descriptors, d)
	return d
}

// RunCore runs the mutators to a fixpoint.
func (obj *PrimFuncPass) RunCore(ctx context.Context, sess *interfaces.Session, fn *ir.PrimFunction) (*ir.PrimFunction, error) {
	if err := sess.TypeInferencer.Infer(fn); err != nil {
		return nil, errwrap.Wrapf(err, "function `%s` is not well typed", fn.Name)
	}

	cur := fn
	count := 0
	defer func() {
		if sess.Metrics != nil {
			sess.Metrics.Iterations(obj.Name(), count)
		}
	}()

Loop:
	for {
		for _, d := range obj.Descriptors {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			m, err := d.Activate(sess.Scope())
			if err != nil {
				return nil, err
			}
			out, mutated, err := m.Visit(cur)
			if err != nil {
				return nil, errwrap.Wrapf(err, "mutator `%s` failed", d.Name)
			}
			if !mutated {
				continue
			}

			candidate, ok := out.(*ir.PrimFunction)
			if !ok {
				return nil, typeInvariant(fmt.Errorf("got %T", out), "mutator `%s` did not return a primitive function", d.Name)
			}
			if err := checkChange(sess, cur, candidate, d.Name); err != nil {
				return nil, err
			}
			if err := checkIterations(sess, obj.Name(), count); err != nil {
				return nil, err
			}
			if sess.Metrics != nil {
				sess.Metrics.MutatorApplied(d.Name)
			}
			if sess.Debug {
				sess.Logf("%s: mutator %s changed the function", obj.Name(), d.Name)
			}
			sess.Dump(interfaces.DumpPassIR, candidate, fmt.Sprintf("%d_%s", count, d.Name))
			count++
			cur = candidate
			continue Loop // restart from the first mutator
		}
		break // a whole round without changes
	}
	return cur, nil
}
