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
	"sort"

	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/util/errwrap"
	"github.com/purpleidea/nnc/util/semaphore"
)

// PassManager is the pass over a whole module. It runs the function passes on
// every function, and the primitive function passes on every primitive
// function. A function is only optimized once all the functions it calls are
// done, and then it refers to their optimized versions. Functions which don't
// depend on each other run concurrently, up to the number of workers in the
// options.
type PassManager struct {
	Base[*ir.Module]

	FunctionPasses     []Pass[*ir.Function]
	PrimFunctionPasses []Pass[*ir.PrimFunction]
}

// NewPassManager builds an empty pass manager.
func NewPassManager() *PassManager {
	return &PassManager{
		Base: Base[*ir.Module]{PassName: "module"},
	}
}

// RunCore runs all the passes over the module.
func (obj *PassManager) RunCore(ctx context.Context, sess *interfaces.Session, module *ir.Module) (*ir.Module, error) {
	if err := module.Validate(); err != nil {
		return nil, errwrap.Wrapf(err, "invalid module")
	}
	levels, err := Levels(module)
	if err != nil {
		return nil, err
	}

	current := make(map[string]ir.Callable)
	for _, fn := range module.Functions {
		current[fn.FuncName()] = fn
	}

	sem := semaphore.NewSemaphore(sess.Options.Workers)
	defer sem.Close()

	for i, level := range levels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if sess.Debug {
			sess.Logf("level %d: %v", i, level)
		}

		futures := []*Future[ir.Callable]{}
		for _, name := range level {
			fn, err := relink(current[name], current)
			if err != nil {
				return nil, errwrap.Wrapf(err, "can't relink `%s`", name)
			}
			unit := sess.Unit(fn.FuncName())
			futures = append(futures, Go(func() (ir.Callable, error) {
				if err := sem.P(ctx, 1); err != nil {
					return nil, err
				}
				defer sem.V(1)
				return obj.runUnit(ctx, unit, fn)
			}))
		}

		var reterr error
		for j, f := range futures {
			out, err := f.Wait(context.Background()) // units check ctx
			if err != nil {
				reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "function `%s`", level[j]))
				continue
			}
			current[level[j]] = out
		}
		if reterr != nil {
			return nil, reterr
		}
	}

	fns := []ir.Callable{}
	for _, fn := range module.Functions {
		fns = append(fns, current[fn.FuncName()])
	}
	return ir.NewModule(module.EntryName, fns...), nil
}

// runUnit runs the passes for the kind of function.
func (obj *PassManager) runUnit(ctx context.Context, sess *interfaces.Session, fn ir.Callable) (ir.Callable, error) {
	// type the unit even without passes, its callers read the types
	if err := sess.TypeInferencer.Infer(fn); err != nil {
		return nil, errwrap.Wrapf(err, "function is not well typed")
	}
	switch x := fn.(type) {
	case *ir.Function:
		cur := x
		for _, pass := range obj.FunctionPasses {
			out, err := Run(ctx, sess, pass, cur)
			if err != nil {
				return nil, err
			}
			cur = out
		}
		return cur, nil

	case *ir.PrimFunction:
		cur := x
		for _, pass := range obj.PrimFunctionPasses {
			out, err := Run(ctx, sess, pass, cur)
			if err != nil {
				return nil, err
			}
			cur = out
		}
		return cur, nil
	}
	return nil, fmt.Errorf("unknown function kind %T", fn)
}

// relink replaces the references to other module functions inside fn with the
// current version of those functions.
func relink(fn ir.Callable, current map[string]ir.Callable) (ir.Callable, error) {
	name := fn.FuncName()
	rewriter := &ir.Rewriter{
		Fn: func(expr ir.Expr) (ir.Expr, error) {
			c, ok := expr.(ir.Callable)
			if !ok || c.FuncName() == name {
				return nil, nil
			}
			if next, exists := current[c.FuncName()]; exists && next != expr {
				return next, nil
			}
			return nil, nil
		},
	}
	out, err := rewriter.Rewrite(fn)
	if err != nil {
		return nil, err
	}
	if !rewriter.IsMutated() {
		return fn, nil
	}
	return out.(ir.Callable), nil
}

// Levels sorts the functions of a module by their calls. Level zero holds the
// functions which call no other module function, and every other function is
// one level above the deepest function it calls. Each level is sorted by name.
// A cycle of calls is an error.
func Levels(module *ir.Module) ([][]string, error) {
	calls := make(map[string][]string)
	for _, fn := range module.Functions {
		name := fn.FuncName()
		seen := make(map[string]struct{})
		err := ir.Walk(fn.FuncBody(), func(expr ir.Expr) error {
			c, ok := expr.(ir.Callable)
			if !ok {
				return nil
			}
			callee := c.FuncName()
			if module.Index(callee) < 0 {
				return nil
			}
			if _, exists := seen[callee]; !exists {
				seen[callee] = struct{}{}
				calls[name] = append(calls[name], callee)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int)
	level := make(map[string]int)
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("recursive call through `%s`", name)
		case visited:
			return nil
		}
		state[name] = visiting
		l := 0
		for _, callee := range calls[name] {
			if err := visit(callee); err != nil {
				return err
			}
			if level[callee]+1 > l {
				l = level[callee] + 1
			}
		}
		level[name] = l
		state[name] = visited
		return nil
	}

	maxLevel := -1
	for _, fn := range module.Functions {
		if err := visit(fn.FuncName()); err != nil {
			return nil, err
		}
		if l := level[fn.FuncName()]; l > maxLevel {
			maxLevel = l
		}
	}
	levels := make([][]string, maxLevel+1)
	for _, fn := range module.Functions {
		l := level[fn.FuncName()]
		levels[l] = append(levels[l], fn.FuncName())
	}
	for _, l := range levels {
		sort.Strings(l)
	}
	return levels, nil
}
