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
	"github.com/purpleidea/nnc/pattern"
	"github.com/purpleidea/nnc/util/errwrap"
)

// DataFlowPass runs a list of rewrite rules over the body of a function until
// no rule fires anymore. At each node the rules are tried in order, and the
// first one that proposes a replacement wins. A call of a function with literal
// arguments that no rule replaced is then offered as the specialized function
// to the rules which match functions. After every round that changed something,
// the function has to pass type inference again.
type DataFlowPass struct {
	Base[*ir.Function]

	Rules []Rule
}

// NewDataFlowPass builds a pass with these rules.
func NewDataFlowPass(name string, rules ...Rule) *DataFlowPass {
	if name == "" {
		name = "dataflow"
	}
	r := make([]Rule, len(rules))
	copy(r, rules)
	return &DataFlowPass{
		Base:  Base[*ir.Function]{PassName: name},
		Rules: r,
	}
}

// RunCore rewrites the function to a fixpoint.
func (obj *DataFlowPass) RunCore(ctx context.Context, sess *interfaces.Session, fn *ir.Function) (*ir.Function, error) {
	if err := sess.TypeInferencer.Infer(fn); err != nil {
		return nil, errwrap.Wrapf(err, "function `%s` is not well typed", fn.Name)
	}

	cur := fn
	iterations := 0
	defer func() {
		if sess.Metrics != nil {
			sess.Metrics.Iterations(obj.Name(), iterations)
		}
	}()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rewriter := &ir.Rewriter{
			Fn: func(expr ir.Expr) (ir.Expr, error) {
				// function values are units of their own
				if _, ok := expr.(ir.Callable); ok {
					return nil, nil
				}
				out, err := ApplyFirst(sess, obj.Rules, expr)
				if err != nil || out != nil {
					return out, err
				}
				return obj.applySpecialized(sess, expr)
			},
		}
		body, err := rewriter.Rewrite(cur.Body)
		if err != nil {
			return nil, err
		}
		if !rewriter.IsMutated() {
			break // converged
		}
		if err := checkIterations(sess, obj.Name(), iterations); err != nil {
			return nil, err
		}

		candidate := ir.NewFunction(cur.Name, cur.Params, body)
		if err := checkChange(sess, cur, candidate, obj.Name()); err != nil {
			return nil, err
		}
		sess.Dump(interfaces.DumpPassIR, candidate, fmt.Sprintf("%d_%s", iterations, obj.Name()))
		iterations++
		cur = candidate
	}
	if sess.Debug {
		sess.Logf("%s: converged after %d iterations", obj.Name(), iterations)
	}
	return cur, nil
}

// applySpecialized offers the specialization of a call to the rules whose
// pattern matches a function. The replacement stands for the value of the call.
func (obj *DataFlowPass) applySpecialized(sess *interfaces.Session, expr ir.Expr) (ir.Expr, error) {
	call, ok := expr.(*ir.Call)
	if !ok {
		return nil, nil
	}
	rules := []Rule{}
	for _, rule := range obj.Rules {
		if _, ok := rule.Pattern().(*pattern.FunctionPattern); ok {
			rules = append(rules, rule)
		}
	}
	if len(rules) == 0 {
		return nil, nil
	}
	fn, ok, err := ir.Specialize(call)
	if err != nil || !ok {
		return nil, err
	}
	return ApplyFirst(sess, rules, fn)
}
