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

package transform_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/ops"
	"github.com/purpleidea/nnc/ir/types"
	"github.com/purpleidea/nnc/transform"
	"github.com/purpleidea/nnc/transform/mutators"

	"github.com/kylelemons/godebug/pretty"
)

// funcMutator is a test mutator built from a function.
type funcMutator struct {
	fn func(ir.Expr) (ir.Expr, bool, error)
}

func (obj *funcMutator) Visit(expr ir.Expr) (ir.Expr, bool, error) { return obj.fn(expr) }

func factoryOf(fn func(ir.Expr) (ir.Expr, bool, error)) transform.MutatorFactory {
	return func(*interfaces.Session, ...interface{}) (transform.Mutator, error) {
		return &funcMutator{fn: fn}, nil
	}
}

// primFunc builds: f(x: f32[2]) = (x * 1 + 0, (2, 3), g(x)) with g(y) = y +
// mul(2, 3).
func primFunc() *ir.PrimFunction {
	y := ir.NewVar("y", types.NewType("f32[2]"))
	g := ir.NewFunction("g", []ir.Expr{y}, ir.NewCall(ops.Add, y,
		ir.NewCall(ops.Mul, scalar(types.DTypeFloat32, 2), scalar(types.DTypeFloat32, 3))))

	x := ir.NewVar("x", types.NewType("f32[2]"))
	one := ir.NewConst(ir.MustTensor(types.DTypeFloat32, []int{2}, 1, 1))
	zero := ir.NewConst(ir.MustTensor(types.DTypeFloat32, []int{2}, 0, 0))
	body := ir.NewTuple(
		ir.NewCall(ops.Add, ir.NewCall(ops.Mul, x, one), zero),
		ir.NewTuple(scalar(types.DTypeInt64, 2), scalar(types.DTypeInt64, 3)),
		ir.NewCall(g, x),
	)
	return ir.NewPrimFunction("f", []ir.Expr{x}, body)
}

func defaultPrimPass(t *testing.T) *transform.PrimFuncPass {
	pass := transform.NewPrimFuncPass("")
	if err := mutators.AddAll(pass, interfaces.DefaultOptions().Mutators); err != nil {
		t.Fatalf("can't add mutators: %+v", err)
	}
	return pass
}

func TestPrimFuncPass0(t *testing.T) {
	sess := testSession(t)
	dumper := newRecordingDumper()
	sess.Dumper = dumper
	sess.Options.DumpFlags = interfaces.DumpPassIR
	metrics := newCountingMetrics()
	sess.Metrics = metrics

	fn := primFunc()
	out, err := transform.Run(context.Background(), sess, defaultPrimPass(t), fn)
	if err != nil {
		t.Errorf("pass failed: %+v", err)
		return
	}

	x := fn.Params[0]
	exp := ir.NewPrimFunction("f", []ir.Expr{x}, ir.NewTuple(
		x,
		ir.NewConstTuple(scalar(types.DTypeInt64, 2), scalar(types.DTypeInt64, 3)),
		ir.NewCall(ops.Add, x, scalar(types.DTypeFloat32, 6)),
	))
	mustEqual(t, exp, out)

	labels := dumper.Labels()
	if len(labels) < 3 || labels[0] != "/primfunc_before" || labels[len(labels)-1] != "/primfunc_after" {
		t.Errorf("unexpected dump labels: %v", labels)
	}
	if len(labels) > 2 && !strings.HasPrefix(labels[1], "/0_") {
		t.Errorf("the first rewrite is not numbered zero: %v", labels)
	}
	for _, name := range []string{"simplify_arith", "fold_const_tuple", "inline_call", "fold_const_call"} {
		if metrics.mutators[name] == 0 {
			t.Errorf("mutator %s was not applied", name)
		}
	}
}

// TestPrimFuncDeterminism0 runs the pass twice on the same input, and then on
// its own output.
func TestPrimFuncDeterminism0(t *testing.T) {
	sess := testSession(t)
	fn := primFunc()
	pass := defaultPrimPass(t)

	first, err := transform.Run(context.Background(), sess, pass, fn)
	if err != nil {
		t.Errorf("first run failed: %+v", err)
		return
	}
	second, err := transform.Run(context.Background(), sess, pass, fn)
	if err != nil {
		t.Errorf("second run failed: %+v", err)
		return
	}
	if a, b := ir.Dump(first), ir.Dump(second); a != b {
		t.Errorf("runs differ:\n%s", pretty.Compare(a, b))
	}

	metrics := newCountingMetrics()
	sess.Metrics = metrics
	again, err := transform.Run(context.Background(), sess, pass, first)
	if err != nil {
		t.Errorf("third run failed: %+v", err)
		return
	}
	if again != first {
		t.Errorf("a converged function changed again")
	}
	if len(metrics.mutators) != 0 {
		t.Errorf("a converged function was mutated: %v", metrics.mutators)
	}
}

// TestPrimFuncRestart0 checks that the mutator list starts over after each
// change.
func TestPrimFuncRestart0(t *testing.T) {
	sess := testSession(t)
	x := ir.NewVar("x", types.NewType("f32[]"))
	fn := ir.NewPrimFunction("f", []ir.Expr{x}, ir.NewCall(ops.Neg, ir.NewCall(ops.Neg, x)))

	trace := []string{}
	pass := transform.NewPrimFuncPass("")
	pass.Add("a", factoryOf(func(expr ir.Expr) (ir.Expr, bool, error) {
		trace = append(trace, "a")
		return expr, false, nil
	}))
	pass.Add("b", factoryOf(func(expr ir.Expr) (ir.Expr, bool, error) {
		trace = append(trace, "b")
		f := expr.(*ir.PrimFunction)
		call, ok := f.Body.(*ir.Call)
		if !ok {
			return expr, false, nil
		}
		// strip one neg
		return ir.NewPrimFunction(f.Name, f.Params, call.Args[0]), true, nil
	}))

	out, err := transform.Run(context.Background(), sess, pass, fn)
	if err != nil {
		t.Errorf("pass failed: %+v", err)
		return
	}
	mustEqual(t, ir.NewPrimFunction("f", []ir.Expr{x}, x), out)
	exp := []string{"a", "b", "a", "b", "a", "b"}
	if diff := pretty.Compare(exp, trace); diff != "" {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}
}

// TestPrimFuncTypeInvariant0 checks that an ill typed change aborts the pass.
func TestPrimFuncTypeInvariant0(t *testing.T) {
	type test struct { // an individual test
		name string
		fn   func(ir.Expr) (ir.Expr, bool, error)
	}
	testCases := []test{}
	testCases = append(testCases, test{
		name: "dtype mismatch",
		fn: func(expr ir.Expr) (ir.Expr, bool, error) {
			f := expr.(*ir.PrimFunction)
			body := ir.NewCall(ops.Add, f.Body, scalar(types.DTypeInt64, 1))
			return ir.NewPrimFunction(f.Name, f.Params, body), true, nil
		},
	})
	testCases = append(testCases, test{
		name: "type change",
		fn: func(expr ir.Expr) (ir.Expr, bool, error) {
			f := expr.(*ir.PrimFunction)
			return ir.NewPrimFunction(f.Name, f.Params, scalar(types.DTypeInt64, 1)), true, nil
		},
	})
	testCases = append(testCases, test{
		name: "not a function",
		fn: func(expr ir.Expr) (ir.Expr, bool, error) {
			return scalar(types.DTypeFloat32, 1), true, nil
		},
	})

	for index, tc := range testCases { // run all the tests
		name, fn := tc.name, tc.fn
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			sess := testSession(t)
			x := ir.NewVar("x", types.NewType("f32[2]"))
			prim := ir.NewPrimFunction("f", []ir.Expr{x}, ir.NewCall(ops.Neg, x))

			calls := 0
			pass := transform.NewPrimFuncPass("")
			pass.Add("bad", factoryOf(func(expr ir.Expr) (ir.Expr, bool, error) {
				calls++
				return fn(expr)
			}))
			_, err := transform.Run(context.Background(), sess, pass, prim)
			if !errors.Is(err, transform.ErrTypeInvariant) {
				t.Errorf("test #%d: expected a type invariant error, got: %+v", index, err)
			}
			if calls != 1 {
				t.Errorf("test #%d: the failure was retried %d times", index, calls-1)
			}
		})
	}
}

// TestPrimFuncNoFixpoint0 checks the iteration cap with a mutator that never
// stops changing the function.
func TestPrimFuncNoFixpoint0(t *testing.T) {
	sess := testSession(t)
	sess.Options.MaxIterations = 5
	x := ir.NewVar("x", types.NewType("f32[]"))
	fn := ir.NewPrimFunction("f", []ir.Expr{x}, x)

	calls := 0
	pass := transform.NewPrimFuncPass("")
	pass.Add("grow", factoryOf(func(expr ir.Expr) (ir.Expr, bool, error) {
		calls++
		f := expr.(*ir.PrimFunction)
		return ir.NewPrimFunction(f.Name, f.Params, ir.NewCall(ops.Neg, f.Body)), true, nil
	}))
	_, err := transform.Run(context.Background(), sess, pass, fn)
	if !errors.Is(err, transform.ErrNoFixpoint) {
		t.Errorf("expected a fixpoint error, got: %+v", err)
	}
	if calls != 6 {
		t.Errorf("expected 6 activations, got %d", calls)
	}
}

// TestMutatorDescriptor0 checks that every activation gets a fresh, configured
// mutator.
func TestMutatorDescriptor0(t *testing.T) {
	sess := testSession(t)
	factory, err := mutators.Lookup("inline_call")
	if err != nil {
		t.Errorf("lookup failed: %+v", err)
		return
	}
	pass := transform.NewPrimFuncPass("")
	configured := 0
	instances := map[transform.Mutator]struct{}{}
	pass.Add("inline_call", factory, 1).Configure(func(m transform.Mutator) error {
		configured++
		instances[m] = struct{}{}
		if m.(*mutators.InlineCall).MaxNodes != 1 {
			return fmt.Errorf("args were not passed")
		}
		return nil
	})

	y := ir.NewVar("y", types.NewType("f32[]"))
	small := ir.NewFunction("small", []ir.Expr{y}, ir.NewCall(ops.Neg, y))
	x := ir.NewVar("x", types.NewType("f32[]"))
	fn := ir.NewPrimFunction("f", []ir.Expr{x}, ir.NewCall(small, x))

	out, err := transform.Run(context.Background(), sess, pass, fn)
	if err != nil {
		t.Errorf("pass failed: %+v", err)
		return
	}
	// the body of small has 3 nodes, more than the limit
	if out != fn {
		t.Errorf("a callee above the limit was inlined")
	}
	if configured != 1 || len(instances) != 1 {
		t.Errorf("expected one configured activation, got %d", configured)
	}

	if _, err := factory(sess, "nope"); err == nil {
		t.Errorf("expected error for a bad arg")
	}
	if _, err := mutators.Lookup("nope"); err == nil {
		t.Errorf("expected error for an unknown mutator")
	}
}
