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

// Package transform contains the pass framework of the compiler. A pass takes
// a subject (a module or a function), and returns a new subject without ever
// modifying the one it was given. The rewriting passes in here run either an
// ordered list of rules, or an ordered list of mutators, until the subject
// stops changing, and they check that every change keeps the IR well typed.
package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/util"
	"github.com/purpleidea/nnc/util/errwrap"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// ErrTypeInvariant is returned when a change made by a pass produced
	// an expression that fails type inference. This is an internal
	// compiler error and is never retried.
	ErrTypeInvariant = util.Error("type invariant violated")

	// ErrNoFixpoint is returned when a fixpoint loop exceeds the maximum
	// number of iterations.
	ErrNoFixpoint = util.Error("no fixpoint reached")
)

// Pass is a transformation of a subject of type T.
type Pass[T any] interface {
	// Name returns the name of the pass. It is used in dumps and logs.
	Name() string

	// OnStart runs before RunCore.
	OnStart(ctx context.Context, sess *interfaces.Session, subject T) error

	// RunCore does the actual work. It must not modify the subject, and
	// returns the new subject, which may be the same one.
	RunCore(ctx context.Context, sess *interfaces.Session, subject T) (T, error)

	// OnEnd runs after RunCore with its result.
	OnEnd(ctx context.Context, sess *interfaces.Session, subject T) error
}

// Base can be embedded in a pass to get the optional methods.
type Base[T any] struct {
	PassName string
}

// Name returns the name of the pass.
func (obj *Base[T]) Name() string { return obj.PassName }

// OnStart does nothing.
func (obj *Base[T]) OnStart(context.Context, *interfaces.Session, T) error { return nil }

// OnEnd does nothing.
func (obj *Base[T]) OnEnd(context.Context, *interfaces.Session, T) error { return nil }

// Run drives the lifecycle of a pass over the subject. It opens a tracing span,
// records the run in the metrics, and dumps the subject before and after the
// pass when the session asks for it.
func Run[T any](ctx context.Context, sess *interfaces.Session, pass Pass[T], subject T) (T, error) {
	name := pass.Name()
	ctx, span := sess.StartSpan(ctx, "pass/"+name)
	defer span.End()
	span.SetAttributes(attribute.String("nnc.pass", name))
	if fn, ok := any(subject).(ir.Callable); ok {
		span.SetAttributes(attribute.String("nnc.unit", fn.FuncName()))
	}

	start := time.Now()
	out, err := runPass(ctx, sess, pass, subject)
	if sess.Metrics != nil {
		sess.Metrics.PassRun(name, time.Since(start), err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var zero T
		return zero, errwrap.Wrapf(err, "pass `%s` failed", name)
	}
	return out, nil
}

func runPass[T any](ctx context.Context, sess *interfaces.Session, pass Pass[T], subject T) (T, error) {
	var zero T
	name := pass.Name()
	if sess.Debug {
		sess.Logf("pass %s: start", name)
		defer sess.Logf("pass %s: done", name)
	}
	dumpSubject(sess, subject, fmt.Sprintf("%s_before", name))

	if err := pass.OnStart(ctx, sess, subject); err != nil {
		return zero, errwrap.Wrapf(err, "start failed")
	}
	out, err := pass.RunCore(ctx, sess, subject)
	if err != nil {
		return zero, err
	}
	if err := pass.OnEnd(ctx, sess, out); err != nil {
		return zero, errwrap.Wrapf(err, "end failed")
	}

	dumpSubject(sess, out, fmt.Sprintf("%s_after", name))
	return out, nil
}

// dumpSubject writes the subject if pass dumps are on. A module is dumped one
// function at a time.
func dumpSubject(sess *interfaces.Session, subject any, label string) {
	if !sess.DumpEnabled(interfaces.DumpPassIR) {
		return
	}
	switch x := subject.(type) {
	case *ir.Module:
		for _, fn := range x.Functions {
			sess.Unit(fn.FuncName()).Dump(interfaces.DumpPassIR, fn, label)
		}
	case ir.Expr:
		sess.Dump(interfaces.DumpPassIR, x, label)
	}
}

// typeInvariant builds the error returned when a change broke the types.
func typeInvariant(err error, format string, v ...interface{}) error {
	return errwrap.Wrapf(errwrap.Append(ErrTypeInvariant, err), format, v...)
}

// checkChange type checks a candidate which replaces old. The candidate must
// pass type inference, and its type must still fit the type of old.
func checkChange(sess *interfaces.Session, old, candidate ir.Expr, by string) error {
	if err := sess.TypeInferencer.Infer(candidate); err != nil {
		return typeInvariant(err, "change by `%s`", by)
	}
	prev, next := old.CheckedType(), candidate.CheckedType()
	if prev == nil || next == nil {
		return nil
	}
	if prev.Compatible(next) != nil && next.Compatible(prev) != nil {
		err := fmt.Errorf("type changed from %s to %s", prev, next)
		return typeInvariant(err, "change by `%s`", by)
	}
	return nil
}

// checkIterations returns ErrNoFixpoint once the count reaches the cap.
func checkIterations(sess *interfaces.Session, pass string, count int) error {
	limit := sess.Options.MaxIterations
	if limit > 0 && count >= limit {
		return errwrap.Wrapf(ErrNoFixpoint, "pass `%s` still changing after %d iterations", pass, count)
	}
	return nil
}
