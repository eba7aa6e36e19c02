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

package interfaces

import (
	"context"
	"fmt"

	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/util"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Session is the state of one compilation. It is passed explicitly to every
// pass, rule and mutator and is never stored globally. Passes treat it as read
// only, and use Scope to get a private copy when they need one.
type Session struct {
	Target         Target
	Options        *Options
	Evaluator      Evaluator
	TypeInferencer TypeInferencer

	// Dumper is optional. It is only used when the dump flags ask for it.
	Dumper Dumper

	// Metrics is optional.
	Metrics Metrics

	// Tracer is optional. A no-op tracer is used if it is nil.
	Tracer trace.Tracer

	Debug bool
	Logf  func(format string, v ...interface{})
}

// Validate checks that the mandatory collaborators are present.
func (obj *Session) Validate() error {
	if obj.Options == nil {
		return fmt.Errorf("the Options are missing")
	}
	if err := obj.Options.Validate(); err != nil {
		return err
	}
	if obj.Evaluator == nil {
		return fmt.Errorf("the Evaluator is missing")
	}
	if obj.TypeInferencer == nil {
		return fmt.Errorf("the TypeInferencer is missing")
	}
	if obj.Logf == nil {
		return fmt.Errorf("the Logf function is missing")
	}
	return nil
}

// Scope returns a copy of the session for one activation, such as one mutator
// run. The options are deep copied so the activation can't leak changes.
func (obj *Session) Scope() *Session {
	s := *obj
	s.Options = obj.Options.Copy()
	return &s
}

// Unit returns a scoped session for work on one named unit. Dumps go into a
// directory for that unit and log messages are prefixed with its name.
func (obj *Session) Unit(name string) *Session {
	s := obj.Scope()
	if obj.Dumper != nil {
		s.Dumper = obj.Dumper.Unit(name)
	}
	s.Logf = util.PrefixLogf("@"+name+": ", obj.Logf)
	return s
}

// Dump writes the expression if all of the flags are enabled.
func (obj *Session) Dump(flags DumpFlags, expr ir.Expr, label string) {
	if obj.Dumper == nil || obj.Options == nil || !obj.Options.DumpFlags.Has(flags) {
		return
	}
	obj.Dumper.Dump(expr, label)
}

// DumpEnabled returns true if dumps with these flags would be written.
func (obj *Session) DumpEnabled(flags DumpFlags) bool {
	return obj.Dumper != nil && obj.Options != nil && obj.Options.DumpFlags.Has(flags)
}

// StartSpan opens a tracing span.
func (obj *Session) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	tracer := obj.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return tracer.Start(ctx, name, opts...)
}
