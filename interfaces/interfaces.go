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

// Package interfaces contains the interfaces of the collaborators of the
// rewrite core, and the compile session which carries them to every pass.
package interfaces

import (
	"context"
	"time"

	"github.com/purpleidea/nnc/ir"
)

// Importer reads a model in some input format and builds an IR module.
type Importer interface {
	// Format returns the name of the input format, eg: `ir`.
	Format() string

	// Import parses the data into a module.
	Import(ctx context.Context, data []byte) (*ir.Module, error)
}

// Target describes a compilation target.
type Target interface {
	// Name returns the name of the target, eg: `cpu`.
	Name() string

	// ModuleKind returns the kind tag of the modules built for it.
	ModuleKind() string

	// ModuleVersion returns the version of the module format.
	ModuleVersion() uint32

	// Alignment returns the alignment of the code section in bytes.
	Alignment() uint32
}

// Evaluator computes the value of an expression which is known to be fully
// constant. Calling it on anything else is an error.
type Evaluator interface {
	Evaluate(expr ir.Expr) (ir.Value, error)
}

// TypeInferencer fills in the checked type of every node of an expression.
type TypeInferencer interface {
	Infer(expr ir.Expr) error
}

// Dumper writes a textual listing of an expression. Failures are logged by the
// implementation and never returned.
type Dumper interface {
	// Dump writes the expression under that label.
	Dump(expr ir.Expr, label string)

	// Unit returns a dumper which writes into a sub directory named after
	// the unit, usually a function name.
	Unit(name string) Dumper
}

// Metrics receives the statistics of a compilation.
type Metrics interface {
	// PassRun records a pass run over a unit.
	PassRun(pass string, duration time.Duration, err error)

	// RuleFired records a rewrite rule which replaced an expression.
	RuleFired(rule string)

	// MutatorApplied records a mutation that was accepted.
	MutatorApplied(mutator string)

	// Iterations records the number of rounds a fixpoint loop needed.
	Iterations(pass string, n int)
}
