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
	"sync"
	"testing"
	"time"

	"github.com/purpleidea/nnc/evaluator"
	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/types"
	"github.com/purpleidea/nnc/typeinfer"
)

// testSession builds a session with the reference collaborators.
func testSession(t *testing.T) *interfaces.Session {
	return &interfaces.Session{
		Options:        interfaces.DefaultOptions(),
		Evaluator:      &evaluator.Evaluator{},
		TypeInferencer: &typeinfer.Inferencer{},
		Debug:          testing.Verbose(),
		Logf: func(format string, v ...interface{}) {
			t.Logf("test: "+format, v...)
		},
	}
}

// recordingDumper keeps the labels it was asked to dump.
type recordingDumper struct {
	mutex  *sync.Mutex
	unit   string
	labels *[]string
}

func newRecordingDumper() *recordingDumper {
	return &recordingDumper{
		mutex:  &sync.Mutex{},
		labels: &[]string{},
	}
}

func (obj *recordingDumper) Dump(expr ir.Expr, label string) {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	*obj.labels = append(*obj.labels, obj.unit+"/"+label)
}

func (obj *recordingDumper) Unit(name string) interfaces.Dumper {
	return &recordingDumper{
		mutex:  obj.mutex,
		unit:   name,
		labels: obj.labels,
	}
}

func (obj *recordingDumper) Labels() []string {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	return append([]string{}, *obj.labels...)
}

// countingMetrics counts what it receives.
type countingMetrics struct {
	mutex    sync.Mutex
	passes   map[string]int
	rules    map[string]int
	mutators map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		passes:   make(map[string]int),
		rules:    make(map[string]int),
		mutators: make(map[string]int),
	}
}

func (obj *countingMetrics) PassRun(pass string, duration time.Duration, err error) {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	obj.passes[pass]++
}

func (obj *countingMetrics) RuleFired(rule string) {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	obj.rules[rule]++
}

func (obj *countingMetrics) MutatorApplied(mutator string) {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	obj.mutators[mutator]++
}

func (obj *countingMetrics) Iterations(pass string, n int) {}

func i64(data ...float64) *ir.Const {
	return ir.NewConst(ir.MustTensor(types.DTypeInt64, []int{len(data)}, data...))
}

func scalar(dtype types.DType, v float64) *ir.Const {
	return ir.NewConst(ir.NewScalar(dtype, v))
}

func mustEqual(t *testing.T, exp, got ir.Expr) {
	t.Helper()
	if !ir.Equal(exp, got) {
		t.Errorf("expressions differ\nexpected:\n%s\ngot:\n%s", dumpOf(exp), dumpOf(got))
	}
}

func dumpOf(expr ir.Expr) string {
	if expr == nil {
		return "<nil>"
	}
	return ir.Dump(expr)
}
