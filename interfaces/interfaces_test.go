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
	"fmt"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"gopkg.in/yaml.v2"
)

func TestDumpFlags0(t *testing.T) {
	type test struct { // an individual test
		name  string
		level int
		exp   DumpFlags
	}
	testCases := []test{}
	testCases = append(testCases, test{"none", 0, DumpNone})
	testCases = append(testCases, test{"import", 1, DumpImportOps})
	testCases = append(testCases, test{"pass", 2, DumpImportOps | DumpPassIR})
	testCases = append(testCases, test{"rewrite", 3, DumpImportOps | DumpPassIR | DumpRewrite})
	testCases = append(testCases, test{"above", 7, DumpImportOps | DumpPassIR | DumpRewrite})

	for index, tc := range testCases { // run all the tests
		name, level, exp := tc.name, tc.level, tc.exp
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			if got := DumpFlagsFromLevel(level); got != exp {
				t.Errorf("test #%d: expected %s, got %s", index, exp, got)
			}
		})
	}
}

func TestParseDumpFlags0(t *testing.T) {
	flags, err := ParseDumpFlags([]string{"pass_ir", "REWRITE"})
	if err != nil {
		t.Errorf("parse failed: %+v", err)
		return
	}
	if !flags.Has(DumpPassIR|DumpRewrite) || flags.Has(DumpImportOps) {
		t.Errorf("unexpected flags: %s", flags)
	}
	if s := flags.String(); s != "pass_ir|rewrite" {
		t.Errorf("unexpected string: %s", s)
	}
	if _, err := ParseDumpFlags([]string{"nope"}); err == nil {
		t.Errorf("expected error for an unknown flag")
	}
}

func TestOptionsYAML0(t *testing.T) {
	data := `
max_iterations: 7
workers: 2
mutators:
  - simplify_arith
dump_flags: [import_ops, pass_ir]
`
	opts := DefaultOptions()
	if err := yaml.Unmarshal([]byte(data), opts); err != nil {
		t.Errorf("unmarshal failed: %+v", err)
		return
	}
	exp := DefaultOptions()
	exp.MaxIterations = 7
	exp.Workers = 2
	exp.Mutators = []string{"simplify_arith"}
	exp.DumpFlags = DumpImportOps | DumpPassIR
	if diff := pretty.Compare(exp, opts); diff != "" {
		t.Errorf("options did not match (-want +got):\n%s", diff)
	}
}

func TestSessionScope0(t *testing.T) {
	logs := []string{}
	sess := &Session{
		Options: DefaultOptions(),
		Logf: func(format string, v ...interface{}) {
			logs = append(logs, fmt.Sprintf(format, v...))
		},
	}
	scoped := sess.Scope()
	scoped.Options.Mutators[0] = "changed"
	scoped.Options.MaxIterations = 1
	if sess.Options.Mutators[0] == "changed" || sess.Options.MaxIterations == 1 {
		t.Errorf("scope leaked changes into the parent session")
	}

	sess.Unit("main").Logf("hello %d", 42)
	if len(logs) != 1 || logs[0] != "@main: hello 42" {
		t.Errorf("unexpected logs: %v", logs)
	}
	if err := sess.Validate(); err == nil {
		t.Errorf("expected error for missing collaborators")
	}
}
