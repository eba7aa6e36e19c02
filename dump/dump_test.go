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

package dump

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"
	"github.com/purpleidea/nnc/ir/ops"
	"github.com/purpleidea/nnc/ir/types"
	"github.com/purpleidea/nnc/util"

	"github.com/spf13/afero"
)

func TestDumper0(t *testing.T) {
	fs := afero.NewMemMapFs()
	logs := []string{}
	d := New(fs, "/tmp/out", func(format string, v ...interface{}) {
		logs = append(logs, fmt.Sprintf(format, v...))
	})
	var dumper interfaces.Dumper = d

	x := ir.NewVar("x", types.NewType("f32[2]"))
	fn := ir.NewFunction("main", []ir.Expr{x}, ir.NewCall(ops.Neg, x))

	dumper.Dump(fn, "ir_import")
	unit := dumper.Unit("main")
	unit.Dump(fn, "1_fold")
	unit.Dump(fn, "1_fold")
	unit.Dump(fn, "../escape")

	tree, err := util.FsTree(fs, "/tmp/out")
	if err != nil {
		t.Errorf("tree failed: %+v", err)
		return
	}
	exp := strings.Join([]string{
		".",
		"└── dump/",
		"    ├── ir_import.il",
		"    └── main/",
		"        ├── 1_fold.il",
		"        ├── 1_fold_1.il",
		"        └── __escape.il",
		"",
	}, "\n")
	if tree != exp {
		t.Errorf("unexpected tree, expected:\n%s\ngot:\n%s", exp, tree)
	}

	data, err := afero.ReadFile(fs, "/tmp/out/dump/main/1_fold.il")
	if err != nil {
		t.Errorf("read failed: %+v", err)
		return
	}
	if string(data) != ir.Dump(fn) {
		t.Errorf("unexpected content:\n%s", data)
	}
	if len(logs) != 0 {
		t.Errorf("unexpected logs: %v", logs)
	}
}

func TestDumperErrors0(t *testing.T) {
	logs := []string{}
	d := New(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/", func(format string, v ...interface{}) {
		logs = append(logs, fmt.Sprintf(format, v...))
	})
	d.Dump(ir.NewVar("x", types.NewType("f32[]")), "label") // must not panic
	if len(logs) != 1 {
		t.Errorf("expected the failure to be logged, got: %v", logs)
	}
}

// TestDumperConcurrent0 dumps the same label from units built in parallel. No
// file may be overwritten.
func TestDumperConcurrent0(t *testing.T) {
	const n = 8
	fs := afero.NewMemMapFs()
	d := New(fs, "/", t.Logf)
	x := ir.NewVar("x", types.NewType("f32[]"))

	wg := &sync.WaitGroup{}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Unit("u").Dump(x, "label")
		}()
	}
	wg.Wait()

	files, err := afero.ReadDir(fs, "/dump/u")
	if err != nil {
		t.Errorf("read dir failed: %+v", err)
		return
	}
	if len(files) != n {
		t.Errorf("expected %d files, got %d", n, len(files))
	}
}

func TestDumperZero0(t *testing.T) {
	d := &Dumper{Fs: afero.NewMemMapFs()}
	if _, err := d.Write("label", "text"); err == nil {
		t.Errorf("expected an error from a dumper not built with New")
	}
}
