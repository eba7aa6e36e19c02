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

// Package dump writes the listings of intermediate results to a file system.
package dump

import (
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/ir"

	"github.com/spf13/afero"
)

const (
	// Dir is the directory under the dump root where everything goes.
	Dir = "dump"

	// Ext is the extension of the listing files.
	Ext = ".il"
)

// Dumper writes listings into <root>/dump/<unit>/<label>.il. Writing the same
// label twice adds a counter to the name instead of overwriting the first file.
// Errors are logged and never returned.
type Dumper struct {
	Fs   afero.Fs
	Root string

	Debug bool
	Logf  func(format string, v ...interface{})

	unit  string
	state *state
}

// state is shared by a dumper and all of its units.
type state struct {
	mutex sync.Mutex
	seen  map[string]int
}

// New builds a dumper that writes below root. Its units share the label
// counters, so they can be used from concurrent goroutines.
func New(fs afero.Fs, root string, logf func(format string, v ...interface{})) *Dumper {
	return &Dumper{
		Fs:   fs,
		Root: root,
		Logf: logf,
		state: &state{
			seen: make(map[string]int),
		},
	}
}

// Unit returns a dumper for the sub directory of the unit.
func (obj *Dumper) Unit(name string) interfaces.Dumper {
	return &Dumper{
		Fs:    obj.Fs,
		Root:  obj.Root,
		Debug: obj.Debug,
		Logf:  obj.Logf,
		unit:  path.Join(obj.unit, safeName(name)),
		state: obj.state,
	}
}

// Dump writes the listing of the expression.
func (obj *Dumper) Dump(expr ir.Expr, label string) {
	p, err := obj.Write(label, ir.Dump(expr))
	if err != nil {
		if obj.Logf != nil {
			obj.Logf("dump of `%s` failed: %+v", label, err)
		}
		return
	}
	if obj.Debug && obj.Logf != nil {
		obj.Logf("dumped: %s", p)
	}
}

// Write stores the text under the label and returns the path it used.
func (obj *Dumper) Write(label, text string) (string, error) {
	if obj.Fs == nil {
		return "", fmt.Errorf("no file system")
	}
	if obj.state == nil {
		return "", fmt.Errorf("dumper was not built with New")
	}
	dir := path.Join(obj.Root, Dir, obj.unit)
	p := path.Join(dir, safeName(label))

	obj.state.mutex.Lock()
	n := obj.state.seen[p]
	obj.state.seen[p]++
	obj.state.mutex.Unlock()
	if n > 0 {
		p = fmt.Sprintf("%s_%d", p, n)
	}
	p += Ext

	if err := obj.Fs.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	if err := afero.WriteFile(obj.Fs, p, []byte(text), os.FileMode(0644)); err != nil {
		return "", err
	}
	return p, nil
}

// safeName keeps a name from escaping its directory.
func safeName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" {
		return "_"
	}
	return name
}
