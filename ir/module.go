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

package ir

import (
	"fmt"
)

// Module is a compilation unit: a list of uniquely named functions, and the
// name of the entry function if there is one.
type Module struct {
	Functions []Callable

	// EntryName is the name of the entry function, or empty if the module
	// has no entry point.
	EntryName string
}

// NewModule builds a module out of a list of functions.
func NewModule(entry string, fns ...Callable) *Module {
	f := make([]Callable, len(fns))
	copy(f, fns)
	return &Module{
		Functions: f,
		EntryName: entry,
	}
}

// Validate checks that function names are unique and that the entry exists.
func (obj *Module) Validate() error {
	seen := make(map[string]struct{})
	for i, fn := range obj.Functions {
		if fn == nil {
			return fmt.Errorf("function %d is nil", i)
		}
		name := fn.FuncName()
		if name == "" {
			return fmt.Errorf("function %d has no name", i)
		}
		if _, exists := seen[name]; exists {
			return fmt.Errorf("duplicate function `%s`", name)
		}
		seen[name] = struct{}{}
	}
	if obj.EntryName == "" {
		return nil
	}
	if _, exists := seen[obj.EntryName]; !exists {
		return fmt.Errorf("entry function `%s` not found", obj.EntryName)
	}
	return nil
}

// Lookup returns the function with that name.
func (obj *Module) Lookup(name string) (Callable, error) {
	for _, fn := range obj.Functions {
		if fn.FuncName() == name {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("function `%s` not found", name)
}

// Index returns the position of the named function, or -1 if it's missing.
func (obj *Module) Index(name string) int {
	for i, fn := range obj.Functions {
		if fn.FuncName() == name {
			return i
		}
	}
	return -1
}

// Entry returns the entry function, or nil if there isn't one.
func (obj *Module) Entry() Callable {
	if obj.EntryName == "" {
		return nil
	}
	fn, err := obj.Lookup(obj.EntryName)
	if err != nil {
		return nil
	}
	return fn
}

// Copy returns a light copy of the module. The functions are shared, but the
// list can be modified without affecting the original.
func (obj *Module) Copy() *Module {
	return NewModule(obj.EntryName, obj.Functions...)
}
