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

// Package rules contains the rewrite rules of the data flow pass. Most of them
// fold constant expressions into literals.
package rules

import (
	"fmt"
	"reflect"

	"github.com/purpleidea/nnc/pattern"
	"github.com/purpleidea/nnc/transform"
	"github.com/purpleidea/nnc/util"

	"github.com/iancoleman/strcase"
)

// registeredRules is a global map of all the rules which can be looked up by
// name. You should never touch this map directly. Use methods like Register.
var registeredRules = make(map[string]func() transform.Rule) // must initialize

// Register makes a rule available by the name of the rule it builds. It is
// called in the init() method of the files in this package.
func Register(fn func() transform.Rule) {
	name := fn().Name()
	if _, exists := registeredRules[name]; exists {
		panic(fmt.Sprintf("a rule named %s is already registered", name))
	}
	registeredRules[name] = fn
}

// Lookup builds a new instance of the rule with that name.
func Lookup(name string) (transform.Rule, error) {
	fn, exists := registeredRules[name]
	if !exists {
		return nil, fmt.Errorf("rule `%s` not found", name)
	}
	return fn(), nil
}

// LookupAll builds the named rules in order.
func LookupAll(names []string) ([]transform.Rule, error) {
	out := []transform.Rule{}
	for _, name := range names {
		rule, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

// Names returns the sorted names of the registered rules.
func Names() []string {
	return util.SortedStrMapKeys(registeredRules)
}

// NameOf returns the snake case name of the type of a rule or mutator, eg:
// `fold_const_call` for a *FoldConstCall.
func NameOf(v interface{}) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return strcase.ToSnake(t.Name())
}

// allConst is the generator for argument lists which have to be literals.
func allConst() pattern.Pattern {
	return pattern.IsAlt(pattern.IsConst(), pattern.IsConstTuple())
}
