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
	"strings"
)

// Dump returns a multi line listing of the expression which is used by the dump
// sink. Every composite node gets a number so that shared nodes are only
// printed once, and every line shows the checked type if it is known.
//
// Example:
//
//	func @main(var(x): f32[2]) : fn(f32[2]) -> f32[2] {
//	  %0 = call:add(var(x), const(f32[]{1})) : f32[2]
//	  return %0
//	}
func Dump(expr Expr) string {
	p := &printer{
		names: make(map[Expr]string),
	}
	if fn, ok := expr.(Callable); ok {
		p.function(fn, "")
	} else {
		p.line("", "return %s", p.ref(expr, ""))
	}
	return p.b.String()
}

type printer struct {
	b     strings.Builder
	names map[Expr]string
	count int
}

func (obj *printer) line(indent, format string, v ...interface{}) {
	obj.b.WriteString(indent)
	obj.b.WriteString(fmt.Sprintf(format, v...))
	obj.b.WriteString("\n")
}

func typeSuffix(expr Expr) string {
	if typ := expr.CheckedType(); typ != nil {
		return " : " + typ.String()
	}
	return ""
}

func (obj *printer) function(fn Callable, indent string) {
	kind := "func"
	if _, ok := fn.(*PrimFunction); ok {
		kind = "primfunc"
	}
	params := []string{}
	for _, p := range fn.FuncParams() {
		s := p.String()
		if v, ok := p.(*Var); ok && v.TypeAnnotation != nil {
			s += ": " + v.TypeAnnotation.String()
		}
		params = append(params, s)
	}
	obj.line(indent, "%s @%s(%s)%s {", kind, fn.FuncName(), strings.Join(params, ", "), typeSuffix(fn))
	body := obj.ref(fn.FuncBody(), indent+"  ")
	obj.line(indent+"  ", "return %s", body)
	obj.line(indent, "}")
}

// ref prints any composite nodes that expr needs and returns how to refer to
// it. Leaves are printed inline.
func (obj *printer) ref(expr Expr, indent string) string {
	if name, exists := obj.names[expr]; exists {
		return name
	}
	switch x := expr.(type) {
	case *Call:
		target := targetName(x.Target)
		if _, ok := x.Target.(*Call); ok {
			target = obj.ref(x.Target, indent)
		}
		args := []string{}
		for _, a := range x.Args {
			args = append(args, obj.ref(a, indent))
		}
		return obj.define(expr, indent, fmt.Sprintf("call:%s(%s)", target, strings.Join(args, ", ")))

	case *Tuple:
		fields := []string{}
		for _, f := range x.Fields {
			fields = append(fields, obj.ref(f, indent))
		}
		return obj.define(expr, indent, fmt.Sprintf("tuple(%s)", strings.Join(fields, ", ")))

	case Callable:
		if _, exists := obj.names[expr]; !exists {
			obj.names[expr] = "@" + x.FuncName()
		}
		return obj.names[expr]
	}
	return expr.String()
}

func (obj *printer) define(expr Expr, indent, s string) string {
	name := fmt.Sprintf("%%%d", obj.count)
	obj.count++
	obj.names[expr] = name
	obj.line(indent, "%s = %s%s", name, s, typeSuffix(expr))
	return name
}
