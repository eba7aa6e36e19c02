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
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxIterations is the fixpoint round cap used when none is set.
const DefaultMaxIterations = 1000

// DumpFlags selects which intermediate results get dumped.
type DumpFlags uint

const (
	// DumpNone disables all dumps.
	DumpNone DumpFlags = 0

	// DumpImportOps dumps the imported module before and after the
	// initial type inference.
	DumpImportOps DumpFlags = 1 << iota

	// DumpPassIR dumps every unit before and after each pass, and after
	// every accepted mutation.
	DumpPassIR

	// DumpRewrite dumps every rule firing.
	DumpRewrite
)

var dumpFlagNames = map[string]DumpFlags{
	"import_ops": DumpImportOps,
	"pass_ir":    DumpPassIR,
	"rewrite":    DumpRewrite,
}

// DumpFlagsFromLevel converts the numeric dump level of the cli into flags.
// Each level adds to the previous one.
func DumpFlagsFromLevel(level int) DumpFlags {
	flags := DumpNone
	if level >= 1 {
		flags |= DumpImportOps
	}
	if level >= 2 {
		flags |= DumpPassIR
	}
	if level >= 3 {
		flags |= DumpRewrite
	}
	return flags
}

// ParseDumpFlags builds the flags out of a list of names, eg: `pass_ir`. A
// number is accepted as a dump level.
func ParseDumpFlags(names []string) (DumpFlags, error) {
	flags := DumpNone
	for _, name := range names {
		if level, err := strconv.Atoi(name); err == nil {
			flags |= DumpFlagsFromLevel(level)
			continue
		}
		f, exists := dumpFlagNames[strings.ToLower(name)]
		if !exists {
			return DumpNone, fmt.Errorf("unknown dump flag `%s`", name)
		}
		flags |= f
	}
	return flags, nil
}

// Has returns true if all of the flags in f are set.
func (obj DumpFlags) Has(f DumpFlags) bool {
	return obj&f == f
}

// String returns the names of the flags joined by a pipe.
func (obj DumpFlags) String() string {
	names := []string{}
	for name, f := range dumpFlagNames {
		if obj.Has(f) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

// UnmarshalYAML reads the flags from a list of names.
func (obj *DumpFlags) UnmarshalYAML(unmarshal func(interface{}) error) error {
	names := []string{}
	if err := unmarshal(&names); err != nil {
		return err
	}
	flags, err := ParseDumpFlags(names)
	if err != nil {
		return err
	}
	*obj = flags
	return nil
}

// Options are the settings of a compilation. They can be read from a yaml file,
// and the cli overrides individual fields.
type Options struct {
	// MaxIterations caps the rounds of every fixpoint loop. Zero means no
	// limit.
	MaxIterations int `yaml:"max_iterations"`

	// Workers is the number of functions that are optimized at once.
	Workers int `yaml:"workers"`

	// Rules are the names of the rewrite rules of the data flow pass, in
	// the order they are tried.
	Rules []string `yaml:"rules"`

	// Mutators are the names of the mutators of the primitive function
	// pass, in the order they run.
	Mutators []string `yaml:"mutators"`

	DumpFlags DumpFlags `yaml:"dump_flags"`
}

// DefaultOptions returns the options used when nothing else is specified.
func DefaultOptions() *Options {
	return &Options{
		MaxIterations: DefaultMaxIterations,
		Workers:       runtime.NumCPU(),
		Rules: []string{
			"fold_const_call",
			"fold_const_function",
			"fold_shape_op",
			"fold_nop_reshape",
			"fold_const_tuple",
		},
		Mutators: []string{
			"fold_const_call",
			"simplify_arith",
			"fold_const_tuple",
			"inline_call",
		},
		DumpFlags: DumpNone,
	}
}

// Copy returns a deep copy of the options.
func (obj *Options) Copy() *Options {
	if obj == nil {
		return nil
	}
	return &Options{
		MaxIterations: obj.MaxIterations,
		Workers:       obj.Workers,
		Rules:         append([]string{}, obj.Rules...),
		Mutators:      append([]string{}, obj.Mutators...),
		DumpFlags:     obj.DumpFlags,
	}
}

// Validate checks the options.
func (obj *Options) Validate() error {
	if obj.MaxIterations < 0 {
		return fmt.Errorf("max iterations must not be negative")
	}
	if obj.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}
