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


// Package importer holds the registry of the model input formats.
package importer

import (
	"fmt"

	"github.com/purpleidea/nnc/interfaces"
	"github.com/purpleidea/nnc/util"
	"github.com/purpleidea/nnc/util/errwrap"
)

// ErrUnsupportedFormat is returned when no importer exists for a format.
const ErrUnsupportedFormat = util.Error("unsupported input format")

// foreignFormats are the formats a model may come in which aren't built in.
var foreignFormats = []string{"onnx", "tflite"}

// registeredImporters is the global map of all the importers. You should never
// touch this map directly. Use methods like Register instead.
var registeredImporters = make(map[string]func() interfaces.Importer) // must initialize

// Register takes an importer constructor and makes it available under the
// format name. There is no matching Unregister function.
func Register(format string, fn func() interfaces.Importer) {
	if _, exists := registeredImporters[format]; exists {
		panic(fmt.Sprintf("an importer for %s is already registered", format))
	}
	registeredImporters[format] = fn
}

// Lookup returns a new importer for the format. If there is none, the error
// wraps ErrUnsupportedFormat.
func Lookup(format string) (interfaces.Importer, error) {
	fn, exists := registeredImporters[format]
	if exists {
		return fn(), nil
	}
	if util.StrInList(format, foreignFormats) {
		return nil, errwrap.Wrapf(ErrUnsupportedFormat, "format `%s` is not built in", format)
	}
	return nil, errwrap.Wrapf(ErrUnsupportedFormat, "unknown format `%s`", format)
}

// Formats returns a sorted list of the registered format names.
func Formats() []string {
	return util.SortedStrMapKeys(registeredImporters)
}
