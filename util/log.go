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

package util

// PrefixLogf returns a logf function which prepends the prefix to every
// message. A nil logf produces a function which discards everything.
func PrefixLogf(prefix string, logf func(format string, v ...interface{})) func(format string, v ...interface{}) {
	if logf == nil {
		return func(format string, v ...interface{}) {}
	}
	return func(format string, v ...interface{}) {
		logf(prefix+format, v...)
	}
}
