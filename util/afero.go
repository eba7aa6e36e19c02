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

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// FsTree returns a string representation of the file system tree similar to the
// well-known `tree` command. Entries are listed in name order.
func FsTree(fs afero.Fs, name string) (string, error) {
	b := &strings.Builder{}
	b.WriteString(".\n") // top level dir
	if err := stringify(b, fs, path.Clean(name), []bool{}); err != nil {
		return "", err
	}
	return b.String(), nil
}

func stringify(b *strings.Builder, fs afero.Fs, name string, indent []bool) error {
	dir, err := fs.Open(name)
	if err != nil {
		return err
	}
	fileinfo, err := dir.Readdir(-1)
	dir.Close()
	if err != nil && err != io.EOF {
		return err
	}
	sort.Slice(fileinfo, func(i, j int) bool {
		return fileinfo[i].Name() < fileinfo[j].Name()
	})

	for i, fi := range fileinfo {
		for _, last := range indent {
			if last {
				b.WriteString("    ")
			} else {
				b.WriteString("│   ")
			}
		}

		header := "├── "
		last := i == len(fileinfo)-1
		if last {
			header = "└── "
		}

		p := fi.Name()
		if fi.IsDir() {
			p += "/" // identify as a dir
		}
		fmt.Fprintf(b, "%s%s\n", header, p)
		if !fi.IsDir() {
			continue
		}
		indented := append(append([]bool{}, indent...), last)
		if err := stringify(b, fs, path.Join(name, p), indented); err != nil {
			return err
		}
	}
	return nil
}
