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

// Package test holds checks which run over the whole source tree, such as the
// license header and doc comment formatting rules.
package test

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/purpleidea/nnc/util/errwrap"
)

const (
	// CommentPrefix is the prefix of each line of a doc comment.
	CommentPrefix = "// "

	// StandardWidth is the column that doc comments wrap at.
	StandardWidth = 80

	// MaxLength is the length of the text of each doc comment line.
	MaxLength = StandardWidth - len(CommentPrefix)

	// HeaderName is the first line of every source file.
	HeaderName = "// Nnc"

	// HeaderLicense must appear in the leading comment of every source file.
	HeaderLicense = "GNU General Public License"
)

var numberBullet = regexp.MustCompile(`[0-9]+\)*`)

// SourceFiles returns every go file under root. Directories which the go tool
// ignores, and testdata, are skipped.
func SourceFiles(root string) ([]string, error) {
	files := []string{}
	fn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()
		if info.IsDir() {
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(name, ".go") {
			files = append(files, path)
		}
		return nil
	}
	if err := filepath.Walk(root, fn); err != nil {
		return nil, errwrap.Wrapf(err, "can't walk `%s`", root)
	}
	return files, nil
}

// CheckHeader errors if the source does not start with the license header.
func CheckHeader(src []byte) error {
	text := string(src)
	if !strings.HasPrefix(text, HeaderName+"\n") {
		return fmt.Errorf("missing header line `%s`", HeaderName)
	}
	end := strings.Index(text, "\n\n")
	if end == -1 || !strings.Contains(text[:end], HeaderLicense) {
		return fmt.Errorf("header has no license notice")
	}
	return nil
}

// CheckDocs parses a source file and checks the wrapping of every top level doc
// comment. All failures are returned together.
func CheckDocs(filename string, src []byte) error {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return errwrap.Wrapf(err, "can't parse")
	}

	var reterr error
	for _, decl := range f.Decls {
		var doc *ast.CommentGroup
		switch x := decl.(type) {
		case *ast.FuncDecl:
			doc = x.Doc
		case *ast.GenDecl:
			if x.Tok != token.IMPORT {
				doc = x.Doc
			}
		}
		if doc == nil {
			continue
		}

		where := fmt.Sprintf("%s:%d", filepath.Base(filename), fset.Position(doc.Pos()).Line)
		lines, err := docLines(doc)
		if err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "doc at %s", where))
			continue
		}
		if err := CheckWrap(lines, MaxLength); err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "doc at %s", where))
		}
	}
	return reterr
}

// docLines strips the comment markers. Block comments end the doc, since their
// layout is free form.
func docLines(doc *ast.CommentGroup) ([]string, error) {
	blank := strings.TrimSpace(CommentPrefix)
	lines := []string{}
	for _, c := range doc.List {
		if strings.HasPrefix(c.Text, "/*") {
			break
		}
		if c.Text == blank {
			lines = append(lines, "")
			continue
		}
		if strings.HasPrefix(c.Text, blank+"\t") { // code block
			lines = append(lines, strings.TrimPrefix(c.Text, blank))
			continue
		}
		if !strings.HasPrefix(c.Text, CommentPrefix) {
			return nil, fmt.Errorf("missing comment prefix")
		}
		lines = append(lines, strings.TrimPrefix(c.Text, CommentPrefix))
	}
	return lines, nil
}

// CheckWrap errors if a block of comment lines is not filled to length. A line
// is too short when the first word of the next line would have fit on it, and
// too long past length, unless it is a lone URL. At most one blank line may
// appear in a row. Lines of code start with a tab and are left alone. The lines
// must not contain their trailing newlines.
func CheckWrap(lines []string, length int) error {
	blank := false
	previous := length
	for i, line := range lines {
		n := i + 1
		if line == "" {
			if blank {
				return fmt.Errorf("line %d is a repeated blank line", n)
			}
			blank = true
			previous = length
			continue
		}
		blank = false

		if strings.HasPrefix(line, "\t") { // code is not filled
			previous = length
			continue
		}
		if line != strings.TrimSpace(line) {
			return fmt.Errorf("line %d has surrounding whitespace", n)
		}
		if strings.Contains(line, "  ") {
			return fmt.Errorf("line %d has a double space", n)
		}

		fields := strings.Fields(line)
		last := fields[len(fields)-1]
		head := strings.Join(fields[:len(fields)-1], " ")
		if len(line) > length && !IsURL(line) && !(len(head) <= length && IsURL(last)) {
			return fmt.Errorf("line %d is too long", n)
		}

		if !IsNewStart(fields[0]) && previous+len(" ")+len(fields[0]) <= length {
			return fmt.Errorf("line %d should be reflowed", n)
		}
		previous = len(line)
	}
	return nil
}

// IsNewStart returns true if the word may begin a line even when it would fit
// on the previous one.
func IsNewStart(word string) bool {
	switch word {
	case "TODO:", "FIXME:", "XXX:", "NOTE:", "Eg:", "Example:":
		return true
	case "https://", "http://", "*":
		return true
	}
	return numberBullet.MatchString(word)
}

// IsURL returns true for a line made up of a single url.
func IsURL(line string) bool {
	if len(strings.Fields(line)) != 1 {
		return false
	}
	return strings.HasPrefix(line, "https://") || strings.HasPrefix(line, "http://")
}
