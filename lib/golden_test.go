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


package lib

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/purpleidea/nnc/util"

	"github.com/spf13/afero"
	"golang.org/x/tools/txtar"
	"gopkg.in/yaml.v2"
)

// goldenHeader is the comment section of a golden archive.
type goldenHeader struct {
	Target    string `yaml:"target"`
	Format    string `yaml:"format"`
	DumpLevel int    `yaml:"dump-level"`

	// Error is a substring of the expected error. When it's set, the
	// compile must fail and must not write anything.
	Error string `yaml:"error"`
}

const (
	goldenDir      = "/work"
	goldenExpected = "expected/"
)

// TestGolden0 runs every archive in testdata. The archive holds the input and
// options files, and every file under expected/ must be produced exactly.
func TestGolden0(t *testing.T) {
	files, err := filepath.Glob("testdata/*.txtar")
	if err != nil {
		t.Errorf("glob failed: %+v", err)
		return
	}
	if len(files) == 0 {
		t.Errorf("no golden files found")
		return
	}

	for index, f := range files { // run all the tests
		name := strings.TrimSuffix(filepath.Base(f), ".txtar")
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			archive, err := txtar.ParseFile(f)
			if err != nil {
				t.Errorf("can't parse the archive: %+v", err)
				return
			}
			header := &goldenHeader{}
			if err := yaml.UnmarshalStrict(archive.Comment, header); err != nil {
				t.Errorf("can't parse the header: %+v", err)
				return
			}

			fs := afero.NewMemMapFs()
			expected := make(map[string]string)
			config := &Config{
				Target:      header.Target,
				InputFormat: header.Format,
				DumpLevel:   header.DumpLevel,
				DumpDir:     goldenDir,
			}
			for _, file := range archive.Files {
				if strings.HasPrefix(file.Name, goldenExpected) {
					expected[path.Join(goldenDir, strings.TrimPrefix(file.Name, goldenExpected))] = string(file.Data)
					continue
				}
				if file.Name == "options.yaml" {
					config.ConfigFile = path.Join(goldenDir, file.Name)
				}
				if err := afero.WriteFile(fs, path.Join(goldenDir, file.Name), file.Data, 0644); err != nil {
					t.Errorf("can't write %s: %+v", file.Name, err)
					return
				}
			}

			m := &Main{
				Config:  config,
				Program: "nnc",
				Version: "golden",
				Input:   path.Join(goldenDir, "input.yaml"),
				Output:  path.Join(goldenDir, "out.kmodel"),
				Fs:      fs,
				Logf: func(format string, v ...interface{}) {
					t.Logf(name+": "+format, v...)
				},
			}
			err = m.Validate()
			if err == nil {
				err = m.Init()
			}
			if err == nil {
				err = m.Run(context.Background())
			}

			if header.Error != "" {
				if err == nil || !strings.Contains(err.Error(), header.Error) {
					t.Errorf("expected an error with: %s, got: %v", header.Error, err)
				}
				if exists, _ := afero.Exists(fs, m.Output); exists {
					t.Errorf("the output should not exist")
				}
				return
			}
			if err != nil {
				t.Errorf("compile failed: %+v", err)
				return
			}

			if tree, err := util.FsTree(fs, goldenDir); err == nil {
				t.Logf("tree:\n%s", tree)
			}
			for _, p := range util.SortedStrMapKeys(expected) {
				data, err := afero.ReadFile(fs, p)
				if err != nil {
					t.Errorf("missing file %s: %+v", p, err)
					continue
				}
				if got, exp := string(data), expected[p]; got != exp {
					t.Errorf("file %s differs, expected:\n%s\ngot:\n%s", p, exp, got)
				}
			}
		})
	}
}
