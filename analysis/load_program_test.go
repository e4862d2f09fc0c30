// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package analysis

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadIRFiles(t *testing.T) {
	filename := filepath.Join("testdata", "program.jv")
	program, err := LoadProgram(LoadProgramOptions{}, []string{filename})
	if err != nil {
		t.Fatalf("error loading program: %v", err)
	}
	if len(program.Files) != 1 || len(program.Packages) != 0 {
		t.Fatalf("expected one ir file and no package, got %d files and %d packages",
			len(program.Files), len(program.Packages))
	}
	expected := map[string]bool{"first": false, "second": true, "third": false, "fourth": false}
	if len(program.Methods) != len(expected) {
		t.Fatalf("expected %d methods, got %d", len(expected), len(program.Methods))
	}
	for _, m := range program.Methods {
		ignored, ok := expected[m.Name]
		if !ok {
			t.Errorf("unexpected method %s", m.Name)
			continue
		}
		if m.Ignored != ignored {
			t.Errorf("method %s: expected ignored = %v", m.Name, ignored)
		}
		if program.IsIgnored(m.Method) != ignored {
			t.Errorf("method %s: IsIgnored does not match", m.Name)
		}
		if m.File != program.Files[0] || m.Lowered != nil {
			t.Errorf("method %s: expected an ir method", m.Name)
		}
	}
	pos := DirectivePos{Filename: filename, Line: 7}
	if d, ok := program.Directives[pos]; !ok || d.Kind != DirectiveIgnore {
		t.Errorf("expected an ignore directive for the method at %v, got %v", pos, program.Directives)
	}
	if len(program.Directives) != 1 {
		t.Errorf("expected exactly one directive, got %v", program.Directives)
	}
	if len(program.Lookup("third")) != 1 || len(program.Lookup("fifth")) != 0 {
		t.Errorf("unexpected lookup results")
	}
	if len(program.IRMethods()) != 4 {
		t.Errorf("expected 4 ir methods")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := LoadProgram(LoadProgramOptions{}, nil); err == nil {
		t.Errorf("expected an error when nothing is loaded")
	}
	_, err := LoadProgram(LoadProgramOptions{}, []string{"testdata/program.jv", "./..."})
	if err == nil || !strings.Contains(err.Error(), "together") {
		t.Errorf("expected an error mixing ir files and packages, got %v", err)
	}
	if _, err := LoadProgram(LoadProgramOptions{}, []string{"testdata/missing.jv"}); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestNewDirective(t *testing.T) {
	for text, valid := range map[string]bool{
		"//gflow:ignore":         true,
		"  //gflow:ignore ":      true,
		"//gflow:unknown":        false,
		"// gflow:ignore":        false,
		"//other:ignore":         false,
		"/* gflow:ignore */":     false,
		"// see //gflow:ignore":  false,
		"//gflow:ignore trailer": false,
	} {
		d, ok := NewDirective(text)
		if ok != valid {
			t.Errorf("NewDirective(%q): expected %v", text, valid)
		}
		if ok && d.Kind != DirectiveIgnore {
			t.Errorf("NewDirective(%q): unexpected kind %s", text, d.Kind)
		}
	}
}

func TestLoadPackages(t *testing.T) {
	program, err := LoadProgram(LoadProgramOptions{Dir: filepath.Join("testdata", "gomod")}, []string{"."})
	if err != nil {
		t.Fatalf("error loading packages: %v", err)
	}
	if len(program.Packages) != 1 {
		t.Fatalf("expected one package, got %d", len(program.Packages))
	}
	if len(program.Methods) != 2 {
		t.Fatalf("expected two lowered functions, got %d", len(program.Methods))
	}
	for _, m := range program.Methods {
		if m.Lowered == nil || m.Package != program.Packages[0] {
			t.Errorf("function %s: expected a lowered Go function", m.Name)
		}
		if m.Ignored != (m.Name == "ignored") {
			t.Errorf("function %s: unexpected ignored = %v", m.Name, m.Ignored)
		}
	}
	if len(program.Skipped) != 1 || program.Skipped[0].Name != "deferred" {
		t.Fatalf("expected deferred to be skipped, got %v", program.Skipped)
	}
	if !strings.Contains(program.Skipped[0].Error(), "defer statement") {
		t.Errorf("unexpected error for deferred: %v", program.Skipped[0])
	}
	if len(program.Directives) != 1 {
		t.Errorf("expected one directive, got %v", program.Directives)
	}
}
