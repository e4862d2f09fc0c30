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
	"fmt"
	"go/scanner"
	"go/token"
	"os"
	"strings"

	"github.com/awslabs/ar-gflow/analysis/gofront"
	"github.com/awslabs/ar-gflow/analysis/ir"
	"github.com/awslabs/ar-gflow/analysis/irparse"
	"github.com/dave/dst/decorator"
	"golang.org/x/tools/go/packages"
)

// PkgLoadMode is the default loading mode of Go packages. Function bodies are lowered from their syntax, with the
// type information of their package.
const PkgLoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedTypesSizes |
	packages.NeedModule

// IRFileExt is the extension of the files in the textual form of the ir
const IRFileExt = ".jv"

// LoadProgramOptions configures LoadProgram
type LoadProgramOptions struct {
	// Dir is the directory Go packages are loaded from. Defaults to the current directory.
	Dir string
	// Platform sets GOOS when loading Go packages
	Platform string
	// LoadTests includes the test files of Go packages
	LoadTests bool
}

// Method is a method of a loaded program
type Method struct {
	*ir.Method
	// File is the ir file the method was parsed from, nil for a Go function
	File *ir.File
	// Lowered is the Go function the method was lowered from, nil for a method of an ir file
	Lowered *gofront.Lowered
	// Package is the package of a Go function
	Package *decorator.Package
	// Ignored is true when a directive excludes the method from optimization
	Ignored bool
}

// LoadError is a function of a Go package that could not be lowered into the ir
type LoadError struct {
	Name     string
	Position token.Position
	Err      error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Err)
}

// LoadedProgram represents a loaded program.
type LoadedProgram struct {
	// Files are the ir files of the program
	Files []*ir.File
	// Packages are the Go packages of the program
	Packages []*decorator.Package
	// Methods are all the methods of the program, in declaration order
	Methods []*Method
	// Skipped are the Go functions that could not be lowered
	Skipped []LoadError
	// Directives is a map from the position of a method to the directive that applies to it.
	Directives Directives
}

// IRMethods returns the ir methods of the program
func (p LoadedProgram) IRMethods() []*ir.Method {
	methods := make([]*ir.Method, len(p.Methods))
	for i, m := range p.Methods {
		methods[i] = m.Method
	}
	return methods
}

// Lookup returns the methods named name
func (p LoadedProgram) Lookup(name string) []*Method {
	var res []*Method
	for _, m := range p.Methods {
		if m.Name == name {
			res = append(res, m)
		}
	}
	return res
}

// IsIgnored reports whether the method m is excluded from optimization by a directive
func (p LoadedProgram) IsIgnored(m *ir.Method) bool {
	for _, x := range p.Methods {
		if x.Method == m {
			return x.Ignored
		}
	}
	return false
}

// LoadProgram loads the program designated by args. Arguments that all end with IRFileExt are parsed as ir files;
// otherwise they are Go package patterns, as documented by packages.Load.
func LoadProgram(options LoadProgramOptions, args []string) (LoadedProgram, error) {
	if len(args) == 0 {
		return LoadedProgram{}, fmt.Errorf("no files or packages to load")
	}
	irArgs := 0
	for _, arg := range args {
		if strings.HasSuffix(arg, IRFileExt) {
			irArgs++
		}
	}
	switch irArgs {
	case len(args):
		return loadIRFiles(args)
	case 0:
		return loadPackages(options, args)
	default:
		return LoadedProgram{}, fmt.Errorf("cannot load %s files and Go packages together", IRFileExt)
	}
}

func loadIRFiles(filenames []string) (LoadedProgram, error) {
	program := LoadedProgram{Directives: make(Directives)}
	for _, filename := range filenames {
		src, err := os.ReadFile(filename)
		if err != nil {
			return LoadedProgram{}, fmt.Errorf("failed to read file: %w", err)
		}
		f, err := irparse.ParseFile(filename, src)
		if err != nil {
			return LoadedProgram{}, fmt.Errorf("failed to parse file: %w", err)
		}
		program.Files = append(program.Files, f)
		directives := findIRDirectives(filename, src, f)
		for pos, d := range directives {
			program.Directives[pos] = d
		}
		for _, m := range f.Methods {
			_, ignored := directives[methodPos(filename, src, m)]
			program.Methods = append(program.Methods, &Method{Method: m, File: f, Ignored: ignored})
		}
	}
	return program, nil
}

func loadPackages(options LoadProgramOptions, patterns []string) (LoadedProgram, error) {
	config := &packages.Config{
		Mode:  PkgLoadMode,
		Tests: options.LoadTests,
		Dir:   options.Dir,
		Fset:  token.NewFileSet(),
	}
	if options.Platform != "" {
		config.Env = append(os.Environ(), fmt.Sprintf("GOOS=%s", options.Platform))
	}

	// load, parse, type check and decorate the given packages
	pkgs, err := decorator.Load(config, patterns...)
	if err != nil {
		return LoadedProgram{}, fmt.Errorf("failed to load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return LoadedProgram{}, fmt.Errorf("no packages")
	}
	loaded := make([]*packages.Package, len(pkgs))
	for i, pkg := range pkgs {
		loaded[i] = pkg.Package
	}
	if packages.PrintErrors(loaded) > 0 {
		return LoadedProgram{}, fmt.Errorf("errors found, exiting")
	}

	program := LoadedProgram{Packages: pkgs, Directives: make(Directives)}
	for _, pkg := range pkgs {
		for _, fn := range gofront.PackageFuncs(pkg) {
			pos := NewDirectivePos(fn.Position())
			ignored := fn.Ignored()
			if ignored {
				program.Directives[pos] = Directive{Kind: DirectiveIgnore, Text: gofront.IgnoreDirective}
			}
			lowered, err := gofront.Lower(fn)
			if err != nil {
				program.Skipped = append(program.Skipped, LoadError{Name: fn.Name(), Position: fn.Position(), Err: err})
				continue
			}
			program.Methods = append(program.Methods,
				&Method{Method: lowered.Method, Lowered: lowered, Package: pkg, Ignored: ignored})
		}
	}
	return program, nil
}

// Directives represents a map of method position to directive.
type Directives map[DirectivePos]Directive

// Directive represents an instruction to gflow in the source code being analyzed.
// It is a comment in the form: `//gflow:x`, where x is a valid DirectiveKind, placed before a method.
type Directive struct {
	Kind DirectiveKind
	Text string
}

// DirectivePos represents the position of a method a directive applies to.
type DirectivePos struct {
	Filename string
	Line     int
}

// NewDirectivePos creates a DirectivePos from a token.Position.
func NewDirectivePos(pos token.Position) DirectivePos {
	return DirectivePos{
		Filename: pos.Filename,
		Line:     pos.Line,
	}
}

// DirectiveKind represents the kind of directive.
type DirectiveKind string

const (
	// DirectiveIgnore represents a directive for gflow to leave a method unoptimized.
	DirectiveIgnore DirectiveKind = "ignore"
)

// NewDirective returns the directive for the comment text c and true if c is a valid directive comment.
func NewDirective(c string) (Directive, bool) {
	after, found := strings.CutPrefix(strings.TrimSpace(c), "//gflow:")
	if !found {
		return Directive{}, false
	}

	switch k := DirectiveKind(strings.TrimSpace(after)); k {
	case DirectiveIgnore:
		return Directive{Kind: k, Text: c}, true
	default:
		return Directive{}, false
	}
}

// irFile returns a file of a fresh file set for src. Positions in the file match the positions irparse gives to
// the nodes of the same source.
func irFile(filename string, src []byte) *token.File {
	file := token.NewFileSet().AddFile(filename, -1, len(src))
	file.SetLinesForContent(src)
	return file
}

func methodPos(filename string, src []byte, m *ir.Method) DirectivePos {
	return NewDirectivePos(irFile(filename, src).Position(m.Position))
}

// findIRDirectives returns the directives of an ir file. A directive outside of method bodies applies to the first
// method declared after it.
func findIRDirectives(filename string, src []byte, f *ir.File) Directives {
	file := irFile(filename, src)
	var s scanner.Scanner
	s.Init(file, src, func(token.Position, string) {}, scanner.ScanComments)
	res := make(Directives)
	depth := 0
	for {
		pos, tok, lit := s.Scan()
		switch tok {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
		case token.COMMENT:
			d, ok := NewDirective(lit)
			if !ok || depth > 0 {
				continue
			}
			line := file.Line(pos)
			for _, m := range f.Methods {
				if file.Line(m.Position) > line {
					res[NewDirectivePos(file.Position(m.Position))] = d
					break
				}
			}
		}
		if tok == token.EOF {
			return res
		}
	}
}
