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

// Package gofront lowers the bodies of Go functions into the ir, and writes optimized bodies back into their
// decorated syntax trees.
//
// Go functions are lowered only when their locals cannot be aliased: functions taking the address of a local,
// declaring closures, deferring calls or starting goroutines are reported as unsupported, as are the statements and
// expressions the ir cannot represent (range loops, selects, index expressions, composite literals...). A function
// that cannot be lowered is left untouched.
package gofront

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"io"
	"strings"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/dave/dst/decorator/resolver"
)

// IgnoreDirective is the comment that excludes a function from optimization when it appears in its doc comment
const IgnoreDirective = "//gflow:ignore"

// Func is a function declaration of a decorated file, with the type information of its package
type Func struct {
	Decl      *dst.FuncDecl
	File      *dst.File
	Decorator *decorator.Decorator
	Info      *types.Info
	Pkg       *types.Package
}

// PackageFuncs returns the functions with a body declared in the files of a loaded package
func PackageFuncs(pkg *decorator.Package) []*Func {
	var funcs []*Func
	for _, file := range pkg.Syntax {
		funcs = append(funcs, FileFuncs(file, pkg.Decorator, pkg.TypesInfo, pkg.Types)...)
	}
	return funcs
}

// FileFuncs returns the functions with a body declared in file
func FileFuncs(file *dst.File, d *decorator.Decorator, info *types.Info, pkg *types.Package) []*Func {
	var funcs []*Func
	for _, decl := range file.Decls {
		if funcDecl, ok := decl.(*dst.FuncDecl); ok && funcDecl.Body != nil {
			funcs = append(funcs, &Func{Decl: funcDecl, File: file, Decorator: d, Info: info, Pkg: pkg})
		}
	}
	return funcs
}

// Name returns the name of the function, qualified by its receiver type for a method
func (f *Func) Name() string {
	if f.Decl.Recv == nil || len(f.Decl.Recv.List) == 0 {
		return f.Decl.Name.Name
	}
	return receiverName(f.Decl.Recv.List[0].Type) + "." + f.Decl.Name.Name
}

func receiverName(e dst.Expr) string {
	switch t := e.(type) {
	case *dst.StarExpr:
		return receiverName(t.X)
	case *dst.ParenExpr:
		return receiverName(t.X)
	case *dst.IndexExpr:
		return receiverName(t.X)
	case *dst.IndexListExpr:
		return receiverName(t.X)
	case *dst.Ident:
		return t.Name
	}
	return "_"
}

// Ignored returns true when the doc comment of the function contains the ignore directive
func (f *Func) Ignored() bool {
	for _, c := range f.Decl.Decs.Start.All() {
		if strings.HasPrefix(strings.TrimSpace(c), IgnoreDirective) {
			return true
		}
	}
	return false
}

// Position returns the position of the function declaration
func (f *Func) Position() token.Position {
	return f.position(f.Decl)
}

func (f *Func) astNode(n dst.Node) ast.Node {
	return f.Decorator.Ast.Nodes[n]
}

func (f *Func) typeOf(e dst.Expr) types.Type {
	if a, ok := f.astNode(e).(ast.Expr); ok {
		return f.Info.TypeOf(a)
	}
	return nil
}

func (f *Func) constValue(e dst.Expr) constant.Value {
	if a, ok := f.astNode(e).(ast.Expr); ok {
		return f.Info.Types[a].Value
	}
	return nil
}

// objectOf returns the object an identifier denotes. With import management, a qualified identifier is a single
// dst identifier mapped to an ast selector.
func (f *Func) objectOf(id *dst.Ident) types.Object {
	switch a := f.astNode(id).(type) {
	case *ast.Ident:
		return f.Info.ObjectOf(a)
	case *ast.SelectorExpr:
		return f.Info.ObjectOf(a.Sel)
	}
	return nil
}

func (f *Func) pos(n dst.Node) token.Pos {
	if a := f.astNode(n); a != nil {
		return a.Pos()
	}
	return token.NoPos
}

func (f *Func) position(n dst.Node) token.Position {
	if f.Decorator.Fset == nil {
		return token.Position{}
	}
	return f.Decorator.Fset.Position(f.pos(n))
}

// Fprint prints a decorated file, managing its imports with r.
func Fprint(w io.Writer, file *dst.File, path string, r resolver.RestorerResolver) error {
	return decorator.NewRestorerWithImports(path, r).Fprint(w, file)
}
