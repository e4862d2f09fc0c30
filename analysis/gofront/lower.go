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

package gofront

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"math"
	"strconv"

	"github.com/awslabs/ar-gflow/analysis/cfg"
	"github.com/awslabs/ar-gflow/analysis/ir"
	"github.com/dave/dst"
)

// Lowered is the ir method of a Go function, with what is needed to write it back into the function
type Lowered struct {
	Func   *Func
	Method *ir.Method

	// the Go type of each local, by index
	types map[int]types.Type
	// locals declared with a short variable declaration
	short map[int]bool
	// locals declared without initializer, whose zero value is made explicit in the ir
	zero map[int]bool
}

// Lower returns the ir method of the body of f. A function using a construct the ir cannot represent fails with
// a *cfg.UnsupportedConstructError.
//
// Locals of type int32 and bool are given the ir types "int" and "boolean", the types whose values analyses
// track; the Go int type is "long".
func Lower(f *Func) (lowered *Lowered, err error) {
	l := &lowerer{
		f:      f,
		locals: map[types.Object]*ir.Local{},
		res: &Lowered{
			Func:  f,
			types: map[int]types.Type{},
			short: map[int]bool{},
			zero:  map[int]bool{},
		},
	}
	defer func() {
		if r := recover(); r != nil {
			if u, ok := r.(*cfg.UnsupportedConstructError); ok {
				lowered, err = nil, u
				return
			}
			panic(r)
		}
	}()
	l.function()
	return l.res, nil
}

type lowerer struct {
	f      *Func
	m      *ir.Method
	res    *Lowered
	locals map[types.Object]*ir.Local
	scopes []ir.Node
}

func (l *lowerer) unsupported(n dst.Node, format string, args ...any) {
	reason := fmt.Sprintf(format, args...)
	if p := l.f.position(n); p.IsValid() {
		reason = p.String() + ": " + reason
	}
	panic(&cfg.UnsupportedConstructError{Reason: reason})
}

func (l *lowerer) scope() ir.Node { return l.scopes[len(l.scopes)-1] }

func (l *lowerer) push(n ir.Node) { l.scopes = append(l.scopes, n) }

func (l *lowerer) pop() { l.scopes = l.scopes[:len(l.scopes)-1] }

// irType returns the name of a Go type in the ir
func (l *lowerer) irType(t types.Type) string {
	if b, ok := t.(*types.Basic); ok {
		switch b.Kind() {
		case types.Int32:
			return "int"
		case types.Bool:
			return "boolean"
		case types.Int:
			return "long"
		}
	}
	return types.TypeString(t, types.RelativeTo(l.f.Pkg))
}

func (l *lowerer) declare(id *dst.Ident, kind ir.LocalKind) *ir.Local {
	obj := l.f.objectOf(id)
	if obj == nil {
		l.unsupported(id, "untyped identifier %s", id.Name)
	}
	local := l.m.NewLocal(id.Name, l.irType(obj.Type()), kind, l.scope())
	l.locals[obj] = local
	l.res.types[local.Index] = obj.Type()
	return local
}

func (l *lowerer) function() {
	decl := l.f.Decl
	if decl.Type.TypeParams != nil && len(decl.Type.TypeParams.List) > 0 {
		l.unsupported(decl, "generic function")
	}
	result := "void"
	if res := decl.Type.Results; res != nil && len(res.List) > 0 {
		if len(res.List) > 1 || len(res.List[0].Names) > 0 {
			l.unsupported(decl, "multiple or named results")
		}
		result = l.irType(l.f.typeOf(res.List[0].Type))
	}
	l.m = &ir.Method{Position: l.f.pos(decl), Name: l.f.Name(), Result: result, Body: &ir.Block{}}
	l.res.Method = l.m
	l.push(l.m.Body)
	var fields []*dst.Field
	if decl.Recv != nil {
		fields = append(fields, decl.Recv.List...)
	}
	fields = append(fields, decl.Type.Params.List...)
	for _, field := range fields {
		for _, name := range field.Names {
			if name.Name != "_" {
				l.declare(name, ir.ParamLocal)
			}
		}
	}
	l.m.Body.Stmts = l.stmtList(decl.Body.List)
	l.pop()
}

func (l *lowerer) stmtList(list []dst.Stmt) []ir.Stmt {
	var stmts []ir.Stmt
	for _, s := range list {
		stmts = append(stmts, l.stmt(s)...)
	}
	return stmts
}

func (l *lowerer) block(b *dst.BlockStmt) *ir.Block {
	blk := &ir.Block{Position: l.f.pos(b)}
	l.push(blk)
	blk.Stmts = l.stmtList(b.List)
	l.pop()
	return blk
}

// withInit lowers the statement s with its init statement in a block, the scope of the locals init declares
func (l *lowerer) withInit(init dst.Stmt, s dst.Stmt, lower func() ir.Stmt) []ir.Stmt {
	if init == nil {
		return []ir.Stmt{lower()}
	}
	blk := &ir.Block{Position: l.f.pos(s)}
	l.push(blk)
	blk.Stmts = append(l.stmt(init), lower())
	l.pop()
	return []ir.Stmt{blk}
}

func (l *lowerer) stmt(s dst.Stmt) []ir.Stmt {
	pos := l.f.pos(s)
	switch s := s.(type) {
	case *dst.BlockStmt:
		return []ir.Stmt{l.block(s)}
	case *dst.EmptyStmt:
		return []ir.Stmt{&ir.EmptyStmt{Position: pos}}
	case *dst.DeclStmt:
		return l.declStmt(s)
	case *dst.AssignStmt:
		return []ir.Stmt{l.assignStmt(s)}
	case *dst.IncDecStmt:
		x := &ir.IncDecExpr{Position: pos, Op: s.Tok, X: l.lvalue(s.X)}
		return []ir.Stmt{&ir.ExprStmt{Position: pos, X: x}}
	case *dst.ExprStmt:
		call, ok := s.X.(*dst.CallExpr)
		if !ok {
			l.unsupported(s, "expression statement %T", s.X)
		}
		if id, ok := call.Fun.(*dst.Ident); ok && id.Path == "" && len(call.Args) == 1 {
			if _, builtin := l.f.objectOf(id).(*types.Builtin); builtin && id.Name == "panic" {
				return []ir.Stmt{&ir.ThrowStmt{Position: pos, X: l.expr(call.Args[0])}}
			}
		}
		return []ir.Stmt{&ir.ExprStmt{Position: pos, X: l.expr(call)}}
	case *dst.ReturnStmt:
		switch len(s.Results) {
		case 0:
			return []ir.Stmt{&ir.ReturnStmt{Position: pos}}
		case 1:
			return []ir.Stmt{&ir.ReturnStmt{Position: pos, Result: l.expr(s.Results[0])}}
		}
		l.unsupported(s, "return of multiple values")
	case *dst.IfStmt:
		return l.withInit(s.Init, s, func() ir.Stmt { return l.ifStmt(s) })
	case *dst.ForStmt:
		return []ir.Stmt{l.forStmt(s)}
	case *dst.SwitchStmt:
		if s.Tag == nil {
			l.unsupported(s, "switch without tag")
		}
		return l.withInit(s.Init, s, func() ir.Stmt { return l.switchStmt(s) })
	case *dst.BranchStmt:
		label := ""
		if s.Label != nil {
			label = s.Label.Name
		}
		switch s.Tok {
		case token.BREAK:
			return []ir.Stmt{&ir.BreakStmt{Position: pos, Label: label}}
		case token.CONTINUE:
			return []ir.Stmt{&ir.ContinueStmt{Position: pos, Label: label}}
		}
		l.unsupported(s, "%s statement", s.Tok)
	case *dst.LabeledStmt:
		inner := l.stmt(s.Stmt)
		if len(inner) != 1 {
			l.unsupported(s, "labeled declaration")
		}
		if _, ok := inner[0].(*ir.Block); ok {
			l.unsupported(s, "labeled block or statement with init")
		}
		return []ir.Stmt{&ir.LabeledStmt{Position: pos, Label: s.Label.Name, Stmt: inner[0]}}
	case *dst.DeferStmt:
		l.unsupported(s, "defer statement")
	case *dst.GoStmt:
		l.unsupported(s, "go statement")
	case *dst.RangeStmt:
		l.unsupported(s, "range loop")
	case *dst.SelectStmt:
		l.unsupported(s, "select statement")
	default:
		l.unsupported(s, "statement %T", s)
	}
	return nil
}

func (l *lowerer) declStmt(s *dst.DeclStmt) []ir.Stmt {
	gen, ok := s.Decl.(*dst.GenDecl)
	if !ok || gen.Tok != token.VAR {
		l.unsupported(s, "local declaration")
	}
	var stmts []ir.Stmt
	for _, spec := range gen.Specs {
		vs := spec.(*dst.ValueSpec)
		if len(vs.Values) != 0 && len(vs.Values) != len(vs.Names) {
			l.unsupported(s, "multi-value declaration")
		}
		// initializers are evaluated before the names are in scope
		inits := make([]ir.Expr, len(vs.Names))
		for i := range vs.Values {
			inits[i] = l.expr(vs.Values[i])
		}
		for i, name := range vs.Names {
			if name.Name == "_" {
				l.unsupported(s, "declaration of the blank identifier")
			}
			local := l.declare(name, ir.VarLocal)
			if inits[i] == nil {
				inits[i] = zeroValue(local)
				l.res.zero[local.Index] = inits[i] != nil
			}
			stmts = append(stmts, &ir.DeclStmt{Position: l.f.pos(s), Local: local, Init: inits[i]})
		}
	}
	return stmts
}

// zeroValue returns the literal of the zero value of the locals whose values analyses track. Other locals are
// declared without initializer.
func zeroValue(local *ir.Local) ir.Expr {
	switch local.Type {
	case "int":
		return &ir.IntLit{Value: 0}
	case "boolean":
		return &ir.BoolLit{Value: false}
	}
	return nil
}

func (l *lowerer) assignStmt(s *dst.AssignStmt) ir.Stmt {
	pos := l.f.pos(s)
	if len(s.Lhs) != 1 || len(s.Rhs) != 1 {
		l.unsupported(s, "multi-value assignment")
	}
	switch s.Tok {
	case token.DEFINE:
		id, ok := s.Lhs[0].(*dst.Ident)
		if !ok || id.Name == "_" {
			l.unsupported(s, "short declaration of %T", s.Lhs[0])
		}
		init := l.expr(s.Rhs[0])
		local := l.declare(id, ir.VarLocal)
		l.res.short[local.Index] = true
		return &ir.DeclStmt{Position: pos, Local: local, Init: init}
	case token.AND_NOT_ASSIGN:
		l.unsupported(s, "operator %s", s.Tok)
	case token.SHL_ASSIGN, token.SHR_ASSIGN:
		l.checkShift(s, l.f.typeOf(s.Lhs[0]))
	}
	x := &ir.AssignExpr{Position: pos, Op: s.Tok, LHS: l.lvalue(s.Lhs[0]), RHS: l.expr(s.Rhs[0])}
	return &ir.ExprStmt{Position: pos, X: x}
}

// checkShift rejects the shifts of 32-bit integers, whose count is not masked in Go
func (l *lowerer) checkShift(n dst.Node, t types.Type) {
	if b, ok := t.(*types.Basic); ok && b.Kind() == types.Int32 {
		l.unsupported(n, "shift of an int32")
	}
}

func (l *lowerer) lvalue(e dst.Expr) ir.Expr {
	switch e := e.(type) {
	case *dst.Ident:
		if e.Name == "_" {
			l.unsupported(e, "assignment to the blank identifier")
		}
	case *dst.SelectorExpr:
		// a field of a struct held in a local is part of the local
		base := e.X
		for {
			if sel, ok := base.(*dst.SelectorExpr); ok {
				base = sel.X
			} else {
				break
			}
		}
		if id, ok := base.(*dst.Ident); ok && l.locals[l.f.objectOf(id)] != nil {
			if _, ok := l.f.typeOf(id).Underlying().(*types.Struct); ok {
				l.unsupported(e, "assignment to a field of local %s", id.Name)
			}
		}
	case *dst.ParenExpr:
		return l.lvalue(e.X)
	default:
		l.unsupported(e, "assignment to %T", e)
	}
	return l.expr(e)
}

func (l *lowerer) ifStmt(s *dst.IfStmt) ir.Stmt {
	r := &ir.IfStmt{Position: l.f.pos(s), Cond: l.expr(s.Cond), Then: l.block(s.Body)}
	switch e := s.Else.(type) {
	case *dst.IfStmt:
		r.Else = l.withInit(e.Init, e, func() ir.Stmt { return l.ifStmt(e) })[0]
	case *dst.BlockStmt:
		r.Else = l.block(e)
	}
	return r
}

func (l *lowerer) forStmt(s *dst.ForStmt) ir.Stmt {
	pos := l.f.pos(s)
	if s.Init == nil && s.Post == nil && s.Cond != nil {
		return &ir.WhileStmt{Position: pos, Cond: l.expr(s.Cond), Body: l.block(s.Body)}
	}
	r := &ir.ForStmt{Position: pos}
	l.push(r)
	defer l.pop()
	if s.Init != nil {
		r.Init = l.stmt(s.Init)
	}
	if s.Cond != nil {
		r.Cond = l.expr(s.Cond)
	}
	if s.Post != nil {
		post := l.stmt(s.Post)
		x, ok := post[0].(*ir.ExprStmt)
		if len(post) != 1 || !ok {
			l.unsupported(s.Post, "loop update %T", s.Post)
		}
		r.Update = []ir.Expr{x.X}
	}
	r.Body = l.block(s.Body)
	return r
}

func (l *lowerer) switchStmt(s *dst.SwitchStmt) ir.Stmt {
	r := &ir.SwitchStmt{Position: l.f.pos(s), Tag: l.expr(s.Tag)}
	l.push(r)
	defer l.pop()
	for _, c := range s.Body.List {
		clause := c.(*dst.CaseClause)
		cc := &ir.CaseClause{Position: l.f.pos(clause)}
		for _, v := range clause.List {
			cc.Values = append(cc.Values, l.expr(v))
		}
		body := clause.Body
		falls := false
		if n := len(body); n > 0 {
			if br, ok := body[n-1].(*dst.BranchStmt); ok && br.Tok == token.FALLTHROUGH {
				body = body[:n-1]
				falls = true
			}
		}
		// each clause is a scope; ir clauses fall through unless they break
		blk := &ir.Block{Position: cc.Position}
		l.push(blk)
		blk.Stmts = l.stmtList(body)
		l.pop()
		cc.Body = []ir.Stmt{blk}
		if !falls {
			cc.Body = append(cc.Body, &ir.BreakStmt{Position: cc.Position})
		}
		r.Cases = append(r.Cases, cc)
	}
	return r
}

func (l *lowerer) exprs(es []dst.Expr) []ir.Expr {
	var r []ir.Expr
	for _, e := range es {
		r = append(r, l.expr(e))
	}
	return r
}

func (l *lowerer) expr(e dst.Expr) ir.Expr {
	pos := l.f.pos(e)
	if v := l.f.constValue(e); v != nil {
		if lit := l.constant(e, v); lit != nil {
			return lit
		}
	}
	switch e := e.(type) {
	case *dst.ParenExpr:
		return l.expr(e.X)
	case *dst.Ident:
		return l.ident(e)
	case *dst.BasicLit:
		if e.Kind == token.STRING {
			s, err := strconv.Unquote(e.Value)
			if err == nil {
				return &ir.StringLit{Position: pos, Value: s}
			}
		}
		l.unsupported(e, "literal %s", e.Value)
	case *dst.BinaryExpr:
		switch e.Op {
		case token.AND_NOT:
			l.unsupported(e, "operator %s", e.Op)
		case token.SHL, token.SHR:
			l.checkShift(e, l.f.typeOf(e.X))
		}
		return &ir.BinaryExpr{Position: pos, Op: e.Op, X: l.expr(e.X), Y: l.expr(e.Y)}
	case *dst.UnaryExpr:
		switch e.Op {
		case token.NOT, token.SUB, token.ADD, token.XOR:
			return &ir.UnaryExpr{Position: pos, Op: e.Op, X: l.expr(e.X)}
		case token.AND:
			l.unsupported(e, "address operator")
		}
		l.unsupported(e, "operator %s", e.Op)
	case *dst.CallExpr:
		return l.call(e)
	case *dst.SelectorExpr:
		l.checkMethodValue(e)
		if name, ok := l.qualified(e); ok {
			return &ir.Ident{Position: pos, Name: name}
		}
		return &ir.FieldExpr{Position: pos, X: l.expr(e.X), Name: e.Sel.Name}
	case *dst.FuncLit:
		l.unsupported(e, "function literal")
	default:
		l.unsupported(e, "expression %T", e)
	}
	return nil
}

// constant returns the literal of a constant expression, or nil when the expression is lowered structurally
func (l *lowerer) constant(e dst.Expr, v constant.Value) ir.Expr {
	pos := l.f.pos(e)
	switch v.Kind() {
	case constant.Bool:
		return &ir.BoolLit{Position: pos, Value: constant.BoolVal(v)}
	case constant.Int:
		switch e.(type) {
		case *dst.BasicLit, *dst.BinaryExpr, *dst.UnaryExpr, *dst.ParenExpr, *dst.CallExpr:
		default:
			// named constants keep their name
			return nil
		}
		n, exact := constant.Int64Val(v)
		if !exact || n < math.MinInt32 || n > math.MaxInt32 {
			l.unsupported(e, "integer constant %s does not fit in 32 bits", v)
		}
		if lit, ok := e.(*dst.BasicLit); ok && lit.Kind != token.INT {
			l.unsupported(e, "literal %s", lit.Value)
		}
		return &ir.IntLit{Position: pos, Value: int32(n)}
	}
	return nil
}

func (l *lowerer) ident(id *dst.Ident) ir.Expr {
	pos := l.f.pos(id)
	obj := l.f.objectOf(id)
	if local, ok := l.locals[obj]; ok {
		return &ir.Ident{Position: pos, Name: id.Name, Local: local}
	}
	switch obj := obj.(type) {
	case *types.Nil:
		return &ir.NullLit{Position: pos}
	case *types.Var:
		if obj.Pkg() != nil && obj.Parent() != nil && obj.Parent() != obj.Pkg().Scope() {
			// a local of an enclosing function literal, or a named result
			l.unsupported(id, "reference to %s", id.Name)
		}
	}
	return &ir.Ident{Position: pos, Name: qualify(id.Path, id.Name)}
}

// qualify returns the ir name of an identifier imported from path
func qualify(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// qualified returns the ir name of a selector denoting an imported identifier
func (l *lowerer) qualified(e *dst.SelectorExpr) (string, bool) {
	if x, ok := e.X.(*dst.Ident); ok {
		if pkg, ok := l.f.objectOf(x).(*types.PkgName); ok {
			return qualify(pkg.Imported().Path(), e.Sel.Name), true
		}
	}
	return "", false
}

// checkMethodValue rejects method selections that take the address of their operand implicitly
func (l *lowerer) checkMethodValue(e *dst.SelectorExpr) {
	recvType := l.f.typeOf(e.X)
	if recvType == nil {
		return
	}
	if _, ok := recvType.Underlying().(*types.Pointer); ok {
		return
	}
	fn, ok := l.f.objectOf(e.Sel).(*types.Func)
	if !ok {
		return
	}
	if recv := fn.Type().(*types.Signature).Recv(); recv != nil {
		if _, ok := recv.Type().(*types.Pointer); ok {
			l.unsupported(e, "method %s takes the address of its receiver", e.Sel.Name)
		}
	}
}

func (l *lowerer) call(e *dst.CallExpr) ir.Expr {
	pos := l.f.pos(e)
	if e.Ellipsis {
		l.unsupported(e, "variadic call with ...")
	}
	switch fun := e.Fun.(type) {
	case *dst.Ident:
		if _, ok := l.locals[l.f.objectOf(fun)]; ok {
			l.unsupported(e, "call of local %s", fun.Name)
		}
		return &ir.CallExpr{Position: pos, Name: qualify(fun.Path, fun.Name), Args: l.exprs(e.Args)}
	case *dst.SelectorExpr:
		l.checkMethodValue(fun)
		if name, ok := l.qualified(fun); ok {
			return &ir.CallExpr{Position: pos, Name: name, Args: l.exprs(e.Args)}
		}
		return &ir.CallExpr{Position: pos, Recv: l.expr(fun.X), Name: fun.Sel.Name, Args: l.exprs(e.Args)}
	}
	l.unsupported(e, "call of %T", e.Fun)
	return nil
}
