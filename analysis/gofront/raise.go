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
	"go/token"
	"go/types"

	"github.com/awslabs/ar-gflow/analysis/ir"
	"github.com/dave/dst"
)

// Raise replaces the body of the lowered function by the Go rendering of its ir method. The function is left
// unchanged when the method contains a construct that has no Go rendering.
//
// Declarations of locals that are no longer referenced are dropped, keeping the evaluation of initializers with
// side effects: Go rejects unused locals.
func Raise(l *Lowered) (err error) {
	r := &raiser{l: l, refs: map[int]int{}}
	ir.Inspect(l.Method.Body, func(n ir.Node) bool {
		if id, ok := n.(*ir.Ident); ok && id.Local != nil {
			r.refs[id.Local.Index]++
		}
		return true
	})
	defer func() {
		if x := recover(); x != nil {
			if e, ok := x.(raiseError); ok {
				err = fmt.Errorf("cannot write %s back: %s", l.Method.Name, string(e))
				return
			}
			panic(x)
		}
	}()
	body := &dst.BlockStmt{List: r.stmts(l.Method.Body.Stmts)}
	l.Func.Decl.Body = body
	return nil
}

type raiseError string

type raiser struct {
	l    *Lowered
	refs map[int]int
}

func (r *raiser) fail(format string, args ...any) {
	panic(raiseError(fmt.Sprintf(format, args...)))
}

func (r *raiser) stmts(list []ir.Stmt) []dst.Stmt {
	res := []dst.Stmt{}
	for _, s := range list {
		res = append(res, r.stmt(s)...)
	}
	return lines(res)
}

// lines puts each statement of a block on its own line
func lines(list []dst.Stmt) []dst.Stmt {
	for _, s := range list {
		s.Decorations().Before = dst.NewLine
		s.Decorations().After = dst.NewLine
	}
	return list
}

func (r *raiser) block(s ir.Stmt) *dst.BlockStmt {
	if b, ok := s.(*ir.Block); ok {
		return &dst.BlockStmt{List: r.stmts(b.Stmts)}
	}
	return &dst.BlockStmt{List: lines(r.stmt(s))}
}

// single returns the only statement s raises to, or nil
func (r *raiser) single(s ir.Stmt) dst.Stmt {
	list := r.stmt(s)
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	}
	r.fail("statement %s expands to several statements", ir.Format(s))
	return nil
}

func (r *raiser) stmt(s ir.Stmt) []dst.Stmt {
	switch s := s.(type) {
	case *ir.Block:
		return []dst.Stmt{r.block(s)}
	case *ir.EmptyStmt:
		return nil
	case *ir.DeclStmt:
		return r.declStmt(s)
	case *ir.ExprStmt:
		return []dst.Stmt{r.exprStmt(s.X)}
	case *ir.IfStmt:
		return []dst.Stmt{r.ifStmt(s)}
	case *ir.WhileStmt:
		return []dst.Stmt{&dst.ForStmt{Cond: r.loopCond(s.Cond), Body: r.block(s.Body)}}
	case *ir.ForStmt:
		loop := &dst.ForStmt{Cond: r.loopCond(s.Cond), Body: r.block(s.Body)}
		switch len(s.Init) {
		case 0:
		case 1:
			loop.Init = r.single(s.Init[0])
		default:
			r.fail("loop with several init statements")
		}
		switch len(s.Update) {
		case 0:
		case 1:
			loop.Post = r.exprStmt(s.Update[0])
		default:
			r.fail("loop with several updates")
		}
		return []dst.Stmt{loop}
	case *ir.SwitchStmt:
		return []dst.Stmt{r.switchStmt(s)}
	case *ir.BreakStmt:
		return []dst.Stmt{branch(token.BREAK, s.Label)}
	case *ir.ContinueStmt:
		return []dst.Stmt{branch(token.CONTINUE, s.Label)}
	case *ir.ReturnStmt:
		ret := &dst.ReturnStmt{}
		if s.Result != nil {
			ret.Results = []dst.Expr{r.expr(s.Result)}
		}
		return []dst.Stmt{ret}
	case *ir.ThrowStmt:
		return []dst.Stmt{&dst.ExprStmt{X: NewPanic(r.expr(s.X))}}
	case *ir.LabeledStmt:
		inner := r.single(s.Stmt)
		if inner == nil {
			inner = &dst.EmptyStmt{}
		}
		return []dst.Stmt{&dst.LabeledStmt{Label: dst.NewIdent(s.Label), Stmt: inner}}
	}
	r.fail("statement %T", s)
	return nil
}

func branch(tok token.Token, label string) *dst.BranchStmt {
	b := &dst.BranchStmt{Tok: tok}
	if label != "" {
		b.Label = dst.NewIdent(label)
	}
	return b
}

// loopCond returns the condition of a Go loop; a loop whose condition is true has none, so that it terminates
// its function
func (r *raiser) loopCond(cond ir.Expr) dst.Expr {
	if cond == nil {
		return nil
	}
	if b, ok := cond.(*ir.BoolLit); ok && b.Value {
		return nil
	}
	return r.expr(cond)
}

func (r *raiser) declStmt(s *ir.DeclStmt) []dst.Stmt {
	idx := s.Local.Index
	if r.refs[idx] == 0 {
		switch {
		case s.Init == nil || !ir.HasSideEffects(s.Init):
			return nil
		case isCall(s.Init):
			return []dst.Stmt{&dst.ExprStmt{X: r.expr(s.Init)}}
		default:
			return []dst.Stmt{&dst.AssignStmt{Lhs: []dst.Expr{dst.NewIdent("_")}, Tok: token.ASSIGN,
				Rhs: []dst.Expr{r.expr(s.Init)}}}
		}
	}
	name := dst.NewIdent(s.Local.Name)
	if r.l.short[idx] && s.Init != nil && r.keepsType(s.Init, r.l.types[idx]) {
		return []dst.Stmt{&dst.AssignStmt{Lhs: []dst.Expr{name}, Tok: token.DEFINE, Rhs: []dst.Expr{r.expr(s.Init)}}}
	}
	spec := &dst.ValueSpec{Names: []*dst.Ident{name}, Type: r.typeExpr(idx)}
	if s.Init != nil && !(r.l.zero[idx] && isZero(s.Init)) {
		spec.Values = []dst.Expr{r.expr(s.Init)}
	}
	return []dst.Stmt{&dst.DeclStmt{Decl: &dst.GenDecl{Tok: token.VAR, Specs: []dst.Spec{spec}}}}
}

func (r *raiser) typeExpr(idx int) dst.Expr {
	t, ok := r.l.types[idx]
	if !ok {
		r.fail("local %d has no type", idx)
	}
	return r.typeOf(t)
}

// typeOf returns the expression of a type. Named types of other packages are qualified by their path, for the
// restorer to manage the imports.
func (r *raiser) typeOf(t types.Type) dst.Expr {
	switch t := t.(type) {
	case *types.Basic:
		return dst.NewIdent(t.Name())
	case *types.Pointer:
		return &dst.StarExpr{X: r.typeOf(t.Elem())}
	case *types.Slice:
		return &dst.ArrayType{Elt: r.typeOf(t.Elem())}
	case *types.Map:
		return &dst.MapType{Key: r.typeOf(t.Key()), Value: r.typeOf(t.Elem())}
	case *types.Named:
		obj := t.Obj()
		if t.TypeArgs().Len() == 0 {
			if obj.Pkg() == nil || obj.Pkg() == r.l.Func.Pkg {
				return dst.NewIdent(obj.Name())
			}
			return &dst.Ident{Name: obj.Name(), Path: obj.Pkg().Path()}
		}
	}
	return dst.NewIdent(types.TypeString(t, types.RelativeTo(r.l.Func.Pkg)))
}

// keepsType returns true when a short declaration initialized with e declares a local of type t. The type of a
// literal is its default type.
func (r *raiser) keepsType(e ir.Expr, t types.Type) bool {
	b, _ := t.(*types.Basic)
	switch e.(type) {
	case *ir.IntLit:
		return b != nil && b.Kind() == types.Int
	case *ir.BoolLit:
		return b != nil && b.Kind() == types.Bool
	case *ir.StringLit:
		return b != nil && b.Kind() == types.String
	case *ir.NullLit:
		return false
	}
	return true
}

func isCall(e ir.Expr) bool {
	_, ok := e.(*ir.CallExpr)
	return ok
}

func isZero(e ir.Expr) bool {
	switch e := e.(type) {
	case *ir.IntLit:
		return e.Value == 0
	case *ir.BoolLit:
		return !e.Value
	}
	return false
}

func (r *raiser) exprStmt(e ir.Expr) dst.Stmt {
	switch e := e.(type) {
	case *ir.AssignExpr:
		return &dst.AssignStmt{Lhs: []dst.Expr{r.expr(e.LHS)}, Tok: e.Op, Rhs: []dst.Expr{r.expr(e.RHS)}}
	case *ir.IncDecExpr:
		return &dst.IncDecStmt{X: r.expr(e.X), Tok: e.Op}
	case *ir.CallExpr:
		return &dst.ExprStmt{X: r.expr(e)}
	}
	return &dst.AssignStmt{Lhs: []dst.Expr{dst.NewIdent("_")}, Tok: token.ASSIGN, Rhs: []dst.Expr{r.expr(e)}}
}

func (r *raiser) ifStmt(s *ir.IfStmt) *dst.IfStmt {
	res := &dst.IfStmt{Cond: r.expr(s.Cond), Body: r.block(s.Then)}
	switch e := s.Else.(type) {
	case nil:
	case *ir.IfStmt:
		res.Else = r.ifStmt(e)
	default:
		res.Else = r.block(e)
	}
	return res
}

// switchStmt raises a switch whose clauses end with a break, which Go clauses do implicitly, or fall through
func (r *raiser) switchStmt(s *ir.SwitchStmt) *dst.SwitchStmt {
	res := &dst.SwitchStmt{Tag: r.expr(s.Tag), Body: &dst.BlockStmt{}}
	for i, c := range s.Cases {
		clause := &dst.CaseClause{}
		for _, v := range c.Values {
			clause.List = append(clause.List, r.expr(v))
		}
		body := c.Body
		ends := false
		if n := len(body); n > 0 {
			if br, ok := body[n-1].(*ir.BreakStmt); ok && br.Label == "" {
				body = body[:n-1]
				ends = true
			}
		}
		// a clause is a scope of its own
		if len(body) == 1 {
			if b, ok := body[0].(*ir.Block); ok {
				body = b.Stmts
			}
		}
		clause.Body = r.stmts(body)
		if !ends && i < len(s.Cases)-1 && !jumps(body) {
			clause.Body = append(clause.Body, &dst.BranchStmt{Tok: token.FALLTHROUGH})
		}
		res.Body.List = append(res.Body.List, clause)
	}
	return res
}

// jumps returns true when the last statement of a list transfers control elsewhere
func jumps(list []ir.Stmt) bool {
	if len(list) == 0 {
		return false
	}
	switch list[len(list)-1].(type) {
	case *ir.BreakStmt, *ir.ContinueStmt, *ir.ReturnStmt, *ir.ThrowStmt:
		return true
	}
	return false
}

func (r *raiser) exprs(es []ir.Expr) []dst.Expr {
	var res []dst.Expr
	for _, e := range es {
		res = append(res, r.expr(e))
	}
	return res
}

func (r *raiser) expr(e ir.Expr) dst.Expr {
	switch e := e.(type) {
	case *ir.Ident:
		if e.Local != nil {
			return dst.NewIdent(e.Name)
		}
		return NewName(e.Name)
	case *ir.IntLit:
		return NewInt(e.Value)
	case *ir.BoolLit:
		return NewBool(e.Value)
	case *ir.StringLit:
		return NewString(e.Value)
	case *ir.NullLit:
		return NewNil()
	case *ir.BinaryExpr:
		if d, ok := e.Y.(*ir.IntLit); ok && d.Value == 0 && (e.Op == token.QUO || e.Op == token.REM) {
			r.fail("division by constant zero")
		}
		return NewBinOp(e.Op, r.expr(e.X), r.expr(e.Y))
	case *ir.UnaryExpr:
		return NewUnOp(e.Op, r.expr(e.X))
	case *ir.CallExpr:
		call := &dst.CallExpr{Args: r.exprs(e.Args)}
		if e.Recv == nil {
			call.Fun = NewName(e.Name)
		} else {
			call.Fun = &dst.SelectorExpr{X: r.operand(e.Recv), Sel: dst.NewIdent(e.Name)}
		}
		return call
	case *ir.FieldExpr:
		return &dst.SelectorExpr{X: r.operand(e.X), Sel: dst.NewIdent(e.Name)}
	}
	r.fail("expression %s", ir.Format(e))
	return nil
}

// operand returns the expression x in a position that binds tighter than any operator
func (r *raiser) operand(x ir.Expr) dst.Expr {
	res := r.expr(x)
	if precedence(res) < token.HighestPrec {
		return &dst.ParenExpr{X: res}
	}
	return res
}
