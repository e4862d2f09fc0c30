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

package ir

// Clone returns a deep copy of the method. The copy has its own locals, whose scopes are the copies of the scopes
// of the original locals, so that rewriting the copy never affects m.
func Clone(m *Method) *Method {
	c := &cloner{
		locals: make(map[*Local]*Local, len(m.Locals)),
		nodes:  map[Node]Node{},
	}
	r := &Method{Position: m.Position, Name: m.Name, Result: m.Result}
	for _, l := range m.Locals {
		nl := &Local{Name: l.Name, Type: l.Type, Kind: l.Kind, Index: l.Index, Scope: l.Scope}
		c.locals[l] = nl
		r.Locals = append(r.Locals, nl)
	}
	for _, p := range m.Params {
		r.Params = append(r.Params, c.local(p))
	}
	r.Body = c.block(m.Body)
	for _, l := range r.Locals {
		if s, ok := c.nodes[l.Scope]; ok {
			l.Scope = s
		}
	}
	return r
}

type cloner struct {
	locals map[*Local]*Local
	// nodes maps the scope nodes of the original to their copies
	nodes map[Node]Node
}

func (c *cloner) local(l *Local) *Local {
	if nl, ok := c.locals[l]; ok {
		return nl
	}
	return l
}

func (c *cloner) exprs(es []Expr) []Expr {
	if es == nil {
		return nil
	}
	r := make([]Expr, len(es))
	for i, e := range es {
		r[i] = c.expr(e)
	}
	return r
}

func (c *cloner) stmts(ss []Stmt) []Stmt {
	if ss == nil {
		return nil
	}
	r := make([]Stmt, len(ss))
	for i, s := range ss {
		r[i] = c.stmt(s)
	}
	return r
}

func (c *cloner) expr(e Expr) Expr {
	switch e := e.(type) {
	case nil:
		return nil
	case *Ident:
		return &Ident{Position: e.Position, Name: e.Name, Local: c.local(e.Local)}
	case *IntLit:
		x := *e
		return &x
	case *BoolLit:
		x := *e
		return &x
	case *StringLit:
		x := *e
		return &x
	case *NullLit:
		x := *e
		return &x
	case *BinaryExpr:
		return &BinaryExpr{Position: e.Position, Op: e.Op, X: c.expr(e.X), Y: c.expr(e.Y)}
	case *UnaryExpr:
		return &UnaryExpr{Position: e.Position, Op: e.Op, X: c.expr(e.X)}
	case *AssignExpr:
		return &AssignExpr{Position: e.Position, Op: e.Op, LHS: c.expr(e.LHS), RHS: c.expr(e.RHS)}
	case *IncDecExpr:
		return &IncDecExpr{Position: e.Position, Op: e.Op, Prefix: e.Prefix, X: c.expr(e.X)}
	case *CallExpr:
		return &CallExpr{Position: e.Position, Recv: c.expr(e.Recv), Name: e.Name, Args: c.exprs(e.Args)}
	case *NewExpr:
		return &NewExpr{Position: e.Position, Type: e.Type, Args: c.exprs(e.Args)}
	case *FieldExpr:
		return &FieldExpr{Position: e.Position, X: c.expr(e.X), Name: e.Name}
	case *CondExpr:
		return &CondExpr{Position: e.Position, Cond: c.expr(e.Cond), Then: c.expr(e.Then), Else: c.expr(e.Else)}
	}
	panic("ir.Clone: unexpected expression")
}

func (c *cloner) block(b *Block) *Block {
	if b == nil {
		return nil
	}
	r := &Block{Position: b.Position}
	c.nodes[b] = r
	r.Stmts = c.stmts(b.Stmts)
	return r
}

func (c *cloner) stmt(s Stmt) Stmt {
	switch s := s.(type) {
	case nil:
		return nil
	case *Block:
		return c.block(s)
	case *DeclStmt:
		return &DeclStmt{Position: s.Position, Local: c.local(s.Local), Init: c.expr(s.Init)}
	case *ExprStmt:
		return &ExprStmt{Position: s.Position, X: c.expr(s.X)}
	case *EmptyStmt:
		return &EmptyStmt{Position: s.Position}
	case *IfStmt:
		return &IfStmt{Position: s.Position, Cond: c.expr(s.Cond), Then: c.stmt(s.Then), Else: c.stmt(s.Else)}
	case *WhileStmt:
		return &WhileStmt{Position: s.Position, Cond: c.expr(s.Cond), Body: c.stmt(s.Body)}
	case *DoStmt:
		return &DoStmt{Position: s.Position, Body: c.stmt(s.Body), Cond: c.expr(s.Cond)}
	case *ForStmt:
		r := &ForStmt{Position: s.Position}
		c.nodes[s] = r
		r.Init = c.stmts(s.Init)
		r.Cond = c.expr(s.Cond)
		r.Update = c.exprs(s.Update)
		r.Body = c.stmt(s.Body)
		return r
	case *SwitchStmt:
		r := &SwitchStmt{Position: s.Position, Tag: c.expr(s.Tag)}
		c.nodes[s] = r
		for _, cc := range s.Cases {
			r.Cases = append(r.Cases, &CaseClause{Position: cc.Position, Values: c.exprs(cc.Values),
				Body: c.stmts(cc.Body)})
		}
		return r
	case *BreakStmt:
		x := *s
		return &x
	case *ContinueStmt:
		x := *s
		return &x
	case *ReturnStmt:
		return &ReturnStmt{Position: s.Position, Result: c.expr(s.Result)}
	case *ThrowStmt:
		return &ThrowStmt{Position: s.Position, X: c.expr(s.X)}
	case *TryStmt:
		r := &TryStmt{Position: s.Position, Body: c.block(s.Body)}
		for _, cc := range s.Catches {
			nc := &CatchClause{Position: cc.Position, Param: c.local(cc.Param)}
			c.nodes[cc] = nc
			nc.Body = c.block(cc.Body)
			r.Catches = append(r.Catches, nc)
		}
		r.Finally = c.block(s.Finally)
		return r
	case *LabeledStmt:
		return &LabeledStmt{Position: s.Position, Label: s.Label, Stmt: c.stmt(s.Stmt)}
	case *SynchronizedStmt:
		return &SynchronizedStmt{Position: s.Position, Lock: c.expr(s.Lock), Body: c.block(s.Body)}
	}
	panic("ir.Clone: unexpected statement")
}
