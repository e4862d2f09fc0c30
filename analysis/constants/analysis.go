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

// Package constants implements constant propagation.
//
// The analysis tracks the locals of type int and boolean. A local is constant on an edge when every path reaching
// the edge assigns it the same value; branch conditions refine the values on their outgoing edges, and edges that
// a constant condition never takes are unreachable. The transformation replaces reads of constant locals and
// constant conditions by literals, and resolves the conditional statements whose condition is constant.
package constants

import (
	"go/token"

	"github.com/awslabs/ar-gflow/analysis/cfg"
	"github.com/awslabs/ar-gflow/analysis/flow"
	"github.com/awslabs/ar-gflow/analysis/ir"
)

// Analysis is the constant propagation analysis of one method
type Analysis struct {
	method *ir.Method
}

// New returns the constant propagation analysis of m
func New(m *ir.Method) *Analysis {
	return &Analysis{method: m}
}

// Solve runs constant propagation on the graph g
func Solve(g *cfg.Cfg, opts ...flow.Option) (*flow.Result[*Facts], error) {
	return flow.Solve[*Facts](g, New(g.Method), opts...)
}

// Optimize runs constant propagation on the graph g and rewrites its method. It returns true when the method
// changed.
func Optimize(g *cfg.Cfg, opts ...flow.Option) (bool, error) {
	return flow.SolveIntegrated[*Facts](g, New(g.Method), opts...)
}

func (a *Analysis) Direction() flow.Direction { return flow.Forward }

func (a *Analysis) Bottom() *Facts { return nil }

// Initial returns the facts at the entry of the method: parameters are not constant, and locals are undefined.
func (a *Analysis) Initial() *Facts {
	f := newFacts()
	for _, p := range a.method.Params {
		f.values[p] = NotConst
	}
	return f
}

// kindOf returns the kind of the constants a local can hold, or 0 for locals that are not tracked
func kindOf(l *ir.Local) ir.ConstKind {
	switch l.Type {
	case "int":
		return ir.IntConst
	case "boolean":
		return ir.BoolConst
	}
	return 0
}

// valueOf returns the value of l after it is assigned the result of e
func valueOf(l *ir.Local, c ir.Const, ok bool) Value {
	if ok && kindOf(l) != 0 && c.Kind == kindOf(l) {
		return Constant(c)
	}
	return NotConst
}

var compoundOps = map[token.Token]token.Token{
	token.ADD_ASSIGN: token.ADD,
	token.SUB_ASSIGN: token.SUB,
	token.MUL_ASSIGN: token.MUL,
	token.QUO_ASSIGN: token.QUO,
	token.REM_ASSIGN: token.REM,
	token.AND_ASSIGN: token.AND,
	token.OR_ASSIGN:  token.OR,
	token.XOR_ASSIGN: token.XOR,
	token.SHL_ASSIGN: token.SHL,
	token.SHR_ASSIGN: token.SHR,
}

func (a *Analysis) Transfer(n *cfg.Node, in *Facts, e *cfg.Edge) *Facts {
	if in == nil {
		return nil
	}
	switch n.Kind {
	case cfg.Write:
		switch {
		case n.Declares():
			return in.without(n.Local)
		case n.Value == nil:
			// catch parameter
			return in.with(n.Local, NotConst)
		}
		c, ok := ir.Eval(n.Value, in.lookup)
		return in.with(n.Local, valueOf(n.Local, c, ok))
	case cfg.ReadWrite:
		return in.with(n.Local, a.update(n, in))
	case cfg.Cond:
		return refineCond(n.Value, in, e.Kind == cfg.True)
	case cfg.Case:
		return refineCase(n, in, e.Kind == cfg.True)
	}
	return in
}

// update returns the value of the local of a compound assignment or increment after the node
func (a *Analysis) update(n *cfg.Node, in *Facts) Value {
	old, ok := in.lookup(n.Local)
	if !ok {
		return NotConst
	}
	var c ir.Const
	switch x := n.Origin.(type) {
	case *ir.AssignExpr:
		op, known := compoundOps[x.Op]
		if !known {
			return NotConst
		}
		rhs, okr := ir.Eval(x.RHS, in.lookup)
		if !okr {
			return NotConst
		}
		c, ok = ir.EvalBinary(op, old, rhs)
	case *ir.IncDecExpr:
		op := token.ADD
		if x.Op == token.DEC {
			op = token.SUB
		}
		c, ok = ir.EvalBinary(op, old, ir.Int(1))
	default:
		return NotConst
	}
	return valueOf(n.Local, c, ok)
}

// refineCond returns the facts on the edge taken when the atomic condition cond evaluates to branch.
func refineCond(cond ir.Expr, in *Facts, branch bool) *Facts {
	if c, ok := ir.Eval(cond, in.lookup); ok && c.Kind == ir.BoolConst {
		if c.Bool != branch {
			return nil
		}
		return in
	}
	switch x := cond.(type) {
	case *ir.Ident:
		if x.Local != nil && kindOf(x.Local) == ir.BoolConst {
			return in.with(x.Local, Constant(ir.Bool(branch)))
		}
	case *ir.BinaryExpr:
		if (x.Op == token.EQL && branch) || (x.Op == token.NEQ && !branch) {
			if l, c, ok := localEquals(x.X, x.Y, in); ok {
				return in.with(l, Constant(c))
			}
			if l, c, ok := localEquals(x.Y, x.X, in); ok {
				return in.with(l, Constant(c))
			}
		}
	}
	return in
}

// localEquals matches a comparison of a tracked local l with an expression that evaluates to a constant c
func localEquals(x, y ir.Expr, in *Facts) (*ir.Local, ir.Const, bool) {
	l := ir.LocalOf(x)
	if l == nil || kindOf(l) == 0 {
		return nil, ir.Const{}, false
	}
	c, ok := ir.Eval(y, in.lookup)
	if !ok || c.Kind != kindOf(l) {
		return nil, ir.Const{}, false
	}
	return l, c, true
}

// refineCase returns the facts on the edge taken when the case value of n matches the switch tag (branch is true)
// or does not.
func refineCase(n *cfg.Node, in *Facts, branch bool) *Facts {
	if n.Local == nil || kindOf(n.Local) == 0 {
		return in
	}
	c, ok := ir.Eval(n.Value, in.lookup)
	if !ok || c.Kind != kindOf(n.Local) {
		return in
	}
	tag, known := in.lookup(n.Local)
	switch {
	case known && (tag == c) != branch:
		return nil
	case branch:
		return in.with(n.Local, Constant(c))
	}
	return in
}

// Transform replaces the reads of constant locals and the constant conditions by literals. When the whole condition of an if statement or a loop is constant, the statement is resolved, and a
// switch on a constant keeps only the clauses it can reach.
func (a *Analysis) Transform(g *cfg.Cfg, n *cfg.Node, in *Facts) (bool, error) {
	if in == nil {
		return false, nil
	}
	root := g.Method.Body
	switch n.Kind {
	case cfg.Read:
		id, ok := n.Origin.(*ir.Ident)
		if !ok || id.Local != n.Local {
			return false, &flow.InvariantViolationError{Node: n, Reason: "read does not originate from its local"}
		}
		c, ok := in.lookup(n.Local)
		if !ok || len(g.NodesOf(id, cfg.Cond)) > 0 {
			// a local used as a condition is folded with its condition
			return false, nil
		}
		if c.Kind != kindOf(n.Local) {
			return false, &flow.InvariantViolationError{Node: n, Reason: "constant does not have the type of " + n.Local.Name}
		}
		return ir.Replace(root, id, c.Lit(id.Position)), nil
	case cfg.Cond:
		return foldCond(root, n, in), nil
	case cfg.Case:
		return foldCase(root, n, in), nil
	}
	return false, nil
}

// foldCase replaces a switch tag of known value by a literal, and drops the clauses the switch cannot reach.
func foldCase(root ir.Node, n *cfg.Node, in *Facts) bool {
	s, ok := n.Stmt.(*ir.SwitchStmt)
	if !ok {
		return false
	}
	replaced := false
	if !ir.IsLiteral(s.Tag) {
		c, ok := ir.Eval(s.Tag, in.lookup)
		if !ok || c.Kind != ir.IntConst || !ir.Replace(root, s.Tag, c.Lit(s.Tag.Pos())) {
			return false
		}
		replaced = true
	}
	return ir.SimplifyStmt(root, s) || replaced
}

func foldCond(root ir.Node, n *cfg.Node, in *Facts) bool {
	if whole := ir.CondOf(n.Stmt); whole != nil && !ir.IsLiteral(whole) && ir.FirstCondLeaf(whole) == n.Value {
		// the condition has no side effects when it evaluates, so the facts entering its first atomic condition
		// hold for all of it
		if c, ok := ir.Eval(whole, in.lookup); ok && c.Kind == ir.BoolConst {
			if !ir.Replace(root, whole, c.Lit(whole.Pos())) {
				return false
			}
			ir.SimplifyStmt(root, n.Stmt)
			return true
		}
	}
	if ir.IsLiteral(n.Value) {
		return false
	}
	if c, ok := ir.Eval(n.Value, in.lookup); ok && c.Kind == ir.BoolConst {
		return ir.Replace(root, n.Value, c.Lit(n.Value.Pos()))
	}
	return false
}
