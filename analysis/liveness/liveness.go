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

// Package liveness implements the liveness analysis of locals and dead-store elimination.
//
// A local is live on an edge when some path from the edge reads it before writing it. The analysis is backward:
// the assumption entering a node in the direction of the analysis is the set of locals live after the node. An
// assignment to a local that is not live afterwards is a dead store; the transformation removes it, keeping the
// side effects of its right-hand side.
package liveness

import (
	"strings"

	"github.com/awslabs/ar-gflow/analysis/cfg"
	"github.com/awslabs/ar-gflow/analysis/flow"
	"github.com/awslabs/ar-gflow/analysis/ir"
	"golang.org/x/tools/container/intsets"
)

// Live is an immutable set of locals, identified by their index in the locals of their method. The nil *Live is
// the empty set.
type Live struct {
	method *ir.Method
	set    intsets.Sparse
}

func (l *Live) empty() bool {
	return l == nil || l.set.IsEmpty()
}

// Has returns true when the local x is in the set
func (l *Live) Has(x *ir.Local) bool {
	return l != nil && l.set.Has(x.Index)
}

// Len returns the number of locals in the set
func (l *Live) Len() int {
	if l == nil {
		return 0
	}
	return l.set.Len()
}

// Join returns the union of both sets
func (l *Live) Join(o *Live) *Live {
	if o.empty() {
		return l
	}
	if l.empty() {
		return o
	}
	r := &Live{method: l.method}
	r.set.Union(&l.set, &o.set)
	return r
}

func (l *Live) Equal(o *Live) bool {
	if l.empty() || o.empty() {
		return l.empty() && o.empty()
	}
	return l.set.Equals(&o.set)
}

func (l *Live) with(x *ir.Local, m *ir.Method) *Live {
	if l.Has(x) {
		return l
	}
	r := &Live{method: m}
	if l != nil {
		r.set.Copy(&l.set)
	}
	r.set.Insert(x.Index)
	return r
}

func (l *Live) without(x *ir.Local) *Live {
	if !l.Has(x) {
		return l
	}
	r := &Live{method: l.method}
	r.set.Copy(&l.set)
	r.set.Remove(x.Index)
	return r
}

func (l *Live) String() string {
	if l.empty() {
		return "{}"
	}
	names := make([]string, 0, l.set.Len())
	for _, i := range l.set.AppendTo(nil) {
		if l.method != nil && i < len(l.method.Locals) {
			names = append(names, l.method.Locals[i].Name)
		}
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// Analysis is the liveness analysis of one method
type Analysis struct {
	method *ir.Method
}

// New returns the liveness analysis of m
func New(m *ir.Method) *Analysis {
	return &Analysis{method: m}
}

// Solve runs the liveness analysis on the graph g
func Solve(g *cfg.Cfg, opts ...flow.Option) (*flow.Result[*Live], error) {
	return flow.Solve[*Live](g, New(g.Method), opts...)
}

// Optimize eliminates the dead stores of the method of g. It returns true when the method changed.
func Optimize(g *cfg.Cfg, opts ...flow.Option) (bool, error) {
	return flow.SolveIntegrated[*Live](g, New(g.Method), opts...)
}

func (a *Analysis) Direction() flow.Direction { return flow.Backward }
func (a *Analysis) Bottom() *Live             { return nil }
func (a *Analysis) Initial() *Live            { return nil }

// Transfer returns the locals live before n, given the locals in live after n
func (a *Analysis) Transfer(n *cfg.Node, in *Live, e *cfg.Edge) *Live {
	switch n.Kind {
	case cfg.Read, cfg.ReadWrite:
		return in.with(n.Local, a.method)
	case cfg.Write:
		return in.without(n.Local)
	}
	return in
}

// Transform removes the store of n when its local is not in live, the set of locals live after n.
func (a *Analysis) Transform(g *cfg.Cfg, n *cfg.Node, live *Live) (bool, error) {
	if (n.Kind != cfg.Write && n.Kind != cfg.ReadWrite) || n.Local == nil || live.Has(n.Local) {
		return false, nil
	}
	root := g.Method.Body
	switch x := n.Origin.(type) {
	case *ir.DeclStmt:
		if x.Init == nil || ir.HasSideEffects(x.Init) || !ir.Encloses(root, x) {
			return false, nil
		}
		x.Init = nil
		return true, nil
	case *ir.AssignExpr:
		if ir.LocalOf(x.LHS) != n.Local {
			return false, &flow.InvariantViolationError{Node: n, Reason: "assignment does not write " + n.Local.Name}
		}
		return removeStore(root, n.Stmt, x, x.RHS), nil
	case *ir.IncDecExpr:
		return removeStore(root, n.Stmt, x, nil), nil
	}
	return false, nil
}

// removeStore removes the assignment e, evaluated by the statement s, keeping the evaluation of rhs when it has side
// effects. Assignments nested in larger expressions are kept.
func removeStore(root ir.Node, s ir.Stmt, e ir.Expr, rhs ir.Expr) bool {
	pure := rhs == nil || !ir.HasSideEffects(rhs)
	switch s := s.(type) {
	case *ir.ExprStmt:
		if s.X != e || !ir.Encloses(root, s) {
			return false
		}
		if pure {
			return ir.Remove(root, s)
		}
		if isStatementExpr(rhs) {
			s.X = rhs
			return true
		}
	case *ir.ForStmt:
		for i, u := range s.Update {
			if u != e || !ir.Encloses(root, s) {
				continue
			}
			if pure {
				s.Update = append(s.Update[:i:i], s.Update[i+1:]...)
				return true
			}
			if isStatementExpr(rhs) {
				s.Update[i] = rhs
				return true
			}
		}
	}
	return false
}

// isStatementExpr returns true when e can be used as a statement
func isStatementExpr(e ir.Expr) bool {
	switch e.(type) {
	case *ir.CallExpr, *ir.NewExpr, *ir.AssignExpr, *ir.IncDecExpr:
		return true
	}
	return false
}
