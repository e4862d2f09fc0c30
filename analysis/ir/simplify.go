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

import "go/token"

// Simplify performs local cleanups on a method body that has been rewritten by optimizations. It folds constant
// expressions, resolves statements whose condition or switch tag is a literal, drops statements without effect or that cannot
// be reached, and flattens nested blocks that declare nothing. It returns true when the body changed.
func Simplify(m *Method) bool {
	changed := false
	Apply(m.Body, nil, func(c *Cursor) bool {
		if simplifyNode(c) {
			changed = true
		}
		return true
	})
	return changed
}

// SimplifyStmt applies the cleanups of Simplify to the statement s of the tree rooted at root, without visiting the
// children of s. It returns true when s was rewritten.
func SimplifyStmt(root Node, s Stmt) bool {
	changed, found := false, false
	Apply(root, func(c *Cursor) bool {
		if found {
			return false
		}
		if c.Node() == Node(s) && c.parent != nil {
			found = true
			changed = simplifyNode(c)
			return false
		}
		return true
	}, nil)
	return changed
}

func simplifyNode(c *Cursor) bool {
	switch n := c.Node().(type) {
	case *BinaryExpr, *UnaryExpr, *CondExpr:
		e := n.(Expr)
		if v, ok := Eval(e, nil); ok {
			c.Replace(v.Lit(e.Pos()))
			return true
		}
		if r := shortCircuit(e); r != nil {
			c.Replace(r)
			return true
		}
	case *IfStmt:
		if b, ok := n.Cond.(*BoolLit); ok {
			switch {
			case b.Value:
				c.Replace(n.Then)
			case n.Else != nil:
				c.Replace(n.Else)
			default:
				removeStmt(c)
			}
			return true
		}
		if isEmpty(n.Then) && (n.Else == nil || isEmpty(n.Else)) && !HasSideEffects(n.Cond) {
			removeStmt(c)
			return true
		}
		if n.Else != nil && isEmpty(n.Else) {
			n.Else = nil
			return true
		}
	case *WhileStmt:
		if b, ok := n.Cond.(*BoolLit); ok && !b.Value {
			removeStmt(c)
			return true
		}
	case *ForStmt:
		if b, ok := n.Cond.(*BoolLit); ok && !b.Value {
			c.Replace(&Block{Position: n.Position, Stmts: n.Init})
			return true
		}
	case *DoStmt:
		if b, ok := n.Cond.(*BoolLit); ok && !b.Value && len(JumpsTo(n.Body, labelOf(c.Parent()))) == 0 {
			c.Replace(n.Body)
			return true
		}
	case *ExprStmt:
		if !HasSideEffects(n.X) {
			removeStmt(c)
			return true
		}
	case *Block:
		return flatten(&n.Stmts)
	case *SwitchStmt:
		return resolveCases(c, n)
	case *CaseClause:
		return flatten(&n.Body)
	}
	return false
}

// resolveCases drops the clauses of a switch on a literal that neither the entry nor a fall through from the
// matching clause reaches. Clauses declaring a local stay, since later clauses may use it. A switch where no clause
// matches is removed.
func resolveCases(c *Cursor, s *SwitchStmt) bool {
	tag, ok := ConstOf(s.Tag)
	if !ok {
		return false
	}
	match, dflt := -1, -1
	for i, cc := range s.Cases {
		if cc.IsDefault() {
			dflt = i
		}
		for _, v := range cc.Values {
			k, ok := ConstOf(v)
			if !ok {
				return false
			}
			if k == tag && match < 0 {
				match = i
			}
		}
	}
	if match < 0 {
		match = dflt
	}
	if match < 0 {
		removeStmt(c)
		return true
	}
	last := match
	for last < len(s.Cases)-1 && completes(s.Cases[last].Body) {
		last++
	}
	kept := make([]*CaseClause, 0, len(s.Cases))
	for i, cc := range s.Cases {
		if (i >= match && i <= last) || declaresIn(cc.Body) {
			kept = append(kept, cc)
		}
	}
	if len(kept) == len(s.Cases) {
		return false
	}
	s.Cases = kept
	return true
}

// completes returns false when a statement list ends with an unconditional jump.
func completes(stmts []Stmt) bool {
	return len(stmts) == 0 || !isJump(stmts[len(stmts)-1])
}

// shortCircuit simplifies a boolean operation whose left operand is a literal that does not decide the result.
func shortCircuit(e Expr) Expr {
	bin, ok := e.(*BinaryExpr)
	if !ok {
		return nil
	}
	lit, ok := bin.X.(*BoolLit)
	if !ok {
		return nil
	}
	if (bin.Op == token.LAND && lit.Value) || (bin.Op == token.LOR && !lit.Value) {
		return bin.Y
	}
	return nil
}

func removeStmt(c *Cursor) {
	if c.Index() >= 0 {
		c.Delete()
	} else {
		c.Replace(&EmptyStmt{Position: c.Node().Pos()})
	}
}

func isEmpty(s Stmt) bool {
	switch s := s.(type) {
	case *EmptyStmt:
		return true
	case *Block:
		for _, x := range s.Stmts {
			if !isEmpty(x) {
				return false
			}
		}
		return true
	}
	return false
}

func labelOf(n Node) string {
	if l, ok := n.(*LabeledStmt); ok {
		return l.Label
	}
	return ""
}

// flatten rewrites a statement list in place: empty statements and statements following an unconditional jump
// are dropped, and nested blocks that declare no local are spliced into the list.
func flatten(stmts *[]Stmt) bool {
	changed := false
	out := make([]Stmt, 0, len(*stmts))
	for _, s := range *stmts {
		switch s := s.(type) {
		case *EmptyStmt:
			changed = true
			continue
		case *Block:
			if !declares(s) {
				out = append(out, s.Stmts...)
				changed = true
				continue
			}
		}
		out = append(out, s)
	}
	for i, s := range out {
		if isJump(s) && i < len(out)-1 {
			out = out[:i+1]
			changed = true
			break
		}
	}
	if changed {
		*stmts = out
	}
	return changed
}

func declares(b *Block) bool { return declaresIn(b.Stmts) }

func declaresIn(stmts []Stmt) bool {
	for _, s := range stmts {
		if _, ok := s.(*DeclStmt); ok {
			return true
		}
	}
	return false
}

func isJump(s Stmt) bool {
	switch s.(type) {
	case *ReturnStmt, *ThrowStmt, *BreakStmt, *ContinueStmt:
		return true
	}
	return false
}

// JumpsTo returns the break and continue statements of body that transfer control to the loop or switch
// statement whose body it is. label is the label of that statement, or empty.
func JumpsTo(body Node, label string) []Stmt {
	var jumps []Stmt
	loops, switches := 0, 0
	Apply(body,
		func(c *Cursor) bool {
			switch n := c.Node().(type) {
			case *WhileStmt, *DoStmt, *ForStmt:
				loops++
			case *SwitchStmt:
				switches++
			case *BreakStmt:
				if (n.Label == "" && loops == 0 && switches == 0) || (n.Label != "" && n.Label == label) {
					jumps = append(jumps, n)
				}
			case *ContinueStmt:
				if (n.Label == "" && loops == 0) || (n.Label != "" && n.Label == label) {
					jumps = append(jumps, n)
				}
			}
			return true
		},
		func(c *Cursor) bool {
			switch c.Node().(type) {
			case *WhileStmt, *DoStmt, *ForStmt:
				loops--
			case *SwitchStmt:
				switches--
			}
			return true
		})
	return jumps
}
