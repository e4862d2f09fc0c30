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

package cfg

import (
	"fmt"
	"go/token"

	"github.com/awslabs/ar-gflow/analysis/ir"
)

// UnsupportedConstructError is returned when a method contains a construct the builder cannot translate.
type UnsupportedConstructError struct {
	Node   ir.Node
	Reason string
}

func (e *UnsupportedConstructError) Error() string {
	if e.Node == nil {
		return "unsupported construct: " + e.Reason
	}
	return fmt.Sprintf("unsupported construct %T: %s", e.Node, e.Reason)
}

func unsupported(n ir.Node, format string, args ...any) *UnsupportedConstructError {
	return &UnsupportedConstructError{Node: n, Reason: fmt.Sprintf(format, args...)}
}

// catchAll are the exception types whose handlers catch every exception
var catchAll = map[string]bool{
	"Exception":           true,
	"Throwable":           true,
	"java.lang.Exception": true,
	"java.lang.Throwable": true,
}

// exit is an edge whose source is known and whose destination is the next node the builder creates or a node
// it resolves later
type exit struct {
	from *Node
	kind EdgeKind
}

// jump is an exit that leaves the statement being built: a break, a continue, a return or an exception
type jump struct {
	exit
	label string
}

// target is a statement that break or continue statements can jump to
type target struct {
	label     string
	loop      bool
	breakable bool
}

type tryFrame struct {
	try *ir.TryStmt
	// inBody is true while the body of the try is built; exceptions are caught by the handlers only then
	inBody bool
	// handlers holds the exception exits entering each catch clause
	handlers [][]exit
}

type builder struct {
	g *Cfg
	// next holds the exits that flow into the next node created
	next []exit
	// jumps holds the exits that leave the statements built so far, up to the innermost try statement with
	// a finally block
	jumps   []jump
	cur     ir.Stmt
	tries   []*tryFrame
	targets []target
}

// Build returns the control-flow graph of the method body. It fails with an *UnsupportedConstructError when the
// body contains a construct that has no translation; the method is never modified.
func Build(m *ir.Method) (g *Cfg, err error) {
	g = &Cfg{Method: m}
	b := &builder{g: g}
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*UnsupportedConstructError); ok {
				g = nil
				err = e
				return
			}
			panic(r)
		}
	}()
	g.Entry = g.newNode(Entry, nil, nil)
	g.Exit = g.newNode(Exit, nil, nil)
	b.next = []exit{{g.Entry, Fallthrough}}
	b.stmt(m.Body)
	b.connect(b.next, g.Exit)
	for _, j := range b.jumps {
		g.newEdge(j.from, g.Exit, j.kind)
	}
	return g, nil
}

func concat(a, b []exit) []exit {
	c := make([]exit, 0, len(a)+len(b))
	return append(append(c, a...), b...)
}

func (b *builder) connect(exits []exit, to *Node) {
	for _, e := range exits {
		b.g.newEdge(e.from, to, e.kind)
	}
}

// add creates a node, connects the pending exits to it and makes it the only pending exit
func (b *builder) add(kind NodeKind, origin ir.Node) *Node {
	n := b.g.newNode(kind, origin, b.cur)
	b.connect(b.next, n)
	b.next = []exit{{n, Fallthrough}}
	return n
}

// takeJumps removes the jumps of the given kind that target the statement labeled label, or the innermost
// enclosing statement when unlabeled, and returns their exits.
func (b *builder) takeJumps(kind EdgeKind, label string, unlabeled bool) []exit {
	var taken []exit
	kept := b.jumps[:0]
	for _, j := range b.jumps {
		if j.kind == kind && ((unlabeled && j.label == "") || (label != "" && j.label == label)) {
			taken = append(taken, j.exit)
		} else {
			kept = append(kept, j)
		}
	}
	b.jumps = kept
	return taken
}

func (b *builder) stmt(s ir.Stmt) {
	b.labeledStmt(s, "")
}

func (b *builder) labeledStmt(s ir.Stmt, label string) {
	saved := b.cur
	b.cur = s
	defer func() { b.cur = saved }()

	switch s := s.(type) {
	case *ir.Block:
		for _, x := range s.Stmts {
			b.stmt(x)
		}
	case *ir.EmptyStmt:
	case *ir.DeclStmt:
		b.expr(s.Init)
		n := b.add(Write, s)
		n.Local = s.Local
		n.Value = s.Init
	case *ir.ExprStmt:
		b.expr(s.X)
	case *ir.IfStmt:
		b.ifStmt(s)
	case *ir.WhileStmt:
		b.whileStmt(s, label)
	case *ir.DoStmt:
		b.doStmt(s, label)
	case *ir.ForStmt:
		b.forStmt(s, label)
	case *ir.SwitchStmt:
		b.switchStmt(s, label)
	case *ir.LabeledStmt:
		switch s.Stmt.(type) {
		case *ir.WhileStmt, *ir.DoStmt, *ir.ForStmt, *ir.SwitchStmt:
			b.labeledStmt(s.Stmt, s.Label)
		default:
			b.targets = append(b.targets, target{label: s.Label})
			b.stmt(s.Stmt)
			b.targets = b.targets[:len(b.targets)-1]
			b.next = concat(b.next, b.takeJumps(Break, s.Label, false))
		}
	case *ir.BreakStmt:
		b.checkJump(s, s.Label, false)
		n := b.add(Goto, s)
		n.Label = s.Label
		b.jumps = append(b.jumps, jump{exit{n, Break}, s.Label})
		b.next = nil
	case *ir.ContinueStmt:
		b.checkJump(s, s.Label, true)
		n := b.add(Goto, s)
		n.Label = s.Label
		b.jumps = append(b.jumps, jump{exit{n, Continue}, s.Label})
		b.next = nil
	case *ir.ReturnStmt:
		b.expr(s.Result)
		n := b.add(Return, s)
		n.Value = s.Result
		b.jumps = append(b.jumps, jump{exit: exit{n, ReturnJump}})
		b.next = nil
	case *ir.ThrowStmt:
		b.expr(s.X)
		n := b.add(Throw, s)
		n.Value = s.X
		b.next = nil
		b.raise(n, thrownType(s.X))
	case *ir.TryStmt:
		b.tryStmt(s)
	case *ir.SynchronizedStmt:
		panic(unsupported(s, "synchronized blocks are not supported"))
	default:
		panic(unsupported(s, "unexpected statement"))
	}
}

// checkJump verifies that a break or continue statement has a target.
func (b *builder) checkJump(s ir.Stmt, label string, isContinue bool) {
	for i := len(b.targets) - 1; i >= 0; i-- {
		t := b.targets[i]
		if label == "" {
			if t.loop || (t.breakable && !isContinue) {
				return
			}
			continue
		}
		if t.label == label {
			if isContinue && !t.loop {
				panic(unsupported(s, "continue target %s is not a loop", label))
			}
			return
		}
	}
	if label != "" {
		panic(unsupported(s, "undefined label %s", label))
	}
	panic(unsupported(s, "%s outside of a loop or switch", ir.Format(s)))
}

func (b *builder) ifStmt(s *ir.IfStmt) {
	t, f := b.cond(s.Cond)
	b.next = t
	b.stmt(s.Then)
	then := b.next
	b.next = f
	if s.Else != nil {
		b.stmt(s.Else)
	}
	b.next = concat(then, b.next)
	if len(b.next) > 0 {
		b.add(Nop, s)
	}
}

// loopBody builds the body of a loop and adds the continue statements that target the loop to the pending exits.
func (b *builder) loopBody(body ir.Stmt, label string) {
	b.targets = append(b.targets, target{label: label, loop: true, breakable: true})
	b.stmt(body)
	b.targets = b.targets[:len(b.targets)-1]
	b.next = concat(b.next, b.takeJumps(Continue, label, true))
}

func (b *builder) whileStmt(s *ir.WhileStmt, label string) {
	head := b.add(Nop, s)
	t, f := b.cond(s.Cond)
	b.next = t
	b.loopBody(s.Body, label)
	b.connect(b.next, head)
	b.next = concat(f, b.takeJumps(Break, label, true))
}

func (b *builder) doStmt(s *ir.DoStmt, label string) {
	head := b.add(Nop, s)
	b.loopBody(s.Body, label)
	t, f := b.cond(s.Cond)
	b.connect(t, head)
	b.next = concat(f, b.takeJumps(Break, label, true))
}

func (b *builder) forStmt(s *ir.ForStmt, label string) {
	for _, init := range s.Init {
		b.stmt(init)
	}
	head := b.add(Nop, s)
	var f []exit
	if s.Cond != nil {
		var t []exit
		t, f = b.cond(s.Cond)
		b.next = t
	}
	b.loopBody(s.Body, label)
	for _, u := range s.Update {
		b.expr(u)
	}
	b.connect(b.next, head)
	b.next = concat(f, b.takeJumps(Break, label, true))
}

func (b *builder) switchStmt(s *ir.SwitchStmt, label string) {
	b.expr(s.Tag)
	tag := ir.LocalOf(s.Tag)
	entries := make([][]exit, len(s.Cases))
	dflt := -1
	for i, c := range s.Cases {
		if c.IsDefault() {
			dflt = i
			continue
		}
		for _, v := range c.Values {
			n := b.add(Case, v)
			n.Local = tag
			n.Value = v
			entries[i] = append(entries[i], exit{n, True})
			b.next = []exit{{n, False}}
		}
	}
	var noMatch []exit
	if dflt >= 0 {
		entries[dflt] = concat(entries[dflt], b.next)
	} else {
		noMatch = b.next
	}
	b.next = nil
	b.targets = append(b.targets, target{label: label, breakable: true})
	for i, c := range s.Cases {
		// control falls through from the end of the previous clause
		b.next = concat(entries[i], b.next)
		for _, x := range c.Body {
			b.stmt(x)
		}
	}
	b.targets = b.targets[:len(b.targets)-1]
	b.next = concat(concat(b.next, noMatch), b.takeJumps(Break, label, true))
}

// cond builds the nodes evaluating a boolean expression with short-circuit semantics. It returns the exits taken
// when the expression is true and when it is false.
func (b *builder) cond(e ir.Expr) (t, f []exit) {
	switch x := e.(type) {
	case *ir.BinaryExpr:
		switch x.Op {
		case token.LAND:
			t1, f1 := b.cond(x.X)
			b.next = t1
			t2, f2 := b.cond(x.Y)
			return t2, concat(f1, f2)
		case token.LOR:
			t1, f1 := b.cond(x.X)
			b.next = f1
			t2, f2 := b.cond(x.Y)
			return concat(t1, t2), f2
		}
	case *ir.UnaryExpr:
		if x.Op == token.NOT {
			t, f := b.cond(x.X)
			return f, t
		}
	case *ir.CondExpr:
		tc, fc := b.cond(x.Cond)
		b.next = tc
		ta, fa := b.cond(x.Then)
		b.next = fc
		tb, fb := b.cond(x.Else)
		return concat(ta, tb), concat(fa, fb)
	}
	b.expr(e)
	n := b.add(Cond, e)
	n.Value = e
	b.next = nil
	return []exit{{n, True}}, []exit{{n, False}}
}

// expr builds the nodes evaluating an expression, in evaluation order.
func (b *builder) expr(e ir.Expr) {
	switch x := e.(type) {
	case nil:
	case *ir.Ident:
		if x.Local != nil {
			n := b.add(Read, x)
			n.Local = x.Local
		}
	case *ir.IntLit, *ir.BoolLit, *ir.StringLit, *ir.NullLit:
	case *ir.BinaryExpr:
		if x.Op == token.LAND || x.Op == token.LOR {
			t, f := b.cond(x)
			b.next = concat(t, f)
			return
		}
		b.expr(x.X)
		b.expr(x.Y)
		if mayDivideByZero(x) {
			b.check(x)
		}
	case *ir.UnaryExpr:
		b.expr(x.X)
	case *ir.CondExpr:
		t, f := b.cond(x.Cond)
		b.next = t
		b.expr(x.Then)
		then := b.next
		b.next = f
		b.expr(x.Else)
		b.next = concat(then, b.next)
	case *ir.AssignExpr:
		l := ir.LocalOf(x.LHS)
		if l == nil {
			b.lvalue(x.LHS)
		}
		b.expr(x.RHS)
		if (x.Op == token.QUO_ASSIGN || x.Op == token.REM_ASSIGN) && !nonZero(x.RHS) {
			b.check(x)
		}
		if l == nil {
			b.checkStore(x.LHS)
			return
		}
		if x.Op == token.ASSIGN {
			n := b.add(Write, x)
			n.Local = l
			n.Value = x.RHS
		} else {
			n := b.add(ReadWrite, x)
			n.Local = l
		}
	case *ir.IncDecExpr:
		if l := ir.LocalOf(x.X); l != nil {
			n := b.add(ReadWrite, x)
			n.Local = l
		} else {
			b.lvalue(x.X)
			b.checkStore(x.X)
		}
	case *ir.CallExpr:
		b.expr(x.Recv)
		for _, a := range x.Args {
			b.expr(a)
		}
		b.raise(b.add(Call, x), "")
	case *ir.NewExpr:
		for _, a := range x.Args {
			b.expr(a)
		}
		b.raise(b.add(Call, x), "")
	case *ir.FieldExpr:
		b.expr(x.X)
		if mayBeNull(x.X) {
			b.check(x)
		}
	default:
		panic(unsupported(e, "unexpected expression"))
	}
}

// check adds a node for an operation that may throw, with its exception edges
func (b *builder) check(origin ir.Expr) {
	b.raise(b.add(Check, origin), "")
}

// checkStore adds the check of a store into the field lhs, once the stored value is evaluated
func (b *builder) checkStore(lhs ir.Expr) {
	if f, ok := lhs.(*ir.FieldExpr); ok && mayBeNull(f.X) {
		b.check(f)
	}
}

func nonZero(e ir.Expr) bool {
	c, ok := ir.ConstOf(e)
	return ok && c.Kind == ir.IntConst && c.Int != 0
}

func mayDivideByZero(e *ir.BinaryExpr) bool {
	return (e.Op == token.QUO || e.Op == token.REM) && !nonZero(e.Y)
}

// mayBeNull returns false for the receivers that cannot be null: class names, which do not resolve to a local,
// and allocations
func mayBeNull(e ir.Expr) bool {
	switch x := e.(type) {
	case *ir.Ident:
		return x.Local != nil
	case *ir.NewExpr, *ir.StringLit:
		return false
	}
	return true
}

// lvalue builds the nodes evaluating the parts of an assignment target that is not a local
func (b *builder) lvalue(e ir.Expr) {
	if f, ok := e.(*ir.FieldExpr); ok {
		b.expr(f.X)
	}
}

func thrownType(e ir.Expr) string {
	switch x := e.(type) {
	case *ir.NewExpr:
		return x.Type
	case *ir.Ident:
		if x.Local != nil {
			return x.Local.Type
		}
	}
	return ""
}

// raise adds the exception edges of a node that may throw an exception of type typ ("" when unknown). The
// exception enters every handler of the enclosing try statements until one of them certainly catches it; an
// exception that leaves a try statement with a finally block is resolved when the finally block is built, and an
// exception that leaves the method goes to the exit.
func (b *builder) raise(from *Node, typ string) {
	e := exit{from, Exception}
	for i := len(b.tries) - 1; i >= 0; i-- {
		f := b.tries[i]
		if f.inBody {
			for ci, c := range f.try.Catches {
				f.handlers[ci] = append(f.handlers[ci], e)
				if catchAll[c.Param.Type] || (typ != "" && c.Param.Type == typ) {
					return
				}
			}
		}
		if f.try.Finally != nil {
			break
		}
	}
	b.jumps = append(b.jumps, jump{exit: e})
}

func (b *builder) tryStmt(s *ir.TryStmt) {
	frame := &tryFrame{try: s, inBody: true, handlers: make([][]exit, len(s.Catches))}
	var outer []jump
	if s.Finally != nil {
		outer = b.jumps
		b.jumps = nil
	}
	b.tries = append(b.tries, frame)
	b.stmt(s.Body)
	normal := b.next
	frame.inBody = false
	for i, c := range s.Catches {
		b.next = frame.handlers[i]
		n := b.add(Write, c)
		n.Local = c.Param
		b.stmt(c.Body)
		normal = concat(normal, b.next)
	}
	b.tries = b.tries[:len(b.tries)-1]
	if s.Finally == nil {
		b.next = normal
		return
	}

	inner := b.jumps
	b.jumps = outer
	var result []exit
	if len(normal) > 0 {
		if end := b.finallyCopy(s, normal); end != nil {
			result = append(result, exit{end, Fallthrough})
		}
	}
	// one copy of the finally block per distinct destination of the jumps leaving the try statement
	type group struct {
		kind  EdgeKind
		label string
	}
	var order []group
	groups := map[group][]exit{}
	for _, j := range inner {
		k := group{j.kind, j.label}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], j.exit)
	}
	for _, k := range order {
		end := b.finallyCopy(s, groups[k])
		if end == nil {
			continue
		}
		end.Label = k.label
		if k.kind == Exception {
			b.raise(end, "")
		} else {
			b.jumps = append(b.jumps, jump{exit{end, k.kind}, k.label})
		}
	}
	b.next = result
}

// finallyCopy builds a copy of the finally block of s entered by the given exits. It returns the node closing the
// copy, or nil when the finally block cannot complete normally.
func (b *builder) finallyCopy(s *ir.TryStmt, entries []exit) *Node {
	b.next = entries
	b.stmt(s.Finally)
	if len(b.next) == 0 {
		return nil
	}
	return b.add(Nop, s)
}
