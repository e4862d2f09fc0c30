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

package ir_test

import (
	"go/token"
	"testing"

	"github.com/awslabs/ar-gflow/analysis/ir"
	"github.com/awslabs/ar-gflow/analysis/irparse"
)

func parse(t *testing.T, src string) *ir.Method {
	t.Helper()
	m, err := irparse.ParseBody(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return m
}

func id(name string) *ir.Ident { return &ir.Ident{Name: name} }

func bin(op token.Token, x, y ir.Expr) *ir.BinaryExpr { return &ir.BinaryExpr{Op: op, X: x, Y: y} }

func TestFormatPrecedence(t *testing.T) {
	a, b, c := id("a"), id("b"), id("c")
	for _, test := range []struct {
		expr     ir.Expr
		expected string
	}{
		{bin(token.MUL, bin(token.ADD, a, b), c), "(a + b) * c"},
		{bin(token.SUB, a, bin(token.SUB, b, c)), "a - (b - c)"},
		{bin(token.SUB, bin(token.SUB, a, b), c), "a - b - c"},
		{bin(token.SUB, a, &ir.IntLit{Value: -5}), "a - -5"},
		{bin(token.LOR, a, bin(token.LAND, b, c)), "a || b && c"},
		{&ir.UnaryExpr{Op: token.SUB, X: &ir.UnaryExpr{Op: token.SUB, X: a}}, "- -a"},
		{&ir.UnaryExpr{Op: token.NOT, X: bin(token.LAND, a, b)}, "!(a && b)"},
		{&ir.UnaryExpr{Op: token.XOR, X: a}, "~a"},
		{&ir.AssignExpr{Op: token.ASSIGN, LHS: a, RHS: &ir.CondExpr{Cond: b, Then: &ir.IntLit{Value: 1},
			Else: &ir.IntLit{Value: 2}}}, "a = b ? 1 : 2"},
		{&ir.CallExpr{Recv: bin(token.ADD, a, b), Name: "m", Args: []ir.Expr{c, &ir.StringLit{Value: "\"s\""}}},
			`(a + b).m(c, "\"s\"")`},
		{&ir.IncDecExpr{Op: token.INC, X: &ir.FieldExpr{X: a, Name: "f"}}, "a.f++"},
		{&ir.NewExpr{Type: "Object"}, "new Object()"},
	} {
		if s := ir.Format(test.expr); s != test.expected {
			t.Errorf("expected %q, got %q", test.expected, s)
		}
	}
}

func TestSimplify(t *testing.T) {
	m := parse(t, `int x = 1 + 2 * 3;
if (true && x > 0) { x = 2; } else { x = 3; }
{ x++; }
;
while (false) { x--; }
x;
return;`)
	if !ir.Simplify(m) {
		t.Fatalf("expected the body to change")
	}
	expected := `int x = 7;
if (x > 0) {
  x = 2;
} else {
  x = 3;
}
x++;
return;`
	if s := ir.FormatBody(m); s != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, s)
	}
	if ir.Simplify(m) {
		t.Errorf("expected a simplified body to be stable")
	}
}

func TestSimplifyBranches(t *testing.T) {
	for src, expected := range map[string]string{
		"int x = 0; if (false) x = 1;":               "int x = 0;",
		"int x = 0; if (1 > 2) x = 1; else x = 2;":   "int x = 0;\nx = 2;",
		"int x = 0; if (x == 0) {} else {}":          "int x = 0;",
		"int x = 0; if (x == 0) { x = 1; } else {}":  "int x = 0;\nif (x == 0) {\n  x = 1;\n}",
		"int x = 0; do { x++; } while (false);":      "int x = 0;\nx++;",
		"int x = 0; do { break; } while (false);":    "int x = 0;\ndo {\n  break;\n} while (false);",
		"for (int i = 0; false; i++) { foo(); }":     "{\n  int i = 0;\n}",
		"int x = 0; return; x = 1;":                  "int x = 0;\nreturn;",
		"int x = 0; x = 1 / 0;":                      "int x = 0;\nx = 1 / 0;",
		"boolean b = false; b = false || b;":         "boolean b = false;\nb = b;",
		"boolean b = false; b = true ? b : b;":       "boolean b = false;\nb = true ? b : b;",
		"int x = 0; x = true ? 1 : 2;":               "int x = 0;\nx = 1;",
		"int x = 0; switch (x) { case 1: { x++; } }": "int x = 0;\nswitch (x) {\n  case 1:\n    x++;\n}",
		"int x = 0; { int y = x; }":                  "int x = 0;\n{\n  int y = x;\n}",
		"int x = 0; x = -(2147483647 + 1) / -1 % 5;": "int x = 0;\nx = -3;",
	} {
		m := parse(t, src)
		ir.Simplify(m)
		if s := ir.FormatBody(m); s != expected {
			t.Errorf("%s\nexpected:\n%s\ngot:\n%s", src, expected, s)
		}
	}
}

func TestSimplifySwitches(t *testing.T) {
	for _, test := range []struct {
		src      string
		expected string
	}{
		{
			"int x = 0; switch (2) { case 1: x = 1; break; case 2: x = 2; case 3: x = 3; break; default: x = 4; }",
			"int x = 0;\nswitch (2) {\n  case 2:\n    x = 2;\n  case 3:\n    x = 3;\n    break;\n}",
		},
		{
			"int x = 0; switch (1 + 1) { case 1: x = 1; break; case 2: x = 2; }",
			"int x = 0;\nswitch (2) {\n  case 2:\n    x = 2;\n}",
		},
		{
			"int x = 0; switch (5) { case 1: x = 1; break; default: x = 4; }",
			"int x = 0;\nswitch (5) {\n  default:\n    x = 4;\n}",
		},
		{
			"int x = 0; switch (5) { case 1: x = 1; }",
			"int x = 0;",
		},
		{
			"int x = 0; switch (2) { case 1: int y = 1; break; case 2: x = 2; }",
			"int x = 0;\nswitch (2) {\n  case 1:\n    int y = 1;\n    break;\n  case 2:\n    x = 2;\n}",
		},
		{
			"int x = 0; switch (x) { case 1: x = 1; break; case 2: x = 2; }",
			"int x = 0;\nswitch (x) {\n  case 1:\n    x = 1;\n    break;\n  case 2:\n    x = 2;\n}",
		},
	} {
		m := parse(t, test.src)
		ir.Simplify(m)
		if s := ir.FormatBody(m); s != test.expected {
			t.Errorf("%s\nexpected:\n%s\ngot:\n%s", test.src, test.expected, s)
		}
	}
}

func TestEval(t *testing.T) {
	m := parse(t, "int x = 0; boolean b = true;")
	x, b := m.Locals[0], m.Locals[1]
	lookup := func(l *ir.Local) (ir.Const, bool) {
		if l == x {
			return ir.Int(6), true
		}
		return ir.Const{}, false
	}
	xe := &ir.Ident{Name: "x", Local: x}
	be := &ir.Ident{Name: "b", Local: b}
	for _, test := range []struct {
		expr     ir.Expr
		expected ir.Const
		ok       bool
	}{
		{bin(token.MUL, xe, &ir.IntLit{Value: 7}), ir.Int(42), true},
		{bin(token.ADD, &ir.IntLit{Value: 2147483647}, &ir.IntLit{Value: 1}), ir.Int(-2147483648), true},
		{bin(token.SHL, &ir.IntLit{Value: 1}, &ir.IntLit{Value: 33}), ir.Int(2), true},
		{bin(token.SHR, &ir.IntLit{Value: -8}, &ir.IntLit{Value: 1}), ir.Int(-4), true},
		{bin(token.QUO, &ir.IntLit{Value: -7}, &ir.IntLit{Value: 2}), ir.Int(-3), true},
		{bin(token.REM, &ir.IntLit{Value: -7}, &ir.IntLit{Value: 2}), ir.Int(-1), true},
		{bin(token.QUO, xe, &ir.IntLit{Value: 0}), ir.Const{}, false},
		{bin(token.LSS, xe, &ir.IntLit{Value: 7}), ir.Bool(true), true},
		{bin(token.LAND, &ir.BoolLit{Value: false}, be), ir.Bool(false), true},
		{bin(token.LOR, &ir.BoolLit{Value: true}, be), ir.Bool(true), true},
		{bin(token.LAND, &ir.BoolLit{Value: true}, be), ir.Const{}, false},
		{bin(token.LAND, &ir.BoolLit{Value: false}, &ir.CallExpr{Name: "f"}), ir.Const{}, false},
		{bin(token.EQL, xe, &ir.BoolLit{Value: true}), ir.Const{}, false},
		{&ir.UnaryExpr{Op: token.XOR, X: xe}, ir.Int(-7), true},
		{&ir.UnaryExpr{Op: token.NOT, X: xe}, ir.Const{}, false},
		{&ir.CondExpr{Cond: &ir.BoolLit{Value: false}, Then: be, Else: xe}, ir.Int(6), true},
		{&ir.StringLit{Value: "s"}, ir.Const{}, false},
	} {
		v, ok := ir.Eval(test.expr, lookup)
		if ok != test.ok || (ok && v != test.expected) {
			t.Errorf("%s: expected %v (%v), got %v (%v)", ir.Format(test.expr), test.expected, test.ok, v, ok)
		}
	}
}

func TestHasSideEffects(t *testing.T) {
	m := parse(t, `int x = 0;
x + 1;
x / 2;
x / 0;
x / x;
x++;
f(x);
x.y;
new Object();
x = 1;`)
	expected := []bool{false, false, true, true, true, true, true, true, true}
	for i, s := range m.Body.Stmts[1:] {
		e := s.(*ir.ExprStmt).X
		if ir.HasSideEffects(e) != expected[i] {
			t.Errorf("%s: expected side effects %v", ir.Format(e), expected[i])
		}
	}
}

func TestClone(t *testing.T) {
	m := parse(t, `int x = 0;
for (int i = 0; i < 3; i++) {
  try {
    x += i;
  } catch (Exception e) {
    throw e;
  }
}
switch (x) {
  case 1:
    x = 2;
}`)
	c := ir.Clone(m)
	if ir.FormatMethod(c) != ir.FormatMethod(m) {
		t.Fatalf("clone differs:\n%s\n%s", ir.FormatMethod(c), ir.FormatMethod(m))
	}
	if len(c.Locals) != len(m.Locals) {
		t.Fatalf("expected %d locals, got %d", len(m.Locals), len(c.Locals))
	}
	for i, l := range c.Locals {
		if l == m.Locals[i] || l.Name != m.Locals[i].Name || l.Index != i {
			t.Errorf("local %s is not a copy", l.Name)
		}
		if !ir.Encloses(c.Body, l.Scope) {
			t.Errorf("scope of %s is not in the cloned body", l.Name)
		}
	}
	ir.Inspect(c.Body, func(n ir.Node) bool {
		if id, ok := n.(*ir.Ident); ok && id.Local != nil && id.Local != c.Locals[id.Local.Index] {
			t.Errorf("reference to %s points to a local of another method", id.Name)
		}
		return true
	})
	ir.Simplify(c)
	c.Body.Stmts = c.Body.Stmts[:1]
	if len(m.Body.Stmts) != 3 {
		t.Errorf("rewriting the clone changed the original")
	}
}

func TestReplaceAndRemove(t *testing.T) {
	m := parse(t, "int x = 0; while (x < 3) x++; try { x = 1; } finally { x = 2; }")
	loop := m.Body.Stmts[1].(*ir.WhileStmt)
	if !ir.Remove(m.Body, loop.Body) {
		t.Fatalf("expected to remove the loop body")
	}
	if _, ok := loop.Body.(*ir.EmptyStmt); !ok {
		t.Errorf("expected the loop body to be replaced by an empty statement, got %T", loop.Body)
	}
	try := m.Body.Stmts[2].(*ir.TryStmt)
	if !ir.Remove(m.Body, try.Body) || try.Body == nil || len(try.Body.Stmts) != 0 {
		t.Errorf("expected the try body to be replaced by an empty block")
	}
	if !ir.Remove(m.Body, m.Body.Stmts[0]) || len(m.Body.Stmts) != 2 {
		t.Errorf("expected the declaration to be deleted")
	}
	if ir.Remove(m.Body, &ir.EmptyStmt{}) {
		t.Errorf("removed a statement that is not in the tree")
	}
	cond := loop.Cond.(*ir.BinaryExpr)
	if !ir.Replace(m.Body, cond.Y, &ir.IntLit{Value: 5}) {
		t.Fatalf("expected to replace the loop bound")
	}
	expected := "while (x < 5)\n  ;\ntry {\n} finally {\n  x = 2;\n}"
	if s := ir.FormatBody(m); s != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, s)
	}
}

func TestPathTo(t *testing.T) {
	m := parse(t, "int x = 0; if (x > 0) { x = f(x + 1); }")
	ifs := m.Body.Stmts[1].(*ir.IfStmt)
	assign := ifs.Then.(*ir.Block).Stmts[0].(*ir.ExprStmt).X.(*ir.AssignExpr)
	call := assign.RHS.(*ir.CallExpr)
	path := ir.PathTo(m.Body, call.Args[0])
	if len(path) != 7 || path[0] != ir.Node(m.Body) || path[1] != ir.Node(ifs) || path[6] != ir.Node(call.Args[0]) {
		t.Errorf("unexpected path %v", path)
	}
	if ir.PathTo(ifs.Then, ifs.Cond) != nil {
		t.Errorf("expected no path outside of the root")
	}
	if !ir.Encloses(ifs, call) || ir.Encloses(call, ifs) || !ir.Encloses(call, call) {
		t.Errorf("unexpected enclosing relation")
	}
}

func TestJumpsTo(t *testing.T) {
	m := parse(t, `outer:
while (true) {
  for (;;) {
    if (f()) break;
    if (g()) continue outer;
    break outer;
  }
  switch (1) {
    case 1:
      break;
  }
  if (h()) break;
  continue;
}`)
	loop := m.Body.Stmts[0].(*ir.LabeledStmt).Stmt.(*ir.WhileStmt)
	jumps := ir.JumpsTo(loop.Body, "outer")
	if len(jumps) != 4 {
		t.Fatalf("expected 4 jumps to the outer loop, got %d", len(jumps))
	}
	if len(ir.JumpsTo(loop.Body, "")) != 2 {
		t.Errorf("expected 2 unlabelled jumps to the outer loop")
	}
}
