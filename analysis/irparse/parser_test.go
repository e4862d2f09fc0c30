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

package irparse

import (
	"embed"
	"strings"
	"testing"

	"github.com/awslabs/ar-gflow/analysis/ir"
)

//go:embed testdata
var testdata embed.FS

func TestParseFileRoundTrip(t *testing.T) {
	src, err := testdata.ReadFile("testdata/canonical.jv")
	if err != nil {
		t.Fatalf("could not read test file: %v", err)
	}
	f, err := ParseFile("canonical.jv", src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(f.Methods) != 2 || f.Method("f") == nil || f.Method("g") == nil {
		t.Fatalf("expected methods f and g")
	}
	if s := ir.FormatFile(f) + "\n"; s != string(src) {
		t.Errorf("printed file differs from source:\n%s", s)
	}
	m := f.Method("f")
	if m.Result != "int" || len(m.Params) != 2 || m.Params[1].Type != "boolean" {
		t.Errorf("unexpected signature %s %v", m.Result, m.Params)
	}
	names := make([]string, len(m.Locals))
	for i, l := range m.Locals {
		names[i] = l.Name
		if l.Index != i {
			t.Errorf("local %s has index %d, expected %d", l.Name, l.Index, i)
		}
	}
	if strings.Join(names, " ") != "a b x s i j e" {
		t.Errorf("unexpected locals %v", names)
	}
}

func TestParseModifiers(t *testing.T) {
	f, err := ParseFile("", []byte(`public static int[] h(final String[] args) throws IOException, Error {
  return null;
}`))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	m := f.Methods[0]
	if m.Result != "int[]" || m.Params[0].Type != "String[]" || m.Params[0].Kind != ir.ParamLocal {
		t.Errorf("unexpected signature %s %v", m.Result, m.Params)
	}
}

func TestScopes(t *testing.T) {
	m, err := ParseBody(`int a = 1;
{ int b = a; }
{ int b = 2; a = b; }
int c = c;
for (int i = 0; i < 1; i++) {}
try { } catch (Exception e) { e.printStackTrace(); }`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(m.Locals) != 6 {
		t.Fatalf("expected 6 locals, got %d", len(m.Locals))
	}
	b1 := m.Body.Stmts[1].(*ir.Block)
	b2 := m.Body.Stmts[2].(*ir.Block)
	first := b1.Stmts[0].(*ir.DeclStmt)
	second := b2.Stmts[0].(*ir.DeclStmt)
	if first.Local == second.Local || first.Local.Scope != ir.Node(b1) || second.Local.Scope != ir.Node(b2) {
		t.Errorf("expected distinct locals scoped by their blocks")
	}
	if id := first.Init.(*ir.Ident); id.Local != m.Locals[0] {
		t.Errorf("expected a to resolve to the outer local")
	}
	assign := b2.Stmts[1].(*ir.ExprStmt).X.(*ir.AssignExpr)
	if assign.RHS.(*ir.Ident).Local != second.Local {
		t.Errorf("expected b to resolve to the local of its block")
	}
	c := m.Body.Stmts[3].(*ir.DeclStmt)
	if c.Init.(*ir.Ident).Local != nil {
		t.Errorf("a local must not be visible in its own initializer")
	}
	loop := m.Body.Stmts[4].(*ir.ForStmt)
	if loop.Init[0].(*ir.DeclStmt).Local.Scope != ir.Node(loop) {
		t.Errorf("expected the loop variable to be scoped by its loop")
	}
	catch := m.Body.Stmts[5].(*ir.TryStmt).Catches[0]
	if catch.Param.Kind != ir.CatchLocal || catch.Param.Scope != ir.Node(catch) {
		t.Errorf("expected the exception parameter to be scoped by its clause")
	}
	call := catch.Body.Stmts[0].(*ir.ExprStmt).X.(*ir.CallExpr)
	if call.Recv.(*ir.Ident).Local != catch.Param {
		t.Errorf("expected e to resolve to the exception parameter")
	}
}

func TestParseExpressions(t *testing.T) {
	for src, expected := range map[string]string{
		"x = a + b * c - d;":     "x = a + b * c - d",
		"x = (a + b) * c;":       "x = (a + b) * c",
		"x = a - (b - c);":       "x = a - (b - c)",
		"x = y = 2;":             "x = y = 2",
		"x = a ? b : c ? d : e;": "x = a ? b : c ? d : e",
		"x = !a && b || c;":      "x = !a && b || c",
		"x = -2147483648;":       "x = -2147483648",
		"x = 0x10 << 2 >> 1;":    "x = 16 << 2 >> 1",
		"x = a == b != c;":       "x = a == b != c",
		"x = a & b | c ^ d;":     "x = a & b | c ^ d",
		"x = this.f.g(1).h;":     "x = this.f.g(1).h",
		"x = ++a + b--;":         "x = ++a + b--",
		"x = - -a;":              "x = - -a",
		"x = \"a\\tb\";":         "x = \"a\\tb\"",
		"x.y %= new A(null, 1);": "x.y %= new A(null, 1)",
	} {
		m, err := ParseBody(src)
		if err != nil {
			t.Errorf("%s: parse error: %v", src, err)
			continue
		}
		if s := ir.Format(m.Body.Stmts[0].(*ir.ExprStmt).X); s != expected {
			t.Errorf("%s: expected %q, got %q", src, expected, s)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for src, expected := range map[string]string{
		"int x = ;":                        `1:9: expected expression, found ";"`,
		"int x; int x;":                    "1:12: x is already defined in this scope",
		"try { }":                          "1:1: try without catch or finally",
		"1 = 2;":                           "1:1: cannot assign to 1",
		"if (a) int b = 1;":                "1:8: declaration not allowed here",
		"x = 2147483649;":                  "1:5: integer literal out of range: 2147483649",
		"(a + b)++;":                       "1:8: invalid operand of increment or decrement",
		"switch (x) { default: default: }": "1:23: duplicate default label",
		"while (x) {":                      "1:12: expected \"}\", found end of input",
		"x = \"abc;":                       "string literal not terminated",
		"int if = 1;":                      `expected identifier, found "if"`,
	} {
		_, err := ParseBody(src)
		if err == nil {
			t.Errorf("%s: expected an error", src)
			continue
		}
		if !strings.Contains(err.Error(), expected) {
			t.Errorf("%s: expected error %q, got %q", src, expected, err)
		}
	}
}
