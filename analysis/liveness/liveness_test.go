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

package liveness

import (
	"testing"

	"github.com/awslabs/ar-gflow/analysis/cfg"
	"github.com/awslabs/ar-gflow/analysis/ir"
	"github.com/awslabs/ar-gflow/analysis/irparse"
)

func optimizeOnce(t *testing.T, m *ir.Method) bool {
	t.Helper()
	g, err := cfg.Build(m)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	changed, err := Optimize(g)
	if err != nil {
		t.Fatalf("optimize error: %v", err)
	}
	return changed
}

func TestOptimizeSnippets(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{
			name:     "unused initializers",
			src:      "int i = 1; int j = 1; return 1;",
			expected: "int i;\nint j;\nreturn 1;",
		},
		{
			name:     "overwritten initializer",
			src:      "int x = 1; x = 2; return x;",
			expected: "int x;\nx = 2;\nreturn x;",
		},
		{
			name:     "initializer with side effects",
			src:      "int x = f(); return 0;",
			expected: "int x = f();\nreturn 0;",
		},
		{
			name:     "assignment of a call",
			src:      "int x; x = f(); return 0;",
			expected: "int x;\nf();\nreturn 0;",
		},
		{
			name:     "division may throw",
			src:      "int y = g(); int x; x = 10 / y; return 0;",
			expected: "int y = g();\nint x;\nx = 10 / y;\nreturn 0;",
		},
		{
			name:     "dead increment",
			src:      "int x = 0; x++; return 0;",
			expected: "int x = 0;\nreturn 0;",
		},
		{
			name:     "dead compound assignment keeps the call",
			src:      "int x = g(); x += f(); return 0;",
			expected: "int x = g();\nf();\nreturn 0;",
		},
		{
			name:     "dead update",
			src:      "int j = 0; for (int i = 0; i < 3; i++, j = i) { f(i); } return 0;",
			expected: "int j;\nfor (int i = 0; i < 3; i++) {\n  f(i);\n}\nreturn 0;",
		},
		{
			name:     "read by a handler",
			src:      "int x = 1; try { f(); x = 2; } catch (Exception e) { return x; } return 0;",
			expected: "int x = 1;\ntry {\n  f();\n} catch (Exception e) {\n  return x;\n}\nreturn 0;",
		},
		{
			name:     "read by a finally block",
			src:      "int x = 1; try { x = 2; return 0; } finally { g(x); }",
			expected: "int x;\ntry {\n  x = 2;\n  return 0;\n} finally {\n  g(x);\n}",
		},
		{
			name: "nested loops",
			src:  "int a = 0; int b = 0; while (f()) { while (g()) { a = a + 1; b = 5; } h(a); } return 0;",
			expected: "int a = 0;\nint b;\nwhile (f()) {\n  while (g()) {\n    a = a + 1;\n  }\n  h(a);\n}\n" +
				"return 0;",
		},
		{
			name:     "nested assignment is kept",
			src:      "int x; int y; y = h(x = 3); return y;",
			expected: "int x;\nint y;\ny = h(x = 3);\nreturn y;",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m, err := irparse.ParseBody(test.src)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			original := ir.FormatBody(m)
			changed := optimizeOnce(t, m)
			got := ir.FormatBody(m)
			if got != test.expected {
				t.Errorf("expected\n%s\ngot\n%s", test.expected, got)
			}
			if changed != (got != original) {
				t.Errorf("changed is %v for\n%s", changed, got)
			}
		})
	}
}

func TestOptimizeUntilFixpoint(t *testing.T) {
	m, err := irparse.ParseBody("int x = 0; x++; return 0;")
	if err != nil {
		t.Fatal(err)
	}
	passes := 0
	for optimizeOnce(t, m) {
		passes++
		if passes > 3 {
			t.Fatalf("dead-store elimination does not converge:\n%s", ir.FormatBody(m))
		}
	}
	if got := ir.FormatBody(m); got != "int x;\nreturn 0;" {
		t.Errorf("unexpected result\n%s", got)
	}
	if passes != 2 {
		t.Errorf("expected two passes, got %d", passes)
	}
}

func TestSolve(t *testing.T) {
	f, err := irparse.ParseFile("test.jv", []byte(`int m(int p, int q) {
		int x = p;
		for (int i = 0; i < q; i++) {
			x = x + i;
		}
		return x;
	}`))
	if err != nil {
		t.Fatal(err)
	}
	g, err := cfg.Build(f.Methods[0])
	if err != nil {
		t.Fatal(err)
	}
	r, err := Solve(g)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.In(g.Entry).String(); got != "{p, q}" {
		t.Errorf("expected p and q live at the entry, got %s", got)
	}
	if got := r.In(g.Exit).String(); got != "{}" {
		t.Errorf("expected nothing live at the exit, got %s", got)
	}
	for _, n := range g.Nodes {
		if n.Kind == cfg.Nop {
			if _, ok := n.Origin.(*ir.ForStmt); ok {
				if got := r.In(n).String(); got != "{q, x, i}" {
					t.Errorf("expected q, x and i live in the loop, got %s", got)
				}
			}
		}
	}
}

func TestLiveJoinLaws(t *testing.T) {
	m, err := irparse.ParseBody("int a = 1; int b = 2; int c = 3;")
	if err != nil {
		t.Fatal(err)
	}
	a, b, c := m.Locals[0], m.Locals[1], m.Locals[2]
	var empty *Live
	values := []*Live{
		nil,
		empty.with(a, m),
		empty.with(a, m).with(b, m),
		empty.with(c, m),
		empty.with(a, m).with(c, m).without(a),
		empty.with(b, m).without(b),
	}
	for _, x := range values {
		if !x.Join(x).Equal(x) {
			t.Errorf("join of %s with itself is %s", x, x.Join(x))
		}
		for _, y := range values {
			xy := x.Join(y)
			if !xy.Equal(y.Join(x)) {
				t.Errorf("join of %s and %s is not commutative", x, y)
			}
			if !xy.Join(x).Equal(xy) || !xy.Join(y).Equal(xy) {
				t.Errorf("join of %s and %s is not an upper bound: %s", x, y, xy)
			}
		}
	}
	if got := values[2].Join(values[3]).String(); got != "{a, b, c}" {
		t.Errorf("unexpected join %s", got)
	}
	if !values[0].Equal(values[5]) {
		t.Errorf("nil and emptied sets should be equal")
	}
}
