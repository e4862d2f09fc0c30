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

package copies

import (
	"testing"

	"github.com/awslabs/ar-gflow/analysis/cfg"
	"github.com/awslabs/ar-gflow/analysis/ir"
	"github.com/awslabs/ar-gflow/analysis/irparse"
)

func TestOptimizeSnippets(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{
			name:     "copy",
			src:      "int a = f(); int b = a; return b;",
			expected: "int a = f();\nint b = a;\nreturn a;",
		},
		{
			name:     "original reassigned",
			src:      "int a = f(); int b = a; a = 2; return b;",
			expected: "int a = f();\nint b = a;\na = 2;\nreturn b;",
		},
		{
			name:     "copy reassigned",
			src:      "int a = f(); int b = a; b++; return b;",
			expected: "int a = f();\nint b = a;\nb++;\nreturn b;",
		},
		{
			name:     "same copy on both branches",
			src:      "int a = f(); int b; if (g()) { b = a; } else { b = a; } return b;",
			expected: "int a = f();\nint b;\nif (g()) {\n  b = a;\n} else {\n  b = a;\n}\nreturn a;",
		},
		{
			name:     "copy on one branch",
			src:      "int a = f(); int b = 0; if (g()) { b = a; } return b;",
			expected: "int a = f();\nint b = 0;\nif (g()) {\n  b = a;\n}\nreturn b;",
		},
		{
			name:     "original out of scope",
			src:      "int b; { int a = f(); b = a; } return b;",
			expected: "int b;\n{\n  int a = f();\n  b = a;\n}\nreturn b;",
		},
		{
			name:     "conversion",
			src:      "int a = f(); long b = a; return b;",
			expected: "int a = f();\nlong b = a;\nreturn b;",
		},
		{
			name:     "loop",
			src:      "int a = f(); int b = a; while (g()) { h(b); } return b;",
			expected: "int a = f();\nint b = a;\nwhile (g()) {\n  h(a);\n}\nreturn a;",
		},
		{
			name:     "loop reassigns",
			src:      "int a = f(); int b = a; while (g()) { h(b); b = b + 1; } return b;",
			expected: "int a = f();\nint b = a;\nwhile (g()) {\n  h(b);\n  b = b + 1;\n}\nreturn b;",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m, err := irparse.ParseBody(test.src)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			original := ir.FormatBody(m)
			g, err := cfg.Build(m)
			if err != nil {
				t.Fatalf("build error: %v", err)
			}
			changed, err := Optimize(g)
			if err != nil {
				t.Fatalf("optimize error: %v", err)
			}
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

func TestSolve(t *testing.T) {
	m, err := irparse.ParseBody("int a = f(); int b = a; int c = b; return c;")
	if err != nil {
		t.Fatal(err)
	}
	g, err := cfg.Build(m)
	if err != nil {
		t.Fatal(err)
	}
	r, err := Solve(g)
	if err != nil {
		t.Fatal(err)
	}
	var ret *cfg.Node
	for _, n := range g.Nodes {
		if n.Kind == cfg.Return {
			ret = n
		}
	}
	if got := r.In(ret).String(); got != "{b=a, c=b}" {
		t.Errorf("unexpected copies at the return %s", got)
	}
	// the exception edge of f() reaches the exit before any copy
	if got := r.In(g.Exit).String(); got != "{}" {
		t.Errorf("unexpected copies at the exit %s", got)
	}
}

func TestCopiesJoinLaws(t *testing.T) {
	m, err := irparse.ParseBody("int a = 1; int b = 2; int c = 3;")
	if err != nil {
		t.Fatal(err)
	}
	a, b, c := m.Locals[0], m.Locals[1], m.Locals[2]
	mk := func(pairs ...*ir.Local) *Copies {
		r := Analysis{}.Initial()
		for i := 0; i < len(pairs); i += 2 {
			r.of[pairs[i]] = pairs[i+1]
		}
		return r
	}
	values := []*Copies{nil, mk(), mk(a, b), mk(a, b, c, b), mk(a, c), mk(b, a, c, a)}
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
	if got := values[3].Join(values[2]).String(); got != "{a=b}" {
		t.Errorf("unexpected join %s", got)
	}
}
