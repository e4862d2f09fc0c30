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
	"errors"
	"strings"
	"testing"

	"github.com/awslabs/ar-gflow/analysis/ir"
	"github.com/awslabs/ar-gflow/analysis/irparse"
)

func build(t *testing.T, src string) *Cfg {
	t.Helper()
	m, err := irparse.ParseBody(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	g, err := Build(m)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	return g
}

func TestBuild(t *testing.T) {
	for _, test := range []struct {
		name     string
		src      string
		expected string
	}{
		{
			name: "sequence",
			src:  "int i = 1; int j = i; return i;",
			expected: `0: entry
  -> 2 fallthrough
1: exit
2: write i = 1
  -> 3 fallthrough
3: read i
  -> 4 fallthrough
4: write j = i
  -> 5 fallthrough
5: read i
  -> 6 fallthrough
6: return i
  -> 1 return
`,
		},
		{
			name: "if-else",
			src:  "int x = 0; if (x > 0) x = 1; else x = 2;",
			expected: `0: entry
  -> 2 fallthrough
1: exit
2: write x = 0
  -> 3 fallthrough
3: read x
  -> 4 fallthrough
4: cond x > 0
  -> 5 true
  -> 6 false
5: write x = 1
  -> 7 fallthrough
6: write x = 2
  -> 7 fallthrough
7: nop
  -> 1 fallthrough
`,
		},
		{
			name: "while",
			src:  "int j = 0; while (j > 0) { j--; }",
			expected: `0: entry
  -> 2 fallthrough
1: exit
2: write j = 0
  -> 3 fallthrough
3: nop
  -> 4 fallthrough
4: read j
  -> 5 fallthrough
5: cond j > 0
  -> 6 true
  -> 1 false
6: readwrite j--
  -> 3 fallthrough
`,
		},
		{
			name: "short-circuit",
			src:  "int a = 0; if (a > 0 && a < 5) a = 1;",
			expected: `0: entry
  -> 2 fallthrough
1: exit
2: write a = 0
  -> 3 fallthrough
3: read a
  -> 4 fallthrough
4: cond a > 0
  -> 5 true
  -> 8 false
5: read a
  -> 6 fallthrough
6: cond a < 5
  -> 7 true
  -> 8 false
7: write a = 1
  -> 8 fallthrough
8: nop
  -> 1 fallthrough
`,
		},
		{
			name: "switch",
			src:  "int x = 0; switch (x) { case 1: x = 2; case 2: x = 3; break; default: x = 4; }",
			expected: `0: entry
  -> 2 fallthrough
1: exit
2: write x = 0
  -> 3 fallthrough
3: read x
  -> 4 fallthrough
4: case 1
  -> 5 false
  -> 6 true
5: case 2
  -> 7 true
  -> 9 false
6: write x = 2
  -> 7 fallthrough
7: write x = 3
  -> 8 fallthrough
8: goto break;
  -> 1 break
9: write x = 4
  -> 1 fallthrough
`,
		},
		{
			name: "return through finally",
			src:  "int x = 0; try { foo(); return; } finally { x = 2; }",
			expected: `0: entry
  -> 2 fallthrough
1: exit
2: write x = 0
  -> 3 fallthrough
3: call foo()
  -> 4 fallthrough
  -> 5 exception
4: return
  -> 7 return
5: write x = 2
  -> 6 fallthrough
6: nop
  -> 1 exception
7: write x = 2
  -> 8 fallthrough
8: nop
  -> 1 return
`,
		},
		{
			name: "throwing operations in try",
			src:  "int x = 1; Point o = null; try { x = 2; int y = 10 / x; int z = o.f; x = 3; } catch (Exception e) { return x; } return 0;",
			expected: `0: entry
  -> 2 fallthrough
1: exit
2: write x = 1
  -> 3 fallthrough
3: write o = null
  -> 4 fallthrough
4: write x = 2
  -> 5 fallthrough
5: read x
  -> 6 fallthrough
6: check 10 / x
  -> 7 fallthrough
  -> 12 exception
7: write y = 10 / x
  -> 8 fallthrough
8: read o
  -> 9 fallthrough
9: check o.f
  -> 10 fallthrough
  -> 12 exception
10: write z = o.f
  -> 11 fallthrough
11: write x = 3
  -> 15 fallthrough
12: write e
  -> 13 fallthrough
13: read x
  -> 14 fallthrough
14: return x
  -> 1 return
15: return 0
  -> 1 return
`,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			g := build(t, test.src)
			if s := g.String(); s != test.expected {
				t.Errorf("expected:\n%s\ngot:\n%s", test.expected, s)
			}
		})
	}
}

func TestFinallyCopies(t *testing.T) {
	g := build(t, `int x = 0;
while (x < 3) {
  try {
    if (x == 1) continue;
    x = g();
  } catch (Exception e) {
    break;
  } finally {
    x++;
  }
}`)
	loop := g.Method.Body.Stmts[1].(*ir.WhileStmt)
	try := loop.Body.(*ir.Block).Stmts[0].(*ir.TryStmt)
	incr := try.Finally.Stmts[0].(*ir.ExprStmt).X
	if copies := g.NodesOf(incr, ReadWrite); len(copies) != 3 {
		t.Fatalf("expected 3 copies of the finally block, got %d", len(copies))
	}
	head := g.NodesOf(loop, Nop)[0]
	ends := g.NodesOf(try, Nop)
	if len(ends) != 3 {
		t.Fatalf("expected 3 ends of finally copies, got %d", len(ends))
	}
	kinds := map[EdgeKind]*Node{}
	for _, end := range ends {
		out := g.Out(end)
		if len(out) != 1 {
			t.Fatalf("expected a single destination for the end of a finally copy, got %v", out)
		}
		kinds[out[0].Kind] = out[0].To
	}
	if kinds[Fallthrough] != head || kinds[Continue] != head {
		t.Errorf("expected the normal and continue paths to reach the loop head")
	}
	if kinds[Break] != g.Exit {
		t.Errorf("expected the break path to leave the loop")
	}
	catch := g.NodesOf(try.Catches[0], Write)
	if len(catch) != 1 || len(g.In(catch[0])) != 1 || g.In(catch[0])[0].Kind != Exception {
		t.Errorf("expected the handler to be entered by the exception edge of the call")
	}
	for _, e := range g.Edges {
		if e.Kind == Exception && e.To == g.Exit {
			t.Errorf("the catch-all handler must catch every exception of the try body")
		}
	}
}

func TestExceptionTargets(t *testing.T) {
	g := build(t, `try {
  try {
    throw new IllegalStateException();
  } catch (IllegalStateException e) {
    f();
  } catch (RuntimeException e) {
    g();
  }
  h();
} catch (Throwable t) {
}`)
	var throw *Node
	for _, n := range g.Nodes {
		if n.Kind == Throw {
			throw = n
		}
	}
	if throw == nil {
		t.Fatalf("no throw node")
	}
	var handlers []ir.Node
	for _, e := range g.Out(throw) {
		if e.Kind != Exception {
			t.Errorf("unexpected %s edge out of a throw", e.Kind)
		}
		handlers = append(handlers, e.To.Origin)
	}
	if len(handlers) != 1 {
		t.Fatalf("expected the thrown exception to enter only the matching handler, got %d edges", len(handlers))
	}
	// the allocation of the exception may throw into every handler until the catch-all
	var alloc *Node
	for _, n := range g.Nodes {
		if n.Kind == Call {
			alloc = n
			break
		}
	}
	exceptions := 0
	for _, e := range g.Out(alloc) {
		if e.Kind == Exception {
			exceptions++
			if e.To == g.Exit {
				t.Errorf("an exception escaped the catch-all handler")
			}
		}
	}
	if exceptions != 3 {
		t.Errorf("expected 3 exception edges out of the allocation, got %d", exceptions)
	}
}

func TestChecks(t *testing.T) {
	for src, expected := range map[string]int{
		"int x = 4; x = x / 2; x %= 3; x = Limits.max;": 0,
		"int x = 4; x /= x; x = x % 0;":                 2,
		"Point p = new Point(); p.x = 1; p.y++;":        2,
		"int x = new Point().x; String s = \"a\";":      0,
	} {
		g := build(t, src)
		checks := 0
		for _, n := range g.Nodes {
			if n.Kind != Check {
				continue
			}
			checks++
			out := g.Out(n)
			if len(out) != 2 || out[1].Kind != Exception || out[1].To != g.Exit {
				t.Errorf("%s: expected a check to throw to the exit, got %v", src, out)
			}
		}
		if checks != expected {
			t.Errorf("%s: expected %d checks, got %d", src, expected, checks)
		}
	}
}

func TestLoops(t *testing.T) {
	g := build(t, "for (int i = 0; i < 3; i++) { for (int j = 0; j < i; j++) { f(); } }")
	if loops := g.Loops(); len(loops) != 1 {
		t.Errorf("expected nested loops to form one component, got %d", len(loops))
	}
	if cycles := g.Cycles(); len(cycles) != 2 {
		t.Errorf("expected 2 elementary cycles, got %d", len(cycles))
	}
	back := g.BackEdges()
	if len(back) != 2 {
		t.Fatalf("expected 2 back edges, got %v", back)
	}
	for _, e := range back {
		if e.To.Kind != Nop || e.From.Kind != ReadWrite {
			t.Errorf("expected back edges from the updates to the loop heads, got %s", e)
		}
	}

	g = build(t, "int x = 0; do { x++; } while (x < 10);")
	back = g.BackEdges()
	if len(back) != 1 || back[0].Kind != True || back[0].From.Kind != Cond {
		t.Errorf("expected the true edge of the do condition to be the back edge, got %v", back)
	}
}

func TestOrderAndDominators(t *testing.T) {
	g := build(t, "int x = 0; if (x > 0) x = 1; return; x = 2;")
	order := g.ReversePostorder(false)
	if len(order) != len(g.Nodes) || order[0] != g.Entry {
		t.Fatalf("expected all the nodes, starting with the entry")
	}
	last := order[len(order)-1]
	if last.Kind != Write || last.Value == nil || ir.Format(last.Value) != "2" {
		t.Errorf("expected the unreachable write last, got %s", last)
	}
	backward := g.ReversePostorder(true)
	if backward[0] != g.Exit {
		t.Errorf("expected the backward order to start with the exit")
	}
	doms := g.Dominators()
	if doms[g.Entry.ID] != nil || doms[last.ID] != nil {
		t.Errorf("expected no dominator for the entry and the unreachable node")
	}
	join := g.NodesOf(g.Method.Body.Stmts[1], Nop)[0]
	if d := doms[join.ID]; d == nil || d.Kind != Cond {
		t.Errorf("expected the condition to dominate the join, got %v", d)
	}
}

func TestDeclares(t *testing.T) {
	g := build(t, "int x; x = 1; int y = x;")
	var declares []string
	for _, n := range g.Nodes {
		if n.Declares() {
			declares = append(declares, n.Local.Name)
		}
	}
	if strings.Join(declares, ",") != "x" {
		t.Errorf("expected only the declaration of x without initializer, got %v", declares)
	}
}

func TestUnsupported(t *testing.T) {
	for src, expected := range map[string]string{
		"synchronized (this) { f(); }":     "synchronized blocks are not supported",
		"break;":                           "break; outside of a loop or switch",
		"continue;":                        "continue; outside of a loop or switch",
		"switch (1) { case 1: continue; }": "continue; outside of a loop or switch",
		"a: { continue a; }":               "continue target a is not a loop",
		"while (true) { break b; }":        "undefined label b",
	} {
		m, err := irparse.ParseBody(src)
		if err != nil {
			t.Fatalf("%s: parse error: %v", src, err)
		}
		before := ir.FormatBody(m)
		g, err := Build(m)
		var unsupported *UnsupportedConstructError
		if g != nil || !errors.As(err, &unsupported) {
			t.Errorf("%s: expected an unsupported construct error, got %v", src, err)
			continue
		}
		if !strings.Contains(err.Error(), expected) {
			t.Errorf("%s: expected %q in %q", src, expected, err)
		}
		if ir.FormatBody(m) != before {
			t.Errorf("%s: the method was modified", src)
		}
	}
}
