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

package flow

import (
	"errors"
	"testing"

	"github.com/awslabs/ar-gflow/analysis/cfg"
	"github.com/awslabs/ar-gflow/analysis/ir"
)

// recorder records the assumptions its transformation receives for each write
type recorder struct {
	assigned
	seen map[ir.Node][]string
	fail bool
}

func (r *recorder) Transform(g *cfg.Cfg, n *cfg.Node, in names) (bool, error) {
	if n.Kind != cfg.Write {
		return false, nil
	}
	r.seen[n.Origin] = append(r.seen[n.Origin], in.String())
	if r.fail {
		return false, &InvariantViolationError{Node: n, Reason: "test"}
	}
	return false, nil
}

func TestSolveIntegratedJoinsFinallyCopies(t *testing.T) {
	g := build(t, `int m(int p) {
		int x = 0;
		try {
			if (p > 0) {
				int y = 1;
				return y;
			}
			p = 2;
		} finally {
			x = 5;
		}
		return x;
	}`)
	var copies []*cfg.Node
	for _, n := range g.Nodes {
		if n.Kind == cfg.Write && n.Local.Name == "x" {
			if lit, ok := n.Value.(*ir.IntLit); ok && lit.Value == 5 {
				copies = append(copies, n)
			}
		}
	}
	if len(copies) != 2 {
		t.Fatalf("expected two copies of the finally block, got %d in\n%s", len(copies), g)
	}

	a := &recorder{seen: map[ir.Node][]string{}}
	changed, err := SolveIntegrated[names](g, a)
	if err != nil || changed {
		t.Fatalf("unexpected result %v, %v", changed, err)
	}
	got := a.seen[copies[0].Origin]
	if len(got) != 1 {
		t.Fatalf("expected one transformation for both copies, got %v", got)
	}
	// the normal copy is reached with p assigned, the return copy with y assigned
	if got[0] != "{p,x,y}" {
		t.Errorf("expected the join of both copies {p,x,y}, got %s", got[0])
	}
}

func TestSolveIntegratedReportsErrors(t *testing.T) {
	g := build(t, `void m() {
		int x = 1;
	}`)
	a := &recorder{seen: map[ir.Node][]string{}, fail: true}
	_, err := SolveIntegrated[names](g, a)
	var ive *InvariantViolationError
	if !errors.As(err, &ive) {
		t.Fatalf("expected an InvariantViolationError, got %v", err)
	}
	if ive.Node.Kind != cfg.Write {
		t.Errorf("error should point at the write, got %s", ive.Node)
	}
}
