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

package graphutil_test

import (
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/awslabs/ar-gflow/internal/graphutil"
)

func newGraph(n int, edges ...[2]int) *graphutil.Digraph {
	g := graphutil.NewDigraph(n)
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

func TestFindAllElementaryCycles(t *testing.T) {
	g := newGraph(5, [2]int{0, 1}, [2]int{1, 2}, [2]int{2, 0}, [2]int{2, 3}, [2]int{3, 3}, [2]int{3, 4},
		[2]int{4, 1})
	var cycles []string
	for _, c := range graphutil.FindAllElementaryCycles(g) {
		cycles = append(cycles, fmt.Sprint(c))
	}
	sort.Strings(cycles)
	expected := []string{"[0 1 2 0]", "[1 2 3 4 1]", "[3 3]"}
	if !reflect.DeepEqual(cycles, expected) {
		t.Errorf("expected cycles %v, got %v", expected, cycles)
	}

	if c := graphutil.FindAllElementaryCycles(newGraph(3, [2]int{0, 1}, [2]int{1, 2})); len(c) != 0 {
		t.Errorf("expected no cycle in a chain, got %v", c)
	}
}

// diamond has a loop 1 -> {2,3} -> 4 -> 1 exiting to 5, and an unreachable vertex 6 with a self loop.
func diamond() *graphutil.Digraph {
	return newGraph(7, [2]int{0, 1}, [2]int{1, 2}, [2]int{1, 3}, [2]int{2, 4}, [2]int{3, 4}, [2]int{4, 1},
		[2]int{4, 5}, [2]int{6, 6})
}

func TestImmediateDominators(t *testing.T) {
	g := diamond()
	idom := graphutil.ImmediateDominators(g, 0)
	expected := []int{-1, 0, 1, 1, 1, 4, -1}
	if !reflect.DeepEqual(idom, expected) {
		t.Fatalf("expected dominators %v, got %v", expected, idom)
	}
	if !graphutil.Dominates(idom, 1, 5) || graphutil.Dominates(idom, 2, 4) || !graphutil.Dominates(idom, 3, 3) {
		t.Errorf("unexpected dominance relation")
	}
}

func TestBackEdges(t *testing.T) {
	back := graphutil.BackEdges(diamond(), 0)
	if !reflect.DeepEqual(back, [][2]int{{4, 1}}) {
		t.Errorf("expected the only back edge to be 4 -> 1, got %v", back)
	}
}

func TestCyclic(t *testing.T) {
	cyclic := graphutil.Cyclic(diamond())
	expected := [][]int{{1, 2, 3, 4}, {6}}
	if !reflect.DeepEqual(cyclic, expected) {
		t.Errorf("expected cyclic components %v, got %v", expected, cyclic)
	}
}

func TestReversePostorder(t *testing.T) {
	g := diamond()
	order := graphutil.ReversePostorder(g, 0)
	expected := []int{0, 1, 3, 2, 4, 5}
	if !reflect.DeepEqual(order, expected) {
		t.Errorf("expected order %v, got %v", expected, order)
	}
	r := g.Reverse()
	if !reflect.DeepEqual(r.Succs(4), []int{2, 3}) || !reflect.DeepEqual(r.Preds(1), []int{2, 3}) {
		t.Errorf("unexpected reversed graph: %v %v", r.Succs(4), r.Preds(1))
	}
}
