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

package graphutil

import (
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph/flow"
	"gonum.org/v1/gonum/graph/simple"
)

// ImmediateDominators returns, for each vertex of g, its immediate dominator in the graph rooted at root. The
// root and the vertices that are unreachable from the root have no dominator and are mapped to -1.
func ImmediateDominators(g *Digraph, root int) []int {
	tree := flow.Dominators(simple.Node(root), g)
	idom := make([]int, g.Order())
	for v := range idom {
		idom[v] = -1
		if d := tree.DominatorOf(int64(v)); d != nil && v != root {
			idom[v] = int(d.ID())
		}
	}
	return idom
}

// Dominates returns true when u dominates v according to the immediate dominator relation idom.
func Dominates(idom []int, u, v int) bool {
	for w := v; w >= 0; w = idom[w] {
		if w == u {
			return true
		}
	}
	return false
}

// BackEdges returns the edges u -> v of g such that v dominates u, sorted by source then destination.
// Every cycle of a reducible graph goes through such an edge.
func BackEdges(g *Digraph, root int) [][2]int {
	idom := ImmediateDominators(g, root)
	reachable := make([]bool, g.Order())
	for _, v := range ReversePostorder(g, root) {
		reachable[v] = true
	}
	var edges [][2]int
	for u := range g.succs {
		if !reachable[u] {
			continue
		}
		for _, v := range g.succs[u] {
			if Dominates(idom, v, u) {
				edges = append(edges, [2]int{u, v})
			}
		}
	}
	slices.SortFunc(edges, func(a, b [2]int) bool {
		return a[0] < b[0] || (a[0] == b[0] && a[1] < b[1])
	})
	return edges
}

// Cyclic returns the strongly connected components of g that contain a cycle: components with at least two
// vertices, or a single vertex with an edge to itself. Each component is sorted, and components are sorted by
// their smallest vertex.
func Cyclic(g *Digraph) [][]int {
	var cyclic [][]int
	for _, comp := range graph.StrongComponents(g) {
		if len(comp) > 1 || g.HasEdgeFromTo(int64(comp[0]), int64(comp[0])) {
			c := append([]int(nil), comp...)
			slices.Sort(c)
			cyclic = append(cyclic, c)
		}
	}
	slices.SortFunc(cyclic, func(a, b []int) bool { return a[0] < b[0] })
	return cyclic
}
