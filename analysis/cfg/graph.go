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
	"io"
	"strings"

	"github.com/awslabs/ar-gflow/internal/graphutil"
)

// Digraph returns the topology of the graph, with vertices numbered by node IDs
func (g *Cfg) Digraph() *graphutil.Digraph {
	d := graphutil.NewDigraph(len(g.Nodes))
	for _, e := range g.Edges {
		d.AddEdge(e.From.ID, e.To.ID)
	}
	return d
}

// ReversePostorder returns all the nodes of the graph: first the nodes reachable from the entry in reverse
// postorder, then the unreachable nodes in creation order. When backward is true, the traversal starts from the
// exit and follows edges backwards.
func (g *Cfg) ReversePostorder(backward bool) []*Node {
	d, root := g.Digraph(), g.Entry
	if backward {
		d, root = d.Reverse(), g.Exit
	}
	seen := make([]bool, len(g.Nodes))
	order := make([]*Node, 0, len(g.Nodes))
	for _, id := range graphutil.ReversePostorder(d, root.ID) {
		seen[id] = true
		order = append(order, g.Nodes[id])
	}
	for _, n := range g.Nodes {
		if !seen[n.ID] {
			order = append(order, n)
		}
	}
	return order
}

// Dominators returns the immediate dominator of each node, indexed by node ID. The entry and the unreachable
// nodes have no immediate dominator.
func (g *Cfg) Dominators() []*Node {
	idom := graphutil.ImmediateDominators(g.Digraph(), g.Entry.ID)
	doms := make([]*Node, len(g.Nodes))
	for i, d := range idom {
		if d >= 0 {
			doms[i] = g.Nodes[d]
		}
	}
	return doms
}

// BackEdges returns the edges whose destination dominates their source. Every loop of the method has at least
// one back edge.
func (g *Cfg) BackEdges() []*Edge {
	var back []*Edge
	for _, pair := range graphutil.BackEdges(g.Digraph(), g.Entry.ID) {
		for _, e := range g.out[pair[0]] {
			if e.To.ID == pair[1] {
				back = append(back, e)
			}
		}
	}
	return back
}

// Loops returns the strongly connected components of the graph that contain a cycle. Nested loops belong to the
// component of their outermost loop.
func (g *Cfg) Loops() [][]*Node {
	return g.nodeLists(graphutil.Cyclic(g.Digraph()))
}

// Cycles returns the elementary cycles of the graph
func (g *Cfg) Cycles() [][]*Node {
	return g.nodeLists(graphutil.FindAllElementaryCycles(g.Digraph()))
}

func (g *Cfg) nodeLists(ids [][]int) [][]*Node {
	lists := make([][]*Node, len(ids))
	for i, l := range ids {
		lists[i] = make([]*Node, len(l))
		for j, id := range l {
			lists[i][j] = g.Nodes[id]
		}
	}
	return lists
}

// Fprint writes a textual dump of the graph: one line per node followed by one line per outgoing edge.
func (g *Cfg) Fprint(w io.Writer) {
	for _, n := range g.Nodes {
		fmt.Fprintf(w, "%d: %s\n", n.ID, n)
		for _, e := range g.out[n.ID] {
			fmt.Fprintf(w, "  -> %d %s\n", e.To.ID, e.Kind)
		}
	}
}

func (g *Cfg) String() string {
	var b strings.Builder
	g.Fprint(&b)
	return b.String()
}
