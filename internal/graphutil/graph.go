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

// Package graphutil contains graph algorithms over dense directed graphs, bridging the yourbasic and gonum graph
// libraries.
package graphutil

import (
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"
)

// Digraph is a directed graph whose vertices are the integers 0 to Order()-1. It implements the methods to
// satisfy yourbasic's graph.Iterator and Gonum's graph.Directed.
type Digraph struct {
	succs [][]int
	preds [][]int
}

// NewDigraph returns a graph with n vertices and no edges
func NewDigraph(n int) *Digraph {
	return &Digraph{succs: make([][]int, n), preds: make([][]int, n)}
}

// AddEdge adds an edge from u to v. Parallel edges are collapsed.
func (g *Digraph) AddEdge(u, v int) {
	if slices.Contains(g.succs[u], v) {
		return
	}
	g.succs[u] = append(g.succs[u], v)
	g.preds[v] = append(g.preds[v], u)
}

// Succs returns the successors of v, in insertion order
func (g *Digraph) Succs(v int) []int { return g.succs[v] }

// Preds returns the predecessors of v, in insertion order
func (g *Digraph) Preds(v int) []int { return g.preds[v] }

// Reverse returns a new graph with all the edges reversed
func (g *Digraph) Reverse() *Digraph {
	r := NewDigraph(g.Order())
	for u, succs := range g.succs {
		for _, v := range succs {
			r.AddEdge(v, u)
		}
	}
	return r
}

// Order implements the order of the graph.Iterator interface for the Digraph
func (g *Digraph) Order() int {
	return len(g.succs)
}

// Visit implements the graph.Iterator interface for the Digraph
func (g *Digraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if v < 0 || v >= len(g.succs) {
		return false
	}
	for _, w := range g.succs[v] {
		if do(w, 1) {
			return true
		}
	}
	return false
}

// *************** Graph interface implementation **********************

func (g *Digraph) has(id int64) bool {
	return id >= 0 && id < int64(len(g.succs))
}

// Node implements the Graph interface
func (g *Digraph) Node(id int64) graph.Node {
	if !g.has(id) {
		return nil
	}
	return simple.Node(id)
}

// Nodes returns the set of nodes in the graph
func (g *Digraph) Nodes() graph.Nodes {
	nodes := make([]graph.Node, len(g.succs))
	for i := range g.succs {
		nodes[i] = simple.Node(i)
	}
	return iterator.NewOrderedNodes(nodes)
}

// From returns the successors of the node id
func (g *Digraph) From(id int64) graph.Nodes {
	if !g.has(id) {
		return iterator.NewOrderedNodes(nil)
	}
	return toNodes(g.succs[id])
}

// To returns the predecessors of the node id
func (g *Digraph) To(id int64) graph.Nodes {
	if !g.has(id) {
		return iterator.NewOrderedNodes(nil)
	}
	return toNodes(g.preds[id])
}

func toNodes(ids []int) graph.Nodes {
	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i] = simple.Node(id)
	}
	return iterator.NewOrderedNodes(nodes)
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers, in either
// direction
func (g *Digraph) HasEdgeBetween(xid, yid int64) bool {
	return g.HasEdgeFromTo(xid, yid) || g.HasEdgeFromTo(yid, xid)
}

// HasEdgeFromTo returns whether there is an edge from uid to vid
func (g *Digraph) HasEdgeFromTo(uid, vid int64) bool {
	if !g.has(uid) || !g.has(vid) {
		return false
	}
	return slices.Contains(g.succs[uid], int(vid))
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (g *Digraph) Edge(uid, vid int64) graph.Edge {
	if !g.HasEdgeFromTo(uid, vid) {
		return nil
	}
	return simple.Edge{F: simple.Node(uid), T: simple.Node(vid)}
}

// ReversePostorder returns the vertices reachable from root in reverse postorder of a depth-first traversal
// that visits successors in insertion order.
func ReversePostorder(g *Digraph, root int) []int {
	type frame struct{ v, next int }
	visited := make([]bool, g.Order())
	var post []int
	stack := []frame{{v: root}}
	visited[root] = true
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(g.succs[top.v]) {
			w := g.succs[top.v][top.next]
			top.next++
			if !visited[w] {
				visited[w] = true
				stack = append(stack, frame{v: w})
			}
			continue
		}
		post = append(post, top.v)
		stack = stack[:len(stack)-1]
	}
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}
