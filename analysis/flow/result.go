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
	"fmt"
	"io"

	"github.com/awslabs/ar-gflow/analysis/cfg"
)

// Result is the immutable outcome of solving an analysis: the stable assumption of every edge of a graph.
type Result[A Assumption[A]] struct {
	g      *cfg.Cfg
	dir    Direction
	bottom A
	init   A
	values []A

	iterations int
	changes    int
}

// Cfg returns the graph the result was computed on
func (r *Result[A]) Cfg() *cfg.Cfg { return r.g }

// Direction returns the direction of the analysis that produced the result
func (r *Result[A]) Direction() Direction { return r.dir }

// Get returns the assumption of an edge
func (r *Result[A]) Get(e *cfg.Edge) A { return r.values[e.ID] }

// Iterations returns the number of node visits of the solver
func (r *Result[A]) Iterations() int { return r.iterations }

// Changes returns the number of times the solver updated an edge
func (r *Result[A]) Changes() int { return r.changes }

// flowsIn returns the edges whose assumptions flow into n in the direction of the analysis
func (r *Result[A]) flowsIn(n *cfg.Node) []*cfg.Edge {
	if r.dir == Backward {
		return r.g.Out(n)
	}
	return r.g.In(n)
}

// flowsOut returns the edges n computes assumptions for, in the direction of the analysis
func (r *Result[A]) flowsOut(n *cfg.Node) []*cfg.Edge {
	if r.dir == Backward {
		return r.g.In(n)
	}
	return r.g.Out(n)
}

// In returns the assumption flowing into n: the join of the assumptions of the edges entering n in the direction
// of the analysis, joined with the initial assumption at the boundary node.
func (r *Result[A]) In(n *cfg.Node) A {
	v := r.bottom
	if (r.dir == Forward && n == r.g.Entry) || (r.dir == Backward && n == r.g.Exit) {
		v = r.init
	}
	for _, e := range r.flowsIn(n) {
		v = v.Join(r.values[e.ID])
	}
	return v
}

// Equal returns true when both results assign equal assumptions to every edge of the same graph
func (r *Result[A]) Equal(other *Result[A]) bool {
	if r.g != other.g || len(r.values) != len(other.values) {
		return false
	}
	for i, v := range r.values {
		if !v.Equal(other.values[i]) {
			return false
		}
	}
	return true
}

// Fprint writes the graph with the assumption of every edge
func (r *Result[A]) Fprint(w io.Writer) {
	for _, n := range r.g.Nodes {
		fmt.Fprintf(w, "%d: %s\n", n.ID, n)
		for _, e := range r.g.Out(n) {
			fmt.Fprintf(w, "  -> %d %s %v\n", e.To.ID, e.Kind, r.values[e.ID])
		}
	}
}
