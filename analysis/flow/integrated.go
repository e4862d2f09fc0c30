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

	"github.com/awslabs/ar-gflow/analysis/cfg"
	"github.com/awslabs/ar-gflow/analysis/ir"
)

// SolveIntegrated solves the analysis a over g, then lets it rewrite the method. It returns true when any
// rewrite happened; the graph must then be rebuilt before it is analyzed again.
//
// The transformation is invoked once per ir node. Several graph nodes model the same ir node when it belongs to
// a finally block, which is copied on every path leaving its try statement; the transformation of such a node
// receives the join of the assumptions entering all its copies, so that a rewrite is only done when it is valid
// on every path.
func SolveIntegrated[A Assumption[A]](g *cfg.Cfg, a IntegratedAnalysis[A], opts ...Option) (bool, error) {
	r, err := Solve[A](g, a, opts...)
	if err != nil {
		return false, err
	}
	return Transform[A](r, a)
}

// Transform runs the transformation of a using the assumptions of a solved result.
func Transform[A Assumption[A]](r *Result[A], a IntegratedAnalysis[A]) (bool, error) {
	type key struct {
		origin ir.Node
		kind   cfg.NodeKind
	}
	var order []key
	copies := map[key][]*cfg.Node{}
	for _, n := range r.g.Nodes {
		if n.Origin == nil {
			continue
		}
		k := key{n.Origin, n.Kind}
		if _, ok := copies[k]; !ok {
			order = append(order, k)
		}
		copies[k] = append(copies[k], n)
	}

	changed := false
	for _, k := range order {
		nodes := copies[k]
		in := r.In(nodes[0])
		for _, n := range nodes[1:] {
			in = in.Join(r.In(n))
		}
		c, err := a.Transform(r.g, nodes[0], in)
		changed = changed || c
		if err != nil {
			return changed, fmt.Errorf("while transforming %s: %w", methodName(r.g), err)
		}
	}
	return changed, nil
}
