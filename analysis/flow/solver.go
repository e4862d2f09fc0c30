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
	"github.com/awslabs/ar-gflow/analysis/config"
	"golang.org/x/tools/container/intsets"
)

type options struct {
	bounds config.Options
	logger *config.LogGroup
	start  any
}

// Option configures a solver
type Option func(*options)

// WithMaxIterations bounds the number of node visits of the solver. A solver that exceeds the bound fails with
// ErrIterationLimit. A bound <= 0 is ignored.
func WithMaxIterations(n int) Option {
	return func(o *options) { o.bounds.MaxIterations = n }
}

// WithLogger sets the logger of the solver. Node visits are logged at the trace level.
func WithLogger(l *config.LogGroup) Option {
	return func(o *options) { o.logger = l }
}

// WithStart starts the solver from the assumptions of a previous result on the same graph instead of bottom.
// Starting from a fixpoint of the same analysis does not change any assumption.
func WithStart[A Assumption[A]](r *Result[A]) Option {
	return func(o *options) { o.start = r }
}

// WithConfig sets the bound and the logger of the solver from a config
func WithConfig(c *config.Config) Option {
	return func(o *options) {
		o.bounds.MaxIterations = c.MaxIterations
		o.logger = config.NewLogGroup(c)
	}
}

// Solve computes the fixpoint of the analysis a over the graph g. The direction of the analysis determines the
// direction of propagation. The result maps every edge to its stable assumption.
//
// The worklist initially contains all the nodes. Nodes are visited in reverse postorder of the direction of the
// analysis; a node is added back to the worklist when one of the edges it depends on changes.
func Solve[A Assumption[A]](g *cfg.Cfg, a Analysis[A], opts ...Option) (*Result[A], error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = config.NewDiscardLogGroup()
	}

	r := &Result[A]{
		g:      g,
		dir:    a.Direction(),
		bottom: a.Bottom(),
		init:   a.Initial(),
		values: make([]A, len(g.Edges)),
	}
	if start, ok := o.start.(*Result[A]); ok && start != nil {
		if start.g != g {
			return nil, fmt.Errorf("cannot start solver from the result of another graph")
		}
		copy(r.values, start.values)
	} else {
		for i := range r.values {
			r.values[i] = r.bottom
		}
	}

	order := g.ReversePostorder(r.dir == Backward)
	rank := make([]int, len(g.Nodes))
	for i, n := range order {
		rank[n.ID] = i
	}
	var worklist intsets.Sparse
	for i := range order {
		worklist.Insert(i)
	}

	var next int
	for worklist.TakeMin(&next) {
		n := order[next]
		r.iterations++
		if o.bounds.ExceedsMaxIterations(r.iterations) {
			return nil, fmt.Errorf("%s analysis of %s: %w (%d node visits)",
				r.dir, methodName(g), ErrIterationLimit, o.bounds.MaxIterations)
		}
		in := r.In(n)
		o.logger.Tracef("visit node %d: %s", n.ID, n)
		for _, e := range r.flowsOut(n) {
			v := a.Transfer(n, in, e)
			if v.Equal(r.values[e.ID]) {
				continue
			}
			r.values[e.ID] = v
			r.changes++
			succ := e.To
			if r.dir == Backward {
				succ = e.From
			}
			o.logger.Tracef("  edge %s changed, scheduling node %d", e, succ.ID)
			worklist.Insert(rank[succ.ID])
		}
	}
	o.logger.Debugf("%s analysis of %s: fixpoint after %d node visits, %d edge updates",
		r.dir, methodName(g), r.iterations, r.changes)
	return r, nil
}

func methodName(g *cfg.Cfg) string {
	if g.Method == nil {
		return "<unknown>"
	}
	return g.Method.Name
}
