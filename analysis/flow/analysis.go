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

// Package flow implements a generic monotone dataflow framework over control-flow graphs.
//
// An analysis attaches an assumption, an element of a join semi-lattice, to every edge of the graph. The solver
// starts from the bottom element on every edge, seeds the boundary node (the entry of a forward analysis, the
// exit of a backward analysis) with the analysis' initial assumption, and applies the transfer function of the
// nodes until no edge changes. Transfer functions must be monotone and the lattice must have finite height for
// the solver to terminate; the framework does not check it.
//
// An integrated analysis also rewrites the method once its assumptions are stable. See SolveIntegrated.
package flow

import (
	"errors"
	"fmt"

	"github.com/awslabs/ar-gflow/analysis/cfg"
)

// Direction is the direction in which assumptions flow along the edges of the graph
type Direction int

const (
	// Forward analyses propagate assumptions from the entry along the edges
	Forward Direction = iota
	// Backward analyses propagate assumptions from the exit against the edges
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Assumption is an immutable element of a join semi-lattice.
type Assumption[A any] interface {
	// Join returns the least upper bound of the receiver and other. Neither is modified.
	Join(other A) A
	// Equal returns true when the receiver and other denote the same element
	Equal(other A) bool
}

// Analysis is a dataflow analysis with assumptions of type A.
type Analysis[A Assumption[A]] interface {
	// Direction returns the direction of the analysis. It is fixed for an analysis.
	Direction() Direction
	// Bottom returns the least element of the lattice, the initial value of every edge
	Bottom() A
	// Initial returns the assumption at the boundary of the graph: entering the entry node of a forward analysis,
	// or leaving the exit node of a backward analysis
	Initial() A
	// Transfer returns the assumption that flows along e when the assumption in flows into n. For a forward
	// analysis e is an outgoing edge of n and in is the join of the incoming edges; for a backward analysis e is
	// an incoming edge and in is the join of the outgoing edges. The result may differ for each edge, e.g. to
	// refine the true and false branches of a condition.
	Transfer(n *cfg.Node, in A, e *cfg.Edge) A
}

// IntegratedAnalysis is an analysis that rewrites the method after reaching a fixpoint.
type IntegratedAnalysis[A Assumption[A]] interface {
	Analysis[A]
	// Transform may rewrite the ir tree at the origin of n, justified by the assumption in entering n. It returns
	// true when it changed the tree. Transform must not modify the graph.
	Transform(g *cfg.Cfg, n *cfg.Node, in A) (bool, error)
}

// ErrIterationLimit is returned when the solver visits more nodes than allowed by WithMaxIterations. This
// happens when the analysis is not monotone, or when its lattice has infinite height.
var ErrIterationLimit = errors.New("solver did not reach a fixpoint within its iteration limit")

// InvariantViolationError is returned by a transformation that finds the ir inconsistent with the assumption
// that justifies a rewrite.
type InvariantViolationError struct {
	Node   *cfg.Node
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation at node %d (%s): %s", e.Node.ID, e.Node, e.Reason)
}
