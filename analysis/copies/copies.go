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

// Package copies implements copy propagation: after an assignment x = y of a local to another local, reads of x
// can be replaced by reads of y as long as neither local is assigned again.
package copies

import (
	"strings"

	"github.com/awslabs/ar-gflow/analysis/cfg"
	"github.com/awslabs/ar-gflow/analysis/flow"
	"github.com/awslabs/ar-gflow/analysis/ir"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Copies maps each local that is a verified copy to the local it copies. The nil *Copies is the assumption of
// edges that cannot be taken. Copies are immutable.
type Copies struct {
	of map[*ir.Local]*ir.Local
}

// Original returns the local that l is a copy of, or nil
func (c *Copies) Original(l *ir.Local) *ir.Local {
	if c == nil {
		return nil
	}
	return c.of[l]
}

// Join keeps the copies that hold on both paths
func (c *Copies) Join(o *Copies) *Copies {
	if c == nil {
		return o
	}
	if o == nil {
		return c
	}
	r := &Copies{of: map[*ir.Local]*ir.Local{}}
	for x, y := range c.of {
		if o.of[x] == y {
			r.of[x] = y
		}
	}
	return r
}

func (c *Copies) Equal(o *Copies) bool {
	if c == nil || o == nil {
		return c == o
	}
	return maps.Equal(c.of, o.of)
}

// kill removes the copies invalidated by an assignment to l
func (c *Copies) kill(l *ir.Local) *Copies {
	r := &Copies{of: map[*ir.Local]*ir.Local{}}
	for x, y := range c.of {
		if x != l && y != l {
			r.of[x] = y
		}
	}
	return r
}

func (c *Copies) String() string {
	if c == nil {
		return "unreachable"
	}
	locals := maps.Keys(c.of)
	slices.SortFunc(locals, func(a, b *ir.Local) bool { return a.Index < b.Index })
	parts := make([]string, len(locals))
	for i, l := range locals {
		parts[i] = l.Name + "=" + c.of[l].Name
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Analysis is the copy propagation analysis
type Analysis struct{}

// Solve runs copy propagation on the graph g
func Solve(g *cfg.Cfg, opts ...flow.Option) (*flow.Result[*Copies], error) {
	return flow.Solve[*Copies](g, Analysis{}, opts...)
}

// Optimize runs copy propagation on the graph g and rewrites its method. It returns true when the method changed.
func Optimize(g *cfg.Cfg, opts ...flow.Option) (bool, error) {
	return flow.SolveIntegrated[*Copies](g, Analysis{}, opts...)
}

func (Analysis) Direction() flow.Direction { return flow.Forward }
func (Analysis) Bottom() *Copies           { return nil }
func (Analysis) Initial() *Copies          { return &Copies{of: map[*ir.Local]*ir.Local{}} }

func (Analysis) Transfer(n *cfg.Node, in *Copies, e *cfg.Edge) *Copies {
	if in == nil {
		return nil
	}
	switch n.Kind {
	case cfg.Write:
		out := in.kill(n.Local)
		// a copy between locals of different types may convert the value
		if y := ir.LocalOf(n.Value); y != nil && y != n.Local && y.Type == n.Local.Type {
			out.of[n.Local] = y
		}
		return out
	case cfg.ReadWrite:
		return in.kill(n.Local)
	}
	return in
}

// Transform replaces a read of a copy by a read of its original when the original is visible at the read.
func (Analysis) Transform(g *cfg.Cfg, n *cfg.Node, in *Copies) (bool, error) {
	if n.Kind != cfg.Read || in == nil {
		return false, nil
	}
	y := in.Original(n.Local)
	if y == nil {
		return false, nil
	}
	id, ok := n.Origin.(*ir.Ident)
	if !ok || id.Local != n.Local {
		return false, &flow.InvariantViolationError{Node: n, Reason: "read does not originate from its local"}
	}
	if !visible(g.Method, y, id) {
		return false, nil
	}
	return ir.Replace(g.Method.Body, id, &ir.Ident{Position: id.Position, Name: y.Name, Local: y}), nil
}

// visible returns true when the name of y refers to y at the identifier id
func visible(m *ir.Method, y *ir.Local, id *ir.Ident) bool {
	if !ir.Encloses(y.Scope, id) {
		return false
	}
	for _, l := range m.Locals {
		if l != y && l.Name == y.Name && l.Scope != y.Scope && ir.Encloses(y.Scope, l.Scope) && ir.Encloses(l.Scope, id) {
			return false
		}
	}
	return true
}
