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

// Package render writes control-flow graphs and solved assumptions in the GraphViz format.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/awslabs/ar-gflow/analysis/cfg"
	"github.com/awslabs/ar-gflow/analysis/flow"
)

// edgeStyle defines specific attributes for specific edges in the graph
// - true and false edges of conditions are colored green and red
// - exception edges are dashed
// - back edges of loops are bold
func edgeStyle(e *cfg.Edge, back bool) string {
	var attrs []string
	switch e.Kind {
	case cfg.True:
		attrs = append(attrs, "color=darkgreen")
	case cfg.False:
		attrs = append(attrs, "color=red")
	case cfg.Exception:
		attrs = append(attrs, "style=dashed", "color=orange")
	case cfg.Break, cfg.Continue, cfg.ReturnJump:
		attrs = append(attrs, "color=blue")
	}
	if back {
		attrs = append(attrs, "penwidth=2")
	}
	return strings.Join(attrs, " ")
}

func nodeShape(n *cfg.Node) string {
	switch n.Kind {
	case cfg.Entry, cfg.Exit:
		return "shape=doublecircle"
	case cfg.Cond, cfg.Case:
		return "shape=diamond"
	case cfg.Nop:
		return "shape=point"
	}
	return "shape=rect style=rounded"
}

func escape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\\", "\\\\"), "\"", "\\\"")
}

// WriteGraphviz writes a graphviz representation of the control-flow graph g to w
func WriteGraphviz(g *cfg.Cfg, w io.Writer) error {
	return write(g, w, func(e *cfg.Edge) string { return e.Kind.String() })
}

// WriteResultGraphviz writes a graphviz representation of the graph r was solved on, with every edge labelled by
// its stable assumption.
func WriteResultGraphviz[A flow.Assumption[A]](r *flow.Result[A], w io.Writer) error {
	return write(r.Cfg(), w, func(e *cfg.Edge) string {
		return e.Kind.String() + "\\n" + escape(fmt.Sprint(r.Get(e)))
	})
}

// write writes g, labelling each edge with edgeLabel, which must return an escaped string
func write(g *cfg.Cfg, w io.Writer, edgeLabel func(*cfg.Edge) string) error {
	back := map[*cfg.Edge]bool{}
	for _, e := range g.BackEdges() {
		back[e] = true
	}
	name := "cfg"
	if g.Method != nil {
		name = g.Method.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "digraph \"%s\" {\n", escape(name))
	fmt.Fprintf(&b, "  node [fontname=\"monospace\"];\n")
	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "  %d [label=\"%d: %s\" %s];\n", n.ID, n.ID, escape(n.String()), nodeShape(n))
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %d -> %d [label=\"%s\" %s];\n",
			e.From.ID, e.To.ID, edgeLabel(e), edgeStyle(e, back[e]))
	}
	b.WriteString("}\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("error while writing graph: %w", err)
	}
	return nil
}
