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

// Package cfg builds control-flow graphs of method bodies.
//
// A graph has one node per non-branching unit of the method: a read or a write of a local, a call, an atomic
// branch condition, and so on. Nodes keep a reference to the ir node they were created from, so that
// transformations driven by an analysis of the graph can rewrite the original tree. The topology of a graph is
// fixed once it is built; when a transformation changes the control flow of a method, the graph must be rebuilt.
package cfg

import (
	"fmt"

	"github.com/awslabs/ar-gflow/analysis/ir"
)

// NodeKind is the kind of a node of the control-flow graph
type NodeKind int

const (
	// Entry is the unique entry node of the graph
	Entry NodeKind = iota
	// Exit is the unique exit node of the graph
	Exit
	// Nop is a synthetic node: the join point of a conditional, the head of a loop or the end of a finally copy
	Nop
	// Read is a read of a local
	Read
	// Write is a write of a local. Value is the assigned expression, nil for a declaration without initializer
	// or a catch parameter.
	Write
	// ReadWrite is a compound assignment or an increment of a local
	ReadWrite
	// Call is a method call or an allocation. Calls may throw.
	Call
	// Check is an operation that throws when it fails: a field dereference, or a division whose divisor may be zero
	Check
	// Cond is an atomic branch condition. Its outgoing edges are True and False edges.
	Cond
	// Case is the test of one switch case value against the switch tag
	Case
	// Goto is a break or continue statement
	Goto
	// Return is a return statement. Value is the returned expression, if any.
	Return
	// Throw is a throw statement
	Throw
)

var nodeKindNames = [...]string{
	Entry:     "entry",
	Exit:      "exit",
	Nop:       "nop",
	Read:      "read",
	Write:     "write",
	ReadWrite: "readwrite",
	Call:      "call",
	Check:     "check",
	Cond:      "cond",
	Case:      "case",
	Goto:      "goto",
	Return:    "return",
	Throw:     "throw",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// EdgeKind discriminates the edges of the graph
type EdgeKind int

const (
	// Fallthrough is a normal sequential edge, including fallthrough from one switch case into the next
	Fallthrough EdgeKind = iota
	// True is taken when the condition of its source evaluates to true
	True
	// False is taken when the condition of its source evaluates to false
	False
	// Exception is taken when its source throws
	Exception
	// Break is the jump of a break statement
	Break
	// Continue is the jump of a continue statement
	Continue
	// ReturnJump is the jump of a return statement to the exit
	ReturnJump
)

var edgeKindNames = [...]string{
	Fallthrough: "fallthrough",
	True:        "true",
	False:       "false",
	Exception:   "exception",
	Break:       "break",
	Continue:    "continue",
	ReturnJump:  "return",
}

func (k EdgeKind) String() string {
	if int(k) < len(edgeKindNames) {
		return edgeKindNames[k]
	}
	return fmt.Sprintf("EdgeKind(%d)", int(k))
}

// Node is a node of the control-flow graph
type Node struct {
	// ID is the index of the node in Cfg.Nodes
	ID   int
	Kind NodeKind
	// Origin is the ir node this node models. Nodes created for each copy of a finally block share their origins.
	Origin ir.Node
	// Stmt is the innermost statement that contains Origin
	Stmt ir.Stmt
	// Local is the local read or written by Read, Write and ReadWrite nodes, and the local tested by Case nodes
	// when the switch tag is a local
	Local *ir.Local
	// Value is the expression assigned by a Write, tested by a Cond, compared by a Case, returned by a Return or
	// thrown by a Throw
	Value ir.Expr
	// Label is the target label of a Goto, or the label of a Nop closing a finally copy
	Label string
}

// Declares returns true when the node is the declaration of a local without initializer: the local is undefined
// after the node.
func (n *Node) Declares() bool {
	if n.Kind != Write || n.Value != nil {
		return false
	}
	_, ok := n.Origin.(*ir.DeclStmt)
	return ok
}

func (n *Node) String() string {
	switch n.Kind {
	case Read:
		return fmt.Sprintf("read %s", n.Local)
	case Write:
		if n.Value == nil {
			return fmt.Sprintf("write %s", n.Local)
		}
		return fmt.Sprintf("write %s = %s", n.Local, ir.Format(n.Value))
	case ReadWrite, Call, Check:
		return fmt.Sprintf("%s %s", n.Kind, ir.Format(n.Origin))
	case Cond, Case, Throw:
		return fmt.Sprintf("%s %s", n.Kind, ir.Format(n.Value))
	case Return:
		if n.Value == nil {
			return "return"
		}
		return fmt.Sprintf("return %s", ir.Format(n.Value))
	case Goto:
		return fmt.Sprintf("goto %s", ir.Format(n.Origin))
	}
	return n.Kind.String()
}

// Edge is a directed edge of the control-flow graph
type Edge struct {
	// ID is the index of the edge in Cfg.Edges
	ID   int
	From *Node
	To   *Node
	Kind EdgeKind
}

func (e *Edge) String() string {
	return fmt.Sprintf("%d -> %d (%s)", e.From.ID, e.To.ID, e.Kind)
}

// Cfg is the control-flow graph of one method body.
type Cfg struct {
	Method *ir.Method
	Entry  *Node
	Exit   *Node
	Nodes  []*Node
	Edges  []*Edge

	in  [][]*Edge
	out [][]*Edge
}

// In returns the incoming edges of n, in creation order
func (g *Cfg) In(n *Node) []*Edge { return g.in[n.ID] }

// Out returns the outgoing edges of n, in creation order
func (g *Cfg) Out(n *Node) []*Edge { return g.out[n.ID] }

// Succs returns the successors of n, in the order of its outgoing edges
func (g *Cfg) Succs(n *Node) []*Node {
	succs := make([]*Node, len(g.out[n.ID]))
	for i, e := range g.out[n.ID] {
		succs[i] = e.To
	}
	return succs
}

// Preds returns the predecessors of n, in the order of its incoming edges
func (g *Cfg) Preds(n *Node) []*Node {
	preds := make([]*Node, len(g.in[n.ID]))
	for i, e := range g.in[n.ID] {
		preds[i] = e.From
	}
	return preds
}

// NodesOf returns the nodes of the given kind whose origin is o
func (g *Cfg) NodesOf(o ir.Node, kind NodeKind) []*Node {
	var nodes []*Node
	for _, n := range g.Nodes {
		if n.Origin == o && n.Kind == kind {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func (g *Cfg) newNode(kind NodeKind, origin ir.Node, stmt ir.Stmt) *Node {
	n := &Node{ID: len(g.Nodes), Kind: kind, Origin: origin, Stmt: stmt}
	g.Nodes = append(g.Nodes, n)
	g.in = append(g.in, nil)
	g.out = append(g.out, nil)
	return n
}

func (g *Cfg) newEdge(from, to *Node, kind EdgeKind) *Edge {
	e := &Edge{ID: len(g.Edges), From: from, To: to, Kind: kind}
	g.Edges = append(g.Edges, e)
	g.out[from.ID] = append(g.out[from.ID], e)
	g.in[to.ID] = append(g.in[to.ID], e)
	return e
}
