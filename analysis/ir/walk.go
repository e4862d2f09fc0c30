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

package ir

import "fmt"

// A Cursor describes a node encountered during Apply. It is bound to the slot of the parent that holds the node,
// so the node can replace itself (or delete itself from a list) without knowing its parent's type.
type Cursor struct {
	parent  Node
	node    Node
	index   int
	set     func(Node)
	del     func()
	deleted bool
}

// Node returns the current node
func (c *Cursor) Node() Node { return c.node }

// Parent returns the parent of the current node, or nil for the root
func (c *Cursor) Parent() Node { return c.parent }

// Index returns the index of the current node in the list that contains it, or -1 if the node is not part of a
// list.
func (c *Cursor) Index() int { return c.index }

// Replace replaces the current node with n. The replacement must fit in the parent's slot: a statement slot only
// accepts a Stmt, a block slot only a *Block. The children of n are traversed instead of the ones of the old node.
func (c *Cursor) Replace(n Node) {
	if c.set == nil {
		panic("ir: cannot replace the root of a traversal")
	}
	c.set(n)
	c.node = n
}

// Delete removes the current node from the list that contains it.
func (c *Cursor) Delete() {
	if c.del == nil {
		panic(fmt.Sprintf("ir: cannot delete %T outside of a list", c.node))
	}
	c.del()
	c.deleted = true
}

// An ApplyFunc is invoked by Apply for each node. See Apply.
type ApplyFunc func(*Cursor) bool

// Apply traverses the tree rooted at root recursively, calling pre before visiting the children of a node and
// post after. If pre returns false, the children of the node and post are skipped. If post returns false, the
// traversal is stopped.
//
// pre and post may call Cursor.Replace and Cursor.Delete. Apply returns the root of the tree, which is different
// from the argument if the root was replaced.
func Apply(root Node, pre, post ApplyFunc) (result Node) {
	parent := &rootHolder{node: root}
	a := &applier{pre: pre, post: post}
	a.apply(nil, root, -1, func(n Node) { parent.node = n }, nil)
	return parent.node
}

type rootHolder struct{ node Node }

type applier struct {
	pre, post ApplyFunc
	aborted   bool
}

func (a *applier) apply(parent Node, n Node, index int, set func(Node), del func()) {
	if a.aborted || n == nil {
		return
	}
	c := &Cursor{parent: parent, node: n, index: index, set: set, del: del}
	if a.pre != nil && !a.pre(c) {
		return
	}
	if c.deleted {
		return
	}
	a.children(c.node)
	if a.aborted {
		return
	}
	if a.post != nil && !a.post(c) {
		a.aborted = true
	}
}

// list visits the elements of a slice, handling deletions of the current element.
func list[T Node](a *applier, parent Node, elems *[]T) {
	for i := 0; i < len(*elems) && !a.aborted; {
		deleted := false
		idx := i
		a.apply(parent, (*elems)[i], i,
			func(n Node) { (*elems)[idx] = n.(T) },
			func() {
				*elems = append((*elems)[:idx], (*elems)[idx+1:]...)
				deleted = true
			})
		if !deleted {
			i++
		}
	}
}

func (a *applier) expr(parent Node, slot *Expr) {
	if *slot != nil {
		a.apply(parent, *slot, -1, func(n Node) { *slot = n.(Expr) }, nil)
	}
}

func (a *applier) stmt(parent Node, slot *Stmt) {
	if *slot != nil {
		a.apply(parent, *slot, -1, func(n Node) { *slot = n.(Stmt) }, nil)
	}
}

func (a *applier) block(parent Node, slot **Block) {
	if *slot != nil {
		a.apply(parent, *slot, -1, func(n Node) { *slot = n.(*Block) }, nil)
	}
}

func (a *applier) children(n Node) {
	switch n := n.(type) {
	case *Ident, *IntLit, *BoolLit, *StringLit, *NullLit:
	case *BinaryExpr:
		a.expr(n, &n.X)
		a.expr(n, &n.Y)
	case *UnaryExpr:
		a.expr(n, &n.X)
	case *AssignExpr:
		a.expr(n, &n.LHS)
		a.expr(n, &n.RHS)
	case *IncDecExpr:
		a.expr(n, &n.X)
	case *CallExpr:
		a.expr(n, &n.Recv)
		list(a, n, &n.Args)
	case *NewExpr:
		list(a, n, &n.Args)
	case *FieldExpr:
		a.expr(n, &n.X)
	case *CondExpr:
		a.expr(n, &n.Cond)
		a.expr(n, &n.Then)
		a.expr(n, &n.Else)

	case *Block:
		list(a, n, &n.Stmts)
	case *DeclStmt:
		a.expr(n, &n.Init)
	case *ExprStmt:
		a.expr(n, &n.X)
	case *EmptyStmt, *BreakStmt, *ContinueStmt:
	case *IfStmt:
		a.expr(n, &n.Cond)
		a.stmt(n, &n.Then)
		a.stmt(n, &n.Else)
	case *WhileStmt:
		a.expr(n, &n.Cond)
		a.stmt(n, &n.Body)
	case *DoStmt:
		a.stmt(n, &n.Body)
		a.expr(n, &n.Cond)
	case *ForStmt:
		list(a, n, &n.Init)
		a.expr(n, &n.Cond)
		list(a, n, &n.Update)
		a.stmt(n, &n.Body)
	case *SwitchStmt:
		a.expr(n, &n.Tag)
		list(a, n, &n.Cases)
	case *CaseClause:
		list(a, n, &n.Values)
		list(a, n, &n.Body)
	case *ReturnStmt:
		a.expr(n, &n.Result)
	case *ThrowStmt:
		a.expr(n, &n.X)
	case *TryStmt:
		a.block(n, &n.Body)
		list(a, n, &n.Catches)
		a.block(n, &n.Finally)
	case *CatchClause:
		a.block(n, &n.Body)
	case *LabeledStmt:
		a.stmt(n, &n.Stmt)
	case *SynchronizedStmt:
		a.expr(n, &n.Lock)
		a.block(n, &n.Body)
	default:
		panic(fmt.Sprintf("ir: unexpected node type %T", n))
	}
}

// Inspect traverses the tree rooted at root in depth-first order, calling f for each node. If f returns false, the
// children of the node are skipped.
func Inspect(root Node, f func(Node) bool) {
	Apply(root, func(c *Cursor) bool { return f(c.Node()) }, nil)
}

// Replace replaces the node old, found by identity in the tree rooted at root, with new. It returns false if old
// is not in the tree.
func Replace(root Node, old, new Node) bool {
	found := false
	Apply(root, func(c *Cursor) bool {
		if found {
			return false
		}
		if c.Node() == old && c.parent != nil {
			c.Replace(new)
			found = true
			return false
		}
		return true
	}, nil)
	return found
}

// Remove removes the statement s from the tree rooted at root. A statement that is an element of a list is
// deleted from the list; a statement in a single-statement slot (the branch of an if, the body of a loop) is
// replaced by an empty statement. It returns false if s is not in the tree.
func Remove(root Node, s Stmt) bool {
	found := false
	Apply(root, func(c *Cursor) bool {
		if found {
			return false
		}
		if c.Node() == Node(s) && c.parent != nil {
			found = true
			switch {
			case c.del != nil:
				c.Delete()
			case inBlockSlot(c.parent):
				c.Replace(&Block{Position: s.Pos()})
			default:
				c.Replace(&EmptyStmt{Position: s.Pos()})
			}
			return false
		}
		return true
	}, nil)
	return found
}

// inBlockSlot returns true when the single-statement children of parent must be blocks.
func inBlockSlot(parent Node) bool {
	switch parent.(type) {
	case *TryStmt, *CatchClause, *SynchronizedStmt:
		return true
	}
	return false
}

// PathTo returns the path from root to target, both included, or nil when target is not in the tree.
func PathTo(root Node, target Node) []Node {
	var stack []Node
	var path []Node
	Apply(root,
		func(c *Cursor) bool {
			if path != nil {
				return false
			}
			stack = append(stack, c.Node())
			if c.Node() == target {
				path = append([]Node(nil), stack...)
			}
			return true
		},
		func(c *Cursor) bool {
			stack = stack[:len(stack)-1]
			return path == nil
		})
	return path
}

// Encloses returns true when inner is outer or a descendant of outer.
func Encloses(outer, inner Node) bool {
	return PathTo(outer, inner) != nil
}
