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

// Package ir defines the structured intermediate representation of method bodies that the dataflow framework
// analyzes and rewrites.
//
// The set of node types is closed: every node implements Node through unexported marker methods, and code that
// inspects the tree switches over the concrete types. Trees are mutated in place through Apply and its Cursor.
package ir

import (
	"go/token"
)

// Node is implemented by every element of the IR tree.
type Node interface {
	Pos() token.Pos
	irNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// LocalKind distinguishes the different ways a local variable can be introduced.
type LocalKind int

const (
	// VarLocal is a local declared by a declaration statement
	VarLocal LocalKind = iota
	// ParamLocal is a method parameter
	ParamLocal
	// CatchLocal is the exception parameter of a catch clause
	CatchLocal
)

// Local is a resolved local variable. All references to the same variable point to the same *Local.
type Local struct {
	Name string
	Type string
	Kind LocalKind
	// Index is the position of the local in its method's Locals. Analyses use it as a dense key.
	Index int
	// Scope is the node whose extent bounds the visibility of the local: a *Block, a *ForStmt, a *SwitchStmt or
	// a *CatchClause.
	Scope Node
}

func (l *Local) String() string {
	if l == nil {
		return "<nil>"
	}
	return l.Name
}

// Method is one procedure body with its signature and local variables.
type Method struct {
	Position token.Pos
	Name     string
	Result   string
	Params   []*Local
	// Locals contains every local of the method, parameters included, indexed by Local.Index
	Locals []*Local
	Body   *Block
}

// NewLocal registers a new local in the method and returns it.
func (m *Method) NewLocal(name, typ string, kind LocalKind, scope Node) *Local {
	l := &Local{Name: name, Type: typ, Kind: kind, Index: len(m.Locals), Scope: scope}
	m.Locals = append(m.Locals, l)
	if kind == ParamLocal {
		m.Params = append(m.Params, l)
	}
	return l
}

// File is a compilation unit: a list of methods.
type File struct {
	Name    string
	Methods []*Method
}

// Method returns the method with the given name, or nil.
func (f *File) Method(name string) *Method {
	for _, m := range f.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// ********* Expressions *********

type (
	// Ident is a reference to a name. Local is nil when the name is not a local variable (a field or a global)
	Ident struct {
		Position token.Pos
		Name     string
		Local    *Local
	}

	// IntLit is an int literal, with Java's 32-bit semantics
	IntLit struct {
		Position token.Pos
		Value    int32
	}

	BoolLit struct {
		Position token.Pos
		Value    bool
	}

	StringLit struct {
		Position token.Pos
		Value    string
	}

	NullLit struct {
		Position token.Pos
	}

	// BinaryExpr is X Op Y, including the short-circuit operators token.LAND and token.LOR
	BinaryExpr struct {
		Position token.Pos
		Op       token.Token
		X, Y     Expr
	}

	// UnaryExpr is Op X where Op is one of token.NOT, token.SUB, token.ADD or token.XOR (bitwise complement)
	UnaryExpr struct {
		Position token.Pos
		Op       token.Token
		X        Expr
	}

	// AssignExpr is LHS Op RHS where Op is token.ASSIGN or a compound assignment operator
	AssignExpr struct {
		Position token.Pos
		Op       token.Token
		LHS, RHS Expr
	}

	// IncDecExpr is X++, X--, ++X or --X
	IncDecExpr struct {
		Position token.Pos
		Op       token.Token
		Prefix   bool
		X        Expr
	}

	// CallExpr is a method call. Recv is nil for calls on the implicit receiver
	CallExpr struct {
		Position token.Pos
		Recv     Expr
		Name     string
		Args     []Expr
	}

	NewExpr struct {
		Position token.Pos
		Type     string
		Args     []Expr
	}

	FieldExpr struct {
		Position token.Pos
		X        Expr
		Name     string
	}

	// CondExpr is Cond ? Then : Else
	CondExpr struct {
		Position token.Pos
		Cond     Expr
		Then     Expr
		Else     Expr
	}
)

// ********* Statements *********

type (
	Block struct {
		Position token.Pos
		Stmts    []Stmt
	}

	// DeclStmt declares a single local, with an optional initializer
	DeclStmt struct {
		Position token.Pos
		Local    *Local
		Init     Expr
	}

	ExprStmt struct {
		Position token.Pos
		X        Expr
	}

	EmptyStmt struct {
		Position token.Pos
	}

	IfStmt struct {
		Position token.Pos
		Cond     Expr
		Then     Stmt
		Else     Stmt // nil when there is no else branch
	}

	WhileStmt struct {
		Position token.Pos
		Cond     Expr
		Body     Stmt
	}

	DoStmt struct {
		Position token.Pos
		Body     Stmt
		Cond     Expr
	}

	// ForStmt is a three-clause for loop. Cond is nil for an infinite loop.
	ForStmt struct {
		Position token.Pos
		Init     []Stmt
		Cond     Expr
		Update   []Expr
		Body     Stmt
	}

	SwitchStmt struct {
		Position token.Pos
		Tag      Expr
		Cases    []*CaseClause
	}

	// CaseClause is one arm of a switch. Values is empty for the default clause. Control falls through from the
	// end of Body into the next clause.
	CaseClause struct {
		Position token.Pos
		Values   []Expr
		Body     []Stmt
	}

	BreakStmt struct {
		Position token.Pos
		Label    string
	}

	ContinueStmt struct {
		Position token.Pos
		Label    string
	}

	ReturnStmt struct {
		Position token.Pos
		Result   Expr // nil for a void return
	}

	ThrowStmt struct {
		Position token.Pos
		X        Expr
	}

	TryStmt struct {
		Position token.Pos
		Body     *Block
		Catches  []*CatchClause
		Finally  *Block // nil when there is no finally block
	}

	CatchClause struct {
		Position token.Pos
		Param    *Local
		Body     *Block
	}

	LabeledStmt struct {
		Position token.Pos
		Label    string
		Stmt     Stmt
	}

	SynchronizedStmt struct {
		Position token.Pos
		Lock     Expr
		Body     *Block
	}
)

// IsDefault returns true when the clause is the default clause of its switch
func (c *CaseClause) IsDefault() bool { return len(c.Values) == 0 }

func (x *Ident) Pos() token.Pos      { return x.Position }
func (x *IntLit) Pos() token.Pos     { return x.Position }
func (x *BoolLit) Pos() token.Pos    { return x.Position }
func (x *StringLit) Pos() token.Pos  { return x.Position }
func (x *NullLit) Pos() token.Pos    { return x.Position }
func (x *BinaryExpr) Pos() token.Pos { return x.Position }
func (x *UnaryExpr) Pos() token.Pos  { return x.Position }
func (x *AssignExpr) Pos() token.Pos { return x.Position }
func (x *IncDecExpr) Pos() token.Pos { return x.Position }
func (x *CallExpr) Pos() token.Pos   { return x.Position }
func (x *NewExpr) Pos() token.Pos    { return x.Position }
func (x *FieldExpr) Pos() token.Pos  { return x.Position }
func (x *CondExpr) Pos() token.Pos   { return x.Position }

func (s *Block) Pos() token.Pos            { return s.Position }
func (s *DeclStmt) Pos() token.Pos         { return s.Position }
func (s *ExprStmt) Pos() token.Pos         { return s.Position }
func (s *EmptyStmt) Pos() token.Pos        { return s.Position }
func (s *IfStmt) Pos() token.Pos           { return s.Position }
func (s *WhileStmt) Pos() token.Pos        { return s.Position }
func (s *DoStmt) Pos() token.Pos           { return s.Position }
func (s *ForStmt) Pos() token.Pos          { return s.Position }
func (s *SwitchStmt) Pos() token.Pos       { return s.Position }
func (s *CaseClause) Pos() token.Pos       { return s.Position }
func (s *BreakStmt) Pos() token.Pos        { return s.Position }
func (s *ContinueStmt) Pos() token.Pos     { return s.Position }
func (s *ReturnStmt) Pos() token.Pos       { return s.Position }
func (s *ThrowStmt) Pos() token.Pos        { return s.Position }
func (s *TryStmt) Pos() token.Pos          { return s.Position }
func (s *CatchClause) Pos() token.Pos      { return s.Position }
func (s *LabeledStmt) Pos() token.Pos      { return s.Position }
func (s *SynchronizedStmt) Pos() token.Pos { return s.Position }

func (*Ident) irNode()            {}
func (*IntLit) irNode()           {}
func (*BoolLit) irNode()          {}
func (*StringLit) irNode()        {}
func (*NullLit) irNode()          {}
func (*BinaryExpr) irNode()       {}
func (*UnaryExpr) irNode()        {}
func (*AssignExpr) irNode()       {}
func (*IncDecExpr) irNode()       {}
func (*CallExpr) irNode()         {}
func (*NewExpr) irNode()          {}
func (*FieldExpr) irNode()        {}
func (*CondExpr) irNode()         {}
func (*Block) irNode()            {}
func (*DeclStmt) irNode()         {}
func (*ExprStmt) irNode()         {}
func (*EmptyStmt) irNode()        {}
func (*IfStmt) irNode()           {}
func (*WhileStmt) irNode()        {}
func (*DoStmt) irNode()           {}
func (*ForStmt) irNode()          {}
func (*SwitchStmt) irNode()       {}
func (*CaseClause) irNode()       {}
func (*BreakStmt) irNode()        {}
func (*ContinueStmt) irNode()     {}
func (*ReturnStmt) irNode()       {}
func (*ThrowStmt) irNode()        {}
func (*TryStmt) irNode()          {}
func (*CatchClause) irNode()      {}
func (*LabeledStmt) irNode()      {}
func (*SynchronizedStmt) irNode() {}

func (*Ident) exprNode()      {}
func (*IntLit) exprNode()     {}
func (*BoolLit) exprNode()    {}
func (*StringLit) exprNode()  {}
func (*NullLit) exprNode()    {}
func (*BinaryExpr) exprNode() {}
func (*UnaryExpr) exprNode()  {}
func (*AssignExpr) exprNode() {}
func (*IncDecExpr) exprNode() {}
func (*CallExpr) exprNode()   {}
func (*NewExpr) exprNode()    {}
func (*FieldExpr) exprNode()  {}
func (*CondExpr) exprNode()   {}

func (*Block) stmtNode()            {}
func (*DeclStmt) stmtNode()         {}
func (*ExprStmt) stmtNode()         {}
func (*EmptyStmt) stmtNode()        {}
func (*IfStmt) stmtNode()           {}
func (*WhileStmt) stmtNode()        {}
func (*DoStmt) stmtNode()           {}
func (*ForStmt) stmtNode()          {}
func (*SwitchStmt) stmtNode()       {}
func (*BreakStmt) stmtNode()        {}
func (*ContinueStmt) stmtNode()     {}
func (*ReturnStmt) stmtNode()       {}
func (*ThrowStmt) stmtNode()        {}
func (*TryStmt) stmtNode()          {}
func (*LabeledStmt) stmtNode()      {}
func (*SynchronizedStmt) stmtNode() {}

// LocalOf returns the local an expression denotes, or nil if the expression is not a reference to a local.
func LocalOf(e Expr) *Local {
	if id, ok := e.(*Ident); ok {
		return id.Local
	}
	return nil
}

// IsLiteral returns true when e is a literal.
func IsLiteral(e Expr) bool {
	switch e.(type) {
	case *IntLit, *BoolLit, *StringLit, *NullLit:
		return true
	}
	return false
}

// CondOf returns the condition of a conditional statement, or nil when the statement has none.
func CondOf(s Stmt) Expr {
	switch s := s.(type) {
	case *IfStmt:
		return s.Cond
	case *WhileStmt:
		return s.Cond
	case *DoStmt:
		return s.Cond
	case *ForStmt:
		return s.Cond
	}
	return nil
}

// FirstCondLeaf returns the atomic condition that is evaluated first when the boolean expression e is evaluated
// with short-circuit semantics.
func FirstCondLeaf(e Expr) Expr {
	for {
		switch x := e.(type) {
		case *BinaryExpr:
			if x.Op != token.LAND && x.Op != token.LOR {
				return e
			}
			e = x.X
		case *UnaryExpr:
			if x.Op != token.NOT {
				return e
			}
			e = x.X
		case *CondExpr:
			e = x.Cond
		default:
			return e
		}
	}
}
