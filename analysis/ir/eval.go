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

import (
	"fmt"
	"go/token"
)

// ConstKind is the type of a constant value
type ConstKind int

const (
	IntConst ConstKind = iota + 1
	BoolConst
)

// Const is a compile-time constant of type int or boolean. The zero value is not a valid constant.
type Const struct {
	Kind ConstKind
	Int  int32
	Bool bool
}

// Int returns the int constant v
func Int(v int32) Const { return Const{Kind: IntConst, Int: v} }

// Bool returns the boolean constant b
func Bool(b bool) Const { return Const{Kind: BoolConst, Bool: b} }

func (c Const) String() string {
	switch c.Kind {
	case IntConst:
		return fmt.Sprintf("%d", c.Int)
	case BoolConst:
		return fmt.Sprintf("%t", c.Bool)
	}
	return "<invalid>"
}

// Lit returns a literal expression for the constant.
func (c Const) Lit(pos token.Pos) Expr {
	if c.Kind == BoolConst {
		return &BoolLit{Position: pos, Value: c.Bool}
	}
	return &IntLit{Position: pos, Value: c.Int}
}

// ConstOf returns the constant value of a literal.
func ConstOf(e Expr) (Const, bool) {
	switch e := e.(type) {
	case *IntLit:
		return Int(e.Value), true
	case *BoolLit:
		return Bool(e.Value), true
	}
	return Const{}, false
}

// Eval evaluates e to a constant. Literals evaluate to themselves and references to locals are resolved through
// lookup, which may be nil. Evaluation fails when e has side effects, when a local has no known value, or when the
// operation would throw at run time (a division by zero).
func Eval(e Expr, lookup func(*Local) (Const, bool)) (Const, bool) {
	switch e := e.(type) {
	case *IntLit:
		return Int(e.Value), true
	case *BoolLit:
		return Bool(e.Value), true
	case *Ident:
		if e.Local == nil || lookup == nil {
			return Const{}, false
		}
		return lookup(e.Local)
	case *UnaryExpr:
		x, ok := Eval(e.X, lookup)
		if !ok {
			return Const{}, false
		}
		return EvalUnary(e.Op, x)
	case *BinaryExpr:
		x, okx := Eval(e.X, lookup)
		// short-circuit operators only need the left operand when it decides the result
		if okx && x.Kind == BoolConst && !HasSideEffects(e.Y) {
			if e.Op == token.LAND && !x.Bool {
				return Bool(false), true
			}
			if e.Op == token.LOR && x.Bool {
				return Bool(true), true
			}
		}
		if !okx {
			return Const{}, false
		}
		y, ok := Eval(e.Y, lookup)
		if !ok {
			return Const{}, false
		}
		return EvalBinary(e.Op, x, y)
	case *CondExpr:
		c, ok := Eval(e.Cond, lookup)
		if !ok || c.Kind != BoolConst {
			return Const{}, false
		}
		if c.Bool {
			if HasSideEffects(e.Else) {
				return Const{}, false
			}
			return Eval(e.Then, lookup)
		}
		if HasSideEffects(e.Then) {
			return Const{}, false
		}
		return Eval(e.Else, lookup)
	}
	return Const{}, false
}

// EvalUnary applies a unary operator to a constant.
func EvalUnary(op token.Token, x Const) (Const, bool) {
	switch {
	case op == token.NOT && x.Kind == BoolConst:
		return Bool(!x.Bool), true
	case op == token.SUB && x.Kind == IntConst:
		return Int(-x.Int), true
	case op == token.ADD && x.Kind == IntConst:
		return x, true
	case op == token.XOR && x.Kind == IntConst:
		return Int(^x.Int), true
	}
	return Const{}, false
}

// EvalBinary applies a binary operator to two constants with Java semantics: int arithmetic wraps around on 32
// bits and shift counts are masked to their five low bits.
func EvalBinary(op token.Token, x, y Const) (Const, bool) {
	if x.Kind != y.Kind {
		return Const{}, false
	}
	if x.Kind == BoolConst {
		switch op {
		case token.LAND, token.AND:
			return Bool(x.Bool && y.Bool), true
		case token.LOR, token.OR:
			return Bool(x.Bool || y.Bool), true
		case token.XOR, token.NEQ:
			return Bool(x.Bool != y.Bool), true
		case token.EQL:
			return Bool(x.Bool == y.Bool), true
		}
		return Const{}, false
	}
	a, b := x.Int, y.Int
	switch op {
	case token.ADD:
		return Int(a + b), true
	case token.SUB:
		return Int(a - b), true
	case token.MUL:
		return Int(a * b), true
	case token.QUO:
		if b == 0 {
			return Const{}, false
		}
		return Int(a / b), true
	case token.REM:
		if b == 0 {
			return Const{}, false
		}
		return Int(a % b), true
	case token.AND:
		return Int(a & b), true
	case token.OR:
		return Int(a | b), true
	case token.XOR:
		return Int(a ^ b), true
	case token.SHL:
		return Int(a << uint32(b&31)), true
	case token.SHR:
		return Int(a >> uint32(b&31)), true
	case token.EQL:
		return Bool(a == b), true
	case token.NEQ:
		return Bool(a != b), true
	case token.LSS:
		return Bool(a < b), true
	case token.LEQ:
		return Bool(a <= b), true
	case token.GTR:
		return Bool(a > b), true
	case token.GEQ:
		return Bool(a >= b), true
	}
	return Const{}, false
}

// HasSideEffects returns true when evaluating e may have an observable effect other than producing its value:
// assignments, calls, allocations, and operations that may throw (field dereferences, divisions by a non-constant
// or zero divisor).
func HasSideEffects(e Expr) bool {
	effects := false
	Inspect(e, func(n Node) bool {
		switch n := n.(type) {
		case *AssignExpr, *IncDecExpr, *CallExpr, *NewExpr, *FieldExpr:
			effects = true
		case *BinaryExpr:
			if n.Op == token.QUO || n.Op == token.REM {
				if d, ok := ConstOf(n.Y); !ok || d.Kind != IntConst || d.Int == 0 {
					effects = true
				}
			}
		}
		return !effects
	})
	return effects
}

// Reads returns true when e reads the local l.
func Reads(e Expr, l *Local) bool {
	found := false
	Inspect(e, func(n Node) bool {
		if id, ok := n.(*Ident); ok && id.Local == l {
			found = true
		}
		return !found
	})
	return found
}
