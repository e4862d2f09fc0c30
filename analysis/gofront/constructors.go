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

package gofront

import (
	"go/token"
	"strconv"
	"strings"

	"github.com/dave/dst"
)

// NewBool returns a new AST structure that represents the boolean b
func NewBool(b bool) *dst.Ident {
	if b {
		return dst.NewIdent("true")
	}
	return dst.NewIdent("false")
}

// NewInt returns a new AST structure that represents the integer value
func NewInt(value int32) dst.Expr {
	if value < 0 {
		return NewUnOp(token.SUB, &dst.BasicLit{Kind: token.INT, Value: strconv.FormatInt(-int64(value), 10)})
	}
	return &dst.BasicLit{Kind: token.INT, Value: strconv.FormatInt(int64(value), 10)}
}

// NewString returns a new AST structure that represents the string value
func NewString(value string) *dst.BasicLit {
	return &dst.BasicLit{Kind: token.STRING, Value: strconv.Quote(value)}
}

// NewNil returns a dst expression that represents nil
func NewNil() dst.Expr {
	return dst.NewIdent("nil")
}

// NewPanic returns a new call expression that calls panic over the arguments args ...
func NewPanic(args ...dst.Expr) *dst.CallExpr {
	return &dst.CallExpr{
		Fun:  dst.NewIdent("panic"),
		Args: args,
	}
}

// NewName returns the identifier of an ir name, which is qualified by its import path when it contains a dot
func NewName(name string) *dst.Ident {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return &dst.Ident{Name: name[i+1:], Path: name[:i]}
	}
	return dst.NewIdent(name)
}

// NewBinOp returns the binary expression x op y, parenthesizing the operands as needed
func NewBinOp(op token.Token, x, y dst.Expr) *dst.BinaryExpr {
	if precedence(x) < op.Precedence() {
		x = &dst.ParenExpr{X: x}
	}
	if precedence(y) <= op.Precedence() {
		y = &dst.ParenExpr{X: y}
	}
	return &dst.BinaryExpr{X: x, Op: op, Y: y}
}

// NewUnOp returns the unary expression op x, parenthesizing the operand as needed
func NewUnOp(op token.Token, x dst.Expr) *dst.UnaryExpr {
	if precedence(x) < token.UnaryPrec {
		x = &dst.ParenExpr{X: x}
	} else if u, ok := x.(*dst.UnaryExpr); ok && u.Op == op {
		// - -x and not --x
		x = &dst.ParenExpr{X: x}
	}
	return &dst.UnaryExpr{Op: op, X: x}
}

// precedence returns the Go precedence of an expression, token.HighestPrec for operands
func precedence(e dst.Expr) int {
	switch e := e.(type) {
	case *dst.BinaryExpr:
		return e.Op.Precedence()
	case *dst.UnaryExpr:
		return token.UnaryPrec
	}
	return token.HighestPrec
}
