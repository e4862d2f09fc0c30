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
	"bytes"
	"fmt"
	"go/token"
	"strconv"
	"strings"
)

const indentUnit = "  "

// Format returns the canonical source text of a node. Statements are printed one per line with two-space
// indentation; expressions are parenthesized only where precedence requires it.
func Format(n Node) string {
	p := &printer{}
	switch n := n.(type) {
	case Expr:
		p.expr(n, precLowest)
	case Stmt:
		p.stmt(n)
	case *CaseClause:
		p.caseClause(n)
	case *CatchClause:
		p.printf("catch (%s %s) ", n.Param.Type, n.Param.Name)
		p.block(n.Body)
	}
	return strings.TrimSuffix(p.b.String(), "\n")
}

// FormatBody returns the statements of the method body, without the enclosing braces.
func FormatBody(m *Method) string {
	p := &printer{}
	for _, s := range m.Body.Stmts {
		p.stmt(s)
	}
	return strings.TrimSuffix(p.b.String(), "\n")
}

// FormatMethod returns the full text of a method.
func FormatMethod(m *Method) string {
	p := &printer{}
	params := make([]string, len(m.Params))
	for i, param := range m.Params {
		params[i] = param.Type + " " + param.Name
	}
	result := m.Result
	if result == "" {
		result = "void"
	}
	p.printf("%s %s(%s) ", result, m.Name, strings.Join(params, ", "))
	p.block(m.Body)
	return strings.TrimSuffix(p.b.String(), "\n")
}

// FormatFile returns the text of all the methods of the file, separated by blank lines.
func FormatFile(f *File) string {
	parts := make([]string, len(f.Methods))
	for i, m := range f.Methods {
		parts[i] = FormatMethod(m)
	}
	return strings.Join(parts, "\n\n")
}

const (
	precLowest = iota
	precAssign
	precCond
	precLor
	precLand
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
	precPrimary
)

// Precedence returns the binding strength of a binary operator, following Java's operator precedence.
func Precedence(op token.Token) int {
	switch op {
	case token.LOR:
		return precLor
	case token.LAND:
		return precLand
	case token.OR:
		return precBitOr
	case token.XOR:
		return precBitXor
	case token.AND:
		return precBitAnd
	case token.EQL, token.NEQ:
		return precEquality
	case token.LSS, token.GTR, token.LEQ, token.GEQ:
		return precRelational
	case token.SHL, token.SHR:
		return precShift
	case token.ADD, token.SUB:
		return precAdditive
	case token.MUL, token.QUO, token.REM:
		return precMultiplicative
	}
	return precLowest
}

func exprPrec(e Expr) int {
	switch e := e.(type) {
	case *BinaryExpr:
		return Precedence(e.Op)
	case *UnaryExpr:
		return precUnary
	case *IncDecExpr:
		if e.Prefix {
			return precUnary
		}
		return precPostfix
	case *AssignExpr:
		return precAssign
	case *CondExpr:
		return precCond
	case *IntLit:
		if e.Value < 0 {
			return precUnary
		}
	}
	return precPrimary
}

// OpString returns the Java spelling of an operator.
func OpString(op token.Token) string {
	switch op {
	case token.XOR:
		return "^"
	case token.AND_NOT:
		return "&~"
	}
	return op.String()
}

type printer struct {
	b      bytes.Buffer
	indent int
}

// joinLine continues the last printed line when it ends with a closing brace, so that "else" and the condition of
// a do loop follow the brace.
func (p *printer) joinLine(afterBlock bool, format string, args ...any) {
	if afterBlock && bytes.HasSuffix(p.b.Bytes(), []byte("}\n")) {
		p.b.Truncate(p.b.Len() - 1)
		p.b.WriteByte(' ')
	} else {
		p.b.WriteString(strings.Repeat(indentUnit, p.indent))
	}
	p.printf(format, args...)
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(&p.b, format, args...)
}

func (p *printer) line(format string, args ...any) {
	p.b.WriteString(strings.Repeat(indentUnit, p.indent))
	p.printf(format, args...)
	p.b.WriteByte('\n')
}

func (p *printer) expr(e Expr, prec int) {
	if exprPrec(e) < prec {
		p.b.WriteByte('(')
		p.expr(e, precLowest)
		p.b.WriteByte(')')
		return
	}
	switch e := e.(type) {
	case *Ident:
		p.b.WriteString(e.Name)
	case *IntLit:
		p.b.WriteString(strconv.FormatInt(int64(e.Value), 10))
	case *BoolLit:
		p.b.WriteString(strconv.FormatBool(e.Value))
	case *StringLit:
		p.b.WriteString(strconv.Quote(e.Value))
	case *NullLit:
		p.b.WriteString("null")
	case *BinaryExpr:
		prec := Precedence(e.Op)
		p.expr(e.X, prec)
		p.printf(" %s ", OpString(e.Op))
		p.expr(e.Y, prec+1)
	case *UnaryExpr:
		op := "~"
		if e.Op != token.XOR {
			op = e.Op.String()
		}
		p.b.WriteString(op)
		// avoid printing "- -x" as "--x"
		if u, ok := e.X.(*UnaryExpr); ok && u.Op == e.Op {
			p.b.WriteByte(' ')
		} else if lit, ok := e.X.(*IntLit); ok && lit.Value < 0 && e.Op == token.SUB {
			p.b.WriteByte(' ')
		}
		p.expr(e.X, precUnary)
	case *AssignExpr:
		p.expr(e.LHS, precUnary)
		p.printf(" %s ", e.Op)
		p.expr(e.RHS, precAssign)
	case *IncDecExpr:
		if e.Prefix {
			p.b.WriteString(e.Op.String())
			p.expr(e.X, precUnary)
		} else {
			p.expr(e.X, precPostfix)
			p.b.WriteString(e.Op.String())
		}
	case *CallExpr:
		if e.Recv != nil {
			p.expr(e.Recv, precPrimary)
			p.b.WriteByte('.')
		}
		p.b.WriteString(e.Name)
		p.args(e.Args)
	case *NewExpr:
		p.printf("new %s", e.Type)
		p.args(e.Args)
	case *FieldExpr:
		p.expr(e.X, precPrimary)
		p.printf(".%s", e.Name)
	case *CondExpr:
		p.expr(e.Cond, precLor)
		p.b.WriteString(" ? ")
		p.expr(e.Then, precLowest)
		p.b.WriteString(" : ")
		p.expr(e.Else, precCond)
	default:
		panic(fmt.Sprintf("ir: unexpected expression %T", e))
	}
}

func (p *printer) args(args []Expr) {
	p.b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			p.b.WriteString(", ")
		}
		p.expr(a, precAssign)
	}
	p.b.WriteByte(')')
}

func (p *printer) exprString(e Expr) string {
	q := &printer{}
	q.expr(e, precLowest)
	return q.b.String()
}

// block prints a block starting at the current position, and ends the line after the closing brace.
func (p *printer) block(b *Block) {
	p.b.WriteString("{\n")
	p.indent++
	for _, s := range b.Stmts {
		p.stmt(s)
	}
	p.indent--
	p.b.WriteString(strings.Repeat(indentUnit, p.indent))
	p.b.WriteString("}\n")
}

// nested prints the body of a compound statement after a header that has already been written without a newline.
func (p *printer) nested(s Stmt) {
	if b, ok := s.(*Block); ok {
		p.b.WriteByte(' ')
		p.block(b)
		return
	}
	p.b.WriteByte('\n')
	p.indent++
	p.stmt(s)
	p.indent--
}

func (p *printer) header(format string, args ...any) {
	p.b.WriteString(strings.Repeat(indentUnit, p.indent))
	p.printf(format, args...)
}

func (p *printer) stmt(s Stmt) {
	switch s := s.(type) {
	case *Block:
		p.header("")
		p.block(s)
	case *DeclStmt:
		if s.Init != nil {
			p.line("%s %s = %s;", s.Local.Type, s.Local.Name, p.exprString(s.Init))
		} else {
			p.line("%s %s;", s.Local.Type, s.Local.Name)
		}
	case *ExprStmt:
		p.line("%s;", p.exprString(s.X))
	case *EmptyStmt:
		p.line(";")
	case *IfStmt:
		p.header("if (%s)", p.exprString(s.Cond))
		p.nested(s.Then)
		for s.Else != nil {
			_, thenBlock := s.Then.(*Block)
			p.joinLine(thenBlock, "else")
			if elif, ok := s.Else.(*IfStmt); ok {
				p.printf(" if (%s)", p.exprString(elif.Cond))
				p.nested(elif.Then)
				s = elif
				continue
			}
			p.nested(s.Else)
			break
		}
	case *WhileStmt:
		p.header("while (%s)", p.exprString(s.Cond))
		p.nested(s.Body)
	case *DoStmt:
		p.header("do")
		p.nested(s.Body)
		_, bodyBlock := s.Body.(*Block)
		p.joinLine(bodyBlock, "while (%s);\n", p.exprString(s.Cond))
	case *ForStmt:
		var init, update []string
		for i, st := range s.Init {
			q := &printer{}
			q.stmt(st)
			text := strings.TrimSuffix(strings.TrimSpace(q.b.String()), ";")
			// declarators after the first share the type of the first
			if d, ok := st.(*DeclStmt); ok && i > 0 {
				text = strings.TrimPrefix(text, d.Local.Type+" ")
			}
			init = append(init, text)
		}
		for _, u := range s.Update {
			update = append(update, p.exprString(u))
		}
		cond := ""
		if s.Cond != nil {
			cond = " " + p.exprString(s.Cond)
		}
		upd := ""
		if len(update) > 0 {
			upd = " " + strings.Join(update, ", ")
		}
		p.header("for (%s;%s;%s)", strings.Join(init, ", "), cond, upd)
		p.nested(s.Body)
	case *SwitchStmt:
		p.header("switch (%s) {\n", p.exprString(s.Tag))
		p.indent++
		for _, c := range s.Cases {
			p.caseClause(c)
		}
		p.indent--
		p.line("}")
	case *BreakStmt:
		if s.Label != "" {
			p.line("break %s;", s.Label)
		} else {
			p.line("break;")
		}
	case *ContinueStmt:
		if s.Label != "" {
			p.line("continue %s;", s.Label)
		} else {
			p.line("continue;")
		}
	case *ReturnStmt:
		if s.Result != nil {
			p.line("return %s;", p.exprString(s.Result))
		} else {
			p.line("return;")
		}
	case *ThrowStmt:
		p.line("throw %s;", p.exprString(s.X))
	case *TryStmt:
		p.header("try ")
		p.block(s.Body)
		for _, c := range s.Catches {
			p.joinLine(true, "catch (%s %s) ", c.Param.Type, c.Param.Name)
			p.block(c.Body)
		}
		if s.Finally != nil {
			p.joinLine(true, "finally ")
			p.block(s.Finally)
		}
	case *LabeledStmt:
		p.header("%s:", s.Label)
		p.nested(s.Stmt)
	case *SynchronizedStmt:
		p.header("synchronized (%s) ", p.exprString(s.Lock))
		p.block(s.Body)
	default:
		panic(fmt.Sprintf("ir: unexpected statement %T", s))
	}
}

func (p *printer) caseClause(c *CaseClause) {
	if c.IsDefault() {
		p.line("default:")
	}
	for _, v := range c.Values {
		p.line("case %s:", p.exprString(v))
	}
	p.indent++
	for _, s := range c.Body {
		p.stmt(s)
	}
	p.indent--
}
