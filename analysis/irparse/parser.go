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

// Package irparse parses the textual form of the IR, a subset of Java restricted to method bodies, into resolved
// ir trees.
package irparse

import (
	"fmt"
	"go/scanner"
	"go/token"
	"math"
	"strconv"
	"strings"

	"github.com/awslabs/ar-gflow/analysis/ir"
)

// Error is a parse error at a position in the source
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return e.Msg
}

// BodyMethodName is the name of the method returned by ParseBody
const BodyMethodName = "m"

// ParseFile parses a file containing a sequence of method declarations.
func ParseFile(filename string, src []byte) (f *ir.File, err error) {
	p, err := newParser(filename, src)
	if err != nil {
		return nil, err
	}
	defer p.recoverError(&err)
	f = &ir.File{Name: filename}
	for p.tok != token.EOF {
		f.Methods = append(f.Methods, p.parseMethod())
	}
	return f, nil
}

// ParseBody parses a sequence of statements as the body of a parameterless void method named "m".
func ParseBody(src string) (m *ir.Method, err error) {
	p, err := newParser("", []byte(src))
	if err != nil {
		return nil, err
	}
	defer p.recoverError(&err)
	m = &ir.Method{Name: BodyMethodName, Result: "void", Body: &ir.Block{Position: p.pos}}
	p.method = m
	p.openScope(m.Body)
	for p.tok != token.EOF {
		m.Body.Stmts = append(m.Body.Stmts, p.parseStmt()...)
	}
	p.closeScope()
	return m, nil
}

type tokenInfo struct {
	pos token.Pos
	tok token.Token
	lit string
}

type scope struct {
	node   ir.Node
	locals map[string]*ir.Local
}

type parser struct {
	file   *token.File
	tokens []tokenInfo
	index  int

	// current token
	pos token.Pos
	tok token.Token
	lit string

	method *ir.Method
	scopes []*scope
}

type bailout struct{ err *Error }

func newParser(filename string, src []byte) (*parser, error) {
	fset := token.NewFileSet()
	file := fset.AddFile(filename, -1, len(src))
	var errs scanner.ErrorList
	var s scanner.Scanner
	s.Init(file, src, func(pos token.Position, msg string) {
		// '?' is not a Go token; it is handled by the parser
		if !strings.Contains(msg, "'?'") {
			errs.Add(pos, msg)
		}
	}, 0)

	p := &parser{file: file}
	for {
		pos, tok, lit := s.Scan()
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}
		if tok.IsKeyword() {
			lit = tok.String()
			tok = token.IDENT
		}
		p.tokens = append(p.tokens, tokenInfo{pos, tok, lit})
		if tok == token.EOF {
			break
		}
	}
	if err := errs.Err(); err != nil {
		first := errs[0]
		return nil, &Error{Pos: first.Pos, Msg: first.Msg}
	}
	p.next()
	return p, nil
}

func (p *parser) recoverError(err *error) {
	if r := recover(); r != nil {
		if b, ok := r.(bailout); ok {
			*err = b.err
			return
		}
		panic(r)
	}
}

func (p *parser) errorf(pos token.Pos, format string, args ...any) {
	panic(bailout{&Error{Pos: p.file.Position(pos), Msg: fmt.Sprintf(format, args...)}})
}

func (p *parser) next() {
	t := p.tokens[p.index]
	if p.index < len(p.tokens)-1 {
		p.index++
	}
	p.pos, p.tok, p.lit = t.pos, t.tok, t.lit
}

// peek returns the token i positions after the current one
func (p *parser) peek(i int) tokenInfo {
	j := p.index + i - 1
	if j >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[j]
}

func (p *parser) describe() string {
	switch {
	case p.tok == token.EOF:
		return "end of input"
	case p.lit != "":
		return strconv.Quote(p.lit)
	}
	return strconv.Quote(p.tok.String())
}

func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.pos
	if p.tok != tok {
		p.errorf(p.pos, "expected %q, found %s", tok.String(), p.describe())
	}
	p.next()
	return pos
}

func (p *parser) isKeyword(kw string) bool {
	return p.tok == token.IDENT && p.lit == kw
}

func (p *parser) expectKeyword(kw string) token.Pos {
	pos := p.pos
	if !p.isKeyword(kw) {
		p.errorf(p.pos, "expected %q, found %s", kw, p.describe())
	}
	p.next()
	return pos
}

func (p *parser) isQuestion() bool {
	return p.tok == token.ILLEGAL && p.lit == "?"
}

func (p *parser) ident() string {
	if p.tok != token.IDENT || reserved[p.lit] {
		p.errorf(p.pos, "expected identifier, found %s", p.describe())
	}
	name := p.lit
	p.next()
	return name
}

var reserved = map[string]bool{
	"if": true, "else": true, "while": true, "do": true, "for": true, "switch": true, "case": true,
	"default": true, "break": true, "continue": true, "return": true, "throw": true, "try": true, "catch": true,
	"finally": true, "new": true, "true": true, "false": true, "null": true, "synchronized": true,
}

var modifiers = map[string]bool{
	"public": true, "protected": true, "private": true, "static": true, "final": true, "abstract": true,
	"native": true, "strictfp": true,
}

// ********* Scopes *********

func (p *parser) openScope(n ir.Node) {
	p.scopes = append(p.scopes, &scope{node: n, locals: map[string]*ir.Local{}})
}

func (p *parser) closeScope() {
	p.scopes = p.scopes[:len(p.scopes)-1]
}

func (p *parser) declare(pos token.Pos, name, typ string, kind ir.LocalKind) *ir.Local {
	sc := p.scopes[len(p.scopes)-1]
	if _, dup := sc.locals[name]; dup {
		p.errorf(pos, "%s is already defined in this scope", name)
	}
	l := p.method.NewLocal(name, typ, kind, sc.node)
	sc.locals[name] = l
	return l
}

func (p *parser) lookup(name string) *ir.Local {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if l, ok := p.scopes[i].locals[name]; ok {
			return l
		}
	}
	return nil
}

// ********* Declarations *********

func (p *parser) parseMethod() *ir.Method {
	for p.tok == token.IDENT && modifiers[p.lit] {
		p.next()
	}
	pos := p.pos
	result := p.parseType()
	m := &ir.Method{Position: pos, Result: result, Name: p.ident()}
	p.method = m
	type param struct {
		pos       token.Pos
		name, typ string
	}
	var params []param
	p.expect(token.LPAREN)
	for p.tok != token.RPAREN {
		if len(params) > 0 {
			p.expect(token.COMMA)
		}
		for p.isKeyword("final") {
			p.next()
		}
		typ := p.parseType()
		pos := p.pos
		params = append(params, param{pos, p.ident(), typ})
	}
	p.expect(token.RPAREN)
	if p.isKeyword("throws") {
		p.next()
		p.parseType()
		for p.tok == token.COMMA {
			p.next()
			p.parseType()
		}
	}
	m.Body = &ir.Block{Position: p.pos}
	p.expect(token.LBRACE)
	p.openScope(m.Body)
	for _, prm := range params {
		p.declare(prm.pos, prm.name, prm.typ, ir.ParamLocal)
	}
	m.Body.Stmts = p.parseStmtList()
	p.closeScope()
	p.expect(token.RBRACE)
	return m
}

func (p *parser) parseType() string {
	name := p.ident()
	for p.tok == token.PERIOD {
		p.next()
		name += "." + p.ident()
	}
	for p.tok == token.LBRACK {
		p.next()
		p.expect(token.RBRACK)
		name += "[]"
	}
	return name
}

// isDeclStart returns true when the current token starts a local variable declaration: a type followed by an
// identifier.
func (p *parser) isDeclStart() bool {
	if p.tok != token.IDENT || reserved[p.lit] {
		return p.isKeyword("final")
	}
	i := 1
	for p.peek(i).tok == token.PERIOD && p.peek(i+1).tok == token.IDENT {
		i += 2
	}
	for p.peek(i).tok == token.LBRACK && p.peek(i+1).tok == token.RBRACK {
		i += 2
	}
	return p.peek(i).tok == token.IDENT
}

// parseDecl parses a local variable declaration, without the terminating semicolon.
func (p *parser) parseDecl() []ir.Stmt {
	for p.isKeyword("final") {
		p.next()
	}
	typ := p.parseType()
	var decls []ir.Stmt
	for {
		pos := p.pos
		name := p.ident()
		decl := &ir.DeclStmt{Position: pos}
		if p.tok == token.ASSIGN {
			p.next()
			decl.Init = p.parseExpr()
		}
		// the local is visible in its own initializer only after it is declared
		decl.Local = p.declare(pos, name, typ, ir.VarLocal)
		decls = append(decls, decl)
		if p.tok != token.COMMA {
			return decls
		}
		p.next()
	}
}

// ********* Statements *********

func (p *parser) parseStmtList() []ir.Stmt {
	var list []ir.Stmt
	for p.tok != token.RBRACE && p.tok != token.EOF && !p.isKeyword("case") && !p.isKeyword("default") {
		list = append(list, p.parseStmt()...)
	}
	return list
}

func (p *parser) parseBlock() *ir.Block {
	b := &ir.Block{Position: p.pos}
	p.expect(token.LBRACE)
	p.openScope(b)
	b.Stmts = p.parseStmtList()
	p.closeScope()
	p.expect(token.RBRACE)
	return b
}

// parseSingle parses a statement in a position that admits a single statement, like the branch of an if.
func (p *parser) parseSingle() ir.Stmt {
	if p.isDeclStart() {
		p.errorf(p.pos, "declaration not allowed here")
	}
	stmts := p.parseStmt()
	return stmts[0]
}

// parseStmt parses one statement. Declarations of several locals return one statement per local.
func (p *parser) parseStmt() []ir.Stmt {
	pos := p.pos
	switch p.tok {
	case token.LBRACE:
		return []ir.Stmt{p.parseBlock()}
	case token.SEMICOLON:
		p.next()
		return []ir.Stmt{&ir.EmptyStmt{Position: pos}}
	case token.IDENT:
		if p.peek(1).tok == token.COLON && !reserved[p.lit] {
			label := p.ident()
			p.next()
			return []ir.Stmt{&ir.LabeledStmt{Position: pos, Label: label, Stmt: p.parseSingle()}}
		}
		switch p.lit {
		case "if":
			return []ir.Stmt{p.parseIf()}
		case "while":
			p.next()
			cond := p.parseParenExpr()
			return []ir.Stmt{&ir.WhileStmt{Position: pos, Cond: cond, Body: p.parseSingle()}}
		case "do":
			p.next()
			body := p.parseSingle()
			p.expectKeyword("while")
			cond := p.parseParenExpr()
			p.expect(token.SEMICOLON)
			return []ir.Stmt{&ir.DoStmt{Position: pos, Body: body, Cond: cond}}
		case "for":
			return []ir.Stmt{p.parseFor()}
		case "switch":
			return []ir.Stmt{p.parseSwitch()}
		case "break", "continue":
			kw := p.lit
			p.next()
			label := ""
			if p.tok == token.IDENT {
				label = p.ident()
			}
			p.expect(token.SEMICOLON)
			if kw == "break" {
				return []ir.Stmt{&ir.BreakStmt{Position: pos, Label: label}}
			}
			return []ir.Stmt{&ir.ContinueStmt{Position: pos, Label: label}}
		case "return":
			p.next()
			ret := &ir.ReturnStmt{Position: pos}
			if p.tok != token.SEMICOLON {
				ret.Result = p.parseExpr()
			}
			p.expect(token.SEMICOLON)
			return []ir.Stmt{ret}
		case "throw":
			p.next()
			x := p.parseExpr()
			p.expect(token.SEMICOLON)
			return []ir.Stmt{&ir.ThrowStmt{Position: pos, X: x}}
		case "try":
			return []ir.Stmt{p.parseTry()}
		case "synchronized":
			p.next()
			lock := p.parseParenExpr()
			return []ir.Stmt{&ir.SynchronizedStmt{Position: pos, Lock: lock, Body: p.parseBlock()}}
		}
		if p.isDeclStart() {
			decls := p.parseDecl()
			p.expect(token.SEMICOLON)
			return decls
		}
	}
	x := p.parseExpr()
	p.expect(token.SEMICOLON)
	return []ir.Stmt{&ir.ExprStmt{Position: pos, X: x}}
}

func (p *parser) parseParenExpr() ir.Expr {
	p.expect(token.LPAREN)
	x := p.parseExpr()
	p.expect(token.RPAREN)
	return x
}

func (p *parser) parseIf() ir.Stmt {
	pos := p.expectKeyword("if")
	s := &ir.IfStmt{Position: pos, Cond: p.parseParenExpr()}
	s.Then = p.parseSingle()
	if p.isKeyword("else") {
		p.next()
		s.Else = p.parseSingle()
	}
	return s
}

func (p *parser) parseFor() ir.Stmt {
	s := &ir.ForStmt{Position: p.expectKeyword("for")}
	p.expect(token.LPAREN)
	p.openScope(s)
	defer p.closeScope()
	if p.tok != token.SEMICOLON {
		if p.isDeclStart() {
			s.Init = p.parseDecl()
		} else {
			for {
				pos := p.pos
				s.Init = append(s.Init, &ir.ExprStmt{Position: pos, X: p.parseExpr()})
				if p.tok != token.COMMA {
					break
				}
				p.next()
			}
		}
	}
	p.expect(token.SEMICOLON)
	if p.tok != token.SEMICOLON {
		s.Cond = p.parseExpr()
	}
	p.expect(token.SEMICOLON)
	for p.tok != token.RPAREN {
		if len(s.Update) > 0 {
			p.expect(token.COMMA)
		}
		s.Update = append(s.Update, p.parseExpr())
	}
	p.expect(token.RPAREN)
	s.Body = p.parseSingle()
	return s
}

func (p *parser) parseSwitch() ir.Stmt {
	s := &ir.SwitchStmt{Position: p.expectKeyword("switch")}
	s.Tag = p.parseParenExpr()
	p.expect(token.LBRACE)
	p.openScope(s)
	seenDefault := false
	for p.tok != token.RBRACE {
		c := &ir.CaseClause{Position: p.pos}
		switch {
		case p.isKeyword("case"):
			p.next()
			c.Values = append(c.Values, p.parseExpr())
		case p.isKeyword("default"):
			if seenDefault {
				p.errorf(p.pos, "duplicate default label")
			}
			seenDefault = true
			p.next()
		default:
			p.errorf(p.pos, "expected case or default, found %s", p.describe())
		}
		p.expect(token.COLON)
		c.Body = p.parseStmtList()
		s.Cases = append(s.Cases, c)
	}
	p.closeScope()
	p.expect(token.RBRACE)
	return s
}

func (p *parser) parseTry() ir.Stmt {
	s := &ir.TryStmt{Position: p.expectKeyword("try")}
	s.Body = p.parseBlock()
	for p.isKeyword("catch") {
		c := &ir.CatchClause{Position: p.pos}
		p.next()
		p.expect(token.LPAREN)
		typ := p.parseType()
		pos := p.pos
		name := p.ident()
		p.expect(token.RPAREN)
		p.openScope(c)
		c.Param = p.declare(pos, name, typ, ir.CatchLocal)
		c.Body = p.parseBlock()
		p.closeScope()
		s.Catches = append(s.Catches, c)
	}
	if p.isKeyword("finally") {
		p.next()
		s.Finally = p.parseBlock()
	}
	if len(s.Catches) == 0 && s.Finally == nil {
		p.errorf(s.Position, "try without catch or finally")
	}
	return s
}

// ********* Expressions *********

func (p *parser) parseExpr() ir.Expr {
	pos := p.pos
	x := p.parseCond()
	switch p.tok {
	case token.ASSIGN, token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN, token.QUO_ASSIGN, token.REM_ASSIGN,
		token.AND_ASSIGN, token.OR_ASSIGN, token.XOR_ASSIGN, token.SHL_ASSIGN, token.SHR_ASSIGN:
		op := p.tok
		switch x.(type) {
		case *ir.Ident, *ir.FieldExpr:
		default:
			p.errorf(pos, "cannot assign to %s", ir.Format(x))
		}
		p.next()
		return &ir.AssignExpr{Position: pos, Op: op, LHS: x, RHS: p.parseExpr()}
	}
	return x
}

func (p *parser) parseCond() ir.Expr {
	pos := p.pos
	x := p.parseBinary(1)
	if p.isQuestion() {
		p.next()
		then := p.parseExpr()
		p.expect(token.COLON)
		return &ir.CondExpr{Position: pos, Cond: x, Then: then, Else: p.parseCond()}
	}
	return x
}

func binaryOp(tok token.Token) bool {
	switch tok {
	case token.LOR, token.LAND, token.OR, token.XOR, token.AND, token.EQL, token.NEQ, token.LSS, token.GTR,
		token.LEQ, token.GEQ, token.SHL, token.SHR, token.ADD, token.SUB, token.MUL, token.QUO, token.REM:
		return true
	}
	return false
}

func (p *parser) parseBinary(minPrec int) ir.Expr {
	x := p.parseUnary()
	for binaryOp(p.tok) && ir.Precedence(p.tok) >= minPrec {
		op, pos, prec := p.tok, p.pos, ir.Precedence(p.tok)
		p.next()
		y := p.parseBinary(prec + 1)
		x = &ir.BinaryExpr{Position: pos, Op: op, X: x, Y: y}
	}
	return x
}

func (p *parser) parseUnary() ir.Expr {
	pos := p.pos
	switch p.tok {
	case token.NOT, token.SUB, token.ADD:
		op := p.tok
		p.next()
		if op == token.SUB && p.tok == token.INT {
			return p.parseInt(pos, true)
		}
		return &ir.UnaryExpr{Position: pos, Op: op, X: p.parseUnary()}
	case token.TILDE:
		p.next()
		return &ir.UnaryExpr{Position: pos, Op: token.XOR, X: p.parseUnary()}
	case token.INC, token.DEC:
		op := p.tok
		p.next()
		x := p.parseUnary()
		p.checkIncDec(pos, x)
		return &ir.IncDecExpr{Position: pos, Op: op, Prefix: true, X: x}
	}
	return p.parsePostfix()
}

func (p *parser) checkIncDec(pos token.Pos, x ir.Expr) {
	switch x.(type) {
	case *ir.Ident, *ir.FieldExpr:
		return
	}
	p.errorf(pos, "invalid operand of increment or decrement")
}

func (p *parser) parsePostfix() ir.Expr {
	x := p.parsePrimary()
	for p.tok == token.PERIOD {
		p.next()
		pos := p.pos
		name := p.ident()
		if p.tok == token.LPAREN {
			x = &ir.CallExpr{Position: pos, Recv: x, Name: name, Args: p.parseArgs()}
		} else {
			x = &ir.FieldExpr{Position: pos, X: x, Name: name}
		}
	}
	if p.tok == token.INC || p.tok == token.DEC {
		p.checkIncDec(p.pos, x)
		x = &ir.IncDecExpr{Position: p.pos, Op: p.tok, X: x}
		p.next()
	}
	return x
}

func (p *parser) parseArgs() []ir.Expr {
	p.expect(token.LPAREN)
	var args []ir.Expr
	for p.tok != token.RPAREN {
		if len(args) > 0 {
			p.expect(token.COMMA)
		}
		args = append(args, p.parseExpr())
	}
	p.expect(token.RPAREN)
	return args
}

func (p *parser) parsePrimary() ir.Expr {
	pos := p.pos
	switch p.tok {
	case token.INT:
		return p.parseInt(pos, false)
	case token.STRING:
		s, err := strconv.Unquote(p.lit)
		if err != nil {
			p.errorf(pos, "invalid string literal: %s", p.lit)
		}
		p.next()
		return &ir.StringLit{Position: pos, Value: s}
	case token.LPAREN:
		p.next()
		x := p.parseExpr()
		p.expect(token.RPAREN)
		return x
	case token.IDENT:
		switch p.lit {
		case "true", "false":
			v := p.lit == "true"
			p.next()
			return &ir.BoolLit{Position: pos, Value: v}
		case "null":
			p.next()
			return &ir.NullLit{Position: pos}
		case "new":
			p.next()
			typ := p.parseType()
			return &ir.NewExpr{Position: pos, Type: typ, Args: p.parseArgs()}
		}
		name := p.ident()
		if p.tok == token.LPAREN {
			return &ir.CallExpr{Position: pos, Name: name, Args: p.parseArgs()}
		}
		return &ir.Ident{Position: pos, Name: name, Local: p.lookup(name)}
	}
	p.errorf(pos, "expected expression, found %s", p.describe())
	return nil
}

// parseInt parses an int literal starting at pos. A negated literal may be 2147483648, which only exists as the
// operand of a minus.
func (p *parser) parseInt(pos token.Pos, negated bool) *ir.IntLit {
	v, err := strconv.ParseInt(p.lit, 0, 64)
	limit := int64(math.MaxInt32)
	if negated {
		limit++
	}
	if err != nil || v > limit {
		p.errorf(p.pos, "integer literal out of range: %s", p.lit)
	}
	if negated {
		v = -v
	}
	p.next()
	return &ir.IntLit{Position: pos, Value: int32(v)}
}
