package parser

import (
	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/token"
)

// blockExpr parses the body of a `{ ... }` block already past its opening
// brace, returning an ExprRef to an ast.Block. Each iteration of the
// statement loop is guaranteed to make progress (a statement is parsed or
// synchronize() consumes at least one token), satisfying P3.
func (p *Parser) blockExpr() ast.ExprRef {
	loc := p.loc()
	p.enter()
	defer p.leave()

	p.skipSeparators()
	var stmts []ast.StmtRef
	for !p.check(token.RightBrace) && !p.atEnd() {
		before := p.pos
		stmts = append(stmts, p.statement())
		if p.pos == before {
			p.synchronize()
		}
		p.skipSeparators()
	}
	p.consume(token.RightBrace, "'}' to close block")

	return p.addExpr(loc, ast.Block{Stmts: stmts})
}

func (p *Parser) statement() ast.StmtRef {
	switch {
	case p.match(token.Val):
		return p.valDecl()
	case p.match(token.Var):
		return p.varDecl()
	case p.match(token.Return):
		return p.returnStmt()
	case p.match(token.For):
		return p.forStmt()
	case p.match(token.While):
		return p.whileStmt()
	case p.match(token.Break):
		return p.prog.Stmts.Add(ast.Break{})
	case p.match(token.Continue):
		return p.prog.Stmts.Add(ast.Continue{})
	case p.check(token.Struct):
		p.advance()
		return p.structDecl(ast.Private)
	case p.check(token.Impl):
		p.advance()
		return p.implBlock()
	case p.check(token.Pub) && p.peekAt(1).Kind == token.Struct:
		p.advance()
		p.advance()
		return p.structDecl(ast.Public)
	default:
		return p.exprStmt()
	}
}

func (p *Parser) exprStmt() ast.StmtRef {
	ref := p.expression()
	return p.prog.Stmts.Add(ast.ExprStmt{Expr: ref})
}

// valDecl parses `val name[: T]? = expr`. The leading `val` has already
// been consumed.
func (p *Parser) valDecl() ast.StmtRef {
	name := p.consume(token.Identifier, "identifier after 'val'")
	var typ ast.Type
	if p.match(token.Colon) {
		typ = p.parseType()
	}
	p.consume(token.Assign, "'=' in val declaration (initializer is required)")
	init := p.expression()
	return p.prog.Stmts.Add(ast.ValDecl{
		Name: p.in.Intern(name.Literal),
		Type: typ,
		Init: init,
	})
}

// varDecl parses `var name[: T]? [= expr]?`. The leading `var` has
// already been consumed.
func (p *Parser) varDecl() ast.StmtRef {
	name := p.consume(token.Identifier, "identifier after 'var'")
	var typ ast.Type
	if p.match(token.Colon) {
		typ = p.parseType()
	}
	var init ast.ExprRef = ast.NoExpr
	hasInit := false
	if p.match(token.Assign) {
		init = p.expression()
		hasInit = true
	}
	return p.prog.Stmts.Add(ast.VarDecl{
		Name:    p.in.Intern(name.Literal),
		Type:    typ,
		Init:    init,
		HasInit: hasInit,
	})
}

// returnStmt parses `return [expr]?`. The leading `return` has already
// been consumed.
func (p *Parser) returnStmt() ast.StmtRef {
	if p.check(token.NewLine) || p.check(token.Semicolon) || p.check(token.RightBrace) || p.atEnd() {
		return p.prog.Stmts.Add(ast.Return{Value: ast.NoExpr, HasValue: false})
	}
	val := p.expression()
	return p.prog.Stmts.Add(ast.Return{Value: val, HasValue: true})
}

// forStmt parses `for loopVar in range { body }`. The leading `for` has
// already been consumed.
func (p *Parser) forStmt() ast.StmtRef {
	name := p.consume(token.Identifier, "loop variable name")
	p.consumeKeywordIn()
	rangeExpr := p.rangeExpression()
	p.skipSeparators()
	p.consume(token.LeftBrace, "'{' before for-loop body")
	body := p.blockExpr()
	return p.prog.Stmts.Add(ast.For{
		LoopVar: p.in.Intern(name.Literal),
		Range:   rangeExpr,
		Body:    body,
	})
}

// consumeKeywordIn consumes the contextual keyword `in` (not a reserved
// word in TL's token set, so it is recognized by its identifier text).
func (p *Parser) consumeKeywordIn() {
	if p.check(token.Identifier) && p.peek().Literal == "in" {
		p.advance()
		return
	}
	p.fail(&Error{Kind: UnexpectedToken, Expected: "'in'", Location: p.loc()})
}

// rangeExpression parses a for-loop range. TL's example programs use
// `lo to hi` (contextual keyword `to`); this also accepts a bare
// expression, treated by the checker as an iterable (array) range.
func (p *Parser) rangeExpression() ast.ExprRef {
	lo := p.expression()
	if p.check(token.Identifier) && p.peek().Literal == "to" {
		loc := p.loc()
		p.advance()
		hi := p.expression()
		return p.addExpr(loc, ast.Call{
			Callee: p.in.Intern("__range__"),
			Args:   p.addExpr(loc, ast.ExprList{Items: []ast.ExprRef{lo, hi}}),
		})
	}
	return lo
}

// whileStmt parses `while cond { body }`. The leading `while` has already
// been consumed.
func (p *Parser) whileStmt() ast.StmtRef {
	cond := p.expression()
	p.skipSeparators()
	p.consume(token.LeftBrace, "'{' before while-loop body")
	body := p.blockExpr()
	return p.prog.Stmts.Add(ast.While{Cond: cond, Body: body})
}
