package parser

import (
	"strconv"
	"strings"

	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/intern"
	"github.com/suma/toylang/internal/token"
)

// argumentList parses a parenthesized, comma-separated expression list
// already positioned at the opening '(' and returns a ref to the backing
// ast.ExprList.
func (p *Parser) argumentList() ast.ExprRef {
	loc := p.loc()
	p.consume(token.LeftParen, "'('")
	var items []ast.ExprRef
	if !p.check(token.RightParen) {
		items = append(items, p.expression())
		for p.match(token.Comma) {
			items = append(items, p.expression())
		}
	}
	p.consume(token.RightParen, "')' after arguments")
	return p.addExpr(loc, ast.ExprList{Items: items})
}

// indexOrSlice parses the inside of `[...]` already past the opening
// bracket: either `[idx]` (Index) or `[a..b]`/`[..b]`/`[a..]`/`[..]` (Slice).
func (p *Parser) indexOrSlice(loc ast.Location, object ast.ExprRef) ast.ExprRef {
	if p.check(token.DotDot) {
		p.advance()
		var high ast.ExprRef = ast.NoExpr
		if !p.check(token.RightBracket) {
			high = p.expression()
		}
		p.consume(token.RightBracket, "']' after slice")
		return p.addExpr(loc, ast.Slice{Object: object, Info: ast.SliceInfo{Low: ast.NoExpr, High: high}})
	}

	first := p.expression()
	if p.check(token.DotDot) {
		p.advance()
		var high ast.ExprRef = ast.NoExpr
		if !p.check(token.RightBracket) {
			high = p.expression()
		}
		p.consume(token.RightBracket, "']' after slice")
		return p.addExpr(loc, ast.Slice{Object: object, Info: ast.SliceInfo{Low: first, High: high}})
	}
	p.consume(token.RightBracket, "']' after index")
	return p.addExpr(loc, ast.Index{Object: object, Idx: first})
}

func (p *Parser) primary() ast.ExprRef {
	p.enter()
	defer p.leave()

	loc := p.loc()
	switch {
	case p.check(token.Int64Lit):
		tok := p.advance()
		v, _ := strconv.ParseInt(tok.Literal, literalBase(tok.Literal), 64)
		return p.addExpr(loc, ast.Int64Lit{Value: v})
	case p.check(token.UInt64Lit):
		tok := p.advance()
		v, _ := strconv.ParseUint(tok.Literal, literalBase(tok.Literal), 64)
		return p.addExpr(loc, ast.UInt64Lit{Value: v})
	case p.check(token.IntegerLit):
		tok := p.advance()
		return p.addExpr(loc, ast.NumberLit{Text: tok.Literal})
	case p.check(token.StringLit):
		tok := p.advance()
		return p.addExpr(loc, ast.StringLit{Value: p.in.Intern(tok.Literal)})
	case p.check(token.True):
		p.advance()
		return p.addExpr(loc, ast.BoolLit{Value: true})
	case p.check(token.False):
		p.advance()
		return p.addExpr(loc, ast.BoolLit{Value: false})
	case p.check(token.Null):
		p.advance()
		return p.addExpr(loc, ast.NullLit{})
	case p.check(token.If):
		p.advance()
		return p.ifExpr()
	case p.check(token.LeftBrace):
		p.advance()
		return p.blockExpr()
	case p.check(token.LeftBracket):
		p.advance()
		return p.arrayLit(loc)
	case p.check(token.LeftParen):
		return p.parenOrTuple(loc)
	case p.check(token.Identifier):
		return p.identifierLed(loc)
	default:
		p.fail(&Error{Kind: UnexpectedToken, Expected: "expression", Location: loc})
		p.advance()
		return p.addExpr(loc, ast.NullLit{})
	}
}

func literalBase(text string) int {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		return 16
	}
	return 10
}

// identifierLed parses everything that can start with a bare identifier:
// a plain call `foo(args)`, a `dict{...}` literal, a struct literal
// `Name{...}`, an associated-function call `Type::func(args)`, or a bare
// variable reference.
func (p *Parser) identifierLed(loc ast.Location) ast.ExprRef {
	name := p.advance()
	text := name.Literal

	if text == "dict" && p.check(token.LeftBrace) {
		return p.dictLit(loc)
	}

	if p.check(token.DoubleColon) {
		path := []intern.Symbol{p.in.Intern(text)}
		for p.match(token.DoubleColon) {
			seg := p.consume(token.Identifier, "identifier after '::'")
			path = append(path, p.in.Intern(seg.Literal))
		}
		args := p.argumentList()
		return p.addExpr(loc, ast.Call{Path: path, Args: args})
	}

	if p.check(token.LeftParen) {
		args := p.argumentList()
		return p.addExpr(loc, ast.Call{Callee: p.in.Intern(text), Args: args})
	}

	if p.check(token.LeftBrace) && startsStructLiteral(name, p) {
		return p.structLit(loc, text)
	}

	return p.addExpr(loc, ast.Ident{Name: p.in.Intern(text)})
}

// startsStructLiteral disambiguates `Name { ... }` as a struct literal
// from a bare identifier immediately followed by a block (e.g. as a
// condition of `while cond { body }`, where cond is just an identifier).
// Struct literals are recognized by an uppercase-initial name followed by
// `{ ident :` or `{}` — this mirrors how the example programs format
// struct literals (`P{x:10u64, y:15u64}`).
func startsStructLiteral(name token.Token, p *Parser) bool {
	if len(name.Literal) == 0 {
		return false
	}
	first := name.Literal[0]
	if first < 'A' || first > 'Z' {
		return false
	}
	next := p.peekAt(1)
	if next.Kind == token.RightBrace {
		return true
	}
	return next.Kind == token.Identifier && p.peekAt(2).Kind == token.Colon
}

func (p *Parser) structLit(loc ast.Location, name string) ast.ExprRef {
	p.consume(token.LeftBrace, "'{' after struct name")
	var fields []ast.FieldInit
	if !p.check(token.RightBrace) {
		fields = append(fields, p.fieldInit())
		for p.match(token.Comma) {
			if p.check(token.RightBrace) {
				break
			}
			fields = append(fields, p.fieldInit())
		}
	}
	p.consume(token.RightBrace, "'}' after struct literal fields")
	return p.addExpr(loc, ast.StructLit{Struct: p.in.Intern(name), Fields: fields})
}

func (p *Parser) fieldInit() ast.FieldInit {
	name := p.consume(token.Identifier, "field name")
	p.consume(token.Colon, "':' after field name")
	value := p.expression()
	return ast.FieldInit{Field: p.in.Intern(name.Literal), Value: value}
}

func (p *Parser) dictLit(loc ast.Location) ast.ExprRef {
	p.consume(token.LeftBrace, "'{' after 'dict'")
	var entries []ast.DictEntry
	if !p.check(token.RightBrace) {
		entries = append(entries, p.dictEntry())
		for p.match(token.Comma) {
			if p.check(token.RightBrace) {
				break
			}
			entries = append(entries, p.dictEntry())
		}
	}
	p.consume(token.RightBrace, "'}' after dict literal")
	return p.addExpr(loc, ast.DictLit{Entries: entries})
}

func (p *Parser) dictEntry() ast.DictEntry {
	key := p.expression()
	p.consume(token.Colon, "':' after dict key")
	value := p.expression()
	return ast.DictEntry{Key: key, Value: value}
}

func (p *Parser) arrayLit(loc ast.Location) ast.ExprRef {
	var items []ast.ExprRef
	if !p.check(token.RightBracket) {
		items = append(items, p.expression())
		for p.match(token.Comma) {
			if p.check(token.RightBracket) {
				break
			}
			items = append(items, p.expression())
		}
	}
	p.consume(token.RightBracket, "']' after array literal")
	list := p.addExpr(loc, ast.ExprList{Items: items})
	return p.addExpr(loc, ast.ArrayLit{Elements: list})
}

// parenOrTuple disambiguates `(expr)` grouping from `(a, b, ...)` tuple
// literals, both starting at the opening '(' (not yet consumed).
func (p *Parser) parenOrTuple(loc ast.Location) ast.ExprRef {
	p.advance() // '('
	if p.check(token.RightParen) {
		p.advance()
		list := p.addExpr(loc, ast.ExprList{})
		return p.addExpr(loc, ast.TupleLit{Elements: list})
	}
	first := p.expression()
	if p.check(token.Comma) {
		items := []ast.ExprRef{first}
		for p.match(token.Comma) {
			if p.check(token.RightParen) {
				break
			}
			items = append(items, p.expression())
		}
		p.consume(token.RightParen, "')' after tuple elements")
		list := p.addExpr(loc, ast.ExprList{Items: items})
		return p.addExpr(loc, ast.TupleLit{Elements: list})
	}
	p.consume(token.RightParen, "')' after grouped expression")
	return first
}

// ifExpr parses if/elif*/else? as a single node. The leading `if` keyword
// has already been consumed.
func (p *Parser) ifExpr() ast.ExprRef {
	loc := p.loc()
	cond := p.expression()
	p.skipSeparators()
	p.consume(token.LeftBrace, "'{' after if condition")
	then := p.blockExpr()

	var elifs []ast.ElifPair
	var elseRef ast.ExprRef = ast.NoExpr
	for p.check(token.Else) && p.peekAt(1).Kind == token.If {
		p.advance() // else
		p.advance() // if
		econd := p.expression()
		p.skipSeparators()
		p.consume(token.LeftBrace, "'{' after elif condition")
		eblock := p.blockExpr()
		elifs = append(elifs, ast.ElifPair{Cond: econd, Block: eblock})
	}
	if p.check(token.Else) {
		p.advance()
		p.skipSeparators()
		p.consume(token.LeftBrace, "'{' after else")
		elseRef = p.blockExpr()
	}

	return p.addExpr(loc, ast.If{Cond: cond, Then: then, Elifs: elifs, Else: elseRef})
}
