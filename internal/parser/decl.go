package parser

import (
	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/intern"
	"github.com/suma/toylang/internal/token"
)

// genericParamList parses an optional `<T, U, ...>` list, used by struct,
// impl, and fn declarations (spec.md §6.2, expanded grammar in SPEC_FULL.md §4.2).
func (p *Parser) genericParamList() []intern.Symbol {
	if !p.match(token.Less) {
		return nil
	}
	var params []intern.Symbol
	if !p.check(token.Greater) {
		tok := p.consume(token.Identifier, "generic parameter name")
		params = append(params, p.in.Intern(tok.Literal))
		for p.match(token.Comma) {
			tok := p.consume(token.Identifier, "generic parameter name")
			params = append(params, p.in.Intern(tok.Literal))
		}
	}
	p.consume(token.Greater, "'>' after generic parameter list")
	return params
}

// typeArgList parses an optional `<T, U, ...>` of concrete type arguments,
// used when a struct name appears in type position (e.g. `Box<u64>`).
func (p *Parser) typeArgList() []ast.Type {
	if !p.match(token.Less) {
		return nil
	}
	var args []ast.Type
	if !p.check(token.Greater) {
		args = append(args, p.parseType())
		for p.match(token.Comma) {
			args = append(args, p.parseType())
		}
	}
	p.consume(token.Greater, "'>' after type argument list")
	return args
}

// parseType parses one Type per spec.md §3.6's grammar surface.
func (p *Parser) parseType() ast.Type {
	switch {
	case p.match(token.I64):
		return ast.TInt64{}
	case p.match(token.U64):
		return ast.TUInt64{}
	case p.match(token.USize):
		return ast.TUInt64{}
	case p.match(token.Bool):
		return ast.TBool{}
	case p.match(token.Str):
		return ast.TString{}
	case p.match(token.Ptr):
		return ast.TPtr{}
	case p.peek().Lexeme == "Self" && p.check(token.Identifier):
		p.advance()
		return ast.TSelf{}
	case p.check(token.LeftBracket):
		p.advance()
		elem := p.parseType()
		p.consume(token.Semicolon, "';' in array type")
		lenTok := p.consume(token.IntegerLit, "array length")
		p.consume(token.RightBracket, "']' after array type")
		length := 0
		for _, c := range lenTok.Literal {
			length = length*10 + int(c-'0')
		}
		return ast.TArray{Elem: elem, Length: length}
	case p.check(token.LeftParen):
		p.advance()
		var elems []ast.Type
		if !p.check(token.RightParen) {
			elems = append(elems, p.parseType())
			for p.match(token.Comma) {
				elems = append(elems, p.parseType())
			}
		}
		p.consume(token.RightParen, "')' after tuple type")
		return ast.TTuple{Elems: elems}
	case p.check(token.Identifier):
		tok := p.advance()
		if tok.Literal == "dict" && p.check(token.LeftBrace) {
			p.advance()
			key := p.parseType()
			p.consume(token.Colon, "':' in dict type")
			val := p.parseType()
			p.consume(token.RightBrace, "'}' after dict type")
			return ast.TDict{Key: key, Value: val}
		}
		name := p.in.Intern(tok.Literal)
		if p.check(token.Less) {
			args := p.typeArgList()
			return ast.TStruct{Name: name, TypeArgs: args}
		}
		return ast.TIdentifier{Name: name}
	default:
		p.fail(&Error{Kind: UnexpectedToken, Expected: "type", Location: p.loc()})
		return ast.TUnknown{}
	}
}

// paramList parses `(p: T, ...)`, optionally treating a leading `self: Self`
// (or bare `self`) parameter specially for method functions.
func (p *Parser) paramList() (params []ast.Param, takesSelf bool) {
	p.consume(token.LeftParen, "'(' after function name")
	if !p.check(token.RightParen) {
		first := true
		for {
			if first && p.check(token.Identifier) && p.peek().Literal == "self" {
				p.advance()
				if p.match(token.Colon) {
					p.parseType() // Self, by convention; discarded in favor of the flag
				}
				takesSelf = true
			} else {
				name := p.consume(token.Identifier, "parameter name")
				p.consume(token.Colon, "':' after parameter name")
				typ := p.parseType()
				params = append(params, ast.Param{Name: p.in.Intern(name.Literal), Type: typ})
			}
			first = false
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.consume(token.RightParen, "')' after parameters")
	return params, takesSelf
}

// function parses a `fn` declaration's signature and body. The leading
// `fn` keyword has already been consumed by the caller.
func (p *Parser) function(vis ast.Visibility) *ast.Function {
	p.enter()
	defer p.leave()

	name := p.consume(token.Identifier, "function name")
	generics := p.genericParamList()
	params, _ := p.paramList()

	var ret ast.Type = ast.TUnit{}
	if p.match(token.Arrow) {
		ret = p.parseType()
	}

	p.skipSeparators()
	p.consume(token.LeftBrace, "'{' before function body")
	body := p.blockExpr()

	return &ast.Function{
		Name:          p.in.Intern(name.Literal),
		Visibility:    vis,
		GenericParams: generics,
		Params:        params,
		ReturnType:    ret,
		Body:          body,
	}
}

// methodFunction is like function but also records whether the method
// takes `self`, distinguishing an instance method from an associated
// function per spec.md §4.3's "Associated functions" rule.
func (p *Parser) methodFunction() *ast.MethodFunction {
	p.enter()
	defer p.leave()

	vis := ast.Private
	if p.match(token.Pub) {
		vis = ast.Public
	}
	p.consume(token.Fn, "'fn'")
	name := p.consume(token.Identifier, "method name")
	generics := p.genericParamList()
	params, takesSelf := p.paramList()

	var ret ast.Type = ast.TUnit{}
	if p.match(token.Arrow) {
		ret = p.parseType()
	}

	p.skipSeparators()
	p.consume(token.LeftBrace, "'{' before method body")
	body := p.blockExpr()

	return &ast.MethodFunction{
		Function: ast.Function{
			Name:          p.in.Intern(name.Literal),
			Visibility:    vis,
			GenericParams: generics,
			Params:        params,
			ReturnType:    ret,
			Body:          body,
		},
		TakesSelf: takesSelf,
	}
}

// structDecl parses `[pub] struct Name[<T,...>]? { [pub]? field: T, ... }`.
// The leading `struct` keyword has already been consumed.
func (p *Parser) structDecl(vis ast.Visibility) ast.StmtRef {
	p.enter()
	defer p.leave()

	name := p.consume(token.Identifier, "struct name")
	generics := p.genericParamList()
	p.skipSeparators()
	p.consume(token.LeftBrace, "'{' after struct name")
	p.skipSeparators()

	var fields []ast.StructField
	for !p.check(token.RightBrace) && !p.atEnd() {
		fieldVis := ast.Private
		if p.match(token.Pub) {
			fieldVis = ast.Public
		}
		fname := p.consume(token.Identifier, "field name")
		p.consume(token.Colon, "':' after field name")
		ftype := p.parseType()
		fields = append(fields, ast.StructField{
			Name:       p.in.Intern(fname.Literal),
			Type:       ftype,
			Visibility: fieldVis,
		})
		if !p.match(token.Comma) {
			p.skipSeparators()
		}
		p.skipSeparators()
	}
	p.consume(token.RightBrace, "'}' after struct fields")

	return p.prog.Stmts.Add(ast.StructDecl{
		Name:          p.in.Intern(name.Literal),
		GenericParams: generics,
		Fields:        fields,
		Visibility:    vis,
	})
}

// implBlock parses `impl[<T,...>]? Name[<T,...>]? { methods }`. The
// leading `impl` keyword has already been consumed.
func (p *Parser) implBlock() ast.StmtRef {
	p.enter()
	defer p.leave()

	generics := p.genericParamList()
	name := p.consume(token.Identifier, "impl target name")
	// A target's own type-argument list (e.g. `impl<T> Box<T>`) reuses the
	// same generic parameter symbols, so it is parsed and discarded here;
	// the checker binds methods against GenericParams directly.
	if p.check(token.Less) {
		p.typeArgList()
	}
	p.skipSeparators()
	p.consume(token.LeftBrace, "'{' after impl target")
	p.skipSeparators()

	var methods []*ast.MethodFunction
	for !p.check(token.RightBrace) && !p.atEnd() {
		methods = append(methods, p.methodFunction())
		p.skipSeparators()
	}
	p.consume(token.RightBrace, "'}' after impl methods")

	return p.prog.Stmts.Add(ast.ImplBlock{
		Target:        p.in.Intern(name.Literal),
		GenericParams: generics,
		Methods:       methods,
	})
}
