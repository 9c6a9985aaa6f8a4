package parser

import (
	"github.com/suma/toylang/internal/ast"
	"github.com/suma/toylang/internal/token"
)

// expression is the entry point of the 12-level precedence chain
// (spec.md §4.2's expression grammar), starting at assignment.
func (p *Parser) expression() ast.ExprRef {
	p.enter()
	defer p.leave()
	return p.assignment()
}

// assignment is right-associative and sits above logical-or; it parses a
// full logical-or expression on its left and does not itself restrict it
// to lvalue shapes (identifier, field/index/slice/tuple access).
func (p *Parser) assignment() ast.ExprRef {
	loc := p.loc()
	lhs := p.logicOr()

	if p.check(token.Assign) {
		p.advance()
		rhs := p.assignment()
		if slice, ok := p.prog.Exprs.Get(lhs).(ast.Slice); ok {
			return p.addExpr(loc, ast.SliceAssign{Object: slice.Object, Info: slice.Info, Value: rhs})
		}
		return p.addExpr(loc, ast.Assign{LHS: lhs, RHS: rhs})
	}
	return lhs
}

func (p *Parser) binaryLevel(next func() ast.ExprRef, ops map[token.Kind]ast.Operator) ast.ExprRef {
	lhs := next()
	for {
		op, ok := ops[p.peek().Kind]
		if !ok {
			break
		}
		loc := p.loc()
		p.advance()
		rhs := next()
		lhs = p.addExpr(loc, ast.Binary{Op: op, LHS: lhs, RHS: rhs})
	}
	return lhs
}

func (p *Parser) logicOr() ast.ExprRef {
	return p.binaryLevel(p.logicAnd, map[token.Kind]ast.Operator{token.OrOr: ast.OpOr})
}

func (p *Parser) logicAnd() ast.ExprRef {
	return p.binaryLevel(p.equality, map[token.Kind]ast.Operator{token.AndAnd: ast.OpAnd})
}

func (p *Parser) equality() ast.ExprRef {
	return p.binaryLevel(p.comparison, map[token.Kind]ast.Operator{
		token.EqualEqual: ast.OpEq, token.NotEqual: ast.OpNe,
	})
}

func (p *Parser) comparison() ast.ExprRef {
	return p.binaryLevel(p.bitwise, map[token.Kind]ast.Operator{
		token.Less: ast.OpLt, token.LessEqual: ast.OpLe,
		token.Greater: ast.OpGt, token.GreaterEqual: ast.OpGe,
	})
}

func (p *Parser) bitwise() ast.ExprRef {
	return p.binaryLevel(p.shift, map[token.Kind]ast.Operator{
		token.Pipe: ast.OpBitOr, token.Caret: ast.OpBitXor, token.Amp: ast.OpBitAnd,
	})
}

func (p *Parser) shift() ast.ExprRef {
	return p.binaryLevel(p.additive, map[token.Kind]ast.Operator{
		token.Shl: ast.OpShl, token.Shr: ast.OpShr,
	})
}

func (p *Parser) additive() ast.ExprRef {
	return p.binaryLevel(p.multiplicative, map[token.Kind]ast.Operator{
		token.Plus: ast.OpAdd, token.Minus: ast.OpSub,
	})
}

func (p *Parser) multiplicative() ast.ExprRef {
	return p.binaryLevel(p.unary, map[token.Kind]ast.Operator{
		token.Star: ast.OpMul, token.Slash: ast.OpDiv,
	})
}

func (p *Parser) unary() ast.ExprRef {
	var op ast.Operator
	switch {
	case p.check(token.Bang):
		op = ast.OpNot
	case p.check(token.Tilde):
		op = ast.OpBitNot
	case p.check(token.Minus):
		op = ast.OpNeg
	default:
		return p.postfix()
	}
	loc := p.loc()
	p.advance()
	operand := p.unary()
	return p.addExpr(loc, ast.Unary{Op: op, Operand: operand})
}

// postfix handles index `[...]`, slice `[a..b]`, field `.x`, method
// `.m(...)`, and tuple-access `.N`, chained left to right onto a primary
// expression. Plain calls `f(...)` and `Type::func(...)` calls are parsed
// by identifierLed.
func (p *Parser) postfix() ast.ExprRef {
	expr := p.primary()
	for {
		switch {
		case p.check(token.Dot) && p.peekAt(1).Kind == token.IntegerLit:
			p.advance()
			idxTok := p.advance()
			idx := 0
			for _, c := range idxTok.Literal {
				idx = idx*10 + int(c-'0')
			}
			loc := p.loc()
			expr = p.addExpr(loc, ast.TupleAccess{Tuple: expr, Index: idx})
		case p.check(token.Dot):
			loc := p.loc()
			p.advance()
			name := p.consume(token.Identifier, "field or method name")
			sym := p.in.Intern(name.Literal)
			if p.check(token.LeftParen) {
				args := p.argumentList()
				expr = p.addExpr(loc, ast.MethodCall{Object: expr, Method: sym, Args: args})
			} else {
				expr = p.addExpr(loc, ast.FieldAccess{Object: expr, Field: sym})
			}
		case p.check(token.LeftBracket):
			loc := p.loc()
			p.advance()
			expr = p.indexOrSlice(loc, expr)
		default:
			return expr
		}
	}
}
