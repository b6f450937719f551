package parser

import (
	"github.com/mna/physlang/lang/ast"
	"github.com/mna/physlang/lang/token"
)

// parseExpr parses the full expression grammar, lowest to highest
// precedence: comparison (non-associative, at most one), additive,
// multiplicative, unary minus, primary.
func (p *parser) parseExpr() ast.Expr {
	return p.parseComparison()
}

func isCompareOp(tok token.Token) bool {
	switch tok {
	case token.EQL, token.NEQ, token.LT, token.GT, token.LE, token.GE:
		return true
	default:
		return false
	}
}

func (p *parser) parseComparison() ast.Expr {
	start := p.pos()
	x := p.parseAdditive()
	if isCompareOp(p.tok) {
		op := p.tok
		p.advance()
		y := p.parseAdditive()
		return &ast.BinaryExpr{Op: op, X: x, Y: y, Loc: p.mkspan(start)}
	}
	return x
}

func (p *parser) parseAdditive() ast.Expr {
	start := p.pos()
	x := p.parseMultiplicative()
	for p.tok == token.PLUS || p.tok == token.MINUS {
		op := p.tok
		p.advance()
		y := p.parseMultiplicative()
		x = &ast.BinaryExpr{Op: op, X: x, Y: y, Loc: p.mkspan(start)}
	}
	return x
}

func (p *parser) parseMultiplicative() ast.Expr {
	start := p.pos()
	x := p.parseUnary()
	for p.tok == token.STAR || p.tok == token.SLASH {
		op := p.tok
		p.advance()
		y := p.parseUnary()
		x = &ast.BinaryExpr{Op: op, X: x, Y: y, Loc: p.mkspan(start)}
	}
	return x
}

func (p *parser) parseUnary() ast.Expr {
	if p.tok == token.MINUS {
		start := p.pos()
		p.advance()
		x := p.parseUnary()
		return &ast.UnaryExpr{Op: token.MINUS, X: x, Loc: p.mkspan(start)}
	}
	return p.parsePrimary()
}

func isBuiltinToken(tok token.Token) bool {
	switch tok {
	case token.SIN, token.COS, token.SQRT, token.CLAMP:
		return true
	default:
		return false
	}
}

// parsePrimary parses a literal, identifier, parenthesized expression,
// built-in call, observable or user call, then applies any trailing ".x"
// or ".y" field accesses.
func (p *parser) parsePrimary() ast.Expr {
	start := p.pos()
	var e ast.Expr

	switch {
	case p.tok == token.INT:
		e = &ast.IntLit{Value: p.val.Int, Loc: p.mkspan(start)}
		p.advance()

	case p.tok == token.FLOAT:
		e = &ast.FloatLit{Value: p.val.Float, Loc: p.mkspan(start)}
		p.advance()

	case p.tok == token.STRING:
		e = &ast.StringLit{Value: p.val.Str, Loc: p.mkspan(start)}
		p.advance()

	case p.tok == token.LPAREN:
		p.advance()
		inner := p.parseExpr()
		p.expect(token.RPAREN)
		e = inner

	case isBuiltinToken(p.tok):
		name := p.tok.String()
		p.advance()
		p.expect(token.LPAREN)
		var args []ast.Expr
		for p.tok != token.RPAREN && p.tok != token.EOF {
			args = append(args, p.parseExpr())
			if p.tok == token.COMMA {
				p.advance()
			} else {
				break
			}
		}
		p.expect(token.RPAREN)
		e = &ast.BuiltinCall{Name: name, Args: args, Loc: p.mkspan(start)}

	case p.tok == token.POSITION || p.tok == token.DISTANCE:
		e = p.parseObservable()

	case p.tok == token.IDENT:
		name := p.val.Raw
		p.advance()
		if p.tok == token.LPAREN {
			p.advance()
			var args []ast.Expr
			for p.tok != token.RPAREN && p.tok != token.EOF {
				args = append(args, p.parseExpr())
				if p.tok == token.COMMA {
					p.advance()
				} else {
					break
				}
			}
			p.expect(token.RPAREN)
			e = &ast.UserCall{Name: name, Args: args, Loc: p.mkspan(start)}
		} else {
			e = &ast.Ident{Name: name, Loc: p.mkspan(start)}
		}

	default:
		p.errorf("unexpected token %#v in expression", p.tok)
		e = &ast.IntLit{Value: 0, Loc: p.mkspan(start)}
		return e
	}

	for p.tok == token.DOT {
		p.advance()
		if p.tok != token.IDENT || (p.val.Raw != "x" && p.val.Raw != "y") {
			p.errorf("expected field 'x' or 'y', got %#v", p.tok)
			break
		}
		field := p.val.Raw
		p.advance()
		e = &ast.FieldExpr{X: e, Field: field, Loc: ast.Loc{Start: start, End: p.pos()}}
	}
	return e
}
