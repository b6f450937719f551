// Package parser implements PhysLang's recursive-descent parser, turning a
// token stream into an *ast.Chunk. Parse errors are collected as
// diagnostics and the parser resynchronizes to the next statement boundary
// so that a single pass can report more than one error, capped at
// MaxErrors.
package parser

import (
	"github.com/mna/physlang/lang/ast"
	"github.com/mna/physlang/lang/diag"
	"github.com/mna/physlang/lang/scanner"
	"github.com/mna/physlang/lang/token"
)

// DefaultMaxErrors is used when Parse is called with maxErrors <= 0.
const DefaultMaxErrors = 50

// Parse tokenizes and parses a single source file, returning the resulting
// chunk. Errors (lexical and syntactic) are appended to errs; parsing stops
// early once errs accumulates maxErrors diagnostics.
func Parse(filename string, src []byte, errs *diag.List, maxErrors int) *ast.Chunk {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	p := &parser{filename: filename, errs: errs, maxErrors: maxErrors}
	p.sc.Init(filename, src, errs)
	p.advance()
	return p.parseChunk()
}

type parser struct {
	filename  string
	sc        scanner.Scanner
	errs      *diag.List
	maxErrors int

	tok token.Token
	val token.Value
}

func (p *parser) advance() {
	p.tok, p.val = p.sc.Scan()
}

func (p *parser) pos() token.Pos { return p.val.Pos }

func (p *parser) span(start token.Pos) token.Span {
	return token.Span{File: p.filename, Start: start, End: p.pos()}
}

func (p *parser) tooManyErrors() bool {
	return p.errs != nil && p.errs.ErrorCount() >= p.maxErrors
}

func (p *parser) errorf(format string, args ...any) {
	if p.tooManyErrors() {
		return
	}
	p.errs.Errorf(p.span(p.pos()), "E0101", format, args...)
}

// expect consumes the current token if it matches tok, reporting an error
// and leaving the cursor in place otherwise.
func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.pos()
	if p.tok != tok {
		p.errorf("expected %#v, got %#v", tok, p.tok)
		return pos
	}
	p.advance()
	return pos
}

func (p *parser) expectIdent() (string, token.Pos) {
	pos := p.pos()
	if p.tok != token.IDENT {
		p.errorf("expected identifier, got %#v", p.tok)
		return "", pos
	}
	name := p.val.Raw
	p.advance()
	return name, pos
}

// resync skips tokens until a likely statement boundary: a semicolon (which
// it also consumes), a closing brace, the start of a known top-level
// keyword, or EOF. This lets parsing continue after an error so multiple
// diagnostics can be reported in one pass.
func (p *parser) resync() {
	for {
		switch p.tok {
		case token.SEMI:
			p.advance()
			return
		case token.RBRACE, token.EOF:
			return
		case token.LET, token.FN, token.PARTICLE, token.FORCE, token.WELL,
			token.LOOP, token.SIMULATE, token.DETECT, token.IF, token.FOR,
			token.MATCH, token.RETURN:
			return
		}
		p.advance()
	}
}

func (p *parser) parseChunk() *ast.Chunk {
	ch := &ast.Chunk{Name: p.filename}
	for p.tok != token.EOF && !p.tooManyErrors() {
		if s := p.parseTopLevelStmt(); s != nil {
			ch.Stmts = append(ch.Stmts, s)
		}
	}
	ch.EOF = p.pos()
	if p.tooManyErrors() {
		p.errs.Errorf(p.span(p.pos()), "E0199", "too many errors, stopped parsing after %d", p.maxErrors)
	}
	return ch
}

func (p *parser) parseTopLevelStmt() ast.Stmt {
	switch p.tok {
	case token.LET:
		return p.parseLetStmt()
	case token.FN:
		return p.parseFuncDecl()
	case token.PARTICLE:
		return p.parseParticleDecl()
	case token.FORCE:
		return p.parseForceDecl()
	case token.WELL:
		return p.parseWellDecl()
	case token.LOOP:
		return p.parseLoopDecl()
	case token.SIMULATE:
		return p.parseSimulateDecl()
	case token.DETECT:
		return p.parseDetectDecl()
	case token.IF:
		return p.parseIfStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.MATCH:
		return p.parseMatchStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.IDENT:
		return p.parseExprStmt()
	default:
		p.errorf("unexpected token %#v at top level", p.tok)
		p.resync()
		return nil
	}
}

// parseStmtList parses statements until it sees tok (typically RBRACE),
// used for the bodies of blocks (functions, if/for/match arms, loops).
func (p *parser) parseStmtList(end token.Token) []ast.Stmt {
	var stmts []ast.Stmt
	for p.tok != end && p.tok != token.EOF && !p.tooManyErrors() {
		if s := p.parseTopLevelStmt(); s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func (p *parser) parseBlock() []ast.Stmt {
	p.expect(token.LBRACE)
	stmts := p.parseStmtList(token.RBRACE)
	p.expect(token.RBRACE)
	return stmts
}

func (p *parser) parseLetStmt() ast.Stmt {
	start := p.pos()
	p.advance() // let
	name, _ := p.expectIdent()
	p.expect(token.EQ)
	val := p.parseExpr()
	p.expect(token.SEMI)
	return &ast.LetStmt{Name: name, Value: val, Loc: p.mkspan(start)}
}

func (p *parser) parseFuncDecl() ast.Stmt {
	start := p.pos()
	p.advance() // fn
	world := false
	if p.tok == token.WORLD {
		world = true
		p.advance()
	}
	name, _ := p.expectIdent()
	p.expect(token.LPAREN)
	var params []string
	for p.tok != token.RPAREN && p.tok != token.EOF {
		pn, _ := p.expectIdent()
		params = append(params, pn)
		if p.tok == token.COMMA {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RPAREN)
	body := p.parseBlock()
	return &ast.FuncDecl{Name: name, Params: params, World: world, Body: body, Loc: p.mkspan(start)}
}

func (p *parser) parseParticleDecl() ast.Stmt {
	start := p.pos()
	p.advance() // particle
	name, _ := p.expectIdent()
	p.expect(token.AT)
	p.expect(token.LPAREN)
	x := p.parseExpr()
	p.expect(token.COMMA)
	y := p.parseExpr()
	p.expect(token.RPAREN)
	p.expect(token.MASS)
	mass := p.parseExpr()
	p.expect(token.SEMI)
	return &ast.ParticleDecl{Name: name, X: x, Y: y, Mass: mass, Loc: p.mkspan(start)}
}

func (p *parser) parseForceDecl() ast.Stmt {
	start := p.pos()
	p.advance() // force
	kind := p.tok
	if kind != token.GRAVITY && kind != token.SPRING {
		p.errorf("expected 'gravity' or 'spring', got %#v", p.tok)
	}
	p.advance()
	p.expect(token.LPAREN)
	a, _ := p.expectIdent()
	p.expect(token.COMMA)
	b, _ := p.expectIdent()
	p.expect(token.RPAREN)

	var params []ast.Param
	for isParamNameToken(p.tok) {
		pname := p.tok.String()
		p.advance()
		p.expect(token.EQ)
		val := p.parseExpr()
		params = append(params, ast.Param{Name: pname, Value: val})
	}
	p.expect(token.SEMI)
	return &ast.ForceDecl{Kind: kind, A: a, B: b, Params: params, Loc: p.mkspan(start)}
}

func isParamNameToken(tok token.Token) bool {
	switch tok {
	case token.G, token.K, token.REST:
		return true
	default:
		return false
	}
}

func (p *parser) parseWellDecl() ast.Stmt {
	start := p.pos()
	p.advance() // well
	name, _ := p.expectIdent()
	p.expect(token.ON)
	owner, _ := p.expectIdent()
	p.expect(token.IF)
	p.expect(token.POSITION)
	p.expect(token.LPAREN)
	// repeats owner; a different particle name is a parse error
	if ref, _ := p.expectIdent(); ref != "" && ref != owner {
		p.errorf("well condition must observe its owner %q, got %q", owner, ref)
	}
	p.expect(token.RPAREN)
	p.expect(token.DOT)
	if p.tok != token.IDENT || p.val.Raw != "x" {
		p.errorf("well condition must be on the x field")
	} else {
		p.advance()
	}
	p.expect(token.GE)
	threshold := p.parseExpr()
	p.expect(token.DEPTH)
	depth := p.parseExpr()
	p.expect(token.SEMI)
	return &ast.WellDecl{Name: name, Owner: owner, Threshold: threshold, Depth: depth, Loc: p.mkspan(start)}
}

func (p *parser) parseLoopDecl() ast.Stmt {
	start := p.pos()
	p.advance() // loop
	var forCycles, while ast.Expr
	if p.tok == token.FOR {
		p.advance()
		forCycles = p.parseExpr()
		p.expect(token.CYCLES)
	} else if p.tok == token.WHILE {
		p.advance()
		while = p.parseExpr()
	} else {
		p.errorf("expected 'for' or 'while', got %#v", p.tok)
	}
	p.expect(token.WITH)
	p.expect(token.FREQUENCY)
	freq := p.parseExpr()
	p.expect(token.DAMPING)
	damp := p.parseExpr()
	p.expect(token.ON)
	target, _ := p.expectIdent()
	p.expect(token.LBRACE)
	var body []*ast.PushStmt
	for p.tok != token.RBRACE && p.tok != token.EOF {
		body = append(body, p.parsePushStmt())
	}
	p.expect(token.RBRACE)
	return &ast.LoopDecl{
		ForCycles: forCycles, While: while, Frequency: freq, Damping: damp,
		Target: target, Body: body, Loc: p.mkspan(start),
	}
}

func (p *parser) parsePushStmt() *ast.PushStmt {
	start := p.pos()
	p.expect(token.PUSH)
	p.expect(token.LPAREN)
	target, _ := p.expectIdent()
	p.expect(token.RPAREN)
	p.expect(token.MAGNITUDE)
	mag := p.parseExpr()
	p.expect(token.DIRECTION)
	p.expect(token.LPAREN)
	dx := p.parseExpr()
	p.expect(token.COMMA)
	dy := p.parseExpr()
	p.expect(token.RPAREN)
	p.expect(token.SEMI)
	return &ast.PushStmt{Target: target, Magnitude: mag, DirX: dx, DirY: dy, Loc: p.mkspan(start)}
}

func (p *parser) parseSimulateDecl() ast.Stmt {
	start := p.pos()
	p.advance() // simulate
	p.expect(token.DT)
	dt := p.parseExpr()
	p.expect(token.STEPS)
	steps := p.parseExpr()
	p.expect(token.SEMI)
	return &ast.SimulateDecl{Dt: dt, Steps: steps, Loc: p.mkspan(start)}
}

func (p *parser) parseDetectDecl() ast.Stmt {
	start := p.pos()
	p.advance() // detect
	name, _ := p.expectIdent()
	p.expect(token.EQ)
	obs := p.parseObservable()
	field := ""
	if p.tok == token.DOT {
		p.advance()
		if p.tok == token.IDENT && p.val.Raw == "x" {
			field = "x"
			p.advance()
		} else {
			p.errorf("expected field 'x'")
		}
	}
	p.expect(token.SEMI)
	return &ast.DetectDecl{Name: name, Observable: obs, Field: field, Loc: p.mkspan(start)}
}

func (p *parser) parseObservable() *ast.Observable {
	start := p.pos()
	name := p.tok.String()
	switch p.tok {
	case token.POSITION:
		p.advance()
		p.expect(token.LPAREN)
		a := p.parseExpr()
		p.expect(token.RPAREN)
		return &ast.Observable{Name: name, Args: []ast.Expr{a}, Loc: p.mkspan(start)}
	case token.DISTANCE:
		p.advance()
		p.expect(token.LPAREN)
		a := p.parseExpr()
		p.expect(token.COMMA)
		b := p.parseExpr()
		p.expect(token.RPAREN)
		return &ast.Observable{Name: name, Args: []ast.Expr{a, b}, Loc: p.mkspan(start)}
	default:
		p.errorf("expected 'position' or 'distance', got %#v", p.tok)
		return &ast.Observable{Name: "position", Args: nil, Loc: p.mkspan(start)}
	}
}

func (p *parser) parseIfStmt() ast.Stmt {
	start := p.pos()
	p.advance() // if
	cond := p.parseExpr()
	then := p.parseBlock()
	var els []ast.Stmt
	if p.tok == token.ELSE {
		p.advance()
		els = p.parseBlock()
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: els, Loc: p.mkspan(start)}
}

func (p *parser) parseForStmt() ast.Stmt {
	start := p.pos()
	p.advance() // for
	v, _ := p.expectIdent()
	p.expect(token.IN)
	from := p.parseExpr()
	p.expect(token.DOTDOT)
	to := p.parseExpr()
	body := p.parseBlock()
	return &ast.ForStmt{Var: v, Start: from, End: to, Body: body, Loc: p.mkspan(start)}
}

func (p *parser) parseMatchStmt() ast.Stmt {
	start := p.pos()
	p.advance() // match
	scrut := p.parseExpr()
	p.expect(token.LBRACE)
	var arms []ast.MatchArm
	for p.tok != token.RBRACE && p.tok != token.EOF {
		armPos := p.pos()
		var arm ast.MatchArm
		arm.Pos = armPos
		if p.tok == token.IDENT && p.val.Raw == "_" {
			arm.Wildcard = true
			p.advance()
		} else if p.tok == token.INT {
			arm.Pattern = p.val.Int
			p.advance()
		} else if p.tok == token.MINUS {
			p.advance()
			if p.tok == token.INT {
				arm.Pattern = -p.val.Int
				p.advance()
			} else {
				p.errorf("expected integer literal pattern")
			}
		} else {
			p.errorf("expected integer literal or '_' pattern, got %#v", p.tok)
			p.resync()
			continue
		}
		arm.Body = p.parseBlock()
		arms = append(arms, arm)
	}
	p.expect(token.RBRACE)
	return &ast.MatchStmt{Scrutinee: scrut, Arms: arms, Loc: p.mkspan(start)}
}

func (p *parser) parseReturnStmt() ast.Stmt {
	start := p.pos()
	p.advance() // return
	var val ast.Expr
	if p.tok != token.SEMI {
		val = p.parseExpr()
	}
	p.expect(token.SEMI)
	return &ast.ReturnStmt{Value: val, Loc: p.mkspan(start)}
}

func (p *parser) parseExprStmt() ast.Stmt {
	start := p.pos()
	e := p.parseExpr()
	p.expect(token.SEMI)
	return &ast.ExprStmt{Call: e, Loc: p.mkspan(start)}
}

// mkspan builds an ast.Loc covering [start, current position).
func (p *parser) mkspan(start token.Pos) ast.Loc {
	return ast.Loc{Start: start, End: p.pos()}
}
