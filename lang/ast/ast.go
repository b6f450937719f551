// Package ast defines PhysLang's abstract syntax tree: literal values,
// expressions, declarations and the control-flow statements that the
// elaborator expands at compile time. Every node carries its source span so
// diagnostics can point precisely at the offending construct, the same
// separation of concerns as a general-purpose language's AST package.
package ast

import "github.com/mna/physlang/lang/token"

// Node is implemented by every AST node.
type Node interface {
	// Span reports the start and end source position of the node.
	Span() (start, end token.Pos)

	// Walk visits the node's direct children, calling v.Visit for each one,
	// implementing the Visitor pattern the way a recursive-descent AST
	// typically does.
	Walk(v Visitor)
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every declaration/statement node.
type Stmt interface {
	Node
	stmtNode()

	// BlockEnding reports whether the statement may only appear as the last
	// statement of a block (currently only "return").
	BlockEnding() bool
}

// Chunk is the root of a parsed source file.
type Chunk struct {
	Name  string
	Stmts []Stmt
	EOF   token.Pos
}

func (n *Chunk) Span() (start, end token.Pos) {
	if len(n.Stmts) == 0 {
		return n.EOF, n.EOF
	}
	start, _ = n.Stmts[0].Span()
	return start, n.EOF
}

func (n *Chunk) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}

// Loc is an embeddable helper that stores a node's start/end position. Every
// concrete node embeds a Loc to satisfy Node.Span without repeating the
// accessor.
type Loc struct {
	Start, End token.Pos
}

func (l Loc) Span() (start, end token.Pos) { return l.Start, l.End }
