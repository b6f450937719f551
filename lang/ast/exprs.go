package ast

import "github.com/mna/physlang/lang/token"

func (*IntLit) exprNode()       {}
func (*FloatLit) exprNode()     {}
func (*StringLit) exprNode()    {}
func (*Ident) exprNode()        {}
func (*UnaryExpr) exprNode()    {}
func (*BinaryExpr) exprNode()   {}
func (*FieldExpr) exprNode()    {}
func (*BuiltinCall) exprNode()  {}
func (*UserCall) exprNode()     {}
func (*Observable) exprNode()   {}

type (
	// IntLit is an integer-representable numeric literal, e.g. "10". It keeps
	// integer identity for use in `for`/`match` bound contexts; elsewhere it
	// widens to a floating Scalar.
	IntLit struct {
		Loc
		Value int64
	}

	// FloatLit is a floating numeric literal, e.g. "1.5".
	FloatLit struct {
		Loc
		Value float64
	}

	// StringLit is a double-quoted string literal with no escape processing.
	StringLit struct {
		Loc
		Value string
	}

	// Ident is a reference to a variable, parameter, particle or function
	// name.
	Ident struct {
		Loc
		Name string
	}

	// UnaryExpr is unary negation, e.g. "-x".
	UnaryExpr struct {
		Loc
		Op token.Token // MINUS
		X  Expr
	}

	// BinaryExpr is an arithmetic (+ - * /) or comparison (== != < > <= >=)
	// expression.
	BinaryExpr struct {
		Loc
		Op   token.Token
		X, Y Expr
	}

	// FieldExpr is a Vec2 field access, ".x" or ".y".
	FieldExpr struct {
		Loc
		X     Expr
		Field string // "x" or "y"
	}

	// BuiltinCall invokes one of the built-in math functions (sin, cos, sqrt,
	// clamp), all of which take and return Scalar.
	BuiltinCall struct {
		Loc
		Name string
		Args []Expr
	}

	// UserCall invokes a user-defined function, either pure (used as an
	// expression) or world (used at statement position).
	UserCall struct {
		Loc
		Name string
		Args []Expr
	}

	// Observable reads current particle state: position(p) or distance(a,b).
	Observable struct {
		Loc
		Name string // "position" or "distance"
		Args []Expr // ParticleRef-typed argument expressions
	}
)

func (n *IntLit) Walk(Visitor)      {}
func (n *FloatLit) Walk(Visitor)    {}
func (n *StringLit) Walk(Visitor)   {}
func (n *Ident) Walk(Visitor)       {}

func (n *UnaryExpr) Walk(v Visitor) { Walk(v, n.X) }

func (n *BinaryExpr) Walk(v Visitor) {
	Walk(v, n.X)
	Walk(v, n.Y)
}

func (n *FieldExpr) Walk(v Visitor) { Walk(v, n.X) }

func (n *BuiltinCall) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a)
	}
}

func (n *UserCall) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a)
	}
}

func (n *Observable) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a)
	}
}
