package ast

import "github.com/mna/physlang/lang/token"

func (*LetStmt) stmtNode()      {}
func (*FuncDecl) stmtNode()     {}
func (*ParticleDecl) stmtNode() {}
func (*ForceDecl) stmtNode()    {}
func (*WellDecl) stmtNode()     {}
func (*LoopDecl) stmtNode()     {}
func (*PushStmt) stmtNode()     {}
func (*SimulateDecl) stmtNode() {}
func (*DetectDecl) stmtNode()   {}
func (*IfStmt) stmtNode()       {}
func (*ForStmt) stmtNode()      {}
func (*MatchStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode()   {}
func (*ExprStmt) stmtNode()     {}

// BlockEnding reports whether a statement may only appear last in a block.
func (n *ReturnStmt) BlockEnding() bool { return true }

type (
	// LetStmt binds a compile-time scalar: "let name = expr ;"
	LetStmt struct {
		Loc
		Name  string
		Value Expr
	}

	// FuncDecl defines a function: "fn [world] name(params) { body }"
	FuncDecl struct {
		Loc
		Name   string
		Params []string
		World  bool // explicit `world` marker; authoritative over inference
		Body   []Stmt
	}

	// ParticleDecl declares a mass particle: "particle name at (x, y) mass m;"
	ParticleDecl struct {
		Loc
		Name    string
		X, Y    Expr
		Mass    Expr
	}

	// Param is a single named argument in a force/well/loop declaration, e.g.
	// "k=1.0" or "rest=0.5".
	Param struct {
		Name  string
		Value Expr
	}

	// ForceDecl declares a binary force between two particles: "force
	// gravity(a, b) G=1.0;" or "force spring(a, b) k=1.0 rest=1.0;"
	ForceDecl struct {
		Loc
		Kind   token.Token // GRAVITY or SPRING
		A, B   string      // particle names
		Params []Param
	}

	// WellDecl declares a one-sided potential well: "well name on owner if
	// position(owner).x >= threshold depth D;"
	WellDecl struct {
		Loc
		Name      string
		Owner     string
		Threshold Expr
		Depth     Expr
	}

	// LoopDecl declares an oscillator-driven iteration loop.
	LoopDecl struct {
		Loc
		Name      string
		ForCycles Expr // non-nil for "loop for N cycles ..."; mutually exclusive with While
		While     Expr // non-nil for "loop while cond ..."
		Frequency Expr
		Damping   Expr
		Target    string
		Body      []*PushStmt
	}

	// PushStmt is an impulse applied to a particle when its enclosing loop
	// fires: "push(target) magnitude m direction (dx, dy);"
	PushStmt struct {
		Loc
		Target    string
		Magnitude Expr
		DirX, DirY Expr
	}

	// SimulateDecl configures the fixed-step integrator. At most one may
	// appear in a program.
	SimulateDecl struct {
		Loc
		Dt    Expr
		Steps Expr
	}

	// DetectDecl declares a named scalar output computed from the final
	// state: "detect name = position(p).x;" or "detect name =
	// distance(a, b);"
	DetectDecl struct {
		Loc
		Name       string
		Observable *Observable
		Field      string // "x" when the detector reads PositionX via .x, else ""
	}

	// IfStmt is compile-time conditional expansion; exactly one branch's
	// statements are elaborated, the other is discarded entirely.
	IfStmt struct {
		Loc
		Cond Expr
		Then []Stmt
		Else []Stmt // nil if there was no else clause
	}

	// ForStmt is compile-time loop unrolling: "for i in a..b { body }"
	ForStmt struct {
		Loc
		Var        string
		Start, End Expr
		Body       []Stmt
	}

	// MatchArm is a single arm of a MatchStmt: an integer literal pattern (Wildcard
	// false) or the wildcard arm "_" (Wildcard true, Pattern unused).
	MatchArm struct {
		Pos      token.Pos
		Wildcard bool
		Pattern  int64
		Body     []Stmt
	}

	// MatchStmt expands exactly one arm, chosen by comparing Scrutinee (a
	// pure, integer-valued expression) against each arm's pattern in order.
	MatchStmt struct {
		Loc
		Scrutinee Expr
		Arms      []MatchArm
	}

	// ReturnStmt returns a value from a pure function; a world function's
	// body may not contain a return with a value.
	ReturnStmt struct {
		Loc
		Value Expr // nil for a bare "return;" in a world function
	}

	// ExprStmt is a function call used as a statement (a world function
	// call, or a pure call whose result is discarded at top level).
	ExprStmt struct {
		Loc
		Call Expr
	}
)

func (n *LetStmt) BlockEnding() bool      { return false }
func (n *FuncDecl) BlockEnding() bool     { return false }
func (n *ParticleDecl) BlockEnding() bool { return false }
func (n *ForceDecl) BlockEnding() bool    { return false }
func (n *WellDecl) BlockEnding() bool     { return false }
func (n *LoopDecl) BlockEnding() bool     { return false }
func (n *PushStmt) BlockEnding() bool     { return false }
func (n *SimulateDecl) BlockEnding() bool { return false }
func (n *DetectDecl) BlockEnding() bool   { return false }
func (n *IfStmt) BlockEnding() bool       { return false }
func (n *ForStmt) BlockEnding() bool      { return false }
func (n *MatchStmt) BlockEnding() bool    { return false }
func (n *ExprStmt) BlockEnding() bool     { return false }

func (n *LetStmt) Walk(v Visitor) { Walk(v, n.Value) }

func (n *FuncDecl) Walk(v Visitor) {
	for _, s := range n.Body {
		Walk(v, s)
	}
}

func (n *ParticleDecl) Walk(v Visitor) {
	Walk(v, n.X)
	Walk(v, n.Y)
	Walk(v, n.Mass)
}

func (n *ForceDecl) Walk(v Visitor) {
	for _, p := range n.Params {
		Walk(v, p.Value)
	}
}

func (n *WellDecl) Walk(v Visitor) {
	Walk(v, n.Threshold)
	Walk(v, n.Depth)
}

func (n *LoopDecl) Walk(v Visitor) {
	if n.ForCycles != nil {
		Walk(v, n.ForCycles)
	}
	if n.While != nil {
		Walk(v, n.While)
	}
	Walk(v, n.Frequency)
	Walk(v, n.Damping)
	for _, p := range n.Body {
		Walk(v, p)
	}
}

func (n *PushStmt) Walk(v Visitor) {
	Walk(v, n.Magnitude)
	Walk(v, n.DirX)
	Walk(v, n.DirY)
}

func (n *SimulateDecl) Walk(v Visitor) {
	Walk(v, n.Dt)
	Walk(v, n.Steps)
}

func (n *DetectDecl) Walk(v Visitor) { Walk(v, n.Observable) }

func (n *IfStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	for _, s := range n.Then {
		Walk(v, s)
	}
	for _, s := range n.Else {
		Walk(v, s)
	}
}

func (n *ForStmt) Walk(v Visitor) {
	Walk(v, n.Start)
	Walk(v, n.End)
	for _, s := range n.Body {
		Walk(v, s)
	}
}

func (n *MatchStmt) Walk(v Visitor) {
	Walk(v, n.Scrutinee)
	for _, arm := range n.Arms {
		for _, s := range arm.Body {
			Walk(v, s)
		}
	}
}

func (n *ReturnStmt) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}

func (n *ExprStmt) Walk(v Visitor) { Walk(v, n.Call) }
