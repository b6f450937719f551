// Package elaborate implements the compile-time expression evaluator (C3)
// and elaborator (C4): it walks a parsed ast.Chunk in lexical/expansion
// order, evaluates pure expressions, unrolls `for`, selects `if`/`match`
// branches, expands function calls, and emits a fully resolved, index-only
// world.World ready for the static analyzer and the physics runtime.
package elaborate

import (
	"github.com/mna/physlang/lang/analyze"
	"github.com/mna/physlang/lang/ast"
	"github.com/mna/physlang/lang/diag"
	"github.com/mna/physlang/lang/token"
	"github.com/mna/physlang/lang/types"
	"github.com/mna/physlang/lang/world"
)

// maxCallDepth bounds function-call nesting during elaboration, the
// compile-time equivalent of a stack-depth guard: a PhysLang program has no
// recursion limit of its own, so the elaborator enforces one.
const maxCallDepth = 256

// maxForIterations bounds a single `for` loop's unrolled iteration count,
// per spec: the range end-start must fall within [0, 10_000] so a malformed
// or runaway bound cannot blow up compile-time memory.
const maxForIterations = 10_000

type elaborator struct {
	file string
	errs *diag.List

	scope     *scope
	particles *particleTable
	funcs     *funcTable

	forStack  []int64
	callDepth int

	// pureMode is true while evaluating a pure function's body: any
	// world-building statement encountered in this mode is an effect error,
	// since the function was classified (or declared) pure.
	pureMode bool

	// hasReturn/returnValue capture a pure function's `return expr;`, and
	// returning signals a world function's `return;` to unwind out of the
	// current call's body without a value.
	hasReturn   bool
	returnValue types.Value
	returning   bool

	haveSimulate  bool
	detectorNames map[string]bool

	dimUses []analyze.Use

	world world.World
}

// Elaborate walks chunk and produces the elaborated world, along with the
// dimensional-role uses recorded for the (optional) dimensional-consistency
// check in lang/analyze. Diagnostics are appended to errs; the returned
// World is only meaningful when errs has no Error-severity entries after
// the call.
func Elaborate(filename string, chunk *ast.Chunk, errs *diag.List) (*world.World, []analyze.Use) {
	el := &elaborator{
		file:          filename,
		errs:          errs,
		scope:         newScope(nil),
		particles:     newParticleTable(),
		funcs:         newFuncTable(),
		detectorNames: make(map[string]bool),
	}
	el.elabStmtList(chunk.Stmts)
	if !el.haveSimulate {
		el.errs.Errorf(el.span(chunk.EOF, chunk.EOF), "E0014", "program is missing a required `simulate` declaration")
	}
	if len(el.world.Particles) == 0 {
		el.errs.Errorf(el.span(chunk.EOF, chunk.EOF), "E0015", "program declares no particles")
	}
	return &el.world, el.dimUses
}

// recordDim notes that e, if it is a bare variable reference, filled a slot
// expecting dim. Literal and compound expressions carry no reusable
// identity across declarations, so only identifiers are worth tracking.
func (el *elaborator) recordDim(e ast.Expr, dim analyze.Dimension) {
	id, ok := e.(*ast.Ident)
	if !ok {
		return
	}
	start, end := id.Span()
	el.dimUses = append(el.dimUses, analyze.Use{Name: id.Name, Dim: dim, Span: el.span(start, end)})
}

func (el *elaborator) span(start, end token.Pos) token.Span {
	return token.Span{File: el.file, Start: start, End: end}
}

// elabStmtList elaborates stmts in order, returning true if a `return` was
// executed during this list (so callers in an enclosing block stop too).
func (el *elaborator) elabStmtList(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		if el.elabStmt(s) {
			return true
		}
		if el.returning {
			return true
		}
	}
	return false
}

// elabStmt elaborates a single statement and reports whether a `return` was
// hit while doing so.
func (el *elaborator) elabStmt(s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.LetStmt:
		el.elabLet(n)

	case *ast.FuncDecl:
		el.elabFuncDecl(n)

	case *ast.ParticleDecl:
		el.elabParticleDecl(n)

	case *ast.ForceDecl:
		el.elabForceDecl(n)

	case *ast.WellDecl:
		el.elabWellDecl(n)

	case *ast.LoopDecl:
		el.elabLoopDecl(n)

	case *ast.PushStmt:
		start, end := n.Span()
		el.errs.Errorf(el.span(start, end), "E0202", "push statement outside of a loop body")

	case *ast.SimulateDecl:
		el.elabSimulateDecl(n)

	case *ast.DetectDecl:
		el.elabDetectDecl(n)

	case *ast.IfStmt:
		return el.elabIfStmt(n)

	case *ast.ForStmt:
		return el.elabForStmt(n)

	case *ast.MatchStmt:
		return el.elabMatchStmt(n)

	case *ast.ReturnStmt:
		return el.elabReturnStmt(n)

	case *ast.ExprStmt:
		el.evalStmtCall(n.Call)

	default:
		start, end := s.Span()
		el.errs.Errorf(el.span(start, end), "E0001", "unsupported statement")
	}
	return false
}

func (el *elaborator) worldCheck(s ast.Stmt) {
	if el.pureMode {
		start, end := s.Span()
		el.errs.Errorf(el.span(start, end), "E0308", "world-building statement not allowed in a pure function")
	}
}

func (el *elaborator) elabLet(n *ast.LetStmt) {
	v, ok := el.eval(n.Value)
	if !ok {
		return
	}
	el.scope.define(n.Name, v)
}

func (el *elaborator) elabFuncDecl(n *ast.FuncDecl) {
	fe := &funcEntry{name: n.Name, params: n.Params, body: n.Body, world: n.World, classified: n.World}
	if dup := el.funcs.declare(fe); dup {
		start, end := n.Span()
		el.errs.Errorf(el.span(start, end), "E0011", "duplicate function name %q", n.Name)
	}
}

func (el *elaborator) elabParticleDecl(n *ast.ParticleDecl) {
	el.worldCheck(n)
	el.recordDim(n.X, analyze.DimLength)
	el.recordDim(n.Y, analyze.DimLength)
	el.recordDim(n.Mass, analyze.DimMass)
	x, xok := el.evalScalar(n.X)
	y, yok := el.evalScalar(n.Y)
	m, mok := el.evalScalar(n.Mass)
	if !xok || !yok || !mok {
		return
	}
	if m <= 0 {
		start, end := n.Mass.Span()
		el.errs.Errorf(el.span(start, end), "E1101", "particle mass must be > 0, got %g", m)
		return
	}
	name := el.mangle(n.Name)
	idx, dup := el.particles.declare(name)
	if dup {
		start, end := n.Span()
		el.errs.Errorf(el.span(start, end), "E0011", "duplicate particle name %q", name)
		return
	}
	el.world.Particles = append(el.world.Particles, world.Particle{
		Index: idx, Name: name, X0: x, Y0: y, Mass: m,
	})
}

func (el *elaborator) elabForceDecl(n *ast.ForceDecl) {
	el.worldCheck(n)
	a, aok := el.evalParticleRef(&ast.Ident{Name: n.A, Loc: n.Loc})
	b, bok := el.evalParticleRef(&ast.Ident{Name: n.B, Loc: n.Loc})
	if !aok || !bok {
		return
	}

	params := map[string]float64{}
	allOK := true
	for _, p := range n.Params {
		switch p.Name {
		case "G", "k":
			el.recordDim(p.Value, analyze.DimCoupling)
		case "rest":
			el.recordDim(p.Value, analyze.DimLength)
		}
		v, ok := el.evalScalar(p.Value)
		params[p.Name] = v
		allOK = allOK && ok
	}
	if !allOK {
		return
	}

	start, end := n.Span()
	switch n.Kind {
	case token.GRAVITY:
		g, ok := params["G"]
		if !ok {
			el.errs.Errorf(el.span(start, end), "E0203", "force gravity requires parameter G")
			return
		}
		if g <= 0 {
			el.errs.Errorf(el.span(start, end), "E1102", "gravitational constant G must be > 0, got %g", g)
			return
		}
		el.world.Forces = append(el.world.Forces, world.BinaryForce{Kind: world.Gravity, A: a, B: b, G: g})

	case token.SPRING:
		k, kok := params["k"]
		rest, rok := params["rest"]
		if !kok || !rok {
			el.errs.Errorf(el.span(start, end), "E0203", "force spring requires parameters k and rest")
			return
		}
		if k < 0 {
			el.errs.Errorf(el.span(start, end), "E1103", "spring constant k must be >= 0, got %g", k)
			return
		}
		if rest < 0 {
			el.errs.Errorf(el.span(start, end), "E1104", "spring rest length must be >= 0, got %g", rest)
			return
		}
		el.world.Forces = append(el.world.Forces, world.BinaryForce{Kind: world.Spring, A: a, B: b, K: k, Rest: rest})

	default:
		el.errs.Errorf(el.span(start, end), "E0001", "unknown force kind")
	}
}

func (el *elaborator) elabWellDecl(n *ast.WellDecl) {
	el.worldCheck(n)
	owner, ok := el.evalParticleRef(&ast.Ident{Name: n.Owner, Loc: n.Loc})
	if !ok {
		return
	}
	el.recordDim(n.Threshold, analyze.DimLength)
	el.recordDim(n.Depth, analyze.DimCoupling)
	threshold, tok := el.evalScalar(n.Threshold)
	depth, dok := el.evalScalar(n.Depth)
	if !tok || !dok {
		return
	}
	if depth < 0 {
		start, end := n.Depth.Span()
		el.errs.Errorf(el.span(start, end), "E1105", "well depth must be >= 0, got %g", depth)
		return
	}
	el.world.Wells = append(el.world.Wells, world.Well{Owner: owner, Threshold: threshold, Depth: depth})
}

func (el *elaborator) elabLoopDecl(n *ast.LoopDecl) {
	el.worldCheck(n)
	target, ok := el.evalParticleRef(&ast.Ident{Name: n.Target, Loc: n.Loc})
	if !ok {
		return
	}
	el.recordDim(n.Frequency, analyze.DimFrequency)
	el.recordDim(n.Damping, analyze.DimUnitless)
	freq, fok := el.evalScalar(n.Frequency)
	damp, dok := el.evalScalar(n.Damping)
	if !fok || !dok {
		return
	}
	start, end := n.Span()
	if freq <= 0 {
		el.errs.Errorf(el.span(start, end), "E1106", "loop frequency must be > 0, got %g", freq)
		return
	}
	if damp < 0 || damp > 1 {
		el.errs.Errorf(el.span(start, end), "E1107", "loop damping must be within [0, 1], got %g", damp)
		return
	}

	l := world.Loop{Frequency: freq, Damping: damp, Target: target}

	switch {
	case n.ForCycles != nil:
		cycles, ok := el.evalInt(n.ForCycles)
		if !ok {
			return
		}
		if cycles < 0 {
			el.errs.Errorf(el.span(start, end), "E1108", "loop cycle count must be >= 0, got %d", cycles)
			return
		}
		l.Kind = world.ForCycles
		l.Cycles = int(cycles)

	case n.While != nil:
		g, ok := el.convertGuard(n.While)
		if !ok {
			return
		}
		l.Kind = world.WhileGuard
		l.Guard = g

	default:
		el.errs.Errorf(el.span(start, end), "E0001", "loop has neither a cycle count nor a while condition")
		return
	}

	for _, ps := range n.Body {
		rec, ok := el.elabPushStmt(ps)
		if !ok {
			continue
		}
		l.Body = append(l.Body, rec)
	}

	el.world.Loops = append(el.world.Loops, l)
}

func (el *elaborator) elabPushStmt(n *ast.PushStmt) (world.PushRecord, bool) {
	target, ok := el.evalParticleRef(&ast.Ident{Name: n.Target, Loc: n.Loc})
	if !ok {
		return world.PushRecord{}, false
	}
	el.recordDim(n.Magnitude, analyze.DimCoupling)
	mag, magok := el.evalScalar(n.Magnitude)
	dx, dxok := el.evalScalar(n.DirX)
	dy, dyok := el.evalScalar(n.DirY)
	if !magok || !dxok || !dyok {
		return world.PushRecord{}, false
	}
	if mag < 0 {
		start, end := n.Magnitude.Span()
		el.errs.Errorf(el.span(start, end), "E1109", "push magnitude must be >= 0, got %g", mag)
		return world.PushRecord{}, false
	}
	return world.PushRecord{Target: target, Magnitude: mag, DirX: dx, DirY: dy}, true
}

// convertGuard lowers a while-loop's source condition into a runtime-
// evaluable Guard. Only the shape `observable(...) compareOp constant` is
// supported: the runtime never re-consults an AST node, so any guard that
// isn't reducible to an observable compared against a compile-time
// constant is rejected here rather than accepted and silently
// mis-evaluated.
func (el *elaborator) convertGuard(e ast.Expr) (world.Guard, bool) {
	bin, ok := e.(*ast.BinaryExpr)
	if !ok || !isComparisonOp(bin.Op) {
		start, end := e.Span()
		el.errs.Errorf(el.span(start, end), "E0301", "while condition must compare an observable against a constant")
		return world.Guard{}, false
	}
	lhs := bin.X
	if fe, isField := lhs.(*ast.FieldExpr); isField {
		if o, isObs := fe.X.(*ast.Observable); !isObs || o.Name != "position" || fe.Field != "x" {
			start, end := fe.Span()
			el.errs.Errorf(el.span(start, end), "E0301", "only the x field of a position observable can be used in a while condition")
			return world.Guard{}, false
		}
		lhs = fe.X
	}
	obs, ok := lhs.(*ast.Observable)
	if !ok {
		start, end := bin.X.Span()
		el.errs.Errorf(el.span(start, end), "E0301", "left side of a while condition must be an observable")
		return world.Guard{}, false
	}
	rhs, ok := el.evalScalar(bin.Y)
	if !ok {
		return world.Guard{}, false
	}

	g := world.Guard{Op: compareOpFor(bin.Op), RHS: rhs}
	switch obs.Name {
	case "position":
		a, _, ok := el.resolveObservableRefs(obs)
		if !ok {
			return world.Guard{}, false
		}
		g.Obs, g.A = world.ObsPositionX, a
	case "distance":
		a, b, ok := el.resolveObservableRefs(obs)
		if !ok {
			return world.Guard{}, false
		}
		g.Obs, g.A, g.B = world.ObsDistance, a, b
	default:
		start, end := obs.Span()
		el.errs.Errorf(el.span(start, end), "E0309", "unknown observable %q", obs.Name)
		return world.Guard{}, false
	}
	return g, true
}

func compareOpFor(op token.Token) world.CompareOp {
	switch op {
	case token.EQL:
		return world.OpEQ
	case token.NEQ:
		return world.OpNEQ
	case token.LT:
		return world.OpLT
	case token.GT:
		return world.OpGT
	case token.LE:
		return world.OpLE
	case token.GE:
		return world.OpGE
	default:
		return world.OpEQ
	}
}

func (el *elaborator) elabSimulateDecl(n *ast.SimulateDecl) {
	el.worldCheck(n)
	start, end := n.Span()
	if el.haveSimulate {
		el.errs.Errorf(el.span(start, end), "E0012", "duplicate simulate declaration")
		return
	}
	el.recordDim(n.Dt, analyze.DimTime)
	dt, dok := el.evalScalar(n.Dt)
	steps, sok := el.evalInt(n.Steps)
	if !dok || !sok {
		return
	}
	if dt <= 0 {
		el.errs.Errorf(el.span(start, end), "E1110", "simulate dt must be > 0, got %g", dt)
		return
	}
	if steps <= 0 {
		el.errs.Errorf(el.span(start, end), "E1111", "simulate steps must be a positive integer, got %d", steps)
		return
	}
	el.haveSimulate = true
	el.world.Simulate = world.SimulateConfig{Dt: dt, Steps: int(steps)}
}

func (el *elaborator) elabDetectDecl(n *ast.DetectDecl) {
	el.worldCheck(n)
	start, end := n.Span()
	name := el.mangle(n.Name)
	if el.detectorNames[name] {
		el.errs.Errorf(el.span(start, end), "E0011", "duplicate detector name %q", name)
		return
	}

	d := world.Detector{Name: name}
	switch n.Observable.Name {
	case "position":
		a, _, ok := el.resolveObservableRefs(n.Observable)
		if !ok {
			return
		}
		d.Kind, d.A = world.DetPositionX, a
	case "distance":
		a, b, ok := el.resolveObservableRefs(n.Observable)
		if !ok {
			return
		}
		d.Kind, d.A, d.B = world.DetDistance, a, b
	default:
		el.errs.Errorf(el.span(start, end), "E0309", "unknown observable %q", n.Observable.Name)
		return
	}

	el.detectorNames[name] = true
	el.world.Detectors = append(el.world.Detectors, d)
}

func (el *elaborator) elabIfStmt(n *ast.IfStmt) bool {
	cond, ok := el.evalBool(n.Cond)
	if !ok {
		return false
	}
	el.scope = newScope(el.scope)
	var returned bool
	if cond {
		returned = el.elabStmtList(n.Then)
	} else {
		returned = el.elabStmtList(n.Else)
	}
	el.scope = el.scope.parent
	return returned
}

// elabForStmt unrolls the loop at compile time, pushing each iteration's
// index onto forStack so particle (and other entity) declarations inside
// the body are mangled deterministically.
func (el *elaborator) elabForStmt(n *ast.ForStmt) bool {
	start, startOK := el.evalInt(n.Start)
	end, endOK := el.evalInt(n.End)
	if !startOK || !endOK {
		return false
	}
	if count := end - start; count < 0 || count > maxForIterations {
		nstart, nend := n.Span()
		el.errs.Errorf(el.span(nstart, nend), "E0306", "for loop iteration count %d is outside the allowed range [0, %d]", count, maxForIterations)
		return false
	}
	for i := start; i < end; i++ {
		el.forStack = append(el.forStack, i)
		el.scope = newScope(el.scope)
		el.scope.define(n.Var, types.Scalar(i))

		returned := el.elabStmtList(n.Body)

		el.scope = el.scope.parent
		el.forStack = el.forStack[:len(el.forStack)-1]

		if returned {
			return true
		}
	}
	return false
}

func (el *elaborator) elabMatchStmt(n *ast.MatchStmt) bool {
	scrut, ok := el.evalInt(n.Scrutinee)
	if !ok {
		return false
	}

	seen := map[int64]bool{}
	haveWildcard := false
	var chosen *ast.MatchArm
	for i := range n.Arms {
		arm := &n.Arms[i]
		if arm.Wildcard {
			if haveWildcard {
				el.errs.Errorf(el.span(arm.Pos, arm.Pos), "E0013", "duplicate wildcard arm in match")
			}
			haveWildcard = true
			if chosen == nil {
				chosen = arm
			}
			continue
		}
		if seen[arm.Pattern] {
			el.errs.Errorf(el.span(arm.Pos, arm.Pos), "E0013", "duplicate match pattern %d", arm.Pattern)
		}
		seen[arm.Pattern] = true
		if chosen == nil && arm.Pattern == scrut {
			chosen = arm
		}
	}

	if chosen == nil {
		start, end := n.Span()
		el.errs.Errorf(el.span(start, end), "E0307", "non-exhaustive match: no arm matches %d and there is no wildcard", scrut)
		return false
	}

	el.scope = newScope(el.scope)
	returned := el.elabStmtList(chosen.Body)
	el.scope = el.scope.parent
	return returned
}

func (el *elaborator) elabReturnStmt(n *ast.ReturnStmt) bool {
	if n.Value == nil {
		el.returning = true
		el.hasReturn = false
		return true
	}
	if el.pureMode {
		v, ok := el.eval(n.Value)
		if ok {
			el.returnValue = v
			el.hasReturn = true
		}
	} else {
		start, end := n.Value.Span()
		el.errs.Errorf(el.span(start, end), "E0310", "world function's return may not carry a value")
	}
	el.returning = true
	return true
}

// evalStmtCall handles a call expression used at statement position: a
// world function call expands its body inline (within the current call
// depth budget); a pure function call used as a statement is legal but its
// result is discarded.
func (el *elaborator) evalStmtCall(e ast.Expr) {
	call, ok := e.(*ast.UserCall)
	if !ok {
		el.eval(e)
		return
	}
	fe, ok := el.funcs.lookup(call.Name)
	if !ok {
		start, end := call.Span()
		el.errs.Errorf(el.span(start, end), "E0301", "undefined function %q", call.Name)
		return
	}
	if el.funcs.classify(fe) {
		el.callWorldFunc(call, fe)
		return
	}
	el.eval(e)
}

func (el *elaborator) checkCallDepth(at ast.Expr) bool {
	if el.callDepth >= maxCallDepth {
		start, end := at.Span()
		el.errs.Errorf(el.span(start, end), "E0311", "call depth exceeds the maximum of %d", maxCallDepth)
		return false
	}
	return true
}

func (el *elaborator) bindArgs(fe *funcEntry, call *ast.UserCall) bool {
	if len(call.Args) != len(fe.params) {
		start, end := call.Span()
		el.errs.Errorf(el.span(start, end), "E0312", "function %q expects %d argument(s), got %d", fe.name, len(fe.params), len(call.Args))
		return false
	}
	args := make([]types.Value, len(call.Args))
	allOK := true
	for i, a := range call.Args {
		v, ok := el.eval(a)
		args[i] = v
		allOK = allOK && ok
	}
	if !allOK {
		return false
	}
	el.scope = newScope(el.scope)
	for i, p := range fe.params {
		el.scope.define(p, args[i])
	}
	return true
}

// callWorldFunc expands fe's body inline at the call site, within a fresh
// scope holding the bound parameters.
func (el *elaborator) callWorldFunc(call *ast.UserCall, fe *funcEntry) {
	if !el.checkCallDepth(call) {
		return
	}
	if !el.bindArgs(fe, call) {
		return
	}
	el.callDepth++
	savedPure := el.pureMode
	el.pureMode = false
	el.elabStmtList(fe.body)
	el.pureMode = savedPure
	el.callDepth--
	el.scope = el.scope.parent
	el.returning = false
}

// evalUserCall evaluates a pure function call used in expression position,
// producing its returned Scalar/Bool/ParticleRef value.
func (el *elaborator) evalUserCall(call *ast.UserCall) (types.Value, bool) {
	fe, ok := el.funcs.lookup(call.Name)
	if !ok {
		start, end := call.Span()
		el.errs.Errorf(el.span(start, end), "E0301", "undefined function %q", call.Name)
		return types.Scalar(0), false
	}
	if el.funcs.classify(fe) {
		start, end := call.Span()
		el.errs.Errorf(el.span(start, end), "E0313", "world function %q cannot be used in an expression", call.Name)
		return types.Scalar(0), false
	}
	if !el.checkCallDepth(call) {
		return types.Scalar(0), false
	}
	if !el.bindArgs(fe, call) {
		return types.Scalar(0), false
	}

	el.callDepth++
	savedPure := el.pureMode
	savedHasReturn, savedReturnValue := el.hasReturn, el.returnValue
	el.pureMode = true
	el.hasReturn = false

	el.elabStmtList(fe.body)

	result := el.returnValue
	ok = el.hasReturn
	el.pureMode = savedPure
	el.hasReturn, el.returnValue = savedHasReturn, savedReturnValue
	el.callDepth--
	el.scope = el.scope.parent
	el.returning = false

	if !ok {
		start, end := call.Span()
		el.errs.Errorf(el.span(start, end), "E0314", "pure function %q did not return a value on every path", call.Name)
		return types.Scalar(0), false
	}
	return result, true
}
