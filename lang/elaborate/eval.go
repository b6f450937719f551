package elaborate

import (
	"math"

	"github.com/mna/physlang/lang/ast"
	"github.com/mna/physlang/lang/token"
	"github.com/mna/physlang/lang/types"
)

// evalScalar evaluates e and requires the result to be a Scalar, reporting
// a type-mismatch diagnostic and returning 0 otherwise. This is the common
// case for numeric parameter expressions (mass, dt, G, k, ...).
func (el *elaborator) evalScalar(e ast.Expr) (float64, bool) {
	v, ok := el.eval(e)
	if !ok {
		return 0, false
	}
	s, ok := v.(types.Scalar)
	if !ok {
		start, end := e.Span()
		el.errs.Errorf(el.span(start, end), "E0401", "expected Scalar, got %s", v.Kind())
		return 0, false
	}
	return float64(s), true
}

// evalInt evaluates e and requires a compile-time-constant integer result
// (used for `for` bounds and `match` scrutinee/arms).
func (el *elaborator) evalInt(e ast.Expr) (int64, bool) {
	switch n := e.(type) {
	case *ast.IntLit:
		return n.Value, true
	case *ast.UnaryExpr:
		if n.Op == token.MINUS {
			if inner, ok := n.X.(*ast.IntLit); ok {
				return -inner.Value, true
			}
		}
	}
	v, ok := el.eval(e)
	if !ok {
		return 0, false
	}
	s, ok := v.(types.Scalar)
	if !ok || float64(s) != math.Trunc(float64(s)) {
		start, end := e.Span()
		el.errs.Errorf(el.span(start, end), "E0402", "expected a constant integer value")
		return 0, false
	}
	return int64(s), true
}

func (el *elaborator) evalBool(e ast.Expr) (bool, bool) {
	v, ok := el.eval(e)
	if !ok {
		return false, false
	}
	b, ok := v.(types.Bool)
	if !ok {
		start, end := e.Span()
		el.errs.Errorf(el.span(start, end), "E0401", "expected Bool, got %s", v.Kind())
		return false, false
	}
	return bool(b), true
}

// evalParticleRef evaluates e and requires it to name a previously-declared
// particle (spec: referential integrity on the elaborated world; since
// PhysLang has no forward particle references, this check fires at first
// use, which is equivalent to a post-elaboration check for any reference
// that lexically follows the declaration it depends on).
func (el *elaborator) evalParticleRef(e ast.Expr) (int, bool) {
	id, ok := e.(*ast.Ident)
	if !ok {
		start, end := e.Span()
		el.errs.Errorf(el.span(start, end), "E0403", "expected a particle reference")
		return 0, false
	}
	// A reference inside a `for` body first tries the current iteration's
	// mangled name (the common case: a force/loop inside the same `for` that
	// declared its target particle), then falls back to the bare name so a
	// loop body can still reach a particle declared outside any `for`.
	if len(el.forStack) > 0 {
		if idx, ok := el.particles.lookup(el.mangle(id.Name)); ok {
			return idx, true
		}
	}
	idx, ok := el.particles.lookup(id.Name)
	if !ok {
		el.errs.Errorf(el.span(id.Span()), "E1001", "undefined particle %q", id.Name)
		return 0, false
	}
	return idx, true
}

// eval evaluates a pure expression to a types.Value against the current
// scope. It is the core of C3; it never expands world-building
// declarations (UserCall to a world function at expression position is a
// type/effect error, reported here).
func (el *elaborator) eval(e ast.Expr) (types.Value, bool) {
	switch n := e.(type) {
	case *ast.IntLit:
		return types.Scalar(n.Value), true

	case *ast.FloatLit:
		return types.Scalar(n.Value), true

	case *ast.StringLit:
		start, end := e.Span()
		el.errs.Errorf(el.span(start, end), "E0404", "string literals cannot be used in expressions")
		return types.Scalar(0), false

	case *ast.Ident:
		if v, ok := el.scope.lookup(n.Name); ok {
			return v, true
		}
		if len(el.forStack) > 0 {
			if idx, ok := el.particles.lookup(el.mangle(n.Name)); ok {
				return types.ParticleRef(idx), true
			}
		}
		if idx, ok := el.particles.lookup(n.Name); ok {
			return types.ParticleRef(idx), true
		}
		el.errs.Errorf(el.span(n.Span()), "E0301", "undefined name %q", n.Name)
		return types.Scalar(0), false

	case *ast.UnaryExpr:
		x, ok := el.evalScalar(n.X)
		if !ok {
			return types.Scalar(0), false
		}
		return types.Scalar(-x), true

	case *ast.BinaryExpr:
		return el.evalBinary(n)

	case *ast.FieldExpr:
		return el.evalField(n)

	case *ast.BuiltinCall:
		return el.evalBuiltin(n)

	case *ast.Observable:
		start, end := e.Span()
		el.errs.Errorf(el.span(start, end), "E0302", "observables cannot be evaluated at compile time")
		return types.Scalar(0), false

	case *ast.UserCall:
		return el.evalUserCall(n)

	default:
		start, end := e.Span()
		el.errs.Errorf(el.span(start, end), "E0001", "unsupported expression")
		return types.Scalar(0), false
	}
}

func isComparisonOp(op token.Token) bool {
	switch op {
	case token.EQL, token.NEQ, token.LT, token.GT, token.LE, token.GE:
		return true
	default:
		return false
	}
}

func (el *elaborator) evalBinary(n *ast.BinaryExpr) (types.Value, bool) {
	x, xok := el.evalScalar(n.X)
	y, yok := el.evalScalar(n.Y)
	if !xok || !yok {
		return types.Scalar(0), false
	}
	if isComparisonOp(n.Op) {
		var r bool
		switch n.Op {
		case token.EQL:
			r = x == y
		case token.NEQ:
			r = x != y
		case token.LT:
			r = x < y
		case token.GT:
			r = x > y
		case token.LE:
			r = x <= y
		case token.GE:
			r = x >= y
		}
		return types.Bool(r), true
	}

	switch n.Op {
	case token.PLUS:
		return types.Scalar(x + y), true
	case token.MINUS:
		return types.Scalar(x - y), true
	case token.STAR:
		return types.Scalar(x * y), true
	case token.SLASH:
		if y == 0 {
			start, end := n.Span()
			el.errs.Errorf(el.span(start, end), "E0303", "division by zero")
			return types.Scalar(0), false
		}
		return types.Scalar(x / y), true
	default:
		start, end := n.Span()
		el.errs.Errorf(el.span(start, end), "E0001", "unsupported operator %#v", n.Op)
		return types.Scalar(0), false
	}
}

func (el *elaborator) evalField(n *ast.FieldExpr) (types.Value, bool) {
	v, ok := el.eval(n.X)
	if !ok {
		return types.Scalar(0), false
	}
	vec, ok := v.(types.Vec2)
	if !ok {
		start, end := n.X.Span()
		el.errs.Errorf(el.span(start, end), "E0401", "expected Vec2, got %s", v.Kind())
		return types.Scalar(0), false
	}
	if n.Field == "x" {
		return vec.X, true
	}
	return vec.Y, true
}

func (el *elaborator) evalBuiltin(n *ast.BuiltinCall) (types.Value, bool) {
	args := make([]float64, len(n.Args))
	allOK := true
	for i, a := range n.Args {
		v, ok := el.evalScalar(a)
		args[i] = v
		allOK = allOK && ok
	}
	if !allOK {
		return types.Scalar(0), false
	}

	start, end := n.Span()
	switch n.Name {
	case "sin":
		if len(args) != 1 {
			el.errs.Errorf(el.span(start, end), "E0405", "sin takes exactly 1 argument")
			return types.Scalar(0), false
		}
		return types.Scalar(math.Sin(args[0])), true
	case "cos":
		if len(args) != 1 {
			el.errs.Errorf(el.span(start, end), "E0405", "cos takes exactly 1 argument")
			return types.Scalar(0), false
		}
		return types.Scalar(math.Cos(args[0])), true
	case "sqrt":
		if len(args) != 1 {
			el.errs.Errorf(el.span(start, end), "E0405", "sqrt takes exactly 1 argument")
			return types.Scalar(0), false
		}
		if args[0] < 0 {
			el.errs.Errorf(el.span(start, end), "E0304", "sqrt of negative value %g", args[0])
			return types.Scalar(0), false
		}
		return types.Scalar(math.Sqrt(args[0])), true
	case "clamp":
		if len(args) != 3 {
			el.errs.Errorf(el.span(start, end), "E0405", "clamp takes exactly 3 arguments")
			return types.Scalar(0), false
		}
		x, lo, hi := args[0], args[1], args[2]
		if lo > hi {
			el.errs.Errorf(el.span(start, end), "E0305", "clamp: lo (%g) > hi (%g)", lo, hi)
			return types.Scalar(0), false
		}
		return types.Scalar(math.Min(math.Max(x, lo), hi)), true
	default:
		el.errs.Errorf(el.span(start, end), "E0001", "unknown builtin %q", n.Name)
		return types.Scalar(0), false
	}
}

// resolveObservableRefs handles an Observable node in contexts where
// it IS allowed (while-loop guards, detectors): it resolves the named
// particle(s) to indices but does not compute a value, since observables
// only have a value once the simulation runs.
func (el *elaborator) resolveObservableRefs(o *ast.Observable) (a, b int, ok bool) {
	if len(o.Args) == 0 {
		return 0, 0, false
	}
	a, ok = el.evalParticleRef(o.Args[0])
	if !ok {
		return 0, 0, false
	}
	if len(o.Args) > 1 {
		b, ok = el.evalParticleRef(o.Args[1])
		if !ok {
			return 0, 0, false
		}
	}
	return a, b, true
}
