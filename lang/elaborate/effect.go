package elaborate

import "github.com/mna/physlang/lang/ast"

// classify resolves whether fe is a world function, running inference over
// its body the first time it is needed and memoizing the result. A function
// is world if it carries the explicit marker, declares any world-building
// statement (directly or inside if/for/match), or calls another world
// function; otherwise it is pure. The `inferring` flag breaks cycles in the
// call graph: a function still being classified is provisionally treated as
// pure, so mutual recursion among otherwise-pure functions terminates
// instead of classifying everything as world by default.
func (t *funcTable) classify(fe *funcEntry) bool {
	if fe.world || fe.classified {
		return fe.world
	}
	if fe.inferring {
		return false
	}
	fe.inferring = true
	fe.world = worldish(fe.body, t)
	fe.inferring = false
	fe.classified = true
	return fe.world
}

func worldish(stmts []ast.Stmt, funcs *funcTable) bool {
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.ParticleDecl, *ast.ForceDecl, *ast.WellDecl, *ast.LoopDecl, *ast.DetectDecl, *ast.SimulateDecl, *ast.PushStmt:
			return true
		case *ast.LetStmt:
			if exprCallsWorld(n.Value, funcs) {
				return true
			}
		case *ast.IfStmt:
			if exprCallsWorld(n.Cond, funcs) || worldish(n.Then, funcs) || worldish(n.Else, funcs) {
				return true
			}
		case *ast.ForStmt:
			if exprCallsWorld(n.Start, funcs) || exprCallsWorld(n.End, funcs) || worldish(n.Body, funcs) {
				return true
			}
		case *ast.MatchStmt:
			if exprCallsWorld(n.Scrutinee, funcs) {
				return true
			}
			for _, arm := range n.Arms {
				if worldish(arm.Body, funcs) {
					return true
				}
			}
		case *ast.ReturnStmt:
			if n.Value != nil && exprCallsWorld(n.Value, funcs) {
				return true
			}
		case *ast.ExprStmt:
			if exprCallsWorld(n.Call, funcs) {
				return true
			}
		}
	}
	return false
}

func exprCallsWorld(e ast.Expr, funcs *funcTable) bool {
	if e == nil {
		return false
	}
	switch n := e.(type) {
	case *ast.UserCall:
		if fe, ok := funcs.lookup(n.Name); ok && funcs.classify(fe) {
			return true
		}
		for _, a := range n.Args {
			if exprCallsWorld(a, funcs) {
				return true
			}
		}
	case *ast.BinaryExpr:
		return exprCallsWorld(n.X, funcs) || exprCallsWorld(n.Y, funcs)
	case *ast.UnaryExpr:
		return exprCallsWorld(n.X, funcs)
	case *ast.FieldExpr:
		return exprCallsWorld(n.X, funcs)
	case *ast.BuiltinCall:
		for _, a := range n.Args {
			if exprCallsWorld(a, funcs) {
				return true
			}
		}
	case *ast.Observable:
		for _, a := range n.Args {
			if exprCallsWorld(a, funcs) {
				return true
			}
		}
	}
	return false
}
