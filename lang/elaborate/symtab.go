package elaborate

import (
	"github.com/dolthub/swiss"

	"github.com/mna/physlang/lang/ast"
	"github.com/mna/physlang/lang/types"
)

// scope is one frame of the variable environment: a name->Scalar binding
// table for the current let/for/function-parameter scope, linked to its
// enclosing scope the way the environment-stacking design note prescribes
// (push/pop per lexical scope rather than one persistent map). Each frame
// gets its own swiss.Map, following the same per-frame allocation as
// machine.NewMap does for the language's own runtime dictionaries.
type scope struct {
	vars   *swiss.Map[string, types.Value]
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: swiss.NewMap[string, types.Value](8), parent: parent}
}

// define binds name to v in this scope frame. It does not check for
// shadowing or redefinition: a name already bound in this frame is
// replaced, and one bound in an outer frame is shadowed. Variable names are
// not checked for uniqueness anywhere; particle, function and detector
// names are checked by the elaborator's own tables.
func (s *scope) define(name string, v types.Value) {
	s.vars.Put(name, v)
}

// lookup resolves name against this scope, then its ancestors, in priority
// order (local before outer): parameters and let-bindings share the same
// scope-stack mechanism, so local always shadows global.
func (s *scope) lookup(name string) (types.Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// particleTable is the global name->index table for declared particles,
// populated as the elaborator expands particle declarations. It uses a
// swiss.Map since a compact open-addressed table outperforms a Go map for
// the write-once-read-many pattern the elaborator exercises while
// expanding a large unrolled `for`.
type particleTable struct {
	byName *swiss.Map[string, int]
	names  []string // index -> declared (possibly mangled) name, for diagnostics
}

func newParticleTable() *particleTable {
	return &particleTable{byName: swiss.NewMap[string, int](16)}
}

func (t *particleTable) declare(name string) (idx int, dup bool) {
	if _, ok := t.byName.Get(name); ok {
		return 0, true
	}
	idx = len(t.names)
	t.byName.Put(name, idx)
	t.names = append(t.names, name)
	return idx, false
}

func (t *particleTable) lookup(name string) (int, bool) {
	return t.byName.Get(name)
}

// funcTable is the global name->definition table for user functions, along
// with their memoized effect classification (pure vs. world).
type funcTable struct {
	defs    *swiss.Map[string, *funcEntry]
}

type funcEntry struct {
	name   string
	params []string
	body   []ast.Stmt
	world  bool
	// classified is true once effect inference has run for this function
	// (functions with an explicit `world` marker are classified immediately
	// on declaration and never need inference).
	classified bool
	// inferring guards against infinite recursion while classifying a cycle
	// of calls: call depth is bounded separately, but a self-referential
	// pure function must still terminate classification.
	inferring bool
}

func newFuncTable() *funcTable {
	return &funcTable{defs: swiss.NewMap[string, *funcEntry](8)}
}

func (t *funcTable) declare(e *funcEntry) (dup bool) {
	if _, ok := t.defs.Get(e.name); ok {
		return true
	}
	t.defs.Put(e.name, e)
	return false
}

func (t *funcTable) lookup(name string) (*funcEntry, bool) {
	return t.defs.Get(name)
}
