// Package physlang is the public API (C10): compile PhysLang source into a
// Program, then drive its simulation through a Session. This package wires
// together the lexer, parser, elaborator, static analyzer and physics
// runtime without exposing any of their internal types to a caller that
// only wants to compile and run a program.
package physlang

import (
	"fmt"

	"github.com/mna/physlang/lang/analyze"
	"github.com/mna/physlang/lang/diag"
	"github.com/mna/physlang/lang/elaborate"
	"github.com/mna/physlang/lang/parser"
	"github.com/mna/physlang/lang/runtime"
	"github.com/mna/physlang/lang/world"
)

// Options configures compilation. DefaultOptions returns the defaults; in
// the zero value, Compile treats the non-positive MaxErrors as
// parser.DefaultMaxErrors.
type Options struct {
	// MaxErrors caps the number of diagnostics the parser collects before it
	// stops trying to recover and report more.
	MaxErrors int
	// StrictDimensions promotes dimensional-role conflicts (see lang/analyze)
	// from warnings to errors.
	StrictDimensions bool
	// DenyWarnings promotes every warning produced anywhere in the pipeline
	// to an error, so that a program only compiles cleanly if it is entirely
	// free of cautionary diagnostics.
	DenyWarnings bool
}

// DefaultOptions returns the options used when none are supplied
// explicitly.
func DefaultOptions() Options {
	return Options{MaxErrors: parser.DefaultMaxErrors}
}

// Program is a successfully compiled, immutable PhysLang world, ready to be
// run through one or more independent Sessions.
type Program struct {
	world *world.World
}

// World exposes the compiled, index-addressed world description, primarily
// useful to tooling that wants to introspect a Program without running it
// (e.g. to list particle and detector names before simulating).
func (p *Program) World() *world.World { return p.world }

// NewSession creates a fresh runtime.Session for this Program.
func (p *Program) NewSession() *runtime.Session { return runtime.NewSession(p.world) }

// StepIter creates a fresh runtime.Session driven one or more steps at a
// time by an external caller (e.g. a visualizer). It is equivalent to
// NewSession; the distinct name documents the stepwise-driving use case
// at the call site.
func (p *Program) StepIter() *runtime.Session { return p.NewSession() }

// Run executes the Program's configured number of steps on a new Session
// from start to finish and returns the final detector readouts. If a
// runtime violation halts the simulation before it completes, Run returns
// no detectors and surfaces the violation as the error, since detectors
// are only meaningful over a fully-integrated final state.
func (p *Program) Run() ([]runtime.DetectorResult, []runtime.Violation, error) {
	s := p.NewSession()
	violations, err := s.RunTo(p.world.Simulate.Steps)
	if err != nil {
		return nil, violations, err
	}
	if len(violations) > 0 {
		return nil, violations, fmt.Errorf("physlang: simulation halted by a runtime violation: %v", violations)
	}
	return s.Detect(), nil, nil
}

// Compile runs the full front end over src (lexing, parsing, elaboration
// and static analysis) and returns the resulting Program along with every
// diagnostic collected. The Program is nil if diagnostics contains any
// Error-severity entry; callers that only care about success should check
// diags.HasErrors() rather than assuming a nil error convention, since a
// Program can compile successfully and still carry warnings.
func Compile(filename string, src []byte, opts Options) (*Program, *diag.List) {
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = parser.DefaultMaxErrors
	}

	var diags diag.List
	chunk := parser.Parse(filename, src, &diags, opts.MaxErrors)
	if diags.HasErrors() {
		diags.Sort()
		return nil, &diags
	}

	w, dimUses := elaborate.Elaborate(filename, chunk, &diags)
	if diags.HasErrors() {
		diags.Sort()
		return nil, &diags
	}

	analyze.Analyze(filename, w, dimUses, analyze.Options{
		StrictDimensions: opts.StrictDimensions,
		DenyWarnings:     opts.DenyWarnings,
	}, &diags)

	diags.Sort()
	if diags.HasErrors() {
		return nil, &diags
	}
	return &Program{world: w}, &diags
}
