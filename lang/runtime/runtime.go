// Package runtime implements the physics runtime (C7) and detector
// evaluator (C8): a fixed-step semi-implicit Euler integrator driven by an
// elaborated world.World, addressed entirely by particle index. The
// runtime never inspects an AST node or a symbol table; every quantity it
// needs (forces, well thresholds, loop guards, detector targets) was
// already resolved to packed, index-only data by the elaborator.
package runtime

import (
	"fmt"

	"github.com/mna/physlang/lang/world"
)

// Numeric guards enforced at the end of every step (spec's "two-phase
// execution" numeric envelope): a step that produces a non-finite value or
// a value outside these bounds is a Violation, not a panic.
const (
	Epsilon     = 1e-6
	MaxPosition = 1e12
	MaxVelocity = 1e10
)

// Violation describes one numeric-guard failure detected during a step.
type Violation struct {
	Code      string // "E2001" NaN/Inf, "E2002" position bound, "E2003" velocity bound
	Particle  int
	Message   string
}

func (v Violation) Error() string { return v.Message }

// State is an immutable snapshot of a Session's dynamic state, safe to
// keep after the Session that produced it has advanced further.
type State struct {
	Step       int
	PosX       []float32
	PosY       []float32
	VelX       []float32
	VelY       []float32
	LoopPhase  []float32
	LoopActive []bool
}

func (s State) clone() State {
	cp := State{
		Step:       s.Step,
		PosX:       append([]float32(nil), s.PosX...),
		PosY:       append([]float32(nil), s.PosY...),
		VelX:       append([]float32(nil), s.VelX...),
		VelY:       append([]float32(nil), s.VelY...),
		LoopPhase:  append([]float32(nil), s.LoopPhase...),
		LoopActive: append([]bool(nil), s.LoopActive...),
	}
	return cp
}

// DetectorResult is one named scalar readout.
type DetectorResult struct {
	Name  string
	Value float64
}

// Session is the mutable, per-run handle over a frozen World: the World
// itself never changes once built, but a Session's particle positions,
// velocities and loop oscillator phases evolve step by step. Multiple
// independent Sessions can run concurrently over the same World.
type Session struct {
	w *world.World

	posX, posY []float32
	velX, velY []float32
	mass       []float32

	loopPhase  []float32
	loopFired  []int
	loopActive []bool

	step   int
	halted bool
	last   []Violation
}

// NewSession creates a fresh Session over w, with every particle at its
// declared initial position and zero velocity.
func NewSession(w *world.World) *Session {
	s := &Session{w: w}
	s.resetState()
	return s
}

func (s *Session) resetState() {
	n := len(s.w.Particles)
	s.posX = make([]float32, n)
	s.posY = make([]float32, n)
	s.velX = make([]float32, n)
	s.velY = make([]float32, n)
	s.mass = make([]float32, n)
	for i, p := range s.w.Particles {
		s.posX[i] = float32(p.X0)
		s.posY[i] = float32(p.Y0)
		s.mass[i] = float32(p.Mass)
	}
	s.loopPhase = make([]float32, len(s.w.Loops))
	s.loopFired = make([]int, len(s.w.Loops))
	s.loopActive = make([]bool, len(s.w.Loops))
	for i := range s.loopActive {
		s.loopActive[i] = true
	}
	s.step = 0
	s.halted = false
	s.last = nil
}

// Reset restores the Session to its initial state: declared positions,
// zero velocity, zero oscillator phase, zero step count.
func (s *Session) Reset() { s.resetState() }

// State returns a snapshot of the Session's current dynamic state.
func (s *Session) State() State {
	return State{
		Step: s.step, PosX: s.posX, PosY: s.posY, VelX: s.velX, VelY: s.velY,
		LoopPhase: s.loopPhase, LoopActive: s.loopActive,
	}.clone()
}

// Step advances the simulation by exactly one fixed step of size
// World.Simulate.Dt, running the five ordered phases: advance loop phases,
// accumulate forces, apply fired-loop impulses, integrate, validate. It
// returns any Violations detected at the end of the step; a non-empty
// Violations slice halts the Session (further Step calls return an error)
// since the physical state is no longer trustworthy.
func (s *Session) Step() ([]Violation, error) {
	if s.halted {
		return nil, fmt.Errorf("physlang: session halted by a prior violation: %v", s.last)
	}
	if s.step >= s.w.Simulate.Steps {
		return nil, fmt.Errorf("physlang: simulation already completed its configured %d steps", s.w.Simulate.Steps)
	}

	violations := s.advanceOneStep()
	s.step++
	if len(violations) > 0 {
		s.halted = true
		s.last = violations
	}
	return violations, nil
}

// RunTo advances the Session until it has executed n total steps (or its
// configured step budget, or a violation), returning every violation
// observed.
func (s *Session) RunTo(n int) ([]Violation, error) {
	var all []Violation
	for s.step < n && s.step < s.w.Simulate.Steps {
		v, err := s.Step()
		if err != nil {
			return all, err
		}
		all = append(all, v...)
		if len(v) > 0 {
			break
		}
	}
	return all, nil
}

// Peek runs n steps against a throwaway copy of the Session's current
// state, returning the resulting snapshot without mutating the real
// Session. This lets a caller look ahead (e.g. for visualization) without
// committing to advancing the simulation.
func (s *Session) Peek(n int) (State, []Violation, error) {
	cp := &Session{
		w:         s.w,
		posX:      append([]float32(nil), s.posX...),
		posY:      append([]float32(nil), s.posY...),
		velX:      append([]float32(nil), s.velX...),
		velY:      append([]float32(nil), s.velY...),
		mass:      append([]float32(nil), s.mass...),
		loopPhase:  append([]float32(nil), s.loopPhase...),
		loopFired:  append([]int(nil), s.loopFired...),
		loopActive: append([]bool(nil), s.loopActive...),
		step:       s.step,
		halted:     s.halted,
	}
	var all []Violation
	for i := 0; i < n; i++ {
		v, err := cp.Step()
		if err != nil {
			return cp.State(), all, err
		}
		all = append(all, v...)
		if len(v) > 0 {
			break
		}
	}
	return cp.State(), all, nil
}

// Detect evaluates every declared detector against the Session's current
// state.
func (s *Session) Detect() []DetectorResult {
	out := make([]DetectorResult, len(s.w.Detectors))
	for i, d := range s.w.Detectors {
		out[i] = DetectorResult{Name: d.Name, Value: s.evalDetector(d)}
	}
	return out
}

func (s *Session) evalDetector(d world.Detector) float64 {
	switch d.Kind {
	case world.DetPositionX:
		return float64(s.posX[d.A])
	case world.DetDistance:
		dx := float64(s.posX[d.B]) - float64(s.posX[d.A])
		dy := float64(s.posY[d.B]) - float64(s.posY[d.A])
		return hypot64(dx, dy)
	default:
		return 0
	}
}
