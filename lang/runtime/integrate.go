package runtime

import (
	"fmt"
	"math"

	"github.com/mna/physlang/lang/world"
)

func hypot64(x, y float64) float64 { return math.Hypot(x, y) }

func hypot32(x, y float32) float32 {
	return float32(math.Hypot(float64(x), float64(y)))
}

const twoPi = 2 * math.Pi

// advanceOneStep runs the five ordered phases of one fixed-step integration
// and returns whatever numeric-guard Violations it finds at the end.
func (s *Session) advanceOneStep() []Violation {
	dt := float32(s.w.Simulate.Dt)

	fired := s.advanceLoopPhases(dt)

	fx := make([]float32, len(s.posX))
	fy := make([]float32, len(s.posY))
	s.accumulateForces(fx, fy)
	s.applyFiredImpulses(fired)
	s.integrate(dt, fx, fy)

	return s.validate()
}

// loopFireSet records, per loop index, whether that loop fired this step.
type loopFireSet []bool

// advanceLoopPhases advances each loop's oscillator phase by
// phi <- (phi + 2*pi*f*dt) * (1 - damping*dt) and reports which loops
// complete a full cycle (fire) on this step. A loop fires at most once per
// step even if its frequency is high enough that the phase would wrap more
// than once. For a while-loop the guard is re-evaluated against the
// current state; a false guard deactivates the loop and clears any firing
// recorded this step.
func (s *Session) advanceLoopPhases(dt float32) loopFireSet {
	fired := make(loopFireSet, len(s.w.Loops))
	for i, l := range s.w.Loops {
		if s.loopActive != nil && !s.loopActive[i] {
			continue
		}

		s.loopPhase[i] = (s.loopPhase[i] + float32(l.Frequency)*dt*twoPi) * (1 - float32(l.Damping)*dt)
		if s.loopPhase[i] >= twoPi {
			s.loopPhase[i] -= twoPi
			fired[i] = true
		}

		switch l.Kind {
		case world.ForCycles:
			if fired[i] {
				s.loopFired[i]++
				if s.loopFired[i] >= l.Cycles {
					s.loopActive[i] = false
				}
			}
		case world.WhileGuard:
			if !l.Guard.Eval(s.posXf64, s.posYf64) {
				s.loopActive[i] = false
				fired[i] = false
			}
		}
	}
	return fired
}

func (s *Session) posXf64(i int) float64 { return float64(s.posX[i]) }
func (s *Session) posYf64(i int) float64 { return float64(s.posY[i]) }

// accumulateForces sums every binary force and well force into fx/fy,
// which are zeroed by the caller before this runs.
func (s *Session) accumulateForces(fx, fy []float32) {
	for _, f := range s.w.Forces {
		dx := s.posX[f.B] - s.posX[f.A]
		dy := s.posY[f.B] - s.posY[f.A]
		r := hypot32(dx, dy)
		d := r
		if d < Epsilon {
			// Coincident or near-coincident particles: floor the distance used
			// for force magnitude and direction rather than dividing by (near)
			// zero. At exactly r=0, dx and dy are themselves zero, so the
			// resulting direction and contribution both come out as zero.
			d = Epsilon
		}
		ux, uy := dx/d, dy/d

		var mag float32
		switch f.Kind {
		case world.Gravity:
			mag = float32(f.G) * s.mass[f.A] * s.mass[f.B] / (d * d)
		case world.Spring:
			mag = float32(f.K) * (d - float32(f.Rest))
		}

		fx[f.A] += mag * ux
		fy[f.A] += mag * uy
		fx[f.B] -= mag * ux
		fy[f.B] -= mag * uy
	}

	for _, w2 := range s.w.Wells {
		x := s.posX[w2.Owner]
		threshold := float32(w2.Threshold)
		if x < threshold {
			continue
		}
		fx[w2.Owner] -= float32(w2.Depth) * (x - threshold)
	}
}

// applyFiredImpulses adds each fired, still-active loop's push impulses
// directly to velocity: v_p <- v_p + magnitude * dhat, where dhat is the
// push's direction normalized at apply time. Impulses bypass the force
// accumulator entirely, modifying velocity before the position integration
// that follows in the same step.
func (s *Session) applyFiredImpulses(fired loopFireSet) {
	for i, l := range s.w.Loops {
		if !fired[i] {
			continue
		}
		for _, push := range l.Body {
			n := hypot32(float32(push.DirX), float32(push.DirY))
			if n < Epsilon {
				continue
			}
			ux, uy := float32(push.DirX)/n, float32(push.DirY)/n
			impulse := float32(push.Magnitude)
			s.velX[push.Target] += impulse * ux
			s.velY[push.Target] += impulse * uy
		}
	}
}

// integrate applies semi-implicit (symplectic) Euler: velocity is updated
// from the accumulated force first, then position is updated from the
// already-updated velocity, which is what keeps the integrator stable for
// oscillatory systems where explicit Euler would gain energy every step.
func (s *Session) integrate(dt float32, fx, fy []float32) {
	for i := range s.posX {
		ax := fx[i] / s.mass[i]
		ay := fy[i] / s.mass[i]
		s.velX[i] += ax * dt
		s.velY[i] += ay * dt
		s.posX[i] += s.velX[i] * dt
		s.posY[i] += s.velY[i] * dt
	}
}

// validate checks every particle's post-integration state against the
// numeric guards, reporting one Violation per particle per failing check
// rather than stopping at the first.
func (s *Session) validate() []Violation {
	var out []Violation
	for i := range s.posX {
		if !isFinite32(s.posX[i]) || !isFinite32(s.posY[i]) || !isFinite32(s.velX[i]) || !isFinite32(s.velY[i]) {
			out = append(out, Violation{Code: "E2001", Particle: i, Message: fmt.Sprintf("particle %d produced a non-finite value", i)})
			continue
		}
		if r := hypot32(s.posX[i], s.posY[i]); float64(r) > MaxPosition {
			out = append(out, Violation{Code: "E2002", Particle: i, Message: fmt.Sprintf("particle %d exceeded MAX_POSITION", i)})
		}
		if v := hypot32(s.velX[i], s.velY[i]); float64(v) > MaxVelocity {
			out = append(out, Violation{Code: "E2003", Particle: i, Message: fmt.Sprintf("particle %d exceeded MAX_VELOCITY", i)})
		}
	}
	return out
}

func isFinite32(x float32) bool {
	f := float64(x)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
