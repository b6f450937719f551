// Package analyze implements the static analyzer (C5): checks that can
// only run once the whole program is known, over the fully elaborated
// world rather than the source AST. Per-declaration checks (type
// mismatches, parameter bounds, referential integrity, name uniqueness)
// are caught earlier, at the point of elaboration, since nothing later in
// the pipeline can undo them; this package covers the checks that are
// inherently about the elaborated world as a whole: numerical-stability
// warnings and (optionally) dimensional-role consistency.
package analyze

import (
	"github.com/mna/physlang/lang/diag"
	"github.com/mna/physlang/lang/token"
	"github.com/mna/physlang/lang/world"
)

// Options configures the analyzer's optional checks.
type Options struct {
	// StrictDimensions promotes dimensional-role conflicts from warnings to
	// errors.
	StrictDimensions bool
	// DenyWarnings promotes every warning this package emits to an error.
	DenyWarnings bool
}

// Analyze runs every whole-program check over w, appending diagnostics to
// errs. filename is used to anchor diagnostics that have no more specific
// span available (a stability warning is about the system as a whole, not
// one line of source).
func Analyze(filename string, w *world.World, dimUses []Use, opts Options, errs *diag.List) {
	fileSpan := token.Span{File: filename}
	checkStability(fileSpan, w, opts, errs)
	if len(dimUses) > 0 {
		CheckUses(dimUses, opts.StrictDimensions, errs)
	}
}

func warnOrError(errs *diag.List, deny bool, sp token.Span, code, format string, args ...any) {
	if deny {
		errs.Errorf(sp, code, format, args...)
		return
	}
	errs.Warnf(sp, code, format, args...)
}

// checkStability flags force, loop and mass parameters that are
// individually valid (per the per-declaration checks already applied) but
// combine into a numerically risky configuration: a spring stiff enough to
// alias against the step size, a loop frequency that aliases against the
// sampling rate the integrator runs at, and a particle mass small enough
// to amplify acceleration noise.
func checkStability(sp token.Span, w *world.World, opts Options, errs *diag.List) {
	if w.Simulate.Dt <= 0 {
		return
	}
	dt := w.Simulate.Dt

	for _, f := range w.Forces {
		if f.Kind != world.Spring {
			continue
		}
		mMin := minMass(w, f.A, f.B)
		if mMin <= 0 {
			continue
		}
		// limit = 4*mMin/dt^2, the dimensionally-correct rearrangement of
		// k > 4/(dt^2*mMin); the two agree whenever mMin = 1.
		limit := 4 * mMin / (dt * dt)
		if f.K > limit {
			warnOrError(errs, opts.DenyWarnings, sp, "W1101",
				"spring constant k=%g risks numerical instability at dt=%g (keep k <= %g for mass %g)",
				f.K, dt, limit, mMin)
		}
	}

	const nyquistGuideline = 0.5
	for _, l := range w.Loops {
		if l.Frequency*dt > nyquistGuideline {
			warnOrError(errs, opts.DenyWarnings, sp, "W1102",
				"loop frequency %g aliases against dt=%g (keep frequency*dt <= %g)",
				l.Frequency, dt, nyquistGuideline)
		}
	}

	const tinyMass = 1e-4
	for _, p := range w.Particles {
		if p.Mass < tinyMass {
			warnOrError(errs, opts.DenyWarnings, sp, "W1103",
				"particle %q has a very small mass %g (< %g), which can amplify acceleration and destabilize the integrator",
				p.Name, p.Mass, tinyMass)
		}
	}
}

func minMass(w *world.World, a, b int) float64 {
	if a < 0 || a >= len(w.Particles) || b < 0 || b >= len(w.Particles) {
		return 0
	}
	ma, mb := w.Particles[a].Mass, w.Particles[b].Mass
	if ma < mb {
		return ma
	}
	return mb
}
