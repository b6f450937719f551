// Package types defines PhysLang's four compile-time value types (Scalar,
// Vec2, Bool, ParticleRef) used by the expression evaluator, elaborator and
// static analyzer. ParticleRef is a logical index into the world's particle
// table, never a pointer, so it can never dangle (spec design note
// "pointer-free identity").
package types

import "fmt"

// Kind identifies which of the four PhysLang types a Value holds.
type Kind int

const (
	KindScalar Kind = iota
	KindVec2
	KindBool
	KindParticleRef
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "Scalar"
	case KindVec2:
		return "Vec2"
	case KindBool:
		return "Bool"
	case KindParticleRef:
		return "ParticleRef"
	default:
		return "unknown"
	}
}

// Value is implemented by every compile-time PhysLang value.
type Value interface {
	Kind() Kind
	String() string
}

// Scalar is a floating-point number held in float64: the evaluator computes
// in float64 and the world stores float64, and the runtime narrows values
// to float32 (IEEE-754 binary32, round-to-nearest-even) when it loads them
// for its arithmetic.
type Scalar float64

func (Scalar) Kind() Kind        { return KindScalar }
func (s Scalar) String() string  { return fmt.Sprintf("%g", float64(s)) }

// Vec2 is a 2D vector value. The evaluator never constructs one: the
// position(p) observable, the only Vec2-typed expression, is rejected when
// evaluated at compile time (E0302).
type Vec2 struct{ X, Y Scalar }

func (Vec2) Kind() Kind       { return KindVec2 }
func (v Vec2) String() string { return fmt.Sprintf("(%g, %g)", float64(v.X), float64(v.Y)) }

// Bool is a boolean value, produced by comparison expressions.
type Bool bool

func (Bool) Kind() Kind       { return KindBool }
func (b Bool) String() string { return fmt.Sprintf("%t", bool(b)) }

// ParticleRef is a logical identifier: the index of a particle in the
// world's particle table. It is assigned by the world builder (C6) and is
// never a raw pointer.
type ParticleRef int

func (ParticleRef) Kind() Kind       { return KindParticleRef }
func (r ParticleRef) String() string { return fmt.Sprintf("particle#%d", int(r)) }
