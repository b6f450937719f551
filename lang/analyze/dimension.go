package analyze

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/mna/physlang/lang/diag"
	"github.com/mna/physlang/lang/token"
)

// Dimension is a coarse physical role a numeric parameter slot plays.
// PhysLang carries no unit literals, so full algebraic dimension
// propagation through arbitrary expressions isn't meaningful here (every
// literal is dimensionless until it lands in a parameter slot); instead,
// dimensional analysis tracks, for each slot that is filled by a bare
// variable reference, which role that variable's name was used in, and
// flags a name that plays two incompatible roles across the program - the
// realistic mistake this check catches is reusing one `let`-bound constant
// for both, say, a mass and a spring constant.
type Dimension int

const (
	DimUnitless Dimension = iota
	DimMass
	DimLength
	DimTime
	DimFrequency
	DimCoupling
)

func (d Dimension) String() string {
	switch d {
	case DimUnitless:
		return "unitless"
	case DimMass:
		return "mass"
	case DimLength:
		return "length"
	case DimTime:
		return "time"
	case DimFrequency:
		return "frequency"
	case DimCoupling:
		return "coupling constant"
	default:
		return "unknown"
	}
}

// Use records that the variable Name was used to fill a slot expecting Dim,
// at Span.
type Use struct {
	Name string
	Dim  Dimension
	Span token.Span
}

// CheckUses groups uses by variable name and reports every name that was
// used in more than one incompatible dimensional role. In strict mode this
// is an error (code E0501); otherwise it is a warning (W1104).
func CheckUses(uses []Use, strict bool, errs *diag.List) {
	byName := map[string][]Use{}
	for _, u := range uses {
		byName[u.Name] = append(byName[u.Name], u)
	}
	// Map iteration order is randomized by the runtime; walk names in a
	// fixed order so that diagnostic emission order (before diag.List.Sort
	// re-orders by span) doesn't depend on it.
	names := maps.Keys(byName)
	slices.Sort(names)
	for _, name := range names {
		group := byName[name]
		first := group[0]
		for _, u := range group[1:] {
			if u.Dim == first.Dim {
				continue
			}
			msg := formatConflict(name, first, u)
			if strict {
				errs.Errorf(u.Span, "E0501", "%s", msg)
			} else {
				errs.Warnf(u.Span, "W1104", "%s", msg)
			}
		}
	}
}

func formatConflict(name string, a, b Use) string {
	return name + " is used both as " + a.Dim.String() + " and as " + b.Dim.String()
}
