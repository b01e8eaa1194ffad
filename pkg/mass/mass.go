// Package mass computes monoisotopic and isotopologue-specific exact
// masses from a parsed formula, adjusted for ionization mode.
package mass

import "github.com/lgalanti/mimi-go/pkg/formula"

// ProtonMass is the mass, in Da, added or removed to model single-proton
// gain/loss during ionization.
const ProtonMass = 1.007276467

// Ion selects the ionization adjustment applied to a computed mass.
type Ion int

const (
	Neutral Ion = iota
	Positive
	Negative
)

// String renders the ion mode the way the CLI flags spell it.
func (i Ion) String() string {
	switch i {
	case Positive:
		return "pos"
	case Negative:
		return "neg"
	default:
		return "neutral"
	}
}

func adjust(m float64, ion Ion) float64 {
	switch ion {
	case Positive:
		return m + ProtonMass
	case Negative:
		return m - ProtonMass
	default:
		return m
	}
}

// Monoisotopic sums count * most-abundant-exact-mass over every element of
// a parsed formula, then applies the ion adjustment.
func Monoisotopic(p formula.ParsedFormula, ion Ion) float64 {
	total := 0.0
	for _, pair := range p {
		total += pair.Isotopes[0].ExactMass * float64(pair.Count)
	}
	return adjust(total, ion)
}

// IsotopeCount is one group within an isotopologue assignment: a specific
// isotope substituted across k atoms of its element.
type IsotopeCount struct {
	ExactMass float64
	Count     int
}

// Exact sums count * exact-mass over a specific isotope assignment, then
// applies the ion adjustment. Used for isotopologue masses rather than the
// monoisotopic reference mass.
func Exact(assignment []IsotopeCount, ion Ion) float64 {
	total := 0.0
	for _, group := range assignment {
		total += group.ExactMass * float64(group.Count)
	}
	return adjust(total, ion)
}
