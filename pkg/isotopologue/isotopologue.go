// Package isotopologue enumerates the distinguishable isotope assignments
// of a parsed formula, each with a predicted relative abundance and exact
// mass, pruning low-abundance assignments along the way.
package isotopologue

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/lgalanti/mimi-go/pkg/formula"
	"github.com/lgalanti/mimi-go/pkg/isotope"
	"github.com/lgalanti/mimi-go/pkg/mass"
)

// DefaultNoiseCutoff is the inverse of the lowest relative abundance an
// isotope group may carry and still be retained; 1/DefaultNoiseCutoff is
// the per-element pruning floor.
const DefaultNoiseCutoff = 1e5

// globalAbundanceFloor is the fixed floor applied to each assembled
// isotopologue's total abundance, independent of the noise cutoff.
const globalAbundanceFloor = 1e-6

// Variant is one surviving isotopologue: an exact mass, its predicted
// abundance relative to the monoisotopic assignment, and a debug name
// describing which isotopes were substituted.
type Variant struct {
	Mass      float64
	Abundance float64
	Name      string
}

// group is one (isotope, atom count) term within a single element's
// partition of its n atoms across isotopes.
type group struct {
	Isotope isotope.Isotope
	Count   int
}

// pattern is one surviving partition for a single element: a set of
// groups whose counts sum to that element's atom count.
type pattern struct {
	groups []group
}

// Enumerate runs the IsotopologueEnumerator over a parsed formula. The
// first returned Variant is always the monoisotopic assignment
// (abundance 1.0); the rest are sorted by descending abundance. When
// debug is non-nil, the same ordered trace (monoisotopic entry, then the
// sorted tail) is written to it, one line per variant, matching the
// create-cache debug log format.
func Enumerate(p formula.ParsedFormula, ion mass.Ion, noiseCutoff float64, debug io.Writer) ([]Variant, error) {
	if noiseCutoff <= 0 {
		return nil, fmt.Errorf("isotopologue: noise_cutoff must be positive, got %v", noiseCutoff)
	}
	floor := 1.0 / noiseCutoff

	perElement := make([][]pattern, len(p))
	for i, pair := range p {
		perElement[i] = elementPatterns(pair.Isotopes, pair.Count, floor)
		if len(perElement[i]) == 0 {
			return nil, fmt.Errorf("isotopologue: element %s produced no surviving partition", pair.Symbol)
		}
	}

	var variants []Variant
	combo := make([]pattern, len(p))
	var walk func(elementIdx int)
	walk = func(elementIdx int) {
		if elementIdx == len(p) {
			if v, ok := assemble(p, combo, ion); ok {
				variants = append(variants, v)
			}
			return
		}
		for _, pat := range perElement[elementIdx] {
			combo[elementIdx] = pat
			walk(elementIdx + 1)
		}
	}
	walk(0)

	if len(variants) == 0 {
		return nil, fmt.Errorf("isotopologue: no isotopologue survived pruning")
	}

	head := variants[0]
	tail := variants[1:]
	sort.SliceStable(tail, func(i, j int) bool { return tail[i].Abundance > tail[j].Abundance })
	variants = append([]Variant{head}, tail...)

	if debug != nil {
		var b strings.Builder
		for _, v := range variants {
			fmt.Fprintf(&b, "%s,%0.6f,%0.6f\n", v.Name, v.Mass, v.Abundance)
		}
		if _, err := io.WriteString(debug, b.String()); err != nil {
			return nil, fmt.Errorf("isotopologue: writing debug trace: %w", err)
		}
	}

	return variants, nil
}

// elementPatterns enumerates every surviving partition of n atoms across
// isotopes (sorted descending by abundance), pruning a partition as soon
// as any of its isotope groups falls below floor. Iterating the most
// abundant isotope's count from n down to 0 guarantees the first
// surviving pattern is the all-monoisotopic partition.
func elementPatterns(isotopes []isotope.Isotope, n int, floor float64) []pattern {
	l := len(isotopes)
	counts := make([]int, l)
	var out []pattern

	var rec func(pos, remaining int)
	rec = func(pos, remaining int) {
		if pos == l-1 {
			counts[pos] = remaining
			if pat, ok := buildPattern(isotopes, counts, floor); ok {
				out = append(out, pat)
			}
			return
		}
		for c := remaining; c >= 0; c-- {
			counts[pos] = c
			rec(pos+1, remaining-c)
		}
	}
	rec(0, n)
	return out
}

func buildPattern(isotopes []isotope.Isotope, counts []int, floor float64) (pattern, bool) {
	var groups []group
	for j, c := range counts {
		if c == 0 {
			continue
		}
		iso := isotopes[j]
		ratio := math.Pow(iso.Abundance/iso.MaxAbundance, float64(c))
		if ratio < floor {
			return pattern{}, false
		}
		groups = append(groups, group{Isotope: iso, Count: c})
	}
	return pattern{groups: groups}, true
}

// assemble turns one Cartesian product point (one surviving pattern per
// element) into a Variant, applying the non-multinomial abundance
// weighting: each non-monoisotopic group in an element's pattern
// contributes (abundance/max_abundance)^count, multiplied by the
// element's total atom count rather than a true multinomial coefficient.
// This mirrors the reference implementation's simplification exactly;
// see DESIGN.md for the rationale.
func assemble(p formula.ParsedFormula, combo []pattern, ion mass.Ion) (Variant, bool) {
	abundance := 1.0
	var assignment []mass.IsotopeCount
	var name strings.Builder

	for i, pair := range p {
		for _, g := range combo[i].groups {
			assignment = append(assignment, mass.IsotopeCount{ExactMass: g.Isotope.ExactMass, Count: g.Count})
			if g.Isotope.Abundance != g.Isotope.MaxAbundance {
				abundance *= math.Pow(g.Isotope.Abundance/g.Isotope.MaxAbundance, float64(g.Count)) * float64(pair.Count)
			}
			fmt.Fprintf(&name, "[%d]%s%d ", g.Isotope.NominalMass, g.Isotope.Symbol, g.Count)
		}
	}

	if abundance < globalAbundanceFloor {
		return Variant{}, false
	}

	return Variant{
		Mass:      mass.Exact(assignment, ion),
		Abundance: abundance,
		Name:      strings.TrimSpace(name.String()),
	}, true
}
