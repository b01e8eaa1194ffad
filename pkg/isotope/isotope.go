// Package isotope provides the process-wide table mapping element symbols
// to their isotopes, loaded once at startup and read-only thereafter.
package isotope

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// ErrInvalidIsotopeData is returned when a loaded table violates the
// abundance-sum, ordering, or max-abundance invariants.
var ErrInvalidIsotopeData = errors.New("isotope: invalid isotope data")

// ErrUnknownElement is returned by Get when the symbol has no entry.
var ErrUnknownElement = errors.New("isotope: unknown element")

// ErrNoSuchIsotope is returned by ExactMass when no isotope matches the
// requested nominal mass.
var ErrNoSuchIsotope = errors.New("isotope: no such isotope")

// Isotope is a single nuclide of an element.
type Isotope struct {
	Symbol       string
	NominalMass  int
	ExactMass    float64
	Abundance    float64
	MaxAbundance float64
}

// rawIsotope mirrors the on-disk JSON record shape (spec section 6).
type rawIsotope struct {
	ElementSymbol    string  `json:"element_symbol"`
	NominalMass      int     `json:"nominal_mass"`
	ExactMass        float64 `json:"exact_mass"`
	Abundance        float64 `json:"abundance"`
	HighestAbundance float64 `json:"highest_abundance"`
}

// Table is the process-wide, read-only isotope table.
type Table struct {
	elements map[string][]Isotope
}

// Load parses a reference isotope file and validates it per the invariants
// in spec section 4.1: abundances must sum bit-exactly to 1.0 per element,
// the first entry must be the maximum, and max-abundance must be uniform.
func Load(r io.Reader) (*Table, error) {
	raw := map[string][]rawIsotope{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("isotope: decode: %w", err)
	}

	t := &Table{elements: make(map[string][]Isotope, len(raw))}
	if err := t.merge(raw); err != nil {
		return nil, err
	}
	return t, nil
}

// Overlay loads an alternative isotope distribution (e.g. a 13C-enrichment
// table) on top of the table, replacing the specified elements wholesale.
// Validation rules are identical to Load.
func (t *Table) Overlay(r io.Reader) error {
	raw := map[string][]rawIsotope{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return fmt.Errorf("isotope: decode overlay: %w", err)
	}
	return t.merge(raw)
}

func (t *Table) merge(raw map[string][]rawIsotope) error {
	next := make(map[string][]Isotope, len(raw))
	for symbol, isotopes := range raw {
		if len(isotopes) == 0 {
			continue
		}

		sum := 0.0
		maxAbundance := isotopes[0].Abundance
		for _, iso := range isotopes {
			sum += iso.Abundance
			if iso.Abundance > maxAbundance {
				maxAbundance = iso.Abundance
			}
		}
		if sum != 1.0 {
			return fmt.Errorf("%w: element %s abundances sum to %v, want 1.0", ErrInvalidIsotopeData, symbol, sum)
		}

		sorted := make([]Isotope, len(isotopes))
		for i, iso := range isotopes {
			sorted[i] = Isotope{
				Symbol:       symbol,
				NominalMass:  iso.NominalMass,
				ExactMass:    iso.ExactMass,
				Abundance:    iso.Abundance,
				MaxAbundance: maxAbundance,
			}
		}
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Abundance > sorted[j].Abundance
		})

		if sorted[0].Abundance != maxAbundance {
			return fmt.Errorf("%w: element %s first isotope is not the highest abundance", ErrInvalidIsotopeData, symbol)
		}
		for _, iso := range sorted {
			if iso.MaxAbundance != maxAbundance {
				return fmt.Errorf("%w: element %s has inconsistent max_abundance", ErrInvalidIsotopeData, symbol)
			}
		}

		next[symbol] = sorted
	}

	for symbol, isotopes := range next {
		t.elements[symbol] = isotopes
	}
	return nil
}

// Get returns the ordered isotope list for an element symbol.
func (t *Table) Get(symbol string) ([]Isotope, error) {
	isotopes, ok := t.elements[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownElement, symbol)
	}
	return isotopes, nil
}

// ExactMass returns the exact mass of a specific isotope of an element.
func (t *Table) ExactMass(symbol string, nominalMass int) (float64, error) {
	isotopes, err := t.Get(symbol)
	if err != nil {
		return 0, err
	}
	for _, iso := range isotopes {
		if iso.NominalMass == nominalMass {
			return iso.ExactMass, nil
		}
	}
	return 0, fmt.Errorf("%w: %s-%d", ErrNoSuchIsotope, symbol, nominalMass)
}
