package cache

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DumpOptions bounds a text Dump: zero means unbounded.
type DumpOptions struct {
	NumCompounds int
	NumIsotopes  int
}

// FormatFormulaWithMasses renders a parsed formula with each element's
// nominal mass bracketed ahead of its symbol, e.g. "C6H12O6" becomes
// "[12]C6[1]H12[16]O6", reusing the formula's own parsed isotope list so
// it always reflects the nominal mass actually used to build the cache
// (including any labelled-atom overlay).
func FormatFormulaWithMasses(d *Database) func(id string) string {
	return func(id string) string {
		c, ok := d.compounds[id]
		if !ok {
			return ""
		}
		var b strings.Builder
		for _, pair := range c.Parsed {
			fmt.Fprintf(&b, "[%d]%s", pair.Isotopes[0].NominalMass, pair.Symbol)
			if pair.Count != 1 {
				fmt.Fprintf(&b, "%d", pair.Count)
			}
		}
		return b.String()
	}
}

// Dump writes a human-readable rendering of a Database to w: the
// metadata header, then one block per compound (bounded by
// opts.NumCompounds), each listing its isotopologue variants (bounded by
// opts.NumIsotopes).
func Dump(w io.Writer, d *Database, opts DumpOptions) error {
	bw := bufio.NewWriter(w)
	formatCF := FormatFormulaWithMasses(d)

	fmt.Fprintln(bw, "# Cache Metadata:")
	fmt.Fprintf(bw, "# Creation Date: %s\n", d.Metadata.CreationDate.Format("2006-01-02T15:04:05"))
	fmt.Fprintf(bw, "# MIMI Version: %s\n", orUnknown(d.Metadata.MimiVersion))
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "# Creation Parameters:")
	fmt.Fprintf(bw, "# Full Command: %s\n", orUnknown(d.Metadata.FullCommand))
	fmt.Fprintf(bw, "# Ionization Mode: %s\n", orUnknown(d.Metadata.IonizationMode))
	fmt.Fprintf(bw, "# Labeled Atoms File: %s\n", orNone(d.Metadata.LabelledAtomsOverlay))
	fmt.Fprintf(bw, "# Compound DB Files: %s\n", strings.Join(d.Metadata.SourceDatabaseFiles, ", "))
	fmt.Fprintf(bw, "# Isotope Data File: %s\n", orUnknown(d.Metadata.IsotopeTablePath))
	fmt.Fprintln(bw)

	ids := d.IDs()
	if opts.NumCompounds > 0 && opts.NumCompounds < len(ids) {
		ids = ids[:opts.NumCompounds]
	}

	for _, id := range ids {
		c, _ := d.Get(id)
		fmt.Fprintln(bw, strings.Repeat("=", 60))
		fmt.Fprintf(bw, "Compound ID:      %s\n", id)
		fmt.Fprintf(bw, "Name:             %s\n", c.Name)
		fmt.Fprintf(bw, "Formula:          %s\n", formatCF(id))
		fmt.Fprintln(bw, "Mono-isotopic:    Yes (most abundant isotope)")
		fmt.Fprintf(bw, "Mass:             %.6f\n", c.MonoisotopicMass)
		fmt.Fprintln(bw, "Relative Abund:   1.000000 (reference)")
		fmt.Fprintln(bw, strings.Repeat("-", 60))

		variants := c.Isotopologues
		if len(variants) > 0 {
			variants = variants[1:]
		}
		if opts.NumIsotopes > 0 && opts.NumIsotopes < len(variants) {
			variants = variants[:opts.NumIsotopes]
		}

		if len(variants) > 0 {
			fmt.Fprintln(bw, "ISOTOPE VARIANTS:")
		}
		for i, v := range variants {
			fmt.Fprintf(bw, "  Variant #%d:\n", i+1)
			fmt.Fprintf(bw, "  Formula:        %s\n", v.Name)
			fmt.Fprintln(bw, "  Mono-isotopic:  No (isotope variant)")
			fmt.Fprintf(bw, "  Mass:           %.6f\n", v.Mass)
			fmt.Fprintf(bw, "  Relative Abund: %.6f (expected)\n", v.Abundance)
			fmt.Fprintln(bw, strings.Repeat("-", 60))
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
