// Package hmdb extracts compound-database rows from an HMDB metabolites
// XML export, streaming the file so it never needs to fit in memory.
package hmdb

import (
	"encoding/xml"
	"io"
	"strconv"

	"github.com/lgalanti/mimi-go/pkg/formula"
	"github.com/lgalanti/mimi-go/pkg/isotope"
)

// Metabolite is one extracted HMDB entry, ready to be written as a
// compound-database TSV row.
type Metabolite struct {
	ID              string
	Name            string
	ChemicalFormula string
}

// Skip records a metabolite dropped during extraction and why.
type Skip struct {
	Metabolite Metabolite
	Reason     string
}

// Options bounds extraction by average molecular weight, when either
// field is non-nil.
type Options struct {
	MinMass *float64
	MaxMass *float64
}

type rawMetabolite struct {
	XMLName                xml.Name `xml:"metabolite"`
	Accession              string   `xml:"accession"`
	Name                   string   `xml:"name"`
	ChemicalFormula        string   `xml:"chemical_formula"`
	AverageMolecularWeight string   `xml:"average_molecular_weight"`
}

// Extract streams an HMDB metabolites XML document, validating each
// entry's formula against table and, when Options bounds a mass range,
// filtering by average molecular weight. It returns the accepted
// metabolites in document order plus a record of every entry dropped for
// its mass or its formula. Entries missing an accession, name, or formula
// are dropped without a Skip record.
func Extract(r io.Reader, table *isotope.Table, opts Options) ([]Metabolite, []Skip, error) {
	decoder := xml.NewDecoder(r)

	var accepted []Metabolite
	var skipped []Skip

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "metabolite" {
			continue
		}

		var raw rawMetabolite
		if err := decoder.DecodeElement(&raw, &start); err != nil {
			return nil, nil, err
		}

		if raw.Accession == "" || raw.Name == "" || raw.ChemicalFormula == "" {
			continue
		}

		m := Metabolite{ID: raw.Accession, Name: raw.Name, ChemicalFormula: raw.ChemicalFormula}

		if opts.MinMass != nil || opts.MaxMass != nil {
			weight, err := strconv.ParseFloat(raw.AverageMolecularWeight, 64)
			if err != nil || outOfRange(weight, opts) {
				skipped = append(skipped, Skip{Metabolite: m, Reason: "outside mass range"})
				continue
			}
		}

		if _, err := formula.Parse(table, raw.ChemicalFormula); err != nil {
			skipped = append(skipped, Skip{Metabolite: m, Reason: err.Error()})
			continue
		}

		accepted = append(accepted, m)
	}

	return accepted, skipped, nil
}

func outOfRange(weight float64, opts Options) bool {
	if opts.MinMass != nil && weight < *opts.MinMass {
		return true
	}
	if opts.MaxMass != nil && weight > *opts.MaxMass {
		return true
	}
	return false
}
