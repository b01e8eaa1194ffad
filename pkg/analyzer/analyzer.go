// Package analyzer orchestrates matching of cached compound databases
// against sample spectra, producing the tabular MIMI report.
package analyzer

import (
	"math"
	"strconv"

	"github.com/lgalanti/mimi-go/internal/runlog"
	"github.com/lgalanti/mimi-go/pkg/cache"
	"github.com/lgalanti/mimi-go/pkg/formula"
	"github.com/lgalanti/mimi-go/pkg/isotope"
	"github.com/lgalanti/mimi-go/pkg/mass"
	"github.com/lgalanti/mimi-go/pkg/spectrum"
)

// cfConflictFloor is the mass difference, in Da, above which two
// databases reporting the same id with different formula strings are
// treated as a genuine conflict rather than an equivalent spelling.
const cfConflictFloor = 1e-6

// isotopeValidationThreshold is the relative-error ceiling below which an
// observed peak is accepted as confirming a predicted isotopologue.
const isotopeValidationThreshold = 0.3

// Sample is one loaded, indexed sample spectrum.
type Sample struct {
	Name     string
	Spectrum *spectrum.Spectrum
	Index    *spectrum.Index
}

// NewSample builds an indexed Sample from an already-sorted spectrum.
func NewSample(name string, s *spectrum.Spectrum) Sample {
	return Sample{Name: name, Spectrum: s, Index: spectrum.Build(s)}
}

// Database is one cache, plus the display name used as its report
// column header (conventionally the cache file's base name).
type Database struct {
	Name string
	DB   *cache.Database
}

// Tolerance bundles the two ppm windows the Analyzer is run with,
// already normalized to a unitless ratio (5ppm == 5e-6, not 5).
type Tolerance struct {
	Monoisotopic float64
	Verification float64
}

// Analyzer matches a set of compound databases against a set of sample
// spectra within a Tolerance and assembles a Report.
type Analyzer struct {
	Databases []Database
	Samples   []Sample
	Tolerance Tolerance
	Isotopes  *isotope.Table
	Logger    *runlog.Logger
}

// Cell is one (sample, database) measurement for a matched compound.
type Cell struct {
	MeasuredMass string
	PPMError     string
	Intensity    string
	IsoCount     string
}

// Row is one compound's report line, spanning every database and
// sample column.
type Row struct {
	CF, ID, Name           string
	C, H, N, O, P, S       string
	DBMass                 []string
	dbFormula              []string
	Cells                  [][]Cell // Cells[sampleIdx][dbIdx]
}

// Report is the ordered set of surviving rows plus the column headers
// needed to render it.
type Report struct {
	DatabaseNames []string
	SampleNames   []string
	Rows          []*Row
}

// massBin is a compound-id bucket keyed by floor(monoisotopic mass),
// expanded to the bin below and above, mirroring PeakIndex's own
// tolerance-bucketing trick but over compounds rather than peaks.
type massBin map[int][]string

func buildMassBins(db *cache.Database) massBin {
	idx := massBin{}
	for _, id := range db.IDs() {
		c, _ := db.Get(id)
		m := int(c.MonoisotopicMass)
		for _, b := range [3]int{m - 1, m, m + 1} {
			idx[b] = append(idx[b], id)
		}
	}
	return idx
}

// Run executes the full matching pass and returns the assembled report.
func (a *Analyzer) Run() (*Report, error) {
	report := &Report{}
	for _, d := range a.Databases {
		report.DatabaseNames = append(report.DatabaseNames, d.Name)
	}
	for _, s := range a.Samples {
		report.SampleNames = append(report.SampleNames, s.Name)
	}

	rows := map[string]*Row{}
	var order []string

	avgSampleSize := a.averageSampleSize()

	for dbIdx, d := range a.Databases {
		dbSize := d.DB.Len()
		if float64(dbSize) > 10*avgSampleSize {
			a.runDatabaseDominated(d, dbIdx, rows, &order)
		} else {
			a.runSampleDominated(d, dbIdx, rows, &order)
		}
	}

	for _, id := range order {
		row := rows[id]
		if allSentinel(row.DBMass) {
			continue
		}
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}

func (a *Analyzer) averageSampleSize() float64 {
	if len(a.Samples) == 0 {
		return 0
	}
	total := 0
	for _, s := range a.Samples {
		total += len(s.Spectrum.Peaks)
	}
	return float64(total) / float64(len(a.Samples))
}

func allSentinel(dbMass []string) bool {
	for _, v := range dbMass {
		if v != "NO_MAPPED_ID" && v != "NO_MASS_MATCH" && v != "CF_CONFLICT" {
			return false
		}
	}
	return true
}

// runSampleDominated is the default strategy: for each compound in the
// database, probe every sample's PeakIndex for the monoisotopic mass and
// process the first (lowest-index) hit.
func (a *Analyzer) runSampleDominated(d Database, dbIdx int, rows map[string]*Row, order *[]string) {
	for _, id := range d.DB.IDs() {
		c, _ := d.DB.Get(id)
		row := a.visit(rows, order, id, c, dbIdx)

		for sampleIdx, s := range a.Samples {
			hits := s.Index.Search(c.MonoisotopicMass, a.Tolerance.Monoisotopic)
			if len(hits) == 0 {
				continue
			}
			a.processMatch(row, dbIdx, sampleIdx, hits[0], c, s)
		}
	}
}

// runDatabaseDominated is used when the database is much larger than the
// samples: it walks each sample's peaks once and looks up the candidate
// compound ids from the database's mass bins instead of probing the
// sample index once per compound. Dedup is scoped per sample (first
// matching peak within that sample's scan), matching runSampleDominated's
// semantics of crediting a compound independently in every sample that
// hits, so both strategies agree on the same inputs.
func (a *Analyzer) runDatabaseDominated(d Database, dbIdx int, rows map[string]*Row, order *[]string) {
	bins := buildMassBins(d.DB)

	firstMatch := make([]map[string]int, len(a.Samples)) // firstMatch[sampleIdx][id] = peakIdx
	for sampleIdx, s := range a.Samples {
		matched := map[string]int{}
		for peakIdx, p := range s.Spectrum.Peaks {
			m := int(p.Mass)
			var candidates []string
			for _, b := range [3]int{m - 1, m, m + 1} {
				candidates = append(candidates, bins[b]...)
			}
			for _, id := range candidates {
				if _, already := matched[id]; already {
					continue
				}
				c, _ := d.DB.Get(id)
				if math.Abs(p.Mass-c.MonoisotopicMass) <= c.MonoisotopicMass*a.Tolerance.Monoisotopic {
					matched[id] = peakIdx
				}
			}
		}
		firstMatch[sampleIdx] = matched
	}

	for _, id := range d.DB.IDs() {
		c, _ := d.DB.Get(id)
		row := a.visit(rows, order, id, c, dbIdx)

		for sampleIdx, matched := range firstMatch {
			if peakIdx, ok := matched[id]; ok {
				a.processMatch(row, dbIdx, sampleIdx, peakIdx, c, a.Samples[sampleIdx])
			}
		}
	}
}

// visit ensures a Row exists for id, sets this database's mass column to
// the NO_MASS_MATCH default, and resolves any CF_CONFLICT against the
// formula the row was first created with.
func (a *Analyzer) visit(rows map[string]*Row, order *[]string, id string, c cache.Compound, dbIdx int) *Row {
	row, exists := rows[id]
	if !exists {
		row = &Row{
			CF:        c.Formula,
			ID:        id,
			Name:      c.Name,
			C:         countStr(c.Parsed, "C"),
			H:         countStr(c.Parsed, "H"),
			N:         countStr(c.Parsed, "N"),
			O:         countStr(c.Parsed, "O"),
			P:         countStr(c.Parsed, "P"),
			S:         countStr(c.Parsed, "S"),
			DBMass:    make([]string, len(a.Databases)),
			dbFormula: make([]string, len(a.Databases)),
			Cells:     make([][]Cell, len(a.Samples)),
		}
		for i := range row.DBMass {
			row.DBMass[i] = "NO_MAPPED_ID"
		}
		for i := range row.Cells {
			row.Cells[i] = make([]Cell, len(a.Databases))
		}
		rows[id] = row
		*order = append(*order, id)
	}

	row.dbFormula[dbIdx] = c.Formula
	row.DBMass[dbIdx] = "NO_MASS_MATCH"

	if row.CF != c.Formula {
		a.resolveCFConflict(row, dbIdx, c)
	}

	return row
}

func (a *Analyzer) resolveCFConflict(row *Row, dbIdx int, c cache.Compound) {
	currentMass, currentOK := a.neutralMass(c.Formula)
	existingMass, existingOK := a.neutralMass(row.CF)

	if !currentOK || !existingOK || math.Abs(currentMass-existingMass) > cfConflictFloor {
		row.DBMass[dbIdx] = "CF_CONFLICT"
		if a.Logger != nil {
			a.Logger.Printf("CF_CONFLICT detected for compound ID: %s", row.ID)
			a.Logger.Printf("  database %d: %s (mass %.6f)", dbIdx+1, c.Formula, currentMass)
			a.Logger.Printf("  existing entry: %s (mass %.6f)", row.CF, existingMass)
			a.Logger.Printf("  reason: same compound id with different formulas and masses across databases")
		}
		return
	}

	if a.Logger != nil {
		a.Logger.Printf("INFO: formula representation difference for compound ID: %s", row.ID)
		a.Logger.Printf("  database %d: %s, existing entry: %s, both mass %.6f", dbIdx+1, c.Formula, row.CF, currentMass)
	}
}

func (a *Analyzer) neutralMass(f string) (float64, bool) {
	parsed, err := formula.Parse(a.Isotopes, f)
	if err != nil {
		return 0, false
	}
	return mass.Monoisotopic(parsed, mass.Neutral), true
}

// processMatch validates the predicted isotopologue pattern against the
// sample at the hit peak and records the measurement in row.Cells.
func (a *Analyzer) processMatch(row *Row, dbIdx, sampleIdx, peakIdx int, c cache.Compound, s Sample) {
	row.DBMass[dbIdx] = formatMass(c.MonoisotopicMass)

	peak := s.Spectrum.Peaks[peakIdx]
	firstIntensity := peak.Intensity

	matchedIsotopeCount := 0
	for _, v := range c.Isotopologues[1:] {
		hits := s.Index.Search(v.Mass, a.Tolerance.Verification)
		if len(hits) == 0 {
			continue
		}
		matchedIsotopeCount++

		for _, hitIdx := range hits {
			observed := s.Spectrum.Peaks[hitIdx]
			ratio := observed.Intensity / firstIntensity
			errorRate := math.Abs(v.Abundance-ratio) / math.Abs(v.Abundance)

			if a.Logger != nil && a.Logger.DebugEnabled() {
				a.Logger.Debugf("%s : %v abundance=%v intensity=%v ratio=%v error=%v",
					v.Name, v.Mass, v.Abundance, observed.Intensity, ratio, errorRate)
			}

			if errorRate < isotopeValidationThreshold {
				break
			}
		}
	}

	ppmError := (c.MonoisotopicMass - peak.Mass) / c.MonoisotopicMass * 1e6

	row.Cells[sampleIdx][dbIdx] = Cell{
		MeasuredMass: formatMass(peak.Mass),
		PPMError:     strconv.FormatFloat(ppmError, 'f', -1, 64),
		Intensity:    strconv.FormatFloat(peak.Intensity, 'f', -1, 64),
		IsoCount:     strconv.Itoa(matchedIsotopeCount),
	}
}

func formatMass(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}

func countStr(p formula.ParsedFormula, symbol string) string {
	return strconv.Itoa(p.AtomCount(symbol))
}
