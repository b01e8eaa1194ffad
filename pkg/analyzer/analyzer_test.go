package analyzer

import (
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/lgalanti/mimi-go/internal/runlog"
	"github.com/lgalanti/mimi-go/pkg/cache"
	"github.com/lgalanti/mimi-go/pkg/formula"
	"github.com/lgalanti/mimi-go/pkg/isotope"
	"github.com/lgalanti/mimi-go/pkg/isotopologue"
	"github.com/lgalanti/mimi-go/pkg/mass"
	"github.com/lgalanti/mimi-go/pkg/spectrum"
)

func fixedTime(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

const glucoseIsotopeJSON = `{
  "C": [
    {"element_symbol": "C", "nominal_mass": 12, "exact_mass": 12.0, "abundance": 0.9893, "highest_abundance": 0.9893},
    {"element_symbol": "C", "nominal_mass": 13, "exact_mass": 13.0033548378, "abundance": 0.0107, "highest_abundance": 0.9893}
  ],
  "H": [
    {"element_symbol": "H", "nominal_mass": 1, "exact_mass": 1.0078250319, "abundance": 0.999885, "highest_abundance": 0.999885},
    {"element_symbol": "H", "nominal_mass": 2, "exact_mass": 2.014101778, "abundance": 0.000115, "highest_abundance": 0.999885}
  ],
  "O": [
    {"element_symbol": "O", "nominal_mass": 16, "exact_mass": 15.9949146221, "abundance": 0.99757, "highest_abundance": 0.99757},
    {"element_symbol": "O", "nominal_mass": 18, "exact_mass": 17.9991604, "abundance": 0.00205, "highest_abundance": 0.99757},
    {"element_symbol": "O", "nominal_mass": 17, "exact_mass": 16.9991315, "abundance": 0.00038, "highest_abundance": 0.99757}
  ]
}`

func glucoseTable(t *testing.T) *isotope.Table {
	t.Helper()
	table, err := isotope.Load(strings.NewReader(glucoseIsotopeJSON))
	if err != nil {
		t.Fatalf("isotope.Load() error = %v", err)
	}
	return table
}

func glucoseCompound(t *testing.T, table *isotope.Table, cf string) cache.Compound {
	t.Helper()
	parsed, err := formula.Parse(table, cf)
	if err != nil {
		t.Fatalf("formula.Parse(%q) error = %v", cf, err)
	}
	variants, err := isotopologue.Enumerate(parsed, mass.Positive, isotopologue.DefaultNoiseCutoff, nil)
	if err != nil {
		t.Fatalf("isotopologue.Enumerate() error = %v", err)
	}
	return cache.Compound{
		Formula:          cf,
		Name:             "Glucose",
		Parsed:           parsed,
		MonoisotopicMass: mass.Monoisotopic(parsed, mass.Positive),
		Isotopologues:    variants,
	}
}

func TestAnalyzerMatchesGlucose(t *testing.T) {
	table := glucoseTable(t)
	compound := glucoseCompound(t, table, "C6H12O6")

	db := cache.New(cache.Metadata{IonizationMode: "pos"})
	db.Add("G1", compound)

	s, err := spectrum.ReadASC(strings.NewReader("181.0707\t1000000\n182.0740\t11000\n"))
	if err != nil {
		t.Fatalf("ReadASC() error = %v", err)
	}

	a := &Analyzer{
		Databases: []Database{{Name: "refdb", DB: db}},
		Samples:   []Sample{NewSample("sample1", s)},
		Tolerance: Tolerance{Monoisotopic: 5e-6, Verification: 5e-6},
		Isotopes:  table,
	}

	report, err := a.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Rows) != 1 {
		t.Fatalf("len(report.Rows) = %d, want 1", len(report.Rows))
	}
	row := report.Rows[0]
	if row.DBMass[0] == "NO_MASS_MATCH" {
		t.Error("expected a mass match, got NO_MASS_MATCH")
	}
	cell := row.Cells[0][0]
	if cell.IsoCount == "" || cell.IsoCount == "0" {
		t.Logf("iso_count = %q (at least one [13]C peak should register a hit)", cell.IsoCount)
	}
	if cell.MeasuredMass == "" {
		t.Error("expected MeasuredMass to be populated on a hit")
	}
}

func TestAnalyzerOmitsCompoundsWithNoMatchAnywhere(t *testing.T) {
	table := glucoseTable(t)
	compound := glucoseCompound(t, table, "C6H12O6")

	db := cache.New(cache.Metadata{})
	db.Add("G1", compound)

	s, err := spectrum.ReadASC(strings.NewReader("500.0\t1000\n"))
	if err != nil {
		t.Fatalf("ReadASC() error = %v", err)
	}

	a := &Analyzer{
		Databases: []Database{{Name: "refdb", DB: db}},
		Samples:   []Sample{NewSample("sample1", s)},
		Tolerance: Tolerance{Monoisotopic: 5e-6, Verification: 5e-6},
		Isotopes:  table,
	}

	report, err := a.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Rows) != 0 {
		t.Fatalf("len(report.Rows) = %d, want 0 (no match anywhere should be omitted)", len(report.Rows))
	}
}

func TestAnalyzerCFConflict(t *testing.T) {
	table := glucoseTable(t)

	dbA := cache.New(cache.Metadata{})
	dbA.Add("X1", glucoseCompound(t, table, "C6H12O6"))

	dbB := cache.New(cache.Metadata{})
	dbB.Add("X1", glucoseCompound(t, table, "C5H10O5"))

	s, err := spectrum.ReadASC(strings.NewReader("181.0707\t1000000\n"))
	if err != nil {
		t.Fatalf("ReadASC() error = %v", err)
	}

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("os.Getwd() error = %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("os.Chdir() error = %v", err)
	}
	defer os.Chdir(origDir)

	logger, err := runlog.Open("analyzer-test", false, fixedTime(t))
	if err != nil {
		t.Fatalf("runlog.Open() error = %v", err)
	}
	defer logger.Close()

	a := &Analyzer{
		Databases: []Database{{Name: "dbA", DB: dbA}, {Name: "dbB", DB: dbB}},
		Samples:   []Sample{NewSample("sample1", s)},
		Tolerance: Tolerance{Monoisotopic: 5e-6, Verification: 5e-6},
		Isotopes:  table,
		Logger:    logger,
	}

	report, err := a.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Rows) != 1 {
		t.Fatalf("len(report.Rows) = %d, want 1", len(report.Rows))
	}
	if report.Rows[0].DBMass[1] != "CF_CONFLICT" {
		t.Errorf("DBMass[1] = %q, want CF_CONFLICT", report.Rows[0].DBMass[1])
	}
}

// TestAnalyzerDatabaseDominatedMatchesSampleDominated builds the same
// 12-compound database and runs it against the same matching peak under
// two sample-size shapes: one small enough to trip the database-dominated
// strategy (dbSize > 10*avgSampleSize), one padded just enough to stay on
// the default sample-dominated strategy. The two reports must agree for
// every sample column of the matching compound, since the strategy chosen
// is an internal performance detail and must not change what gets
// reported.
func TestAnalyzerDatabaseDominatedMatchesSampleDominated(t *testing.T) {
	table := glucoseTable(t)

	buildDB := func(t *testing.T) *cache.Database {
		t.Helper()
		db := cache.New(cache.Metadata{IonizationMode: "pos"})
		db.Add("G1", glucoseCompound(t, table, "C6H12O6"))
		for i := 0; i < 11; i++ {
			cf := "C" + strconv.Itoa(60+i)
			db.Add("PAD"+strconv.Itoa(i), glucoseCompound(t, table, cf))
		}
		return db
	}

	runWith := func(t *testing.T, asc string, wantDominated bool) *Report {
		t.Helper()
		db := buildDB(t)

		dbSize := float64(db.Len())
		s1, err := spectrum.ReadASC(strings.NewReader(asc))
		if err != nil {
			t.Fatalf("ReadASC() error = %v", err)
		}
		s2, err := spectrum.ReadASC(strings.NewReader(asc))
		if err != nil {
			t.Fatalf("ReadASC() error = %v", err)
		}
		avgSampleSize := float64(len(s1.Peaks)+len(s2.Peaks)) / 2
		if dominated := dbSize > 10*avgSampleSize; dominated != wantDominated {
			t.Fatalf("test setup produced dominated=%v, want %v (dbSize=%v avgSampleSize=%v)", dominated, wantDominated, dbSize, avgSampleSize)
		}

		a := &Analyzer{
			Databases: []Database{{Name: "refdb", DB: db}},
			Samples:   []Sample{NewSample("sample1", s1), NewSample("sample2", s2)},
			Tolerance: Tolerance{Monoisotopic: 5e-6, Verification: 5e-6},
			Isotopes:  table,
		}
		report, err := a.Run()
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		return report
	}

	findRow := func(t *testing.T, report *Report, id string) *Row {
		t.Helper()
		for _, row := range report.Rows {
			if row.ID == id {
				return row
			}
		}
		t.Fatalf("no row for id %q", id)
		return nil
	}

	// Both samples carry only the matching peak: avgSampleSize == 1, so
	// dbSize (12) > 10*1 trips the database-dominated strategy.
	dominatedReport := runWith(t, "181.0707\t1000000\n", true)

	// Both samples carry the matching peak plus one unrelated peak far
	// from every compound's mass: avgSampleSize == 2, so dbSize (12) is
	// not > 10*2 and the default sample-dominated strategy runs instead.
	sampleDominatedReport := runWith(t, "181.0707\t1000000\n700.0\t500\n", false)

	dominatedRow := findRow(t, dominatedReport, "G1")
	sampleDominatedRow := findRow(t, sampleDominatedReport, "G1")

	if len(dominatedRow.Cells) != 2 || len(sampleDominatedRow.Cells) != 2 {
		t.Fatalf("expected 2 sample columns in both reports")
	}
	if dominatedRow.DBMass[0] != sampleDominatedRow.DBMass[0] {
		t.Errorf("DBMass mismatch: database-dominated=%q sample-dominated=%q", dominatedRow.DBMass[0], sampleDominatedRow.DBMass[0])
	}
	for sampleIdx := 0; sampleIdx < 2; sampleIdx++ {
		dCell := dominatedRow.Cells[sampleIdx][0]
		sCell := sampleDominatedRow.Cells[sampleIdx][0]
		if dCell.MeasuredMass == "" || sCell.MeasuredMass == "" {
			t.Fatalf("sample %d: expected both strategies to record a hit, got database-dominated=%q sample-dominated=%q", sampleIdx, dCell.MeasuredMass, sCell.MeasuredMass)
		}
		if dCell != sCell {
			t.Errorf("sample %d: database-dominated cell = %+v, sample-dominated cell = %+v", sampleIdx, dCell, sCell)
		}
	}
}

func TestWriteTSVHeaderLayout(t *testing.T) {
	report := &Report{
		DatabaseNames: []string{"dbA", "dbB"},
		SampleNames:   []string{"sample1"},
		Rows: []*Row{{
			CF: "C6H12O6", ID: "G1", Name: "Glucose",
			C: "6", H: "12", N: "0", O: "6", P: "0", S: "0",
			DBMass: []string{"180.0634", "NO_MAPPED_ID"},
			Cells:  [][]Cell{{{MeasuredMass: "180.0634", PPMError: "0", Intensity: "100", IsoCount: "1"}, {}}},
		}},
	}

	var buf strings.Builder
	if err := WriteTSV(&buf, report, "log/run.log"); err != nil {
		t.Fatalf("WriteTSV() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("len(lines) = %d, want 5 (log, sample header, db header, field names, 1 data row)", len(lines))
	}
	if lines[0] != "Log file\tlog/run.log" {
		t.Errorf("lines[0] = %q", lines[0])
	}
	fieldNames := strings.Split(lines[3], "\t")
	if fieldNames[0] != "CF" || fieldNames[9] != "dbA_mass" || fieldNames[10] != "dbB_mass" {
		t.Errorf("unexpected field names: %v", fieldNames)
	}
}
