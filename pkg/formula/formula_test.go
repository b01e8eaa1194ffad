package formula

import (
	"strings"
	"testing"

	"github.com/lgalanti/mimi-go/pkg/isotope"
)

const testTableJSON = `{
  "C": [{"element_symbol": "C", "nominal_mass": 12, "exact_mass": 12.0, "abundance": 1.0, "highest_abundance": 1.0}],
  "H": [{"element_symbol": "H", "nominal_mass": 1, "exact_mass": 1.0, "abundance": 1.0, "highest_abundance": 1.0}],
  "O": [{"element_symbol": "O", "nominal_mass": 16, "exact_mass": 16.0, "abundance": 1.0, "highest_abundance": 1.0}],
  "Na": [{"element_symbol": "Na", "nominal_mass": 23, "exact_mass": 23.0, "abundance": 1.0, "highest_abundance": 1.0}],
  "Cl": [{"element_symbol": "Cl", "nominal_mass": 35, "exact_mass": 35.0, "abundance": 1.0, "highest_abundance": 1.0}]
}`

func testTable(t *testing.T) *isotope.Table {
	t.Helper()
	table, err := isotope.Load(strings.NewReader(testTableJSON))
	if err != nil {
		t.Fatalf("isotope.Load() error = %v", err)
	}
	return table
}

func TestParseGlucose(t *testing.T) {
	table := testTable(t)
	p, err := Parse(table, "C6H12O6")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []struct {
		symbol string
		count  int
	}{{"C", 6}, {"H", 12}, {"O", 6}}
	if len(p) != len(want) {
		t.Fatalf("len(p) = %d, want %d", len(p), len(want))
	}
	for i, w := range want {
		if p[i].Symbol != w.symbol || p[i].Count != w.count {
			t.Errorf("p[%d] = %s%d, want %s%d", i, p[i].Symbol, p[i].Count, w.symbol, w.count)
		}
	}
}

func TestParseNaCl(t *testing.T) {
	table := testTable(t)
	p, err := Parse(table, "NaCl")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(p) != 2 || p[0].Symbol != "Na" || p[0].Count != 1 || p[1].Symbol != "Cl" || p[1].Count != 1 {
		t.Errorf("Parse(NaCl) = %+v, want [(Na,1) (Cl,1)]", p)
	}
}

func TestParseUnknownElement(t *testing.T) {
	table := testTable(t)
	if _, err := Parse(table, "Xx2"); err == nil {
		t.Fatal("Parse(Xx2) expected ErrUnknownElement")
	}
}

func TestParseDuplicateElementsNotMerged(t *testing.T) {
	table := testTable(t)
	p, err := Parse(table, "CHC")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(p) != 3 {
		t.Fatalf("len(p) = %d, want 3 (duplicates kept separate)", len(p))
	}
}

func TestStringRoundTrip(t *testing.T) {
	table := testTable(t)
	for _, in := range []string{"C6H12O6", "NaCl", "H2O"} {
		p, err := Parse(table, in)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", in, err)
		}
		if got := p.String(); got != in {
			t.Errorf("String() = %q, want %q", got, in)
		}
	}
}

func TestAtomCount(t *testing.T) {
	table := testTable(t)
	p, err := Parse(table, "C6H12O6")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if n := p.AtomCount("C"); n != 6 {
		t.Errorf("AtomCount(C) = %d, want 6", n)
	}
	if n := p.AtomCount("P"); n != 0 {
		t.Errorf("AtomCount(P) = %d, want 0", n)
	}
}
