package hmdb

import (
	"strings"
	"testing"

	"github.com/lgalanti/mimi-go/pkg/isotope"
)

const testTableJSON = `{
  "C": [{"element_symbol": "C", "nominal_mass": 12, "exact_mass": 12.0, "abundance": 1.0, "highest_abundance": 1.0}],
  "H": [{"element_symbol": "H", "nominal_mass": 1, "exact_mass": 1.0, "abundance": 1.0, "highest_abundance": 1.0}],
  "O": [{"element_symbol": "O", "nominal_mass": 16, "exact_mass": 16.0, "abundance": 1.0, "highest_abundance": 1.0}]
}`

const sampleXML = `<?xml version="1.0"?>
<hmdb>
  <metabolite>
    <accession>HMDB0000001</accession>
    <name>Glucose</name>
    <chemical_formula>C6H12O6</chemical_formula>
    <average_molecular_weight>180.16</average_molecular_weight>
  </metabolite>
  <metabolite>
    <accession>HMDB0000002</accession>
    <name>Unobtainium</name>
    <chemical_formula>Xx2</chemical_formula>
    <average_molecular_weight>999.0</average_molecular_weight>
  </metabolite>
</hmdb>`

func testTable(t *testing.T) *isotope.Table {
	t.Helper()
	table, err := isotope.Load(strings.NewReader(testTableJSON))
	if err != nil {
		t.Fatalf("isotope.Load() error = %v", err)
	}
	return table
}

func TestExtractAcceptsValidFormula(t *testing.T) {
	accepted, skipped, err := Extract(strings.NewReader(sampleXML), testTable(t), Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(accepted) != 1 {
		t.Fatalf("len(accepted) = %d, want 1", len(accepted))
	}
	if accepted[0].ID != "HMDB0000001" || accepted[0].ChemicalFormula != "C6H12O6" {
		t.Errorf("accepted[0] = %+v, unexpected", accepted[0])
	}
	if len(skipped) != 1 {
		t.Fatalf("len(skipped) = %d, want 1 (unparseable formula)", len(skipped))
	}
}

func TestExtractFiltersByMassRange(t *testing.T) {
	maxMass := 100.0
	accepted, skipped, err := Extract(strings.NewReader(sampleXML), testTable(t), Options{MaxMass: &maxMass})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(accepted) != 0 {
		t.Fatalf("len(accepted) = %d, want 0 (both entries exceed max mass or fail parsing)", len(accepted))
	}
	if len(skipped) != 2 {
		t.Fatalf("len(skipped) = %d, want 2", len(skipped))
	}
}
