package analyzer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteTSV renders a Report in the four-line-header layout described in
// the external interfaces: a log file pointer, per-sample group
// headers, an optional per-database sub-header (only when more than one
// database was analyzed), and the column-name row, followed by one line
// per surviving compound.
func WriteTSV(w io.Writer, report *Report, logPath string) error {
	bw := bufio.NewWriter(w)

	numDB := len(report.DatabaseNames)
	numSample := len(report.SampleNames)
	blockWidth := 4 * numDB

	if _, err := fmt.Fprintf(bw, "Log file\t%s\n", logPath); err != nil {
		return err
	}

	fixedWidth := 9 + numDB
	sampleHeader := make([]string, fixedWidth, fixedWidth+numSample*blockWidth)
	for _, name := range report.SampleNames {
		sampleHeader = append(sampleHeader, name)
		for i := 1; i < blockWidth; i++ {
			sampleHeader = append(sampleHeader, "")
		}
	}
	if _, err := fmt.Fprintln(bw, strings.Join(sampleHeader, "\t")); err != nil {
		return err
	}

	if numDB > 1 {
		dbHeader := make([]string, fixedWidth, fixedWidth+numSample*blockWidth)
		for i := 0; i < numSample; i++ {
			for _, dbName := range report.DatabaseNames {
				dbHeader = append(dbHeader, dbName, "", "", "")
			}
		}
		if _, err := fmt.Fprintln(bw, strings.Join(dbHeader, "\t")); err != nil {
			return err
		}
	}

	fieldNames := []string{"CF", "ID", "Name", "C", "H", "N", "O", "P", "S"}
	for _, dbName := range report.DatabaseNames {
		fieldNames = append(fieldNames, dbName+"_mass")
	}
	for i := 0; i < numSample; i++ {
		for j := 0; j < numDB; j++ {
			fieldNames = append(fieldNames, "mass_measured", "error_ppm", "intensity", "iso_count")
		}
	}
	if _, err := fmt.Fprintln(bw, strings.Join(fieldNames, "\t")); err != nil {
		return err
	}

	for _, row := range report.Rows {
		fields := []string{row.CF, row.ID, row.Name, row.C, row.H, row.N, row.O, row.P, row.S}
		fields = append(fields, row.DBMass...)
		for sampleIdx := 0; sampleIdx < numSample; sampleIdx++ {
			for dbIdx := 0; dbIdx < numDB; dbIdx++ {
				cell := row.Cells[sampleIdx][dbIdx]
				fields = append(fields, cell.MeasuredMass, cell.PPMError, cell.Intensity, cell.IsoCount)
			}
		}
		if _, err := fmt.Fprintln(bw, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}

	return bw.Flush()
}
