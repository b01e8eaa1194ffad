// Package sqlitedump exports a cache.Database into a SQLite file for
// ad-hoc SQL inspection, storing each compound's isotopologue mass and
// abundance series as little-endian float64 blobs, one blob per series.
package sqlitedump

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lgalanti/mimi-go/pkg/cache"
)

const schema = `
CREATE TABLE IF NOT EXISTS CacheMetadata (
	CreationDate TEXT,
	MimiVersion TEXT,
	IonizationMode TEXT,
	FullCommand TEXT,
	IsotopeTablePath TEXT,
	LabelledAtomsOverlay TEXT
);

CREATE TABLE IF NOT EXISTS Compound (
	CompoundId TEXT PRIMARY KEY,
	Formula TEXT,
	Name TEXT,
	MonoisotopicMass DOUBLE,
	IsotopologueCount INTEGER,
	IsotopologueLabels TEXT,
	blobMass BLOB,
	blobAbundance BLOB
);
`

// Write renders d into a fresh SQLite file at path, overwriting any
// existing file of that name.
func Write(path string, d *cache.Database) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("sqlitedump: removing existing %q: %w", path, err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("sqlitedump: opening %q: %w", path, err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlitedump: creating schema: %w", err)
	}

	if _, err := db.Exec(
		`INSERT INTO CacheMetadata (CreationDate, MimiVersion, IonizationMode, FullCommand, IsotopeTablePath, LabelledAtomsOverlay) VALUES (?, ?, ?, ?, ?, ?)`,
		d.Metadata.CreationDate.Format("2006-01-02T15:04:05"),
		d.Metadata.MimiVersion,
		d.Metadata.IonizationMode,
		d.Metadata.FullCommand,
		d.Metadata.IsotopeTablePath,
		d.Metadata.LabelledAtomsOverlay,
	); err != nil {
		return fmt.Errorf("sqlitedump: inserting metadata: %w", err)
	}

	compoundStmt, err := db.Prepare(`
		INSERT INTO Compound (
			CompoundId, Formula, Name, MonoisotopicMass,
			IsotopologueCount, IsotopologueLabels, blobMass, blobAbundance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlitedump: preparing compound statement: %w", err)
	}
	defer compoundStmt.Close()

	for _, id := range d.IDs() {
		c, _ := d.Get(id)

		masses := make([]float64, len(c.Isotopologues))
		abundances := make([]float64, len(c.Isotopologues))
		labels := make([]string, len(c.Isotopologues))
		for i, v := range c.Isotopologues {
			masses[i] = v.Mass
			abundances[i] = v.Abundance
			labels[i] = v.Name
		}

		_, err := compoundStmt.Exec(
			id, c.Formula, c.Name, c.MonoisotopicMass,
			len(c.Isotopologues), strings.Join(labels, "\n"),
			encodeFloat64Blob(masses), encodeFloat64Blob(abundances),
		)
		if err != nil {
			return fmt.Errorf("sqlitedump: inserting compound %q: %w", id, err)
		}
	}

	return nil
}

// encodeFloat64Blob packs a float64 series as little-endian bytes, one
// compound's isotopologue mass or abundance list per blob.
func encodeFloat64Blob(values []float64) []byte {
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}
