// Package data embeds the reference isotope abundance table shipped with
// the binary, so every CLI tool has a working default without needing an
// external file on disk.
package data

import (
	"bytes"
	_ "embed"
	"io"
)

//go:embed natural_isotope_abundance_NIST.json
var naturalIsotopeAbundanceNIST []byte

// DefaultIsotopeTable returns a fresh reader over the embedded NIST
// natural-abundance isotope table.
func DefaultIsotopeTable() io.Reader {
	return bytes.NewReader(naturalIsotopeAbundanceNIST)
}
