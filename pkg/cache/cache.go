// Package cache serializes and deserializes precomputed compound
// databases (the output of cache-create, the input of analyze and
// cache-dump) as a versioned, self-describing binary envelope.
package cache

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lgalanti/mimi-go/pkg/formula"
	"github.com/lgalanti/mimi-go/pkg/isotopologue"
)

// ErrIncompatibleCache is returned when a cache envelope carries a
// version this build does not know how to decode.
var ErrIncompatibleCache = errors.New("cache: incompatible cache version")

var magic = [8]byte{'M', 'I', 'M', 'I', 'C', 'A', 'C', 'H'}

// currentVersion is bumped whenever the payload's gob-encoded shape
// changes in a way that breaks older readers.
const currentVersion uint16 = 1

// Metadata records the provenance of a cache: how and when it was
// built, so a later analysis run (or cache-dump) can report it.
type Metadata struct {
	CreationDate         time.Time
	MimiVersion          string
	IonizationMode       string
	FullCommand          string
	SourceDatabaseFiles  []string
	IsotopeTablePath     string
	LabelledAtomsOverlay string
}

// Compound is one cached entry: its formula, parsed representation,
// monoisotopic mass, and full isotopologue list.
type Compound struct {
	Formula          string
	Name             string
	Parsed           formula.ParsedFormula
	MonoisotopicMass float64
	Isotopologues    []isotopologue.Variant
}

// Database is an ordered mapping of compound id to Compound, together
// with the metadata describing how it was built. Insertion order is
// preserved so iteration is deterministic.
type Database struct {
	Metadata  Metadata
	order     []string
	compounds map[string]Compound
}

// New returns an empty Database ready to accept compounds via Add.
func New(meta Metadata) *Database {
	return &Database{Metadata: meta, compounds: make(map[string]Compound)}
}

// Add inserts or replaces the compound at id. A replacement keeps its
// original position in iteration order.
func (d *Database) Add(id string, c Compound) {
	if _, exists := d.compounds[id]; !exists {
		d.order = append(d.order, id)
	}
	d.compounds[id] = c
}

// Get looks up a compound by id.
func (d *Database) Get(id string) (Compound, bool) {
	c, ok := d.compounds[id]
	return c, ok
}

// IDs returns compound ids in insertion order.
func (d *Database) IDs() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Len returns the number of compounds in the database.
func (d *Database) Len() int {
	return len(d.compounds)
}

// gobPayload is the shape actually handed to encoding/gob; Database
// keeps its map and order slice private so callers must go through
// Add/Get/IDs, but gob needs exported fields to encode them.
type gobPayload struct {
	Metadata  Metadata
	Order     []string
	Compounds map[string]Compound
}

// Write serializes a Database to path as a versioned binary envelope:
// 8 magic bytes, a 2-byte version, then a gob-encoded payload.
func Write(path string, d *Database) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cache: creating %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write(magic[:]); err != nil {
		return fmt.Errorf("cache: writing magic: %w", err)
	}
	if err := writeUint16(w, currentVersion); err != nil {
		return fmt.Errorf("cache: writing version: %w", err)
	}

	var buf bytes.Buffer
	payload := gobPayload{Metadata: d.Metadata, Order: d.order, Compounds: d.compounds}
	if err := gob.NewEncoder(&buf).Encode(&payload); err != nil {
		return fmt.Errorf("cache: encoding payload: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("cache: writing payload: %w", err)
	}

	return w.Flush()
}

// Read deserializes a Database previously written by Write. It returns
// ErrIncompatibleCache if the envelope's magic or version is not one
// this build recognizes.
func Read(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %q: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var gotMagic [8]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatibleCache, err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrIncompatibleCache)
	}

	version, err := readUint16(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatibleCache, err)
	}
	if version != currentVersion {
		return nil, fmt.Errorf("%w: version %d", ErrIncompatibleCache, version)
	}

	var payload gobPayload
	if err := gob.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("cache: decoding payload: %w", err)
	}

	return &Database{Metadata: payload.Metadata, order: payload.Order, compounds: payload.Compounds}, nil
}

func writeUint16(w io.Writer, v uint16) error {
	_, err := w.Write([]byte{byte(v >> 8), byte(v)})
	return err
}

func readUint16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}
