package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lgalanti/mimi-go/internal/buildinfo"
	"github.com/lgalanti/mimi-go/internal/data"
	"github.com/lgalanti/mimi-go/internal/runlog"
	"github.com/lgalanti/mimi-go/pkg/cache"
	"github.com/lgalanti/mimi-go/pkg/dbreader"
	"github.com/lgalanti/mimi-go/pkg/formula"
	"github.com/lgalanti/mimi-go/pkg/isotope"
	"github.com/lgalanti/mimi-go/pkg/isotopologue"
	"github.com/lgalanti/mimi-go/pkg/mass"
)

var (
	ccIon         string
	ccDBFiles     []string
	ccCacheOut    string
	ccOverlayPath string
	ccNoiseCutoff float64
	ccDebug       bool
)

var cacheCreateCmd = &cobra.Command{
	Use:   "cache-create",
	Short: "Build a compound cache from one or more TSV databases",
	Long: `cache-create parses every compound in the given database TSV file(s),
enumerates each compound's predicted isotopologue pattern, and writes the
result as a single binary cache consumed by analyze and cache-dump.

Example:
  mimi cache-create -i pos -d compounds.tsv -c compounds.cache`,
	RunE: runCacheCreate,
}

func init() {
	cacheCreateCmd.Flags().StringVarP(&ccIon, "ion", "i", "", "Ionization mode: pos or neg (required)")
	cacheCreateCmd.Flags().StringSliceVarP(&ccDBFiles, "dbfile", "d", nil, "Compound database TSV file(s) (required)")
	cacheCreateCmd.Flags().StringVarP(&ccCacheOut, "cache", "c", "", "Output cache file path (required)")
	cacheCreateCmd.Flags().StringVarP(&ccOverlayPath, "label", "l", "", "Labelled-atoms overlay JSON file")
	cacheCreateCmd.Flags().Float64VarP(&ccNoiseCutoff, "noise", "n", isotopologue.DefaultNoiseCutoff, "Noise cutoff (relative-abundance floor is 1/CUTOFF)")
	cacheCreateCmd.Flags().BoolVarP(&ccDebug, "debug", "g", false, "Write a per-compound isotopologue debug trace")

	cacheCreateCmd.MarkFlagRequired("ion")
	cacheCreateCmd.MarkFlagRequired("dbfile")
	cacheCreateCmd.MarkFlagRequired("cache")
}

func runCacheCreate(cmd *cobra.Command, args []string) error {
	ion, err := parseIonFlag(ccIon)
	if err != nil {
		return err
	}

	table, err := isotope.Load(data.DefaultIsotopeTable())
	if err != nil {
		return fmt.Errorf("cache-create: loading isotope table: %w", err)
	}
	if ccOverlayPath != "" {
		f, err := os.Open(ccOverlayPath)
		if err != nil {
			return fmt.Errorf("cache-create: opening overlay %q: %w", ccOverlayPath, err)
		}
		err = table.Overlay(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("cache-create: applying overlay: %w", err)
		}
	}

	logger, err := runlog.Open(trimExt(filepath.Base(ccCacheOut)), ccDebug, time.Now())
	if err != nil {
		return fmt.Errorf("cache-create: %w", err)
	}
	defer logger.Close()

	var records []dbreader.Record
	for _, path := range ccDBFiles {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("cache-create: opening database %q: %w", path, err)
		}
		recs, err := dbreader.Read(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("cache-create: reading database %q: %w", path, err)
		}
		records = append(records, recs...)
	}

	db := cache.New(cache.Metadata{
		CreationDate:         time.Now(),
		MimiVersion:          buildinfo.Version,
		IonizationMode:       ccIon,
		FullCommand:          buildinfo.FullCommand(),
		SourceDatabaseFiles:  ccDBFiles,
		IsotopeTablePath:     "internal/data/natural_isotope_abundance_NIST.json",
		LabelledAtomsOverlay: ccOverlayPath,
	})

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetDescription("Processing compounds"),
		progressbar.OptionShowCount(),
	)

	var skipped []string
	for _, rec := range records {
		bar.Describe(fmt.Sprintf("Processing %s", rec.ID))

		if ccDebug {
			logger.Debugf("\nProcessing compound: %s (%s)", rec.CF, rec.ID)
			logger.Debugf("%s", dashes(50))
		}

		parsed, err := formula.Parse(table, rec.CF)
		if err != nil {
			skipped = append(skipped, rec.CF)
			if ccDebug {
				logger.Debugf("ERROR: unsupported molecular formula format: %s", rec.CF)
				logger.Debugf("Exception: %v", err)
			}
			bar.Add(1)
			continue
		}

		monoMass := mass.Monoisotopic(parsed, ion)

		var trace io.Writer
		if ccDebug {
			trace = &traceWriter{logger: logger}
		}
		variants, err := isotopologue.Enumerate(parsed, ion, ccNoiseCutoff, trace)
		if err != nil {
			skipped = append(skipped, rec.CF)
			bar.Add(1)
			continue
		}

		db.Add(rec.ID, cache.Compound{
			Formula:          rec.CF,
			Name:             rec.Name,
			Parsed:           parsed,
			MonoisotopicMass: monoMass,
			Isotopologues:    variants,
		})
		bar.Add(1)
	}

	if len(skipped) > 0 && ccDebug {
		logger.Debugf("\nSummary of skipped compounds:")
		logger.Debugf("%s", dashes(30))
		for _, cf := range skipped {
			logger.Debugf("- %s", cf)
		}
		logger.Debugf("\nTotal skipped: %d", len(skipped))
	}

	if err := cache.Write(ccCacheOut, db); err != nil {
		return fmt.Errorf("cache-create: writing cache: %w", err)
	}

	fmt.Printf("Wrote %d compounds to %s (%d skipped)\n", db.Len(), ccCacheOut, len(skipped))
	return nil
}

func dashes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '-'
	}
	return string(b)
}

// traceWriter adapts runlog's debug sink to the io.Writer Enumerate wants
// for its own isotopologue trace format.
type traceWriter struct {
	logger *runlog.Logger
}

func (t *traceWriter) Write(p []byte) (int, error) {
	t.logger.Debugf("%s", string(p))
	return len(p), nil
}
