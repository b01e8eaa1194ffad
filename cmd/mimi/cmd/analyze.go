package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lgalanti/mimi-go/internal/data"
	"github.com/lgalanti/mimi-go/internal/runlog"
	"github.com/lgalanti/mimi-go/pkg/analyzer"
	"github.com/lgalanti/mimi-go/pkg/cache"
	"github.com/lgalanti/mimi-go/pkg/isotope"
	"github.com/lgalanti/mimi-go/pkg/spectrum"
)

var (
	azPPM        float64
	azVPPM       float64
	azCacheFiles []string
	azSamples    []string
	azOut        string
	azDebug      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Match sample spectra against one or more caches",
	Long: `analyze loads one or more compound caches and one or more sample spectra,
matches cached monoisotopic masses against sample peaks within a ppm
tolerance, validates the predicted isotopologue pattern of each hit, and
writes the resulting report as a tab-separated file.

Example:
  mimi analyze -p 5 --vp 5 -c compounds.cache -s sample1.asc -s sample2.asc -o report.tsv`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Float64VarP(&azPPM, "ppm", "p", 0, "Monoisotopic mass ppm tolerance (required)")
	analyzeCmd.Flags().Float64Var(&azVPPM, "vp", 0, "Isotope verification ppm tolerance (required)")
	analyzeCmd.Flags().StringSliceVarP(&azCacheFiles, "cache", "c", nil, "Binary cache input file(s) (required)")
	analyzeCmd.Flags().StringSliceVarP(&azSamples, "sample", "s", nil, "Sample ASC input file(s) (required)")
	analyzeCmd.Flags().StringVarP(&azOut, "output", "o", "", "Report output TSV path (required)")
	analyzeCmd.Flags().BoolVarP(&azDebug, "debug", "g", false, "Write a per-match isotope-validation debug trace")

	analyzeCmd.MarkFlagRequired("ppm")
	analyzeCmd.MarkFlagRequired("vp")
	analyzeCmd.MarkFlagRequired("cache")
	analyzeCmd.MarkFlagRequired("sample")
	analyzeCmd.MarkFlagRequired("output")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	table, err := isotope.Load(data.DefaultIsotopeTable())
	if err != nil {
		return fmt.Errorf("analyze: loading isotope table: %w", err)
	}

	baseOutput := trimExt(filepath.Base(azOut))
	logger, err := runlog.Open(baseOutput, azDebug, time.Now())
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	defer logger.Close()

	logger.Printf("PPM Tolerance: %v", azPPM)
	logger.Printf("Verification PPM: %v", azVPPM)

	var databases []analyzer.Database
	bar := progressbar.NewOptions(len(azCacheFiles), progressbar.OptionSetDescription("Loading caches"))
	for _, path := range azCacheFiles {
		db, err := cache.Read(path)
		if err != nil {
			return fmt.Errorf("analyze: reading cache %q: %w", path, err)
		}
		name := trimExt(filepath.Base(path))
		databases = append(databases, analyzer.Database{Name: name, DB: db})
		bar.Add(1)
	}

	var samples []analyzer.Sample
	sampleBar := progressbar.NewOptions(len(azSamples), progressbar.OptionSetDescription("Loading samples"))
	for _, path := range azSamples {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("analyze: opening sample %q: %w", path, err)
		}
		s, err := spectrum.ReadASC(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("analyze: reading sample %q: %w", path, err)
		}
		samples = append(samples, analyzer.NewSample(trimExt(filepath.Base(path)), s))
		sampleBar.Add(1)
	}

	a := &analyzer.Analyzer{
		Databases: databases,
		Samples:   samples,
		Tolerance: analyzer.Tolerance{Monoisotopic: azPPM / 1e6, Verification: azVPPM / 1e6},
		Isotopes:  table,
		Logger:    logger,
	}

	report, err := a.Run()
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if dir := filepath.Dir(azOut); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("analyze: creating output directory %q: %w", dir, err)
		}
	}

	out, err := os.Create(azOut)
	if err != nil {
		return fmt.Errorf("analyze: creating report %q: %w", azOut, err)
	}
	defer out.Close()

	if err := analyzer.WriteTSV(out, report, logger.LogPath); err != nil {
		return fmt.Errorf("analyze: writing report: %w", err)
	}

	fmt.Printf("Wrote %d compound rows to %s\n", len(report.Rows), azOut)
	return nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
