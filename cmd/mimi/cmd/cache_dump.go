package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lgalanti/mimi-go/pkg/cache"
	"github.com/lgalanti/mimi-go/pkg/cache/sqlitedump"
)

var (
	cdNumCompounds int
	cdNumIsotopes  int
	cdOutput       string
)

var cacheDumpCmd = &cobra.Command{
	Use:   "cache-dump <cache>",
	Short: "Inspect a cache's contents",
	Long: `cache-dump renders a binary cache's metadata and compound list as
human-readable text. Passing an -o path ending in .db instead writes a
SQLite file with the same contents for ad-hoc SQL inspection.`,
	Args: cobra.ExactArgs(1),
	RunE: runCacheDump,
}

func init() {
	cacheDumpCmd.Flags().IntVarP(&cdNumCompounds, "num-compounds", "n", 0, "Number of compounds to output (0 = all)")
	cacheDumpCmd.Flags().IntVarP(&cdNumIsotopes, "num-isotopes", "i", 0, "Number of isotopologues per compound to output (0 = all)")
	cacheDumpCmd.Flags().StringVarP(&cdOutput, "output", "o", "", "Output file (default: stdout); a .db suffix writes SQLite instead of text")
}

func runCacheDump(cmd *cobra.Command, args []string) error {
	db, err := cache.Read(args[0])
	if err != nil {
		return fmt.Errorf("cache-dump: %w", err)
	}

	if strings.HasSuffix(cdOutput, ".db") {
		if err := sqlitedump.Write(cdOutput, db); err != nil {
			return fmt.Errorf("cache-dump: %w", err)
		}
		fmt.Printf("Wrote %d compounds to %s\n", db.Len(), cdOutput)
		return nil
	}

	out := os.Stdout
	if cdOutput != "" {
		f, err := os.Create(cdOutput)
		if err != nil {
			return fmt.Errorf("cache-dump: creating %q: %w", cdOutput, err)
		}
		defer f.Close()
		out = f
	}

	return cache.Dump(out, db, cache.DumpOptions{NumCompounds: cdNumCompounds, NumIsotopes: cdNumIsotopes})
}
