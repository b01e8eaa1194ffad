// Package cmd provides the mimi CLI command implementations.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lgalanti/mimi-go/internal/buildinfo"
)

var rootCmd = &cobra.Command{
	Use:   "mimi",
	Short: "MIMI - mass spectrometry compound identification",
	Long: `MIMI matches sample mass spectra against cached compound databases built
from predicted isotopologue patterns.

Tools:
  cache-create  build a compound cache from one or more TSV databases
  analyze       match sample spectra against one or more caches
  cache-dump    inspect a cache's contents
  hmdb          extract a compound database TSV from an HMDB XML export
  kegg          extract a compound database TSV from the KEGG REST API`,
	Version: buildinfo.Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(cacheCreateCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(cacheDumpCmd)
	rootCmd.AddCommand(hmdbCmd)
	rootCmd.AddCommand(keggCmd)
}
