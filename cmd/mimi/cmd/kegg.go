package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lgalanti/mimi-go/pkg/kegg"
)

var (
	keggMinMass float64
	keggMaxMass float64
	keggOutput  string
	keggBatch   int
)

var keggCmd = &cobra.Command{
	Use:   "kegg",
	Short: "Extract a compound database TSV from the KEGG REST API",
	Long: `kegg queries rest.kegg.jp for every compound whose exact mass falls in
[-l, -u], chunking the range into 10 Da windows to stay under KEGG's
per-query result cap, then fetches formula and name in batches and writes
the result as a compound-database TSV consumable by cache-create -d.`,
	RunE: runKEGG,
}

func init() {
	keggCmd.Flags().Float64VarP(&keggMinMass, "min-mass", "l", 0, "Minimum exact mass in Da (required)")
	keggCmd.Flags().Float64VarP(&keggMaxMass, "max-mass", "u", 0, "Maximum exact mass in Da (required)")
	keggCmd.Flags().StringVarP(&keggOutput, "output", "o", "kegg_compounds.tsv", "Output compound-database TSV path")
	keggCmd.Flags().IntVarP(&keggBatch, "batch-size", "b", 5, "Number of compound ids fetched per KEGG get request")

	keggCmd.MarkFlagRequired("min-mass")
	keggCmd.MarkFlagRequired("max-mass")
}

func runKEGG(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client := kegg.NewClient(100 * time.Millisecond)

	fmt.Printf("Searching for compounds in mass range %v-%v Da\n", keggMinMass, keggMaxMass)
	ids, err := client.CompoundIDsByMassRange(ctx, keggMinMass, keggMaxMass, 10.0)
	if err != nil {
		return fmt.Errorf("kegg: %w", err)
	}
	fmt.Printf("Found %d compounds in mass range %v-%v Da\n", len(ids), keggMinMass, keggMaxMass)

	out, err := os.Create(keggOutput)
	if err != nil {
		return fmt.Errorf("kegg: creating %q: %w", keggOutput, err)
	}
	defer out.Close()

	fmt.Fprintln(out, "CF\tID\tName")

	bar := progressbar.NewOptions(len(ids), progressbar.OptionSetDescription("Fetching compound info"))
	var written int
	for start := 0; start < len(ids); start += keggBatch {
		end := start + keggBatch
		if end > len(ids) {
			end = len(ids)
		}
		compounds, err := client.GetBatch(ctx, ids[start:end])
		if err != nil {
			return fmt.Errorf("kegg: %w", err)
		}
		for _, c := range compounds {
			if c.ChemicalFormula == "" {
				continue
			}
			fmt.Fprintf(out, "%s\t%s\t%s\n", c.ChemicalFormula, c.ID, c.Name)
			written++
		}
		bar.Add(end - start)
	}

	fmt.Printf("\nCompound data saved to %s (%d compounds)\n", keggOutput, written)
	return nil
}
