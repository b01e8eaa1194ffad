package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lgalanti/mimi-go/internal/data"
	"github.com/lgalanti/mimi-go/pkg/hmdb"
	"github.com/lgalanti/mimi-go/pkg/isotope"
)

var (
	hmdbXML     string
	hmdbMinMass float64
	hmdbMaxMass float64
	hmdbOutput  string
)

var hmdbCmd = &cobra.Command{
	Use:   "hmdb",
	Short: "Extract a compound database TSV from an HMDB XML export",
	Long: `hmdb streams an HMDB metabolites.xml export, keeping entries whose
formula parses against the reference isotope table and whose average
molecular weight falls in the given range, and writes the survivors as a
compound-database TSV consumable by cache-create -d.`,
	RunE: runHMDB,
}

func init() {
	hmdbCmd.Flags().StringVarP(&hmdbXML, "xml", "x", "", "HMDB metabolites XML export (required)")
	hmdbCmd.Flags().Float64VarP(&hmdbMinMass, "min-mass", "l", 0, "Minimum average molecular weight to include")
	hmdbCmd.Flags().Float64VarP(&hmdbMaxMass, "max-mass", "u", 0, "Maximum average molecular weight to include")
	hmdbCmd.Flags().StringVarP(&hmdbOutput, "output", "o", "metabolites.tsv", "Output compound-database TSV path")

	hmdbCmd.MarkFlagRequired("xml")
}

func runHMDB(cmd *cobra.Command, args []string) error {
	table, err := isotope.Load(data.DefaultIsotopeTable())
	if err != nil {
		return fmt.Errorf("hmdb: loading isotope table: %w", err)
	}

	in, err := os.Open(hmdbXML)
	if err != nil {
		return fmt.Errorf("hmdb: opening %q: %w", hmdbXML, err)
	}
	defer in.Close()

	opts := hmdb.Options{}
	if cmd.Flags().Changed("min-mass") {
		opts.MinMass = &hmdbMinMass
	}
	if cmd.Flags().Changed("max-mass") {
		opts.MaxMass = &hmdbMaxMass
	}

	accepted, skipped, err := hmdb.Extract(in, table, opts)
	if err != nil {
		return fmt.Errorf("hmdb: %w", err)
	}

	out, err := os.Create(hmdbOutput)
	if err != nil {
		return fmt.Errorf("hmdb: creating %q: %w", hmdbOutput, err)
	}
	defer out.Close()

	fmt.Fprintln(out, "CF\tID\tName")
	for _, m := range accepted {
		fmt.Fprintf(out, "%s\t%s\t%s\n", m.ChemicalFormula, m.ID, m.Name)
	}

	fmt.Printf("Wrote %d metabolites to %s (%d skipped)\n", len(accepted), hmdbOutput, len(skipped))
	return nil
}
