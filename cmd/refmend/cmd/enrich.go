package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <key>",
	Short: "Propose values for a record's missing fields",
	Long: `Enrich asks the configured enrichment source for the record's missing
fields and prints the proposals that survive validation: unknown fields,
placeholder values, and values the record already holds are discarded.

Nothing is written back; apply accepted values through your reference
manager.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	r, err := newRefmend(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	applicable, err := r.Enrich(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if len(applicable) == 0 {
		fmt.Println("No applicable proposals.")
		return nil
	}

	out, err := json.MarshalIndent(applicable, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
