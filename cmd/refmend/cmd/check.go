package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/refmend/refmend/pkg/bib"
)

var checkAll bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report missing fields per record",
	Long: `Check evaluates every record against the field schema for its type
and lists the missing required and recommended fields. Records of unknown
types are held to the minimal schema (title and creators).`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkAll, "all", false, "include complete records in the report")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	r, err := newRefmend(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	reports, err := r.Check(cmd.Context(), viper.GetBool("refresh"))
	if err != nil {
		return err
	}

	var rows [][]string
	incomplete := 0
	for _, report := range reports {
		complete := report.Completeness.Complete()
		if !complete {
			incomplete++
		}
		if complete && !checkAll {
			continue
		}
		rows = append(rows, []string{
			report.Record.Key,
			report.Record.Type,
			report.Record.Field(bib.FieldTitle),
			strings.Join(report.Completeness.Required, ", "),
			strings.Join(report.Completeness.Recommended, ", "),
		})
	}

	if len(rows) > 0 {
		fmt.Println(renderTable([]string{"Key", "Type", "Title", "Missing required", "Missing recommended"}, rows))
	}
	fmt.Printf("%d of %d record(s) incomplete.\n", incomplete, len(reports))
	return nil
}
