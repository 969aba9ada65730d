package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/refmend/refmend/pkg/bib"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find duplicate record groups",
	Long: `Scan fetches the record snapshot and groups near-duplicate records.
Two records are duplicates when they share a DOI or ISBN, or when their
titles are nearly identical and they share an author.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	r, err := newRefmend(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	groups, err := r.Scan(cmd.Context(), viper.GetBool("refresh"))
	if err != nil {
		return err
	}

	if len(groups) == 0 {
		fmt.Println("No duplicate groups found.")
		return nil
	}

	rows := make([][]string, 0, len(groups))
	for i, group := range groups {
		rep := group.Representative()
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(group.Len()),
			strings.Join(group.Keys(), ", "),
			rep.Field(bib.FieldTitle),
		})
	}

	fmt.Println(renderTable([]string{"#", "Size", "Keys", "Title"}, rows))
	fmt.Printf("%d duplicate group(s). Merge one with: refmend merge <key>\n", len(groups))
	return nil
}
