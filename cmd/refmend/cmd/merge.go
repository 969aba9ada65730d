package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/refmend/refmend/pkg/bib"
	"github.com/refmend/refmend/pkg/dedupe"
	"github.com/refmend/refmend/pkg/merge"
)

var (
	mergeMaster    string
	mergeOverrides []string
	mergeCommit    bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge <key>",
	Short: "Merge the duplicate group containing a record",
	Long: `Merge resolves the duplicate group containing the given record into a
draft for the master record and prints it, including any field conflicts.
The master defaults to the group member given on the command line;
--master picks another member, --set field=value overrides a field.

Without --commit nothing is written. With --commit the master is updated
and the other members are deleted; a member that changed since the scan
is skipped and reported, to be picked up by the next scan.`,
	Args: cobra.ExactArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeMaster, "master", "", "key of the member to keep (defaults to <key>)")
	mergeCmd.Flags().StringArrayVar(&mergeOverrides, "set", nil, "field=value override, repeatable")
	mergeCmd.Flags().BoolVar(&mergeCommit, "commit", false, "apply the merge to the record source")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	r, err := newRefmend(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	groups, err := r.Scan(cmd.Context(), viper.GetBool("refresh"))
	if err != nil {
		return err
	}

	group, ok := findGroup(groups, args[0])
	if !ok {
		return fmt.Errorf("record %s is not part of any duplicate group", args[0])
	}

	masterKey := mergeMaster
	if masterKey == "" {
		masterKey = args[0]
	}
	masterIndex := indexOfKey(group, masterKey)
	if masterIndex < 0 {
		return fmt.Errorf("master %s is not a member of the group (%s)", masterKey, strings.Join(group.Keys(), ", "))
	}

	overrides, err := parseOverrides(mergeOverrides)
	if err != nil {
		return err
	}

	draft, err := r.BuildDraft(group, masterIndex, overrides)
	if err != nil {
		return err
	}

	printDraft(group, draft)

	if !mergeCommit {
		fmt.Println("\nDry run. Re-run with --commit to apply.")
		return nil
	}

	result, err := r.Commit(cmd.Context(), group, masterIndex, draft)
	if err != nil {
		return err
	}

	fmt.Printf("\nMaster %s updated to version %d.\n", result.Master.Key, result.Master.Version)
	if len(result.Deleted) > 0 {
		fmt.Printf("Deleted: %s\n", strings.Join(result.Deleted, ", "))
	}
	for _, failure := range result.Failed {
		fmt.Printf("Not deleted (%v): %s\n", failure.Err, failure.Key)
	}
	return nil
}

func findGroup(groups []dedupe.Group, key string) (dedupe.Group, bool) {
	for _, group := range groups {
		if indexOfKey(group, key) >= 0 {
			return group, true
		}
	}
	return dedupe.Group{}, false
}

func indexOfKey(group dedupe.Group, key string) int {
	for i, rec := range group.Records {
		if rec.Key == key {
			return i
		}
	}
	return -1
}

func parseOverrides(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	overrides := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid --set %q, expected field=value", pair)
		}
		if !bib.KnownField(field) {
			return nil, fmt.Errorf("unknown field %q in --set", field)
		}
		overrides[field] = value
	}
	return overrides, nil
}

func printDraft(group dedupe.Group, draft merge.Draft) {
	fmt.Printf("Merging %s into %s\n\n", strings.Join(group.Keys(), ", "), draft.MasterKey)

	var rows [][]string
	for _, field := range bib.FieldVocabulary {
		if field == bib.FieldCreators {
			continue
		}
		if value, ok := draft.Fields[field]; ok {
			rows = append(rows, []string{field, value})
		}
	}
	if len(draft.Creators) > 0 {
		names := make([]string, 0, len(draft.Creators))
		for _, creator := range draft.Creators {
			names = append(names, creator.Display())
		}
		rows = append(rows, []string{bib.FieldCreators, strings.Join(names, "; ")})
	}
	if len(draft.Tags) > 0 {
		rows = append(rows, []string{"tags", strings.Join(draft.Tags, ", ")})
	}
	fmt.Println(renderTable([]string{"Field", "Merged value"}, rows))

	if len(draft.Conflicts) == 0 {
		return
	}
	fmt.Println("\nConflicts (current winner listed above, override with --set):")
	var conflictRows [][]string
	for _, conflict := range draft.Conflicts {
		for _, value := range conflict.Values {
			conflictRows = append(conflictRows, []string{conflict.Field, value.RecordKey, value.Value})
		}
	}
	fmt.Println(renderTable([]string{"Field", "From", "Value"}, conflictRows))
}
