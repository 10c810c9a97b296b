package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/blackwell-systems/shelfdesk/internal/collection"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type lintReport struct {
	Collection string             `json:"collection"`
	Records    int                `json:"records"`
	Issues     []collection.Issue `json:"issues"`
}

func newLintCmd() *cobra.Command {
	var (
		all     bool
		file    string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "lint [collection...]",
		Short: "Check records against the expected fields of their collection",
		Long: `Check that every record is an object with the required fields of its
collection and that known fields have the right types.

Collections are pulled from the release, or read from --file (one
collection only).

Examples:
  shelfdesk lint --all
  shelfdesk lint books --file ./books.json`,
		ValidArgs: collection.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(args, all)
			if err != nil {
				return err
			}
			if file != "" && len(kinds) != 1 {
				return fmt.Errorf("--file needs exactly one collection")
			}

			var reports []lintReport
			for _, k := range kinds {
				var records []collection.Record
				if file != "" {
					data, err := readInput(file, os.Stdin)
					if err != nil {
						return err
					}
					if records, err = collection.Parse(data); err != nil {
						return fmt.Errorf("%s: %w", file, err)
					}
				} else {
					if err := pullForEdit(cmd.Context(), k); err != nil {
						return err
					}
					records = st.Items(k)
				}
				reports = append(reports, lintReport{
					Collection: k.String(),
					Records:    len(records),
					Issues:     collection.Check(k, records),
				})
			}
			st.ClearNotifications()

			if jsonOut {
				if err := printJSON(reports); err != nil {
					return err
				}
			} else {
				printLint(reports)
			}
			for _, r := range reports {
				if len(r.Issues) > 0 {
					return errors.New("lint found problems")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Lint every collection")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Lint a local file instead of the release asset")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

func printLint(reports []lintReport) {
	for _, r := range reports {
		if len(r.Issues) == 0 {
			ok("%s: %d records, no problems", r.Collection, r.Records)
			continue
		}
		fmt.Printf("%s %s: %d records, %d problems\n",
			color.RedString("✗"), r.Collection, r.Records, len(r.Issues))
		for _, is := range r.Issues {
			fmt.Printf("    %s\n", is)
		}
	}
}
