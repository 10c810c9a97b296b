package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/blackwell-systems/shelfdesk/internal/collection"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// mutate pulls kind, applies edit, and pushes the result.
func mutate(ctx context.Context, kind collection.Kind, dryRun bool, edit func() error) error {
	if err := pullForEdit(ctx, kind); err != nil {
		return err
	}
	st.ClearNotifications()
	if err := edit(); err != nil {
		return err
	}
	if dryRun {
		data, err := collection.Marshal(st.Items(kind))
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		warn("dry run: %s not uploaded", kind.AssetName())
		return nil
	}
	if err := st.Upload(ctx, kind); err != nil {
		return err
	}
	flushNotifications(false)
	return nil
}

func newListCmd() *cobra.Command {
	var (
		tag     string
		search  string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List the records of a collection",
		Long: `List records with their index, as used by 'set' and 'rm'.

Examples:
  shelfdesk list books
  shelfdesk list books --tag sci-fi
  shelfdesk list games --search zelda --json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: kindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := collection.ParseKind(args[0])
			if err != nil {
				return err
			}
			if err := pullForEdit(cmd.Context(), kind); err != nil {
				return err
			}
			st.ClearNotifications()

			items := st.Items(kind)
			matches := collection.Filter{Tag: tag, Search: search}.Apply(items)

			if jsonOut {
				out := make([]collection.Record, 0, len(matches))
				for _, i := range matches {
					out = append(out, items[i])
				}
				data, err := collection.Marshal(out)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			header("%s (%d of %d)", kind.AssetName(), len(matches), len(items))
			for _, i := range matches {
				fmt.Printf("  %s %s\n", color.HiBlackString("[%d]", i), collection.Summary(kind, items[i]))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Only records with this tag or genre")
	cmd.Flags().StringVar(&search, "search", "", "Only records whose text fields contain this")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print matching records as a JSON array")

	return cmd
}

func newAddCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "add <collection> <json|->",
		Short: "Append a record and upload the collection",
		Example: `  shelfdesk add books '{"id":"dune","title":"Dune","author":"Frank Herbert"}'
  shelfdesk add reviews - < review.json`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: kindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := collection.ParseKind(args[0])
			if err != nil {
				return err
			}
			rec, err := readRecord(args[1], os.Stdin)
			if err != nil {
				return err
			}
			return mutate(cmd.Context(), kind, dryRun, func() error {
				if err := st.AddItem(kind, rec); err != nil {
					return err
				}
				ok("Added [%d] %s", len(st.Items(kind))-1, collection.Summary(kind, rec))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the result instead of uploading")

	return cmd
}

func newSetCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:               "set <collection> <index> <json|->",
		Short:             "Replace the record at an index and upload the collection",
		Example:           `  shelfdesk set books 3 '{"id":"dune","title":"Dune","rating":5}'`,
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: kindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := collection.ParseKind(args[0])
			if err != nil {
				return err
			}
			i, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			rec, err := readRecord(args[2], os.Stdin)
			if err != nil {
				return err
			}
			return mutate(cmd.Context(), kind, dryRun, func() error {
				if err := st.UpdateItem(kind, i, rec); err != nil {
					return err
				}
				ok("Updated [%d] %s", i, collection.Summary(kind, rec))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the result instead of uploading")

	return cmd
}

func newRmCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:               "rm <collection> <index>",
		Short:             "Remove the record at an index and upload the collection",
		Example:           `  shelfdesk rm games 0`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: kindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := collection.ParseKind(args[0])
			if err != nil {
				return err
			}
			i, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			return mutate(cmd.Context(), kind, dryRun, func() error {
				items := st.Items(kind)
				if err := st.RemoveItem(kind, i); err != nil {
					return err
				}
				ok("Removed [%d] %s", i, collection.Summary(kind, items[i]))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the result instead of uploading")

	return cmd
}

// printJSON writes v indented to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
