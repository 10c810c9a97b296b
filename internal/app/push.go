package app

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/shelfdesk/internal/collection"
	"github.com/spf13/cobra"
)

func newPushCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "push <collection> [file]",
		Short: "Replace a collection asset with a local JSON file",
		Long: `Upload a local JSON array as <collection>.json on the latest release.

The file defaults to ./<collection>.json; "-" reads stdin. The content must be
a JSON array; on a syntax error the line, column and a hint are printed and
nothing is uploaded.

The existing asset is deleted before the new one is uploaded. If the upload
then fails the asset is missing until the next successful push (see
replace.compensate).

Examples:
  shelfdesk push books
  shelfdesk push games ./export/games.json
  jq '.' games.json | shelfdesk push games -`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: kindArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := collection.ParseKind(args[0])
			if err != nil {
				return err
			}
			path := kind.AssetName()
			if len(args) == 2 {
				path = args[1]
			}
			data, err := readInput(path, os.Stdin)
			if err != nil {
				return err
			}

			if err := loadRaw(kind, string(data)); err != nil {
				return err
			}
			n := len(st.Items(kind))
			if dryRun {
				ok("%s is valid (%d records); not uploaded", path, n)
				return nil
			}
			if err := requireConfigured(); err != nil {
				return err
			}
			if err := st.Upload(cmd.Context(), kind); err != nil {
				return err
			}
			flushNotifications(false)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate only")

	return cmd
}

// loadRaw adopts text as the kind's collection through raw mode, so it gets
// the same validation as an interactive edit.
func loadRaw(kind collection.Kind, text string) error {
	if err := st.SetActive(kind); err != nil {
		return err
	}
	if err := st.ToggleRawMode(); err != nil {
		return err
	}
	st.UpdateRawContent(text)
	if err := st.ToggleRawMode(); err != nil {
		st.ExitRawMode()
		st.ClearNotifications()
		return fmt.Errorf("%s: %w", kind, err)
	}
	st.ClearNotifications()
	return nil
}
