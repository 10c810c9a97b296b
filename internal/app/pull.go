package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/shelfdesk/internal/collection"
	"github.com/blackwell-systems/shelfdesk/internal/util"
	"github.com/spf13/cobra"
)

func newPullCmd() *cobra.Command {
	var (
		all    bool
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "pull [collection...]",
		Short: "Download collections from the latest release",
		Long: `Download one or more collections. A single collection is printed to stdout
unless --out is given; several collections require --out.

Examples:
  shelfdesk pull books > books.json
  shelfdesk pull --all -o ./data`,
		ValidArgs: collection.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(args, all)
			if err != nil {
				return err
			}
			if outDir == "" && len(kinds) > 1 {
				return fmt.Errorf("use --out DIR to pull more than one collection")
			}
			if err := requireConfigured(); err != nil {
				return err
			}

			var errs []error
			for _, k := range kinds {
				if err := st.Download(cmd.Context(), k); err != nil {
					errs = append(errs, err)
					continue
				}
				data, err := collection.Marshal(st.Items(k))
				if err != nil {
					errs = append(errs, err)
					continue
				}
				data = append(data, '\n')
				if outDir == "" {
					_, _ = os.Stdout.Write(data)
					continue
				}
				path := filepath.Join(outDir, k.AssetName())
				if err := util.WriteFileAtomic(path, data, 0644); err != nil {
					errs = append(errs, fmt.Errorf("writing %s: %w", path, err))
					continue
				}
				ok("%s → %s (%d records)", k.AssetName(), path, len(st.Items(k)))
			}
			if outDir == "" {
				st.ClearNotifications()
			} else {
				flushNotifications(false)
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Pull every collection")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Write <collection>.json files into this directory")

	return cmd
}
