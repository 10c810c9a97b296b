package app

import (
	"fmt"

	"github.com/blackwell-systems/shelfdesk/internal/collection"
	"github.com/blackwell-systems/shelfdesk/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var (
		tag        string
		seed       bool
		saveConfig bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Prepare the repository's latest release for shelfdesk",
		Long: `Make sure the logged-in repository has a published release to hold the
collection assets.

If the repository has no release yet, one is created with the tag from
--tag (default github.release_tag). With --seed, an empty array is uploaded
for every collection that has no asset.`,
		Example: `  shelfdesk login octo/site-data
  shelfdesk init --seed

  # Remember the repository in the config file as well
  shelfdesk init --save-config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfigured(); err != nil {
				return err
			}
			creds := st.Credentials()
			if tag == "" {
				tag = cfg.GitHub.ReleaseTag
			}

			gh := newGitHubClient(cfg, creds.Token)
			rel, created, err := gh.EnsureLatestRelease(cmd.Context(), creds.Owner, creds.Repo, tag)
			if err != nil {
				return fmt.Errorf("preparing release: %w", err)
			}
			if created {
				ok("Created release %s", rel.TagName)
			} else {
				ok("Using latest release %s", rel.TagName)
			}

			if seed {
				for _, k := range collection.Kinds() {
					if rel.Asset(k.AssetName()) != nil {
						continue
					}
					if err := st.Upload(cmd.Context(), k); err != nil {
						return err
					}
				}
				flushNotifications(false)
			}

			if saveConfig {
				cfg.GitHub.Owner, cfg.GitHub.Repo = creds.Owner, creds.Repo
				if err := config.Save(cfg); err != nil {
					return fmt.Errorf("saving config: %w", err)
				}
				ok("Saved %s/%s to %s", creds.Owner, creds.Repo, config.Path())
			}

			fmt.Println()
			fmt.Println("Next:")
			fmt.Printf("  %s\n", color.CyanString("shelfdesk pull --all"))
			fmt.Printf("  %s\n", color.CyanString("shelfdesk edit books"))
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Tag for a new release (default: github.release_tag)")
	cmd.Flags().BoolVar(&seed, "seed", false, "Upload an empty array for each missing collection")
	cmd.Flags().BoolVar(&saveConfig, "save-config", false, "Write owner and repo to the config file")

	return cmd
}
