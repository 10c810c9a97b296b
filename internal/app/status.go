package app

import (
	"context"
	"fmt"
	"time"

	"github.com/blackwell-systems/shelfdesk/internal/assetstore"
	"github.com/blackwell-systems/shelfdesk/internal/collection"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type assetStatus struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	Found bool   `json:"found"`
}

type statusOutput struct {
	Configured bool          `json:"configured"`
	Repo       string        `json:"repo,omitempty"`
	Storage    string        `json:"storage"`
	Release    string        `json:"release,omitempty"`
	Published  *time.Time    `json:"published,omitempty"`
	Assets     []assetStatus `json:"assets,omitempty"`
	Error      string        `json:"error,omitempty"`
}

func newStatusCmd() *cobra.Command {
	var (
		jsonOut    bool
		skipRemote bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the configured repository and its collection assets",
		Long: `Show which repository is in use and which collection assets exist on its
latest release.

Examples:
  shelfdesk status
  shelfdesk status --offline     Skip the release lookup
  shelfdesk status --json        Machine-readable JSON output`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var store *assetstore.Store
			if creds := st.Credentials(); creds != nil {
				store = newAssetStore(cfg, log, *creds)
			}
			out := collectStatus(cmd.Context(), store, cfg.Storage.Path, skipRemote)

			if jsonOut {
				return printJSON(out)
			}
			printStatusText(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&skipRemote, "offline", false, "Do not contact GitHub")

	return cmd
}

// collectStatus describes store's repository and, unless skipRemote is set,
// its latest release. A nil store means no credentials are configured.
func collectStatus(ctx context.Context, store *assetstore.Store, storage string, skipRemote bool) statusOutput {
	out := statusOutput{Storage: storage}
	if store == nil {
		return out
	}
	out.Configured = true
	out.Repo = store.Repo()
	if skipRemote {
		return out
	}

	rel, err := store.FetchLatestRelease(ctx)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Release = rel.TagName
	if !rel.PublishedAt.IsZero() {
		published := rel.PublishedAt
		out.Published = &published
	}
	for _, k := range collection.Kinds() {
		as := assetStatus{Name: k.AssetName()}
		if a := rel.Asset(as.Name); a != nil {
			as.Found, as.Size = true, a.Size
		}
		out.Assets = append(out.Assets, as)
	}
	return out
}

func printStatusText(out statusOutput) {
	header("shelfdesk status")
	if !out.Configured {
		fmt.Printf("  %s not logged in (run: shelfdesk login <owner>/<repo>)\n", color.RedString("✗"))
		return
	}
	fmt.Printf("  Repository: %s\n", out.Repo)
	fmt.Printf("  Storage:    %s\n", out.Storage)
	if out.Error != "" {
		fmt.Printf("  %s %s\n", color.RedString("✗"), out.Error)
		return
	}
	if out.Release == "" {
		return
	}
	fmt.Printf("  Release:    %s\n", out.Release)
	if out.Published != nil {
		fmt.Printf("  Published:  %s\n", out.Published.Local().Format("2006-01-02 15:04"))
	}
	fmt.Println()
	for _, a := range out.Assets {
		if a.Found {
			fmt.Printf("  %s %-15s %8d bytes\n", color.GreenString("✓"), a.Name, a.Size)
		} else {
			fmt.Printf("  %s %-15s %s\n", color.YellowString("!"), a.Name, color.YellowString("missing"))
		}
	}
}
