package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/blackwell-systems/shelfdesk/internal/assetstore"
	"github.com/blackwell-systems/shelfdesk/internal/collection"
	"github.com/blackwell-systems/shelfdesk/internal/config"
	ghclient "github.com/blackwell-systems/shelfdesk/internal/github"
	"github.com/blackwell-systems/shelfdesk/internal/state"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// ok prints a green success line.
func ok(format string, a ...interface{}) {
	fmt.Println(color.GreenString("✓"), fmt.Sprintf(format, a...))
}

// warn prints a yellow warning line.
func warn(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.YellowString("!"), fmt.Sprintf(format, a...))
}

// fail prints a red error line.
func fail(format string, a ...interface{}) {
	fmt.Fprintln(os.Stderr, color.RedString("✗"), fmt.Sprintf(format, a...))
}

// header prints a cyan section heading.
func header(format string, a ...interface{}) {
	fmt.Println(color.CyanString(fmt.Sprintf(format, a...)))
}

// newGitHubClient builds a client from the config for the given token.
func newGitHubClient(c *config.Config, token string) *ghclient.Client {
	return ghclient.New(token, c.GitHub.APIBase,
		ghclient.WithUploadBase(c.GitHub.UploadBase),
		ghclient.WithRelay(ghclient.RelayFor(c.Relay.URL)),
		ghclient.WithTimeout(c.GitHub.Timeout),
	)
}

// remoteFactory wires config into the asset store built for each set of
// credentials.
func remoteFactory(c *config.Config, l zerolog.Logger) state.RemoteFactory {
	return func(creds state.Credentials) (state.Remote, error) {
		return newAssetStore(c, l, creds), nil
	}
}

func newAssetStore(c *config.Config, l zerolog.Logger, creds state.Credentials) *assetstore.Store {
	return assetstore.New(newGitHubClient(c, creds.Token), creds.Owner, creds.Repo,
		assetstore.WithLogger(l),
		assetstore.WithReplaceOptions(assetstore.ReplaceOptions{
			Compensate: c.Replace.Compensate,
			MaxRetries: uint64(c.Replace.MaxRetries),
		}),
	)
}

// requireConfigured fails early with a hint when no credentials are set.
func requireConfigured() error {
	if st.Configured() {
		return nil
	}
	return fmt.Errorf("%w: run 'shelfdesk login' or set github.owner, github.repo and %s",
		state.ErrNotConfigured, cfg.GitHub.TokenEnv)
}

// flushNotifications prints and clears pending notifications. Errors are
// already returned to cobra, so only info and warnings are printed here
// unless all is set.
func flushNotifications(all bool) {
	for _, n := range st.Notifications() {
		switch n.Severity {
		case state.SeverityInfo:
			ok("%s", n.Message)
		case state.SeverityWarning:
			warn("%s", n.Message)
		default:
			if all {
				fail("%s", n.Message)
			}
		}
	}
	st.ClearNotifications()
}

// kindArgs completes collection names for positional arguments.
func kindArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return collection.Names(), cobra.ShellCompDirectiveNoFileComp
}

// parseKinds resolves kind names, or every kind when all is set.
func parseKinds(args []string, all bool) ([]collection.Kind, error) {
	if all {
		if len(args) > 0 {
			return nil, fmt.Errorf("give collection names or --all, not both")
		}
		return collection.Kinds(), nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("provide a collection (%s) or use --all", strings.Join(collection.Names(), ", "))
	}
	kinds := make([]collection.Kind, 0, len(args))
	for _, a := range args {
		k, err := collection.ParseKind(a)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return i, nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// readRecord takes a JSON record from an argument, or from stdin when the
// argument is "-".
func readRecord(arg string, stdin io.Reader) (collection.Record, error) {
	data := []byte(arg)
	if arg == "-" {
		var err error
		if data, err = io.ReadAll(stdin); err != nil {
			return nil, err
		}
	}
	rec, err := collection.Parse([]byte("[" + string(data) + "]"))
	if err != nil || len(rec) != 1 {
		return nil, fmt.Errorf("record must be a single JSON value: %w", errors.Join(state.ErrInvalidRecord, err))
	}
	return rec[0], nil
}

// pullForEdit downloads the current remote copy of kind into the state.
func pullForEdit(ctx context.Context, kind collection.Kind) error {
	if err := requireConfigured(); err != nil {
		return err
	}
	return st.Download(ctx, kind)
}
