package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blackwell-systems/shelfdesk/internal/state"
	"github.com/blackwell-systems/shelfdesk/internal/util"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd() *cobra.Command {
	var (
		owner    string
		repo     string
		token    string
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "login [owner/repo]",
		Short: "Save the repository and token used for every command",
		Long: `Save GitHub credentials to the local credential store.

The token needs write access to the repository's releases. When --token is
omitted it is read from the environment (see github.token_env) or prompted
for without echo.

Examples:
  shelfdesk login octo/site-data
  shelfdesk login --owner octo --repo site-data --token ghp_xxx
  GITHUB_TOKEN=ghp_xxx shelfdesk login octo/site-data --no-verify`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				o, r, found := strings.Cut(args[0], "/")
				if !found || o == "" || r == "" {
					return fmt.Errorf("expected owner/repo, got %q", args[0])
				}
				owner, repo = o, r
			}
			if owner == "" {
				owner = cfg.GitHub.Owner
			}
			if repo == "" {
				repo = cfg.GitHub.Repo
			}
			if owner == "" || repo == "" {
				return fmt.Errorf("repository required: shelfdesk login <owner>/<repo>")
			}
			if token == "" {
				token = cfg.GitHub.Token
			}
			if token == "" {
				var err error
				if token, err = promptToken(); err != nil {
					return err
				}
			}

			creds := state.Credentials{Owner: owner, Repo: repo, Token: token}
			if !noVerify {
				gh := newGitHubClient(cfg, token)
				exists, err := gh.RepoExists(cmd.Context(), owner, repo)
				if err != nil {
					return fmt.Errorf("checking %s/%s: %w", owner, repo, err)
				}
				if !exists {
					return fmt.Errorf("repository %s/%s not found or not visible to this token", owner, repo)
				}
			}

			if err := st.SetCredentials(cmd.Context(), &creds); err != nil {
				return err
			}
			flushNotifications(true)
			ok("Logged in to %s/%s", owner, repo)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Repository owner")
	cmd.Flags().StringVar(&repo, "repo", "", "Repository name")
	cmd.Flags().StringVar(&token, "token", "", "GitHub token (prefer the environment or the prompt)")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip checking that the repository is reachable")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.SetCredentials(cmd.Context(), nil); err != nil {
				return err
			}
			flushNotifications(true)
			ok("Credentials removed")
			return nil
		},
	}
}

// promptToken reads a token from the terminal without echo, or one line
// from a piped stdin.
func promptToken() (string, error) {
	if util.IsInputTTY() {
		fmt.Fprint(os.Stderr, "GitHub token: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if line = strings.TrimSpace(line); line == "" {
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return "", fmt.Errorf("no token given: use --token or set %s", cfg.GitHub.TokenEnv)
	}
	return line, nil
}
