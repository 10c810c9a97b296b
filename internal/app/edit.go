package app

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/blackwell-systems/shelfdesk/internal/collection"
	"github.com/blackwell-systems/shelfdesk/internal/state"
	"github.com/blackwell-systems/shelfdesk/internal/util"
	"github.com/spf13/cobra"
)

func newEditCmd() *cobra.Command {
	var noPush bool

	cmd := &cobra.Command{
		Use:   "edit <collection>",
		Short: "Edit a collection as JSON in $EDITOR and upload it",
		Long: `Download a collection, open it as a JSON array in your editor, and upload
the result.

If the saved text is not a valid JSON array, the problem is shown and the
editor can be reopened with your text intact. Quitting without changes
uploads nothing.

The editor is editor.command, $VISUAL, $EDITOR or vi, in that order.`,
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

			if err := st.SetActive(kind); err != nil {
				return err
			}
			changed, err := editLoop(st, runEditor, confirmRetry)
			if err != nil {
				return err
			}
			if !changed {
				ok("No changes to %s", kind.AssetName())
				return nil
			}
			if noPush {
				warn("%s changed locally; not uploaded (--no-push)", kind.AssetName())
				return nil
			}
			if err := st.Upload(cmd.Context(), kind); err != nil {
				return err
			}
			flushNotifications(false)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noPush, "no-push", false, "Edit and validate without uploading")

	return cmd
}

// editLoop runs edit on the active collection's raw buffer until the result
// is adopted, the user gives up, or nothing changed. It reports whether the
// collection changed.
func editLoop(s *state.State, edit func(string) (string, error), retry func(error) bool) (bool, error) {
	kind, okActive := s.Active()
	if !okActive {
		return false, state.ErrNoActiveKind
	}
	before, err := collection.MarshalCompact(s.Items(kind))
	if err != nil {
		return false, err
	}
	if err := s.ToggleRawMode(); err != nil {
		return false, err
	}

	for {
		text, err := edit(s.RawContent())
		if err != nil {
			s.ExitRawMode()
			return false, err
		}
		s.UpdateRawContent(text)
		if !s.RawDirty() {
			s.ExitRawMode()
			return false, nil
		}

		err = s.ToggleRawMode()
		if err == nil {
			break
		}
		if !errors.Is(err, state.ErrInvalidRawContent) || !retry(err) {
			s.ExitRawMode()
			return false, err
		}
	}

	after, err := collection.MarshalCompact(s.Items(kind))
	if err != nil {
		return false, err
	}
	return string(after) != string(before), nil
}

// runEditor opens text in the user's editor and returns the saved result.
func runEditor(text string) (string, error) {
	f, err := os.CreateTemp("", "shelfdesk-*.json")
	if err != nil {
		return "", err
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	if _, err := f.WriteString(text + "\n"); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	argv := strings.Fields(editorCommand())
	c := exec.Command(argv[0], append(argv[1:], path)...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("editor %s: %w", argv[0], err)
	}

	out, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}

func editorCommand() string {
	for _, c := range []string{cfg.Editor.Command, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return "vi"
}

// confirmRetry shows why the buffer was refused and asks whether to reopen
// the editor.
func confirmRetry(err error) bool {
	fail("%v", err)
	st.ClearNotifications()
	if !util.IsInputTTY() {
		return false
	}
	fmt.Print("Re-open editor? (Y/n): ")
	var response string
	_, _ = fmt.Scanln(&response)
	return response == "" || response == "y" || response == "Y" || response == "yes"
}
