package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/blackwell-systems/shelfdesk/internal/config"
	"github.com/blackwell-systems/shelfdesk/internal/localstore"
	"github.com/blackwell-systems/shelfdesk/internal/logging"
	"github.com/blackwell-systems/shelfdesk/internal/state"
	"github.com/blackwell-systems/shelfdesk/internal/util"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	st  *state.State
	db  *localstore.Bolt
	log zerolog.Logger

	flagNoColor bool
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "shelfdesk",
	Short: "Edit JSON collections stored as GitHub Release assets",
	Long: `shelfdesk edits the books, games, reviews and projects collections that live
as <kind>.json assets on the latest release of one GitHub repository.

Save credentials once with 'shelfdesk login', then pull, edit and push.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// offline commands never touch the credential store or the network.
var offline = map[string]bool{
	"version":    true,
	"completion": true,
	"validate":   true,
	"fmt":        true,
	"help":       true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/shelfdesk/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log remote operations to stderr")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		util.InitColor(flagNoColor)

		var err error
		cfg, err = config.LoadFrom(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if flagVerbose {
			cfg.Logging.Level = "debug"
		}
		log, err = logging.New(os.Stderr, cfg.Logging)
		if err != nil {
			return err
		}

		if offline[cmd.Name()] {
			return nil
		}
		return openState(cmd.Context())
	}

	cobra.OnFinalize(func() {
		if err := closeState(); err != nil {
			warn("closing credential store: %v", err)
		}
	})

	rootCmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newInitCmd(),
		newPullCmd(),
		newPushCmd(),
		newEditCmd(),
		newListCmd(),
		newAddCmd(),
		newSetCmd(),
		newRmCmd(),
		newLintCmd(),
		newValidateCmd(),
		newFmtCmd(),
		newVersionCmd(),
		newCompletionCmd(),
	)
}

// openState opens the credential store and builds the session state. Saved
// credentials win; otherwise owner/repo from the config plus a token from
// the environment are used for this run only.
func openState(ctx context.Context) error {
	policy, err := state.ParseSwitchPolicy(cfg.Editor.SwitchPolicy)
	if err != nil {
		return err
	}

	var store localstore.Store = localstore.Nop{}
	if cfg.Storage.Path != "" {
		db, err = localstore.OpenBolt(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("opening credential store: %w", err)
		}
		store = db
	}

	st = state.New(state.Options{
		Storage:         store,
		NewRemote:       remoteFactory(cfg, log),
		SwitchPolicy:    policy,
		NotificationTTL: cfg.Notifications.TTL,
		Logger:          log,
	})
	if st.InitFromStorage(ctx) {
		return nil
	}
	if cfg.GitHub.HasRepo() && cfg.GitHub.Token != "" {
		return st.UseCredentials(state.Credentials{
			Owner: cfg.GitHub.Owner,
			Repo:  cfg.GitHub.Repo,
			Token: cfg.GitHub.Token,
		})
	}
	return nil
}

func closeState() error {
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}
