package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Config is the top-level shelfdesk configuration.
type Config struct {
	GitHub        GitHubConfig        `mapstructure:"github" yaml:"github"`
	Relay         RelayConfig         `mapstructure:"relay" yaml:"relay"`
	Storage       StorageConfig       `mapstructure:"storage" yaml:"storage"`
	Editor        EditorConfig        `mapstructure:"editor" yaml:"editor"`
	Replace       ReplaceConfig       `mapstructure:"replace" yaml:"replace"`
	Logging       LoggingConfig       `mapstructure:"logging" yaml:"logging"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
}

// GitHubConfig holds GitHub API connection settings. Owner and Repo here are
// only a fallback for credentials saved with `shelfdesk login`.
type GitHubConfig struct {
	Owner      string        `mapstructure:"owner" yaml:"owner,omitempty"`
	Repo       string        `mapstructure:"repo" yaml:"repo,omitempty"`
	TokenEnv   string        `mapstructure:"token_env" yaml:"token_env"`
	APIBase    string        `mapstructure:"api_base" yaml:"api_base"`
	UploadBase string        `mapstructure:"upload_base" yaml:"upload_base,omitempty"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	ReleaseTag string        `mapstructure:"release_tag" yaml:"release_tag"`
	Token      string        `mapstructure:"-" yaml:"-"` // resolved at runtime, never written
}

// RelayConfig routes asset transfers through a forwarding endpoint. The
// target URL is appended, escaped, to URL.
type RelayConfig struct {
	URL string `mapstructure:"url" yaml:"url,omitempty"`
}

// StorageConfig locates the local credential database.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// EditorConfig controls raw editing.
type EditorConfig struct {
	SwitchPolicy string `mapstructure:"switch_policy" yaml:"switch_policy"` // "discard", "block" or "autosave"
	Command      string `mapstructure:"command" yaml:"command,omitempty"`
}

// ReplaceConfig controls the delete-then-upload window of a push.
type ReplaceConfig struct {
	Compensate bool `mapstructure:"compensate" yaml:"compensate"`
	MaxRetries int  `mapstructure:"max_retries" yaml:"max_retries"`
}

// LoggingConfig selects log verbosity and encoding.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
}

// NotificationsConfig controls how long status messages are kept.
type NotificationsConfig struct {
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Validate checks values that Load cannot coerce.
func (c *Config) Validate() error {
	switch c.Editor.SwitchPolicy {
	case "", "discard", "block", "autosave":
	default:
		return fmt.Errorf("editor.switch_policy: unknown policy %q", c.Editor.SwitchPolicy)
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	if c.Replace.MaxRetries < 0 {
		return fmt.Errorf("replace.max_retries must not be negative")
	}
	if c.GitHub.Timeout < 0 || c.Notifications.TTL < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// HasRepo reports whether the config names a repository.
func (g GitHubConfig) HasRepo() bool {
	return g.Owner != "" && g.Repo != ""
}
