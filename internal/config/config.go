package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blackwell-systems/shelfdesk/internal/util"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "shelfdesk", "config.yml")
}

// Path returns the config file in use: SHELFDESK_CONFIG or DefaultPath.
func Path() string {
	if p := os.Getenv("SHELFDESK_CONFIG"); p != "" {
		return p
	}
	return DefaultPath()
}

// Load reads the config from Path (or env). A missing file yields defaults.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads the config from path, or from Path when path is empty.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("github.owner", "")
	v.SetDefault("github.repo", "")
	v.SetDefault("github.api_base", "https://api.github.com")
	v.SetDefault("github.upload_base", "")
	v.SetDefault("github.token_env", "GITHUB_TOKEN")
	v.SetDefault("github.timeout", 5*time.Minute)
	v.SetDefault("github.release_tag", "v1.0.0")
	v.SetDefault("relay.url", "")
	v.SetDefault("storage.path", defaultStoragePath())
	v.SetDefault("editor.switch_policy", "discard")
	v.SetDefault("editor.command", "")
	v.SetDefault("replace.compensate", false)
	v.SetDefault("replace.max_retries", 3)
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("notifications.ttl", 5*time.Second)

	v.SetEnvPrefix("SHELFDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = Path()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine: `shelfdesk init` creates it.
		if !os.IsNotExist(err) {
			if _, isCfgNotFound := err.(viper.ConfigFileNotFoundError); !isCfgNotFound {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Resolve token from env (never stored in file).
	tokenEnv := cfg.GitHub.TokenEnv
	if tokenEnv == "" {
		tokenEnv = "GITHUB_TOKEN"
	}
	cfg.GitHub.Token = os.Getenv(tokenEnv)
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("SHELFDESK_GITHUB_TOKEN")
	}

	cfg.Storage.Path = util.ExpandHome(cfg.Storage.Path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config to Path.
func Save(cfg *Config) error {
	return SaveTo(cfg, Path())
}

// SaveTo writes the config as YAML to path.
func SaveTo(cfg *Config, path string) error {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return util.WriteFileAtomic(path, []byte(b.String()), 0644)
}

func defaultStoragePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "shelfdesk", "shelfdesk.db")
}
