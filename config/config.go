package config

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/BurntSushi/toml"
)

const baseCfgPath = "ethwatch/config.toml"

// Config controls the polling run. Catalog extensions appended here are
// polled after the built-in catalog.
type Config struct {
	WindowDays         int          `toml:"window_days"`          // Trailing recency window in days
	RequestDelayMS     int          `toml:"request_delay_ms"`     // Pause between entries, in milliseconds
	CachePath          string       `toml:"cache_path"`           // SQLite seen-cache location
	IncludePrereleases bool         `toml:"include_prereleases"`  // Report pre-releases too
	ExtraRepos         []RepoConfig `toml:"extra_repos"`          // Repositories appended to the catalog
	ExtraFeeds         []FeedConfig `toml:"extra_feeds"`          // Feeds appended to the catalog
}

// RepoConfig is a user-added repository catalog entry.
type RepoConfig struct {
	Name  string `toml:"name"`
	Owner string `toml:"owner"`
	Repo  string `toml:"repo"`
}

// FeedConfig is a user-added feed catalog entry.
type FeedConfig struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// RequestDelay returns the inter-request pause as a duration.
func (c Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMS) * time.Millisecond
}

func Read(path string) (Config, error) {
	conf := Default()
	dat, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	_, err = toml.Decode(string(dat), &conf)
	if err != nil {
		return conf, fmt.Errorf("failed to decode config at %s with %w", path, err)
	}
	return conf, nil
}

func Write(cfgPath string, cfg Config) error {
	blob, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config with %w", err)
	}
	basePath := path.Dir(cfgPath)
	err = os.MkdirAll(basePath, os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create base config directory at '%s' with %w", basePath, err)
	}
	err = os.WriteFile(cfgPath, blob, 0644)
	if err != nil {
		return fmt.Errorf("failed to write into config file at '%s' with %w", cfgPath, err)
	}
	slog.Info("config written", "at", cfgPath)
	return nil
}

func Default() Config {
	var dataBase = path.Join(os.Getenv("HOME"), ".local/share/ethwatch")
	return Config{
		WindowDays:         7,
		RequestDelayMS:     500,
		CachePath:          path.Join(dataBase, "seen.db"),
		IncludePrereleases: true,
	}
}

func DefaultPath() string {
	var xdgHome = os.Getenv("XDG_CONFIG_HOME")
	if xdgHome != "" {
		return path.Join(xdgHome, baseCfgPath)
	}

	var home = os.Getenv("HOME")
	if home != "" {
		return path.Join(home, ".config", baseCfgPath)
	}

	panic("unclear where to search for the config file")
}
