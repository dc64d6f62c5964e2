package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const baseCredPath = "ethwatch/creds.toml"

// tokenEnvVar overrides the credentials file when set.
const tokenEnvVar = "GITHUB_TOKEN"

// Credentials holds all application credentials.
type Credentials struct {
	GitHub GitHubCredentials `toml:"github"`
}

// GitHubCredentials holds the optional GitHub API token. Running without
// one is fully supported; the API just applies its lower anonymous rate
// limit.
type GitHubCredentials struct {
	Token string `toml:"token"`
}

// IsValid checks if the GitHub credentials are populated.
func (gc GitHubCredentials) IsValid() bool {
	return gc.Token != ""
}

// ReadCredentials reads credentials from the specified path.
func ReadCredentials(path string) (Credentials, error) {
	var creds Credentials

	data, err := os.ReadFile(path)
	if err != nil {
		return creds, err
	}

	if _, err := toml.Decode(string(data), &creds); err != nil {
		return creds, fmt.Errorf("failed to decode credentials at %s: %w", path, err)
	}

	return creds, nil
}

// WriteCredentials writes credentials to the specified path.
func WriteCredentials(path string, creds Credentials) error {
	blob, err := toml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	basePath := filepath.Dir(path)
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return fmt.Errorf("failed to create credentials directory at '%s': %w", basePath, err)
	}

	// Restrictive permissions, only the owner can read the token.
	if err := os.WriteFile(path, blob, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file at '%s': %w", path, err)
	}

	return nil
}

// Token resolves the GitHub token for this run: the environment variable
// wins over the credentials file, and an empty string means unauthenticated.
func Token(creds Credentials) string {
	if tok := os.Getenv(tokenEnvVar); tok != "" {
		return tok
	}
	if creds.GitHub.IsValid() {
		return creds.GitHub.Token
	}
	return ""
}

// DefaultCredentialsPath returns the default path for the credentials file.
func DefaultCredentialsPath() string {
	var xdgHome = os.Getenv("XDG_CONFIG_HOME")
	if xdgHome != "" {
		return path.Join(xdgHome, baseCredPath)
	}

	var home = os.Getenv("HOME")
	if home != "" {
		return path.Join(home, ".config", baseCredPath)
	}

	panic("unclear where to search for the credentials file")
}
