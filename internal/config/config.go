package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// APIKeyEnvVar is the environment variable checked before the config file.
const APIKeyEnvVar = "OPENROUTER_API_KEY"

// KnownProviders lists valid provider names for validation.
var KnownProviders = []string{"openrouter", "ollama"}

// configDirOverride is set by tests to redirect ConfigDir.
var configDirOverride string

// ConfigDir returns the config directory for parley.
func ConfigDir() string {
	if configDirOverride != "" {
		return configDirOverride
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "parley")
}

// DataDir returns ~/.local/share/parley, creating it if needed.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "share", "parley")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// HistoryFilePath returns the prompt-history file path.
func HistoryFilePath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "history")
}

// ResolveAPIKey resolves the OpenRouter API key using:
//  1. The OPENROUTER_API_KEY environment variable
//  2. Preferences (api_key set via --setup or --config)
//
// Ollama needs no key.
func ResolveAPIKey(prefs Preferences) (string, error) {
	if prefs.Provider == "ollama" {
		return "", nil
	}
	if key := strings.TrimSpace(os.Getenv(APIKeyEnvVar)); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(prefs.APIKey); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("no API key found: run --setup, or set %s", APIKeyEnvVar)
}

// APIKeySource returns where the API key came from for display purposes.
// Returns "env", "config", or "" if not found.
func APIKeySource(prefs Preferences) string {
	if strings.TrimSpace(os.Getenv(APIKeyEnvVar)) != "" {
		return "env"
	}
	if strings.TrimSpace(prefs.APIKey) != "" {
		return "config"
	}
	return ""
}
