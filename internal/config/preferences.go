package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Render modes accepted by the "render" preference.
const (
	RenderAuto  = "auto"
	RenderText  = "text"
	RenderImage = "image"
)

// Preferences holds user-configurable settings.
// Persisted to ~/.config/parley/config.json.
type Preferences struct {
	APIKey   string `json:"api_key,omitempty"`
	Model    string `json:"model,omitempty"`
	Provider string `json:"provider,omitempty"`
	Referer  string `json:"referer,omitempty"`
	AppTitle string `json:"app_title,omitempty"`

	// Render selects math display: auto (images when the terminal
	// supports them), text, or image.
	Render string `json:"render,omitempty"`

	OllamaURL string `json:"ollama_url,omitempty"`
}

// PrefEntry holds a single key-value preference entry for display.
type PrefEntry struct {
	Key   string
	Value string
}

// ConfigGroup holds a named group of preference entries for display.
type ConfigGroup struct {
	Name    string
	Entries []PrefEntry
}

// ConfigGroupDef defines a single group with a name and its keys.
type ConfigGroupDef struct {
	Name string
	Keys []string
}

// ConfigGroupDefs defines the preference key groupings and their display order.
var ConfigGroupDefs = []ConfigGroupDef{
	{
		Name: "provider",
		Keys: []string{"provider", "api_key", "model", "ollama.url", "referer", "app_title"},
	},
	{
		Name: "display",
		Keys: []string{"render"},
	},
}

// ConfigGroupNames returns the list of valid group names.
func ConfigGroupNames() []string {
	names := make([]string, len(ConfigGroupDefs))
	for i, g := range ConfigGroupDefs {
		names[i] = g.Name
	}
	return names
}

// ValidConfigKeys returns all config keys accepted by Set().
func ValidConfigKeys() []string {
	var keys []string
	for _, g := range ConfigGroupDefs {
		keys = append(keys, g.Keys...)
	}
	return keys
}

// DefaultPreferences returns the default set of preferences.
func DefaultPreferences() Preferences {
	return Preferences{
		Provider: "openrouter",
		Render:   RenderAuto,
	}
}

// LoadPreferences reads preferences from ~/.config/parley/config.json.
// Missing or unreadable files yield defaults.
func LoadPreferences() Preferences {
	dir := ConfigDir()
	if dir == "" {
		return DefaultPreferences()
	}

	configPath := filepath.Join(dir, "config.json")
	p := DefaultPreferences()

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, &p); err != nil {
			fmt.Fprintf(os.Stderr, "config: parse %s: %v\n", configPath, err)
		}
		warnInsecurePermissions(configPath)
	}

	if sanitizePreferences(&p) {
		// Persist cleaned values so control characters don't accumulate
		// across restarts.
		if err := SavePreferences(p); err != nil {
			fmt.Fprintf(os.Stderr, "config: save sanitized config: %v\n", err)
		}
	}

	return p
}

// SavePreferences writes preferences to ~/.config/parley/config.json.
func SavePreferences(p Preferences) error {
	dir := ConfigDir()
	if dir == "" {
		return fmt.Errorf("could not determine config directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o600)
}

// warnInsecurePermissions prints a warning to stderr if the config file is
// readable by group or others. On Windows, file permission bits don't map
// to ACLs, so the check is skipped.
func warnInsecurePermissions(path string) {
	if runtime.GOOS == "windows" {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.Mode().Perm()&0o077 != 0 {
		fmt.Fprintf(os.Stderr, "WARNING: %s is readable by others (mode %o). Run: chmod 600 %s\n",
			path, info.Mode().Perm(), path)
	}
}

// Grouped returns all preferences organized into named groups.
// Values are display-ready: the API key is masked, empty values annotated.
func (p Preferences) Grouped() []ConfigGroup {
	all := p.entryMap()

	var groups []ConfigGroup
	for _, def := range ConfigGroupDefs {
		var entries []PrefEntry
		for _, key := range def.Keys {
			entries = append(entries, PrefEntry{
				Key:   key,
				Value: AnnotateValue(all[key]),
			})
		}
		groups = append(groups, ConfigGroup{Name: def.Name, Entries: entries})
	}
	return groups
}

// GroupByName returns entries for a single config group, or nil if not found.
func (p Preferences) GroupByName(name string) *ConfigGroup {
	for _, g := range p.Grouped() {
		if g.Name == name {
			return &g
		}
	}
	return nil
}

// entryMap returns all preference entries as a key->value map.
func (p Preferences) entryMap() map[string]string {
	m := make(map[string]string)
	for _, e := range p.All() {
		m[e.Key] = e.Value
	}
	return m
}

// All returns all preference entries as a flat list.
func (p Preferences) All() []PrefEntry {
	return []PrefEntry{
		{"provider", p.Provider},
		{"api_key", resolveKeyDisplay(p.APIKey, APIKeyEnvVar)},
		{"model", p.Model},
		{"ollama.url", p.OllamaURL},
		{"referer", p.Referer},
		{"app_title", p.AppTitle},
		{"render", p.Render},
	}
}

// Get returns the display value for a single preference key.
func (p Preferences) Get(key string) string {
	switch key {
	case "provider":
		return p.Provider
	case "api_key":
		return MaskKey(p.APIKey)
	case "model":
		return p.Model
	case "ollama.url":
		return p.OllamaURL
	case "referer":
		return p.Referer
	case "app_title":
		return p.AppTitle
	case "render":
		return p.Render
	default:
		return ""
	}
}

// Set updates a single preference key to the given value.
func (p *Preferences) Set(key, value string) error {
	value = SanitizeValue(value)
	switch key {
	case "provider":
		name := strings.ToLower(value)
		for _, known := range KnownProviders {
			if name == known {
				p.Provider = name
				return nil
			}
		}
		return fmt.Errorf("unknown provider: %s (use %s)", value, strings.Join(KnownProviders, " or "))
	case "api_key":
		p.APIKey = value
	case "model":
		p.Model = value
	case "ollama.url":
		p.OllamaURL = value
	case "referer":
		p.Referer = value
	case "app_title":
		p.AppTitle = value
	case "render":
		mode := strings.ToLower(value)
		switch mode {
		case RenderAuto, RenderText, RenderImage:
			p.Render = mode
		default:
			return fmt.Errorf("invalid render mode: %s (use auto, text, or image)", value)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// SanitizeValue strips null bytes, ASCII control characters (< 32 except
// \n and \t), and DEL (0x7F) from a string value and trims surrounding
// whitespace. API keys should never contain control characters — these
// typically sneak in through clipboard paste artifacts.
func SanitizeValue(s string) string {
	return strings.Map(func(r rune) rune {
		if (r < 32 && r != '\n' && r != '\t') || r == 0x7F {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// sanitizePreferences strips control characters from all string fields in
// an already-loaded Preferences struct. Returns true if any field was modified.
func sanitizePreferences(p *Preferences) bool {
	changed := false
	sanitize := func(s *string) {
		cleaned := SanitizeValue(*s)
		if cleaned != *s {
			*s = cleaned
			changed = true
		}
	}
	sanitize(&p.APIKey)
	sanitize(&p.Model)
	sanitize(&p.Provider)
	sanitize(&p.Referer)
	sanitize(&p.AppTitle)
	sanitize(&p.Render)
	sanitize(&p.OllamaURL)
	return changed
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// resolveKeyDisplay returns a masked key for display. If the preference is
// empty but the env var is set, shows the masked env value with "(from env)".
func resolveKeyDisplay(prefKey, envVar string) string {
	if prefKey != "" {
		return MaskKey(prefKey)
	}
	if envVal := strings.TrimSpace(os.Getenv(envVar)); envVal != "" {
		return MaskKey(envVal) + " (from env)"
	}
	return ""
}

// MaskKey masks an API key for display, showing only the last 4 characters.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// AnnotateValue returns a display string for a config value.
// Shows "(not set)" for empty values, otherwise shows the raw value.
func AnnotateValue(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}

// ConfigFilePath returns the absolute path to config.json.
func ConfigFilePath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.json")
}

// ---------------------------------------------------------------------------
// Config actions
// ---------------------------------------------------------------------------

// ExecuteConfigAction handles --config subcommands and returns a plain-text
// response. The caller applies its own formatting.
func ExecuteConfigAction(prefs *Preferences, args []string) (string, error) {
	sub := "show"
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}

	switch sub {
	case "show":
		return FormatConfigGroups(prefs.Grouped()), nil

	case "provider", "display":
		group := prefs.GroupByName(sub)
		if group == nil {
			return "", fmt.Errorf("unknown config group: %s", sub)
		}
		return FormatConfigGroups([]ConfigGroup{*group}), nil

	case "get":
		if len(args) < 2 {
			return "", fmt.Errorf("usage: config get <key>")
		}
		return fmt.Sprintf("%s = %s", args[1], AnnotateValue(prefs.Get(args[1]))), nil

	case "set":
		if len(args) < 3 {
			return "", fmt.Errorf("usage: config set <key> <value>")
		}
		key := args[1]
		value := strings.Join(args[2:], " ")
		if err := prefs.Set(key, value); err != nil {
			return "", err
		}
		if err := SavePreferences(*prefs); err != nil {
			return "", fmt.Errorf("failed to save: %w", err)
		}
		return fmt.Sprintf("Set %s = %s", key, prefs.Get(key)), nil

	case "reset":
		*prefs = DefaultPreferences()
		if err := SavePreferences(*prefs); err != nil {
			return "", fmt.Errorf("failed to save: %w", err)
		}
		return "Preferences reset to defaults.", nil

	default:
		return "", fmt.Errorf("usage: config [show|provider|display|get <key>|set <key> <value>|reset]")
	}
}

// FormatConfigGroups renders config groups as plain text (no ANSI styling).
func FormatConfigGroups(groups []ConfigGroup) string {
	var lines []string
	for i, g := range groups {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, strings.ToUpper(g.Name[:1])+g.Name[1:]+":")
		for _, e := range g.Entries {
			lines = append(lines, fmt.Sprintf("  %-12s %s", e.Key, e.Value))
		}
	}
	lines = append(lines, "")
	lines = append(lines, "  Use config set <key> <value> to change")
	return strings.Join(lines, "\n")
}
