package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestMaskKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"empty key", "", ""},
		{"short key", "abc", "****"},
		{"exactly 4 chars", "abcd", "****"},
		{"normal key", "sk-or-v1-abc123xyz", "****3xyz"},
		{"long key", "sk-or-v1-very-long-key-here-1234", "****1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaskKey(tt.key)
			if got != tt.want {
				t.Errorf("MaskKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestSanitizeValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean value", "sk-or-v1-abcd", "sk-or-v1-abcd"},
		{"surrounding whitespace", "  sk-key  ", "sk-key"},
		{"null bytes stripped", "sk\x00-key", "sk-key"},
		{"control chars stripped", "sk\x01\x02-key\x7f", "sk-key"},
		{"newline and tab kept", "a\nb\tc", "a\nb\tc"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeValue(tt.input); got != tt.want {
				t.Errorf("SanitizeValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPreferences_SetGet(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"api_key", "sk-or-v1-test1234", "****1234"},
		{"model", "x-ai/grok-4.1-fast:free", "x-ai/grok-4.1-fast:free"},
		{"provider", "ollama", "ollama"},
		{"provider", "OpenRouter", "openrouter"},
		{"ollama.url", "http://localhost:11434", "http://localhost:11434"},
		{"referer", "https://example.com", "https://example.com"},
		{"app_title", "parley", "parley"},
		{"render", "text", "text"},
		{"render", "IMAGE", "image"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			p := DefaultPreferences()
			if err := p.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%q, %q) error: %v", tt.key, tt.value, err)
			}
			got := p.Get(tt.key)
			if got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestPreferences_Set_invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "nonsense", "x"},
		{"bad render mode", "render", "fancy"},
		{"bad provider", "provider", "anthropic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPreferences()
			if err := p.Set(tt.key, tt.value); err == nil {
				t.Errorf("Set(%q, %q) expected error, got nil", tt.key, tt.value)
			}
		})
	}
}

func TestPreferences_All_masksKey(t *testing.T) {
	p := DefaultPreferences()
	p.APIKey = "sk-or-v1-long-key-1234"

	for _, e := range p.All() {
		if e.Key == "api_key" {
			if strings.Contains(e.Value, "long-key") {
				t.Errorf("api_key not masked: %q", e.Value)
			}
			if !strings.HasPrefix(e.Value, "****") {
				t.Errorf("api_key display = %q, want **** prefix", e.Value)
			}
		}
	}
}

func TestValidConfigKeys_coversAllEntries(t *testing.T) {
	valid := make(map[string]bool)
	for _, k := range ValidConfigKeys() {
		valid[k] = true
	}
	for _, e := range DefaultPreferences().All() {
		if !valid[e.Key] {
			t.Errorf("entry key %q missing from ValidConfigKeys", e.Key)
		}
	}
}

func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences()
	if p.Provider != "openrouter" {
		t.Errorf("Provider = %q, want openrouter", p.Provider)
	}
	if p.Render != RenderAuto {
		t.Errorf("Render = %q, want %q", p.Render, RenderAuto)
	}
	if p.APIKey != "" {
		t.Error("expected empty default APIKey")
	}
}

func TestSaveLoadPreferences_roundTrip(t *testing.T) {
	dir := t.TempDir()
	orig := configDirOverride
	configDirOverride = dir
	t.Cleanup(func() { configDirOverride = orig })

	p := DefaultPreferences()
	p.APIKey = "sk-or-v1-roundtrip"
	p.Model = "x-ai/grok-4.1-fast:free"
	p.Render = RenderText
	if err := SavePreferences(p); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}

	got := LoadPreferences()
	if got.APIKey != p.APIKey {
		t.Errorf("APIKey = %q, want %q", got.APIKey, p.APIKey)
	}
	if got.Model != p.Model {
		t.Errorf("Model = %q, want %q", got.Model, p.Model)
	}
	if got.Render != p.Render {
		t.Errorf("Render = %q, want %q", got.Render, p.Render)
	}
}

func TestSavePreferences_fileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on windows")
	}
	dir := t.TempDir()
	orig := configDirOverride
	configDirOverride = dir
	t.Cleanup(func() { configDirOverride = orig })

	if err := SavePreferences(DefaultPreferences()); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("stat config.json: %v", err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		t.Errorf("config.json mode = %o, want no group/other bits", perm)
	}
}

func TestLoadPreferences_sanitizesOnLoad(t *testing.T) {
	dir := t.TempDir()
	orig := configDirOverride
	configDirOverride = dir
	t.Cleanup(func() { configDirOverride = orig })

	raw := map[string]string{"api_key": "sk\x00-pasted\x01-key"}
	data, _ := json.Marshal(raw)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	p := LoadPreferences()
	if p.APIKey != "sk-pasted-key" {
		t.Errorf("APIKey = %q, want control chars stripped", p.APIKey)
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Run("env wins over config", func(t *testing.T) {
		t.Setenv(APIKeyEnvVar, "sk-from-env")
		key, err := ResolveAPIKey(Preferences{APIKey: "sk-from-config"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if key != "sk-from-env" {
			t.Errorf("key = %q, want env value", key)
		}
	})

	t.Run("falls back to config", func(t *testing.T) {
		t.Setenv(APIKeyEnvVar, "")
		key, err := ResolveAPIKey(Preferences{APIKey: "sk-from-config"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if key != "sk-from-config" {
			t.Errorf("key = %q, want config value", key)
		}
	})

	t.Run("missing everywhere errors", func(t *testing.T) {
		t.Setenv(APIKeyEnvVar, "")
		if _, err := ResolveAPIKey(Preferences{}); err == nil {
			t.Fatal("expected error when no key is configured")
		}
	})

	t.Run("ollama needs no key", func(t *testing.T) {
		t.Setenv(APIKeyEnvVar, "")
		key, err := ResolveAPIKey(Preferences{Provider: "ollama"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if key != "" {
			t.Errorf("key = %q, want empty for ollama", key)
		}
	})
}

func TestAPIKeySource(t *testing.T) {
	t.Run("env", func(t *testing.T) {
		t.Setenv(APIKeyEnvVar, "sk-x")
		if got := APIKeySource(Preferences{APIKey: "sk-y"}); got != "env" {
			t.Errorf("source = %q, want env", got)
		}
	})
	t.Run("config", func(t *testing.T) {
		t.Setenv(APIKeyEnvVar, "")
		if got := APIKeySource(Preferences{APIKey: "sk-y"}); got != "config" {
			t.Errorf("source = %q, want config", got)
		}
	})
	t.Run("none", func(t *testing.T) {
		t.Setenv(APIKeyEnvVar, "")
		if got := APIKeySource(Preferences{}); got != "" {
			t.Errorf("source = %q, want empty", got)
		}
	})
}

func TestExecuteConfigAction(t *testing.T) {
	dir := t.TempDir()
	orig := configDirOverride
	configDirOverride = dir
	t.Cleanup(func() { configDirOverride = orig })

	t.Run("show lists groups", func(t *testing.T) {
		p := DefaultPreferences()
		out, err := ExecuteConfigAction(&p, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Provider:", "Display:", "render"} {
			if !strings.Contains(out, want) {
				t.Errorf("show output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("set persists", func(t *testing.T) {
		p := DefaultPreferences()
		out, err := ExecuteConfigAction(&p, []string{"set", "model", "x-ai/grok-4.1-fast:free"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "x-ai/grok-4.1-fast:free") {
			t.Errorf("set output = %q", out)
		}
		if got := LoadPreferences().Model; got != "x-ai/grok-4.1-fast:free" {
			t.Errorf("persisted model = %q", got)
		}
	})

	t.Run("set masks secret in response", func(t *testing.T) {
		p := DefaultPreferences()
		out, err := ExecuteConfigAction(&p, []string{"set", "api_key", "sk-or-v1-secret-9999"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(out, "secret") {
			t.Errorf("set output leaks key: %q", out)
		}
	})

	t.Run("unknown subcommand errors", func(t *testing.T) {
		p := DefaultPreferences()
		if _, err := ExecuteConfigAction(&p, []string{"bogus"}); err == nil {
			t.Fatal("expected error for unknown subcommand")
		}
	})
}
