package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// TestDefaultConfig_Interests verifies the interest model defaults.
func TestDefaultConfig_Interests(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Interests.VectorDims != 100 {
		t.Errorf("VectorDims = %d, want 100", cfg.Interests.VectorDims)
	}
	if cfg.Interests.TrainPasses != 10 {
		t.Errorf("TrainPasses = %d, want 10", cfg.Interests.TrainPasses)
	}
	if cfg.Interests.ContextWindow != 5 {
		t.Errorf("ContextWindow = %d, want 5", cfg.Interests.ContextWindow)
	}
	if cfg.Interests.MatchThreshold != 0.7 {
		t.Errorf("MatchThreshold = %v, want 0.7", cfg.Interests.MatchThreshold)
	}
	if cfg.Interests.MaxConversations != 8 {
		t.Errorf("MaxConversations = %d, want 8", cfg.Interests.MaxConversations)
	}
}

// TestDefaultConfig_Store verifies the store falls back to sqlite.
func TestDefaultConfig_Store(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Store.Addr != "" {
		t.Error("Store addr should be empty by default")
	}
	if cfg.Store.RootKey == "" {
		t.Error("Store root key should not be empty")
	}
	if cfg.Store.SQLitePath == "" {
		t.Error("SQLite path should not be empty")
	}
	if cfg.Store.OpTimeout() <= 0 {
		t.Error("Store op timeout should be positive")
	}
}

// TestDefaultConfig_Channels verifies channel tokens are empty by default.
func TestDefaultConfig_Channels(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Channels.Telegram.Token != "" {
		t.Error("Telegram token should be empty by default")
	}
	if cfg.Channels.Discord.Token != "" {
		t.Error("Discord token should be empty by default")
	}
}

// TestDefaultConfig_Provider verifies the chat API defaults.
func TestDefaultConfig_Provider(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Provider.APIBase == "" {
		t.Error("Provider API base should not be empty")
	}
	if cfg.Provider.Model == "" {
		t.Error("Provider model should not be empty")
	}
	if cfg.Provider.AccessToken != "" {
		t.Error("Provider access token should be empty by default")
	}
}

// TestDefaultConfig_Maintenance verifies the sweep schedule default.
func TestDefaultConfig_Maintenance(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Maintenance.Enabled {
		t.Error("Maintenance should be enabled by default")
	}
	if cfg.Maintenance.Schedule == "" {
		t.Error("Maintenance schedule should not be empty")
	}
}

func TestSaveConfig_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file permission bits are not enforced on Windows")
	}

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.json")

	cfg := DefaultConfig()
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("config file has permission %04o, want 0600", perm)
	}
}

func TestLoadConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.Store.RootKey = "custom"
	cfg.Channels.Telegram.Token = "tg-token"
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Store.RootKey != "custom" {
		t.Errorf("RootKey = %q, want %q", loaded.Store.RootKey, "custom")
	}
	if loaded.Channels.Telegram.Token != "tg-token" {
		t.Errorf("Telegram token = %q, want %q", loaded.Channels.Telegram.Token, "tg-token")
	}
}

func TestLoadConfig_EnvOverridesWithoutFile(t *testing.T) {
	t.Setenv("JARVISBOT_PROVIDER_MODEL", "env/model")
	path := filepath.Join(t.TempDir(), "missing-config.json")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if got := cfg.Provider.Model; got != "env/model" {
		t.Fatalf("expected env override model, got %q", got)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := DefaultConfig()
	cfg.Store.Addr = "file:6379"
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	t.Setenv("JARVISBOT_STORE_ADDR", "env:6379")
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Store.Addr != "env:6379" {
		t.Fatalf("Store addr = %q, want env override", loaded.Store.Addr)
	}
}

func TestFlexibleStringSlice_AcceptsMixedTypes(t *testing.T) {
	var f FlexibleStringSlice
	if err := f.UnmarshalJSON([]byte(`["alice", 12345]`)); err != nil {
		t.Fatalf("mixed unmarshal failed: %v", err)
	}
	if len(f) != 2 || f[0] != "alice" || f[1] != "12345" {
		t.Fatalf("mixed unmarshal got %v", f)
	}
}
