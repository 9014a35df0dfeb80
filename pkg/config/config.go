package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so allow_from can contain both "123" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	// Try []string first
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	// Try []interface{} to handle mixed types
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Store       StoreConfig       `json:"store"`
	Channels    ChannelsConfig    `json:"channels"`
	Provider    ProviderConfig    `json:"provider"`
	Books       BooksConfig       `json:"books"`
	Interests   InterestsConfig   `json:"interests"`
	Maintenance MaintenanceConfig `json:"maintenance"`
	mu          sync.RWMutex
}

// StoreConfig selects and configures the key-value backend. When Addr is
// empty the bot falls back to a local sqlite file at SQLitePath.
type StoreConfig struct {
	Addr           string `json:"addr" env:"JARVISBOT_STORE_ADDR"`
	Username       string `json:"username" env:"JARVISBOT_STORE_USERNAME"`
	Password       string `json:"password" env:"JARVISBOT_STORE_PASSWORD"`
	RootKey        string `json:"root_key" env:"JARVISBOT_STORE_ROOT_KEY"`
	SQLitePath     string `json:"sqlite_path" env:"JARVISBOT_STORE_SQLITE_PATH"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"JARVISBOT_STORE_TIMEOUT_SECONDS"`
}

func (s StoreConfig) OpTimeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
}

type TelegramConfig struct {
	Token     string              `json:"token" env:"JARVISBOT_CHANNELS_TELEGRAM_TOKEN"`
	AllowFrom FlexibleStringSlice `json:"allow_from" env:"JARVISBOT_CHANNELS_TELEGRAM_ALLOW_FROM"`
}

type DiscordConfig struct {
	Token     string              `json:"token" env:"JARVISBOT_CHANNELS_DISCORD_TOKEN"`
	AllowFrom FlexibleStringSlice `json:"allow_from" env:"JARVISBOT_CHANNELS_DISCORD_ALLOW_FROM"`
}

// ProviderConfig points at an Azure-style chat completions deployment
// (base URL + deployment name + API version).
type ProviderConfig struct {
	APIBase     string `json:"api_base" env:"JARVISBOT_PROVIDER_API_BASE"`
	Model       string `json:"model" env:"JARVISBOT_PROVIDER_MODEL"`
	APIVersion  string `json:"api_version" env:"JARVISBOT_PROVIDER_API_VERSION"`
	AccessToken string `json:"access_token" env:"JARVISBOT_PROVIDER_ACCESS_TOKEN"`
}

type BooksConfig struct {
	MaxResults      int    `json:"max_results" env:"JARVISBOT_BOOKS_MAX_RESULTS"`
	DefaultLanguage string `json:"default_language" env:"JARVISBOT_BOOKS_DEFAULT_LANGUAGE"`
}

type InterestsConfig struct {
	VectorDims       int     `json:"vector_dims" env:"JARVISBOT_INTERESTS_VECTOR_DIMS"`
	TrainPasses      int     `json:"train_passes" env:"JARVISBOT_INTERESTS_TRAIN_PASSES"`
	ContextWindow    int     `json:"context_window" env:"JARVISBOT_INTERESTS_CONTEXT_WINDOW"`
	MatchThreshold   float64 `json:"match_threshold" env:"JARVISBOT_INTERESTS_MATCH_THRESHOLD"`
	MaxConversations int     `json:"max_conversations" env:"JARVISBOT_INTERESTS_MAX_CONVERSATIONS"`
}

type MaintenanceConfig struct {
	Enabled  bool   `json:"enabled" env:"JARVISBOT_MAINTENANCE_ENABLED"`
	Schedule string `json:"schedule" env:"JARVISBOT_MAINTENANCE_SCHEDULE"`
}

func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Addr:           "",
			Username:       "",
			Password:       "",
			RootKey:        "jarvisbot",
			SQLitePath:     "~/.jarvisbot/state/store.db",
			TimeoutSeconds: 5,
		},
		Channels: ChannelsConfig{
			Telegram: TelegramConfig{
				Token:     "",
				AllowFrom: FlexibleStringSlice{},
			},
			Discord: DiscordConfig{
				Token:     "",
				AllowFrom: FlexibleStringSlice{},
			},
		},
		Provider: ProviderConfig{
			APIBase:    "https://genai.hkbu.edu.hk/general/rest",
			Model:      "gpt-4-o-mini",
			APIVersion: "2024-05-01-preview",
		},
		Books: BooksConfig{
			MaxResults:      5,
			DefaultLanguage: "en",
		},
		Interests: InterestsConfig{
			VectorDims:       100,
			TrainPasses:      10,
			ContextWindow:    5,
			MatchThreshold:   0.7,
			MaxConversations: 8,
		},
		Maintenance: MaintenanceConfig{
			Enabled:  true,
			Schedule: "*/30 * * * *",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// SQLitePath returns the local store fallback path with ~ expanded.
func (c *Config) SQLitePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Store.SQLitePath)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
