package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bookwormlabs/jarvisbot/pkg/logger"
)

// ErrUnavailable wraps any backend/network failure reaching the key-value
// store. Reads that find nothing report absence, never this error.
var ErrUnavailable = errors.New("key-value store unavailable")

// Store is the key-value backend used for all persisted bot state:
// list-typed keys (conversation logs) and scalar keys (vectors, usernames).
// Range/Trim use redis list semantics: zero-based indices, negative counted
// from the tail, stop inclusive.
type Store interface {
	Append(ctx context.Context, key, value string) error
	Prepend(ctx context.Context, key, value string) error
	Range(ctx context.Context, key string, start, stop int64) ([]string, error)
	Trim(ctx context.Context, key string, start, stop int64) error
	Len(ctx context.Context, key string) (int64, error)
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

// Config selects and configures the backend. An empty Addr picks the local
// sqlite file at SQLitePath instead of redis.
type Config struct {
	Addr       string
	Username   string
	Password   string
	RootKey    string
	SQLitePath string
	OpTimeout  time.Duration
}

// Open constructs the store handle and runs the one-time root-key bootstrap.
// The caller constructs it once and shares the handle; nothing here enforces
// a process-wide singleton.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if strings.TrimSpace(cfg.RootKey) == "" {
		return nil, fmt.Errorf("store root key is required")
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 5 * time.Second
	}

	var (
		s   Store
		err error
	)
	if strings.TrimSpace(cfg.Addr) == "" {
		s, err = NewSQLiteStore(cfg.SQLitePath)
	} else {
		s, err = NewRedisStore(cfg)
	}
	if err != nil {
		return nil, err
	}

	if err := bootstrap(ctx, s, cfg.RootKey); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// bootstrap creates the legacy root marker key when absent and logs what is
// already stored under the namespace otherwise.
func bootstrap(ctx context.Context, s Store, rootKey string) error {
	_, found, err := s.Get(ctx, rootKey)
	if err != nil {
		return fmt.Errorf("check root key: %w", err)
	}
	if !found {
		if err := s.Set(ctx, rootKey, "{}"); err != nil {
			return fmt.Errorf("create root key: %w", err)
		}
		logger.InfoCF("store", "Root key created", map[string]interface{}{"root_key": rootKey})
		return nil
	}

	keys, err := s.Keys(ctx, rootKey+":*")
	if err != nil {
		return fmt.Errorf("scan root namespace: %w", err)
	}
	logger.InfoCF("store", "Store connected", map[string]interface{}{
		"root_key": rootKey,
		"keys":     len(keys),
	})
	return nil
}

func unavailable(op, key string, err error) error {
	return fmt.Errorf("%s %s: %w: %v", op, key, ErrUnavailable, err)
}
