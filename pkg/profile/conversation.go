package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookwormlabs/jarvisbot/pkg/logger"
	"github.com/bookwormlabs/jarvisbot/pkg/store"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged message in a conversation log.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationLog is a per-user bounded append-only log backed by a
// list-typed store key. Append and Trim are separate store operations, so a
// log can be transiently over-length between them; readers tolerate that.
type ConversationLog struct {
	store store.Store
	key   string
	max   int64
}

func NewConversationLog(s store.Store, rootKey, userID string, max int) *ConversationLog {
	if max <= 0 {
		max = 8
	}
	return &ConversationLog{
		store: s,
		key:   fmt.Sprintf("%s:%s:conversations", rootKey, userID),
		max:   int64(max),
	}
}

// Append pushes a turn at the tail, preserving chronological order.
func (l *ConversationLog) Append(ctx context.Context, turn Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	return l.store.Append(ctx, l.key, string(data))
}

// Insert pushes a turn at the head instead.
func (l *ConversationLog) Insert(ctx context.Context, turn Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	return l.store.Prepend(ctx, l.key, string(data))
}

// Recent returns all stored turns, oldest first.
func (l *ConversationLog) Recent(ctx context.Context) ([]Turn, error) {
	return l.Slice(ctx, 0, -1)
}

// Slice returns the stored turns in [start, stop] (stop inclusive,
// negatives from the tail). A stored entry that fails to decode is skipped
// and logged; it never aborts the read.
func (l *ConversationLog) Slice(ctx context.Context, start, stop int64) ([]Turn, error) {
	values, err := l.store.Range(ctx, l.key, start, stop)
	if err != nil {
		return nil, err
	}

	turns := make([]Turn, 0, len(values))
	for _, v := range values {
		var turn Turn
		if err := json.Unmarshal([]byte(v), &turn); err != nil {
			logger.WarnCF("profile", "Skipping malformed conversation entry", map[string]interface{}{
				"key":   l.key,
				"error": err.Error(),
			})
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (l *ConversationLog) Count(ctx context.Context) (int64, error) {
	return l.store.Len(ctx, l.key)
}

// Trim drops everything but the most recent max turns. Must be run after
// each completed exchange; the log is also the only text source when an
// interest model is rebuilt from history.
func (l *ConversationLog) Trim(ctx context.Context) error {
	return l.store.Trim(ctx, l.key, -l.max, -1)
}
