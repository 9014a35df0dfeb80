package profile

import (
	"context"
	"testing"
)

func TestConversationLog_AppendAndRecent(t *testing.T) {
	st := newFakeStore()
	log := NewConversationLog(st, "bot", "42", 8)
	ctx := context.Background()

	turns := []Turn{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi there"},
		{Role: RoleUser, Content: "read anything good?"},
	}
	for _, turn := range turns {
		if err := log.Append(ctx, turn); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := log.Recent(ctx)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != len(turns) {
		t.Fatalf("got %d turns, want %d", len(got), len(turns))
	}
	for i := range turns {
		if got[i] != turns[i] {
			t.Errorf("turn %d = %+v, want %+v", i, got[i], turns[i])
		}
	}
}

func TestConversationLog_TrimKeepsMostRecent(t *testing.T) {
	st := newFakeStore()
	log := NewConversationLog(st, "bot", "42", 4)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := log.Append(ctx, Turn{Role: RoleUser, Content: string(rune('a' + i))}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := log.Trim(ctx); err != nil {
		t.Fatalf("Trim failed: %v", err)
	}

	got, err := log.Recent(ctx)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d turns after trim, want 4", len(got))
	}
	if got[0].Content != "g" || got[3].Content != "j" {
		t.Errorf("trim kept wrong window: first=%q last=%q", got[0].Content, got[3].Content)
	}
}

func TestConversationLog_MalformedEntrySkipped(t *testing.T) {
	st := newFakeStore()
	log := NewConversationLog(st, "bot", "42", 8)
	ctx := context.Background()

	if err := log.Append(ctx, Turn{Role: RoleUser, Content: "good"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := st.Append(ctx, "bot:42:conversations", "not-json{{"); err != nil {
		t.Fatalf("raw append failed: %v", err)
	}
	if err := log.Append(ctx, Turn{Role: RoleAssistant, Content: "also good"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := log.Recent(ctx)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d turns, want 2 (malformed entry skipped)", len(got))
	}
	if got[0].Content != "good" || got[1].Content != "also good" {
		t.Errorf("unexpected turns: %+v", got)
	}
}

func TestConversationLog_InsertPushesToHead(t *testing.T) {
	st := newFakeStore()
	log := NewConversationLog(st, "bot", "42", 8)
	ctx := context.Background()

	if err := log.Append(ctx, Turn{Role: RoleUser, Content: "second"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := log.Insert(ctx, Turn{Role: RoleUser, Content: "first"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := log.Recent(ctx)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 || got[0].Content != "first" {
		t.Fatalf("unexpected order: %+v", got)
	}
}
