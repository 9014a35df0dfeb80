package profile

import (
	"context"
	"reflect"
	"testing"
)

func TestDirectory_RefreshFindsUsersAcrossKeyTypes(t *testing.T) {
	st := newFakeStore()
	ctx := context.Background()

	st.Append(ctx, "bot:alice:conversations", `{"role":"user","content":"hi"}`)
	st.Set(ctx, "bot:alice:interests_vector", "[0.1]")
	st.Set(ctx, "bot:bob:username", "Bob")
	st.Set(ctx, "bot", "{}")
	st.Set(ctx, "other:carol:username", "Carol")

	dir := NewDirectory(st, "bot")
	if err := dir.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	want := []string{"alice", "bob"}
	if got := dir.Users(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Users = %v, want %v", got, want)
	}
	if !dir.Contains("alice") || dir.Contains("carol") {
		t.Fatal("Contains returned wrong membership")
	}
}

func TestDirectory_RefreshIsIdempotent(t *testing.T) {
	st := newFakeStore()
	ctx := context.Background()
	st.Set(ctx, "bot:alice:username", "Alice")

	dir := NewDirectory(st, "bot")
	if err := dir.Refresh(ctx); err != nil {
		t.Fatalf("first Refresh failed: %v", err)
	}
	first := dir.Users()
	if err := dir.Refresh(ctx); err != nil {
		t.Fatalf("second Refresh failed: %v", err)
	}
	if got := dir.Users(); !reflect.DeepEqual(got, first) {
		t.Fatalf("second refresh changed the set: %v vs %v", got, first)
	}
}

func TestDirectory_RefreshReplacesStaleUsers(t *testing.T) {
	st := newFakeStore()
	ctx := context.Background()
	st.Set(ctx, "bot:alice:username", "Alice")

	dir := NewDirectory(st, "bot")
	if err := dir.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	delete(st.scalars, "bot:alice:username")
	st.Set(ctx, "bot:bob:username", "Bob")
	if err := dir.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if dir.Contains("alice") {
		t.Fatal("stale user survived refresh")
	}
	if !dir.Contains("bob") {
		t.Fatal("new user missing after refresh")
	}
}
