package profile

import (
	"context"
	"testing"
)

func TestVectorCache_SaveLoadRoundtrip(t *testing.T) {
	st := newFakeStore()
	cache := NewVectorCache(st, "bot")
	ctx := context.Background()

	want := []float32{0.1, -0.5, 0.25}
	if err := cache.Save(ctx, "42", want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := cache.Load(ctx, "42")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got len %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("component %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestVectorCache_AbsentIsNil(t *testing.T) {
	cache := NewVectorCache(newFakeStore(), "bot")
	vec, err := cache.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if vec != nil {
		t.Fatalf("expected nil for absent vector, got %v", vec)
	}
}

func TestVectorCache_MalformedTreatedAsAbsent(t *testing.T) {
	st := newFakeStore()
	cache := NewVectorCache(st, "bot")
	ctx := context.Background()

	if err := st.Set(ctx, "bot:42:interests_vector", "corrupt["); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	vec, err := cache.Load(ctx, "42")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if vec != nil {
		t.Fatalf("expected nil for malformed vector, got %v", vec)
	}
}

func TestVectorCache_LoadOrComputeFallsBackToModel(t *testing.T) {
	cache := NewVectorCache(newFakeStore(), "bot")
	ctx := context.Background()

	model := NewInterestModel(8, 2, 1, 1)
	model.Update([]string{"poetry", "verse"})

	vec, err := cache.LoadOrCompute(ctx, "42", model)
	if err != nil {
		t.Fatalf("LoadOrCompute failed: %v", err)
	}
	if len(vec) != 8 {
		t.Fatalf("expected model vector of len 8, got %d", len(vec))
	}

	// The computed vector must not have been persisted.
	stored, err := cache.Load(ctx, "42")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if stored != nil {
		t.Fatal("LoadOrCompute should not persist the computed vector")
	}
}
