package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemory_PutGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) err = %v, want ErrNotFound", err)
	}
	if err := m.Put(ctx, "k", []byte("v"), 0, "job-listings"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get(k) = %q, %v", got, err)
	}
}

func TestMemory_RejectsEmptyKey(t *testing.T) {
	m := NewMemory(0)
	if err := m.Put(context.Background(), "", []byte("v"), 0); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Put(\"\") err = %v", err)
	}
}

func TestMemory_InvalidateByTag(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	m.Put(ctx, "page1", []byte("a"), 0, "job-listings", "organization-acme")
	m.Put(ctx, "page2", []byte("b"), 0, "job-listings", "organization-globex")
	m.Put(ctx, "detail", []byte("c"), 0, "organization-acme")

	if err := m.Invalidate(ctx, "organization-acme"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := m.Get(ctx, "page1"); !errors.Is(err, ErrNotFound) {
		t.Error("page1 should be gone after invalidating organization-acme")
	}
	if _, err := m.Get(ctx, "detail"); !errors.Is(err, ErrNotFound) {
		t.Error("detail should be gone after invalidating organization-acme")
	}
	if _, err := m.Get(ctx, "page2"); err != nil {
		t.Errorf("page2 should survive, got %v", err)
	}

	m.Invalidate(ctx, "job-listings")
	if m.Len() != 0 {
		t.Errorf("Len() = %d after global invalidation, want 0", m.Len())
	}
}

func TestMemory_PutReplacesTags(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	m.Put(ctx, "k", []byte("old"), 0, "organization-acme")
	m.Put(ctx, "k", []byte("new"), 0, "organization-globex")

	m.Invalidate(ctx, "organization-acme")
	got, err := m.Get(ctx, "k")
	if err != nil || string(got) != "new" {
		t.Errorf("Get(k) = %q, %v; the old tag must not drop the replaced entry", got, err)
	}
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Put(ctx, "k", []byte("v"), 30*time.Second, "job-listings")
	now = now.Add(31 * time.Second)

	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired Get err = %v, want ErrNotFound", err)
	}
	if m.Len() != 0 {
		t.Errorf("expired entry should be dropped on read, Len() = %d", m.Len())
	}
}

func TestMemory_GenerationAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	if gen, _ := m.Generation(ctx, "job-listings"); gen != 0 {
		t.Fatalf("initial generation = %d, want 0", gen)
	}
	m.Invalidate(ctx, "job-listings", "organization-acme")
	m.Invalidate(ctx, "job-listings")
	if gen, _ := m.Generation(ctx, "job-listings"); gen != 2 {
		t.Errorf("job-listings generation = %d, want 2", gen)
	}
	if gen, _ := m.Generation(ctx, "organization-acme"); gen != 1 {
		t.Errorf("organization-acme generation = %d, want 1", gen)
	}

	m.Put(ctx, "k", []byte("v"), 0, "job-listings")
	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete err = %v", err)
	}
	if err := m.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}
}
