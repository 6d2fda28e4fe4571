// CachingRepository tests.
package kivis

import (
	"context"
	"testing"
)

// TestCachingRepositoryGetPopulatesFront verifies a Back-only hit is copied
// into Front, so the next Get of the same key does not need to reach Back.
func TestCachingRepositoryGetPopulatesFront(t *testing.T) {
	ctx := context.Background()
	front := NewMemoryRepository()
	back := NewMemoryRepository()
	back.Insert(ctx, []byte("k"), []byte("v"))

	c := NewCachingRepository(front, back)

	v, ok, err := c.Get(ctx, []byte("k"))
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("Get = (%q, %v, %v), want (v, true, nil)", v, ok, err)
	}

	if fv, fok, _ := front.Get(ctx, []byte("k")); !fok || string(fv) != "v" {
		t.Errorf("front should have been populated after a Back hit, got ok=%v val=%q", fok, fv)
	}
}

// TestCachingRepositoryInsertWritesBothLayers verifies Insert reaches both
// Front and Back.
func TestCachingRepositoryInsertWritesBothLayers(t *testing.T) {
	ctx := context.Background()
	front := NewMemoryRepository()
	back := NewMemoryRepository()
	c := NewCachingRepository(front, back)

	if err := c.Insert(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if _, ok, _ := front.Get(ctx, []byte("k")); !ok {
		t.Error("Front missing key after Insert")
	}
	if _, ok, _ := back.Get(ctx, []byte("k")); !ok {
		t.Error("Back missing key after Insert")
	}
}

// TestCachingRepositoryRemoveDeletesBothLayers verifies Remove clears the
// key from Front and Back, the chosen resolution for this layer's one
// eviction-semantics open question.
func TestCachingRepositoryRemoveDeletesBothLayers(t *testing.T) {
	ctx := context.Background()
	front := NewMemoryRepository()
	back := NewMemoryRepository()
	c := NewCachingRepository(front, back)
	c.Insert(ctx, []byte("k"), []byte("v"))

	if _, ok, err := c.Remove(ctx, []byte("k")); err != nil || !ok {
		t.Fatalf("Remove: ok=%v err=%v", ok, err)
	}

	if _, ok, _ := front.Get(ctx, []byte("k")); ok {
		t.Error("Front should no longer have the key after Remove")
	}
	if _, ok, _ := back.Get(ctx, []byte("k")); ok {
		t.Error("Back should no longer have the key after Remove")
	}
}
