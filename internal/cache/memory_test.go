package cache

import (
	"context"
	"testing"
)

func TestMemoryLookupCache(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryLookupCache()

	if _, ok := mc.Get(ctx, "payment", "p1"); ok {
		t.Fatalf("empty cache returned a record")
	}

	mc.Set(ctx, "payment", "p1", map[string]any{"id": "p1"})
	mc.Set(ctx, "refund", "p1", map[string]any{"id": "rf"})

	got, ok := mc.Get(ctx, "payment", "p1")
	if !ok || got["id"] != "p1" {
		t.Errorf("unexpected payment record: %v, %v", got, ok)
	}
	got, ok = mc.Get(ctx, "refund", "p1")
	if !ok || got["id"] != "rf" {
		t.Errorf("kinds must not collide: %v, %v", got, ok)
	}
	if mc.Len() != 2 {
		t.Errorf("expected 2 records, got %d", mc.Len())
	}
}

func TestNop(t *testing.T) {
	var c LookupCache = Nop{}
	c.Set(context.Background(), "payment", "p1", map[string]any{"id": "p1"})
	if _, ok := c.Get(context.Background(), "payment", "p1"); ok {
		t.Errorf("Nop must never return a record")
	}
}
