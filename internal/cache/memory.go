package cache

import (
	"context"
	"sync"
)

type MemoryLookupCache struct {
	mu      sync.RWMutex
	records map[string]map[string]any
}

func NewMemoryLookupCache() *MemoryLookupCache {
	return &MemoryLookupCache{records: map[string]map[string]any{}}
}

func (mc *MemoryLookupCache) Get(_ context.Context, kind, id string) (map[string]any, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	r, ok := mc.records[kind+":"+id]
	return r, ok
}

func (mc *MemoryLookupCache) Set(_ context.Context, kind, id string, record map[string]any) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.records[kind+":"+id] = record
}

func (mc *MemoryLookupCache) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.records)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string, string) (map[string]any, bool) { return nil, false }
func (Nop) Set(context.Context, string, string, map[string]any)        {}
