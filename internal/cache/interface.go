package cache

import "context"

// LookupCache memoizes provider lookups by kind ("payment", "refund",
// "receipt") and identifier. A miss or a cache failure only costs a remote call.
type LookupCache interface {
	Get(ctx context.Context, kind, id string) (map[string]any, bool)
	Set(ctx context.Context, kind, id string, record map[string]any)
}
