// Package cache holds rendered pages for a fixed time-to-live. Expiry and an
// explicit Clear are the only ways an entry goes away.
package cache

import (
	"context"
)

// Store is a key/value store whose entries expire after a TTL fixed when the
// store is created.
type Store interface {
	// Get returns the value for key and whether it was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Clear drops every entry.
	Clear(ctx context.Context) error
}
