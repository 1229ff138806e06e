package history

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore keeps recently saved or read records in memory in front of
// another Store. Records are immutable once saved, so cached entries never go
// stale. Callers must not modify the records it returns.
type CachedStore struct {
	Store
	cache *lru.Cache[uuid.UUID, *Record]
}

// NewCachedStore wraps store with an LRU cache holding up to size records
func NewCachedStore(store Store, size int) (*CachedStore, error) {
	cache, err := lru.New[uuid.UUID, *Record](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &CachedStore{Store: store, cache: cache}, nil
}

// Save writes through to the underlying store and caches the record
func (c *CachedStore) Save(ctx context.Context, record *Record) error {
	if err := c.Store.Save(ctx, record); err != nil {
		return err
	}
	c.cache.Add(record.ID, record)
	return nil
}

// Get serves from the cache when possible
func (c *CachedStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	if rec, ok := c.cache.Get(id); ok {
		return rec, nil
	}
	rec, err := c.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(id, rec)
	return rec, nil
}

// Delete evicts the record and removes it from the underlying store
func (c *CachedStore) Delete(ctx context.Context, id uuid.UUID) error {
	c.cache.Remove(id)
	return c.Store.Delete(ctx, id)
}

// ImportJSON imports through the underlying store
func (c *CachedStore) ImportJSON(ctx context.Context, reader io.Reader) (int, int, error) {
	return importRecords(ctx, c, reader)
}

// Len reports the number of cached records
func (c *CachedStore) Len() int {
	return c.cache.Len()
}
