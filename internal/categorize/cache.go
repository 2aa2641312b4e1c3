package categorize

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/MrJamesThe3rd/ledgersync/internal/category"
)

const fallbackCategory = "Uncategorized"

// Index resolves category names to an owner's category ids.
type Index struct {
	byName   map[string]uuid.UUID
	byFold   map[string]uuid.UUID
	fallback *uuid.UUID
}

func NewIndex(categories []*category.Category) *Index {
	idx := &Index{
		byName: make(map[string]uuid.UUID, len(categories)),
		byFold: make(map[string]uuid.UUID, len(categories)),
	}

	for _, c := range categories {
		idx.byName[c.Name] = c.ID

		folded := strings.ToLower(c.Name)
		if _, ok := idx.byFold[folded]; !ok {
			idx.byFold[folded] = c.ID
		}

		if idx.fallback == nil && strings.EqualFold(c.Name, fallbackCategory) {
			id := c.ID
			idx.fallback = &id
		}
	}

	return idx
}

// Lookup prefers an exact name match and falls back to a case-insensitive one.
func (i *Index) Lookup(name string) (uuid.UUID, bool) {
	name = strings.TrimSpace(name)

	if id, ok := i.byName[name]; ok {
		return id, true
	}

	id, ok := i.byFold[strings.ToLower(name)]

	return id, ok
}

// Fallback is the owner's "Uncategorized" category, if they have one.
func (i *Index) Fallback() *uuid.UUID {
	return i.fallback
}

type TablesLoader func() (*Tables, error)

type CategoriesLoader func(ctx context.Context, ownerID uuid.UUID) ([]*category.Category, error)

type indexEntry struct {
	index    *Index
	loadedAt time.Time
}

// Cache holds the mapping tables and a per-owner category index. Tables are
// loaded once and kept until Reload; owner indexes expire after ttl.
// A non-positive ttl keeps indexes until invalidated.
type Cache struct {
	ttl        time.Duration
	now        func() time.Time
	loadTables TablesLoader

	mu      sync.Mutex
	tables  *Tables
	indexes map[uuid.UUID]indexEntry

	group singleflight.Group
}

type CacheOption func(*Cache)

func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

func NewCache(ttl time.Duration, loadTables TablesLoader, opts ...CacheOption) *Cache {
	c := &Cache{
		ttl:        ttl,
		now:        time.Now,
		loadTables: loadTables,
		indexes:    make(map[uuid.UUID]indexEntry),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) Tables() (*Tables, error) {
	c.mu.Lock()
	if t := c.tables; t != nil {
		c.mu.Unlock()
		return t, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("tables", func() (any, error) {
		t, err := c.loadTables()
		if err != nil {
			return nil, fmt.Errorf("loading mapping tables: %w", err)
		}

		c.mu.Lock()
		c.tables = t
		c.mu.Unlock()

		return t, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Tables), nil
}

// Index returns the owner's category index, loading it when missing or stale.
// Concurrent loads for the same owner share one query.
func (c *Cache) Index(ctx context.Context, ownerID uuid.UUID, load CategoriesLoader) (*Index, error) {
	c.mu.Lock()
	entry, ok := c.indexes[ownerID]
	c.mu.Unlock()

	if ok && !c.expired(entry) {
		return entry.index, nil
	}

	v, err, _ := c.group.Do("owner:"+ownerID.String(), func() (any, error) {
		categories, err := load(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("loading categories: %w", err)
		}

		idx := NewIndex(categories)

		c.mu.Lock()
		c.indexes[ownerID] = indexEntry{index: idx, loadedAt: c.now()}
		c.mu.Unlock()

		return idx, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Index), nil
}

func (c *Cache) expired(entry indexEntry) bool {
	if c.ttl <= 0 {
		return false
	}

	return c.now().Sub(entry.loadedAt) >= c.ttl
}

// Invalidate drops the owner's index so the next lookup sees category edits.
func (c *Cache) Invalidate(ownerID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.indexes, ownerID)
}

// Reload loads the mapping tables again and drops every owner index. When the
// load fails the previous tables and indexes stay in use.
func (c *Cache) Reload() (*Tables, error) {
	v, err, _ := c.group.Do("reload", func() (any, error) {
		t, err := c.loadTables()
		if err != nil {
			return nil, fmt.Errorf("reloading mapping tables: %w", err)
		}

		c.mu.Lock()
		c.tables = t
		c.indexes = make(map[uuid.UUID]indexEntry)
		c.mu.Unlock()

		return t, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Tables), nil
}
