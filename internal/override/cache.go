package override

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/sentiment-proxy/internal/table"
)

// TableReader is the read half of the store adapter the cache hydrates from.
type TableReader interface {
	ReadTable(ctx context.Context, tab string) (table.Snapshot, error)
}

// CacheConfig describes how rows map to cache entries.
type CacheConfig struct {
	// KeyColumns compose the cache key, joined by Separator.
	KeyColumns []string
	// ValueColumn holds the override value, e.g. "risk".
	ValueColumn string
	// Separator joins composite key values. Defaults to "|".
	Separator string
	// Sentinel is the reset value. Defaults to ResetSentinel.
	Sentinel string
}

// Cache is one session's best-effort view of the manual overrides stored in
// the sheet. The sheet stays the source of truth; the cache is replaced
// wholesale on Load and nudged optimistically after each successful save.
type Cache struct {
	cfg CacheConfig

	mu      sync.RWMutex
	entries map[string]string
}

// NewCache builds an empty cache with the given mapping rule.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.Separator == "" {
		cfg.Separator = "|"
	}
	if cfg.Sentinel == "" {
		cfg.Sentinel = ResetSentinel
	}
	return &Cache{cfg: cfg, entries: make(map[string]string)}
}

// Key composes a cache key from key-column values in configured order.
func (c *Cache) Key(values ...string) string {
	return strings.Join(values, c.cfg.Separator)
}

// Load reads the given tabs and replaces the cache's entire contents with
// the overrides found there. Entries absent from the refreshed tabs are
// dropped. Tabs load concurrently; the swap happens only if every read
// succeeded, so a failed load leaves the previous view intact.
func (c *Cache) Load(ctx context.Context, r TableReader, tabs ...string) error {
	snaps := make([]table.Snapshot, len(tabs))

	g, gctx := errgroup.WithContext(ctx)
	for i, tab := range tabs {
		g.Go(func() error {
			snap, err := r.ReadTable(gctx, tab)
			if err != nil {
				return err
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fresh := make(map[string]string)
	for _, snap := range snaps {
		c.collect(snap, fresh)
	}

	c.mu.Lock()
	c.entries = fresh
	c.mu.Unlock()
	return nil
}

func (c *Cache) collect(snap table.Snapshot, into map[string]string) {
	valCol := snap.ColumnIndex(c.cfg.ValueColumn)
	if valCol < 0 {
		return
	}
	keyCols := make([]int, 0, len(c.cfg.KeyColumns))
	for _, name := range c.cfg.KeyColumns {
		idx := snap.ColumnIndex(name)
		if idx < 0 {
			return
		}
		keyCols = append(keyCols, idx)
	}

	for row := range snap.Rows {
		val := snap.Cell(row, valCol)
		if val == "" || val == c.cfg.Sentinel {
			continue
		}
		parts := make([]string, len(keyCols))
		for i, col := range keyCols {
			parts[i] = snap.Cell(row, col)
		}
		into[c.Key(parts...)] = val
	}
}

// Get returns the cached override for key, if any.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set applies a successful save to the cache: a clear removes the entry, an
// explicit value inserts or overwrites it.
func (c *Cache) Set(key string, v Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v.IsClear() {
		delete(c.entries, key)
		return
	}
	c.entries[key] = v.String()
}

// DisplayValue returns the override for key when present, else the
// auto-computed fallback, with a flag telling the presentation layer which
// one it got.
func (c *Cache) DisplayValue(key, autoComputed string) (string, bool) {
	if v, ok := c.Get(key); ok {
		return v, true
	}
	return autoComputed, false
}

// Len reports the number of cached overrides.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
