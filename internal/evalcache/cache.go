// Package evalcache persists the idempotence ledger that prevents jobs
// from being re-scored across runs. Presence of an id means "never score
// this id again", independent of the stored rating.
package evalcache

import (
	"encoding/json"
	"os"

	"go.uber.org/zap"
)

const defaultSaveInterval = 10

// Entry is one persisted evaluation.
type Entry struct {
	ID          string  `json:"id"`
	Rating      float64 `json:"rating"`
	Explanation string  `json:"explanation"`
}

// Cache is the in-memory view of the persisted ledger. It is mutated only
// by the single processing loop.
type Cache struct {
	path          string
	logger        *zap.Logger
	entries       map[string]Entry
	saveInterval  int
	putsSinceSave int
}

// Load reads the cache file and rebuilds the map keyed by id. Duplicate
// ids in the file collapse last-write-wins. A missing or corrupt file is a
// warning, never fatal: the run starts with an empty cache.
func Load(path string, saveInterval int, logger *zap.Logger) *Cache {
	if saveInterval <= 0 {
		saveInterval = defaultSaveInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cache := &Cache{
		path:         path,
		logger:       logger,
		entries:      make(map[string]Entry),
		saveInterval: saveInterval,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to load evaluation cache", zap.String("path", path), zap.Error(err))
		}
		return cache
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("evaluation cache is corrupt, starting empty",
			zap.String("path", path),
			zap.Error(err),
		)
		return cache
	}

	for _, entry := range entries {
		cache.entries[entry.ID] = entry
	}

	return cache
}

// Has reports whether the id was already evaluated.
func (c *Cache) Has(id string) bool {
	_, ok := c.entries[id]
	return ok
}

// Get returns the stored entry for the id.
func (c *Cache) Get(id string) (Entry, bool) {
	entry, ok := c.entries[id]
	return entry, ok
}

// Put records an evaluation and saves the cache every saveInterval puts,
// so a crash mid-run loses at most one interval's worth of work.
func (c *Cache) Put(id string, rating float64, explanation string) {
	c.entries[id] = Entry{ID: id, Rating: rating, Explanation: explanation}

	c.putsSinceSave++
	if c.putsSinceSave >= c.saveInterval {
		if err := c.Save(); err != nil {
			c.logger.Error("periodic cache save failed", zap.Error(err))
		}
	}
}

// Save overwrites the cache file with the full entry list.
func (c *Cache) Save() error {
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return err
	}

	c.putsSinceSave = 0
	return nil
}

// Len returns the number of cached evaluations.
func (c *Cache) Len() int {
	return len(c.entries)
}
