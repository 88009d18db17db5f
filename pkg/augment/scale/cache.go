// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package scale

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	"k8s.io/klog/v2"
)

// DefaultCacheCapacity is the number of distinct tables kept by a Cache created with capacity 0.
const DefaultCacheCapacity = 128

// Cache memoizes Tables per Key, keeping at most a fixed number of them (least-recently-used are
// evicted first).
//
// It is safe for concurrent use: lookups take the LRU's internal lock, and concurrent builds of
// the same missing Key are collapsed into a single one.
//
// A Cache is owned by whoever builds the pipeline and can be shared by any number of Samplers.
type Cache struct {
	tables *lru.Cache[Key, *Table]
	builds singleflight.Group

	numHits, numMisses, numBuilds atomic.Int64
}

// CacheStats reports the activity of a Cache.
type CacheStats struct {
	Hits, Misses, Builds int64
	Len                  int
}

// NewCache returns an empty Cache that holds up to capacity tables.
// If capacity is 0, DefaultCacheCapacity is used.
func NewCache(capacity int) (*Cache, error) {
	if capacity == 0 {
		capacity = DefaultCacheCapacity
	}
	if capacity < 0 {
		return nil, errors.Errorf("scale.NewCache(%d): capacity must be positive", capacity)
	}
	tables, err := lru.New[Key, *Table](capacity)
	if err != nil {
		return nil, errors.Wrapf(err, "scale.NewCache(%d)", capacity)
	}
	return &Cache{tables: tables}, nil
}

// Table returns the Table for key, building it on the first request.
//
// The same *Table is returned for every call with the same key while it remains in the cache.
func (c *Cache) Table(key Key) (*Table, error) {
	if t, found := c.tables.Get(key); found {
		c.numHits.Add(1)
		return t, nil
	}
	c.numMisses.Add(1)
	if err := key.Validate(); err != nil {
		return nil, err
	}
	v, err, _ := c.builds.Do(key.String(), func() (any, error) {
		// Another caller may have finished building it just before we got here.
		if t, found := c.tables.Get(key); found {
			return t, nil
		}
		t, err := BuildTable(key)
		if err != nil {
			return nil, err
		}
		c.numBuilds.Add(1)
		c.tables.Add(key, t)
		klog.V(2).Infof("scale: built distribution for %s: %d candidates in [%d, %d], mean=%.2f units",
			key, t.Len(), t.MinLongSide(), t.MaxLongSide(), t.Mean())
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.numHits.Load(),
		Misses: c.numMisses.Load(),
		Builds: c.numBuilds.Load(),
		Len:    c.tables.Len(),
	}
}

// Len returns the number of tables currently cached.
func (c *Cache) Len() int { return c.tables.Len() }

// Purge drops all cached tables and resets the counters.
func (c *Cache) Purge() {
	c.tables.Purge()
	c.numHits.Store(0)
	c.numMisses.Store(0)
	c.numBuilds.Store(0)
}
