// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package query

import (
	"sync"
	"time"

	"github.com/klask-search/klask/pkg/model"
)

// facetCacheTTL bounds how stale a "browse filters" listing can get:
// recomputing the full unfiltered facet set on every request is
// wasteful, since it requires scanning the whole index.
const facetCacheTTL = 5 * time.Minute

// FacetCache memoizes the full, unfiltered facet set so a "browse filters"
// UI doesn't force a full-index scan on every page load.
type FacetCache struct {
	engine *Engine

	mu         sync.RWMutex
	data       *model.SearchFacets
	computedAt time.Time
}

// NewFacetCache builds a cache backed by engine, starting expired.
func NewFacetCache(engine *Engine) *FacetCache {
	return &FacetCache{engine: engine}
}

// Get returns the cached facet set if it is still within TTL, recomputing
// it otherwise via a match-all query with facets requested.
func (c *FacetCache) Get() (model.SearchFacets, error) {
	c.mu.RLock()
	if c.data != nil && time.Since(c.computedAt) < facetCacheTTL {
		data := *c.data
		c.mu.RUnlock()
		return data, nil
	}
	c.mu.RUnlock()

	result, err := c.engine.Search(model.SearchQuery{Text: "*", Limit: maxCandidateScan, IncludeFacets: true})
	if err != nil {
		return model.SearchFacets{}, err
	}
	facets := *result.Facets

	c.mu.Lock()
	c.data = &facets
	c.computedAt = time.Now()
	c.mu.Unlock()

	return facets, nil
}

// Invalidate forces the next Get to recompute, used after a crawl commits
// new documents.
func (c *FacetCache) Invalidate() {
	c.mu.Lock()
	c.data = nil
	c.mu.Unlock()
}
