package dispatch

import (
	"context"
	"sync"

	"github.com/hupe1980/mailsmith/internal/render"
)

// LoadFunc builds the render context of a campaign.
type LoadFunc func(ctx context.Context, campaign string) (*render.Context, error)

// ContextCache keeps one render context per campaign. Each campaign has its
// own lock, so loading one campaign never blocks another.
type ContextCache struct {
	entries sync.Map // campaign → *cacheEntry
	load    LoadFunc
}

type cacheEntry struct {
	mu sync.Mutex
	rc *render.Context
}

// NewContextCache returns an empty cache backed by load.
func NewContextCache(load LoadFunc) *ContextCache {
	return &ContextCache{load: load}
}

func (c *ContextCache) entry(campaign string) *cacheEntry {
	e, _ := c.entries.LoadOrStore(campaign, &cacheEntry{})
	return e.(*cacheEntry)
}

// Init (re)builds the context of campaign.
func (c *ContextCache) Init(ctx context.Context, campaign string) (*render.Context, error) {
	e := c.entry(campaign)

	e.mu.Lock()
	defer e.mu.Unlock()

	rc, err := c.load(ctx, campaign)
	if err != nil {
		return nil, err
	}

	e.rc = rc

	return rc, nil
}

// Get returns the cached context of campaign, building it on first use.
func (c *ContextCache) Get(ctx context.Context, campaign string) (*render.Context, error) {
	e := c.entry(campaign)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rc != nil {
		return e.rc, nil
	}

	rc, err := c.load(ctx, campaign)
	if err != nil {
		return nil, err
	}

	e.rc = rc

	return rc, nil
}

// Invalidate drops the cached context of campaign; the next Get rebuilds.
func (c *ContextCache) Invalidate(campaign string) {
	e := c.entry(campaign)

	e.mu.Lock()
	e.rc = nil
	e.mu.Unlock()
}

// Cached reports whether campaign has a loaded context.
func (c *ContextCache) Cached(campaign string) bool {
	v, ok := c.entries.Load(campaign)
	if !ok {
		return false
	}

	e := v.(*cacheEntry)

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.rc != nil
}
