// Package cache memoizes the full partner collection behind a single-flight
// load so concurrent readers share one fetch.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/gartstein/partnerhub/internal/partner/metrics"
	"github.com/gartstein/partnerhub/internal/partner/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const flightKey = "partners"

// Loader fetches every partner from the backing store.
type Loader func(ctx context.Context) ([]models.Partner, error)

// Partners caches the result of a Loader. A zero ttl keeps the value until
// Invalidate is called.
type Partners struct {
	load   Loader
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	partners []models.Partner
	loaded   bool
	loadedAt time.Time
	version  uint64
}

func New(load Loader, logger *zap.Logger, ttl time.Duration) *Partners {
	return &Partners{
		load:   load,
		logger: logger.Named("partner_cache"),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Get returns the cached partners, loading them when the cache is cold or
// expired. Callers arriving during a load wait for the same result.
func (c *Partners) Get(ctx context.Context) ([]models.Partner, error) {
	if partners, ok := c.cached(); ok {
		return partners, nil
	}

	v, err, shared := c.group.Do(flightKey, func() (any, error) {
		if partners, ok := c.cached(); ok {
			return partners, nil
		}
		c.mu.RLock()
		version := c.version
		c.mu.RUnlock()

		// The load outlives a cancelled first caller since others may share it.
		partners, err := c.load(context.WithoutCancel(ctx))
		if err != nil {
			metrics.CacheLoads.WithLabelValues("error").Inc()
			c.logger.Error("Failed to load partners", zap.Error(err))
			return nil, err
		}
		metrics.CacheLoads.WithLabelValues("ok").Inc()

		c.mu.Lock()
		if version == c.version {
			c.partners = partners
			c.loaded = true
			c.loadedAt = c.now()
		}
		c.mu.Unlock()

		c.logger.Debug("Loaded partners", zap.Int("count", len(partners)))
		return partners, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("Shared in-flight partner load")
	}
	return slices.Clone(v.([]models.Partner)), nil
}

// Invalidate drops the cached value. A load already in flight still answers
// its waiters but is not stored.
func (c *Partners) Invalidate() {
	c.mu.Lock()
	c.partners = nil
	c.loaded = false
	c.version++
	c.mu.Unlock()
	c.group.Forget(flightKey)
}

func (c *Partners) cached() ([]models.Partner, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(c.loadedAt) >= c.ttl {
		return nil, false
	}
	return slices.Clone(c.partners), true
}
