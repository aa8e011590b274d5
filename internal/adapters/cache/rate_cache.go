package cache

import (
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/165cm/fxarchive/internal/domain"
)

// RistrettoRateCache memoizes resolved rates per calendar date. The
// updater clears it after a successful run so corrected rates become
// visible immediately.
type RistrettoRateCache struct {
	cache *ristretto.Cache
}

func NewRateCache(maxItems int64) (*RistrettoRateCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create rate cache failed: %w", err)
	}
	return &RistrettoRateCache{cache: c}, nil
}

func (c *RistrettoRateCache) Get(date domain.Date) (float64, bool) {
	if v, ok := c.cache.Get(string(date)); ok {
		rate, ok := v.(float64)
		return rate, ok
	}
	return 0, false
}

func (c *RistrettoRateCache) Set(date domain.Date, rate float64) {
	c.cache.Set(string(date), rate, 1)
}

func (c *RistrettoRateCache) Clear() { c.cache.Clear() }

func (c *RistrettoRateCache) Close() { c.cache.Close() }
