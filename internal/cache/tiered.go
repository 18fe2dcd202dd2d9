package cache

import (
	"context"
	"log"

	"shiftnav/internal/metrics"
)

// Tiered checks tiers in the order given, back-fills earlier tiers on a
// hit, and writes through all of them. Tier errors are logged, counted,
// and treated as misses.
type Tiered struct {
	tiers []Cache
	names []string
}

// NewTiered composes tiers fastest-first. Nil tiers are skipped so callers
// can pass an optional Redis tier unconditionally.
func NewTiered(tiers ...Cache) *Tiered {
	t := &Tiered{}
	for _, c := range tiers {
		if c == nil {
			continue
		}
		t.tiers = append(t.tiers, c)
		t.names = append(t.names, tierName(c))
	}
	return t
}

func tierName(c Cache) string {
	switch c.(type) {
	case *Local:
		return "local"
	case *Redis:
		return "redis"
	default:
		return "other"
	}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	for i, c := range t.tiers {
		val, ok, err := c.Get(ctx, key)
		if err != nil {
			log.Printf("cache: %s get %s: %v", t.names[i], key, err)
			metrics.CacheRequests.WithLabelValues(t.names[i], "error").Inc()
			continue
		}
		if !ok {
			metrics.CacheRequests.WithLabelValues(t.names[i], "miss").Inc()
			continue
		}
		metrics.CacheRequests.WithLabelValues(t.names[i], "hit").Inc()
		// back-fill the faster tiers we already missed
		for j := 0; j < i; j++ {
			if err := t.tiers[j].Put(ctx, key, val); err != nil {
				log.Printf("cache: %s backfill %s: %v", t.names[j], key, err)
			}
		}
		return val, true, nil
	}
	return nil, false, nil
}

func (t *Tiered) Put(ctx context.Context, key string, val []byte) error {
	for i, c := range t.tiers {
		if err := c.Put(ctx, key, val); err != nil {
			log.Printf("cache: %s put %s: %v", t.names[i], key, err)
		}
	}
	return nil
}

func (t *Tiered) Invalidate(ctx context.Context, pattern string) error {
	for i, c := range t.tiers {
		if err := c.Invalidate(ctx, pattern); err != nil {
			log.Printf("cache: %s invalidate %s: %v", t.names[i], pattern, err)
		}
	}
	return nil
}
