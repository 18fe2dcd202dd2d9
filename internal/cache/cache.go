// Package cache is a two-tier byte cache for solver results: a process-local
// map in front of a shared Redis tier. Reads check tiers in order and
// back-fill faster tiers on a hit; writes go through every tier. A failing
// tier reads as a miss so callers never see backend errors.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache is one tier. Get reports (nil, false, nil) on a clean miss.
// Invalidate accepts the patterns produced by Key/Prefix; a trailing '*'
// matches any suffix.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, val []byte) error
	Invalidate(ctx context.Context, pattern string) error
}

// Key builds the canonical solve-result key. Identical requests must map to
// identical keys, so the date collapses to its day.
func Key(category string, cityID int, zone string, hour, workHours int, date time.Time) string {
	if zone == "" {
		zone = "any"
	}
	return fmt.Sprintf("%s:%d:%s:%d:%d:%s", category, cityID, zone, hour, workHours, date.Format("2006-01-02"))
}

// Prefix builds a wildcard pattern covering keys by category and city. An
// empty category covers all categories; cityID <= 0 covers all cities.
func Prefix(category string, cityID int) string {
	cat := category
	if cat == "" {
		cat = "*"
	}
	if cityID <= 0 {
		return cat + ":*"
	}
	return fmt.Sprintf("%s:%d:*", cat, cityID)
}

// matchPattern reports whether key matches a glob-lite pattern: '*' matches
// any run of characters, everything else is literal.
func matchPattern(pattern, key string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == key
	}
	if !strings.HasPrefix(key, parts[0]) {
		return false
	}
	key = key[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(key, part)
		if idx < 0 {
			return false
		}
		key = key[idx+len(part):]
	}
	return strings.HasSuffix(key, parts[len(parts)-1])
}
