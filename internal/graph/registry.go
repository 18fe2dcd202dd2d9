package graph

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"shiftnav/internal/metrics"
	"shiftnav/internal/store"
)

// ErrDataUnavailable reports a city with neither source data nor a usable
// snapshot.
var ErrDataUnavailable = errors.New("no zone data available for city")

// Registry owns one immutable ZoneGraph per city. First access builds (or
// loads the snapshot of) the graph exactly once, even under concurrent
// callers; afterwards reads are lock-free on the graph itself.
type Registry struct {
	store       store.Store
	snapshotDir string

	group  singleflight.Group
	mu     sync.RWMutex
	graphs map[int]*ZoneGraph
}

// NewRegistry creates a Registry backed by st, with snapshots under dir.
// An empty dir disables snapshot persistence.
func NewRegistry(st store.Store, dir string) *Registry {
	return &Registry{store: st, snapshotDir: dir, graphs: map[int]*ZoneGraph{}}
}

// Load returns the city's graph, building it on first use. Repeated calls
// return the same instance for the process lifetime.
func (r *Registry) Load(ctx context.Context, cityID int) (*ZoneGraph, error) {
	r.mu.RLock()
	g, ok := r.graphs[cityID]
	r.mu.RUnlock()
	if ok {
		return g, nil
	}

	v, err, _ := r.group.Do(strconv.Itoa(cityID), func() (any, error) {
		// Another caller may have finished while we queued.
		r.mu.RLock()
		g, ok := r.graphs[cityID]
		r.mu.RUnlock()
		if ok {
			return g, nil
		}
		g, err := r.construct(ctx, cityID)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.graphs[cityID] = g
		r.mu.Unlock()
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ZoneGraph), nil
}

func (r *Registry) construct(ctx context.Context, cityID int) (*ZoneGraph, error) {
	if r.snapshotDir != "" {
		g, err := readSnapshot(r.snapshotDir, cityID)
		if err == nil {
			log.Printf("graph: city %d loaded from snapshot (%d zones)", cityID, g.NumZones())
			return g, nil
		}
		if !os.IsNotExist(err) {
			log.Printf("graph: city %d snapshot unreadable, rebuilding: %v", cityID, err)
		}
	}

	start := time.Now()
	zones, err := r.store.ListZones(ctx, cityID)
	if err != nil {
		if store.IsMissing(err) {
			return nil, fmt.Errorf("%w: city %d", ErrDataUnavailable, cityID)
		}
		return nil, fmt.Errorf("load zones for city %d: %w", cityID, err)
	}
	trips, err := r.store.ListTripStats(ctx, cityID)
	if err != nil && !store.IsMissing(err) {
		return nil, fmt.Errorf("load trip stats for city %d: %w", cityID, err)
	}
	g := Build(cityID, zones, trips)
	metrics.GraphBuildDuration.Observe(time.Since(start).Seconds())
	log.Printf("graph: city %d built from store (%d zones, %v)", cityID, g.NumZones(), time.Since(start))

	if r.snapshotDir != "" {
		if err := writeSnapshot(r.snapshotDir, g); err != nil {
			// A failed snapshot write costs the next start a rebuild,
			// nothing else.
			log.Printf("graph: city %d snapshot write failed: %v", cityID, err)
		}
	}
	return g, nil
}

// Invalidate drops the in-memory graph and snapshot for a city so the next
// Load reconstructs from the store.
func (r *Registry) Invalidate(cityID int) error {
	r.mu.Lock()
	delete(r.graphs, cityID)
	r.mu.Unlock()
	if r.snapshotDir == "" {
		return nil
	}
	return removeSnapshot(r.snapshotDir, cityID)
}
