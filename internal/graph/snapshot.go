package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Snapshot persistence. A cold build writes one JSON artifact per city so
// subsequent process starts skip reconstruction. The snapshot read path
// takes precedence over the store unless explicitly invalidated.

const snapshotVersion = 1

type snapshotFile struct {
	Version int        `json:"version"`
	Graph   *ZoneGraph `json:"graph"`
}

func snapshotPath(dir string, cityID int) string {
	return filepath.Join(dir, fmt.Sprintf("city_graph_%d.json", cityID))
}

// writeSnapshot serializes g to dir atomically (write temp, rename).
func writeSnapshot(dir string, g *ZoneGraph) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(snapshotFile{Version: snapshotVersion, Graph: g})
	if err != nil {
		return err
	}
	path := snapshotPath(dir, g.CityID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// readSnapshot loads a city's snapshot, returning os.ErrNotExist when absent
// and an error for unreadable or version-mismatched artifacts.
func readSnapshot(dir string, cityID int) (*ZoneGraph, error) {
	data, err := os.ReadFile(snapshotPath(dir, cityID))
	if err != nil {
		return nil, err
	}
	var sf snapshotFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if sf.Version != snapshotVersion || sf.Graph == nil {
		return nil, fmt.Errorf("snapshot version %d unsupported", sf.Version)
	}
	sf.Graph.rebuildIndex()
	return sf.Graph, nil
}

// removeSnapshot deletes a city's snapshot if present.
func removeSnapshot(dir string, cityID int) error {
	err := os.Remove(snapshotPath(dir, cityID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
