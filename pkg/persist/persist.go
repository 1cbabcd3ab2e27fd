// Package persist saves and restores the endpoint registry as a JSON
// snapshot on disk. Failures are recoverable conditions: they are
// logged and reported to the caller as a false/zero result, never as a
// crash of the serving path.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/getlagd/lagd/pkg/endpoint"
	"github.com/getlagd/lagd/pkg/logging"
)

// Gateway writes and reads registry snapshots. The snapshot format is
// pure data, a JSON object keyed by normalized path, so saving the same
// registry state twice produces identical bytes.
type Gateway struct {
	enabled bool
	path    string
	reg     *endpoint.Registry
	log     *slog.Logger
}

// LoadResult reports what a load did. Skipped counts entries dropped
// for failing behavior validation.
type LoadResult struct {
	Loaded  int
	Skipped int
}

// New creates a gateway over the given registry.
func New(enabled bool, path string, reg *endpoint.Registry, log *slog.Logger) *Gateway {
	if log == nil {
		log = logging.Nop()
	}
	return &Gateway{enabled: enabled, path: path, reg: reg, log: log}
}

// Enabled reports whether persistence is configured on.
func (g *Gateway) Enabled() bool { return g.enabled }

// Path returns the snapshot file path.
func (g *Gateway) Path() string { return g.path }

// Save serializes the registry's full state to the snapshot file,
// creating parent directories as needed. Returns the endpoint count
// and true on success, or zero and false when disabled or when the
// write fails. Write failures are logged, not raised.
func (g *Gateway) Save() (int, bool) {
	if !g.enabled {
		return 0, false
	}

	snapshot := g.reg.List()
	if err := g.write(snapshot); err != nil {
		g.log.Error("failed to save endpoint snapshot", "path", g.path, "error", err)
		return 0, false
	}

	g.log.Info("saved endpoint snapshot", "path", g.path, "endpoints", len(snapshot))
	return len(snapshot), true
}

// write marshals the snapshot and replaces the file atomically via a
// temp file in the same directory.
func (g *Gateway) write(snapshot map[string]endpoint.Behavior) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(g.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(g.path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, g.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Load restores the snapshot file into the registry. A disabled
// gateway or an absent file is a no-op. One invalid entry is skipped
// and counted; it never aborts the rest of the load.
func (g *Gateway) Load() LoadResult {
	if !g.enabled {
		return LoadResult{}
	}

	data, err := os.ReadFile(g.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			g.log.Debug("no endpoint snapshot to load", "path", g.path)
		} else {
			g.log.Error("failed to read endpoint snapshot", "path", g.path, "error", err)
		}
		return LoadResult{}
	}

	var snapshot map[string]endpoint.Behavior
	if err := json.Unmarshal(data, &snapshot); err != nil {
		g.log.Error("failed to parse endpoint snapshot", "path", g.path, "error", err)
		return LoadResult{}
	}

	var res LoadResult
	for path, b := range snapshot {
		if err := g.reg.Configure(path, b); err != nil {
			g.log.Warn("skipping invalid snapshot entry", "endpoint", path, "error", err)
			res.Skipped++
			continue
		}
		res.Loaded++
	}

	g.log.Info("loaded endpoint snapshot", "path", g.path, "loaded", res.Loaded, "skipped", res.Skipped)
	return res
}
