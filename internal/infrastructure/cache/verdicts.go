// Package cache persists model-checking verdicts between runs.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
)

const fileVersion = "1"

// File is the on-disk layout of the verdict cache.
type File struct {
	Version  string                   `json:"version"`
	Verdicts map[string]ports.Verdict `json:"verdicts"`
}

// VerdictCache stores verdicts in a JSON file. Every Put rewrites the file
// atomically.
type VerdictCache struct {
	path     string
	mu       sync.RWMutex
	verdicts map[string]ports.Verdict
}

var _ ports.VerdictCache = (*VerdictCache)(nil)

// Open loads the cache stored at path, starting empty when the file does not
// exist yet.
func Open(path string) (*VerdictCache, error) {
	c := &VerdictCache{
		path:     path,
		verdicts: make(map[string]ports.Verdict),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse cache %s: %w", path, err)
	}
	// Entries written by another layout are discarded.
	if file.Version == fileVersion && file.Verdicts != nil {
		c.verdicts = file.Verdicts
	}
	return c, nil
}

// Path returns the backing file.
func (c *VerdictCache) Path() string { return c.path }

// Len returns the number of cached verdicts.
func (c *VerdictCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.verdicts)
}

// Get implements ports.VerdictCache.
func (c *VerdictCache) Get(ctx context.Context, key string) (*ports.Verdict, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	verdict, ok := c.verdicts[key]
	if !ok {
		return nil, false, nil
	}
	return &verdict, true, nil
}

// Put implements ports.VerdictCache.
func (c *VerdictCache) Put(ctx context.Context, key string, verdict ports.Verdict) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.verdicts[key] = verdict
	return c.saveLocked()
}

// Clear drops every verdict and rewrites the file.
func (c *VerdictCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.verdicts = make(map[string]ports.Verdict)
	return c.saveLocked()
}

func (c *VerdictCache) saveLocked() error {
	data, err := json.MarshalIndent(File{Version: fileVersion, Verdicts: c.verdicts}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
