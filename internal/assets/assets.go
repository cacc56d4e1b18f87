// Package assets provides blob storage addressed by numeric file identifier.
//
// Files are searched in loose directories first, then in GRF archives.
// Later sources take priority over earlier ones within each kind.
package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/wmoexport/internal/logger"
	"github.com/Faultbox/wmoexport/pkg/grf"
)

// ErrNotFound is returned when no source holds the requested file.
var ErrNotFound = errors.New("file not found")

// Names maps file identifiers to file names.
type Names interface {
	FileName(id uint32) (string, bool)
}

// Manager handles blob loading from archives and directories.
type Manager struct {
	names    Names
	dirs     []string
	archives []*grf.Archive
	cache    *Cache
	mu       sync.RWMutex
}

// NewManager creates a new asset manager. names may be nil, in which case
// only "<dir>/<id>" files can be found.
func NewManager(names Names) *Manager {
	return &Manager{
		names: names,
		cache: NewCache(),
	}
}

// AddArchive adds a GRF archive to the manager.
// Archives are searched in reverse order (last added = highest priority).
func (m *Manager) AddArchive(path string) error {
	archive, err := grf.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}

	m.mu.Lock()
	m.archives = append(m.archives, archive)
	m.mu.Unlock()

	logger.Debug("archive added", zap.String("path", path), zap.Int("files", archive.Len()))
	return nil
}

// AddDirectory adds a loose-file root to the manager.
func (m *Manager) AddDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding directory %s: not a directory", dir)
	}

	m.mu.Lock()
	m.dirs = append(m.dirs, dir)
	m.mu.Unlock()
	return nil
}

// Fetch returns the bytes of the file with the given identifier.
func (m *Manager) Fetch(ctx context.Context, id uint32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if data, ok := m.cache.Get(id); ok {
		return data, nil
	}

	if m.names != nil {
		if name, ok := m.names.FileName(id); ok {
			if data, err := m.Load(name); err == nil {
				m.cache.Set(id, data)
				return data, nil
			}
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	key := strconv.FormatUint(uint64(id), 10)
	for i := len(m.dirs) - 1; i >= 0; i-- {
		if data, err := os.ReadFile(filepath.Join(m.dirs[i], key)); err == nil {
			m.cache.Set(id, data)
			return data, nil
		}
	}

	return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
}

// Load loads a file by name from the directories, then the archives.
func (m *Manager) Load(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.dirs) - 1; i >= 0; i-- {
		data, err := os.ReadFile(filepath.Join(m.dirs[i], filepath.FromSlash(name)))
		if err == nil {
			return data, nil
		}
	}

	for i := len(m.archives) - 1; i >= 0; i-- {
		data, err := m.archives[i].Read(name)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, grf.ErrNotFound) {
			logger.Warn("archive read failed",
				zap.String("archive", m.archives[i].Path()),
				zap.String("name", name),
				zap.Error(err))
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// CacheStats returns blob cache hit and miss counts.
func (m *Manager) CacheStats() (hits, misses int64) {
	return m.cache.Stats()
}

// Close closes all archives.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, archive := range m.archives {
		archive.Close()
	}
	m.archives = nil
	m.dirs = nil
	m.cache.Clear()
}

// Cache is an in-memory blob cache keyed by file identifier.
type Cache struct {
	data map[uint32][]byte
	mu   sync.RWMutex

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[uint32][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(id uint32) ([]byte, bool) {
	c.mu.RLock()
	data, ok := c.data[id]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(id uint32, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[id] = data
}

// Len returns the number of cached blobs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[uint32][]byte)
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
