// Package assets loads scene documents and their buffers from disk, with
// optional fallback search directories and an in-memory cache.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Loader errors.
var (
	ErrNotFound   = errors.New("asset not found")
	ErrEmptyAsset = errors.New("asset is empty")
	ErrNotRegular = errors.New("asset is not a regular file")
)

// Loader reads files by path, falling back to search roots when the path
// itself does not exist. It satisfies scene.ByteLoader and
// scene.ResolvingLoader.
type Loader struct {
	roots    []string
	cache    *Cache            // nil when caching is disabled
	resolved map[string]string // requested key -> file actually read, for cached entries
	log      *zap.Logger
	mu       sync.RWMutex
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(cache bool, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Loader{log: log, resolved: make(map[string]string)}
	if cache {
		l.cache = NewCache()
	}
	return l
}

// AddRoot adds a fallback search directory.
// Roots are searched in reverse order (last added = highest priority).
func (l *Loader) AddRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding root %s: not a directory", dir)
	}

	l.mu.Lock()
	l.roots = append(l.roots, dir)
	l.mu.Unlock()
	return nil
}

// Load returns the whole contents of path. Missing, empty and non-regular
// files are all errors.
func (l *Loader) Load(path string) ([]byte, error) {
	data, _, err := l.LoadResolved(path)
	return data, err
}

// LoadResolved is Load that also returns the absolute path of the file that
// was read, which differs from path when a search root supplied it.
func (l *Loader) LoadResolved(path string) ([]byte, string, error) {
	key := cacheKey(path)
	if l.cache != nil {
		if data, ok := l.cache.Get(key); ok {
			l.mu.RLock()
			resolved := l.resolved[key]
			l.mu.RUnlock()
			return data, resolved, nil
		}
	}

	resolved := key
	data, err := readFile(path)
	if errors.Is(err, ErrNotFound) {
		data, resolved, err = l.searchRoots(path)
	}
	if err != nil {
		return nil, "", err
	}

	l.log.Debug("asset loaded", zap.String("path", path), zap.String("resolved", resolved), zap.Int("bytes", len(data)))
	if l.cache != nil {
		l.mu.Lock()
		l.resolved[key] = resolved
		l.mu.Unlock()
		l.cache.Set(key, data)
	}
	return data, resolved, nil
}

func (l *Loader) searchRoots(path string) ([]byte, string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	name := filepath.Base(path)
	for i := len(l.roots) - 1; i >= 0; i-- {
		candidate := filepath.Join(l.roots[i], name)
		data, err := readFile(candidate)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return data, cacheKey(candidate), err
	}
	return nil, "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyAsset, path)
	}
	return data, nil
}

// Invalidate drops path from the cache so the next Load rereads it. path
// may be either the requested or the resolved spelling of an entry.
func (l *Loader) Invalidate(path string) {
	if l.cache == nil {
		return
	}
	key := cacheKey(path)

	l.mu.Lock()
	defer l.mu.Unlock()
	for req, res := range l.resolved {
		if req == key || res == key {
			l.cache.Delete(req)
			delete(l.resolved, req)
		}
	}
	l.cache.Delete(key)
}

// cacheKey is the absolute form of path, so relative and absolute
// spellings of one file share an entry.
func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Stats returns cache statistics, zero when caching is disabled.
func (l *Loader) Stats() (hits, misses int) {
	if l.cache == nil {
		return 0, 0
	}
	return l.cache.Stats()
}

// Close forgets all roots and cached data.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roots = nil
	l.resolved = make(map[string]string)
	if l.cache != nil {
		l.cache.Clear()
	}
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Delete removes an item from cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
