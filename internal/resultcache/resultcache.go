// Package resultcache memoizes a file's diagnostics keyed by a hash of
// everything that could change them: engine version, resolved config
// digest, the CLI flags that affect output, the file's path, and its
// content hash (spec §4.9, component M). Uses a lock-free sync.Map
// in-process layer with atomic hit/miss counters, backed by a second,
// persistent layer underneath (one JSON file per key under a
// user-scoped cache directory) since results must survive across CLI
// invocations, not just within one run.
package resultcache

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/turbocop/internal/directive"
	"github.com/standardbeagle/turbocop/internal/orchestrator"
)

// Value is the cached outcome for one file.
type Value struct {
	Diagnostics []orchestrator.Diagnostic      `json:"diagnostics"`
	Redundant   []directive.RedundantDirective `json:"redundant"`
}

// Key derives the cache key for one file from everything that can
// change its analysis result: the engine version, a digest of the
// resolved configuration, a digest of the CLI flags that affect
// output (format, --only/--except, --fail-level, ...), the file's
// path, and its content hash.
func Key(engineVersion, configDigest, flagsDigest, path string, content []byte) string {
	contentSum := xxhash.Sum64(content)
	var buf []byte
	buf = append(buf, engineVersion...)
	buf = append(buf, '|')
	buf = append(buf, configDigest...)
	buf = append(buf, '|')
	buf = append(buf, flagsDigest...)
	buf = append(buf, '|')
	buf = append(buf, path...)
	buf = append(buf, '|')
	buf = append(buf, uint64ToBytes(contentSum)...)
	return hex.EncodeToString(uint64ToBytes(xxhash.Sum64(buf)))
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (56 - 8*i))
	}
	return b
}

// Cache is a two-layer result cache: a lock-free sync.Map for the
// current process, backed by one JSON file per key under Dir for
// cross-invocation persistence.
type Cache struct {
	dir string

	mem sync.Map // key -> *Value

	hits   int64
	misses int64
}

// New returns a Cache rooted at dir. dir is created lazily on first Put.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// DefaultDir returns the user-scoped cache directory RuboCop-style
// tools conventionally use: $XDG_CACHE_HOME (or its OS-specific
// equivalent, via os.UserCacheDir)/turbocop.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "turbocop"), nil
}

// Get returns the cached value for key, checking the in-process map
// before falling back to disk. A disk hit is promoted into the
// in-process map so subsequent lookups in the same run avoid I/O.
func (c *Cache) Get(key string) (*Value, bool) {
	if v, ok := c.mem.Load(key); ok {
		atomic.AddInt64(&c.hits, 1)
		return v.(*Value), true
	}

	data, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}
	c.mem.Store(key, &v)
	atomic.AddInt64(&c.hits, 1)
	return &v, true
}

// Put stores v under key, in the in-process map and on disk. A disk
// write failure is swallowed (spec §7: cache I/O errors silently fall
// back to recompute) — Put simply leaves the on-disk copy stale or
// absent; the in-process map still serves this run.
func (c *Cache) Put(key string, v *Value) {
	c.mem.Store(key, v)

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	tmp := c.entryPath(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return
	}
	_ = os.Rename(tmp, c.entryPath(key))
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Clear wipes every on-disk entry and the in-process map (--cache-clear).
func (c *Cache) Clear() error {
	c.mem.Range(func(k, _ interface{}) bool {
		c.mem.Delete(k)
		return true
	})
	err := os.RemoveAll(c.dir)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Stats reports cumulative hit/miss counts for this Cache instance.
func (c *Cache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}
