package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Bump when the cached payload layout changes.
const cacheSchemaVersion uint16 = 1

// DiskCache memoizes compiled plugin snapshots keyed by the hash of
// their TOML source, so a large schema is not re-validated on every
// process start. Thread-safe.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

type cachePayload struct {
	Schema   uint16
	Snapshot *Snapshot
}

// OpenDiskCache initializes the cache under the user cache directory.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app, "plugins")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Key derives the cache key for raw plugin source bytes.
func Key(data []byte) [32]byte {
	return sha256.Sum256(data)
}

func (c *DiskCache) pathFor(key [32]byte) string {
	return filepath.Join(c.dir, hex.EncodeToString(key[:])+".mp")
}

// Get returns the cached snapshot for key, or (nil, false) on miss or
// layout mismatch. A corrupt entry counts as a miss.
func (c *DiskCache) Get(key [32]byte) (*Snapshot, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return nil, false
	}
	var payload cachePayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, false
	}
	if payload.Schema != cacheSchemaVersion || payload.Snapshot == nil {
		return nil, false
	}
	payload.Snapshot.buildOrder()
	return payload.Snapshot, true
}

// Put writes a snapshot under key, atomically via rename.
func (c *DiskCache) Put(key [32]byte, snap *Snapshot) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := msgpack.Marshal(&cachePayload{Schema: cacheSchemaVersion, Snapshot: snap})
	if err != nil {
		return fmt.Errorf("schema cache: encode: %w", err)
	}
	target := c.pathFor(key)
	tmp, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

// LoadCached loads plugin data, consulting the disk cache first. A nil
// cache degrades to a plain load.
func LoadCached(path string, cache *DiskCache) (*Snapshot, error) {
	// #nosec G304 -- path comes from configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	key := Key(data)
	if snap, ok := cache.Get(key); ok {
		return snap, nil
	}
	snap, err := LoadBytes(path, data)
	if err != nil {
		return nil, err
	}
	if putErr := cache.Put(key, snap); putErr != nil && !errors.Is(putErr, os.ErrPermission) {
		// cache trouble is not a load failure
		_ = putErr
	}
	return snap, nil
}
