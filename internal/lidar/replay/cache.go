// Package replay caches parsed frames for cyclic playback.
//
// A Cache is keyed by the source path and its modification time. Any change
// to either invalidates the cached frames and rewinds the cursor to 0.
package replay

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/sweepview/internal/fsutil"
	"github.com/banshee-data/sweepview/internal/lidar"
	"github.com/banshee-data/sweepview/internal/lidar/l2frames"
	"github.com/banshee-data/sweepview/internal/lidar/parse"
)

// Key identifies a parsed source.
type Key struct {
	Path    string
	ModTime time.Time
}

// Equal compares keys by path and instant.
func (k Key) Equal(o Key) bool {
	return k.Path == o.Path && k.ModTime.Equal(o.ModTime)
}

// Cache holds the frames of one source and a cyclic cursor. It is safe for
// concurrent use.
type Cache struct {
	fs       fsutil.FileSystem
	parseCfg parse.Config
	frameCfg l2frames.Config

	mu     sync.Mutex
	key    Key
	valid  bool
	frames []l2frames.Frame
	cursor int
}

// NewCache creates an empty cache reading through fsys.
func NewCache(fsys fsutil.FileSystem, parseCfg parse.Config, frameCfg l2frames.Config) *Cache {
	return &Cache{fs: fsys, parseCfg: parseCfg, frameCfg: frameCfg}
}

// Sync makes the cache reflect path. It re-parses when path or its
// modification time differs from the cached key and reports whether it did.
// On a read failure the cache is emptied and the error returned.
func (c *Cache) Sync(path string) (bool, error) {
	fi, err := c.fs.Stat(path)
	if err != nil {
		c.Invalidate()
		return false, fmt.Errorf("stat replay source: %w", err)
	}
	key := Key{Path: path, ModTime: fi.ModTime()}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.key.Equal(key) {
		return false, nil
	}

	data, err := c.fs.ReadFile(path)
	if err != nil {
		c.resetLocked()
		return false, fmt.Errorf("read replay source: %w", err)
	}
	return true, c.loadLocked(key, data)
}

// SyncText is Sync for an in-memory text buffer identified by id and a
// version stamp supplied by the host.
func (c *Cache) SyncText(id string, version time.Time, text string) (bool, error) {
	key := Key{Path: id, ModTime: version}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.key.Equal(key) {
		return false, nil
	}
	return true, c.loadLocked(key, []byte(text))
}

func (c *Cache) loadLocked(key Key, data []byte) error {
	frames, stats, err := l2frames.SegmentReader(bytes.NewReader(data), c.parseCfg, c.frameCfg)
	if err != nil {
		c.resetLocked()
		return err
	}
	c.key = key
	c.valid = true
	c.frames = frames
	c.cursor = 0
	lidar.Diagf("replay: loaded %s (%d frames, %d valid lines)", key.Path, len(frames), stats.Valid)
	return nil
}

// Next returns the frame at the cursor and advances it, wrapping at the
// end. ok is false when no frames are cached.
func (c *Cache) Next() (f l2frames.Frame, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return l2frames.Frame{}, false
	}
	f = c.frames[c.cursor]
	c.cursor = (c.cursor + 1) % len(c.frames)
	return f, true
}

// Cursor returns the index Next will return.
func (c *Cache) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Len returns the number of cached frames.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// Key returns the cached key and whether one is loaded.
func (c *Cache) Key() (Key, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key, c.valid
}

// Invalidate drops the cached frames; the next Sync always re-parses.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Cache) resetLocked() {
	c.key = Key{}
	c.valid = false
	c.frames = nil
	c.cursor = 0
}
