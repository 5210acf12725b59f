package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// AudioCache keeps synthesized clips in memory and, optionally, on disk.
// Keys are sha256(voice + ":" + text), so switching voices misses.
//
// The disk directory is always read when set; new clips are written to it
// only when persist is true.
type AudioCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
	log     *logger.Logger
	voice   string
	dir     string
	persist bool

	hits   atomic.Int64
	misses atomic.Int64
}

// NewAudioCache creates a cache. An empty dir disables the disk layer.
func NewAudioCache(voice, dir string, persist bool, log *logger.Logger) *AudioCache {
	c := &AudioCache{
		entries: make(map[string][]byte),
		log:     log,
		voice:   voice,
		dir:     dir,
		persist: persist,
	}
	if dir != "" && persist {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("audio cache: creating %s: %v", dir, err)
		}
	}
	return c
}

// Get returns the clip for text from memory, then disk.
func (c *AudioCache) Get(text string) ([]byte, bool) {
	key := c.key(text)

	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return data, true
	}

	if c.dir != "" {
		if data, err := os.ReadFile(c.path(key)); err == nil {
			c.mu.Lock()
			c.entries[key] = data
			c.mu.Unlock()
			c.hits.Add(1)
			c.log.Debug("audio cache: disk hit %s", truncate(text, 40))
			return data, true
		}
	}

	c.misses.Add(1)
	return nil, false
}

// Put stores a clip in memory, and on disk when persisting.
func (c *AudioCache) Put(text string, audio []byte) {
	key := c.key(text)

	c.mu.Lock()
	c.entries[key] = audio
	c.mu.Unlock()

	if c.dir == "" || !c.persist {
		return
	}
	if err := os.WriteFile(c.path(key), audio, 0o644); err != nil {
		c.log.Error("audio cache: writing %s: %v", key[:12], err)
	}
}

// Has reports whether a clip is cached without counting a hit or miss.
func (c *AudioCache) Has(text string) bool {
	key := c.key(text)

	c.mu.RLock()
	_, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return true
	}
	if c.dir == "" {
		return false
	}
	_, err := os.Stat(c.path(key))
	return err == nil
}

// Len returns the number of clips held in memory.
func (c *AudioCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *AudioCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *AudioCache) key(text string) string {
	h := sha256.Sum256([]byte(c.voice + ":" + text))
	return hex.EncodeToString(h[:])
}

func (c *AudioCache) path(key string) string {
	return filepath.Join(c.dir, key+".wav")
}
