package local

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Config holds LocalCache settings.
type Config struct {
	GCInterval time.Duration
}

type entry struct {
	data     string
	expireAt time.Time
	noExpiry bool
}

func (e *entry) expired() bool {
	return !e.noExpiry && time.Now().After(e.expireAt)
}

// LocalCache is an in-process KV cache. It stands in for Redis when no
// redis_addr is configured, which is the common single-host deployment
// of the tracker.
type LocalCache struct {
	mu         sync.RWMutex
	kv         map[string]*entry
	gcInterval time.Duration
	stopGC     chan struct{}
}

// NewCache creates a LocalCache and starts the background GC goroutine.
func NewCache(cfg Config) (*LocalCache, error) {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c := &LocalCache{
		kv:         make(map[string]*entry),
		gcInterval: interval,
		stopGC:     make(chan struct{}),
	}
	go c.runGC()
	return c, nil
}

// Close stops the background GC goroutine.
func (c *LocalCache) Close() {
	close(c.stopGC)
}

func (c *LocalCache) runGC() {
	ticker := time.NewTicker(c.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			for k, e := range c.kv {
				if e.expired() {
					delete(c.kv, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopGC:
			return
		}
	}
}

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	e, ok := c.kv[key]
	c.mu.RUnlock()
	if !ok || e.expired() {
		return "", ErrNotFound
	}
	return e.data, nil
}

func (c *LocalCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := &entry{data: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	} else {
		e.noExpiry = true
	}
	c.mu.Lock()
	c.kv[key] = e
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.kv, k)
	}
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	e, ok := c.kv[key]
	c.mu.RUnlock()
	return ok && !e.expired(), nil
}
