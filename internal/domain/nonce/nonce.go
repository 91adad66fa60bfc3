// Package nonce makes object creation idempotent: a client-chosen nonce maps
// to the ID created by the first request that carried it.
package nonce

import (
	"container/list"
	"context"
	"crypto/sha256"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50000

type entry struct {
	key         string
	id          string
	fingerprint [sha256.Size]byte
}

// Cache remembers nonce keys. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is newest
	maxSize int
	size    atomic.Int64
}

// New creates a Cache with configuration options.
func New(opts ...Option) *Cache {
	c := &Cache{
		maxSize: defaultMaxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fingerprint hashes a request body for Remember.
func Fingerprint(body []byte) [sha256.Size]byte {
	return sha256.Sum256(body)
}

// Remember returns the ID stored for key. On a miss it calls create, stores
// its result and returns it with hit false. create runs under the cache lock,
// so concurrent requests with one nonce create a single object. A hit whose
// fingerprint differs from the stored one fails with ErrNonceReused.
func (c *Cache) Remember(_ context.Context, key string, fingerprint [sha256.Size]byte, create func() (string, error)) (id string, hit bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry) //nolint:forcetypeassert // only *entry is stored
		if e.fingerprint != fingerprint {
			return "", true, ErrNonceReused
		}
		return e.id, true, nil
	}

	id, err = create()
	if err != nil {
		return "", false, err
	}

	if c.maxSize > 0 && c.order.Len() >= c.maxSize {
		c.evictOldest()
	}
	c.entries[key] = c.order.PushFront(&entry{key: key, id: id, fingerprint: fingerprint})
	c.size.Add(1)
	return id, false, nil
}

// Forget removes key.
func (c *Cache) Forget(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
		c.size.Add(-1)
	}
}

// evictOldest must be called with c.mu held.
func (c *Cache) evictOldest() {
	el := c.order.Back()
	if el == nil {
		return
	}
	c.order.Remove(el)
	delete(c.entries, el.Value.(*entry).key) //nolint:forcetypeassert // only *entry is stored
	c.size.Add(-1)
}

// Size returns the current number of entries.
func (c *Cache) Size() int64 {
	return c.size.Load()
}
