package layout

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/zeebo/blake3"
)

// DefaultCacheSize bounds the number of layouts a Cache keeps.
const DefaultCacheSize = 64

// Fingerprint hashes the topology (ordered ids, ordered edges and options)
// that fully determines a layout.
func Fingerprint(ids []string, edges []domain.Edge, opts Options) string {
	opts = opts.withDefaults()
	h := blake3.New()
	write := func(s string) {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	for _, id := range ids {
		write(id)
	}
	write("|edges")
	for _, e := range edges {
		write(e.Source)
		write(e.Target)
	}
	write("|opts")
	for _, f := range []float64{opts.NodeWidth, opts.NodeHeight, opts.NodeSep, opts.RankSep} {
		write(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Cache memoises layouts by topology fingerprint so that re-renders caused
// only by status changes reuse the previous geometry. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	max     int
	entries map[string]Layout
	order   []string
	hits    int
	misses  int
}

// NewCache creates a Cache holding at most size layouts. Oldest entries are
// evicted first.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{max: size, entries: make(map[string]Layout, size)}
}

// Compute returns the cached layout for this topology, computing and storing
// it on a miss. The second result reports a cache hit.
func (c *Cache) Compute(ids []string, edges []domain.Edge, opts Options) (Layout, bool) {
	key := Fingerprint(ids, edges, opts)

	c.mu.Lock()
	if l, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return l, true
	}
	c.misses++
	c.mu.Unlock()

	l := Compute(ids, edges, opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		if len(c.order) >= c.max {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = l
	return l, false
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached layouts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
