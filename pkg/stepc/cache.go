package stepc

import (
	"crypto/sha256"

	"github.com/hashicorp/golang-lru"
)

// Cache remembers the outcome of recent compilations by source text, so
// that an editor recompiling on every keystroke only pays for new text.
// Rejections are cached along with programs.
type Cache struct {
	cache *lru.Cache
}

type compiled struct {
	prog *Program
	err  error
}

// NewCache returns a cache holding at most size compilations
func NewCache(size int) (*Cache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{cache: cache}, nil
}

// Compile returns the cached outcome for source, compiling on a miss
func (c *Cache) Compile(source string) (*Program, error) {
	key := sha256.Sum256([]byte(source))
	if v, ok := c.cache.Get(key); ok {
		CacheLookups.WithLabelValues("hit").Inc()
		r := v.(compiled)
		return r.prog, r.err
	}
	CacheLookups.WithLabelValues("miss").Inc()
	prog, err := Compile(source)
	c.cache.Add(key, compiled{prog, err})
	return prog, err
}

// Len returns the number of cached compilations
func (c *Cache) Len() int { return c.cache.Len() }
