package api

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/theLastOfCats/contentgate/internal/db"
	"github.com/theLastOfCats/contentgate/internal/obfuscate"
	"golang.org/x/sync/singleflight"
)

// CategoryCache holds the sorted distinct category tags of every group.
// Content mutations invalidate it; otherwise it is reloaded after ttl.
type CategoryCache struct {
	stores []*db.ContentStore
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	cats     []string
	loadedAt time.Time
	gen      uint64

	group singleflight.Group
}

func NewCategoryCache(stores []*db.ContentStore, ttl time.Duration) *CategoryCache {
	return &CategoryCache{stores: stores, ttl: ttl, now: time.Now}
}

func (c *CategoryCache) Get(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	if c.cats != nil && c.now().Sub(c.loadedAt) < c.ttl {
		cats := c.cats
		c.mu.Unlock()
		return cats, nil
	}
	gen := c.gen
	c.mu.Unlock()

	v, err, _ := c.group.Do("categories", func() (any, error) {
		return c.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	cats := v.([]string)

	c.mu.Lock()
	// a mutation during the load makes the result stale
	if c.gen == gen {
		c.cats, c.loadedAt = cats, c.now()
	}
	c.mu.Unlock()
	return cats, nil
}

func (c *CategoryCache) Invalidate() {
	c.mu.Lock()
	c.cats = nil
	c.gen++
	c.mu.Unlock()
}

func (c *CategoryCache) load(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	for _, s := range c.stores {
		cats, err := s.Categories(ctx)
		if err != nil {
			return nil, err
		}
		for _, cat := range cats {
			seen[cat] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out, nil
}

type CategoryHandler struct {
	Cache   *CategoryCache
	Encoder *obfuscate.Encoder
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Cache.Get(r.Context())
	if err != nil {
		storeError(w, r, err, "Categories")
		return
	}
	writeEncoded(w, r, h.Encoder, cats)
}
