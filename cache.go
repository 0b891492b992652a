package tsengine

import (
	"context"
	"sync"
	"time"
)

// PostCache is an in-memory cache of the public blog listing with TTL.
// Every admin write calls Invalidate.
type PostCache struct {
	mu      sync.RWMutex
	posts   []BlogPost
	bySlug  map[string]BlogPost
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s *Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.bySlug = nil
	c.mu.Unlock()
}

func (c *PostCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	posts, err := c.store.ListPosts(ctx)
	if err != nil {
		return err
	}
	bySlug := make(map[string]BlogPost, len(posts))
	for _, p := range posts {
		bySlug[p.Slug] = p
	}
	c.posts = posts
	c.bySlug = bySlug
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns the cached listing after ensuring it is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded(ctx context.Context) ([]BlogPost, map[string]BlogPost, error) {
	c.mu.RLock()
	if c.valid() {
		posts, bySlug := c.posts, c.bySlug
		c.mu.RUnlock()
		return posts, bySlug, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	return c.posts, c.bySlug, nil
}

// ListPosts returns all posts, newest first.
func (c *PostCache) ListPosts(ctx context.Context) ([]BlogPost, error) {
	posts, _, err := c.ensureLoaded(ctx)
	return posts, err
}

// GetPostBySlug returns a single post from the cache.
func (c *PostCache) GetPostBySlug(ctx context.Context, slug string) (BlogPost, error) {
	_, bySlug, err := c.ensureLoaded(ctx)
	if err != nil {
		return BlogPost{}, err
	}
	p, ok := bySlug[slug]
	if !ok {
		return BlogPost{}, ErrNotFound
	}
	return p, nil
}
