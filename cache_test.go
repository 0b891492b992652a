package tsengine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPostCacheInvalidate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	c := NewPostCache(s, time.Hour)

	posts, err := c.ListPosts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 0 {
		t.Fatalf("len = %d, want 0", len(posts))
	}

	if _, err := s.CreatePost(ctx, testPost("cached")); err != nil {
		t.Fatal(err)
	}
	if posts, _ := c.ListPosts(ctx); len(posts) != 0 {
		t.Fatalf("cache should still serve the stale listing, got %d posts", len(posts))
	}

	c.Invalidate()
	posts, err = c.ListPosts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 {
		t.Fatalf("len after invalidate = %d, want 1", len(posts))
	}
	if _, err := c.GetPostBySlug(ctx, "cached"); err != nil {
		t.Fatalf("GetPostBySlug: %v", err)
	}
	if _, err := c.GetPostBySlug(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPostCacheExpires(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	c := NewPostCache(s, time.Nanosecond)

	if _, err := c.ListPosts(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreatePost(ctx, testPost("fresh")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	posts, err := c.ListPosts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 {
		t.Fatalf("len = %d, want 1 after TTL", len(posts))
	}
}
