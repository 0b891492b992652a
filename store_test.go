package tsengine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// steppingClock returns a time source that advances one second per call.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func testPost(slug string) BlogPost {
	return BlogPost{
		Title:    "Title " + slug,
		Slug:     slug,
		Excerpt:  "Excerpt",
		Content:  "<p>Body</p>",
		Category: CategoryGuides,
	}
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestCreateAndGetPost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	in := testPost("how-to-exit")
	in.FeaturedImage = "https://cdn.example.com/a.png"
	in.MetaTitle = "Meta"
	created, err := s.CreatePost(ctx, in)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected id to be assigned")
	}
	if created.PublishedAt.IsZero() || !created.PublishedAt.Equal(created.UpdatedAt) {
		t.Fatalf("timestamps = %v / %v", created.PublishedAt, created.UpdatedAt)
	}

	got, err := s.GetPost(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got != created {
		t.Errorf("GetPost = %+v, want %+v", got, created)
	}

	bySlug, err := s.GetPostBySlug(ctx, "how-to-exit")
	if err != nil {
		t.Fatalf("GetPostBySlug: %v", err)
	}
	if bySlug.ID != created.ID {
		t.Errorf("GetPostBySlug id = %q, want %q", bySlug.ID, created.ID)
	}
}

func TestGetPostNotFound(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.GetPostBySlug(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetPost(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreatePostDuplicateSlug(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreatePost(ctx, testPost("dup")); err != nil {
		t.Fatalf("first CreatePost: %v", err)
	}
	_, err := s.CreatePost(ctx, testPost("dup"))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, ok := ve.Fields["slug"]; !ok {
		t.Errorf("fields = %v, want slug", ve.Fields)
	}
}

func TestListPostsNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	s.now = steppingClock()
	ctx := context.Background()

	empty, err := s.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("empty listing = %#v, want non-nil empty slice", empty)
	}

	for i := 1; i <= 3; i++ {
		if _, err := s.CreatePost(ctx, testPost(fmt.Sprintf("post-%d", i))); err != nil {
			t.Fatal(err)
		}
	}
	posts, err := s.ListPosts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 3 {
		t.Fatalf("len = %d, want 3", len(posts))
	}
	for i, want := range []string{"post-3", "post-2", "post-1"} {
		if posts[i].Slug != want {
			t.Errorf("posts[%d] = %q, want %q", i, posts[i].Slug, want)
		}
	}
}

func TestUpdatePost(t *testing.T) {
	s := setupTestStore(t)
	s.now = steppingClock()
	ctx := context.Background()

	created, err := s.CreatePost(ctx, testPost("original"))
	if err != nil {
		t.Fatal(err)
	}
	created.Title = "Changed"
	created.Slug = "changed"
	updated, err := s.UpdatePost(ctx, created)
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	if updated.Title != "Changed" || updated.Slug != "changed" {
		t.Errorf("updated = %+v", updated)
	}
	if !updated.UpdatedAt.After(updated.PublishedAt) {
		t.Errorf("UpdatedAt %v should be after PublishedAt %v", updated.UpdatedAt, updated.PublishedAt)
	}
	if updated.LastModified() != updated.UpdatedAt {
		t.Errorf("LastModified = %v", updated.LastModified())
	}

	missing := testPost("ghost")
	missing.ID = "does-not-exist"
	if _, err := s.UpdatePost(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeletePostIsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created, err := s.CreatePost(ctx, testPost("to-delete"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeletePost(ctx, created.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if err := s.DeletePost(ctx, created.ID); err != nil {
		t.Fatalf("second DeletePost: %v", err)
	}
	if _, err := s.GetPost(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateAndListLeads(t *testing.T) {
	s := setupTestStore(t)
	s.now = steppingClock()
	ctx := context.Background()

	fee := int64(1200)
	first, err := s.CreateLead(ctx, Lead{
		Source:               SourceCostCalculator,
		Name:                 "Pat",
		Email:                "pat@example.com",
		AnnualMaintenanceFee: &fee,
		CalculatorResults:    `{"total":104727}`,
	})
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	second, err := s.CreateLead(ctx, Lead{Source: SourceContactForm, Name: "Jane", Email: "jane@x.com"})
	if err != nil {
		t.Fatal(err)
	}

	leads, err := s.ListLeads(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(leads) != 2 || leads[0].ID != second.ID || leads[1].ID != first.ID {
		t.Fatalf("leads not newest first: %+v", leads)
	}

	got, err := s.GetLead(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetLead: %v", err)
	}
	if got.AnnualMaintenanceFee == nil || *got.AnnualMaintenanceFee != 1200 {
		t.Errorf("AnnualMaintenanceFee = %v", got.AnnualMaintenanceFee)
	}
	if got.PurchasePrice != nil {
		t.Errorf("PurchasePrice = %v, want nil", *got.PurchasePrice)
	}
	if got.CalculatorResults != `{"total":104727}` {
		t.Errorf("CalculatorResults = %q", got.CalculatorResults)
	}
}

func TestGetSettingNeverSet(t *testing.T) {
	s := setupTestStore(t)
	_, ok, err := s.GetSetting(context.Background(), KeyWebhookURL)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a key that was never set")
	}
}

func TestSetSettingUpsert(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.SetSetting(ctx, KeySEOTitle, "Same"); err != nil {
			t.Fatalf("SetSetting #%d: %v", i, err)
		}
	}
	if _, err := s.SetSetting(ctx, KeySEOTitle, "Changed"); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("rows = %d, want 1", len(all))
	}
	if all[0].Value != "Changed" {
		t.Errorf("value = %q, want Changed", all[0].Value)
	}
}

func TestSetSettingConcurrentWriters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.SetSetting(ctx, KeyWebhookURL, fmt.Sprintf("https://hooks.example.com/%d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("SetSetting: %v", err)
	}

	all, err := s.ListSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("rows = %d, want exactly 1", len(all))
	}
}

func TestSetSettingsGroup(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	group := map[string]string{KeySEOTitle: "T", KeySEODescription: "D", KeySEOKeywords: "K"}
	if err := s.SetSettings(ctx, group); err != nil {
		t.Fatalf("SetSettings: %v", err)
	}
	if err := s.SetSettings(ctx, group); err != nil {
		t.Fatalf("SetSettings again: %v", err)
	}
	all, err := s.ListSettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("rows = %d, want 3", len(all))
	}
	settings := settingsFromRows(all)
	if settings.SEO != (SEOView{Title: "T", Description: "D", Keywords: "K"}) {
		t.Errorf("SEO = %+v", settings.SEO)
	}
}

func TestRebind(t *testing.T) {
	s := &Store{postgres: true}
	got := s.rebind(`SELECT a FROM t WHERE x = ? AND y = ?`)
	if got != `SELECT a FROM t WHERE x = $1 AND y = $2` {
		t.Errorf("rebind = %q", got)
	}
	sqlite := &Store{}
	if q := sqlite.rebind(`x = ?`); q != `x = ?` {
		t.Errorf("sqlite rebind changed query: %q", q)
	}
}
