package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go-substack-insight/internal/model"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func samplePost(url string, published time.Time) model.Post {
	return model.Post{
		Title:       "T " + url,
		Slug:        url[len(url)-1:],
		URL:         url,
		Content:     "hello world",
		WordCount:   2,
		ReadTime:    1,
		Tags:        []string{"go"},
		PublishedAt: published,
		UpdatedAt:   published,
	}
}

func TestUpsertPosts_Idempotent(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	p := samplePost("https://demo.substack.com/p/a", now)
	if err := s.UpsertPosts(ctx, []model.Post{p}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	// 同一 url 再写：整行替换而非新增
	p.Title = "rewritten"
	p.WordCount = 99
	if err := s.UpsertPosts(ctx, []model.Post{p}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	posts, err := s.ListPosts(ctx, "demo", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("posts len=%d want=1", len(posts))
	}
	if posts[0].Title != "rewritten" || posts[0].WordCount != 99 {
		t.Fatalf("last write must win: %+v", posts[0])
	}
	if len(posts[0].Tags) != 1 || posts[0].Tags[0] != "go" {
		t.Fatalf("tags roundtrip: %v", posts[0].Tags)
	}
}

func TestUpsertPosts_EmptyURLRejected(t *testing.T) {
	s := openTestDB(t)
	err := s.UpsertPosts(context.Background(), []model.Post{{Title: "no url"}})
	if err == nil {
		t.Fatalf("expect error for post without url")
	}
}

func TestQueryPosts_Filters(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	batch := []model.Post{
		samplePost("https://alpha.substack.com/p/new", now),
		samplePost("https://alpha.substack.com/p/old", now.AddDate(0, 0, -40)),
		samplePost("https://beta.substack.com/p/other", now),
	}
	if err := s.UpsertPosts(ctx, batch); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.QueryPosts(ctx, "alpha", now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://alpha.substack.com/p/new" {
		t.Fatalf("window+membership filter: %+v", got)
	}

	all, err := s.ListPosts(ctx, "alpha", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("alpha posts=%d want=2", len(all))
	}
	// 发布时间倒序
	if all[0].URL != "https://alpha.substack.com/p/new" {
		t.Fatalf("order: %+v", all)
	}
}

func TestPublicationRoundtrip(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	pub := model.Publication{
		Name:            "demo",
		Description:     "d",
		URL:             "https://demo.substack.com",
		SubscriberCount: 10,
		PostsCount:      2,
		SocialLinks:     map[string]string{"twitter": "https://twitter.com/demo"},
	}
	if err := s.UpsertPublication(ctx, pub); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// 再写覆盖，name 唯一
	pub.SubscriberCount = 20
	if err := s.UpsertPublication(ctx, pub); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, ok, err := s.GetPublication(ctx, "demo")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.SubscriberCount != 20 || got.SocialLinks["twitter"] == "" {
		t.Fatalf("roundtrip: %+v", got)
	}

	names, err := s.ListPublications(ctx)
	if err != nil || len(names) != 1 || names[0] != "demo" {
		t.Fatalf("names=%v err=%v", names, err)
	}

	if _, ok, err := s.GetPublication(ctx, "nope"); err != nil || ok {
		t.Fatalf("missing publication: ok=%v err=%v", ok, err)
	}

	if err := s.UpsertPublication(ctx, model.Publication{}); err == nil {
		t.Fatalf("expect error for empty name")
	}
}

func TestCleanOldPosts(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	batch := []model.Post{
		samplePost("https://demo.substack.com/p/fresh", now),
		samplePost("https://demo.substack.com/p/stale", now.AddDate(0, 0, -100)),
	}
	if err := s.UpsertPosts(ctx, batch); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.CleanOldPosts(ctx, 30); err != nil {
		t.Fatalf("clean: %v", err)
	}
	posts, err := s.ListPosts(ctx, "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "h" {
		t.Fatalf("after clean: %+v", posts)
	}
}

func TestResetAndMetrics(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	if err := s.SaveMetric(ctx, "demo", "posts_count", 7); err != nil {
		t.Fatalf("save metric: %v", err)
	}
	if err := s.UpsertPosts(ctx, []model.Post{samplePost("https://demo.substack.com/p/a", time.Now())}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	posts, err := s.ListPosts(ctx, "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("reset must clear posts, got %d", len(posts))
	}
}
