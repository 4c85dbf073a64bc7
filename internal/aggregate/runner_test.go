package aggregate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go-substack-insight/internal/config"
	"go-substack-insight/internal/fetch"
	"go-substack-insight/internal/model"
	"go-substack-insight/internal/store"
)

// publicationServer 模拟一个最小的出版物站点：主页 + 单页归档 + 文章页。
func publicationServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Demo</title>
            <meta name="description" content="a demo letter"></head>
            <body><p>Join 1,000 subscribers</p></body></html>`))
	})
	mux.HandleFunc("/archive", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			_, _ = w.Write([]byte("<html><body>no more posts</body></html>"))
			return
		}
		_, _ = w.Write([]byte(`<html><body>
            <div class="post"><h2>A</h2><a href="/p/a">read</a><time>2024-03-05</time></div>
            <div class="post premium"><h2>B</h2><a href="/p/b">read</a><time>2024-03-06</time></div>
            </body></html>`))
	})
	mux.HandleFunc("/p/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><div class="post-content">alpha beta gamma</div></html>`))
	})
	return httptest.NewServer(mux)
}

func testConfig(srvURL string, simple bool) *config.Config {
	return &config.Config{
		Publications: []config.Publication{{Name: "demo", URL: srvURL}},
		MaxPostsNum:  10,
		SimpleMode:   simple,
		Concurrency:  config.Concurrency{Fetch: 2},
		Crawl:        config.Crawl{DelayMinMs: 1, DelayMaxMs: 2},
	}
}

func newTestClient(t *testing.T) *fetch.Client {
	t.Helper()
	cl, err := fetch.New(fetch.Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("fetch client: %v", err)
	}
	return cl
}

func TestRunner_NormalMode(t *testing.T) {
	srv := publicationServer(t)
	defer srv.Close()

	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer st.Close()

	r := New(testConfig(srv.URL, false), st, newTestClient(t), nil)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	ctx := context.Background()
	pub, ok, err := st.GetPublication(ctx, "demo")
	if err != nil || !ok {
		t.Fatalf("publication: ok=%v err=%v", ok, err)
	}
	if pub.SubscriberCount != 1000 || pub.PostsCount != 2 {
		t.Fatalf("publication: %+v", pub)
	}
	posts, err := st.ListPosts(ctx, "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("posts len=%d want=2", len(posts))
	}
	for _, p := range posts {
		if p.WordCount != 3 {
			t.Fatalf("content fill: %+v", p)
		}
	}
}

func TestRunner_SimpleModeSkipsStore(t *testing.T) {
	srv := publicationServer(t)
	defer srv.Close()

	// 极简模式不打开数据库，store 为 nil 也必须安全
	r := New(testConfig(srv.URL, true), nil, newTestClient(t), nil)
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	pubs, posts := r.BufferData()
	if len(pubs) != 1 || len(posts) != 2 {
		t.Fatalf("buffer: pubs=%d posts=%d", len(pubs), len(posts))
	}
	if r.Buffer() == nil {
		t.Fatalf("expect buffer in simple mode")
	}
}

func TestRunner_NoPublications(t *testing.T) {
	r := New(&config.Config{}, nil, newTestClient(t), nil)
	if err := r.Run(context.Background()); err == nil {
		t.Fatalf("expect error for empty publication list")
	}
}

func TestSimpleBuffer_QueryPosts(t *testing.T) {
	b := NewSimpleBuffer()
	now := time.Now()
	b.AddPosts([]model.Post{
		{URL: "https://alpha.substack.com/p/new", PublishedAt: now},
		{URL: "https://alpha.substack.com/p/old", PublishedAt: now.AddDate(0, 0, -40)},
		{URL: "https://beta.substack.com/p/x", PublishedAt: now},
		{PublishedAt: now}, // 无 URL，丢弃
	})

	got, err := b.QueryPosts(context.Background(), "alpha", now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://alpha.substack.com/p/new" {
		t.Fatalf("filtered: %+v", got)
	}

	all, err := b.QueryPosts(context.Background(), "", time.Time{})
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all len=%d want=3", len(all))
	}
	// 发布时间倒序
	if all[len(all)-1].URL != "https://alpha.substack.com/p/old" {
		t.Fatalf("order: %+v", all)
	}
}
