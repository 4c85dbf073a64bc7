package scrape

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-substack-insight/internal/rules"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestLocate_FirstMatchWins(t *testing.T) {
	doc := mustDoc(t, `<div class="post">one</div><article class="post">two</article>`)
	// 链内第一候选已命中，第二候选即使也能命中也不再评估
	s := Locate(doc, `div.post||article.post`)
	if s == nil || s.Length() != 1 {
		t.Fatalf("locate len=%v want=1", s)
	}
	if got := strings.TrimSpace(s.Text()); got != "one" {
		t.Fatalf("text=%q want=one", got)
	}
}

func TestLocate_FallsThroughToLater(t *testing.T) {
	doc := mustDoc(t, `<article class="post">two</article>`)
	s := Locate(doc, `div.nope||article.post`)
	if s == nil || s.Length() != 1 {
		t.Fatalf("expect later selector to match")
	}
	if Locate(doc, `div.a||div.b`) != nil {
		t.Fatalf("expect nil when no selector matches")
	}
}

func TestGetVal_Grammar(t *testing.T) {
	doc := mustDoc(t, `<div id="it" class="x"><a href="/p/a">A</a><span class="w"> hi </span></div>`)
	s := doc.Find("#it")
	if v := getVal(s, "a@href"); v != "/p/a" {
		t.Fatalf("a@href=%q", v)
	}
	if v := getVal(s, "@class"); v != "x" {
		t.Fatalf("@class=%q", v)
	}
	if v := getVal(s, "span.w"); v != "hi" {
		t.Fatalf("span text=%q", v)
	}
	// 回退链：第一项落空，第二项生效
	if v := getVal(s, "b@href||a@href"); v != "/p/a" {
		t.Fatalf("fallback chain=%q", v)
	}
	if v := getVal(s, "nope||missing"); v != "" {
		t.Fatalf("expect empty, got %q", v)
	}
}

func TestParseDate_KnownLayouts(t *testing.T) {
	cases := map[string]string{
		"January 2, 2024": "2024-01-02",
		"Jan 2, 2024":     "2024-01-02",
		"2024-01-02":      "2024-01-02",
		"01/02/2024":      "2024-01-02",
	}
	for in, want := range cases {
		got, ok := ParseDate(in)
		if !ok {
			t.Fatalf("ParseDate(%q) ok=false", in)
		}
		if got.Format("2006-01-02") != want {
			t.Fatalf("ParseDate(%q)=%s want=%s", in, got.Format("2006-01-02"), want)
		}
	}
}

func TestParseDate_FallbackToNow(t *testing.T) {
	before := time.Now()
	got, ok := ParseDate("three days ago")
	if ok {
		t.Fatalf("expect ok=false for unparseable date")
	}
	if got.Before(before) || time.Since(got) > time.Minute {
		t.Fatalf("fallback not close to now: %v", got)
	}
	if _, ok := ParseDate(""); ok {
		t.Fatalf("expect ok=false for empty date")
	}
}

func TestPostFromItem_Fields(t *testing.T) {
	html := `<div class="post premium">
        <h2>Deep Dive</h2>
        <a href="/p/deep-dive">read</a>
        <p>short intro</p>
        <span class="author">Ann</span>
        <time>2024-03-05</time>
        <span class="tag">go</span><span class="tag">news</span><span class="tag">go</span>
    </div>`
	doc := mustDoc(t, html)
	p, ok := PostFromItem(doc.Find("div.post"), rules.Default().PostList, "https://demo.substack.com")
	if !ok {
		t.Fatalf("expect ok")
	}
	if p.Title != "Deep Dive" || p.Author != "Ann" || p.Excerpt != "short intro" {
		t.Fatalf("fields: %+v", p)
	}
	if p.URL != "https://demo.substack.com/p/deep-dive" || p.Slug != "deep-dive" {
		t.Fatalf("url/slug: %q %q", p.URL, p.Slug)
	}
	if p.PublishedAt.Format("2006-01-02") != "2024-03-05" {
		t.Fatalf("published=%v", p.PublishedAt)
	}
	if !p.UpdatedAt.Equal(p.PublishedAt) {
		t.Fatalf("updated defaults to published")
	}
	// 重复标签保留，顺序为页面出现顺序
	if len(p.Tags) != 3 || p.Tags[0] != "go" || p.Tags[1] != "news" || p.Tags[2] != "go" {
		t.Fatalf("tags: %v", p.Tags)
	}
	if !p.IsPremium {
		t.Fatalf("premium class should mark premium")
	}
}

func TestPostFromItem_MissingURLDiscards(t *testing.T) {
	doc := mustDoc(t, `<div class="post"><h2>No Link</h2></div>`)
	if _, ok := PostFromItem(doc.Find("div.post"), rules.Default().PostList, "https://demo.substack.com"); ok {
		t.Fatalf("expect discard when link is missing")
	}
}

func TestPostFromItem_PartialFieldsKept(t *testing.T) {
	// 标题/作者/日期全部缺失也不影响成条，仅链接是硬性要求
	doc := mustDoc(t, `<div class="post"><a href="/p/bare"></a></div>`)
	p, ok := PostFromItem(doc.Find("div.post"), rules.Default().PostList, "https://demo.substack.com")
	if !ok {
		t.Fatalf("expect ok for link-only item")
	}
	if p.Title != "" || p.Author != "" {
		t.Fatalf("expect empty optional fields: %+v", p)
	}
	if p.Slug != "bare" {
		t.Fatalf("slug=%q", p.Slug)
	}
}

func TestPostFromItem_PremiumTextHeuristic(t *testing.T) {
	doc := mustDoc(t, `<div class="post"><a href="/p/x">x</a><p>for subscribers only</p></div>`)
	p, ok := PostFromItem(doc.Find("div.post"), rules.Default().PostList, "https://demo.substack.com")
	if !ok {
		t.Fatalf("expect ok")
	}
	if !p.IsPremium || !p.SubscriberOnly {
		t.Fatalf("subscriber text should mark premium+subscriber_only: %+v", p)
	}
}

func TestBodyAndDerive(t *testing.T) {
	doc := mustDoc(t, `<article><div class="post-content"> one two three </div></article>`)
	body := Body(doc, rules.Default().PostBody)
	if body != "one two three" {
		t.Fatalf("body=%q", body)
	}
	wc, rt := Derive(body)
	if wc != 3 || rt != 1 {
		t.Fatalf("wc=%d rt=%d", wc, rt)
	}
	wc, rt = Derive(strings.Repeat("word ", 500))
	if wc != 500 || rt != 2 {
		t.Fatalf("wc=%d rt=%d", wc, rt)
	}
	if wc, rt := Derive(""); wc != 0 || rt != 1 {
		t.Fatalf("empty body: wc=%d rt=%d", wc, rt)
	}
}

func TestSlugOf(t *testing.T) {
	if s := SlugOf("https://a.substack.com/p/hello-world/"); s != "hello-world" {
		t.Fatalf("slug=%q", s)
	}
	if s := SlugOf("plain"); s != "plain" {
		t.Fatalf("slug=%q", s)
	}
}

func TestPublicationFromHome(t *testing.T) {
	html := `<html><head><title>The Demo Letter</title>
        <meta name="description" content="weekly demos"></head>
        <body>
        <div class="author-name">Bob</div>
        <p>Join 12,345 subscribers today</p>
        <a href="https://twitter.com/demo">t</a>
        <a href="https://www.linkedin.com/in/demo">l</a>
        </body></html>`
	doc := mustDoc(t, html)
	pub := PublicationFromHome(doc, rules.Default().Header, "demo", "https://demo.substack.com")
	if pub.Name != "demo" {
		t.Fatalf("configured name must stay the key, got %q", pub.Name)
	}
	if pub.Description != "weekly demos" || pub.Author != "Bob" {
		t.Fatalf("meta: %+v", pub)
	}
	if pub.SubscriberCount != 12345 {
		t.Fatalf("subscribers=%d", pub.SubscriberCount)
	}
	if pub.SocialLinks["twitter"] == "" || pub.SocialLinks["linkedin"] == "" {
		t.Fatalf("social links: %v", pub.SocialLinks)
	}
}

func TestPublicationFromHome_NameFallsBackToTitle(t *testing.T) {
	doc := mustDoc(t, `<html><head><title>Untracked</title></head><body></body></html>`)
	pub := PublicationFromHome(doc, rules.Default().Header, "", "https://x.example")
	if pub.Name != "Untracked" {
		t.Fatalf("name=%q", pub.Name)
	}
	if pub.SubscriberCount != 0 {
		t.Fatalf("subscribers=%d want=0", pub.SubscriberCount)
	}
}
