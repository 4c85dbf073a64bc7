package scrape

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-substack-insight/internal/model"
	"go-substack-insight/internal/rules"
)

// PostFromItem 从归档页的单个条目节点抽取文章字段。
// 每个字段独立走自己的回退链，某个字段失败不影响其余字段；
// 仅当链接字段缺失时整条丢弃（没有身份的文章无法入库），返回 false。
// 正文不在列表页内，由调用方对文章 URL 发起第二次请求后补全。
func PostFromItem(s *goquery.Selection, pl *rules.PostList, baseURL string) (model.Post, bool) {
	link := abs(baseURL, getVal(s, pl.Link))
	if link == "" {
		return model.Post{}, false
	}

	published, _ := ParseDate(getVal(s, pl.Date))

	text := strings.ToLower(s.Text())
	p := model.Post{
		Title:       getVal(s, pl.Title),
		Slug:        SlugOf(link),
		URL:         link,
		Excerpt:     getVal(s, pl.Excerpt),
		Author:      getVal(s, pl.Author),
		PublishedAt: published,
		UpdatedAt:   published,
		Tags:        getAll(s, pl.Tags),
		// 粗糙的文本启发式：讨论订阅话题的免费文章也会被误判为付费，
		// 这是已知且接受的误报来源
		IsPremium:      hasPremiumClass(s) || strings.Contains(text, "premium") || strings.Contains(text, "subscriber"),
		SubscriberOnly: strings.Contains(text, "subscriber"),
		ScrapedAt:      time.Now(),
	}
	return p, true
}

// hasPremiumClass 判断条目是否携带付费标记 class。
func hasPremiumClass(s *goquery.Selection) bool {
	cls, _ := s.Attr("class")
	return strings.Contains(strings.ToLower(cls), "premium")
}

// SlugOf 取 URL 最后一个路径段作为 slug。
// 不同出版物的 URL 若坍缩到同一 slug，入库时后写者胜。
func SlugOf(link string) string {
	link = strings.TrimSuffix(link, "/")
	if i := strings.LastIndex(link, "/"); i >= 0 {
		return link[i+1:]
	}
	return link
}

// Body 按正文容器链提取文章全文。全部落空返回空串，
// 这是合法的终态而非错误：word_count/read_time 相应坍缩为 0/1。
func Body(doc *goquery.Document, chain string) string {
	for _, sel := range splitChain(chain) {
		if el := doc.Find(sel).First(); el.Length() > 0 {
			return strings.TrimSpace(el.Text())
		}
	}
	return ""
}

// Derive 由正文派生字数与阅读时长（200 词/分钟，至少 1 分钟）。
func Derive(content string) (wordCount, readTime int) {
	wordCount = len(strings.Fields(content))
	readTime = wordCount / 200
	if readTime < 1 {
		readTime = 1
	}
	return wordCount, readTime
}
