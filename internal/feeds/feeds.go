// 包 feeds 负责订阅回退：归档页无法定位任何条目时，
// 退而解析 Substack 约定的 {base}/feed（RSS），归一化为文章条目。
package feeds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"go-substack-insight/internal/fetch"
)

// Item 为解析后的文章临时结构（供上层转换为 model.Post）。
type Item struct {
	Title   string
	Link    string
	Excerpt string
	Author  string
	Created time.Time
	Updated time.Time
}

// ParseArchiveFeed 解析出版物订阅并返回归一化条目（最多 max 条，0 表示不限制）。
func ParseArchiveFeed(ctx context.Context, cl *fetch.Client, baseURL string, max int) ([]Item, error) {
	feedURL := strings.TrimSuffix(baseURL, "/") + "/feed"
	reqCtx, cancel := context.WithTimeout(ctx, 25*time.Second)
	defer cancel()
	// gofeed 不直接接收自定义 http.Client，因此先用自定义客户端抓取后再交给 gofeed 解析
	resp, err := cl.Get(reqCtx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("GET feed %s: %w", feedURL, err)
	}
	defer resp.Body.Close()
	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		items = append(items, Item{
			Title:   strings.TrimSpace(it.Title),
			Link:    strings.TrimSpace(it.Link),
			Excerpt: strings.TrimSpace(it.Description),
			Author:  authorName(it),
			Created: pickTime(it.PublishedParsed, it.UpdatedParsed),
			Updated: pickTime(it.UpdatedParsed, it.PublishedParsed),
		})
		if max > 0 && len(items) >= max {
			break
		}
	}
	return items, nil
}

func pickTime(a, b *time.Time) time.Time {
	if a != nil {
		return *a
	}
	if b != nil {
		return *b
	}
	return time.Time{}
}

func authorName(it *gofeed.Item) string {
	if it.Author != nil {
		if it.Author.Name != "" {
			return it.Author.Name
		}
		if it.Author.Email != "" {
			return it.Author.Email
		}
	}
	return ""
}
