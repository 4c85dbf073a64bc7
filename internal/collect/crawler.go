// 包 collect 实现分页抓取控制器：
// - 对每一页轮询候选 URL 模板，首个返回可用内容的模板生效
// - 每个条目经定位/抽取后，对文章自身 URL 发起第二次请求补全正文
// - 页间随机延迟限速；部分失败不丢弃已得结果
package collect

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-substack-insight/internal/feeds"
	"go-substack-insight/internal/fetch"
	"go-substack-insight/internal/logx"
	"go-substack-insight/internal/model"
	"go-substack-insight/internal/rules"
	"go-substack-insight/internal/scrape"
)

// State 为抓取控制器的运行状态。
type State int

const (
	// StateSeeking 正在为当前页轮询 URL 模板
	StateSeeking State = iota
	// StateExtracting 正在处理当前页定位到的条目
	StateExtracting
	// StateDone 达到目标数量或归档耗尽
	StateDone
	// StateAborted 当前页所有模板均不可用
	StateAborted
)

// Crawler 驱动单个出版物的归档分页抓取。
// 抓取过程为单线程串行：分页顺序决定停止条件（空页即归档结尾），
// 页间延迟也因此无需考虑交织。
type Crawler struct {
	cl       *fetch.Client
	preset   rules.Preset
	name     string
	baseURL  string
	delayMin time.Duration
	delayMax time.Duration
}

// Options 为控制器构造参数（延迟为页间随机取值区间）。
type Options struct {
	DelayMin time.Duration
	DelayMax time.Duration
}

// New 创建抓取控制器。
func New(cl *fetch.Client, preset rules.Preset, name, baseURL string, opts Options) *Crawler {
	return &Crawler{
		cl:       cl,
		preset:   preset,
		name:     name,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		delayMin: opts.DelayMin,
		delayMax: opts.DelayMax,
	}
}

// pageTemplates 返回第 page 页的候选 URL 模板（按优先级排序）。
func (c *Crawler) pageTemplates(page int) []string {
	return []string{
		fmt.Sprintf("%s/archive?page=%d", c.baseURL, page),
		fmt.Sprintf("%s/p?page=%d", c.baseURL, page),
		fmt.Sprintf("%s/?page=%d", c.baseURL, page),
	}
}

// Posts 抓取最多 max 篇文章。
// 中途中止（某页所有模板均失败）时返回已积累的部分结果与错误；
// 归档自然耗尽（定位不到任何条目）则正常结束，不算错误。
func (c *Crawler) Posts(ctx context.Context, max int) ([]model.Post, error) {
	var posts []model.Post
	page := 1
	state := StateSeeking
	for {
		switch state {
		case StateSeeking:
			content, ok := c.seekPage(ctx, page)
			if !ok {
				state = StateAborted
				continue
			}
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
			if err != nil {
				logx.Warnf("[%s] 解析第 %d 页 HTML 失败：%v", c.name, page, err)
				state = StateAborted
				continue
			}
			items := scrape.Locate(doc, c.preset.PostList.Item)
			if items == nil || items.Length() == 0 {
				// 归档结尾：不是错误，返回已有结果
				logx.Debugf("[%s] 第 %d 页未定位到条目，视作归档耗尽", c.name, page)
				state = StateDone
				continue
			}
			items.EachWithBreak(func(_ int, s *goquery.Selection) bool {
				if len(posts) >= max {
					return false
				}
				p, ok := scrape.PostFromItem(s, c.preset.PostList, c.baseURL)
				if !ok {
					return true
				}
				c.fillContent(ctx, &p)
				posts = append(posts, p)
				return true
			})
			state = StateExtracting
		case StateExtracting:
			if len(posts) >= max {
				state = StateDone
				continue
			}
			page++
			c.politePause(ctx)
			state = StateSeeking
		case StateDone:
			return posts, nil
		case StateAborted:
			// 部分结果照常返回，绝不丢弃
			return posts, fmt.Errorf("page %d: all url templates exhausted for %s", page, c.baseURL)
		}
	}
}

// seekPage 轮询当前页的 URL 模板，返回首个包含内容标记的页面文本。
// 模板抓取失败或内容不含标记时继续尝试下一模板；全部落空返回 false。
func (c *Crawler) seekPage(ctx context.Context, page int) (string, bool) {
	for _, u := range c.pageTemplates(page) {
		content, err := c.cl.GetText(ctx, u)
		if err != nil {
			logx.Debugf("[%s] 抓取 %s 失败：%v", c.name, u, err)
			continue
		}
		if content != "" && strings.Contains(strings.ToLower(content), "post") {
			return content, true
		}
	}
	return "", false
}

// fillContent 对文章 URL 发起第二次请求补全正文并派生字数/阅读时长。
// 正文容器全部未命中或抓取失败时正文留空，属于合法终态。
func (c *Crawler) fillContent(ctx context.Context, p *model.Post) {
	content, err := c.cl.GetText(ctx, p.URL)
	if err != nil {
		logx.Warnf("[%s] 抓取正文失败：%s 错误=%v", c.name, p.URL, err)
	} else if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
		p.Content = scrape.Body(doc, c.preset.PostBody)
	}
	p.WordCount, p.ReadTime = scrape.Derive(p.Content)
}

// politePause 在页间随机暂停，对目标站点保持礼貌。
func (c *Crawler) politePause(ctx context.Context) {
	d := c.delayMin
	if span := c.delayMax - c.delayMin; span > 0 {
		d += time.Duration(rand.Int63n(int64(span)))
	}
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Publication 抓取出版物主页并抽取元信息。
// 主页不可达时返回仅含配置信息的兜底对象，不视作错误。
func (c *Crawler) Publication(ctx context.Context) model.Publication {
	content, err := c.cl.GetText(ctx, c.baseURL)
	if err != nil {
		logx.Warnf("[%s] 抓取主页失败：%v", c.name, err)
		return fallbackPublication(c.name, c.baseURL)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		logx.Warnf("[%s] 解析主页失败：%v", c.name, err)
		return fallbackPublication(c.name, c.baseURL)
	}
	return scrape.PublicationFromHome(doc, c.preset.Header, c.name, c.baseURL)
}

func fallbackPublication(name, baseURL string) model.Publication {
	now := time.Now()
	return model.Publication{
		Name:        name,
		URL:         baseURL,
		SocialLinks: map[string]string{},
		FoundedAt:   now,
		UpdatedAt:   now,
	}
}

// PostsFromFeed 将订阅条目转换为文章并补全正文，用于归档页定位失败时的回退。
func (c *Crawler) PostsFromFeed(ctx context.Context, items []feeds.Item, max int) []model.Post {
	posts := make([]model.Post, 0, len(items))
	for _, it := range items {
		if max > 0 && len(posts) >= max {
			break
		}
		if it.Link == "" {
			continue
		}
		published := it.Created
		if published.IsZero() {
			published = time.Now()
		}
		updated := it.Updated
		if updated.IsZero() {
			updated = published
		}
		p := model.Post{
			Title:       it.Title,
			Slug:        scrape.SlugOf(it.Link),
			URL:         it.Link,
			Excerpt:     it.Excerpt,
			Author:      it.Author,
			PublishedAt: published,
			UpdatedAt:   updated,
			ScrapedAt:   time.Now(),
		}
		c.fillContent(ctx, &p)
		posts = append(posts, p)
	}
	return posts
}
