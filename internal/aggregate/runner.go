// 包 aggregate 负责主流程编排：
// - 并发抓取各出版物的主页元信息与归档文章
// - 归档页定位失败时回退到 RSS 订阅
// - 落库、记录指标快照与过期清理
package aggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-substack-insight/internal/collect"
	"go-substack-insight/internal/config"
	"go-substack-insight/internal/feeds"
	"go-substack-insight/internal/fetch"
	"go-substack-insight/internal/logx"
	"go-substack-insight/internal/model"
	"go-substack-insight/internal/rules"
	"go-substack-insight/internal/store"
)

// Runner 聚合执行器，持有配置/存储/HTTP 客户端/规则。
type Runner struct {
	cfg   *config.Config
	rules *rules.Rules
	fetch *fetch.Client
	store *store.SQLite
	// 极简模式：仅收集内存数据，不落库
	buf *SimpleBuffer
}

// New 创建 Runner。
func New(cfg *config.Config, s *store.SQLite, cl *fetch.Client, rl *rules.Rules) *Runner {
	r := &Runner{cfg: cfg, store: s, fetch: cl, rules: rl}
	if cfg != nil && cfg.SimpleMode {
		r.buf = NewSimpleBuffer()
	}
	return r
}

// Run 执行一轮聚合：逐出版物抓取→写库→清理过期。
func (r *Runner) Run(ctx context.Context) error {
	pubs := dedup(r.cfg.Publications)
	if len(pubs) == 0 {
		return fmt.Errorf("no publications configured")
	}
	logx.Infof("开始聚合：出版物=%d 并发=%d", len(pubs), r.cfg.Concurrency.Fetch)

	sem := make(chan struct{}, maxInt(1, r.cfg.Concurrency.Fetch))
	var wg sync.WaitGroup
	for _, pub := range pubs {
		pub := pub
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			r.processPublication(ctx, pub)
		}()
	}
	wg.Wait()

	// 正常模式才清理数据库中过期文章；极简模式不使用数据库
	if r.buf == nil && r.cfg.OutdateClean > 0 {
		if err := r.store.CleanOldPosts(ctx, r.cfg.OutdateClean); err != nil {
			logx.Warnf("清理过期文章失败：%v", err)
		}
	}
	return nil
}

// processPublication 处理单个出版物：主页元信息→归档抓取→回退订阅→写库。
func (r *Runner) processPublication(ctx context.Context, pub config.Publication) {
	name := pub.Name
	if name == "" {
		name = pub.URL
	}
	preset := r.rules.GetPreset(pub.Theme)
	c := collect.New(r.fetch, preset, name, pub.BaseURL(), collect.Options{
		DelayMin: time.Duration(r.cfg.Crawl.DelayMinMs) * time.Millisecond,
		DelayMax: time.Duration(r.cfg.Crawl.DelayMaxMs) * time.Millisecond,
	})

	meta := c.Publication(ctx)

	posts, err := c.Posts(ctx, r.cfg.MaxPostsNum)
	if err != nil {
		// 部分结果照常入库
		logx.Warnf("[%s] 归档抓取中止：%v（已得 %d 篇）", name, err, len(posts))
	}
	if len(posts) == 0 && err == nil {
		// 归档页定位不到条目时回退到 RSS 订阅
		items, ferr := feeds.ParseArchiveFeed(ctx, r.fetch, pub.BaseURL(), r.cfg.MaxPostsNum)
		if ferr != nil {
			logx.Warnf("[%s] 订阅回退失败：%v", name, ferr)
		} else {
			logx.Infof("[%s] 订阅回退解析到 %d 条", name, len(items))
			posts = c.PostsFromFeed(ctx, items, r.cfg.MaxPostsNum)
		}
	}
	logx.Infof("[%s] 文章收集完成：%d", name, len(posts))

	meta.PostsCount = len(posts)
	if r.buf != nil {
		r.buf.SetPublication(meta)
		r.buf.AddPosts(posts)
		return
	}
	if err := r.store.UpsertPublication(ctx, meta); err != nil {
		logx.Warnf("[%s] 写入出版物失败：%v", name, err)
	}
	if err := r.store.UpsertPosts(ctx, posts); err != nil {
		logx.Warnf("[%s] 写入文章失败：%v", name, err)
	}
	r.snapshotMetrics(ctx, name, meta, posts)
}

// snapshotMetrics 将当日关键指标写入 analytics 表，便于回看历史趋势。
func (r *Runner) snapshotMetrics(ctx context.Context, name string, meta model.Publication, posts []model.Post) {
	premium := 0
	words := 0
	for _, p := range posts {
		if p.IsPremium {
			premium++
		}
		words += p.WordCount
	}
	metrics := map[string]float64{
		"posts_count":      float64(len(posts)),
		"premium_count":    float64(premium),
		"total_words":      float64(words),
		"subscriber_count": float64(meta.SubscriberCount),
	}
	for k, v := range metrics {
		if err := r.store.SaveMetric(ctx, name, k, v); err != nil {
			logx.Warnf("[%s] 记录指标 %s 失败：%v", name, k, err)
		}
	}
}

// BufferData 返回极简模式下收集的内存数据（出版物、文章）。
func (r *Runner) BufferData() ([]model.Publication, []model.Post) {
	if r == nil || r.buf == nil {
		return nil, nil
	}
	return r.buf.Snapshot()
}

// Buffer 返回极简模式缓冲区，正常模式为 nil。
func (r *Runner) Buffer() *SimpleBuffer { return r.buf }

// dedup 按基地址去重，保持配置顺序。
func dedup(in []config.Publication) []config.Publication {
	seen := map[string]struct{}{}
	out := make([]config.Publication, 0, len(in))
	for _, p := range in {
		key := p.BaseURL()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
