package aggregate

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-substack-insight/internal/model"
)

// SimpleBuffer 在极简模式下收集聚合数据，避免落库。
// 实现了 analytics.PostSource，指标计算在两种模式下走同一条路径。
type SimpleBuffer struct {
	mu    sync.Mutex
	pubs  map[string]model.Publication // key: url
	posts map[string]model.Post        // key: url
}

func NewSimpleBuffer() *SimpleBuffer {
	return &SimpleBuffer{
		pubs:  make(map[string]model.Publication),
		posts: make(map[string]model.Post),
	}
}

func (b *SimpleBuffer) SetPublication(p model.Publication) {
	if p.URL == "" {
		return
	}
	b.mu.Lock()
	b.pubs[p.URL] = p
	b.mu.Unlock()
}

func (b *SimpleBuffer) AddPosts(list []model.Post) {
	b.mu.Lock()
	for _, p := range list {
		if p.URL == "" {
			continue
		}
		b.posts[p.URL] = p
	}
	b.mu.Unlock()
}

// QueryPosts 按 URL 子串与发布时间下界过滤，发布时间倒序。
// 过滤语义与数据库路径保持一致。
func (b *SimpleBuffer) QueryPosts(_ context.Context, urlContains string, after time.Time) ([]model.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Post, 0, len(b.posts))
	for _, p := range b.posts {
		if urlContains != "" && !strings.Contains(p.URL, urlContains) {
			continue
		}
		if p.PublishedAt.Before(after) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	return out, nil
}

// Snapshot 返回副本：
// - 出版物按名字排序
// - 文章按发布时间倒序
func (b *SimpleBuffer) Snapshot() ([]model.Publication, []model.Post) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pubs := make([]model.Publication, 0, len(b.pubs))
	for _, v := range b.pubs {
		pubs = append(pubs, v)
	}
	sort.Slice(pubs, func(i, j int) bool { return pubs[i].Name < pubs[j].Name })
	ps := make([]model.Post, 0, len(b.posts))
	for _, v := range b.posts {
		ps = append(ps, v)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].PublishedAt.After(ps[j].PublishedAt) })
	return pubs, ps
}
