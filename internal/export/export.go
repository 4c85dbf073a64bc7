// 包 export 负责 JSON 快照导出：出版物 + 文章 + 三组指标。
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go-substack-insight/internal/analytics"
	"go-substack-insight/internal/model"
	"go-substack-insight/internal/store"
)

// 全局文章数上限保护：每个出版物按时间倒序仅保留最新 150 篇
const maxExportPosts = 150

// ToJSON 为库中每个出版物生成快照并写入 JSON 文件（带缩进格式）。
func ToJSON(ctx context.Context, s *store.SQLite, windowDays int, path string) error {
	names, err := s.ListPublications(ctx)
	if err != nil {
		return fmt.Errorf("list publications: %w", err)
	}
	eng := analytics.New(s)
	out := make([]model.Export, 0, len(names))
	for _, name := range names {
		pub, _, err := s.GetPublication(ctx, name)
		if err != nil {
			return fmt.Errorf("get publication %s: %w", name, err)
		}
		posts, err := s.ListPosts(ctx, name, maxExportPosts)
		if err != nil {
			return fmt.Errorf("list posts %s: %w", name, err)
		}
		snap, err := snapshot(ctx, eng, pub, posts, name, windowDays)
		if err != nil {
			return err
		}
		out = append(out, snap)
	}
	return writeJSON(path, out)
}

// ToJSONData 直接从内存数据生成快照，供极简模式使用。
// src 为实现了指标查询的内存缓冲区。
func ToJSONData(ctx context.Context, src analytics.PostSource, pubs []model.Publication, posts []model.Post, windowDays int, path string) error {
	eng := analytics.New(src)
	out := make([]model.Export, 0, len(pubs))
	for _, pub := range pubs {
		own := make([]model.Post, 0, len(posts))
		for _, p := range posts {
			if containsURL(p.URL, pub.Name) {
				own = append(own, p)
			}
		}
		if len(own) > maxExportPosts {
			own = own[:maxExportPosts]
		}
		snap, err := snapshot(ctx, eng, pub, own, pub.Name, windowDays)
		if err != nil {
			return err
		}
		out = append(out, snap)
	}
	return writeJSON(path, out)
}

// snapshot 汇总单个出版物的文章与三组指标。
func snapshot(ctx context.Context, eng *analytics.Engine, pub model.Publication, posts []model.Post, key string, windowDays int) (model.Export, error) {
	engagement, err := eng.Engagement(ctx, key, windowDays)
	if err != nil {
		return model.Export{}, fmt.Errorf("engagement %s: %w", key, err)
	}
	growth, err := eng.Growth(ctx, key, windowDays)
	if err != nil {
		return model.Export{}, fmt.Errorf("growth %s: %w", key, err)
	}
	insights, err := eng.Insights(ctx, key, windowDays)
	if err != nil {
		return model.Export{}, fmt.Errorf("insights %s: %w", key, err)
	}
	return model.Export{
		Publication: pub,
		Posts:       posts,
		Engagement:  engagement,
		Growth:      growth,
		Insights:    insights,
		ExportedAt:  time.Now(),
	}, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json to %s: %w", path, err)
	}
	return nil
}

// containsURL 与存储层的成员判定保持同一语义（URL 子串匹配）。
func containsURL(url, key string) bool {
	if key == "" {
		return true
	}
	return strings.Contains(url, key)
}
