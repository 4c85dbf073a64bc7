package analytics

import (
	"context"
	"fmt"
	"sort"

	"go-substack-insight/internal/model"
)

// Growth 计算时间窗口内按日/按 ISO 周分桶的增长统计。
// 增长率取日序列的首桶与末桶（文章数与总字数各算一条）。
func (e *Engine) Growth(ctx context.Context, pub string, windowDays int) (model.GrowthMetrics, error) {
	var m model.GrowthMetrics
	posts, err := e.window(ctx, pub, windowDays)
	if err != nil {
		return m, err
	}
	if len(posts) == 0 {
		return m, nil
	}

	// 查询按发布时间倒序返回，这里转为正序以保持桶的时间顺序
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishedAt.Before(posts[j].PublishedAt)
	})

	m.DailyMetrics = bucketize(posts, func(p model.Post) string {
		return p.PublishedAt.Format("2006-01-02")
	})
	m.WeeklyMetrics = bucketize(posts, func(p model.Post) string {
		y, w := p.PublishedAt.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	})

	postsSeries := make([]int, len(m.DailyMetrics))
	wordsSeries := make([]int, len(m.DailyMetrics))
	totalPosts, totalWords := 0, 0
	for i, b := range m.DailyMetrics {
		postsSeries[i] = b.PostsCount
		wordsSeries[i] = b.TotalWords
		totalPosts += b.PostsCount
		totalWords += b.TotalWords
	}
	m.PostsGrowthRate = round2(growthRate(postsSeries))
	m.WordsGrowthRate = round2(growthRate(wordsSeries))
	m.TotalDays = len(m.DailyMetrics)
	m.AvgPostsPerDay = round2(float64(totalPosts) / float64(m.TotalDays))
	m.AvgWordsPerDay = round2(float64(totalWords) / float64(m.TotalDays))
	return m, nil
}

// bucketize 按 key 函数分桶；posts 已按时间正序，桶顺序即时间顺序。
func bucketize(posts []model.Post, key func(model.Post) string) []model.GrowthBucket {
	var out []model.GrowthBucket
	idx := map[string]int{}
	for _, p := range posts {
		k := key(p)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, model.GrowthBucket{Period: k})
		}
		out[i].PostsCount++
		out[i].TotalWords += p.WordCount
		if p.IsPremium {
			out[i].PremiumPosts++
		}
	}
	for i := range out {
		out[i].AvgWords = round2(float64(out[i].TotalWords) / float64(out[i].PostsCount))
	}
	return out
}
