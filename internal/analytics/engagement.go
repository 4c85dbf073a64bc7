package analytics

import (
	"context"

	"go-substack-insight/internal/model"
)

// Engagement 计算时间窗口内的互动统计。
// 互动计数（likes/comments/shares）由存储层兜底为 0 后再聚合。
func (e *Engine) Engagement(ctx context.Context, pub string, windowDays int) (model.EngagementMetrics, error) {
	m := model.EngagementMetrics{
		WeekdayDistribution: map[string]int{},
		HourDistribution:    map[int]int{},
	}
	posts, err := e.window(ctx, pub, windowDays)
	if err != nil {
		return m, err
	}
	if len(posts) == 0 {
		return m, nil
	}

	wordCounts := make([]int, 0, len(posts))
	readTimes := make([]int, 0, len(posts))
	var allTags []string
	for _, p := range posts {
		m.TotalWords += p.WordCount
		wordCounts = append(wordCounts, p.WordCount)
		readTimes = append(readTimes, p.ReadTime)
		if p.IsPremium {
			m.PremiumPosts++
		} else {
			m.FreePosts++
		}
		m.TotalLikes += p.Likes
		m.TotalComments += p.Comments
		m.TotalShares += p.Shares
		m.WeekdayDistribution[p.PublishedAt.Weekday().String()]++
		m.HourDistribution[p.PublishedAt.Hour()]++
		allTags = append(allTags, p.Tags...)
	}

	total := len(posts)
	m.TotalPosts = total
	m.AvgWordCount = round1(mean(wordCounts))
	m.AvgReadTime = round1(mean(readTimes))
	// 分母为 0 时占比定义为 0；否则必然落在 [0,100]
	m.PremiumRatio = round1(float64(m.PremiumPosts) / float64(total) * 100)
	m.AvgLikes = round1(float64(m.TotalLikes) / float64(total))
	m.AvgComments = round1(float64(m.TotalComments) / float64(total))
	m.AvgShares = round1(float64(m.TotalShares) / float64(total))

	for _, entry := range rankByCount(allTags, 10) {
		m.TopTags = append(m.TopTags, model.TagCount{Tag: entry.key, Count: entry.count})
	}

	m.WordCountStats = distStats(wordCounts)
	m.ReadTimeStats = distStats(readTimes)
	return m, nil
}

func distStats(values []int) model.DistStats {
	lo, hi := minMax(values)
	return model.DistStats{
		Min:    lo,
		Max:    hi,
		Median: median(values),
		Std:    stddev(values),
	}
}
