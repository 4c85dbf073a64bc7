package analytics

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"go-substack-insight/internal/model"
)

// recommendedTitleLength 为经验上表现较好的标题长度。
const recommendedTitleLength = 50

// 仅统计完整的纯字母单词；字母数字混排（如 "covid19"）整体跳过，
// 不拆出其中的字母片段。
var wordExpr = regexp.MustCompile(`\b[a-zA-Z]+\b`)

// stopWords 为词频分析排除的常见虚词。
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {}, "should": {},
	"may": {}, "might": {}, "must": {}, "can": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {},
	"me": {}, "him": {}, "her": {}, "us": {}, "them": {},
}

// Insights 生成内容分析与规则化建议。
func (e *Engine) Insights(ctx context.Context, pub string, windowDays int) (model.ContentInsights, error) {
	var m model.ContentInsights
	posts, err := e.window(ctx, pub, windowDays)
	if err != nil {
		return m, err
	}
	if len(posts) == 0 {
		return m, nil
	}

	titleLengths := make([]int, 0, len(posts))
	for _, p := range posts {
		titleLengths = append(titleLengths, utf8.RuneCountInString(p.Title))
	}
	lo, hi := minMax(titleLengths)
	m.TitleStats = model.TitleStats{
		AvgLength:         round1(mean(titleLengths)),
		MinLength:         lo,
		MaxLength:         hi,
		RecommendedLength: recommendedTitleLength,
	}

	var words []string
	for _, p := range posts {
		for _, w := range wordExpr.FindAllString(strings.ToLower(p.Content), -1) {
			if _, stop := stopWords[w]; stop || len(w) <= 3 {
				continue
			}
			words = append(words, w)
		}
	}
	for _, entry := range rankByCount(words, 20) {
		m.CommonWords = append(m.CommonWords, model.WordFreq{Word: entry.key, Count: entry.count})
	}

	m.LongestPosts = topByWordCount(posts, 5, false)
	m.ShortestPosts = topByWordCount(posts, 5, true)
	m.Recommendations = e.recommendations(posts)
	return m, nil
}

// topByWordCount 按字数排序取前 n 篇的摘要，相同字数保持原有顺序。
func topByWordCount(posts []model.Post, n int, ascending bool) []model.PostDigest {
	sorted := append([]model.Post(nil), posts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return sorted[i].WordCount < sorted[j].WordCount
		}
		return sorted[i].WordCount > sorted[j].WordCount
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]model.PostDigest, 0, len(sorted))
	for _, p := range sorted {
		out = append(out, model.PostDigest{Title: p.Title, WordCount: p.WordCount, ReadTime: p.ReadTime})
	}
	return out
}

// recommendations 按固定顺序评估各独立阈值规则，
// 每条规则至多追加一条建议，规则之间互不影响。
func (e *Engine) recommendations(posts []model.Post) []string {
	var recs []string

	// 发布频率：距最近一篇超过 7 天
	latest := posts[0].PublishedAt
	for _, p := range posts[1:] {
		if p.PublishedAt.After(latest) {
			latest = p.PublishedAt
		}
	}
	daysSince := int(e.now().Sub(latest).Hours() / 24)
	if daysSince > 7 {
		recs = append(recs, fmt.Sprintf("Consider posting more frequently. Last post was %d days ago.", daysSince))
	}

	// 篇幅一致性：字数标准差超过均值的一半
	wordCounts := make([]int, 0, len(posts))
	premium := 0
	readTimeTotal := 0
	for _, p := range posts {
		wordCounts = append(wordCounts, p.WordCount)
		if p.IsPremium {
			premium++
		}
		readTimeTotal += p.ReadTime
	}
	if stddev(wordCounts) > mean(wordCounts)*0.5 {
		recs = append(recs, "Consider maintaining more consistent post lengths for better reader engagement.")
	}

	// 付费内容占比：过低与过高各给一条（互斥）
	premiumRatio := float64(premium) / float64(len(posts)) * 100
	if premiumRatio < 20 {
		recs = append(recs, "Consider creating more premium content to increase revenue potential.")
	} else if premiumRatio > 80 {
		recs = append(recs, "Consider balancing premium and free content to maintain audience growth.")
	}

	// 平均阅读时长：过短与过长各给一条（互斥）
	avgReadTime := float64(readTimeTotal) / float64(len(posts))
	if avgReadTime < 3 {
		recs = append(recs, "Consider creating longer-form content for better engagement.")
	} else if avgReadTime > 15 {
		recs = append(recs, "Consider breaking down very long posts into series for better readability.")
	}

	return recs
}
