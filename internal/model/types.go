// 包 model 定义导出的数据模型（文章/出版物/指标/导出结构）。
package model

import "time"

// Post 为归一化后的文章条目，url 为全局唯一自然键。
type Post struct {
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	URL            string    `json:"url"`
	Content        string    `json:"content"`
	Excerpt        string    `json:"excerpt"`
	Author         string    `json:"author"`
	PublishedAt    time.Time `json:"published_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	WordCount      int       `json:"word_count"`
	ReadTime       int       `json:"read_time"`
	Likes          int       `json:"likes"`
	Comments       int       `json:"comments"`
	Shares         int       `json:"shares"`
	Tags           []string  `json:"tags"`
	IsPremium      bool      `json:"is_premium"`
	SubscriberOnly bool      `json:"subscriber_only"`
	ScrapedAt      time.Time `json:"scraped_at"`
}

// Publication 表示一个被跟踪的出版物（name 为检索主键）。
// RevenueEstimate 为保留字段，核心流程从不计算它。
type Publication struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	URL             string            `json:"url"`
	SubscriberCount int               `json:"subscriber_count"`
	PostsCount      int               `json:"posts_count"`
	FoundedAt       time.Time         `json:"founded_at"`
	Author          string            `json:"author"`
	SocialLinks     map[string]string `json:"social_links"`
	RevenueEstimate *float64          `json:"revenue_estimate"`
	UpdatedAt       time.Time         `json:"last_updated"`
}

// DistStats 为数值分布摘要（最小/最大/中位数/标准差）。
type DistStats struct {
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

// TagCount 为标签及其出现次数（并列按首次出现顺序排序）。
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// EngagementMetrics 为时间窗口内的互动统计。
type EngagementMetrics struct {
	TotalPosts          int            `json:"total_posts"`
	TotalWords          int            `json:"total_words"`
	AvgWordCount        float64        `json:"avg_word_count"`
	AvgReadTime         float64        `json:"avg_read_time"`
	PremiumPosts        int            `json:"premium_posts"`
	FreePosts           int            `json:"free_posts"`
	PremiumRatio        float64        `json:"premium_ratio"`
	TotalLikes          int            `json:"total_likes"`
	AvgLikes            float64        `json:"avg_likes"`
	TotalComments       int            `json:"total_comments"`
	AvgComments         float64        `json:"avg_comments"`
	TotalShares         int            `json:"total_shares"`
	AvgShares           float64        `json:"avg_shares"`
	WeekdayDistribution map[string]int `json:"weekday_distribution"`
	HourDistribution    map[int]int    `json:"hour_distribution"`
	TopTags             []TagCount     `json:"top_tags"`
	WordCountStats      DistStats      `json:"word_count_stats"`
	ReadTimeStats       DistStats      `json:"read_time_stats"`
}

// GrowthBucket 为按日/按 ISO 周聚合的一个桶。
type GrowthBucket struct {
	Period       string  `json:"period"`
	PostsCount   int     `json:"posts_count"`
	TotalWords   int     `json:"total_words"`
	AvgWords     float64 `json:"avg_words"`
	PremiumPosts int     `json:"premium_posts"`
}

// GrowthMetrics 为增长统计：日/周桶序列与首尾增长率。
type GrowthMetrics struct {
	DailyMetrics    []GrowthBucket `json:"daily_metrics"`
	WeeklyMetrics   []GrowthBucket `json:"weekly_metrics"`
	PostsGrowthRate float64        `json:"posts_growth_rate"`
	WordsGrowthRate float64        `json:"words_growth_rate"`
	TotalDays       int            `json:"total_days"`
	AvgPostsPerDay  float64        `json:"avg_posts_per_day"`
	AvgWordsPerDay  float64        `json:"avg_words_per_day"`
}

// TitleStats 为标题长度分析。
type TitleStats struct {
	AvgLength         float64 `json:"avg_length"`
	MinLength         int     `json:"min_length"`
	MaxLength         int     `json:"max_length"`
	RecommendedLength int     `json:"recommended_length"`
}

// PostDigest 为榜单条目（标题 + 字数 + 阅读时长）。
type PostDigest struct {
	Title     string `json:"title"`
	WordCount int    `json:"word_count"`
	ReadTime  int    `json:"read_time"`
}

// WordFreq 为正文词频条目。
type WordFreq struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// ContentInsights 为内容分析与规则化建议。
type ContentInsights struct {
	TitleStats      TitleStats   `json:"title_analysis"`
	CommonWords     []WordFreq   `json:"common_words"`
	LongestPosts    []PostDigest `json:"longest_posts"`
	ShortestPosts   []PostDigest `json:"shortest_posts"`
	Recommendations []string     `json:"recommendations"`
}

// Export 为 JSON 导出的顶层结构，全部由可序列化的原始值组成。
type Export struct {
	Publication Publication       `json:"publication"`
	Posts       []Post            `json:"posts"`
	Engagement  EngagementMetrics `json:"engagement"`
	Growth      GrowthMetrics     `json:"growth"`
	Insights    ContentInsights   `json:"insights"`
	ExportedAt  time.Time         `json:"exported_at"`
}
