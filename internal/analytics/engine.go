// 包 analytics 实现指标引擎：
// - Engagement：互动统计（字数/阅读时长/付费占比/发布时间分布/标签榜）
// - Growth：按日与 ISO 周分桶的增长序列与首尾增长率
// - Insights：标题/词频分析、长短文榜单与规则化建议
// 三者彼此独立，均从存储读取时间窗口内的文章，空窗口返回空值结果而非错误。
package analytics

import (
	"context"
	"time"

	"go-substack-insight/internal/model"
)

// PostSource 为指标引擎的只读数据来源（通常由 store.SQLite 实现）。
type PostSource interface {
	QueryPosts(ctx context.Context, urlContains string, after time.Time) ([]model.Post, error)
}

// Engine 指标引擎，只做只读查询与纯计算。
type Engine struct {
	src PostSource
	now func() time.Time
}

// New 创建指标引擎。
func New(src PostSource) *Engine {
	return &Engine{src: src, now: time.Now}
}

// window 查询出版物在最近 windowDays 天内的文章。
// 出版物过滤按 URL 子串匹配进行（与存储层口径一致）。
func (e *Engine) window(ctx context.Context, pub string, windowDays int) ([]model.Post, error) {
	after := e.now().AddDate(0, 0, -windowDays)
	return e.src.QueryPosts(ctx, pub, after)
}
