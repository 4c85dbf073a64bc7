package scrape

import (
	"strings"
	"time"
)

// dateLayouts 为已知日期格式的固定有序列表：
// 月份全称/缩写、ISO 日期、美式与欧式斜杠格式。
var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
}

// ParseDate 按固定格式列表解析自由文本日期，返回首个成功的结果。
// 全部失败时返回当前时间与 false；调用方据此可区分
// "解析失败兜底为现在" 与 "真的发布于现在" 两种情形。
func ParseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Now(), false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Now(), false
}
