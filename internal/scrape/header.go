package scrape

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-substack-insight/internal/model"
	"go-substack-insight/internal/rules"
)

// subscriberExpr 匹配 "12,345 subscribers" 一类的文案，取其中的数字。
var subscriberExpr = regexp.MustCompile(`(\d[\d,]*)[^\d.]{0,40}subscriber`)

// 社交平台关键字，按 href 包含关系归类。
var socialPlatforms = []string{"twitter", "linkedin", "facebook", "instagram"}

// PublicationFromHome 从出版物主页抽取元信息。
// name 为入库检索主键，保持配置值不变；仅当配置未给出名字时
// 才回退到页面标题。其余字段均为尽力而为，订阅数估计不到时为 0。
func PublicationFromHome(doc *goquery.Document, h *rules.Header, name, baseURL string) model.Publication {
	if name == "" {
		name = getVal(doc.Selection, h.Title)
	}

	description, _ := doc.Find(`meta[name="description"]`).Attr("content")

	now := time.Now()
	return model.Publication{
		Name:            name,
		Description:     strings.TrimSpace(description),
		URL:             baseURL,
		SubscriberCount: EstimateSubscribers(doc),
		Author:          getVal(doc.Selection, h.Author),
		SocialLinks:     socialLinks(doc),
		FoundedAt:       now,
		UpdatedAt:       now,
	}
}

// EstimateSubscribers 从页面文本估计订阅数。
// 启发式：取首个 "数字…subscriber" 片段中的数字，找不到返回 0。
func EstimateSubscribers(doc *goquery.Document) int {
	m := subscriberExpr.FindStringSubmatch(doc.Text())
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// socialLinks 收集指向已知社交平台的链接，同平台多个链接时后者覆盖前者。
func socialLinks(doc *goquery.Document) map[string]string {
	links := map[string]string{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		lower := strings.ToLower(href)
		for _, platform := range socialPlatforms {
			if strings.Contains(lower, platform) {
				links[platform] = href
				break
			}
		}
	})
	return links
}
