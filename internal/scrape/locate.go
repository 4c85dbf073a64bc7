// 包 scrape 提供结构定位与字段抽取：
// - Locate：按 "||" 选择器链定位节点集合，首个至少命中一项的方案生效
// - 字段级抽取：每个字段独立回退，互不影响
// - 支持 "选择器@属性" 取属性值与相对 URL 绝对化
package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Locate 在文档中按选择器链定位节点集合。
// 严格按链内先后顺序尝试，返回首个非空结果；后续方案不再评估，
// 即使命中质量较低也照此执行（假设单个站点固定使用其中一种结构）。
// 全部落空时返回 nil，调用方应视作"无数据"而非错误。
func Locate(doc *goquery.Document, chain string) *goquery.Selection {
	for _, sel := range splitChain(chain) {
		if s := doc.Find(sel); s.Length() > 0 {
			return s
		}
	}
	return nil
}

// splitChain 拆分 "||" 链并去除空白项。
func splitChain(chain string) []string {
	parts := strings.Split(chain, "||")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getVal 解析表达式并支持使用 "||" 作为回退分隔，例如："a@href||@href" 或 "h1||h2||h3"。
func getVal(scope *goquery.Selection, expr string) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return ""
	}
	if strings.Contains(expr, "||") {
		for _, p := range splitChain(expr) {
			if v := getValSingle(scope, p); v != "" {
				return v
			}
		}
		return ""
	}
	return getValSingle(scope, expr)
}

// getValSingle 解析单个表达式：文本或属性读取。
func getValSingle(scope *goquery.Selection, expr string) string {
	if expr == "" {
		return ""
	}
	if expr == "." {
		return strings.TrimSpace(scope.Text())
	}
	if at := strings.Index(expr, "@"); at != -1 {
		sel := strings.TrimSpace(expr[:at])
		attr := strings.TrimSpace(expr[at+1:])
		if sel == "" {
			val, _ := scope.Attr(attr)
			return strings.TrimSpace(val)
		}
		if el := scope.Find(sel).First(); el != nil {
			val, _ := el.Attr(attr)
			return strings.TrimSpace(val)
		}
		return ""
	}
	if el := scope.Find(expr).First(); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

// getAll 返回链内首个命中方案的全部匹配文本，保持页面出现顺序（允许重复）。
func getAll(scope *goquery.Selection, expr string) []string {
	for _, sel := range splitChain(expr) {
		found := scope.Find(sel)
		if found.Length() == 0 {
			continue
		}
		out := make([]string, 0, found.Length())
		found.Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				out = append(out, t)
			}
		})
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// abs 将相对链接转换为绝对 URL。
func abs(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	bu, err := url.Parse(base)
	if err != nil {
		return ref
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return bu.ResolveReference(ru).String()
}
