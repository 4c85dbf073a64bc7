// 包 rules 负责加载并提供主题解析规则（rules.yaml），
// 以预设名（如 default）组织 CSS 选择器链，用于归档页/文章页/主页解析。
// 选择器链使用 "||" 连接多个候选，严格按先后顺序尝试，首个命中即生效。
package rules

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules 表示全部规则集合：键为预设名，值为具体规则。
type Rules struct {
	Presets map[string]Preset `yaml:",inline"`
}

// Preset 为单个主题预设的解析规则集合。
type Preset struct {
	PostList *PostList `yaml:"post_list"`
	PostBody string    `yaml:"post_body"`
	Header   *Header   `yaml:"header"`
}

// PostList 描述归档页文章条目的选择器：
// - item：每个文章条目容器（链条，首个至少命中一项的方案生效）
// - title/link/excerpt/author/date/tags：条目内字段（支持 a@href / "." 语法）
type PostList struct {
	Item    string `yaml:"item"`
	Title   string `yaml:"title"`
	Link    string `yaml:"link"`
	Excerpt string `yaml:"excerpt"`
	Author  string `yaml:"author"`
	Date    string `yaml:"date"`
	Tags    string `yaml:"tags"`
}

// Header 描述出版物主页的选择器（标题/作者）。
type Header struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
}

// Default 返回内置预设：覆盖常见 Substack 页面结构，
// rules.yaml 缺失或未覆盖某主题时兜底使用。
func Default() Preset {
	return Preset{
		PostList: &PostList{
			Item:    `article.post||div.post||div[data-testid="post"]||a[href*="/p/"]||.post-preview||.post-item`,
			Title:   "h1||h2||h3",
			Link:    "a@href||@href",
			Excerpt: "p||div.excerpt",
			Author:  "span.author||div.author",
			Date:    "time||span.date",
			Tags:    "span.tag||a.tag",
		},
		PostBody: `div.post-content||article .content||div[data-testid="post-content"]||.post-body`,
		Header: &Header{
			Title:  "h1.publication-title||title",
			Author: "div.author-name||span.author",
		},
	}
}

func Load(path string) (*Rules, error) {
	// 从文件加载 YAML 到 Rules.Presets
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	var r Rules
	if err := yaml.Unmarshal(b, &r.Presets); err != nil {
		return nil, fmt.Errorf("unmarshal rules %s: %w", path, err)
	}
	return &r, nil
}

// GetPreset 按名称获取预设（不区分大小写），若为空或不存在则回退到 "default"，
// 最终回退到内置默认预设，保证调用方总能拿到可用规则。
func (r *Rules) GetPreset(name string) Preset {
	if r == nil || len(r.Presets) == 0 {
		return Default()
	}
	if name == "" {
		name = "default"
	}
	if p, ok := r.Presets[name]; ok {
		return fill(p)
	}
	// 不区分大小写匹配
	lower := strings.ToLower(name)
	for k, v := range r.Presets {
		if strings.ToLower(k) == lower {
			return fill(v)
		}
	}
	if p, ok := r.Presets["default"]; ok {
		return fill(p)
	}
	return Default()
}

// fill 用内置默认值补齐预设中缺失的部分，主题只需覆盖差异项。
func fill(p Preset) Preset {
	def := Default()
	if p.PostList == nil {
		p.PostList = def.PostList
	} else {
		if p.PostList.Item == "" {
			p.PostList.Item = def.PostList.Item
		}
		if p.PostList.Title == "" {
			p.PostList.Title = def.PostList.Title
		}
		if p.PostList.Link == "" {
			p.PostList.Link = def.PostList.Link
		}
		if p.PostList.Excerpt == "" {
			p.PostList.Excerpt = def.PostList.Excerpt
		}
		if p.PostList.Author == "" {
			p.PostList.Author = def.PostList.Author
		}
		if p.PostList.Date == "" {
			p.PostList.Date = def.PostList.Date
		}
		if p.PostList.Tags == "" {
			p.PostList.Tags = def.PostList.Tags
		}
	}
	if p.PostBody == "" {
		p.PostBody = def.PostBody
	}
	if p.Header == nil {
		p.Header = def.Header
	} else {
		if p.Header.Title == "" {
			p.Header.Title = def.Header.Title
		}
		if p.Header.Author == "" {
			p.Header.Author = def.Header.Author
		}
	}
	return p
}
