// 包 config 负责加载与校验应用配置（settings.yaml），
// 对外提供结构体 Config 及默认值/合法性校验。
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// 仅保留当前需要的字段，避免过度设计（KISS/YAGNI）。
type Config struct {
	Publications []Publication `yaml:"PUBLICATIONS"`
	MaxPostsNum  int           `yaml:"MAX_POSTS_NUM"`
	MetricDays   int           `yaml:"METRIC_DAYS"`
	OutdateClean int           `yaml:"OUTDATE_CLEAN"`
	SimpleMode   bool          `yaml:"SIMPLE_MODE"`
	ResetOnStart bool          `yaml:"RESET_ON_START"`
	Database     Database      `yaml:"DATABASE"`
	Concurrency  Concurrency   `yaml:"CONCURRENCY"`
	Crawl        Crawl         `yaml:"CRAWL"`
	Proxy        Proxy         `yaml:"PROXY"`
	LogLevel     string        `yaml:"LOG_LEVEL"`
	LogFormat    string        `yaml:"LOG_FORMAT"` // text|json|pretty
	LogLocale    string        `yaml:"LOG_LOCALE"` // zh-CN|en
	LogColor     string        `yaml:"LOG_COLOR"`  // auto|always|never
}

// Publication 为一个被跟踪的出版物来源。
type Publication struct {
	// Name：Substack 子域名（也是检索主键）；URL 为空时按 Name 推导
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Theme string `yaml:"theme"`
}

// BaseURL 返回出版物基地址，未显式配置时按 Substack 约定推导。
func (p Publication) BaseURL() string {
	if p.URL != "" {
		return strings.TrimSuffix(p.URL, "/")
	}
	return fmt.Sprintf("https://%s.substack.com", p.Name)
}

type Database struct {
	Type string `yaml:"type"` // sqlite (default)
	DSN  string `yaml:"dsn"`  // ./insight.db
}

type Concurrency struct {
	Fetch int `yaml:"fetch"`
	Retry int `yaml:"retry"`
}

// Crawl 控制分页抓取的礼貌性延迟（毫秒，区间内随机取值）。
type Crawl struct {
	DelayMinMs int `yaml:"delay_min_ms"`
	DelayMaxMs int `yaml:"delay_max_ms"`
}

type Proxy struct {
	HTTP  string `yaml:"http"`
	HTTPS string `yaml:"https"`
}

func Load(path string) (*Config, error) {
	// Load 从文件读取 YAML 并反序列化为 Config，同时进行基础校验与默认值填充。
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	// Validate 负责合法性检查与默认值设置，避免在业务层分散判空逻辑。
	if c.MaxPostsNum < 0 {
		return errors.New("MAX_POSTS_NUM must be >= 0")
	}
	if c.OutdateClean < 0 {
		return errors.New("OUTDATE_CLEAN must be >= 0")
	}
	for i, p := range c.Publications {
		if p.Name == "" && p.URL == "" {
			return fmt.Errorf("PUBLICATIONS[%d]: name or url required", i)
		}
	}
	if c.MaxPostsNum == 0 {
		c.MaxPostsNum = 100
	}
	if c.MetricDays <= 0 {
		c.MetricDays = 30
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Type != "sqlite" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "./insight.db"
	}
	if c.Concurrency.Fetch <= 0 {
		c.Concurrency.Fetch = 4
	}
	// retry 未配置（或写 0）时取默认值 2；不支持显式关闭重试
	if c.Concurrency.Retry <= 0 {
		c.Concurrency.Retry = 2
	}
	if c.Crawl.DelayMinMs < 0 || c.Crawl.DelayMaxMs < 0 {
		return errors.New("CRAWL delays must be >= 0")
	}
	if c.Crawl.DelayMinMs == 0 && c.Crawl.DelayMaxMs == 0 {
		c.Crawl.DelayMinMs = 1000
		c.Crawl.DelayMaxMs = 3000
	}
	if c.Crawl.DelayMaxMs < c.Crawl.DelayMinMs {
		return errors.New("CRAWL delay_max_ms must be >= delay_min_ms")
	}
	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "zh-CN"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	// ResetOnStart 默认为 false，显式开启时才执行清理
	return nil
}
