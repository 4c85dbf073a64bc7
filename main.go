// 命令行入口：
// - 解析 flags 与 settings.yaml/rules.yaml
// - 初始化日志、HTTP 客户端、数据库
// - 支持归档页抽取调试（-inspect）、指标报表（-report）与 JSON 导出
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-substack-insight/internal/aggregate"
	"go-substack-insight/internal/analytics"
	"go-substack-insight/internal/config"
	"go-substack-insight/internal/export"
	"go-substack-insight/internal/fetch"
	"go-substack-insight/internal/logx"
	"go-substack-insight/internal/rules"
	"go-substack-insight/internal/scrape"
	"go-substack-insight/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "settings.yaml", "path to settings.yaml")
		rulesPath  = flag.String("rules", "rules.yaml", "path to rules.yaml (optional)")
		exportPath = flag.String("export", "data.json", "export json path (empty disables export)")
		days       = flag.Int("days", 0, "metric window in days (0 = METRIC_DAYS from config)")
		inspect    = flag.Bool("inspect", false, "fetch one archive page per publication, print extractions and exit")
		report     = flag.Bool("report", false, "print metrics for stored data and exit (no crawl)")
	)
	flag.Parse()

	// 1) 加载配置与规则
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	var rl *rules.Rules
	if *rulesPath != "" {
		if r, err := rules.Load(*rulesPath); err == nil {
			rl = r
		} else {
			log.Printf("load rules failed: %v", err)
		}
	}
	windowDays := cfg.MetricDays
	if *days > 0 {
		windowDays = *days
	}
	// 2) 初始化日志：级别/格式/语言/颜色
	logx.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogLocale, cfg.LogColor)

	// 3) 初始化 HTTP 客户端（含代理与重试）
	cl, err := fetch.New(fetch.Options{
		ProxyHTTP:  cfg.Proxy.HTTP,
		ProxyHTTPS: cfg.Proxy.HTTPS,
		Timeout:    25 * time.Second,
		Retry:      cfg.Concurrency.Retry,
	})
	if err != nil {
		log.Fatalf("http client: %v", err)
	}

	ctx := context.Background()
	if *inspect {
		// 4) 调试：仅抓取各出版物归档首页并打印抽取结果后退出
		inspectArchives(ctx, cfg, rl, cl)
		return
	}

	if *report {
		// 5) 报表：基于库中已有数据计算指标并打印后退出
		st, err := store.OpenSQLite(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer st.Close()
		printReport(ctx, st, windowDays)
		return
	}

	// 6) 数据存储：极简模式不打开数据库；正常模式打开并按需重置
	var st *store.SQLite
	if !cfg.SimpleMode {
		st, err = store.OpenSQLite(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer st.Close()
		if cfg.ResetOnStart {
			if err := st.Reset(ctx); err != nil {
				logx.Warnf("启动清理数据库失败：%v", err)
			} else {
				logx.Infof("已清理数据库表（posts/publication/analytics）")
			}
		}
	} else {
		logx.Infof("极简模式：跳过数据库打开与清理")
	}
	if cfg.ResetOnStart && *exportPath != "" {
		if err := os.Remove(*exportPath); err == nil {
			logx.Infof("已删除导出文件：%s", *exportPath)
		}
	}

	// 7) 运行聚合流程
	run := aggregate.New(cfg, st, cl, rl)
	if err := run.Run(ctx); err != nil {
		logx.Errorf("运行失败：%v", err)
		os.Exit(1)
	}

	// 8) JSON 导出：正常模式从库导出，极简模式从内存导出
	if *exportPath == "" {
		return
	}
	if cfg.SimpleMode {
		pubs, posts := run.BufferData()
		if err := export.ToJSONData(ctx, run.Buffer(), pubs, posts, windowDays, *exportPath); err != nil {
			log.Fatalf("export json: %v", err)
		}
	} else {
		if err := export.ToJSON(ctx, st, windowDays, *exportPath); err != nil {
			log.Fatalf("export json: %v", err)
		}
	}
	logx.Infof("已导出 %s", *exportPath)
}

// inspectArchives 抓取各出版物归档首页，打印定位与抽取结果，便于调试选择器。
func inspectArchives(ctx context.Context, cfg *config.Config, rl *rules.Rules, cl *fetch.Client) {
	total := 0
	for _, pub := range cfg.Publications {
		preset := rl.GetPreset(pub.Theme)
		u := pub.BaseURL() + "/archive?page=1"
		content, err := cl.GetText(ctx, u)
		if err != nil {
			logx.Errorf("抓取归档页失败：%s 错误=%v", u, err)
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
		if err != nil {
			logx.Errorf("解析归档页失败：%s 错误=%v", u, err)
			continue
		}
		items := scrape.Locate(doc, preset.PostList.Item)
		if items == nil || items.Length() == 0 {
			logx.Warnf("%s 未定位到任何条目，请检查 rules.yaml 选择器。", u)
			continue
		}
		logx.Infof("%s 定位到 %d 个条目", u, items.Length())
		items.Each(func(_ int, s *goquery.Selection) {
			p, ok := scrape.PostFromItem(s, preset.PostList, pub.BaseURL())
			if !ok {
				logx.Infof("- 条目缺少链接，已丢弃")
				return
			}
			logx.Infof("- 标题=%q 链接=%s 作者=%q 付费=%v", p.Title, p.URL, p.Author, p.IsPremium)
			total++
		})
	}
	if total == 0 {
		logx.Warnf("未抽取到任何文章。")
	}
}

// printReport 打印库中各出版物的指标摘要。
func printReport(ctx context.Context, st *store.SQLite, windowDays int) {
	names, err := st.ListPublications(ctx)
	if err != nil {
		log.Fatalf("list publications: %v", err)
	}
	if len(names) == 0 {
		logx.Warnf("库中没有任何出版物，请先运行一轮抓取。")
		return
	}
	eng := analytics.New(st)
	for _, name := range names {
		em, err := eng.Engagement(ctx, name, windowDays)
		if err != nil {
			logx.Errorf("[%s] 计算互动指标失败：%v", name, err)
			continue
		}
		gm, err := eng.Growth(ctx, name, windowDays)
		if err != nil {
			logx.Errorf("[%s] 计算增长指标失败：%v", name, err)
			continue
		}
		ci, err := eng.Insights(ctx, name, windowDays)
		if err != nil {
			logx.Errorf("[%s] 计算内容洞察失败：%v", name, err)
			continue
		}
		logx.Infof("[%s] 近 %d 天：文章=%d 平均字数=%.1f 付费占比=%.1f%%",
			name, windowDays, em.TotalPosts, em.AvgWordCount, em.PremiumRatio)
		logx.Infof("[%s] 增长：文章增速=%.2f%% 字数增速=%.2f%% 日均文章=%.2f",
			name, gm.PostsGrowthRate, gm.WordsGrowthRate, gm.AvgPostsPerDay)
		for _, rec := range ci.Recommendations {
			logx.Infof("[%s] 建议：%s", name, rec)
		}
	}
}
