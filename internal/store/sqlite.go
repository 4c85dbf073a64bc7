// 包 store 提供存储实现（SQLite），包含表迁移/批量写入/窗口查询/清理等操作。
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"go-substack-insight/internal/model"
)

// SQLite 封装 *sql.DB，基于 modernc.org/sqlite（纯 Go 实现）。
// 单连接串行化全部写入：不同出版物的并发写者由此互不丢失，
// 同一出版物的并发写者后写者胜。
type SQLite struct {
	db *sql.DB
}

// postColumns 为 posts 表的查询列集合（与 scanPost 保持一致）。
var postColumns = []string{
	"title", "slug", "url", "content", "excerpt", "author",
	"published_at", "updated_at", "word_count", "read_time",
	"likes", "comments", "shares", "tags", "is_premium", "subscriber_only", "scraped_at",
}

// OpenSQLite 打开 SQLite 数据库并执行自动迁移。
func OpenSQLite(path string) (*SQLite, error) {
	// 说明：modernc sqlite 的 DSN 可直接使用文件路径，或以 'file:...' 前缀表示
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// Reset 清空业务数据表（不删除数据库文件）。
func (s *SQLite) Reset(ctx context.Context) error {
	for _, table := range []string{"posts", "publication", "analytics"} {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

// migrate 执行建表语句，保持幂等。
func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS posts (
            title TEXT NOT NULL,
            slug TEXT UNIQUE,
            url TEXT UNIQUE,
            content TEXT,
            excerpt TEXT,
            author TEXT,
            published_at TIMESTAMP,
            updated_at TIMESTAMP,
            word_count INTEGER,
            read_time INTEGER,
            likes INTEGER DEFAULT 0,
            comments INTEGER DEFAULT 0,
            shares INTEGER DEFAULT 0,
            tags TEXT,
            is_premium BOOLEAN DEFAULT 0,
            subscriber_only BOOLEAN DEFAULT 0,
            scraped_at TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS publication (
            name TEXT UNIQUE,
            description TEXT,
            url TEXT,
            subscriber_count INTEGER,
            posts_count INTEGER,
            founded_date TIMESTAMP,
            author TEXT,
            social_links TEXT,
            revenue_estimate REAL,
            last_updated TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS analytics (
            date DATE,
            metric_name TEXT,
            metric_value REAL,
            publication_name TEXT,
            created_at TIMESTAMP
        );`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec migrate: %w", err)
		}
	}
	return nil
}

// UpsertPublication 插入或更新出版物（name 唯一约束），始终反映最近一次观察。
func (s *SQLite) UpsertPublication(ctx context.Context, p model.Publication) error {
	if p.Name == "" {
		return errors.New("publication.name required")
	}
	social, err := json.Marshal(p.SocialLinks)
	if err != nil {
		return fmt.Errorf("marshal social links: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO publication(name, description, url, subscriber_count, posts_count, founded_date, author, social_links, revenue_estimate, last_updated)
        VALUES(?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(name) DO UPDATE SET description=excluded.description, url=excluded.url,
            subscriber_count=excluded.subscriber_count, posts_count=excluded.posts_count,
            author=excluded.author, social_links=excluded.social_links,
            revenue_estimate=excluded.revenue_estimate, last_updated=excluded.last_updated`,
		p.Name, p.Description, p.URL, p.SubscriberCount, p.PostsCount,
		nowOr(p.FoundedAt), p.Author, string(social), p.RevenueEstimate, nowOr(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert publication %s: %w", p.Name, err)
	}
	return nil
}

// UpsertPosts 批量插入或替换文章，整体在同一事务内提交（全有或全无），
// 读取方因此不会观察到写了一半的批次。
// url 与 slug 均为唯一键，冲突即整行替换（slug 坍缩时后写者胜）。
func (s *SQLite) UpsertPosts(ctx context.Context, posts []model.Post) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	for _, p := range posts {
		if p.URL == "" {
			return errors.New("post.url required")
		}
		tags, err := json.Marshal(p.Tags)
		if err != nil {
			return fmt.Errorf("marshal tags: %w", err)
		}
		_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO posts(title, slug, url, content, excerpt, author, published_at, updated_at, word_count, read_time, likes, comments, shares, tags, is_premium, subscriber_only, scraped_at)
            VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			p.Title, p.Slug, p.URL, p.Content, p.Excerpt, p.Author,
			p.PublishedAt, p.UpdatedAt, p.WordCount, p.ReadTime,
			p.Likes, p.Comments, p.Shares, string(tags), p.IsPremium, p.SubscriberOnly,
			nowOr(p.ScrapedAt))
		if err != nil {
			return fmt.Errorf("upsert post %s: %w", p.URL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit posts: %w", err)
	}
	return nil
}

// QueryPosts 返回 URL 含指定子串且发布时间不早于 after 的文章，按发布时间倒序。
// 出版物归属按 URL 子串匹配而非外键：一个出版物的基地址是另一个的前缀时
// 会发生错配，调用方需保证标识足够区分（已知的正确性缺口，保持现状）。
func (s *SQLite) QueryPosts(ctx context.Context, urlContains string, after time.Time) ([]model.Post, error) {
	q := sq.Select(postColumns...).From("posts").
		Where(sq.Like{"url": "%" + urlContains + "%"}).
		Where(sq.GtOrEq{"published_at": after}).
		OrderBy("published_at DESC")
	return s.queryPosts(ctx, q)
}

// ListPosts 返回 URL 含指定子串的全部文章（limit>0 时截断），按发布时间倒序。
func (s *SQLite) ListPosts(ctx context.Context, urlContains string, limit int) ([]model.Post, error) {
	q := sq.Select(postColumns...).From("posts").
		Where(sq.Like{"url": "%" + urlContains + "%"}).
		OrderBy("published_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return s.queryPosts(ctx, q)
}

func (s *SQLite) queryPosts(ctx context.Context, q sq.SelectBuilder) ([]model.Post, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()
	var out []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return out, nil
}

// scanPost 读取一行并解码 tags；缺失的互动计数兜底为 0。
func scanPost(rows *sql.Rows) (model.Post, error) {
	var p model.Post
	var published, updated, scraped sql.NullTime
	var likes, comments, shares sql.NullInt64
	var tagsJSON sql.NullString
	if err := rows.Scan(&p.Title, &p.Slug, &p.URL, &p.Content, &p.Excerpt, &p.Author,
		&published, &updated, &p.WordCount, &p.ReadTime,
		&likes, &comments, &shares, &tagsJSON, &p.IsPremium, &p.SubscriberOnly, &scraped); err != nil {
		return p, fmt.Errorf("scan post: %w", err)
	}
	if published.Valid {
		p.PublishedAt = published.Time
	}
	if updated.Valid {
		p.UpdatedAt = updated.Time
	}
	if scraped.Valid {
		p.ScrapedAt = scraped.Time
	}
	p.Likes = int(likes.Int64)
	p.Comments = int(comments.Int64)
	p.Shares = int(shares.Int64)
	if tagsJSON.Valid && tagsJSON.String != "" && tagsJSON.String != "null" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &p.Tags); err != nil {
			return p, fmt.Errorf("unmarshal tags for %s: %w", p.URL, err)
		}
	}
	return p, nil
}

// GetPublication 按名称取出版物，不存在时第二个返回值为 false。
func (s *SQLite) GetPublication(ctx context.Context, name string) (model.Publication, bool, error) {
	var p model.Publication
	var founded, updated sql.NullTime
	var social sql.NullString
	var revenue sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `SELECT name, description, url, subscriber_count, posts_count, founded_date, author, social_links, revenue_estimate, last_updated
        FROM publication WHERE name = ?`, name).Scan(
		&p.Name, &p.Description, &p.URL, &p.SubscriberCount, &p.PostsCount,
		&founded, &p.Author, &social, &revenue, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return p, false, nil
	}
	if err != nil {
		return p, false, fmt.Errorf("query publication %s: %w", name, err)
	}
	if founded.Valid {
		p.FoundedAt = founded.Time
	}
	if updated.Valid {
		p.UpdatedAt = updated.Time
	}
	if revenue.Valid {
		v := revenue.Float64
		p.RevenueEstimate = &v
	}
	p.SocialLinks = map[string]string{}
	if social.Valid && social.String != "" && social.String != "null" {
		if err := json.Unmarshal([]byte(social.String), &p.SocialLinks); err != nil {
			return p, false, fmt.Errorf("unmarshal social links for %s: %w", name, err)
		}
	}
	return p, true, nil
}

// ListPublications 返回全部被跟踪的出版物名称。
func (s *SQLite) ListPublications(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM publication ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query publications: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan publication name: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate publications: %w", err)
	}
	return out, nil
}

// SaveMetric 追加一条指标样本（analytics 表为只追加的时间序列快照）。
func (s *SQLite) SaveMetric(ctx context.Context, pubName, metricName string, value float64) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `INSERT INTO analytics(date, metric_name, metric_value, publication_name, created_at)
        VALUES(?,?,?,?,?)`, now.Format("2006-01-02"), metricName, value, pubName, now)
	if err != nil {
		return fmt.Errorf("save metric %s/%s: %w", pubName, metricName, err)
	}
	return nil
}

// CleanOldPosts 按天数阈值清理过期文章（基于 published_at 字段）。
func (s *SQLite) CleanOldPosts(ctx context.Context, days int) error {
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE published_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("clean old posts: %w", err)
	}
	return nil
}

func nowOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
