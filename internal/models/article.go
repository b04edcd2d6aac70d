package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Article statuses.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Article is one collected press release or homepage news entry.
type Article struct {
	ID          uuid.UUID  `json:"id"`
	CompanyID   string     `json:"company_id"`
	CompanyName string     `json:"company_name"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Content     string     `json:"content,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	Source      string     `json:"source"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ArticleStore provides data access methods for articles.
type ArticleStore struct {
	pool *pgxpool.Pool
}

// NewArticleStore creates a new ArticleStore.
func NewArticleStore(pool *pgxpool.Pool) *ArticleStore {
	return &ArticleStore{pool: pool}
}

// Pool returns the underlying connection pool for direct queries.
func (s *ArticleStore) Pool() *pgxpool.Pool {
	return s.pool
}

const articleColumns = `id, company_id, company_name, title, url, published_at,
	       content, image_url, source, status, created_at, updated_at`

// scannable is an interface for pgx Row and Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanArticleFromRow scans a single article from a row, handling nullable columns.
func scanArticleFromRow(row scannable) (*Article, error) {
	var a Article
	var content, imageURL *string
	if err := row.Scan(
		&a.ID, &a.CompanyID, &a.CompanyName, &a.Title, &a.URL, &a.PublishedAt,
		&content, &imageURL, &a.Source, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if content != nil {
		a.Content = *content
	}
	if imageURL != nil {
		a.ImageURL = *imageURL
	}
	return &a, nil
}

func scanArticleRows(rows pgx.Rows) ([]Article, error) {
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticleFromRow(rows)
		if err != nil {
			return nil, fmt.Errorf("article scan: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// ExistsByURL checks whether an article with the given URL already exists.
func (s *ArticleStore) ExistsByURL(ctx context.Context, rawURL string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM articles WHERE url = $1)`, rawURL).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("article exists by url: %w", err)
	}
	return exists, nil
}

// InsertBatch inserts the given articles in one transaction and stamps each
// with a fresh ID and the active status. All or nothing: a failure on any row
// rolls the whole batch back.
func (s *ArticleStore) InsertBatch(ctx context.Context, articles []*Article) error {
	if len(articles) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("article insert batch: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, a := range articles {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		if a.Status == "" {
			a.Status = StatusActive
		}
		a.CreatedAt = now
		a.UpdatedAt = now

		var content, imageURL *string
		if a.Content != "" {
			content = &a.Content
		}
		if a.ImageURL != "" {
			imageURL = &a.ImageURL
		}

		batch.Queue(`
			INSERT INTO articles (id, company_id, company_name, title, url,
			                      published_at, content, image_url, source, status,
			                      created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, a.ID, a.CompanyID, a.CompanyName, a.Title, a.URL,
			a.PublishedAt, content, imageURL, a.Source, a.Status,
			a.CreatedAt, a.UpdatedAt)
	}

	br := tx.SendBatch(ctx, batch)
	for range articles {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("article insert batch: exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("article insert batch: close: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("article insert batch: commit: %w", err)
	}
	return nil
}

// ListRecent returns articles published in the last N days, newest first.
// An empty companyID matches every company. Articles without a publication
// time fall back to their stored time so they still count as recent.
func (s *ArticleStore) ListRecent(ctx context.Context, companyID string, days, limit int) ([]Article, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM articles
		WHERE COALESCE(published_at, created_at) >= now() - make_interval(days => $1)
		  AND ($2 = '' OR company_id = $2)
		ORDER BY COALESCE(published_at, created_at) DESC
		LIMIT $3
	`, articleColumns), days, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("article list recent: %w", err)
	}
	return scanArticleRows(rows)
}

// ListByCompanyKeyword returns every stored article whose company name
// contains the keyword, newest first.
func (s *ArticleStore) ListByCompanyKeyword(ctx context.Context, keyword string, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 500
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM articles
		WHERE company_name ILIKE '%%' || $1 || '%%'
		ORDER BY COALESCE(published_at, created_at) DESC
		LIMIT $2
	`, articleColumns), keyword, limit)
	if err != nil {
		return nil, fmt.Errorf("article list by company keyword: %w", err)
	}
	return scanArticleRows(rows)
}

// Latest returns the most recently stored articles.
func (s *ArticleStore) Latest(ctx context.Context, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM articles
		ORDER BY created_at DESC
		LIMIT $1
	`, articleColumns), limit)
	if err != nil {
		return nil, fmt.Errorf("article latest: %w", err)
	}
	return scanArticleRows(rows)
}

// GetByID returns a single article by its UUID.
func (s *ArticleStore) GetByID(ctx context.Context, id uuid.UUID) (*Article, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s
		FROM articles
		WHERE id = $1
	`, articleColumns), id)
	a, err := scanArticleFromRow(row)
	if err != nil {
		return nil, fmt.Errorf("article get: %w", err)
	}
	return a, nil
}

// UpdateStatus changes an article's status.
func (s *ArticleStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE articles SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("article update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article not found: %s", id)
	}
	return nil
}

// TotalCount returns the number of stored articles.
func (s *ArticleStore) TotalCount(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("article total count: %w", err)
	}
	return count, nil
}

// CountByCompany returns stored article counts keyed by company name.
func (s *ArticleStore) CountByCompany(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT company_name, COUNT(*)
		FROM articles
		GROUP BY company_name
		ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("article count by company: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("article count by company scan: %w", err)
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

// CountBySource returns stored article counts keyed by source.
func (s *ArticleStore) CountBySource(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT source, COUNT(*)
		FROM articles
		GROUP BY source
	`)
	if err != nil {
		return nil, fmt.Errorf("article count by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("article count by source scan: %w", err)
		}
		counts[source] = n
	}
	return counts, rows.Err()
}
