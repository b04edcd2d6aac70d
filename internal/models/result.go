package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ScrapingResult records the outcome of one company/source extraction task.
type ScrapingResult struct {
	ID            uuid.UUID `json:"id"`
	CompanyID     string    `json:"company_id"`
	Source        string    `json:"source"`
	Success       bool      `json:"success"`
	ArticlesCount int       `json:"articles_count"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	ExecutionTime float64   `json:"execution_time"`
	CreatedAt     time.Time `json:"created_at"`
}

// ScrapingResultStore provides data access methods for scraping results.
type ScrapingResultStore struct {
	pool *pgxpool.Pool
}

// NewScrapingResultStore creates a new ScrapingResultStore.
func NewScrapingResultStore(pool *pgxpool.Pool) *ScrapingResultStore {
	return &ScrapingResultStore{pool: pool}
}

// Save persists one result row.
func (s *ScrapingResultStore) Save(ctx context.Context, r *ScrapingResult) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	var errMsg *string
	if r.ErrorMessage != "" {
		errMsg = &r.ErrorMessage
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO scraping_results (id, company_id, source, success,
		                              articles_count, error_message, execution_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, r.ID, r.CompanyID, r.Source, r.Success,
		r.ArticlesCount, errMsg, r.ExecutionTime,
	).Scan(&r.CreatedAt)
	if err != nil {
		return fmt.Errorf("scraping result save: %w", err)
	}
	return nil
}

// ListRecent returns the latest result rows, newest first.
func (s *ScrapingResultStore) ListRecent(ctx context.Context, limit int) ([]ScrapingResult, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, source, success, articles_count,
		       error_message, execution_time, created_at
		FROM scraping_results
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("scraping result list recent: %w", err)
	}
	defer rows.Close()

	var results []ScrapingResult
	for rows.Next() {
		var r ScrapingResult
		var errMsg *string
		if err := rows.Scan(
			&r.ID, &r.CompanyID, &r.Source, &r.Success, &r.ArticlesCount,
			&errMsg, &r.ExecutionTime, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scraping result scan: %w", err)
		}
		if errMsg != nil {
			r.ErrorMessage = *errMsg
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
