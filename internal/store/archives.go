package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/scribe/internal/response"
)

// Archive is one exported conversation summary.
type Archive struct {
	ID        uuid.UUID `json:"id"`
	PageID    string    `json:"page_id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	Todos     string    `json:"todos"`
	Date      string    `json:"date"`
	NotionURL string    `json:"notion_url"`
	CreatedAt time.Time `json:"created_at"`
}

// WriteArchive records a successful export.
func (s *Store) WriteArchive(ctx context.Context, pageID string, rec response.Record, notionURL string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO archives (id, page_id, title, summary, content, todos, date, notion_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
		id, pageID, rec.Title, rec.Summary, rec.Content, rec.Todos, rec.Date, notionURL,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert archive: %w", err)
	}
	return id, nil
}

// ListArchives returns the most recent archives first.
func (s *Store) ListArchives(ctx context.Context, limit int) ([]Archive, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, page_id, title, summary, content, todos, date, notion_url, created_at
		FROM archives
		ORDER BY created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query archives: %w", err)
	}

	archives, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Archive])
	if err != nil {
		return nil, fmt.Errorf("scan archives: %w", err)
	}
	return archives, nil
}

// GetArchive fetches one archive by id.
func (s *Store) GetArchive(ctx context.Context, id uuid.UUID) (*Archive, error) {
	var a Archive
	err := s.pool.QueryRow(ctx, `
		SELECT id, page_id, title, summary, content, todos, date, notion_url, created_at
		FROM archives WHERE id = $1`, id,
	).Scan(&a.ID, &a.PageID, &a.Title, &a.Summary, &a.Content, &a.Todos, &a.Date, &a.NotionURL, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get archive: %w", err)
	}
	return &a, nil
}
