//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/scribe/internal/response"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_WriteAndGetArchive(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	pageID := "integration-test-" + uuid.New().String()[:8]

	rec := response.Record{
		Title:   "Integration test archive",
		Summary: "Testing the archive write path",
		Content: "- wrote a row\n- read it back",
		Todos:   "- TODO: clean up",
		Date:    "2026-03-09",
	}

	id, err := s.WriteArchive(ctx, pageID, rec, "https://www.notion.so/integration")
	if err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected non-nil archive ID")
	}
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM archives WHERE id = $1", id)
	})

	got, err := s.GetArchive(ctx, id)
	if err != nil {
		t.Fatalf("GetArchive failed: %v", err)
	}
	if got.PageID != pageID {
		t.Errorf("expected page id %q, got %q", pageID, got.PageID)
	}
	if got.Title != rec.Title || got.Content != rec.Content || got.Todos != rec.Todos {
		t.Errorf("record mismatch: %+v", got)
	}
	if got.NotionURL != "https://www.notion.so/integration" {
		t.Errorf("expected notion url, got %q", got.NotionURL)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestIntegration_ListArchivesNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	pageID := "integration-test-" + uuid.New().String()[:8]

	first, err := s.WriteArchive(ctx, pageID, response.Record{Title: "first", Date: "2026-03-08"}, "")
	if err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}
	second, err := s.WriteArchive(ctx, pageID, response.Record{Title: "second", Date: "2026-03-09"}, "")
	if err != nil {
		t.Fatalf("WriteArchive failed: %v", err)
	}
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM archives WHERE id = ANY($1)", []uuid.UUID{first, second})
	})

	rows, err := s.ListArchives(ctx, 2)
	if err != nil {
		t.Fatalf("ListArchives failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ID != second || rows[1].ID != first {
		t.Errorf("expected newest first, got %s then %s", rows[0].ID, rows[1].ID)
	}
}
