package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gavril-s/meme-search-bot/internal/config"
	"github.com/gavril-s/meme-search-bot/internal/domain"
)

func newTestRepo(t *testing.T) *MemeRecordRepository {
	t.Helper()

	db, err := InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	if err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	return NewMemeRecordRepository(db)
}

func testRecord(id string, sourceID int64, messageID int) *domain.MemeRecord {
	return &domain.MemeRecord{
		ID:            id,
		SourceID:      sourceID,
		MessageID:     messageID,
		FileReference: "file-" + id,
		Description:   "description " + id,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestInsert_DuplicateOrigin(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Insert(ctx, testRecord("a", 100, 1)); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	// Same (source_id, message_id) with a different surrogate key must fail.
	err := repo.Insert(ctx, testRecord("b", 100, 1))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Same message ID on a different source is a different post.
	if err := repo.Insert(ctx, testRecord("c", 200, 1)); err != nil {
		t.Fatalf("insert on second source failed: %v", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 records, got %d", count)
	}
}

func TestGetByOrigin(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Insert(ctx, testRecord("a", 100, 7)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	rec, err := repo.GetByOrigin(ctx, 100, 7)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if rec.ID != "a" || rec.FileReference != "file-a" {
		t.Errorf("unexpected record: %+v", rec)
	}

	if _, err := repo.GetByOrigin(ctx, 100, 8); err == nil {
		t.Error("expected error for missing record")
	}
}

func TestForEachBatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := testRecord(string(rune('a'+i)), 100, i+1)
		rec.CreatedAt = time.Date(2024, 6, 1, 12, i, 0, 0, time.UTC)
		if err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("insert %d failed: %v", i, err)
		}
	}

	var seen []string
	err := repo.ForEachBatch(ctx, 2, func(records []domain.MemeRecord) error {
		for _, rec := range records {
			seen = append(seen, rec.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("batch scan failed: %v", err)
	}

	if len(seen) != 5 {
		t.Fatalf("expected 5 records, got %d", len(seen))
	}
}

func TestForEachBatch_VisitsAllRecordsRegardlessOfIDOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// UUID surrogate keys are uncorrelated with insertion time: a record whose
	// ID sorts below an already visited one must still be scanned.
	ids := []string{"zzz", "mmm", "aaa"}
	for i, id := range ids {
		rec := testRecord(id, 100, i+1)
		rec.CreatedAt = time.Date(2024, 6, 1, 12, i, 0, 0, time.UTC)
		if err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("insert %q failed: %v", id, err)
		}
	}

	seen := make(map[string]bool)
	err := repo.ForEachBatch(ctx, 1, func(records []domain.MemeRecord) error {
		for _, rec := range records {
			seen[rec.ID] = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("batch scan failed: %v", err)
	}

	if len(seen) != len(ids) {
		t.Fatalf("expected to visit all %d records, visited %d: %v", len(ids), len(seen), seen)
	}
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("record %q never visited", id)
		}
	}
}

func TestConcurrentInserts_SingleWinner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const workers = 16

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Insert(ctx, testRecord(fmt.Sprintf("rec-%d", i), 100, 1))
		}(i)
	}
	wg.Wait()

	committed, duplicates := 0, 0
	for i, err := range errs {
		switch {
		case err == nil:
			committed++
		case errors.Is(err, ErrDuplicate):
			duplicates++
		default:
			t.Fatalf("insert %d returned unexpected error: %v", i, err)
		}
	}

	if committed != 1 {
		t.Errorf("expected exactly one committed insert, got %d", committed)
	}
	if duplicates != workers-1 {
		t.Errorf("expected %d duplicate errors, got %d", workers-1, duplicates)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 record in store, got %d", count)
	}
}
