package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gavril-s/meme-search-bot/internal/domain"
)

func record(id, description string, createdAt time.Time) domain.MemeRecord {
	return domain.MemeRecord{
		ID:            id,
		SourceID:      100,
		MessageID:     1,
		FileReference: "file-" + id,
		Description:   description,
		CreatedAt:     createdAt,
	}
}

func newTestEngine(fallback bool) *Engine {
	return NewEngine(Config{
		TopK:             10,
		TrigramThreshold: DefaultTrigramThreshold,
		TrigramFallback:  fallback,
	})
}

func TestSearch_LexicalOverlapRanksFirst(t *testing.T) {
	e := newTestEngine(true)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	e.Add(record("a", "cat wearing hat", base))
	e.Add(record("b", "cat sleeping", base))

	results := e.Search(context.Background(), "hat")
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	// "cat sleeping" has no lexical overlap and trivial trigram similarity;
	// it must not leak into the results as substring noise.
	if results[0].ID != "a" {
		t.Errorf("expected record a first, got %s", results[0].ID)
	}
}

func TestSearch_TypoMatchesViaTrigrams(t *testing.T) {
	e := newTestEngine(true)

	e.Add(record("a", "grumpy cat meme", time.Now()))

	// Misspelled query still finds the record.
	results := e.Search(context.Background(), "grumpy kat")
	if len(results) != 1 || results[0].ID != "a" {
		t.Fatalf("expected typo query to match, got %v", results)
	}

	// Even with zero token overlap the trigram path carries it.
	results = e.Search(context.Background(), "grumpycat")
	if len(results) != 1 || results[0].ID != "a" {
		t.Fatalf("expected trigram-only match, got %v", results)
	}
}

func TestSearch_EmptyAndSymbolQueries(t *testing.T) {
	e := newTestEngine(true)
	e.Add(record("a", "grumpy cat meme", time.Now()))

	for _, query := range []string{"", "   ", "!!! ???"} {
		if results := e.Search(context.Background(), query); len(results) != 0 {
			t.Errorf("query %q: expected no results, got %d", query, len(results))
		}
	}
}

func TestSearch_StopWordFallbackPolicy(t *testing.T) {
	// "the" tokenizes to nothing, so ranking depends on the fallback policy.
	withFallback := newTestEngine(true)
	withFallback.Add(record("a", "the", time.Now()))

	if results := withFallback.Search(context.Background(), "the"); len(results) != 1 {
		t.Errorf("fallback enabled: expected trigram-only result, got %d", len(results))
	}

	noFallback := newTestEngine(false)
	noFallback.Add(record("a", "the", time.Now()))

	if results := noFallback.Search(context.Background(), "the"); len(results) != 0 {
		t.Errorf("fallback disabled: expected no results, got %d", len(results))
	}
}

func TestSearch_TopKAndTieBreak(t *testing.T) {
	e := NewEngine(Config{TopK: 3, TrigramThreshold: DefaultTrigramThreshold})
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// Identical descriptions: equal scores, so created_at decides.
	for i := 0; i < 5; i++ {
		e.Add(record(fmt.Sprintf("rec-%d", i), "dancing dog", base.Add(time.Duration(i)*time.Minute)))
	}

	results := e.Search(context.Background(), "dancing dog")
	if len(results) != 3 {
		t.Fatalf("expected TopK=3 results, got %d", len(results))
	}
	for i, expected := range []string{"rec-4", "rec-3", "rec-2"} {
		if results[i].ID != expected {
			t.Errorf("position %d: expected %s, got %s", i, expected, results[i].ID)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Error("results not ordered by score descending")
		}
	}
}

func TestAdd_ReplacesExistingRecord(t *testing.T) {
	e := newTestEngine(true)

	e.Add(record("a", "grumpy cat", time.Now()))
	e.Add(record("a", "dancing dog", time.Now()))

	if e.Len() != 1 {
		t.Fatalf("expected 1 indexed record, got %d", e.Len())
	}
	if results := e.Search(context.Background(), "grumpy cat"); len(results) != 0 {
		t.Error("stale postings still reachable after replacement")
	}
	if results := e.Search(context.Background(), "dancing dog"); len(results) != 1 {
		t.Error("replacement record not reachable")
	}
}

func TestSearch_ScoreIsLexicalPlusTrigram(t *testing.T) {
	e := newTestEngine(true)
	e.Add(record("a", "cat wearing hat", time.Now()))

	results := e.Search(context.Background(), "hat")
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	doc := TokenSet("cat wearing hat")
	expected := LexicalRank(doc, Tokenize("hat")) +
		TrigramSimilarity(Trigrams("hat"), Trigrams("cat wearing hat"))
	if results[0].Score != expected {
		t.Errorf("score = %v, want %v", results[0].Score, expected)
	}
}
