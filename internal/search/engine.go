// Package search ranks meme records against free-text queries with a hybrid
// score: lexical token overlap plus trigram similarity. The engine keeps an
// in-memory inverted index (token and trigram posting lists) over the corpus,
// hydrated from the record store at startup and appended on every insert, so
// a query never scans the full corpus.
package search

import (
	"context"
	"sort"
	"sync"

	"github.com/gavril-s/meme-search-bot/internal/domain"
	"github.com/gavril-s/meme-search-bot/internal/logger"
)

// Tuning constants for the hybrid ranking formula. DefaultTrigramThreshold
// mirrors pg_trgm's similarity cutoff.
const (
	DefaultTopK             = 10
	DefaultTrigramThreshold = 0.3
)

// Config holds ranking parameters.
type Config struct {
	// TopK is the maximum number of results per query.
	TopK int

	// TrigramThreshold is the minimum trigram similarity for a record with no
	// lexical overlap to qualify. Values <= 0 select the default; the
	// threshold cannot be disabled, or every record sharing a single trigram
	// with the query would qualify.
	TrigramThreshold float64

	// TrigramFallback controls what happens when a query yields no lexical
	// tokens: true scores on trigrams alone, false returns nothing.
	TrigramFallback bool
}

// document is an indexed record with its precomputed feature sets.
type document struct {
	record   domain.MemeRecord
	tokens   map[string]struct{}
	trigrams map[string]struct{}
}

// Engine answers ranked search queries over the indexed corpus.
// Safe for concurrent use; queries are read-only.
type Engine struct {
	cfg Config

	mu           sync.RWMutex
	docs         map[string]*document
	tokenIndex   map[string]map[string]struct{}
	trigramIndex map[string]map[string]struct{}
}

// NewEngine creates an empty search engine.
func NewEngine(cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.TrigramThreshold <= 0 {
		cfg.TrigramThreshold = DefaultTrigramThreshold
	}
	return &Engine{
		cfg:          cfg,
		docs:         make(map[string]*document),
		tokenIndex:   make(map[string]map[string]struct{}),
		trigramIndex: make(map[string]map[string]struct{}),
	}
}

// Add indexes a record. Re-adding the same record ID replaces its postings,
// so warm-up after a partial run stays consistent.
func (e *Engine) Add(rec domain.MemeRecord) {
	doc := &document{
		record:   rec,
		tokens:   TokenSet(rec.Description),
		trigrams: Trigrams(rec.Description),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if old, exists := e.docs[rec.ID]; exists {
		e.unindexLocked(rec.ID, old)
	}
	e.docs[rec.ID] = doc
	for tok := range doc.tokens {
		ids, ok := e.tokenIndex[tok]
		if !ok {
			ids = make(map[string]struct{})
			e.tokenIndex[tok] = ids
		}
		ids[rec.ID] = struct{}{}
	}
	for tri := range doc.trigrams {
		ids, ok := e.trigramIndex[tri]
		if !ok {
			ids = make(map[string]struct{})
			e.trigramIndex[tri] = ids
		}
		ids[rec.ID] = struct{}{}
	}
}

// Len returns the number of indexed records.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

// Search ranks the corpus against query and returns at most TopK results,
// highest score first. A record qualifies when it has lexical overlap with
// the query or its trigram similarity clears the threshold. Equal scores are
// broken by created_at, most recent first. An empty or unparseable query is
// not an error; it returns the trigram-only ranking, or nothing when the
// fallback is disabled.
func (e *Engine) Search(ctx context.Context, query string) []domain.MemeSearchResult {
	queryTokens := Tokenize(query)
	queryTrigrams := Trigrams(query)

	if len(queryTokens) == 0 {
		if !e.cfg.TrigramFallback || len(queryTrigrams) == 0 {
			return nil
		}
		logger.CtxDebug(ctx, "Query has no lexical tokens, trigram-only ranking: query=%q", query)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	candidates := e.gatherLocked(queryTokens, queryTrigrams)

	results := make([]domain.MemeSearchResult, 0, len(candidates))
	for id := range candidates {
		doc := e.docs[id]

		lexical := LexicalRank(doc.tokens, queryTokens)
		trigram := TrigramSimilarity(queryTrigrams, doc.trigrams)
		if lexical <= 0 && trigram < e.cfg.TrigramThreshold {
			continue
		}

		results = append(results, domain.MemeSearchResult{
			MemeRecord: doc.record,
			Score:      lexical + trigram,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > e.cfg.TopK {
		results = results[:e.cfg.TopK]
	}
	return results
}

// gatherLocked collects candidate document IDs from the posting lists of the
// query's tokens and trigrams.
func (e *Engine) gatherLocked(tokens []string, trigrams map[string]struct{}) map[string]struct{} {
	candidates := make(map[string]struct{})
	for _, tok := range tokens {
		for id := range e.tokenIndex[tok] {
			candidates[id] = struct{}{}
		}
	}
	for tri := range trigrams {
		for id := range e.trigramIndex[tri] {
			candidates[id] = struct{}{}
		}
	}
	return candidates
}

func (e *Engine) unindexLocked(id string, doc *document) {
	for tok := range doc.tokens {
		if ids, ok := e.tokenIndex[tok]; ok {
			delete(ids, id)
			if len(ids) == 0 {
				delete(e.tokenIndex, tok)
			}
		}
	}
	for tri := range doc.trigrams {
		if ids, ok := e.trigramIndex[tri]; ok {
			delete(ids, id)
			if len(ids) == 0 {
				delete(e.trigramIndex, tri)
			}
		}
	}
}
