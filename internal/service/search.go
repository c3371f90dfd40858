package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gavril-s/meme-search-bot/internal/domain"
	"github.com/gavril-s/meme-search-bot/internal/logger"
	"github.com/gavril-s/meme-search-bot/internal/repository"
	"github.com/gavril-s/meme-search-bot/internal/search"
)

// SearchService answers free-text queries against the in-memory index and
// exposes record lookups backed by the store.
type SearchService struct {
	engine          *search.Engine
	records         *repository.MemeRecordRepository
	logger          *logger.Logger
	warmupBatchSize int
}

// NewSearchService creates a search service over the given engine and store.
func NewSearchService(
	engine *search.Engine,
	records *repository.MemeRecordRepository,
	log *logger.Logger,
	warmupBatchSize int,
) *SearchService {
	return &SearchService{
		engine:          engine,
		records:         records,
		logger:          log,
		warmupBatchSize: warmupBatchSize,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *SearchService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// WarmUp hydrates the search index from the record store. Called once at
// startup before the service accepts queries.
func (s *SearchService) WarmUp(ctx context.Context) error {
	start := time.Now()

	err := s.records.ForEachBatch(ctx, s.warmupBatchSize, func(records []domain.MemeRecord) error {
		for _, rec := range records {
			s.engine.Add(rec)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to warm up search index: %w", err)
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldCount:      s.engine.Len(),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info("Search index warmed up")

	return nil
}

// SearchRequest represents a text search request.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
}

// SearchResponse represents the search response.
type SearchResponse struct {
	Results []domain.MemeSearchResult `json:"results"`
	Total   int                       `json:"total"`
	Query   string                    `json:"query"`
}

// Search ranks the corpus against the query.
func (s *SearchService) Search(ctx context.Context, query string) *SearchResponse {
	start := time.Now()
	results := s.engine.Search(ctx, query)

	s.log(ctx).WithFields(logger.Fields{
		"query":                query,
		logger.FieldCount:      len(results),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info("Search completed")

	if results == nil {
		results = []domain.MemeSearchResult{}
	}
	return &SearchResponse{
		Results: results,
		Total:   len(results),
		Query:   query,
	}
}

// GetMemeByID retrieves a record by its ID.
func (s *SearchService) GetMemeByID(ctx context.Context, id string) (*domain.MemeRecord, error) {
	return s.records.GetByID(ctx, id)
}

// Stats returns corpus statistics.
func (s *SearchService) Stats(ctx context.Context) (map[string]interface{}, error) {
	total, err := s.records.Count(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"total_records":   total,
		"indexed_records": s.engine.Len(),
	}, nil
}
