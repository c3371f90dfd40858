package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gavril-s/meme-search-bot/internal/api/middleware"
	"github.com/gavril-s/meme-search-bot/internal/config"
	"github.com/gavril-s/meme-search-bot/internal/domain"
	"github.com/gavril-s/meme-search-bot/internal/logger"
	"github.com/gavril-s/meme-search-bot/internal/repository"
	"github.com/gavril-s/meme-search-bot/internal/search"
	"github.com/gavril-s/meme-search-bot/internal/service"
	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	if err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	records := repository.NewMemeRecordRepository(db)

	rec := &domain.MemeRecord{
		ID:            "rec-1",
		SourceID:      100,
		MessageID:     1,
		FileReference: "file-1",
		Description:   "grumpy cat meme",
		CreatedAt:     time.Now().UTC(),
	}
	if err := records.Insert(t.Context(), rec); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	engine := search.NewEngine(search.Config{TrigramFallback: true})
	searchService := service.NewSearchService(engine, records, logger.Default(), 100)
	if err := searchService.WarmUp(t.Context()); err != nil {
		t.Fatalf("warm-up failed: %v", err)
	}

	return SetupRouter(searchService, nil, "test", middleware.CORSConfig{AllowAllOrigins: true})
}

func TestSearchEndpoints(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantTotal  int
	}{
		{
			name:       "POST search finds record",
			method:     http.MethodPost,
			path:       "/api/v1/search",
			body:       `{"query": "grumpy cat"}`,
			wantStatus: http.StatusOK,
			wantTotal:  1,
		},
		{
			name:       "POST search rejects missing query",
			method:     http.MethodPost,
			path:       "/api/v1/search",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "GET search finds record",
			method:     http.MethodGet,
			path:       "/api/v1/search?q=grumpy+kat",
			wantStatus: http.StatusOK,
			wantTotal:  1,
		},
		{
			name:       "GET search requires q",
			method:     http.MethodGet,
			path:       "/api/v1/search",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "GET search with no match",
			method:     http.MethodGet,
			path:       "/api/v1/search?q=quantum+physics",
			wantStatus: http.StatusOK,
			wantTotal:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp service.SearchResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Total != tt.wantTotal {
				t.Errorf("total = %d, want %d", resp.Total, tt.wantTotal)
			}
		})
	}
}

func TestGetMemeAndStats(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/memes/rec-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get meme status = %d", w.Code)
	}
	var rec domain.MemeRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("failed to decode record: %v", err)
	}
	if rec.Description != "grumpy cat meme" {
		t.Errorf("unexpected record: %+v", rec)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/memes/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing meme status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var stats map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats["total_records"].(float64) != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}
}
