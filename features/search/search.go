package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"devkb/features/document"
	"devkb/internal/middleware"
	"devkb/internal/vector"
)

type Request struct {
	Query         string   `json:"query"`
	Limit         int      `json:"limit"`
	MinSimilarity *float64 `json:"min_similarity"`
	ContentType   string   `json:"content_type"`
	Language      string   `json:"language"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
}

type Result struct {
	Document   document.Document `json:"document"`
	Snippet    string            `json:"snippet"`
	Similarity float64           `json:"similarity"`
	Highlights []string          `json:"highlights"`
}

type Response struct {
	Results []Result `json:"results"`
	Mode    string   `json:"mode"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorIndex interface {
	Query(ctx context.Context, vec []float32, k int, minSimilarity float64, f vector.Filter) ([]vector.Hit, error)
}

type DocumentStore interface {
	GetByID(ctx context.Context, id int64) (*document.Document, error)
	List(ctx context.Context, filter document.ListFilter) (*document.ListResult, error)
}

type Options struct {
	DefaultLimit    int
	MinSimilarity   float64
	KeywordPageSize int
}

type Service struct {
	embedder Embedder
	vectors  VectorIndex
	docs     DocumentStore
	logger   *QueryLogger
	opts     Options
}

func NewService(embedder Embedder, vectors VectorIndex, docs DocumentStore, logger *QueryLogger, opts Options) *Service {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.KeywordPageSize <= 0 {
		opts.KeywordPageSize = 100
	}
	return &Service{embedder: embedder, vectors: vectors, docs: docs, logger: logger, opts: opts}
}

// Search runs semantic retrieval first and falls back to keyword matching
// when the embedding path is unavailable or returns nothing. The fallback is
// a degradation, never an error: an unreachable embedder still produces a
// response.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	limit := req.Limit
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}
	minSim := s.opts.MinSimilarity
	if req.MinSimilarity != nil {
		minSim = *req.MinSimilarity
	}

	resp := &Response{Mode: "semantic"}
	results, err := s.semantic(ctx, req, limit, minSim)
	if err != nil {
		slog.WarnContext(ctx, "semantic search unavailable, falling back to keyword", "error", err)
		results = nil
	}
	if len(results) == 0 {
		resp.Mode = "keyword"
		results, err = s.keyword(ctx, req, limit)
		if err != nil {
			return nil, err
		}
	}
	if results == nil {
		results = []Result{}
	}
	resp.Results = results

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:         req.Query,
			Mode:          resp.Mode,
			NumResults:    len(results),
			Duration:      time.Since(start),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}
	return resp, nil
}

func (s *Service) semantic(ctx context.Context, req Request, limit int, minSim float64) ([]Result, error) {
	vec, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	// Overfetch so per-document dedup can still fill the page.
	hits, err := s.vectors.Query(ctx, vec, limit*2, minSim, vector.Filter{
		Language: req.Language,
		Category: req.Category,
	})
	if err != nil {
		return nil, err
	}

	var results []Result
	seen := map[int64]bool{}
	for _, hit := range hits {
		if len(results) >= limit {
			break
		}
		if seen[hit.DocID] {
			continue
		}
		seen[hit.DocID] = true

		doc, err := s.docs.GetByID(ctx, hit.DocID)
		if err != nil {
			slog.WarnContext(ctx, "indexed chunk references missing document", "doc_id", hit.DocID, "error", err)
			continue
		}
		if !matchesPostFilters(doc, req) {
			continue
		}

		results = append(results, Result{
			Document:   *doc,
			Snippet:    snippet(hit.Text),
			Similarity: hit.Similarity,
			Highlights: ExtractHighlights(hit.Text, req.Query),
		})
	}
	return results, nil
}

func (s *Service) keyword(ctx context.Context, req Request, limit int) ([]Result, error) {
	page, err := s.docs.List(ctx, document.ListFilter{
		ContentType: req.ContentType,
		Category:    req.Category,
		Language:    req.Language,
		Page:        1,
		PageSize:    s.opts.KeywordPageSize,
	})
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(req.Query)
	var results []Result
	for _, doc := range page.Documents {
		if len(results) >= limit {
			break
		}
		haystack := strings.ToLower(doc.Path + " " + doc.Title + " " + doc.Summary)
		if !strings.Contains(haystack, query) {
			continue
		}
		doc := doc
		if !matchesPostFilters(&doc, req) {
			continue
		}
		results = append(results, Result{
			Document:   doc,
			Snippet:    snippet(doc.Summary),
			Similarity: 1.0,
			Highlights: []string{req.Query},
		})
	}
	return results, nil
}

// matchesPostFilters applies the filters the vector index cannot express:
// content type and tag membership live only on the document row.
func matchesPostFilters(doc *document.Document, req Request) bool {
	if req.ContentType != "" && doc.ContentType != req.ContentType {
		return false
	}
	if len(req.Tags) > 0 {
		found := false
		for _, want := range req.Tags {
			for _, have := range doc.Tags {
				if strings.EqualFold(want, have) {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func snippet(text string) string {
	return truncate(strings.TrimSpace(text), 300)
}
