package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/studydeskapp/studydesk-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search catalog",
		Description: "Full-text search across subjects and chapters",
		Tags:        []string{"Search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "reindexSearch",
		Method:      http.MethodPost,
		Path:        "/api/v1/search/reindex",
		Summary:     "Rebuild search index",
		Description: "Drops and rebuilds the search index from the catalog",
		Tags:        []string{"Search"},
	}, s.handleReindexSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching the catalog.
type SearchInput struct {
	Query     string `query:"q" validate:"required,min=1,max=200" doc:"Search query"`
	Types     string `query:"types" validate:"omitempty,max=100" doc:"Comma-separated types to search (subject,chapter). Omit for all."`
	SubjectID string `query:"subject_id" validate:"omitempty,max=100" doc:"Narrow chapter results to one subject"`
	Limit     int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset    int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset (default 0)"`
	Sort      string `query:"sort" validate:"omitempty,oneof=relevance name recent" doc:"Sort order (default relevance)"`
}

// SearchHitResult contains a single search result.
type SearchHitResult struct {
	ID         string            `json:"id" doc:"Entity ID"`
	Type       string            `json:"type" doc:"Type: subject or chapter"`
	Score      float64           `json:"score" doc:"Search relevance score"`
	Name       string            `json:"name" doc:"Display name"`
	SubjectID  string            `json:"subject_id,omitempty" doc:"Parent subject ID (for chapters)"`
	Position   int               `json:"position,omitempty" doc:"Sort position (for chapters)"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string            `json:"query" doc:"Original search query"`
	Total  int64             `json:"total" doc:"Total matches"`
	TookMs int64             `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResult `json:"hits" doc:"Search results"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// ReindexResponse reports the document count after a rebuild.
type ReindexResponse struct {
	Documents uint64 `json:"documents" doc:"Number of documents in the rebuilt index"`
}

// ReindexOutput wraps the reindex response for Huma.
type ReindexOutput struct {
	Body ReindexResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.SubjectID = input.SubjectID
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset
	if input.Sort != "" {
		params.SortBy = input.Sort
	}

	if input.Types != "" {
		for t := range strings.SplitSeq(input.Types, ",") {
			switch strings.TrimSpace(t) {
			case "subject":
				params.Types = append(params.Types, string(search.DocTypeSubject))
			case "chapter":
				params.Types = append(params.Types, string(search.DocTypeChapter))
			}
		}
	}

	result, err := s.services.Search.Search(ctx, params)
	if err != nil {
		s.logger.Error("search failed", "error", err, "query", input.Query)
		return nil, err
	}

	resp := SearchResponse{
		Query:  input.Query,
		Total:  int64(result.Total), //nolint:gosec // Safe: total count won't exceed int64
		TookMs: result.TookMs,
		Hits:   make([]SearchHitResult, 0, len(result.Hits)),
	}
	for i := range result.Hits {
		hit := &result.Hits[i]
		resp.Hits = append(resp.Hits, SearchHitResult{
			ID:         hit.ID,
			Type:       string(hit.Type),
			Score:      hit.Score,
			Name:       hit.Name,
			SubjectID:  hit.SubjectID,
			Position:   hit.Position,
			Highlights: hit.Highlights,
		})
	}

	return &SearchOutput{Body: resp}, nil
}

func (s *Server) handleReindexSearch(ctx context.Context, _ *struct{}) (*ReindexOutput, error) {
	if err := s.services.Search.ReindexAll(ctx); err != nil {
		return nil, err
	}

	count, err := s.services.Search.DocumentCount()
	if err != nil {
		return nil, err
	}
	return &ReindexOutput{Body: ReindexResponse{Documents: count}}, nil
}
