package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/studydeskapp/studydesk-server/internal/archive"
)

func (s *Server) registerHistoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSessionHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/history/sessions",
		Summary:     "Get session history",
		Description: "Returns archived sessions within an inclusive day range",
		Tags:        []string{"History"},
	}, s.handleGetSessionHistory)

	huma.Register(s.api, huma.Operation{
		OperationID: "listRepairRuns",
		Method:      http.MethodGet,
		Path:        "/api/v1/history/repairs",
		Summary:     "List repair runs",
		Description: "Returns recent session repair runs, newest first",
		Tags:        []string{"History"},
	}, s.handleListRepairRuns)
}

// === DTOs ===

// GetSessionHistoryInput contains parameters for the session history query.
type GetSessionHistoryInput struct {
	From string `query:"from" required:"true" validate:"required,datetime=2006-01-02" doc:"First day of the range (YYYY-MM-DD)"`
	To   string `query:"to" required:"true" validate:"required,datetime=2006-01-02" doc:"Last day of the range (YYYY-MM-DD)"`
}

// SessionHistoryResponse contains archived session records.
type SessionHistoryResponse struct {
	Sessions []*archive.SessionRecord `json:"sessions" doc:"Archived sessions, newest first"`
}

// SessionHistoryOutput wraps the session history response for Huma.
type SessionHistoryOutput struct {
	Body SessionHistoryResponse
}

// ListRepairRunsInput contains parameters for listing repair runs.
type ListRepairRunsInput struct {
	Limit int `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max runs to return (default 20)"`
}

// RepairRunListResponse contains repair run records.
type RepairRunListResponse struct {
	Runs []*archive.RepairRunRecord `json:"runs" doc:"Repair runs, newest first"`
}

// RepairRunListOutput wraps the repair run list response for Huma.
type RepairRunListOutput struct {
	Body RepairRunListResponse
}

// === Handlers ===

func (s *Server) handleGetSessionHistory(ctx context.Context, input *GetSessionHistoryInput) (*SessionHistoryOutput, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	sessions, err := s.archive.GetSessionHistory(ctx, input.From, input.To)
	if err != nil {
		return nil, err
	}
	return &SessionHistoryOutput{Body: SessionHistoryResponse{Sessions: sessions}}, nil
}

func (s *Server) handleListRepairRuns(ctx context.Context, input *ListRepairRunsInput) (*RepairRunListOutput, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	runs, err := s.archive.GetRecentRepairRuns(ctx, input.Limit)
	if err != nil {
		return nil, err
	}
	return &RepairRunListOutput{Body: RepairRunListResponse{Runs: runs}}, nil
}
