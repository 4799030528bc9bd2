package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/service"
)

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getStatsOverview",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats/overview",
		Summary:     "Get stats overview",
		Description: "Returns today's daily summary plus every subject's progress",
		Tags:        []string{"Stats"},
	}, s.handleGetStatsOverview)

	huma.Register(s.api, huma.Operation{
		OperationID: "getDailyStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats/daily",
		Summary:     "Get daily stats",
		Description: "Returns the planning and study summary for a calendar day",
		Tags:        []string{"Stats"},
	}, s.handleGetDailyStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSubjectStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats/subjects",
		Summary:     "List subject stats",
		Description: "Returns the progress summary for every subject",
		Tags:        []string{"Stats"},
	}, s.handleListSubjectStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSubjectStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats/subjects/{id}",
		Summary:     "Get subject stats",
		Description: "Returns the progress summary for one subject",
		Tags:        []string{"Stats"},
	}, s.handleGetSubjectStats)
}

// === DTOs ===

// GetDailyStatsInput contains parameters for the daily summary.
type GetDailyStatsInput struct {
	Date string `query:"date" required:"true" doc:"Day to summarize (YYYY-MM-DD)"`
}

// DailyStatsOutput wraps the daily summary for Huma.
type DailyStatsOutput struct {
	Body *service.DailyStats
}

// SubjectStatsListResponse contains per-subject progress summaries.
type SubjectStatsListResponse struct {
	Subjects []*service.SubjectStats `json:"subjects" doc:"Progress summary per subject"`
}

// SubjectStatsListOutput wraps the subject stats list for Huma.
type SubjectStatsListOutput struct {
	Body SubjectStatsListResponse
}

// GetSubjectStatsInput contains parameters for one subject's summary.
type GetSubjectStatsInput struct {
	ID string `path:"id" doc:"Subject ID"`
}

// SubjectStatsOutput wraps one subject's summary for Huma.
type SubjectStatsOutput struct {
	Body *service.SubjectStats
}

// StatsOverviewResponse combines today's summary with per-subject progress.
type StatsOverviewResponse struct {
	Today    *service.DailyStats     `json:"today" doc:"Summary for the current day"`
	Subjects []*service.SubjectStats `json:"subjects" doc:"Progress summary per subject"`
}

// StatsOverviewOutput wraps the overview response for Huma.
type StatsOverviewOutput struct {
	Body StatsOverviewResponse
}

// === Handlers ===

func (s *Server) handleGetStatsOverview(ctx context.Context, _ *struct{}) (*StatsOverviewOutput, error) {
	today := time.Now().UTC().Format(domain.DayFormat)

	daily, err := s.services.Stats.GetDailyStats(ctx, today)
	if err != nil {
		return nil, err
	}

	subjects, err := s.services.Stats.GetAllSubjectStats(ctx)
	if err != nil {
		return nil, err
	}

	return &StatsOverviewOutput{Body: StatsOverviewResponse{Today: daily, Subjects: subjects}}, nil
}

func (s *Server) handleGetDailyStats(ctx context.Context, input *GetDailyStatsInput) (*DailyStatsOutput, error) {
	stats, err := s.services.Stats.GetDailyStats(ctx, input.Date)
	if err != nil {
		return nil, err
	}
	return &DailyStatsOutput{Body: stats}, nil
}

func (s *Server) handleListSubjectStats(ctx context.Context, _ *struct{}) (*SubjectStatsListOutput, error) {
	stats, err := s.services.Stats.GetAllSubjectStats(ctx)
	if err != nil {
		return nil, err
	}
	return &SubjectStatsListOutput{Body: SubjectStatsListResponse{Subjects: stats}}, nil
}

func (s *Server) handleGetSubjectStats(ctx context.Context, input *GetSubjectStatsInput) (*SubjectStatsOutput, error) {
	stats, err := s.services.Stats.GetSubjectStats(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SubjectStatsOutput{Body: stats}, nil
}
