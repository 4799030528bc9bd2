package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/service"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getActiveSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/active",
		Summary:     "Get active session",
		Description: "Returns the current live session with its timer, or nulls when idle",
		Tags:        []string{"Sessions"},
	}, s.handleGetActiveSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSessionsByDate",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions",
		Summary:     "Get sessions by date",
		Description: "Returns all sessions recorded on a day",
		Tags:        []string{"Sessions"},
	}, s.handleGetSessionsByDate)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}",
		Summary:     "Get session",
		Description: "Returns an activity session by ID",
		Tags:        []string{"Sessions"},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSessionTimer",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}/timer",
		Summary:     "Get session timer",
		Description: "Returns the timer state for a session",
		Tags:        []string{"Sessions"},
	}, s.handleGetSessionTimer)

	huma.Register(s.api, huma.Operation{
		OperationID: "pauseSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/pause",
		Summary:     "Pause session",
		Description: "Pauses a running session, opening a pause interval",
		Tags:        []string{"Sessions"},
	}, s.handlePauseSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "resumeSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/resume",
		Summary:     "Resume session",
		Description: "Resumes a paused session, closing the open pause interval",
		Tags:        []string{"Sessions"},
	}, s.handleResumeSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "completeSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/complete",
		Summary:     "Complete session",
		Description: "Completes a session and credits study time to its chapter",
		Tags:        []string{"Sessions"},
	}, s.handleCompleteSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "runSessionRepair",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/repair",
		Summary:     "Run session repair",
		Description: "Runs the idempotent session repair pass and returns its report",
		Tags:        []string{"Sessions"},
	}, s.handleRunSessionRepair)
}

// === DTOs ===

// SessionOutput wraps a single activity session for Huma.
type SessionOutput struct {
	Body *domain.ActivitySession
}

// GetSessionInput contains parameters for getting a session.
type GetSessionInput struct {
	ID string `path:"id" doc:"Session ID"`
}

// GetSessionsByDateInput contains parameters for listing a day's sessions.
type GetSessionsByDateInput struct {
	Date string `query:"date" required:"true" doc:"Day to list (YYYY-MM-DD)"`
}

// ActiveSessionResponse contains the live session and its timer. Both fields
// are null when no session is live.
type ActiveSessionResponse struct {
	Session *domain.ActivitySession `json:"session" doc:"Live session, or null when idle"`
	Timer   *domain.TimerState      `json:"timer" doc:"Timer state for the live session, or null when idle"`
}

// ActiveSessionOutput wraps the active session response for Huma.
type ActiveSessionOutput struct {
	Body ActiveSessionResponse
}

// TimerOutput wraps a timer state for Huma.
type TimerOutput struct {
	Body *domain.TimerState
}

// CompleteSessionRequest is the request body for completing a session.
type CompleteSessionRequest struct {
	ActualMinutes int `json:"actual_minutes,omitempty" validate:"omitempty,gte=0" doc:"Minutes actually studied; 0 derives it from elapsed time"`
}

// CompleteSessionInput wraps the complete session request for Huma.
type CompleteSessionInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body CompleteSessionRequest
}

// RepairOutput wraps a repair report for Huma.
type RepairOutput struct {
	Body *service.RepairReport
}

// === Handlers ===

func (s *Server) handleGetActiveSession(ctx context.Context, _ *struct{}) (*ActiveSessionOutput, error) {
	session, timer, err := s.services.Sessions.GetActiveSession(ctx)
	if err != nil {
		return nil, err
	}
	return &ActiveSessionOutput{Body: ActiveSessionResponse{Session: session, Timer: timer}}, nil
}

func (s *Server) handleGetSessionsByDate(ctx context.Context, input *GetSessionsByDateInput) (*SessionListOutput, error) {
	sessions, err := s.services.Sessions.GetSessionsByDate(ctx, input.Date)
	if err != nil {
		return nil, err
	}
	return &SessionListOutput{Body: SessionListResponse{Sessions: sessions}}, nil
}

func (s *Server) handleGetSession(ctx context.Context, input *GetSessionInput) (*SessionOutput, error) {
	session, err := s.services.Sessions.GetSession(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: session}, nil
}

func (s *Server) handleGetSessionTimer(ctx context.Context, input *GetSessionInput) (*TimerOutput, error) {
	timer, err := s.services.Sessions.GetTimerState(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &TimerOutput{Body: timer}, nil
}

func (s *Server) handlePauseSession(ctx context.Context, input *GetSessionInput) (*SessionOutput, error) {
	session, err := s.services.Sessions.PauseActivity(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: session}, nil
}

func (s *Server) handleResumeSession(ctx context.Context, input *GetSessionInput) (*SessionOutput, error) {
	session, err := s.services.Sessions.ResumeActivity(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: session}, nil
}

func (s *Server) handleCompleteSession(ctx context.Context, input *CompleteSessionInput) (*SessionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	session, err := s.services.Sessions.CompleteActivity(ctx, input.ID, input.Body.ActualMinutes)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: session}, nil
}

func (s *Server) handleRunSessionRepair(ctx context.Context, _ *struct{}) (*RepairOutput, error) {
	report, err := s.services.Sessions.Repair(ctx)
	if err != nil {
		return nil, err
	}
	return &RepairOutput{Body: report}, nil
}
