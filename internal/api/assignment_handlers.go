package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/service"
)

func (s *Server) registerAssignmentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createAssignment",
		Method:      http.MethodPost,
		Path:        "/api/v1/assignments",
		Summary:     "Create assignment",
		Description: "Schedules a chapter for study or revision on a day",
		Tags:        []string{"Assignments"},
	}, s.handleCreateAssignment)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAssignmentsByDate",
		Method:      http.MethodGet,
		Path:        "/api/v1/assignments",
		Summary:     "Get assignments by date",
		Description: "Returns all assignments scheduled for a day",
		Tags:        []string{"Assignments"},
	}, s.handleGetAssignmentsByDate)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAssignment",
		Method:      http.MethodGet,
		Path:        "/api/v1/assignments/{id}",
		Summary:     "Get assignment",
		Description: "Returns an assignment by ID",
		Tags:        []string{"Assignments"},
	}, s.handleGetAssignment)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateAssignment",
		Method:      http.MethodPatch,
		Path:        "/api/v1/assignments/{id}",
		Summary:     "Update assignment",
		Description: "Reschedules an assignment or adjusts its planned minutes",
		Tags:        []string{"Assignments"},
	}, s.handleUpdateAssignment)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteAssignment",
		Method:      http.MethodDelete,
		Path:        "/api/v1/assignments/{id}",
		Summary:     "Delete assignment",
		Description: "Deletes an assignment and all of its sessions",
		Tags:        []string{"Assignments"},
	}, s.handleDeleteAssignment)

	huma.Register(s.api, huma.Operation{
		OperationID: "startAssignment",
		Method:      http.MethodPost,
		Path:        "/api/v1/assignments/{id}/start",
		Summary:     "Start assignment",
		Description: "Starts a live activity session for the assignment, pausing any other live session",
		Tags:        []string{"Assignments"},
	}, s.handleStartAssignment)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAssignmentSessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/assignments/{id}/sessions",
		Summary:     "Get assignment sessions",
		Description: "Returns all sessions recorded for an assignment",
		Tags:        []string{"Assignments"},
	}, s.handleGetAssignmentSessions)
}

// === DTOs ===

// CreateAssignmentRequest is the request body for scheduling an assignment.
type CreateAssignmentRequest struct {
	ChapterID      string `json:"chapter_id" validate:"required" doc:"Chapter to schedule"`
	PlanID         string `json:"plan_id,omitempty" doc:"Study plan to attach the assignment to"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02" doc:"Scheduled day (YYYY-MM-DD)"`
	ActivityType   string `json:"activity_type" validate:"required,oneof=study revision" doc:"Activity type: study or revision"`
	PlannedMinutes int    `json:"planned_minutes" validate:"required,gt=0" doc:"Planned duration in minutes"`
}

// CreateAssignmentInput wraps the create assignment request for Huma.
type CreateAssignmentInput struct {
	Body CreateAssignmentRequest
}

// AssignmentOutput wraps a single assignment for Huma.
type AssignmentOutput struct {
	Body *domain.Assignment
}

// GetAssignmentInput contains parameters for getting an assignment.
type GetAssignmentInput struct {
	ID string `path:"id" doc:"Assignment ID"`
}

// GetAssignmentsByDateInput contains parameters for listing a day's assignments.
type GetAssignmentsByDateInput struct {
	Date string `query:"date" required:"true" doc:"Day to list (YYYY-MM-DD)"`
}

// UpdateAssignmentRequest is the request body for updating an assignment.
type UpdateAssignmentRequest struct {
	Date           *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02" doc:"New scheduled day (YYYY-MM-DD)"`
	PlannedMinutes *int    `json:"planned_minutes,omitempty" validate:"omitempty,gt=0" doc:"New planned duration in minutes"`
}

// UpdateAssignmentInput wraps the update assignment request for Huma.
type UpdateAssignmentInput struct {
	ID   string `path:"id" doc:"Assignment ID"`
	Body UpdateAssignmentRequest
}

// SessionListResponse contains a list of activity sessions.
type SessionListResponse struct {
	Sessions []*domain.ActivitySession `json:"sessions" doc:"List of activity sessions"`
}

// SessionListOutput wraps the session list response for Huma.
type SessionListOutput struct {
	Body SessionListResponse
}

// === Handlers ===

func (s *Server) handleCreateAssignment(ctx context.Context, input *CreateAssignmentInput) (*AssignmentOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	assignment, err := s.services.Planner.CreateAssignment(ctx, service.CreateAssignmentInput{
		ChapterID:      input.Body.ChapterID,
		PlanID:         input.Body.PlanID,
		Date:           input.Body.Date,
		ActivityType:   domain.ActivityType(input.Body.ActivityType),
		PlannedMinutes: input.Body.PlannedMinutes,
	})
	if err != nil {
		return nil, err
	}
	return &AssignmentOutput{Body: assignment}, nil
}

func (s *Server) handleGetAssignmentsByDate(ctx context.Context, input *GetAssignmentsByDateInput) (*AssignmentListOutput, error) {
	assignments, err := s.services.Planner.GetAssignmentsByDate(ctx, input.Date)
	if err != nil {
		return nil, err
	}
	return &AssignmentListOutput{Body: AssignmentListResponse{Assignments: assignments}}, nil
}

func (s *Server) handleGetAssignment(ctx context.Context, input *GetAssignmentInput) (*AssignmentOutput, error) {
	assignment, err := s.services.Planner.GetAssignment(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &AssignmentOutput{Body: assignment}, nil
}

func (s *Server) handleUpdateAssignment(ctx context.Context, input *UpdateAssignmentInput) (*AssignmentOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	assignment, err := s.services.Planner.UpdateAssignment(ctx, input.ID, service.UpdateAssignmentInput{
		Date:           input.Body.Date,
		PlannedMinutes: input.Body.PlannedMinutes,
	})
	if err != nil {
		return nil, err
	}
	return &AssignmentOutput{Body: assignment}, nil
}

func (s *Server) handleDeleteAssignment(ctx context.Context, input *GetAssignmentInput) (*MessageOutput, error) {
	if err := s.services.Planner.DeleteAssignment(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Assignment deleted"}}, nil
}

func (s *Server) handleStartAssignment(ctx context.Context, input *GetAssignmentInput) (*SessionOutput, error) {
	session, err := s.services.Sessions.StartActivity(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: session}, nil
}

func (s *Server) handleGetAssignmentSessions(ctx context.Context, input *GetAssignmentInput) (*SessionListOutput, error) {
	if _, err := s.services.Planner.GetAssignment(ctx, input.ID); err != nil {
		return nil, err
	}

	sessions, err := s.services.Sessions.GetAssignmentSessions(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SessionListOutput{Body: SessionListResponse{Sessions: sessions}}, nil
}
