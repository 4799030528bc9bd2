package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/service"
)

func (s *Server) registerChapterRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createChapter",
		Method:      http.MethodPost,
		Path:        "/api/v1/chapters",
		Summary:     "Create chapter",
		Description: "Creates a new chapter under an existing subject",
		Tags:        []string{"Chapters"},
	}, s.handleCreateChapter)

	huma.Register(s.api, huma.Operation{
		OperationID: "getChapter",
		Method:      http.MethodGet,
		Path:        "/api/v1/chapters/{id}",
		Summary:     "Get chapter",
		Description: "Returns a chapter by ID",
		Tags:        []string{"Chapters"},
	}, s.handleGetChapter)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateChapter",
		Method:      http.MethodPatch,
		Path:        "/api/v1/chapters/{id}",
		Summary:     "Update chapter",
		Description: "Applies a partial update to a chapter",
		Tags:        []string{"Chapters"},
	}, s.handleUpdateChapter)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteChapter",
		Method:      http.MethodDelete,
		Path:        "/api/v1/chapters/{id}",
		Summary:     "Delete chapter",
		Description: "Deletes a chapter along with its assignments and sessions",
		Tags:        []string{"Chapters"},
	}, s.handleDeleteChapter)

	huma.Register(s.api, huma.Operation{
		OperationID: "getChapterAssignments",
		Method:      http.MethodGet,
		Path:        "/api/v1/chapters/{id}/assignments",
		Summary:     "Get chapter assignments",
		Description: "Returns a chapter's assignments in schedule order",
		Tags:        []string{"Chapters"},
	}, s.handleGetChapterAssignments)
}

// === DTOs ===

// CreateChapterRequest is the request body for creating a chapter.
type CreateChapterRequest struct {
	SubjectID             string `json:"subject_id" validate:"required" doc:"Parent subject ID"`
	Name                  string `json:"name" validate:"required,min=1,max=200" doc:"Chapter name"`
	Position              int    `json:"position,omitempty" validate:"omitempty,gte=0" doc:"Sort position within the subject"`
	Notes                 string `json:"notes,omitempty" validate:"omitempty,max=2000" doc:"Free-form notes"`
	EstimatedStudyMinutes int    `json:"estimated_study_minutes,omitempty" validate:"omitempty,gte=0" doc:"Estimated minutes to study this chapter"`
}

// CreateChapterInput wraps the create chapter request for Huma.
type CreateChapterInput struct {
	Body CreateChapterRequest
}

// ChapterOutput wraps a single chapter for Huma.
type ChapterOutput struct {
	Body *domain.Chapter
}

// GetChapterInput contains parameters for getting a chapter.
type GetChapterInput struct {
	ID string `path:"id" doc:"Chapter ID"`
}

// UpdateChapterRequest is the request body for updating a chapter.
type UpdateChapterRequest struct {
	Name                  *string `json:"name,omitempty" validate:"omitempty,min=1,max=200" doc:"Chapter name"`
	Position              *int    `json:"position,omitempty" validate:"omitempty,gte=0" doc:"Sort position within the subject"`
	Notes                 *string `json:"notes,omitempty" validate:"omitempty,max=2000" doc:"Free-form notes"`
	EstimatedStudyMinutes *int    `json:"estimated_study_minutes,omitempty" validate:"omitempty,gte=0" doc:"Estimated minutes to study this chapter"`
}

// UpdateChapterInput wraps the update chapter request for Huma.
type UpdateChapterInput struct {
	ID   string `path:"id" doc:"Chapter ID"`
	Body UpdateChapterRequest
}

// DeleteChapterInput contains parameters for deleting a chapter.
type DeleteChapterInput struct {
	ID string `path:"id" doc:"Chapter ID"`
}

// AssignmentListResponse contains a list of assignments.
type AssignmentListResponse struct {
	Assignments []*domain.Assignment `json:"assignments" doc:"List of assignments"`
}

// AssignmentListOutput wraps the assignment list response for Huma.
type AssignmentListOutput struct {
	Body AssignmentListResponse
}

// === Handlers ===

func (s *Server) handleCreateChapter(ctx context.Context, input *CreateChapterInput) (*ChapterOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	chapter, err := s.services.Planner.CreateChapter(ctx, service.CreateChapterInput{
		SubjectID:             input.Body.SubjectID,
		Name:                  input.Body.Name,
		Position:              input.Body.Position,
		Notes:                 input.Body.Notes,
		EstimatedStudyMinutes: input.Body.EstimatedStudyMinutes,
	})
	if err != nil {
		return nil, err
	}
	return &ChapterOutput{Body: chapter}, nil
}

func (s *Server) handleGetChapter(ctx context.Context, input *GetChapterInput) (*ChapterOutput, error) {
	chapter, err := s.services.Planner.GetChapter(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ChapterOutput{Body: chapter}, nil
}

func (s *Server) handleUpdateChapter(ctx context.Context, input *UpdateChapterInput) (*ChapterOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	chapter, err := s.services.Planner.UpdateChapter(ctx, input.ID, service.UpdateChapterInput{
		Name:                  input.Body.Name,
		Position:              input.Body.Position,
		Notes:                 input.Body.Notes,
		EstimatedStudyMinutes: input.Body.EstimatedStudyMinutes,
	})
	if err != nil {
		return nil, err
	}
	return &ChapterOutput{Body: chapter}, nil
}

func (s *Server) handleDeleteChapter(ctx context.Context, input *DeleteChapterInput) (*MessageOutput, error) {
	if err := s.services.Planner.DeleteChapter(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Chapter deleted"}}, nil
}

func (s *Server) handleGetChapterAssignments(ctx context.Context, input *GetChapterInput) (*AssignmentListOutput, error) {
	if _, err := s.services.Planner.GetChapter(ctx, input.ID); err != nil {
		return nil, err
	}

	assignments, err := s.store.GetChapterAssignments(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &AssignmentListOutput{Body: AssignmentListResponse{Assignments: assignments}}, nil
}
