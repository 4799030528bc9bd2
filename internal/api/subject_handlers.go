package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/service"
)

func (s *Server) registerSubjectRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSubjects",
		Method:      http.MethodGet,
		Path:        "/api/v1/subjects",
		Summary:     "List subjects",
		Description: "Returns all subjects ordered by name",
		Tags:        []string{"Subjects"},
	}, s.handleListSubjects)

	huma.Register(s.api, huma.Operation{
		OperationID: "createSubject",
		Method:      http.MethodPost,
		Path:        "/api/v1/subjects",
		Summary:     "Create subject",
		Description: "Creates a new subject",
		Tags:        []string{"Subjects"},
	}, s.handleCreateSubject)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSubject",
		Method:      http.MethodGet,
		Path:        "/api/v1/subjects/{id}",
		Summary:     "Get subject",
		Description: "Returns a subject by ID",
		Tags:        []string{"Subjects"},
	}, s.handleGetSubject)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSubject",
		Method:      http.MethodPatch,
		Path:        "/api/v1/subjects/{id}",
		Summary:     "Update subject",
		Description: "Applies a partial update to a subject",
		Tags:        []string{"Subjects"},
	}, s.handleUpdateSubject)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSubject",
		Method:      http.MethodDelete,
		Path:        "/api/v1/subjects/{id}",
		Summary:     "Delete subject",
		Description: "Deletes a subject along with its chapters, assignments and sessions",
		Tags:        []string{"Subjects"},
	}, s.handleDeleteSubject)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSubjectChapters",
		Method:      http.MethodGet,
		Path:        "/api/v1/subjects/{id}/chapters",
		Summary:     "Get subject chapters",
		Description: "Returns a subject's chapters in position order",
		Tags:        []string{"Subjects"},
	}, s.handleGetSubjectChapters)
}

// === DTOs ===

// SubjectListResponse contains a list of subjects.
type SubjectListResponse struct {
	Subjects []*domain.Subject `json:"subjects" doc:"List of subjects"`
}

// SubjectListOutput wraps the subject list response for Huma.
type SubjectListOutput struct {
	Body SubjectListResponse
}

// CreateSubjectRequest is the request body for creating a subject.
type CreateSubjectRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200" doc:"Subject name, unique case-insensitively"`
	Color    string `json:"color,omitempty" validate:"omitempty,max=20" doc:"Display color"`
	ExamDate string `json:"exam_date,omitempty" validate:"omitempty,datetime=2006-01-02" doc:"Exam date (YYYY-MM-DD)"`
	Notes    string `json:"notes,omitempty" validate:"omitempty,max=2000" doc:"Free-form notes"`
}

// CreateSubjectInput wraps the create subject request for Huma.
type CreateSubjectInput struct {
	Body CreateSubjectRequest
}

// SubjectOutput wraps a single subject for Huma.
type SubjectOutput struct {
	Body *domain.Subject
}

// GetSubjectInput contains parameters for getting a subject.
type GetSubjectInput struct {
	ID string `path:"id" doc:"Subject ID"`
}

// UpdateSubjectRequest is the request body for updating a subject.
// Omitted fields are left unchanged; an empty exam_date clears it.
type UpdateSubjectRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=200" doc:"Subject name"`
	Color    *string `json:"color,omitempty" validate:"omitempty,max=20" doc:"Display color"`
	ExamDate *string `json:"exam_date,omitempty" validate:"omitempty,datetime=2006-01-02" doc:"Exam date (YYYY-MM-DD)"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=2000" doc:"Free-form notes"`
}

// UpdateSubjectInput wraps the update subject request for Huma.
type UpdateSubjectInput struct {
	ID   string `path:"id" doc:"Subject ID"`
	Body UpdateSubjectRequest
}

// DeleteSubjectInput contains parameters for deleting a subject.
type DeleteSubjectInput struct {
	ID string `path:"id" doc:"Subject ID"`
}

// ChapterListResponse contains a list of chapters.
type ChapterListResponse struct {
	Chapters []*domain.Chapter `json:"chapters" doc:"List of chapters"`
}

// ChapterListOutput wraps the chapter list response for Huma.
type ChapterListOutput struct {
	Body ChapterListResponse
}

// === Handlers ===

func (s *Server) handleListSubjects(ctx context.Context, _ *struct{}) (*SubjectListOutput, error) {
	subjects, err := s.services.Planner.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	return &SubjectListOutput{Body: SubjectListResponse{Subjects: subjects}}, nil
}

func (s *Server) handleCreateSubject(ctx context.Context, input *CreateSubjectInput) (*SubjectOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	subject, err := s.services.Planner.CreateSubject(ctx, service.CreateSubjectInput{
		Name:     input.Body.Name,
		Color:    input.Body.Color,
		ExamDate: input.Body.ExamDate,
		Notes:    input.Body.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &SubjectOutput{Body: subject}, nil
}

func (s *Server) handleGetSubject(ctx context.Context, input *GetSubjectInput) (*SubjectOutput, error) {
	subject, err := s.services.Planner.GetSubject(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SubjectOutput{Body: subject}, nil
}

func (s *Server) handleUpdateSubject(ctx context.Context, input *UpdateSubjectInput) (*SubjectOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	subject, err := s.services.Planner.UpdateSubject(ctx, input.ID, service.UpdateSubjectInput{
		Name:     input.Body.Name,
		Color:    input.Body.Color,
		ExamDate: input.Body.ExamDate,
		Notes:    input.Body.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &SubjectOutput{Body: subject}, nil
}

func (s *Server) handleDeleteSubject(ctx context.Context, input *DeleteSubjectInput) (*MessageOutput, error) {
	if err := s.services.Planner.DeleteSubject(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Subject deleted"}}, nil
}

func (s *Server) handleGetSubjectChapters(ctx context.Context, input *GetSubjectInput) (*ChapterListOutput, error) {
	if _, err := s.services.Planner.GetSubject(ctx, input.ID); err != nil {
		return nil, err
	}

	chapters, err := s.services.Planner.GetSubjectChapters(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ChapterListOutput{Body: ChapterListResponse{Chapters: chapters}}, nil
}
