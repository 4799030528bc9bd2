package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/service"
)

func (s *Server) registerPlanRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPlans",
		Method:      http.MethodGet,
		Path:        "/api/v1/plans",
		Summary:     "List study plans",
		Description: "Returns all study plans, newest first",
		Tags:        []string{"Plans"},
	}, s.handleListPlans)

	huma.Register(s.api, huma.Operation{
		OperationID: "createPlan",
		Method:      http.MethodPost,
		Path:        "/api/v1/plans",
		Summary:     "Create study plan",
		Description: "Creates a new study plan spanning a date range",
		Tags:        []string{"Plans"},
	}, s.handleCreatePlan)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPlan",
		Method:      http.MethodGet,
		Path:        "/api/v1/plans/{id}",
		Summary:     "Get study plan",
		Description: "Returns a study plan by ID",
		Tags:        []string{"Plans"},
	}, s.handleGetPlan)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePlan",
		Method:      http.MethodDelete,
		Path:        "/api/v1/plans/{id}",
		Summary:     "Delete study plan",
		Description: "Deletes a study plan, detaching its assignments",
		Tags:        []string{"Plans"},
	}, s.handleDeletePlan)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPlanAssignments",
		Method:      http.MethodGet,
		Path:        "/api/v1/plans/{id}/assignments",
		Summary:     "Get plan assignments",
		Description: "Returns a plan's assignments in schedule order",
		Tags:        []string{"Plans"},
	}, s.handleGetPlanAssignments)
}

// === DTOs ===

// PlanListResponse contains a list of study plans.
type PlanListResponse struct {
	Plans []*domain.StudyPlan `json:"plans" doc:"List of study plans"`
}

// PlanListOutput wraps the plan list response for Huma.
type PlanListOutput struct {
	Body PlanListResponse
}

// CreatePlanRequest is the request body for creating a study plan.
type CreatePlanRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=200" doc:"Plan name"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02" doc:"First day of the plan (YYYY-MM-DD)"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02" doc:"Last day of the plan (YYYY-MM-DD)"`
	Notes     string `json:"notes,omitempty" validate:"omitempty,max=2000" doc:"Free-form notes"`
}

// CreatePlanInput wraps the create plan request for Huma.
type CreatePlanInput struct {
	Body CreatePlanRequest
}

// PlanOutput wraps a single study plan for Huma.
type PlanOutput struct {
	Body *domain.StudyPlan
}

// GetPlanInput contains parameters for getting a study plan.
type GetPlanInput struct {
	ID string `path:"id" doc:"Plan ID"`
}

// === Handlers ===

func (s *Server) handleListPlans(ctx context.Context, _ *struct{}) (*PlanListOutput, error) {
	plans, err := s.services.Planner.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	return &PlanListOutput{Body: PlanListResponse{Plans: plans}}, nil
}

func (s *Server) handleCreatePlan(ctx context.Context, input *CreatePlanInput) (*PlanOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	plan, err := s.services.Planner.CreatePlan(ctx, service.CreatePlanInput{
		Name:      input.Body.Name,
		StartDate: input.Body.StartDate,
		EndDate:   input.Body.EndDate,
		Notes:     input.Body.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &PlanOutput{Body: plan}, nil
}

func (s *Server) handleGetPlan(ctx context.Context, input *GetPlanInput) (*PlanOutput, error) {
	plan, err := s.services.Planner.GetPlan(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &PlanOutput{Body: plan}, nil
}

func (s *Server) handleDeletePlan(ctx context.Context, input *GetPlanInput) (*MessageOutput, error) {
	if err := s.services.Planner.DeletePlan(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Plan deleted"}}, nil
}

func (s *Server) handleGetPlanAssignments(ctx context.Context, input *GetPlanInput) (*AssignmentListOutput, error) {
	assignments, err := s.services.Planner.GetPlanAssignments(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &AssignmentListOutput{Body: AssignmentListResponse{Assignments: assignments}}, nil
}
