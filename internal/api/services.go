package api

import (
	"github.com/studydeskapp/studydesk-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Sessions *service.SessionManager
	Planner  *service.PlannerService
	Stats    *service.StatsService
	Search   *service.SearchService
}
