package providers

import (
	"github.com/samber/do/v2"

	"github.com/studydeskapp/studydesk-server/internal/config"
	"github.com/studydeskapp/studydesk-server/internal/logger"
	"github.com/studydeskapp/studydesk-server/internal/service"
)

// ProvideSessionManager provides the activity session manager.
func ProvideSessionManager(i do.Injector) (*service.SessionManager, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	archiveHandle := do.MustInvoke[*ArchiveHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	manager := service.NewSessionManager(storeHandle.Store, sseHandle.Manager, cfg.Sessions, log.Logger)
	manager.SetArchiver(archiveHandle.Archive)

	return manager, nil
}

// ProvidePlannerService provides the catalog planner service.
func ProvidePlannerService(i do.Injector) (*service.PlannerService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessions := do.MustInvoke[*service.SessionManager](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPlannerService(storeHandle.Store, sessions, log.Logger), nil
}

// ProvideStatsService provides the stats service.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStatsService(storeHandle.Store, log.Logger), nil
}
