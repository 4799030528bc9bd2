package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/studydeskapp/studydesk-server/internal/archive"
	"github.com/studydeskapp/studydesk-server/internal/config"
	"github.com/studydeskapp/studydesk-server/internal/logger"
)

// ArchiveHandle wraps the history archive with shutdown capability.
type ArchiveHandle struct {
	*archive.Archive
}

// Shutdown implements do.Shutdownable.
func (h *ArchiveHandle) Shutdown() error {
	return h.Close()
}

// ProvideArchive provides the SQLite session history archive.
func ProvideArchive(i do.Injector) (*ArchiveHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "history.db")
	arc, err := archive.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("History archive initialized", "path", dbPath)

	return &ArchiveHandle{Archive: arc}, nil
}
