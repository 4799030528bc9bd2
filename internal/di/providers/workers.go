package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/studydeskapp/studydesk-server/internal/config"
	"github.com/studydeskapp/studydesk-server/internal/logger"
	"github.com/studydeskapp/studydesk-server/internal/service"
)

// SessionRepairJob runs the periodic session repair pass.
type SessionRepairJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionRepairJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionRepairJob provides the background repair worker. It runs one
// pass at startup to recover from unclean shutdowns, then repeats on the
// configured interval.
func ProvideSessionRepairJob(i do.Injector) (*SessionRepairJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	sessions := do.MustInvoke[*service.SessionManager](i)
	log := do.MustInvoke[*logger.Logger](i)

	interval := cfg.Sessions.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())

	run := func() {
		report, err := sessions.Repair(ctx)
		if err != nil {
			log.Warn("Session repair failed", "error", err)
			return
		}
		if report.Changed() {
			log.Info("Session repair completed",
				"run_id", report.RunID,
				"sessions_seen", report.SessionsSeen,
				"stale_closed", report.StaleClosed,
				"out_of_day_closed", report.OutOfDayClosed,
				"flags_repaired", report.FlagsRepaired,
				"orphans_pruned", report.OrphansPruned,
				"expired_purged", report.ExpiredPurged,
				"dates_realigned", report.DatesRealigned,
			)
		}
		if len(report.Errors) > 0 {
			log.Warn("Session repair finished with errors", "run_id", report.RunID, "errors", report.Errors)
		}
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Initial repair on startup
		run()

		for {
			select {
			case <-ticker.C:
				run()
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session repair job started", "interval", interval)

	return &SessionRepairJob{cancel: cancel}, nil
}
