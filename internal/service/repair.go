package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/sse"
	"github.com/studydeskapp/studydesk-server/internal/store"
)

// Repair runs one pass of session data convergence. The pass is idempotent:
// running it twice in a row leaves the second run with nothing to do.
//
// It performs, in order:
//  1. orphan pruning: sessions whose assignment no longer exists, and live
//     sessions whose assignment is already completed, are removed
//  2. stale auto-completion: live sessions older than the stale threshold are
//     closed with their end time capped at start + StaleCap
//  3. out-of-day closure: live sessions whose assignment is not scheduled for
//     the current day are force-ended and their assignment goes back to
//     scheduled
//  4. flag repair: sessions whose active flag contradicts their pause record
//     are marked inactive
//  5. day realignment: sessions whose calendar day drifted from their
//     assignment's scheduled day are moved back
//  6. retention purge: sessions that started longer than Retention ago are
//     archived and removed from the store, whatever state they are in
func (m *SessionManager) Repair(ctx context.Context) (*RepairReport, error) {
	now := m.now()
	report := &RepairReport{
		RunID:     uuid.NewString(),
		StartedAt: now,
	}

	m.logger.Info("starting session repair pass", "run_id", report.RunID)

	for session, err := range m.store.ListAllSessions(ctx) {
		if err != nil {
			return nil, fmt.Errorf("listing sessions: %w", err)
		}
		report.SessionsSeen++

		assignment, err := m.store.GetAssignment(ctx, session.AssignmentID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				report.Errors = append(report.Errors, fmt.Sprintf("session %s: %v", session.ID, err))
				continue
			}

			// Orphan: the assignment is gone, the session is unreachable.
			if err := m.store.DeleteSession(ctx, session.ID); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("prune session %s: %v", session.ID, err))
				continue
			}
			report.OrphansPruned++
			m.logger.Debug("pruned orphaned session",
				"run_id", report.RunID,
				"session_id", session.ID,
				"assignment_id", session.AssignmentID)
			continue
		}

		// A live session under a completed assignment is debris from an
		// interrupted completion. The assignment record wins.
		if session.IsLive() && assignment.Status == domain.AssignmentCompleted {
			if err := m.store.DeleteSession(ctx, session.ID); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("prune session %s: %v", session.ID, err))
				continue
			}
			report.OrphansPruned++
			m.logger.Debug("pruned live session of completed assignment",
				"run_id", report.RunID,
				"session_id", session.ID,
				"assignment_id", session.AssignmentID)
			continue
		}

		changed := false

		// Stale auto-completion.
		if session.IsStale(now, m.policy.StaleAfter) {
			session.AutoComplete(now, m.policy.StaleCap)
			if err := m.store.UpdateSession(ctx, session); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("close stale session %s: %v", session.ID, err))
				continue
			}
			if err := m.finalizeCompletion(ctx, session, *session.EndedAt); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("finalize stale session %s: %v", session.ID, err))
			}
			report.StaleClosed++
			m.logger.Info("auto-completed stale session",
				"run_id", report.RunID,
				"session_id", session.ID,
				"started_at", session.StartedAt,
				"credited_minutes", session.DurationMinutes)
			m.events.Emit(sse.NewSessionCompletedEvent(session))
		}

		// Out-of-day closure: a live session only belongs on its assignment's
		// scheduled day. One left running past that day is force-ended with
		// the active time it accumulated, and the assignment goes back to
		// scheduled so it can be picked up again.
		if session.IsLive() && assignment.Date != domain.DayOf(now) {
			minutes := int(math.Round(session.Elapsed(now).Minutes()))
			session.Complete(now, minutes)
			if err := m.store.UpdateSession(ctx, session); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("close out-of-day session %s: %v", session.ID, err))
				continue
			}
			assignment.Reschedule(now)
			if err := m.store.UpdateAssignment(ctx, assignment); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("reschedule assignment %s: %v", assignment.ID, err))
			}
			m.archiveSession(ctx, session)
			report.OutOfDayClosed++
			m.logger.Info("force-ended out-of-day session",
				"run_id", report.RunID,
				"session_id", session.ID,
				"scheduled_day", assignment.Date,
				"current_day", domain.DayOf(now),
				"credited_minutes", session.DurationMinutes)
			m.events.Emit(sse.NewSessionCompletedEvent(session))
		}

		// Flag repair: the active flag must agree with the pause record.
		if !session.FlagConsistent() {
			session.IsActive = false
			session.UpdatedAt = now
			changed = true
			report.FlagsRepaired++
			m.logger.Debug("repaired inconsistent active flag",
				"run_id", report.RunID,
				"session_id", session.ID)
		}

		// Day realignment: the session belongs to its assignment's day.
		if session.Date != assignment.Date {
			m.logger.Debug("realigning session day",
				"run_id", report.RunID,
				"session_id", session.ID,
				"from", session.Date,
				"to", assignment.Date)
			session.Date = assignment.Date
			session.UpdatedAt = now
			changed = true
			report.DatesRealigned++
		}

		if changed {
			if err := m.store.UpdateSession(ctx, session); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("update session %s: %v", session.ID, err))
				continue
			}
		}

		// Retention purge: sessions started over Retention ago leave the
		// working store, whatever state they reached. The stale and
		// out-of-day passes above have already ended anything that old.
		if now.Sub(session.StartedAt) > m.policy.Retention {
			m.archiveSession(ctx, session)
			if err := m.store.DeleteSession(ctx, session.ID); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("purge session %s: %v", session.ID, err))
				continue
			}
			report.ExpiredPurged++
			m.logger.Debug("purged expired session",
				"run_id", report.RunID,
				"session_id", session.ID,
				"started_at", session.StartedAt)
		}
	}

	report.FinishedAt = m.now()

	if m.archiver != nil {
		if err := m.archiver.RecordRepairRun(ctx, report); err != nil {
			m.logger.Warn("failed to record repair run", "run_id", report.RunID, "error", err)
		}
	}

	if report.Changed() || len(report.Errors) > 0 {
		m.logger.Info("session repair pass finished",
			"run_id", report.RunID,
			"sessions_seen", report.SessionsSeen,
			"stale_closed", report.StaleClosed,
			"out_of_day_closed", report.OutOfDayClosed,
			"flags_repaired", report.FlagsRepaired,
			"orphans_pruned", report.OrphansPruned,
			"expired_purged", report.ExpiredPurged,
			"dates_realigned", report.DatesRealigned,
			"errors", len(report.Errors))
	} else {
		m.logger.Debug("session repair pass found nothing to do", "run_id", report.RunID)
	}

	m.events.Emit(sse.NewRepairCompletedEvent(report.RunID,
		report.StaleClosed, report.OutOfDayClosed, report.FlagsRepaired,
		report.OrphansPruned, report.ExpiredPurged, report.DatesRealigned))

	return report, nil
}
