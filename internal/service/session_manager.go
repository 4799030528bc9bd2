// Package service contains the business logic layered between the HTTP API
// and the store. The session manager here is the heart of the application:
// it owns the activity-session lifecycle and the repair pass that keeps
// session data consistent despite crashes and abandoned timers.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/studydeskapp/studydesk-server/internal/config"
	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/id"
	"github.com/studydeskapp/studydesk-server/internal/sse"
	"github.com/studydeskapp/studydesk-server/internal/store"
)

// Archiver is the interface for long-term session history storage.
// This avoids a direct dependency on the SQLite archive implementation and
// lets tests run without one.
type Archiver interface {
	ArchiveSession(ctx context.Context, session *domain.ActivitySession) error
	RecordRepairRun(ctx context.Context, report *RepairReport) error
}

// RepairReport is the structured outcome of one repair pass.
type RepairReport struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	SessionsSeen   int       `json:"sessions_seen"`
	StaleClosed    int       `json:"stale_closed"`
	OutOfDayClosed int       `json:"out_of_day_closed"`
	FlagsRepaired  int       `json:"flags_repaired"`
	OrphansPruned  int       `json:"orphans_pruned"`
	ExpiredPurged  int       `json:"expired_purged"`
	DatesRealigned int       `json:"dates_realigned"`
	Errors         []string  `json:"errors,omitempty"`
}

// Changed reports whether the pass touched anything.
func (r *RepairReport) Changed() bool {
	return r.StaleClosed > 0 || r.OutOfDayClosed > 0 || r.FlagsRepaired > 0 ||
		r.OrphansPruned > 0 || r.ExpiredPurged > 0 || r.DatesRealigned > 0
}

// SessionManager manages the activity-session lifecycle: starting, pausing,
// resuming and completing timed study runs, plus the repair pass.
//
// At most one session is live across the whole application. Starting a new
// activity pauses whatever else is running.
type SessionManager struct {
	store    *store.Store
	events   store.EventEmitter
	logger   *slog.Logger
	policy   config.SessionConfig
	archiver Archiver

	// now is the clock, injectable for deterministic tests.
	now func() time.Time
}

// NewSessionManager creates a new session manager.
func NewSessionManager(st *store.Store, events store.EventEmitter, policy config.SessionConfig, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		store:  st,
		events: events,
		logger: logger,
		policy: policy,
		now:    time.Now,
	}
}

// SetArchiver sets the long-term history archiver.
// Set after construction; the manager works without one.
func (m *SessionManager) SetArchiver(a Archiver) {
	m.archiver = a
}

// SetClock overrides the manager's clock. Test use only.
func (m *SessionManager) SetClock(now func() time.Time) {
	m.now = now
}

// StartActivity starts a new session for a scheduled assignment.
// Starting an assignment that already has a live session hands back that
// session unchanged, so a double-tapped start button stays harmless.
// Any other live session is paused first so only one timer runs at a time.
func (m *SessionManager) StartActivity(ctx context.Context, assignmentID string) (*domain.ActivitySession, error) {
	assignment, err := m.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}

	if !assignment.CanStart() {
		if !assignment.IsLive() {
			return nil, store.ErrInvalidTransition.WithMessage("assignment is already completed")
		}

		sessions, err := m.store.GetAssignmentSessions(ctx, assignmentID)
		if err != nil {
			return nil, fmt.Errorf("get assignment sessions: %w", err)
		}
		for _, existing := range sessions {
			if existing.IsLive() {
				m.logger.Debug("start ignored, assignment already has a live session",
					"session_id", existing.ID,
					"assignment_id", assignmentID)
				return existing, nil
			}
		}
		// The status says live but no session survives. Fall through and
		// start a fresh one to bring the records back in step.
	}

	now := m.now()

	// Pause whatever else is running.
	if err := m.pauseOtherLiveSessions(ctx, now, ""); err != nil {
		return nil, err
	}

	sessionID, err := id.Generate("sess")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	session := domain.NewActivitySession(sessionID, assignment, now)
	if err := m.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	assignment.MarkStarted(now)
	if err := m.store.UpdateAssignment(ctx, assignment); err != nil {
		return nil, fmt.Errorf("update assignment: %w", err)
	}

	m.logger.Info("started activity session",
		"session_id", session.ID,
		"assignment_id", assignmentID,
		"activity_type", assignment.ActivityType)

	timer := domain.DeriveTimerState(session, assignment.PlannedMinutes, now)
	m.events.Emit(sse.NewSessionStartedEvent(session, &timer))

	return session, nil
}

// PauseActivity pauses a live session. Pausing an already-paused or already
// ended session is a no-op that returns the session unchanged.
func (m *SessionManager) PauseActivity(ctx context.Context, sessionID string) (*domain.ActivitySession, error) {
	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if !session.IsLive() {
		return session, nil
	}

	now := m.now()
	if !session.Pause(now) {
		// Already paused with a consistent record.
		return session, nil
	}

	if err := m.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	assignment, err := m.store.GetAssignment(ctx, session.AssignmentID)
	if err == nil {
		assignment.MarkPaused(now)
		if err := m.store.UpdateAssignment(ctx, assignment); err != nil {
			m.logger.Warn("failed to mark assignment paused",
				"assignment_id", session.AssignmentID, "error", err)
		}
	}

	m.logger.Debug("paused activity session", "session_id", session.ID)

	timer := m.timerFor(session, assignment, now)
	m.events.Emit(sse.NewSessionPausedEvent(session, timer))

	return session, nil
}

// ResumeActivity resumes a paused session. Resuming a session that is already
// running, or one that has ended, is a no-op that returns the session
// unchanged. Any other live session is paused first.
func (m *SessionManager) ResumeActivity(ctx context.Context, sessionID string) (*domain.ActivitySession, error) {
	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if !session.IsLive() {
		return session, nil
	}

	now := m.now()

	if err := m.pauseOtherLiveSessions(ctx, now, session.ID); err != nil {
		return nil, err
	}

	if !session.Resume(now) {
		return session, nil
	}

	if err := m.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	assignment, err := m.store.GetAssignment(ctx, session.AssignmentID)
	if err == nil {
		assignment.MarkResumed(now)
		if err := m.store.UpdateAssignment(ctx, assignment); err != nil {
			m.logger.Warn("failed to mark assignment resumed",
				"assignment_id", session.AssignmentID, "error", err)
		}
	}

	m.logger.Debug("resumed activity session", "session_id", session.ID)

	timer := m.timerFor(session, assignment, now)
	m.events.Emit(sse.NewSessionResumedEvent(session, timer))

	return session, nil
}

// CompleteActivity ends a session, recording the actual minutes worked.
// If actualMinutes is zero the elapsed active time is used, rounded to the
// nearest minute. Completing an ended session is a no-op returning the
// session as it was; a double-submitted completion must not fail or change
// the recorded minutes.
func (m *SessionManager) CompleteActivity(ctx context.Context, sessionID string, actualMinutes int) (*domain.ActivitySession, error) {
	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if !session.IsLive() {
		return session, nil
	}

	now := m.now()
	if actualMinutes <= 0 {
		actualMinutes = int(math.Round(session.Elapsed(now).Minutes()))
	}

	session.Complete(now, actualMinutes)
	if err := m.store.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	if err := m.finalizeCompletion(ctx, session, now); err != nil {
		return nil, err
	}

	m.logger.Info("completed activity session",
		"session_id", session.ID,
		"assignment_id", session.AssignmentID,
		"actual_minutes", actualMinutes)

	m.events.Emit(sse.NewSessionCompletedEvent(session))

	return session, nil
}

// finalizeCompletion propagates a completed session to its assignment,
// chapter totals, and the archive.
func (m *SessionManager) finalizeCompletion(ctx context.Context, session *domain.ActivitySession, now time.Time) error {
	assignment, err := m.store.GetAssignment(ctx, session.AssignmentID)
	if err != nil {
		return fmt.Errorf("get assignment: %w", err)
	}

	assignment.MarkCompleted(now, session.DurationMinutes)
	if err := m.store.UpdateAssignment(ctx, assignment); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}

	chapter, err := m.store.GetChapter(ctx, session.ChapterID)
	if err != nil {
		m.logger.Warn("completed session references missing chapter",
			"session_id", session.ID, "chapter_id", session.ChapterID)
	} else {
		chapter.RecordCompletion(session.ActivityType, session.DurationMinutes, now)
		if err := m.store.UpdateChapter(ctx, chapter); err != nil {
			return fmt.Errorf("update chapter: %w", err)
		}
	}

	m.archiveSession(ctx, session)
	return nil
}

// archiveSession pushes a session into long-term history, logging failures.
// Archiving lag must never fail the user-facing operation.
func (m *SessionManager) archiveSession(ctx context.Context, session *domain.ActivitySession) {
	if m.archiver == nil {
		return
	}
	if err := m.archiver.ArchiveSession(ctx, session); err != nil {
		m.logger.Warn("failed to archive session", "session_id", session.ID, "error", err)
	}
}

// pauseOtherLiveSessions pauses every live session except the excluded one.
// Their assignments are marked paused too so status stays in step.
func (m *SessionManager) pauseOtherLiveSessions(ctx context.Context, now time.Time, exceptID string) error {
	live, err := m.store.GetLiveSessions(ctx)
	if err != nil {
		return fmt.Errorf("list live sessions: %w", err)
	}

	for _, other := range live {
		if other.ID == exceptID {
			continue
		}
		if !other.Pause(now) {
			continue
		}
		if err := m.store.UpdateSession(ctx, other); err != nil {
			return fmt.Errorf("pause session %s: %w", other.ID, err)
		}

		if assignment, err := m.store.GetAssignment(ctx, other.AssignmentID); err == nil {
			assignment.MarkPaused(now)
			if err := m.store.UpdateAssignment(ctx, assignment); err != nil {
				m.logger.Warn("failed to mark assignment paused",
					"assignment_id", other.AssignmentID, "error", err)
			}
		}

		m.logger.Info("paused concurrent session", "session_id", other.ID)
		m.events.Emit(sse.NewSessionPausedEvent(other, nil))
	}

	return nil
}

// GetSession retrieves a session by ID.
func (m *SessionManager) GetSession(ctx context.Context, sessionID string) (*domain.ActivitySession, error) {
	return m.store.GetSession(ctx, sessionID)
}

// GetActiveSession returns the current live session and its derived timer
// state, or nil if nothing is running or paused.
func (m *SessionManager) GetActiveSession(ctx context.Context) (*domain.ActivitySession, *domain.TimerState, error) {
	live, err := m.store.GetLiveSessions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list live sessions: %w", err)
	}
	if len(live) == 0 {
		return nil, nil, nil
	}

	session := live[0]
	for _, other := range live[1:] {
		if other.UpdatedAt.After(session.UpdatedAt) {
			session = other
		}
	}

	now := m.now()
	assignment, err := m.store.GetAssignment(ctx, session.AssignmentID)
	timer := m.timerFor(session, assignment, now)
	if err != nil {
		m.logger.Warn("live session references missing assignment",
			"session_id", session.ID, "assignment_id", session.AssignmentID)
	}

	return session, timer, nil
}

// GetTimerState returns the derived timer state for a session.
func (m *SessionManager) GetTimerState(ctx context.Context, sessionID string) (*domain.TimerState, error) {
	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	assignment, err := m.store.GetAssignment(ctx, session.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}

	timer := domain.DeriveTimerState(session, assignment.PlannedMinutes, m.now())
	return &timer, nil
}

// GetAssignmentSessions returns all sessions of an assignment, newest first.
func (m *SessionManager) GetAssignmentSessions(ctx context.Context, assignmentID string) ([]*domain.ActivitySession, error) {
	return m.store.GetAssignmentSessions(ctx, assignmentID)
}

// GetSessionsByDate returns all sessions belonging to a calendar day.
func (m *SessionManager) GetSessionsByDate(ctx context.Context, date string) ([]*domain.ActivitySession, error) {
	return m.store.GetSessionsByDate(ctx, date)
}

// DeleteAssignmentSessions removes every session of an assignment.
// Used by the planner's delete cascade. Ended sessions are archived first.
func (m *SessionManager) DeleteAssignmentSessions(ctx context.Context, assignmentID string) error {
	sessions, err := m.store.GetAssignmentSessions(ctx, assignmentID)
	if err != nil {
		return fmt.Errorf("get assignment sessions: %w", err)
	}

	for _, session := range sessions {
		if !session.IsLive() {
			m.archiveSession(ctx, session)
		}
		if err := m.store.DeleteSession(ctx, session.ID); err != nil {
			return fmt.Errorf("delete session %s: %w", session.ID, err)
		}
	}

	return nil
}

// timerFor derives a timer state, tolerating a missing assignment.
func (m *SessionManager) timerFor(session *domain.ActivitySession, assignment *domain.Assignment, now time.Time) *domain.TimerState {
	planned := 0
	if assignment != nil {
		planned = assignment.PlannedMinutes
	}
	timer := domain.DeriveTimerState(session, planned, now)
	return &timer
}
