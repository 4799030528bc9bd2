package store

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/studydeskapp/studydesk-server/internal/domain"
)

// initSessions initializes the Sessions entity on the store.
// Indexed by assignment (finding the live session, cascade deletes) and date
// (daily history). Index keys include the session ID since multiple sessions
// can exist for the same assignment over time.
func (s *Store) initSessions() {
	s.Sessions = NewEntity[domain.ActivitySession](s, "session:").
		WithIndex("assignment", func(session *domain.ActivitySession) []string {
			return []string{session.AssignmentID + ":" + session.ID}
		}).
		WithIndex("date", func(session *domain.ActivitySession) []string {
			return []string{session.Date + ":" + session.ID}
		})
}

// CreateSession creates a new activity session.
// Returns ErrAlreadyExists if a session with this ID already exists.
func (s *Store) CreateSession(ctx context.Context, session *domain.ActivitySession) error {
	if err := s.Sessions.Create(ctx, session.ID, session); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return fmt.Errorf("session %s: %w", session.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("creating session %s: %w", session.ID, err)
	}
	return nil
}

// GetSession retrieves an activity session by ID.
// Returns ErrNotFound if the session does not exist.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.ActivitySession, error) {
	session, err := s.Sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}
	return session, nil
}

// UpdateSession updates an existing activity session.
// Returns ErrNotFound if the session does not exist.
func (s *Store) UpdateSession(ctx context.Context, session *domain.ActivitySession) error {
	if err := s.Sessions.Update(ctx, session.ID, session); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("session %s: %w", session.ID, ErrNotFound)
		}
		return fmt.Errorf("updating session %s: %w", session.ID, err)
	}
	return nil
}

// DeleteSession deletes an activity session by ID. Idempotent.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if err := s.Sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// GetAssignmentSessions returns all sessions for an assignment sorted by
// start time descending.
func (s *Store) GetAssignmentSessions(ctx context.Context, assignmentID string) ([]*domain.ActivitySession, error) {
	sessions, err := s.getSessionsWithPrefix(ctx, "assignment", assignmentID+":")
	if err != nil {
		return nil, fmt.Errorf("finding sessions for assignment %s: %w", assignmentID, err)
	}

	slices.SortFunc(sessions, func(a, b *domain.ActivitySession) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	return sessions, nil
}

// GetActiveSessionForAssignment returns the live (unended) session for an
// assignment, or nil if none exists. If data drift has produced more than one
// live session, the most recently updated one wins and the anomaly is logged;
// the repair pass converges the rest.
func (s *Store) GetActiveSessionForAssignment(ctx context.Context, assignmentID string) (*domain.ActivitySession, error) {
	sessions, err := s.getSessionsWithPrefix(ctx, "assignment", assignmentID+":")
	if err != nil {
		return nil, fmt.Errorf("finding sessions for assignment %s: %w", assignmentID, err)
	}

	var live []*domain.ActivitySession
	for _, session := range sessions {
		if session.IsLive() {
			live = append(live, session)
		}
	}

	if len(live) == 0 {
		return nil, nil
	}

	if len(live) > 1 {
		if s.logger != nil {
			s.logger.Warn("multiple live sessions found for assignment",
				"assignment_id", assignmentID,
				"count", len(live))
		}

		mostRecent := live[0]
		for _, session := range live[1:] {
			if session.UpdatedAt.After(mostRecent.UpdatedAt) {
				mostRecent = session
			}
		}
		return mostRecent, nil
	}

	return live[0], nil
}

// GetSessionsByDate returns all sessions belonging to a calendar day sorted
// by start time descending.
func (s *Store) GetSessionsByDate(ctx context.Context, date string) ([]*domain.ActivitySession, error) {
	sessions, err := s.getSessionsWithPrefix(ctx, "date", date+":")
	if err != nil {
		return nil, fmt.Errorf("finding sessions for date %s: %w", date, err)
	}

	slices.SortFunc(sessions, func(a, b *domain.ActivitySession) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	return sessions, nil
}

// GetLiveSessions returns every session that has not ended yet.
// Used by the active-session endpoint and as the repair pass's worklist.
func (s *Store) GetLiveSessions(ctx context.Context) ([]*domain.ActivitySession, error) {
	var live []*domain.ActivitySession
	for session, err := range s.Sessions.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("listing sessions: %w", err)
		}
		if session.IsLive() {
			live = append(live, session)
		}
	}
	return live, nil
}

// ListAllSessions returns an iterator over all sessions.
// This is useful for repair passes and analytics.
func (s *Store) ListAllSessions(ctx context.Context) iter.Seq2[*domain.ActivitySession, error] {
	return s.Sessions.List(ctx)
}

// getSessionsWithPrefix retrieves all sessions matching an index prefix.
func (s *Store) getSessionsWithPrefix(ctx context.Context, indexName, prefix string) ([]*domain.ActivitySession, error) {
	ids, err := s.scanIndexValues(ctx, s.Sessions.Prefix(), indexName, prefix)
	if err != nil {
		return nil, err
	}

	sessions := make([]*domain.ActivitySession, 0, len(ids))
	for _, id := range ids {
		session, err := s.Sessions.Get(ctx, id)
		if err != nil {
			// Skip if the record vanished under the index.
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}
