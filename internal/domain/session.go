package domain

import "time"

// PauseInterval records one paused span within an activity session.
// An interval with a nil ResumedAt is open: the session is currently paused.
type PauseInterval struct {
	PausedAt        time.Time  `json:"paused_at"`
	ResumedAt       *time.Time `json:"resumed_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
}

// IsOpen reports whether this interval has not been resumed yet.
func (p PauseInterval) IsOpen() bool {
	return p.ResumedAt == nil
}

// Span returns the length of the interval, measuring an open interval up to now.
func (p PauseInterval) Span(now time.Time) time.Duration {
	if p.ResumedAt != nil {
		return p.ResumedAt.Sub(p.PausedAt)
	}
	return now.Sub(p.PausedAt)
}

// ActivitySession is one timed run at an assignment, from start to completion.
// At most one live session exists per assignment. The stored DurationMinutes is
// authoritative only once the session has ended; while live, elapsed time is
// derived from the timestamps via Elapsed.
type ActivitySession struct {
	ID              string          `json:"id"`
	AssignmentID    string          `json:"assignment_id"`
	ChapterID       string          `json:"chapter_id"`
	ActivityType    ActivityType    `json:"activity_type"`
	Date            string          `json:"date"` // DayFormat, day the session belongs to
	StartedAt       time.Time       `json:"started_at"`
	EndedAt         *time.Time      `json:"ended_at,omitempty"`
	IsActive        bool            `json:"is_active"`
	DurationMinutes int             `json:"duration_minutes,omitempty"`
	PausedIntervals []PauseInterval `json:"paused_intervals,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewActivitySession starts a session for the given assignment at now.
func NewActivitySession(id string, a *Assignment, now time.Time) *ActivitySession {
	return &ActivitySession{
		ID:           id,
		AssignmentID: a.ID,
		ChapterID:    a.ChapterID,
		ActivityType: a.ActivityType,
		Date:         a.Date,
		StartedAt:    now,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsLive reports whether the session has not ended yet.
func (s *ActivitySession) IsLive() bool {
	return s.EndedAt == nil
}

// OpenInterval returns the currently open pause interval, or nil.
// Only the last interval can be open.
func (s *ActivitySession) OpenInterval() *PauseInterval {
	if len(s.PausedIntervals) == 0 {
		return nil
	}
	last := &s.PausedIntervals[len(s.PausedIntervals)-1]
	if last.IsOpen() {
		return last
	}
	return nil
}

// FlagConsistent reports whether IsActive agrees with the pause intervals.
// A live session must not claim to be active while an interval is open.
func (s *ActivitySession) FlagConsistent() bool {
	if !s.IsLive() {
		return !s.IsActive
	}
	if s.OpenInterval() != nil {
		return !s.IsActive
	}
	return true
}

// Pause opens a new pause interval at now. Pausing an already-paused session
// only re-asserts IsActive=false; a second interval is never opened. Returns
// whether the session changed.
func (s *ActivitySession) Pause(now time.Time) bool {
	if !s.IsLive() {
		return false
	}
	changed := false
	if s.OpenInterval() == nil {
		s.PausedIntervals = append(s.PausedIntervals, PauseInterval{PausedAt: now})
		changed = true
	}
	if s.IsActive {
		s.IsActive = false
		changed = true
	}
	if changed {
		s.UpdatedAt = now
	}
	return changed
}

// Resume closes the open pause interval at now and marks the session active.
// Resuming a session that is not paused only re-asserts IsActive=true.
// Returns whether the session changed.
func (s *ActivitySession) Resume(now time.Time) bool {
	if !s.IsLive() {
		return false
	}
	changed := false
	if open := s.OpenInterval(); open != nil {
		resumed := now
		open.ResumedAt = &resumed
		open.DurationMinutes = int(resumed.Sub(open.PausedAt).Minutes())
		changed = true
	}
	if !s.IsActive {
		s.IsActive = true
		changed = true
	}
	if changed {
		s.UpdatedAt = now
	}
	return changed
}

// Complete ends the session at now, recording the actual minutes worked.
// An open pause interval is closed at the completion instant so the record
// stays internally consistent. Completing an ended session is a no-op.
func (s *ActivitySession) Complete(now time.Time, actualMinutes int) bool {
	if !s.IsLive() {
		return false
	}
	if open := s.OpenInterval(); open != nil {
		resumed := now
		open.ResumedAt = &resumed
		open.DurationMinutes = int(resumed.Sub(open.PausedAt).Minutes())
	}
	ended := now
	s.EndedAt = &ended
	s.IsActive = false
	s.DurationMinutes = actualMinutes
	s.UpdatedAt = now
	return true
}

// PausedTotal returns the sum of all pause spans, measuring an open interval
// up to now.
func (s *ActivitySession) PausedTotal(now time.Time) time.Duration {
	var total time.Duration
	for _, p := range s.PausedIntervals {
		total += p.Span(now)
	}
	return total
}

// Elapsed returns the active working time accumulated by the session: wall
// time since start minus all paused spans. For an ended session the wall time
// stops at EndedAt. The result never goes negative.
func (s *ActivitySession) Elapsed(now time.Time) time.Duration {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	elapsed := end.Sub(s.StartedAt) - s.PausedTotal(end)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// IsStale reports whether a live session has been open longer than threshold.
func (s *ActivitySession) IsStale(now time.Time, threshold time.Duration) bool {
	return s.IsLive() && now.Sub(s.StartedAt) > threshold
}

// AutoComplete force-closes an abandoned session, capping its end time at
// StartedAt+cap. The recorded duration is the active time observed up to that
// synthetic end, never more than the cap itself.
func (s *ActivitySession) AutoComplete(now time.Time, cap time.Duration) {
	if !s.IsLive() {
		return
	}
	ended := s.StartedAt.Add(cap)
	if open := s.OpenInterval(); open != nil {
		resumed := ended
		if open.PausedAt.After(ended) {
			resumed = open.PausedAt
		}
		open.ResumedAt = &resumed
		open.DurationMinutes = int(resumed.Sub(open.PausedAt).Minutes())
	}
	active := ended.Sub(s.StartedAt) - s.PausedTotal(ended)
	if active < 0 {
		active = 0
	}
	if active > cap {
		active = cap
	}
	s.EndedAt = &ended
	s.IsActive = false
	s.DurationMinutes = int(active.Minutes())
	s.UpdatedAt = now
}
