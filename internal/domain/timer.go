package domain

import "time"

// TimerState is the derived client-facing view of a live session's timer.
// It is never persisted; it is computed on demand from the session record.
type TimerState struct {
	SessionID      string `json:"session_id"`
	AssignmentID   string `json:"assignment_id"`
	IsRunning      bool   `json:"is_running"`
	IsPaused       bool   `json:"is_paused"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	PlannedSeconds int    `json:"planned_seconds"`
	Overtime       bool   `json:"overtime"`
}

// DeriveTimerState computes the timer view of s at now, against the
// assignment's planned minutes.
func DeriveTimerState(s *ActivitySession, plannedMinutes int, now time.Time) TimerState {
	elapsed := int(s.Elapsed(now).Seconds())
	planned := plannedMinutes * 60
	return TimerState{
		SessionID:      s.ID,
		AssignmentID:   s.AssignmentID,
		IsRunning:      s.IsLive() && s.IsActive,
		IsPaused:       s.IsLive() && !s.IsActive,
		ElapsedSeconds: elapsed,
		PlannedSeconds: planned,
		Overtime:       planned > 0 && elapsed > planned,
	}
}
