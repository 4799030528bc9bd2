// Package domain contains the core business entities and domain logic for the StudyDesk planner.
package domain

import "time"

// DayFormat is the calendar-day layout used everywhere an entity carries a date
// rather than a timestamp (assignment scheduling, "today" filtering).
const DayFormat = "2006-01-02"

// DayOf returns the calendar day of t in DayFormat.
func DayOf(t time.Time) string {
	return t.Format(DayFormat)
}

// ActivityType distinguishes first-pass study from revision.
type ActivityType string

const (
	ActivityStudy    ActivityType = "study"
	ActivityRevision ActivityType = "revision"
)

// Valid reports whether the activity type is one of the known values.
func (a ActivityType) Valid() bool {
	return a == ActivityStudy || a == ActivityRevision
}

// AssignmentStatus is the lifecycle state of an assignment.
// Transitions are driven exclusively by the session service:
// scheduled → in-progress ⇄ paused → completed.
type AssignmentStatus string

const (
	AssignmentScheduled  AssignmentStatus = "scheduled"
	AssignmentInProgress AssignmentStatus = "in-progress"
	AssignmentPaused     AssignmentStatus = "paused"
	AssignmentCompleted  AssignmentStatus = "completed"
)

// Assignment is a chapter scheduled for study or revision on a specific day.
type Assignment struct {
	ID             string           `json:"id"`
	ChapterID      string           `json:"chapter_id"`
	PlanID         string           `json:"plan_id,omitempty"`
	Date           string           `json:"date"` // DayFormat
	ActivityType   ActivityType     `json:"activity_type"`
	PlannedMinutes int              `json:"planned_minutes"`
	Status         AssignmentStatus `json:"status"`
	ActualMinutes  int              `json:"actual_minutes,omitempty"`
	StartedAt      *time.Time       `json:"started_at,omitempty"`
	PausedAt       *time.Time       `json:"paused_at,omitempty"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	EndedAt        *time.Time       `json:"ended_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// NewAssignment creates a scheduled assignment.
func NewAssignment(id, chapterID, date string, activityType ActivityType, plannedMinutes int) *Assignment {
	now := time.Now()
	return &Assignment{
		ID:             id,
		ChapterID:      chapterID,
		Date:           date,
		ActivityType:   activityType,
		PlannedMinutes: plannedMinutes,
		Status:         AssignmentScheduled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// CanStart reports whether a new session may be started for this assignment.
// Starting is only for fresh assignments; paused and in-progress ones are
// resumed through their existing session.
func (a *Assignment) CanStart() bool {
	return a.Status == AssignmentScheduled
}

// IsLive reports whether the assignment currently has timer activity
// (in-progress or paused).
func (a *Assignment) IsLive() bool {
	return a.Status == AssignmentInProgress || a.Status == AssignmentPaused
}

// MarkStarted moves the assignment into in-progress at the given instant.
func (a *Assignment) MarkStarted(now time.Time) {
	a.Status = AssignmentInProgress
	a.StartedAt = &now
	a.PausedAt = nil
	a.UpdatedAt = now
}

// MarkPaused moves the assignment into paused at the given instant.
func (a *Assignment) MarkPaused(now time.Time) {
	a.Status = AssignmentPaused
	a.PausedAt = &now
	a.UpdatedAt = now
}

// MarkResumed moves a paused assignment back to in-progress.
func (a *Assignment) MarkResumed(now time.Time) {
	a.Status = AssignmentInProgress
	a.PausedAt = nil
	a.UpdatedAt = now
}

// MarkCompleted finalizes the assignment with the actual minutes worked.
func (a *Assignment) MarkCompleted(now time.Time, actualMinutes int) {
	a.Status = AssignmentCompleted
	a.ActualMinutes = actualMinutes
	a.CompletedAt = &now
	a.EndedAt = &now
	a.PausedAt = nil
	a.UpdatedAt = now
}

// Reschedule moves the assignment back to scheduled, clearing timer traces.
// Used when a live session is force-ended without completion.
func (a *Assignment) Reschedule(now time.Time) {
	a.Status = AssignmentScheduled
	a.StartedAt = nil
	a.PausedAt = nil
	a.UpdatedAt = now
}
