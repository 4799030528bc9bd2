package domain

import "time"

// Chapter is a unit of study material within a subject. Completed session
// minutes accumulate here per activity type, together with the last time each
// activity happened.
type Chapter struct {
	ID                       string     `json:"id"`
	SubjectID                string     `json:"subject_id"`
	Name                     string     `json:"name"`
	Position                 int        `json:"position,omitempty"`
	Notes                    string     `json:"notes,omitempty"`
	EstimatedStudyMinutes    int        `json:"estimated_study_minutes,omitempty"`
	CompletedStudyMinutes    int        `json:"completed_study_minutes"`
	CompletedRevisionMinutes int        `json:"completed_revision_minutes"`
	LastStudiedAt            *time.Time `json:"last_studied_at,omitempty"`
	LastRevisedAt            *time.Time `json:"last_revised_at,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// NewChapter creates a chapter with timestamps initialized.
func NewChapter(id, subjectID, name string) *Chapter {
	now := time.Now()
	return &Chapter{
		ID:        id,
		SubjectID: subjectID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordCompletion credits minutes from a completed session to the chapter
// and stamps the matching last-activity time.
func (c *Chapter) RecordCompletion(activityType ActivityType, minutes int, completedAt time.Time) {
	switch activityType {
	case ActivityRevision:
		c.CompletedRevisionMinutes += minutes
		c.LastRevisedAt = &completedAt
	default:
		c.CompletedStudyMinutes += minutes
		c.LastStudiedAt = &completedAt
	}
	c.UpdatedAt = completedAt
}

// Touch updates the modification timestamp.
func (c *Chapter) Touch() {
	c.UpdatedAt = time.Now()
}
