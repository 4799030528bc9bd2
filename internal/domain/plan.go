package domain

import "time"

// StudyPlan groups assignments over a date range, typically the run-up to an
// exam. Assignments reference a plan by ID; deleting a plan does not delete
// its assignments.
type StudyPlan struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate string    `json:"start_date"` // DayFormat
	EndDate   string    `json:"end_date"`   // DayFormat
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStudyPlan creates a plan with timestamps initialized.
func NewStudyPlan(id, name, startDate, endDate string) *StudyPlan {
	now := time.Now()
	return &StudyPlan{
		ID:        id,
		Name:      name,
		StartDate: startDate,
		EndDate:   endDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Contains reports whether the given day falls within the plan's range,
// inclusive on both ends.
func (p *StudyPlan) Contains(date string) bool {
	return date >= p.StartDate && date <= p.EndDate
}

// Touch updates the modification timestamp.
func (p *StudyPlan) Touch() {
	p.UpdatedAt = time.Now()
}
