package domain

import "time"

// Subject is a course or topic being prepared, the top of the catalog
// hierarchy. Chapters belong to subjects.
type Subject struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Color     string     `json:"color,omitempty"`
	ExamDate  *string    `json:"exam_date,omitempty"` // DayFormat
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewSubject creates a subject with timestamps initialized.
func NewSubject(id, name string) *Subject {
	now := time.Now()
	return &Subject{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the modification timestamp.
func (s *Subject) Touch() {
	s.UpdatedAt = time.Now()
}
