package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/store"
)

// StatsService aggregates planner and session data into daily and per-subject
// summaries. Everything here is derived on demand; nothing is persisted.
type StatsService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(st *store.Store, logger *slog.Logger) *StatsService {
	return &StatsService{store: st, logger: logger}
}

// DailyStats summarizes one calendar day.
type DailyStats struct {
	Date                 string `json:"date"`
	AssignmentsTotal     int    `json:"assignments_total"`
	AssignmentsCompleted int    `json:"assignments_completed"`
	PlannedMinutes       int    `json:"planned_minutes"`
	CompletedMinutes     int    `json:"completed_minutes"`
	StudyMinutes         int    `json:"study_minutes"`
	RevisionMinutes      int    `json:"revision_minutes"`
	SessionCount         int    `json:"session_count"`
}

// SubjectStats summarizes progress on one subject.
type SubjectStats struct {
	SubjectID                string     `json:"subject_id"`
	Name                     string     `json:"name"`
	ChapterCount             int        `json:"chapter_count"`
	EstimatedStudyMinutes    int        `json:"estimated_study_minutes"`
	CompletedStudyMinutes    int        `json:"completed_study_minutes"`
	CompletedRevisionMinutes int        `json:"completed_revision_minutes"`
	LastStudiedAt            *time.Time `json:"last_studied_at,omitempty"`
}

// GetDailyStats computes the summary for a calendar day.
func (s *StatsService) GetDailyStats(ctx context.Context, date string) (*DailyStats, error) {
	if err := validateDay(date); err != nil {
		return nil, err
	}

	assignments, err := s.store.GetAssignmentsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("get assignments: %w", err)
	}

	stats := &DailyStats{Date: date}
	for _, a := range assignments {
		stats.AssignmentsTotal++
		stats.PlannedMinutes += a.PlannedMinutes
		if a.Status == domain.AssignmentCompleted {
			stats.AssignmentsCompleted++
			stats.CompletedMinutes += a.ActualMinutes
			switch a.ActivityType {
			case domain.ActivityRevision:
				stats.RevisionMinutes += a.ActualMinutes
			default:
				stats.StudyMinutes += a.ActualMinutes
			}
		}
	}

	sessions, err := s.store.GetSessionsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}
	stats.SessionCount = len(sessions)

	return stats, nil
}

// GetSubjectStats computes the progress summary for a subject.
func (s *StatsService) GetSubjectStats(ctx context.Context, subjectID string) (*SubjectStats, error) {
	subject, err := s.store.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	chapters, err := s.store.GetSubjectChapters(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("get chapters: %w", err)
	}

	stats := &SubjectStats{
		SubjectID: subject.ID,
		Name:      subject.Name,
	}
	for _, c := range chapters {
		stats.ChapterCount++
		stats.EstimatedStudyMinutes += c.EstimatedStudyMinutes
		stats.CompletedStudyMinutes += c.CompletedStudyMinutes
		stats.CompletedRevisionMinutes += c.CompletedRevisionMinutes
		if c.LastStudiedAt != nil {
			if stats.LastStudiedAt == nil || c.LastStudiedAt.After(*stats.LastStudiedAt) {
				stats.LastStudiedAt = c.LastStudiedAt
			}
		}
	}

	return stats, nil
}

// GetAllSubjectStats computes stats for every subject.
func (s *StatsService) GetAllSubjectStats(ctx context.Context) ([]*SubjectStats, error) {
	subjects, err := s.store.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*SubjectStats, 0, len(subjects))
	for _, subject := range subjects {
		stats, err := s.GetSubjectStats(ctx, subject.ID)
		if err != nil {
			s.logger.Warn("failed to compute subject stats", "subject_id", subject.ID, "error", err)
			continue
		}
		out = append(out, stats)
	}

	return out, nil
}
