package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/id"
	"github.com/studydeskapp/studydesk-server/internal/store"
)

// PlannerService manages the catalog: subjects, chapters, study plans and
// assignments. Deletions cascade downward (subject -> chapters -> assignments
// -> sessions) so the session manager never sees dangling references outside
// of crash windows, which the repair pass covers.
type PlannerService struct {
	store    *store.Store
	logger   *slog.Logger
	sessions *SessionManager
}

// NewPlannerService creates a new planner service.
func NewPlannerService(st *store.Store, sessions *SessionManager, logger *slog.Logger) *PlannerService {
	return &PlannerService{
		store:    st,
		logger:   logger,
		sessions: sessions,
	}
}

// --- Subjects ---

// CreateSubjectInput holds the fields for creating a subject.
type CreateSubjectInput struct {
	Name     string
	Color    string
	ExamDate string
	Notes    string
}

// CreateSubject creates a subject. Names are unique case-insensitively.
func (s *PlannerService) CreateSubject(ctx context.Context, in CreateSubjectInput) (*domain.Subject, error) {
	subjectID, err := id.Generate("sub")
	if err != nil {
		return nil, fmt.Errorf("generate subject ID: %w", err)
	}

	subject := domain.NewSubject(subjectID, in.Name)
	subject.Color = in.Color
	subject.Notes = in.Notes
	if in.ExamDate != "" {
		if err := validateDay(in.ExamDate); err != nil {
			return nil, err
		}
		subject.ExamDate = &in.ExamDate
	}

	if err := s.store.CreateSubject(ctx, subject); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, store.ErrAlreadyExists.WithMessage(fmt.Sprintf("subject %q already exists", in.Name))
		}
		return nil, err
	}

	s.logger.Info("created subject", "subject_id", subject.ID, "name", subject.Name)
	return subject, nil
}

// GetSubject retrieves a subject by ID.
func (s *PlannerService) GetSubject(ctx context.Context, subjectID string) (*domain.Subject, error) {
	return s.store.GetSubject(ctx, subjectID)
}

// ListSubjects returns all subjects.
func (s *PlannerService) ListSubjects(ctx context.Context) ([]*domain.Subject, error) {
	return s.store.ListSubjects(ctx)
}

// UpdateSubjectInput holds the updatable subject fields. Nil means unchanged.
type UpdateSubjectInput struct {
	Name     *string
	Color    *string
	ExamDate *string
	Notes    *string
}

// UpdateSubject applies a partial update to a subject.
func (s *PlannerService) UpdateSubject(ctx context.Context, subjectID string, in UpdateSubjectInput) (*domain.Subject, error) {
	subject, err := s.store.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		subject.Name = *in.Name
	}
	if in.Color != nil {
		subject.Color = *in.Color
	}
	if in.ExamDate != nil {
		if *in.ExamDate == "" {
			subject.ExamDate = nil
		} else {
			if err := validateDay(*in.ExamDate); err != nil {
				return nil, err
			}
			subject.ExamDate = in.ExamDate
		}
	}
	if in.Notes != nil {
		subject.Notes = *in.Notes
	}
	subject.Touch()

	if err := s.store.UpdateSubject(ctx, subject); err != nil {
		return nil, err
	}
	return subject, nil
}

// DeleteSubject deletes a subject and cascades to its chapters, their
// assignments, and those assignments' sessions.
func (s *PlannerService) DeleteSubject(ctx context.Context, subjectID string) error {
	chapters, err := s.store.GetSubjectChapters(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("get subject chapters: %w", err)
	}

	for _, chapter := range chapters {
		if err := s.DeleteChapter(ctx, chapter.ID); err != nil {
			return fmt.Errorf("cascade delete chapter %s: %w", chapter.ID, err)
		}
	}

	if err := s.store.DeleteSubject(ctx, subjectID); err != nil {
		return err
	}

	s.logger.Info("deleted subject", "subject_id", subjectID, "chapters_removed", len(chapters))
	return nil
}

// --- Chapters ---

// CreateChapterInput holds the fields for creating a chapter.
type CreateChapterInput struct {
	SubjectID             string
	Name                  string
	Position              int
	Notes                 string
	EstimatedStudyMinutes int
}

// CreateChapter creates a chapter under an existing subject.
func (s *PlannerService) CreateChapter(ctx context.Context, in CreateChapterInput) (*domain.Chapter, error) {
	if _, err := s.store.GetSubject(ctx, in.SubjectID); err != nil {
		return nil, err
	}

	chapterID, err := id.Generate("chap")
	if err != nil {
		return nil, fmt.Errorf("generate chapter ID: %w", err)
	}

	chapter := domain.NewChapter(chapterID, in.SubjectID, in.Name)
	chapter.Position = in.Position
	chapter.Notes = in.Notes
	chapter.EstimatedStudyMinutes = in.EstimatedStudyMinutes

	if err := s.store.CreateChapter(ctx, chapter); err != nil {
		return nil, err
	}

	s.logger.Info("created chapter", "chapter_id", chapter.ID, "subject_id", in.SubjectID)
	return chapter, nil
}

// GetChapter retrieves a chapter by ID.
func (s *PlannerService) GetChapter(ctx context.Context, chapterID string) (*domain.Chapter, error) {
	return s.store.GetChapter(ctx, chapterID)
}

// GetSubjectChapters returns a subject's chapters in position order.
func (s *PlannerService) GetSubjectChapters(ctx context.Context, subjectID string) ([]*domain.Chapter, error) {
	return s.store.GetSubjectChapters(ctx, subjectID)
}

// UpdateChapterInput holds the updatable chapter fields. Nil means unchanged.
type UpdateChapterInput struct {
	Name                  *string
	Position              *int
	Notes                 *string
	EstimatedStudyMinutes *int
}

// UpdateChapter applies a partial update to a chapter.
func (s *PlannerService) UpdateChapter(ctx context.Context, chapterID string, in UpdateChapterInput) (*domain.Chapter, error) {
	chapter, err := s.store.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		chapter.Name = *in.Name
	}
	if in.Position != nil {
		chapter.Position = *in.Position
	}
	if in.Notes != nil {
		chapter.Notes = *in.Notes
	}
	if in.EstimatedStudyMinutes != nil {
		chapter.EstimatedStudyMinutes = *in.EstimatedStudyMinutes
	}
	chapter.Touch()

	if err := s.store.UpdateChapter(ctx, chapter); err != nil {
		return nil, err
	}
	return chapter, nil
}

// DeleteChapter deletes a chapter and cascades to its assignments and their
// sessions.
func (s *PlannerService) DeleteChapter(ctx context.Context, chapterID string) error {
	assignments, err := s.store.GetChapterAssignments(ctx, chapterID)
	if err != nil {
		return fmt.Errorf("get chapter assignments: %w", err)
	}

	for _, assignment := range assignments {
		if err := s.DeleteAssignment(ctx, assignment.ID); err != nil {
			return fmt.Errorf("cascade delete assignment %s: %w", assignment.ID, err)
		}
	}

	if err := s.store.DeleteChapter(ctx, chapterID); err != nil {
		return err
	}

	s.logger.Info("deleted chapter", "chapter_id", chapterID, "assignments_removed", len(assignments))
	return nil
}

// --- Study plans ---

// CreatePlanInput holds the fields for creating a study plan.
type CreatePlanInput struct {
	Name      string
	StartDate string
	EndDate   string
	Notes     string
}

// CreatePlan creates a study plan.
func (s *PlannerService) CreatePlan(ctx context.Context, in CreatePlanInput) (*domain.StudyPlan, error) {
	if err := validateDay(in.StartDate); err != nil {
		return nil, err
	}
	if err := validateDay(in.EndDate); err != nil {
		return nil, err
	}
	if in.EndDate < in.StartDate {
		return nil, store.ErrInvalidInput.WithMessage("plan end date is before its start date")
	}

	planID, err := id.Generate("plan")
	if err != nil {
		return nil, fmt.Errorf("generate plan ID: %w", err)
	}

	plan := domain.NewStudyPlan(planID, in.Name, in.StartDate, in.EndDate)
	plan.Notes = in.Notes

	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}

	s.logger.Info("created study plan", "plan_id", plan.ID, "start", plan.StartDate, "end", plan.EndDate)
	return plan, nil
}

// GetPlan retrieves a study plan by ID.
func (s *PlannerService) GetPlan(ctx context.Context, planID string) (*domain.StudyPlan, error) {
	return s.store.GetPlan(ctx, planID)
}

// ListPlans returns all study plans, newest first.
func (s *PlannerService) ListPlans(ctx context.Context) ([]*domain.StudyPlan, error) {
	return s.store.ListPlans(ctx)
}

// GetPlanAssignments returns a plan's assignments in schedule order.
func (s *PlannerService) GetPlanAssignments(ctx context.Context, planID string) ([]*domain.Assignment, error) {
	if _, err := s.store.GetPlan(ctx, planID); err != nil {
		return nil, err
	}
	return s.store.GetPlanAssignments(ctx, planID)
}

// DeletePlan deletes a study plan. Its assignments survive with the plan
// reference cleared.
func (s *PlannerService) DeletePlan(ctx context.Context, planID string) error {
	assignments, err := s.store.GetPlanAssignments(ctx, planID)
	if err != nil {
		return fmt.Errorf("get plan assignments: %w", err)
	}

	for _, assignment := range assignments {
		assignment.PlanID = ""
		assignment.UpdatedAt = time.Now()
		if err := s.store.UpdateAssignment(ctx, assignment); err != nil {
			return fmt.Errorf("detach assignment %s: %w", assignment.ID, err)
		}
	}

	if err := s.store.DeletePlan(ctx, planID); err != nil {
		return err
	}

	s.logger.Info("deleted study plan", "plan_id", planID, "assignments_detached", len(assignments))
	return nil
}

// --- Assignments ---

// CreateAssignmentInput holds the fields for scheduling an assignment.
type CreateAssignmentInput struct {
	ChapterID      string
	PlanID         string
	Date           string
	ActivityType   domain.ActivityType
	PlannedMinutes int
}

// CreateAssignment schedules a chapter for study or revision on a day.
func (s *PlannerService) CreateAssignment(ctx context.Context, in CreateAssignmentInput) (*domain.Assignment, error) {
	if !in.ActivityType.Valid() {
		return nil, store.ErrInvalidInput.WithMessage(fmt.Sprintf("unknown activity type %q", in.ActivityType))
	}
	if in.PlannedMinutes <= 0 {
		return nil, store.ErrInvalidInput.WithMessage("planned minutes must be positive")
	}
	if err := validateDay(in.Date); err != nil {
		return nil, err
	}

	if _, err := s.store.GetChapter(ctx, in.ChapterID); err != nil {
		return nil, err
	}
	if in.PlanID != "" {
		plan, err := s.store.GetPlan(ctx, in.PlanID)
		if err != nil {
			return nil, err
		}
		if !plan.Contains(in.Date) {
			return nil, store.ErrInvalidInput.WithMessage(
				fmt.Sprintf("date %s falls outside plan %s (%s to %s)", in.Date, plan.ID, plan.StartDate, plan.EndDate))
		}
	}

	assignmentID, err := id.Generate("asgn")
	if err != nil {
		return nil, fmt.Errorf("generate assignment ID: %w", err)
	}

	assignment := domain.NewAssignment(assignmentID, in.ChapterID, in.Date, in.ActivityType, in.PlannedMinutes)
	assignment.PlanID = in.PlanID

	if err := s.store.CreateAssignment(ctx, assignment); err != nil {
		return nil, err
	}

	s.logger.Info("created assignment",
		"assignment_id", assignment.ID,
		"chapter_id", in.ChapterID,
		"date", in.Date,
		"activity_type", in.ActivityType)
	return assignment, nil
}

// GetAssignment retrieves an assignment by ID.
func (s *PlannerService) GetAssignment(ctx context.Context, assignmentID string) (*domain.Assignment, error) {
	return s.store.GetAssignment(ctx, assignmentID)
}

// GetAssignmentsByDate returns all assignments scheduled for a day.
func (s *PlannerService) GetAssignmentsByDate(ctx context.Context, date string) ([]*domain.Assignment, error) {
	if err := validateDay(date); err != nil {
		return nil, err
	}
	return s.store.GetAssignmentsByDate(ctx, date)
}

// UpdateAssignmentInput holds the updatable assignment fields. Nil means
// unchanged.
type UpdateAssignmentInput struct {
	Date           *string
	PlannedMinutes *int
}

// UpdateAssignment reschedules an assignment or adjusts its planned minutes.
// Completed assignments are immutable.
func (s *PlannerService) UpdateAssignment(ctx context.Context, assignmentID string, in UpdateAssignmentInput) (*domain.Assignment, error) {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	if assignment.Status == domain.AssignmentCompleted {
		return nil, store.ErrInvalidTransition.WithMessage("completed assignments cannot be modified")
	}

	if in.Date != nil {
		if err := validateDay(*in.Date); err != nil {
			return nil, err
		}
		assignment.Date = *in.Date
	}
	if in.PlannedMinutes != nil {
		if *in.PlannedMinutes <= 0 {
			return nil, store.ErrInvalidInput.WithMessage("planned minutes must be positive")
		}
		assignment.PlannedMinutes = *in.PlannedMinutes
	}
	assignment.UpdatedAt = time.Now()

	if err := s.store.UpdateAssignment(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// DeleteAssignment deletes an assignment and all of its sessions.
func (s *PlannerService) DeleteAssignment(ctx context.Context, assignmentID string) error {
	if err := s.sessions.DeleteAssignmentSessions(ctx, assignmentID); err != nil {
		return err
	}

	if err := s.store.DeleteAssignment(ctx, assignmentID); err != nil {
		return err
	}

	s.logger.Info("deleted assignment", "assignment_id", assignmentID)
	return nil
}

// validateDay checks a calendar-day string against the storage layout.
func validateDay(date string) error {
	if _, err := time.Parse(domain.DayFormat, date); err != nil {
		return store.ErrInvalidInput.WithMessage(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}
	return nil
}
