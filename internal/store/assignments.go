package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/sse"
)

// initAssignments initializes the Assignments entity on the store.
// Indexed by chapter (cascade deletes, chapter history), date (daily agenda),
// and plan (plan views). Index keys include the assignment ID since each of
// these is one-to-many.
func (s *Store) initAssignments() {
	s.Assignments = NewEntity[domain.Assignment](s, "assignment:").
		WithIndex("chapter", func(a *domain.Assignment) []string {
			return []string{a.ChapterID + ":" + a.ID}
		}).
		WithIndex("date", func(a *domain.Assignment) []string {
			return []string{a.Date + ":" + a.ID}
		}).
		WithIndex("plan", func(a *domain.Assignment) []string {
			if a.PlanID == "" {
				return nil
			}
			return []string{a.PlanID + ":" + a.ID}
		})
}

// CreateAssignment creates a new assignment.
func (s *Store) CreateAssignment(ctx context.Context, assignment *domain.Assignment) error {
	if err := s.Assignments.Create(ctx, assignment.ID, assignment); err != nil {
		return fmt.Errorf("creating assignment %s: %w", assignment.ID, err)
	}

	s.emit(sse.NewAssignmentCreatedEvent(assignment))
	return nil
}

// GetAssignment retrieves an assignment by ID.
func (s *Store) GetAssignment(ctx context.Context, id string) (*domain.Assignment, error) {
	assignment, err := s.Assignments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting assignment %s: %w", id, err)
	}
	return assignment, nil
}

// UpdateAssignment updates an existing assignment.
func (s *Store) UpdateAssignment(ctx context.Context, assignment *domain.Assignment) error {
	if err := s.Assignments.Update(ctx, assignment.ID, assignment); err != nil {
		return fmt.Errorf("updating assignment %s: %w", assignment.ID, err)
	}

	s.emit(sse.NewAssignmentUpdatedEvent(assignment))
	return nil
}

// DeleteAssignment deletes an assignment by ID. Idempotent.
// Deleting the assignment's sessions is the service layer's job.
func (s *Store) DeleteAssignment(ctx context.Context, id string) error {
	if err := s.Assignments.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting assignment %s: %w", id, err)
	}

	s.emit(sse.NewAssignmentDeletedEvent(id, time.Now()))
	return nil
}

// GetAssignmentsByDate returns all assignments scheduled for a calendar day,
// sorted by creation time.
func (s *Store) GetAssignmentsByDate(ctx context.Context, date string) ([]*domain.Assignment, error) {
	assignments, err := s.getAssignmentsWithPrefix(ctx, "date", date+":")
	if err != nil {
		return nil, fmt.Errorf("finding assignments for date %s: %w", date, err)
	}

	slices.SortFunc(assignments, func(a, b *domain.Assignment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return assignments, nil
}

// GetChapterAssignments returns all assignments for a chapter.
func (s *Store) GetChapterAssignments(ctx context.Context, chapterID string) ([]*domain.Assignment, error) {
	assignments, err := s.getAssignmentsWithPrefix(ctx, "chapter", chapterID+":")
	if err != nil {
		return nil, fmt.Errorf("finding assignments for chapter %s: %w", chapterID, err)
	}
	return assignments, nil
}

// GetPlanAssignments returns all assignments belonging to a plan, sorted by
// date then creation time.
func (s *Store) GetPlanAssignments(ctx context.Context, planID string) ([]*domain.Assignment, error) {
	assignments, err := s.getAssignmentsWithPrefix(ctx, "plan", planID+":")
	if err != nil {
		return nil, fmt.Errorf("finding assignments for plan %s: %w", planID, err)
	}

	slices.SortFunc(assignments, func(a, b *domain.Assignment) int {
		if a.Date != b.Date {
			if a.Date < b.Date {
				return -1
			}
			return 1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return assignments, nil
}

// ListAllAssignments returns all assignments.
func (s *Store) ListAllAssignments(ctx context.Context) ([]*domain.Assignment, error) {
	var assignments []*domain.Assignment
	for assignment, err := range s.Assignments.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("listing assignments: %w", err)
		}
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}

// getAssignmentsWithPrefix retrieves all assignments matching an index prefix.
func (s *Store) getAssignmentsWithPrefix(ctx context.Context, indexName, prefix string) ([]*domain.Assignment, error) {
	ids, err := s.scanIndexValues(ctx, s.Assignments.Prefix(), indexName, prefix)
	if err != nil {
		return nil, err
	}

	assignments := make([]*domain.Assignment, 0, len(ids))
	for _, id := range ids {
		assignment, err := s.Assignments.Get(ctx, id)
		if err != nil {
			// Skip if the record vanished under the index.
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		assignments = append(assignments, assignment)
	}

	return assignments, nil
}
