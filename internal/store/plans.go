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

// initPlans initializes the Plans entity on the store.
func (s *Store) initPlans() {
	s.Plans = NewEntity[domain.StudyPlan](s, "plan:")
}

// CreatePlan creates a new study plan.
func (s *Store) CreatePlan(ctx context.Context, plan *domain.StudyPlan) error {
	if err := s.Plans.Create(ctx, plan.ID, plan); err != nil {
		return fmt.Errorf("creating plan %s: %w", plan.ID, err)
	}

	s.emit(sse.NewPlanCreatedEvent(plan))
	return nil
}

// GetPlan retrieves a study plan by ID.
func (s *Store) GetPlan(ctx context.Context, id string) (*domain.StudyPlan, error) {
	plan, err := s.Plans.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("plan %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting plan %s: %w", id, err)
	}
	return plan, nil
}

// UpdatePlan updates an existing study plan.
func (s *Store) UpdatePlan(ctx context.Context, plan *domain.StudyPlan) error {
	if err := s.Plans.Update(ctx, plan.ID, plan); err != nil {
		return fmt.Errorf("updating plan %s: %w", plan.ID, err)
	}

	s.emit(sse.NewPlanUpdatedEvent(plan))
	return nil
}

// DeletePlan deletes a study plan by ID. Idempotent.
// Assignments keep working after their plan is gone; the service layer clears
// the dangling plan reference.
func (s *Store) DeletePlan(ctx context.Context, id string) error {
	if err := s.Plans.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting plan %s: %w", id, err)
	}

	s.emit(sse.NewPlanDeletedEvent(id, time.Now()))
	return nil
}

// ListPlans returns all study plans sorted by start date descending.
func (s *Store) ListPlans(ctx context.Context) ([]*domain.StudyPlan, error) {
	var plans []*domain.StudyPlan
	for plan, err := range s.Plans.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("listing plans: %w", err)
		}
		plans = append(plans, plan)
	}

	slices.SortFunc(plans, func(a, b *domain.StudyPlan) int {
		switch {
		case a.StartDate > b.StartDate:
			return -1
		case a.StartDate < b.StartDate:
			return 1
		default:
			return 0
		}
	})

	return plans, nil
}
