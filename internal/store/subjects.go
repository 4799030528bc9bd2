package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/sse"
)

// normalizeName lowercases and trims a name for case-insensitive index lookups.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// initSubjects initializes the Subjects entity on the store.
// Subject names are unique case-insensitively via the name index.
func (s *Store) initSubjects() {
	s.Subjects = NewEntity[domain.Subject](s, "subject:").
		WithIndexTransform("name",
			func(sub *domain.Subject) []string {
				return []string{normalizeName(sub.Name)}
			},
			normalizeName,
		)
}

// CreateSubject creates a new subject.
// Returns ErrAlreadyExists if the ID or name is already taken.
func (s *Store) CreateSubject(ctx context.Context, subject *domain.Subject) error {
	if err := s.Subjects.Create(ctx, subject.ID, subject); err != nil {
		return fmt.Errorf("creating subject %s: %w", subject.ID, err)
	}

	s.emit(sse.NewSubjectCreatedEvent(subject))
	s.indexSubject(ctx, subject)
	return nil
}

// GetSubject retrieves a subject by ID.
func (s *Store) GetSubject(ctx context.Context, id string) (*domain.Subject, error) {
	subject, err := s.Subjects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("subject %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting subject %s: %w", id, err)
	}
	return subject, nil
}

// GetSubjectByName retrieves a subject by name, case-insensitively.
func (s *Store) GetSubjectByName(ctx context.Context, name string) (*domain.Subject, error) {
	subject, err := s.Subjects.GetByIndex(ctx, "name", name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("subject %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("getting subject by name %q: %w", name, err)
	}
	return subject, nil
}

// UpdateSubject updates an existing subject.
func (s *Store) UpdateSubject(ctx context.Context, subject *domain.Subject) error {
	if err := s.Subjects.Update(ctx, subject.ID, subject); err != nil {
		return fmt.Errorf("updating subject %s: %w", subject.ID, err)
	}

	s.emit(sse.NewSubjectUpdatedEvent(subject))
	s.indexSubject(ctx, subject)
	return nil
}

// DeleteSubject deletes a subject by ID. Idempotent.
// Cascading to chapters and their assignments is the service layer's job.
func (s *Store) DeleteSubject(ctx context.Context, id string) error {
	if err := s.Subjects.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting subject %s: %w", id, err)
	}

	s.emit(sse.NewSubjectDeletedEvent(id, time.Now()))
	if s.searchIndexer != nil {
		if err := s.searchIndexer.DeleteSubject(ctx, id); err != nil && s.logger != nil {
			s.logger.Warn("failed to remove subject from search index", "subject_id", id, "error", err)
		}
	}
	return nil
}

// ListSubjects returns all subjects.
func (s *Store) ListSubjects(ctx context.Context) ([]*domain.Subject, error) {
	var subjects []*domain.Subject
	for subject, err := range s.Subjects.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("listing subjects: %w", err)
		}
		subjects = append(subjects, subject)
	}
	return subjects, nil
}

// indexSubject pushes a subject into the search index, logging failures
// instead of surfacing them so search lag never fails a write.
func (s *Store) indexSubject(ctx context.Context, subject *domain.Subject) {
	if s.searchIndexer == nil {
		return
	}
	if err := s.searchIndexer.IndexSubject(ctx, subject); err != nil && s.logger != nil {
		s.logger.Warn("failed to index subject", "subject_id", subject.ID, "error", err)
	}
}
