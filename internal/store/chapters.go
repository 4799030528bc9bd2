package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/sse"
)

// initChapters initializes the Chapters entity on the store.
// Indexed by subject for listing a subject's chapters; the chapter ID is part
// of the index key since a subject has many chapters.
func (s *Store) initChapters() {
	s.Chapters = NewEntity[domain.Chapter](s, "chapter:").
		WithIndex("subject", func(c *domain.Chapter) []string {
			return []string{c.SubjectID + ":" + c.ID}
		})
}

// CreateChapter creates a new chapter.
func (s *Store) CreateChapter(ctx context.Context, chapter *domain.Chapter) error {
	if err := s.Chapters.Create(ctx, chapter.ID, chapter); err != nil {
		return fmt.Errorf("creating chapter %s: %w", chapter.ID, err)
	}

	s.emit(sse.NewChapterCreatedEvent(chapter))
	s.indexChapter(ctx, chapter)
	return nil
}

// GetChapter retrieves a chapter by ID.
func (s *Store) GetChapter(ctx context.Context, id string) (*domain.Chapter, error) {
	chapter, err := s.Chapters.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("chapter %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting chapter %s: %w", id, err)
	}
	return chapter, nil
}

// UpdateChapter updates an existing chapter.
func (s *Store) UpdateChapter(ctx context.Context, chapter *domain.Chapter) error {
	if err := s.Chapters.Update(ctx, chapter.ID, chapter); err != nil {
		return fmt.Errorf("updating chapter %s: %w", chapter.ID, err)
	}

	s.emit(sse.NewChapterUpdatedEvent(chapter))
	s.indexChapter(ctx, chapter)
	return nil
}

// DeleteChapter deletes a chapter by ID. Idempotent.
// Cascading to assignments and sessions is the service layer's job.
func (s *Store) DeleteChapter(ctx context.Context, id string) error {
	if err := s.Chapters.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting chapter %s: %w", id, err)
	}

	s.emit(sse.NewChapterDeletedEvent(id, time.Now()))
	if s.searchIndexer != nil {
		if err := s.searchIndexer.DeleteChapter(ctx, id); err != nil && s.logger != nil {
			s.logger.Warn("failed to remove chapter from search index", "chapter_id", id, "error", err)
		}
	}
	return nil
}

// GetSubjectChapters returns all chapters of a subject sorted by position,
// then name.
func (s *Store) GetSubjectChapters(ctx context.Context, subjectID string) ([]*domain.Chapter, error) {
	ids, err := s.scanIndexValues(ctx, s.Chapters.Prefix(), "subject", subjectID+":")
	if err != nil {
		return nil, fmt.Errorf("finding chapters for subject %s: %w", subjectID, err)
	}

	chapters := make([]*domain.Chapter, 0, len(ids))
	for _, id := range ids {
		chapter, err := s.Chapters.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		chapters = append(chapters, chapter)
	}

	slices.SortFunc(chapters, func(a, b *domain.Chapter) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		return strings.Compare(a.Name, b.Name)
	})

	return chapters, nil
}

// ListChapters returns all chapters.
func (s *Store) ListChapters(ctx context.Context) ([]*domain.Chapter, error) {
	var chapters []*domain.Chapter
	for chapter, err := range s.Chapters.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("listing chapters: %w", err)
		}
		chapters = append(chapters, chapter)
	}
	return chapters, nil
}

func (s *Store) indexChapter(ctx context.Context, chapter *domain.Chapter) {
	if s.searchIndexer == nil {
		return
	}
	if err := s.searchIndexer.IndexChapter(ctx, chapter); err != nil && s.logger != nil {
		s.logger.Warn("failed to index chapter", "chapter_id", chapter.ID, "error", err)
	}
}
