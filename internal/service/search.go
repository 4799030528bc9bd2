package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/search"
	"github.com/studydeskapp/studydesk-server/internal/store"
)

// SearchService bridges the search index with the data store. It implements
// store.SearchIndexer so catalog writes keep the index current, and exposes
// query execution and full reindexing.
type SearchService struct {
	index  *search.SearchIndex
	store  *store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.SearchIndex, st *store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  st,
		logger: logger,
	}
}

// Search executes a query across subjects and chapters.
func (s *SearchService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	return s.index.Search(ctx, params)
}

// IndexSubject indexes a single subject.
func (s *SearchService) IndexSubject(_ context.Context, subject *domain.Subject) error {
	if err := s.index.IndexDocument(search.SubjectToSearchDocument(subject)); err != nil {
		return fmt.Errorf("index subject: %w", err)
	}
	s.logger.Debug("indexed subject", "id", subject.ID, "name", subject.Name)
	return nil
}

// DeleteSubject removes a subject from the index.
func (s *SearchService) DeleteSubject(_ context.Context, subjectID string) error {
	return s.index.DeleteDocument(subjectID)
}

// IndexChapter indexes a single chapter.
func (s *SearchService) IndexChapter(_ context.Context, chapter *domain.Chapter) error {
	if err := s.index.IndexDocument(search.ChapterToSearchDocument(chapter)); err != nil {
		return fmt.Errorf("index chapter: %w", err)
	}
	s.logger.Debug("indexed chapter", "id", chapter.ID, "name", chapter.Name)
	return nil
}

// DeleteChapter removes a chapter from the index.
func (s *SearchService) DeleteChapter(_ context.Context, chapterID string) error {
	return s.index.DeleteDocument(chapterID)
}

// DocumentCount returns the number of indexed documents.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// ReindexAll rebuilds the entire search index from the store.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	s.logger.Info("starting full reindex")

	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	subjects, err := s.store.ListSubjects(ctx)
	if err != nil {
		return fmt.Errorf("list subjects: %w", err)
	}

	var docs []*search.SearchDocument
	for _, subject := range subjects {
		docs = append(docs, search.SubjectToSearchDocument(subject))
	}

	chapters, err := s.store.ListChapters(ctx)
	if err != nil {
		return fmt.Errorf("list chapters: %w", err)
	}
	for _, chapter := range chapters {
		docs = append(docs, search.ChapterToSearchDocument(chapter))
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}

	s.logger.Info("full reindex completed", "documents", len(docs))
	return nil
}
