// Package store implements durable persistence for the planner on top of
// Badger, a local key-value database. There are no multi-entity transactional
// guarantees across store calls; the repair pass in the service layer exists
// to converge any inconsistencies that result.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/studydeskapp/studydesk-server/internal/domain"
)

// EventEmitter is the interface for emitting SSE events.
// Store uses this to broadcast changes without depending on SSE implementation details.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter {
	return NoopEmitter{}
}

// SearchIndexer is the interface for updating the search index.
// Store uses this to keep search in sync without depending on search implementation.
type SearchIndexer interface {
	IndexSubject(ctx context.Context, subject *domain.Subject) error
	DeleteSubject(ctx context.Context, subjectID string) error
	IndexChapter(ctx context.Context, chapter *domain.Chapter) error
	DeleteChapter(ctx context.Context, chapterID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexSubject is a no-op.
func (NoopSearchIndexer) IndexSubject(context.Context, *domain.Subject) error { return nil }

// DeleteSubject is a no-op.
func (NoopSearchIndexer) DeleteSubject(context.Context, string) error { return nil }

// IndexChapter is a no-op.
func (NoopSearchIndexer) IndexChapter(context.Context, *domain.Chapter) error { return nil }

// DeleteChapter is a no-op.
func (NoopSearchIndexer) DeleteChapter(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// SSE event emitter for broadcasting changes.
	eventEmitter EventEmitter

	// Search indexer for keeping search in sync with store changes.
	// Set via SetSearchIndexer after store creation to avoid circular dependencies.
	searchIndexer SearchIndexer

	// Generic entities
	Subjects    *Entity[domain.Subject]
	Chapters    *Entity[domain.Chapter]
	Plans       *Entity[domain.StudyPlan]
	Assignments *Entity[domain.Assignment]
	Sessions    *Entity[domain.ActivitySession]
}

// New creates a new Store instance with the given database path and event emitter.
// The emitter is required and used to broadcast store changes via SSE.
func New(path string, logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:           db,
		logger:       logger,
		eventEmitter: emitter,
	}

	store.initSubjects()
	store.initChapters()
	store.initPlans()
	store.initAssignments()
	store.initSessions()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// SetSearchIndexer sets the search indexer for keeping search in sync.
// This is set after store creation to avoid circular dependencies
// (store needs to exist before search service can be created).
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	s.searchIndexer = indexer
}

// emit broadcasts an event if an emitter is configured.
func (s *Store) emit(event any) {
	if s.eventEmitter != nil {
		s.eventEmitter.Emit(event)
	}
}

// scanIndexValues collects the values (entity IDs) of all index entries under
// entityPrefix + "idx:" + indexName + ":" + keyPrefix. This is the shared
// building block for one-to-many index queries.
func (s *Store) scanIndexValues(ctx context.Context, entityPrefix, indexName, keyPrefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(entityPrefix + "idx:" + indexName + ":" + keyPrefix)
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return ids, nil
}
