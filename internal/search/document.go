// Package search provides full-text search over the catalog using Bleve.
// Subjects and chapters are indexed as unified documents with type
// discrimination, so one query covers both.
package search

import (
	"github.com/studydeskapp/studydesk-server/internal/domain"
)

// DocType represents the type of document in the unified index.
type DocType string

// Document types for the search index.
const (
	DocTypeSubject DocType = "subject"
	DocTypeChapter DocType = "chapter"
)

// SearchDocument is the unified document structure for the Bleve index.
type SearchDocument struct {
	ID   string  `json:"id"`
	Type DocType `json:"type"`

	// Primary searchable text: subject name or chapter name.
	Name string `json:"name"`

	// Free-form notes, searchable but not stored.
	Notes string `json:"notes,omitempty"`

	// Chapter-specific fields (empty for subjects).
	SubjectID string `json:"subject_id,omitempty"`
	Position  int    `json:"position,omitempty"`

	// Timestamps for sorting by recency. Unix millis.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names, but the index mapping uses
// lowercase names, so we convert explicitly.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"type":       string(d.Type),
		"name":       d.Name,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	if d.Notes != "" {
		m["notes"] = d.Notes
	}
	if d.SubjectID != "" {
		m["subject_id"] = d.SubjectID
	}
	if d.Position > 0 {
		m["position"] = d.Position
	}

	return m
}

// SubjectToSearchDocument converts a subject to a SearchDocument.
func SubjectToSearchDocument(s *domain.Subject) *SearchDocument {
	return &SearchDocument{
		ID:        s.ID,
		Type:      DocTypeSubject,
		Name:      s.Name,
		Notes:     s.Notes,
		CreatedAt: s.CreatedAt.UnixMilli(),
		UpdatedAt: s.UpdatedAt.UnixMilli(),
	}
}

// ChapterToSearchDocument converts a chapter to a SearchDocument.
func ChapterToSearchDocument(c *domain.Chapter) *SearchDocument {
	return &SearchDocument{
		ID:        c.ID,
		Type:      DocTypeChapter,
		Name:      c.Name,
		Notes:     c.Notes,
		SubjectID: c.SubjectID,
		Position:  c.Position,
		CreatedAt: c.CreatedAt.UnixMilli(),
		UpdatedAt: c.UpdatedAt.UnixMilli(),
	}
}
