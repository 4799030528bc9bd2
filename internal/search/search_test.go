package search

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studydeskapp/studydesk-server/internal/domain"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) (*SearchIndex, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "search-test-*")
	require.NoError(t, err)

	index, err := NewSearchIndex(Options{
		DataPath: tmpDir,
		Logger:   nil,
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = index.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return index, cleanup
}

func seedIndex(t *testing.T, index *SearchIndex) {
	t.Helper()

	docs := []*SearchDocument{
		{ID: "sub-math", Type: DocTypeSubject, Name: "Mathematics", Notes: "calculus and algebra"},
		{ID: "sub-phys", Type: DocTypeSubject, Name: "Physics"},
		{ID: "chap-deriv", Type: DocTypeChapter, Name: "Derivatives", SubjectID: "sub-math", Position: 1},
		{ID: "chap-integ", Type: DocTypeChapter, Name: "Integrals", SubjectID: "sub-math", Position: 2},
		{ID: "chap-optics", Type: DocTypeChapter, Name: "Optics", SubjectID: "sub-phys", Position: 1},
	}
	require.NoError(t, index.IndexDocuments(docs))
}

func TestNewSearchIndex(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_IndexDocument(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	subject := domain.NewSubject("sub-123", "Mathematics")
	err := index.IndexDocument(SubjectToSearchDocument(subject))
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearchIndex_Search_ByName(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	seedIndex(t, index)

	params := DefaultSearchParams()
	params.Query = "mathematics"

	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "sub-math", result.Hits[0].ID)
	assert.Equal(t, DocTypeSubject, result.Hits[0].Type)
}

func TestSearchIndex_Search_Notes(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	seedIndex(t, index)

	params := DefaultSearchParams()
	params.Query = "calculus"

	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "sub-math", result.Hits[0].ID)
}

func TestSearchIndex_Search_TypeFilter(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	seedIndex(t, index)

	params := DefaultSearchParams()
	params.Types = []string{string(DocTypeChapter)}

	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), result.Total)
	for _, hit := range result.Hits {
		assert.Equal(t, DocTypeChapter, hit.Type)
	}
}

func TestSearchIndex_Search_SubjectFilter(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	seedIndex(t, index)

	params := DefaultSearchParams()
	params.SubjectID = "sub-math"

	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
}

func TestSearchIndex_Search_Fuzzy(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	seedIndex(t, index)

	// One typo away from "optics".
	params := DefaultSearchParams()
	params.Query = "optice"

	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "chap-optics", result.Hits[0].ID)
}

func TestSearchIndex_DeleteDocument(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	seedIndex(t, index)

	require.NoError(t, index.DeleteDocument("sub-phys"))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)
}

func TestSearchIndex_Rebuild(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()
	seedIndex(t, index)

	require.NoError(t, index.Rebuild())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	// The rebuilt index accepts writes.
	subject := domain.NewSubject("sub-after", "Chemistry")
	subject.UpdatedAt = time.Now()
	require.NoError(t, index.IndexDocument(SubjectToSearchDocument(subject)))
}
