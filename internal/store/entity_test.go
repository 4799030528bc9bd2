package store_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studydeskapp/studydesk-server/internal/store"
)

// TestEntity is a minimal type for exercising the generic entity layer.
type TestEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func setupTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "entity-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := store.New(dbPath, nil, store.NewNoopEmitter())
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return s, cleanup
}

func TestEntity_Create_Success(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:")

	err := entity.Create(context.Background(), "1", &TestEntity{ID: "1", Name: "first"})
	require.NoError(t, err)

	retrieved, err := entity.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "first", retrieved.Name)
}

func TestEntity_Create_Duplicate(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:")

	err := entity.Create(context.Background(), "1", &TestEntity{ID: "1", Name: "first"})
	require.NoError(t, err)

	err = entity.Create(context.Background(), "1", &TestEntity{ID: "1", Name: "again"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestEntity_Get_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:")

	_, err := entity.Get(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_Update(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:")

	require.NoError(t, entity.Create(context.Background(), "1", &TestEntity{ID: "1", Name: "first"}))
	require.NoError(t, entity.Update(context.Background(), "1", &TestEntity{ID: "1", Name: "renamed"}))

	retrieved, err := entity.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", retrieved.Name)
}

func TestEntity_Update_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:")

	err := entity.Update(context.Background(), "missing", &TestEntity{ID: "missing"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_Delete_Idempotent(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:")

	require.NoError(t, entity.Create(context.Background(), "1", &TestEntity{ID: "1", Name: "first"}))
	require.NoError(t, entity.Delete(context.Background(), "1"))

	_, err := entity.Get(context.Background(), "1")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Deleting again is not an error.
	require.NoError(t, entity.Delete(context.Background(), "1"))
}

func TestEntity_Index_Lookup(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:").
		WithIndexTransform("name",
			func(e *TestEntity) []string { return []string{strings.ToLower(e.Name)} },
			strings.ToLower,
		)

	require.NoError(t, entity.Create(context.Background(), "1", &TestEntity{ID: "1", Name: "Algebra"}))

	retrieved, err := entity.GetByIndex(context.Background(), "name", "ALGEBRA")
	require.NoError(t, err)
	assert.Equal(t, "1", retrieved.ID)
}

func TestEntity_Index_Conflict(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:").
		WithIndexTransform("name",
			func(e *TestEntity) []string { return []string{strings.ToLower(e.Name)} },
			strings.ToLower,
		)

	require.NoError(t, entity.Create(context.Background(), "1", &TestEntity{ID: "1", Name: "Algebra"}))

	err := entity.Create(context.Background(), "2", &TestEntity{ID: "2", Name: "algebra"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestEntity_Index_UpdatedOnRename(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:").
		WithIndexTransform("name",
			func(e *TestEntity) []string { return []string{strings.ToLower(e.Name)} },
			strings.ToLower,
		)

	require.NoError(t, entity.Create(context.Background(), "1", &TestEntity{ID: "1", Name: "Algebra"}))
	require.NoError(t, entity.Update(context.Background(), "1", &TestEntity{ID: "1", Name: "Geometry"}))

	// Old index entry is gone, new one resolves.
	_, err := entity.GetByIndex(context.Background(), "name", "algebra")
	require.ErrorIs(t, err, store.ErrNotFound)

	retrieved, err := entity.GetByIndex(context.Background(), "name", "geometry")
	require.NoError(t, err)
	assert.Equal(t, "1", retrieved.ID)
}

func TestEntity_List_SkipsIndexKeys(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entity := store.NewEntity[TestEntity](s, "test:").
		WithIndex("name", func(e *TestEntity) []string { return []string{e.Name} })

	require.NoError(t, entity.Create(context.Background(), "1", &TestEntity{ID: "1", Name: "first"}))
	require.NoError(t, entity.Create(context.Background(), "2", &TestEntity{ID: "2", Name: "second"}))

	var count int
	for e, err := range entity.List(context.Background()) {
		require.NoError(t, err)
		require.NotNil(t, e)
		count++
	}
	assert.Equal(t, 2, count)
}
