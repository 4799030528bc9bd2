package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studydeskapp/studydesk-server/internal/domain"
)

func TestStore_CreateAssignment(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	a := domain.NewAssignment("asgn-1", "chap-1", "2026-03-14", domain.ActivityStudy, 45)

	require.NoError(t, s.CreateAssignment(context.Background(), a))

	retrieved, err := s.GetAssignment(context.Background(), "asgn-1")
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentScheduled, retrieved.Status)
	assert.Equal(t, "chap-1", retrieved.ChapterID)
}

func TestStore_GetAssignment_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.GetAssignment(context.Background(), "nonexistent")
	require.Error(t, err)
}

func TestStore_UpdateAssignment(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	a := domain.NewAssignment("asgn-1", "chap-1", "2026-03-14", domain.ActivityStudy, 45)
	require.NoError(t, s.CreateAssignment(context.Background(), a))

	a.MarkStarted(time.Now())
	require.NoError(t, s.UpdateAssignment(context.Background(), a))

	retrieved, err := s.GetAssignment(context.Background(), "asgn-1")
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentInProgress, retrieved.Status)
}

func TestStore_DeleteAssignment_Idempotent(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	a := domain.NewAssignment("asgn-1", "chap-1", "2026-03-14", domain.ActivityStudy, 45)
	require.NoError(t, s.CreateAssignment(context.Background(), a))

	require.NoError(t, s.DeleteAssignment(context.Background(), "asgn-1"))
	_, err := s.GetAssignment(context.Background(), "asgn-1")
	require.Error(t, err)

	require.NoError(t, s.DeleteAssignment(context.Background(), "asgn-1"))
}

func TestStore_GetAssignmentsByDate(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	a1 := domain.NewAssignment("asgn-1", "chap-1", "2026-03-14", domain.ActivityStudy, 45)
	a2 := domain.NewAssignment("asgn-2", "chap-2", "2026-03-14", domain.ActivityRevision, 30)
	a3 := domain.NewAssignment("asgn-3", "chap-1", "2026-03-15", domain.ActivityStudy, 45)

	for _, a := range []*domain.Assignment{a1, a2, a3} {
		require.NoError(t, s.CreateAssignment(context.Background(), a))
	}

	assignments, err := s.GetAssignmentsByDate(context.Background(), "2026-03-14")
	require.NoError(t, err)
	assert.Len(t, assignments, 2)

	assignments, err = s.GetAssignmentsByDate(context.Background(), "2026-03-16")
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestStore_GetChapterAssignments(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	a1 := domain.NewAssignment("asgn-1", "chap-1", "2026-03-14", domain.ActivityStudy, 45)
	a2 := domain.NewAssignment("asgn-2", "chap-2", "2026-03-14", domain.ActivityStudy, 45)

	require.NoError(t, s.CreateAssignment(context.Background(), a1))
	require.NoError(t, s.CreateAssignment(context.Background(), a2))

	assignments, err := s.GetChapterAssignments(context.Background(), "chap-1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "asgn-1", assignments[0].ID)
}

func TestStore_GetPlanAssignments(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	a1 := domain.NewAssignment("asgn-1", "chap-1", "2026-03-15", domain.ActivityStudy, 45)
	a1.PlanID = "plan-1"
	a2 := domain.NewAssignment("asgn-2", "chap-1", "2026-03-14", domain.ActivityStudy, 45)
	a2.PlanID = "plan-1"
	unplanned := domain.NewAssignment("asgn-3", "chap-1", "2026-03-14", domain.ActivityStudy, 45)

	for _, a := range []*domain.Assignment{a1, a2, unplanned} {
		require.NoError(t, s.CreateAssignment(context.Background(), a))
	}

	assignments, err := s.GetPlanAssignments(context.Background(), "plan-1")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	// Sorted by date ascending.
	assert.Equal(t, "asgn-2", assignments[0].ID)
	assert.Equal(t, "asgn-1", assignments[1].ID)
}

func TestStore_AssignmentDateIndex_FollowsUpdate(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	a := domain.NewAssignment("asgn-1", "chap-1", "2026-03-14", domain.ActivityStudy, 45)
	require.NoError(t, s.CreateAssignment(context.Background(), a))

	a.Date = "2026-03-15"
	require.NoError(t, s.UpdateAssignment(context.Background(), a))

	old, err := s.GetAssignmentsByDate(context.Background(), "2026-03-14")
	require.NoError(t, err)
	assert.Empty(t, old)

	moved, err := s.GetAssignmentsByDate(context.Background(), "2026-03-15")
	require.NoError(t, err)
	require.Len(t, moved, 1)
}
