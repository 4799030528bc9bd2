package service_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/service"
	"github.com/studydeskapp/studydesk-server/internal/store"
)

func TestStats_GetDailyStats(t *testing.T) {
	m, st, clock, cleanup := setupManager(t)
	defer cleanup()
	ctx := context.Background()

	stats := service.NewStatsService(st, slog.New(slog.DiscardHandler))
	today := domain.DayOf(clock.now)

	study := seedAssignment(t, st, clock, domain.ActivityStudy)
	revision := seedAssignment(t, st, clock, domain.ActivityRevision)

	// Complete the study assignment, leave the revision one scheduled.
	session, err := m.StartActivity(ctx, study.ID)
	require.NoError(t, err)
	clock.Advance(50 * time.Minute)
	_, err = m.CompleteActivity(ctx, session.ID, 50)
	require.NoError(t, err)

	daily, err := stats.GetDailyStats(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 2, daily.AssignmentsTotal)
	assert.Equal(t, 1, daily.AssignmentsCompleted)
	assert.Equal(t, study.PlannedMinutes+revision.PlannedMinutes, daily.PlannedMinutes)
	assert.Equal(t, 50, daily.CompletedMinutes)
	assert.Equal(t, 50, daily.StudyMinutes)
	assert.Equal(t, 0, daily.RevisionMinutes)
	assert.Equal(t, 1, daily.SessionCount)
}

func TestStats_GetDailyStats_InvalidDate(t *testing.T) {
	_, st, _, cleanup := setupManager(t)
	defer cleanup()

	stats := service.NewStatsService(st, slog.New(slog.DiscardHandler))
	_, err := stats.GetDailyStats(context.Background(), "not-a-day")
	require.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestStats_GetSubjectStats(t *testing.T) {
	m, st, clock, cleanup := setupManager(t)
	defer cleanup()
	ctx := context.Background()

	stats := service.NewStatsService(st, slog.New(slog.DiscardHandler))

	subject := domain.NewSubject("sub-stats", "Algorithms")
	require.NoError(t, st.CreateSubject(ctx, subject))

	first := domain.NewChapter("chap-stats-1", subject.ID, "Sorting")
	first.EstimatedStudyMinutes = 120
	require.NoError(t, st.CreateChapter(ctx, first))

	second := domain.NewChapter("chap-stats-2", subject.ID, "Graphs")
	second.EstimatedStudyMinutes = 90
	require.NoError(t, st.CreateChapter(ctx, second))

	assignment := domain.NewAssignment("asgn-stats", first.ID, domain.DayOf(clock.now), domain.ActivityStudy, 60)
	require.NoError(t, st.CreateAssignment(ctx, assignment))

	session, err := m.StartActivity(ctx, assignment.ID)
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = m.CompleteActivity(ctx, session.ID, 60)
	require.NoError(t, err)

	result, err := stats.GetSubjectStats(ctx, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, "Algorithms", result.Name)
	assert.Equal(t, 2, result.ChapterCount)
	assert.Equal(t, 210, result.EstimatedStudyMinutes)
	assert.Equal(t, 60, result.CompletedStudyMinutes)
	assert.Equal(t, 0, result.CompletedRevisionMinutes)
	require.NotNil(t, result.LastStudiedAt)
	assert.Equal(t, clock.now, *result.LastStudiedAt)
}

func TestStats_GetSubjectStats_NotFound(t *testing.T) {
	_, st, _, cleanup := setupManager(t)
	defer cleanup()

	stats := service.NewStatsService(st, slog.New(slog.DiscardHandler))
	_, err := stats.GetSubjectStats(context.Background(), "sub-missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}
