package service_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studydeskapp/studydesk-server/internal/config"
	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/service"
	"github.com/studydeskapp/studydesk-server/internal/store"
)

// testClock is a settable clock for driving session timing deterministically.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testPolicy() config.SessionConfig {
	return config.SessionConfig{
		StaleAfter:      24 * time.Hour,
		StaleCap:        4 * time.Hour,
		Retention:       168 * time.Hour,
		CleanupInterval: time.Hour,
	}
}

func setupManager(t *testing.T) (*service.SessionManager, *store.Store, *testClock, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "session-manager-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	st, err := store.New(dbPath, nil, store.NewNoopEmitter())
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}

	logger := slog.New(slog.DiscardHandler)
	manager := service.NewSessionManager(st, store.NewNoopEmitter(), testPolicy(), logger)
	manager.SetClock(clock.Now)

	cleanup := func() {
		_ = st.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return manager, st, clock, cleanup
}

// seedAssignment creates a subject, chapter and scheduled assignment directly
// in the store and returns the assignment.
func seedAssignment(t *testing.T, st *store.Store, clock *testClock, activityType domain.ActivityType) *domain.Assignment {
	t.Helper()
	return seedAssignmentOn(t, st, clock, activityType, domain.DayOf(clock.now))
}

func seedAssignmentOn(t *testing.T, st *store.Store, clock *testClock, activityType domain.ActivityType, date string) *domain.Assignment {
	t.Helper()
	ctx := context.Background()

	subject := domain.NewSubject("sub-"+date+"-"+string(activityType), "Subject "+date+" "+string(activityType))
	if err := st.CreateSubject(ctx, subject); err != nil {
		// Reuse the subject when seeding several assignments in one test.
		existing, gerr := st.GetSubjectByName(ctx, subject.Name)
		require.NoError(t, gerr)
		subject = existing
	}

	chapter := domain.NewChapter("chap-"+subject.ID+"-"+date, subject.ID, "Chapter for "+date)
	if err := st.CreateChapter(ctx, chapter); err != nil {
		existing, gerr := st.GetChapter(ctx, chapter.ID)
		require.NoError(t, gerr)
		chapter = existing
	}

	assignment := domain.NewAssignment("asgn-"+chapter.ID+"-"+string(activityType), chapter.ID, date, activityType, 45)
	require.NoError(t, st.CreateAssignment(ctx, assignment))
	return assignment
}

func TestSessionManager_StartActivity(t *testing.T) {
	m, st, clock, cleanup := setupManager(t)
	defer cleanup()
	ctx := context.Background()

	assignment := seedAssignment(t, st, clock, domain.ActivityStudy)

	session, err := m.StartActivity(ctx, assignment.ID)
	require.NoError(t, err)
	assert.True(t, session.IsLive())
	assert.True(t, session.IsActive)
	assert.Equal(t, assignment.ID, session.AssignmentID)
	assert.Equal(t, assignment.Date, session.Date)
	assert.Equal(t, clock.now, session.StartedAt)

	updated, err := st.GetAssignment(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentInProgress, updated.Status)
	require.NotNil(t, updated.StartedAt)
}

func TestSessionManager_StartActivity_AlreadyLive(t *testing.T) {
	m, st, clock, cleanup := setupManager(t)
	defer cleanup()
	ctx := context.Background()

	assignment := seedAssignment(t, st, clock, domain.ActivityStudy)

	first, err := m.StartActivity(ctx, assignment.ID)
	require.NoError(t, err)

	// Starting again hands back the running session instead of failing.
	clock.Advance(time.Minute)
	again, err := m.StartActivity(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.StartedAt, again.StartedAt)

	sessions, err := st.GetAssignmentSessions(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestSessionManager_StartActivity_Completed(t *testing.T) {
	m, st, clock, cleanup := setupManager(t)
	defer cleanup()
	ctx := context.Background()

	assignment := seedAssignment(t, st, clock, domain.ActivityStudy)
	session, err := m.StartActivity(ctx, assignment.ID)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	_, err = m.CompleteActivity(ctx, session.ID, 30)
	require.NoError(t, err)

	_, err = m.StartActivity(ctx, assignment.ID)
	require.ErrorIs(t, err, store.ErrInvalidTransition)
}

func TestSessionManager_StartActivity_AssignmentNotFound(t *testing.T) {
	m, _, _, cleanup := setupManager(t)
	defer cleanup()

	_, err := m.StartActivity(context.Background(), "asgn-missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSessionManager_StartActivity_PausesOtherSession(t *testing.T) {
	m, st, clock, cleanup := setupManager(t)
	defer cleanup()
	ctx := context.Background()

	first := seedAssignment(t, st, clock, domain.ActivityStudy)
	second := seedAssignment(t, st, clock, domain.ActivityRevision)

	firstSession, err := m.StartActivity(ctx, first.ID)
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	_, err = m.StartActivity(ctx, second.ID)
	require.NoError(t, err)

	// The first session is paused, not ended.
	reloaded, err := st.GetSession(ctx, firstSession.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsLive())
	assert.False(t, reloaded.IsActive)
	require.Len(t, reloaded.PausedIntervals, 1)

	firstAssignment, err := st.GetAssignment(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentPaused, firstAssignment.Status)
}

func TestSessionManager_PauseResume(t *testing.T) {
	m, st, clock, cleanup := setupManager(t)
	defer cleanup()
	ctx := context.Background()

	assignment := seedAssignment(t, st, clock, domain.ActivityStudy)
	session, err := m.StartActivity(ctx, assignment.ID)
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	paused, err := m.PauseActivity(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, paused.IsActive)

	pausedAssignment, err := st.GetAssignment(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentPaused, pausedAssignment.Status)

	clock.Advance(5 * time.Minute)
	resumed, err := m.ResumeActivity(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, resumed.IsActive)
	require.Len(t, resumed.PausedIntervals, 1)
	assert.Equal(t, 5, resumed.PausedIntervals[0].DurationMinutes)

	resumedAssignment, err := st.GetAssignment(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentInProgress, resumedAssignment.Status)

	// Elapsed excludes the paused span.
	clock.Advance(15 * time.Minute)
	assert.Equal(t, 25*time.Minute, resumed.Elapsed(clock.now))
}

func TestSessionManager_Pause_Idempotent(t *testing.T) {
	m, st, clock, cleanup := setupManager(t)
	defer cleanup()
	ctx := context.Background()

	assignment := seedAssignment(t, st, clock, domain.ActivityStudy)
	session, err := m.StartActivity(ctx, assignment.ID)
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	_, err = m.PauseActivity(ctx, session.ID)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	again, err := m.PauseActivity(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, again.PausedIntervals, 1)
}

func TestSessionManager_EndedSessionOps_NoOp(t *testing.T) {
	m, st, clock, cleanup := setupManager(t)
	defer cleanup()
	ctx := context.Background()

	assignment := seedAssignment(t, st, clock, domain.ActivityStudy)
	session, err := m.StartActivity(ctx, assignment.ID)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	ended := clock.now
	_, err = m.CompleteActivity(ctx, session.ID, 30)
	require.NoError(t, err)

	// Pause, resume and complete on an ended session all succeed without
	// touching the record.
	clock.Advance(time.Minute)
	paused, err := m.PauseActivity(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, paused.IsLive())
	assert.Empty(t, paused.PausedIntervals)

	resumed, err := m.ResumeActivity(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, resumed.IsActive)

	again, err := m.CompleteActivity(ctx, session.ID, 99)
	require.NoError(t, err)
	assert.Equal(t, 30, again.DurationMinutes)
	require.NotNil(t, again.EndedAt)
	assert.Equal(t, ended, *again.EndedAt)
}

func TestSessionManager_CompleteActivity_Twice(t *testing.T) {
	m, st, clock, cleanup := setupManager(t)
	defer cleanup()
	ctx := context.Background()

	assignment := seedAssignment(t, st, clock, domain.ActivityStudy)
	session, err := m.StartActivity(ctx, assignment.ID)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	first, err := m.CompleteActivity(ctx, session.ID, 30)
	require.NoError(t, err)

	// A double-submitted completion changes nothing.
	second, err := m.CompleteActivity(ctx, session.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, first.DurationMinutes, second.DurationMinutes)
	assert.Equal(t, *first.EndedAt, *second.EndedAt)

	updatedAssignment, err := st.GetAssignment(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentCompleted, updatedAssignment.Status)
	assert.Equal(t, 30, updatedAssignment.ActualMinutes)
}

func TestSessionManager_CompleteActivity(t *testing.T) {
	m, st, clock, cleanup := setupManager(t)
	defer cleanup()
	ctx := context.Background()

	assignment := seedAssignment(t, st, clock, domain.ActivityStudy)
	session, err := m.StartActivity(ctx, assignment.ID)
	require.NoError(t, err)

	clock.Advance(50 * time.Minute)
	completed, err := m.CompleteActivity(ctx, session.ID, 50)
	require.NoError(t, err)
	assert.False(t, completed.IsLive())
	assert.Equal(t, 50, completed.DurationMinutes)

	updatedAssignment, err := st.GetAssignment(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentCompleted, updatedAssignment.Status)
	assert.Equal(t, 50, updatedAssignment.ActualMinutes)

	// Chapter totals are credited for the right activity type.
	chapter, err := st.GetChapter(ctx, assignment.ChapterID)
	require.NoError(t, err)
	assert.Equal(t, 50, chapter.CompletedStudyMinutes)
	assert.Equal(t, 0, chapter.CompletedRevisionMinutes)
	require.NotNil(t, chapter.LastStudiedAt)
	assert.Equal(t, clock.now, *chapter.LastStudiedAt)
}

func TestSessionManager_CompleteActivity_DerivesMinutes(t *testing.T) {
	m, st, clock, cleanup := setupManager(t)
	defer cleanup()
	ctx := context.Background()

	assignment := seedAssignment(t, st, clock, domain.ActivityRevision)
	session, err := m.StartActivity(ctx, assignment.ID)
	require.NoError(t, err)

	// 40 minutes worked with a 10 minute pause in the middle.
	clock.Advance(20 * time.Minute)
	_, err = m.PauseActivity(ctx, session.ID)
	require.NoError(t, err)
	clock.Advance(10 * time.Minute)
	_, err = m.ResumeActivity(ctx, session.ID)
	require.NoError(t, err)
	clock.Advance(20 * time.Minute)

	completed, err := m.CompleteActivity(ctx, session.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 40, completed.DurationMinutes)

	chapter, err := st.GetChapter(ctx, assignment.ChapterID)
	require.NoError(t, err)
	assert.Equal(t, 40, chapter.CompletedRevisionMinutes)
	require.NotNil(t, chapter.LastRevisedAt)
}

func TestSessionManager_GetActiveSession(t *testing.T) {
	m, st, clock, cleanup := setupManager(t)
	defer cleanup()
	ctx := context.Background()

	// Nothing running.
	session, timer, err := m.GetActiveSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Nil(t, timer)

	assignment := seedAssignment(t, st, clock, domain.ActivityStudy)
	started, err := m.StartActivity(ctx, assignment.ID)
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	session, timer, err = m.GetActiveSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, started.ID, session.ID)
	require.NotNil(t, timer)
	assert.True(t, timer.IsRunning)
	assert.Equal(t, 20*60, timer.ElapsedSeconds)
	assert.Equal(t, 45*60, timer.PlannedSeconds)
}

func TestSessionManager_GetTimerState_Overtime(t *testing.T) {
	m, st, clock, cleanup := setupManager(t)
	defer cleanup()
	ctx := context.Background()

	assignment := seedAssignment(t, st, clock, domain.ActivityStudy)
	session, err := m.StartActivity(ctx, assignment.ID)
	require.NoError(t, err)

	clock.Advance(50 * time.Minute)
	timer, err := m.GetTimerState(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, timer.Overtime)
}

func TestSessionManager_DeleteAssignmentSessions(t *testing.T) {
	m, st, clock, cleanup := setupManager(t)
	defer cleanup()
	ctx := context.Background()

	assignment := seedAssignment(t, st, clock, domain.ActivityStudy)
	session, err := m.StartActivity(ctx, assignment.ID)
	require.NoError(t, err)

	require.NoError(t, m.DeleteAssignmentSessions(ctx, assignment.ID))

	_, err = st.GetSession(ctx, session.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
