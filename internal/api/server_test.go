package api

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studydeskapp/studydesk-server/internal/archive"
	"github.com/studydeskapp/studydesk-server/internal/config"
	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/search"
	"github.com/studydeskapp/studydesk-server/internal/service"
	"github.com/studydeskapp/studydesk-server/internal/sse"
	"github.com/studydeskapp/studydesk-server/internal/store"
)

// testServer wraps the API server for endpoint testing.
type testServer struct {
	*Server
	api     humatest.TestAPI
	index   *search.SearchIndex
	cleanup func()
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "studydesk-api-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	st, err := store.New(filepath.Join(tmpDir, "test.db"), nil, store.NewNoopEmitter())
	require.NoError(t, err)

	index, err := search.NewSearchIndex(search.Options{DataPath: tmpDir, Logger: logger})
	require.NoError(t, err)

	arc, err := archive.Open(filepath.Join(tmpDir, "history.db"), logger)
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Name:        "StudyDesk Test",
			CORSOrigins: []string{"*"},
		},
		Sessions: config.SessionConfig{
			StaleAfter:      24 * time.Hour,
			StaleCap:        4 * time.Hour,
			Retention:       7 * 24 * time.Hour,
			CleanupInterval: time.Hour,
		},
	}

	sseManager := sse.NewManager(logger)

	sessions := service.NewSessionManager(st, sseManager, cfg.Sessions, logger)
	sessions.SetArchiver(arc)

	searchService := service.NewSearchService(index, st, logger)
	st.SetSearchIndexer(searchService)

	services := &Services{
		Sessions: sessions,
		Planner:  service.NewPlannerService(st, sessions, logger),
		Stats:    service.NewStatsService(st, logger),
		Search:   searchService,
	}

	s := NewServer(cfg, st, services, arc, sseManager, logger)

	cleanup := func() {
		s.Close()
		_ = st.Close()
		_ = arc.Close()
		_ = index.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return &testServer{
		Server:  s,
		api:     humatest.Wrap(t, s.api),
		index:   index,
		cleanup: cleanup,
	}
}

// createSubject creates a subject through the API and returns it.
func (ts *testServer) createSubject(t *testing.T, name string) domain.Subject {
	t.Helper()

	resp := ts.api.Post("/api/v1/subjects", map[string]any{"name": name})
	require.Equal(t, http.StatusOK, resp.Code, "create subject failed: %s", resp.Body.String())

	var subject domain.Subject
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &subject))
	return subject
}

func (ts *testServer) createChapter(t *testing.T, subjectID, name string) domain.Chapter {
	t.Helper()

	resp := ts.api.Post("/api/v1/chapters", map[string]any{
		"subject_id": subjectID,
		"name":       name,
	})
	require.Equal(t, http.StatusOK, resp.Code, "create chapter failed: %s", resp.Body.String())

	var chapter domain.Chapter
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &chapter))
	return chapter
}

func (ts *testServer) createAssignment(t *testing.T, chapterID, date string, minutes int) domain.Assignment {
	t.Helper()

	resp := ts.api.Post("/api/v1/assignments", map[string]any{
		"chapter_id":      chapterID,
		"date":            date,
		"activity_type":   "study",
		"planned_minutes": minutes,
	})
	require.Equal(t, http.StatusOK, resp.Code, "create assignment failed: %s", resp.Body.String())

	var assignment domain.Assignment
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &assignment))
	return assignment
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &health))

	assert.Equal(t, "healthy", health.Status)
	assert.Contains(t, health.Components, "database")
	assert.Contains(t, health.Components, "search")
	assert.Contains(t, health.Components, "sse")
}

func TestSubjectCRUD(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	created := ts.createSubject(t, "Mathematics")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Mathematics", created.Name)

	resp := ts.api.Get("/api/v1/subjects/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Patch("/api/v1/subjects/"+created.ID, map[string]any{
		"color":     "#3355ff",
		"exam_date": "2026-06-15",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var updated domain.Subject
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, "#3355ff", updated.Color)
	require.NotNil(t, updated.ExamDate)
	assert.Equal(t, "2026-06-15", *updated.ExamDate)

	resp = ts.api.Get("/api/v1/subjects")
	require.Equal(t, http.StatusOK, resp.Code)

	var list SubjectListResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	assert.Len(t, list.Subjects, 1)

	resp = ts.api.Delete("/api/v1/subjects/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/subjects/" + created.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSubjectValidation(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/subjects", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/subjects", map[string]any{
		"name":      "Chemistry",
		"exam_date": "soon",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestDuplicateSubjectConflict(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.createSubject(t, "Physics")

	resp := ts.api.Post("/api/v1/subjects", map[string]any{"name": "physics"})
	assert.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())
}

func TestAssignmentLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	subject := ts.createSubject(t, "Biology")
	chapter := ts.createChapter(t, subject.ID, "Cell Structure")
	assignment := ts.createAssignment(t, chapter.ID, "2026-08-30", 45)
	assert.Equal(t, domain.AssignmentScheduled, assignment.Status)

	resp := ts.api.Post("/api/v1/assignments/"+assignment.ID+"/start")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var session domain.ActivitySession
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))
	assert.True(t, session.IsActive)
	assert.Equal(t, assignment.ID, session.AssignmentID)

	resp = ts.api.Post("/api/v1/sessions/"+session.ID+"/pause")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/sessions/"+session.ID+"/resume")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/sessions/"+session.ID+"/complete", map[string]any{
		"actual_minutes": 45,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var completed domain.ActivitySession
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &completed))
	assert.False(t, completed.IsActive)
	assert.Equal(t, 45, completed.DurationMinutes)

	resp = ts.api.Get("/api/v1/assignments/" + assignment.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	var after domain.Assignment
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &after))
	assert.Equal(t, domain.AssignmentCompleted, after.Status)
	assert.Equal(t, 45, after.ActualMinutes)
}

func TestStartUnknownAssignment(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/assignments/asgn-missing/start")
	assert.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())
}

func TestActiveSession(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/sessions/active")
	require.Equal(t, http.StatusOK, resp.Code)

	var idle ActiveSessionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &idle))
	assert.Nil(t, idle.Session)
	assert.Nil(t, idle.Timer)

	subject := ts.createSubject(t, "History")
	chapter := ts.createChapter(t, subject.ID, "The Industrial Revolution")
	assignment := ts.createAssignment(t, chapter.ID, "2026-08-30", 30)

	resp = ts.api.Post("/api/v1/assignments/"+assignment.ID+"/start")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/sessions/active")
	require.Equal(t, http.StatusOK, resp.Code)

	var active ActiveSessionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &active))
	require.NotNil(t, active.Session)
	require.NotNil(t, active.Timer)
	assert.Equal(t, assignment.ID, active.Session.AssignmentID)
	assert.True(t, active.Timer.IsRunning)
	assert.Equal(t, 30*60, active.Timer.PlannedSeconds)
}

func TestSessionRepairEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/sessions/repair")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var report service.RepairReport
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &report))
	assert.NotEmpty(t, report.RunID)
	assert.Empty(t, report.Errors)
}

func TestSearchEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	subject := ts.createSubject(t, "Physics")
	ts.createChapter(t, subject.ID, "Thermodynamics")
	ts.createChapter(t, subject.ID, "Optics")

	resp := ts.api.Get("/api/v1/search?q=thermodynamics")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var result SearchResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "Thermodynamics", result.Hits[0].Name)

	resp = ts.api.Get("/api/v1/search?q=physics&types=subject")
	require.Equal(t, http.StatusOK, resp.Code)

	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "subject", result.Hits[0].Type)
}

func TestDailyStatsEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	subject := ts.createSubject(t, "Geography")
	chapter := ts.createChapter(t, subject.ID, "Plate Tectonics")
	ts.createAssignment(t, chapter.ID, "2026-08-30", 60)

	resp := ts.api.Get("/api/v1/stats/daily?date=2026-08-30")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var stats service.DailyStats
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.AssignmentsTotal)
	assert.Equal(t, 60, stats.PlannedMinutes)
	assert.Equal(t, 0, stats.AssignmentsCompleted)

	resp = ts.api.Get("/api/v1/stats/overview")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var overview StatsOverviewResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &overview))
	require.NotNil(t, overview.Today)
	assert.Len(t, overview.Subjects, 1)
	assert.Equal(t, "Geography", overview.Subjects[0].Name)
}

func TestHistoryEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	// Sessions are dated by the wall clock, so the range brackets today.
	from := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	to := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	resp := ts.api.Get("/api/v1/history/sessions?from=" + from + "&to=" + to)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var history SessionHistoryResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &history))
	assert.Empty(t, history.Sessions)

	subject := ts.createSubject(t, "Economics")
	chapter := ts.createChapter(t, subject.ID, "Supply and Demand")
	assignment := ts.createAssignment(t, chapter.ID, "2026-08-30", 25)

	resp = ts.api.Post("/api/v1/assignments/"+assignment.ID+"/start")
	require.Equal(t, http.StatusOK, resp.Code)

	var session domain.ActivitySession
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))

	resp = ts.api.Post("/api/v1/sessions/"+session.ID+"/complete", map[string]any{"actual_minutes": 25})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/history/sessions?from=" + from + "&to=" + to)
	require.Equal(t, http.StatusOK, resp.Code)

	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &history))
	require.Len(t, history.Sessions, 1)
	assert.Equal(t, session.ID, history.Sessions[0].ID)

	resp = ts.api.Get("/api/v1/history/repairs")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}
