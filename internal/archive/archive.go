package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/studydeskapp/studydesk-server/internal/domain"
	"github.com/studydeskapp/studydesk-server/internal/service"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Archive provides SQLite-backed long-term storage for completed sessions
// and repair run records. Sessions land here when they complete and again
// when the retention purge removes them from the working store, so writes
// are upserts keyed by session ID.
type Archive struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the archive database at the given path.
// It configures WAL mode, sets pragmas, and applies the schema.
func Open(path string, logger *slog.Logger) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Archive{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// ArchiveSession records a session in the archive, replacing any earlier
// record for the same session ID.
func (a *Archive) ArchiveSession(ctx context.Context, s *domain.ActivitySession) error {
	pauseRef := time.Now()
	if s.EndedAt != nil {
		pauseRef = *s.EndedAt
	}
	pausedMinutes := int(s.PausedTotal(pauseRef) / time.Minute)

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO session_history (
			id, assignment_id, chapter_id, activity_type, date,
			started_at, ended_at, duration_minutes, pause_count, paused_minutes,
			archived_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at = excluded.ended_at,
			duration_minutes = excluded.duration_minutes,
			pause_count = excluded.pause_count,
			paused_minutes = excluded.paused_minutes,
			archived_at = excluded.archived_at`,
		s.ID,
		s.AssignmentID,
		s.ChapterID,
		string(s.ActivityType),
		s.Date,
		formatTime(s.StartedAt),
		nullTimeString(s.EndedAt),
		s.DurationMinutes,
		len(s.PausedIntervals),
		pausedMinutes,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert session history: %w", err)
	}
	return nil
}

// RecordRepairRun persists the summary of one repair pass.
func (a *Archive) RecordRepairRun(ctx context.Context, r *service.RepairReport) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO repair_runs (
			run_id, started_at, finished_at,
			sessions_seen, stale_closed, out_of_day_closed, flags_repaired,
			orphans_pruned, expired_purged, dates_realigned, error_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		formatTime(r.StartedAt),
		formatTime(r.FinishedAt),
		r.SessionsSeen,
		r.StaleClosed,
		r.OutOfDayClosed,
		r.FlagsRepaired,
		r.OrphansPruned,
		r.ExpiredPurged,
		r.DatesRealigned,
		len(r.Errors),
	)
	if err != nil {
		return fmt.Errorf("insert repair run: %w", err)
	}
	return nil
}

// SessionRecord is one archived session row.
type SessionRecord struct {
	ID              string     `json:"id"`
	AssignmentID    string     `json:"assignment_id"`
	ChapterID       string     `json:"chapter_id"`
	ActivityType    string     `json:"activity_type"`
	Date            string     `json:"date"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	PauseCount      int        `json:"pause_count"`
	PausedMinutes   int        `json:"paused_minutes"`
	ArchivedAt      time.Time  `json:"archived_at"`
}

// GetSessionHistory returns archived sessions for a date range, newest first.
// Both bounds are inclusive calendar days.
func (a *Archive) GetSessionHistory(ctx context.Context, fromDate, toDate string) ([]*SessionRecord, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, assignment_id, chapter_id, activity_type, date,
			started_at, ended_at, duration_minutes, pause_count, paused_minutes,
			archived_at
		FROM session_history
		WHERE date >= ? AND date <= ?
		ORDER BY started_at DESC`,
		fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query session history: %w", err)
	}
	defer rows.Close()

	var records []*SessionRecord
	for rows.Next() {
		var (
			rec       SessionRecord
			startedAt string
			endedAt   sql.NullString
			archived  string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.AssignmentID,
			&rec.ChapterID,
			&rec.ActivityType,
			&rec.Date,
			&startedAt,
			&endedAt,
			&rec.DurationMinutes,
			&rec.PauseCount,
			&rec.PausedMinutes,
			&archived,
		); err != nil {
			return nil, fmt.Errorf("scan session history: %w", err)
		}

		rec.StartedAt, err = parseTime(startedAt)
		if err != nil {
			return nil, err
		}
		rec.EndedAt, err = parseNullableTime(endedAt)
		if err != nil {
			return nil, err
		}
		rec.ArchivedAt, err = parseTime(archived)
		if err != nil {
			return nil, err
		}

		records = append(records, &rec)
	}
	return records, rows.Err()
}

// RepairRunRecord is one archived repair run row.
type RepairRunRecord struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	SessionsSeen   int       `json:"sessions_seen"`
	StaleClosed    int       `json:"stale_closed"`
	OutOfDayClosed int       `json:"out_of_day_closed"`
	FlagsRepaired  int       `json:"flags_repaired"`
	OrphansPruned  int       `json:"orphans_pruned"`
	ExpiredPurged  int       `json:"expired_purged"`
	DatesRealigned int       `json:"dates_realigned"`
	ErrorCount     int       `json:"error_count"`
}

// GetRecentRepairRuns returns the most recent repair runs, newest first.
func (a *Archive) GetRecentRepairRuns(ctx context.Context, limit int) ([]*RepairRunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT run_id, started_at, finished_at,
			sessions_seen, stale_closed, out_of_day_closed, flags_repaired,
			orphans_pruned, expired_purged, dates_realigned, error_count
		FROM repair_runs
		ORDER BY started_at DESC
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query repair runs: %w", err)
	}
	defer rows.Close()

	var records []*RepairRunRecord
	for rows.Next() {
		var (
			rec        RepairRunRecord
			startedAt  string
			finishedAt string
		)
		if err := rows.Scan(
			&rec.RunID,
			&startedAt,
			&finishedAt,
			&rec.SessionsSeen,
			&rec.StaleClosed,
			&rec.OutOfDayClosed,
			&rec.FlagsRepaired,
			&rec.OrphansPruned,
			&rec.ExpiredPurged,
			&rec.DatesRealigned,
			&rec.ErrorCount,
		); err != nil {
			return nil, fmt.Errorf("scan repair run: %w", err)
		}

		rec.StartedAt, err = parseTime(startedAt)
		if err != nil {
			return nil, err
		}
		rec.FinishedAt, err = parseTime(finishedAt)
		if err != nil {
			return nil, err
		}

		records = append(records, &rec)
	}
	return records, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullTimeString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
