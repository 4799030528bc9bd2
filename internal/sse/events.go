// Package sse implements Server-Sent Events for pushing planner and timer
// changes to connected clients.
package sse

import (
	"time"

	"github.com/studydeskapp/studydesk-server/internal/domain"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventSubjectCreated represents a subject creation event.
	EventSubjectCreated EventType = "subject.created"
	// EventSubjectUpdated represents a subject update event.
	EventSubjectUpdated EventType = "subject.updated"
	// EventSubjectDeleted represents a subject deletion event.
	EventSubjectDeleted EventType = "subject.deleted"

	// EventChapterCreated represents a chapter creation event.
	EventChapterCreated EventType = "chapter.created"
	// EventChapterUpdated represents a chapter update event.
	EventChapterUpdated EventType = "chapter.updated"
	// EventChapterDeleted represents a chapter deletion event.
	EventChapterDeleted EventType = "chapter.deleted"

	// EventPlanCreated represents a study plan creation event.
	EventPlanCreated EventType = "plan.created"
	// EventPlanUpdated represents a study plan update event.
	EventPlanUpdated EventType = "plan.updated"
	// EventPlanDeleted represents a study plan deletion event.
	EventPlanDeleted EventType = "plan.deleted"

	// EventAssignmentCreated represents an assignment creation event.
	EventAssignmentCreated EventType = "assignment.created"
	// EventAssignmentUpdated represents an assignment update event,
	// including status transitions driven by the timer.
	EventAssignmentUpdated EventType = "assignment.updated"
	// EventAssignmentDeleted represents an assignment deletion event.
	EventAssignmentDeleted EventType = "assignment.deleted"

	// EventSessionStarted represents the start of an activity session.
	EventSessionStarted EventType = "session.started"
	// EventSessionPaused represents a session pause.
	EventSessionPaused EventType = "session.paused"
	// EventSessionResumed represents a session resume.
	EventSessionResumed EventType = "session.resumed"
	// EventSessionCompleted represents a session completion,
	// whether user-driven or auto-closed by the repair pass.
	EventSessionCompleted EventType = "session.completed"

	// EventRepairCompleted represents a finished session repair pass.
	EventRepairCompleted EventType = "repair.completed"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// SubjectEventData is the data payload for subject events.
type SubjectEventData struct {
	Subject *domain.Subject `json:"subject"`
}

// ChapterEventData is the data payload for chapter events.
type ChapterEventData struct {
	Chapter *domain.Chapter `json:"chapter"`
}

// PlanEventData is the data payload for study plan events.
type PlanEventData struct {
	Plan *domain.StudyPlan `json:"plan"`
}

// AssignmentEventData is the data payload for assignment events.
type AssignmentEventData struct {
	Assignment *domain.Assignment `json:"assignment"`
}

// DeletedEventData is the data payload for deletion events.
type DeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	ID        string    `json:"id"`
}

// SessionEventData is the data payload for session lifecycle events.
// The timer state is included so clients can render immediately without a
// follow-up request.
type SessionEventData struct {
	Session *domain.ActivitySession `json:"session"`
	Timer   *domain.TimerState      `json:"timer,omitempty"`
}

// RepairCompletedEventData is the data payload for repair pass completion.
type RepairCompletedEventData struct {
	CompletedAt    time.Time `json:"completed_at"`
	RunID          string    `json:"run_id"`
	StaleClosed    int       `json:"stale_closed"`
	OutOfDayClosed int       `json:"out_of_day_closed"`
	FlagsRepaired  int       `json:"flags_repaired"`
	OrphansPruned  int       `json:"orphans_pruned"`
	ExpiredPurged  int       `json:"expired_purged"`
	DatesRealigned int       `json:"dates_realigned"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewSubjectCreatedEvent creates a subject.created event.
func NewSubjectCreatedEvent(subject *domain.Subject) Event {
	return Event{
		Type:      EventSubjectCreated,
		Data:      SubjectEventData{Subject: subject},
		Timestamp: time.Now(),
	}
}

// NewSubjectUpdatedEvent creates a subject.updated event.
func NewSubjectUpdatedEvent(subject *domain.Subject) Event {
	return Event{
		Type:      EventSubjectUpdated,
		Data:      SubjectEventData{Subject: subject},
		Timestamp: time.Now(),
	}
}

// NewSubjectDeletedEvent creates a subject.deleted event.
func NewSubjectDeletedEvent(subjectID string, deletedAt time.Time) Event {
	return Event{
		Type:      EventSubjectDeleted,
		Data:      DeletedEventData{ID: subjectID, DeletedAt: deletedAt},
		Timestamp: time.Now(),
	}
}

// NewChapterCreatedEvent creates a chapter.created event.
func NewChapterCreatedEvent(chapter *domain.Chapter) Event {
	return Event{
		Type:      EventChapterCreated,
		Data:      ChapterEventData{Chapter: chapter},
		Timestamp: time.Now(),
	}
}

// NewChapterUpdatedEvent creates a chapter.updated event.
func NewChapterUpdatedEvent(chapter *domain.Chapter) Event {
	return Event{
		Type:      EventChapterUpdated,
		Data:      ChapterEventData{Chapter: chapter},
		Timestamp: time.Now(),
	}
}

// NewChapterDeletedEvent creates a chapter.deleted event.
func NewChapterDeletedEvent(chapterID string, deletedAt time.Time) Event {
	return Event{
		Type:      EventChapterDeleted,
		Data:      DeletedEventData{ID: chapterID, DeletedAt: deletedAt},
		Timestamp: time.Now(),
	}
}

// NewPlanCreatedEvent creates a plan.created event.
func NewPlanCreatedEvent(plan *domain.StudyPlan) Event {
	return Event{
		Type:      EventPlanCreated,
		Data:      PlanEventData{Plan: plan},
		Timestamp: time.Now(),
	}
}

// NewPlanUpdatedEvent creates a plan.updated event.
func NewPlanUpdatedEvent(plan *domain.StudyPlan) Event {
	return Event{
		Type:      EventPlanUpdated,
		Data:      PlanEventData{Plan: plan},
		Timestamp: time.Now(),
	}
}

// NewPlanDeletedEvent creates a plan.deleted event.
func NewPlanDeletedEvent(planID string, deletedAt time.Time) Event {
	return Event{
		Type:      EventPlanDeleted,
		Data:      DeletedEventData{ID: planID, DeletedAt: deletedAt},
		Timestamp: time.Now(),
	}
}

// NewAssignmentCreatedEvent creates an assignment.created event.
func NewAssignmentCreatedEvent(assignment *domain.Assignment) Event {
	return Event{
		Type:      EventAssignmentCreated,
		Data:      AssignmentEventData{Assignment: assignment},
		Timestamp: time.Now(),
	}
}

// NewAssignmentUpdatedEvent creates an assignment.updated event.
func NewAssignmentUpdatedEvent(assignment *domain.Assignment) Event {
	return Event{
		Type:      EventAssignmentUpdated,
		Data:      AssignmentEventData{Assignment: assignment},
		Timestamp: time.Now(),
	}
}

// NewAssignmentDeletedEvent creates an assignment.deleted event.
func NewAssignmentDeletedEvent(assignmentID string, deletedAt time.Time) Event {
	return Event{
		Type:      EventAssignmentDeleted,
		Data:      DeletedEventData{ID: assignmentID, DeletedAt: deletedAt},
		Timestamp: time.Now(),
	}
}

// NewSessionStartedEvent creates a session.started event.
func NewSessionStartedEvent(session *domain.ActivitySession, timer *domain.TimerState) Event {
	return Event{
		Type:      EventSessionStarted,
		Data:      SessionEventData{Session: session, Timer: timer},
		Timestamp: time.Now(),
	}
}

// NewSessionPausedEvent creates a session.paused event.
func NewSessionPausedEvent(session *domain.ActivitySession, timer *domain.TimerState) Event {
	return Event{
		Type:      EventSessionPaused,
		Data:      SessionEventData{Session: session, Timer: timer},
		Timestamp: time.Now(),
	}
}

// NewSessionResumedEvent creates a session.resumed event.
func NewSessionResumedEvent(session *domain.ActivitySession, timer *domain.TimerState) Event {
	return Event{
		Type:      EventSessionResumed,
		Data:      SessionEventData{Session: session, Timer: timer},
		Timestamp: time.Now(),
	}
}

// NewSessionCompletedEvent creates a session.completed event.
func NewSessionCompletedEvent(session *domain.ActivitySession) Event {
	return Event{
		Type:      EventSessionCompleted,
		Data:      SessionEventData{Session: session},
		Timestamp: time.Now(),
	}
}

// NewRepairCompletedEvent creates a repair.completed event.
func NewRepairCompletedEvent(runID string, staleClosed, outOfDayClosed, flagsRepaired, orphansPruned, expiredPurged, datesRealigned int) Event {
	return Event{
		Type: EventRepairCompleted,
		Data: RepairCompletedEventData{
			CompletedAt:    time.Now(),
			RunID:          runID,
			StaleClosed:    staleClosed,
			OutOfDayClosed: outOfDayClosed,
			FlagsRepaired:  flagsRepaired,
			OrphansPruned:  orphansPruned,
			ExpiredPurged:  expiredPurged,
			DatesRealigned: datesRealigned,
		},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
