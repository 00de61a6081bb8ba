package service

import (
	"context"
	"log"
	"time"

	"github.com/fyreone/firekb/internal/domain"
)

// Event types recorded to the audit event log.
const (
	EventDocumentCreated  = "document.created"
	EventDocumentUpdated  = "document.updated"
	EventDocumentDeleted  = "document.deleted"
	EventIngestionStarted = "ingestion.started"
	EventIngestionDone    = "ingestion.completed"
	EventIngestionFailed  = "ingestion.failed"
	EventSearchExecuted   = "search.executed"
	EventFeedbackRecorded = "search.feedback"
	EventPolicyCreated    = "policy.created"
	EventPolicyUpdated    = "policy.updated"
	EventPolicyEvaluated  = "policy.evaluated"
	EventResultResolved   = "audit_result.resolved"
)

// Entity types referenced by audit events.
const (
	EntityDocument    = "document"
	EntityJob         = "ingestion_job"
	EntityPolicy      = "audit_policy"
	EntityAuditResult = "audit_result"
	EntitySearch      = "search"
)

// EventAppender appends to the audit event log.
type EventAppender interface {
	Append(ctx context.Context, event *domain.AuditEvent) error
}

// EventRecorder builds and appends audit events. Appending is best effort:
// a failed append is logged and never fails the operation that produced it.
type EventRecorder struct {
	events  EventAppender
	uuidGen UUIDGenerator
}

func NewEventRecorder(events EventAppender) *EventRecorder {
	return &EventRecorder{events: events, uuidGen: &DefaultUUIDGenerator{}}
}

func NewEventRecorderWithUUIDGen(events EventAppender, uuidGen UUIDGenerator) *EventRecorder {
	return &EventRecorder{events: events, uuidGen: uuidGen}
}

func (r *EventRecorder) Record(ctx context.Context, eventType, entityType, entityID, action string, details map[string]any) {
	event := &domain.AuditEvent{
		ID:         r.uuidGen.NewString(),
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.events.Append(ctx, event); err != nil {
		log.Printf("events: failed to append %s for %s/%s: %v", eventType, entityType, entityID, err)
	}
}
