package service

import (
	"context"
	"time"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/fyreone/firekb/internal/pagination"
)

// DefaultEventPageSize bounds event listings when no limit is given.
const DefaultEventPageSize = 50

// MaxEventPageSize is the hard cap on one page of events.
const MaxEventPageSize = 200

// EventPageSource reads pages from the append-only event log.
type EventPageSource interface {
	ListEntityPage(ctx context.Context, entityType, entityID string, before *time.Time, beforeID string, limit int) ([]*domain.AuditEvent, error)
}

// ListEventsInput selects one page of the event trail for an entity.
type ListEventsInput struct {
	EntityType string
	EntityID   string
	Limit      int
	Cursor     string
}

// EventLogService exposes the audit trail for reading. The log itself is
// written through EventRecorder; this service never mutates it.
type EventLogService struct {
	events EventPageSource
}

func NewEventLogService(events EventPageSource) *EventLogService {
	return &EventLogService{events: events}
}

// ListForEntity returns one page of events for an entity, newest first, with
// a cursor for the next page.
func (s *EventLogService) ListForEntity(ctx context.Context, input ListEventsInput) (*pagination.PageResult[*domain.AuditEvent], error) {
	if input.EntityType == "" || input.EntityID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "entity type and id are required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultEventPageSize
	}
	if limit > MaxEventPageSize {
		limit = MaxEventPageSize
	}

	var before *time.Time
	var beforeID string
	if input.Cursor != "" {
		cursor, err := pagination.DecodeCursor(input.Cursor)
		if err != nil {
			return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid cursor")
		}
		if cursor != nil {
			before = &cursor.Timestamp
			beforeID = cursor.LastID
		}
	}

	// Fetch one extra row to decide whether another page exists.
	events, err := s.events.ListEntityPage(ctx, input.EntityType, input.EntityID, before, beforeID, limit+1)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to list events", err)
	}

	hasMore := len(events) > limit
	if hasMore {
		events = events[:limit]
	}

	page := &pagination.PageResult[*domain.AuditEvent]{
		Items:   events,
		HasMore: hasMore,
	}
	if hasMore {
		last := events[len(events)-1]
		page.Cursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}
	return page, nil
}
