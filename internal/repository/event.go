package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository is the append-only audit event log. Events are never
// updated or deleted.
type EventRepository struct {
	db dbtx
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: pool}
}

func (r *EventRepository) Append(ctx context.Context, event *domain.AuditEvent) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO audit_events (id, event_type, entity_type, entity_id, user_id, action, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.EventType, event.EntityType, event.EntityID,
		nullableString(event.UserID), event.Action, details, event.CreatedAt,
	)
	return err
}

// ListEntityPage returns one page of events for an entity, newest first.
// When before is non-nil only events strictly older than that position are
// returned, which makes the listing stable under concurrent appends.
func (r *EventRepository) ListEntityPage(ctx context.Context, entityType, entityID string, before *time.Time, beforeID string, limit int) ([]*domain.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT id, event_type, entity_type, entity_id, user_id, action, details, created_at
		 FROM audit_events
		 WHERE entity_type = $1 AND entity_id = $2`
	args := []any{entityType, entityID}

	if before != nil {
		query += ` AND (created_at, id) < ($3, $4)`
		args = append(args, *before, beforeID)
	}

	query += ` ORDER BY created_at DESC, id DESC LIMIT ` + strconv.Itoa(limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEventRows(rows)
}

// List returns events for an entity, newest first.
func (r *EventRepository) List(ctx context.Context, entityType, entityID string, limit int) ([]*domain.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, event_type, entity_type, entity_id, user_id, action, details, created_at
		 FROM audit_events
		 WHERE entity_type = $1 AND entity_id = $2
		 ORDER BY created_at DESC
		 LIMIT $3`,
		entityType, entityID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEventRows(rows)
}

func scanEventRows(rows pgx.Rows) ([]*domain.AuditEvent, error) {
	var events []*domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		var userID *string
		var details []byte
		if err := rows.Scan(&event.ID, &event.EventType, &event.EntityType, &event.EntityID, &userID, &event.Action, &details, &event.CreatedAt); err != nil {
			return nil, err
		}
		if userID != nil {
			event.UserID = *userID
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &event.Details); err != nil {
				return nil, err
			}
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}
