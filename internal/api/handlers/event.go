package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fyreone/firekb/internal/api"
	"github.com/fyreone/firekb/internal/domain"
	"github.com/fyreone/firekb/internal/pagination"
	"github.com/fyreone/firekb/internal/service"
	"github.com/go-chi/chi/v5"
)

type EventLogService interface {
	ListForEntity(ctx context.Context, input service.ListEventsInput) (*pagination.PageResult[*domain.AuditEvent], error)
}

type EventHandler struct {
	events EventLogService
}

func NewEventHandler(events EventLogService) *EventHandler {
	return &EventHandler{events: events}
}

type EventResponse struct {
	ID         string         `json:"id"`
	EventType  string         `json:"event_type"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	UserID     string         `json:"user_id,omitempty"`
	Action     string         `json:"action"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

type EventPageResponse struct {
	Items   []EventResponse `json:"items"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

// ListDocumentEvents returns the audit trail for one document, newest first.
func (h *EventHandler) ListDocumentEvents(w http.ResponseWriter, r *http.Request) {
	h.listEntityEvents(w, r, service.EntityDocument)
}

// ListPolicyEvents returns the audit trail for one policy, newest first.
func (h *EventHandler) ListPolicyEvents(w http.ResponseWriter, r *http.Request) {
	h.listEntityEvents(w, r, service.EntityPolicy)
}

func (h *EventHandler) listEntityEvents(w http.ResponseWriter, r *http.Request, entityType string) {
	input := service.ListEventsInput{
		EntityType: entityType,
		EntityID:   chi.URLParam(r, "id"),
		Cursor:     r.URL.Query().Get("cursor"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			api.Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		input.Limit = limit
	}

	page, err := h.events.ListForEntity(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := EventPageResponse{
		Items:   make([]EventResponse, 0, len(page.Items)),
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	}
	for _, event := range page.Items {
		resp.Items = append(resp.Items, toEventResponse(event))
	}
	api.Success(w, http.StatusOK, resp)
}

func toEventResponse(event *domain.AuditEvent) EventResponse {
	return EventResponse{
		ID:         event.ID,
		EventType:  event.EventType,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		UserID:     event.UserID,
		Action:     event.Action,
		Details:    event.Details,
		CreatedAt:  event.CreatedAt.UTC().Format(time.RFC3339),
	}
}
