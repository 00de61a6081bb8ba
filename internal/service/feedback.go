package service

import (
	"context"
	"time"

	"github.com/fyreone/firekb/internal/domain"
)

// FeedbackStore persists search feedback and resolves the search it
// refers to.
type FeedbackStore interface {
	GetSearchLog(ctx context.Context, id string) (*domain.SearchLog, error)
	CreateFeedback(ctx context.Context, fb *domain.SearchFeedback) error
}

// RecordFeedbackInput attaches a rating to a previously executed search.
type RecordFeedbackInput struct {
	SearchID string
	Rating   domain.FeedbackRating
	Note     string
}

// FeedbackService records user feedback against logged searches.
type FeedbackService struct {
	store    FeedbackStore
	recorder *EventRecorder
	uuidGen  UUIDGenerator
}

func NewFeedbackService(store FeedbackStore, recorder *EventRecorder) *FeedbackService {
	return &FeedbackService{store: store, recorder: recorder, uuidGen: &DefaultUUIDGenerator{}}
}

func NewFeedbackServiceWithUUIDGen(store FeedbackStore, recorder *EventRecorder, uuidGen UUIDGenerator) *FeedbackService {
	s := NewFeedbackService(store, recorder)
	s.uuidGen = uuidGen
	return s
}

// Record stores one feedback entry. The referenced search must exist.
func (s *FeedbackService) Record(ctx context.Context, input RecordFeedbackInput) (*domain.SearchFeedback, error) {
	if _, err := s.store.GetSearchLog(ctx, input.SearchID); err != nil {
		return nil, err
	}

	fb := &domain.SearchFeedback{
		ID:        s.uuidGen.NewString(),
		SearchID:  input.SearchID,
		Rating:    input.Rating,
		Note:      input.Note,
		CreatedAt: time.Now().UTC(),
	}
	if err := domain.ValidateSearchFeedback(fb); err != nil {
		return nil, err
	}
	if err := s.store.CreateFeedback(ctx, fb); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, EventFeedbackRecorded, EntitySearch, input.SearchID, "feedback", map[string]any{
		"rating": string(input.Rating),
	})
	return fb, nil
}
