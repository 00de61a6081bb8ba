package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/fyreone/firekb/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, input service.SearchInput) (*service.SearchOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SearchOutput), args.Error(1)
}

type MockFeedbackRecorder struct {
	mock.Mock
}

func (m *MockFeedbackRecorder) Record(ctx context.Context, input service.RecordFeedbackInput) (*domain.SearchFeedback, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SearchFeedback), args.Error(1)
}

func TestSearchHandler_Search(t *testing.T) {
	t.Run("returns ranked results", func(t *testing.T) {
		search := new(MockSearchService)
		feedback := new(MockFeedbackRecorder)
		handler := NewSearchHandler(search, feedback)

		search.On("Search", mock.Anything, mock.MatchedBy(func(input service.SearchInput) bool {
			return input.Query == "sprinkler heads" && input.Limit == 3
		})).Return(&service.SearchOutput{
			SearchID: "search-1",
			Results: []domain.SearchResult{
				{ChunkID: "c1", DocumentID: "d1", Content: "Sprinkler heads...", Similarity: 0.91},
			},
			TookMS: 12,
		}, nil)

		body := `{"query":"sprinkler heads","limit":3}`
		req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte(body)))
		rec := httptest.NewRecorder()

		handler.Search(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data SearchResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "search-1", resp.Data.SearchID)
		require.Len(t, resp.Data.Results, 1)
		assert.InDelta(t, 0.91, resp.Data.Results[0].Similarity, 1e-9)
	})

	t.Run("returns 400 when query missing", func(t *testing.T) {
		handler := NewSearchHandler(new(MockSearchService), new(MockFeedbackRecorder))

		req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte(`{}`)))
		rec := httptest.NewRecorder()

		handler.Search(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns 502 on provider failure", func(t *testing.T) {
		search := new(MockSearchService)
		handler := NewSearchHandler(search, new(MockFeedbackRecorder))

		search.On("Search", mock.Anything, mock.Anything).Return(nil, domain.NewDomainError(domain.ErrCodeProvider, "embeddings unavailable"))

		req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader([]byte(`{"query":"alarm"}`)))
		rec := httptest.NewRecorder()

		handler.Search(rec, req)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestSearchHandler_Feedback(t *testing.T) {
	t.Run("records feedback for a search", func(t *testing.T) {
		feedback := new(MockFeedbackRecorder)
		handler := NewSearchHandler(new(MockSearchService), feedback)

		feedback.On("Record", mock.Anything, mock.MatchedBy(func(input service.RecordFeedbackInput) bool {
			return input.SearchID == "search-1" && input.Rating == domain.FeedbackRatingNegative
		})).Return(&domain.SearchFeedback{ID: "fb-1", SearchID: "search-1", Rating: domain.FeedbackRatingNegative}, nil)

		body := `{"rating":"negative","note":"answer cited the wrong code section"}`
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/search/search-1/feedback", bytes.NewReader([]byte(body))), "id", "search-1")
		rec := httptest.NewRecorder()

		handler.Feedback(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("returns 404 for unknown search", func(t *testing.T) {
		feedback := new(MockFeedbackRecorder)
		handler := NewSearchHandler(new(MockSearchService), feedback)

		feedback.On("Record", mock.Anything, mock.Anything).Return(nil, domain.ErrSearchLogNotFound)

		body := `{"rating":"positive"}`
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/search/missing/feedback", bytes.NewReader([]byte(body))), "id", "missing")
		rec := httptest.NewRecorder()

		handler.Feedback(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns 400 when rating missing", func(t *testing.T) {
		handler := NewSearchHandler(new(MockSearchService), new(MockFeedbackRecorder))

		req := withURLParam(httptest.NewRequest(http.MethodPost, "/search/search-1/feedback", bytes.NewReader([]byte(`{}`))), "id", "search-1")
		rec := httptest.NewRecorder()

		handler.Feedback(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
