package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fyreone/firekb/internal/api"
	"github.com/fyreone/firekb/internal/domain"
	"github.com/fyreone/firekb/internal/service"
	"github.com/go-chi/chi/v5"
)

type SearchService interface {
	Search(ctx context.Context, input service.SearchInput) (*service.SearchOutput, error)
}

type FeedbackService interface {
	Record(ctx context.Context, input service.RecordFeedbackInput) (*domain.SearchFeedback, error)
}

type SearchHandler struct {
	search   SearchService
	feedback FeedbackService
}

func NewSearchHandler(search SearchService, feedback FeedbackService) *SearchHandler {
	return &SearchHandler{search: search, feedback: feedback}
}

type SearchRequest struct {
	Query     string   `json:"query"`
	Limit     int      `json:"limit"`
	Threshold *float64 `json:"threshold"`
}

type SearchResultResponse struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

type SearchResponse struct {
	SearchID string                 `json:"search_id"`
	Results  []SearchResultResponse `json:"results"`
	TookMS   int64                  `json:"took_ms"`
}

type FeedbackRequest struct {
	Rating string `json:"rating"`
	Note   string `json:"note"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Limit < 0 {
		api.Error(w, http.StatusBadRequest, "limit must not be negative")
		return
	}

	out, err := h.search.Search(r.Context(), service.SearchInput{
		Query:     req.Query,
		Limit:     req.Limit,
		Threshold: req.Threshold,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := SearchResponse{
		SearchID: out.SearchID,
		Results:  make([]SearchResultResponse, len(out.Results)),
		TookMS:   out.TookMS,
	}
	for i, res := range out.Results {
		resp.Results[i] = SearchResultResponse{
			ChunkID:    res.ChunkID,
			DocumentID: res.DocumentID,
			ChunkIndex: res.ChunkIndex,
			Content:    res.Content,
			Similarity: res.Similarity,
		}
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *SearchHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating == "" {
		api.Error(w, http.StatusBadRequest, "rating is required")
		return
	}

	fb, err := h.feedback.Record(r.Context(), service.RecordFeedbackInput{
		SearchID: chi.URLParam(r, "id"),
		Rating:   domain.FeedbackRating(req.Rating),
		Note:     req.Note,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, map[string]string{
		"id":     fb.ID,
		"rating": string(fb.Rating),
	})
}
