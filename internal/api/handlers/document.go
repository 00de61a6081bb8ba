package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fyreone/firekb/internal/api"
	"github.com/fyreone/firekb/internal/domain"
	"github.com/fyreone/firekb/internal/service"
	"github.com/go-chi/chi/v5"
)

type DocumentService interface {
	Submit(ctx context.Context, input service.SubmitDocumentInput) (*service.SubmitDocumentOutput, error)
	Update(ctx context.Context, input service.UpdateDocumentInput) (*service.SubmitDocumentOutput, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.KnowledgeDocument, error)
	List(ctx context.Context) ([]*domain.KnowledgeDocument, error)
	ListRevisions(ctx context.Context, documentID string) ([]*domain.DocumentRevision, error)
	GetJob(ctx context.Context, id string) (*domain.IngestionJob, error)
	ListJobs(ctx context.Context, documentID string) ([]*domain.IngestionJob, error)
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type SubmitDocumentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	SourceType  string `json:"source_type"`
	Content     string `json:"content"`
}

type UpdateDocumentRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Content      string `json:"content"`
	ChangeReason string `json:"change_reason"`
	IsActive     *bool  `json:"is_active"`
}

type DocumentResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	SourceType  string `json:"source_type"`
	Status      string `json:"status"`
	Version     int64  `json:"version"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type RevisionResponse struct {
	ID           string `json:"id"`
	DocumentID   string `json:"document_id"`
	Version      int64  `json:"version"`
	ContentHash  string `json:"content_hash"`
	ChangeReason string `json:"change_reason,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type JobResponse struct {
	ID           string  `json:"id"`
	DocumentID   string  `json:"document_id"`
	RevisionID   string  `json:"revision_id"`
	JobType      string  `json:"job_type"`
	Status       string  `json:"status"`
	Progress     int     `json:"progress"`
	ErrorMessage string  `json:"error_message,omitempty"`
	CreatedAt    string  `json:"created_at"`
	StartedAt    *string `json:"started_at,omitempty"`
	CompletedAt  *string `json:"completed_at,omitempty"`
}

type SubmitDocumentResponse struct {
	Document *DocumentResponse `json:"document"`
	Revision *RevisionResponse `json:"revision,omitempty"`
	Job      *JobResponse      `json:"job,omitempty"`
}

func documentToResponse(d *domain.KnowledgeDocument) *DocumentResponse {
	return &DocumentResponse{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		SourceType:  string(d.SourceType),
		Status:      string(d.Status),
		Version:     d.Version,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   d.UpdatedAt.Format(time.RFC3339),
	}
}

func revisionToResponse(rev *domain.DocumentRevision) *RevisionResponse {
	return &RevisionResponse{
		ID:           rev.ID,
		DocumentID:   rev.DocumentID,
		Version:      rev.Version,
		ContentHash:  rev.ContentHash,
		ChangeReason: rev.ChangeReason,
		CreatedAt:    rev.CreatedAt.Format(time.RFC3339),
	}
}

func jobToResponse(job *domain.IngestionJob) *JobResponse {
	resp := &JobResponse{
		ID:           job.ID,
		DocumentID:   job.DocumentID,
		RevisionID:   job.RevisionID,
		JobType:      string(job.JobType),
		Status:       string(job.Status),
		Progress:     job.Progress,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt.Format(time.RFC3339),
	}
	if job.StartedAt != nil {
		s := job.StartedAt.Format(time.RFC3339)
		resp.StartedAt = &s
	}
	if job.CompletedAt != nil {
		s := job.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

func submitOutputToResponse(out *service.SubmitDocumentOutput) *SubmitDocumentResponse {
	resp := &SubmitDocumentResponse{Document: documentToResponse(out.Document)}
	if out.Revision != nil {
		resp.Revision = revisionToResponse(out.Revision)
	}
	if out.Job != nil {
		resp.Job = jobToResponse(out.Job)
	}
	return resp
}

func (h *DocumentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}
	sourceType := domain.DocumentSourceManual
	if req.SourceType != "" {
		sourceType = domain.DocumentSourceType(req.SourceType)
	}

	out, err := h.svc.Submit(r.Context(), service.SubmitDocumentInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		SourceType:  sourceType,
		Content:     req.Content,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, submitOutputToResponse(out))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, documentToResponse(doc))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*DocumentResponse, len(docs))
	for i, doc := range docs {
		resp[i] = documentToResponse(doc)
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.svc.Update(r.Context(), service.UpdateDocumentInput{
		DocumentID:   chi.URLParam(r, "id"),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Content:      req.Content,
		ChangeReason: req.ChangeReason,
		IsActive:     req.IsActive,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, submitOutputToResponse(out))
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *DocumentHandler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	revisions, err := h.svc.ListRevisions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*RevisionResponse, len(revisions))
	for i, rev := range revisions {
		resp[i] = revisionToResponse(rev)
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *DocumentHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.ListJobs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*JobResponse, len(jobs))
	for i, job := range jobs {
		resp[i] = jobToResponse(job)
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *DocumentHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, jobToResponse(job))
}
