package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fyreone/firekb/internal/api"
	"github.com/fyreone/firekb/internal/domain"
	"github.com/fyreone/firekb/internal/service"
	"github.com/go-chi/chi/v5"
)

type AuditService interface {
	CreatePolicy(ctx context.Context, input service.CreatePolicyInput) (*domain.AuditPolicy, error)
	UpdatePolicy(ctx context.Context, input service.UpdatePolicyInput) (*domain.AuditPolicy, error)
	GetPolicy(ctx context.Context, id string) (*domain.AuditPolicy, error)
	ListPolicies(ctx context.Context) ([]*domain.AuditPolicy, error)
	RunPolicy(ctx context.Context, policyID string) (*domain.AuditResult, error)
	RunAll(ctx context.Context) ([]*domain.AuditResult, error)
	ListResults(ctx context.Context, filters service.AuditResultFilters) ([]*domain.AuditResult, error)
	ResolveResult(ctx context.Context, id, resolvedBy string) (*domain.AuditResult, error)
}

type AuditHandler struct {
	svc AuditService
}

func NewAuditHandler(svc AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

type CreatePolicyRequest struct {
	Name       string         `json:"name"`
	PolicyType string         `json:"policy_type"`
	Schedule   string         `json:"schedule"`
	Config     map[string]any `json:"config"`
	IsActive   *bool          `json:"is_active"`
}

type UpdatePolicyRequest struct {
	Name     string         `json:"name"`
	Schedule string         `json:"schedule"`
	Config   map[string]any `json:"config"`
	IsActive *bool          `json:"is_active"`
}

type ResolveResultRequest struct {
	ResolvedBy string `json:"resolved_by"`
}

type PolicyResponse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	PolicyType string         `json:"policy_type"`
	Schedule   string         `json:"schedule,omitempty"`
	Config     map[string]any `json:"config"`
	IsActive   bool           `json:"is_active"`
	LastRunAt  *string        `json:"last_run_at,omitempty"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

type AuditResultResponse struct {
	ID                string         `json:"id"`
	PolicyID          string         `json:"policy_id"`
	Status            string         `json:"status"`
	Summary           string         `json:"summary"`
	Details           map[string]any `json:"details,omitempty"`
	AffectedDocuments []string       `json:"affected_documents,omitempty"`
	Recommendations   []string       `json:"recommendations,omitempty"`
	ResolvedAt        *string        `json:"resolved_at,omitempty"`
	ResolvedBy        string         `json:"resolved_by,omitempty"`
	CreatedAt         string         `json:"created_at"`
}

func policyToResponse(p *domain.AuditPolicy) *PolicyResponse {
	resp := &PolicyResponse{
		ID:         p.ID,
		Name:       p.Name,
		PolicyType: string(p.PolicyType),
		Schedule:   p.Schedule,
		Config:     p.Config,
		IsActive:   p.IsActive,
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  p.UpdatedAt.Format(time.RFC3339),
	}
	if p.LastRunAt != nil {
		s := p.LastRunAt.Format(time.RFC3339)
		resp.LastRunAt = &s
	}
	return resp
}

func resultToResponse(r *domain.AuditResult) *AuditResultResponse {
	resp := &AuditResultResponse{
		ID:                r.ID,
		PolicyID:          r.PolicyID,
		Status:            string(r.Status),
		Summary:           r.Summary,
		Details:           r.Details,
		AffectedDocuments: r.AffectedDocuments,
		Recommendations:   r.Recommendations,
		ResolvedBy:        r.ResolvedBy,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
	}
	if r.ResolvedAt != nil {
		s := r.ResolvedAt.Format(time.RFC3339)
		resp.ResolvedAt = &s
	}
	return resp
}

func resultsToResponse(results []*domain.AuditResult) []*AuditResultResponse {
	resp := make([]*AuditResultResponse, len(results))
	for i, r := range results {
		resp[i] = resultToResponse(r)
	}
	return resp
}

func (h *AuditHandler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.PolicyType == "" {
		api.Error(w, http.StatusBadRequest, "policy_type is required")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	policy, err := h.svc.CreatePolicy(r.Context(), service.CreatePolicyInput{
		Name:       req.Name,
		PolicyType: domain.PolicyType(req.PolicyType),
		Schedule:   req.Schedule,
		Config:     req.Config,
		IsActive:   isActive,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, policyToResponse(policy))
}

func (h *AuditHandler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var req UpdatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	policy, err := h.svc.UpdatePolicy(r.Context(), service.UpdatePolicyInput{
		PolicyID: chi.URLParam(r, "id"),
		Name:     req.Name,
		Schedule: req.Schedule,
		Config:   req.Config,
		IsActive: req.IsActive,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, policyToResponse(policy))
}

func (h *AuditHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.svc.GetPolicy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, policyToResponse(policy))
}

func (h *AuditHandler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.svc.ListPolicies(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*PolicyResponse, len(policies))
	for i, p := range policies {
		resp[i] = policyToResponse(p)
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *AuditHandler) RunPolicy(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RunPolicy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, resultToResponse(result))
}

func (h *AuditHandler) RunAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.RunAll(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, resultsToResponse(results))
}

func (h *AuditHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	filters := service.AuditResultFilters{
		PolicyID: r.URL.Query().Get("policy_id"),
		Status:   domain.AuditStatus(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filters.Limit = limit
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		filters.From = &from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		filters.To = &to
	}

	results, err := h.svc.ListResults(r.Context(), filters)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, resultsToResponse(results))
}

func (h *AuditHandler) ResolveResult(w http.ResponseWriter, r *http.Request) {
	var req ResolveResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ResolvedBy == "" {
		api.Error(w, http.StatusBadRequest, "resolved_by is required")
		return
	}

	result, err := h.svc.ResolveResult(r.Context(), chi.URLParam(r, "id"), req.ResolvedBy)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, resultToResponse(result))
}
