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

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) CreatePolicy(ctx context.Context, input service.CreatePolicyInput) (*domain.AuditPolicy, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditPolicy), args.Error(1)
}

func (m *MockAuditService) UpdatePolicy(ctx context.Context, input service.UpdatePolicyInput) (*domain.AuditPolicy, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditPolicy), args.Error(1)
}

func (m *MockAuditService) GetPolicy(ctx context.Context, id string) (*domain.AuditPolicy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditPolicy), args.Error(1)
}

func (m *MockAuditService) ListPolicies(ctx context.Context) ([]*domain.AuditPolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditPolicy), args.Error(1)
}

func (m *MockAuditService) RunPolicy(ctx context.Context, policyID string) (*domain.AuditResult, error) {
	args := m.Called(ctx, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditResult), args.Error(1)
}

func (m *MockAuditService) RunAll(ctx context.Context) ([]*domain.AuditResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditResult), args.Error(1)
}

func (m *MockAuditService) ListResults(ctx context.Context, filters service.AuditResultFilters) ([]*domain.AuditResult, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditResult), args.Error(1)
}

func (m *MockAuditService) ResolveResult(ctx context.Context, id, resolvedBy string) (*domain.AuditResult, error) {
	args := m.Called(ctx, id, resolvedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditResult), args.Error(1)
}

func TestAuditHandler_CreatePolicy(t *testing.T) {
	t.Run("creates policy with config", func(t *testing.T) {
		svc := new(MockAuditService)
		handler := NewAuditHandler(svc)

		svc.On("CreatePolicy", mock.Anything, mock.MatchedBy(func(input service.CreatePolicyInput) bool {
			return input.Name == "stale docs" &&
				input.PolicyType == domain.PolicyTypeDocumentFreshness &&
				input.IsActive
		})).Return(&domain.AuditPolicy{
			ID:         "policy-1",
			Name:       "stale docs",
			PolicyType: domain.PolicyTypeDocumentFreshness,
			Config:     map[string]any{"max_age_days": float64(60)},
			IsActive:   true,
		}, nil)

		body := `{"name":"stale docs","policy_type":"document_freshness","config":{"max_age_days":60}}`
		req := httptest.NewRequest(http.MethodPost, "/policies", bytes.NewReader([]byte(body)))
		rec := httptest.NewRecorder()

		handler.CreatePolicy(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("returns 400 for unknown policy type", func(t *testing.T) {
		svc := new(MockAuditService)
		handler := NewAuditHandler(svc)

		svc.On("CreatePolicy", mock.Anything, mock.Anything).Return(nil,
			domain.NewDomainError(domain.ErrCodeValidation, "unknown policy type: unknown_type"))

		body := `{"name":"bad","policy_type":"unknown_type"}`
		req := httptest.NewRequest(http.MethodPost, "/policies", bytes.NewReader([]byte(body)))
		rec := httptest.NewRecorder()

		handler.CreatePolicy(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns 400 when name missing", func(t *testing.T) {
		handler := NewAuditHandler(new(MockAuditService))

		req := httptest.NewRequest(http.MethodPost, "/policies", bytes.NewReader([]byte(`{"policy_type":"embedding_coverage"}`)))
		rec := httptest.NewRecorder()

		handler.CreatePolicy(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuditHandler_RunAll(t *testing.T) {
	t.Run("returns one result per active policy", func(t *testing.T) {
		svc := new(MockAuditService)
		handler := NewAuditHandler(svc)

		svc.On("RunAll", mock.Anything).Return([]*domain.AuditResult{
			{ID: "r1", PolicyID: "p1", Status: domain.AuditStatusError, Summary: "policy configuration rejected"},
			{ID: "r2", PolicyID: "p2", Status: domain.AuditStatusPass, Summary: "all fresh"},
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/policies/run", nil)
		rec := httptest.NewRecorder()

		handler.RunAll(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data []AuditResultResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)
		assert.Equal(t, "error", resp.Data[0].Status)
		assert.Equal(t, "pass", resp.Data[1].Status)
	})
}

func TestAuditHandler_ListResults(t *testing.T) {
	t.Run("parses filters from query string", func(t *testing.T) {
		svc := new(MockAuditService)
		handler := NewAuditHandler(svc)

		svc.On("ListResults", mock.Anything, mock.MatchedBy(func(filters service.AuditResultFilters) bool {
			return filters.PolicyID == "p1" &&
				filters.Status == domain.AuditStatusFail &&
				filters.Limit == 10 &&
				filters.From != nil
		})).Return([]*domain.AuditResult{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/audit/results?policy_id=p1&status=fail&limit=10&from=2026-01-01T00:00:00Z", nil)
		rec := httptest.NewRecorder()

		handler.ListResults(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("rejects malformed from timestamp", func(t *testing.T) {
		handler := NewAuditHandler(new(MockAuditService))

		req := httptest.NewRequest(http.MethodGet, "/audit/results?from=yesterday", nil)
		rec := httptest.NewRecorder()

		handler.ListResults(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuditHandler_ResolveResult(t *testing.T) {
	t.Run("resolves a result", func(t *testing.T) {
		svc := new(MockAuditService)
		handler := NewAuditHandler(svc)

		svc.On("ResolveResult", mock.Anything, "r1", "ops").Return(&domain.AuditResult{
			ID: "r1", Status: domain.AuditStatusWarning, ResolvedBy: "ops",
		}, nil)

		body := `{"resolved_by":"ops"}`
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/audit/results/r1/resolve", bytes.NewReader([]byte(body))), "id", "r1")
		rec := httptest.NewRecorder()

		handler.ResolveResult(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("returns 409 when already resolved", func(t *testing.T) {
		svc := new(MockAuditService)
		handler := NewAuditHandler(svc)

		svc.On("ResolveResult", mock.Anything, "r1", "ops").Return(nil, domain.ErrResultResolved)

		body := `{"resolved_by":"ops"}`
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/audit/results/r1/resolve", bytes.NewReader([]byte(body))), "id", "r1")
		rec := httptest.NewRecorder()

		handler.ResolveResult(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
