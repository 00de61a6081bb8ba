package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/fyreone/firekb/internal/telemetry"
)

// DefaultPolicyTimeout bounds a single policy evaluation.
const DefaultPolicyTimeout = 30 * time.Second

// feedbackWindowDays is the rolling lookback window for the feedback_quality
// policy.
const feedbackWindowDays = 7

// PolicyStore persists audit policies.
type PolicyStore interface {
	Create(ctx context.Context, p *domain.AuditPolicy) error
	GetByID(ctx context.Context, id string) (*domain.AuditPolicy, error)
	List(ctx context.Context) ([]*domain.AuditPolicy, error)
	ListActive(ctx context.Context) ([]*domain.AuditPolicy, error)
	Update(ctx context.Context, p *domain.AuditPolicy) error
	UpdateLastRun(ctx context.Context, id string, ranAt time.Time) error
}

// ResultStore persists audit results.
type ResultStore interface {
	Create(ctx context.Context, result *domain.AuditResult) error
	GetByID(ctx context.Context, id string) (*domain.AuditResult, error)
	List(ctx context.Context, filters AuditResultFilters) ([]*domain.AuditResult, error)
	Resolve(ctx context.Context, id, resolvedBy string, resolvedAt time.Time) error
}

// DocumentAuditSource supplies the document queries policies evaluate against.
type DocumentAuditSource interface {
	ListStaleActive(ctx context.Context, cutoff time.Time) ([]*domain.KnowledgeDocument, error)
	ListReadyWithoutChunks(ctx context.Context) ([]string, error)
}

// FeedbackAuditSource supplies feedback counts for the feedback_quality policy.
type FeedbackAuditSource interface {
	CountNegativeSince(ctx context.Context, since time.Time) (int, error)
}

// AuditResultFilters narrows a result listing. Zero values mean no filter.
type AuditResultFilters struct {
	PolicyID string
	Status   domain.AuditStatus
	From     *time.Time
	To       *time.Time
	Limit    int
}

// CreatePolicyInput carries a new audit policy.
type CreatePolicyInput struct {
	Name       string
	PolicyType domain.PolicyType
	Schedule   string
	Config     map[string]any
	IsActive   bool
}

// UpdatePolicyInput updates an existing audit policy.
type UpdatePolicyInput struct {
	PolicyID string
	Name     string
	Schedule string
	Config   map[string]any
	IsActive *bool
}

// AuditService manages audit policies and evaluates them against the
// knowledge base.
type AuditService struct {
	policies      PolicyStore
	results       ResultStore
	docs          DocumentAuditSource
	feedback      FeedbackAuditSource
	recorder      *EventRecorder
	uuidGen       UUIDGenerator
	policyTimeout time.Duration
	now           func() time.Time
}

func NewAuditService(policies PolicyStore, results ResultStore, docs DocumentAuditSource, feedback FeedbackAuditSource, recorder *EventRecorder, policyTimeout time.Duration) *AuditService {
	if policyTimeout <= 0 {
		policyTimeout = DefaultPolicyTimeout
	}
	return &AuditService{
		policies:      policies,
		results:       results,
		docs:          docs,
		feedback:      feedback,
		recorder:      recorder,
		uuidGen:       &DefaultUUIDGenerator{},
		policyTimeout: policyTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func NewAuditServiceWithUUIDGen(policies PolicyStore, results ResultStore, docs DocumentAuditSource, feedback FeedbackAuditSource, recorder *EventRecorder, policyTimeout time.Duration, uuidGen UUIDGenerator) *AuditService {
	s := NewAuditService(policies, results, docs, feedback, recorder, policyTimeout)
	s.uuidGen = uuidGen
	return s
}

// CreatePolicy validates and stores a new audit policy. The config must
// parse into a known policy variant.
func (s *AuditService) CreatePolicy(ctx context.Context, input CreatePolicyInput) (*domain.AuditPolicy, error) {
	if input.Name == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "policy name is required")
	}
	if _, err := domain.ParsePolicySpec(input.PolicyType, input.Config); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid policy configuration", err)
	}

	now := s.now()
	policy := &domain.AuditPolicy{
		ID:         s.uuidGen.NewString(),
		Name:       input.Name,
		PolicyType: input.PolicyType,
		Schedule:   input.Schedule,
		Config:     input.Config,
		IsActive:   input.IsActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.policies.Create(ctx, policy); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, EventPolicyCreated, EntityPolicy, policy.ID, "create", map[string]any{
		"name": policy.Name,
		"type": string(policy.PolicyType),
	})
	return policy, nil
}

// UpdatePolicy applies changes to an existing policy. The policy type is
// fixed at creation.
func (s *AuditService) UpdatePolicy(ctx context.Context, input UpdatePolicyInput) (*domain.AuditPolicy, error) {
	policy, err := s.policies.GetByID(ctx, input.PolicyID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		policy.Name = input.Name
	}
	if input.Schedule != "" {
		policy.Schedule = input.Schedule
	}
	if input.Config != nil {
		if _, err := domain.ParsePolicySpec(policy.PolicyType, input.Config); err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid policy configuration", err)
		}
		policy.Config = input.Config
	}
	if input.IsActive != nil {
		policy.IsActive = *input.IsActive
	}
	policy.UpdatedAt = s.now()

	if err := s.policies.Update(ctx, policy); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, EventPolicyUpdated, EntityPolicy, policy.ID, "update", nil)
	return policy, nil
}

// GetPolicy retrieves one policy.
func (s *AuditService) GetPolicy(ctx context.Context, id string) (*domain.AuditPolicy, error) {
	return s.policies.GetByID(ctx, id)
}

// ListPolicies returns all policies, oldest first.
func (s *AuditService) ListPolicies(ctx context.Context) ([]*domain.AuditPolicy, error) {
	return s.policies.List(ctx)
}

// RunPolicy evaluates one policy and persists the outcome. The result is
// persisted and last_run_at advances even when the evaluation errors, so a
// broken policy is visible in its result history rather than silent.
func (s *AuditService) RunPolicy(ctx context.Context, policyID string) (*domain.AuditResult, error) {
	policy, err := s.policies.GetByID(ctx, policyID)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, policy)
}

// RunAll evaluates every active policy sequentially. One policy erroring
// never stops the rest; its error is captured in that policy's result.
func (s *AuditService) RunAll(ctx context.Context) ([]*domain.AuditResult, error) {
	policies, err := s.policies.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.AuditResult, 0, len(policies))
	for _, policy := range policies {
		result, err := s.evaluate(ctx, policy)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// ListResults returns audit results matching the filters, newest first.
func (s *AuditService) ListResults(ctx context.Context, filters AuditResultFilters) ([]*domain.AuditResult, error) {
	return s.results.List(ctx, filters)
}

// ResolveResult marks an audit result resolved by an operator.
func (s *AuditService) ResolveResult(ctx context.Context, id, resolvedBy string) (*domain.AuditResult, error) {
	if resolvedBy == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "resolved_by is required")
	}
	if err := s.results.Resolve(ctx, id, resolvedBy, s.now()); err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, EventResultResolved, EntityAuditResult, id, "resolve", map[string]any{
		"resolved_by": resolvedBy,
	})
	return s.results.GetByID(ctx, id)
}

// evaluate runs one policy under the configured timeout and persists the
// result. Only persistence failures surface as errors; evaluation failures
// become error-status results.
func (s *AuditService) evaluate(ctx context.Context, policy *domain.AuditPolicy) (*domain.AuditResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "AuditService.evaluate", telemetry.SpanAttributes{
		PolicyID:  policy.ID,
		Operation: "evaluate",
	})
	defer span.End()

	ranAt := s.now()
	result := s.buildResult(ctx, policy)

	if err := domain.ValidateAuditResult(result); err != nil {
		return nil, err
	}
	if err := s.results.Create(ctx, result); err != nil {
		span.SetError(err)
		return nil, err
	}
	if err := s.policies.UpdateLastRun(ctx, policy.ID, ranAt); err != nil {
		span.SetError(err)
		return nil, err
	}

	s.recorder.Record(ctx, EventPolicyEvaluated, EntityPolicy, policy.ID, "evaluate", map[string]any{
		"result_id": result.ID,
		"status":    string(result.Status),
	})
	log.Printf("audit: policy=%s type=%s status=%s affected=%d", policy.ID, policy.PolicyType, result.Status, len(result.AffectedDocuments))
	return result, nil
}

func (s *AuditService) buildResult(ctx context.Context, policy *domain.AuditPolicy) *domain.AuditResult {
	result := &domain.AuditResult{
		ID:        s.uuidGen.NewString(),
		PolicyID:  policy.ID,
		CreatedAt: s.now(),
	}

	spec, err := domain.ParsePolicySpec(policy.PolicyType, policy.Config)
	if err != nil {
		result.Status = domain.AuditStatusError
		result.Summary = fmt.Sprintf("policy configuration rejected: %v", err)
		return result
	}

	evalCtx, cancel := context.WithTimeout(ctx, s.policyTimeout)
	defer cancel()

	if err := s.evaluateSpec(evalCtx, spec, result); err != nil {
		result.Status = domain.AuditStatusError
		result.Summary = fmt.Sprintf("evaluation failed: %v", err)
		result.Details = nil
		result.AffectedDocuments = nil
		result.Recommendations = nil
	}
	return result
}

// evaluateSpec dispatches on the sealed policy variant set. ParsePolicySpec
// guarantees spec is one of the known variants.
func (s *AuditService) evaluateSpec(ctx context.Context, spec domain.PolicySpec, result *domain.AuditResult) error {
	switch p := spec.(type) {
	case domain.FreshnessPolicy:
		return s.evaluateFreshness(ctx, p, result)
	case domain.CoveragePolicy:
		return s.evaluateCoverage(ctx, result)
	case domain.FeedbackQualityPolicy:
		return s.evaluateFeedbackQuality(ctx, p, result)
	default:
		return fmt.Errorf("unhandled policy variant %T", spec)
	}
}

func (s *AuditService) evaluateFreshness(ctx context.Context, p domain.FreshnessPolicy, result *domain.AuditResult) error {
	cutoff := s.now().AddDate(0, 0, -p.MaxAgeDays)
	stale, err := s.docs.ListStaleActive(ctx, cutoff)
	if err != nil {
		return err
	}

	result.Details = map[string]any{
		"max_age_days": p.MaxAgeDays,
		"stale_count":  len(stale),
	}

	if len(stale) == 0 {
		result.Status = domain.AuditStatusPass
		result.Summary = fmt.Sprintf("all active documents updated within %d days", p.MaxAgeDays)
		return nil
	}

	ids := make([]string, len(stale))
	for i, doc := range stale {
		ids[i] = doc.ID
	}
	result.Status = domain.AuditStatusWarning
	result.Summary = fmt.Sprintf("%d active documents not updated in %d days", len(stale), p.MaxAgeDays)
	result.AffectedDocuments = ids
	result.Recommendations = []string{
		"review the listed documents and refresh or deactivate outdated content",
	}
	return nil
}

func (s *AuditService) evaluateCoverage(ctx context.Context, result *domain.AuditResult) error {
	missing, err := s.docs.ListReadyWithoutChunks(ctx)
	if err != nil {
		return err
	}

	result.Details = map[string]any{
		"uncovered_count": len(missing),
	}

	if len(missing) == 0 {
		result.Status = domain.AuditStatusPass
		result.Summary = "every ready document has embedded chunks"
		return nil
	}

	result.Status = domain.AuditStatusFail
	result.Summary = fmt.Sprintf("%d ready documents have no embedded chunks", len(missing))
	result.AffectedDocuments = missing
	result.Recommendations = []string{
		"reprocess the listed documents to rebuild their chunk embeddings",
	}
	return nil
}

func (s *AuditService) evaluateFeedbackQuality(ctx context.Context, p domain.FeedbackQualityPolicy, result *domain.AuditResult) error {
	since := s.now().AddDate(0, 0, -feedbackWindowDays)
	negatives, err := s.feedback.CountNegativeSince(ctx, since)
	if err != nil {
		return err
	}

	result.Details = map[string]any{
		"negative_count": negatives,
		"threshold":      p.Threshold,
		"window_days":    feedbackWindowDays,
	}

	// Warning only when the count strictly exceeds the threshold; a count at
	// the threshold still passes.
	if negatives <= p.Threshold {
		result.Status = domain.AuditStatusPass
		result.Summary = fmt.Sprintf("%d negative feedback entries in the last %d days, within threshold %d", negatives, feedbackWindowDays, p.Threshold)
		return nil
	}

	result.Status = domain.AuditStatusWarning
	result.Summary = fmt.Sprintf("%d negative feedback entries in the last %d days, above threshold %d", negatives, feedbackWindowDays, p.Threshold)
	result.Recommendations = []string{
		"inspect recent negative feedback and update the documents behind the worst searches",
	}
	return nil
}
