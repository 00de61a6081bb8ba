package domain

import (
	"fmt"
	"time"
)

// PolicyType identifies the kind of rule an audit policy evaluates
type PolicyType string

const (
	PolicyTypeDocumentFreshness PolicyType = "document_freshness"
	PolicyTypeEmbeddingCoverage PolicyType = "embedding_coverage"
	PolicyTypeFeedbackQuality   PolicyType = "feedback_quality"
)

// AuditStatus represents the outcome of one policy evaluation
type AuditStatus string

const (
	AuditStatusPass    AuditStatus = "pass"
	AuditStatusWarning AuditStatus = "warning"
	AuditStatusFail    AuditStatus = "fail"
	AuditStatusError   AuditStatus = "error"
)

// AuditPolicy is a configured rule evaluated against system state to detect
// and report health issues in the knowledge pipeline.
type AuditPolicy struct {
	ID         string
	Name       string
	PolicyType PolicyType
	Schedule   string
	Config     map[string]any
	IsActive   bool
	LastRunAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AuditResult is the persisted outcome of one policy evaluation. Results with
// status warning or fail carry non-empty recommendations; error results carry
// a diagnostic summary instead.
type AuditResult struct {
	ID                string
	PolicyID          string
	Status            AuditStatus
	Summary           string
	Details           map[string]any
	AffectedDocuments []string
	Recommendations   []string
	ResolvedAt        *time.Time
	ResolvedBy        string
	CreatedAt         time.Time
}

// AuditEvent is one append-only record of system activity. Events are never
// mutated or deleted.
type AuditEvent struct {
	ID         string
	EventType  string
	EntityType string
	EntityID   string
	UserID     string
	Action     string
	Details    map[string]any
	CreatedAt  time.Time
}

// FeedbackRating classifies user feedback on a search result set
type FeedbackRating string

const (
	FeedbackRatingPositive FeedbackRating = "positive"
	FeedbackRatingNegative FeedbackRating = "negative"
)

// SearchFeedback is a user signal attached to a logged search.
type SearchFeedback struct {
	ID        string
	SearchID  string
	Rating    FeedbackRating
	Note      string
	CreatedAt time.Time
}

// PolicySpec is the closed set of policy variants the audit engine can
// evaluate. Parsing a stored policy row yields exactly one variant or an
// error; an unrecognized policy type can never silently pass. The unexported
// method seals the set to this package.
type PolicySpec interface {
	policySpec()
	Type() PolicyType
}

// FreshnessPolicy flags active documents not updated within MaxAgeDays.
type FreshnessPolicy struct {
	MaxAgeDays int
}

// CoveragePolicy flags ready documents with no chunk rows, a violation of the
// readiness invariant.
type CoveragePolicy struct{}

// FeedbackQualityPolicy flags an excess of negative feedback ratings within
// a rolling seven-day window.
type FeedbackQualityPolicy struct {
	Threshold int
}

func (FreshnessPolicy) policySpec()       {}
func (CoveragePolicy) policySpec()        {}
func (FeedbackQualityPolicy) policySpec() {}

func (FreshnessPolicy) Type() PolicyType       { return PolicyTypeDocumentFreshness }
func (CoveragePolicy) Type() PolicyType        { return PolicyTypeEmbeddingCoverage }
func (FeedbackQualityPolicy) Type() PolicyType { return PolicyTypeFeedbackQuality }

const (
	// DefaultFreshnessMaxAgeDays applies when a freshness policy has no
	// max_age_days configured.
	DefaultFreshnessMaxAgeDays = 90
	// DefaultFeedbackThreshold applies when a feedback_quality policy has no
	// threshold configured.
	DefaultFeedbackThreshold = 5
)

// ParsePolicySpec resolves a stored policy row into one PolicySpec variant.
// Unknown policy types return an error so the engine records an error-status
// result rather than skipping the policy.
func ParsePolicySpec(policyType PolicyType, config map[string]any) (PolicySpec, error) {
	switch policyType {
	case PolicyTypeDocumentFreshness:
		days := configInt(config, "max_age_days", DefaultFreshnessMaxAgeDays)
		if days <= 0 {
			return nil, fmt.Errorf("max_age_days must be positive: %d", days)
		}
		return FreshnessPolicy{MaxAgeDays: days}, nil
	case PolicyTypeEmbeddingCoverage:
		return CoveragePolicy{}, nil
	case PolicyTypeFeedbackQuality:
		threshold := configInt(config, "threshold", DefaultFeedbackThreshold)
		if threshold <= 0 {
			return nil, fmt.Errorf("threshold must be positive: %d", threshold)
		}
		return FeedbackQualityPolicy{Threshold: threshold}, nil
	default:
		return nil, fmt.Errorf("unrecognized policy type: %q", policyType)
	}
}

// configInt reads an integer config value, tolerating the float64 that JSON
// decoding produces.
func configInt(config map[string]any, key string, fallback int) int {
	if config == nil {
		return fallback
	}
	switch v := config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// ValidateAuditPolicy validates an AuditPolicy instance
func ValidateAuditPolicy(p *AuditPolicy) error {
	if p == nil {
		return fmt.Errorf("audit policy cannot be nil")
	}

	if p.ID == "" {
		return fmt.Errorf("audit policy ID is required")
	}

	if p.Name == "" {
		return fmt.Errorf("audit policy Name is required")
	}

	if p.PolicyType == "" {
		return fmt.Errorf("audit policy PolicyType is required")
	}

	return nil
}

// ValidateAuditResult validates an AuditResult instance, enforcing that
// warning and fail results carry remediation guidance.
func ValidateAuditResult(r *AuditResult) error {
	if r == nil {
		return fmt.Errorf("audit result cannot be nil")
	}

	if r.ID == "" {
		return fmt.Errorf("audit result ID is required")
	}

	if r.PolicyID == "" {
		return fmt.Errorf("audit result PolicyID is required")
	}

	if !isValidAuditStatus(r.Status) {
		return fmt.Errorf("audit result Status is invalid: %s", r.Status)
	}

	if (r.Status == AuditStatusWarning || r.Status == AuditStatusFail) && len(r.Recommendations) == 0 {
		return fmt.Errorf("audit result with status %s requires recommendations", r.Status)
	}

	if r.Status == AuditStatusError && len(r.Recommendations) == 0 && r.Summary == "" {
		return fmt.Errorf("audit result with status error requires a diagnostic summary")
	}

	return nil
}

// isValidAuditStatus checks if an AuditStatus is valid
func isValidAuditStatus(s AuditStatus) bool {
	switch s {
	case AuditStatusPass, AuditStatusWarning, AuditStatusFail, AuditStatusError:
		return true
	}
	return false
}

// isValidFeedbackRating checks if a FeedbackRating is valid
func isValidFeedbackRating(r FeedbackRating) bool {
	switch r {
	case FeedbackRatingPositive, FeedbackRatingNegative:
		return true
	}
	return false
}

// ValidateSearchFeedback validates a SearchFeedback instance
func ValidateSearchFeedback(f *SearchFeedback) error {
	if f == nil {
		return fmt.Errorf("search feedback cannot be nil")
	}

	if f.ID == "" {
		return fmt.Errorf("search feedback ID is required")
	}

	if f.SearchID == "" {
		return fmt.Errorf("search feedback SearchID is required")
	}

	if !isValidFeedbackRating(f.Rating) {
		return fmt.Errorf("search feedback Rating is invalid: %s", f.Rating)
	}

	return nil
}
