package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeProvider         = "PROVIDER_ERROR"
	ErrCodePolicyEvaluation = "POLICY_EVALUATION_ERROR"
	ErrCodePersistence      = "PERSISTENCE_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrInvalidDocumentStatus = NewDomainError(ErrCodeValidation, "invalid document status")
	ErrInvalidJobStatus      = NewDomainError(ErrCodeValidation, "invalid ingestion job status")
	ErrInvalidPolicyType     = NewDomainError(ErrCodeValidation, "invalid policy type")
	ErrInvalidRating         = NewDomainError(ErrCodeValidation, "invalid feedback rating")
	ErrMissingRequiredField  = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrDocumentNotFound    = NewDomainError(ErrCodeNotFound, "document not found")
	ErrRevisionNotFound    = NewDomainError(ErrCodeNotFound, "document revision not found")
	ErrJobNotFound         = NewDomainError(ErrCodeNotFound, "ingestion job not found")
	ErrPolicyNotFound      = NewDomainError(ErrCodeNotFound, "audit policy not found")
	ErrAuditResultNotFound = NewDomainError(ErrCodeNotFound, "audit result not found")
	ErrSearchLogNotFound   = NewDomainError(ErrCodeNotFound, "search log not found")
)

// Operation errors
var (
	ErrJobTerminal       = NewDomainError(ErrCodeInvalidOperation, "ingestion job already reached a terminal status")
	ErrDocumentInactive  = NewDomainError(ErrCodeInvalidOperation, "document is inactive")
	ErrResultResolved    = NewDomainError(ErrCodeInvalidOperation, "audit result already resolved")
	ErrProgressDecreased = NewDomainError(ErrCodeInvalidOperation, "ingestion job progress cannot decrease")
)
