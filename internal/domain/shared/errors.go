package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so that errors.Is matches
// specialised messages against the predefined errors below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrPlanLimitExceeded   = NewDomainError("PLAN_LIMIT_EXCEEDED", "Your plan does not allow this action")
	ErrPaymentRequired     = NewDomainError("PAYMENT_REQUIRED", "An active subscription is required")
)

// NotFound returns a NOT_FOUND error naming the missing resource
func NotFound(resource string) *DomainError {
	return NewDomainError("NOT_FOUND", resource+" not found")
}

// Forbidden returns a FORBIDDEN error with the given message
func Forbidden(message string) *DomainError {
	return NewDomainError("FORBIDDEN", message)
}

// PlanLimit returns a PLAN_LIMIT_EXCEEDED error with the given message
func PlanLimit(message string) *DomainError {
	return NewDomainError("PLAN_LIMIT_EXCEEDED", message)
}
