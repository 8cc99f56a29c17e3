package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInactive        = "INACTIVE"
	ErrCodeExpired         = "EXPIRED"
	ErrCodeNotYetValid     = "NOT_YET_VALID"
	ErrCodeLimitReached    = "LIMIT_REACHED"
	ErrCodeAlreadyRedeemed = "ALREADY_REDEEMED"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeStorage         = "STORAGE_ERROR"

	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeInvalidQRPayload = "INVALID_QR_PAYLOAD"
	ErrCodeStoreNotFound    = "STORE_NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorised     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying infrastructure error, if any.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code, so wrapped
// storage errors still match their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether the caller may retry the whole operation.
func (e *DomainError) Retryable() bool {
	return e.Code == ErrCodeConflict || e.Code == ErrCodeStorage
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

const tryAgainMessage = "Something went wrong while redeeming this coupon. Please try again."

// Redemption outcomes. Messages are user facing and stable.
var (
	ErrCouponNotFound  = NewDomainError(ErrCodeNotFound, "This coupon does not exist")
	ErrCouponInactive  = NewDomainError(ErrCodeInactive, "This coupon is no longer available")
	ErrCouponExpired   = NewDomainError(ErrCodeExpired, "This coupon has expired")
	ErrCouponNotYet    = NewDomainError(ErrCodeNotYetValid, "This coupon is not valid yet")
	ErrLimitReached    = NewDomainError(ErrCodeLimitReached, "This coupon has reached its usage limit")
	ErrAlreadyRedeemed = NewDomainError(ErrCodeAlreadyRedeemed, "You have already redeemed this coupon")
	ErrConflict        = NewDomainError(ErrCodeConflict, tryAgainMessage)
	ErrStorage         = NewDomainError(ErrCodeStorage, tryAgainMessage)
)

// Catalogue and request errors
var (
	ErrStoreNotFound    = NewDomainError(ErrCodeStoreNotFound, "Store not found")
	ErrAlreadyExists    = NewDomainError(ErrCodeAlreadyExists, "A record with this ID already exists")
	ErrInvalidQRPayload = NewDomainError(ErrCodeInvalidQRPayload, "QR code does not contain a valid coupon")
	ErrForbidden        = NewDomainError(ErrCodeForbidden, "You do not have access to this resource")
)

// NewStorageError wraps an unexpected storage fault. The cause is kept for
// logging and never reaches the user message.
func NewStorageError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeStorage,
		Message: tryAgainMessage,
		cause:   err,
	}
}

// NewValidationError creates a request validation error with a custom message.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeInvalidRequest, message)
}
