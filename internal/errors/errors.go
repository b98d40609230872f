package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Transport
	ErrCodeRequestFailed    ErrorCode = "REQUEST_FAILED"
	ErrCodeHubConnectFailed ErrorCode = "HUB_CONNECT_FAILED"
	ErrCodeHubRequestFailed ErrorCode = "HUB_REQUEST_FAILED"

	// Protocol
	ErrCodeHubProtocol ErrorCode = "HUB_PROTOCOL"

	// Authentication
	ErrCodeInvalidCredentials   ErrorCode = "INVALID_CREDENTIALS"
	ErrCodePreviousTokenInvalid ErrorCode = "PREVIOUS_TOKEN_INVALID"
	ErrCodeUnauthorized         ErrorCode = "UNAUTHORIZED"

	// Decode
	ErrCodeJSONParseFailed ErrorCode = "JSON_PARSE_FAILED"

	// Precondition
	ErrCodeNotLoggedIn      ErrorCode = "NOT_LOGGED_IN"
	ErrCodeAlreadyLoggedIn  ErrorCode = "ALREADY_LOGGED_IN"
	ErrCodeLoginInFlight    ErrorCode = "LOGIN_IN_FLIGHT"
	ErrCodeHubUninitialized ErrorCode = "HUB_UNINITIALIZED"
	ErrCodeNoResults        ErrorCode = "NO_RESULTS"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Internal
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase        ErrorCode = "DATABASE_ERROR"
	ErrCodeCredentialStore ErrorCode = "CREDENTIAL_STORE_ERROR"
)

// Category groups error codes by how the client reacts to them.
type Category string

const (
	CategoryTransport      Category = "transport"
	CategoryProtocol       Category = "protocol"
	CategoryAuthentication Category = "authentication"
	CategoryDecode         Category = "decode"
	CategoryPrecondition   Category = "precondition"
	CategoryInternal       Category = "internal"
)

// CategoryOf reports the category of a code. Unknown codes are internal.
func CategoryOf(code ErrorCode) Category {
	switch code {
	case ErrCodeRequestFailed, ErrCodeHubConnectFailed, ErrCodeHubRequestFailed:
		return CategoryTransport
	case ErrCodeHubProtocol:
		return CategoryProtocol
	case ErrCodeInvalidCredentials, ErrCodePreviousTokenInvalid, ErrCodeUnauthorized:
		return CategoryAuthentication
	case ErrCodeJSONParseFailed:
		return CategoryDecode
	case ErrCodeNotLoggedIn, ErrCodeAlreadyLoggedIn, ErrCodeLoginInFlight, ErrCodeHubUninitialized,
		ErrCodeNoResults, ErrCodeInvalidInput, ErrCodeRateLimited:
		return CategoryPrecondition
	default:
		return CategoryInternal
	}
}

// Retryable reports whether re-issuing the same command may succeed.
func Retryable(code ErrorCode) bool {
	return CategoryOf(code) == CategoryTransport
}

// AppError is a structured error that can be surfaced to the UI
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// Category returns the taxonomy bucket of the error code
func (e *AppError) Category() Category {
	return CategoryOf(e.Code)
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func RequestFailed(cause error) *AppError {
	return Wrap(ErrCodeRequestFailed, "Request failed", cause)
}

func InvalidCredentials() *AppError {
	return New(ErrCodeInvalidCredentials, "Invalid username or password")
}

func PreviousTokenInvalid(cause error) *AppError {
	return Wrap(ErrCodePreviousTokenInvalid, "Stored session token was rejected", cause)
}

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func JSONParseFailed(cause error) *AppError {
	return Wrap(ErrCodeJSONParseFailed, "Response could not be parsed", cause)
}

func NoResults() *AppError {
	return New(ErrCodeNoResults, "No matching users")
}

func NotLoggedIn() *AppError {
	return New(ErrCodeNotLoggedIn, "Not logged in")
}

func AlreadyLoggedIn() *AppError {
	return New(ErrCodeAlreadyLoggedIn, "Already logged in")
}

func LoginInFlight() *AppError {
	return New(ErrCodeLoginInFlight, "A login attempt is already in progress")
}

func HubUninitialized() *AppError {
	return New(ErrCodeHubUninitialized, "Realtime hub not connected")
}

func HubConnectFailed(cause error) *AppError {
	return Wrap(ErrCodeHubConnectFailed, "Realtime hub connection failed", cause)
}

func HubRequestFailed(method string, cause error) *AppError {
	return Wrap(ErrCodeHubRequestFailed, fmt.Sprintf("Hub invocation %s failed", method), cause)
}

func HubProtocol(message string) *AppError {
	return New(ErrCodeHubProtocol, message)
}

func InvalidInput(field string, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason))
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimited, "Rate limit exceeded")
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

func CredentialStore(cause error) *AppError {
	return Wrap(ErrCodeCredentialStore, "Credential store error", cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		appErr, ok := AsAppError(err)
		if !ok {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.cause
	}
	return false
}
