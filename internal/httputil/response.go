package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/resbox/resbox-core/internal/errors"
)

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("failed to write JSON response")
	}
}

// DecodeJSON reads a JSON body into dst and rejects unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.InvalidInput("body", err.Error())
	}
	return nil
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error    string              `json:"error"`
	Code     apperrors.ErrorCode `json:"code"`
	Category apperrors.Category  `json:"category"`
	Details  any                 `json:"details,omitempty"`
}

// WriteError writes an AppError as an HTTP response with appropriate status code
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		log.Error().Err(err).Msg("unexpected error in control API")
		appErr = apperrors.Internal("An unexpected error occurred")
	}

	WriteErrorWithStatus(w, StatusFromCode(appErr.Code), appErr)
}

// WriteErrorWithStatus writes an error with a specific HTTP status code
func WriteErrorWithStatus(w http.ResponseWriter, status int, err *apperrors.AppError) {
	response := ErrorResponse{
		Error:    err.Message,
		Code:     err.Code,
		Category: err.Category(),
		Details:  err.Details,
	}
	WriteJSON(w, status, response)
}

// StatusFromCode maps an ErrorCode to an HTTP status code.
func StatusFromCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeInvalidInput:
		return http.StatusBadRequest

	case apperrors.ErrCodeUnauthorized,
		apperrors.ErrCodeInvalidCredentials,
		apperrors.ErrCodePreviousTokenInvalid:
		return http.StatusUnauthorized

	case apperrors.ErrCodeNoResults:
		return http.StatusNotFound

	case apperrors.ErrCodeNotLoggedIn,
		apperrors.ErrCodeAlreadyLoggedIn,
		apperrors.ErrCodeLoginInFlight,
		apperrors.ErrCodeHubUninitialized:
		return http.StatusConflict

	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests

	case apperrors.ErrCodeRequestFailed,
		apperrors.ErrCodeHubConnectFailed,
		apperrors.ErrCodeHubRequestFailed,
		apperrors.ErrCodeHubProtocol,
		apperrors.ErrCodeJSONParseFailed:
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
