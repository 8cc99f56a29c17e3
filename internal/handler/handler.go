package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"redeemly/internal/middleware"
	"redeemly/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies accepted by the JSON handlers.
const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent.
		return
	}
}

// writeError writes an error response with the given status code and code.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("code", code).Int("status", status).Msg(message)
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// statusFor maps a domain error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case model.ErrCodeNotFound, model.ErrCodeStoreNotFound:
		return http.StatusNotFound
	case model.ErrCodeLimitReached, model.ErrCodeAlreadyRedeemed, model.ErrCodeAlreadyExists, model.ErrCodeConflict:
		return http.StatusConflict
	case model.ErrCodeInactive, model.ErrCodeExpired, model.ErrCodeNotYetValid:
		return http.StatusUnprocessableEntity
	case model.ErrCodeStorage:
		return http.StatusServiceUnavailable
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidQRPayload, model.ErrCodeInvalidJSON:
		return http.StatusBadRequest
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError renders err. Domain errors keep their code and user
// message; anything else becomes an opaque 500.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Msg("unhandled service error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "internal server error",
		})
		return
	}

	status := statusFor(de.Code)
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Str("code", de.Code).Int("status", status).Msg("request failed")

	writeJSON(w, status, model.ErrorResponse{
		Error:     de.Code,
		Message:   de.Message,
		Retryable: de.Retryable(),
	})
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether to continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger zerolog.Logger) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, validationMessage(err), logger)
		return false
	}
	return true
}

// validationMessage flattens validator errors into one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// identity returns the authenticated caller or writes 401.
func identity(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (model.Identity, bool) {
	who, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required", logger)
		return model.Identity{}, false
	}
	return who, true
}
