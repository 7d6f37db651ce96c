// Package handler provides HTTP handlers for the Hemolink API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/service"
)

// APIError is the JSON error response body.
type APIError struct {
	// Error is a short machine-readable code.
	Error string `json:"error"`

	// Message is a human-readable description.
	Message string `json:"message,omitempty"`

	// Fields maps field names to violation messages for validation
	// failures.
	Fields map[string]string `json:"fields,omitempty"`
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Error().Err(err).Msg("failed to encode response")
		}
	}
}

// writeError maps a service error onto an HTTP response.
//
// Validation failures return 400 with every field violation. Missing
// entities return 404. Conflicts with current state (duplicates,
// terminal requests, resolved reviews, drained inventory) return 409.
func writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, APIError{
			Error:   "validation_failed",
			Message: "one or more fields are invalid",
			Fields:  verr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrDonorProfileNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrDonationNotFound),
		errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrDeletionRequestNotFound),
		errors.Is(err, domain.ErrBloodBankNotFound),
		errors.Is(err, domain.ErrNotificationNotFound):
		writeJSON(w, http.StatusNotFound, APIError{Error: "not_found", Message: err.Error()})

	case errors.Is(err, domain.ErrUserAlreadyExists),
		errors.Is(err, domain.ErrDonorProfileExists):
		writeJSON(w, http.StatusConflict, APIError{Error: "already_exists", Message: err.Error()})

	case errors.Is(err, domain.ErrRequestTerminal),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrRequestExpired),
		errors.Is(err, domain.ErrDeletionAlreadyResolved),
		errors.Is(err, domain.ErrInsufficientInventory),
		errors.Is(err, domain.ErrDonorNotEligible),
		errors.Is(err, service.ErrSelfDeletionReview):
		writeJSON(w, http.StatusConflict, APIError{Error: "conflict", Message: err.Error()})

	case errors.Is(err, domain.ErrInvalidRole):
		writeJSON(w, http.StatusBadRequest, APIError{Error: "invalid_role", Message: err.Error()})

	case errors.Is(err, service.ErrInvalidPassword):
		writeJSON(w, http.StatusBadRequest, APIError{Error: "invalid_password", Message: err.Error()})

	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, APIError{Error: "invalid_credentials", Message: "invalid credentials"})

	case errors.Is(err, domain.ErrUserSuspended):
		writeJSON(w, http.StatusForbidden, APIError{Error: "account_suspended", Message: err.Error()})

	default:
		log.Error().Err(err).Msg("internal error")
		writeJSON(w, http.StatusInternalServerError, APIError{Error: "internal", Message: "internal server error"})
	}
}

// decodeJSON decodes a request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeBadRequest writes a 400 for malformed request bodies.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, APIError{Error: "bad_request", Message: message})
}

// urlID parses a numeric {id}-style URL parameter.
func urlID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter, falling back to
// zero when absent or malformed.
func queryInt(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}
