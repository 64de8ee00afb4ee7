package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"duo-journal-backend/internal/repository"
	"duo-journal-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondJSON sends body with the given status
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// decodeJSON reads the request body into dst, answering 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter, answering 400 on failure
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, name+" must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// statusFor maps service and repository errors to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidDay),
		errors.Is(err, services.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotInCouple):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrEmailTaken),
		errors.Is(err, repository.ErrCoupleFull),
		errors.Is(err, repository.ErrAlreadyPaired),
		errors.Is(err, repository.ErrSpecialDateExists),
		errors.Is(err, repository.ErrCodeTaken):
		return http.StatusConflict
	case errors.Is(err, services.ErrResetExpired):
		return http.StatusGone
	case errors.Is(err, services.ErrExportDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError logs err and answers with the mapped status. Internal
// errors are reported with fallback instead of their text.
func respondServiceError(w http.ResponseWriter, err error, userID int64, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Int64("user_id", userID).Msg(fallback)
		respondError(w, fallback, status)
		return
	}
	log.Debug().Err(err).Int64("user_id", userID).Int("status", status).Msg(fallback)
	respondError(w, err.Error(), status)
}
