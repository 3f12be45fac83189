package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrPollNotFound),
		errors.Is(err, domain.ErrSuggestionNotFound),
		errors.Is(err, domain.ErrNoApprovedSuggestion),
		errors.Is(err, domain.ErrNoVote):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPollClosed),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSelfVote),
		errors.Is(err, domain.ErrAudienceForbidden),
		errors.Is(err, domain.ErrNotPollAuthor):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidPollID),
		errors.Is(err, domain.ErrInvalidSuggestionID),
		errors.Is(err, domain.ErrInvalidSuggestion),
		errors.Is(err, domain.ErrInvalidChoice),
		errors.Is(err, domain.ErrInvalidVoter),
		errors.Is(err, domain.ErrInvalidCancelReason),
		errors.Is(err, domain.ErrVisibilityMismatch):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDecisionPersistFailure):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	http.Error(w, msg, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
