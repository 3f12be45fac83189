package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
)

type PollHandler struct {
	lifecycle   ports.LifecycleService
	suggestions ports.SuggestionService
}

func NewPollHandler(lifecycle ports.LifecycleService, suggestions ports.SuggestionService) *PollHandler {
	return &PollHandler{
		lifecycle:   lifecycle,
		suggestions: suggestions,
	}
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func pollIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrInvalidPollID
	}
	return id, nil
}

func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	poll, err := h.lifecycle.GetPoll(r.Context(), pollID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := checkAudience(r, poll.Internal); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

func (h *PollHandler) GetPollSuggestion(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	suggestion, err := h.suggestions.GetByPollID(r.Context(), pollID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := checkAudience(r, suggestion.Internal); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

// Tally previews the outcome the poll would get if it closed now.
func (h *PollHandler) Tally(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	poll, err := h.lifecycle.GetPoll(r.Context(), pollID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := checkAudience(r, poll.Internal); err != nil {
		writeError(w, err)
		return
	}

	outcome, err := h.lifecycle.Preview(r.Context(), pollID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *PollHandler) Close(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.lifecycle.Close(r.Context(), pollID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Cancel revokes (author) or vetoes (facilitator) a pending poll.
func (h *PollHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}
	pollID, err := pollIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	reason, err := domain.ParseCancelReason(req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	if reason == domain.CancelReasonVetoed && !principal.IsFacilitator() {
		http.Error(w, "Forbidden: facilitator role required", http.StatusForbidden)
		return
	}

	poll, err := h.lifecycle.Cancel(r.Context(), ports.CancelInput{
		PollID:  pollID,
		ActorID: principal.UserID,
		Reason:  reason,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

func (h *PollHandler) Archive(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	poll, err := h.lifecycle.Archive(r.Context(), pollID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}
