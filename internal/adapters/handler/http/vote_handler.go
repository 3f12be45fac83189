package http

import (
	"encoding/json"
	"net/http"

	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
)

type VoteHandler struct {
	service ports.LifecycleService
}

func NewVoteHandler(service ports.LifecycleService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type voteRequest struct {
	Choice string `json:"choice"`
}

func (h *VoteHandler) VoteOnPoll(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	choice, err := domain.ParseChoice(req.Choice)
	if err != nil {
		writeError(w, err)
		return
	}

	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	poll, err := h.service.Vote(r.Context(), ports.VoteInput{
		PollID:  pollID,
		VoterID: principal.UserID,
		Staff:   principal.Staff,
		Choice:  choice,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, poll)
}

func (h *VoteHandler) Unvote(w http.ResponseWriter, r *http.Request) {
	pollID, err := pollIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	poll, err := h.service.RetractVote(r.Context(), ports.RetractVoteInput{
		PollID:  pollID,
		VoterID: principal.UserID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}
