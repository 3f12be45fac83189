package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
)

type SuggestionHandler struct {
	service ports.SuggestionService
}

func NewSuggestionHandler(service ports.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{
		service: service,
	}
}

type submitRequest struct {
	ArtistName string `json:"artist_name"`
	AlbumName  string `json:"album_name"`
	Links      string `json:"links"`
	Notes      string `json:"notes"`
	Internal   bool   `json:"internal"`
	MessageID  string `json:"message_id"`
}

type submitResponse struct {
	Suggestion *domain.Suggestion `json:"suggestion"`
	Poll       *domain.Poll       `json:"poll"`
}

func (h *SuggestionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		http.Error(w, "Unauthorized: missing user context", http.StatusUnauthorized)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Internal && !principal.Staff {
		writeError(w, domain.ErrAudienceForbidden)
		return
	}

	suggestion, poll, err := h.service.Submit(r.Context(), ports.SubmitInput{
		UserID:     principal.UserID,
		Username:   principal.Name,
		ArtistName: req.ArtistName,
		AlbumName:  req.AlbumName,
		Links:      req.Links,
		Notes:      req.Notes,
		Internal:   req.Internal,
		MessageID:  req.MessageID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{Suggestion: suggestion, Poll: poll})
}

func (h *SuggestionHandler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidSuggestionID)
		return
	}

	suggestion, err := h.service.Get(r.Context(), id)
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

// NextApproved serves the oldest approved suggestion. Internal ones (?internal=true)
// are only visible to staff.
func (h *SuggestionHandler) NextApproved(w http.ResponseWriter, r *http.Request) {
	internal := false
	if raw := r.URL.Query().Get("internal"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "invalid internal flag", http.StatusBadRequest)
			return
		}
		internal = v
	}
	if err := checkAudience(r, internal); err != nil {
		writeError(w, err)
		return
	}

	suggestion, err := h.service.NextApproved(r.Context(), internal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}
