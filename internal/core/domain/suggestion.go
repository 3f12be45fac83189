package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Suggestion struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	ArtistName string    `json:"artist_name"`
	AlbumName  string    `json:"album_name"`
	Links      string    `json:"links"`
	Notes      *string   `json:"notes,omitempty"`
	Internal   bool      `json:"internal"`
	PollID     uuid.UUID `json:"poll_id"`
	Approved   bool      `json:"approved"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks the fields a submission must carry before it is stored.
func (s *Suggestion) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidSuggestion)
	}
	if strings.TrimSpace(s.ArtistName) == "" {
		return fmt.Errorf("%w: artist name is required", ErrInvalidSuggestion)
	}
	if strings.TrimSpace(s.AlbumName) == "" {
		return fmt.Errorf("%w: album name is required", ErrInvalidSuggestion)
	}
	if strings.TrimSpace(s.Links) == "" {
		return fmt.Errorf("%w: at least one link is required", ErrInvalidSuggestion)
	}
	return nil
}

func (s *Suggestion) Clone() *Suggestion {
	if s == nil {
		return nil
	}
	c := *s
	if s.Notes != nil {
		notes := *s.Notes
		c.Notes = &notes
	}
	return &c
}
