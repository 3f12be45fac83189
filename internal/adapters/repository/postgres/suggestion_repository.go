package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
)

const suggestionColumns = `id, user_id, username, artist_name, album_name, links, notes, internal, poll_id, approved, created_at`

type suggestionRepository struct {
	db *sql.DB
}

func NewSuggestionRepository(db *sql.DB) ports.SuggestionRepository {
	return &suggestionRepository{
		db: db,
	}
}

// Create stores a suggestion for an existing poll. The poll row is locked while the
// visibility of both is compared.
func (r *suggestionRepository) Create(ctx context.Context, suggestion *domain.Suggestion) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	poll, err := lockPoll(ctx, tx, suggestion.PollID)
	if err != nil {
		return err
	}
	if poll.Internal != suggestion.Internal {
		return domain.ErrVisibilityMismatch
	}

	if err := insertSuggestion(ctx, tx, suggestion); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertSuggestion(ctx context.Context, db execer, s *domain.Suggestion) error {
	query := `
		INSERT INTO suggestions (id, user_id, username, artist_name, album_name, links, notes, internal, poll_id, approved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := db.ExecContext(ctx, query,
		s.ID, s.UserID, s.Username, s.ArtistName, s.AlbumName, s.Links, s.Notes, s.Internal, s.PollID, s.Approved, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert suggestion: %w", err)
	}
	return nil
}

func (r *suggestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *suggestionRepository) GetByPollID(ctx context.Context, pollID uuid.UUID) (*domain.Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE poll_id = $1`
	return r.getOne(ctx, query, pollID)
}

func (r *suggestionRepository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) (*domain.Suggestion, error) {
	query := `UPDATE suggestions SET approved = $2 WHERE id = $1 RETURNING ` + suggestionColumns
	return r.getOne(ctx, query, id, approved)
}

func (r *suggestionRepository) OldestApproved(ctx context.Context, internal bool) (*domain.Suggestion, error) {
	query := `
		SELECT ` + suggestionColumns + `
		FROM suggestions
		WHERE approved AND internal = $1
		ORDER BY created_at, id
		LIMIT 1
	`
	suggestion, err := r.getOne(ctx, query, internal)
	if errors.Is(err, domain.ErrSuggestionNotFound) {
		return nil, domain.ErrNoApprovedSuggestion
	}
	return suggestion, err
}

func (r *suggestionRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Suggestion, error) {
	suggestion, err := scanSuggestion(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSuggestionNotFound
		}
		return nil, fmt.Errorf("failed to get suggestion: %w", err)
	}
	return suggestion, nil
}

func scanSuggestion(row rowScanner) (*domain.Suggestion, error) {
	var (
		s     domain.Suggestion
		notes sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.UserID, &s.Username, &s.ArtistName, &s.AlbumName, &s.Links,
		&notes, &s.Internal, &s.PollID, &s.Approved, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		s.Notes = &notes.String
	}
	return &s, nil
}
