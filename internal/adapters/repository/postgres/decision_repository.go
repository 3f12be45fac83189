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

type decisionRepository struct {
	db *sql.DB
}

func NewDecisionRepository(db *sql.DB) ports.DecisionRepository {
	return &decisionRepository{
		db: db,
	}
}

// CommitDecision writes the approval and the decided status in a single transaction
// while holding the poll row lock.
func (r *decisionRepository) CommitDecision(ctx context.Context, pollID uuid.UUID, approved bool) (*domain.Poll, *domain.Suggestion, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	poll, err := lockPoll(ctx, tx, pollID)
	if err != nil {
		return nil, nil, err
	}
	if err := poll.Status.CheckTransition(domain.PollStatusDecided); err != nil {
		return nil, nil, err
	}

	query := `UPDATE suggestions SET approved = $2 WHERE poll_id = $1 RETURNING ` + suggestionColumns
	suggestion, err := scanSuggestion(tx.QueryRowContext(ctx, query, pollID, approved))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.ErrSuggestionNotFound
		}
		return nil, nil, fmt.Errorf("failed to store suggestion approval: %w", err)
	}
	if suggestion.Internal != poll.Internal {
		return nil, nil, domain.ErrVisibilityMismatch
	}

	poll.Status = domain.PollStatusDecided
	if err := updatePoll(ctx, tx, poll); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return poll, suggestion, nil
}
