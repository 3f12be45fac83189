package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
)

type submissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) ports.SubmissionRepository {
	return &submissionRepository{
		db: db,
	}
}

// CreateSubmission inserts the poll and its suggestion in one transaction.
func (r *submissionRepository) CreateSubmission(ctx context.Context, suggestion *domain.Suggestion, poll *domain.Poll) error {
	if suggestion.Internal != poll.Internal {
		return domain.ErrVisibilityMismatch
	}
	if suggestion.PollID != poll.ID {
		return domain.ErrInvalidPollID
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertPoll(ctx, tx, poll); err != nil {
		return err
	}
	if err := insertSuggestion(ctx, tx, suggestion); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
