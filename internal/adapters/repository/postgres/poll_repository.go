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

const pollColumns = `id, message_id, author_id, internal, status, cancel_reason, votes`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

func (r *pollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	return insertPoll(ctx, r.db, poll)
}

func insertPoll(ctx context.Context, db execer, poll *domain.Poll) error {
	status, err := encodeStatus(poll.Status)
	if err != nil {
		return err
	}
	votes, err := encodeVotes(poll.Votes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO polls (id, message_id, author_id, internal, status, cancel_reason, votes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = db.ExecContext(ctx, query,
		poll.ID, poll.MessageID, poll.AuthorID, poll.Internal, status, nullableReason(poll.CancelReason), string(votes),
	)
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}
	return nil
}

func (r *pollRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM polls WHERE id = $1`

	poll, err := scanPoll(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	return poll, nil
}

func (r *pollRepository) RecordVote(ctx context.Context, id uuid.UUID, voterID string, choice domain.Choice) (*domain.Poll, error) {
	poll, _, err := r.mutate(ctx, id, func(p *domain.Poll) (bool, error) {
		if p.Status != domain.PollStatusOpen {
			return false, domain.ErrPollClosed
		}
		p.Votes.Set(voterID, choice)
		return true, nil
	})
	return poll, err
}

func (r *pollRepository) RemoveVote(ctx context.Context, id uuid.UUID, voterID string) (*domain.Poll, error) {
	poll, _, err := r.mutate(ctx, id, func(p *domain.Poll) (bool, error) {
		if p.Status != domain.PollStatusOpen {
			return false, domain.ErrPollClosed
		}
		if !p.Votes.Remove(voterID) {
			return false, domain.ErrNoVote
		}
		return true, nil
	})
	return poll, err
}

func (r *pollRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.PollStatus) (*domain.Poll, error) {
	poll, _, err := r.mutate(ctx, id, func(p *domain.Poll) (bool, error) {
		if err := p.Status.CheckTransition(status); err != nil {
			return false, err
		}
		p.Status = status
		return true, nil
	})
	return poll, err
}

func (r *pollRepository) Cancel(ctx context.Context, id uuid.UUID, reason domain.CancelReason) (*domain.Poll, bool, error) {
	return r.mutate(ctx, id, func(p *domain.Poll) (bool, error) {
		if p.Status.Terminal() {
			return false, nil
		}
		p.Status = domain.PollStatusCancelled
		p.CancelReason = reason
		return true, nil
	})
}

func (r *pollRepository) ListByStatus(ctx context.Context, status domain.PollStatus) ([]*domain.Poll, error) {
	code, err := encodeStatus(status)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + pollColumns + ` FROM polls WHERE status = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	polls := make([]*domain.Poll, 0)
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating polls: %w", err)
	}
	return polls, nil
}

// mutate loads the poll under a row lock, applies fn and writes the result back.
// Concurrent writers on the same poll queue on the lock; other polls are unaffected.
func (r *pollRepository) mutate(ctx context.Context, id uuid.UUID, fn func(p *domain.Poll) (bool, error)) (*domain.Poll, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	poll, err := lockPoll(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}

	changed, err := fn(poll)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return poll, false, nil
	}

	if err := updatePoll(ctx, tx, poll); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return poll, true, nil
}

func lockPoll(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM polls WHERE id = $1 FOR UPDATE`

	poll, err := scanPoll(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to lock poll: %w", err)
	}
	return poll, nil
}

func updatePoll(ctx context.Context, db execer, poll *domain.Poll) error {
	status, err := encodeStatus(poll.Status)
	if err != nil {
		return err
	}
	votes, err := encodeVotes(poll.Votes)
	if err != nil {
		return err
	}

	query := `
		UPDATE polls
		SET status = $2, cancel_reason = $3, votes = $4, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := db.ExecContext(ctx, query, poll.ID, status, nullableReason(poll.CancelReason), string(votes)); err != nil {
		return fmt.Errorf("failed to update poll: %w", err)
	}
	return nil
}

func scanPoll(row rowScanner) (*domain.Poll, error) {
	var (
		poll   domain.Poll
		status int16
		reason sql.NullString
		votes  []byte
	)
	if err := row.Scan(&poll.ID, &poll.MessageID, &poll.AuthorID, &poll.Internal, &status, &reason, &votes); err != nil {
		return nil, err
	}

	var err error
	if poll.Status, err = decodeStatus(status); err != nil {
		return nil, err
	}
	if poll.Votes, err = decodeVotes(votes); err != nil {
		return nil, err
	}
	poll.CancelReason = domain.CancelReason(reason.String)
	return &poll, nil
}

func nullableReason(reason domain.CancelReason) sql.NullString {
	return sql.NullString{String: string(reason), Valid: reason != ""}
}
