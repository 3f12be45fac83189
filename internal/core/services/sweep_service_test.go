package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
)

func TestSweepClosesExpiredAndRepairsClosing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LifecycleConfig{Tally: TallyConfig{QuorumPublic: 1}}, nil)

	old, oldPoll := f.submit(t, false)
	_, stuckPoll := f.submit(t, false)
	_, freshPoll := f.submit(t, false)

	f.vote(t, oldPoll.ID, "A", domain.ChoiceFor)
	f.vote(t, stuckPoll.ID, "A", domain.ChoiceAgainst)
	_, err := f.store.SetStatus(ctx, stuckPoll.ID, domain.PollStatusClosing)
	require.NoError(t, err)

	// the three submissions are one second apart; only the first falls outside the window
	now := old.CreatedAt.Add(time.Hour)
	sweeper := NewSweepService(f.store, f.store.Suggestions(), f.lifecycle, time.Hour, nil)

	report, err := sweeper.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Closed)
	assert.Equal(t, 1, report.Repaired)
	assert.Equal(t, 0, report.Failed)

	got, err := f.store.GetByID(ctx, oldPoll.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PollStatusDecided, got.Status)

	got, err = f.store.GetByID(ctx, stuckPoll.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PollStatusDecided, got.Status)

	got, err = f.store.GetByID(ctx, freshPoll.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PollStatusOpen, got.Status)

	approved, err := f.suggest.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.True(t, approved.Approved)
}

func TestSweepWithoutWindowOnlyRepairs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, LifecycleConfig{Tally: TallyConfig{QuorumPublic: 1}}, nil)
	_, openPoll := f.submit(t, false)

	sweeper := NewSweepService(f.store, f.store.Suggestions(), f.lifecycle, 0, nil)
	report, err := sweeper.Sweep(ctx, time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, report.Closed)
	assert.Zero(t, report.Repaired)

	got, err := f.store.GetByID(ctx, openPoll.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PollStatusOpen, got.Status)
}

func TestSweepReportsFailures(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyDecisions{failures: 100}
	f := newFixture(t, LifecycleConfig{Tally: TallyConfig{QuorumPublic: 1}, DecisionRetries: 1}, flaky)
	flaky.next = f.store

	_, poll := f.submit(t, false)
	_, err := f.store.SetStatus(ctx, poll.ID, domain.PollStatusClosing)
	require.NoError(t, err)

	sweeper := NewSweepService(f.store, f.store.Suggestions(), f.lifecycle, time.Hour, nil)
	report, err := sweeper.Sweep(ctx, time.Now())
	assert.ErrorIs(t, err, domain.ErrDecisionPersistFailure)
	assert.Equal(t, 1, report.Failed)

	got, err := f.store.GetByID(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PollStatusClosing, got.Status)
}
