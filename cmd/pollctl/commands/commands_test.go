package commands

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/featurepoll/internal/bootstrap"
	"github.com/vncsmyrnk/featurepoll/internal/config"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
	"github.com/vncsmyrnk/featurepoll/internal/printer"
)

func setupTestApp(t *testing.T) (*bootstrap.App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	shared, err := bootstrap.New(context.Background(), &config.Config{
		Storage:            config.StorageMemory,
		DecisionMaxRetries: 1,
		VotingWindow:       time.Hour,
	}, config.DefaultRules(), nil)
	require.NoError(t, err)

	prevNewApp := newApp
	newApp = func(context.Context) (*bootstrap.App, error) { return shared, nil }

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	prevOut, prevErr, prevNoColor := printer.Out, printer.ErrOut, color.NoColor
	printer.Out, printer.ErrOut, color.NoColor = out, errOut, true

	t.Cleanup(func() {
		newApp = prevNewApp
		printer.Out, printer.ErrOut, color.NoColor = prevOut, prevErr, prevNoColor
		app = nil
	})
	return shared, out, errOut
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	cancelReason = string(domain.CancelReasonVetoed)
	cancelActor = ""
	nextInternal = false
	rootCmd.SetArgs(args)
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.ExecuteContext(context.Background())
}

func submit(t *testing.T, a *bootstrap.App) *domain.Poll {
	t.Helper()
	_, poll, err := a.Suggestions.Submit(context.Background(), ports.SubmitInput{
		UserID: "author", Username: "dj", ArtistName: "Moderat", AlbumName: "II", Links: "https://example.com/ii",
	})
	require.NoError(t, err)
	return poll
}

func TestShowAndClose(t *testing.T) {
	a, out, _ := setupTestApp(t)
	poll := submit(t, a)
	_, err := a.Lifecycle.Vote(context.Background(), ports.VoteInput{PollID: poll.ID, VoterID: "v1", Choice: domain.ChoiceFor})
	require.NoError(t, err)

	require.NoError(t, run(t, "show", poll.ID.String()))
	assert.Contains(t, out.String(), "status:     open")
	assert.Contains(t, out.String(), "Moderat - II")

	out.Reset()
	require.NoError(t, run(t, "close", poll.ID.String()))
	assert.Contains(t, out.String(), "decided")
	assert.Contains(t, out.String(), "approved (1 for, 0 against, quorum 1)")

	out.Reset()
	require.NoError(t, run(t, "next"))
	assert.Contains(t, out.String(), "Moderat - II (by dj)")

	require.NoError(t, run(t, "archive", poll.ID.String()))
}

func TestCloseTwiceFails(t *testing.T) {
	a, _, errOut := setupTestApp(t)
	poll := submit(t, a)

	require.NoError(t, run(t, "close", poll.ID.String()))
	err := run(t, "close", poll.ID.String())
	assert.EqualError(t, err, "Cannot close this poll")
	assert.Contains(t, errOut.String(), "invalid")
}

func TestCancelCommand(t *testing.T) {
	a, out, _ := setupTestApp(t)
	poll := submit(t, a)

	err := run(t, "cancel", poll.ID.String(), "--reason", "revoked", "--actor", "someone")
	assert.EqualError(t, err, "Not the poll author")

	require.NoError(t, run(t, "cancel", poll.ID.String(), "--reason", "revoked", "--actor", "author"))
	assert.Contains(t, out.String(), "cancelled (revoked)")

	got, err := a.Lifecycle.GetPoll(context.Background(), poll.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PollStatusCancelled, got.Status)
}

func TestInvalidPollID(t *testing.T) {
	setupTestApp(t)
	err := run(t, "show", "not-a-uuid")
	assert.EqualError(t, err, "Invalid poll id")
}

func TestSweepCommand(t *testing.T) {
	a, out, _ := setupTestApp(t)
	submit(t, a)

	require.NoError(t, run(t, "sweep"))
	assert.Contains(t, out.String(), "Sweep finished: 0 closed, 0 repaired")
}

func TestNextWithoutApproved(t *testing.T) {
	_, out, _ := setupTestApp(t)
	require.NoError(t, run(t, "next", "--internal"))
	assert.Contains(t, out.String(), "No approved suggestion yet")
}
