package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
)

func setupTestPublisher(t *testing.T) (*RedisPublisher, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	publisher, err := NewRedisPublisher(&redis.Options{Addr: mr.Addr()}, "")
	require.NoError(t, err)
	t.Cleanup(func() { publisher.Close() })

	return publisher, mr
}

func TestNewRedisPublisher(t *testing.T) {
	t.Run("uses default channel", func(t *testing.T) {
		publisher, _ := setupTestPublisher(t)
		assert.Equal(t, DefaultChannel, publisher.Channel())
		assert.NoError(t, publisher.Ping(context.Background()))
	})

	t.Run("rejects empty address", func(t *testing.T) {
		_, err := NewRedisPublisher(&redis.Options{}, "events")
		assert.Error(t, err)
	})
}

func TestRedisPublisherPublish(t *testing.T) {
	ctx := context.Background()
	publisher, mr := setupTestPublisher(t)

	subscriber := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { subscriber.Close() })
	sub := subscriber.Subscribe(ctx, publisher.Channel())
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	poll := domain.NewPoll("msg-1", "author", true)
	poll.Status = domain.PollStatusDecided
	event := domain.NewPollEvent(domain.PollEventDecided, poll, time.Now())
	event.Outcome = &domain.Outcome{Approved: true, Verdict: domain.VerdictApproved, ForCount: 2, TotalVoters: 2}

	require.NoError(t, publisher.Publish(ctx, event))

	select {
	case msg := <-sub.Channel():
		var got domain.PollEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, domain.PollEventDecided, got.Type)
		assert.Equal(t, poll.ID, got.PollID)
		assert.Equal(t, "msg-1", got.MessageID)
		require.NotNil(t, got.Outcome)
		assert.True(t, got.Outcome.Approved)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestRedisPublisherReportsConnectionErrors(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	publisher, err := NewRedisPublisher(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}, "events")
	require.NoError(t, err)
	t.Cleanup(func() { publisher.Close() })
	mr.Close()

	poll := domain.NewPoll("msg-1", "author", false)
	err = publisher.Publish(context.Background(), domain.NewPollEvent(domain.PollEventClosing, poll, time.Now()))
	assert.Error(t, err)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	publisher := NewLogPublisher(logger)

	poll := domain.NewPoll("msg-1", "author", false)
	require.NoError(t, publisher.Publish(context.Background(), domain.NewPollEvent(domain.PollEventVoteRecorded, poll, time.Now())))

	assert.Contains(t, buf.String(), `"type":"vote_recorded"`)
	assert.Contains(t, buf.String(), poll.ID.String())
}
