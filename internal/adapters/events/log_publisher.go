package events

import (
	"context"
	"log/slog"

	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
)

var _ ports.EventPublisher = (*LogPublisher)(nil)

// LogPublisher writes poll events to the log. Used when no Redis is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event domain.PollEvent) error {
	attrs := []any{
		"event", "poll_event",
		"type", string(event.Type),
		"poll_id", event.PollID.String(),
		"status", string(event.Status),
		"voters", event.VoterCount,
	}
	if event.Outcome != nil {
		attrs = append(attrs, "verdict", string(event.Outcome.Verdict))
	}
	p.logger.InfoContext(ctx, "poll event", attrs...)
	return nil
}
