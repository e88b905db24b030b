package events

import (
	"context"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"go.uber.org/zap"
)

// StdoutWriter logs events instead of delivering them. Used when no sink is configured.
type StdoutWriter struct{}

func (s *StdoutWriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	zap.S().Named("stdout_writer").Infow("event",
		"topic", topic,
		"id", e.ID(),
		"type", e.Type(),
		"time", e.Time(),
		"data", string(e.Data()),
	)
	return nil
}

func (s *StdoutWriter) Close(_ context.Context) error {
	return nil
}
