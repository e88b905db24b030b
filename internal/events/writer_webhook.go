package events

import (
	"context"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// WebhookWriter posts events in CloudEvents HTTP binary mode to a sink.
type WebhookWriter struct {
	client  cloudevents.Client
	timeout time.Duration
}

func NewWebhookWriter(sinkURL string, timeout time.Duration) (*WebhookWriter, error) {
	p, err := cloudevents.NewHTTP(cloudevents.WithTarget(sinkURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create http protocol: %w", err)
	}

	c, err := cloudevents.NewClient(p, cloudevents.WithTimeNow())
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudevents client: %w", err)
	}

	return &WebhookWriter{client: c, timeout: timeout}, nil
}

func (w *WebhookWriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	e.SetExtension("topic", topic)

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	if res := w.client.Send(ctx, e); !cloudevents.IsACK(res) {
		return fmt.Errorf("failed to deliver event %s: %w", e.ID(), res)
	}
	return nil
}

func (w *WebhookWriter) Close(_ context.Context) error {
	return nil
}
