package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"currency-exchange/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// EventPublisher implements ports.EventPublisher on a Redis Stream. Each
// entry carries the event type, the offer id and the JSON payload.
type EventPublisher struct {
	client *goredis.Client
	stream string
	maxLen int64
}

// NewEventPublisher creates a publisher appending to stream. A positive
// maxLen caps the stream length approximately.
func NewEventPublisher(client *goredis.Client, stream string, maxLen int64) *EventPublisher {
	return &EventPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Publish appends event to the stream.
func (p *EventPublisher) Publish(ctx context.Context, event domain.OfferEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal offer event: %w", err)
	}

	args := &goredis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":     string(event.Type),
			"offer_id": event.OfferID.String(),
			"payload":  string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis xadd %s: %w", p.stream, err)
	}
	return nil
}
