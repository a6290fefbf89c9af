package service

import (
	"context"
	"fmt"
	"time"

	"ai-chat-be/pkg/events"
)

// EventPublisher is the slice of the NATS publisher the services depend on.
// Wiring a nil publisher disables eventing.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// publishEvent emits a domain event on a best-effort basis. Publishing is
// never allowed to fail the operation that triggered it.
func publishEvent(ctx context.Context, pub EventPublisher, eventType string, data map[string]interface{}) {
	if pub == nil {
		return
	}
	event := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := pub.Publish(ctx, event); err != nil {
		fmt.Printf("[WARN] Failed to publish %s event: %v\n", eventType, err)
	}
}
