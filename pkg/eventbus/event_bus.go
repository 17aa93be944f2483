// Package eventbus provides event-driven communication for workflow lifecycle
// notifications.
package eventbus

import (
	"context"

	"github.com/meridianhq/flowline/pkg/events"
)

// Event aliases the lifecycle event contract so publisher signatures stay
// identical across packages.
type Event = events.Event

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
