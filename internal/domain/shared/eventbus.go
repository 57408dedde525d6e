package shared

import "context"

// EventHandler reacts to published domain events
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types the handler wants; empty means all
	EventTypes() []string
}

// EventPublisher delivers events to interested handlers
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages handler registration
type EventSubscriber interface {
	// Subscribe falls back to handler.EventTypes when no types are given
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is a publisher with subscription management and a lifecycle
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// EventSource is anything that records domain events until they are drained
type EventSource interface {
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// PublishPending drains the source and publishes what it held. The source is
// cleared even when publishing fails, so events are never delivered twice.
// A nil publisher only drains.
func PublishPending(ctx context.Context, publisher EventPublisher, source EventSource) (int, error) {
	events := source.GetDomainEvents()
	source.ClearDomainEvents()
	if publisher == nil || len(events) == 0 {
		return len(events), nil
	}
	return len(events), publisher.Publish(ctx, events...)
}
