package outbox

import "context"

// Event is published once a purchase has been accepted by the menu API.
type Event interface {
	EventName() string
}

// Handler runs off the request path under a timeout. A returned error is logged, not retried.
type Handler func(ctx context.Context, e Event) error

// Publisher enqueues the event; handlers run after Publish returns.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber wires handlers at startup, before the first Publish.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
