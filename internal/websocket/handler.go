// internal/websocket/handler.go
package websocket

import (
	"context"
	"fmt"

	wstypes "retention-service/internal/domain/websocket"
)

// MessageHandler takes the client events of one feature.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error

	// SupportedEvents returns the event types routed to this handler
	SupportedEvents() []wstypes.EventType
}

// HandlerRegistry routes each event type to exactly one handler.
type HandlerRegistry struct {
	handlers map[wstypes.EventType]MessageHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[wstypes.EventType]MessageHandler),
	}
}

// Register adds handler for its events. Built-in events and events already
// taken by another handler are rejected and nothing is registered.
func (r *HandlerRegistry) Register(handler MessageHandler) error {
	events := handler.SupportedEvents()
	for _, eventType := range events {
		switch eventType {
		case wstypes.EventTypePing, wstypes.EventTypePong, wstypes.EventTypeConnected, wstypes.EventTypeError:
			return fmt.Errorf("event %q is reserved", eventType)
		}
		if _, taken := r.handlers[eventType]; taken {
			return fmt.Errorf("event %q already has a handler", eventType)
		}
	}
	for _, eventType := range events {
		r.handlers[eventType] = handler
	}
	return nil
}

func (r *HandlerRegistry) Lookup(eventType wstypes.EventType) (MessageHandler, bool) {
	handler, exists := r.handlers[eventType]
	return handler, exists
}
