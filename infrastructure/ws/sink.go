package ws

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cipher-relay/domain/event"
)

// ConnSink buffers outbound events for one websocket connection. The write
// loop drains Events; Consume is called by the dispatcher from any sender's
// goroutine.
type ConnSink struct {
	log     *slog.Logger
	Events  chan event.DomainEvent
	timeout time.Duration
}

func NewConnSink(log *slog.Logger, bufferSize int, timeout time.Duration) *ConnSink {
	return &ConnSink{
		log:     log,
		Events:  make(chan event.DomainEvent, bufferSize),
		timeout: timeout,
	}
}

// Consume hands an event to the write loop. A consumer that cannot keep up
// within the timeout loses the event; the relay never blocks on one slow
// connection.
func (s *ConnSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.timeout):
		return fmt.Errorf("connection buffer full, %s dropped", e.Kind())
	}
}
