package contract

import (
	"cipher-relay/domain"
	"cipher-relay/domain/event"
	"context"

	"github.com/google/uuid"
)

// EventSink is one connection's outbound channel. Consume must be safe for
// concurrent use and must never block forever; dropping on backpressure is
// the sink's call.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Session is the registry's non-owning view of a live connection. The
// gateway owns the channel, the registry only routes to it.
type Session struct {
	Username string
	ConnID   uuid.UUID
	Sink     EventSink
}

type IRegistry interface {
	Register(s Session)
	Unregister(username string)
	UnregisterConn(connID uuid.UUID)
	Lookup(username string) (Session, bool)
	Size() int
}

// ICryptoEngine seals plaintext under a routing context and opens blobs
// back. Open returns a value in every case, including tampered input.
type ICryptoEngine interface {
	Seal(plaintext string, ctx domain.Context) (domain.SealResult, error)
	Open(result domain.SealResult) domain.OpenResult
}
