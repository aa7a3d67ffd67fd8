package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"cipher-relay/contract"
	"cipher-relay/domain"
	"cipher-relay/domain/event"
	"cipher-relay/errors"
)

// ConnState is the per-connection lifecycle. Closed is terminal.
type ConnState int

const (
	StateUnregistered ConnState = iota
	StateRegistered
	StateClosed
)

// Conn is the dispatcher's handle for one live connection. Its methods are
// driven from that connection's single read goroutine; the mutex only guards
// against the gateway racing a close from another goroutine.
type Conn struct {
	ID   uuid.UUID
	sink contract.EventSink

	mu       sync.Mutex
	state    ConnState
	username string
}

func (c *Conn) snapshot() (ConnState, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.username
}

// Dispatcher is the relay state machine: it interprets register and send
// commands, drives the crypto engine and routes outcomes to the right sinks.
type Dispatcher struct {
	log      *slog.Logger
	engine   contract.ICryptoEngine
	registry contract.IRegistry

	totalSends        atomic.Uint64
	integrityFailures atomic.Uint64
}

func NewDispatcher(log *slog.Logger, engine contract.ICryptoEngine, registry contract.IRegistry) *Dispatcher {
	return &Dispatcher{log: log, engine: engine, registry: registry}
}

// Attach creates the dispatcher-side handle for a freshly opened connection.
func (d *Dispatcher) Attach(sink contract.EventSink) *Conn {
	return &Conn{ID: uuid.New(), sink: sink, state: StateUnregistered}
}

// Register binds a username to the connection. Re-registering is a self-loop
// that updates the mapping, possibly under a new name.
func (d *Dispatcher) Register(ctx context.Context, c *Conn, username string) {
	username = strings.TrimSpace(username)
	if username == "" {
		d.emit(ctx, c.sink, event.StatusUpdate{Msg: errors.ErrInvalidUsername.Error()})
		return
	}

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	previous := c.username
	c.state = StateRegistered
	c.username = username
	c.mu.Unlock()

	if previous != "" && previous != username {
		// The connection switched names; its old mapping must not linger.
		d.registry.UnregisterConn(c.ID)
	}
	d.registry.Register(contract.Session{Username: username, ConnID: c.ID, Sink: c.sink})

	d.log.Info("user registered", "username", username, "conn_id", c.ID)
	d.emit(ctx, c.sink, event.StatusUpdate{Msg: fmt.Sprintf("%s connected!", username)})
}

// Send runs the full pipeline for one message: seal, simulated open, echo to
// the sender, best-effort delivery to the recipient. The open step always
// runs, recipient online or not, so the sender can see what decryption would
// look like.
func (d *Dispatcher) Send(ctx context.Context, c *Conn, req domain.SendRequest) {
	state, sender := c.snapshot()
	if state != StateRegistered {
		d.emit(ctx, c.sink, event.StatusUpdate{Msg: errors.ErrNotRegistered.Error()})
		return
	}

	recipient := strings.TrimSpace(req.Recipient)
	if recipient == "" {
		d.emit(ctx, c.sink, event.StatusUpdate{Msg: errors.ErrEmptyRecipient.Error()})
		return
	}
	if req.Message == "" {
		d.emit(ctx, c.sink, event.StatusUpdate{Msg: errors.ErrEmptyMessage.Error()})
		return
	}

	cryptoCtx := domain.Context{Sender: sender, Recipient: recipient}
	sealed, err := d.engine.Seal(req.Message, cryptoCtx)
	if err != nil {
		d.emit(ctx, c.sink, event.StatusUpdate{Msg: err.Error()})
		return
	}
	d.totalSends.Add(1)

	opened := d.engine.Open(sealed)

	var decrypted *string
	var status string
	switch result := opened.(type) {
	case domain.Opened:
		decrypted = lo.ToPtr(result.Plaintext)
		status = fmt.Sprintf("✅ success: %q", result.Plaintext)
	case domain.IntegrityFailure:
		d.integrityFailures.Add(1)
		status = fmt.Sprintf("❌ %s", result.Reason)
		d.log.Warn("simulated decryption failed", "sender", sender, "recipient", recipient, "reason", result.Reason)
	}

	// Sender echo first, recipient notification second, on the sender's own
	// goroutine: a later send can never overtake an earlier one.
	d.emit(ctx, c.sink, event.SendSuccess{
		OriginalMessage:  req.Message,
		EncryptedMessage: sealed.Display(),
		DecryptionStatus: status,
	})

	target, ok := d.registry.Lookup(recipient)
	if !ok {
		// Best effort: nobody under that name right now, nothing to do.
		d.log.Debug("recipient offline, dropping delivery", "recipient", recipient)
		return
	}
	d.emit(ctx, target.Sink, event.NewMessage{
		Sender:           sender,
		EncryptedData:    sealed.Display(),
		AssociatedData:   string(cryptoCtx.AssociatedData()),
		DecryptedMessage: decrypted,
	})
}

// Disconnect is terminal: the registry entry is removed unless a newer
// connection already took the username over.
func (d *Dispatcher) Disconnect(c *Conn) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	username := c.username
	c.mu.Unlock()

	d.registry.UnregisterConn(c.ID)
	if username != "" {
		d.log.Info("user disconnected", "username", username, "conn_id", c.ID)
	}
}

// Stats feeds the monitoring endpoint.
func (d *Dispatcher) Stats() map[string]any {
	return map[string]any{
		"registered_sessions": d.registry.Size(),
		"total_sends":         d.totalSends.Load(),
		"integrity_failures":  d.integrityFailures.Load(),
	}
}

// emit pushes an event to a sink; a failed push means the connection is gone
// or saturated, which is that connection's problem only.
func (d *Dispatcher) emit(ctx context.Context, sink contract.EventSink, e event.DomainEvent) {
	if err := sink.Consume(ctx, e); err != nil {
		d.log.Debug("event dropped", "kind", e.Kind(), "error", err)
	}
}
