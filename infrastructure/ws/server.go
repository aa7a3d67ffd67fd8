// Package ws is the connection gateway: it owns the websocket lifecycle and
// hands structured events to the relay dispatcher. No relay logic lives here.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"cipher-relay/domain"
	"cipher-relay/domain/event"
	"cipher-relay/runtime"
	"cipher-relay/services"
)

var validate = validator.New()

type Server struct {
	log         *slog.Logger
	relay       services.IRelayService
	upgrader    websocket.Upgrader
	bufferSize  int
	sinkTimeout time.Duration
}

func NewServer(log *slog.Logger, relay services.IRelayService, bufferSize int, sinkTimeout time.Duration) *Server {
	return &Server{
		log:   log,
		relay: relay,
		upgrader: websocket.Upgrader{
			// The demo pages are served from the same process but the
			// original relay accepted any origin; keep that contract.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		bufferSize:  bufferSize,
		sinkTimeout: sinkTimeout,
	}
}

// ServeHTTP upgrades the connection and runs its read loop until the client
// goes away. One goroutine reads, one writes; the dispatcher is only ever
// driven from the read side, which preserves per-sender ordering.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sink := NewConnSink(s.log, s.bufferSize, s.sinkTimeout)
	conn := s.relay.Attach(sink)
	s.log.Debug("client connected", "conn_id", conn.ID, "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.writeLoop(ctx, socket, sink)

	s.readLoop(ctx, socket, conn, sink)

	// Transport closure is the unregistration signal, whatever the reason.
	s.relay.Disconnect(conn)
	cancel()
	_ = socket.Close()
}

func (s *Server) readLoop(ctx context.Context, socket *websocket.Conn, conn *runtime.Conn, sink *ConnSink) {
	for {
		_, payload, err := socket.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("read loop ended", "conn_id", conn.ID, "error", err)
			}
			return
		}
		s.handle(ctx, conn, sink, payload)
	}
}

func (s *Server) handle(ctx context.Context, conn *runtime.Conn, sink *ConnSink, payload []byte) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.report(ctx, sink, "malformed payload: not a JSON envelope")
		return
	}

	switch env.Type {
	case typeRegisterUser:
		var p registerPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			s.report(ctx, sink, "malformed register_user payload")
			return
		}
		s.relay.Register(ctx, conn, p.Username)

	case typeSendMessage:
		var p sendPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			s.report(ctx, sink, "malformed send_message payload")
			return
		}
		if err := validate.Struct(p); err != nil {
			s.report(ctx, sink, fmt.Sprintf("invalid send_message payload: %v", err))
			return
		}
		s.relay.Send(ctx, conn, domain.SendRequest{
			Sender:    p.Sender,
			Recipient: p.Recipient,
			Message:   p.Message,
		})

	default:
		s.report(ctx, sink, fmt.Sprintf("unknown event type %q", env.Type))
	}
}

// writeLoop is the only writer on the socket; gorilla connections do not
// allow concurrent writers.
func (s *Server) writeLoop(ctx context.Context, socket *websocket.Conn, sink *ConnSink) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-sink.Events:
			if err := socket.WriteJSON(outbound{Type: e.Kind(), Data: e}); err != nil {
				s.log.Debug("write failed, dropping connection", "error", err)
				return
			}
		}
	}
}

func (s *Server) report(ctx context.Context, sink *ConnSink, msg string) {
	if err := sink.Consume(ctx, event.StatusUpdate{Msg: msg}); err != nil {
		s.log.Debug("status report dropped", "error", err)
	}
}
