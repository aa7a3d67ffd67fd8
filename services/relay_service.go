package services

import (
	"context"

	"cipher-relay/contract"
	"cipher-relay/domain"
	"cipher-relay/runtime"
)

type IRelayService interface {
	Attach(sink contract.EventSink) *runtime.Conn
	Register(ctx context.Context, conn *runtime.Conn, username string)
	Send(ctx context.Context, conn *runtime.Conn, req domain.SendRequest)
	Disconnect(conn *runtime.Conn)
}

// RelayService is the gateway-facing facade over the dispatcher.
type RelayService struct {
	dispatcher *runtime.Dispatcher
}

func NewRelayService(dispatcher *runtime.Dispatcher) *RelayService {
	return &RelayService{dispatcher: dispatcher}
}

func (s *RelayService) Attach(sink contract.EventSink) *runtime.Conn {
	return s.dispatcher.Attach(sink)
}

func (s *RelayService) Register(ctx context.Context, conn *runtime.Conn, username string) {
	s.dispatcher.Register(ctx, conn, username)
}

func (s *RelayService) Send(ctx context.Context, conn *runtime.Conn, req domain.SendRequest) {
	s.dispatcher.Send(ctx, conn, req)
}

func (s *RelayService) Disconnect(conn *runtime.Conn) {
	s.dispatcher.Disconnect(conn)
}
