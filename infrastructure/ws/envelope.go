package ws

import (
	"encoding/json"

	"cipher-relay/domain/event"
)

const (
	typeRegisterUser = "register_user"
	typeSendMessage  = "send_message"
)

// Envelope is the inbound wire frame: a type tag plus its payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type registerPayload struct {
	Username string `json:"username"`
}

type sendPayload struct {
	Sender    string `json:"sender" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Message   string `json:"message"`
}

// outbound wraps a domain event under its wire name.
type outbound struct {
	Type string            `json:"type"`
	Data event.DomainEvent `json:"data"`
}
