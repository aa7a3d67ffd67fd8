package event

// DomainEvent is anything the dispatcher pushes to a connection sink. Kind
// is the wire event name the gateway publishes it under.
type DomainEvent interface {
	Kind() string
}

// StatusUpdate carries registration acknowledgments and rejected-input
// reports, only ever to the connection that caused them.
type StatusUpdate struct {
	Msg string `json:"msg"`
}

func (StatusUpdate) Kind() string { return "status_update" }

// SendSuccess echoes a processed send back to the originating connection,
// including what the recipient-side decryption produced.
type SendSuccess struct {
	OriginalMessage  string `json:"original_message"`
	EncryptedMessage string `json:"encrypted_message"`
	DecryptionStatus string `json:"decryption_status"`
}

func (SendSuccess) Kind() string { return "send_success" }

// NewMessage is the recipient-side delivery. DecryptedMessage is nil when
// the simulated open failed authentication.
type NewMessage struct {
	Sender           string  `json:"sender"`
	EncryptedData    string  `json:"encrypted_data"`
	AssociatedData   string  `json:"associated_data"`
	DecryptedMessage *string `json:"decrypted_message"`
}

func (NewMessage) Kind() string { return "new_message" }
