package domain

import "encoding/base64"

// Context is the routing pair a blob is sealed under. It is part of the
// authenticated data: opening a blob under a different pair must fail.
type Context struct {
	Sender    string
	Recipient string
}

// AssociatedData renders the context in the exact form it is authenticated
// under on the wire: "<sender> to <recipient>".
func (c Context) AssociatedData() []byte {
	return []byte(c.Sender + " to " + c.Recipient)
}

// SendRequest is a transient command, alive for one dispatch only.
type SendRequest struct {
	Sender    string
	Recipient string
	Message   string
}

// SealResult carries an authenticated blob laid out as nonce || tag || ct.
type SealResult struct {
	Ciphertext []byte
	Context    Context
}

// Display is the base64 form shown to clients.
func (s SealResult) Display() string {
	return base64.StdEncoding.EncodeToString(s.Ciphertext)
}

// OpenResult is a tagged outcome: Opened or IntegrityFailure. Opening never
// errors out-of-band, the dispatcher always inspects a value.
type OpenResult interface {
	openResult()
}

type Opened struct {
	Plaintext string
}

type IntegrityFailure struct {
	Reason string
}

func (Opened) openResult()           {}
func (IntegrityFailure) openResult() {}
