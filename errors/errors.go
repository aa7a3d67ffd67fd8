package errors

import "fmt"

var (
	ErrInvalidUsername = fmt.Errorf("username is empty or invalid")
	ErrNotRegistered   = fmt.Errorf("connection has not registered a username")
	ErrEmptyMessage    = fmt.Errorf("message is empty")
	ErrMessageTooLong  = fmt.Errorf("message exceeds the maximum plaintext length")
	ErrEmptyRecipient  = fmt.Errorf("recipient is empty")
)
